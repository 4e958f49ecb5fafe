package pkg

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nlpodyssey/spago/pkg/ml/stats"
	"github.com/stretchr/testify/require"

	"textclass/pkg/io"
	"textclass/pkg/model"
)

const testVocabulary = `the
cat
dog
sat
ran
ball
game
won
`

const testData = `id,text,label
1,The cat sat. The dog ran!,pets
2,The game was won.,sports
3,The dog chased the ball. The cat sat,pets|sports
4,,sports
`

func writeFile(t *testing.T, dir, name, content string) string {
	fileName := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(fileName, []byte(content), 0o644))
	return fileName
}

func readLines(t *testing.T, fileName string) []string {
	content, err := ioutil.ReadFile(fileName)
	require.NoError(t, err)
	return strings.Split(strings.TrimSpace(string(content)), "\n")
}

func createTestModel(t *testing.T, dir string, config model.Config) string {
	modelFile := filepath.Join(dir, "model.bin")
	err := Create(modelFile, config, CreateParameters{
		VocabularyFile: writeFile(t, dir, "vocab.txt", testVocabulary),
		Classes:        []string{"pets", "sports"},
		TextColumn:     "text",
		LabelColumn:    "label",
		MaxSentences:   3,
		MaxWords:       6,
		RndSeed:        42,
	})
	require.NoError(t, err)
	return modelFile
}

func TestCreateEvaluatePredict(t *testing.T) {
	tests := []struct {
		name   string
		config model.Config
	}{
		{"han", model.Config{Type: model.HANType, CellSize: 4, EmbeddingDim: 5, KeepProb: 0.5}},
		{"han multilabel", model.Config{Type: model.HANType, CellSize: 4, EmbeddingDim: 5, KeepProb: 1, Multilabel: true}},
		{"logreg", model.Config{Type: model.LogRegType, EmbeddingDim: 5, KeepProb: 1}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			modelFile := createTestModel(t, dir, test.config)
			dataFile := writeFile(t, dir, "data.csv", testData)
			p := InferenceParameters{BatchSize: 3, RndSeed: 42}

			evaluationFile := filepath.Join(dir, "evaluation.csv")
			var report bytes.Buffer
			require.NoError(t, Evaluate(modelFile, dataFile, evaluationFile, &report, p))
			require.Contains(t, report.String(), "PRECISION")
			require.Contains(t, report.String(), "pets")
			require.Equal(t, 4, len(readLines(t, evaluationFile)))

			predictionFile := filepath.Join(dir, "predictions.csv")
			require.NoError(t, Predict(modelFile, dataFile, predictionFile, p))
			lines := readLines(t, predictionFile)
			require.Equal(t, 4, len(lines))
			for i, line := range lines {
				require.True(t, strings.HasPrefix(line, string(rune('1'+i))+","), line)
			}
		})
	}
}

func TestEvaluateInternal_Loss(t *testing.T) {
	dir := t.TempDir()
	modelFile := createTestModel(t, dir, model.Config{Type: model.HANType, CellSize: 3, EmbeddingDim: 4, KeepProb: 1})
	m, err := loadModel(modelFile)
	require.NoError(t, err)
	require.Equal(t, 10, m.Classifier.Hyperparameters().VocabularySize)
	require.Equal(t, 2, m.Classifier.Hyperparameters().NumClasses)

	data := writeFile(t, dir, "data.csv", testData)
	records, _, err := io.LoadData(io.DataParameters{
		DataFile:    data,
		TextColumn:  m.MetaData.TextColumn,
		LabelColumn: m.MetaData.LabelColumn,
	}, m.MetaData)
	require.NoError(t, err)

	// batch size must not change the mean loss
	single, err := evaluateInternal(m, records, NoopWriter{}, InferenceParameters{BatchSize: 1, RndSeed: 42})
	require.NoError(t, err)
	all, err := evaluateInternal(m, records, NoopWriter{}, InferenceParameters{BatchSize: 10, RndSeed: 42})
	require.NoError(t, err)
	require.Greater(t, single.Loss, 0.0)
	require.InDelta(t, single.Loss, all.Loss, 1e-4)
}

func TestCreate_Errors(t *testing.T) {
	dir := t.TempDir()
	config := model.Config{Type: model.LogRegType, EmbeddingDim: 5, KeepProb: 1}

	err := Create(filepath.Join(dir, "model.bin"), config, CreateParameters{Classes: []string{"a"}})
	require.Error(t, err)

	err = Create(filepath.Join(dir, "model.bin"), config, CreateParameters{
		VocabularyFile: writeFile(t, dir, "vocab.txt", testVocabulary),
	})
	require.ErrorIs(t, err, model.ErrConfig)

	err = Create(filepath.Join(dir, "model.bin"), config, CreateParameters{
		VocabularyFile: filepath.Join(dir, "missing.txt"),
		Classes:        []string{"a"},
	})
	require.Error(t, err)
}

func TestCreate_Embeddings(t *testing.T) {
	dir := t.TempDir()
	modelFile := filepath.Join(dir, "model.bin")
	err := Create(modelFile, model.Config{Type: model.LogRegType, EmbeddingDim: 50, KeepProb: 1}, CreateParameters{
		EmbeddingsFile: writeFile(t, dir, "glove.txt", "cat 1 0 0\ndog 0 1 0\n"),
		Classes:        []string{"pets"},
		TextColumn:     "text",
	})
	require.NoError(t, err)

	m, err := loadModel(modelFile)
	require.NoError(t, err)
	require.Equal(t, 3, m.Classifier.Hyperparameters().EmbeddingDim)
	require.Equal(t, 4, m.Classifier.Embedding().VocabularySize)
	index, ok := m.MetaData.Vocabulary.ContainsName("dog")
	require.True(t, ok)
	require.Equal(t, []float32{0, 1, 0}, m.Classifier.Embedding().Vectors[index].Value().Data())
}

func TestPredict_MissingModel(t *testing.T) {
	dir := t.TempDir()
	err := Predict(filepath.Join(dir, "missing.bin"), filepath.Join(dir, "data.csv"), "", InferenceParameters{BatchSize: 1})
	require.Error(t, err)
}

func TestComputeOverallF1(t *testing.T) {
	metrics := map[string]*stats.ClassMetrics{
		"a": {TruePos: 3},
		"b": {TruePos: 1, FalsePos: 1, FalseNeg: 1},
	}
	macroF1, microF1 := computeOverallF1(metrics)
	require.InDelta(t, 0.75, macroF1, 1e-6)
	require.InDelta(t, 0.8, microF1, 1e-6)

	macroF1, microF1 = computeOverallF1(map[string]*stats.ClassMetrics{})
	require.Equal(t, 0.0, macroF1)
	require.Equal(t, 0.0, microF1)
}

func TestSortClasses(t *testing.T) {
	metrics := map[string]*stats.ClassMetrics{
		"sports": stats.NewMetricCounter(),
		"food":   stats.NewMetricCounter(),
		"pets":   stats.NewMetricCounter(),
	}
	require.Equal(t, []string{"food", "pets", "sports"}, sortClasses(metrics))
}
