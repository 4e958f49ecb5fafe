package io

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	mat "github.com/nlpodyssey/spago/pkg/mat32"
	"github.com/nlpodyssey/spago/pkg/mat32/rand"
	"github.com/stretchr/testify/require"

	"textclass/pkg/model"
)

const embeddingsFile = `the 0.1 0.2
cat 1 0
Sat 0 2
`

func testMetadata(t *testing.T) *model.Metadata {
	vocabulary, _, err := LoadEmbeddings(strings.NewReader(embeddingsFile))
	require.NoError(t, err)
	metaData := model.NewMetadata()
	metaData.Vocabulary = vocabulary
	metaData.Labels.ValueFor("pets")
	metaData.Labels.ValueFor("sports")
	return metaData
}

func TestLoadEmbeddings(t *testing.T) {
	vocabulary, matrix, err := LoadEmbeddings(strings.NewReader(embeddingsFile))
	require.NoError(t, err)

	require.Equal(t, 5, vocabulary.Size())
	require.Equal(t, 5, matrix.Rows())
	require.Equal(t, 2, matrix.Columns())

	index, ok := vocabulary.ContainsName("sat")
	require.True(t, ok)
	require.Equal(t, 4, index)
	require.Equal(t, mat.Float(2), matrix.At(4, 1))
	require.Equal(t, mat.Float(0), matrix.At(model.PaddingIndex, 0))
	require.Equal(t, mat.Float(0), matrix.At(model.UnknownIndex, 1))

	_, _, err = LoadEmbeddings(strings.NewReader("a 1 2\nb 3\n"))
	require.Error(t, err)
	_, _, err = LoadEmbeddings(strings.NewReader("a 1 x\n"))
	require.Error(t, err)
	_, _, err = LoadEmbeddings(strings.NewReader(""))
	require.Error(t, err)
}

func TestLoadVocabulary(t *testing.T) {
	vocabulary, err := LoadVocabulary(strings.NewReader("Dog\n\ncat\ndog\n"))
	require.NoError(t, err)

	expected := model.NewVocabulary()
	expected.Set("dog", 2)
	expected.Set("cat", 3)
	if diff := cmp.Diff(expected, vocabulary); diff != "" {
		t.Errorf("vocabulary mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize(t *testing.T) {
	sentences := Tokenize("The CAT sat, quietly!  Then: it left... ")
	require.Equal(t, [][]string{
		{"the", "cat", "sat", "quietly"},
		{"then", "it", "left"},
	}, sentences)
	require.Empty(t, Tokenize(" ... "))
	require.Empty(t, Tokenize(", ; :"))
	require.Equal(t, [][]string{{"hello", "world", "again"}}, Tokenize("Hello,world; (again)"))
}

func TestReadData(t *testing.T) {
	metaData := testMetadata(t)
	data := "id,text,label\n" +
		"1,The cat sat. A dog ran!,pets\n" +
		"2,The match,pets|sports\n" +
		"3,Cooking,food\n" +
		"4,Too,many,fields\n" +
		"5,,sports\n"

	records, dataErrors, err := ReadData(strings.NewReader(data), DataParameters{
		TextColumn:  "text",
		LabelColumn: "label",
	}, metaData)
	require.NoError(t, err)
	require.Equal(t, 2, len(dataErrors))
	require.Equal(t, 3, dataErrors[0].Line)
	require.Equal(t, 4, dataErrors[1].Line)

	require.Equal(t, 3, len(records))
	require.Equal(t, [][]int{{2, 3, 4}, {1, 1, 1}}, records[0].Sentences)
	require.Equal(t, []int{0}, records[0].Targets)
	require.Equal(t, []int{0, 1}, records[1].Targets)
	require.Empty(t, records[2].Sentences)

	_, _, err = ReadData(strings.NewReader(data), DataParameters{TextColumn: "body"}, metaData)
	require.Error(t, err)
}

func TestDataSet(t *testing.T) {
	records := []*DataRecord{
		{Line: 1, Sentences: [][]int{{2, 3}}, Targets: []int{0}},
		{Line: 2, Sentences: [][]int{{4}, {2, 2, 2}}, Targets: []int{1}},
		{Line: 3, Sentences: nil, Targets: []int{1}},
	}
	ds := NewDataSet(records, 2)
	require.Equal(t, 3, ds.Size())

	first := ds.Next()
	require.Equal(t, 2, len(first))
	input := first.Pack(0, 0)
	require.Equal(t, []int{2, 2, 3}, input.Shape)
	require.Equal(t, [][]int{{0}, {1}}, first.Targets())

	second := ds.Next()
	require.Equal(t, 1, len(second))
	require.Equal(t, 3, second[0].Line)
	require.Empty(t, ds.Next())

	ds.Reset()
	require.Equal(t, 2, len(ds.Next()))
}

func TestSaveLoadModel(t *testing.T) {
	metaData := testMetadata(t)
	c, err := model.NewClassifier(model.Config{
		Type:           model.LogRegType,
		EmbeddingDim:   2,
		VocabularySize: metaData.Vocabulary.Size(),
		NumClasses:     metaData.Labels.Size(),
		KeepProb:       1,
	})
	require.NoError(t, err)
	generator := rand.NewLockedRand(42)
	c.Init(generator)
	require.NoError(t, c.BuildEmbedding(nil, generator))

	var buf bytes.Buffer
	require.NoError(t, SaveModel(&model.Model{MetaData: metaData, Classifier: c}, &buf))

	loaded, err := LoadModel(&buf)
	require.NoError(t, err)
	require.Equal(t, metaData.Vocabulary, loaded.MetaData.Vocabulary)
	require.Equal(t, c.Hyperparameters(), loaded.Classifier.Hyperparameters())
	require.Equal(t,
		c.Embedding().Vectors[3].Value().Data(),
		loaded.Classifier.Embedding().Vectors[3].Value().Data())
}
