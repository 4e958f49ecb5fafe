package pkg

import (
	"fmt"
	"strings"

	mat "github.com/nlpodyssey/spago/pkg/mat32"
	"github.com/nlpodyssey/spago/pkg/mat32/rand"
	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/nn"
	"github.com/rs/zerolog/log"

	"textclass/pkg/io"
	"textclass/pkg/model"
)

// Threshold is the sigmoid score from which a class counts as predicted.
const Threshold = 0.5

type InferenceParameters struct {
	BatchSize int
	RndSeed   uint64
}

// Predict classifies every document of inputFileName and writes one
// "line,classes,scores" row per document to outputFileName.
func Predict(modelFileName, inputFileName, outputFileName string, p InferenceParameters) error {
	m, err := loadModel(modelFileName)
	if err != nil {
		return err
	}
	data, dataErrors, err := io.LoadData(io.DataParameters{
		DataFile:   inputFileName,
		TextColumn: m.MetaData.TextColumn,
	}, m.MetaData)
	if err != nil {
		return fmt.Errorf("error loading data from %s: %w", inputFileName, err)
	}
	printDataErrors(dataErrors)
	if len(data) == 0 {
		return fmt.Errorf("no data to predict")
	}

	outputWriter, closeOutput, err := createOutput(outputFileName)
	if err != nil {
		return err
	}
	defer closeOutput()

	predicted := 0
	err = runBatches(m, data, p, func(batch io.DataBatch, _ *ag.Graph, result *model.Result) error {
		for i, record := range batch {
			classes, scores := decode(m.MetaData, result.Prediction(), i)
			fmt.Fprintf(outputWriter, "%d,%s,%s\n", record.Line, strings.Join(classes, io.LabelSeparator), formatScores(scores))
			predicted++
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().Int("Documents", predicted).Msg("Prediction done")
	return nil
}

// runBatches runs the classifier in inference mode over data, BatchSize
// documents at a time, handing every batch result to process.
func runBatches(m *model.Model, data []*io.DataRecord, p InferenceParameters,
	process func(batch io.DataBatch, g *ag.Graph, result *model.Result) error) error {

	ds := io.NewDataSet(data, p.BatchSize)
	g := ag.NewGraph(ag.Rand(rand.NewLockedRand(p.RndSeed)))
	defer g.Clear()

	for batch := ds.Next(); len(batch) > 0; batch = ds.Next() {
		input := batch.Pack(m.MetaData.MaxSentences, m.MetaData.MaxWords)
		log.Debug().Ints("Shape", input.Shape).Int("FirstLine", batch[0].Line).Msg("Running batch")
		result, err := model.Build(nn.Context{Graph: g, Mode: nn.Inference}, m.Classifier, input)
		if err != nil {
			return fmt.Errorf("error classifying batch starting at line %d: %w", batch[0].Line, err)
		}
		if err := process(batch, g, result); err != nil {
			return err
		}
		g.Clear()
	}
	return nil
}

// decode returns the predicted class names of document i and, for sigmoid
// predictions, its per-class scores.
func decode(metaData *model.Metadata, prediction model.Prediction, i int) ([]string, []mat.Float) {
	if prediction.Activation == model.ArgMax {
		return []string{metaData.Labels.IndexToName[prediction.Classes()[i]]}, nil
	}
	scores := prediction.Scores()[i]
	var classes []string
	for k, score := range scores {
		if score >= Threshold {
			classes = append(classes, metaData.Labels.IndexToName[k])
		}
	}
	return classes, scores
}

func formatScores(scores []mat.Float) string {
	formatted := make([]string, len(scores))
	for i, s := range scores {
		formatted[i] = fmt.Sprintf("%.5f", s)
	}
	return strings.Join(formatted, " ")
}
