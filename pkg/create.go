package pkg

import (
	"fmt"
	"os"

	mat "github.com/nlpodyssey/spago/pkg/mat32"
	"github.com/nlpodyssey/spago/pkg/mat32/rand"
	"github.com/rs/zerolog/log"

	"textclass/pkg/io"
	"textclass/pkg/model"
)

type CreateParameters struct {
	// EmbeddingsFile holds pretrained word vectors in the GloVe text format
	EmbeddingsFile string

	// VocabularyFile lists one word per line, used when no embeddings are given
	VocabularyFile string

	Classes      []string
	TextColumn   string
	LabelColumn  string
	MaxSentences int
	MaxWords     int
	RndSeed      uint64
}

// Create builds a new classifier, initializes its word embeddings and saves
// it to outputFileName. Sizes known only from the inputs (vocabulary size,
// number of classes and, with pretrained vectors, the embedding dimension)
// overwrite those in config.
func Create(outputFileName string, config model.Config, p CreateParameters) error {
	metaData := model.NewMetadata()
	metaData.TextColumn = p.TextColumn
	metaData.LabelColumn = p.LabelColumn
	metaData.MaxSentences = p.MaxSentences
	metaData.MaxWords = p.MaxWords
	for _, class := range p.Classes {
		metaData.Labels.ValueFor(class)
	}

	var pretrained *mat.Dense
	switch {
	case p.EmbeddingsFile != "":
		vocabulary, matrix, err := loadEmbeddings(p.EmbeddingsFile)
		if err != nil {
			return err
		}
		metaData.Vocabulary = vocabulary
		pretrained = matrix
		config.EmbeddingDim = matrix.Columns()
	case p.VocabularyFile != "":
		vocabulary, err := loadVocabulary(p.VocabularyFile)
		if err != nil {
			return err
		}
		metaData.Vocabulary = vocabulary
	default:
		return fmt.Errorf("either an embeddings file or a vocabulary file is required")
	}

	//Overwrite values that are only known after reading the inputs
	config.VocabularySize = metaData.Vocabulary.Size()
	config.NumClasses = metaData.Labels.Size()

	classifier, err := model.NewClassifier(config)
	if err != nil {
		return err
	}
	rndGen := rand.NewLockedRand(p.RndSeed)
	classifier.Init(rndGen)

	// a nil *mat.Dense must not reach BuildEmbedding as a non-nil mat.Matrix
	var matrix mat.Matrix
	if pretrained != nil {
		matrix = pretrained
	}
	if err := classifier.BuildEmbedding(matrix, rndGen); err != nil {
		return fmt.Errorf("error building embedding matrix: %w", err)
	}

	log.Info().
		Str("Type", string(config.Type)).
		Int("Vocabulary", config.VocabularySize).
		Int("EmbeddingDim", config.EmbeddingDim).
		Int("Classes", config.NumClasses).
		Bool("Pretrained", pretrained != nil).
		Msg("Model created")

	m := model.Model{
		MetaData:   metaData,
		Classifier: classifier,
	}

	outputFile, err := os.Create(outputFileName)
	if err != nil {
		return fmt.Errorf("error creating output file %s: %w", outputFileName, err)
	}
	defer outputFile.Close()

	if err := io.SaveModel(&m, outputFile); err != nil {
		return fmt.Errorf("error saving model to %s: %w", outputFileName, err)
	}
	return nil
}

func loadEmbeddings(fileName string) (model.NameMap, *mat.Dense, error) {
	input, err := os.Open(fileName)
	if err != nil {
		return model.NameMap{}, nil, fmt.Errorf("error opening embeddings file: %w", err)
	}
	defer input.Close()
	vocabulary, matrix, err := io.LoadEmbeddings(input)
	if err != nil {
		return model.NameMap{}, nil, fmt.Errorf("error reading embeddings file %s: %w", fileName, err)
	}
	return vocabulary, matrix, nil
}

func loadVocabulary(fileName string) (model.NameMap, error) {
	input, err := os.Open(fileName)
	if err != nil {
		return model.NameMap{}, fmt.Errorf("error opening vocabulary file: %w", err)
	}
	defer input.Close()
	vocabulary, err := io.LoadVocabulary(input)
	if err != nil {
		return model.NameMap{}, fmt.Errorf("error reading vocabulary file %s: %w", fileName, err)
	}
	return vocabulary, nil
}
