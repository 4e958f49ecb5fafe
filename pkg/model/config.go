package model

import (
	"errors"
	"fmt"
)

// ErrConfig is returned for hyperparameters no classifier can be built from.
var ErrConfig = errors.New("invalid model configuration")

type ModelType string

const (
	HANType    ModelType = "han"
	LogRegType ModelType = "logreg"
)

// Config holds the hyperparameters of a classifier. It is copied into the
// classifier at construction and never changed afterwards.
type Config struct {
	Type ModelType

	// CellSize is the hidden width of every recurrent cell and of the attention projection.
	CellSize       int
	EmbeddingDim   int
	VocabularySize int
	NumClasses     int

	// Multilabel selects independent sigmoid outputs instead of a single arg-max class.
	Multilabel bool

	// KeepProb is the dropout keep probability applied in training mode.
	KeepProb float64

	// TrainableEmbeddings lets a pretrained embedding matrix be fine-tuned.
	// Randomly initialized embeddings are always trainable.
	TrainableEmbeddings bool
}

func (c Config) Validate() error {
	switch c.Type {
	case HANType:
		if c.CellSize <= 0 {
			return fmt.Errorf("%w: cell size must be positive, got %d", ErrConfig, c.CellSize)
		}
	case LogRegType:
	default:
		return fmt.Errorf("%w: unknown model type %q", ErrConfig, c.Type)
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("%w: embedding dimension must be positive, got %d", ErrConfig, c.EmbeddingDim)
	}
	if c.VocabularySize <= UnknownIndex {
		return fmt.Errorf("%w: vocabulary must hold more than the reserved tokens, got %d", ErrConfig, c.VocabularySize)
	}
	if c.NumClasses <= 0 {
		return fmt.Errorf("%w: number of classes must be positive, got %d", ErrConfig, c.NumClasses)
	}
	if c.KeepProb <= 0 || c.KeepProb > 1 {
		return fmt.Errorf("%w: keep probability must be in (0, 1], got %g", ErrConfig, c.KeepProb)
	}
	return nil
}
