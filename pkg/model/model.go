package model

import (
	"encoding/gob"

	"github.com/nlpodyssey/spago/pkg/ml/nn/recurrent/gru"
)

func init() {
	gob.Register(&HAN{})
	gob.Register(&LogReg{})
	// the bidirectional encoder holds its cells behind an interface
	gob.Register(&gru.Model{})
}

// Model is what gets saved to and loaded from a model file.
type Model struct {
	MetaData   *Metadata
	Classifier Classifier
}
