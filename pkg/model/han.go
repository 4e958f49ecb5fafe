package model

import (
	"fmt"

	mat "github.com/nlpodyssey/spago/pkg/mat32"
	"github.com/nlpodyssey/spago/pkg/mat32/rand"
	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/initializers"
	"github.com/nlpodyssey/spago/pkg/ml/nn"
	"github.com/nlpodyssey/spago/pkg/ml/nn/linear"

	"textclass/pkg/model/attention"
	"textclass/pkg/model/recurrent"
	"textclass/pkg/tensor"
)

var (
	_ Classifier = &HAN{}
)

// HAN is an implementation of:
// "Hierarchical Attention Networks for Document Classification" - https://www.cs.cmu.edu/~./hovy/papers/16HLT-hierarchical-attention-networks.pdf
//
// Sentences are encoded word by word and attention-pooled into sentence
// vectors, which are in turn encoded and pooled into one vector per document.
type HAN struct {
	nn.BaseModel
	Config
	Words             *Embedding
	SentenceEncoder   *recurrent.BiEncoder
	SentenceAttention *attention.Model
	DocumentEncoder   *recurrent.BiEncoder
	DocumentAttention *attention.Model
	OutputLayer       *linear.Model
}

func NewHAN(config Config) *HAN {
	encodedSize := 2 * config.CellSize
	return &HAN{
		Config:            config,
		SentenceEncoder:   recurrent.NewBiEncoder(config.EmbeddingDim, config.CellSize),
		SentenceAttention: attention.New(encodedSize, config.CellSize),
		DocumentEncoder:   recurrent.NewBiEncoder(encodedSize, config.CellSize),
		DocumentAttention: attention.New(encodedSize, config.CellSize),
		OutputLayer:       linear.New(encodedSize, config.NumClasses),
	}
}

func (m *HAN) Init(generator *rand.LockedRand) {
	m.SentenceEncoder.Init(generator)
	m.SentenceAttention.Init(generator)
	m.DocumentEncoder.Init(generator)
	m.DocumentAttention.Init(generator)
	initializers.XavierUniform(m.OutputLayer.W.Value(), initializers.Gain(ag.OpIdentity), generator)
}

func (m *HAN) Hyperparameters() Config {
	return m.Config
}

func (m *HAN) Embedding() *Embedding {
	return m.Words
}

func (m *HAN) Activation() Activation {
	if m.Multilabel {
		return Sigmoid
	}
	return ArgMax
}

// BuildEmbedding initializes the word table from pretrained when given,
// trainable as configured, or at random and always trainable otherwise.
func (m *HAN) BuildEmbedding(pretrained mat.Matrix, generator *rand.LockedRand) error {
	words, err := newEmbedding(m.Config, pretrained, generator)
	if err != nil {
		return err
	}
	m.Words = words
	return nil
}

func (m *HAN) Forward(xs ...ag.Node) []ag.Node {
	panic("Forward not implemented... please use BuildLogits instead")
}

// BuildLogits returns one logit vector per document of a [batch, sentences, words] input.
func (m *HAN) BuildLogits(input *tensor.Indices) ([]ag.Node, error) {
	if m.Words == nil {
		return nil, ErrEmbeddingNotSet
	}
	if input.Rank() != 3 {
		return nil, fmt.Errorf("%w: HAN input must be [batch, sentences, words], got %v", tensor.ErrShape, input.Shape)
	}
	batch, sentences, words := input.Dim(0), input.Dim(1), input.Dim(2)

	documentLengths, err := tensor.DocumentLengths(input)
	if err != nil {
		return nil, err
	}
	sentenceLengths, err := tensor.SentenceLengths(input)
	if err != nil {
		return nil, err
	}
	flat, err := input.Reshape(batch*sentences, words)
	if err != nil {
		return nil, err
	}

	// sentence level: every sentence of every document is an independent sequence
	sentenceVectors := make([]ag.Node, flat.Rows())
	for i := range sentenceVectors {
		if sentenceLengths.Data[i] == 0 {
			continue
		}
		embedded, err := m.Words.Lookup(tensor.Present(flat.Row(i)))
		if err != nil {
			return nil, fmt.Errorf("error embedding sentence %d: %w", i, err)
		}
		encoded := m.SentenceEncoder.Forward(embedded...)
		sentenceVectors[i] = m.dropout(m.SentenceAttention.Pool(encoded, sentenceLengths.Data[i]))
	}

	documents, err := groupDocuments(sentenceVectors, batch, sentences)
	if err != nil {
		return nil, err
	}

	// document level: the present sentence vectors of a document form its sequence
	logits := make([]ag.Node, batch)
	for b, document := range documents {
		if len(document) != documentLengths.Data[b] {
			return nil, fmt.Errorf("%w: document %d has %d sentences, expected %d",
				tensor.ErrShape, b, len(document), documentLengths.Data[b])
		}
		encoded := m.DocumentEncoder.Forward(document...)
		pooled := m.dropout(m.DocumentAttention.Pool(encoded, documentLengths.Data[b]))
		logits[b] = m.OutputLayer.Forward(pooled)[0]
	}
	return logits, nil
}

func (m *HAN) dropout(x ag.Node) ag.Node {
	if m.Mode() != nn.Training || m.KeepProb >= 1 {
		return x
	}
	return m.Graph().Dropout(x, mat.Float(1-m.KeepProb))
}

// groupDocuments folds the flat [batch*sentences] sentence vectors back into
// batch documents, dropping absent (nil) sentences.
func groupDocuments(vectors []ag.Node, batch, sentences int) ([][]ag.Node, error) {
	if len(vectors) != batch*sentences {
		return nil, fmt.Errorf("%w: %d sentence vectors for %d documents of %d sentences",
			tensor.ErrShape, len(vectors), batch, sentences)
	}
	documents := make([][]ag.Node, batch)
	for b := range documents {
		for _, v := range vectors[b*sentences : (b+1)*sentences] {
			if v != nil {
				documents[b] = append(documents[b], v)
			}
		}
	}
	return documents, nil
}
