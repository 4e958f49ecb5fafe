package model

import (
	"fmt"

	mat "github.com/nlpodyssey/spago/pkg/mat32"
	"github.com/nlpodyssey/spago/pkg/mat32/rand"
	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/initializers"
	"github.com/nlpodyssey/spago/pkg/ml/nn"
	"github.com/nlpodyssey/spago/pkg/ml/nn/linear"
	"gonum.org/v1/gonum/floats"

	"textclass/pkg/tensor"
)

var (
	_ Classifier = &LogReg{}
)

// LogReg is the bag-of-embeddings baseline: each document is reduced to its
// mean embedding and its largest-norm embedding, concatenated and fed to
// independent per-class logistic regressions.
type LogReg struct {
	nn.BaseModel
	Config
	Words       *Embedding
	OutputLayer *linear.Model
}

func NewLogReg(config Config) *LogReg {
	return &LogReg{
		Config:      config,
		OutputLayer: linear.New(2*config.EmbeddingDim, config.NumClasses),
	}
}

func (m *LogReg) Init(generator *rand.LockedRand) {
	initializers.XavierUniform(m.OutputLayer.W.Value(), initializers.Gain(ag.OpSigmoid), generator)
}

func (m *LogReg) Hyperparameters() Config {
	return m.Config
}

func (m *LogReg) Embedding() *Embedding {
	return m.Words
}

// Activation is always Sigmoid: every class is an independent binary decision.
func (m *LogReg) Activation() Activation {
	return Sigmoid
}

func (m *LogReg) BuildEmbedding(pretrained mat.Matrix, generator *rand.LockedRand) error {
	words, err := newEmbedding(m.Config, pretrained, generator)
	if err != nil {
		return err
	}
	m.Words = words
	return nil
}

func (m *LogReg) Forward(xs ...ag.Node) []ag.Node {
	panic("Forward not implemented... please use BuildLogits instead")
}

// BuildLogits returns one logit vector per document of a [batch, sentences, words] input.
func (m *LogReg) BuildLogits(input *tensor.Indices) ([]ag.Node, error) {
	if m.Words == nil {
		return nil, ErrEmbeddingNotSet
	}
	if input.Rank() != 3 {
		return nil, fmt.Errorf("%w: LogReg input must be [batch, sentences, words], got %v", tensor.ErrShape, input.Shape)
	}
	batch, sentences, words := input.Dim(0), input.Dim(1), input.Dim(2)
	flat, err := input.Reshape(batch*sentences, words)
	if err != nil {
		return nil, err
	}

	g := m.Graph()
	logits := make([]ag.Node, batch)
	for b := range logits {
		document := make([][]ag.Node, 0, sentences)
		for s := 0; s < sentences; s++ {
			present := tensor.Present(flat.Row(b*sentences + s))
			if len(present) == 0 {
				continue
			}
			embedded, err := m.Words.Lookup(present)
			if err != nil {
				return nil, fmt.Errorf("error embedding document %d sentence %d: %w", b, s, err)
			}
			document = append(document, embedded)
		}
		features := g.Concat(meanVector(g, document, m.EmbeddingDim), maxVector(g, document, m.EmbeddingDim))
		logits[b] = m.OutputLayer.Forward(features)[0]
	}
	return logits, nil
}

// meanVector averages the per-sentence mean embeddings, so every sentence
// weighs the same whatever its word count.
func meanVector(g *ag.Graph, document [][]ag.Node, dim int) ag.Node {
	if len(document) == 0 {
		return g.NewVariable(mat.NewEmptyVecDense(dim), false)
	}
	means := make([]ag.Node, len(document))
	for i, sentence := range document {
		means[i] = mean(g, sentence)
	}
	return mean(g, means)
}

// maxVector returns the word embedding with the largest Euclidean norm across
// all sentences of the document, the first one in reading order on ties.
func maxVector(g *ag.Graph, document [][]ag.Node, dim int) ag.Node {
	var best ag.Node
	bestNorm := -1.0
	for _, sentence := range document {
		for _, word := range sentence {
			norm := floats.Norm(float64s(word.Value().Data()), 2)
			if norm > bestNorm {
				best, bestNorm = word, norm
			}
		}
	}
	if best == nil {
		return g.NewVariable(mat.NewEmptyVecDense(dim), false)
	}
	return best
}

func mean(g *ag.Graph, xs []ag.Node) ag.Node {
	sum := xs[0]
	for _, x := range xs[1:] {
		sum = g.Add(sum, x)
	}
	return g.DivScalar(sum, g.NewScalar(mat.Float(len(xs))))
}

func float64s(data []mat.Float) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}
