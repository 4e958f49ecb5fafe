// Package recurrent implements the bidirectional GRU encoder run over
// sentences (sequences of word embeddings) and documents (sequences of
// sentence vectors).
package recurrent

import (
	"github.com/nlpodyssey/spago/pkg/mat32/rand"
	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/initializers"
	"github.com/nlpodyssey/spago/pkg/ml/nn"
	"github.com/nlpodyssey/spago/pkg/ml/nn/birnn"
	"github.com/nlpodyssey/spago/pkg/ml/nn/recurrent/gru"
)

var (
	_ nn.Model = &BiEncoder{}
)

// BiEncoder runs two independently parameterized GRU cells over a sequence,
// one reading it left to right and one right to left, and concatenates their
// outputs step by step.
type BiEncoder struct {
	nn.BaseModel
	HiddenSize int
	BiRNN      *birnn.Model
}

func NewBiEncoder(inputSize, hiddenSize int) *BiEncoder {
	return &BiEncoder{
		HiddenSize: hiddenSize,
		BiRNN:      birnn.New(gru.New(inputSize, hiddenSize), gru.New(inputSize, hiddenSize), birnn.Concat),
	}
}

func (m *BiEncoder) Init(generator *rand.LockedRand) {
	initCell(m.Positive(), generator)
	initCell(m.Negative(), generator)
}

func initCell(cell *gru.Model, generator *rand.LockedRand) {
	gates := initializers.Gain(ag.OpSigmoid)
	for _, w := range []nn.Param{cell.WPart, cell.WPartRec, cell.WRes, cell.WResRec} {
		initializers.XavierUniform(w.Value(), gates, generator)
	}
	candidate := initializers.Gain(ag.OpTanh)
	initializers.XavierUniform(cell.WCand.Value(), candidate, generator)
	initializers.XavierUniform(cell.WCandRec.Value(), candidate, generator)
}

// Positive is the left to right cell.
func (m *BiEncoder) Positive() *gru.Model {
	return m.BiRNN.Positive.(*gru.Model)
}

// Negative is the right to left cell.
func (m *BiEncoder) Negative() *gru.Model {
	return m.BiRNN.Negative.(*gru.Model)
}

// Encode reads the whole of xs in both directions, starting both cells from a
// zero state. Step i of the result holds the forward state after xs[i]
// followed by the backward state after xs[len-1] down to xs[i]. Callers pass
// only the true steps of a sequence, so padding never reaches either cell.
// An empty xs yields an empty encoding.
func (m *BiEncoder) Encode(xs []ag.Node) []ag.Node {
	if len(xs) == 0 {
		return nil
	}
	// the cells keep their states for the lifetime of the processor
	m.Positive().States = nil
	m.Negative().States = nil
	return m.BiRNN.Forward(xs...)
}

func (m *BiEncoder) Forward(xs ...ag.Node) []ag.Node {
	return m.Encode(xs)
}
