// Package attention implements task-specific attention pooling: every step of
// an encoded sequence is scored against a learned context vector and the
// sequence collapses to the softmax-weighted sum of its steps.
package attention

import (
	mat "github.com/nlpodyssey/spago/pkg/mat32"
	"github.com/nlpodyssey/spago/pkg/mat32/rand"
	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/initializers"
	"github.com/nlpodyssey/spago/pkg/ml/nn"
	"github.com/nlpodyssey/spago/pkg/ml/nn/linear"
)

var (
	_ nn.Model = &Model{}
)

type Model struct {
	nn.BaseModel
	InputSize int
	// Projection maps each step to the attention space before the tanh.
	Projection *linear.Model
	Context    nn.Param `spago:"type:weights"`
}

// New returns a pooling layer over steps of inputSize values, scored in a
// space of attentionSize values.
func New(inputSize, attentionSize int) *Model {
	return &Model{
		InputSize:  inputSize,
		Projection: linear.New(inputSize, attentionSize),
		Context:    nn.NewParam(mat.NewEmptyVecDense(attentionSize)),
	}
}

func (m *Model) Init(generator *rand.LockedRand) {
	initializers.XavierUniform(m.Projection.W.Value(), initializers.Gain(ag.OpTanh), generator)
	initializers.XavierUniform(m.Context.Value(), initializers.Gain(ag.OpIdentity), generator)
}

// Scores returns the unnormalized attention score of each step.
func (m *Model) Scores(xs []ag.Node) []ag.Node {
	g := m.Graph()
	projected := m.Projection.Forward(xs...)
	scores := make([]ag.Node, len(xs))
	for i, p := range projected {
		scores[i] = g.ReduceSum(g.Prod(g.Tanh(p), m.Context))
	}
	return scores
}

// Weights returns the attention distribution over xs as a column vector.
// It is nil for an empty sequence.
func (m *Model) Weights(xs []ag.Node) ag.Node {
	if len(xs) == 0 {
		return nil
	}
	return m.Graph().Softmax(m.Graph().Concat(m.Scores(xs)...))
}

// Pool reduces the first length steps of xs to their attention-weighted sum.
// Steps from length on are padding and take no part in either the scores or
// the normalization. A zero length pools to the zero vector.
func (m *Model) Pool(xs []ag.Node, length int) ag.Node {
	g := m.Graph()
	if length > len(xs) {
		length = len(xs)
	}
	if length <= 0 {
		return g.NewVariable(mat.NewEmptyVecDense(m.InputSize), false)
	}
	steps := xs[:length]
	weights := m.Weights(steps)
	var pooled ag.Node
	for i, x := range steps {
		weighted := g.ProdScalar(x, g.AtVec(weights, i))
		if pooled == nil {
			pooled = weighted
			continue
		}
		pooled = g.Add(pooled, weighted)
	}
	return pooled
}

func (m *Model) Forward(xs ...ag.Node) []ag.Node {
	return []ag.Node{m.Pool(xs, len(xs))}
}
