package attention

import (
	"testing"

	mat "github.com/nlpodyssey/spago/pkg/mat32"
	"github.com/nlpodyssey/spago/pkg/mat32/rand"
	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/nn"
	"github.com/stretchr/testify/require"
)

func newPooling(g *ag.Graph, inputSize, attentionSize int) *Model {
	m := New(inputSize, attentionSize)
	m.Init(rand.NewLockedRand(42))
	return nn.Reify(nn.Context{Graph: g, Mode: nn.Inference}, m).(*Model)
}

func vec(g *ag.Graph, values ...mat.Float) ag.Node {
	return g.NewVariable(mat.NewVecDense(values), false)
}

func TestPool_IgnoresPadding(t *testing.T) {
	g := ag.NewGraph(ag.Rand(rand.NewLockedRand(42)))
	pooling := newPooling(g, 4, 3)

	steps := []ag.Node{
		vec(g, 1, 0, 0, 1),
		vec(g, 0, 2, 0, 0),
		vec(g, 0.5, 0.5, -1, 0),
	}
	padded := append(append([]ag.Node{}, steps...), vec(g, 9, 9, 9, 9), vec(g, -4, 3, 2, 1))
	repadded := append(append([]ag.Node{}, steps...), vec(g, 0, 0, 0, 0), vec(g, 100, -100, 7, 7))

	a := pooling.Pool(padded, len(steps))
	b := pooling.Pool(repadded, len(steps))
	c := pooling.Pool(steps, len(steps))
	require.Equal(t, a.Value().Data(), b.Value().Data())
	require.Equal(t, a.Value().Data(), c.Value().Data())
	require.Equal(t, 4, a.Value().Rows())
}

func TestWeights_SumToOne(t *testing.T) {
	g := ag.NewGraph(ag.Rand(rand.NewLockedRand(42)))
	pooling := newPooling(g, 2, 5)

	for length := 1; length <= 4; length++ {
		xs := make([]ag.Node, length)
		for i := range xs {
			xs[i] = vec(g, mat.Float(i), mat.Float(-i)*0.3)
		}
		weights := pooling.Weights(xs).Value().Data()
		require.Equal(t, length, len(weights))
		var sum mat.Float
		for _, w := range weights {
			require.True(t, w >= 0)
			sum += w
		}
		require.InDelta(t, 1.0, float64(sum), 1e-5)
	}
}

func TestPool_SingleStep(t *testing.T) {
	g := ag.NewGraph(ag.Rand(rand.NewLockedRand(42)))
	pooling := newPooling(g, 3, 2)

	x := vec(g, 0.25, -1, 3)
	pooled := pooling.Pool([]ag.Node{x}, 1).Value().Data()
	require.InDeltaSlice(t, []float64{0.25, -1, 3}, toFloat64(pooled), 1e-6)
}

func TestPool_ZeroLength(t *testing.T) {
	g := ag.NewGraph(ag.Rand(rand.NewLockedRand(42)))
	pooling := newPooling(g, 3, 2)

	pooled := pooling.Pool([]ag.Node{vec(g, 1, 2, 3)}, 0)
	require.Equal(t, []mat.Float{0, 0, 0}, pooled.Value().Data())
	require.Equal(t, []mat.Float{0, 0, 0}, pooling.Pool(nil, 0).Value().Data())
	require.Nil(t, pooling.Weights(nil))
}

func toFloat64(data []mat.Float) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}
