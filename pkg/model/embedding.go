package model

import (
	"errors"
	"fmt"

	mat "github.com/nlpodyssey/spago/pkg/mat32"
	"github.com/nlpodyssey/spago/pkg/mat32/rand"
	"github.com/nlpodyssey/spago/pkg/ml/ag"
	"github.com/nlpodyssey/spago/pkg/ml/initializers"
	"github.com/nlpodyssey/spago/pkg/ml/nn"
)

var (
	_ nn.Model = &Embedding{}
)

var (
	// ErrEmbeddingNotSet is returned when logits are requested before the embedding table exists.
	ErrEmbeddingNotSet = errors.New("embedding matrix not set")
	// ErrIndexOutOfRange is returned for word indices outside the embedding table.
	ErrIndexOutOfRange = errors.New("word index out of range")
)

// Embedding is a [VocabularySize, Dimension] word embedding table stored one
// row per parameter, so that a lookup only touches the rows it reads.
type Embedding struct {
	nn.BaseModel
	VocabularySize int
	Dimension      int
	Trainable      bool
	Vectors        []nn.Param `spago:"type:weights"`
}

// NewRandomEmbedding creates a trainable table drawn from a standard normal distribution.
func NewRandomEmbedding(vocabularySize, dimension int, generator *rand.LockedRand) *Embedding {
	vectors := make([]nn.Param, vocabularySize)
	for i := range vectors {
		value := mat.NewEmptyVecDense(dimension)
		initializers.Normal(value, 0, 1, generator)
		vectors[i] = nn.NewParam(value)
	}
	return &Embedding{
		VocabularySize: vocabularySize,
		Dimension:      dimension,
		Trainable:      true,
		Vectors:        vectors,
	}
}

// NewPretrainedEmbedding copies the rows of matrix into a new table.
func NewPretrainedEmbedding(matrix mat.Matrix, trainable bool) *Embedding {
	rows, columns := matrix.Rows(), matrix.Columns()
	vectors := make([]nn.Param, rows)
	for i := range vectors {
		value := mat.NewEmptyVecDense(columns)
		for j := 0; j < columns; j++ {
			value.Set(j, 0, matrix.At(i, j))
		}
		vectors[i] = nn.NewParam(value, nn.RequiresGrad(trainable))
	}
	return &Embedding{
		VocabularySize: rows,
		Dimension:      columns,
		Trainable:      trainable,
		Vectors:        vectors,
	}
}

func (m *Embedding) Forward(xs ...ag.Node) []ag.Node {
	panic("Forward not implemented... please use Lookup instead")
}

// Vector returns the graph node of one table row.
func (m *Embedding) Vector(index int) (ag.Node, error) {
	if index < 0 || index >= len(m.Vectors) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(m.Vectors))
	}
	if m.Trainable {
		return m.Graph().NewWrap(m.Vectors[index]), nil
	}
	return m.Graph().NewWrapNoGrad(m.Vectors[index]), nil
}

// Lookup replaces every index with its embedding row.
func (m *Embedding) Lookup(indices []int) ([]ag.Node, error) {
	out := make([]ag.Node, len(indices))
	for i, index := range indices {
		vector, err := m.Vector(index)
		if err != nil {
			return nil, err
		}
		out[i] = vector
	}
	return out, nil
}
