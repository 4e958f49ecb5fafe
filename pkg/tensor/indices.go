// Package tensor holds the zero-padded word index tensors the classifiers
// consume, together with the shape transforms and length recovery applied to
// them before any embedding happens.
package tensor

import (
	"errors"
	"fmt"
)

// ErrShape is returned when a shape transform would not preserve the element
// count or an operation receives a tensor of the wrong rank.
var ErrShape = errors.New("invalid tensor shape")

// Indices is a dense, row-major tensor of word indices. Index 0 is reserved
// for padding: it marks an absent word, and a row of zeros an absent sentence.
type Indices struct {
	Shape []int
	Data  []int
}

// New wraps data in a tensor of the given shape.
func New(shape []int, data []int) (*Indices, error) {
	size, err := volume(shape)
	if err != nil {
		return nil, err
	}
	if len(data) != size {
		return nil, fmt.Errorf("%w: %d values do not fill shape %v", ErrShape, len(data), shape)
	}
	return &Indices{Shape: append([]int(nil), shape...), Data: data}, nil
}

// Zeros returns an all-padding tensor.
func Zeros(shape ...int) *Indices {
	size, err := volume(shape)
	if err != nil {
		panic(err)
	}
	return &Indices{Shape: append([]int(nil), shape...), Data: make([]int, size)}
}

func volume(shape []int) (int, error) {
	size := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("%w: negative dimension in %v", ErrShape, shape)
		}
		size *= d
	}
	return size, nil
}

func (t *Indices) Rank() int {
	return len(t.Shape)
}

func (t *Indices) Dim(axis int) int {
	return t.Shape[axis]
}

func (t *Indices) Size() int {
	return len(t.Data)
}

func (t *Indices) offset(idx []int) int {
	if len(idx) != len(t.Shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank %d", len(idx), len(t.Shape)))
	}
	off := 0
	for axis, i := range idx {
		if i < 0 || i >= t.Shape[axis] {
			panic(fmt.Sprintf("tensor: index %d out of range for axis %d of shape %v", i, axis, t.Shape))
		}
		off = off*t.Shape[axis] + i
	}
	return off
}

// At returns the value at the given position.
func (t *Indices) At(idx ...int) int {
	return t.Data[t.offset(idx)]
}

// Set stores v at the given position.
func (t *Indices) Set(v int, idx ...int) {
	t.Data[t.offset(idx)] = v
}

// Reshape returns a view of t with a new shape. The backing data is shared.
func (t *Indices) Reshape(dims ...int) (*Indices, error) {
	size, err := volume(dims)
	if err != nil {
		return nil, err
	}
	if size != len(t.Data) {
		return nil, fmt.Errorf("%w: cannot reshape %v (%d elements) into %v (%d elements)",
			ErrShape, t.Shape, len(t.Data), dims, size)
	}
	return &Indices{Shape: append([]int(nil), dims...), Data: t.Data}, nil
}

// Rows is the number of innermost-axis rows, the product of all leading dimensions.
func (t *Indices) Rows() int {
	if len(t.Shape) == 0 {
		return 0
	}
	rows := 1
	for _, d := range t.Shape[:len(t.Shape)-1] {
		rows *= d
	}
	return rows
}

// Row returns the i-th innermost-axis row, counting across all leading axes.
func (t *Indices) Row(i int) []int {
	width := t.Shape[len(t.Shape)-1]
	return t.Data[i*width : (i+1)*width]
}

// SumLastAxis reduces the innermost axis by summation, dropping it.
func (t *Indices) SumLastAxis() *Indices {
	return t.reduceLastAxis(func(row []int) int {
		sum := 0
		for _, v := range row {
			sum += v
		}
		return sum
	})
}

// CountNonZero reduces the innermost axis to the number of nonzero entries.
func (t *Indices) CountNonZero() *Indices {
	return t.reduceLastAxis(func(row []int) int {
		return len(Present(row))
	})
}

func (t *Indices) reduceLastAxis(f func(row []int) int) *Indices {
	out := Zeros(t.Shape[:len(t.Shape)-1]...)
	if t.Shape[len(t.Shape)-1] == 0 {
		return out
	}
	for i := range out.Data {
		out.Data[i] = f(t.Row(i))
	}
	return out
}

// MaxIndex returns the largest value held by the tensor, 0 when it is empty.
func (t *Indices) MaxIndex() int {
	max := 0
	for _, v := range t.Data {
		if v > max {
			max = v
		}
	}
	return max
}

// Present returns the nonzero entries of row, in order.
func Present(row []int) []int {
	out := make([]int, 0, len(row))
	for _, v := range row {
		if v != 0 {
			out = append(out, v)
		}
	}
	return out
}
