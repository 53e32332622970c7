// Package dataset provides the N-dimensional array capability consumed by
// the reduction engine and the processors: shape, rank, element access,
// slicing, name, min/max and the lazy versus realized distinction.
package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"plotmodel/internal/models"
)

// Source is any dataset the core can consume. Lazy sources must be realized
// before numeric processing.
type Source interface {
	Name() string
	Shape() []int
	Rank() int
	IsLazy() bool

	// Realize materializes the selected region. A nil slices argument
	// selects everything.
	Realize(slices []models.Slice) (*Array, error)
}

// Array is a realized dataset stored in row-major order
type Array struct {
	name    string
	shape   []int
	strides []int
	data    []float64
}

// New creates a zero-filled array
func New(name string, shape ...int) *Array {
	size := 1
	for _, d := range shape {
		size *= d
	}
	return newArray(name, shape, make([]float64, size))
}

// FromValues wraps values in an array of the given shape. The values are
// copied. Without a shape the array is one-dimensional.
func FromValues(name string, values []float64, shape ...int) (*Array, error) {
	if len(shape) == 0 {
		shape = []int{len(values)}
	}
	size := 1
	for _, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("invalid dimension %d in shape %v", d, shape)
		}
		size *= d
	}
	if size != len(values) {
		return nil, fmt.Errorf("shape %v needs %d values, got %d", shape, size, len(values))
	}
	data := make([]float64, len(values))
	copy(data, values)
	return newArray(name, shape, data), nil
}

// MustFromValues is FromValues for literals known to be well formed
func MustFromValues(name string, values []float64, shape ...int) *Array {
	a, err := FromValues(name, values, shape...)
	if err != nil {
		panic(err)
	}
	return a
}

// Arange returns the index range 0..n-1
func Arange(name string, n int) *Array {
	a := New(name, n)
	if n == 1 {
		return a
	}
	if n > 1 {
		floats.Span(a.data, 0, float64(n-1))
	}
	return a
}

func newArray(name string, shape []int, data []float64) *Array {
	s := make([]int, len(shape))
	copy(s, shape)
	strides := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= s[i]
	}
	return &Array{name: name, shape: s, strides: strides, data: data}
}

// Name returns the dataset name
func (a *Array) Name() string { return a.name }

// Rename returns a shallow copy with a new name. The data is shared.
func (a *Array) Rename(name string) *Array {
	return &Array{name: name, shape: a.shape, strides: a.strides, data: a.data}
}

// Shape returns a copy of the dimensions
func (a *Array) Shape() []int {
	s := make([]int, len(a.shape))
	copy(s, a.shape)
	return s
}

// Rank returns the number of dimensions
func (a *Array) Rank() int { return len(a.shape) }

// Size returns the number of elements
func (a *Array) Size() int { return len(a.data) }

// IsLazy is always false for arrays
func (a *Array) IsLazy() bool { return false }

// Realize returns the array itself when slices is nil, otherwise a sliced copy
func (a *Array) Realize(slices []models.Slice) (*Array, error) {
	if slices == nil {
		return a, nil
	}
	return a.Slice(slices)
}

// Values returns a copy of the flat data
func (a *Array) Values() []float64 {
	v := make([]float64, len(a.data))
	copy(v, a.data)
	return v
}

// Flat returns the element at a flat index
func (a *Array) Flat(i int) float64 { return a.data[i] }

// At returns the element at the given position
func (a *Array) At(idx ...int) float64 {
	return a.data[a.offset(idx)]
}

// Set stores a value at the given position
func (a *Array) Set(v float64, idx ...int) {
	a.data[a.offset(idx)] = v
}

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("dataset %q: %d indices for rank %d", a.name, len(idx), len(a.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= a.shape[i] {
			panic(fmt.Sprintf("dataset %q: index %d out of range for dimension %d of length %d", a.name, v, i, a.shape[i]))
		}
		off += v * a.strides[i]
	}
	return off
}

// Clone returns a deep copy with the given name
func (a *Array) Clone(name string) *Array {
	return newArray(name, a.shape, a.Values())
}

// Reshape returns a copy with a new shape holding the same number of elements
func (a *Array) Reshape(shape ...int) (*Array, error) {
	return FromValues(a.name, a.data, shape...)
}

// Squeeze drops dimensions of length one
func (a *Array) Squeeze() *Array {
	shape := make([]int, 0, len(a.shape))
	for _, d := range a.shape {
		if d != 1 {
			shape = append(shape, d)
		}
	}
	if len(shape) == 0 {
		shape = []int{1}
	}
	return newArray(a.name, shape, a.data)
}

// Min returns the smallest element, ignoring NaN
func (a *Array) Min() float64 {
	v := a.finite()
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Min(v)
}

// Max returns the largest element, ignoring NaN
func (a *Array) Max() float64 {
	v := a.finite()
	if len(v) == 0 {
		return math.NaN()
	}
	return floats.Max(v)
}

// Sum returns the sum of all non-NaN elements
func (a *Array) Sum() float64 {
	return floats.Sum(a.finite())
}

func (a *Array) finite() []float64 {
	if !floats.HasNaN(a.data) {
		return a.data
	}
	out := make([]float64, 0, len(a.data))
	for _, v := range a.data {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Equal reports whether two arrays share shape and values. NaN equals NaN.
func (a *Array) Equal(b *Array) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	return floats.Same(a.data, b.data)
}

// String summarises the array for logs
func (a *Array) String() string {
	return fmt.Sprintf("%s%v", a.name, a.shape)
}
