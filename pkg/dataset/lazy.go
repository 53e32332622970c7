package dataset

import (
	"fmt"

	"plotmodel/internal/models"
)

// Generator is a lazy dataset whose elements are computed on demand. Only
// the selected region is evaluated by Realize.
type Generator struct {
	name  string
	shape []int
	fn    func(idx []int) float64
}

// NewGenerator creates a lazy dataset backed by fn
func NewGenerator(name string, fn func(idx []int) float64, shape ...int) *Generator {
	s := make([]int, len(shape))
	copy(s, shape)
	return &Generator{name: name, shape: s, fn: fn}
}

func (g *Generator) Name() string { return g.name }

func (g *Generator) Shape() []int {
	s := make([]int, len(g.shape))
	copy(s, g.shape)
	return s
}

func (g *Generator) Rank() int { return len(g.shape) }

func (g *Generator) IsLazy() bool { return true }

// Realize evaluates the selected region
func (g *Generator) Realize(slices []models.Slice) (*Array, error) {
	rank := len(g.shape)
	if len(slices) > rank {
		return nil, fmt.Errorf("dataset %q: %d slices for rank %d", g.name, len(slices), rank)
	}
	starts := make([]int, rank)
	steps := make([]int, rank)
	counts := make([]int, rank)
	for d := 0; d < rank; d++ {
		s := models.All()
		if d < len(slices) {
			s = slices[d]
		}
		start, stop, step, err := s.Resolve(g.shape[d])
		if err != nil {
			return nil, fmt.Errorf("dataset %q dimension %d: %w", g.name, d, err)
		}
		starts[d], steps[d] = start, step
		counts[d] = (stop - start + step - 1) / step
	}

	out := New(g.name, counts...)
	pos := make([]int, rank)
	idx := make([]int, rank)
	for i := range out.data {
		for d := 0; d < rank; d++ {
			idx[d] = starts[d] + pos[d]*steps[d]
		}
		out.data[i] = g.fn(idx)

		for d := rank - 1; d >= 0; d-- {
			pos[d]++
			if pos[d] < counts[d] {
				break
			}
			pos[d] = 0
		}
	}
	return out, nil
}

// Realize materializes any source in full
func Realize(src Source) (*Array, error) {
	return src.Realize(nil)
}
