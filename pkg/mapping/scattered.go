package mapping

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"plotmodel/internal/models"
	"plotmodel/pkg/dataset"
)

// position is a scan point in the kd-tree
type position struct {
	X, Y  float64
	Index int
}

func (p position) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(position)
	switch d {
	case 0:
		return p.X - q.X
	case 1:
		return p.Y - q.Y
	default:
		panic("illegal dimension")
	}
}

func (p position) Dims() int { return 2 }

// Distance is squared
func (p position) Distance(c kdtree.Comparable) float64 {
	q := c.(position)
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx + dy*dy
}

type positions []position

func (p positions) Index(i int) kdtree.Comparable         { return p[i] }
func (p positions) Len() int                              { return len(p) }
func (p positions) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p positions) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(plane{positions: p, Dim: d}, kdtree.MedianOfRandoms(plane{positions: p, Dim: d}, 100))
}

type plane struct {
	positions
	kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.positions[i].X < p.positions[j].X
	}
	return p.positions[i].Y < p.positions[j].Y
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{positions: p.positions[start:end], Dim: p.Dim}
}

func (p plane) Swap(i, j int) {
	p.positions[i], p.positions[j] = p.positions[j], p.positions[i]
}

// Scattered is map data recorded at arbitrary positions, laid out
// [point, spectrum]
type Scattered struct {
	Name string
	Data dataset.Source
	tree *kdtree.Tree
}

// NewScattered indexes the positions (x[i], y[i]) of data's points
func NewScattered(name string, x, y *dataset.Array, data dataset.Source) (*Scattered, error) {
	if data.Rank() != 2 {
		return nil, fmt.Errorf("scattered map %q: need [point, spectrum] data, have rank %d", name, data.Rank())
	}
	n := data.Shape()[0]
	if x.Size() != n || y.Size() != n {
		return nil, fmt.Errorf("scattered map %q: %d x and %d y positions for %d points", name, x.Size(), y.Size(), n)
	}
	if n == 0 {
		return nil, fmt.Errorf("scattered map %q is empty", name)
	}
	pts := make(positions, n)
	for i := range pts {
		pts[i] = position{X: x.Flat(i), Y: y.Flat(i), Index: i}
	}
	return &Scattered{Name: name, Data: data, tree: kdtree.New(pts, false)}, nil
}

// Nearest returns the index of the point closest to (x, y) and its distance
func (s *Scattered) Nearest(x, y float64) (int, float64) {
	c, d := s.tree.Nearest(position{X: x, Y: y})
	return c.(position).Index, math.Sqrt(d)
}

// Spectrum returns the spectrum of the point nearest (x, y). A positive
// maxDist rejects points farther away.
func (s *Scattered) Spectrum(x, y, maxDist float64) (*dataset.Array, error) {
	i, d := s.Nearest(x, y)
	if maxDist > 0 && d > maxDist {
		return nil, fmt.Errorf("scattered map %q at (%g, %g): %w", s.Name, x, y, ErrNotFound)
	}
	spec, err := s.Data.Realize([]models.Slice{models.Index(i), models.All()})
	if err != nil {
		return nil, fmt.Errorf("scattered map %q: %w", s.Name, err)
	}
	return spec.Squeeze().Rename(fmt.Sprintf("%s[%d]", s.Name, i)), nil
}
