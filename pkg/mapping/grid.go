// Package mapping looks up spectra recorded at positions of a 2D map, on a
// regular grid or at scattered points
package mapping

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"plotmodel/internal/models"
	"plotmodel/pkg/dataset"
)

// ErrNotFound is returned when no spectrum lies close to a position
var ErrNotFound = errors.New("no spectrum at position")

// Grid is map data laid out [y, x, spectrum] with coordinate axes for the
// first two dimensions
type Grid struct {
	Name         string
	Data         dataset.Source
	XAxis, YAxis *dataset.Array
}

// NewGrid checks the layout of data. Nil axes default to indices.
func NewGrid(name string, data dataset.Source, xAxis, yAxis *dataset.Array) (*Grid, error) {
	if data.Rank() != 3 {
		return nil, fmt.Errorf("map %q: need [y, x, spectrum] data, have rank %d", name, data.Rank())
	}
	shape := data.Shape()
	if xAxis == nil {
		xAxis = dataset.Arange("x", shape[1])
	}
	if yAxis == nil {
		yAxis = dataset.Arange("y", shape[0])
	}
	if xAxis.Size() != shape[1] || yAxis.Size() != shape[0] {
		return nil, fmt.Errorf("map %q: axes %dx%d do not match data %v", name, xAxis.Size(), yAxis.Size(), shape)
	}
	return &Grid{Name: name, Data: data, XAxis: xAxis, YAxis: yAxis}, nil
}

// Range returns the axis extents as xMin, xMax, yMin, yMax
func (g *Grid) Range() [4]float64 {
	xs, ys := g.XAxis.Values(), g.YAxis.Values()
	return [4]float64{floats.Min(xs), floats.Max(xs), floats.Min(ys), floats.Max(ys)}
}

// Indices returns the grid cell nearest (x, y). Positions more than half a
// bin outside the axes are not found.
func (g *Grid) Indices(x, y float64) (xi, yi int, ok bool) {
	xi, okX := nearest(g.XAxis.Values(), x)
	yi, okY := nearest(g.YAxis.Values(), y)
	return xi, yi, okX && okY
}

func nearest(axis []float64, v float64) (int, bool) {
	lo, hi := floats.Min(axis), floats.Max(axis)
	half := (hi - lo) / float64(len(axis)) / 2
	if v < lo-half || v > hi+half {
		return 0, false
	}
	dist := make([]float64, len(axis))
	for i, a := range axis {
		dist[i] = math.Abs(a - v)
	}
	return floats.MinIdx(dist), true
}

// Spectrum returns the spectrum at the cell nearest (x, y)
func (g *Grid) Spectrum(x, y float64) (*dataset.Array, error) {
	xi, yi, ok := g.Indices(x, y)
	if !ok {
		return nil, fmt.Errorf("map %q at (%g, %g): %w", g.Name, x, y, ErrNotFound)
	}
	return g.SpectrumAt(xi, yi)
}

// SpectrumAt returns the spectrum of one cell
func (g *Grid) SpectrumAt(xi, yi int) (*dataset.Array, error) {
	s, err := g.Data.Realize([]models.Slice{models.Index(yi), models.Index(xi), models.All()})
	if err != nil {
		return nil, fmt.Errorf("map %q: %w", g.Name, err)
	}
	return s.Squeeze().Rename(fmt.Sprintf("%s[%d,%d]", g.Name, yi, xi)), nil
}

// Image returns the map at one spectral channel, shaped [y, x]
func (g *Grid) Image(channel int) (*dataset.Array, error) {
	img, err := dataset.Plane(g.Data, 1, 0, []models.Slice{{}, {}, models.Index(channel)})
	if err != nil {
		return nil, fmt.Errorf("map %q channel %d: %w", g.Name, channel, err)
	}
	return img, nil
}
