package reduction

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"plotmodel/internal/models"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/roi"
)

// Sector averages a sector ROI into a radial profile with one bin per
// pixel of radius from R0 outwards. Empty bins are NaN.
type Sector struct{}

// Name implements Reducer
func (Sector) Name() string { return "Radial Profile" }

// SupportedKinds implements Reducer
func (Sector) SupportedKinds() []roi.Kind { return []roi.Kind{roi.KindSector} }

// SupportsMultipleRegions implements Reducer
func (Sector) SupportsMultipleRegions() bool { return true }

// Output1D implements Reducer
func (Sector) Output1D() bool { return true }

// InitialROI is a full ring around the plane centre
func (Sector) InitialROI(shape []int, order models.AxisOrder) roi.ROI {
	xLen, yLen := displayLengths(shape, order)
	r := math.Min(float64(xLen), float64(yLen)) / 4
	return roi.Sector{CX: float64(xLen) / 2, CY: float64(yLen) / 2, R0: 0, R1: r, A0: 0, A1: 2 * math.Pi}
}

// Reduce implements Reducer
func (s Sector) Reduce(ctx context.Context, req Request) (*Result, error) {
	if !accept(ctx, s, req) {
		return nil, nil
	}
	sector, ok := req.ROI.(roi.Sector)
	if !ok {
		return nil, nil
	}
	xDim, yDim, err := displayAxes(req)
	if err != nil {
		return nil, err
	}
	bins := int(math.Ceil(sector.R1 - sector.R0))
	if bins < 1 {
		bins = 1
	}
	if err := CheckAllocation("radial profile", 2*bins, req.MaxBytes); err != nil {
		return nil, err
	}

	plane, err := dataset.Plane(req.Data, xDim, yDim, req.Slices)
	if err != nil {
		return nil, fmt.Errorf("radial profile of %q: %w", req.Data.Name(), err)
	}
	if ctx.Err() != nil {
		return nil, nil
	}

	shape := plane.Shape()
	h, w := shape[0], shape[1]
	b := sector.Bounds()
	x0, x1, okX := pixelRange(b.MinX, b.MaxX+1, w)
	y0, y1, okY := pixelRange(b.MinY, b.MaxY+1, h)

	values := make([][]float64, bins)
	if okX && okY {
		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				fx, fy := float64(x), float64(y)
				if !sector.Contains(fx, fy) {
					continue
				}
				v := plane.At(y, x)
				if math.IsNaN(v) {
					continue
				}
				bin := int(math.Hypot(fx-sector.CX, fy-sector.CY) - sector.R0)
				if bin >= bins {
					bin = bins - 1
				}
				values[bin] = append(values[bin], v)
			}
		}
	}
	if ctx.Err() != nil {
		return nil, nil
	}

	profile := dataset.New(outputName(req, "radial"), bins)
	radius := dataset.New("Radius", bins)
	for i, vs := range values {
		mean := math.NaN()
		if len(vs) > 0 {
			mean = stat.Mean(vs, nil)
		}
		profile.Set(mean, i)
		radius.Set(sector.R0+float64(i)+0.5, i)
	}
	return &Result{Outputs: []*dataset.Array{profile}, Axes: []*dataset.Array{radius}}, nil
}
