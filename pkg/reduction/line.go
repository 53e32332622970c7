package reduction

import (
	"context"
	"fmt"

	"plotmodel/internal/models"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/interpolation"
	"plotmodel/pkg/roi"
)

// LineProfile samples the display plane along a line ROI. Outputs are the
// profile and, as the first axis, the distance of each sample in pixels.
type LineProfile struct {
	// Step is the distance between samples in pixels; zero means 1
	Step float64

	// Method selects the interpolation; the zero value is bilinear
	Method interpolation.Method
}

// Name implements Reducer
func (p *LineProfile) Name() string { return "Line Profile" }

// SupportedKinds implements Reducer
func (p *LineProfile) SupportedKinds() []roi.Kind { return []roi.Kind{roi.KindLine} }

// SupportsMultipleRegions implements Reducer
func (p *LineProfile) SupportsMultipleRegions() bool { return true }

// Output1D implements Reducer
func (p *LineProfile) Output1D() bool { return true }

// InitialROI is a diagonal over the first tenth of the display plane
func (p *LineProfile) InitialROI(shape []int, order models.AxisOrder) roi.ROI {
	return initialLine(shape, order)
}

func (p *LineProfile) step() float64 {
	if p.Step <= 0 {
		return 1
	}
	return p.Step
}

// Reduce implements Reducer
func (p *LineProfile) Reduce(ctx context.Context, req Request) (*Result, error) {
	if !accept(ctx, p, req) {
		return nil, nil
	}
	line, ok := req.ROI.(roi.Line)
	if !ok {
		return nil, nil
	}
	xDim, yDim, err := displayAxes(req)
	if err != nil {
		return nil, err
	}

	n, err := lineSamples("line profile", line, p.step())
	if err != nil {
		return nil, err
	}
	if err := CheckAllocation("line profile", 2*n, req.MaxBytes); err != nil {
		return nil, err
	}
	xs, ys := interpolation.LinePoints(line.X0, line.Y0, line.X1, line.Y1, p.step())

	plane, err := dataset.Plane(req.Data, xDim, yDim, req.Slices)
	if err != nil {
		return nil, fmt.Errorf("line profile of %q: %w", req.Data.Name(), err)
	}
	sampler, err := interpolation.NewSampler(plane, p.Method)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, nil
	}

	profile := dataset.New(outputName(req, "profile"), len(xs))
	for i := range xs {
		profile.Set(sampler.At(xs[i], ys[i]), i)
	}
	if ctx.Err() != nil {
		return nil, nil
	}

	distance := dataset.New("Pixel", len(xs))
	for i := range xs {
		distance.Set(float64(i)*p.step(), i)
	}
	return &Result{Outputs: []*dataset.Array{profile}, Axes: []*dataset.Array{distance}}, nil
}

func outputName(req Request, fallback string) string {
	if req.Name != "" {
		return req.Name
	}
	return fallback
}

// lineSamples counts the samples of line before anything is allocated
func lineSamples(op string, line roi.Line, step float64) (int, error) {
	n, err := interpolation.SampleCount(line.Length(), step)
	if err != nil {
		return 0, &UnsupportedOperationError{Op: op, Reason: err.Error()}
	}
	return n, nil
}

// initialLine runs from the origin to a tenth of each display dimension
func initialLine(shape []int, order models.AxisOrder) roi.ROI {
	xLen, yLen := displayLengths(shape, order)
	return roi.Line{X1: float64(xLen) / 10, Y1: float64(yLen) / 10}
}

func displayLengths(shape []int, order models.AxisOrder) (xLen, yLen int) {
	rank := len(shape)
	if rank == 0 {
		return 0, 0
	}
	if len(order) >= 2 && order.Validate(rank) == nil {
		return shape[order[0]], shape[order[1]]
	}
	if rank == 1 {
		return shape[0], 0
	}
	return shape[rank-1], shape[rank-2]
}
