package reduction

import (
	"context"
	"fmt"

	"plotmodel/internal/models"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/interpolation"
	"plotmodel/pkg/roi"
)

// TraceLine sweeps a line ROI through every position of the third
// dimension of a volume. The output has shape [samples, len(Order[2])].
// Its axes are the third dimension's coordinates (x, along columns) and the
// sample index (y, along rows).
type TraceLine struct{}

// Name implements Reducer
func (TraceLine) Name() string { return "Line Trace" }

// SupportedKinds implements Reducer
func (TraceLine) SupportedKinds() []roi.Kind { return []roi.Kind{roi.KindLine} }

// SupportsMultipleRegions implements Reducer
func (TraceLine) SupportsMultipleRegions() bool { return false }

// Output1D implements Reducer
func (TraceLine) Output1D() bool { return false }

// InitialROI implements Reducer
func (TraceLine) InitialROI(shape []int, order models.AxisOrder) roi.ROI {
	return initialLine(shape, order)
}

func (t TraceLine) order(req Request) (models.AxisOrder, error) {
	if req.Data.Rank() != 3 {
		return nil, fmt.Errorf("line trace of %q: need rank 3, have %d", req.Data.Name(), req.Data.Rank())
	}
	if len(req.Order) == 0 {
		return models.AxisOrder{2, 1, 0}, nil
	}
	if err := req.Order.Validate(3); err != nil {
		return nil, fmt.Errorf("line trace of %q: %w", req.Data.Name(), err)
	}
	return req.Order, nil
}

// Reduce implements Reducer
func (t TraceLine) Reduce(ctx context.Context, req Request) (*Result, error) {
	if !accept(ctx, t, req) {
		return nil, nil
	}
	order, err := t.order(req)
	if err != nil {
		return nil, err
	}
	line, ok := req.ROI.(roi.Line)
	if !ok {
		return nil, nil
	}
	n, err := lineSamples("line trace", line, 1)
	if err != nil {
		return nil, err
	}

	shape := req.Data.Shape()
	depth := shape[order[2]]
	if err := CheckAllocation("line trace", n*depth, req.MaxBytes); err != nil {
		return nil, err
	}
	xs, ys := interpolation.LinePoints(line.X0, line.Y0, line.X1, line.Y1, 1)

	out := dataset.New(outputName(req, "trace"), len(xs), depth)
	slices := make([]models.Slice, 3)
	for k := 0; k < depth; k++ {
		if ctx.Err() != nil {
			return nil, nil
		}
		slices[order[2]] = models.Index(k)
		plane, err := dataset.Plane(req.Data, order[0], order[1], slices)
		if err != nil {
			return nil, fmt.Errorf("line trace of %q at %d: %w", req.Data.Name(), k, err)
		}
		sampler, err := interpolation.NewSampler(plane, interpolation.Bilinear)
		if err != nil {
			return nil, err
		}
		for i := range xs {
			out.Set(sampler.At(xs[i], ys[i]), i, k)
		}
		if req.Progress != nil {
			req.Progress(k+1, depth)
		}
	}
	if ctx.Err() != nil {
		return nil, nil
	}

	samples := dataset.Arange("Sample", len(xs))
	along := axisValues(req, order[2], 0, depth, fmt.Sprintf("Dim%d", order[2]))
	return &Result{Outputs: []*dataset.Array{out}, Axes: []*dataset.Array{along, samples}}, nil
}
