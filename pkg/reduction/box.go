package reduction

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"plotmodel/internal/models"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/roi"
)

// Box cuts the sub-image under a box ROI out of the display plane, holding
// the other dimensions at their slice positions
type Box struct{}

// Name implements Reducer
func (Box) Name() string { return "Box" }

// SupportedKinds implements Reducer
func (Box) SupportedKinds() []roi.Kind { return []roi.Kind{roi.KindBox} }

// SupportsMultipleRegions implements Reducer
func (Box) SupportsMultipleRegions() bool { return true }

// Output1D implements Reducer
func (Box) Output1D() bool { return false }

// InitialROI implements Reducer
func (Box) InitialROI(shape []int, order models.AxisOrder) roi.ROI {
	return initialBox(shape, order)
}

// Reduce implements Reducer. Outputs are the sub-image; axes are its x and
// y coordinates.
func (b Box) Reduce(ctx context.Context, req Request) (*Result, error) {
	if !accept(ctx, b, req) {
		return nil, nil
	}
	img, xAxis, yAxis, err := cutBox(ctx, "box", req)
	if img == nil || err != nil {
		return nil, err
	}
	return &Result{Outputs: []*dataset.Array{img}, Axes: []*dataset.Array{xAxis, yAxis}}, nil
}

// BoxProfile sums a box ROI along each display axis. Outputs are the x
// profile (column sums) and the y profile (row sums). NaN pixels count
// as zero.
type BoxProfile struct{}

// Name implements Reducer
func (BoxProfile) Name() string { return "Box Profile" }

// SupportedKinds implements Reducer
func (BoxProfile) SupportedKinds() []roi.Kind { return []roi.Kind{roi.KindBox} }

// SupportsMultipleRegions implements Reducer
func (BoxProfile) SupportsMultipleRegions() bool { return true }

// Output1D implements Reducer
func (BoxProfile) Output1D() bool { return true }

// InitialROI implements Reducer
func (BoxProfile) InitialROI(shape []int, order models.AxisOrder) roi.ROI {
	return initialBox(shape, order)
}

// Reduce implements Reducer
func (b BoxProfile) Reduce(ctx context.Context, req Request) (*Result, error) {
	if !accept(ctx, b, req) {
		return nil, nil
	}
	img, xAxis, yAxis, err := cutBox(ctx, "box profile", req)
	if img == nil || err != nil {
		return nil, err
	}

	shape := img.Shape()
	h, w := shape[0], shape[1]
	values := img.Values()
	for i, v := range values {
		if math.IsNaN(v) {
			values[i] = 0
		}
	}
	m := mat.NewDense(h, w, values)

	ones := func(n int) *mat.VecDense {
		v := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			v.SetVec(i, 1)
		}
		return v
	}
	var cols, rows mat.VecDense
	cols.MulVec(m.T(), ones(h))
	rows.MulVec(m, ones(w))
	if ctx.Err() != nil {
		return nil, nil
	}

	name := outputName(req, "box")
	xProfile := dataset.MustFromValues(name+"_x", mat.Col(nil, 0, &cols))
	yProfile := dataset.MustFromValues(name+"_y", mat.Col(nil, 0, &rows))
	return &Result{
		Outputs: []*dataset.Array{xProfile, yProfile},
		Axes:    []*dataset.Array{xAxis, yAxis},
	}, nil
}

// cutBox returns a nil image without error when the box misses the plane
// or the context was cancelled
func cutBox(ctx context.Context, op string, req Request) (img, xAxis, yAxis *dataset.Array, err error) {
	box, ok := req.ROI.(roi.Box)
	if !ok {
		return nil, nil, nil, nil
	}
	xDim, yDim, err := displayAxes(req)
	if err != nil {
		return nil, nil, nil, err
	}
	shape := req.Data.Shape()
	x0, x1, okX := pixelRange(box.Bounds().MinX, box.Bounds().MaxX, shape[xDim])
	y0, y1, okY := pixelRange(box.Bounds().MinY, box.Bounds().MaxY, shape[yDim])
	if !okX || !okY {
		return nil, nil, nil, nil
	}
	if err := CheckAllocation(op, (x1-x0)*(y1-y0), req.MaxBytes); err != nil {
		return nil, nil, nil, err
	}
	if ctx.Err() != nil {
		return nil, nil, nil, nil
	}

	img, err = dataset.SubPlane(req.Data, xDim, yDim,
		models.Slice{Start: x0, Stop: x1, Step: 1},
		models.Slice{Start: y0, Stop: y1, Step: 1},
		req.Slices)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%s of %q: %w", op, req.Data.Name(), err)
	}
	if ctx.Err() != nil {
		return nil, nil, nil, nil
	}
	img = img.Rename(outputName(req, op))
	xAxis = axisValues(req, xDim, x0, x1, "X")
	yAxis = axisValues(req, yDim, y0, y1, "Y")
	return img, xAxis, yAxis, nil
}

// pixelRange covers [floor(lo), ceil(hi)) clipped to [0, n)
func pixelRange(lo, hi float64, n int) (start, stop int, ok bool) {
	start = int(math.Max(math.Floor(lo), 0))
	stop = int(math.Min(math.Ceil(hi), float64(n)))
	if stop == start && float64(start) == hi && start < n {
		stop = start + 1
	}
	return start, stop, stop > start
}

func initialBox(shape []int, order models.AxisOrder) roi.ROI {
	xLen, yLen := displayLengths(shape, order)
	return roi.Box{Width: math.Max(float64(xLen)/10, 1), Height: math.Max(float64(yLen)/10, 1)}
}
