// Package reduction derives lower-rank datasets from N-dimensional data
// guided by a region of interest: line profiles, sub-images, box and
// sector profiles.
//
// A reducer returns (nil, nil) for NoResult: the ROI kind is unsupported,
// the ROI is hidden, or the context was cancelled at a checkpoint.
package reduction

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"plotmodel/internal/models"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/region"
	"plotmodel/pkg/roi"
)

// Reducer turns a dataset and an ROI into derived datasets
type Reducer interface {
	Name() string
	Reduce(ctx context.Context, req Request) (*Result, error)
	SupportedKinds() []roi.Kind
	SupportsMultipleRegions() bool

	// InitialROI is the shape a new region gets for data of this shape
	InitialROI(shape []int, order models.AxisOrder) roi.ROI

	// Output1D reports whether results are curves rather than images
	Output1D() bool
}

// ProgressCallback reports progress through a long reduction
type ProgressCallback func(completed, total int)

// Request is one reduction. It is never modified by a reducer.
type Request struct {
	// Name names the outputs, usually after the region
	Name string

	Data dataset.Source

	// Axes holds optional coordinate values per dimension
	Axes []*dataset.Array

	ROI     roi.ROI
	Visible bool

	// Slices positions the dimensions that are not displayed
	Slices []models.Slice

	// Order lists the display x and y dimensions first. Empty means the
	// last dimension is x and the one before it is y.
	Order models.AxisOrder

	// MaxBytes caps the size of the outputs; zero means no cap
	MaxBytes uint64

	Progress ProgressCallback
}

// RequestFor builds a request from a region's current shape and visibility
func RequestFor(reg *region.Region, data dataset.Source, axes []*dataset.Array, slices []models.Slice, order models.AxisOrder) Request {
	return Request{
		Name:    reg.Name,
		Data:    data,
		Axes:    axes,
		ROI:     reg.ROI,
		Visible: reg.Visible,
		Slices:  slices,
		Order:   order,
	}
}

// Result holds the derived datasets and their coordinate axes. For curves
// Axes[0] is the shared x axis; for images Axes holds the x (column) and y
// (row) coordinates.
type Result struct {
	Outputs []*dataset.Array
	Axes    []*dataset.Array
}

// UnsupportedOperationError reports a reduction that exceeds an
// implementation limit
type UnsupportedOperationError struct {
	Op     string
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s not supported: %s", e.Op, e.Reason)
}

// ResourceExhaustionError reports a reduction that would need more memory
// than allowed
type ResourceExhaustionError struct {
	Op        string
	Requested uint64
	Limit     uint64
}

func (e *ResourceExhaustionError) Error() string {
	return fmt.Sprintf("%s needs %s, limit is %s", e.Op, humanize.IBytes(e.Requested), humanize.IBytes(e.Limit))
}

// CheckAllocation returns a ResourceExhaustionError when elements float64
// values exceed limit bytes
func CheckAllocation(op string, elements int, limit uint64) error {
	if limit == 0 || elements < 0 {
		return nil
	}
	need := uint64(elements) * 8
	if need > limit {
		return &ResourceExhaustionError{Op: op, Requested: need, Limit: limit}
	}
	return nil
}

func supports(r Reducer, k roi.Kind) bool {
	for _, s := range r.SupportedKinds() {
		if s == k {
			return true
		}
	}
	return false
}

// accept applies the NoResult rules shared by all reducers
func accept(ctx context.Context, r Reducer, req Request) bool {
	if req.ROI == nil || !req.Visible || !supports(r, req.ROI.Kind()) {
		return false
	}
	return ctx.Err() == nil
}

// displayAxes returns the x and y dimensions of a request
func displayAxes(req Request) (x, y int, err error) {
	rank := req.Data.Rank()
	if len(req.Order) == 0 {
		if rank < 2 {
			return 0, 0, fmt.Errorf("dataset %q: rank %d has no display plane", req.Data.Name(), rank)
		}
		return rank - 1, rank - 2, nil
	}
	if err := req.Order.Validate(rank); err != nil {
		return 0, 0, err
	}
	if rank < 2 {
		return 0, 0, fmt.Errorf("dataset %q: rank %d has no display plane", req.Data.Name(), rank)
	}
	return req.Order[0], req.Order[1], nil
}

// axisValues returns the coordinates for dimension d restricted to the
// index range [start, stop), or indices when no axis was supplied
func axisValues(req Request, d, start, stop int, name string) *dataset.Array {
	if d < len(req.Axes) && req.Axes[d] != nil && req.Axes[d].Size() >= stop {
		v := req.Axes[d].Values()[start:stop]
		return dataset.MustFromValues(req.Axes[d].Name(), v)
	}
	out := dataset.New(name, stop-start)
	for i := 0; i < stop-start; i++ {
		out.Set(float64(start+i), i)
	}
	return out
}
