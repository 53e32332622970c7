package dataset

import (
	"fmt"

	"plotmodel/internal/models"
)

// Slice copies the region selected by one slice per dimension. Missing
// trailing slices select whole dimensions.
func (a *Array) Slice(slices []models.Slice) (*Array, error) {
	if len(slices) > len(a.shape) {
		return nil, fmt.Errorf("dataset %q: %d slices for rank %d", a.name, len(slices), len(a.shape))
	}

	rank := len(a.shape)
	starts := make([]int, rank)
	steps := make([]int, rank)
	counts := make([]int, rank)
	for d := 0; d < rank; d++ {
		s := models.All()
		if d < len(slices) {
			s = slices[d]
		}
		start, stop, step, err := s.Resolve(a.shape[d])
		if err != nil {
			return nil, fmt.Errorf("dataset %q dimension %d: %w", a.name, d, err)
		}
		starts[d] = start
		steps[d] = step
		counts[d] = (stop - start + step - 1) / step
	}

	out := New(a.name, counts...)
	pos := make([]int, rank)
	for i := range out.data {
		off := 0
		for d := 0; d < rank; d++ {
			off += (starts[d] + pos[d]*steps[d]) * a.strides[d]
		}
		out.data[i] = a.data[off]

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

// Transpose returns a copy with dimensions permuted so that output
// dimension i is input dimension order[i]
func (a *Array) Transpose(order models.AxisOrder) (*Array, error) {
	if err := order.Validate(len(a.shape)); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", a.name, err)
	}
	rank := len(a.shape)
	shape := make([]int, rank)
	for i, d := range order {
		shape[i] = a.shape[d]
	}
	out := New(a.name, shape...)
	pos := make([]int, rank)
	for i := range out.data {
		off := 0
		for k, d := range order {
			off += pos[k] * a.strides[d]
		}
		out.data[i] = a.data[off]

		for k := rank - 1; k >= 0; k-- {
			pos[k]++
			if pos[k] < shape[k] {
				break
			}
			pos[k] = 0
		}
	}
	return out, nil
}

// Plane extracts the 2D plane spanned by the display axes xDim and yDim.
// Every other dimension is held at the start of its slice. The result has
// shape [len(yDim), len(xDim)].
func Plane(src Source, xDim, yDim int, slices []models.Slice) (*Array, error) {
	return SubPlane(src, xDim, yDim, models.All(), models.All(), slices)
}

// SubPlane is Plane restricted to xs along xDim and ys along yDim
func SubPlane(src Source, xDim, yDim int, xs, ys models.Slice, slices []models.Slice) (*Array, error) {
	rank := src.Rank()
	if rank < 2 {
		return nil, fmt.Errorf("dataset %q: rank %d has no plane", src.Name(), rank)
	}
	if xDim == yDim || xDim < 0 || yDim < 0 || xDim >= rank || yDim >= rank {
		return nil, fmt.Errorf("dataset %q: invalid display axes %d,%d", src.Name(), xDim, yDim)
	}

	shape := src.Shape()
	sel := make([]models.Slice, rank)
	for d := 0; d < rank; d++ {
		switch {
		case d == xDim:
			sel[d] = xs
		case d == yDim:
			sel[d] = ys
		case d < len(slices):
			sel[d] = models.Index(slices[d].Start)
		default:
			sel[d] = models.Index(0)
		}
		if d != xDim && d != yDim && (sel[d].Start < 0 || sel[d].Start >= shape[d]) {
			return nil, fmt.Errorf("dataset %q: slice index %d out of range for dimension %d", src.Name(), sel[d].Start, d)
		}
	}

	region, err := src.Realize(sel)
	if err != nil {
		return nil, err
	}
	got := region.Shape()
	lo, hi := xDim, yDim
	if lo > hi {
		lo, hi = hi, lo
	}
	flat := newArray(region.name, []int{got[lo], got[hi]}, region.data)
	if yDim < xDim {
		return flat, nil
	}
	// natural layout is [x, y]
	return flat.Transpose(models.AxisOrder{1, 0})
}
