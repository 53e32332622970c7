// Package interpolation samples 2D planes at fractional pixel positions.
// Coordinates follow image convention: x is the column, y is the row.
package interpolation

import (
	"fmt"
	"math"

	"plotmodel/pkg/dataset"
)

// Method selects how values between pixel centres are computed
type Method int

const (
	// Bilinear blends the four surrounding pixels
	Bilinear Method = iota

	// Nearest takes the closest pixel
	Nearest
)

func (m Method) String() string {
	switch m {
	case Bilinear:
		return "bilinear"
	case Nearest:
		return "nearest"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Sampler reads values from one plane
type Sampler struct {
	plane         *dataset.Array
	width, height int
	method        Method
	mask          *dataset.Array
}

// NewSampler wraps a rank-2 plane of shape [height, width]
func NewSampler(plane *dataset.Array, method Method) (*Sampler, error) {
	if plane.Rank() != 2 {
		return nil, fmt.Errorf("sampler needs a 2D plane, %q has rank %d", plane.Name(), plane.Rank())
	}
	shape := plane.Shape()
	return &Sampler{plane: plane, height: shape[0], width: shape[1], method: method}, nil
}

// SetMask installs a mask of the plane's shape; pixels where the mask is
// zero read as NaN
func (s *Sampler) SetMask(mask *dataset.Array) error {
	if mask != nil {
		shape := mask.Shape()
		if len(shape) != 2 || shape[0] != s.height || shape[1] != s.width {
			return fmt.Errorf("mask shape %v does not match plane %dx%d", shape, s.height, s.width)
		}
	}
	s.mask = mask
	return nil
}

// At returns the value at (x, y), or NaN outside the plane
func (s *Sampler) At(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) || x < 0 || y < 0 || x > float64(s.width-1) || y > float64(s.height-1) {
		return math.NaN()
	}
	if s.method == Nearest {
		return s.pixel(int(math.Round(x)), int(math.Round(y)))
	}

	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	fx, fy := x-float64(x0), y-float64(y0)
	x1, y1 := x0+1, y0+1
	if fx == 0 {
		x1 = x0
	}
	if fy == 0 {
		y1 = y0
	}

	v00 := s.pixel(x0, y0)
	v10 := s.pixel(x1, y0)
	v01 := s.pixel(x0, y1)
	v11 := s.pixel(x1, y1)
	top := v00*(1-fx) + v10*fx
	bottom := v01*(1-fx) + v11*fx
	return top*(1-fy) + bottom*fy
}

func (s *Sampler) pixel(x, y int) float64 {
	if s.mask != nil && s.mask.At(y, x) == 0 {
		return math.NaN()
	}
	return s.plane.At(y, x)
}

// Width returns the number of columns
func (s *Sampler) Width() int { return s.width }

// Height returns the number of rows
func (s *Sampler) Height() int { return s.height }

// MaxLineSamples bounds the number of samples along one line
const MaxLineSamples = math.MaxInt32

// SampleCount returns how many samples spaced step apart fit on a line of
// the given length, counting both ends. It fails for a non-finite length
// or step and for counts above MaxLineSamples.
func SampleCount(length, step float64) (int, error) {
	if math.IsNaN(length) || math.IsInf(length, 0) || length < 0 {
		return 0, fmt.Errorf("line length %g is not finite", length)
	}
	if math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return 0, fmt.Errorf("sample step %g is not positive", step)
	}
	n := math.Floor(length/step) + 1
	if n > MaxLineSamples {
		return 0, fmt.Errorf("line of length %g needs %g samples, limit is %d", length, n, MaxLineSamples)
	}
	return int(n), nil
}

// LinePoints returns the sample positions along (x0, y0)-(x1, y1) spaced
// step apart, starting at the first end point. A zero-length line has one
// sample. Lines SampleCount rejects have none.
func LinePoints(x0, y0, x1, y1, step float64) (xs, ys []float64) {
	length := math.Hypot(x1-x0, y1-y0)
	n, err := SampleCount(length, step)
	if err != nil {
		return nil, nil
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	if length == 0 {
		xs[0], ys[0] = x0, y0
		return xs, ys
	}
	dx, dy := (x1-x0)/length*step, (y1-y0)/length*step
	for i := 0; i < n; i++ {
		xs[i] = x0 + float64(i)*dx
		ys[i] = y0 + float64(i)*dy
	}
	return xs, ys
}
