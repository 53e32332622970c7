package processing

import (
	"fmt"
	"math"

	"github.com/JaderDias/movingmedian"
	"github.com/aclements/go-moremath/fit"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"plotmodel/pkg/dataset"
)

// Defaults of the polynomial smoother
const (
	DefaultSmoothWindow = 13
	DefaultSmoothOrder  = 9
)

// PolySmooth fits a least-squares polynomial of the given order to the
// window points around each sample and evaluates it there. Windows are
// shifted inwards at the ends so they keep their size. The result is named
// after y with a "_smooth" suffix.
func PolySmooth(x, y *dataset.Array, window, order int) (*dataset.Array, error) {
	x, err := checkPair(x, y)
	if err != nil {
		return nil, err
	}
	if window < 1 || order < 0 {
		return nil, fmt.Errorf("smooth %q: invalid window %d or order %d", y.Name(), window, order)
	}

	xs, ys := x.Values(), y.Values()
	size := len(ys)
	if window > size {
		window = size
	}
	out := dataset.New(y.Name()+"_smooth", size)
	for i := 0; i < size; i++ {
		lo := i - window/2
		if lo < 0 {
			lo = 0
		}
		if lo+window > size {
			lo = size - window
		}
		v, err := fitAt(xs[lo:lo+window], ys[lo:lo+window], xs[i], order)
		if err != nil {
			return nil, fmt.Errorf("smooth %q at %d: %w", y.Name(), i, err)
		}
		out.Set(v, i)
	}
	return out, nil
}

// fitAt evaluates at x0 a polynomial fitted to (xs, ys). The window is
// mapped onto [-1, 1] and fitted in the Legendre basis, which keeps the
// normal equations well conditioned at high orders.
func fitAt(xs, ys []float64, x0 float64, order int) (v float64, err error) {
	if order > len(xs)-1 {
		order = len(xs) - 1
	}
	lo, hi := floats.Min(xs), floats.Max(xs)
	if hi == lo {
		return stat.Mean(ys, nil), nil
	}
	mid, half := (hi+lo)/2, (hi-lo)/2
	u := make([]float64, len(xs))
	for i, x := range xs {
		u[i] = (x - mid) / half
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("polynomial fit failed: %v", r)
		}
	}()
	coeffs := fit.LinearLeastSquares(u, ys, nil, legendreTerms(order)...)
	basis := legendre(order, (x0-mid)/half)
	for k, c := range coeffs {
		v += c * basis[k]
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("polynomial fit is singular")
	}
	return v, nil
}

// legendre returns P0(u)..Pn(u)
func legendre(n int, u float64) []float64 {
	p := make([]float64, n+1)
	p[0] = 1
	if n >= 1 {
		p[1] = u
	}
	for k := 1; k < n; k++ {
		p[k+1] = (float64(2*k+1)*u*p[k] - float64(k)*p[k-1]) / float64(k+1)
	}
	return p
}

func legendreTerms(n int) []func(xs, termOut []float64) {
	terms := make([]func(xs, termOut []float64), n+1)
	for d := range terms {
		d := d
		terms[d] = func(xs, termOut []float64) {
			for i, x := range xs {
				termOut[i] = legendre(d, x)[d]
			}
		}
	}
	return terms
}

// MedianSmooth replaces each sample with the median of the window centred
// on it. Even windows grow by one; the ends repeat the edge values. The
// result is named after y with a "_median" suffix.
func MedianSmooth(y *dataset.Array, window int) (*dataset.Array, error) {
	if _, err := checkPair(nil, y); err != nil {
		return nil, err
	}
	if window < 1 {
		return nil, fmt.Errorf("median of %q: window %d must be at least 1", y.Name(), window)
	}
	if window%2 == 0 {
		window++
	}

	ys := y.Values()
	size := len(ys)
	out := dataset.New(y.Name()+"_median", size)
	if size == 0 {
		return out, nil
	}
	half := window / 2
	mm := movingmedian.NewMovingMedian(window)
	for j := -half; j < size+half; j++ {
		k := j
		if k < 0 {
			k = 0
		}
		if k > size-1 {
			k = size - 1
		}
		mm.Push(ys[k])
		if centre := j - half; centre >= 0 {
			out.Set(mm.Median(), centre)
		}
	}
	return out, nil
}

// LoessSmooth evaluates a local quadratic regression over the nearest
// span fraction of points at every sample. The result is named after y
// with a "_loess" suffix.
func LoessSmooth(x, y *dataset.Array, span float64) (*dataset.Array, error) {
	x, err := checkPair(x, y)
	if err != nil {
		return nil, err
	}
	if span <= 0 || span > 1 {
		return nil, fmt.Errorf("loess of %q: span %g outside (0, 1]", y.Name(), span)
	}
	xs := x.Values()
	f := fit.LOESS(xs, y.Values(), 2, span)
	out := dataset.New(y.Name()+"_loess", len(xs))
	for i, v := range xs {
		out.Set(f(v), i)
	}
	return out, nil
}
