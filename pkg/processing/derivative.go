// Package processing derives curves from plotted line traces: finite
// difference derivatives and several smoothers, plus the processor that
// keeps derived traces in step with the plot.
package processing

import (
	"fmt"

	"plotmodel/pkg/dataset"
)

// Derivative returns the slope of y against x using a window of n samples
// on each side: d[i] = (y[hi]-y[lo]) / (x[hi]-x[lo]) with lo = max(i-n, 0)
// and hi = min(i+n, len-1). A nil x is replaced by an index range. The
// result is named after y with a "'" suffix.
func Derivative(x, y *dataset.Array, n int) (*dataset.Array, error) {
	x, err := checkPair(x, y)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("derivative of %q: window %d must be at least 1", y.Name(), n)
	}

	size := y.Size()
	out := dataset.New(y.Name()+"'", size)
	if size < 2 {
		return out, nil
	}
	for i := 0; i < size; i++ {
		lo, hi := i-n, i+n
		if lo < 0 {
			lo = 0
		}
		if hi > size-1 {
			hi = size - 1
		}
		out.Set((y.Flat(hi)-y.Flat(lo))/(x.Flat(hi)-x.Flat(lo)), i)
	}
	return out, nil
}

// SecondDerivative applies Derivative twice with the same window
func SecondDerivative(x, y *dataset.Array, n int) (*dataset.Array, error) {
	x, err := checkPair(x, y)
	if err != nil {
		return nil, err
	}
	d, err := Derivative(x, y, n)
	if err != nil {
		return nil, err
	}
	return Derivative(x, d, n)
}

// checkPair validates a curve and fills in a missing x
func checkPair(x, y *dataset.Array) (*dataset.Array, error) {
	if y == nil {
		return nil, fmt.Errorf("no y data")
	}
	if y.Rank() != 1 {
		return nil, fmt.Errorf("%q has rank %d, want 1", y.Name(), y.Rank())
	}
	if x == nil {
		return dataset.Arange("Indices", y.Size()), nil
	}
	if x.Size() != y.Size() {
		return nil, fmt.Errorf("x %q has %d points, y %q has %d", x.Name(), x.Size(), y.Name(), y.Size())
	}
	return x, nil
}
