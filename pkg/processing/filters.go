package processing

import (
	"fmt"

	"plotmodel/pkg/dataset"
	"plotmodel/pkg/trace"
)

// SmoothFilter plugs PolySmooth into a trace.FilterDecorator
type SmoothFilter struct {
	Window, Order int
}

var _ trace.Filter = SmoothFilter{}

// Name implements trace.Filter
func (f SmoothFilter) Name() string {
	return fmt.Sprintf("smooth(%d,%d)", f.Window, f.Order)
}

// Apply implements trace.Filter
func (f SmoothFilter) Apply(x, y *dataset.Array) (*dataset.Array, *dataset.Array, error) {
	s, err := PolySmooth(x, y, f.Window, f.Order)
	return x, s, err
}

// MedianFilter plugs MedianSmooth into a trace.FilterDecorator
type MedianFilter struct {
	Window int
}

// Name implements trace.Filter
func (f MedianFilter) Name() string {
	return fmt.Sprintf("median(%d)", f.Window)
}

// Apply implements trace.Filter
func (f MedianFilter) Apply(x, y *dataset.Array) (*dataset.Array, *dataset.Array, error) {
	m, err := MedianSmooth(y, f.Window)
	return x, m, err
}

// LoessFilter plugs LoessSmooth into a trace.FilterDecorator
type LoessFilter struct {
	Span float64
}

// Name implements trace.Filter
func (f LoessFilter) Name() string {
	return fmt.Sprintf("loess(%g)", f.Span)
}

// Apply implements trace.Filter
func (f LoessFilter) Apply(x, y *dataset.Array) (*dataset.Array, *dataset.Array, error) {
	l, err := LoessSmooth(x, y, f.Span)
	return x, l, err
}

// DerivativeFilter plots the derivative of each curve in place of the
// curve. Order 2 gives the second derivative.
type DerivativeFilter struct {
	Window int
	Order  int
}

// Name implements trace.Filter
func (f DerivativeFilter) Name() string {
	if f.Order == 2 {
		return fmt.Sprintf("derivative2(%d)", f.Window)
	}
	return fmt.Sprintf("derivative(%d)", f.Window)
}

// Apply implements trace.Filter
func (f DerivativeFilter) Apply(x, y *dataset.Array) (*dataset.Array, *dataset.Array, error) {
	if f.Order == 2 {
		d, err := SecondDerivative(x, y, f.Window)
		return x, d, err
	}
	d, err := Derivative(x, y, f.Window)
	return x, d, err
}
