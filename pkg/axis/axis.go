// Package axis models plot axes: their data range, the mapping between data
// and normalized screen space, and tick generation.
package axis

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/scale"
)

// Axis is a named data range shown along one side of a plot
type Axis struct {
	// Name identifies the axis in its plot
	Name string

	// Title is the label shown next to the axis
	Title string

	// Lower and Upper bound the visible data range. Lower may exceed Upper
	// for inverted axes, as image y axes usually are.
	Lower, Upper float64

	// Y marks a vertical axis
	Y bool
}

// New creates an axis over [lower, upper]
func New(name string, lower, upper float64, vertical bool) *Axis {
	return &Axis{Name: name, Title: name, Lower: lower, Upper: upper, Y: vertical}
}

// SetRange updates the visible data range
func (a *Axis) SetRange(lower, upper float64) {
	a.Lower, a.Upper = lower, upper
}

// Inverted reports whether the axis runs from high to low values
func (a *Axis) Inverted() bool {
	return a.Lower > a.Upper
}

func (a *Axis) linear() scale.Linear {
	return scale.Linear{Min: a.Lower, Max: a.Upper}
}

// Map converts a data value to [0, 1] across the visible range
func (a *Axis) Map(v float64) float64 {
	return a.linear().Map(v)
}

// Unmap converts a normalized position back to a data value
func (a *Axis) Unmap(p float64) float64 {
	return a.linear().Unmap(p)
}

// Ticks returns at most max major tick values in increasing order
func (a *Axis) Ticks(max int) []float64 {
	major, _ := a.linear().Ticks(scale.TickOptions{Max: max})
	return major
}

// NiceRange returns the range widened to tick boundaries
func (a *Axis) NiceRange(max int) (float64, float64) {
	s := a.linear()
	s.Nice(scale.TickOptions{Max: max})
	if a.Inverted() {
		return s.Max, s.Min
	}
	return s.Min, s.Max
}

func (a *Axis) String() string {
	return fmt.Sprintf("%s[%g, %g]", a.Name, a.Lower, a.Upper)
}

// Pair is the x and y axes a region or trace is drawn against. Regions keep
// a Pair as a back-reference; they do not own the axes.
type Pair struct {
	X, Y *Axis
}

// DefaultPair returns the primary axes of a plot
func DefaultPair() Pair {
	return Pair{X: New("X-Axis", 0, 100, false), Y: New("Y-Axis", 0, 100, true)}
}

// Valid reports whether both axes are set
func (p Pair) Valid() bool {
	return p.X != nil && p.Y != nil
}

// Ticks generates evenly spaced tick positions and labels across [lo, hi].
// Unlike Axis.Ticks it always returns exactly n values, which is what the
// 3D surface axes need.
func Ticks(lo, hi float64, n int) ([]float64, []string) {
	if n <= 0 {
		return nil, nil
	}
	values := make([]float64, n)
	labels := make([]string, n)
	step := 0.0
	if n > 1 {
		step = (hi - lo) / float64(n-1)
	}
	for i := range values {
		values[i] = lo + float64(i)*step
		labels[i] = formatTick(values[i], step)
	}
	return values, labels
}

func formatTick(v, step float64) string {
	if step == 0 || math.Abs(step) >= 1 {
		return fmt.Sprintf("%.0f", v)
	}
	digits := int(math.Ceil(-math.Log10(math.Abs(step))))
	return fmt.Sprintf("%.*f", digits, v)
}
