package trace

import (
	"fmt"
	"sync"

	"plotmodel/pkg/dataset"
)

// Filter transforms line data before it is plotted
type Filter interface {
	Name() string
	Apply(x, y *dataset.Array) (*dataset.Array, *dataset.Array, error)
}

// FilterDecorator sits in front of a registry and passes line data through
// its filters, in the order they were added, while active
type FilterDecorator struct {
	reg *Registry

	mu      sync.Mutex
	filters []Filter
	active  bool
}

// NewFilterDecorator wraps reg. The decorator starts active.
func NewFilterDecorator(reg *Registry) *FilterDecorator {
	return &FilterDecorator{reg: reg, active: true}
}

// AddFilter appends f; a filter with the same name is replaced
func (d *FilterDecorator) AddFilter(f Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.filters {
		if existing.Name() == f.Name() {
			d.filters[i] = f
			return
		}
	}
	d.filters = append(d.filters, f)
}

// RemoveFilter drops the named filter
func (d *FilterDecorator) RemoveFilter(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, f := range d.filters {
		if f.Name() == name {
			d.filters = append(d.filters[:i], d.filters[i+1:]...)
			return
		}
	}
}

// Clear removes all filters
func (d *FilterDecorator) Clear() {
	d.mu.Lock()
	d.filters = nil
	d.mu.Unlock()
}

// SetActive switches filtering on or off
func (d *FilterDecorator) SetActive(active bool) {
	d.mu.Lock()
	d.active = active
	d.mu.Unlock()
}

// IsActive reports whether filters are applied
func (d *FilterDecorator) IsActive() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Filters returns the current filter chain
func (d *FilterDecorator) Filters() []Filter {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Filter, len(d.filters))
	copy(out, d.filters)
	return out
}

// Plot1D filters each y dataset and plots the results on the registry as
// one batch
func (d *FilterDecorator) Plot1D(x *dataset.Array, ys []*dataset.Array) ([]*Trace, error) {
	if !d.IsActive() {
		return d.reg.Plot1D(x, ys)
	}
	filters := d.Filters()
	if len(filters) == 0 {
		return d.reg.Plot1D(x, ys)
	}

	lines := make([]LineData, 0, len(ys))
	for i, y := range ys {
		if y == nil {
			return nil, fmt.Errorf("plot: y dataset %d is nil", i)
		}
		fx := x
		if fx == nil {
			fx = dataset.Arange("Indices", y.Size())
		}
		fy := y
		for _, f := range filters {
			var err error
			fx, fy, err = f.Apply(fx, fy)
			if err != nil {
				return nil, fmt.Errorf("filter %s on %q: %w", f.Name(), y.Name(), err)
			}
		}
		// filters keep the trace name so repeated plots update in place
		lines = append(lines, LineData{X: fx, Y: fy.Rename(y.Name())})
	}
	return d.reg.PlotLines(lines)
}
