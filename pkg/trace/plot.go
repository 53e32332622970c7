package trace

import (
	"fmt"

	"plotmodel/pkg/dataset"
)

// Plot1D shows every y dataset against x. A trace whose name matches a y
// dataset is updated in place; other datasets become new user line traces
// coloured by their position. A nil x is replaced by an index range.
// A single Plotted event follows the per-trace events.
func (r *Registry) Plot1D(x *dataset.Array, ys []*dataset.Array) ([]*Trace, error) {
	lines := make([]LineData, len(ys))
	for i, y := range ys {
		lines[i] = LineData{X: x, Y: y}
	}
	return r.PlotLines(lines)
}

// PlotLines is Plot1D for curves that each carry their own x dataset. The
// whole batch is announced by one Plotted event.
func (r *Registry) PlotLines(lines []LineData) ([]*Trace, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	type pending struct {
		name string
		data LineData
	}
	batch := make([]pending, 0, len(lines))
	for i, l := range lines {
		y := l.Y
		if y == nil {
			return nil, fmt.Errorf("plot: y dataset %d is nil", i)
		}
		if y.Rank() != 1 {
			return nil, fmt.Errorf("plot: y dataset %q has rank %d, want 1", y.Name(), y.Rank())
		}
		xs := l.X
		if xs == nil {
			xs = dataset.Arange("Indices", y.Size())
		}
		if xs.Size() != y.Size() {
			return nil, fmt.Errorf("plot: x %q has %d points, y %q has %d", xs.Name(), xs.Size(), y.Name(), y.Size())
		}
		name := y.Name()
		if name == "" {
			name = fmt.Sprintf("Plot %d", i+1)
		}
		batch = append(batch, pending{name: name, data: LineData{X: xs, Y: y}})
	}

	plotted := make([]*Trace, 0, len(batch))
	for _, p := range batch {
		t, ok := r.Get(p.name)
		if ok && t.Kind() == KindLine {
			updated := *t
			updated.Data = p.data
			r.Put(p.name, &updated)
			plotted = append(plotted, &updated)
			continue
		}
		if ok {
			// an image or surface of the same name is replaced by the line
			r.Remove(p.name)
		}
		t = &Trace{Data: p.data, User: true, Color: PaletteColor(r.Len())}
		r.Put(p.name, t)
		plotted = append(plotted, t)
	}

	log.WithField("count", len(plotted)).Debug("traces plotted")
	r.publish(Event{Type: Plotted, Traces: plotted})
	return plotted, nil
}

// Append adds one point to the end of a line trace
func (r *Registry) Append(name string, x, y float64) error {
	t, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("append to %q: %w", name, ErrNotFound)
	}
	line, ok := t.Line()
	if !ok {
		return fmt.Errorf("append to %q: trace is a %s, not a line", name, t.Kind())
	}

	xs, err := dataset.FromValues(line.X.Name(), append(line.X.Values(), x))
	if err != nil {
		return err
	}
	ys, err := dataset.FromValues(line.Y.Name(), append(line.Y.Values(), y))
	if err != nil {
		return err
	}
	updated := *t
	updated.Data = LineData{X: xs, Y: ys}
	r.Put(name, &updated)
	return nil
}
