package trace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plotmodel/pkg/dataset"
)

func TestPlot1DCreatesWithIndexX(t *testing.T) {
	r := NewRegistry()
	events := record(r)

	y1 := dataset.MustFromValues("counts", []float64{3, 4, 5})
	y2 := dataset.MustFromValues("monitor", []float64{1, 1, 1})
	traces, err := r.Plot1D(nil, []*dataset.Array{y1, y2})
	require.NoError(t, err)
	require.Len(t, traces, 2)

	l, ok := traces[0].Line()
	require.True(t, ok)
	assert.Equal(t, "Indices", l.X.Name())
	assert.Equal(t, []float64{0, 1, 2}, l.X.Values())
	assert.True(t, traces[0].User)
	assert.Equal(t, PaletteColor(0), traces[0].Color)
	assert.Equal(t, PaletteColor(1), traces[1].Color)

	types := []EventType{}
	for _, e := range *events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{Added, Added, Plotted}, types)
	assert.Len(t, (*events)[2].Traces, 2)
}

func TestPlot1DUpdatesExistingByName(t *testing.T) {
	r := NewRegistry()
	x := dataset.MustFromValues("energy", []float64{10, 20})
	_, err := r.Plot1D(x, []*dataset.Array{dataset.MustFromValues("counts", []float64{1, 2})})
	require.NoError(t, err)
	first, _ := r.Get("counts")
	color := first.Color

	_, err = r.Plot1D(x, []*dataset.Array{dataset.MustFromValues("counts", []float64{5, 6})})
	require.NoError(t, err)

	assert.Equal(t, 1, r.Len())
	got, _ := r.Get("counts")
	l, _ := got.Line()
	assert.Equal(t, []float64{5, 6}, l.Y.Values())
	assert.Equal(t, color, got.Color)
}

func TestPlot1DSizeMismatch(t *testing.T) {
	r := NewRegistry()
	x := dataset.Arange("x", 4)
	_, err := r.Plot1D(x, []*dataset.Array{dataset.MustFromValues("y", []float64{1, 2})})
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestAppend(t *testing.T) {
	r := NewRegistry()
	r.Put("a", line("a", 1, 2))

	require.NoError(t, r.Append("a", 2, 9))
	got, _ := r.Get("a")
	l, _ := got.Line()
	assert.Equal(t, []float64{0, 1, 2}, l.X.Values())
	assert.Equal(t, []float64{1, 2, 9}, l.Y.Values())

	assert.ErrorIs(t, r.Append("missing", 0, 0), ErrNotFound)
	r.Put("img", NewImage("img", dataset.New("img", 2, 2)))
	assert.Error(t, r.Append("img", 0, 0))
}

type scaleFilter struct {
	name   string
	factor float64
}

func (f scaleFilter) Name() string { return f.name }

func (f scaleFilter) Apply(x, y *dataset.Array) (*dataset.Array, *dataset.Array, error) {
	v := y.Values()
	for i := range v {
		v[i] *= f.factor
	}
	out, err := dataset.FromValues(y.Name()+"_scaled", v)
	return x, out, err
}

type failingFilter struct{}

func (failingFilter) Name() string { return "fail" }

func (failingFilter) Apply(x, y *dataset.Array) (*dataset.Array, *dataset.Array, error) {
	return nil, nil, errors.New("bad data")
}

func TestFilterDecorator(t *testing.T) {
	r := NewRegistry()
	d := NewFilterDecorator(r)
	d.AddFilter(scaleFilter{"double", 2})
	d.AddFilter(scaleFilter{"triple", 3})

	y := dataset.MustFromValues("counts", []float64{1, 2})
	_, err := d.Plot1D(nil, []*dataset.Array{y})
	require.NoError(t, err)
	got, ok := r.Get("counts")
	require.True(t, ok)
	l, _ := got.Line()
	assert.Equal(t, []float64{6, 12}, l.Y.Values())

	d.RemoveFilter("triple")
	assert.Len(t, d.Filters(), 1)

	d.SetActive(false)
	_, err = d.Plot1D(nil, []*dataset.Array{y})
	require.NoError(t, err)
	got, _ = r.Get("counts")
	l, _ = got.Line()
	assert.Equal(t, []float64{1, 2}, l.Y.Values())

	d.SetActive(true)
	d.Clear()
	d.AddFilter(failingFilter{})
	_, err = d.Plot1D(nil, []*dataset.Array{y})
	assert.Error(t, err)
}

func TestFilterDecoratorPlotsOneBatch(t *testing.T) {
	r := NewRegistry()
	var batches [][]string
	r.Subscribe(func(e Event) {
		if e.Type != Plotted {
			return
		}
		var names []string
		for _, tr := range e.Traces {
			names = append(names, tr.Name)
		}
		batches = append(batches, names)
	})

	d := NewFilterDecorator(r)
	d.AddFilter(scaleFilter{"double", 2})
	a := dataset.MustFromValues("a", []float64{1, 2})
	b := dataset.MustFromValues("b", []float64{3, 4})
	_, err := d.Plot1D(nil, []*dataset.Array{a, b})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a", "b"}}, batches)
	got, _ := r.Get("b")
	l, _ := got.Line()
	assert.Equal(t, []float64{6, 8}, l.Y.Values())
}
