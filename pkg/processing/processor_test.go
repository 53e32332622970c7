package processing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plotmodel/pkg/dataset"
	"plotmodel/pkg/owner"
	"plotmodel/pkg/trace"
)

// gate holds every owner task until released
type gate struct {
	release chan struct{}
}

func (g gate) Exec(ctx context.Context, fn func()) error {
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	fn()
	return nil
}

type selectionBox struct {
	mu  sync.Mutex
	sel Selection
}

func (s *selectionBox) get() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

func (s *selectionBox) set(sel Selection) {
	s.mu.Lock()
	s.sel = sel
	s.mu.Unlock()
}

func plotted(t *testing.T) *trace.Registry {
	t.Helper()
	reg := trace.NewRegistry()
	x, y := square()
	_, err := reg.Plot1D(x, []*dataset.Array{y})
	require.NoError(t, err)
	return reg
}

func TestProcessorAddsSelectedDerivatives(t *testing.T) {
	reg := plotted(t)
	all := func() Selection { return Selection{Data: true, First: true, Second: true} }
	p := NewProcessor(reg, owner.Immediate{}, all)

	require.True(t, p.Trigger(context.Background(), reg.UserTraces(trace.KindLine)))
	p.Wait()

	assert.Equal(t, []string{"y", "y'", "y''"}, reg.Names())
	first, _ := reg.Get("y'")
	line, _ := first.Line()
	assert.Equal(t, []float64{1, 2, 4, 6, 7}, line.Y.Values())
	assert.Equal(t, "x", line.X.Name())
	assert.True(t, first.User)
	assert.Equal(t, Idle, p.State())
	assert.EqualValues(t, 1, p.Commits())
}

func TestProcessorCoalescesTriggers(t *testing.T) {
	reg := plotted(t)
	g := gate{release: make(chan struct{})}
	p := NewProcessor(reg, g, nil)

	traces := reg.UserTraces(trace.KindLine)
	require.True(t, p.Trigger(context.Background(), traces))
	assert.Equal(t, Computing, p.State())
	assert.False(t, p.Trigger(context.Background(), traces))

	close(g.release)
	p.Wait()
	assert.EqualValues(t, 1, p.Commits())
	assert.Equal(t, []string{"y", "y'"}, reg.Names())

	// idle again, so a later trigger runs
	require.True(t, p.Trigger(context.Background(), reg.UserTraces(trace.KindLine)[:1]))
	p.Wait()
	assert.EqualValues(t, 2, p.Commits())
	assert.Equal(t, []string{"y", "y'"}, reg.Names())
}

func TestProcessorUsesSelectionFromTrigger(t *testing.T) {
	reg := plotted(t)
	box := &selectionBox{sel: Selection{Data: true, First: true}}
	g := gate{release: make(chan struct{})}
	p := NewProcessor(reg, g, box.get)

	require.True(t, p.Trigger(context.Background(), reg.UserTraces(trace.KindLine)))
	box.set(Selection{Data: true, Second: true})
	close(g.release)
	p.Wait()

	assert.Equal(t, []string{"y", "y'"}, reg.Names())
}

func TestProcessorHidesAndRestoresData(t *testing.T) {
	reg := plotted(t)
	box := &selectionBox{sel: Selection{Second: true}}
	p := NewProcessor(reg, owner.Immediate{}, box.get)
	sources := reg.UserTraces(trace.KindLine)

	p.Trigger(context.Background(), sources)
	p.Wait()
	assert.Equal(t, []string{"y''"}, reg.Names())

	box.set(Selection{Data: true, First: true})
	p.Trigger(context.Background(), sources)
	p.Wait()
	assert.Equal(t, []string{"y", "y'"}, reg.Names())
}

func TestProcessorIgnoresNonUserTraces(t *testing.T) {
	reg := trace.NewRegistry()
	x, y := square()
	decoration := trace.NewLine("fit", x, y)
	decoration.User = false
	reg.Put("fit", decoration)

	p := NewProcessor(reg, owner.Immediate{}, nil)
	p.Trigger(context.Background(), reg.Traces())
	p.Wait()
	assert.Equal(t, []string{"fit"}, reg.Names())
}

func TestProcessorDiscardsCancelledRun(t *testing.T) {
	reg := plotted(t)
	g := gate{release: make(chan struct{})}
	p := NewProcessor(reg, g, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, p.Trigger(ctx, reg.UserTraces(trace.KindLine)))
	cancel()
	p.Wait()

	assert.EqualValues(t, 0, p.Commits())
	assert.Equal(t, []string{"y"}, reg.Names())
}

func TestProcessorReportsFailures(t *testing.T) {
	reg := trace.NewRegistry()
	reg.Put("short", trace.NewLine("short", nil, dataset.MustFromValues("short", []float64{1, 2})))

	var errs []error
	p := NewProcessor(reg, owner.Immediate{}, nil, WithWindow(0), WithErrorHandler(func(err error) { errs = append(errs, err) }))
	p.Trigger(context.Background(), reg.Traces())
	p.Wait()

	require.Len(t, errs, 1)
	assert.EqualValues(t, 0, p.Commits())
}

func TestProcessorListensForPlots(t *testing.T) {
	reg := trace.NewRegistry()
	p := NewProcessor(reg, owner.Immediate{}, nil, WithWindow(1))
	unsubscribe := p.Listen(context.Background())
	defer unsubscribe()

	x, y := square()
	_, err := reg.Plot1D(x, []*dataset.Array{y})
	require.NoError(t, err)
	p.Wait()

	assert.Equal(t, []string{"y", "y'"}, reg.Names())
}

func TestProcessorDerivesEveryFilteredCurve(t *testing.T) {
	reg := trace.NewRegistry()
	p := NewProcessor(reg, owner.Immediate{}, nil, WithWindow(1))
	unsubscribe := p.Listen(context.Background())
	defer unsubscribe()

	x, _ := square()
	a := dataset.MustFromValues("a", []float64{0, 1, 4, 9, 16})
	b := dataset.MustFromValues("b", []float64{16, 9, 4, 1, 0})
	d := trace.NewFilterDecorator(reg)
	d.AddFilter(MedianFilter{Window: 3})

	_, err := d.Plot1D(x, []*dataset.Array{a, b})
	require.NoError(t, err)
	p.Wait()

	assert.Equal(t, []string{"a", "b", "a'", "b'"}, reg.Names())
}
