package processing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"plotmodel/internal/logging"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/owner"
	"plotmodel/pkg/trace"
)

var log = logging.For("processing")

// State of a Processor
type State int32

const (
	Idle State = iota
	Computing
)

func (s State) String() string {
	if s == Computing {
		return "computing"
	}
	return "idle"
}

// Selection says which curves a processor shows: the source data, the
// first derivative and the second derivative
type Selection struct {
	Data, First, Second bool
}

// SelectionFunc reads the live selection. It is called once per trigger,
// on the triggering goroutine.
type SelectionFunc func() Selection

// Processor keeps first and second derivative traces in step with the user
// line traces of a registry. At most one computation runs at a time;
// triggers that arrive meanwhile are dropped, not queued.
type Processor struct {
	traces    *trace.Registry
	owner     owner.Executor
	selection SelectionFunc
	window    int
	notify    func(error)

	state   atomic.Int32
	commits atomic.Int64
	wg      sync.WaitGroup

	// derived and hidden are only touched on the owner context
	derived []string
	hidden  []*trace.Trace
}

// Option configures a Processor
type Option func(*Processor)

// WithWindow sets the derivative window; the default is 1
func WithWindow(n int) Option {
	return func(p *Processor) { p.window = n }
}

// WithErrorHandler receives computation failures
func WithErrorHandler(fn func(error)) Option {
	return func(p *Processor) { p.notify = fn }
}

// NewProcessor creates an idle processor. A nil selection shows the data
// and the first derivative.
func NewProcessor(traces *trace.Registry, exec owner.Executor, selection SelectionFunc, opts ...Option) *Processor {
	if selection == nil {
		selection = func() Selection { return Selection{Data: true, First: true} }
	}
	p := &Processor{traces: traces, owner: exec, selection: selection, window: 1, notify: func(error) {}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state
func (p *Processor) State() State {
	return State(p.state.Load())
}

// Commits returns how many computations reached the registry
func (p *Processor) Commits() int64 {
	return p.commits.Load()
}

// Listen triggers the processor for every batch of traces plotted on the
// registry
func (p *Processor) Listen(ctx context.Context) (unsubscribe func()) {
	return p.traces.Subscribe(func(e trace.Event) {
		if e.Type == trace.Plotted {
			p.Trigger(ctx, e.Traces)
		}
	})
}

// Trigger starts a computation over the user line traces in traces. It
// returns false when one is already running. The selection is read now,
// not when the computation completes.
func (p *Processor) Trigger(ctx context.Context, traces []*trace.Trace) bool {
	if !p.state.CompareAndSwap(int32(Idle), int32(Computing)) {
		log.Debug("trigger coalesced")
		return false
	}
	sel := p.selection()

	var sources []*trace.Trace
	for _, t := range traces {
		if t != nil && t.User && t.Kind() == trace.KindLine {
			sources = append(sources, t)
		}
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.state.Store(int32(Idle))
		p.run(ctx, sources, sel)
	}()
	return true
}

// Wait blocks until the running computation, if any, has finished
func (p *Processor) Wait() {
	p.wg.Wait()
}

type derivedPair struct {
	source        *trace.Trace
	first, second *dataset.Array
}

func (p *Processor) run(ctx context.Context, sources []*trace.Trace, sel Selection) {
	logger := log.WithFields(logrus.Fields{"traces": len(sources), "window": p.window})

	pairs := make([]derivedPair, 0, len(sources))
	for _, t := range sources {
		if ctx.Err() != nil {
			return
		}
		d, err := p.derive(t)
		if err != nil {
			logger.WithError(err).Warn("derivative failed")
			p.notify(err)
			return
		}
		pairs = append(pairs, d)
	}
	if ctx.Err() != nil {
		return
	}

	err := p.owner.Exec(ctx, func() {
		if ctx.Err() != nil {
			return
		}
		p.commit(pairs, sel)
		p.commits.Add(1)
	})
	if err != nil {
		if ctx.Err() == nil {
			logger.WithError(err).Warn("commit refused")
			p.notify(err)
		}
		return
	}
	logger.Debug("derivatives updated")
}

func (p *Processor) derive(t *trace.Trace) (d derivedPair, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("derivative of %q: panic: %v", t.Name, r)
		}
	}()
	line, _ := t.Line()
	x := line.X
	if x == nil {
		x = dataset.Arange("Indices", line.Y.Size())
	}
	first, err := Derivative(x, line.Y.Rename(t.Name), p.window)
	if err != nil {
		return d, err
	}
	second, err := Derivative(x, first, p.window)
	if err != nil {
		return d, err
	}
	return derivedPair{source: t, first: first, second: second}, nil
}

// commit runs on the owner context
func (p *Processor) commit(pairs []derivedPair, sel Selection) {
	for _, name := range p.derived {
		p.traces.Remove(name)
	}
	p.derived = p.derived[:0]

	// sources hidden by an earlier commit come back when data is selected
	if sel.Data {
		for _, t := range p.hidden {
			if _, ok := p.traces.Get(t.Name); !ok {
				p.traces.Put(t.Name, t)
			}
		}
		p.hidden = nil
	}

	for _, d := range pairs {
		x := d.source.Data.(trace.LineData).X
		if !sel.Data {
			if _, ok := p.traces.Get(d.source.Name); ok {
				p.traces.Remove(d.source.Name)
				p.hidden = append(p.hidden, d.source)
			}
		}
		if sel.First {
			p.put(d.first, x)
		}
		if sel.Second {
			p.put(d.second, x)
		}
	}
}

func (p *Processor) put(y, x *dataset.Array) {
	if x == nil {
		x = dataset.Arange("Indices", y.Size())
	}
	t := trace.NewLine(y.Name(), x, y)
	t.Color = trace.PaletteColor(p.traces.Len())
	p.traces.Put(y.Name(), t)
	p.derived = append(p.derived, y.Name())
}
