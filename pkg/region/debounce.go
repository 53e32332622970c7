package region

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of geometry events into one call per region
// per quiet period. Only the latest event of each region's burst is
// delivered.
type Debouncer struct {
	delay time.Duration
	fn    func(Event)

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
}

type pendingEvent struct {
	event Event
	timer *time.Timer
	gen   int
}

// NewDebouncer calls fn with the last event of a region once delay passes
// without a new one for that region
func NewDebouncer(delay time.Duration, fn func(Event)) *Debouncer {
	return &Debouncer{delay: delay, fn: fn, pending: make(map[string]*pendingEvent)}
}

// Handle is a registry listener; non-geometry events pass straight through
func (d *Debouncer) Handle(e Event) {
	if e.Type != GeometryChanged {
		d.fn(e)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	p, ok := d.pending[e.Name]
	if !ok {
		p = &pendingEvent{}
		d.pending[e.Name] = p
	} else if p.timer != nil {
		p.timer.Stop()
	}
	p.event = e
	p.gen++
	name, gen := e.Name, p.gen
	p.timer = time.AfterFunc(d.delay, func() { d.fire(name, gen) })
}

func (d *Debouncer) fire(name string, gen int) {
	d.mu.Lock()
	p, ok := d.pending[name]
	if d.stopped || !ok || gen != p.gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, name)
	d.mu.Unlock()
	d.fn(p.event)
}

// Stop drops every pending event
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for name, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, name)
	}
}
