package trace

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	"plotmodel/internal/logging"
	"plotmodel/pkg/event"
)

var (
	// ErrNotFound is returned by operations that need an existing trace
	ErrNotFound = errors.New("trace not found")

	// ErrDuplicateName is returned when a name is already taken
	ErrDuplicateName = errors.New("trace name already in use")
)

var log = logging.For("trace")

// EventType classifies registry events
type EventType int

const (
	Added EventType = iota
	Removed
	Updated
	Cleared

	// Plotted follows a batch of traces created or updated together
	Plotted
)

func (e EventType) String() string {
	switch e {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Updated:
		return "updated"
	case Cleared:
		return "cleared"
	case Plotted:
		return "plotted"
	}
	return fmt.Sprintf("EventType(%d)", int(e))
}

// Event describes one registry mutation
type Event struct {
	Type EventType

	// Name is the trace affected; empty for Cleared and Plotted
	Name string

	// OldName is set when an Updated event comes from a rename
	OldName string

	Trace *Trace

	// Traces holds the batch for Plotted events
	Traces []*Trace
}

// Registry is an ordered name to trace map. Iteration order is insertion
// order and defines the default draw order.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	traces map[string]*Trace
	bus    event.Bus[Event]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{traces: make(map[string]*Trace)}
}

// Subscribe registers a listener for registry events
func (r *Registry) Subscribe(fn func(Event)) (unsubscribe func()) {
	return r.bus.Subscribe(fn)
}

// Put inserts t under name, or replaces the trace already there. A replaced
// trace keeps its position.
func (r *Registry) Put(name string, t *Trace) {
	r.mu.Lock()
	t.Name = name
	_, exists := r.traces[name]
	r.traces[name] = t
	if !exists {
		r.order = append(r.order, name)
	}
	r.mu.Unlock()

	typ := Added
	if exists {
		typ = Updated
	}
	log.WithField("trace", name).Debugf("trace %s", typ)
	r.bus.Publish(Event{Type: typ, Name: name, Trace: t})
}

// Remove deletes the named trace. Removing a missing trace does nothing.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	t, ok := r.traces[name]
	if ok {
		delete(r.traces, name)
		if i := slices.Index(r.order, name); i >= 0 {
			r.order = slices.Delete(r.order, i, i+1)
		}
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	r.bus.Publish(Event{Type: Removed, Name: name, Trace: t})
}

// Get returns the named trace
func (r *Registry) Get(name string) (*Trace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.traces[name]
	return t, ok
}

// Rename moves a trace to a new name. The trace keeps its identity and
// moves to the end of the order.
func (r *Registry) Rename(oldName, newName string) error {
	if oldName == newName {
		if _, ok := r.Get(oldName); !ok {
			return fmt.Errorf("rename %q: %w", oldName, ErrNotFound)
		}
		return nil
	}

	r.mu.Lock()
	t, ok := r.traces[oldName]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("rename %q: %w", oldName, ErrNotFound)
	}
	if _, taken := r.traces[newName]; taken {
		r.mu.Unlock()
		return fmt.Errorf("rename %q to %q: %w", oldName, newName, ErrDuplicateName)
	}
	delete(r.traces, oldName)
	if i := slices.Index(r.order, oldName); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	t.Name = newName
	r.traces[newName] = t
	r.order = append(r.order, newName)
	r.mu.Unlock()

	r.bus.Publish(Event{Type: Updated, Name: newName, OldName: oldName, Trace: t})
	return nil
}

// Clear removes every trace and publishes a single Cleared event
func (r *Registry) Clear() {
	r.mu.Lock()
	n := len(r.order)
	r.order = nil
	r.traces = make(map[string]*Trace)
	r.mu.Unlock()

	log.WithField("count", n).Debug("traces cleared")
	r.bus.Publish(Event{Type: Cleared})
}

// Traces returns a snapshot of the traces in order
func (r *Registry) Traces() []*Trace {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Trace, len(r.order))
	for i, name := range r.order {
		out[i] = r.traces[name]
	}
	return out
}

// Names returns a snapshot of the trace names in order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of traces
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// IndexOf returns the position of the named trace, or -1
func (r *Registry) IndexOf(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Index(r.order, name)
}

// UserTraces returns the user traces of the given kind, in order
func (r *Registry) UserTraces(kind Kind) []*Trace {
	var out []*Trace
	for _, t := range r.Traces() {
		if t.User && t.Kind() == kind {
			out = append(out, t)
		}
	}
	return out
}

func (r *Registry) publish(e Event) {
	r.bus.Publish(e)
}
