package region

import (
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	"plotmodel/internal/logging"
	"plotmodel/pkg/axis"
	"plotmodel/pkg/event"
	"plotmodel/pkg/roi"
)

var log = logging.For("region")

// EventType classifies registry events
type EventType int

const (
	Added EventType = iota
	Removed
	GeometryChanged

	// Updated covers renames and visibility changes
	Updated
	Cleared
)

func (e EventType) String() string {
	switch e {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case GeometryChanged:
		return "geometry-changed"
	case Updated:
		return "updated"
	case Cleared:
		return "cleared"
	}
	return fmt.Sprintf("EventType(%d)", int(e))
}

// Event describes one registry mutation
type Event struct {
	Type    EventType
	Name    string
	OldName string
	Region  *Region

	// ROI is the new shape for GeometryChanged events
	ROI roi.ROI
}

// Registry holds regions by unique name in creation order
type Registry struct {
	mu      sync.RWMutex
	order   []string
	regions map[string]*Region
	limits  map[roi.Kind]int
	bus     event.Bus[Event]
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{regions: make(map[string]*Region), limits: make(map[roi.Kind]int)}
}

// Subscribe registers a listener for registry events
func (r *Registry) Subscribe(fn func(Event)) (unsubscribe func()) {
	return r.bus.Subscribe(fn)
}

// Create makes a new region of the given kind
func (r *Registry) Create(name string, kind roi.Kind, axes axis.Pair) (*Region, error) {
	reg, err := New(name, kind, axes)
	if err != nil {
		return nil, err
	}
	if err := r.Add(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Add registers an existing region
func (r *Registry) Add(reg *Region) error {
	if reg.ROI != nil && reg.ROI.Kind() != reg.Kind {
		return fmt.Errorf("add %q: %w", reg.Name, ErrKindMismatch)
	}

	r.mu.Lock()
	if _, taken := r.regions[reg.Name]; taken {
		r.mu.Unlock()
		return &DuplicateNameError{Name: reg.Name}
	}
	if limit, ok := r.limits[reg.Kind]; ok && r.countLocked(reg.Kind) >= limit {
		r.mu.Unlock()
		return fmt.Errorf("add %q: %d %s region(s) allowed: %w", reg.Name, limit, reg.Kind, ErrRegionLimit)
	}
	r.regions[reg.Name] = reg
	r.order = append(r.order, reg.Name)
	r.mu.Unlock()

	log.WithField("region", reg.Name).Debug("region added")
	r.bus.Publish(Event{Type: Added, Name: reg.Name, Region: reg})
	return nil
}

func (r *Registry) countLocked(kind roi.Kind) int {
	n := 0
	for _, reg := range r.regions {
		if reg.Kind == kind {
			n++
		}
	}
	return n
}

// Remove deletes the named region; a missing name does nothing
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	reg, ok := r.regions[name]
	if ok {
		delete(r.regions, name)
		if i := slices.Index(r.order, name); i >= 0 {
			r.order = slices.Delete(r.order, i, i+1)
		}
	}
	r.mu.Unlock()

	if ok {
		r.bus.Publish(Event{Type: Removed, Name: name, Region: reg})
	}
}

// Get returns the named region
func (r *Registry) Get(name string) (*Region, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regions[name]
	return reg, ok
}

// Rename changes a region's key. The region keeps its identity and moves
// to the end of the order.
func (r *Registry) Rename(oldName, newName string) error {
	r.mu.Lock()
	reg, ok := r.regions[oldName]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("rename %q: %w", oldName, ErrNotFound)
	}
	if oldName == newName {
		r.mu.Unlock()
		return nil
	}
	if _, taken := r.regions[newName]; taken {
		r.mu.Unlock()
		return &DuplicateNameError{Name: newName}
	}
	delete(r.regions, oldName)
	if i := slices.Index(r.order, oldName); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	reg.Name = newName
	r.regions[newName] = reg
	r.order = append(r.order, newName)
	r.mu.Unlock()

	r.bus.Publish(Event{Type: Updated, Name: newName, OldName: oldName, Region: reg})
	return nil
}

// SetROI replaces the shape of a region and publishes GeometryChanged
func (r *Registry) SetROI(name string, shape roi.ROI) error {
	r.mu.Lock()
	reg, ok := r.regions[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("set roi on %q: %w", name, ErrNotFound)
	}
	if shape.Kind() != reg.Kind {
		r.mu.Unlock()
		return fmt.Errorf("set %s roi on %s region %q: %w", shape.Kind(), reg.Kind, name, ErrKindMismatch)
	}
	reg.ROI = shape
	r.mu.Unlock()

	r.bus.Publish(Event{Type: GeometryChanged, Name: name, Region: reg, ROI: shape})
	return nil
}

// SetVisible shows or hides a region
func (r *Registry) SetVisible(name string, visible bool) error {
	r.mu.Lock()
	reg, ok := r.regions[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("set visible on %q: %w", name, ErrNotFound)
	}
	changed := reg.Visible != visible
	reg.Visible = visible
	r.mu.Unlock()

	if changed {
		r.bus.Publish(Event{Type: Updated, Name: name, Region: reg})
	}
	return nil
}

// Clear removes all regions with a single Cleared event
func (r *Registry) Clear() {
	r.mu.Lock()
	r.order = nil
	r.regions = make(map[string]*Region)
	r.mu.Unlock()

	r.bus.Publish(Event{Type: Cleared})
}

// Regions returns a snapshot of the regions in order
func (r *Registry) Regions() []*Region {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Region, len(r.order))
	for i, name := range r.order {
		out[i] = r.regions[name]
	}
	return out
}

// OfKind returns the regions of one kind, in order
func (r *Registry) OfKind(kind roi.Kind) []*Region {
	var out []*Region
	for _, reg := range r.Regions() {
		if reg.Kind == kind {
			out = append(out, reg)
		}
	}
	return out
}

// Names returns a snapshot of region names in order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of regions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Limit caps the number of regions of a kind. Regions already present
// beyond the limit are kept; only new ones are rejected.
func (r *Registry) Limit(kind roi.Kind, n int) {
	r.mu.Lock()
	r.limits[kind] = n
	r.mu.Unlock()
}

// Unlimit removes the cap for a kind
func (r *Registry) Unlimit(kind roi.Kind) {
	r.mu.Lock()
	delete(r.limits, kind)
	r.mu.Unlock()
}

// UniqueName returns the first free name of the form "prefix N"
func (r *Registry) UniqueName(prefix string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s %d", prefix, i)
		if _, taken := r.regions[name]; !taken {
			return name
		}
	}
}
