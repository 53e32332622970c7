package reduction

import (
	"context"
	"fmt"
	"sync"

	"plotmodel/internal/models"
	"plotmodel/pkg/axis"
	"plotmodel/pkg/region"
	"plotmodel/pkg/roi"
)

// Engine binds one active reducer to a region registry. While a reducer
// that handles a single region is active, the registry refuses a second
// region of each kind the reducer supports.
type Engine struct {
	regions *region.Registry

	mu      sync.Mutex
	reducer Reducer
}

// NewEngine creates an engine over the given registry
func NewEngine(regions *region.Registry) *Engine {
	return &Engine{regions: regions}
}

// Activate makes r the active reducer
func (e *Engine) Activate(r Reducer) {
	e.mu.Lock()
	prev := e.reducer
	e.reducer = r
	e.mu.Unlock()

	if prev != nil {
		e.unlimit(prev)
	}
	if !r.SupportsMultipleRegions() {
		for _, k := range r.SupportedKinds() {
			e.regions.Limit(k, 1)
		}
	}
	log.WithField("reducer", r.Name()).Debug("reducer activated")
}

// Deactivate drops the active reducer and its region limits
func (e *Engine) Deactivate() {
	e.mu.Lock()
	prev := e.reducer
	e.reducer = nil
	e.mu.Unlock()

	if prev != nil {
		e.unlimit(prev)
	}
}

func (e *Engine) unlimit(r Reducer) {
	if r.SupportsMultipleRegions() {
		return
	}
	for _, k := range r.SupportedKinds() {
		e.regions.Unlimit(k)
	}
}

// Active returns the active reducer, if any
func (e *Engine) Active() (Reducer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reducer, e.reducer != nil
}

// CreateRegion adds a region of the reducer's first supported kind shaped
// by its InitialROI for data of the given shape
func (e *Engine) CreateRegion(name string, shape []int, order models.AxisOrder, axes axis.Pair) (*region.Region, error) {
	r, ok := e.Active()
	if !ok {
		return nil, fmt.Errorf("create region %q: no active reducer", name)
	}
	kind := r.SupportedKinds()[0]
	if name == "" {
		name = e.regions.UniqueName(kind.String())
	}
	reg, err := region.New(name, kind, axes)
	if err != nil {
		return nil, err
	}
	if initial := r.InitialROI(shape, order); initial != nil && initial.Kind() == kind {
		reg.ROI = initial
	}
	if err := e.regions.Add(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// Reduce runs the active reducer. Without one it returns NoResult.
func (e *Engine) Reduce(ctx context.Context, req Request) (*Result, error) {
	r, ok := e.Active()
	if !ok {
		return nil, nil
	}
	return r.Reduce(ctx, req)
}

// Supports reports whether the active reducer handles ROIs of kind k
func (e *Engine) Supports(k roi.Kind) bool {
	r, ok := e.Active()
	return ok && supports(r, k)
}
