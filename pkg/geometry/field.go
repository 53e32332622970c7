package geometry

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"plotmodel/pkg/event"
	"plotmodel/pkg/units"
)

// State is the lifecycle of a field's value
type State int

const (
	Uninitialized State = iota
	HasDefault
	HasValue
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case HasDefault:
		return "has-default"
	case HasValue:
		return "has-value"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	// ErrOutOfBounds is returned when a value falls outside the field's range
	ErrOutOfBounds = errors.New("value out of bounds")

	// ErrUnitNotAllowed is returned for units the field does not offer
	ErrUnitNotAllowed = errors.New("unit not allowed for field")

	// ErrReadOnly is returned when editing a computed field
	ErrReadOnly = errors.New("field is read-only")
)

// Format controls how a field is edited and shown in one unit
type Format struct {
	Increment float64
	Decimals  int
	Lower     float64
	Upper     float64
}

// DefaultFormat is used for units without their own format
var DefaultFormat = Format{Increment: 0.01, Decimals: 2, Lower: math.Inf(-1), Upper: math.Inf(1)}

// FieldEvent is published to amount and unit listeners
type FieldEvent struct {
	Field *Field
	Old   units.Amount
	New   units.Amount
}

// Refresher is told when a field changed without a full event, so that a
// view can redraw it
type Refresher interface {
	Refresh(f *Field)
}

// RefreshFunc adapts a function to Refresher
type RefreshFunc func(f *Field)

func (fn RefreshFunc) Refresh(f *Field) { fn(f) }

// Field is a unit-aware numeric value with original, default and current
// values. Values are stored in the base unit of the field's dimension.
//
// SetValue notifies amount listeners, and unit listeners when the unit
// changes. SetValueQuiet only updates the value and calls the Refresher;
// it is the entry point for reacting to changes of the underlying model,
// so that those reactions never loop back through the listeners.
type Field struct {
	label string

	mu        sync.RWMutex
	state     State
	original  float64
	def       float64
	current   float64
	unit      *units.Unit
	allowed   []*units.Unit
	formats   map[string]Format
	editable  bool
	refresher Refresher

	amountBus event.Bus[FieldEvent]
	unitBus   event.Bus[FieldEvent]
}

// NewField creates an uninitialized editable field. The first allowed unit
// is the initial display unit.
func NewField(label string, allowed ...*units.Unit) *Field {
	if len(allowed) == 0 {
		allowed = []*units.Unit{units.One}
	}
	return &Field{
		label:    label,
		unit:     allowed[0],
		allowed:  append([]*units.Unit(nil), allowed...),
		formats:  make(map[string]Format),
		editable: true,
	}
}

// Label returns the field's path label
func (f *Field) Label() string { return f.label }

// State returns the lifecycle state
func (f *Field) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// SetFormat assigns the format used while the unit with this symbol is shown
func (f *Field) SetFormat(symbol string, format Format) {
	f.mu.Lock()
	f.formats[symbol] = format
	f.mu.Unlock()
}

// Format returns the format for the current unit
func (f *Field) Format() Format {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.formatLocked(f.unit)
}

func (f *Field) formatLocked(u *units.Unit) Format {
	if fm, ok := f.formats[u.Symbol()]; ok {
		return fm
	}
	return DefaultFormat
}

// SetEditable marks the field as user editable or computed
func (f *Field) SetEditable(editable bool) {
	f.mu.Lock()
	f.editable = editable
	f.mu.Unlock()
}

// Editable reports whether SetValue is accepted
func (f *Field) Editable() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.editable
}

// SetRefresher installs the view refresher
func (f *Field) SetRefresher(r Refresher) {
	f.mu.Lock()
	f.refresher = r
	f.mu.Unlock()
}

// OnAmount registers a value-changed listener
func (f *Field) OnAmount(fn func(FieldEvent)) (unsubscribe func()) {
	return f.amountBus.Subscribe(fn)
}

// OnUnit registers a unit-changed listener
func (f *Field) OnUnit(fn func(FieldEvent)) (unsubscribe func()) {
	return f.unitBus.Subscribe(fn)
}

// Unit returns the display unit
func (f *Field) Unit() *units.Unit {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.unit
}

// Units returns the units the field can be shown in
func (f *Field) Units() []*units.Unit {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]*units.Unit(nil), f.allowed...)
}

func (f *Field) allowedLocked(u *units.Unit) (*units.Unit, bool) {
	for _, a := range f.allowed {
		if a.Equal(u) {
			return a, true
		}
	}
	return nil, false
}

func (f *Field) amountLocked(base float64) units.Amount {
	return units.Of(f.unit.FromBase(base), f.unit)
}

// Value returns the current amount in the display unit. It reports false
// while the field is uninitialized.
func (f *Field) Value() (units.Amount, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.state == Uninitialized {
		return units.Amount{Unit: f.unit}, false
	}
	return f.amountLocked(f.current), true
}

// ValueIn returns the current value converted to u
func (f *Field) ValueIn(u *units.Unit) (float64, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.state == Uninitialized || !f.unit.Compatible(u) {
		return 0, false
	}
	return u.FromBase(f.current), true
}

// Default returns the reset target
func (f *Field) Default() (units.Amount, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.state == Uninitialized {
		return units.Amount{Unit: f.unit}, false
	}
	return f.amountLocked(f.def), true
}

// Original returns the value the field was first initialized with
func (f *Field) Original() (units.Amount, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.state == Uninitialized {
		return units.Amount{Unit: f.unit}, false
	}
	return f.amountLocked(f.original), true
}

// SetDefault sets the reset target without notifying anyone. The first
// default also becomes the original value.
func (f *Field) SetDefault(a units.Amount) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.unit.Compatible(a.Unit) {
		return fmt.Errorf("%s default: %w", f.label, units.ErrIncompatible)
	}
	base := a.Unit.ToBase(a.Value)
	if f.state == Uninitialized {
		f.original = base
		f.current = base
		f.state = HasDefault
	} else if f.state == HasDefault {
		f.current = base
	}
	f.def = base
	return nil
}

// SetValue stores a and notifies amount listeners. When a carries a
// different allowed unit the display unit switches too and unit listeners
// are notified after the amount listeners.
func (f *Field) SetValue(a units.Amount) error {
	f.mu.Lock()
	if !f.editable {
		f.mu.Unlock()
		return fmt.Errorf("%s: %w", f.label, ErrReadOnly)
	}
	unit, ok := f.allowedLocked(a.Unit)
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("%s in %s: %w", f.label, a.Unit, ErrUnitNotAllowed)
	}
	fm := f.formatLocked(unit)
	if a.Value < fm.Lower || a.Value > fm.Upper {
		f.mu.Unlock()
		return fmt.Errorf("%s = %v outside [%g, %g]: %w", f.label, a, fm.Lower, fm.Upper, ErrOutOfBounds)
	}

	old := f.amountLocked(f.current)
	oldState := f.state
	base := unit.ToBase(a.Value)
	valueChanged := base != f.current || oldState != HasValue
	unitChanged := !unit.Equal(f.unit)

	f.current = base
	f.state = HasValue
	f.unit = unit
	now := f.amountLocked(base)
	f.mu.Unlock()

	if valueChanged {
		f.amountBus.Publish(FieldEvent{Field: f, Old: old, New: now})
	}
	if unitChanged {
		f.unitBus.Publish(FieldEvent{Field: f, Old: old, New: now})
	}
	return nil
}

// SetValueQuiet stores a and signals the refresher only. Amount and unit
// listeners are not called. The display unit is left unchanged.
func (f *Field) SetValueQuiet(a units.Amount) error {
	f.mu.Lock()
	if !f.unit.Compatible(a.Unit) {
		f.mu.Unlock()
		return fmt.Errorf("%s quiet set: %w", f.label, units.ErrIncompatible)
	}
	f.current = a.Unit.ToBase(a.Value)
	if f.state == Uninitialized {
		f.original = f.current
		f.def = f.current
	}
	f.state = HasValue
	r := f.refresher
	f.mu.Unlock()

	if r != nil {
		r.Refresh(f)
	}
	return nil
}

// SetUnit changes the display unit. The physical value is unchanged.
func (f *Field) SetUnit(u *units.Unit) error {
	f.mu.Lock()
	unit, ok := f.allowedLocked(u)
	if !ok {
		f.mu.Unlock()
		return fmt.Errorf("%s in %s: %w", f.label, u, ErrUnitNotAllowed)
	}
	if unit.Equal(f.unit) {
		f.mu.Unlock()
		return nil
	}
	old := f.amountLocked(f.current)
	f.unit = unit
	now := f.amountLocked(f.current)
	f.mu.Unlock()

	f.unitBus.Publish(FieldEvent{Field: f, Old: old, New: now})
	return nil
}

// ReplaceUnit swaps the allowed unit sharing u's symbol for u. It is how a
// pixel unit follows pixel size changes. If the field is shown in that
// unit the view is refreshed, since the displayed number changes.
func (f *Field) ReplaceUnit(u *units.Unit) {
	f.mu.Lock()
	shown := false
	for i, a := range f.allowed {
		if a.Symbol() == u.Symbol() && a.Dimension() == u.Dimension() {
			f.allowed[i] = u
			if f.unit == a {
				f.unit = u
				shown = true
			}
		}
	}
	r := f.refresher
	f.mu.Unlock()

	if shown && r != nil {
		r.Refresh(f)
	}
}

// Reset returns the value to the default and notifies amount listeners
func (f *Field) Reset() {
	f.mu.Lock()
	if f.state == Uninitialized {
		f.mu.Unlock()
		return
	}
	old := f.amountLocked(f.current)
	changed := f.current != f.def
	f.current = f.def
	f.state = HasDefault
	now := f.amountLocked(f.current)
	f.mu.Unlock()

	if changed {
		f.amountBus.Publish(FieldEvent{Field: f, Old: old, New: now})
	}
}

// Round returns v rounded to the decimals of the current format
func (f *Field) Round(v float64) float64 {
	d := f.Format().Decimals
	p := math.Pow(10, float64(d))
	return math.Round(v*p) / p
}

func (f *Field) String() string {
	a, ok := f.Value()
	if !ok {
		return f.label + " = -"
	}
	return fmt.Sprintf("%s = %.*f %s", f.label, f.Format().Decimals, a.Value, a.Unit)
}

// resetQuiet returns the value to the default and signals the refresher
// only. It reports whether the value changed.
func (f *Field) resetQuiet() bool {
	f.mu.Lock()
	if f.state == Uninitialized {
		f.mu.Unlock()
		return false
	}
	changed := f.current != f.def
	f.current = f.def
	f.state = HasDefault
	r := f.refresher
	f.mu.Unlock()

	if changed && r != nil {
		r.Refresh(f)
	}
	return changed
}
