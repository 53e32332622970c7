// Package region keeps the named regions of interest drawn over a plot and
// notifies listeners when they are added, removed or reshaped.
package region

import (
	"errors"
	"fmt"

	"plotmodel/pkg/axis"
	"plotmodel/pkg/roi"
)

var (
	// ErrNotFound is returned by operations that need an existing region
	ErrNotFound = errors.New("region not found")

	// ErrDuplicateName is wrapped by DuplicateNameError
	ErrDuplicateName = errors.New("region name already in use")

	// ErrRegionLimit is returned when a kind has reached its active limit
	ErrRegionLimit = errors.New("region limit reached")

	// ErrKindMismatch is returned when a shape does not match the region kind
	ErrKindMismatch = errors.New("roi kind does not match region")
)

// DuplicateNameError reports a name collision on create, add or rename
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("region %q already exists", e.Name)
}

func (e *DuplicateNameError) Unwrap() error { return ErrDuplicateName }

// Region is a named shape drawn against an axis pair
type Region struct {
	Name string
	Kind roi.Kind
	ROI  roi.ROI

	Visible bool

	// User marks regions the user drew, as opposed to tool decorations
	User bool

	// Axes is a back-reference; the region does not own the axes
	Axes axis.Pair
}

// New creates a visible user region holding the zero shape of its kind
func New(name string, kind roi.Kind, axes axis.Pair) (*Region, error) {
	shape, err := roi.Zero(kind)
	if err != nil {
		return nil, err
	}
	return &Region{Name: name, Kind: kind, ROI: shape, Visible: true, User: true, Axes: axes}, nil
}

func (r *Region) String() string {
	return fmt.Sprintf("%s(%s)", r.Name, r.Kind)
}
