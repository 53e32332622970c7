// Package geometry models detector geometry and experiment settings as
// unit-aware fields that stay consistent with the underlying detector.
package geometry

import (
	"fmt"
	"sync"

	"plotmodel/pkg/event"
)

// DetectorEventType says which part of the detector changed
type DetectorEventType int

const (
	BeamCentreChanged DetectorEventType = iota
	NormalChanged
	DistanceChanged
	PixelSizeChanged
)

func (t DetectorEventType) String() string {
	switch t {
	case BeamCentreChanged:
		return "beam-centre"
	case NormalChanged:
		return "normal"
	case DistanceChanged:
		return "distance"
	case PixelSizeChanged:
		return "pixel-size"
	}
	return fmt.Sprintf("DetectorEventType(%d)", int(t))
}

// DetectorEvent is published after a detector property changes
type DetectorEvent struct {
	Type     DetectorEventType
	Detector *Detector
}

// Orientation is the detector normal as yaw, pitch and roll in degrees
type Orientation struct {
	Yaw, Pitch, Roll float64
}

// Detector is the geometry of an area detector. Lengths are in millimetres
// and the beam centre is in pixels.
type Detector struct {
	mu sync.RWMutex

	width, height int

	pixelX, pixelY float64
	beamX, beamY   float64
	distance       float64
	orientation    Orientation

	bus event.Bus[DetectorEvent]
}

// NewDetector creates a detector of width×height pixels with the beam at
// the centre and the normal along the beam
func NewDetector(width, height int, pixelSize, distance float64) *Detector {
	return &Detector{
		width:    width,
		height:   height,
		pixelX:   pixelSize,
		pixelY:   pixelSize,
		beamX:    float64(width) / 2,
		beamY:    float64(height) / 2,
		distance: distance,
	}
}

// Subscribe registers a listener for property changes
func (d *Detector) Subscribe(fn func(DetectorEvent)) (unsubscribe func()) {
	return d.bus.Subscribe(fn)
}

func (d *Detector) publish(t DetectorEventType) {
	d.bus.Publish(DetectorEvent{Type: t, Detector: d})
}

// Size returns the detector shape in pixels
func (d *Detector) Size() (width, height int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.width, d.height
}

// PixelSize returns the horizontal and vertical pixel sizes in mm
func (d *Detector) PixelSize() (float64, float64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pixelX, d.pixelY
}

// SetPixelSize updates both pixel sizes. The beam centre stays on the same
// pixel.
func (d *Detector) SetPixelSize(x, y float64) error {
	if x <= 0 || y <= 0 {
		return fmt.Errorf("pixel size must be positive, got %g×%g", x, y)
	}
	d.mu.Lock()
	changed := d.pixelX != x || d.pixelY != y
	d.pixelX, d.pixelY = x, y
	d.mu.Unlock()
	if changed {
		d.publish(PixelSizeChanged)
	}
	return nil
}

// BeamCentre returns the beam centre in pixels
func (d *Detector) BeamCentre() (float64, float64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.beamX, d.beamY
}

// BeamCentreMM returns the beam centre in millimetres
func (d *Detector) BeamCentreMM() (float64, float64) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.beamX * d.pixelX, d.beamY * d.pixelY
}

// SetBeamCentre moves the beam centre, in pixels
func (d *Detector) SetBeamCentre(x, y float64) {
	d.mu.Lock()
	changed := d.beamX != x || d.beamY != y
	d.beamX, d.beamY = x, y
	d.mu.Unlock()
	if changed {
		d.publish(BeamCentreChanged)
	}
}

// Distance returns the sample to detector distance in mm
func (d *Detector) Distance() float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.distance
}

// SetDistance updates the sample to detector distance in mm
func (d *Detector) SetDistance(mm float64) error {
	if mm < 0 {
		return fmt.Errorf("distance must not be negative, got %g", mm)
	}
	d.mu.Lock()
	changed := d.distance != mm
	d.distance = mm
	d.mu.Unlock()
	if changed {
		d.publish(DistanceChanged)
	}
	return nil
}

// NormalAngles returns the orientation in degrees
func (d *Detector) NormalAngles() Orientation {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.orientation
}

// SetNormalAnglesInDegrees replaces all three angles in one step, so no
// listener ever sees a partly updated orientation
func (d *Detector) SetNormalAnglesInDegrees(yaw, pitch, roll float64) {
	o := Orientation{Yaw: yaw, Pitch: pitch, Roll: roll}
	d.mu.Lock()
	changed := d.orientation != o
	d.orientation = o
	d.mu.Unlock()
	if changed {
		d.publish(NormalChanged)
	}
}

// Environment holds the beam and exposure settings of an experiment
type Environment struct {
	mu sync.RWMutex

	// wavelength in Å
	wavelength float64
	// exposure in seconds
	exposure float64
	// oscillation start and range in degrees
	phiStart, phiRange float64

	bus event.Bus[*Environment]
}

// NewEnvironment creates an environment at the given wavelength in Å
func NewEnvironment(wavelength float64) *Environment {
	return &Environment{wavelength: wavelength}
}

// Subscribe registers a listener called after any change
func (e *Environment) Subscribe(fn func(*Environment)) (unsubscribe func()) {
	return e.bus.Subscribe(fn)
}

// Wavelength returns the wavelength in Å
func (e *Environment) Wavelength() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.wavelength
}

// SetWavelength updates the wavelength in Å
func (e *Environment) SetWavelength(a float64) error {
	if a <= 0 {
		return fmt.Errorf("wavelength must be positive, got %g", a)
	}
	e.set(func() bool {
		changed := e.wavelength != a
		e.wavelength = a
		return changed
	})
	return nil
}

// Exposure returns the exposure time in seconds
func (e *Environment) Exposure() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.exposure
}

// SetExposure updates the exposure time in seconds
func (e *Environment) SetExposure(s float64) {
	e.set(func() bool {
		changed := e.exposure != s
		e.exposure = s
		return changed
	})
}

// Oscillation returns the start and range in degrees
func (e *Environment) Oscillation() (start, span float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.phiStart, e.phiRange
}

// SetOscillation updates the oscillation start and range in degrees
func (e *Environment) SetOscillation(start, span float64) {
	e.set(func() bool {
		changed := e.phiStart != start || e.phiRange != span
		e.phiStart, e.phiRange = start, span
		return changed
	})
}

func (e *Environment) set(apply func() bool) {
	e.mu.Lock()
	changed := apply()
	e.mu.Unlock()
	if changed {
		e.bus.Publish(e)
	}
}
