package geometry

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"plotmodel/internal/logging"
	"plotmodel/pkg/dataset"
	"plotmodel/pkg/units"
)

// Label paths of the model's fields
const (
	PathWavelength       = "/Experimental Information/Wavelength"
	PathExposure         = "/Experimental Information/Exposure Time"
	PathOscillationStart = "/Experimental Information/Oscillation/Start"
	PathOscillationStop  = "/Experimental Information/Oscillation/Stop"
	PathOscillationRange = "/Experimental Information/Oscillation/Range"
	PathDistance         = "/Experimental Information/Detector/Distance"
	PathBeamCentreX      = "/Experimental Information/Detector/Beam Centre/X"
	PathBeamCentreY      = "/Experimental Information/Detector/Beam Centre/Y"
	PathYaw              = "/Experimental Information/Detector/Orientation/Yaw"
	PathPitch            = "/Experimental Information/Detector/Orientation/Pitch"
	PathRoll             = "/Experimental Information/Detector/Orientation/Roll"
	PathPixelSizeX       = "/Experimental Information/Detector/Pixel/X Size"
	PathPixelSizeY       = "/Experimental Information/Detector/Pixel/Y Size"
	PathIntensityMax     = "/Intensity/Max"
	PathIntensityMin     = "/Intensity/Min"
	PathIntensityMean    = "/Intensity/Mean"
)

var (
	millimetreFormat = Format{Increment: 0.01, Decimals: 2, Lower: 0, Upper: 1000}
	pixelFormat      = Format{Increment: 1, Decimals: 0, Lower: 0, Upper: 100000}
)

// Model exposes a detector and its environment as labelled fields. Field
// edits are written back to the detector; detector changes come back
// through the quiet setters.
type Model struct {
	det *Detector
	env *Environment
	log *logrus.Entry

	fields []*Field
	byPath map[string]*Field

	BeamX, BeamY      *Field
	Distance          *Field
	PixelX, PixelY    *Field
	Yaw, Pitch, Roll  *Field
	Wavelength        *Field
	Exposure          *Field
	OscStart, OscStop *Field
	OscRange          *Field
	IntensityMax      *Field
	IntensityMin      *Field
	IntensityMean     *Field

	mu      sync.Mutex
	pixelUX *units.Unit
	pixelUY *units.Unit
	detach  []func()
}

// NewModel builds the fields from the current state of det and env. The
// model does not follow detector changes until Activate is called.
func NewModel(det *Detector, env *Environment) *Model {
	m := &Model{det: det, env: env, byPath: make(map[string]*Field), log: logging.For("geometry")}
	px, py := det.PixelSize()
	m.pixelUX, m.pixelUY = units.Pixel(px), units.Pixel(py)

	m.Wavelength = m.add(PathWavelength, units.Angstrom, units.ElectronVolt, units.KiloElectronVolt)
	m.Wavelength.SetFormat(units.Angstrom.Symbol(), Format{Increment: 0.01, Decimals: 4, Lower: 0, Upper: 1000})

	m.Exposure = m.add(PathExposure, units.Second, units.Millisecond)
	m.OscStart = m.add(PathOscillationStart, units.Degree, units.Radian)
	m.OscStop = m.add(PathOscillationStop, units.Degree, units.Radian)
	m.OscStop.SetEditable(false)
	m.OscRange = m.add(PathOscillationRange, units.Degree, units.Radian)

	m.Distance = m.add(PathDistance, units.Millimetre, units.Micron, units.Inch)
	m.Distance.SetFormat(units.Millimetre.Symbol(), Format{Increment: 1, Decimals: 2, Lower: 0, Upper: 1e6})

	m.BeamX = m.add(PathBeamCentreX, units.Millimetre, m.pixelUX)
	m.BeamY = m.add(PathBeamCentreY, units.Millimetre, m.pixelUY)
	for _, f := range []*Field{m.BeamX, m.BeamY} {
		f.SetFormat(units.Millimetre.Symbol(), millimetreFormat)
		f.SetFormat(units.PixelSymbol, pixelFormat)
	}

	m.Yaw = m.add(PathYaw, units.Degree)
	m.Yaw.SetFormat(units.Degree.Symbol(), Format{Increment: 0.1, Decimals: 2, Lower: -180, Upper: 180})
	m.Pitch = m.add(PathPitch, units.Degree)
	m.Pitch.SetFormat(units.Degree.Symbol(), Format{Increment: 0.1, Decimals: 2, Lower: -90, Upper: 90})
	m.Roll = m.add(PathRoll, units.Degree)
	m.Roll.SetFormat(units.Degree.Symbol(), Format{Increment: 0.1, Decimals: 2, Lower: -180, Upper: 180})

	m.PixelX = m.add(PathPixelSizeX, units.Millimetre, units.Micron)
	m.PixelY = m.add(PathPixelSizeY, units.Millimetre, units.Micron)
	for _, f := range []*Field{m.PixelX, m.PixelY} {
		f.SetFormat(units.Millimetre.Symbol(), Format{Increment: 0.001, Decimals: 3, Lower: 0.001, Upper: 1000})
	}

	m.IntensityMax = m.add(PathIntensityMax, units.One)
	m.IntensityMin = m.add(PathIntensityMin, units.One)
	m.IntensityMean = m.add(PathIntensityMean, units.One)
	for _, f := range []*Field{m.IntensityMax, m.IntensityMin, m.IntensityMean} {
		f.SetEditable(false)
	}

	m.loadDefaults()
	m.wireWriteBack()
	return m
}

func (m *Model) add(path string, allowed ...*units.Unit) *Field {
	f := NewField(path, allowed...)
	m.fields = append(m.fields, f)
	m.byPath[strings.ToLower(path)] = f
	return f
}

func (m *Model) loadDefaults() {
	bx, by := m.det.BeamCentreMM()
	px, py := m.det.PixelSize()
	o := m.det.NormalAngles()
	start, span := m.env.Oscillation()

	defaults := []struct {
		f *Field
		a units.Amount
	}{
		{m.Wavelength, units.Of(m.env.Wavelength(), units.Angstrom)},
		{m.Exposure, units.Of(m.env.Exposure(), units.Second)},
		{m.OscStart, units.Of(start, units.Degree)},
		{m.OscStop, units.Of(start+span, units.Degree)},
		{m.OscRange, units.Of(span, units.Degree)},
		{m.Distance, units.Of(m.det.Distance(), units.Millimetre)},
		{m.BeamX, units.Of(bx, units.Millimetre)},
		{m.BeamY, units.Of(by, units.Millimetre)},
		{m.Yaw, units.Of(o.Yaw, units.Degree)},
		{m.Pitch, units.Of(o.Pitch, units.Degree)},
		{m.Roll, units.Of(o.Roll, units.Degree)},
		{m.PixelX, units.Of(px, units.Millimetre)},
		{m.PixelY, units.Of(py, units.Millimetre)},
	}
	for _, d := range defaults {
		if err := d.f.SetDefault(d.a); err != nil {
			m.log.WithError(err).WithField("field", d.f.Label()).Warn("could not set default")
		}
	}
}

func (m *Model) wireWriteBack() {
	writeBeam := func(FieldEvent) {
		m.mu.Lock()
		ux, uy := m.pixelUX, m.pixelUY
		m.mu.Unlock()
		x, okx := m.BeamX.ValueIn(ux)
		y, oky := m.BeamY.ValueIn(uy)
		if okx && oky {
			m.det.SetBeamCentre(x, y)
		}
	}
	m.BeamX.OnAmount(writeBeam)
	m.BeamY.OnAmount(writeBeam)

	writeOrientation := func(FieldEvent) { m.writeOrientation() }
	m.Yaw.OnAmount(writeOrientation)
	m.Pitch.OnAmount(writeOrientation)
	m.Roll.OnAmount(writeOrientation)

	m.Distance.OnAmount(func(FieldEvent) {
		mm, _ := m.Distance.ValueIn(units.Millimetre)
		if err := m.det.SetDistance(mm); err != nil {
			m.log.WithError(err).Warn("distance not written to detector")
		}
	})

	writePixel := func(FieldEvent) {
		x, _ := m.PixelX.ValueIn(units.Millimetre)
		y, _ := m.PixelY.ValueIn(units.Millimetre)
		if err := m.det.SetPixelSize(x, y); err != nil {
			m.log.WithError(err).Warn("pixel size not written to detector")
		}
	}
	m.PixelX.OnAmount(writePixel)
	m.PixelY.OnAmount(writePixel)

	m.Wavelength.OnAmount(func(FieldEvent) {
		a, _ := m.Wavelength.ValueIn(units.Angstrom)
		if err := m.env.SetWavelength(a); err != nil {
			m.log.WithError(err).Warn("wavelength not written to environment")
		}
	})
	m.Exposure.OnAmount(func(FieldEvent) {
		s, _ := m.Exposure.ValueIn(units.Second)
		m.env.SetExposure(s)
	})
	writeOscillation := func(FieldEvent) {
		start, _ := m.OscStart.ValueIn(units.Degree)
		span, _ := m.OscRange.ValueIn(units.Degree)
		m.env.SetOscillation(start, span)
		m.quiet(m.OscStop, units.Of(start+span, units.Degree))
	}
	m.OscStart.OnAmount(writeOscillation)
	m.OscRange.OnAmount(writeOscillation)
}

// Activate starts following detector and environment changes
func (m *Model) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.detach != nil {
		return
	}
	m.detach = []func(){
		m.det.Subscribe(m.onDetector),
		m.env.Subscribe(m.onEnvironment),
	}
}

// Deactivate stops following detector and environment changes
func (m *Model) Deactivate() {
	m.mu.Lock()
	detach := m.detach
	m.detach = nil
	m.mu.Unlock()
	for _, fn := range detach {
		fn()
	}
}

func (m *Model) writeOrientation() {
	yaw, _ := m.Yaw.ValueIn(units.Degree)
	pitch, _ := m.Pitch.ValueIn(units.Degree)
	roll, _ := m.Roll.ValueIn(units.Degree)
	m.det.SetNormalAnglesInDegrees(yaw, pitch, roll)
}

func (m *Model) quiet(f *Field, a units.Amount) {
	if err := f.SetValueQuiet(a); err != nil {
		m.log.WithError(err).WithField("field", f.Label()).Warn("quiet update failed")
	}
}

func (m *Model) onDetector(e DetectorEvent) {
	m.log.WithField("event", e.Type).Debug("detector changed")
	switch e.Type {
	case BeamCentreChanged:
		m.syncBeam()
	case NormalChanged:
		o := m.det.NormalAngles()
		m.quiet(m.Yaw, units.Of(o.Yaw, units.Degree))
		m.quiet(m.Pitch, units.Of(o.Pitch, units.Degree))
		m.quiet(m.Roll, units.Of(o.Roll, units.Degree))
	case DistanceChanged:
		m.quiet(m.Distance, units.Of(m.det.Distance(), units.Millimetre))
	case PixelSizeChanged:
		px, py := m.det.PixelSize()
		m.mu.Lock()
		m.pixelUX, m.pixelUY = units.Pixel(px), units.Pixel(py)
		ux, uy := m.pixelUX, m.pixelUY
		m.mu.Unlock()
		m.BeamX.ReplaceUnit(ux)
		m.BeamY.ReplaceUnit(uy)
		m.quiet(m.PixelX, units.Of(px, units.Millimetre))
		m.quiet(m.PixelY, units.Of(py, units.Millimetre))
		m.syncBeam()
	}
}

func (m *Model) syncBeam() {
	bx, by := m.det.BeamCentreMM()
	m.quiet(m.BeamX, units.Of(bx, units.Millimetre))
	m.quiet(m.BeamY, units.Of(by, units.Millimetre))
}

func (m *Model) onEnvironment(env *Environment) {
	start, span := env.Oscillation()
	m.quiet(m.Wavelength, units.Of(env.Wavelength(), units.Angstrom))
	m.quiet(m.Exposure, units.Of(env.Exposure(), units.Second))
	m.quiet(m.OscStart, units.Of(start, units.Degree))
	m.quiet(m.OscRange, units.Of(span, units.Degree))
	m.quiet(m.OscStop, units.Of(start+span, units.Degree))
}

// SetImage fills the intensity fields from the finite values of img
func (m *Model) SetImage(img *dataset.Array) {
	s := dataset.Summarize(img)
	m.quiet(m.IntensityMax, units.Of(s.Max, units.One))
	m.quiet(m.IntensityMin, units.Of(s.Min, units.One))
	m.quiet(m.IntensityMean, units.Of(s.Mean, units.One))
}

// PixelUnits returns the current pixel units for x and y
func (m *Model) PixelUnits() (*units.Unit, *units.Unit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pixelUX, m.pixelUY
}

// Field looks a field up by its label path, ignoring case
func (m *Model) Field(path string) (*Field, bool) {
	p := strings.ToLower(strings.TrimSpace(path))
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	f, ok := m.byPath[p]
	return f, ok
}

// Fields returns all fields in display order
func (m *Model) Fields() []*Field {
	return append([]*Field(nil), m.fields...)
}

// SetRefresher installs r on every field
func (m *Model) SetRefresher(r Refresher) {
	for _, f := range m.fields {
		f.SetRefresher(r)
	}
}

// Reset returns every editable field to its default. The three angles are
// reset together and reach the detector as a single orientation.
func (m *Model) Reset() {
	orientation := map[*Field]bool{m.Yaw: true, m.Pitch: true, m.Roll: true}
	turned := false
	for _, f := range m.fields {
		if !f.Editable() {
			continue
		}
		if orientation[f] {
			if f.resetQuiet() {
				turned = true
			}
			continue
		}
		f.Reset()
	}
	if turned {
		m.writeOrientation()
	}
}
