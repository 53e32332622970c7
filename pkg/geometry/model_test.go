package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plotmodel/pkg/dataset"
	"plotmodel/pkg/units"
)

func newTestModel() (*Model, *Detector, *Environment) {
	det := NewDetector(1000, 800, 0.1, 200)
	env := NewEnvironment(1.0)
	m := NewModel(det, env)
	m.Activate()
	return m, det, env
}

func TestModelDefaultsFromDetector(t *testing.T) {
	m, _, _ := newTestModel()
	defer m.Deactivate()

	bx, ok := m.BeamX.Value()
	require.True(t, ok)
	assert.InDelta(t, 50.0, bx.Value, 1e-9)
	assert.Equal(t, HasDefault, m.BeamX.State())

	d, _ := m.Distance.Value()
	assert.Equal(t, 200.0, d.Value)
}

func TestFieldLookup(t *testing.T) {
	m, _, _ := newTestModel()
	defer m.Deactivate()

	f, ok := m.Field("/experimental information/detector/beam centre/x")
	require.True(t, ok)
	assert.Same(t, m.BeamX, f)

	f, ok = m.Field("Intensity/Mean")
	require.True(t, ok)
	assert.Same(t, m.IntensityMean, f)

	_, ok = m.Field("/nothing")
	assert.False(t, ok)
}

func TestBeamCentreWriteBackFiresOnce(t *testing.T) {
	m, det, _ := newTestModel()
	defer m.Deactivate()

	amounts := 0
	m.BeamX.OnAmount(func(FieldEvent) { amounts++ })

	require.NoError(t, m.BeamX.SetValue(units.Of(12.5, units.Millimetre)))
	assert.Equal(t, 1, amounts)

	x, y := det.BeamCentre()
	assert.InDelta(t, 125, x, 1e-9)
	assert.InDelta(t, 400, y, 1e-9)
}

func TestDetectorChangeUsesQuietSetter(t *testing.T) {
	m, det, _ := newTestModel()
	defer m.Deactivate()

	amounts, refreshes := 0, 0
	m.BeamX.OnAmount(func(FieldEvent) { amounts++ })
	m.BeamY.OnAmount(func(FieldEvent) { amounts++ })
	m.SetRefresher(RefreshFunc(func(*Field) { refreshes++ }))

	det.SetBeamCentre(300, 200)

	assert.Equal(t, 0, amounts)
	assert.Equal(t, 2, refreshes)
	bx, _ := m.BeamX.Value()
	by, _ := m.BeamY.Value()
	assert.InDelta(t, 30, bx.Value, 1e-9)
	assert.InDelta(t, 20, by.Value, 1e-9)
}

func TestDeactivatedModelIgnoresDetector(t *testing.T) {
	m, det, _ := newTestModel()
	m.Deactivate()

	det.SetBeamCentre(10, 10)
	bx, _ := m.BeamX.Value()
	assert.InDelta(t, 50, bx.Value, 1e-9)
}

func TestBeamCentreMillimetrePixelRoundTrip(t *testing.T) {
	m, det, _ := newTestModel()
	defer m.Deactivate()
	require.NoError(t, m.PixelX.SetValue(units.Of(0.172, units.Millimetre)))

	for _, mm := range []float64{0, 0.01, 17.2, 86.0004, 171.99} {
		require.NoError(t, m.BeamX.SetValue(units.Of(mm, units.Millimetre)))
		ux, _ := m.PixelUnits()
		px, ok := m.BeamX.ValueIn(ux)
		require.True(t, ok)

		back, err := units.Convert(px, ux, units.Millimetre)
		require.NoError(t, err)
		assert.InDelta(t, mm, back, 1e-9*(1+mm))

		detX, _ := det.BeamCentreMM()
		assert.InDelta(t, mm, detX, 1e-9*(1+mm))
	}
}

func TestPixelUnitSwitchesFormat(t *testing.T) {
	m, _, _ := newTestModel()
	defer m.Deactivate()

	assert.Equal(t, 0.01, m.BeamX.Format().Increment)
	assert.Equal(t, 2, m.BeamX.Format().Decimals)

	unitEvents := 0
	m.BeamX.OnUnit(func(FieldEvent) { unitEvents++ })
	ux, _ := m.PixelUnits()
	require.NoError(t, m.BeamX.SetUnit(ux))

	assert.Equal(t, 1, unitEvents)
	assert.Equal(t, 1.0, m.BeamX.Format().Increment)
	assert.Equal(t, 0, m.BeamX.Format().Decimals)
	assert.Equal(t, 100000.0, m.BeamX.Format().Upper)

	v, _ := m.BeamX.Value()
	assert.InDelta(t, 500, v.Value, 1e-9)
}

func TestPixelSizeChangeKeepsBeamPixel(t *testing.T) {
	m, det, _ := newTestModel()
	defer m.Deactivate()
	ux, _ := m.PixelUnits()
	require.NoError(t, m.BeamX.SetUnit(ux))

	require.NoError(t, m.PixelX.SetValue(units.Of(0.2, units.Millimetre)))

	// the beam stays on pixel 500, now 100 mm from the origin
	v, _ := m.BeamX.Value()
	assert.True(t, v.Unit.IsPixel())
	assert.InDelta(t, 500, v.Value, 1e-9)
	mm, _ := m.BeamX.ValueIn(units.Millimetre)
	assert.InDelta(t, 100, mm, 1e-9)
	x, _ := det.BeamCentre()
	assert.InDelta(t, 500, x, 1e-9)
}

func TestOrientationWrittenAsOneTuple(t *testing.T) {
	m, det, _ := newTestModel()
	defer m.Deactivate()

	var seen []Orientation
	det.Subscribe(func(e DetectorEvent) {
		if e.Type == NormalChanged {
			seen = append(seen, e.Detector.NormalAngles())
		}
	})

	require.NoError(t, m.Yaw.SetValue(units.Of(10, units.Degree)))
	require.NoError(t, m.Pitch.SetValue(units.Of(-20, units.Degree)))
	require.NoError(t, m.Roll.SetValue(units.Of(30, units.Degree)))

	assert.Equal(t, []Orientation{
		{Yaw: 10},
		{Yaw: 10, Pitch: -20},
		{Yaw: 10, Pitch: -20, Roll: 30},
	}, seen)

	assert.ErrorIs(t, m.Pitch.SetValue(units.Of(95, units.Degree)), ErrOutOfBounds)
}

func TestEnvironmentWriteBack(t *testing.T) {
	m, _, env := newTestModel()
	defer m.Deactivate()

	require.NoError(t, m.Wavelength.SetValue(units.Of(12.398419843320026, units.KiloElectronVolt)))
	assert.InDelta(t, 1.0, env.Wavelength(), 1e-12)

	require.NoError(t, m.OscStart.SetValue(units.Of(10, units.Degree)))
	require.NoError(t, m.OscRange.SetValue(units.Of(0.5, units.Degree)))
	stop, _ := m.OscStop.Value()
	assert.InDelta(t, 10.5, stop.Value, 1e-12)

	require.NoError(t, m.Exposure.SetValue(units.Of(250, units.Millisecond)))
	assert.InDelta(t, 0.25, env.Exposure(), 1e-12)
}

func TestSetImageFillsIntensity(t *testing.T) {
	m, _, _ := newTestModel()
	defer m.Deactivate()

	m.SetImage(dataset.MustFromValues("img", []float64{1, 2, 3, 10}, 2, 2))
	max, _ := m.IntensityMax.Value()
	mean, _ := m.IntensityMean.Value()
	assert.Equal(t, 10.0, max.Value)
	assert.InDelta(t, 4.0, mean.Value, 1e-12)
}

func TestResetRestoresDetector(t *testing.T) {
	m, det, _ := newTestModel()
	defer m.Deactivate()

	require.NoError(t, m.Distance.SetValue(units.Of(350, units.Millimetre)))
	require.NoError(t, m.Yaw.SetValue(units.Of(5, units.Degree)))
	assert.Equal(t, 350.0, det.Distance())

	m.Reset()
	assert.Equal(t, 200.0, det.Distance())
	assert.Equal(t, Orientation{}, det.NormalAngles())
}

func TestResetWritesOrientationOnce(t *testing.T) {
	m, det, _ := newTestModel()
	defer m.Deactivate()

	require.NoError(t, m.Yaw.SetValue(units.Of(10, units.Degree)))
	require.NoError(t, m.Pitch.SetValue(units.Of(-20, units.Degree)))
	require.NoError(t, m.Roll.SetValue(units.Of(30, units.Degree)))

	var seen []Orientation
	det.Subscribe(func(e DetectorEvent) {
		if e.Type == NormalChanged {
			seen = append(seen, e.Detector.NormalAngles())
		}
	})

	m.Reset()
	assert.Equal(t, []Orientation{{}}, seen)
	yaw, _ := m.Yaw.Value()
	assert.Equal(t, 0.0, yaw.Value)
}
