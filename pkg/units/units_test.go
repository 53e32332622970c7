package units

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLengthConversions(t *testing.T) {
	v, err := Convert(1, Inch, Millimetre)
	require.NoError(t, err)
	assert.InDelta(t, 25.4, v, 1e-12)

	v, err = Convert(2500, Micron, Millimetre)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, v, 1e-12)

	v, err = Convert(1, Millimetre, Angstrom)
	require.NoError(t, err)
	assert.InDelta(t, 1e7, v, 1e-3)
}

func TestPixelRoundTrip(t *testing.T) {
	sizes := []float64{0.172, 0.075, 0.1, 1, 0.0005}
	values := []float64{0, 1e-6, 12.34, 171.99, 999.999}
	for _, size := range sizes {
		px := Pixel(size)
		for _, mm := range values {
			p, err := Convert(mm, Millimetre, px)
			require.NoError(t, err)
			back, err := Convert(p, px, Millimetre)
			require.NoError(t, err)
			assert.InEpsilon(t, mm+1, back+1, 1e-9, "size %g value %g", size, mm)
		}
	}
}

func TestPixelUnitsDifferBySize(t *testing.T) {
	assert.True(t, Pixel(0.1).Equal(Pixel(0.1)))
	assert.False(t, Pixel(0.1).Equal(Pixel(0.2)))
	assert.True(t, Pixel(0.1).IsPixel())
	assert.False(t, Millimetre.IsPixel())
}

func TestEnergyWavelength(t *testing.T) {
	// 1 Å is about 12.398 keV
	e, err := Convert(1, Angstrom, KiloElectronVolt)
	require.NoError(t, err)
	assert.InDelta(t, 12.398419843320026, e, 1e-9)

	ev, err := Convert(e, KiloElectronVolt, ElectronVolt)
	require.NoError(t, err)
	assert.InDelta(t, 12398.419843320026, ev, 1e-6)

	back, err := Convert(ev, ElectronVolt, Angstrom)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, back, 1e-12)
}

func TestAngleConversion(t *testing.T) {
	v, err := Convert(math.Pi, Radian, Degree)
	require.NoError(t, err)
	assert.InDelta(t, 180, v, 1e-12)
}

func TestIncompatible(t *testing.T) {
	_, err := Convert(1, Degree, Millimetre)
	assert.ErrorIs(t, err, ErrIncompatible)

	_, err = Of(3, Second).To(Millisecond)
	assert.NoError(t, err)
	a, _ := Of(3, Second).To(Millisecond)
	assert.InDelta(t, 3000, a.Value, 1e-9)
	assert.Equal(t, "3000 ms", a.String())
}
