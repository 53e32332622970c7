package interpolation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plotmodel/pkg/dataset"
)

// ramp builds a [height, width] plane with value x + 10*y
func ramp(width, height int) *dataset.Array {
	a := dataset.New("ramp", height, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			a.Set(float64(x+10*y), y, x)
		}
	}
	return a
}

func TestBilinearOnLinearField(t *testing.T) {
	s, err := NewSampler(ramp(5, 4), Bilinear)
	require.NoError(t, err)

	// bilinear reproduces a linear field exactly
	for _, p := range [][2]float64{{0, 0}, {1.5, 2.25}, {4, 3}, {3.9, 0.1}} {
		assert.InDelta(t, p[0]+10*p[1], s.At(p[0], p[1]), 1e-12, "at %v", p)
	}
	assert.True(t, math.IsNaN(s.At(-0.1, 0)))
	assert.True(t, math.IsNaN(s.At(0, 3.01)))
}

func TestNearest(t *testing.T) {
	s, err := NewSampler(ramp(5, 4), Nearest)
	require.NoError(t, err)
	assert.Equal(t, 21.0, s.At(0.6, 1.6))
}

func TestMask(t *testing.T) {
	s, err := NewSampler(ramp(3, 3), Bilinear)
	require.NoError(t, err)
	mask := dataset.MustFromValues("mask", []float64{1, 1, 1, 1, 0, 1, 1, 1, 1}, 3, 3)
	require.NoError(t, s.SetMask(mask))

	assert.True(t, math.IsNaN(s.At(1, 1)))
	assert.Equal(t, 2.0, s.At(2, 0))
	assert.Error(t, s.SetMask(dataset.New("bad", 2, 2)))
}

func TestNewSamplerRank(t *testing.T) {
	_, err := NewSampler(dataset.New("v", 2, 2, 2), Bilinear)
	assert.Error(t, err)
}

func TestLinePoints(t *testing.T) {
	xs, ys := LinePoints(0, 0, 3, 4, 1)
	require.Len(t, xs, 6)
	assert.InDelta(t, 3, xs[5], 1e-12)
	assert.InDelta(t, 4, ys[5], 1e-12)
	assert.InDelta(t, 0.6, xs[1], 1e-12)

	xs, _ = LinePoints(2, 2, 2, 2, 1)
	assert.Len(t, xs, 1)
	xs, ys = LinePoints(0, 0, math.Inf(1), 0, 1)
	assert.Nil(t, xs)
	assert.Nil(t, ys)
}

func TestSampleCount(t *testing.T) {
	n, err := SampleCount(10, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 21, n)

	n, err = SampleCount(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for _, c := range []struct{ length, step float64 }{
		{math.NaN(), 1},
		{math.Inf(1), 1},
		{10, 0},
		{10, math.NaN()},
		{1e10, 1},
	} {
		_, err := SampleCount(c.length, c.step)
		assert.Error(t, err, "length %g step %g", c.length, c.step)
	}
}
