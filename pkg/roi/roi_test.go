package roi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindNames(t *testing.T) {
	for _, k := range []Kind{KindPoint, KindLine, KindBox, KindSector} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)

		z, err := Zero(k)
		require.NoError(t, err)
		assert.Equal(t, k, z.Kind())
	}
	_, err := ParseKind("ellipse")
	assert.Error(t, err)
}

func TestLine(t *testing.T) {
	l := Line{0, 0, 3, 4}
	assert.Equal(t, 5.0, l.Length())
	assert.True(t, l.Contains(1.5, 2))
	assert.False(t, l.Contains(2, 1.5))
	assert.False(t, l.Contains(6, 8))

	x, y := l.At(2.5)
	assert.InDelta(t, 1.5, x, 1e-12)
	assert.InDelta(t, 2.0, y, 1e-12)

	assert.Equal(t, Rect{0, 0, 3, 4}, l.Bounds())
}

func TestBoxNegativeExtent(t *testing.T) {
	b := Box{X: 10, Y: 10, Width: -4, Height: 2}
	assert.True(t, b.Contains(7, 11))
	assert.False(t, b.Contains(11, 11))
	assert.Equal(t, Rect{6, 10, 10, 12}, b.Bounds())
}

func TestSectorContains(t *testing.T) {
	s := Sector{CX: 0, CY: 0, R0: 1, R1: 2, A0: 0, A1: math.Pi / 2}
	assert.True(t, s.Contains(1, 1))
	assert.False(t, s.Contains(-1, 1))
	assert.False(t, s.Contains(0.1, 0.1))

	// span wrapping through zero
	w := Sector{R0: 0, R1: 5, A0: -math.Pi / 4, A1: math.Pi / 4}
	assert.True(t, w.Contains(2, -1))
	assert.False(t, w.Contains(-2, 0))
}

func TestTranslateAndIntersects(t *testing.T) {
	var shapes = []ROI{Point{1, 1}, Line{0, 0, 1, 1}, Box{0, 0, 1, 1}, Sector{R1: 1}}
	for _, s := range shapes {
		moved := s.Translate(10, 10)
		assert.Equal(t, s.Kind(), moved.Kind())
		assert.InDelta(t, s.Bounds().MinX+10, moved.Bounds().MinX, 1e-12)
	}
	assert.True(t, Intersects(Box{0, 0, 2, 2}, Line{1, 1, 5, 5}))
	assert.False(t, Intersects(Box{0, 0, 2, 2}, Point{3, 3}))
}
