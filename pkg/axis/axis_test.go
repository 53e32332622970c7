package axis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapUnmap(t *testing.T) {
	a := New("x", 10, 20, false)
	assert.InDelta(t, 0.25, a.Map(12.5), 1e-12)
	assert.InDelta(t, 17.5, a.Unmap(0.75), 1e-12)

	inv := New("y", 100, 0, true)
	assert.True(t, inv.Inverted())
	assert.InDelta(t, 0.9, inv.Map(10), 1e-12)
}

func TestTicksAreWithinRange(t *testing.T) {
	a := New("x", 0, 100, false)
	ticks := a.Ticks(6)
	require.NotEmpty(t, ticks)
	assert.LessOrEqual(t, len(ticks), 6)
	for _, v := range ticks {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
	}
}

func TestNiceRange(t *testing.T) {
	a := New("x", 0.3, 9.7, false)
	lo, hi := a.NiceRange(10)
	assert.LessOrEqual(t, lo, 0.3)
	assert.GreaterOrEqual(t, hi, 9.7)
}

func TestFixedTicks(t *testing.T) {
	values, labels := Ticks(0, 140, 15)
	require.Len(t, values, 15)
	assert.Equal(t, 0.0, values[0])
	assert.InDelta(t, 140.0, values[14], 1e-9)
	assert.Equal(t, "10", labels[1])

	_, fine := Ticks(0, 1.4, 15)
	assert.Equal(t, "0.1", fine[1])
}
