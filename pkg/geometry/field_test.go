package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plotmodel/pkg/units"
)

func TestFieldStates(t *testing.T) {
	f := NewField("/Distance", units.Millimetre, units.Micron)
	calls := 0
	f.OnAmount(func(FieldEvent) { calls++ })

	assert.Equal(t, Uninitialized, f.State())
	_, ok := f.Value()
	assert.False(t, ok)

	require.NoError(t, f.SetDefault(units.Of(200, units.Millimetre)))
	assert.Equal(t, HasDefault, f.State())
	assert.Equal(t, 0, calls)

	require.NoError(t, f.SetValue(units.Of(250, units.Millimetre)))
	assert.Equal(t, HasValue, f.State())
	assert.Equal(t, 1, calls)

	v, ok := f.Value()
	require.True(t, ok)
	assert.Equal(t, 250.0, v.Value)

	orig, _ := f.Original()
	assert.Equal(t, 200.0, orig.Value)

	f.Reset()
	assert.Equal(t, HasDefault, f.State())
	assert.Equal(t, 2, calls)
	v, _ = f.Value()
	assert.Equal(t, 200.0, v.Value)
}

func TestFieldUnitEvents(t *testing.T) {
	f := NewField("/Distance", units.Millimetre, units.Micron)
	require.NoError(t, f.SetDefault(units.Of(2, units.Millimetre)))

	var amounts, unitChanges int
	f.OnAmount(func(FieldEvent) { amounts++ })
	f.OnUnit(func(FieldEvent) { unitChanges++ })

	require.NoError(t, f.SetUnit(units.Micron))
	assert.Equal(t, 0, amounts)
	assert.Equal(t, 1, unitChanges)
	v, _ := f.Value()
	assert.InDelta(t, 2000, v.Value, 1e-9)

	// value and unit change together
	require.NoError(t, f.SetValue(units.Of(3, units.Millimetre)))
	assert.Equal(t, 1, amounts)
	assert.Equal(t, 2, unitChanges)

	assert.ErrorIs(t, f.SetUnit(units.Inch), ErrUnitNotAllowed)
	assert.ErrorIs(t, f.SetValue(units.Of(1, units.Degree)), ErrUnitNotAllowed)
}

func TestFieldBounds(t *testing.T) {
	f := NewField("/Yaw", units.Degree)
	f.SetFormat(units.Degree.Symbol(), Format{Increment: 0.1, Decimals: 2, Lower: -180, Upper: 180})
	require.NoError(t, f.SetDefault(units.Of(0, units.Degree)))

	assert.ErrorIs(t, f.SetValue(units.Of(181, units.Degree)), ErrOutOfBounds)
	assert.NoError(t, f.SetValue(units.Of(-180, units.Degree)))
}

func TestQuietSetDoesNotNotify(t *testing.T) {
	f := NewField("/Beam", units.Millimetre)
	require.NoError(t, f.SetDefault(units.Of(1, units.Millimetre)))

	var amounts, refreshes int
	f.OnAmount(func(FieldEvent) { amounts++ })
	f.OnUnit(func(FieldEvent) { amounts++ })
	f.SetRefresher(RefreshFunc(func(*Field) { refreshes++ }))

	require.NoError(t, f.SetValueQuiet(units.Of(5, units.Millimetre)))
	assert.Equal(t, 0, amounts)
	assert.Equal(t, 1, refreshes)

	v, _ := f.Value()
	assert.Equal(t, 5.0, v.Value)
}

func TestReadOnlyField(t *testing.T) {
	f := NewField("/Intensity/Max")
	f.SetEditable(false)
	assert.ErrorIs(t, f.SetValue(units.Of(1, units.One)), ErrReadOnly)
	assert.NoError(t, f.SetValueQuiet(units.Of(1, units.One)))
}

func TestRound(t *testing.T) {
	f := NewField("/Beam", units.Millimetre)
	assert.Equal(t, 1.23, f.Round(1.2345))
}
