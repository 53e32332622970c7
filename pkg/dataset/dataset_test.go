package dataset

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plotmodel/internal/models"
)

// volume builds a [depth, height, width] array with value z*100 + y*10 + x
func volume(depth, height, width int) *Array {
	a := New("volume", depth, height, width)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				a.Set(float64(z*100+y*10+x), z, y, x)
			}
		}
	}
	return a
}

func TestFromValuesValidatesShape(t *testing.T) {
	_, err := FromValues("bad", []float64{1, 2, 3}, 2, 2)
	assert.Error(t, err)

	a, err := FromValues("ok", []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, a.Shape())
	assert.Equal(t, 2, a.Rank())
	assert.Equal(t, 6.0, a.At(1, 2))
}

func TestArange(t *testing.T) {
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, Arange("x", 5).Values())
	assert.Equal(t, []float64{0}, Arange("x", 1).Values())
}

func TestMinMaxIgnoreNaN(t *testing.T) {
	a := MustFromValues("a", []float64{3, math.NaN(), -2, 7})
	assert.Equal(t, -2.0, a.Min())
	assert.Equal(t, 7.0, a.Max())
	assert.Equal(t, 8.0, a.Sum())
}

func TestSlice(t *testing.T) {
	v := volume(3, 4, 5)

	out, err := v.Slice([]models.Slice{models.Index(1), {Start: 1, Stop: 3, Step: 1}, {Start: 0, Stop: 5, Step: 2}})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out.Shape())
	want := []float64{110, 112, 114, 120, 122, 124}
	if diff := cmp.Diff(want, out.Values()); diff != "" {
		t.Errorf("slice mismatch (-want +got):\n%s", diff)
	}
}

func TestSliceOutOfRange(t *testing.T) {
	v := volume(2, 2, 2)
	_, err := v.Slice([]models.Slice{models.Index(5)})
	assert.Error(t, err)
}

func TestTranspose(t *testing.T) {
	a := MustFromValues("a", []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	tr, err := a.Transpose(models.AxisOrder{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, tr.Shape())
	assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, tr.Values())

	_, err = a.Transpose(models.AxisOrder{0, 0})
	assert.Error(t, err)
}

func TestPlane(t *testing.T) {
	v := volume(3, 4, 5)

	// image plane: y is dimension 1, x is dimension 2, z held at 2
	img, err := Plane(v, 2, 1, []models.Slice{models.Index(2)})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, img.Shape())
	assert.Equal(t, 231.0, img.At(3, 1))

	// swapped display axes transposes the plane
	sw, err := Plane(v, 1, 2, []models.Slice{models.Index(2)})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4}, sw.Shape())
	assert.Equal(t, 231.0, sw.At(1, 3))

	// x along depth, y along width, row 3 held
	side, err := Plane(v, 0, 2, []models.Slice{{}, models.Index(3)})
	require.NoError(t, err)
	assert.Equal(t, []int{5, 3}, side.Shape())
	assert.Equal(t, 234.0, side.At(4, 2))
}

func TestGeneratorRealizesOnlySelection(t *testing.T) {
	calls := 0
	g := NewGenerator("lazy", func(idx []int) float64 {
		calls++
		return float64(idx[0]*10 + idx[1])
	}, 100, 100)
	assert.True(t, g.IsLazy())

	out, err := g.Realize([]models.Slice{models.Index(3), {Start: 2, Stop: 5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{32, 33, 34}, out.Values())
	assert.Equal(t, 3, calls)
}

func TestSummarize(t *testing.T) {
	a := MustFromValues("a", []float64{1, 2, 3, 4, math.NaN(), math.Inf(1)})
	s := Summarize(a)
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.Greater(t, s.StdDev, 0.0)

	empty := Summarize(MustFromValues("e", []float64{math.NaN()}))
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))
}

func TestPercentile(t *testing.T) {
	a := MustFromValues("a", []float64{5, 1, 4, 2, 3})
	assert.Equal(t, 3.0, Percentile(a, 50))
	assert.Equal(t, 2.0, Percentile(a, 25))
	assert.InDelta(t, 1.4, Percentile(a, 10), 1e-12)
	assert.Equal(t, 5.0, Percentile(a, 100))
	assert.True(t, math.IsNaN(Percentile(a, 120)))
	assert.True(t, math.IsNaN(Percentile(a, math.NaN())))
	assert.Equal(t, 1.0, Percentile(a, 0))
	assert.True(t, math.IsNaN(Percentile(MustFromValues("nan", []float64{math.NaN()}), 50)))

	// input order is untouched
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, a.Values())
}

func TestWeightedMean(t *testing.T) {
	a := MustFromValues("a", []float64{1, 3})
	w := MustFromValues("w", []float64{1, 3})
	assert.InDelta(t, 2.5, WeightedMean(a, w), 1e-12)
}

func BenchmarkSlice(b *testing.B) {
	v := volume(32, 64, 64)
	sel := []models.Slice{models.Index(16)}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := v.Slice(sel); err != nil {
			b.Fatal(err)
		}
	}
}

func TestSubPlane(t *testing.T) {
	v := volume(3, 4, 5)
	sub, err := SubPlane(v, 2, 1, models.Slice{Start: 1, Stop: 4}, models.Slice{Start: 2, Stop: 4}, []models.Slice{models.Index(1)})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, sub.Shape())
	assert.Equal(t, []float64{121, 122, 123, 131, 132, 133}, sub.Values())
}

func TestTransferFunctions(t *testing.T) {
	assert.Equal(t, 0.0, TwoX(-0.2))
	assert.Equal(t, 0.5, TwoX(0.25))
	assert.Equal(t, 1.0, TwoX(0.7))

	channel := make([]float64, 256)
	for i := range channel {
		channel[i] = float64(i) / 1000
	}
	green := Lookup(channel)
	assert.Equal(t, 0.0, green(0))
	assert.Equal(t, 0.255, green(1))
	assert.Equal(t, 0.128, green(0.5))
	assert.Equal(t, 0.0, green(1.5))
	assert.Equal(t, 0.0, green(math.NaN()))

	// the table is copied
	channel[255] = 9
	assert.Equal(t, 0.255, green(1))
}

func TestMapIntensity(t *testing.T) {
	a := MustFromValues("img", []float64{0, 5, 10, math.NaN(), 20}, 5)
	low, high := 0.0, 20.0
	got := MapIntensity(a, low, high, TwoX)
	want := []float64{0, 0.5, 1, math.NaN(), 1}
	if diff := cmp.Diff(want, got.Values(), cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("mapped intensities (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5.0, a.Flat(1))

	flat := MapIntensity(a, 3, 3, Linear)
	assert.Equal(t, 0.0, flat.Flat(4))
}
