package dataset

import "math"

// TransferFunction maps a normalised intensity in [0, 1] to a colour
// channel level in [0, 1]
type TransferFunction func(float64) float64

// TwoX doubles the intensity and clips it to [0, 1]
func TwoX(v float64) float64 {
	return math.Max(0, math.Min(1, 2*v))
}

// Linear passes the intensity through, clipped to [0, 1]
func Linear(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Lookup returns a transfer function reading one channel of a 256 entry
// colour table, such as the green column of the magma map. The intensity
// is rounded to the nearest of 256 levels; anything outside the table
// maps to 0.
func Lookup(channel []float64) TransferFunction {
	table := append([]float64(nil), channel...)
	return func(v float64) float64 {
		i := math.Round(v * 255)
		if math.IsNaN(i) || i < 0 || i >= float64(len(table)) {
			return 0
		}
		return table[int(i)]
	}
}

// MapIntensity normalises a to the display range [low, high] and passes
// every value through f. NaN stays NaN. A flat range maps everything to
// f(0).
func MapIntensity(a *Array, low, high float64, f TransferFunction) *Array {
	out := a.Clone(a.Name())
	span := high - low
	for i, v := range out.data {
		if math.IsNaN(v) {
			continue
		}
		n := 0.0
		if span > 0 {
			n = (v - low) / span
		}
		out.data[i] = f(n)
	}
	return out
}
