package dataset

import (
	"math"

	onlinestats "github.com/dgryski/go-onlinestats"
	"github.com/wangjohn/quickselect"
	"gonum.org/v1/gonum/stat"
)

// Stats summarises the finite values of an array
type Stats struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Summarize streams the finite values of the array through a running
// accumulator
func Summarize(a *Array) Stats {
	r := onlinestats.NewRunning()
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range a.data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		r.Push(v)
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Count = r.Len()
	if s.Count == 0 {
		return Stats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), StdDev: math.NaN()}
	}
	s.Mean = r.Mean()
	if s.Count > 1 {
		s.StdDev = r.Stddev()
	}
	return s
}

// WeightedMean returns the mean of the array weighted by w, skipping NaN
func WeightedMean(a, w *Array) float64 {
	xs := make([]float64, 0, len(a.data))
	ws := make([]float64, 0, len(a.data))
	for i, v := range a.data {
		if math.IsNaN(v) || math.IsNaN(w.data[i]) {
			continue
		}
		xs = append(xs, v)
		ws = append(ws, w.data[i])
	}
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, ws)
}

// Percentile returns the p-th percentile (0..100) of the finite values,
// interpolating between neighbouring ranks
func Percentile(a *Array, p float64) float64 {
	data := a.finite()
	if len(data) == 0 || math.IsNaN(p) || p < 0 || p > 100 {
		return math.NaN()
	}
	work := make([]float64, len(data))
	copy(work, data)
	if len(work) == 1 {
		return work[0]
	}

	k := float64(len(work)-1) * p / 100
	length := int(math.Ceil(k)) + 1
	if length > len(work) {
		length = len(work)
	}
	if err := quickselect.Float64QuickSelect(work, length); err != nil {
		return math.NaN()
	}

	top, second := math.Inf(-1), math.Inf(-1)
	for _, v := range work[:length] {
		if v > top {
			second = top
			top = v
		} else if v > second {
			second = v
		}
	}
	rem := k - math.Floor(k)
	if rem == 0 {
		return top
	}
	return top*rem + second*(1-rem)
}

// DisplayRange returns the intensity range between two percentiles, the
// usual way an image's colour scale is clipped to ignore hot pixels
func DisplayRange(a *Array, low, high float64) (float64, float64) {
	return Percentile(a, low), Percentile(a, high)
}
