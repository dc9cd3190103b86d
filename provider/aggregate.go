package provider

import (
	"math"
	"sort"
)

// WeightedPriceWithLogFence computes a weighted price after filtering by:
//   - dust threshold on weights (w >= minWeight),
//   - symmetric log fence around the median with parameter r (>1): |ln(p) - ln(median)| <= ln(r).
//
// Returns (price, keptCount, weightSum, ok). If ok=false, no points passed
// the filters. Used when a source returns several observations for one
// window so a single fat-fingered fill can't skew the result.
func WeightedPriceWithLogFence(values []float64, weights []float64, r float64, minWeight float64) (float64, int, float64, bool) {
	n := len(values)
	if n == 0 || n != len(weights) || r <= 1.0 {
		return 0, 0, 0, false
	}

	// 1) dust filter
	type pw struct{ p, w float64 }
	f := make([]pw, 0, n)
	for i := 0; i < n; i++ {
		if !(weights[i] >= minWeight) || math.IsNaN(values[i]) || math.IsInf(values[i], 0) {
			continue
		}
		f = append(f, pw{p: values[i], w: weights[i]})
	}
	if len(f) == 0 {
		return 0, 0, 0, false
	}

	// 2) median of prices (by value, unweighted)
	ps := make([]float64, len(f))
	for i := range f {
		ps[i] = f[i].p
	}
	sort.Float64s(ps)
	var med float64
	m := len(ps)
	if m%2 == 1 {
		med = ps[m/2]
	} else {
		med = 0.5 * (ps[m/2-1] + ps[m/2])
	}
	if med <= 0 || math.IsNaN(med) || math.IsInf(med, 0) {
		return 0, 0, 0, false
	}

	// 3) symmetric log fence
	lnMed := math.Log(med)
	lnR := math.Log(r)
	sumW := 0.0
	sumWP := 0.0
	kept := 0
	for _, x := range f {
		if x.p <= 0 {
			continue
		}
		if math.Abs(math.Log(x.p)-lnMed) <= lnR {
			sumW += x.w
			sumWP += x.w * x.p
			kept++
		}
	}
	if sumW <= 0 {
		return 0, 0, 0, false
	}
	return sumWP / sumW, kept, sumW, true
}
