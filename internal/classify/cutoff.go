package classify

import (
	"math"
	"sort"
)

// Cutoffs are the tail boundaries on the target column's scale. An inactive tail is NaN.
type Cutoffs struct {
	Low  float64
	High float64
}

func noCutoffs() Cutoffs { return Cutoffs{Low: math.NaN(), High: math.NaN()} }

// ComputeCutoffs returns the p-th percentile as Low (if low) and the (100-p)-th percentile
// as High (if high). NaN values are ignored; duplicates count individually.
func ComputeCutoffs(values []float64, p float64, low, high bool) (Cutoffs, error) {
	if p < 0 || p > 100 || math.IsNaN(p) {
		return noCutoffs(), invalid("percentile", p, "must be within [0,100]")
	}
	cut := noCutoffs()
	if !low && !high {
		return cut, nil
	}
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return cut, invalid("column", nil, "has no numeric values")
	}
	sort.Float64s(sorted)
	if low {
		cut.Low = quantile(sorted, p/100)
	}
	if high {
		cut.High = quantile(sorted, (100-p)/100)
	}
	return cut, nil
}

// quantile interpolates linearly between the order statistics around q*(n-1).
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
