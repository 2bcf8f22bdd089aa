package classify

import (
	"math"
	"math/rand"
	"sort"
)

// SamplingMode is the row-selection strategy applied after labeling.
type SamplingMode int

const (
	// ModeNone keeps every row.
	ModeNone SamplingMode = iota
	// ModeRate draws round(rows*rate) rows from the combined pool.
	ModeRate
	// ModeWeightedFraction splits round(rows*rate) rows by the outlier fraction.
	ModeWeightedFraction
	// ModeExplicitSizes draws exact per-class counts.
	ModeExplicitSizes
)

func (m SamplingMode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeRate:
		return "rate"
	case ModeWeightedFraction:
		return "weighted_fraction"
	case ModeExplicitSizes:
		return "explicit_sizes"
	default:
		return "unknown"
	}
}

// plan is the number of rows to draw from each pool; combined > 0 only in ModeRate.
type plan struct {
	mode     SamplingMode
	inliers  int
	outliers int
	combined int
}

// round is the single rounding rule for every size computation: nearest, ties to even.
func round(x float64) int { return int(math.RoundToEven(x)) }

func makePlan(cfg Config, nInliers, nOutliers int) plan {
	total := nInliers + nOutliers
	p := plan{mode: cfg.Mode()}
	switch p.mode {
	case ModeExplicitSizes:
		if cfg.InlierSampleSize != nil {
			p.inliers = *cfg.InlierSampleSize
		}
		if cfg.OutlierSampleSize != nil {
			p.outliers = *cfg.OutlierSampleSize
		}
	case ModeWeightedFraction:
		base := round(float64(total) * cfg.rate())
		p.outliers = round(float64(base) * *cfg.OutlierSampleFraction)
		p.inliers = base - p.outliers
	case ModeRate:
		p.combined = round(float64(total) * cfg.rate())
	default:
		p.inliers, p.outliers = nInliers, nOutliers
	}
	p.inliers = min(p.inliers, nInliers)
	p.outliers = min(p.outliers, nOutliers)
	p.combined = min(p.combined, total)
	return p
}

// sample applies the plan and returns the kept row indices in ascending order.
func sample(p plan, inliers, outliers []int, rng *rand.Rand) []int {
	var keep []int
	switch p.mode {
	case ModeNone:
		keep = make([]int, 0, len(inliers)+len(outliers))
		keep = append(keep, inliers...)
		keep = append(keep, outliers...)
	case ModeRate:
		all := make([]int, 0, len(inliers)+len(outliers))
		all = append(all, inliers...)
		all = append(all, outliers...)
		keep = draw(all, p.combined, rng)
	default:
		keep = append(draw(inliers, p.inliers, rng), draw(outliers, p.outliers, rng)...)
	}
	sort.Ints(keep)
	return keep
}

// draw takes k items uniformly at random without replacement using a partial
// Fisher-Yates shuffle over a private copy of pool.
func draw(pool []int, k int, rng *rand.Rand) []int {
	if k <= 0 {
		return nil
	}
	buf := make([]int, len(pool))
	copy(buf, pool)
	if k >= len(buf) {
		return buf
	}
	for i := 0; i < k; i++ {
		j := i + rng.Intn(len(buf)-i)
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf[:k]
}
