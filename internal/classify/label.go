package classify

const (
	Inlier  = 0.0
	Outlier = 1.0
)

// Label returns one label per value: Outlier when the value sits in an included tail
// (v <= cut.Low for the low tail, v >= cut.High for the high tail), Inlier otherwise.
// NaN values never compare true and are always inliers.
func Label(values []float64, cut Cutoffs, includeLow, includeHigh bool) []float64 {
	labels := make([]float64, len(values))
	if !includeLow && !includeHigh {
		return labels
	}
	for i, v := range values {
		if (includeLow && v <= cut.Low) || (includeHigh && v >= cut.High) {
			labels[i] = Outlier
		}
	}
	return labels
}

// partition splits row indices into inlier and outlier pools, both ascending.
func partition(labels []float64) (inliers, outliers []int) {
	for i, l := range labels {
		if l != Inlier {
			outliers = append(outliers, i)
		} else {
			inliers = append(inliers, i)
		}
	}
	return inliers, outliers
}
