package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tailcut-cli/internal/classify"
	"github.com/KaramelBytes/tailcut-cli/internal/dataframe"
)

func classified(t *testing.T) *classify.PercentileClassifier {
	t.Helper()
	vals := make([]float64, 1000)
	for i := range vals {
		vals[i] = float64(i)
	}
	df := dataframe.New()
	require.NoError(t, df.AddColumn("score", vals))
	pc := classify.New("score", classify.WithSeed(1))
	require.NoError(t, pc.Process(df))
	return pc
}

func TestSummarizeSplitsClasses(t *testing.T) {
	pc := classified(t)
	r, err := Summarize("scores.csv", pc.Config(), pc.Cutoffs(), pc.Stats(), pc.Results())
	require.NoError(t, err)
	require.Len(t, r.Classes, 2)

	in, out := r.Classes[0], r.Classes[1]
	assert.Equal(t, "inlier", in.Class)
	assert.Equal(t, pc.Stats().Inliers, in.Count)
	assert.Equal(t, pc.Stats().Outliers, out.Count)
	assert.Equal(t, 1000, in.Count+out.Count)

	assert.GreaterOrEqual(t, in.Min, pc.LowCutoff())
	assert.LessOrEqual(t, in.Max, pc.HighCutoff())
	assert.InDelta(t, 499.5, in.Mean, 0.5)
	assert.InDelta(t, 499.5, in.Median, 0.5)
	assert.Greater(t, out.MaxAbsZ, in.MaxAbsZ)
}

func TestSummarizeCountsMissingValues(t *testing.T) {
	df := dataframe.New()
	require.NoError(t, df.AddColumn("v", []float64{1, math.NaN(), 3}))
	require.NoError(t, df.AddColumn("_OUTLIER", []float64{0, 0, 1}))
	cfg := classify.DefaultConfig("v")

	r, err := Summarize("", cfg, classify.Cutoffs{Low: 1, High: 2}, classify.Stats{}, df)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Classes[0].Count)
	assert.Equal(t, 1, r.Classes[0].Missing)
	assert.Equal(t, 1.0, r.Classes[0].Mean)
	assert.Equal(t, 0.0, r.Classes[0].Std, "std of one value")
	assert.Equal(t, 3.0, r.Classes[1].Max)
}

func TestSummarizeMissingLabelColumn(t *testing.T) {
	df := dataframe.New()
	require.NoError(t, df.AddColumn("v", []float64{1}))
	_, err := Summarize("", classify.DefaultConfig("v"), classify.Cutoffs{}, classify.Stats{}, df)
	assert.ErrorIs(t, err, dataframe.ErrColumnNotFound)
}

func TestSummarizeEmptyResult(t *testing.T) {
	r, err := Summarize("", classify.DefaultConfig("v"), classify.Cutoffs{Low: math.NaN(), High: math.NaN()}, classify.Stats{}, dataframe.New())
	require.NoError(t, err)
	assert.Empty(t, r.Classes)
	assert.Contains(t, r.Markdown(), "Cutoffs: low n/a, high n/a")
}

func TestMarkdown(t *testing.T) {
	pc := classified(t)
	r, err := Summarize("scores.csv", pc.Config(), pc.Cutoffs(), pc.Stats(), pc.Results())
	require.NoError(t, err)
	md := r.Markdown()

	assert.True(t, strings.HasPrefix(md, "[CLASSIFICATION SUMMARY]\n"))
	assert.Contains(t, md, "File: scores.csv")
	assert.Contains(t, md, "Target: score (label column _OUTLIER)")
	assert.Contains(t, md, "Percentile: 0.5 (tails: low+high)")
	assert.Contains(t, md, "Sampling: none; emitted 1000")
	assert.Contains(t, md, "[CLASSES]")
	assert.Contains(t, md, "- inlier: n=")
}

func TestTailsAndTable(t *testing.T) {
	r := &Report{Column: "x", IncludeHigh: true, Cutoffs: classify.Cutoffs{Low: math.NaN(), High: 9},
		Classes: []ClassSummary{{Class: "inlier", Count: 4}, {Class: "outlier", Count: 1}}}
	assert.Equal(t, "high", r.Tails())
	r.IncludeHigh = false
	assert.Equal(t, "none", r.Tails())

	out := strings.ToLower(r.Table())
	assert.Contains(t, out, "inlier")
	assert.Contains(t, out, "outlier")
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "max |z|")
}

func TestMedianMAD(t *testing.T) {
	m, mad := medianMAD([]float64{4, 1, 3, 2})
	assert.Equal(t, 2.5, m)
	assert.Equal(t, 1.0, mad)

	m, mad = medianMAD(nil)
	assert.Zero(t, m)
	assert.Zero(t, mad)
}
