// Package classify labels rows whose value in one column falls into a percentile tail and
// samples the labeled rows into an output table with a controllable inlier/outlier mix.
package classify

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tailcut-cli/internal/dataframe"
)

// Stats summarizes one Process call.
type Stats struct {
	Mode            SamplingMode
	TotalRows       int
	Inliers         int // inlier pool size
	Outliers        int // outlier pool size
	EmittedInliers  int
	EmittedOutliers int
}

// Emitted is the number of rows in the result.
func (s Stats) Emitted() int { return s.EmittedInliers + s.EmittedOutliers }

// PercentileClassifier labels a single numeric column by percentile tails and samples the
// result. It holds the outcome of the last Process call and must not be shared between
// goroutines; independent instances may run concurrently.
type PercentileClassifier struct {
	cfg  Config
	rng  *rand.Rand
	seed *int64
	log  *zap.Logger

	cut     Cutoffs
	stats   Stats
	results *dataframe.DataFrame
}

// New returns a classifier for column with default settings, adjusted by opts.
func New(column string, opts ...Option) *PercentileClassifier {
	return NewFromConfig(DefaultConfig(column), opts...)
}

// NewFromConfig returns a classifier using cfg, adjusted by opts.
func NewFromConfig(cfg Config, opts ...Option) *PercentileClassifier {
	pc := &PercentileClassifier{cfg: cfg, log: zap.NewNop(), cut: noCutoffs()}
	pc.Configure(opts...)
	return pc
}

// Configure applies opts to the classifier. It takes effect on the next Process call.
func (pc *PercentileClassifier) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(pc)
	}
}

// Config returns a copy of the current configuration.
func (pc *PercentileClassifier) Config() Config { return pc.cfg }

// OutputColumnName is the name of the label column in Results.
func (pc *PercentileClassifier) OutputColumnName() string { return pc.cfg.outputColumn() }

// LowCutoff is the low tail boundary from the last Process call, NaN if not evaluated.
func (pc *PercentileClassifier) LowCutoff() float64 { return pc.cut.Low }

// HighCutoff is the high tail boundary from the last Process call, NaN if not evaluated.
func (pc *PercentileClassifier) HighCutoff() float64 { return pc.cut.High }

// Cutoffs returns both boundaries from the last Process call.
func (pc *PercentileClassifier) Cutoffs() Cutoffs { return pc.cut }

// Stats returns pool and output counts from the last Process call.
func (pc *PercentileClassifier) Stats() Stats { return pc.stats }

// Results returns the labeled, sampled table from the last successful Process call.
func (pc *PercentileClassifier) Results() *dataframe.DataFrame { return pc.results }

// Process computes cutoffs, labels every row of df, samples according to the configured
// mode and stores the output table. df is not modified. On error no result is kept.
func (pc *PercentileClassifier) Process(df *dataframe.DataFrame) error {
	pc.results, pc.stats, pc.cut = nil, Stats{}, noCutoffs()

	cfg := pc.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	values, err := df.DoubleColumn(cfg.ColumnName)
	if err != nil {
		switch {
		case errors.Is(err, dataframe.ErrColumnNotFound):
			return invalid("column", cfg.ColumnName, "not found in table")
		case errors.Is(err, dataframe.ErrNotNumeric):
			return invalid("column", cfg.ColumnName, "is not numeric")
		}
		return fmt.Errorf("read column: %w", err)
	}

	cut := noCutoffs()
	if len(values) > 0 {
		cut, err = ComputeCutoffs(values, cfg.Percentile, cfg.IncludeLow, cfg.IncludeHigh)
		if err != nil {
			return err
		}
	}
	labels := Label(values, cut, cfg.IncludeLow, cfg.IncludeHigh)
	inliers, outliers := partition(labels)

	p := makePlan(cfg, len(inliers), len(outliers))
	keep := sample(p, inliers, outliers, pc.source())

	labeled := df.Copy()
	if err := labeled.AddColumn(cfg.outputColumn(), labels); err != nil {
		return fmt.Errorf("append label column: %w", err)
	}
	out := labeled.Select(keep)

	st := Stats{Mode: p.mode, TotalRows: len(values), Inliers: len(inliers), Outliers: len(outliers)}
	for _, idx := range keep {
		if labels[idx] != Inlier {
			st.EmittedOutliers++
		} else {
			st.EmittedInliers++
		}
	}

	pc.log.Debug("classified column",
		zap.String("column", cfg.ColumnName),
		zap.Float64("low_cutoff", cut.Low),
		zap.Float64("high_cutoff", cut.High),
		zap.Int("inliers", st.Inliers),
		zap.Int("outliers", st.Outliers),
		zap.Stringer("mode", st.Mode),
		zap.Int("emitted", st.Emitted()),
	)

	pc.cut, pc.stats, pc.results = cut, st, out
	return nil
}

// source returns the generator for one Process call. Without WithRand each call gets its
// own generator, so no state leaks between calls or classifiers.
func (pc *PercentileClassifier) source() *rand.Rand {
	switch {
	case pc.rng != nil:
		return pc.rng
	case pc.seed != nil:
		return rand.New(rand.NewSource(*pc.seed))
	default:
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
}
