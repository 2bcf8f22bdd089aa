package classify

import (
	"math/rand"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// DefaultOutputColumn names the label column when none is configured.
	DefaultOutputColumn = "_OUTLIER"
	// DefaultPercentile puts 0.5% of rows in each tail, ~1% overall with both tails on.
	DefaultPercentile = 0.5
)

// Config holds every knob of a PercentileClassifier. The three optional sampling knobs are
// pointers: nil means "not set" and keeps that sampling mode out of the priority chain.
type Config struct {
	ColumnName       string  `yaml:"column" mapstructure:"column" json:"column"`
	OutputColumnName string  `yaml:"output_column" mapstructure:"output_column" json:"output_column"`
	Percentile       float64 `yaml:"percentile" mapstructure:"percentile" json:"percentile"`
	IncludeLow       bool    `yaml:"include_low" mapstructure:"include_low" json:"include_low"`
	IncludeHigh      bool    `yaml:"include_high" mapstructure:"include_high" json:"include_high"`
	// SampleRate in [0,1]; nil or 1 disables rate-based reduction.
	SampleRate            *float64 `yaml:"sample_rate,omitempty" mapstructure:"sample_rate" json:"sample_rate,omitempty"`
	OutlierSampleFraction *float64 `yaml:"outlier_sample_fraction,omitempty" mapstructure:"outlier_sample_fraction" json:"outlier_sample_fraction,omitempty"`
	InlierSampleSize      *int     `yaml:"inlier_sample_size,omitempty" mapstructure:"inlier_sample_size" json:"inlier_sample_size,omitempty"`
	OutlierSampleSize     *int     `yaml:"outlier_sample_size,omitempty" mapstructure:"outlier_sample_size" json:"outlier_sample_size,omitempty"`
}

// DefaultConfig returns the defaults for the given target column: both tails,
// 0.5th/99.5th percentile cutoffs, no sampling.
func DefaultConfig(column string) Config {
	return Config{
		ColumnName:       column,
		OutputColumnName: DefaultOutputColumn,
		Percentile:       DefaultPercentile,
		IncludeLow:       true,
		IncludeHigh:      true,
	}
}

// Mode reports which sampling mode the configuration selects.
func (c Config) Mode() SamplingMode {
	switch {
	case c.InlierSampleSize != nil || c.OutlierSampleSize != nil:
		return ModeExplicitSizes
	case c.OutlierSampleFraction != nil:
		return ModeWeightedFraction
	case c.rate() != 1.0:
		return ModeRate
	default:
		return ModeNone
	}
}

// Validate checks every field and returns all violations at once.
// Each violation is a *ConfigError; errors.Is(err, ErrInvalidConfiguration) holds.
func (c Config) Validate() error {
	var err error
	if c.ColumnName == "" {
		err = multierr.Append(err, invalid("column", nil, "must not be empty"))
	}
	if c.ColumnName != "" && c.outputColumn() == c.ColumnName {
		err = multierr.Append(err, invalid("output_column", c.outputColumn(), "must differ from the target column"))
	}
	if c.Percentile < 0 || c.Percentile > 100 || c.Percentile != c.Percentile {
		err = multierr.Append(err, invalid("percentile", c.Percentile, "must be within [0,100]"))
	} else if c.IncludeLow && c.IncludeHigh && c.Percentile > 50 {
		err = multierr.Append(err, invalid("percentile", c.Percentile, "must be <= 50 when both tails are included"))
	}
	if r := c.SampleRate; r != nil && (*r < 0 || *r > 1 || *r != *r) {
		err = multierr.Append(err, invalid("sample_rate", *r, "must be within [0,1]"))
	}
	if f := c.OutlierSampleFraction; f != nil && (*f < 0 || *f > 1 || *f != *f) {
		err = multierr.Append(err, invalid("outlier_sample_fraction", *f, "must be within [0,1]"))
	}
	if n := c.InlierSampleSize; n != nil && *n < 0 {
		err = multierr.Append(err, invalid("inlier_sample_size", *n, "must be non-negative"))
	}
	if n := c.OutlierSampleSize; n != nil && *n < 0 {
		err = multierr.Append(err, invalid("outlier_sample_size", *n, "must be non-negative"))
	}
	return err
}

// rate is the effective sample rate; unset means keep everything.
func (c Config) rate() float64 {
	if c.SampleRate == nil {
		return 1.0
	}
	return *c.SampleRate
}

func (c Config) outputColumn() string {
	if c.OutputColumnName == "" {
		return DefaultOutputColumn
	}
	return c.OutputColumnName
}

// Option mutates a classifier's configuration or collaborators.
type Option func(*PercentileClassifier)

// WithColumn changes the target column.
func WithColumn(name string) Option {
	return func(pc *PercentileClassifier) { pc.cfg.ColumnName = name }
}

// WithOutputColumn sets the label column name.
func WithOutputColumn(name string) Option {
	return func(pc *PercentileClassifier) { pc.cfg.OutputColumnName = name }
}

// WithPercentile sets the tail percentile p: low = p-th, high = (100-p)-th percentile.
// p must lie in [0,100]; with both tails included it must also be <= 50, otherwise the
// tails would overlap and Process returns ErrInvalidConfiguration.
func WithPercentile(p float64) Option {
	return func(pc *PercentileClassifier) { pc.cfg.Percentile = p }
}

// WithIncludeLow toggles the low tail.
func WithIncludeLow(on bool) Option {
	return func(pc *PercentileClassifier) { pc.cfg.IncludeLow = on }
}

// WithIncludeHigh toggles the high tail.
func WithIncludeHigh(on bool) Option {
	return func(pc *PercentileClassifier) { pc.cfg.IncludeHigh = on }
}

// WithSampleRate sets the overall sample rate.
func WithSampleRate(r float64) Option {
	return func(pc *PercentileClassifier) { pc.cfg.SampleRate = &r }
}

// WithOutlierSampleFraction sets the target share of outliers in the output.
func WithOutlierSampleFraction(f float64) Option {
	return func(pc *PercentileClassifier) { pc.cfg.OutlierSampleFraction = &f }
}

// WithInlierSampleSize requests an exact number of inliers.
func WithInlierSampleSize(n int) Option {
	return func(pc *PercentileClassifier) { pc.cfg.InlierSampleSize = &n }
}

// WithOutlierSampleSize requests an exact number of outliers.
func WithOutlierSampleSize(n int) Option {
	return func(pc *PercentileClassifier) { pc.cfg.OutlierSampleSize = &n }
}

// WithRand provides an explicit RNG. It is used for every Process call of this classifier,
// so it must not be shared with other goroutines.
func WithRand(r *rand.Rand) Option {
	if r == nil {
		panic("classify: WithRand(nil)")
	}
	return func(pc *PercentileClassifier) {
		pc.rng = r
		pc.seed = nil
	}
}

// WithSeed makes every Process call draw from a fresh generator seeded with seed,
// so repeated calls on the same input select the same rows.
func WithSeed(seed int64) Option {
	return func(pc *PercentileClassifier) {
		pc.seed = &seed
		pc.rng = nil
	}
}

// WithLogger attaches a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(pc *PercentileClassifier) {
		if l != nil {
			pc.log = l
		}
	}
}
