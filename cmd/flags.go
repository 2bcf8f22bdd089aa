package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/KaramelBytes/tailcut-cli/internal/classify"
	"github.com/KaramelBytes/tailcut-cli/internal/job"
	"github.com/KaramelBytes/tailcut-cli/internal/loader"
)

// classifierFlags are shared by classify, classify-batch and init.
type classifierFlags struct {
	column          string
	outputColumn    string
	percentile      float64
	includeLow      bool
	includeHigh     bool
	sampleRate      float64
	outlierFraction float64
	inlierSize      int
	outlierSize     int
	seed            int64
}

func (f *classifierFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.column, "column", "c", "", "target numeric column (required)")
	fs.StringVar(&f.outputColumn, "output-column", classify.DefaultOutputColumn, "name of the label column")
	fs.Float64Var(&f.percentile, "percentile", classify.DefaultPercentile, "tail size in percent, [0,100]")
	fs.BoolVar(&f.includeLow, "include-low", true, "label the low tail")
	fs.BoolVar(&f.includeHigh, "include-high", true, "label the high tail")
	fs.Float64Var(&f.sampleRate, "sample-rate", 1.0, "keep this fraction of all rows, [0,1]")
	fs.Float64Var(&f.outlierFraction, "outlier-fraction", 0, "rebalance so outliers make up this fraction of the output")
	fs.IntVar(&f.inlierSize, "inlier-size", 0, "emit exactly this many inliers (clamped)")
	fs.IntVar(&f.outlierSize, "outlier-size", 0, "emit exactly this many outliers (clamped)")
	fs.Int64Var(&f.seed, "seed", 0, "random seed for reproducible sampling")
}

// config layers flags that were set on the command line over the global defaults.
func (f *classifierFlags) config(fs *pflag.FlagSet) (classify.Config, error) {
	if strings.TrimSpace(f.column) == "" {
		return classify.Config{}, fmt.Errorf("--column is required")
	}
	c := classify.DefaultConfig(f.column)
	if cfg != nil {
		c.Percentile = cfg.DefaultPercentile
		c.IncludeLow = cfg.IncludeLow
		c.IncludeHigh = cfg.IncludeHigh
		if r := cfg.SampleRate; r != 1.0 {
			c.SampleRate = &r
		}
		if cfg.OutputColumn != "" {
			c.OutputColumnName = cfg.OutputColumn
		}
	}
	if fs.Changed("output-column") {
		c.OutputColumnName = f.outputColumn
	}
	if fs.Changed("percentile") {
		c.Percentile = f.percentile
	}
	if fs.Changed("include-low") {
		c.IncludeLow = f.includeLow
	}
	if fs.Changed("include-high") {
		c.IncludeHigh = f.includeHigh
	}
	if fs.Changed("sample-rate") {
		v := f.sampleRate
		c.SampleRate = &v
	}
	if fs.Changed("outlier-fraction") {
		v := f.outlierFraction
		c.OutlierSampleFraction = &v
	}
	if fs.Changed("inlier-size") {
		v := f.inlierSize
		c.InlierSampleSize = &v
	}
	if fs.Changed("outlier-size") {
		v := f.outlierSize
		c.OutlierSampleSize = &v
	}
	return c, c.Validate()
}

// seedValue returns the seed when --seed was given.
func (f *classifierFlags) seedValue(fs *pflag.FlagSet) *int64 {
	if !fs.Changed("seed") {
		return nil
	}
	s := f.seed
	return &s
}

// inputFlags control table decoding. The raw flag spellings are kept so that init can
// store them in a job and run can parse them again.
type inputFlags struct {
	job.InputOptions
}

func (f *inputFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.Format, "input-format", "", "force input format: csv|tsv|xlsx|json|ndjson|arrow")
	fs.StringVar(&f.Delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab'")
	fs.StringVar(&f.Decimal, "decimal", "", "decimal separator for numbers: '.' | 'comma'")
	fs.StringVar(&f.Thousands, "thousands", "", "thousands separator: ',' | '.' | 'space'")
	fs.StringVar(&f.SheetName, "sheet-name", "", "XLSX: sheet name to read")
	fs.IntVar(&f.SheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used when --sheet-name is empty)")
	fs.IntVar(&f.MaxRows, "max-rows", 0, "read at most this many data rows (0 = all)")
}

func (f *inputFlags) options() (loader.Options, error) {
	return loadOptions(f.InputOptions)
}

// loadOptions parses stored or flag-provided input settings into loader options.
func loadOptions(in job.InputOptions) (loader.Options, error) {
	opt := loader.Options{
		Format:     loader.Format(strings.ToLower(in.Format)),
		SheetName:  in.SheetName,
		SheetIndex: in.SheetIndex,
		MaxRows:    in.MaxRows,
	}
	switch in.Delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", in.Delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(in.Decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", in.Decimal)
	}
	switch strings.ToLower(in.Thousands) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", in.Thousands)
	}
	return opt, nil
}
