package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tailcut-cli/internal/analysis"
	"github.com/KaramelBytes/tailcut-cli/internal/classify"
	"github.com/KaramelBytes/tailcut-cli/internal/loader"
	"github.com/KaramelBytes/tailcut-cli/internal/logger"
	"github.com/KaramelBytes/tailcut-cli/internal/metrics"
)

// task describes one load -> classify -> save pass over a single table.
type task struct {
	input        string
	load         loader.Options
	classifier   classify.Config
	seed         *int64
	output       string
	outputFormat loader.Format
}

type outcome struct {
	stats   classify.Stats
	cutoffs classify.Cutoffs
	report  *analysis.Report
	took    time.Duration
}

func runTask(t task, mc *metrics.Collector) (*outcome, error) {
	source := filepath.Base(t.input)
	log := logger.L().With(zap.String("source", source))

	df, err := loader.Load(t.input, t.load)
	if err != nil {
		mc.ObserveFailure(t.classifier.Mode())
		return nil, err
	}
	log.Debug("table loaded", zap.Int("rows", df.NumRows()), zap.Strings("columns", df.Schema().Names()))

	opts := []classify.Option{classify.WithLogger(log)}
	if t.seed != nil {
		opts = append(opts, classify.WithSeed(*t.seed))
	}
	pc := classify.NewFromConfig(t.classifier, opts...)
	start := time.Now()
	if err := pc.Process(df); err != nil {
		mc.ObserveFailure(t.classifier.Mode())
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	took := time.Since(start)
	mc.ObserveRun(source, pc.Stats(), pc.Cutoffs(), took)

	if t.output != "" {
		if err := loader.Save(t.output, pc.Results(), t.outputFormat); err != nil {
			return nil, fmt.Errorf("write output: %w", err)
		}
	}
	rep, err := analysis.Summarize(source, pc.Config(), pc.Cutoffs(), pc.Stats(), pc.Results())
	if err != nil {
		return nil, err
	}
	st := pc.Stats()
	log.Info("classified",
		zap.Int("rows", st.TotalRows),
		zap.Int("outliers", st.Outliers),
		zap.Int("emitted", st.Emitted()),
		zap.Stringer("mode", st.Mode),
		zap.Duration("took", took),
	)
	return &outcome{stats: st, cutoffs: pc.Cutoffs(), report: rep, took: took}, nil
}

func outputFormat() loader.Format {
	if cfg == nil {
		return ""
	}
	return loader.Format(cfg.OutputFormat)
}
