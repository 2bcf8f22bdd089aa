// Package metrics records classification runs as Prometheus metrics.
//
// Each Collector owns its registry, so batch runs and tests never collide on the
// default registerer. A CLI run exports the registry with WriteTextfile, in the
// node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/KaramelBytes/tailcut-cli/internal/classify"
)

const namespace = "tailcut"

// Collector holds the counters for one process.
type Collector struct {
	registry *prometheus.Registry
	runs     *prometheus.CounterVec   // by mode and status
	rows     *prometheus.CounterVec   // labeled rows by class
	emitted  *prometheus.CounterVec   // rows written by class
	duration *prometheus.HistogramVec // by mode
	cutoffs  *prometheus.GaugeVec     // last cutoff by source and tail
}

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Classification runs by sampling mode and status.",
		}, []string{"mode", "status"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_labeled_total",
			Help:      "Rows labeled, by class.",
		}, []string{"class"}),
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_emitted_total",
			Help:      "Rows kept after sampling, by class.",
		}, []string{"class"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "process_duration_seconds",
			Help:      "Time spent in one classification run.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"mode"}),
		cutoffs: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cutoff_value",
			Help:      "Most recent cutoff value per source and tail.",
		}, []string{"source", "tail"}),
	}
	c.registry.MustRegister(c.runs, c.rows, c.emitted, c.duration, c.cutoffs)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveRun records a successful run over source.
func (c *Collector) ObserveRun(source string, st classify.Stats, cut classify.Cutoffs, d time.Duration) {
	mode := st.Mode.String()
	c.runs.WithLabelValues(mode, "ok").Inc()
	c.rows.WithLabelValues("inlier").Add(float64(st.Inliers))
	c.rows.WithLabelValues("outlier").Add(float64(st.Outliers))
	c.emitted.WithLabelValues("inlier").Add(float64(st.EmittedInliers))
	c.emitted.WithLabelValues("outlier").Add(float64(st.EmittedOutliers))
	c.duration.WithLabelValues(mode).Observe(d.Seconds())
	// NaN marks an inactive tail; leave its gauge unset.
	if cut.Low == cut.Low {
		c.cutoffs.WithLabelValues(source, "low").Set(cut.Low)
	}
	if cut.High == cut.High {
		c.cutoffs.WithLabelValues(source, "high").Set(cut.High)
	}
}

// ObserveFailure records a run that returned an error.
func (c *Collector) ObserveFailure(mode classify.SamplingMode) {
	c.runs.WithLabelValues(mode.String(), "error").Inc()
}

// WriteTextfile writes every metric to path atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
