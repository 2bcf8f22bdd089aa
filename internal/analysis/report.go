// Package analysis summarizes a classification result: cutoffs, class counts and
// per-class statistics of the target column, rendered as markdown or a terminal table.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/tailcut-cli/internal/classify"
	"github.com/KaramelBytes/tailcut-cli/internal/dataframe"
)

// Report describes one classification run over one table.
type Report struct {
	Name        string           `json:"name,omitempty"`
	Column      string           `json:"column"`
	LabelColumn string           `json:"label_column"`
	Percentile  float64          `json:"percentile"`
	IncludeLow  bool             `json:"include_low"`
	IncludeHigh bool             `json:"include_high"`
	Cutoffs     classify.Cutoffs `json:"-"`
	Stats       classify.Stats   `json:"-"`
	Classes     []ClassSummary   `json:"classes"`
}

// ClassSummary holds statistics of the target column over the emitted rows of one class.
// Robust z-scores are measured against the inlier median and MAD.
type ClassSummary struct {
	Class   string  `json:"class"`
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	Median  float64 `json:"median"`
	MAD     float64 `json:"mad"`
	MaxAbsZ float64 `json:"max_abs_z"`
}

// Summarize builds a report from a classifier's configuration, cutoffs, stats and result table.
func Summarize(name string, cfg classify.Config, cut classify.Cutoffs, st classify.Stats, result *dataframe.DataFrame) (*Report, error) {
	r := &Report{
		Name:        name,
		Column:      cfg.ColumnName,
		LabelColumn: cfg.OutputColumnName,
		Percentile:  cfg.Percentile,
		IncludeLow:  cfg.IncludeLow,
		IncludeHigh: cfg.IncludeHigh,
		Cutoffs:     cut,
		Stats:       st,
	}
	if r.LabelColumn == "" {
		r.LabelColumn = classify.DefaultOutputColumn
	}
	if result == nil || result.NumRows() == 0 {
		return r, nil
	}
	values, err := result.DoubleColumn(r.Column)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", r.Column, err)
	}
	labels, err := result.DoubleColumn(r.LabelColumn)
	if err != nil {
		return nil, fmt.Errorf("summarize %s: %w", r.LabelColumn, err)
	}

	var in, out []float64
	missing := [2]int{}
	for i, v := range values {
		cls := 0
		if labels[i] == classify.Outlier {
			cls = 1
		}
		if math.IsNaN(v) {
			missing[cls]++
			continue
		}
		if cls == 1 {
			out = append(out, v)
		} else {
			in = append(in, v)
		}
	}
	median, mad := medianMAD(in)
	r.Classes = []ClassSummary{
		summarizeClass("inlier", in, missing[0], median, mad),
		summarizeClass("outlier", out, missing[1], median, mad),
	}
	return r, nil
}

func summarizeClass(name string, vals []float64, missing int, baseMedian, baseMAD float64) ClassSummary {
	s := ClassSummary{Class: name, Count: len(vals) + missing, Missing: missing}
	if len(vals) == 0 {
		return s
	}
	s.Min, s.Max = vals[0], vals[0]
	for _, v := range vals {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = stat.Mean(vals, nil)
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	s.Median, s.MAD = medianMAD(vals)
	if baseMAD > 0 {
		for _, v := range vals {
			if z := math.Abs(0.6745 * (v - baseMedian) / baseMAD); z > s.MaxAbsZ {
				s.MaxAbsZ = z
			}
		}
	}
	return s
}

// Tails renders the active tails, e.g. "low+high".
func (r *Report) Tails() string {
	switch {
	case r.IncludeLow && r.IncludeHigh:
		return "low+high"
	case r.IncludeLow:
		return "low"
	case r.IncludeHigh:
		return "high"
	}
	return "none"
}

// Markdown renders the report as plain sections suitable for terminals and notes.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[CLASSIFICATION SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Target: %s (label column %s)\n", r.Column, r.LabelColumn))
	b.WriteString(fmt.Sprintf("Percentile: %s (tails: %s)\n", dataframe.FormatFloat(r.Percentile), r.Tails()))
	b.WriteString(fmt.Sprintf("Cutoffs: low %s, high %s\n", cutoffString(r.Cutoffs.Low), cutoffString(r.Cutoffs.High)))
	st := r.Stats
	b.WriteString(fmt.Sprintf("Rows: %d (inliers %d, outliers %d)\n", st.TotalRows, st.Inliers, st.Outliers))
	b.WriteString(fmt.Sprintf("Sampling: %s; emitted %d (inliers %d, outliers %d)\n", st.Mode, st.Emitted(), st.EmittedInliers, st.EmittedOutliers))

	if len(r.Classes) == 0 {
		return b.String()
	}
	b.WriteString("\n[CLASSES]\n")
	for _, c := range r.Classes {
		b.WriteString(fmt.Sprintf("- %s: n=%d", c.Class, c.Count))
		if c.Missing > 0 {
			b.WriteString(fmt.Sprintf(" (missing %d)", c.Missing))
		}
		if c.Count > c.Missing {
			b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, std %.4g, median %.4g", c.Min, c.Max, c.Mean, c.Std, c.Median))
			if c.MaxAbsZ > 0 {
				b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.MaxAbsZ))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Table renders the per-class statistics as a box-drawn terminal table.
func (r *Report) Table() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	title := r.Column
	if r.Name != "" {
		title = r.Name + ": " + r.Column
	}
	t.SetTitle("%s", title)
	t.AppendHeader(table.Row{"Class", "Rows", "Missing", "Min", "Max", "Mean", "Std", "Median", "Max |z|"})
	for _, c := range r.Classes {
		t.AppendRow(table.Row{c.Class, c.Count, c.Missing, num(c.Min), num(c.Max), num(c.Mean), num(c.Std), num(c.Median), num(c.MaxAbsZ)})
	}
	t.AppendFooter(table.Row{"cutoffs", "", "", cutoffString(r.Cutoffs.Low), cutoffString(r.Cutoffs.High)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return t.Render()
}

func num(v float64) string { return fmt.Sprintf("%.4g", v) }

func cutoffString(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.6g", v)
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = median50(cp)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = median50(dev)
	return
}

func median50(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
