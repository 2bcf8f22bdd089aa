package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tailcut-cli/internal/loader"
	"github.com/KaramelBytes/tailcut-cli/internal/logger"
	"github.com/KaramelBytes/tailcut-cli/internal/metrics"
	"github.com/KaramelBytes/tailcut-cli/internal/utils"
)

var (
	cbFlags       classifierFlags
	cbInput       inputFlags
	cbOutDir      string
	cbFormat      string
	cbWorkers     int
	cbSummary     bool
	cbQuiet       bool
	cbMetricsFile string
)

var classifyBatchCmd = &cobra.Command{
	Use:   "classify-batch <files...>",
	Short: "Classify many tables in parallel, writing one labeled table per input",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		if cbOutDir == "" {
			return fmt.Errorf("--out-dir is required")
		}
		ccfg, err := cbFlags.config(cmd.Flags())
		if err != nil {
			return err
		}
		lopt, err := cbInput.options()
		if err != nil {
			return err
		}
		format := outputFormat()
		if cbFormat != "" {
			format = loader.Format(cbFormat)
		}
		if err := utils.EnsureDir(cbOutDir); err != nil {
			return err
		}

		workers := cbWorkers
		if !cmd.Flags().Changed("workers") && cfg != nil {
			workers = cfg.Workers
		}
		if workers <= 0 {
			workers = runtime.NumCPU()
		}

		seed := cbFlags.seedValue(cmd.Flags())
		mc := metrics.NewCollector()
		w := cmd.OutOrStdout()
		total := len(files)
		outputs := batchOutputs(files, cbOutDir, format)

		var (
			mu      sync.Mutex
			done    int
			errs    = make([]error, total)
			reports = make([]string, total)
		)
		var g errgroup.Group
		g.SetLimit(workers)
		for i, path := range files {
			g.Go(func() error {
				out, err := runTask(task{
					input:        path,
					load:         lopt,
					classifier:   ccfg,
					seed:         seed,
					output:       outputs[i],
					outputFormat: format,
				}, mc)

				mu.Lock()
				defer mu.Unlock()
				done++
				if err != nil {
					errs[i] = fmt.Errorf("%s: %w", filepath.Base(path), err)
					if !cbQuiet {
						fmt.Fprintf(w, "[%d/%d] ✗ %s: %v\n", done, total, filepath.Base(path), err)
					}
					return errs[i]
				}
				if cbSummary {
					reports[i] = out.report.Markdown()
				}
				if !cbQuiet {
					fmt.Fprintf(w, "[%d/%d] ✓ %s -> %s (%d rows, %d outliers)\n",
						done, total, filepath.Base(path), outputs[i], out.stats.Emitted(), out.stats.EmittedOutliers)
				}
				return nil
			})
		}
		// The group has no context, so one failure never cancels the other files.
		// Wait reports only the first error; every file's error is in errs.
		if err := g.Wait(); err != nil {
			logger.L().Debug("batch finished with failures", zap.Error(err))
		}
		failures := multierr.Combine(errs...)
		failed := len(multierr.Errors(failures))

		if cbSummary {
			for _, r := range reports {
				if r != "" {
					fmt.Fprintln(w, r)
				}
			}
		}
		if cbMetricsFile != "" {
			if err := mc.WriteTextfile(cbMetricsFile); err != nil {
				failures = multierr.Append(failures, err)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed: %w", failed, total, failures)
		}
		return failures
	},
}

// expandInputs resolves globs and literal paths into a sorted, de-duplicated list.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// batchOutputs names one output per input as <stem>.labeled<ext> inside dir. XLSX inputs
// are written as CSV; a forced format sets the extension; name clashes get a __N suffix.
func batchOutputs(files []string, dir string, forced loader.Format) []string {
	out := make([]string, len(files))
	used := map[string]struct{}{}
	for i, path := range files {
		base := filepath.Base(path)
		gz := strings.HasSuffix(strings.ToLower(base), ".gz")
		if gz {
			base = base[:len(base)-3]
		}
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		switch {
		case forced != "":
			ext = "." + string(forced)
		case strings.EqualFold(ext, ".xlsx"):
			ext = ".csv"
		}
		if gz {
			ext += ".gz"
		}
		name := filepath.Join(dir, stem+".labeled"+ext)
		for n := 2; ; n++ {
			if _, ok := used[name]; !ok {
				break
			}
			name = filepath.Join(dir, fmt.Sprintf("%s__%d.labeled%s", stem, n, ext))
		}
		used[name] = struct{}{}
		out[i] = name
	}
	return out
}

func init() {
	rootCmd.AddCommand(classifyBatchCmd)
	cbFlags.register(classifyBatchCmd.Flags())
	cbInput.register(classifyBatchCmd.Flags())
	classifyBatchCmd.Flags().StringVar(&cbOutDir, "out-dir", "", "directory for labeled outputs (required)")
	classifyBatchCmd.Flags().StringVar(&cbFormat, "format", "", "force output format: csv|tsv|json|ndjson|arrow")
	classifyBatchCmd.Flags().IntVar(&cbWorkers, "workers", 0, "parallel workers (0 = config or one per CPU)")
	classifyBatchCmd.Flags().BoolVar(&cbSummary, "summary", false, "print a markdown summary per file after the run")
	classifyBatchCmd.Flags().BoolVarP(&cbQuiet, "quiet", "q", false, "suppress progress lines")
	classifyBatchCmd.Flags().StringVar(&cbMetricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
}
