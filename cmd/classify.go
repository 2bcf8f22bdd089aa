package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tailcut-cli/internal/loader"
	"github.com/KaramelBytes/tailcut-cli/internal/metrics"
)

var (
	clsFlags       classifierFlags
	clsInput       inputFlags
	clsOutputPath  string
	clsFormat      string
	clsSummary     bool
	clsMetricsFile string
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Label percentile-tail outliers in one table and optionally sample the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ccfg, err := clsFlags.config(cmd.Flags())
		if err != nil {
			return err
		}
		lopt, err := clsInput.options()
		if err != nil {
			return err
		}
		format := outputFormat()
		if clsFormat != "" {
			format = loader.Format(clsFormat)
		}

		mc := metrics.NewCollector()
		out, err := runTask(task{
			input:        args[0],
			load:         lopt,
			classifier:   ccfg,
			seed:         clsFlags.seedValue(cmd.Flags()),
			output:       clsOutputPath,
			outputFormat: format,
		}, mc)
		if clsMetricsFile != "" {
			if merr := mc.WriteTextfile(clsMetricsFile); merr != nil && err == nil {
				err = merr
			}
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if clsSummary {
			fmt.Fprint(w, out.report.Markdown())
		} else {
			fmt.Fprintln(w, out.report.Table())
		}
		if clsOutputPath != "" {
			fmt.Fprintf(w, "✓ Wrote %d rows (%d outliers) to %s\n", out.stats.Emitted(), out.stats.EmittedOutliers, clsOutputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	clsFlags.register(classifyCmd.Flags())
	clsInput.register(classifyCmd.Flags())
	classifyCmd.Flags().StringVarP(&clsOutputPath, "output", "o", "", "write the labeled (and sampled) table here; format from extension, .gz compresses")
	classifyCmd.Flags().StringVar(&clsFormat, "format", "", "force output format: csv|tsv|json|ndjson|arrow")
	classifyCmd.Flags().BoolVar(&clsSummary, "summary", false, "print a markdown summary instead of a table")
	classifyCmd.Flags().StringVar(&clsMetricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
}
