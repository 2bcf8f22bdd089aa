package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tailcut-cli/internal/job"
	"github.com/KaramelBytes/tailcut-cli/internal/loader"
	"github.com/KaramelBytes/tailcut-cli/internal/metrics"
	"github.com/KaramelBytes/tailcut-cli/internal/utils"
)

var (
	runSeed        int64
	runSummary     bool
	runMetricsFile string
)

var runCmd = &cobra.Command{
	Use:   "run [job-name]",
	Short: "Run a saved job and record the outcome in its history",
	Long: `Run a saved job and record the outcome in its history.

Without a job name (or with "."), the job is found by walking up from the
current directory to the nearest job.json.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := runJobDir(args)
		if err != nil {
			return err
		}
		j, err := job.Load(dir)
		if err != nil {
			return err
		}
		load, err := loadOptions(j.Read)
		if err != nil {
			return fmt.Errorf("job %s: %w", j.Name, err)
		}
		seed := j.Seed
		if cmd.Flags().Changed("seed") {
			s := runSeed
			seed = &s
		}
		format := outputFormat()
		if j.Format != "" {
			format = loader.Format(j.Format)
		}

		mc := metrics.NewCollector()
		output := j.Resolve(j.Output)
		out, err := runTask(task{
			input:        j.Resolve(j.Input),
			load:         load,
			classifier:   j.Classifier,
			seed:         seed,
			output:       output,
			outputFormat: format,
		}, mc)
		if runMetricsFile != "" {
			if merr := mc.WriteTextfile(runMetricsFile); merr != nil && err == nil {
				err = merr
			}
		}
		if err != nil {
			return err
		}

		r := j.RecordRun(out.stats, out.cutoffs, output)
		if err := j.Save(); err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if runSummary {
			fmt.Fprint(w, out.report.Markdown())
		}
		fmt.Fprintf(w, "✓ Run %s: %d rows, %d outliers, %d emitted (%s)\n", r.ID, r.Rows, r.Outliers, out.stats.Emitted(), r.Mode)
		return nil
	},
}

// runJobDir resolves a named job under the jobs directory, or the enclosing job
// of the working directory when no name is given.
func runJobDir(args []string) (string, error) {
	if len(args) == 0 || args[0] == "." {
		dir, err := utils.FindJobRoot("")
		if errors.Is(err, utils.ErrJobRootNotFound) {
			return "", fmt.Errorf("no job name given and no %s found above the current directory: %w", utils.JobFile, err)
		}
		return dir, err
	}
	return resolveJobDir(args[0])
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "override the job's random seed")
	runCmd.Flags().BoolVar(&runSummary, "summary", false, "print a markdown summary")
	runCmd.Flags().StringVar(&runMetricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
}
