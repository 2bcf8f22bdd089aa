package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tailcut-cli/internal/dataframe"
	"github.com/KaramelBytes/tailcut-cli/internal/job"
)

var listRuns string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved jobs, or the run history of one job",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if listRuns != "" {
			dir, err := resolveJobDir(listRuns)
			if err != nil {
				return err
			}
			j, err := job.Load(dir)
			if err != nil {
				return err
			}
			if len(j.Runs) == 0 {
				fmt.Fprintln(w, "(no runs)")
				return nil
			}
			t := table.NewWriter()
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{"Run", "At", "Mode", "Rows", "Outliers", "Emitted", "Low", "High"})
			for _, r := range j.Runs {
				t.AppendRow(table.Row{r.ID[:8], r.At.Format("2006-01-02 15:04:05"), r.Mode, r.Rows, r.Outliers,
					r.EmittedInliers + r.EmittedOutliers, cutoffCell(r.LowCutoff), cutoffCell(r.HighCutoff)})
			}
			fmt.Fprintln(w, t.Render())
			return nil
		}

		root, err := jobsDir()
		if err != nil {
			return err
		}
		jobs, err := job.List(root)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Fprintln(w, "(no jobs)")
			return nil
		}
		for _, j := range jobs {
			fmt.Fprintf(w, "- %s: %s on %s", j.Name, j.Classifier.ColumnName, j.Input)
			if last, ok := j.LastRun(); ok {
				fmt.Fprintf(w, " (last run %s, %d outliers)", last.At.Format("2006-01-02"), last.Outliers)
			}
			fmt.Fprintln(w)
		}
		return nil
	},
}

func cutoffCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return dataframe.FormatFloat(*v)
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listRuns, "runs", "r", "", "show the run history of this job")
}
