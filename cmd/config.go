package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	cfgpkg "github.com/KaramelBytes/tailcut-cli/internal/config"
	"github.com/KaramelBytes/tailcut-cli/internal/loader"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set tailcut configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		if cfg == nil {
			fmt.Fprintln(w, "No config loaded")
			return nil
		}
		fmt.Fprintf(w, "default_percentile: %s\n", strconv.FormatFloat(cfg.DefaultPercentile, 'f', -1, 64))
		fmt.Fprintf(w, "include_low: %t\n", cfg.IncludeLow)
		fmt.Fprintf(w, "include_high: %t\n", cfg.IncludeHigh)
		fmt.Fprintf(w, "output_column: %s\n", cfg.OutputColumn)
		fmt.Fprintf(w, "sample_rate: %s\n", strconv.FormatFloat(cfg.SampleRate, 'f', -1, 64))
		if cfg.OutputFormat != "" {
			fmt.Fprintf(w, "output_format: %s\n", cfg.OutputFormat)
		}
		fmt.Fprintf(w, "jobs_dir: %s\n", cfg.JobsDir)
		fmt.Fprintf(w, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(w, "workers: %d\n", cfg.Workers)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		if err := setKey(cfg, key, val); err != nil {
			return err
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	switch key {
	case "default_percentile":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 100 {
			return fmt.Errorf("invalid percentile for default_percentile: %v (use 0..100)", val)
		}
		c.DefaultPercentile = f
	case "include_low", "include_high":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for %s: %w", key, err)
		}
		if key == "include_low" {
			c.IncludeLow = b
		} else {
			c.IncludeHigh = b
		}
	case "output_column":
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("output_column must not be empty")
		}
		c.OutputColumn = val
	case "sample_rate":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 1 {
			return fmt.Errorf("invalid rate for sample_rate: %v (use 0..1)", val)
		}
		c.SampleRate = f
	case "output_format":
		switch f := loader.Format(strings.ToLower(val)); f {
		case "", loader.CSV, loader.TSV, loader.JSON, loader.NDJSON, loader.Arrow:
			c.OutputFormat = string(f)
		default:
			return fmt.Errorf("invalid output_format: %s (use csv, tsv, json, ndjson or arrow)", val)
		}
	case "jobs_dir":
		c.JobsDir = val
	case "log_level":
		if _, err := zapcore.ParseLevel(val); err != nil {
			return fmt.Errorf("invalid log_level: %w", err)
		}
		c.LogLevel = val
	case "workers":
		i, err := strconv.Atoi(val)
		if err != nil || i < 0 {
			return fmt.Errorf("invalid int for workers: %v", val)
		}
		c.Workers = i
	default:
		return fmt.Errorf("unknown key: %s (known: %s)", key, strings.Join(cfgpkg.Keys, ", "))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
