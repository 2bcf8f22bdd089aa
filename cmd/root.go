package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/tailcut-cli/internal/config"
	"github.com/KaramelBytes/tailcut-cli/internal/logger"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "tailcut",
	Short: "tailcut: label percentile-tail outliers in tables and sample them",
	Long: `tailcut labels the rows of a table whose target column falls in the low or high
percentile tail, writes the label as a new column, and optionally down-samples
inliers and outliers (by rate, by outlier fraction, or to explicit sizes).`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute is the entry point called by main.main()
func Execute() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tailcut/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{
			DefaultPercentile: 0.5,
			IncludeLow:        true,
			IncludeHigh:       true,
			SampleRate:        1.0,
			LogLevel:          "warn",
		}
	}
	cfg = c

	lvl := cfg.LogLevel
	if logLevel != "" {
		lvl = logLevel
	}
	if debug {
		lvl = "debug"
	}
	if err := logger.Init(logger.Config{Level: lvl, Development: debug}); err != nil {
		return err
	}
	logger.L().Debug("config loaded", zap.String("command", cmd.Name()), zap.String("jobs_dir", cfg.JobsDir))
	return nil
}
