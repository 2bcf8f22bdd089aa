package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Classifier defaults, applied when the matching flag is not set.
	DefaultPercentile float64 `mapstructure:"default_percentile" yaml:"default_percentile"`
	IncludeLow        bool    `mapstructure:"include_low" yaml:"include_low"`
	IncludeHigh       bool    `mapstructure:"include_high" yaml:"include_high"`
	OutputColumn      string  `mapstructure:"output_column" yaml:"output_column"`
	SampleRate        float64 `mapstructure:"sample_rate" yaml:"sample_rate"`

	// Output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`
	JobsDir      string `mapstructure:"jobs_dir" yaml:"jobs_dir"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	// Batch parallelism; 0 means one worker per CPU.
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// Keys lists the settable configuration keys.
var Keys = []string{
	"default_percentile", "include_low", "include_high", "output_column", "sample_rate",
	"output_format", "jobs_dir", "log_level", "workers",
}

// Dir returns ~/.tailcut.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tailcut"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tailcut/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TAILCUT")
	v.AutomaticEnv()

	v.SetDefault("default_percentile", 0.5)
	v.SetDefault("include_low", true)
	v.SetDefault("include_high", true)
	v.SetDefault("output_column", "_OUTLIER")
	v.SetDefault("sample_rate", 1.0)
	v.SetDefault("output_format", "")
	v.SetDefault("jobs_dir", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("workers", 0)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.JobsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.JobsDir = filepath.Join(dir, "jobs")
	}
	return &c, nil
}
