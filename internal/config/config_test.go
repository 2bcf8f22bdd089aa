package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.5, c.DefaultPercentile)
	assert.True(t, c.IncludeLow)
	assert.True(t, c.IncludeHigh)
	assert.Equal(t, "_OUTLIER", c.OutputColumn)
	assert.Equal(t, 1.0, c.SampleRate)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".tailcut", "jobs"), c.JobsDir)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	in := &Global{
		DefaultPercentile: 2.5,
		IncludeHigh:       true,
		OutputColumn:      "flag",
		SampleRate:        0.25,
		JobsDir:           "/srv/jobs",
		LogLevel:          "debug",
		Workers:           3,
	}
	require.NoError(t, Save(in, path))

	out, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Save(&Global{DefaultPercentile: 1, JobsDir: "/j"}, path))
	t.Setenv("TAILCUT_DEFAULT_PERCENTILE", "7.5")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7.5, c.DefaultPercentile)
}
