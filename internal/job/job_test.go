package job

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/tailcut-cli/internal/classify"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "weekly")
	cfg := classify.DefaultConfig("latency")
	size := 5
	cfg.OutlierSampleSize = &size
	cfg.InlierSampleSize = &size

	j := New("weekly", "latency tails", dir, cfg)
	j.Input = "data.csv"
	j.Read = InputOptions{Delimiter: "tab", Decimal: "comma", SheetIndex: 2, MaxRows: 100}
	require.NoError(t, j.Save())

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, j.ID, got.ID)
	_, err = uuid.Parse(got.ID)
	assert.NoError(t, err)
	assert.Equal(t, "latency", got.Classifier.ColumnName)
	require.NotNil(t, got.Classifier.OutlierSampleSize)
	assert.Equal(t, 5, *got.Classifier.OutlierSampleSize)
	assert.Equal(t, classify.ModeExplicitSizes, got.Classifier.Mode())
	assert.Equal(t, j.Read, got.Read)
	assert.Equal(t, filepath.Join(dir, "data.csv"), got.Resolve(got.Input))
	assert.Equal(t, "/abs/x.csv", got.Resolve("/abs/x.csv"))
}

func TestLoadHandWrittenJobKeepsAllRows(t *testing.T) {
	dir := t.TempDir()
	body := `{"id":"x","name":"hand","input":"in.csv","classifier":{"column":"v","percentile":5,"include_high":true}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "job.json"), []byte(body), 0o644))

	got, err := Load(dir)
	require.NoError(t, err)
	assert.Nil(t, got.Classifier.SampleRate)
	assert.Equal(t, classify.ModeNone, got.Classifier.Mode())
	assert.Equal(t, InputOptions{}, got.Read)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job not found")
}

func TestSaveWithoutRoot(t *testing.T) {
	j := &Job{Name: "x"}
	assert.Error(t, j.Save())
}

func TestRecordRunKeepsLatest(t *testing.T) {
	j := New("j", "", t.TempDir(), classify.DefaultConfig("v"))
	for i := 0; i < MaxRuns+5; i++ {
		j.RecordRun(classify.Stats{TotalRows: i, Mode: classify.ModeRate}, classify.Cutoffs{Low: math.NaN(), High: float64(i)}, "")
	}
	require.Len(t, j.Runs, MaxRuns)
	assert.Equal(t, 5, j.Runs[0].Rows)

	last, ok := j.LastRun()
	require.True(t, ok)
	assert.Equal(t, MaxRuns+4, last.Rows)
	assert.Equal(t, "rate", last.Mode)
	assert.Nil(t, last.LowCutoff)
	require.NotNil(t, last.HighCutoff)
	assert.Equal(t, float64(MaxRuns+4), *last.HighCutoff)

	require.NoError(t, j.Save())
	got, err := Load(j.RootDir())
	require.NoError(t, err)
	assert.Len(t, got.Runs, MaxRuns)
	assert.Nil(t, got.Runs[0].LowCutoff)
}

func TestList(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a", "b"} {
		require.NoError(t, New(name, "", filepath.Join(root, name), classify.DefaultConfig("v")).Save())
	}
	jobs, err := List(root)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)

	jobs, err = List(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
