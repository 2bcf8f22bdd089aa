// Package job persists named labeling jobs: an input table, a classifier configuration
// and an output target, plus a bounded history of runs. A job lives in a directory
// holding job.json.
package job

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/KaramelBytes/tailcut-cli/internal/classify"
	"github.com/KaramelBytes/tailcut-cli/internal/utils"
)

// MaxRuns bounds the run history kept in job.json.
const MaxRuns = 20

// Job represents a saved labeling job.
type Job struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Input       string          `json:"input"`
	Output      string          `json:"output,omitempty"`
	Format      string          `json:"format,omitempty"`
	Read        InputOptions    `json:"read"`
	Classifier  classify.Config `json:"classifier"`
	Seed        *int64          `json:"seed,omitempty"`
	Runs        []Run           `json:"runs"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	rootDir string
}

// InputOptions remembers how the input table is decoded. Values use the same spellings as
// the command-line flags ("tab", "comma", "space").
type InputOptions struct {
	Format     string `json:"format,omitempty"`
	Delimiter  string `json:"delimiter,omitempty"`
	Decimal    string `json:"decimal,omitempty"`
	Thousands  string `json:"thousands,omitempty"`
	SheetName  string `json:"sheet_name,omitempty"`
	SheetIndex int    `json:"sheet_index,omitempty"`
	MaxRows    int    `json:"max_rows,omitempty"`
}

// Run records the outcome of one execution. Cutoffs are nil when the tail was inactive.
type Run struct {
	ID              string    `json:"id"`
	At              time.Time `json:"at"`
	Mode            string    `json:"mode"`
	Rows            int       `json:"rows"`
	Inliers         int       `json:"inliers"`
	Outliers        int       `json:"outliers"`
	EmittedInliers  int       `json:"emitted_inliers"`
	EmittedOutliers int       `json:"emitted_outliers"`
	LowCutoff       *float64  `json:"low_cutoff"`
	HighCutoff      *float64  `json:"high_cutoff"`
	Output          string    `json:"output,omitempty"`
}

// New constructs an in-memory job rooted at rootDir. Call Save to persist.
func New(name, description, rootDir string, cfg classify.Config) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Classifier:  cfg,
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// Load reads job.json from dir.
func Load(dir string) (*Job, error) {
	path := filepath.Join(dir, utils.JobFile)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("job not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read job: %w", err)
	}
	var j Job
	if err := json.Unmarshal(b, &j); err != nil {
		return nil, fmt.Errorf("parse job: %w", err)
	}
	j.rootDir = dir
	return &j, nil
}

// RootDir returns the on-disk job directory.
func (j *Job) RootDir() string { return j.rootDir }

// Save writes job.json atomically.
func (j *Job) Save() error {
	if j.rootDir == "" {
		return errors.New("job root directory not set")
	}
	if err := utils.EnsureDir(j.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	j.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(j)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(j.rootDir, utils.JobFile), data)
}

// Resolve maps a path stored in the job to a filesystem path; relative paths are
// taken relative to the job directory.
func (j *Job) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(j.rootDir, p)
}

// RecordRun appends a run built from the classifier's last Process, dropping the oldest
// entries beyond MaxRuns.
func (j *Job) RecordRun(st classify.Stats, cut classify.Cutoffs, output string) Run {
	r := Run{
		ID:              uuid.NewString(),
		At:              time.Now().UTC(),
		Mode:            st.Mode.String(),
		Rows:            st.TotalRows,
		Inliers:         st.Inliers,
		Outliers:        st.Outliers,
		EmittedInliers:  st.EmittedInliers,
		EmittedOutliers: st.EmittedOutliers,
		LowCutoff:       finite(cut.Low),
		HighCutoff:      finite(cut.High),
		Output:          output,
	}
	j.Runs = append(j.Runs, r)
	if n := len(j.Runs); n > MaxRuns {
		j.Runs = append([]Run(nil), j.Runs[n-MaxRuns:]...)
	}
	return r
}

// LastRun returns the most recent run, if any.
func (j *Job) LastRun() (Run, bool) {
	if len(j.Runs) == 0 {
		return Run{}, false
	}
	return j.Runs[len(j.Runs)-1], true
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// List loads every job found in the immediate subdirectories of dir, skipping
// directories without a job.json.
func List(dir string) ([]*Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read jobs dir: %w", err)
	}
	var out []*Job
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(dir, e.Name())
		if _, err := os.Stat(filepath.Join(sub, utils.JobFile)); err != nil {
			continue
		}
		j, err := Load(sub)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}
