// Package journal records setup runs: a lock that keeps two runs from racing on
// one installation, and a JSON record per run under <root>/logs for "doctor" and
// bug reports.
package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pricepertoken/ai-coding-tracker/internal/deps"
	"github.com/pricepertoken/ai-coding-tracker/internal/health"
)

// State of a run.
type State string

const (
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// LogsSubdir is where run records live, relative to the installation root.
const LogsSubdir = "logs"

const recordPrefix = "setup-"

// Run is one setup invocation.
type Run struct {
	Version   int       `json:"version"` // Schema version
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Policy    string    `json:"policy"`
	Host      string    `json:"host,omitempty"` // "<os>-<arch>"
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished,omitempty"`
	State     State     `json:"state"`
	LastError string    `json:"last_error,omitempty"`

	Dependencies *deps.Summary  `json:"dependencies,omitempty"`
	Health       *health.Result `json:"health,omitempty"`
}

// New starts a run record.
func New(command, policy, host string) *Run {
	return &Run{
		Version: 1,
		ID:      uuid.New().String(),
		Command: command,
		Policy:  policy,
		Host:    host,
		Started: time.Now().UTC(),
		State:   StateInProgress,
	}
}

// RecordOutcome attaches a dependency verification outcome.
func (r *Run) RecordOutcome(o *deps.Outcome) {
	if o == nil {
		return
	}
	s := o.Summary()
	r.Dependencies = &s
}

// RecordHealth attaches a health check result.
func (r *Run) RecordHealth(res health.Result) {
	r.Health = &res
}

// Finish marks the run completed, or failed when err is non-nil.
func (r *Run) Finish(err error) {
	r.Finished = time.Now().UTC()
	if err != nil {
		r.State = StateFailed
		r.LastError = err.Error()
		return
	}
	r.State = StateCompleted
	r.LastError = ""
}

// FileName is the record's name inside the logs directory. Names sort by start time.
func (r *Run) FileName() string {
	return fmt.Sprintf("%s%s-%s.json", recordPrefix, r.Started.Format("20060102T150405Z"), r.ID)
}

// Save writes the run to dir atomically, using write-then-rename.
func (r *Run) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}

	finalPath := filepath.Join(dir, r.FileName())
	tmpPath := finalPath + ".tmp"

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal run: %w", err)
	}
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return "", fmt.Errorf("write temporary run file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename run file: %w", err)
	}

	// Sync directory for durability
	if df, err := os.Open(dir); err == nil {
		syncErr := df.Sync()
		df.Close()
		if syncErr != nil {
			return "", fmt.Errorf("sync directory: %w", syncErr)
		}
	}
	return finalPath, nil
}

// Load reads a run record.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}
	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal run: %w", err)
	}
	return &r, nil
}

// ErrNoRuns is returned by Latest when nothing has been recorded.
var ErrNoRuns = errors.New("no setup runs recorded")

// List returns record paths in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, recordPrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Strings(paths)
	return paths, nil
}

// Latest loads the most recent run in dir.
func Latest(dir string) (*Run, error) {
	paths, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, ErrNoRuns
	}
	return Load(paths[len(paths)-1])
}

// Prune deletes all but the newest keep records.
func Prune(dir string, keep int) error {
	paths, err := List(dir)
	if err != nil {
		return err
	}
	if len(paths) <= keep {
		return nil
	}
	var errs []error
	for _, p := range paths[:len(paths)-keep] {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
