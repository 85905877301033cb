// Package gate enforces quality thresholds on duplication analysis
// results and tracks baselines and history so CI can fail builds
// that regress.
package gate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/unbound-force/overlap/internal/coverage"
)

// Exit codes reported by the CLI after analysis.
const (
	ExitClean      = 0
	ExitDuplicates = 1
	ExitGateFailed = 2
)

// Result is a point-in-time snapshot of duplication metrics,
// suitable for baselines and trend history.
type Result struct {
	Timestamp           string  `json:"timestamp"`
	TotalTests          int     `json:"total_tests"`
	ExactDuplicates     int     `json:"exact_duplicates"`
	DuplicateGroups     int     `json:"duplicate_groups"`
	SubsetDuplicates    int     `json:"subset_duplicates"`
	SimilarPairs        int     `json:"similar_pairs"`
	DuplicatePercentage float64 `json:"duplicate_percentage"`
	Threshold           float64 `json:"threshold"`
}

// Snapshot measures a registry at the given similarity threshold.
func Snapshot(reg *coverage.Registry, threshold float64) Result {
	groups := reg.ExactDuplicates()
	excess := 0
	for _, g := range groups {
		excess += len(g) - 1
	}
	pct := 0.0
	if reg.Len() > 0 {
		pct = 100 * float64(excess) / float64(reg.Len())
	}
	return Result{
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
		TotalTests:          reg.Len(),
		ExactDuplicates:     excess,
		DuplicateGroups:     len(groups),
		SubsetDuplicates:    len(reg.SubsetDuplicates()),
		SimilarPairs:        len(reg.Similar(threshold)),
		DuplicatePercentage: pct,
		Threshold:           threshold,
	}
}

// Gate holds the thresholds a run must stay under. Nil limits are
// not enforced. FailOnIncrease compares against a baseline when one
// is supplied.
type Gate struct {
	MaxDuplicates          *int     `json:"max_duplicates,omitempty"`
	MaxDuplicatePercentage *float64 `json:"max_duplicate_percentage,omitempty"`
	FailOnIncrease         bool     `json:"fail_on_increase"`
}

// NewGate returns a gate with no absolute limits and baseline
// regression checking enabled.
func NewGate() Gate {
	return Gate{FailOnIncrease: true}
}

// Details reports the outcome of a gate check.
type Details struct {
	Passed   bool     `json:"passed"`
	Failures []string `json:"failures"`
	Result   Result   `json:"result"`
}

// Check measures the registry and evaluates every configured limit.
// baseline may be nil, in which case only absolute limits apply.
func (g Gate) Check(reg *coverage.Registry, threshold float64, baseline *Result) (bool, Details) {
	res := Snapshot(reg, threshold)
	failures := []string{}

	if g.MaxDuplicates != nil && res.ExactDuplicates > *g.MaxDuplicates {
		failures = append(failures, fmt.Sprintf(
			"exact duplicates %d exceed limit %d", res.ExactDuplicates, *g.MaxDuplicates))
	}
	if g.MaxDuplicatePercentage != nil && res.DuplicatePercentage > *g.MaxDuplicatePercentage {
		failures = append(failures, fmt.Sprintf(
			"duplicate percentage %.1f%% exceeds limit %.1f%%",
			res.DuplicatePercentage, *g.MaxDuplicatePercentage))
	}
	if g.FailOnIncrease && baseline != nil && res.ExactDuplicates > baseline.ExactDuplicates {
		failures = append(failures, fmt.Sprintf(
			"exact duplicates increased from %d to %d since baseline",
			baseline.ExactDuplicates, res.ExactDuplicates))
	}

	passed := len(failures) == 0
	return passed, Details{Passed: passed, Failures: failures, Result: res}
}

// ExitCode maps a gate outcome and duplicate count to the process
// exit code: 2 for a failed gate, 1 for duplicates found, 0 for a
// clean run.
func ExitCode(passed bool, duplicates int) int {
	switch {
	case !passed:
		return ExitGateFailed
	case duplicates > 0:
		return ExitDuplicates
	default:
		return ExitClean
	}
}

// BaselineStore persists named analysis snapshots, one JSON file per
// baseline, for later gate comparisons.
type BaselineStore struct {
	dir string
}

// NewBaselineStore returns a store rooted at dir, defaulting to
// .overlap/baselines when dir is empty.
func NewBaselineStore(dir string) *BaselineStore {
	if dir == "" {
		dir = filepath.Join(".overlap", "baselines")
	}
	return &BaselineStore{dir: dir}
}

// Dir returns the store's directory.
func (s *BaselineStore) Dir() string { return s.dir }

func (s *BaselineStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes the snapshot under the given name, creating the store
// directory if needed.
func (s *BaselineStore) Save(name string, res Result) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating baseline dir: %w", err)
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(name), data, 0o644)
}

// Load returns the named baseline, or (nil, nil) when it does not
// exist.
func (s *BaselineStore) Load(name string) (*Result, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading baseline %s: %w", name, err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parsing baseline %s: %w", name, err)
	}
	return &res, nil
}

// List returns the names of all stored baselines, sorted.
func (s *BaselineStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named baseline, erroring when it is absent.
func (s *BaselineStore) Delete(name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("baseline %q not found", name)
		}
		return err
	}
	return nil
}

func validName(name string) error {
	if name == "" {
		return errors.New("baseline name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("invalid baseline name %q", name)
	}
	return nil
}

// Trend records analysis snapshots over time in a single JSON array
// file.
type Trend struct {
	path string
}

// NewTrend returns a trend tracker backed by historyPath, defaulting
// to .overlap/history.json when empty.
func NewTrend(historyPath string) *Trend {
	if historyPath == "" {
		historyPath = filepath.Join(".overlap", "history.json")
	}
	return &Trend{path: historyPath}
}

// Append adds a snapshot to the history file, creating it if absent.
func (t *Trend) Append(res Result) error {
	history, err := t.History()
	if err != nil {
		return err
	}
	history = append(history, res)
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("creating history dir: %w", err)
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(t.path, data, 0o644)
}

// History returns all recorded snapshots in append order. A missing
// file yields an empty history.
func (t *Trend) History() ([]Result, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Result{}, nil
	}
	if err != nil {
		return nil, err
	}
	var history []Result
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parsing history %s: %w", t.path, err)
	}
	return history, nil
}

// Improving reports whether the named metric did not worsen between
// the last two snapshots. Histories with fewer than two entries are
// improving by definition. Supported metrics: "exact_duplicates",
// "duplicate_percentage", "subset_duplicates", "similar_pairs".
func (t *Trend) Improving(metric string) (bool, error) {
	history, err := t.History()
	if err != nil {
		return false, err
	}
	if len(history) < 2 {
		return true, nil
	}
	prev, last := history[len(history)-2], history[len(history)-1]
	pick := func(r Result) (float64, error) {
		switch metric {
		case "exact_duplicates":
			return float64(r.ExactDuplicates), nil
		case "duplicate_percentage":
			return r.DuplicatePercentage, nil
		case "subset_duplicates":
			return float64(r.SubsetDuplicates), nil
		case "similar_pairs":
			return float64(r.SimilarPairs), nil
		default:
			return 0, fmt.Errorf("unknown trend metric %q", metric)
		}
	}
	p, err := pick(prev)
	if err != nil {
		return false, err
	}
	l, err := pick(last)
	if err != nil {
		return false, err
	}
	return l <= p, nil
}
