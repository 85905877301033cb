// Package ingest turns coverage artifacts into the per-test mapping
// the registry consumes: {test name: {file path: [line numbers]}}.
// Sources are per-test JSON/YAML documents, aggregate coverage
// reports (with or without per-test contexts), and Go cover
// profiles.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/cover"
	"gopkg.in/yaml.v3"

	"github.com/unbound-force/overlap/internal/coverage"
	"github.com/unbound-force/overlap/internal/parallel"
	"github.com/unbound-force/overlap/internal/validate"
)

// AggregateBucket is the synthetic test name used when a coverage
// report carries no per-test breakdown.
const AggregateBucket = "all_tests_aggregated"

// Mapping is the per-test coverage shape consumed by the registry.
type Mapping = map[string]map[string][]int

// LoadFile reads a per-test coverage document from a JSON or YAML
// file, after validating path, size, and payload shape.
func LoadFile(path string, limits validate.Limits) (Mapping, error) {
	clean, err := validate.InputPath(path, true)
	if err != nil {
		return nil, err
	}
	if err := validate.FileSize(clean, 0); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", clean, err)
	}

	var mapping Mapping
	switch strings.ToLower(filepath.Ext(clean)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &mapping)
	default:
		err = json.Unmarshal(data, &mapping)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", validate.ErrValidation, clean, err)
	}

	if err := validate.CoverageData(mapping, limits); err != nil {
		return nil, err
	}
	return mapping, nil
}

// ConvertAggregate converts an aggregate coverage report of the form
// {"files": {path: {"executed_lines": [...]}}} into a single-bucket
// Mapping under AggregateBucket. A missing "files" key is an error;
// file entries without a well-formed executed_lines list are
// skipped. Lines come back sorted and deduplicated.
func ConvertAggregate(doc []byte) (Mapping, error) {
	var top struct {
		Files map[string]json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(doc, &top); err != nil {
		return nil, fmt.Errorf("%w: parsing coverage report: %v", validate.ErrValidation, err)
	}
	if top.Files == nil {
		return nil, fmt.Errorf("%w: coverage report missing 'files' key", validate.ErrValidation)
	}

	bucket := make(map[string][]int)
	for path, raw := range top.Files {
		var entry struct {
			ExecutedLines json.RawMessage `json:"executed_lines"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil || entry.ExecutedLines == nil {
			continue
		}
		var lines []int
		if err := json.Unmarshal(entry.ExecutedLines, &lines); err != nil {
			continue
		}
		bucket[path] = sortedUnique(lines)
	}

	if len(bucket) == 0 {
		return Mapping{}, nil
	}
	return Mapping{AggregateBucket: bucket}, nil
}

// ConvertContexts converts a coverage report carrying per-test
// contexts, {"files": {path: {"contexts": {test: [lines]}}}}, into a
// per-test Mapping. Blank context names denote lines executed
// outside any test and are skipped. When no file carries contexts
// the report falls back to aggregate conversion.
func ConvertContexts(doc []byte) (Mapping, error) {
	var top struct {
		Files map[string]json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(doc, &top); err != nil {
		return nil, fmt.Errorf("%w: parsing coverage report: %v", validate.ErrValidation, err)
	}
	if top.Files == nil {
		return nil, fmt.Errorf("%w: coverage report missing 'files' key", validate.ErrValidation)
	}

	result := Mapping{}
	for path, raw := range top.Files {
		var entry struct {
			Contexts map[string][]int `json:"contexts"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		for test, lines := range entry.Contexts {
			if strings.TrimSpace(test) == "" {
				continue
			}
			if result[test] == nil {
				result[test] = make(map[string][]int)
			}
			result[test][path] = sortedUnique(append(result[test][path], lines...))
		}
	}

	if len(result) == 0 {
		return ConvertAggregate(doc)
	}
	return result, nil
}

// FromProfile converts a Go cover profile into a single-bucket
// Mapping: every line of every covered block, per file, under the
// given bucket name (AggregateBucket when empty). Cover profiles
// carry no per-test breakdown; use FromProfileDir for one profile
// per test.
func FromProfile(path, bucket string) (Mapping, error) {
	if bucket == "" {
		bucket = AggregateBucket
	}
	profiles, err := cover.ParseProfiles(path)
	if err != nil {
		return nil, fmt.Errorf("parsing cover profile %s: %w", path, err)
	}

	byFile := make(map[string][]int)
	for _, profile := range profiles {
		for _, b := range profile.Blocks {
			if b.Count == 0 {
				continue
			}
			for n := b.StartLine; n <= b.EndLine; n++ {
				byFile[profile.FileName] = append(byFile[profile.FileName], n)
			}
		}
	}
	for file, lines := range byFile {
		byFile[file] = sortedUnique(lines)
	}

	if len(byFile) == 0 {
		return Mapping{}, nil
	}
	return Mapping{bucket: byFile}, nil
}

// FromProfileDir loads every *.out cover profile under dir, one
// profile per test, using the file stem as the test name. Profiles
// are parsed concurrently with at most workers goroutines.
func FromProfileDir(ctx context.Context, dir string, workers int) (Mapping, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.out"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no cover profiles (*.out) found in %s", dir)
	}
	sort.Strings(paths)

	partial, err := parallel.Map(ctx, workers, paths,
		func(_ context.Context, p string) (Mapping, error) {
			stem := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
			return FromProfile(p, stem)
		})
	if err != nil {
		return nil, err
	}

	merged := Mapping{}
	for _, m := range partial {
		for test, byFile := range m {
			merged[test] = byFile
		}
	}
	return merged, nil
}

// Populate fills a registry from a mapping in sorted test-name order
// so repeated runs over the same input produce identical registries.
func Populate(reg *coverage.Registry, mapping Mapping) {
	names := make([]string, 0, len(mapping))
	for name := range mapping {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		reg.Add(name, mapping[name])
	}
}

// sortedUnique sorts lines ascending and drops duplicates.
func sortedUnique(lines []int) []int {
	if len(lines) == 0 {
		return lines
	}
	sort.Ints(lines)
	out := lines[:1]
	for _, n := range lines[1:] {
		if n != out[len(out)-1] {
			out = append(out, n)
		}
	}
	return out
}
