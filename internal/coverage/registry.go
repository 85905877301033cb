// Package coverage stores per-test line coverage fingerprints and
// detects redundant tests by comparing them. Three relations are
// computed: exact duplicates (identical fingerprints), subset
// duplicates (one fingerprint wholly contained in another), and
// similar pairs (Jaccard similarity at or above a threshold).
package coverage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// DefaultThreshold is the default Jaccard similarity threshold for
// Similar. It is a policy default; callers routinely override it.
const DefaultThreshold = 0.7

// Line identifies a single executable source line by file path and
// 1-based line number. Value type; equality and map keys work by value.
type Line struct {
	File   string `json:"file"`
	Number int    `json:"number"`
}

// Record associates one test with the set of lines it executes.
// Records are created by Registry.Add and never modified afterwards.
type Record struct {
	// TestName is the test identifier. The registry does not enforce
	// uniqueness: adding the same name twice appends two records.
	TestName string

	// Lines is the coverage fingerprint. Treat as read-only.
	Lines map[Line]struct{}

	// fingerprint is a canonical hash of Lines, computed once at add
	// time. Identical line sets yield identical fingerprints.
	fingerprint string
}

// SubsetPair reports that Subset's lines are a strict subset of
// Superset's lines. Ratio is |subset| / |superset| (coverage-size
// ratio, not Jaccard).
type SubsetPair struct {
	Subset   string
	Superset string
	Ratio    float64
}

// SimilarPair reports two tests whose fingerprints overlap at or
// above the requested Jaccard threshold.
type SimilarPair struct {
	A          string
	B          string
	Similarity float64
}

// Registry owns the collection of coverage records for one analysis
// run. Add appends; there is no update or removal. A registry is safe
// for concurrent readers once all Add calls have completed; Add must
// not race with reads on the same registry.
type Registry struct {
	records []Record

	// simCache memoizes Jaccard similarity keyed by record index pair
	// (low index first). Records are append-only and immutable, so
	// cached entries never go stale.
	simCache map[[2]int]float64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		simCache: make(map[[2]int]float64),
	}
}

// Add records the coverage fingerprint for one test. byFile maps
// file paths to the line numbers the test executed; duplicate line
// numbers collapse into the set. Empty coverage is legal. A repeated
// test name appends a distinct record rather than replacing.
func (r *Registry) Add(testName string, byFile map[string][]int) {
	lines := make(map[Line]struct{})
	for file, nums := range byFile {
		for _, n := range nums {
			lines[Line{File: file, Number: n}] = struct{}{}
		}
	}
	r.records = append(r.records, Record{
		TestName:    testName,
		Lines:       lines,
		fingerprint: fingerprint(lines),
	})
}

// Len returns the number of records.
func (r *Registry) Len() int {
	return len(r.records)
}

// Records returns the records in insertion order. The returned slice
// is shared; callers must not modify it.
func (r *Registry) Records() []Record {
	return r.records
}

// ExactDuplicates partitions records by fingerprint and returns every
// partition with at least two members as a group of test names.
// Groups are ordered by the insertion index of their first member;
// members appear in insertion order. Two tests with empty coverage
// are exact duplicates of each other: a test that touches no tracked
// line deserves flagging, not a pass.
func (r *Registry) ExactDuplicates() [][]string {
	groups := make(map[string][]string)
	var order []string
	for _, rec := range r.records {
		if _, seen := groups[rec.fingerprint]; !seen {
			order = append(order, rec.fingerprint)
		}
		groups[rec.fingerprint] = append(groups[rec.fingerprint], rec.TestName)
	}

	result := [][]string{}
	for _, fp := range order {
		if g := groups[fp]; len(g) >= 2 {
			result = append(result, g)
		}
	}
	return result
}

// SubsetDuplicates returns every ordered pair (A, B) where A's lines
// are a non-empty strict subset of B's lines. Equal sets are exact
// duplicates and never reported here. Empty-coverage records are
// excluded: a 0/N ratio carries no actionable signal. Pairs are
// enumerated by (subset insertion index, superset insertion index).
func (r *Registry) SubsetDuplicates() []SubsetPair {
	result := []SubsetPair{}
	for i, a := range r.records {
		if len(a.Lines) == 0 {
			continue
		}
		for j, b := range r.records {
			if i == j || len(a.Lines) >= len(b.Lines) {
				continue
			}
			if isSubset(a.Lines, b.Lines) {
				result = append(result, SubsetPair{
					Subset:   a.TestName,
					Superset: b.TestName,
					Ratio:    float64(len(a.Lines)) / float64(len(b.Lines)),
				})
			}
		}
	}
	return result
}

// Similar returns every unordered pair of distinct records whose
// Jaccard similarity is at or above threshold, excluding exact
// duplicates (those belong to ExactDuplicates) and pairs where both
// sets are empty (similarity undefined, treated as no signal).
// Results are sorted by descending similarity, ties broken by test
// name order.
func (r *Registry) Similar(threshold float64) []SimilarPair {
	result := []SimilarPair{}
	for i := range r.records {
		for j := i + 1; j < len(r.records); j++ {
			a, b := &r.records[i], &r.records[j]
			if a.fingerprint == b.fingerprint {
				continue
			}
			if len(a.Lines) == 0 && len(b.Lines) == 0 {
				continue
			}
			sim := r.similarityAt(i, j)
			if sim >= threshold {
				result = append(result, SimilarPair{
					A:          a.TestName,
					B:          b.TestName,
					Similarity: sim,
				})
			}
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Similarity != result[j].Similarity {
			return result[i].Similarity > result[j].Similarity
		}
		if result[i].A != result[j].A {
			return result[i].A < result[j].A
		}
		return result[i].B < result[j].B
	})
	return result
}

// similarityAt returns the memoized Jaccard similarity of the records
// at indices i and j.
func (r *Registry) similarityAt(i, j int) float64 {
	if j < i {
		i, j = j, i
	}
	key := [2]int{i, j}
	if sim, ok := r.simCache[key]; ok {
		return sim
	}
	sim := Similarity(r.records[i].Lines, r.records[j].Lines)
	r.simCache[key] = sim
	return sim
}

// Similarity computes the Jaccard similarity |A∩B| / |A∪B| of two
// line sets. Both sets empty yields 0.
func Similarity(a, b map[Line]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	// Iterate the smaller set.
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	inter := 0
	for line := range small {
		if _, ok := large[line]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// isSubset reports whether every line of a is present in b.
func isSubset(a, b map[Line]struct{}) bool {
	for line := range a {
		if _, ok := b[line]; !ok {
			return false
		}
	}
	return true
}

// fingerprint builds a canonical hash of a line set: lines rendered
// as "file:number", sorted, joined, and hashed. Insertion order of
// the underlying map never leaks into the result.
func fingerprint(lines map[Line]struct{}) string {
	keys := make([]string, 0, len(lines))
	for line := range lines {
		keys = append(keys, fmt.Sprintf("%s:%d", line.File, line.Number))
	}
	sort.Strings(keys)
	sum := sha256.Sum256([]byte(strings.Join(keys, "\n")))
	return hex.EncodeToString(sum[:])
}
