package analysis

import (
	"fmt"
	"strings"

	"github.com/unbound-force/overlap/internal/coverage"
)

// Priority classifies how urgent a recommendation is.
type Priority string

// Recommendation priorities, highest first.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is one prioritized, human-readable action item.
type Recommendation struct {
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
}

// Statistics summarizes the detection counts behind a report. The
// same shape round-trips through baselines and trend history.
type Statistics struct {
	TotalTests       int `json:"total_tests"`
	ExactDuplicates  int `json:"exact_duplicates"`
	DuplicateGroups  int `json:"duplicate_groups"`
	SubsetDuplicates int `json:"subset_duplicates"`
	SimilarPairs     int `json:"similar_pairs"`
}

// Report is the recommendation engine's output.
type Report struct {
	Recommendations []Recommendation `json:"recommendations"`
	Statistics      Statistics       `json:"statistics"`
}

// Engine turns detection results into a prioritized action list.
type Engine struct {
	reg *coverage.Registry
}

// NewEngine returns an engine over the given registry.
func NewEngine(reg *coverage.Registry) *Engine {
	return &Engine{reg: reg}
}

// Generate builds the recommendation report at the given similarity
// threshold. An empty registry yields zeroed statistics and a single
// informational entry; it never errors.
func (e *Engine) Generate(threshold float64) Report {
	total := e.reg.Len()
	if total == 0 {
		return Report{
			Recommendations: []Recommendation{{
				Priority: PriorityLow,
				Message:  "No tests found - nothing to analyze",
			}},
			Statistics: Statistics{},
		}
	}

	exact := e.reg.ExactDuplicates()
	subsets := e.reg.SubsetDuplicates()
	similar := e.reg.Similar(threshold)

	excess := 0
	recs := []Recommendation{}

	// Exact duplicates: keep the first-added member of each group,
	// recommend removing the rest.
	for _, group := range exact {
		excess += len(group) - 1
		recs = append(recs, Recommendation{
			Priority: PriorityHigh,
			Message: fmt.Sprintf(
				"Remove duplicate test(s) %s: identical coverage to %s (keep %s)",
				strings.Join(group[1:], ", "), group[0], group[0]),
		})
	}

	for _, p := range subsets {
		recs = append(recs, Recommendation{
			Priority: PriorityMedium,
			Message: fmt.Sprintf(
				"Review %s: its coverage is %.1f%% of %s; consider merging into the superset test",
				p.Subset, p.Ratio*100, p.Superset),
		})
	}

	for _, p := range similar {
		recs = append(recs, Recommendation{
			Priority: PriorityLow,
			Message: fmt.Sprintf(
				"Review %s and %s: %.1f%% overlapping coverage",
				p.A, p.B, p.Similarity*100),
		})
	}

	if len(recs) == 0 {
		recs = append(recs, Recommendation{
			Priority: PriorityLow,
			Message:  "Test suite looks good: no redundant coverage detected at this threshold",
		})
	}

	return Report{
		Recommendations: recs,
		Statistics: Statistics{
			TotalTests:       total,
			ExactDuplicates:  excess,
			DuplicateGroups:  len(exact),
			SubsetDuplicates: len(subsets),
			SimilarPairs:     len(similar),
		},
	}
}
