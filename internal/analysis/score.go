// Package analysis derives quality scores and actionable
// recommendations from a coverage registry. Both the scorer and the
// recommendation engine are pure functions of the registry content
// and a similarity threshold: no state, no I/O.
package analysis

import (
	"fmt"

	"github.com/unbound-force/overlap/internal/coverage"
)

// Component weights for the overall score. Exact duplication is the
// strongest redundancy signal, so it carries half the weight.
const (
	weightDuplication = 0.5
	weightEfficiency  = 0.25
	weightUniqueness  = 0.25
)

// Score is the composite quality assessment of a test suite. Each
// component ranges 0-100.
type Score struct {
	// Overall is the weighted combination of the three components.
	Overall float64 `json:"overall_score"`

	// Duplication penalizes exact duplicates: the share of tests
	// that could be deleted outright.
	Duplication float64 `json:"duplication_score"`

	// CoverageEfficiency penalizes subset relations: tests whose
	// coverage another test already provides.
	CoverageEfficiency float64 `json:"coverage_efficiency_score"`

	// Uniqueness penalizes near-duplicate similar pairs at the
	// requested threshold.
	Uniqueness float64 `json:"uniqueness_score"`

	// Grade is the letter grade mapped from Overall.
	Grade string `json:"grade"`

	// Recommendations are short human-readable improvement hints.
	Recommendations []string `json:"recommendations"`
}

// Scorer computes quality scores for one registry.
type Scorer struct {
	reg *coverage.Registry
}

// NewScorer returns a scorer over the given registry.
func NewScorer(reg *coverage.Registry) *Scorer {
	return &Scorer{reg: reg}
}

// Calculate computes the quality score at the given similarity
// threshold. Deterministic: repeated calls on an unchanged registry
// yield identical scores.
func (s *Scorer) Calculate(threshold float64) Score {
	total := s.reg.Len()
	if total == 0 {
		return Score{
			Grade:           "F",
			Recommendations: []string{"No tests found - add coverage data before scoring"},
		}
	}

	exact := s.reg.ExactDuplicates()
	subsets := s.reg.SubsetDuplicates()
	similar := s.reg.Similar(threshold)

	excess := 0
	for _, g := range exact {
		excess += len(g) - 1
	}

	n := float64(total)
	duplication := clamp(100 * (1 - float64(excess)/n))
	efficiency := clamp(100 - 100*float64(len(subsets))/n)
	uniqueness := clamp(100 - 100*float64(len(similar))/n)

	overall := clamp(weightDuplication*duplication +
		weightEfficiency*efficiency +
		weightUniqueness*uniqueness)

	return Score{
		Overall:            overall,
		Duplication:        duplication,
		CoverageEfficiency: efficiency,
		Uniqueness:         uniqueness,
		Grade:              GradeFor(overall),
		Recommendations:    scoreHints(excess, len(subsets), len(similar)),
	}
}

// GradeFor maps an overall score to a letter grade. Bands are
// monotonic and cover [0, 100].
func GradeFor(score float64) string {
	switch {
	case score >= 97:
		return "A+"
	case score >= 93:
		return "A"
	case score >= 90:
		return "A-"
	case score >= 87:
		return "B+"
	case score >= 83:
		return "B"
	case score >= 80:
		return "B-"
	case score >= 77:
		return "C+"
	case score >= 73:
		return "C"
	case score >= 70:
		return "C-"
	case score >= 67:
		return "D+"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// scoreHints builds the short free-form hints attached to a score.
func scoreHints(excess, subsets, similar int) []string {
	var hints []string
	if excess > 0 {
		hints = append(hints, fmt.Sprintf(
			"Remove %d exact duplicate test(s) to cut suite runtime without losing coverage", excess))
	}
	if subsets > 0 {
		hints = append(hints, fmt.Sprintf(
			"Review %d subset relation(s): superset tests already cover those lines", subsets))
	}
	if similar > 0 {
		hints = append(hints, fmt.Sprintf(
			"Review %d similar pair(s) for consolidation", similar))
	}
	if len(hints) == 0 {
		hints = append(hints, "Test suite coverage looks healthy")
	}
	return hints
}

// clamp bounds a score to [0, 100].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
