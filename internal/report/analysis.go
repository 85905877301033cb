// Package report renders duplication analysis results as styled
// text, JSON, CSV, Markdown, and HTML.
package report

import (
	"fmt"
	"sort"

	"github.com/unbound-force/overlap/internal/analysis"
	"github.com/unbound-force/overlap/internal/coverage"
	"github.com/unbound-force/overlap/internal/source"
)

// Analysis is the shared input for every renderer. It is assembled
// once from a registry so formatters never re-run detection.
type Analysis struct {
	Threshold       float64
	ExactGroups     [][]string
	Subsets         []coverage.SubsetPair
	Similar         []coverage.SimilarPair
	Score           analysis.Score
	Recommendations []analysis.Recommendation
	Statistics      analysis.Statistics

	// Excerpts holds optional source annotations per exact group,
	// keyed by the group's first test name. Populated by Annotate.
	Excerpts map[string][]string

	reg *coverage.Registry
}

// New runs detection, scoring, and recommendation generation over
// the registry at the given similarity threshold and bundles the
// results for rendering.
func New(reg *coverage.Registry, threshold float64) *Analysis {
	rpt := analysis.NewEngine(reg).Generate(threshold)
	return &Analysis{
		Threshold:       threshold,
		ExactGroups:     reg.ExactDuplicates(),
		Subsets:         reg.SubsetDuplicates(),
		Similar:         reg.Similar(threshold),
		Score:           analysis.NewScorer(reg).Calculate(threshold),
		Recommendations: rpt.Recommendations,
		Statistics:      rpt.Statistics,
		reg:             reg,
	}
}

// Annotate attaches up to maxLines source excerpts to each exact
// duplicate group, drawn from the lines the group's tests share.
// Unreadable source files are skipped silently.
func (a *Analysis) Annotate(r *source.Reader, maxLines int) {
	if maxLines <= 0 || len(a.ExactGroups) == 0 || a.reg == nil {
		return
	}
	a.Excerpts = make(map[string][]string)
	for _, group := range a.ExactGroups {
		lines := a.sharedLines(group[0])
		excerpt := make([]string, 0, maxLines)
		for _, ln := range lines {
			if len(excerpt) == maxLines {
				break
			}
			content := r.ReadFile(ln.File)
			text, ok := content[ln.Number]
			if !ok {
				continue
			}
			excerpt = append(excerpt, fmt.Sprintf("%s:%d: %s", ln.File, ln.Number, text))
		}
		if len(excerpt) > 0 {
			a.Excerpts[group[0]] = excerpt
		}
	}
}

// sharedLines returns the named test's covered lines in stable
// (file, number) order. Members of an exact group cover identical
// lines, so any member stands for the whole group.
func (a *Analysis) sharedLines(testName string) []coverage.Line {
	for _, rec := range a.reg.Records() {
		if rec.TestName != testName {
			continue
		}
		lines := make([]coverage.Line, 0, len(rec.Lines))
		for ln := range rec.Lines {
			lines = append(lines, ln)
		}
		sort.Slice(lines, func(i, j int) bool {
			if lines[i].File != lines[j].File {
				return lines[i].File < lines[j].File
			}
			return lines[i].Number < lines[j].Number
		})
		return lines
	}
	return nil
}
