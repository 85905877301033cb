package report

import (
	"encoding/json"
	"io"

	"github.com/unbound-force/overlap/internal/analysis"
)

// JSONReport is the top-level JSON output structure.
type JSONReport struct {
	Version          string                    `json:"version"`
	Threshold        float64                   `json:"threshold"`
	ExactDuplicates  [][]string                `json:"exact_duplicates"`
	SubsetDuplicates [][]any                   `json:"subset_duplicates"`
	SimilarTests     [][]any                   `json:"similar_tests"`
	Summary          analysis.Statistics       `json:"summary"`
	Score            analysis.Score            `json:"score"`
	Recommendations  []analysis.Recommendation `json:"recommendations"`
}

// WriteJSON writes the analysis as formatted JSON to the writer. The
// structure is documented by the Schema constant. Subset entries are
// [subset, superset, ratio] triples; similar entries are
// [a, b, similarity] triples.
func WriteJSON(w io.Writer, a *Analysis) error {
	rpt := JSONReport{
		Version:          "0.1.0",
		Threshold:        a.Threshold,
		ExactDuplicates:  a.ExactGroups,
		SubsetDuplicates: [][]any{},
		SimilarTests:     [][]any{},
		Summary:          a.Statistics,
		Score:            a.Score,
		Recommendations:  a.Recommendations,
	}
	if rpt.ExactDuplicates == nil {
		rpt.ExactDuplicates = [][]string{}
	}
	for _, p := range a.Subsets {
		rpt.SubsetDuplicates = append(rpt.SubsetDuplicates,
			[]any{p.Subset, p.Superset, p.Ratio})
	}
	for _, p := range a.Similar {
		rpt.SimilarTests = append(rpt.SimilarTests,
			[]any{p.A, p.B, p.Similarity})
	}
	if rpt.Recommendations == nil {
		rpt.Recommendations = []analysis.Recommendation{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rpt)
}
