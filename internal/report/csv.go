package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the analysis as CSV: a summary metrics block
// followed by one sectioned row group per finding type. Every row
// starts with a section tag so the file stays parseable as a single
// table.
func WriteCSV(w io.Writer, a *Analysis) error {
	cw := csv.NewWriter(w)

	st := a.Statistics
	summary := [][]string{
		{"section", "field", "value", "extra"},
		{"summary", "total_tests", fmt.Sprintf("%d", st.TotalTests), ""},
		{"summary", "exact_duplicates", fmt.Sprintf("%d", st.ExactDuplicates), ""},
		{"summary", "duplicate_groups", fmt.Sprintf("%d", st.DuplicateGroups), ""},
		{"summary", "subset_duplicates", fmt.Sprintf("%d", st.SubsetDuplicates), ""},
		{"summary", "similar_pairs", fmt.Sprintf("%d", st.SimilarPairs), ""},
		{"summary", "overall_score", fmt.Sprintf("%.1f", a.Score.Overall), a.Score.Grade},
	}
	for _, row := range summary {
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for i, group := range a.ExactGroups {
		for j, name := range group {
			action := "Remove"
			if j == 0 {
				action = "Keep"
			}
			row := []string{"exact", fmt.Sprintf("group_%d", i+1), name, action}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}

	for _, p := range a.Subsets {
		row := []string{"subset", p.Subset, p.Superset, fmt.Sprintf("%.4f", p.Ratio)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	for _, p := range a.Similar {
		row := []string{"similar", p.A, p.B, fmt.Sprintf("%.4f", p.Similarity)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
