package report

import (
	"fmt"
	"io"
	"strings"
)

// WriteMarkdown writes the analysis as a GitHub-flavored Markdown
// document suitable for CI job summaries and pull request comments.
func WriteMarkdown(w io.Writer, a *Analysis) error {
	st := a.Statistics

	fmt.Fprintln(w, "# Test Duplication Report")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "**Overall score:** %.1f/100 (%s)\n\n", a.Score.Overall, a.Score.Grade)

	fmt.Fprintln(w, "| Metric | Value |")
	fmt.Fprintln(w, "|--------|-------|")
	fmt.Fprintf(w, "| Total tests | %d |\n", st.TotalTests)
	fmt.Fprintf(w, "| Exact duplicates | %d (in %d groups) |\n",
		st.ExactDuplicates, st.DuplicateGroups)
	fmt.Fprintf(w, "| Subset duplicates | %d |\n", st.SubsetDuplicates)
	fmt.Fprintf(w, "| Similar pairs | %d |\n", st.SimilarPairs)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Exact Duplicates")
	fmt.Fprintln(w)
	if len(a.ExactGroups) == 0 {
		fmt.Fprintln(w, "No exact duplicates found.")
	} else {
		fmt.Fprintln(w, "| Group | Test | Action |")
		fmt.Fprintln(w, "|-------|------|--------|")
		for i, group := range a.ExactGroups {
			for j, name := range group {
				action := "Remove"
				if j == 0 {
					action = "Keep"
				}
				fmt.Fprintf(w, "| %d | `%s` | %s |\n", i+1, mdEscape(name), action)
			}
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Subset Duplicates")
	fmt.Fprintln(w)
	if len(a.Subsets) == 0 {
		fmt.Fprintln(w, "No subset duplicates found.")
	} else {
		fmt.Fprintln(w, "| Subset | Superset | Coverage |")
		fmt.Fprintln(w, "|--------|----------|----------|")
		for _, p := range a.Subsets {
			fmt.Fprintf(w, "| `%s` | `%s` | %.0f%% |\n",
				mdEscape(p.Subset), mdEscape(p.Superset), p.Ratio*100)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "## Similar Tests (threshold %.0f%%)\n\n", a.Threshold*100)
	if len(a.Similar) == 0 {
		fmt.Fprintln(w, "No similar tests found.")
	} else {
		fmt.Fprintln(w, "| Test A | Test B | Similarity |")
		fmt.Fprintln(w, "|--------|--------|------------|")
		for _, p := range a.Similar {
			fmt.Fprintf(w, "| `%s` | `%s` | %.1f%% |\n",
				mdEscape(p.A), mdEscape(p.B), p.Similarity*100)
		}
	}
	fmt.Fprintln(w)

	if len(a.Recommendations) > 0 {
		fmt.Fprintln(w, "## Recommendations")
		fmt.Fprintln(w)
		for _, rec := range a.Recommendations {
			fmt.Fprintf(w, "- **%s**: %s\n",
				strings.ToUpper(string(rec.Priority)), rec.Message)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// mdEscape neutralizes pipe characters so test names cannot break
// table rows.
func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
