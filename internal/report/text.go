package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// WriteText writes the analysis as human-readable styled text to the
// writer. Output uses lipgloss for color and formatting when the
// output is a TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, a *Analysis) error {
	s := DefaultStyles()

	fmt.Fprintln(w, s.Header.Render("=== Test Duplication Report ==="))
	fmt.Fprintln(w)

	writeExactSection(w, a, s)
	writeSubsetSection(w, a, s)
	writeSimilarSection(w, a, s)
	writeScoreSection(w, a, s)
	writeRecommendations(w, a, s)
	writeSummary(w, a, s)

	return nil
}

func writeExactSection(w io.Writer, a *Analysis, s Styles) {
	fmt.Fprintln(w, s.Header.Render("Exact Duplicates"))
	if len(a.ExactGroups) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    No exact duplicates found."))
		fmt.Fprintln(w)
		return
	}

	rows := make([][]string, 0)
	for i, group := range a.ExactGroups {
		for j, name := range group {
			action := "Remove"
			if j == 0 {
				action = "Keep"
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				truncate(name, 48),
				action,
			})
		}
	}
	fmt.Fprintln(w, dupTable(s, []string{"GROUP", "TEST", "ACTION"}, rows))

	for _, group := range a.ExactGroups {
		excerpt, ok := a.Excerpts[group[0]]
		if !ok {
			continue
		}
		fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf("    shared lines of %s:", group[0])))
		for _, line := range excerpt {
			fmt.Fprintln(w, s.Muted.Render("      "+truncate(line, 72)))
		}
	}
	fmt.Fprintln(w)
}

func writeSubsetSection(w io.Writer, a *Analysis, s Styles) {
	fmt.Fprintln(w, s.Header.Render("Subset Duplicates"))
	if len(a.Subsets) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    No subset duplicates found."))
		fmt.Fprintln(w)
		return
	}

	rows := make([][]string, 0, len(a.Subsets))
	for _, p := range a.Subsets {
		rows = append(rows, []string{
			truncate(p.Subset, 30),
			truncate(p.Superset, 30),
			fmt.Sprintf("%.0f%%", p.Ratio*100),
		})
	}
	fmt.Fprintln(w, dupTable(s, []string{"SUBSET", "SUPERSET", "COVERAGE"}, rows))
	fmt.Fprintln(w)
}

func writeSimilarSection(w io.Writer, a *Analysis, s Styles) {
	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf(
		"Similar Tests (threshold %.0f%%)", a.Threshold*100)))
	if len(a.Similar) == 0 {
		fmt.Fprintln(w, s.Muted.Render("    No similar tests found."))
		fmt.Fprintln(w)
		return
	}

	rows := make([][]string, 0, len(a.Similar))
	for _, p := range a.Similar {
		rows = append(rows, []string{
			truncate(p.A, 30),
			truncate(p.B, 30),
			fmt.Sprintf("%.1f%%", p.Similarity*100),
		})
	}
	fmt.Fprintln(w, dupTable(s, []string{"TEST A", "TEST B", "SIMILARITY"}, rows))
	fmt.Fprintln(w)
}

func writeScoreSection(w io.Writer, a *Analysis, s Styles) {
	fmt.Fprintln(w, s.Header.Render("Quality Score"))
	grade := s.GradeStyle(a.Score.Grade).Render(a.Score.Grade)
	fmt.Fprintf(w, "    %s%s\n",
		s.SummaryLabel.Render("Overall:"),
		s.SummaryValue.Render(fmt.Sprintf("%.1f/100 (%s)", a.Score.Overall, grade)))
	fmt.Fprintf(w, "    %s%s\n",
		s.SummaryLabel.Render("Duplication:"),
		s.SummaryValue.Render(fmt.Sprintf("%.1f", a.Score.Duplication)))
	fmt.Fprintf(w, "    %s%s\n",
		s.SummaryLabel.Render("Efficiency:"),
		s.SummaryValue.Render(fmt.Sprintf("%.1f", a.Score.CoverageEfficiency)))
	fmt.Fprintf(w, "    %s%s\n",
		s.SummaryLabel.Render("Uniqueness:"),
		s.SummaryValue.Render(fmt.Sprintf("%.1f", a.Score.Uniqueness)))
	fmt.Fprintln(w)
}

func writeRecommendations(w io.Writer, a *Analysis, s Styles) {
	if len(a.Recommendations) == 0 {
		return
	}
	fmt.Fprintln(w, s.Header.Render("Recommendations"))
	for _, rec := range a.Recommendations {
		tag := s.PriorityStyle(string(rec.Priority)).Render(
			fmt.Sprintf("[%s]", strings.ToUpper(string(rec.Priority))))
		fmt.Fprintf(w, "    %s %s\n", tag, rec.Message)
	}
	fmt.Fprintln(w)
}

func writeSummary(w io.Writer, a *Analysis, s Styles) {
	st := a.Statistics
	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf(
		"%d test(s) analyzed, %d exact duplicate(s) in %d group(s), "+
			"%d subset(s), %d similar pair(s)",
		st.TotalTests, st.ExactDuplicates, st.DuplicateGroups,
		st.SubsetDuplicates, st.SimilarPairs)))
}

// dupTable renders a section table in the shared visual style.
// Budget: 80 cols total, minus 4 for left indent.
func dupTable(s Styles, headers []string, rows [][]string) string {
	return table.New().
		Width(76).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			return s.TableCell
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}
