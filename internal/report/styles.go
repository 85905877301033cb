package report

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers (e.g. "=== Exact Duplicates ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// PriorityHigh through PriorityLow color-code recommendation priorities.
	PriorityHigh   lipgloss.Style
	PriorityMedium lipgloss.Style
	PriorityLow    lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// GradeGood styles grades A and B.
	GradeGood lipgloss.Style

	// GradeWarn styles grade C.
	GradeWarn lipgloss.Style

	// GradeBad styles grades D and F.
	GradeBad lipgloss.Style

	// SummaryLabel styles summary line labels.
	SummaryLabel lipgloss.Style

	// SummaryValue styles summary line values.
	SummaryValue lipgloss.Style

	// Pass styles PASS indicators.
	Pass lipgloss.Style

	// Fail styles FAIL indicators.
	Fail lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		PriorityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		PriorityMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		PriorityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("75")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		GradeGood: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		GradeWarn: lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		GradeBad:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		SummaryLabel: lipgloss.NewStyle().Bold(true).Width(20),
		SummaryValue: lipgloss.NewStyle(),

		Pass: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Fail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// PriorityStyle returns the appropriate style for a priority string.
func (s Styles) PriorityStyle(priority string) lipgloss.Style {
	switch priority {
	case "high":
		return s.PriorityHigh
	case "medium":
		return s.PriorityMedium
	case "low":
		return s.PriorityLow
	default:
		return s.Muted
	}
}

// GradeStyle returns the appropriate style for a letter grade.
func (s Styles) GradeStyle(grade string) lipgloss.Style {
	if grade == "" {
		return s.Muted
	}
	switch grade[0] {
	case 'A', 'B':
		return s.GradeGood
	case 'C':
		return s.GradeWarn
	default:
		return s.GradeBad
	}
}
