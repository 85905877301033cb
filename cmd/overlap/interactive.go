package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/overlap/internal/report"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	keepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	removeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// reportModel is the Bubble Tea model for browsing a duplication
// report.
type reportModel struct {
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	content  string
}

func newReportModel(a *report.Analysis) reportModel {
	return reportModel{
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderReportContent(a),
	}
}

func renderReportContent(a *report.Analysis) string {
	var sb strings.Builder

	st := a.Statistics
	sb.WriteString(titleStyle.Render(fmt.Sprintf(
		"Test Overlap: %d test(s), %d exact duplicate(s), %d subset(s), %d similar",
		st.TotalTests, st.ExactDuplicates, st.SubsetDuplicates, st.SimilarPairs)))
	sb.WriteString("\n\n")

	sb.WriteString(tuiHeaderStyle.Render("=== Exact Duplicates ==="))
	sb.WriteString("\n")
	if len(a.ExactGroups) == 0 {
		sb.WriteString(statusStyle.Render("    No exact duplicates found."))
		sb.WriteString("\n\n")
	} else {
		rows := make([][]string, 0)
		for i, group := range a.ExactGroups {
			for j, name := range group {
				action := "Remove"
				if j == 0 {
					action = "Keep"
				}
				rows = append(rows, []string{fmt.Sprintf("%d", i+1), name, action})
			}
		}
		sb.WriteString(tuiTable([]string{"GROUP", "TEST", "ACTION"}, rows, func(row int) lipgloss.Style {
			if rows[row][2] == "Keep" {
				return keepStyle
			}
			return removeStyle
		}))
		sb.WriteString("\n\n")
	}

	sb.WriteString(tuiHeaderStyle.Render("=== Subset Duplicates ==="))
	sb.WriteString("\n")
	if len(a.Subsets) == 0 {
		sb.WriteString(statusStyle.Render("    No subset duplicates found."))
		sb.WriteString("\n\n")
	} else {
		rows := make([][]string, 0, len(a.Subsets))
		for _, p := range a.Subsets {
			rows = append(rows, []string{
				p.Subset, p.Superset, fmt.Sprintf("%.0f%%", p.Ratio*100),
			})
		}
		sb.WriteString(tuiTable([]string{"SUBSET", "SUPERSET", "COVERAGE"}, rows, nil))
		sb.WriteString("\n\n")
	}

	sb.WriteString(tuiHeaderStyle.Render(fmt.Sprintf(
		"=== Similar Tests (threshold %.0f%%) ===", a.Threshold*100)))
	sb.WriteString("\n")
	if len(a.Similar) == 0 {
		sb.WriteString(statusStyle.Render("    No similar tests found."))
		sb.WriteString("\n\n")
	} else {
		rows := make([][]string, 0, len(a.Similar))
		for _, p := range a.Similar {
			rows = append(rows, []string{
				p.A, p.B, fmt.Sprintf("%.1f%%", p.Similarity*100),
			})
		}
		sb.WriteString(tuiTable([]string{"TEST A", "TEST B", "SIMILARITY"}, rows, nil))
		sb.WriteString("\n\n")
	}

	sb.WriteString(tuiHeaderStyle.Render(fmt.Sprintf(
		"Quality: %.1f/100 (%s)", a.Score.Overall, a.Score.Grade)))
	sb.WriteString("\n")
	for _, rec := range a.Recommendations {
		sb.WriteString(statusStyle.Render(fmt.Sprintf(
			"    [%s] %s", strings.ToUpper(string(rec.Priority)), rec.Message)))
		sb.WriteString("\n")
	}

	return sb.String()
}

// tuiTable renders a rounded-border table; rowStyle, when non-nil,
// styles whole data rows.
func tuiTable(headers []string, rows [][]string, rowStyle func(row int) lipgloss.Style) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tuiBorderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tuiHeaderStyle
			}
			if rowStyle != nil && row >= 0 && row < len(rows) {
				return rowStyle(row)
			}
			return lipgloss.NewStyle()
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

func (m reportModel) Init() tea.Cmd {
	return nil
}

func (m reportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 0
		footerHeight := 2
		verticalMargin := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMargin)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMargin
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m reportModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveReport launches the Bubble Tea TUI for browsing the
// analysis.
func runInteractiveReport(a *report.Analysis) error {
	model := newReportModel(a)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
