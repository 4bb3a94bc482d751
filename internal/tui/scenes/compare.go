package scenes

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/ichra/internal/compare"
	"github.com/rgehrsitz/ichra/internal/tui/components"
	"github.com/rgehrsitz/ichra/internal/tui/tuimsg"
	"github.com/rgehrsitz/ichra/internal/tui/tuistyles"
)

var selectKey = key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details"))

// CompareModel is the ranked strategy comparison scene
type CompareModel struct {
	set    *compare.ComparisonSet
	table  table.Model
	width  int
	height int
}

// NewCompareModel creates a new compare scene model
func NewCompareModel() *CompareModel {
	t := table.New(table.WithFocused(true), table.WithHeight(8))
	t.SetStyles(tableStyles())
	return &CompareModel{table: t}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(tuistyles.ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(tuistyles.ColorPrimary)
	s.Selected = tuistyles.TableHighlightStyle
	return s
}

// SetComparison replaces the comparison and resets the cursor to the best outcome
func (m *CompareModel) SetComparison(set *compare.ComparisonSet) {
	m.set = set
	if set == nil {
		m.table.SetRows(nil)
		return
	}
	m.table.SetColumns(comparisonColumns(set.Mode))
	rows := make([]table.Row, 0, len(set.Outcomes))
	for _, o := range set.Outcomes {
		rows = append(rows, comparisonRow(set.Mode, o))
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

// SetSize updates the model dimensions
func (m *CompareModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(4, min(len(m.table.Rows())+2, height-16)))
}

func comparisonColumns(mode compare.OperatingMode) []table.Column {
	status := "Covered"
	switch mode {
	case compare.ModeALE:
		status = "Affordable"
	case compare.ModeSubsidy:
		status = "Subsidy Elig."
	}
	return []table.Column{
		{Title: "#", Width: 3},
		{Title: "Strategy", Width: 26},
		{Title: "Base", Width: 11},
		{Title: "Monthly", Width: 13},
		{Title: "Annual", Width: 14},
		{Title: status, Width: 13},
	}
}

func comparisonRow(mode compare.OperatingMode, o compare.StrategyOutcome) table.Row {
	status := fmt.Sprintf("%d", o.EmployeesCovered)
	switch mode {
	case compare.ModeALE:
		status = "n/a"
		if o.AffordablePct != nil {
			status = o.AffordablePct.StringFixed(1) + "%"
			if !o.AllAffordable {
				status += " !"
			}
		}
	case compare.ModeSubsidy:
		status = fmt.Sprintf("%d", o.SubsidyEligible)
	}
	return table.Row{
		fmt.Sprintf("%d", o.Rank),
		o.Name,
		tuistyles.FormatCurrency(o.BaseContribution),
		tuistyles.FormatCurrency(o.TotalMonthly),
		tuistyles.FormatCurrency(o.TotalAnnual),
		status,
	}
}

// Selected returns the outcome under the cursor
func (m *CompareModel) Selected() *compare.StrategyOutcome {
	if m.set == nil {
		return nil
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.set.Outcomes) {
		return nil
	}
	return &m.set.Outcomes[i]
}

// Update handles messages for the compare scene
func (m *CompareModel) Update(msg tea.Msg) (*CompareModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, selectKey) {
		outcome := m.Selected()
		if outcome == nil {
			return m, nil
		}
		return m, func() tea.Msg { return tuimsg.OutcomeSelectedMsg{Outcome: outcome} }
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the compare scene
func (m *CompareModel) View() string {
	if m.set == nil || len(m.set.Outcomes) == 0 {
		return tuistyles.BorderStyle.Render("No strategies to compare.\n\nPress m to switch operating mode.")
	}

	var content strings.Builder
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(tuistyles.ColorPrimary)
	content.WriteString(titleStyle.Render("Contribution Strategy Comparison"))
	content.WriteString("\n")
	header := fmt.Sprintf("Mode: %s  •  Employees: %d", m.set.Mode.Description(), m.set.EmployeeCount)
	if m.set.SafeHarbor != "" {
		header += "  •  Safe harbor: " + string(m.set.SafeHarbor)
	}
	content.WriteString(tuistyles.SubtitleStyle.Render(header))
	content.WriteString("\n\n")
	content.WriteString(m.table.View())
	content.WriteString("\n\n")

	chart := components.NewBarChart("Annual Cost")
	for _, o := range m.set.Outcomes {
		chart.Add(o.Name, o.TotalAnnual)
	}
	content.WriteString(chart.WithWidth(30).Render())

	if len(m.set.Recommendations) > 0 {
		content.WriteString("\n\n")
		content.WriteString(tuistyles.SectionStyle.Render("Recommendations"))
		for _, r := range m.set.Recommendations {
			content.WriteString("\n  • ")
			content.WriteString(r)
		}
	}
	content.WriteString("\n\n")
	content.WriteString(tuistyles.HelpDescStyle.Render("↑/↓ move • enter details • m mode • esc back"))
	return content.String()
}
