package scenes

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/ichra/internal/compare"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/tui/components"
	"github.com/rgehrsitz/ichra/internal/tui/tuistyles"
)

// ResultsModel shows one strategy's per-employee contributions
type ResultsModel struct {
	outcome *compare.StrategyOutcome
	table   table.Model
	width   int
	height  int
}

// NewResultsModel creates a new results scene model
func NewResultsModel() *ResultsModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Employee", Width: 10},
			{Title: "Age", Width: 4},
			{Title: "State", Width: 5},
			{Title: "Tier", Width: 4},
			{Title: "LCSP", Width: 11},
			{Title: "Contribution", Width: 13},
			{Title: "Affordable", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())
	return &ResultsModel{table: t}
}

// SetOutcome updates the strategy to display
func (m *ResultsModel) SetOutcome(o *compare.StrategyOutcome) {
	m.outcome = o
	var rows []table.Row
	if o != nil && o.Result != nil {
		for _, e := range o.Result.Employees {
			rows = append(rows, employeeRow(e))
		}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

// SetSize updates the scene dimensions
func (m *ResultsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetHeight(max(4, height-22))
}

func employeeRow(e domain.EmployeeContribution) table.Row {
	affordable := "-"
	if e.Verdict != nil {
		affordable = "no"
		if e.Verdict.Affordable {
			affordable = "yes"
		}
	}
	return table.Row{
		e.EmployeeID,
		fmt.Sprintf("%d", e.Age),
		e.State,
		string(e.FamilyStatus),
		tuistyles.FormatCurrency(e.LCSP),
		tuistyles.FormatCurrency(e.Contribution),
		affordable,
	}
}

// Update handles messages for the results scene
func (m *ResultsModel) Update(msg tea.Msg) (*ResultsModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the results scene
func (m *ResultsModel) View() string {
	if m.outcome == nil || m.outcome.Result == nil {
		return tuistyles.BorderStyle.Render("No strategy selected.\n\nPick one from the comparison (c) and press enter.")
	}
	o := m.outcome
	r := o.Result

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(tuistyles.ColorPrimary)
	header := titleStyle.Render(fmt.Sprintf("#%d %s", o.Rank, o.Name))
	if r.Affordability != nil {
		header += "  " + tuistyles.ComplianceBadge(r.Compliant())
	}

	cards := []*components.MetricCard{
		components.NewMoneyCard("Monthly Total", r.TotalMonthly),
		components.NewMoneyCard("Annual Total", r.TotalAnnual),
		components.NewMetricCard("Covered", fmt.Sprintf("%d", r.EmployeesCovered)),
	}
	if o.VsCurrentMonthly != nil {
		cards[0].WithSpendDelta(*o.VsCurrentMonthly)
	}
	if a := r.Affordability; a != nil {
		cards = append(cards, components.NewCountCard("Affordable", a.AffordableCount, a.EmployeesAnalyzed).
			WithDescription(string(a.SafeHarbor)))
	}

	sections := []string{header, "", components.MetricGrid(cards, len(cards))}
	if len(r.ExcludedEmployees) > 0 {
		sections = append(sections, tuistyles.WarningStyle.Render(
			fmt.Sprintf("%d employee(s) excluded for missing benchmark premium", len(r.ExcludedEmployees))))
	}
	if chart := tierChart(r.ByAgeTier); chart != "" {
		sections = append(sections, "", chart)
	}
	sections = append(sections, "", m.table.View(), "",
		tuistyles.HelpDescStyle.Render("↑/↓ scroll • c back to comparison • esc back"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func tierChart(tiers map[string]domain.TierTotal) string {
	if len(tiers) == 0 {
		return ""
	}
	labels := make([]string, 0, len(tiers))
	for k := range tiers {
		labels = append(labels, k)
	}
	sort.Strings(labels)

	chart := components.NewBarChart("Monthly by Age Tier").WithWidth(30)
	for _, l := range labels {
		chart.AddWithNote(l, tiers[l].TotalMonthly, fmt.Sprintf("(%d)", tiers[l].Count))
	}
	return chart.Render()
}
