package scenes

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rgehrsitz/ichra/internal/compare"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/tui/components"
	"github.com/rgehrsitz/ichra/internal/tui/tuistyles"
)

// HomeModel is the workforce overview dashboard
type HomeModel struct {
	censusPath string
	mode       compare.OperatingMode
	analysis   *domain.WorkforceAnalysis
	comparison *compare.ComparisonSet
	width      int
	height     int
}

// NewHomeModel creates a new home scene model
func NewHomeModel(censusPath string) *HomeModel {
	return &HomeModel{censusPath: censusPath}
}

// SetData updates the analysis and comparison shown on the dashboard
func (m *HomeModel) SetData(mode compare.OperatingMode, analysis *domain.WorkforceAnalysis, set *compare.ComparisonSet) {
	m.mode = mode
	m.analysis = analysis
	m.comparison = set
}

// SetSize updates the model dimensions
func (m *HomeModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles messages for the home scene
func (m *HomeModel) Update(msg tea.Msg) (*HomeModel, tea.Cmd) {
	return m, nil
}

// View renders the home dashboard
func (m *HomeModel) View() string {
	var content strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(tuistyles.ColorPrimary)
	content.WriteString(titleStyle.Render("ICHRA Contribution Strategy Browser"))
	content.WriteString("\n")
	if m.censusPath != "" {
		content.WriteString(tuistyles.SubtitleStyle.Render("Census: " + m.censusPath))
		content.WriteString("\n")
	}
	content.WriteString("\n")

	if m.analysis == nil {
		content.WriteString(tuistyles.SubtitleStyle.Render("Analyzing workforce..."))
		return tuistyles.BorderStyle.Render(content.String())
	}

	content.WriteString(m.renderWorkforce())
	content.WriteString("\n\n")
	content.WriteString(m.renderMode())
	content.WriteString("\n\n")
	content.WriteString(m.renderQuickActions())

	return tuistyles.BorderStyle.Render(content.String())
}

func (m *HomeModel) renderWorkforce() string {
	if m.analysis.Error != nil {
		return tuistyles.ErrorStyle.Render("Analysis failed: " + m.analysis.Error.Message)
	}

	s := m.analysis.Summary
	cards := []*components.MetricCard{
		components.NewMetricCard("Employees", fmt.Sprintf("%d", s.TotalEmployees)).
			WithDescription(fmt.Sprintf("%d without income", s.EmployeesWithoutIncome)),
		components.NewCountCard("Affordable Now", s.AffordableAtCurrent, s.EmployeesAnalyzed),
		components.NewMoneyCard("Current Spend / yr", s.CurrentERSpendAnnual),
		components.NewMoneyCard("Minimum Spend / yr", s.MinRequiredSpendAnnual).
			WithSpendDelta(s.MinRequiredSpendAnnual.Sub(s.CurrentERSpendAnnual)),
	}
	columns := 4
	if m.width > 0 && m.width < 110 {
		columns = 2
	}
	return components.MetricGrid(cards, columns)
}

func (m *HomeModel) renderMode() string {
	var content strings.Builder
	content.WriteString(tuistyles.SectionStyle.Render("Operating Mode"))
	content.WriteString("\n  ")
	content.WriteString(m.mode.Description())
	content.WriteString("\n")

	if best := m.comparison.Best(); best != nil {
		line := fmt.Sprintf("  Top strategy: %s at %s/mo", best.Name, tuistyles.FormatCurrency(best.TotalMonthly))
		content.WriteString(line)
		if m.mode == compare.ModeALE {
			content.WriteString("  ")
			content.WriteString(tuistyles.ComplianceBadge(best.AllAffordable))
		}
		content.WriteString("\n")
	}
	return content.String()
}

func (m *HomeModel) renderQuickActions() string {
	actions := []struct{ key, desc string }{
		{"c", "compare strategies"},
		{"m", "switch operating mode"},
		{"r", "view the selected strategy"},
		{"?", "help"},
	}
	var content strings.Builder
	content.WriteString(tuistyles.SectionStyle.Render("Quick Actions"))
	for _, a := range actions {
		content.WriteString("\n  ")
		content.WriteString(tuistyles.HelpKeyStyle.Render(a.key))
		content.WriteString(" ")
		content.WriteString(tuistyles.HelpDescStyle.Render(a.desc))
	}
	return content.String()
}
