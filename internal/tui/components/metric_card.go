package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/ichra/internal/tui/tuistyles"
	"github.com/shopspring/decimal"
)

// MetricCard displays a single figure with a label and an optional delta
type MetricCard struct {
	Label       string
	Value       string
	Delta       *Delta
	Description string
	Width       int
}

// Delta is a change shown under the value. Favorable deltas render green.
type Delta struct {
	Favorable bool
	Change    string
}

// NewMetricCard creates a new metric card
func NewMetricCard(label, value string) *MetricCard {
	return &MetricCard{
		Label: label,
		Value: value,
		Width: 24,
	}
}

// NewMoneyCard creates a card for a dollar amount
func NewMoneyCard(label string, amount decimal.Decimal) *MetricCard {
	return NewMetricCard(label, tuistyles.FormatCurrency(amount))
}

// NewCountCard creates a card for "n of total"
func NewCountCard(label string, n, total int) *MetricCard {
	return NewMetricCard(label, fmt.Sprintf("%d / %d", n, total))
}

// WithSpendDelta shows a change in employer spend; a decrease is favorable
func (m *MetricCard) WithSpendDelta(change decimal.Decimal) *MetricCard {
	if change.IsZero() {
		return m
	}
	sign := "+"
	if change.IsNegative() {
		sign = "-"
	}
	m.Delta = &Delta{
		Favorable: change.IsNegative(),
		Change:    sign + tuistyles.FormatCurrency(change.Abs()),
	}
	return m
}

// WithDescription adds a description/subtitle
func (m *MetricCard) WithDescription(desc string) *MetricCard {
	m.Description = desc
	return m
}

// WithWidth sets the card width
func (m *MetricCard) WithWidth(width int) *MetricCard {
	m.Width = width
	return m
}

// Render returns the styled metric card
func (m *MetricCard) Render() string {
	content := tuistyles.MetricLabelStyle.Render(m.Label) + "\n" + tuistyles.MetricValueStyle.Render(m.Value)
	if m.Delta != nil {
		arrow := tuistyles.TrendIndicator(!m.Delta.Favorable)
		content += "\n" + tuistyles.MetricTrendStyle(m.Delta.Favorable).Render(arrow+" "+m.Delta.Change)
	}
	if m.Description != "" {
		content += "\n" + tuistyles.SubtitleStyle.Render(m.Description)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(tuistyles.ColorBorder).
		Padding(0, 1).
		Width(m.Width).
		Render(content)
}

// RenderCompact returns an inline version without border
func (m *MetricCard) RenderCompact() string {
	out := tuistyles.MetricLabelStyle.Render(m.Label+":") + " " + tuistyles.MetricValueStyle.Render(m.Value)
	if m.Delta != nil {
		out += " " + tuistyles.MetricTrendStyle(m.Delta.Favorable).Render(m.Delta.Change)
	}
	return out
}

// MetricGrid renders cards in rows of the given number of columns
func MetricGrid(cards []*MetricCard, columns int) string {
	if len(cards) == 0 {
		return ""
	}
	if columns < 1 {
		columns = 1
	}

	var rows, current []string
	for i, card := range cards {
		current = append(current, card.Render())
		if (i+1)%columns == 0 || i == len(cards)-1 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, current...))
			current = nil
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
