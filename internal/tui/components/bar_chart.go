package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/ichra/internal/tui/tuistyles"
	"github.com/shopspring/decimal"
)

// Bar is one labelled amount in a bar chart
type Bar struct {
	Label string
	Value decimal.Decimal
	Note  string
}

// BarChart draws horizontal bars scaled to the largest value
type BarChart struct {
	Title string
	Bars  []Bar
	Width int
	Color lipgloss.Color
}

// NewBarChart creates a new bar chart
func NewBarChart(title string) *BarChart {
	return &BarChart{
		Title: title,
		Width: 40,
		Color: tuistyles.ColorPrimary,
	}
}

// Add appends a bar
func (c *BarChart) Add(label string, value decimal.Decimal) *BarChart {
	c.Bars = append(c.Bars, Bar{Label: label, Value: value})
	return c
}

// AddWithNote appends a bar with trailing text such as an employee count
func (c *BarChart) AddWithNote(label string, value decimal.Decimal, note string) *BarChart {
	c.Bars = append(c.Bars, Bar{Label: label, Value: value, Note: note})
	return c
}

// WithWidth sets the width of the longest bar
func (c *BarChart) WithWidth(width int) *BarChart {
	c.Width = width
	return c
}

// Render returns the styled chart
func (c *BarChart) Render() string {
	if len(c.Bars) == 0 {
		return tuistyles.InfoStyle.Render("No data to display")
	}

	labelWidth := 0
	peak := decimal.Zero
	for _, b := range c.Bars {
		labelWidth = max(labelWidth, lipgloss.Width(b.Label))
		if b.Value.GreaterThan(peak) {
			peak = b.Value
		}
	}

	var sb strings.Builder
	if c.Title != "" {
		sb.WriteString(tuistyles.SectionStyle.Render(c.Title))
		sb.WriteString("\n")
	}
	barStyle := lipgloss.NewStyle().Foreground(c.Color)
	for _, b := range c.Bars {
		n := barLength(b.Value, peak, c.Width)
		line := fmt.Sprintf("%-*s %s%s %s", labelWidth, b.Label,
			barStyle.Render(strings.Repeat("█", n)), strings.Repeat(" ", c.Width-n), tuistyles.FormatCurrency(b.Value))
		if b.Note != "" {
			line += " " + tuistyles.SubtitleStyle.Render(b.Note)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// barLength scales a value to width; positive values always get at least one cell
func barLength(value, peak decimal.Decimal, width int) int {
	if !value.IsPositive() || !peak.IsPositive() || width <= 0 {
		return 0
	}
	n := int(value.Mul(decimal.NewFromInt(int64(width))).Div(peak).IntPart())
	return min(max(n, 1), width)
}
