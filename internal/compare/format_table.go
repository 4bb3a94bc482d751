package compare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing strategies
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("CONTRIBUTION STRATEGY COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Mode: %s (%s)\n", compSet.Mode, compSet.Mode.Description()))
	sb.WriteString(fmt.Sprintf("Employees: %d\n", compSet.EmployeeCount))
	if compSet.SafeHarbor != "" {
		sb.WriteString(fmt.Sprintf("Safe Harbor: %s\n", compSet.SafeHarbor))
	}
	if compSet.CensusPath != "" {
		sb.WriteString(fmt.Sprintf("Census: %s\n", compSet.CensusPath))
	}
	sb.WriteString("\n")

	nameWidth := 28
	numWidth := 14

	sb.WriteString(fmt.Sprintf("%-4s %-*s %*s %*s %*s\n",
		"#",
		nameWidth, "Strategy",
		numWidth, "Monthly",
		numWidth, "Annual",
		numWidth, tf.statusHeader(compSet)))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	for _, o := range compSet.Outcomes {
		sb.WriteString(tf.formatRow(&o, compSet.Mode, nameWidth, numWidth))
	}
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nRECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (tf *TableFormatter) statusHeader(compSet *ComparisonSet) string {
	switch compSet.Mode {
	case ModeALE:
		return "Affordable"
	case ModeSubsidy:
		return "Subsidy Elig."
	}
	return "Covered"
}

// formatRow formats a single strategy row
func (tf *TableFormatter) formatRow(o *StrategyOutcome, mode OperatingMode, nameWidth, numWidth int) string {
	status := fmt.Sprintf("%d", o.EmployeesCovered)
	switch mode {
	case ModeALE:
		if o.AffordablePct != nil {
			status = o.AffordablePct.StringFixed(1) + "%"
		}
		if !o.AllAffordable {
			status += " !"
		}
	case ModeSubsidy:
		status = fmt.Sprintf("%d", o.SubsidyEligible)
	}

	return fmt.Sprintf("%-4d %-*s %*s %*s %*s\n",
		o.Rank,
		nameWidth, tf.truncate(o.Name, nameWidth),
		numWidth, "$"+tf.formatDecimal(o.TotalMonthly),
		numWidth, "$"+tf.formatDecimal(o.TotalAnnual),
		numWidth, status)
}

// FormatSafeHarbors renders a safe harbor cost comparison
func (tf *TableFormatter) FormatSafeHarbors(cmp *SafeHarborComparison) string {
	var sb strings.Builder

	sb.WriteString("SAFE HARBOR COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	for _, h := range []HarborCost{cmp.FPL, cmp.RateOfPay, cmp.W2} {
		cost := "n/a"
		if h.Available && h.MonthlyCost != nil {
			cost = "$" + h.MonthlyCost.StringFixed(2) + "/mo"
		}
		sb.WriteString(fmt.Sprintf("%-14s %16s  %s\n", h.SafeHarbor, cost, h.Description))
	}
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Cheaper: %s", cmp.Cheaper))
	if cmp.MonthlySaving.IsPositive() {
		sb.WriteString(fmt.Sprintf(" (saves $%s/mo)", cmp.MonthlySaving.StringFixed(2)))
	}
	sb.WriteString("\n")
	return sb.String()
}

// FormatImpact renders a before/after affordability impact
func (tf *TableFormatter) FormatImpact(impact *AffordabilityImpact) string {
	var sb strings.Builder

	sb.WriteString("AFFORDABILITY IMPACT\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("%-22s %14s %14s\n", "", "Before", "After"))
	sb.WriteString(fmt.Sprintf("%-22s %14s %14s\n", "Affordable",
		fmt.Sprintf("%d/%d", impact.Before.AffordableCount, impact.Before.EmployeesAnalyzed),
		fmt.Sprintf("%d/%d", impact.After.AffordableCount, impact.After.EmployeesAnalyzed)))
	sb.WriteString(fmt.Sprintf("%-22s %14s %14s\n", "Affordable %",
		impact.Before.AffordablePct.StringFixed(1), impact.After.AffordablePct.StringFixed(1)))
	sb.WriteString(fmt.Sprintf("%-22s %14s %14s\n", "Annual Spend",
		"$"+tf.formatDecimal(impact.Before.AnnualSpend), "$"+tf.formatDecimal(impact.After.AnnualSpend)))
	sb.WriteString(fmt.Sprintf("%-22s %14s %14s\n", "Annual Gap",
		"$"+tf.formatDecimal(impact.Before.TotalGapAnnual), "$"+tf.formatDecimal(impact.After.TotalGapAnnual)))
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Employees gained: %s%d\n", tf.deltaSymbol(decimal.NewFromInt(int64(impact.EmployeesGained))), impact.EmployeesGained))

	if len(impact.Unaffordable) > 0 {
		sb.WriteString("\nSTILL UNAFFORDABLE\n")
		for _, u := range impact.Unaffordable {
			sb.WriteString(fmt.Sprintf("  %-12s offer $%s, needs $%s (+$%s)\n",
				u.EmployeeID, u.Contribution.StringFixed(2), u.MinAffordable.StringFixed(2), u.AdditionalNeeded.StringFixed(2)))
		}
	}
	return sb.String()
}

// formatDecimal formats a decimal for display in thousands or millions
func (tf *TableFormatter) formatDecimal(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		return d.Div(decimal.NewFromInt(1000000)).StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(10000)) {
		return d.Div(decimal.NewFromInt(1000)).StringFixed(1) + "K"
	}
	return d.StringFixed(2)
}

// deltaSymbol returns + for positive deltas
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	}
	return ""
}

// truncate truncates a string to maxLen
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatCompact creates a one-line summary of the ranking
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s | ", compSet.Mode))
	for i, o := range compSet.Outcomes {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(fmt.Sprintf("%d. %s: $%s/mo", o.Rank, o.Name, o.TotalMonthly.StringFixed(0)))
	}
	return sb.String()
}
