package compare

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Rank",
		"Strategy",
		"Type",
		"Base Contribution",
		"Monthly Total",
		"Annual Total",
		"Employees Covered",
		"Affordable %",
		"All Affordable",
		"Subsidy Eligible",
		"Vs Current (Monthly)",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	for _, o := range compSet.Outcomes {
		if err := writer.Write(cf.formatRow(&o)); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats one outcome as a CSV row; absent values are empty cells
func (cf *CSVFormatter) formatRow(o *StrategyOutcome) []string {
	pct, vsCurrent := "", ""
	if o.AffordablePct != nil {
		pct = o.AffordablePct.StringFixed(1)
	}
	if o.VsCurrentMonthly != nil {
		vsCurrent = o.VsCurrentMonthly.StringFixed(2)
	}
	return []string{
		strconv.Itoa(o.Rank),
		o.Name,
		string(o.Kind),
		o.BaseContribution.StringFixed(2),
		o.TotalMonthly.StringFixed(2),
		o.TotalAnnual.StringFixed(2),
		strconv.Itoa(o.EmployeesCovered),
		pct,
		strconv.FormatBool(o.AllAffordable),
		strconv.Itoa(o.SubsidyEligible),
		vsCurrent,
	}
}
