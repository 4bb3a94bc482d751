package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
)

// CSVFormatter renders the most detailed per-employee section of a report as
// one CSV table: strategy lines, then class assignments, analysis rows,
// subsidy rows, renewal rows, recommendation tiers and pattern tiers.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(report *Report) ([]byte, error) {
	header, rows := c.table(report)
	if header == nil {
		return nil, fmt.Errorf("report has no tabular section")
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c CSVFormatter) table(report *Report) ([]string, [][]string) {
	switch {
	case report.Strategy != nil:
		return strategyTable(report.Strategy)
	case report.ClassModel != nil:
		return classTable(report.ClassModel)
	case report.Analysis != nil && report.Analysis.Error == nil:
		return analysisTable(report.Analysis)
	case report.Subsidy != nil:
		return subsidyTable(report.Subsidy)
	case len(report.Renewal) > 0:
		return renewalTable(report.Renewal)
	case report.Recommendations != nil:
		return recommendationTable(report.Recommendations)
	case report.Patterns != nil:
		return patternTable(report.Patterns)
	}
	return nil, nil
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func moneyPtr(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func boolPtr(b *bool) string {
	if b == nil {
		return ""
	}
	return strconv.FormatBool(*b)
}

func strategyTable(r *domain.StrategyResult) ([]string, [][]string) {
	header := []string{"employee_id", "age", "state", "family_status", "age_tier", "lcsp",
		"base_contribution", "family_multiplier", "location_adjustment", "monthly_contribution", "affordable"}
	rows := make([][]string, 0, len(r.Employees))
	for _, e := range r.Employees {
		affordable := ""
		if e.Verdict != nil {
			affordable = strconv.FormatBool(e.Verdict.Affordable)
		}
		rows = append(rows, []string{
			e.EmployeeID, strconv.Itoa(e.Age), e.State, string(e.FamilyStatus), e.AgeTier,
			money(e.LCSP), money(e.BaseContribution), e.FamilyMultiplier.String(),
			money(e.LocationAdjustment), money(e.Contribution), affordable,
		})
	}
	return header, rows
}

func classTable(m *domain.ClassModel) ([]string, [][]string) {
	header := []string{"employee_id", "class_id", "monthly_contribution", "fallback"}
	rows := make([][]string, 0, len(m.Assignments))
	for _, a := range m.Assignments {
		rows = append(rows, []string{a.EmployeeID, a.ClassID, money(a.Contribution), strconv.FormatBool(a.Fallback)})
	}
	return header, rows
}

func analysisTable(a *domain.WorkforceAnalysis) ([]string, [][]string) {
	header := []string{"employee_id", "age", "state", "rating_area_id", "age_band", "family_status", "lcsp",
		"monthly_income", "max_employee_contribution", "min_employer_contribution",
		"current_er_contribution", "gap", "affordable_at_current"}
	rows := make([][]string, 0, len(a.Employees))
	for _, e := range a.Employees {
		rows = append(rows, []string{
			e.EmployeeID, strconv.Itoa(e.Age), e.State, strconv.Itoa(e.RatingArea), e.AgeBand,
			string(e.FamilyStatus), money(e.LCSP), moneyPtr(e.MonthlyIncome),
			moneyPtr(e.MaxEmployeeContribution), moneyPtr(e.MinEmployerContribution),
			money(e.CurrentERContribution), moneyPtr(e.Gap), boolPtr(e.IsAffordableAtCurrent),
		})
	}
	return header, rows
}

func subsidyTable(s *domain.SubsidyWorkforceSummary) ([]string, [][]string) {
	header := []string{"employee_id", "age", "state", "family_status", "lcsp", "slcsp", "er_contribution",
		"ichra_affordable", "subsidy_eligible", "monthly_subsidy", "recommendation", "max_contribution_for_eligibility"}
	rows := make([][]string, 0, len(s.Employees))
	for _, e := range s.Employees {
		rows = append(rows, []string{
			e.EmployeeID, strconv.Itoa(e.Age), e.State, string(e.FamilyStatus),
			moneyPtr(e.LCSP), moneyPtr(e.SLCSP), money(e.ERContribution), boolPtr(e.ICHRAAffordable),
			strconv.FormatBool(e.Subsidy.Eligible), money(e.Subsidy.MonthlySubsidy),
			string(e.Recommendation), moneyPtr(e.MaxContributionForEligibility),
		})
	}
	return header, rows
}

func renewalTable(rows []domain.RenewalProjection) ([]string, [][]string) {
	header := []string{"employee_id", "family_status", "renewal_premium", "projected_er", "projected_ee", "method", "used_fallback"}
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.EmployeeID, string(r.FamilyStatus), money(r.RenewalPremium), money(r.ProjectedER),
			money(r.ProjectedEE), string(r.Method), strconv.FormatBool(r.UsedFallback),
		})
	}
	return header, out
}

func recommendationTable(set *domain.RecommendationSet) ([]string, [][]string) {
	header := []string{"recommendation", "tier", "contribution", "employee_count", "total_monthly", "annual_cost"}
	var rows [][]string
	for _, rec := range set.Recommendations {
		for _, t := range rec.Tiers {
			rows = append(rows, []string{
				string(rec.Type), t.Label, money(t.Contribution), strconv.Itoa(t.EmployeeCount),
				money(t.TotalMonthly), money(rec.AnnualCost),
			})
		}
	}
	return header, rows
}

func patternTable(p *domain.PatternResult) ([]string, [][]string) {
	header := []string{"family_status", "pattern_type", "employee_count", "er_percentage", "er_percentage_cv",
		"flat_amount", "flat_amount_cv", "confidence", "needs_review"}
	rows := make([][]string, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		rows = append(rows, []string{
			string(t.FamilyStatus), string(t.PatternType), strconv.Itoa(t.EmployeeCount),
			t.ERPercentage.StringFixed(4), t.ERPercentCV.StringFixed(4), money(t.FlatAmount),
			t.FlatAmountCV.StringFixed(4), string(t.Confidence), strconv.FormatBool(t.NeedsReview),
		})
	}
	return header, rows
}
