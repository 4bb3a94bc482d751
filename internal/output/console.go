package output

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/tui/tuistyles"
	"github.com/shopspring/decimal"
)

// ConsoleFormatter renders a report as human-readable text with lipgloss headings
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(report *Report) ([]byte, error) {
	var buf bytes.Buffer

	title := report.Title
	if title == "" {
		title = "ICHRA CONTRIBUTION ANALYSIS"
	}
	fmt.Fprintln(&buf, tuistyles.TitleStyle.Render(strings.ToUpper(title)))
	if report.CensusPath != "" {
		fmt.Fprintf(&buf, "Census: %s\n", report.CensusPath)
	}
	fmt.Fprintln(&buf)

	if len(report.Assumptions) > 0 {
		section(&buf, "KEY ASSUMPTIONS")
		for _, a := range report.Assumptions {
			fmt.Fprintf(&buf, "• %s\n", a)
		}
		fmt.Fprintln(&buf)
	}

	if report.Analysis != nil {
		writeAnalysis(&buf, report.Analysis)
	}
	if report.Solver != nil {
		section(&buf, "AGE CURVE SOLVER")
		fmt.Fprintf(&buf, "Base amount at age %d: %s\n", report.Solver.BaseAge, FormatCurrency(report.Solver.BaseAmount))
		fmt.Fprintf(&buf, "Status: %s (%s)\n", tuistyles.ComplianceBadge(report.Solver.Converged), report.Solver.ConvergenceInfo)
		fmt.Fprintln(&buf)
	}
	if report.Strategy != nil {
		writeStrategy(&buf, report.Strategy)
	}
	if report.Recommendations != nil {
		writeRecommendations(&buf, report.Recommendations)
	}
	if report.ClassModel != nil {
		writeClassModel(&buf, report.ClassModel)
	}
	if report.Patterns != nil {
		writePatterns(&buf, report.Patterns)
	}
	if len(report.Renewal) > 0 {
		writeRenewal(&buf, report.Renewal)
	}
	if report.Subsidy != nil {
		writeSubsidy(&buf, report.Subsidy)
	}
	return buf.Bytes(), nil
}

func section(buf *bytes.Buffer, name string) {
	fmt.Fprintln(buf, tuistyles.SectionStyle.Render(name))
	fmt.Fprintln(buf, strings.Repeat("=", len(name)))
}

func warning(buf *bytes.Buffer, msg string) {
	fmt.Fprintln(buf, tuistyles.WarningStyle.Render("! "+msg))
}

func writeAnalysis(buf *bytes.Buffer, a *domain.WorkforceAnalysis) {
	section(buf, "WORKFORCE AFFORDABILITY")
	if a.Error != nil {
		fmt.Fprintln(buf, tuistyles.ErrorStyle.Render("Analysis failed: "+a.Error.Message))
		fmt.Fprintln(buf)
		return
	}
	s := a.Summary
	fmt.Fprintf(buf, "Employees:               %d\n", s.TotalEmployees)
	fmt.Fprintf(buf, "Analyzed (with income):  %d\n", s.EmployeesAnalyzed)
	fmt.Fprintf(buf, "Without income:          %d\n", s.EmployeesWithoutIncome)
	fmt.Fprintf(buf, "Without premium:         %d\n", s.EmployeesWithoutPremium)
	fmt.Fprintf(buf, "Affordable at current:   %d\n", s.AffordableAtCurrent)
	fmt.Fprintf(buf, "Need an increase:        %d\n", s.NeedsIncrease)
	fmt.Fprintf(buf, "Current ER spend:        %s/yr\n", FormatCurrency(s.CurrentERSpendAnnual))
	fmt.Fprintf(buf, "Minimum required spend:  %s/yr\n", FormatCurrency(s.MinRequiredSpendAnnual))
	fmt.Fprintf(buf, "Total gap:               %s/yr\n", FormatCurrency(s.TotalGapAnnual))
	fmt.Fprintf(buf, "Median minimum:          %s/mo\n", FormatCurrency(s.MedianMinContribution))
	fmt.Fprintln(buf)

	writeGroupStats(buf, "BY AGE", a.ByAgeBracket)
	writeGroupStats(buf, "BY STATE", a.ByState)

	if len(a.Flagged) > 0 {
		fmt.Fprintln(buf, "FLAGGED EMPLOYEES")
		for _, e := range a.Flagged {
			minimum := decimal.Zero
			if e.MinEmployerContribution != nil {
				minimum = *e.MinEmployerContribution
			}
			fmt.Fprintf(buf, "  %-12s age %-3d %-3s minimum %s\n", e.EmployeeID, e.Age, e.State, FormatCurrency(minimum))
		}
		fmt.Fprintln(buf)
	}
}

func writeGroupStats(buf *bytes.Buffer, title string, groups []domain.GroupStat) {
	if len(groups) == 0 {
		return
	}
	fmt.Fprintln(buf, title)
	fmt.Fprintf(buf, "  %-12s %6s %14s %14s %12s\n", "", "Count", "Avg LCSP", "Avg Minimum", "Affordable")
	for _, g := range groups {
		fmt.Fprintf(buf, "  %-12s %6d %14s %14s %11s%%\n",
			g.Label, g.Count, FormatCurrency(g.AvgLCSP), FormatCurrency(g.AvgMinERContribution), g.AffordablePct.StringFixed(1))
	}
	fmt.Fprintln(buf)
}

func writeStrategy(buf *bytes.Buffer, r *domain.StrategyResult) {
	section(buf, "STRATEGY: "+strings.ToUpper(r.Name))
	fmt.Fprintf(buf, "Employees covered:  %d\n", r.EmployeesCovered)
	fmt.Fprintf(buf, "Monthly total:      %s\n", FormatCurrency(r.TotalMonthly))
	fmt.Fprintf(buf, "Annual total:       %s\n", FormatCurrency(r.TotalAnnual))
	if len(r.ExcludedEmployees) > 0 {
		warning(buf, fmt.Sprintf("%d employee(s) excluded for missing benchmark premium", len(r.ExcludedEmployees)))
	}
	if r.EmployeesAffordabilityAdjusted > 0 {
		fmt.Fprintf(buf, "Raised to affordable minimum: %d\n", r.EmployeesAffordabilityAdjusted)
	}
	if a := r.Affordability; a != nil {
		fmt.Fprintf(buf, "Affordability (%s): %d of %d (%s%%) %s\n",
			a.SafeHarbor, a.AffordableCount, a.EmployeesAnalyzed, a.AffordablePct.StringFixed(1),
			tuistyles.ComplianceBadge(a.AllAffordable))
		if len(a.SkippedEmployees) > 0 {
			warning(buf, fmt.Sprintf("%d employee(s) skipped without income", len(a.SkippedEmployees)))
		}
	}
	if s := r.Subsidy; s != nil {
		fmt.Fprintf(buf, "Subsidy-optimized flat: %s (%d eligible, %d high ROI, %d Medicare)\n",
			FormatCurrency(s.FlatContribution), s.EligibleCount, s.HighROICount, s.MedicareCount)
		if s.ConstrainingEmployee != "" {
			fmt.Fprintf(buf, "Constrained by employee %s (age %d)\n", s.ConstrainingEmployee, s.ConstrainingAge)
		}
	}
	fmt.Fprintln(buf)

	writeTierTotals(buf, "BY AGE TIER", r.ByAgeTier)
	writeTierTotals(buf, "BY FAMILY STATUS", r.ByFamilyStatus)
	writeTierTotals(buf, "BY STATE", r.ByState)
}

func writeTierTotals(buf *bytes.Buffer, title string, tiers map[string]domain.TierTotal) {
	if len(tiers) == 0 {
		return
	}
	keys := make([]string, 0, len(tiers))
	for k := range tiers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(buf, title)
	for _, k := range keys {
		fmt.Fprintf(buf, "  %-12s %4d  %14s\n", k, tiers[k].Count, FormatCurrency(tiers[k].TotalMonthly))
	}
	fmt.Fprintln(buf)
}

func writeRecommendations(buf *bytes.Buffer, set *domain.RecommendationSet) {
	section(buf, "RECOMMENDED CONTRIBUTION STRUCTURES")
	if len(set.Recommendations) == 0 {
		fmt.Fprintln(buf, "No employees with income data; nothing to recommend.")
		fmt.Fprintln(buf)
		return
	}
	fmt.Fprintf(buf, "Based on %d employees with income data. Current spend %s/yr.\n\n",
		set.EmployeesAnalyzed, FormatCurrency(set.CurrentERSpendAnnual))

	for i, rec := range set.Recommendations {
		fmt.Fprintf(buf, "%d. %s\n", i+1, rec.Name)
		fmt.Fprintf(buf, "   %s\n", rec.Description)
		for _, t := range rec.Tiers {
			fmt.Fprintf(buf, "   %-16s %10s/mo  x %-4d = %12s/mo\n", t.Label, FormatCurrency(t.Contribution), t.EmployeeCount, FormatCurrency(t.TotalMonthly))
		}
		fmt.Fprintf(buf, "   Annual cost: %s", FormatCurrency(rec.AnnualCost))
		if rec.SavingsVsCurrent.IsPositive() {
			fmt.Fprintf(buf, " (saves %s vs current)", FormatCurrency(rec.SavingsVsCurrent))
		}
		fmt.Fprintln(buf)
		for _, p := range rec.Pros {
			fmt.Fprintf(buf, "   + %s\n", p)
		}
		for _, c := range rec.Cons {
			fmt.Fprintf(buf, "   - %s\n", c)
		}
		for _, w := range rec.Warnings {
			warning(buf, w)
		}
		fmt.Fprintln(buf)
	}
}

func writeClassModel(buf *bytes.Buffer, m *domain.ClassModel) {
	section(buf, "CONTRIBUTION CLASSES")
	fmt.Fprintf(buf, "%-24s %-4s %12s %10s\n", "Class", "Tier", "Monthly", "Employees")
	for _, c := range m.Classes {
		fmt.Fprintf(buf, "%-24s %-4s %12s %10d\n", c.ID, c.FamilyStatus, FormatCurrency(c.Contribution), c.EmployeeCount)
	}
	fmt.Fprintf(buf, "\nAssigned %d employees: %s/mo, %s/yr\n", m.EmployeesAssigned, FormatCurrency(m.TotalMonthly), FormatCurrency(m.TotalAnnual))
	for _, w := range m.Warnings {
		warning(buf, w)
	}
	fmt.Fprintln(buf)
}

func writePatterns(buf *bytes.Buffer, p *domain.PatternResult) {
	section(buf, "CURRENT CONTRIBUTION PATTERN")
	fmt.Fprintf(buf, "Overall: %s\n", p.OverallType)
	for _, t := range p.Tiers {
		detail := ""
		switch t.PatternType {
		case domain.PatternPercentage:
			detail = fmt.Sprintf("employer pays %s%% (CV %s)", t.ERPercentage.Mul(decimal100).StringFixed(1), t.ERPercentCV.StringFixed(3))
		case domain.PatternFlatRate:
			detail = fmt.Sprintf("employer pays %s flat (CV %s)", FormatCurrency(t.FlatAmount), t.FlatAmountCV.StringFixed(3))
		}
		fmt.Fprintf(buf, "  %-3s %-11s %-7s n=%-4d %s\n", t.FamilyStatus, t.PatternType, t.Confidence, t.EmployeeCount, detail)
		if t.NeedsReview && t.ReviewReason != "" {
			warning(buf, fmt.Sprintf("%s: %s", t.FamilyStatus, t.ReviewReason))
		}
	}
	for _, w := range p.Warnings {
		warning(buf, w)
	}
	fmt.Fprintln(buf)
}

func writeRenewal(buf *bytes.Buffer, rows []domain.RenewalProjection) {
	section(buf, "RENEWAL PROJECTION")
	fmt.Fprintf(buf, "%-12s %-4s %12s %12s %12s  %s\n", "Employee", "Tier", "Premium", "Employer", "Employee", "Method")
	totalER, totalEE := decimal.Zero, decimal.Zero
	for _, r := range rows {
		method := string(r.Method)
		if r.UsedFallback {
			method += " (fallback)"
		}
		fmt.Fprintf(buf, "%-12s %-4s %12s %12s %12s  %s\n", r.EmployeeID, r.FamilyStatus,
			FormatCurrency(r.RenewalPremium), FormatCurrency(r.ProjectedER), FormatCurrency(r.ProjectedEE), method)
		totalER = totalER.Add(r.ProjectedER)
		totalEE = totalEE.Add(r.ProjectedEE)
	}
	fmt.Fprintf(buf, "%-17s %12s %12s %12s\n", "Total", "", FormatCurrency(totalER), FormatCurrency(totalEE))
	fmt.Fprintln(buf)
}

func writeSubsidy(buf *bytes.Buffer, s *domain.SubsidyWorkforceSummary) {
	section(buf, "PREMIUM TAX CREDIT ANALYSIS")
	fmt.Fprintf(buf, "Employees:             %d (%d under 65, %d Medicare-eligible)\n", s.TotalEmployees, s.Under65, s.MedicareEligible)
	fmt.Fprintf(buf, "Subsidy eligible:      %d\n", s.SubsidyEligible)
	fmt.Fprintf(buf, "Better off on subsidy: %d\n", s.RecommendSubsidy)
	fmt.Fprintf(buf, "Missing income:        %d\n", s.MissingIncome)
	fmt.Fprintf(buf, "Missing benchmark:     %d\n", s.MissingBenchmark)
	fmt.Fprintf(buf, "Potential subsidies:   %s/mo\n", FormatCurrency(s.TotalMonthlySubsidy))
	fmt.Fprintln(buf)
}
