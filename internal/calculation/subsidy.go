package calculation

import (
	"fmt"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/premium"
	"github.com/shopspring/decimal"
)

// SubsidyInput is one household's data for a premium tax credit estimate
type SubsidyInput struct {
	Age           int
	State         string
	MonthlyIncome *decimal.Decimal
	HouseholdSize int
	Benchmark     *decimal.Decimal // monthly second-lowest-cost silver premium
}

// SubsidyCalculator estimates marketplace premium tax credits
type SubsidyCalculator struct {
	Rules         domain.SubsidyRules
	Poverty       domain.PovertyGuidelines
	Affordability *AffordabilityCalculator
	logger        Logger
}

// NewSubsidyCalculator creates a calculator with the default plan year
func NewSubsidyCalculator() *SubsidyCalculator {
	return NewSubsidyCalculatorWithConfig(domain.DefaultPlanYearConfig())
}

// NewSubsidyCalculatorWithConfig creates a calculator for a plan year
func NewSubsidyCalculatorWithConfig(cfg *domain.PlanYearConfig) *SubsidyCalculator {
	return &SubsidyCalculator{
		Rules:         cfg.Subsidy,
		Poverty:       cfg.PovertyGuidelines,
		Affordability: NewAffordabilityCalculatorWithConfig(cfg.Affordability),
		logger:        NopLogger{},
	}
}

// SetLogger sets the logger; nil restores the no-op logger
func (sc *SubsidyCalculator) SetLogger(l Logger) {
	sc.logger = orNop(l)
}

// FPLPercent returns annual income as a percentage of the poverty line
func (sc *SubsidyCalculator) FPLPercent(annualIncome decimal.Decimal, state string, householdSize int) decimal.Decimal {
	line := sc.Poverty.Line(state, householdSize)
	if !line.GreaterThan(decimal.Zero) {
		return decimal.Zero
	}
	return annualIncome.Div(line).Mul(hundred)
}

// ApplicableRate returns the expected contribution percentage for an FPL percentage,
// interpolated linearly within its bracket. A percentage on a shared bound belongs
// to the lower bracket. ok is false above the income cap.
func (sc *SubsidyCalculator) ApplicableRate(fplPct decimal.Decimal) (rate decimal.Decimal, ok bool) {
	if fplPct.GreaterThan(sc.Rules.IncomeCapPct) {
		return decimal.Zero, false
	}
	brackets := sc.Rules.Brackets
	if len(brackets) == 0 {
		return decimal.Zero, false
	}
	if fplPct.LessThan(brackets[0].LowerPct) {
		return sc.Rules.BelowFirstBracketRate, true
	}
	for _, b := range brackets {
		if fplPct.LessThanOrEqual(b.UpperPct) {
			width := b.UpperPct.Sub(b.LowerPct)
			if width.IsZero() {
				return b.LowerRate, true
			}
			position := fplPct.Sub(b.LowerPct).Div(width)
			return b.LowerRate.Add(position.Mul(b.UpperRate.Sub(b.LowerRate))), true
		}
	}
	return brackets[len(brackets)-1].UpperRate, true
}

// Calculate estimates the monthly subsidy. Medicare age is checked first;
// it excludes the household regardless of income.
func (sc *SubsidyCalculator) Calculate(in SubsidyInput) domain.SubsidyResult {
	size := in.HouseholdSize
	if size < 1 {
		size = 1
	}
	result := domain.SubsidyResult{
		HouseholdSize: size,
		PovertyLine:   sc.Poverty.Line(in.State, size),
	}

	if in.Age >= sc.Rules.MedicareAge {
		result.MedicareExcluded = true
		result.Reason = fmt.Sprintf("Age %d is Medicare eligible", in.Age)
		return result
	}
	if in.MonthlyIncome == nil || !in.MonthlyIncome.GreaterThan(decimal.Zero) {
		result.Reason = "No income data"
		return result
	}
	if in.Benchmark == nil {
		result.Reason = "No benchmark premium"
		return result
	}

	annual := in.MonthlyIncome.Mul(twelve)
	pct := sc.FPLPercent(annual, in.State, size)
	pctRounded := pct.Round(1)
	result.FPLPercent = &pctRounded

	rate, ok := sc.ApplicableRate(pct)
	if !ok {
		result.ExpectedContribution = in.Benchmark.Round(2)
		result.Reason = fmt.Sprintf("Income is %s%% of FPL, above the %s%% cap", pctRounded.String(), sc.Rules.IncomeCapPct.String())
		return result
	}
	rateRounded := rate.Round(2)
	result.ApplicableRate = &rateRounded

	expected := annual.Mul(rate).Div(hundred).Div(twelve)
	subsidy := decimal.Max(decimal.Zero, in.Benchmark.Sub(expected))
	result.ExpectedContribution = expected.Round(2)
	result.MonthlySubsidy = subsidy.Round(2)
	result.Eligible = subsidy.GreaterThan(decimal.Zero)
	if !result.Eligible {
		result.Reason = "Expected contribution exceeds the benchmark premium"
	}
	return result
}

// MaxContributionForEligibility is the largest employer contribution that keeps the
// offer unaffordable, scaled by the eligibility buffer. Nil means any offer is affordable.
func (sc *SubsidyCalculator) MaxContributionForEligibility(monthlyIncome, lcsp decimal.Decimal) *decimal.Decimal {
	gap := lcsp.Sub(sc.Affordability.MaxEmployeeContribution(monthlyIncome))
	if !gap.GreaterThan(decimal.Zero) {
		return nil
	}
	limit := gap.Mul(sc.Rules.EligibilityBuffer)
	return &limit
}

// CanUseUnaffordabilityStrategy reports whether a safe harbor leaves room for
// deliberately unaffordable offers. The FPL harbor never does.
func CanUseUnaffordabilityStrategy(harbor domain.SafeHarbor) bool {
	return harbor != domain.SafeHarborFPL
}

// AnalyzeEmployee compares an ICHRA offer with the marketplace subsidy for one employee
func (sc *SubsidyCalculator) AnalyzeEmployee(e domain.Employee, lcsp, slcsp *decimal.Decimal, contribution decimal.Decimal) domain.EmployeeSubsidyAnalysis {
	age := e.AgeOr(premium.DefaultAge)
	a := domain.EmployeeSubsidyAnalysis{
		EmployeeID:     e.ID,
		Name:           e.Name,
		Age:            age,
		State:          e.State,
		FamilyStatus:   e.Status(),
		LCSP:           roundPtr(lcsp),
		SLCSP:          roundPtr(slcsp),
		ERContribution: contribution.Round(2),
	}

	a.Subsidy = sc.Calculate(SubsidyInput{
		Age:           age,
		State:         e.State,
		MonthlyIncome: e.MonthlyIncome,
		HouseholdSize: sc.Rules.HouseholdSize(e.Status()),
		Benchmark:     slcsp,
	})

	switch {
	case a.Subsidy.MedicareExcluded:
		a.Recommendation = domain.RecommendMedicare
		return a
	case !e.HasIncome() || slcsp == nil:
		a.Recommendation = domain.RecommendInsufficientData
		return a
	}

	affordable := true
	if lcsp != nil {
		v := sc.Affordability.Verdict(domain.SafeHarborRateOfPay, *e.MonthlyIncome, *lcsp, contribution, false)
		affordable = v.Affordable
		a.ICHRAAffordable = &affordable
		a.MaxContributionForEligibility = roundPtr(sc.MaxContributionForEligibility(*e.MonthlyIncome, *lcsp))
	}

	a.SubsidyAdvantage = a.Subsidy.MonthlySubsidy.Sub(a.ERContribution)
	a.Recommendation = domain.RecommendICHRA
	if a.Subsidy.Eligible && !affordable && a.SubsidyAdvantage.GreaterThan(decimal.Zero) {
		a.Recommendation = domain.RecommendSubsidy
	}
	return a
}

// AnalyzeWorkforce runs AnalyzeEmployee for every employee. contributions maps
// employee ID to the offered monthly contribution; absent IDs are treated as zero.
func (sc *SubsidyCalculator) AnalyzeWorkforce(w Workforce, contributions map[string]decimal.Decimal) *domain.SubsidyWorkforceSummary {
	summary := &domain.SubsidyWorkforceSummary{}
	for _, e := range w.Employees() {
		var lcsp, slcsp *decimal.Decimal
		if p, ok := w.LCSPFor(e); ok {
			lcsp = &p
		}
		if p, ok := w.SLCSPFor(e); ok {
			slcsp = &p
		}

		a := sc.AnalyzeEmployee(e, lcsp, slcsp, contributions[e.ID])
		summary.TotalEmployees++
		switch a.Recommendation {
		case domain.RecommendMedicare:
			summary.MedicareEligible++
		case domain.RecommendInsufficientData:
			summary.Under65++
			if !e.HasIncome() {
				summary.MissingIncome++
			} else {
				summary.MissingBenchmark++
			}
		default:
			summary.Under65++
		}
		if a.Subsidy.Eligible {
			summary.SubsidyEligible++
			summary.TotalMonthlySubsidy = summary.TotalMonthlySubsidy.Add(a.Subsidy.MonthlySubsidy)
		}
		if a.Recommendation == domain.RecommendSubsidy {
			summary.RecommendSubsidy++
		}
		summary.Employees = append(summary.Employees, a)
	}
	sc.logger.Infof("subsidy analysis: %d employees, %d under 65, %d subsidy eligible",
		summary.TotalEmployees, summary.Under65, summary.SubsidyEligible)
	return summary
}

func roundPtr(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	r := d.Round(2)
	return &r
}
