package compare

import (
	"context"
	"fmt"
	"sort"

	"github.com/rgehrsitz/ichra/internal/calculation"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/premium"
	"github.com/rgehrsitz/ichra/internal/solver"
	"github.com/shopspring/decimal"
)

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Options configures the strategies a comparison evaluates
type Options struct {
	BaseAge int
	// BaseContribution overrides the estimated flat and curve amount in standard mode
	BaseContribution *decimal.Decimal
	// SubsidyBaseContribution is the flat and curve amount in subsidy mode
	SubsidyBaseContribution decimal.Decimal
	LCSPPercent             decimal.Decimal
	// FamilyMultipliers scales every compared strategy; nil compares self-only amounts
	FamilyMultipliers *domain.FamilyMultipliers
	// HighCostThresholdPct is how far above the average LCSP a state must be
	HighCostThresholdPct decimal.Decimal
}

// DefaultOptions returns base age 21, 100% of LCSP and a $50 subsidy-mode base
func DefaultOptions() Options {
	return Options{
		BaseAge:                 21,
		SubsidyBaseContribution: decimal.NewFromInt(50),
		LCSPPercent:             hundred,
		HighCostThresholdPct:    decimal.NewFromInt(15),
	}
}

// Engine orchestrates strategy comparison for one workforce
type Engine struct {
	Calculator *calculation.StrategyCalculator
	Solver     *solver.Solver
	Options    Options
	logger     calculation.Logger
}

// NewEngine creates a comparison engine with the default solver policy
func NewEngine(calc *calculation.StrategyCalculator) *Engine {
	return &Engine{
		Calculator: calc,
		Solver:     solver.NewDefaultSolver(calc),
		Options:    DefaultOptions(),
		logger:     calculation.NopLogger{},
	}
}

// SetLogger sets the logger on the engine and its solver; nil restores the no-op logger
func (e *Engine) SetLogger(l calculation.Logger) {
	if l == nil {
		l = calculation.NopLogger{}
	}
	e.logger = l
	if e.Solver != nil {
		e.Solver.SetLogger(l)
	}
}

// CompareStrategies runs every strategy the mode allows and ranks them.
// ALE ranks the cheapest fully affordable strategy first, falling back to the
// highest affordable percentage; standard ranks by cost; subsidy puts the
// subsidy-optimized strategy first.
func (e *Engine) CompareStrategies(ctx context.Context, w calculation.Workforce, mode OperatingMode) (*ComparisonSet, error) {
	kinds := AvailableStrategies(mode)
	if kinds == nil {
		return nil, &domain.ConfigError{
			Operation: "compare_strategies",
			Message:   fmt.Sprintf("unknown operating mode %q", mode),
		}
	}

	set := &ComparisonSet{Mode: mode, EmployeeCount: w.Census.Len()}
	hasIncome := w.Census != nil && w.Census.HasIncomeData()
	if mode == ModeALE {
		set.SafeHarbor = domain.SafeHarborFPL
		if hasIncome {
			set.SafeHarbor = domain.SafeHarborRateOfPay
		}
	}

	base := e.baseContribution(w, mode)
	for _, kind := range kinds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if kind == domain.KindRateOfPaySafeHarbor && !hasIncome {
			e.logger.Infof("no income data in census, skipping %s", kind)
			continue
		}

		outcome, err := e.evaluate(ctx, w, mode, kind, base, set.SafeHarbor)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s: %w", kind, err)
		}
		set.Outcomes = append(set.Outcomes, *outcome)
	}

	rank(set)
	set.Recommendations = GenerateRecommendations(set)
	e.logger.Infof("compared %d strategies in %s mode", len(set.Outcomes), mode)
	return set, nil
}

func (e *Engine) evaluate(ctx context.Context, w calculation.Workforce, mode OperatingMode, kind domain.StrategyKind, base decimal.Decimal, harbor domain.SafeHarbor) (*StrategyOutcome, error) {
	outcome := &StrategyOutcome{Kind: kind, Name: kind.DisplayName(), BaseContribution: base}

	var strategy domain.Strategy
	switch kind {
	case domain.KindFlatAmount:
		strategy = domain.FlatAmount{Amount: base}
	case domain.KindBaseAgeCurve:
		if mode == ModeALE {
			solved, err := e.Solver.SolveAgeCurve(ctx, w, harbor)
			if err != nil {
				return nil, err
			}
			outcome.Solver = solved
			base = solved.BaseAmount
			outcome.BaseContribution = base
		}
		strategy = domain.BaseAgeCurve{BaseAge: e.Options.BaseAge, BaseAmount: base}
	case domain.KindPercentageLCSP:
		strategy = domain.PercentageOfLCSP{Percent: e.Options.LCSPPercent}
		outcome.BaseContribution = decimal.Zero
	case domain.KindFPLSafeHarbor:
		strategy = domain.FPLSafeHarbor{}
		outcome.BaseContribution = decimal.Zero
	case domain.KindRateOfPaySafeHarbor:
		strategy = domain.RateOfPaySafeHarbor{}
		outcome.BaseContribution = decimal.Zero
	case domain.KindSubsidyOptimized:
		strategy = domain.SubsidyOptimized{}
	default:
		return nil, &domain.ConfigError{
			Operation: "compare_strategies",
			Message:   string(kind),
			Cause:     domain.ErrUnknownStrategy,
		}
	}

	result, err := e.Calculator.Calculate(domain.StrategyConfig{
		Strategy:          strategy,
		FamilyMultipliers: e.Options.FamilyMultipliers,
	}, w)
	if err != nil {
		return nil, err
	}
	if result.Subsidy != nil {
		outcome.BaseContribution = result.Subsidy.FlatContribution
	}

	if mode == ModeALE {
		// safe harbors carry their own verdicts; everything else is tested under the session harbor
		if result.Affordability == nil {
			summary, _, err := e.Calculator.EvaluateAffordability(result, w, harbor)
			if err != nil {
				return nil, err
			}
			result.Affordability = summary
		}
		pct := result.Affordability.AffordablePct
		outcome.AffordablePct = &pct
		outcome.AllAffordable = result.Affordability.AllAffordable
	}
	if mode == ModeSubsidy {
		outcome.SubsidyEligible = e.countUnaffordable(result, w)
	}

	outcome.Result = result
	outcome.TotalMonthly = result.TotalMonthly
	outcome.TotalAnnual = result.TotalAnnual
	outcome.EmployeesCovered = result.EmployeesCovered
	if current, ok := currentMonthly(w); ok {
		delta := result.TotalMonthly.Sub(current).Round(2)
		outcome.VsCurrentMonthly = &delta
	}
	return outcome, nil
}

// baseContribution is the flat and curve amount for modes that do not solve for it:
// 75% of the average LCSP rounded to $10, or an age-based default without premiums
func (e *Engine) baseContribution(w calculation.Workforce, mode OperatingMode) decimal.Decimal {
	if mode == ModeSubsidy {
		return e.Options.SubsidyBaseContribution
	}
	if e.Options.BaseContribution != nil {
		return *e.Options.BaseContribution
	}

	var lcsps []decimal.Decimal
	var ages []decimal.Decimal
	for _, emp := range w.Employees() {
		ages = append(ages, decimal.NewFromInt(int64(emp.AgeOr(premium.DefaultAge))))
		if lcsp, ok := w.LCSPFor(emp); ok {
			lcsps = append(lcsps, lcsp)
		}
	}
	if avg := calculation.Mean(lcsps); avg.IsPositive() {
		return avg.Mul(decimal.NewFromFloat(0.75)).Round(-1)
	}

	avgAge := calculation.Mean(ages)
	switch {
	case avgAge.GreaterThan(decimal.NewFromInt(50)):
		return decimal.NewFromInt(600)
	case avgAge.GreaterThan(decimal.NewFromInt(40)):
		return decimal.NewFromInt(500)
	default:
		return decimal.NewFromInt(400)
	}
}

// countUnaffordable counts employees with income whose cost at the offered
// contribution exceeds the threshold, leaving them free to claim a subsidy
func (e *Engine) countUnaffordable(result *domain.StrategyResult, w calculation.Workforce) int {
	incomes := incomeByID(w)
	count := 0
	for _, line := range result.Employees {
		income, ok := incomes[line.EmployeeID]
		if !ok {
			continue
		}
		cost := decimal.Max(decimal.Zero, line.LCSP.Sub(line.Contribution))
		if cost.GreaterThan(e.Calculator.Affordability.MaxEmployeeContribution(income)) {
			count++
		}
	}
	return count
}

func incomeByID(w calculation.Workforce) map[string]decimal.Decimal {
	incomes := make(map[string]decimal.Decimal)
	for _, emp := range w.Employees() {
		if emp.HasIncome() {
			incomes[emp.ID] = *emp.MonthlyIncome
		}
	}
	return incomes
}

func currentMonthly(w calculation.Workforce) (decimal.Decimal, bool) {
	total, seen := decimal.Zero, false
	for _, emp := range w.Employees() {
		if emp.CurrentERMonthly != nil {
			total = total.Add(*emp.CurrentERMonthly)
			seen = true
		}
	}
	return total, seen && total.IsPositive()
}

func rank(set *ComparisonSet) {
	outcomes := set.Outcomes
	var less func(a, b StrategyOutcome) bool
	switch set.Mode {
	case ModeALE:
		less = func(a, b StrategyOutcome) bool {
			if a.AllAffordable != b.AllAffordable {
				return a.AllAffordable
			}
			if !a.AllAffordable && !a.AffordablePct.Equal(*b.AffordablePct) {
				return a.AffordablePct.GreaterThan(*b.AffordablePct)
			}
			return a.TotalMonthly.LessThan(b.TotalMonthly)
		}
	case ModeSubsidy:
		less = func(a, b StrategyOutcome) bool {
			aOpt, bOpt := a.Kind == domain.KindSubsidyOptimized, b.Kind == domain.KindSubsidyOptimized
			if aOpt != bOpt {
				return aOpt
			}
			return a.TotalMonthly.LessThan(b.TotalMonthly)
		}
	default:
		less = func(a, b StrategyOutcome) bool { return a.TotalMonthly.LessThan(b.TotalMonthly) }
	}
	sort.SliceStable(outcomes, func(i, j int) bool { return less(outcomes[i], outcomes[j]) })
	for i := range outcomes {
		outcomes[i].Rank = i + 1
	}
}

// GenerateRecommendations creates plain-language notes about a ranked comparison
func GenerateRecommendations(set *ComparisonSet) []string {
	recommendations := []string{}
	best := set.Best()
	if best == nil {
		return recommendations
	}

	switch set.Mode {
	case ModeALE:
		if best.AllAffordable {
			recommendations = append(recommendations, fmt.Sprintf(
				"Lowest Compliant Cost: %s at $%s/month keeps all employees affordable under the %s safe harbor",
				best.Name, best.TotalMonthly.StringFixed(2), set.SafeHarbor))
		} else {
			recommendations = append(recommendations, fmt.Sprintf(
				"No strategy reached 100%% affordability; %s comes closest at %s%%. Do not present it as compliant",
				best.Name, best.AffordablePct.StringFixed(1)))
		}
		for _, o := range set.Outcomes {
			if o.Solver != nil && !o.Solver.Converged {
				recommendations = append(recommendations, fmt.Sprintf(
					"Age curve solver did not converge: %s", o.Solver.ConvergenceInfo))
			}
		}
	case ModeSubsidy:
		if s := best.Result.Subsidy; s != nil {
			recommendations = append(recommendations, fmt.Sprintf(
				"Subsidy Access: a flat $%s/month keeps %d employee(s) eligible for premium tax credits",
				s.FlatContribution.StringFixed(0), s.EligibleAtOptimal))
			if s.MedicareCount > 0 {
				recommendations = append(recommendations, fmt.Sprintf(
					"%d Medicare-eligible employee(s) excluded from subsidy calculations", s.MedicareCount))
			}
		}
	default:
		recommendations = append(recommendations, fmt.Sprintf(
			"Lowest Cost: %s at $%s/month", best.Name, best.TotalMonthly.StringFixed(2)))
	}

	if len(set.Outcomes) > 1 {
		last := set.Outcomes[len(set.Outcomes)-1]
		if diff := last.TotalAnnual.Sub(best.TotalAnnual); diff.IsPositive() {
			recommendations = append(recommendations, fmt.Sprintf(
				"%s saves $%s per year compared with %s", best.Name, diff.StringFixed(0), last.Name))
		}
	}
	if best.VsCurrentMonthly != nil {
		recommendations = append(recommendations, fmt.Sprintf(
			"Change vs current employer spend: $%s/month", best.VsCurrentMonthly.StringFixed(2)))
	}
	return recommendations
}

// CompareSafeHarbors prices self-only affordability under the FPL and
// rate-of-pay safe harbors. Rate of pay adds a $1 buffer per employee with
// income and falls back to the FPL amount for the rest. W-2 wages are
// retrospective and always reported unavailable.
func (e *Engine) CompareSafeHarbors(w calculation.Workforce) (*SafeHarborComparison, error) {
	fpl, err := e.Calculator.Calculate(domain.StrategyConfig{Strategy: domain.FPLSafeHarbor{}}, w)
	if err != nil {
		return nil, err
	}

	cmp := &SafeHarborComparison{
		FPL: harborCost(domain.SafeHarborFPL, fpl.TotalMonthly, fpl.EmployeesCovered,
			"Uses the federal poverty line; no income data needed"),
		RateOfPay: HarborCost{
			SafeHarbor:  domain.SafeHarborRateOfPay,
			Description: "Requires monthly income in the census",
		},
		W2: HarborCost{
			SafeHarbor:  domain.SafeHarborW2,
			Description: "Not available for planning (retrospective)",
		},
		Cheaper: domain.SafeHarborFPL,
	}

	if w.Census == nil || !w.Census.HasIncomeData() {
		return cmp, nil
	}

	rop, err := e.Calculator.Calculate(domain.StrategyConfig{Strategy: domain.RateOfPaySafeHarbor{}}, w)
	if err != nil {
		return nil, err
	}
	fplByID := make(map[string]decimal.Decimal, len(fpl.Employees))
	for _, line := range fpl.Employees {
		fplByID[line.EmployeeID] = line.Contribution
	}
	total := decimal.Zero
	for _, line := range rop.Employees {
		if line.Verdict == nil {
			total = total.Add(fplByID[line.EmployeeID])
			continue
		}
		total = total.Add(line.BaseContribution).Add(one)
	}
	cmp.RateOfPay = harborCost(domain.SafeHarborRateOfPay, total.Round(2), rop.EmployeesCovered,
		"Uses actual employee wages, typically lower cost")

	if cmp.RateOfPay.MonthlyCost.LessThan(*cmp.FPL.MonthlyCost) {
		cmp.Cheaper = domain.SafeHarborRateOfPay
	}
	cmp.MonthlySaving = cmp.RateOfPay.MonthlyCost.Sub(*cmp.FPL.MonthlyCost).Abs()
	return cmp, nil
}

func harborCost(h domain.SafeHarbor, monthly decimal.Decimal, covered int, description string) HarborCost {
	annual := monthly.Mul(twelve).Round(2)
	return HarborCost{
		SafeHarbor:       h,
		Available:        true,
		MonthlyCost:      &monthly,
		AnnualCost:       &annual,
		EmployeesCovered: covered,
		Description:      description,
	}
}

// AffordabilityImpact compares affordability at current contributions with the
// proposed result. The full offered contribution is tested; employees without
// income are left out of both sides.
func (e *Engine) AffordabilityImpact(analysis *domain.WorkforceAnalysis, result *domain.StrategyResult, w calculation.Workforce) (*AffordabilityImpact, error) {
	if analysis == nil || result == nil {
		return nil, fmt.Errorf("affordability impact needs both an analysis and a strategy result")
	}
	incomes := incomeByID(w)

	impact := &AffordabilityImpact{
		Before: ImpactSide{
			AffordableCount:   analysis.Summary.AffordableAtCurrent,
			EmployeesAnalyzed: analysis.Summary.EmployeesAnalyzed,
			AffordablePct:     calculation.PercentOf(analysis.Summary.AffordableAtCurrent, analysis.Summary.EmployeesAnalyzed),
			AnnualSpend:       analysis.Summary.CurrentERSpendAnnual,
			TotalGapAnnual:    analysis.Summary.TotalGapAnnual,
		},
	}

	after := &impact.After
	after.AnnualSpend = result.TotalAnnual
	gap := decimal.Zero
	for _, line := range result.Employees {
		income, ok := incomes[line.EmployeeID]
		if !ok {
			continue
		}
		after.EmployeesAnalyzed++

		maxEE := e.Calculator.Affordability.MaxEmployeeContribution(income)
		cost := decimal.Max(decimal.Zero, line.LCSP.Sub(line.Contribution))
		if cost.LessThanOrEqual(maxEE) {
			after.AffordableCount++
			continue
		}
		gap = gap.Add(cost.Sub(maxEE).Mul(twelve))

		minExact := decimal.Max(decimal.Zero, line.LCSP.Sub(maxEE))
		minAffordable := minExact
		if minExact.IsPositive() {
			minAffordable = minExact.Add(one)
		}
		impact.Unaffordable = append(impact.Unaffordable, UnaffordableEmployee{
			EmployeeID:          line.EmployeeID,
			Name:                line.Name,
			Age:                 line.Age,
			FamilyStatus:        line.FamilyStatus,
			MonthlyIncome:       income.Round(2),
			LCSP:                line.LCSP,
			Contribution:        line.Contribution,
			MaxEmployeeCost:     maxEE.Round(2),
			MinAffordable:       minAffordable.Round(2),
			AdditionalNeeded:    decimal.Max(decimal.Zero, minAffordable.Sub(line.Contribution)).Round(2),
			EmployeeCostAtOffer: cost.Round(2),
		})
	}
	after.TotalGapAnnual = gap.Round(2)
	after.AffordablePct = calculation.PercentOf(after.AffordableCount, after.EmployeesAnalyzed)

	impact.EmployeesGained = after.AffordableCount - impact.Before.AffordableCount
	impact.SpendChange = after.AnnualSpend.Sub(impact.Before.AnnualSpend).Round(2)
	impact.GapClosed = impact.Before.TotalGapAnnual.Sub(after.TotalGapAnnual).Round(2)
	return impact, nil
}

// HighCostStates returns, sorted, the states whose average LCSP exceeds the
// workforce average by more than Options.HighCostThresholdPct percent
func (e *Engine) HighCostStates(analysis *domain.WorkforceAnalysis) []string {
	if analysis == nil || len(analysis.Employees) == 0 {
		return nil
	}
	all := make([]decimal.Decimal, 0, len(analysis.Employees))
	byState := make(map[string][]decimal.Decimal)
	for _, row := range analysis.Employees {
		all = append(all, row.LCSP)
		byState[row.State] = append(byState[row.State], row.LCSP)
	}
	overall := calculation.Mean(all)
	if !overall.IsPositive() {
		return nil
	}
	limit := overall.Mul(one.Add(e.Options.HighCostThresholdPct.Div(hundred)))

	var states []string
	for state, lcsps := range byState {
		if calculation.Mean(lcsps).GreaterThan(limit) {
			states = append(states, state)
		}
	}
	sort.Strings(states)
	return states
}
