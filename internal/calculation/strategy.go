package calculation

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/premium"
	"github.com/shopspring/decimal"
)

// StrategyCalculator turns a StrategyConfig into per-employee contributions
type StrategyCalculator struct {
	Config        *domain.PlanYearConfig
	Affordability *AffordabilityCalculator
	Subsidy       *SubsidyCalculator
	logger        Logger
}

// NewStrategyCalculator creates a calculator with the default plan year
func NewStrategyCalculator() *StrategyCalculator {
	return NewStrategyCalculatorWithConfig(domain.DefaultPlanYearConfig())
}

// NewStrategyCalculatorWithConfig creates a calculator for a plan year
func NewStrategyCalculatorWithConfig(cfg *domain.PlanYearConfig) *StrategyCalculator {
	return &StrategyCalculator{
		Config:        cfg,
		Affordability: NewAffordabilityCalculatorWithConfig(cfg.Affordability),
		Subsidy:       NewSubsidyCalculatorWithConfig(cfg),
		logger:        NopLogger{},
	}
}

// SetLogger sets the logger; nil restores the no-op logger
func (sc *StrategyCalculator) SetLogger(l Logger) {
	sc.logger = orNop(l)
	sc.Subsidy.SetLogger(l)
}

// FPLMonthlyIncome is the poverty line for a household of one, per month.
// The FPL safe harbor substitutes it for every employee's income.
func (sc *StrategyCalculator) FPLMonthlyIncome() decimal.Decimal {
	return sc.Config.PovertyGuidelines.Line(domain.DefaultPovertyTable, 1).Div(twelve)
}

// CurveContribution scales base by the age curve relative to baseAge
func (sc *StrategyCalculator) CurveContribution(base decimal.Decimal, baseAge, age int) decimal.Decimal {
	baseFactor := sc.Config.AgeCurve.Factor(baseAge)
	if baseFactor.IsZero() {
		return base
	}
	return base.Mul(sc.Config.AgeCurve.Factor(age)).Div(baseFactor)
}

// needsBenchmark reports whether the strategy cannot be computed without a premium.
// Fixed age tiers only use it to raise an unaffordable tier amount.
func needsBenchmark(s domain.Strategy) bool {
	switch s.(type) {
	case domain.FlatAmount, domain.BaseAgeCurve, domain.FixedAgeTiers:
		return false
	}
	return true
}

// Calculate evaluates one strategy over the workforce. Only configuration
// mistakes produce an error; missing data excludes or skips employees.
func (sc *StrategyCalculator) Calculate(cfg domain.StrategyConfig, w Workforce) (*domain.StrategyResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	result := &domain.StrategyResult{
		Kind:           cfg.Strategy.Kind(),
		Name:           cfg.Strategy.Kind().DisplayName(),
		ByAgeTier:      make(map[string]domain.TierTotal),
		ByFamilyStatus: make(map[string]domain.TierTotal),
		ByState:        make(map[string]domain.TierTotal),
	}

	var flat decimal.Decimal
	switch s := cfg.Strategy.(type) {
	case domain.SubsidyOptimized:
		opt := sc.OptimizeSubsidyFlat(w)
		result.Subsidy = opt
		flat = opt.FlatContribution
	case domain.FlatAmount:
		flat = s.Amount
	}

	fplIncome := sc.FPLMonthlyIncome()
	var verdicts []domain.AffordabilityVerdict
	safeHarbor := safeHarborOf(cfg.Strategy)

	for _, e := range w.Employees() {
		lcsp, hasLCSP := w.LCSPFor(e)
		if !hasLCSP && needsBenchmark(cfg.Strategy) {
			result.ExcludedEmployees = append(result.ExcludedEmployees, e.ID)
			sc.logger.Debugf("%s: employee %s has no benchmark premium, excluded", result.Kind, e.ID)
			continue
		}

		age := e.AgeOr(premium.DefaultAge)
		line := domain.EmployeeContribution{
			EmployeeID:   e.ID,
			Name:         e.Name,
			Age:          age,
			State:        e.State,
			FamilyStatus: e.Status(),
			AgeTier:      domain.FixedAgeTierLabel(age),
			LCSP:         lcsp.Round(2),
		}

		var core decimal.Decimal
		switch s := cfg.Strategy.(type) {
		case domain.FlatAmount, domain.SubsidyOptimized:
			core = flat
		case domain.BaseAgeCurve:
			core = sc.CurveContribution(s.BaseAmount, s.BaseAge, age)
		case domain.PercentageOfLCSP:
			core = s.Percent.Div(hundred).Mul(lcsp)
		case domain.FPLSafeHarbor:
			core = sc.Affordability.MinEmployerContribution(fplIncome, lcsp).RoundCeil(2)
			v := sc.Affordability.Verdict(domain.SafeHarborFPL, fplIncome, lcsp, core, true)
			line.Verdict = &v
		case domain.RateOfPaySafeHarbor:
			income, fromFPL := fplIncome, true
			if e.HasIncome() {
				income, fromFPL = *e.MonthlyIncome, false
			} else {
				result.SkippedEmployees = append(result.SkippedEmployees, e.ID)
			}
			core = sc.Affordability.MinEmployerContribution(income, lcsp).RoundCeil(2)
			if !fromFPL {
				v := sc.Affordability.Verdict(domain.SafeHarborRateOfPay, income, lcsp, core, false)
				line.Verdict = &v
			}
		case domain.FixedAgeTiers:
			core = s.Amounts[line.AgeTier]
			if e.HasIncome() && hasLCSP {
				raw := sc.Affordability.MinEmployerContribution(*e.MonthlyIncome, lcsp)
				if raw.GreaterThan(decimal.Zero) {
					minAffordable := raw.Add(decimal.NewFromInt(1))
					if minAffordable.GreaterThan(core) {
						core = minAffordable
						line.AffordabilityAdjusted = true
						result.EmployeesAffordabilityAdjusted++
					}
				}
			}
		default:
			return nil, &domain.ConfigError{
				Operation: "calculate_strategy",
				Message:   fmt.Sprintf("unsupported strategy: %T", cfg.Strategy),
				Cause:     domain.ErrUnknownStrategy,
			}
		}

		line.BaseContribution = core.Round(2)
		line.FamilyMultiplier = decimal.NewFromInt(1)
		if cfg.FamilyMultipliers != nil {
			line.FamilyMultiplier = cfg.FamilyMultipliers.For(line.FamilyStatus)
		}
		line.LocationAdjustment = cfg.LocationAdjustment(e.State)
		line.Contribution = core.Mul(line.FamilyMultiplier).Add(line.LocationAdjustment).Round(2)

		if line.Verdict != nil {
			verdicts = append(verdicts, *line.Verdict)
		}
		result.Employees = append(result.Employees, line)
		addTier(result.ByAgeTier, line.AgeTier, line.Contribution)
		addTier(result.ByFamilyStatus, string(line.FamilyStatus), line.Contribution)
		addTier(result.ByState, line.State, line.Contribution)
		result.TotalMonthly = result.TotalMonthly.Add(line.Contribution)
	}

	result.TotalMonthly = result.TotalMonthly.Round(2)
	result.TotalAnnual = result.TotalMonthly.Mul(twelve).Round(2)
	result.EmployeesCovered = len(result.Employees)

	if safeHarbor != "" {
		ids := make([]string, 0, len(verdicts))
		for _, line := range result.Employees {
			if line.Verdict != nil {
				ids = append(ids, line.EmployeeID)
			}
		}
		result.Affordability = summarizeVerdicts(safeHarbor, ids, verdicts, result.SkippedEmployees)
	}

	sc.logger.Debugf("%s: %d employees covered, total monthly %s", result.Kind, result.EmployeesCovered, result.TotalMonthly.StringFixed(2))
	return result, nil
}

func safeHarborOf(s domain.Strategy) domain.SafeHarbor {
	switch s.(type) {
	case domain.FPLSafeHarbor:
		return domain.SafeHarborFPL
	case domain.RateOfPaySafeHarbor:
		return domain.SafeHarborRateOfPay
	}
	return ""
}

func addTier(m map[string]domain.TierTotal, key string, amount decimal.Decimal) {
	t := m[key]
	t.Count++
	t.TotalMonthly = t.TotalMonthly.Add(amount)
	m[key] = t
}

// summarizeVerdicts folds per-employee verdicts into a dataset verdict.
// AllAffordable requires every analyzed employee to pass and at least one analyzed.
func summarizeVerdicts(harbor domain.SafeHarbor, ids []string, verdicts []domain.AffordabilityVerdict, skipped []string) *domain.AffordabilitySummary {
	s := &domain.AffordabilitySummary{
		SafeHarbor:        harbor,
		EmployeesAnalyzed: len(verdicts),
		SkippedEmployees:  skipped,
	}
	for i, v := range verdicts {
		if v.Affordable {
			s.AffordableCount++
			continue
		}
		s.Unaffordable = append(s.Unaffordable, ids[i])
		if v.Gap.GreaterThan(s.MaxGap) {
			s.MaxGap = v.Gap
		}
	}
	s.UnaffordableCount = s.EmployeesAnalyzed - s.AffordableCount
	s.AffordablePct = PercentOf(s.AffordableCount, s.EmployeesAnalyzed)
	s.AllAffordable = s.EmployeesAnalyzed > 0 && s.AffordableCount == s.EmployeesAnalyzed
	return s
}

// EvaluateAffordability tests an existing result against a safe harbor.
// The self-only amount (before family and location modifiers) is what is tested.
// Under rate of pay, employees without income are skipped and listed.
func (sc *StrategyCalculator) EvaluateAffordability(result *domain.StrategyResult, w Workforce, harbor domain.SafeHarbor) (*domain.AffordabilitySummary, []domain.AffordabilityVerdict, error) {
	if result == nil {
		return nil, nil, fmt.Errorf("no strategy result to evaluate")
	}
	if harbor != domain.SafeHarborFPL && harbor != domain.SafeHarborRateOfPay {
		return nil, nil, &domain.ConfigError{
			Operation: "evaluate_affordability",
			Message:   fmt.Sprintf("unsupported safe harbor: %s", harbor),
		}
	}

	byID := make(map[string]domain.Employee, w.Census.Len())
	for _, e := range w.Employees() {
		byID[e.ID] = e
	}

	fplIncome := sc.FPLMonthlyIncome()
	var (
		verdicts []domain.AffordabilityVerdict
		ids      []string
		skipped  []string
	)
	for _, line := range result.Employees {
		e, ok := byID[line.EmployeeID]
		if !ok {
			continue
		}
		lcsp, ok := w.LCSPFor(e)
		if !ok {
			continue
		}
		income, fromFPL := fplIncome, true
		if harbor == domain.SafeHarborRateOfPay {
			if !e.HasIncome() {
				skipped = append(skipped, e.ID)
				continue
			}
			income, fromFPL = *e.MonthlyIncome, false
		}
		verdicts = append(verdicts, sc.Affordability.Verdict(harbor, income, lcsp, line.BaseContribution, fromFPL))
		ids = append(ids, e.ID)
	}
	return summarizeVerdicts(harbor, ids, verdicts, skipped), verdicts, nil
}

// OptimizeSubsidyFlat finds the highest flat amount that keeps high-ROI employees
// eligible for the premium tax credit by leaving the offer unaffordable to them.
func (sc *StrategyCalculator) OptimizeSubsidyFlat(w Workforce) *domain.SubsidyOptimization {
	opt := &domain.SubsidyOptimization{}
	if w.SLCSP == nil {
		sc.logger.Warnf("subsidy optimization without a subsidy benchmark source; flat amount is zero")
	}

	type candidate struct {
		id      string
		age     int
		ceiling decimal.Decimal // max contribution that keeps the offer unaffordable
		gap     decimal.Decimal // lcsp - income x threshold
		highROI bool
	}
	var candidates []candidate

	rules := sc.Config.Subsidy
	for _, e := range w.Employees() {
		age := e.AgeOr(premium.DefaultAge)
		if age >= rules.MedicareAge {
			opt.MedicareCount++
			continue
		}
		if !e.HasIncome() || w.SLCSP == nil {
			continue
		}
		lcsp, ok := w.LCSPFor(e)
		if !ok {
			continue
		}
		slcsp, ok := w.SLCSPFor(e)
		if !ok {
			continue
		}

		sub := sc.Subsidy.Calculate(SubsidyInput{
			Age:           age,
			State:         e.State,
			MonthlyIncome: e.MonthlyIncome,
			HouseholdSize: rules.HouseholdSize(e.Status()),
			Benchmark:     &slcsp,
		})
		if !sub.Eligible {
			continue
		}
		opt.EligibleCount++

		ceiling := sc.Subsidy.MaxContributionForEligibility(*e.MonthlyIncome, lcsp)
		if ceiling == nil {
			continue
		}
		roi := decimal.Zero
		if slcsp.GreaterThan(decimal.Zero) {
			roi = sub.MonthlySubsidy.Div(slcsp)
		}
		high := roi.GreaterThanOrEqual(rules.HighROIThreshold)
		if high {
			opt.HighROICount++
		}
		candidates = append(candidates, candidate{
			id:      e.ID,
			age:     age,
			ceiling: *ceiling,
			gap:     lcsp.Sub(sc.Affordability.MaxEmployeeContribution(*e.MonthlyIncome)),
			highROI: high,
		})
	}

	binding := candidates[:0:0]
	for _, c := range candidates {
		if c.highROI {
			binding = append(binding, c)
		}
	}
	if len(binding) == 0 {
		binding = candidates
	}
	if len(binding) == 0 {
		return opt
	}

	sort.SliceStable(binding, func(i, j int) bool { return binding[i].ceiling.LessThan(binding[j].ceiling) })
	constraining := binding[0]
	opt.FlatContribution = constraining.ceiling.Floor()
	opt.ConstrainingEmployee = constraining.id
	opt.ConstrainingAge = constraining.age
	for _, c := range candidates {
		if opt.FlatContribution.LessThan(c.gap) {
			opt.EligibleAtOptimal++
		}
	}
	return opt
}
