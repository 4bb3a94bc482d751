package solver

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/ichra/internal/calculation"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
)

// Solver finds the cheapest base-age-curve amount that makes every employee affordable
type Solver struct {
	Calculator *calculation.StrategyCalculator
	Options    SolverOptions
	logger     calculation.Logger
}

// NewSolver creates a new solver
func NewSolver(calc *calculation.StrategyCalculator, options SolverOptions) *Solver {
	return &Solver{
		Calculator: calc,
		Options:    options,
		logger:     calculation.NopLogger{},
	}
}

// NewDefaultSolver creates a solver with default options
func NewDefaultSolver(calc *calculation.StrategyCalculator) *Solver {
	return NewSolver(calc, DefaultSolverOptions())
}

// SetLogger sets the logger; nil restores the no-op logger
func (s *Solver) SetLogger(l calculation.Logger) {
	if l == nil {
		l = calculation.NopLogger{}
	}
	s.logger = l
}

// SolveAgeCurve inverts the age curve per employee, takes the binding maximum,
// rounds it up to the next granularity step and then closes any remaining gap
// by adding the largest gap plus one step, for at most MaxIterations passes.
// Non-convergence is reported in the result, never as an error.
func (s *Solver) SolveAgeCurve(ctx context.Context, w calculation.Workforce, harbor domain.SafeHarbor) (*Result, error) {
	if err := s.Options.Validate(); err != nil {
		return nil, err
	}
	switch harbor {
	case domain.SafeHarborFPL, domain.SafeHarborRateOfPay:
	default:
		return nil, &SolverError{
			Operation: "solve_age_curve",
			Message:   fmt.Sprintf("unsupported safe harbor: %s", harbor),
		}
	}
	if s.Calculator == nil {
		return nil, &SolverError{Operation: "solve_age_curve", Message: "no strategy calculator"}
	}

	opts := s.Options
	baseline, err := s.evaluate(w, opts.SeedAmount)
	if err != nil {
		return nil, err
	}

	required, binding := s.requiredBase(w, baseline, harbor)
	base := required.Div(opts.Granularity).Floor().Mul(opts.Granularity).Add(opts.Granularity)

	result := &Result{
		SafeHarbor:      harbor,
		BaseAge:         opts.BaseAge,
		InitialBase:     base,
		BindingEmployee: binding,
	}

	strategy, err := s.evaluate(w, base)
	if err != nil {
		return nil, err
	}
	summary, err := s.affordability(strategy, w, harbor)
	if err != nil {
		return nil, err
	}

	for result.Iterations < opts.MaxIterations && !summary.AllAffordable {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if summary.UnaffordableCount == 0 {
			break
		}

		base = base.Add(summary.MaxGap).Add(opts.Granularity)
		result.Iterations++
		s.logger.Debugf("solver pass %d: %d unaffordable, max gap %s, base now %s",
			result.Iterations, summary.UnaffordableCount, summary.MaxGap.StringFixed(2), base.StringFixed(2))

		if strategy, err = s.evaluate(w, base); err != nil {
			return nil, err
		}
		if summary, err = s.affordability(strategy, w, harbor); err != nil {
			return nil, err
		}
	}

	strategy.Affordability = summary
	result.Strategy = strategy
	result.BaseAmount = base
	result.Converged = summary.AllAffordable
	result.AllAffordable = summary.AllAffordable
	result.ResidualGap = summary.MaxGap
	if result.Converged {
		result.ConvergenceInfo = fmt.Sprintf("All %d employees affordable after %d extra pass(es)", summary.EmployeesAnalyzed, result.Iterations)
	} else {
		result.ConvergenceInfo = fmt.Sprintf("%d employee(s) still unaffordable after %d pass(es), residual gap $%s",
			summary.UnaffordableCount, result.Iterations, summary.MaxGap.StringFixed(2))
		s.logger.Warnf("age curve solver did not converge: %s", result.ConvergenceInfo)
	}
	return result, nil
}

func (s *Solver) evaluate(w calculation.Workforce, base decimal.Decimal) (*domain.StrategyResult, error) {
	r, err := s.Calculator.Calculate(domain.StrategyConfig{
		Strategy: domain.BaseAgeCurve{BaseAge: s.Options.BaseAge, BaseAmount: base},
	}, w)
	if err != nil {
		return nil, &SolverError{
			Operation: "solve_age_curve",
			Message:   "failed to calculate age curve strategy",
			Cause:     err,
		}
	}
	return r, nil
}

func (s *Solver) affordability(r *domain.StrategyResult, w calculation.Workforce, harbor domain.SafeHarbor) (*domain.AffordabilitySummary, error) {
	summary, _, err := s.Calculator.EvaluateAffordability(r, w, harbor)
	if err != nil {
		return nil, &SolverError{
			Operation: "solve_age_curve",
			Message:   "failed to evaluate affordability",
			Cause:     err,
		}
	}
	return summary, nil
}

// requiredBase returns the largest base amount any single employee needs and who needs it.
// Employees without income fall back to the poverty-line income for their minimum.
func (s *Solver) requiredBase(w calculation.Workforce, baseline *domain.StrategyResult, harbor domain.SafeHarbor) (decimal.Decimal, string) {
	calc := s.Calculator
	fpl := calc.FPLMonthlyIncome()
	byID := make(map[string]domain.Employee, w.Census.Len())
	for _, e := range w.Employees() {
		byID[e.ID] = e
	}

	curve := calc.Config.AgeCurve
	baseFactor := curve.Factor(s.Options.BaseAge)
	maxBase, binding := decimal.Zero, ""
	for _, line := range baseline.Employees {
		e := byID[line.EmployeeID]
		lcsp, ok := w.LCSPFor(e)
		if !ok {
			continue
		}
		income := fpl
		if harbor == domain.SafeHarborRateOfPay && e.HasIncome() {
			income = *e.MonthlyIncome
		}
		factor := curve.Factor(line.Age)
		if !factor.IsPositive() {
			continue
		}
		minimum := calc.Affordability.MinEmployerContribution(income, lcsp)
		needed := minimum.Mul(baseFactor).Div(factor)
		if needed.GreaterThan(maxBase) {
			maxBase, binding = needed, line.EmployeeID
		}
	}
	return maxBase, binding
}
