package solver

import (
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
)

// SolverOptions is the convergence policy for the age-curve solver
type SolverOptions struct {
	MaxIterations int             // gap-closing passes after the first solve
	Granularity   decimal.Decimal // rounding unit for the base amount
	BaseAge       int             // age whose curve factor the base amount is quoted at
	SeedAmount    decimal.Decimal // arbitrary starting base for the baseline pass
}

// DefaultSolverOptions returns whole-dollar rounding, 10 passes and base age 21
func DefaultSolverOptions() SolverOptions {
	return SolverOptions{
		MaxIterations: 10,
		Granularity:   decimal.NewFromInt(1),
		BaseAge:       21,
		SeedAmount:    decimal.NewFromInt(100),
	}
}

// Validate checks the options
func (o SolverOptions) Validate() error {
	if o.MaxIterations < 0 {
		return &SolverError{
			Operation: "validate_options",
			Message:   "max iterations cannot be negative",
		}
	}
	if !o.Granularity.IsPositive() {
		return &SolverError{
			Operation: "validate_options",
			Message:   "granularity must be positive",
		}
	}
	if o.BaseAge < 0 {
		return &SolverError{
			Operation: "validate_options",
			Message:   "base age cannot be negative",
		}
	}
	return nil
}

// Result is the outcome of an age-curve solve. A result with Converged false
// must not be presented as compliant.
type Result struct {
	SafeHarbor      domain.SafeHarbor `json:"safe_harbor"`
	BaseAge         int               `json:"base_age"`
	InitialBase     decimal.Decimal   `json:"initial_base"`
	BaseAmount      decimal.Decimal   `json:"base_amount"`
	Iterations      int               `json:"iterations"`
	Converged       bool              `json:"converged"`
	AllAffordable   bool              `json:"all_affordable"`
	ResidualGap     decimal.Decimal   `json:"residual_gap"`
	ConvergenceInfo string            `json:"convergence_info"`

	BindingEmployee string                 `json:"binding_employee,omitempty"`
	Strategy        *domain.StrategyResult `json:"strategy"`
}

// SolverError represents errors from the solver
type SolverError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *SolverError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *SolverError) Unwrap() error {
	return e.Cause
}
