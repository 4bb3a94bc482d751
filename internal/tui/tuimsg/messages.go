package tuimsg

import (
	"github.com/rgehrsitz/ichra/internal/compare"
	"github.com/rgehrsitz/ichra/internal/domain"
)

// ErrorMsg displays an error to the user
type ErrorMsg struct {
	Err error
}

// ComparisonStartedMsg signals a strategy comparison has begun
type ComparisonStartedMsg struct {
	Mode compare.OperatingMode
}

// ComparisonCompleteMsg carries a finished comparison and the workforce analysis it ran against
type ComparisonCompleteMsg struct {
	Mode     compare.OperatingMode
	Set      *compare.ComparisonSet
	Analysis *domain.WorkforceAnalysis
	Err      error
}

// OutcomeSelectedMsg signals a strategy has been picked from the comparison table
type OutcomeSelectedMsg struct {
	Outcome *compare.StrategyOutcome
}
