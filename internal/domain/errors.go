package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStrategy is returned for a strategy tag or type the engine does not know
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrEmptyTiers is returned when a tiered strategy is applied without tiers
	ErrEmptyTiers = errors.New("strategy has no tiers")
)

// ConfigError represents a programming or configuration mistake, as opposed to
// messy input data which always degrades to absent fields.
type ConfigError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// AnalysisErrorCode identifies why a workforce analysis could not run
type AnalysisErrorCode string

const (
	AnalysisMissingColumn AnalysisErrorCode = "missing_column"
	AnalysisNoEmployees   AnalysisErrorCode = "no_employees"
)

// AnalysisError is reported inside an analysis result instead of being returned
type AnalysisError struct {
	Code    AnalysisErrorCode `json:"code"`
	Column  string            `json:"column,omitempty"`
	Message string            `json:"message"`
}

func (e *AnalysisError) Error() string {
	return e.Message
}
