// Package api serves the contribution engine over HTTP.
package api

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/premium"
	"github.com/shopspring/decimal"
)

// Record is one census row keyed by column name. Values may be JSON strings,
// numbers or null.
type Record map[string]json.RawMessage

// Request is the body accepted by every analysis route
type Request struct {
	Employees []Record           `json:"employees"`
	Premiums  *premium.RateTable `json:"premiums,omitempty"`

	// strategy and subsidy
	Strategy      *domain.StrategyParams     `json:"strategy,omitempty"`
	SafeHarbor    domain.SafeHarbor          `json:"safe_harbor,omitempty"`
	Contributions map[string]decimal.Decimal `json:"contributions,omitempty"`

	// compare
	Mode string `json:"mode,omitempty"`

	// recommend: expand one recommendation type into a class model
	Apply domain.RecommendationType `json:"apply,omitempty"`
}

// Response wraps every successful result
type Response struct {
	RequestID string `json:"request_id"`
	SessionID string `json:"session_id"`
	PlanYear  int    `json:"plan_year"`
	Result    any    `json:"result"`
}

// ErrorResponse is returned for every failure
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// RecommendResult is the body of a recommend response
type RecommendResult struct {
	Recommendations *domain.RecommendationSet `json:"recommendations"`
	ClassModel      *domain.ClassModel        `json:"class_model,omitempty"`
}

// PatternsResult is the body of a patterns response
type PatternsResult struct {
	Patterns *domain.PatternResult      `json:"patterns"`
	Renewal  []domain.RenewalProjection `json:"renewal,omitempty"`
}

// records flattens raw JSON values into the string form the census parser reads
func (r *Request) records() ([]map[string]string, error) {
	out := make([]map[string]string, len(r.Employees))
	for i, rec := range r.Employees {
		row := make(map[string]string, len(rec))
		for k, raw := range rec {
			v, err := scalar(raw)
			if err != nil {
				return nil, fmt.Errorf("employee %d, field %q: %w", i+1, k, err)
			}
			row[k] = v
		}
		out[i] = row
	}
	return out, nil
}

func scalar(raw json.RawMessage) (string, error) {
	text := strings.TrimSpace(string(raw))
	switch {
	case text == "" || text == "null":
		return "", nil
	case strings.HasPrefix(text, `"`):
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case strings.HasPrefix(text, "{"), strings.HasPrefix(text, "["):
		return "", fmt.Errorf("expected a string or number")
	}
	return text, nil
}
