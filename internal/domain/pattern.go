package domain

import (
	"github.com/shopspring/decimal"
)

// PatternType classifies how an employer currently splits premiums
type PatternType string

const (
	PatternPercentage PatternType = "percentage"
	PatternFlatRate   PatternType = "flat_rate"
	PatternUncertain  PatternType = "uncertain"
	PatternUnknown    PatternType = "unknown"
	PatternMixed      PatternType = "mixed"
)

// Confidence grades a pattern classification
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// TierPattern is the detected pattern for one family tier
type TierPattern struct {
	FamilyStatus  FamilyStatus    `json:"family_status"`
	PatternType   PatternType     `json:"pattern_type"`
	EmployeeCount int             `json:"employee_count"`
	ERPercentage  decimal.Decimal `json:"er_percentage"`    // e.g. 0.70
	ERPercentCV   decimal.Decimal `json:"er_percentage_cv"` // coefficient of variation
	FlatAmount    decimal.Decimal `json:"flat_amount"`
	FlatAmountStd decimal.Decimal `json:"flat_amount_std"`
	FlatAmountCV  decimal.Decimal `json:"flat_amount_cv"`
	Confidence    Confidence      `json:"confidence"`
	NeedsReview   bool            `json:"needs_review"`
	ReviewReason  string          `json:"review_reason,omitempty"`
}

// PatternResult aggregates tier patterns into a dataset-level outcome
type PatternResult struct {
	OverallType        PatternType    `json:"overall_type"`
	Tiers              []TierPattern  `json:"tiers"`
	HasSufficientData  bool           `json:"has_sufficient_data"`
	TiersNeedingReview []FamilyStatus `json:"tiers_needing_review,omitempty"`
	Warnings           []string       `json:"warnings,omitempty"`
}

// Tier returns the pattern for a family status
func (pr *PatternResult) Tier(fs FamilyStatus) (TierPattern, bool) {
	for _, t := range pr.Tiers {
		if t.FamilyStatus == fs {
			return t, true
		}
	}
	return TierPattern{}, false
}

// RenewalProjection is the projected employer/employee split for a renewal premium
type RenewalProjection struct {
	EmployeeID     string          `json:"employee_id"`
	FamilyStatus   FamilyStatus    `json:"family_status"`
	RenewalPremium decimal.Decimal `json:"renewal_premium"`
	ProjectedER    decimal.Decimal `json:"projected_er"`
	ProjectedEE    decimal.Decimal `json:"projected_ee"`
	Method         PatternType     `json:"method"`
	UsedFallback   bool            `json:"used_fallback,omitempty"`
}
