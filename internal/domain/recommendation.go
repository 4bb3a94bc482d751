package domain

import (
	"github.com/shopspring/decimal"
)

// RecommendationType identifies a recommended contribution structure
type RecommendationType string

const (
	RecommendFlat       RecommendationType = "flat"
	RecommendAgeBanded  RecommendationType = "age_banded"
	RecommendByLocation RecommendationType = "location"
)

// RecommendationTier is one band or state of a recommendation.
// Contribution is the highest individual minimum inside the tier.
type RecommendationTier struct {
	Label         string          `json:"label"`
	AgeMin        int             `json:"age_min,omitempty"`
	AgeMax        int             `json:"age_max,omitempty"`
	State         string          `json:"state,omitempty"`
	Contribution  decimal.Decimal `json:"contribution"`
	EmployeeCount int             `json:"employee_count"`
	TotalMonthly  decimal.Decimal `json:"total_monthly"`
}

// Recommendation is one ranked strategy summary
type Recommendation struct {
	Type             RecommendationType   `json:"type"`
	Name             string               `json:"name"`
	Description      string               `json:"description"`
	Tiers            []RecommendationTier `json:"tiers"`
	AnnualCost       decimal.Decimal      `json:"annual_cost"`
	SavingsVsCurrent decimal.Decimal      `json:"savings_vs_current"`
	CV               decimal.Decimal      `json:"cv,omitempty"`
	Pros             []string             `json:"pros,omitempty"`
	Cons             []string             `json:"cons,omitempty"`
	Warnings         []string             `json:"warnings,omitempty"`
}

// RecommendationSet is the recommender output for a workforce
type RecommendationSet struct {
	Recommendations      []Recommendation `json:"recommendations"`
	EmployeesAnalyzed    int              `json:"employees_analyzed"`
	CurrentERSpendAnnual decimal.Decimal  `json:"current_er_spend_annual"`
}

// Find returns the recommendation of a type
func (rs *RecommendationSet) Find(t RecommendationType) (*Recommendation, bool) {
	for i := range rs.Recommendations {
		if rs.Recommendations[i].Type == t {
			return &rs.Recommendations[i], true
		}
	}
	return nil, false
}

// ContributionClass is one (tier x family status) class of a class model
type ContributionClass struct {
	ID               string          `json:"class_id"`
	TierLabel        string          `json:"tier_label"`
	FamilyStatus     FamilyStatus    `json:"family_status"`
	AgeMin           int             `json:"age_min,omitempty"`
	AgeMax           int             `json:"age_max,omitempty"`
	State            string          `json:"state,omitempty"`
	BaseContribution decimal.Decimal `json:"base_contribution"`
	Contribution     decimal.Decimal `json:"monthly_contribution"`
	EmployeeCount    int             `json:"employee_count"`
}

// ClassAssignment places one employee in exactly one class
type ClassAssignment struct {
	EmployeeID   string          `json:"employee_id"`
	ClassID      string          `json:"class_id"`
	Contribution decimal.Decimal `json:"monthly_contribution"`
	Fallback     bool            `json:"fallback,omitempty"`
}

// ClassModel is a recommendation expanded into classes and assignments
type ClassModel struct {
	StrategyType      RecommendationType  `json:"strategy_type"`
	Classes           []ContributionClass `json:"classes"`
	Assignments       []ClassAssignment   `json:"assignments"`
	TotalMonthly      decimal.Decimal     `json:"total_monthly"`
	TotalAnnual       decimal.Decimal     `json:"total_annual"`
	EmployeesAssigned int                 `json:"employees_assigned"`
	Warnings          []string            `json:"warnings,omitempty"`
}
