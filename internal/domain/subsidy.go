package domain

import (
	"github.com/shopspring/decimal"
)

// SubsidyResult is the premium tax credit estimate for one household
type SubsidyResult struct {
	Eligible             bool             `json:"eligible"`
	MedicareExcluded     bool             `json:"medicare_excluded"`
	HouseholdSize        int              `json:"household_size"`
	PovertyLine          decimal.Decimal  `json:"poverty_line"`
	FPLPercent           *decimal.Decimal `json:"fpl_percent,omitempty"`
	ApplicableRate       *decimal.Decimal `json:"applicable_rate,omitempty"` // percent of income
	ExpectedContribution decimal.Decimal  `json:"expected_contribution"`     // monthly
	MonthlySubsidy       decimal.Decimal  `json:"monthly_subsidy"`
	Reason               string           `json:"reason,omitempty"`
}

// SubsidyRecommendation is the suggested path for one employee
type SubsidyRecommendation string

const (
	RecommendSubsidy          SubsidyRecommendation = "subsidy"
	RecommendICHRA            SubsidyRecommendation = "ichra"
	RecommendMedicare         SubsidyRecommendation = "medicare"
	RecommendInsufficientData SubsidyRecommendation = "insufficient_data"
)

// EmployeeSubsidyAnalysis compares an ICHRA offer against the marketplace subsidy
type EmployeeSubsidyAnalysis struct {
	EmployeeID                    string                `json:"employee_id"`
	Name                          string                `json:"name,omitempty"`
	Age                           int                   `json:"age"`
	State                         string                `json:"state"`
	FamilyStatus                  FamilyStatus          `json:"family_status"`
	LCSP                          *decimal.Decimal      `json:"lcsp,omitempty"`
	SLCSP                         *decimal.Decimal      `json:"slcsp,omitempty"`
	ERContribution                decimal.Decimal       `json:"er_contribution"`
	ICHRAAffordable               *bool                 `json:"ichra_affordable,omitempty"`
	Subsidy                       SubsidyResult         `json:"subsidy"`
	Recommendation                SubsidyRecommendation `json:"recommendation"`
	SubsidyAdvantage              decimal.Decimal       `json:"subsidy_advantage"` // subsidy minus ER contribution
	MaxContributionForEligibility *decimal.Decimal      `json:"max_contribution_for_eligibility,omitempty"`
}

// SubsidyWorkforceSummary splits a workforce into under-65 and Medicare populations
type SubsidyWorkforceSummary struct {
	TotalEmployees      int                       `json:"total_employees"`
	Under65             int                       `json:"under_65"`
	MedicareEligible    int                       `json:"medicare_eligible"`
	SubsidyEligible     int                       `json:"subsidy_eligible"`
	RecommendSubsidy    int                       `json:"recommend_subsidy"`
	MissingIncome       int                       `json:"missing_income"`
	MissingBenchmark    int                       `json:"missing_benchmark"`
	TotalMonthlySubsidy decimal.Decimal           `json:"total_monthly_subsidy"`
	Employees           []EmployeeSubsidyAnalysis `json:"employees"`
}
