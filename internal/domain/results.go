package domain

import (
	"github.com/shopspring/decimal"
)

// SafeHarbor is the income measure used for an affordability test
type SafeHarbor string

const (
	SafeHarborFPL       SafeHarbor = "fpl"
	SafeHarborRateOfPay SafeHarbor = "rate_of_pay"
	SafeHarborW2        SafeHarbor = "w2_wages"
)

// Affordability holds the per-employee affordability figures.
// Pointer fields are nil when the employee has no income data.
type Affordability struct {
	HasIncomeData           bool             `json:"has_income_data"`
	LCSP                    decimal.Decimal  `json:"lcsp"`
	MonthlyIncome           *decimal.Decimal `json:"monthly_income,omitempty"`
	MaxEmployeeContribution *decimal.Decimal `json:"max_employee_contribution,omitempty"`
	MinEmployerContribution *decimal.Decimal `json:"min_employer_contribution,omitempty"`
	CurrentERContribution   decimal.Decimal  `json:"current_er_contribution"`
	Gap                     *decimal.Decimal `json:"gap,omitempty"`
	IsAffordableAtCurrent   *bool            `json:"is_affordable_at_current,omitempty"`
}

// EmployeeAffordability is one detail row of a workforce analysis
type EmployeeAffordability struct {
	EmployeeID   string       `json:"employee_id"`
	Name         string       `json:"name,omitempty"`
	Age          int          `json:"age"`
	State        string       `json:"state"`
	RatingArea   int          `json:"rating_area_id"`
	AgeBand      string       `json:"age_band"`
	FamilyStatus FamilyStatus `json:"family_status"`
	Affordability
}

// WorkforceSummary aggregates a workforce analysis
type WorkforceSummary struct {
	TotalEmployees          int             `json:"total_employees"`
	EmployeesAnalyzed       int             `json:"employees_analyzed"`
	EmployeesWithoutIncome  int             `json:"employees_without_income"`
	EmployeesWithoutPremium int             `json:"employees_without_premium"`
	AffordableAtCurrent     int             `json:"affordable_at_current"`
	NeedsIncrease           int             `json:"needs_increase"`
	TotalGapAnnual          decimal.Decimal `json:"total_gap_annual"`
	CurrentERSpendAnnual    decimal.Decimal `json:"current_er_spend_annual"`
	MinRequiredSpendAnnual  decimal.Decimal `json:"min_required_spend_annual"`
	MedianMinContribution   decimal.Decimal `json:"median_min_contribution"`
}

// GroupStat is one row of a distribution by age bracket or state
type GroupStat struct {
	Label                string          `json:"label"`
	Count                int             `json:"count"`
	AvgLCSP              decimal.Decimal `json:"avg_lcsp"`
	AvgMinERContribution decimal.Decimal `json:"avg_min_er_contribution"`
	AffordablePct        decimal.Decimal `json:"affordable_pct"`
}

// WorkforceAnalysis is the result of analyzing a whole census
type WorkforceAnalysis struct {
	Error        *AnalysisError          `json:"error,omitempty"`
	Summary      WorkforceSummary        `json:"summary"`
	Employees    []EmployeeAffordability `json:"employees"`
	ByAgeBracket []GroupStat             `json:"by_age_bracket"`
	ByState      []GroupStat             `json:"by_state"`
	Flagged      []EmployeeAffordability `json:"flagged"`
}

// AffordabilityVerdict is the safe-harbor test for one employee's contribution
type AffordabilityVerdict struct {
	SafeHarbor        SafeHarbor      `json:"safe_harbor"`
	Income            decimal.Decimal `json:"income"`
	IncomeFromFPL     bool            `json:"income_from_fpl"`
	EmployeeCost      decimal.Decimal `json:"employee_cost"`
	MaxEmployeeCost   decimal.Decimal `json:"max_employee_cost"`
	Affordable        bool            `json:"affordable"`
	AffordabilityPct  decimal.Decimal `json:"affordability_pct"`
	MarginToThreshold decimal.Decimal `json:"margin_to_threshold"`
	Gap               decimal.Decimal `json:"gap"`
}

// EmployeeContribution is one employee's line in a strategy result
type EmployeeContribution struct {
	EmployeeID            string                `json:"employee_id"`
	Name                  string                `json:"name,omitempty"`
	Age                   int                   `json:"age"`
	State                 string                `json:"state"`
	FamilyStatus          FamilyStatus          `json:"family_status"`
	AgeTier               string                `json:"age_tier"`
	LCSP                  decimal.Decimal       `json:"lcsp"`
	BaseContribution      decimal.Decimal       `json:"base_contribution"`
	FamilyMultiplier      decimal.Decimal       `json:"family_multiplier"`
	LocationAdjustment    decimal.Decimal       `json:"location_adjustment"`
	Contribution          decimal.Decimal       `json:"monthly_contribution"`
	AffordabilityAdjusted bool                  `json:"affordability_adjusted,omitempty"`
	Verdict               *AffordabilityVerdict `json:"affordability,omitempty"`
}

// TierTotal is a count and monthly total for one aggregation bucket
type TierTotal struct {
	Count        int             `json:"count"`
	TotalMonthly decimal.Decimal `json:"total_monthly"`
}

// AffordabilitySummary is the dataset-level affordability of a strategy result.
// AllAffordable is the only field consumers should use to present a result as compliant.
type AffordabilitySummary struct {
	SafeHarbor        SafeHarbor      `json:"safe_harbor"`
	EmployeesAnalyzed int             `json:"employees_analyzed"`
	AffordableCount   int             `json:"affordable_count"`
	UnaffordableCount int             `json:"unaffordable_count"`
	AffordablePct     decimal.Decimal `json:"affordable_pct"`
	AllAffordable     bool            `json:"all_affordable"`
	MaxGap            decimal.Decimal `json:"max_gap"`
	SkippedEmployees  []string        `json:"skipped_employees,omitempty"`
	Unaffordable      []string        `json:"unaffordable_employees,omitempty"`
}

// SubsidyOptimization reports how a subsidy-optimized flat amount was chosen
type SubsidyOptimization struct {
	FlatContribution     decimal.Decimal `json:"flat_contribution"`
	EligibleCount        int             `json:"subsidy_eligible_count"`
	HighROICount         int             `json:"high_roi_count"`
	MedicareCount        int             `json:"medicare_count"`
	EligibleAtOptimal    int             `json:"employees_eligible_at_optimal"`
	ConstrainingEmployee string          `json:"constraining_employee,omitempty"`
	ConstrainingAge      int             `json:"constraining_age,omitempty"`
}

// StrategyResult is derived from a StrategyConfig and a workforce; it is rebuilt on every call
type StrategyResult struct {
	Kind                           StrategyKind           `json:"strategy_type"`
	Name                           string                 `json:"name"`
	Employees                      []EmployeeContribution `json:"employees"`
	TotalMonthly                   decimal.Decimal        `json:"total_monthly"`
	TotalAnnual                    decimal.Decimal        `json:"total_annual"`
	EmployeesCovered               int                    `json:"employees_covered"`
	ExcludedEmployees              []string               `json:"excluded_employees,omitempty"`
	SkippedEmployees               []string               `json:"skipped_employees,omitempty"`
	ByAgeTier                      map[string]TierTotal   `json:"by_age_tier"`
	ByFamilyStatus                 map[string]TierTotal   `json:"by_family_status"`
	ByState                        map[string]TierTotal   `json:"by_state"`
	EmployeesAffordabilityAdjusted int                    `json:"employees_affordability_adjusted,omitempty"`
	Affordability                  *AffordabilitySummary  `json:"affordability,omitempty"`
	Subsidy                        *SubsidyOptimization   `json:"subsidy,omitempty"`
}

// Compliant reports whether the result is 100% affordable
func (sr *StrategyResult) Compliant() bool {
	return sr != nil && sr.Affordability != nil && sr.Affordability.AllAffordable
}
