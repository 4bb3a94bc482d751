package compare

import (
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/solver"
	"github.com/shopspring/decimal"
)

// OperatingMode selects which strategies are compared and how they are ranked
type OperatingMode string

const (
	ModeALE      OperatingMode = "ale"
	ModeStandard OperatingMode = "non_ale_standard"
	ModeSubsidy  OperatingMode = "non_ale_subsidy"
)

// Description returns a one-line explanation of the mode
func (m OperatingMode) Description() string {
	switch m {
	case ModeALE:
		return "Applicable large employer: 100% affordability required"
	case ModeStandard:
		return "Under the ALE threshold: minimize employer cost"
	case ModeSubsidy:
		return "Under the ALE threshold: preserve access to premium tax credits"
	}
	return string(m)
}

// DetermineMode returns ALE at or above the threshold, otherwise the standard
// or subsidy mode depending on the employer's goal
func DetermineMode(employeeCount, aleThreshold int, subsidyGoal bool) OperatingMode {
	switch {
	case employeeCount >= aleThreshold:
		return ModeALE
	case subsidyGoal:
		return ModeSubsidy
	default:
		return ModeStandard
	}
}

// ParseMode reads a mode name; ok is false for anything unknown
func ParseMode(s string) (OperatingMode, bool) {
	switch OperatingMode(s) {
	case ModeALE, ModeStandard, ModeSubsidy:
		return OperatingMode(s), true
	case "standard":
		return ModeStandard, true
	case "subsidy":
		return ModeSubsidy, true
	}
	return "", false
}

// AvailableStrategies lists the strategy kinds compared in a mode
func AvailableStrategies(mode OperatingMode) []domain.StrategyKind {
	switch mode {
	case ModeALE:
		return []domain.StrategyKind{
			domain.KindRateOfPaySafeHarbor,
			domain.KindFPLSafeHarbor,
			domain.KindBaseAgeCurve,
			domain.KindPercentageLCSP,
		}
	case ModeSubsidy:
		return []domain.StrategyKind{
			domain.KindSubsidyOptimized,
			domain.KindFlatAmount,
			domain.KindBaseAgeCurve,
		}
	case ModeStandard:
		return []domain.StrategyKind{
			domain.KindFlatAmount,
			domain.KindBaseAgeCurve,
			domain.KindPercentageLCSP,
		}
	}
	return nil
}

// StrategyOutcome is one evaluated strategy in a comparison
type StrategyOutcome struct {
	Rank             int                 `json:"rank"`
	Kind             domain.StrategyKind `json:"strategy_type"`
	Name             string              `json:"name"`
	BaseContribution decimal.Decimal     `json:"base_contribution"`
	TotalMonthly     decimal.Decimal     `json:"total_monthly"`
	TotalAnnual      decimal.Decimal     `json:"total_annual"`
	EmployeesCovered int                 `json:"employees_covered"`

	// Affordability is set in ALE mode; AllAffordable is the compliance flag
	AffordablePct *decimal.Decimal `json:"affordable_pct,omitempty"`
	AllAffordable bool             `json:"all_affordable"`

	SubsidyEligible  int              `json:"subsidy_eligible,omitempty"`
	VsCurrentMonthly *decimal.Decimal `json:"vs_current_monthly,omitempty"`

	Result *domain.StrategyResult `json:"result"`
	Solver *solver.Result         `json:"solver,omitempty"`
}

// ComparisonSet is the ranked outcome of comparing every strategy a mode allows
type ComparisonSet struct {
	Mode            OperatingMode     `json:"mode"`
	SafeHarbor      domain.SafeHarbor `json:"safe_harbor,omitempty"`
	EmployeeCount   int               `json:"employee_count"`
	Outcomes        []StrategyOutcome `json:"outcomes"`
	Recommendations []string          `json:"recommendations"`
	CensusPath      string            `json:"census_path,omitempty"`
}

// Best returns the top-ranked outcome, or nil for an empty comparison
func (cs *ComparisonSet) Best() *StrategyOutcome {
	if cs == nil || len(cs.Outcomes) == 0 {
		return nil
	}
	return &cs.Outcomes[0]
}

// HarborCost is the cost of satisfying affordability under one safe harbor.
// Costs are nil when the harbor cannot be evaluated.
type HarborCost struct {
	SafeHarbor       domain.SafeHarbor `json:"safe_harbor"`
	Available        bool              `json:"available"`
	MonthlyCost      *decimal.Decimal  `json:"monthly_cost,omitempty"`
	AnnualCost       *decimal.Decimal  `json:"annual_cost,omitempty"`
	EmployeesCovered int               `json:"employees_covered"`
	Description      string            `json:"description"`
}

// SafeHarborComparison compares the minimum cost under each safe harbor
type SafeHarborComparison struct {
	FPL           HarborCost        `json:"fpl"`
	RateOfPay     HarborCost        `json:"rate_of_pay"`
	W2            HarborCost        `json:"w2_wages"`
	Cheaper       domain.SafeHarbor `json:"cheaper"`
	MonthlySaving decimal.Decimal   `json:"monthly_saving"`
}

// ImpactSide is the affordability position before or after a strategy
type ImpactSide struct {
	AffordableCount   int             `json:"affordable_count"`
	EmployeesAnalyzed int             `json:"employees_analyzed"`
	AffordablePct     decimal.Decimal `json:"affordable_pct"`
	AnnualSpend       decimal.Decimal `json:"annual_spend"`
	TotalGapAnnual    decimal.Decimal `json:"total_gap_annual"`
}

// UnaffordableEmployee is one employee still unaffordable after a strategy
type UnaffordableEmployee struct {
	EmployeeID          string              `json:"employee_id"`
	Name                string              `json:"name,omitempty"`
	Age                 int                 `json:"age"`
	FamilyStatus        domain.FamilyStatus `json:"family_status"`
	MonthlyIncome       decimal.Decimal     `json:"monthly_income"`
	LCSP                decimal.Decimal     `json:"lcsp"`
	Contribution        decimal.Decimal     `json:"current_contribution"`
	MaxEmployeeCost     decimal.Decimal     `json:"max_employee_contribution"`
	MinAffordable       decimal.Decimal     `json:"min_affordable"`
	AdditionalNeeded    decimal.Decimal     `json:"gap"`
	EmployeeCostAtOffer decimal.Decimal     `json:"employee_cost"`
}

// AffordabilityImpact compares affordability at current contributions with a proposed strategy
type AffordabilityImpact struct {
	Before          ImpactSide             `json:"before"`
	After           ImpactSide             `json:"after"`
	EmployeesGained int                    `json:"employees_gained"`
	SpendChange     decimal.Decimal        `json:"spend_change"`
	GapClosed       decimal.Decimal        `json:"gap_closed"`
	Unaffordable    []UnaffordableEmployee `json:"unaffordable_employees,omitempty"`
}
