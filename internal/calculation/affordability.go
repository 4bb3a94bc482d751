package calculation

import (
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
)

// AffordabilityCalculator applies the percentage-of-income affordability test
type AffordabilityCalculator struct {
	ThresholdRate decimal.Decimal
}

// NewAffordabilityCalculator creates a calculator with the default plan year threshold
func NewAffordabilityCalculator() *AffordabilityCalculator {
	return NewAffordabilityCalculatorWithConfig(domain.DefaultAffordabilityRules())
}

// NewAffordabilityCalculatorWithConfig creates a calculator from plan year rules
func NewAffordabilityCalculatorWithConfig(rules domain.AffordabilityRules) *AffordabilityCalculator {
	return &AffordabilityCalculator{ThresholdRate: rules.ThresholdRate}
}

// MaxEmployeeContribution is the most an employee can be asked to pay: income x threshold
func (ac *AffordabilityCalculator) MaxEmployeeContribution(monthlyIncome decimal.Decimal) decimal.Decimal {
	return monthlyIncome.Mul(ac.ThresholdRate)
}

// MinEmployerContribution is max(0, premium - income x threshold)
func (ac *AffordabilityCalculator) MinEmployerContribution(monthlyIncome, premium decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, premium.Sub(ac.MaxEmployeeContribution(monthlyIncome)))
}

// Calculate computes the affordability figures for one employee.
// Absent or non-positive income leaves every derived field nil.
func (ac *AffordabilityCalculator) Calculate(monthlyIncome *decimal.Decimal, premium decimal.Decimal, currentER *decimal.Decimal) domain.Affordability {
	current := decimal.Zero
	if currentER != nil {
		current = *currentER
	}
	result := domain.Affordability{
		LCSP:                  premium.Round(2),
		CurrentERContribution: current.Round(2),
	}
	if monthlyIncome == nil || !monthlyIncome.GreaterThan(decimal.Zero) {
		return result
	}

	maxEE := ac.MaxEmployeeContribution(*monthlyIncome)
	minER := decimal.Max(decimal.Zero, premium.Sub(maxEE))
	gap := decimal.Max(decimal.Zero, minER.Sub(current))
	affordable := current.GreaterThanOrEqual(minER)

	income := monthlyIncome.Round(2)
	maxEE = maxEE.Round(2)
	minER = minER.Round(2)
	gap = gap.Round(2)

	result.HasIncomeData = true
	result.MonthlyIncome = &income
	result.MaxEmployeeContribution = &maxEE
	result.MinEmployerContribution = &minER
	result.Gap = &gap
	result.IsAffordableAtCurrent = &affordable
	return result
}

// Verdict tests a contribution against an income. Cost is what the employee still
// pays for the benchmark plan after the contribution.
func (ac *AffordabilityCalculator) Verdict(harbor domain.SafeHarbor, income, premium, contribution decimal.Decimal, fromFPL bool) domain.AffordabilityVerdict {
	maxCost := ac.MaxEmployeeContribution(income)
	cost := decimal.Max(decimal.Zero, premium.Sub(contribution))
	v := domain.AffordabilityVerdict{
		SafeHarbor:        harbor,
		Income:            income.Round(2),
		IncomeFromFPL:     fromFPL,
		EmployeeCost:      cost.Round(2),
		MaxEmployeeCost:   maxCost.Round(2),
		Affordable:        cost.LessThanOrEqual(maxCost),
		MarginToThreshold: maxCost.Sub(cost).Round(2),
		Gap:               decimal.Max(decimal.Zero, cost.Sub(maxCost)).Round(2),
	}
	if income.GreaterThan(decimal.Zero) {
		v.AffordabilityPct = cost.Div(income).Mul(hundred).Round(2)
	}
	return v
}
