package calculation

import (
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
)

// benchmarkByID is an in-memory BenchmarkSource keyed by employee ID
type benchmarkByID map[string]decimal.Decimal

func (b benchmarkByID) PremiumFor(e domain.Employee) (decimal.Decimal, bool) {
	p, ok := b[e.ID]
	return p, ok
}

func newEmployee(id string, age int, state string, fs domain.FamilyStatus, income string) domain.Employee {
	e := domain.Employee{
		ID:           id,
		Name:         "Employee " + id,
		Age:          age,
		State:        state,
		RatingArea:   1,
		FamilyStatus: fs,
	}
	if income != "" {
		e.MonthlyIncome = decPtr(income)
	}
	return e
}

func workforceOf(lcsp benchmarkByID, employees ...domain.Employee) Workforce {
	return Workforce{Census: domain.NewCensus(employees), LCSP: lcsp}
}

func decEqual(want string, got decimal.Decimal) bool {
	return dec(want).Equal(got)
}
