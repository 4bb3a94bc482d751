package calculation

import (
	"testing"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkforceAnalyzer_MissingColumns(t *testing.T) {
	wa := NewWorkforceAnalyzer(domain.DefaultPlanYearConfig())

	tests := []struct {
		name   string
		mutate func(*domain.CensusColumns)
		column string
	}{
		{"no age column", func(c *domain.CensusColumns) { c.Age = false }, "age"},
		{"no state column", func(c *domain.CensusColumns) { c.State = false }, "state"},
		{"no id column", func(c *domain.CensusColumns) { c.EmployeeID = false }, "employee_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			census := domain.NewCensus([]domain.Employee{newEmployee("E1", 40, "TX", domain.FamilyEmployeeOnly, "3000")})
			tt.mutate(&census.Columns)

			got := wa.Analyze(Workforce{Census: census, LCSP: benchmarkByID{"E1": dec("600")}})
			require.NotNil(t, got.Error)
			assert.Equal(t, domain.AnalysisMissingColumn, got.Error.Code)
			assert.Equal(t, tt.column, got.Error.Column)
			assert.Empty(t, got.Employees, "No partial computation when a required column is missing")
		})
	}
}

func TestWorkforceAnalyzer_Analyze(t *testing.T) {
	wa := NewWorkforceAnalyzer(domain.DefaultPlanYearConfig())

	e2 := newEmployee("E2", 45, "TX", domain.FamilyEmployeeOnly, "3000")
	e2.CurrentERMonthly = decPtr("200")

	w := workforceOf(benchmarkByID{
		"E1": dec("450"),
		"E2": dec("600"),
		"E3": dec("700"),
	},
		newEmployee("E1", 25, "FL", domain.FamilyEmployeeOnly, "5000"),
		e2,
		newEmployee("E3", 55, "FL", domain.FamilyEmployeeSpouse, ""),
		newEmployee("E4", 35, "FL", domain.FamilyEmployeeOnly, "4000"),
	)

	got := wa.Analyze(w)
	require.Nil(t, got.Error)

	s := got.Summary
	assert.Equal(t, 4, s.TotalEmployees)
	assert.Equal(t, 2, s.EmployeesAnalyzed)
	assert.Equal(t, 1, s.EmployeesWithoutIncome)
	assert.Equal(t, 1, s.EmployeesWithoutPremium)
	assert.Equal(t, 1, s.AffordableAtCurrent)
	assert.Equal(t, 1, s.NeedsIncrease)
	assert.True(t, decEqual("1214.40", s.TotalGapAnnual), "gap %s", s.TotalGapAnnual)
	assert.True(t, decEqual("2400", s.CurrentERSpendAnnual))
	assert.True(t, decEqual("3614.40", s.MinRequiredSpendAnnual))
	assert.True(t, decEqual("150.60", s.MedianMinContribution))

	// E4 has no benchmark premium; E3 has no income but still appears in the detail list
	require.Len(t, got.Employees, 3)
	assert.False(t, got.Employees[2].HasIncomeData)

	require.Len(t, got.ByAgeBracket, 2)
	assert.Equal(t, "Under 30", got.ByAgeBracket[0].Label)
	assert.Equal(t, "40-49", got.ByAgeBracket[1].Label)

	require.Len(t, got.ByState, 2)
	assert.Equal(t, "FL", got.ByState[0].Label)
	assert.Equal(t, "TX", got.ByState[1].Label)
	assert.True(t, decEqual("0", got.ByState[1].AffordablePct))
	assert.True(t, decEqual("100", got.ByState[0].AffordablePct))

	assert.Empty(t, got.Flagged)
}

func TestWorkforceAnalyzer_FlagsOutliers(t *testing.T) {
	wa := NewWorkforceAnalyzer(domain.DefaultPlanYearConfig())

	// income 1000 -> max employee cost 99.60
	w := workforceOf(benchmarkByID{
		"A": dec("199.60"),
		"B": dec("199.60"),
		"C": dec("599.60"),
	},
		newEmployee("A", 30, "OH", domain.FamilyEmployeeOnly, "1000"),
		newEmployee("B", 31, "OH", domain.FamilyEmployeeOnly, "1000"),
		newEmployee("C", 62, "OH", domain.FamilyEmployeeOnly, "1000"),
	)

	got := wa.Analyze(w)
	assert.True(t, decEqual("100", got.Summary.MedianMinContribution))
	require.Len(t, got.Flagged, 1)
	assert.Equal(t, "C", got.Flagged[0].EmployeeID)
}

func TestBracketFor(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{18, "Under 30"},
		{30, "Under 30"},
		{31, "30-39"},
		{40, "30-39"},
		{60, "50-59"},
		{61, "60+"},
		{64, "60+"},
	}
	for _, tt := range tests {
		got, ok := bracketFor(tt.age)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got, "age %d", tt.age)
	}
	_, ok := bracketFor(0)
	assert.False(t, ok)
}

func TestWorkforceAnalyzer_WithoutBenchmarkSource(t *testing.T) {
	wa := NewWorkforceAnalyzer(domain.DefaultPlanYearConfig())

	got := wa.Analyze(Workforce{Census: domain.NewCensus([]domain.Employee{
		newEmployee("E1", 30, "OH", domain.FamilyEmployeeOnly, "3000"),
		newEmployee("E2", 50, "OH", domain.FamilyEmployeeOnly, "3000"),
	})})

	require.Nil(t, got.Error)
	assert.Equal(t, 2, got.Summary.TotalEmployees)
	assert.Equal(t, 2, got.Summary.EmployeesWithoutPremium)
	assert.Empty(t, got.Employees)
	assert.Empty(t, got.Flagged)
}
