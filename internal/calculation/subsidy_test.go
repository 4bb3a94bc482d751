package calculation

import (
	"testing"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubsidyCalculator_ApplicableRate(t *testing.T) {
	sc := NewSubsidyCalculator()

	tests := []struct {
		pct    string
		want   string
		wantOK bool
	}{
		{"50", "2.10", true},
		{"99.9", "2.10", true},
		{"100", "2.10", true},
		{"120", "2.10", true},
		{"133", "2.10", true},
		{"141.5", "3.665", true},
		{"150", "4.19", true},
		{"175", "5.395", true},
		{"200", "6.60", true},
		{"225", "7.52", true},
		{"250", "8.44", true},
		{"275", "9.20", true},
		{"300", "9.96", true},
		{"350", "9.96", true},
		{"400", "9.96", true},
		{"400.01", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.pct, func(t *testing.T) {
			got, ok := sc.ApplicableRate(dec(tt.pct))
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, dec(tt.want).Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestSubsidyCalculator_BelowFirstBracketRate(t *testing.T) {
	sc := NewSubsidyCalculator()
	sc.Rules.BelowFirstBracketRate = dec("0")

	got, ok := sc.ApplicableRate(dec("90"))
	require.True(t, ok)
	assert.True(t, got.IsZero(), "got %s", got)

	got, _ = sc.ApplicableRate(dec("100"))
	assert.True(t, dec("2.10").Equal(got), "First bracket still applies from its lower bound")
}

// Interpolation adds no jump of its own: rates are continuous across every
// bound where adjacent rows agree, and a step only appears where the table has one.
func TestSubsidyCalculator_RateIsContinuousAtBoundaries(t *testing.T) {
	sc := NewSubsidyCalculator()
	epsilon := dec("0.0001")

	brackets := sc.Rules.Brackets
	for i := 1; i < len(brackets); i++ {
		prev, b := brackets[i-1], brackets[i]
		at, _ := sc.ApplicableRate(b.LowerPct)
		above, _ := sc.ApplicableRate(b.LowerPct.Add(epsilon))

		assert.True(t, at.Equal(prev.UpperRate), "rate at %s%% FPL: %s", b.LowerPct, at)
		if prev.UpperRate.Equal(b.LowerRate) {
			assert.True(t, above.Sub(at).Abs().LessThan(dec("0.001")),
				"rate jumps at %s%% FPL: %s -> %s", b.LowerPct, at, above)
		} else {
			assert.True(t, above.Sub(b.LowerRate).Abs().LessThan(dec("0.001")),
				"step at %s%% FPL should land on %s, got %s", b.LowerPct, b.LowerRate, above)
		}
	}
}

func TestSubsidyCalculator_DefaultScheduleTopsOutAtThreshold(t *testing.T) {
	sc := NewSubsidyCalculator()

	// $5,000 a month for a household of one is 383% FPL
	got := sc.Calculate(SubsidyInput{
		Age:           40,
		State:         "OH",
		MonthlyIncome: decPtr("5000"),
		HouseholdSize: 1,
		Benchmark:     decPtr("700"),
	})
	require.NotNil(t, got.ApplicableRate)
	assert.True(t, decEqual("9.96", *got.ApplicableRate))
	assert.True(t, decEqual("498", got.ExpectedContribution))
	assert.True(t, decEqual("202", got.MonthlySubsidy))
	assert.True(t, got.Eligible)
}

func TestSubsidyCalculator_Calculate(t *testing.T) {
	sc := NewSubsidyCalculator()

	t.Run("medicare checked first", func(t *testing.T) {
		got := sc.Calculate(SubsidyInput{Age: 65, State: "OH", HouseholdSize: 1})
		assert.True(t, got.MedicareExcluded)
		assert.False(t, got.Eligible)
		assert.Contains(t, got.Reason, "Medicare")
	})

	t.Run("missing income", func(t *testing.T) {
		got := sc.Calculate(SubsidyInput{Age: 40, State: "OH", HouseholdSize: 1, Benchmark: decPtr("700")})
		assert.False(t, got.Eligible)
		assert.Equal(t, "No income data", got.Reason)
	})

	t.Run("sliding scale", func(t *testing.T) {
		got := sc.Calculate(SubsidyInput{
			Age:           40,
			State:         "OH",
			MonthlyIncome: decPtr("2500"),
			HouseholdSize: 1,
			Benchmark:     decPtr("700"),
		})
		require.True(t, got.Eligible)
		require.NotNil(t, got.FPLPercent)
		assert.True(t, decEqual("191.7", *got.FPLPercent))
		assert.True(t, decEqual("6.2", *got.ApplicableRate))
		assert.True(t, decEqual("154.99", got.ExpectedContribution))
		assert.True(t, decEqual("545.01", got.MonthlySubsidy))
	})

	t.Run("above the cap", func(t *testing.T) {
		got := sc.Calculate(SubsidyInput{
			Age:           40,
			State:         "OH",
			MonthlyIncome: decPtr("6000"),
			HouseholdSize: 1,
			Benchmark:     decPtr("700"),
		})
		assert.False(t, got.Eligible)
		assert.Nil(t, got.ApplicableRate)
		assert.True(t, decEqual("700", got.ExpectedContribution))
		assert.True(t, got.MonthlySubsidy.IsZero())
	})

	t.Run("household size and state table", func(t *testing.T) {
		got := sc.Calculate(SubsidyInput{Age: 40, State: "AK", MonthlyIncome: decPtr("3000"), HouseholdSize: 4, Benchmark: decPtr("1500")})
		assert.True(t, decEqual("40190", got.PovertyLine))
		assert.Equal(t, 4, got.HouseholdSize)
	})
}

func TestSubsidyCalculator_MaxContributionForEligibility(t *testing.T) {
	sc := NewSubsidyCalculator()

	got := sc.MaxContributionForEligibility(dec("2500"), dec("650"))
	require.NotNil(t, got)
	assert.True(t, decEqual("360.9", *got))

	assert.Nil(t, sc.MaxContributionForEligibility(dec("5000"), dec("400")), "Offer is affordable even at zero")
}

func TestCanUseUnaffordabilityStrategy(t *testing.T) {
	assert.False(t, CanUseUnaffordabilityStrategy(domain.SafeHarborFPL))
	assert.True(t, CanUseUnaffordabilityStrategy(domain.SafeHarborRateOfPay))
	assert.True(t, CanUseUnaffordabilityStrategy(domain.SafeHarborW2))
}

func TestSubsidyCalculator_AnalyzeEmployee(t *testing.T) {
	sc := NewSubsidyCalculator()
	e := newEmployee("A", 40, "OH", domain.FamilyEmployeeOnly, "2500")

	tests := []struct {
		name         string
		employee     domain.Employee
		contribution string
		want         domain.SubsidyRecommendation
	}{
		{"no contribution keeps the subsidy", e, "0", domain.RecommendSubsidy},
		{"affordable offer", e, "500", domain.RecommendICHRA},
		{"medicare", newEmployee("B", 67, "OH", domain.FamilyEmployeeOnly, "2500"), "0", domain.RecommendMedicare},
		{"no income", newEmployee("C", 40, "OH", domain.FamilyEmployeeOnly, ""), "0", domain.RecommendInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sc.AnalyzeEmployee(tt.employee, decPtr("650"), decPtr("700"), dec(tt.contribution))
			assert.Equal(t, tt.want, got.Recommendation)
		})
	}

	got := sc.AnalyzeEmployee(e, decPtr("650"), decPtr("700"), decimal.Zero)
	require.NotNil(t, got.ICHRAAffordable)
	assert.False(t, *got.ICHRAAffordable)
	assert.True(t, decEqual("545.01", got.SubsidyAdvantage))
	require.NotNil(t, got.MaxContributionForEligibility)
	assert.True(t, decEqual("360.90", *got.MaxContributionForEligibility))
}

func TestSubsidyCalculator_AnalyzeWorkforce(t *testing.T) {
	sc := NewSubsidyCalculator()

	w := Workforce{
		Census: domain.NewCensus([]domain.Employee{
			newEmployee("A", 40, "OH", domain.FamilyEmployeeOnly, "2500"),
			newEmployee("B", 70, "OH", domain.FamilyEmployeeOnly, "2500"),
			newEmployee("C", 30, "OH", domain.FamilyEmployeeOnly, ""),
			newEmployee("D", 30, "OH", domain.FamilyEmployeeOnly, "2500"),
		}),
		LCSP:  benchmarkByID{"A": dec("650"), "B": dec("650"), "C": dec("650")},
		SLCSP: benchmarkByID{"A": dec("700"), "B": dec("700"), "C": dec("700")},
	}

	got := sc.AnalyzeWorkforce(w, map[string]decimal.Decimal{"A": dec("100")})
	assert.Equal(t, 4, got.TotalEmployees)
	assert.Equal(t, 3, got.Under65)
	assert.Equal(t, 1, got.MedicareEligible)
	assert.Equal(t, 1, got.SubsidyEligible)
	assert.Equal(t, 1, got.RecommendSubsidy)
	assert.Equal(t, 1, got.MissingIncome)
	assert.Equal(t, 1, got.MissingBenchmark)
	assert.True(t, decEqual("545.01", got.TotalMonthlySubsidy))
	assert.Len(t, got.Employees, 4)
}
