package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestParseFamilyStatus(t *testing.T) {
	tests := []struct {
		in   string
		want FamilyStatus
	}{
		{"EE", FamilyEmployeeOnly},
		{" es ", FamilyEmployeeSpouse},
		{"ec", FamilyEmployeeChildren},
		{"Family", FamilyFull},
		{"FAM", FamilyFull},
		{"", FamilyEmployeeOnly},
		{"domestic partner", FamilyEmployeeOnly},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFamilyStatus(tt.in))
		})
	}
}

func TestEmployee(t *testing.T) {
	e := Employee{ID: "A", Age: 40, FamilyStatus: "XX"}
	assert.False(t, e.HasIncome())
	assert.Equal(t, FamilyEmployeeOnly, e.Status(), "Unknown codes are treated as self-only")
	assert.True(t, e.CurrentER().IsZero())
	assert.Equal(t, 40, e.AgeOr(30))

	e.AgeMissing = true
	e.MonthlyIncome = decPtr("0")
	e.CurrentERMonthly = decPtr("250.50")
	assert.Equal(t, 30, e.AgeOr(30))
	assert.False(t, e.HasIncome(), "Zero income counts as absent")
	assert.Equal(t, "250.5", e.CurrentER().String())
}

func TestCensus(t *testing.T) {
	c := NewCensus([]Employee{
		{ID: "A", State: "OH"},
		{ID: "B", State: "TX", MonthlyIncome: decPtr("3000")},
		{ID: "C", State: "OH"},
	})
	assert.Equal(t, 3, c.Len())
	assert.True(t, c.HasIncomeData())
	assert.Equal(t, []string{"OH", "TX"}, c.States())
	assert.Empty(t, c.Columns.Missing())

	var nilCensus *Census
	assert.Equal(t, 0, nilCensus.Len())

	cols := CensusColumns{EmployeeID: true, Age: true, State: true, RatingArea: true, FamilyStatus: true}
	assert.Equal(t, []string{"monthly_income", "current_er_monthly", "current_ee_monthly", "renewal_premium"}, cols.Missing())
}

func TestFamilyMultipliers(t *testing.T) {
	fm := DefaultFamilyMultipliers()
	require.NoError(t, fm.Validate())
	assert.Equal(t, "1.8", fm.For(FamilyFull).String())
	assert.Equal(t, "1.3", fm.For(FamilyEmployeeChildren).String())
	assert.Equal(t, "1", fm.For("").String(), "Unknown tiers use the self-only multiplier")

	fm.ES = decimal.Zero
	err := fm.Validate()
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Message, "ES")
}

func TestAgeCurve(t *testing.T) {
	curve := DefaultAgeCurve()
	lo, hi := curve.Bounds()
	assert.Equal(t, 0, lo)
	assert.Equal(t, 64, hi)

	assert.Equal(t, "1", curve.Factor(21).String())
	assert.Equal(t, "3", curve.Factor(70).String(), "Ages past the table clamp to the oldest factor")
	assert.Equal(t, "0.635", curve.Factor(-1).String())

	sparse := AgeCurve{21: decimal.NewFromInt(1), 30: decimal.NewFromInt(2)}
	assert.Equal(t, "1", sparse.Factor(25).String(), "Gaps resolve to the nearest lower age")
	assert.Equal(t, "1", AgeCurve{}.Factor(40).String())
}

func TestPovertyGuidelines(t *testing.T) {
	pg := DefaultPovertyGuidelines()
	tests := []struct {
		name  string
		state string
		size  int
		want  int64
	}{
		{"single contiguous", "OH", 1, 15650},
		{"family of four", "TX", 4, 32150},
		{"below one clamps", "OH", 0, 15650},
		{"above eight", "OH", 10, 54150 + 2*5500},
		{"alaska", "ak", 1, 19550},
		{"hawaii", "HI", 2, 24320},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, decimal.NewFromInt(tt.want).Equal(pg.Line(tt.state, tt.size)), "got %s", pg.Line(tt.state, tt.size))
		})
	}
	assert.True(t, PovertyTable{}.Line(3).IsZero())
}

func TestSubsidyRules_HouseholdSize(t *testing.T) {
	rules := DefaultSubsidyRules()
	assert.Equal(t, 4, rules.HouseholdSize(FamilyFull))
	assert.Equal(t, 2, rules.HouseholdSize(FamilyEmployeeSpouse))
	assert.Equal(t, 1, SubsidyRules{}.HouseholdSize(FamilyFull))
}

func TestPremiumRules_UsesFamilyTierRates(t *testing.T) {
	rules := DefaultPlanYearConfig().Premiums
	assert.True(t, rules.UsesFamilyTierRates("ny"))
	assert.True(t, rules.UsesFamilyTierRates("VT"))
	assert.False(t, rules.UsesFamilyTierRates("OH"))
}

func TestStrategyParams_ToConfig(t *testing.T) {
	defaults := DefaultFamilyMultipliers()

	tests := []struct {
		name    string
		params  StrategyParams
		want    Strategy
		wantErr error
	}{
		{"flat", StrategyParams{Type: "flat_amount", Amount: decPtr("300")}, FlatAmount{Amount: decimal.NewFromInt(300)}, nil},
		{"flat without amount", StrategyParams{Type: "FLAT_AMOUNT"}, FlatAmount{Amount: decimal.Zero}, nil},
		{"curve defaults base age", StrategyParams{Type: "base_age_curve", Amount: decPtr("250")}, BaseAgeCurve{BaseAge: 21, BaseAmount: decimal.NewFromInt(250)}, nil},
		{"curve base amount wins", StrategyParams{Type: "base_age_curve", BaseAge: 30, Amount: decPtr("1"), BaseAmount: decPtr("200")}, BaseAgeCurve{BaseAge: 30, BaseAmount: decimal.NewFromInt(200)}, nil},
		{"percent defaults to 100", StrategyParams{Type: "percentage_lcsp"}, PercentageOfLCSP{Percent: decimal.NewFromInt(100)}, nil},
		{"fpl", StrategyParams{Type: "fpl_safe_harbor"}, FPLSafeHarbor{}, nil},
		{"rate of pay", StrategyParams{Type: "rate_of_pay_safe_harbor"}, RateOfPaySafeHarbor{}, nil},
		{"subsidy", StrategyParams{Type: "subsidy_optimized"}, SubsidyOptimized{}, nil},
		{"tiers", StrategyParams{Type: "fixed_age_tiers", TierAmounts: map[string]decimal.Decimal{"26-35": decimal.NewFromInt(300)}}, FixedAgeTiers{Amounts: map[string]decimal.Decimal{"26-35": decimal.NewFromInt(300)}}, nil},
		{"tiers empty", StrategyParams{Type: "fixed_age_tiers"}, nil, ErrEmptyTiers},
		{"unknown", StrategyParams{Type: "bonus"}, nil, ErrUnknownStrategy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := tt.params.ToConfig(defaults)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Strategy)
			assert.Nil(t, cfg.FamilyMultipliers)
		})
	}
}

func TestStrategyParams_Modifiers(t *testing.T) {
	defaults := DefaultFamilyMultipliers()

	cfg, err := StrategyParams{
		Type:                   "flat_amount",
		Amount:                 decPtr("100"),
		ApplyFamilyMultipliers: true,
		LocationAdjustments:    map[string]decimal.Decimal{"ca": decimal.NewFromInt(50)},
	}.ToConfig(defaults)
	require.NoError(t, err)
	require.NotNil(t, cfg.FamilyMultipliers)
	assert.Equal(t, defaults, *cfg.FamilyMultipliers)
	assert.Equal(t, "50", cfg.LocationAdjustment("CA").String())
	assert.Equal(t, "50", cfg.LocationAdjustment("ca").String())
	assert.True(t, cfg.LocationAdjustment("TX").IsZero())

	custom := FamilyMultipliers{EE: decimal.NewFromInt(1), ES: decimal.NewFromInt(2), EC: decimal.NewFromInt(2), F: decimal.NewFromInt(3)}
	cfg, err = StrategyParams{Type: "flat_amount", FamilyMultipliers: &custom}.ToConfig(defaults)
	require.NoError(t, err)
	assert.Equal(t, custom, *cfg.FamilyMultipliers, "Explicit multipliers win over the defaults")

	_, err = StrategyParams{
		Type:                "flat_amount",
		LocationAdjustments: map[string]decimal.Decimal{"CA": decimal.NewFromInt(-5)},
	}.ToConfig(defaults)
	assert.Error(t, err)

	_, err = StrategyParams{Type: "flat_amount", Amount: decPtr("-1")}.ToConfig(defaults)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "flat_amount", cfgErr.Operation)
}

func TestStrategyConfig_ValidateWithoutStrategy(t *testing.T) {
	err := StrategyConfig{}.Validate()
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.Equal(t, "strategy: no strategy selected: unknown strategy", err.Error())
}

func TestFixedAgeTierLabel(t *testing.T) {
	tests := []struct {
		age  int
		want string
	}{
		{21, "21"},
		{18, "18-25"},
		{25, "18-25"},
		{26, "26-35"},
		{55, "46-55"},
		{63, "56-63"},
		{64, "64+"},
		{10, "18-25"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FixedAgeTierLabel(tt.age), "age %d", tt.age)
	}
}

func TestResultHelpers(t *testing.T) {
	var result *StrategyResult
	assert.False(t, result.Compliant())
	result = &StrategyResult{Affordability: &AffordabilitySummary{AllAffordable: true}}
	assert.True(t, result.Compliant())

	set := &RecommendationSet{Recommendations: []Recommendation{{Type: RecommendFlat}, {Type: RecommendByLocation}}}
	rec, ok := set.Find(RecommendByLocation)
	require.True(t, ok)
	assert.Equal(t, RecommendByLocation, rec.Type)
	_, ok = set.Find(RecommendAgeBanded)
	assert.False(t, ok)

	patterns := &PatternResult{Tiers: []TierPattern{{FamilyStatus: FamilyFull}}}
	_, ok = patterns.Tier(FamilyFull)
	assert.True(t, ok)
	_, ok = patterns.Tier(FamilyEmployeeOnly)
	assert.False(t, ok)
}
