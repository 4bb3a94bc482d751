package domain

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// PlanYearConfig contains all regulatory data for one plan year.
// It is loaded from plan_year.yaml and can be swapped without code changes.
type PlanYearConfig struct {
	Metadata          PlanYearMetadata   `yaml:"metadata" json:"metadata"`
	Affordability     AffordabilityRules `yaml:"affordability" json:"affordability"`
	AgeCurve          AgeCurve           `yaml:"age_curve" json:"age_curve"`
	FamilyMultipliers FamilyMultipliers  `yaml:"family_multipliers" json:"family_multipliers"`
	Premiums          PremiumRules       `yaml:"premiums" json:"premiums"`
	PovertyGuidelines PovertyGuidelines  `yaml:"poverty_guidelines" json:"poverty_guidelines"`
	Subsidy           SubsidyRules       `yaml:"subsidy" json:"subsidy"`
	Patterns          PatternRules       `yaml:"patterns" json:"patterns"`
}

// PlanYearMetadata describes the regulatory data set
type PlanYearMetadata struct {
	PlanYear    int    `yaml:"plan_year" json:"plan_year"`
	LastUpdated string `yaml:"last_updated" json:"last_updated"`
	Description string `yaml:"description" json:"description"`
}

// AffordabilityRules contains the employer mandate affordability parameters
type AffordabilityRules struct {
	ThresholdRate decimal.Decimal `yaml:"threshold_rate" json:"threshold_rate"` // share of monthly income
	ALEThreshold  int             `yaml:"ale_threshold" json:"ale_threshold"`   // employee count making the employer an ALE
}

// PremiumRules contains premium lookup conventions
type PremiumRules struct {
	FamilyTierStates []string `yaml:"family_tier_states" json:"family_tier_states"`
}

// UsesFamilyTierRates reports whether the state prices by family tier instead of age
func (pr PremiumRules) UsesFamilyTierRates(state string) bool {
	state = strings.ToUpper(state)
	for _, s := range pr.FamilyTierStates {
		if strings.ToUpper(s) == state {
			return true
		}
	}
	return false
}

// AgeCurve maps age to a relative premium factor
type AgeCurve map[int]decimal.Decimal

// Bounds returns the lowest and highest ages in the table
func (ac AgeCurve) Bounds() (int, int) {
	if len(ac) == 0 {
		return 0, 0
	}
	ages := make([]int, 0, len(ac))
	for age := range ac {
		ages = append(ages, age)
	}
	sort.Ints(ages)
	return ages[0], ages[len(ages)-1]
}

// Factor returns the curve factor for an age clamped to the table's range.
// Gaps in a sparse table resolve to the nearest lower age.
func (ac AgeCurve) Factor(age int) decimal.Decimal {
	lo, hi := ac.Bounds()
	if age < lo {
		age = lo
	}
	if age > hi {
		age = hi
	}
	for a := age; a >= lo; a-- {
		if f, ok := ac[a]; ok {
			return f
		}
	}
	return decimal.NewFromInt(1)
}

// FamilyMultipliers scales a self-only contribution for each family tier
type FamilyMultipliers struct {
	EE decimal.Decimal `yaml:"ee" json:"ee"`
	ES decimal.Decimal `yaml:"es" json:"es"`
	EC decimal.Decimal `yaml:"ec" json:"ec"`
	F  decimal.Decimal `yaml:"f" json:"f"`
}

// For returns the multiplier for a family status
func (fm FamilyMultipliers) For(fs FamilyStatus) decimal.Decimal {
	switch fs {
	case FamilyEmployeeSpouse:
		return fm.ES
	case FamilyEmployeeChildren:
		return fm.EC
	case FamilyFull:
		return fm.F
	default:
		return fm.EE
	}
}

// Validate checks that every multiplier is strictly positive
func (fm FamilyMultipliers) Validate() error {
	for _, fs := range FamilyStatuses {
		if fm.For(fs).LessThanOrEqual(decimal.Zero) {
			return &ConfigError{
				Operation: "family_multipliers",
				Message:   "multiplier for " + string(fs) + " must be positive",
			}
		}
	}
	return nil
}

// PovertyTable is one poverty guideline table by household size
type PovertyTable struct {
	BySize           []decimal.Decimal `yaml:"by_size" json:"by_size"` // index 0 is a household of one
	AdditionalPerson decimal.Decimal   `yaml:"additional_person" json:"additional_person"`
}

// Line returns the annual poverty line for a household size
func (pt PovertyTable) Line(size int) decimal.Decimal {
	if size < 1 {
		size = 1
	}
	if len(pt.BySize) == 0 {
		return decimal.Zero
	}
	if size <= len(pt.BySize) {
		return pt.BySize[size-1]
	}
	extra := decimal.NewFromInt(int64(size - len(pt.BySize)))
	return pt.BySize[len(pt.BySize)-1].Add(pt.AdditionalPerson.Mul(extra))
}

// PovertyGuidelines contains the federal poverty line tables.
// Alaska and Hawaii publish their own tables.
type PovertyGuidelines struct {
	Year   int                     `yaml:"year" json:"year"`
	Tables map[string]PovertyTable `yaml:"tables" json:"tables"` // "default", "AK", "HI"
}

// Table returns the table for a state, falling back to the contiguous-states table
func (pg PovertyGuidelines) Table(state string) PovertyTable {
	if t, ok := pg.Tables[strings.ToUpper(state)]; ok {
		return t
	}
	return pg.Tables[DefaultPovertyTable]
}

// Line returns the annual poverty line for a state and household size
func (pg PovertyGuidelines) Line(state string, size int) decimal.Decimal {
	return pg.Table(state).Line(size)
}

// DefaultPovertyTable is the key for the contiguous-states table
const DefaultPovertyTable = "default"

// SubsidyBracket is one row of the applicable-percentage table.
// Percent-of-poverty bounds and rates are both expressed in percent.
type SubsidyBracket struct {
	LowerPct  decimal.Decimal `yaml:"lower_pct" json:"lower_pct"`
	UpperPct  decimal.Decimal `yaml:"upper_pct" json:"upper_pct"`
	LowerRate decimal.Decimal `yaml:"lower_rate" json:"lower_rate"`
	UpperRate decimal.Decimal `yaml:"upper_rate" json:"upper_rate"`
}

// SubsidyRules contains premium tax credit parameters
type SubsidyRules struct {
	Brackets []SubsidyBracket `yaml:"brackets" json:"brackets"`
	// BelowFirstBracketRate applies under the first bracket's lower bound
	BelowFirstBracketRate decimal.Decimal      `yaml:"below_first_bracket_rate" json:"below_first_bracket_rate"`
	IncomeCapPct          decimal.Decimal      `yaml:"income_cap_pct" json:"income_cap_pct"`
	MedicareAge           int                  `yaml:"medicare_age" json:"medicare_age"`
	HouseholdSizes        map[FamilyStatus]int `yaml:"household_sizes" json:"household_sizes"`
	EligibilityBuffer     decimal.Decimal      `yaml:"eligibility_buffer" json:"eligibility_buffer"`
	HighROIThreshold      decimal.Decimal      `yaml:"high_roi_threshold" json:"high_roi_threshold"`
}

// HouseholdSize returns the assumed household size for a family tier
func (sr SubsidyRules) HouseholdSize(fs FamilyStatus) int {
	if n, ok := sr.HouseholdSizes[fs]; ok && n > 0 {
		return n
	}
	return 1
}

// PatternRules contains defaults for contribution pattern detection
type PatternRules struct {
	VarianceThreshold decimal.Decimal `yaml:"variance_threshold" json:"variance_threshold"`
	MinSampleSize     int             `yaml:"min_sample_size" json:"min_sample_size"`
	FallbackERPercent decimal.Decimal `yaml:"fallback_er_percent" json:"fallback_er_percent"`
}

// DefaultPlanYearConfig returns the 2026 plan year values
func DefaultPlanYearConfig() *PlanYearConfig {
	return &PlanYearConfig{
		Metadata: PlanYearMetadata{
			PlanYear:    2026,
			LastUpdated: "2025-10-01",
			Description: "2026 ICHRA affordability and 2025 poverty guidelines",
		},
		Affordability:     DefaultAffordabilityRules(),
		AgeCurve:          DefaultAgeCurve(),
		FamilyMultipliers: DefaultFamilyMultipliers(),
		Premiums: PremiumRules{
			FamilyTierStates: []string{"NY", "VT"},
		},
		PovertyGuidelines: DefaultPovertyGuidelines(),
		Subsidy:           DefaultSubsidyRules(),
		Patterns:          DefaultPatternRules(),
	}
}

// DefaultAffordabilityRules returns the 2026 affordability threshold
func DefaultAffordabilityRules() AffordabilityRules {
	return AffordabilityRules{
		ThresholdRate: decimal.NewFromFloat(0.0996),
		ALEThreshold:  46,
	}
}

// DefaultFamilyMultipliers returns 1.0/1.5/1.3/1.8
func DefaultFamilyMultipliers() FamilyMultipliers {
	return FamilyMultipliers{
		EE: decimal.NewFromFloat(1.0),
		ES: decimal.NewFromFloat(1.5),
		EC: decimal.NewFromFloat(1.3),
		F:  decimal.NewFromFloat(1.8),
	}
}

// DefaultAgeCurve returns the federal default age rating curve
func DefaultAgeCurve() AgeCurve {
	curve := make(AgeCurve, 65)
	for age := 0; age <= 20; age++ {
		curve[age] = decimal.NewFromFloat(0.635)
	}
	for age := 21; age <= 24; age++ {
		curve[age] = decimal.NewFromFloat(1.000)
	}
	factors := []float64{
		1.004, 1.024, 1.048, 1.087, 1.119, // 25-29
		1.135, 1.159, 1.183, 1.198, 1.214, // 30-34
		1.222, 1.230, 1.238, 1.246, 1.262, // 35-39
		1.278, 1.302, 1.325, 1.357, 1.397, // 40-44
		1.444, 1.500, 1.563, 1.635, 1.706, // 45-49
		1.786, 1.865, 1.952, 2.040, 2.135, // 50-54
		2.230, 2.333, 2.437, 2.548, 2.603, // 55-59
		2.714, 2.810, 2.873, 2.952, 3.000, // 60-64
	}
	for i, f := range factors {
		curve[25+i] = decimal.NewFromFloat(f)
	}
	return curve
}

// DefaultPovertyGuidelines returns the 2025 HHS poverty guidelines
func DefaultPovertyGuidelines() PovertyGuidelines {
	return PovertyGuidelines{
		Year: 2025,
		Tables: map[string]PovertyTable{
			DefaultPovertyTable: povertyTable(5500, 15650, 21150, 26650, 32150, 37650, 43150, 48650, 54150),
			"AK":                povertyTable(6880, 19550, 26430, 33310, 40190, 47070, 53950, 60830, 67710),
			"HI":                povertyTable(6330, 17990, 24320, 30650, 36980, 43310, 49640, 55970, 62300),
		},
	}
}

func povertyTable(additional int64, sizes ...int64) PovertyTable {
	t := PovertyTable{AdditionalPerson: decimal.NewFromInt(additional)}
	for _, s := range sizes {
		t.BySize = append(t.BySize, decimal.NewFromInt(s))
	}
	return t
}

// DefaultSubsidyRules returns the 2026 applicable percentage table. The table
// steps from 2.10 to 3.14 at 133% FPL.
func DefaultSubsidyRules() SubsidyRules {
	return SubsidyRules{
		Brackets: []SubsidyBracket{
			bracket(100, 133, 2.10, 2.10),
			bracket(133, 150, 3.14, 4.19),
			bracket(150, 200, 4.19, 6.60),
			bracket(200, 250, 6.60, 8.44),
			bracket(250, 300, 8.44, 9.96),
			bracket(300, 400, 9.96, 9.96),
		},
		BelowFirstBracketRate: decimal.NewFromFloat(2.10),
		IncomeCapPct:          decimal.NewFromInt(400),
		MedicareAge:           65,
		HouseholdSizes: map[FamilyStatus]int{
			FamilyEmployeeOnly:     1,
			FamilyEmployeeSpouse:   2,
			FamilyEmployeeChildren: 2,
			FamilyFull:             4,
		},
		EligibilityBuffer: decimal.NewFromFloat(0.90),
		HighROIThreshold:  decimal.NewFromFloat(0.35),
	}
}

func bracket(lowerPct, upperPct, lowerRate, upperRate float64) SubsidyBracket {
	return SubsidyBracket{
		LowerPct:  decimal.NewFromFloat(lowerPct),
		UpperPct:  decimal.NewFromFloat(upperPct),
		LowerRate: decimal.NewFromFloat(lowerRate),
		UpperRate: decimal.NewFromFloat(upperRate),
	}
}

// DefaultPatternRules returns the pattern detector defaults
func DefaultPatternRules() PatternRules {
	return PatternRules{
		VarianceThreshold: decimal.NewFromFloat(0.15),
		MinSampleSize:     3,
		FallbackERPercent: decimal.NewFromFloat(0.60),
	}
}
