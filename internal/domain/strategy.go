package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// StrategyKind is the stable tag for a contribution strategy
type StrategyKind string

const (
	KindFlatAmount          StrategyKind = "flat_amount"
	KindBaseAgeCurve        StrategyKind = "base_age_curve"
	KindPercentageLCSP      StrategyKind = "percentage_lcsp"
	KindFPLSafeHarbor       StrategyKind = "fpl_safe_harbor"
	KindRateOfPaySafeHarbor StrategyKind = "rate_of_pay_safe_harbor"
	KindSubsidyOptimized    StrategyKind = "subsidy_optimized"
	KindFixedAgeTiers       StrategyKind = "fixed_age_tiers"
)

// DisplayName returns a human label for the strategy kind
func (k StrategyKind) DisplayName() string {
	switch k {
	case KindFlatAmount:
		return "Flat Amount"
	case KindBaseAgeCurve:
		return "Base Age + ACA 3:1 Curve"
	case KindPercentageLCSP:
		return "Percentage of LCSP"
	case KindFPLSafeHarbor:
		return "FPL Safe Harbor"
	case KindRateOfPaySafeHarbor:
		return "Rate of Pay Safe Harbor"
	case KindSubsidyOptimized:
		return "Subsidy-Optimized"
	case KindFixedAgeTiers:
		return "Fixed Age Tiers"
	}
	return string(k)
}

// Strategy is the closed set of contribution strategies. Exactly one is active
// per calculation; modifiers live on StrategyConfig.
type Strategy interface {
	Kind() StrategyKind
	strategy()
}

// FlatAmount gives every employee the same self-only amount
type FlatAmount struct {
	Amount decimal.Decimal `json:"amount"`
}

// BaseAgeCurve scales a base amount by the age curve relative to BaseAge
type BaseAgeCurve struct {
	BaseAge    int             `json:"base_age"`
	BaseAmount decimal.Decimal `json:"base_amount"`
}

// PercentageOfLCSP pays a percentage (0-100) of each employee's benchmark premium
type PercentageOfLCSP struct {
	Percent decimal.Decimal `json:"percent"`
}

// FPLSafeHarbor pays each employee's minimum for a poverty-line income
type FPLSafeHarbor struct{}

// RateOfPaySafeHarbor pays each employee's minimum for their census income
type RateOfPaySafeHarbor struct{}

// SubsidyOptimized pays the highest flat amount that keeps high-value
// subsidy recipients eligible for the premium tax credit
type SubsidyOptimized struct{}

// FixedAgeTiers pays a configured amount per fixed age tier, raised to the
// affordable minimum when the employee's income is known
type FixedAgeTiers struct {
	Amounts map[string]decimal.Decimal `json:"amounts"` // keyed by FixedAgeTierLabel
}

func (FlatAmount) Kind() StrategyKind          { return KindFlatAmount }
func (BaseAgeCurve) Kind() StrategyKind        { return KindBaseAgeCurve }
func (PercentageOfLCSP) Kind() StrategyKind    { return KindPercentageLCSP }
func (FPLSafeHarbor) Kind() StrategyKind       { return KindFPLSafeHarbor }
func (RateOfPaySafeHarbor) Kind() StrategyKind { return KindRateOfPaySafeHarbor }
func (SubsidyOptimized) Kind() StrategyKind    { return KindSubsidyOptimized }
func (FixedAgeTiers) Kind() StrategyKind       { return KindFixedAgeTiers }

func (FlatAmount) strategy()          {}
func (BaseAgeCurve) strategy()        {}
func (PercentageOfLCSP) strategy()    {}
func (FPLSafeHarbor) strategy()       {}
func (RateOfPaySafeHarbor) strategy() {}
func (SubsidyOptimized) strategy()    {}
func (FixedAgeTiers) strategy()       {}

// StrategyConfig is one strategy plus its orthogonal modifiers
type StrategyConfig struct {
	Strategy Strategy `json:"-"`

	// FamilyMultipliers scales the self-only amount by family tier; nil disables it
	FamilyMultipliers *FamilyMultipliers `json:"family_multipliers,omitempty"`
	// LocationAdjustments adds a flat amount per state after family scaling
	LocationAdjustments map[string]decimal.Decimal `json:"location_adjustments,omitempty"`
}

// Validate checks modifiers and strategy parameters
func (sc StrategyConfig) Validate() error {
	if sc.Strategy == nil {
		return &ConfigError{Operation: "strategy", Message: "no strategy selected", Cause: ErrUnknownStrategy}
	}
	if sc.FamilyMultipliers != nil {
		if err := sc.FamilyMultipliers.Validate(); err != nil {
			return err
		}
	}
	for state, adj := range sc.LocationAdjustments {
		if adj.IsNegative() {
			return &ConfigError{
				Operation: "location_adjustments",
				Message:   fmt.Sprintf("adjustment for %s must not be negative", state),
			}
		}
	}
	switch s := sc.Strategy.(type) {
	case FlatAmount:
		if s.Amount.IsNegative() {
			return &ConfigError{Operation: "flat_amount", Message: "amount must not be negative"}
		}
	case BaseAgeCurve:
		if s.BaseAmount.IsNegative() {
			return &ConfigError{Operation: "base_age_curve", Message: "base amount must not be negative"}
		}
	case PercentageOfLCSP:
		if s.Percent.IsNegative() {
			return &ConfigError{Operation: "percentage_lcsp", Message: "percent must not be negative"}
		}
	case FixedAgeTiers:
		if len(s.Amounts) == 0 {
			return &ConfigError{Operation: "fixed_age_tiers", Message: "no tier amounts", Cause: ErrEmptyTiers}
		}
	}
	return nil
}

// LocationAdjustment returns the add-on for a state, zero when none is configured
func (sc StrategyConfig) LocationAdjustment(state string) decimal.Decimal {
	if adj, ok := sc.LocationAdjustments[strings.ToUpper(state)]; ok {
		return adj
	}
	return decimal.Zero
}

// StrategyParams is the flat, tagged wire form of a strategy used by the CLI and API
type StrategyParams struct {
	Type                   string                     `yaml:"type" json:"type"`
	Amount                 *decimal.Decimal           `yaml:"amount,omitempty" json:"amount,omitempty"`
	BaseAge                int                        `yaml:"base_age,omitempty" json:"base_age,omitempty"`
	BaseAmount             *decimal.Decimal           `yaml:"base_amount,omitempty" json:"base_amount,omitempty"`
	Percent                *decimal.Decimal           `yaml:"percent,omitempty" json:"percent,omitempty"`
	TierAmounts            map[string]decimal.Decimal `yaml:"tier_amounts,omitempty" json:"tier_amounts,omitempty"`
	ApplyFamilyMultipliers bool                       `yaml:"apply_family_multipliers,omitempty" json:"apply_family_multipliers,omitempty"`
	FamilyMultipliers      *FamilyMultipliers         `yaml:"family_multipliers,omitempty" json:"family_multipliers,omitempty"`
	LocationAdjustments    map[string]decimal.Decimal `yaml:"location_adjustments,omitempty" json:"location_adjustments,omitempty"`
}

// ToConfig converts wire parameters into a typed StrategyConfig.
// defaults supplies the family multipliers when they are enabled without a table.
func (p StrategyParams) ToConfig(defaults FamilyMultipliers) (StrategyConfig, error) {
	var s Strategy
	switch StrategyKind(strings.ToLower(strings.TrimSpace(p.Type))) {
	case KindFlatAmount:
		s = FlatAmount{Amount: valueOr(p.Amount)}
	case KindBaseAgeCurve:
		baseAge := p.BaseAge
		if baseAge == 0 {
			baseAge = 21
		}
		amount := p.BaseAmount
		if amount == nil {
			amount = p.Amount
		}
		s = BaseAgeCurve{BaseAge: baseAge, BaseAmount: valueOr(amount)}
	case KindPercentageLCSP:
		pct := decimal.NewFromInt(100)
		if p.Percent != nil {
			pct = *p.Percent
		}
		s = PercentageOfLCSP{Percent: pct}
	case KindFPLSafeHarbor:
		s = FPLSafeHarbor{}
	case KindRateOfPaySafeHarbor:
		s = RateOfPaySafeHarbor{}
	case KindSubsidyOptimized:
		s = SubsidyOptimized{}
	case KindFixedAgeTiers:
		s = FixedAgeTiers{Amounts: p.TierAmounts}
	default:
		return StrategyConfig{}, &ConfigError{
			Operation: "parse_strategy",
			Message:   fmt.Sprintf("unsupported strategy type: %q", p.Type),
			Cause:     ErrUnknownStrategy,
		}
	}

	cfg := StrategyConfig{Strategy: s}
	if p.FamilyMultipliers != nil {
		m := *p.FamilyMultipliers
		cfg.FamilyMultipliers = &m
	} else if p.ApplyFamilyMultipliers {
		m := defaults
		cfg.FamilyMultipliers = &m
	}
	if len(p.LocationAdjustments) > 0 {
		cfg.LocationAdjustments = make(map[string]decimal.Decimal, len(p.LocationAdjustments))
		for state, adj := range p.LocationAdjustments {
			cfg.LocationAdjustments[strings.ToUpper(state)] = adj
		}
	}
	return cfg, cfg.Validate()
}

func valueOr(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// FixedAgeTier is one of the published fixed age tiers
type FixedAgeTier struct {
	Label  string
	MinAge int
	MaxAge int
}

// FixedAgeTierTable lists the fixed tiers. Age 21 has its own tier.
var FixedAgeTierTable = []FixedAgeTier{
	{Label: "21", MinAge: 21, MaxAge: 21},
	{Label: "18-25", MinAge: 18, MaxAge: 25},
	{Label: "26-35", MinAge: 26, MaxAge: 35},
	{Label: "36-45", MinAge: 36, MaxAge: 45},
	{Label: "46-55", MinAge: 46, MaxAge: 55},
	{Label: "56-63", MinAge: 56, MaxAge: 63},
	{Label: "64+", MinAge: 64, MaxAge: 99},
}

// FixedAgeTierLabel returns the fixed tier for an age; ages outside every tier land in 18-25
func FixedAgeTierLabel(age int) string {
	if age == 21 {
		return "21"
	}
	for _, t := range FixedAgeTierTable[1:] {
		if age >= t.MinAge && age <= t.MaxAge {
			return t.Label
		}
	}
	return "18-25"
}
