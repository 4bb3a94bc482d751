package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/premium"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of plan-year, census and premium table files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadPlanYear loads regulatory values from a YAML file. Fields absent from
// the file keep their DefaultPlanYearConfig values; an empty path returns the defaults.
func (ip *InputParser) LoadPlanYear(filename string) (*domain.PlanYearConfig, error) {
	cfg := domain.DefaultPlanYearConfig()
	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidatePlanYear(cfg); err != nil {
		return nil, fmt.Errorf("plan year validation failed: %w", err)
	}
	return cfg, nil
}

// ValidatePlanYear validates the loaded plan-year values
func (ip *InputParser) ValidatePlanYear(cfg *domain.PlanYearConfig) error {
	if err := ip.validateAffordability(&cfg.Affordability); err != nil {
		return fmt.Errorf("affordability validation failed: %w", err)
	}
	if err := ip.validateAgeCurve(cfg.AgeCurve); err != nil {
		return fmt.Errorf("age curve validation failed: %w", err)
	}
	if err := cfg.FamilyMultipliers.Validate(); err != nil {
		return err
	}
	if _, ok := cfg.PovertyGuidelines.Tables[domain.DefaultPovertyTable]; !ok {
		return fmt.Errorf("poverty guidelines need a %q table", domain.DefaultPovertyTable)
	}
	for name, table := range cfg.PovertyGuidelines.Tables {
		if len(table.BySize) == 0 {
			return fmt.Errorf("poverty table %s has no household sizes", name)
		}
	}
	if err := ip.validateSubsidy(&cfg.Subsidy); err != nil {
		return fmt.Errorf("subsidy validation failed: %w", err)
	}
	if cfg.Patterns.MinSampleSize < 1 {
		return fmt.Errorf("pattern minimum sample size must be at least 1")
	}
	if cfg.Patterns.VarianceThreshold.IsNegative() {
		return fmt.Errorf("pattern variance threshold cannot be negative")
	}
	return nil
}

func (ip *InputParser) validateAffordability(rules *domain.AffordabilityRules) error {
	if !rules.ThresholdRate.IsPositive() || rules.ThresholdRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("threshold rate must be between 0 and 1, got %s", rules.ThresholdRate)
	}
	if rules.ALEThreshold <= 0 {
		return fmt.Errorf("ALE threshold must be positive")
	}
	return nil
}

func (ip *InputParser) validateAgeCurve(curve domain.AgeCurve) error {
	if len(curve) == 0 {
		return fmt.Errorf("age curve is empty")
	}
	for age, factor := range curve {
		if age < 0 {
			return fmt.Errorf("negative age %d in curve", age)
		}
		if !factor.IsPositive() {
			return fmt.Errorf("factor for age %d must be positive", age)
		}
	}
	return nil
}

func (ip *InputParser) validateSubsidy(rules *domain.SubsidyRules) error {
	if len(rules.Brackets) == 0 {
		return fmt.Errorf("no applicable percentage brackets")
	}
	for i, b := range rules.Brackets {
		if b.UpperPct.LessThan(b.LowerPct) {
			return fmt.Errorf("bracket %d upper bound below lower bound", i)
		}
	}
	if rules.BelowFirstBracketRate.IsNegative() {
		return fmt.Errorf("below-first-bracket rate cannot be negative")
	}
	if rules.MedicareAge <= 0 {
		return fmt.Errorf("medicare age must be positive")
	}
	if !rules.EligibilityBuffer.IsPositive() || rules.EligibilityBuffer.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("eligibility buffer must be in (0, 1], got %s", rules.EligibilityBuffer)
	}
	return nil
}

// LoadPremiumTable loads a static premium table from YAML
func (ip *InputParser) LoadPremiumTable(filename string) (*premium.RateTable, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var table premium.RateTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := ip.ValidatePremiumTable(&table); err != nil {
		return nil, fmt.Errorf("premium table validation failed: %w", err)
	}
	return &table, nil
}

// ValidatePremiumTable checks every rate row for a location, age band and positive LCSP
func (ip *InputParser) ValidatePremiumTable(table *premium.RateTable) error {
	if len(table.Rates) == 0 {
		return fmt.Errorf("no rates provided")
	}
	for i, r := range table.Rates {
		switch {
		case strings.TrimSpace(r.State) == "":
			return fmt.Errorf("rate %d: state is required", i)
		case strings.TrimSpace(r.AgeBand) == "":
			return fmt.Errorf("rate %d: age band is required", i)
		case !r.LCSP.IsPositive():
			return fmt.Errorf("rate %d (%s area %d, %s): LCSP must be positive", i, r.State, r.RatingArea, r.AgeBand)
		case r.SLCSP != nil && r.SLCSP.IsNegative():
			return fmt.Errorf("rate %d: SLCSP cannot be negative", i)
		}
	}
	return nil
}

// LoadCensus loads a census from CSV, or from YAML for .yaml and .yml files
func (ip *InputParser) LoadCensus(filename string) (*domain.Census, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return ParseCensusYAML(f)
	default:
		return ParseCensusCSV(f)
	}
}
