package output

import (
	"fmt"

	"github.com/rgehrsitz/ichra/internal/domain"
)

// Assumptions lists the regulatory values behind a report, rendered in detailed outputs
func Assumptions(cfg *domain.PlanYearConfig) []string {
	if cfg == nil {
		cfg = domain.DefaultPlanYearConfig()
	}
	fm := cfg.FamilyMultipliers
	return []string{
		fmt.Sprintf("Plan year %d", cfg.Metadata.PlanYear),
		fmt.Sprintf("Affordability threshold: %s of monthly household income", FormatPercentage(cfg.Affordability.ThresholdRate)),
		fmt.Sprintf("FPL safe harbor income: %s per month (household of one)",
			FormatCurrency(cfg.PovertyGuidelines.Line(domain.DefaultPovertyTable, 1).Div(decimal12))),
		fmt.Sprintf("Family multipliers: EE %s, ES %s, EC %s, F %s",
			fm.EE.StringFixed(1), fm.ES.StringFixed(1), fm.EC.StringFixed(1), fm.F.StringFixed(1)),
		fmt.Sprintf("Applicable large employer at %d employees", cfg.Affordability.ALEThreshold),
		fmt.Sprintf("Medicare-eligible from age %d (excluded from subsidies)", cfg.Subsidy.MedicareAge),
	}
}
