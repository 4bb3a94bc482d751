package calculation

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
)

var tierLabels = map[domain.FamilyStatus]string{
	domain.FamilyEmployeeOnly:     "Employee Only",
	domain.FamilyEmployeeSpouse:   "Employee + Spouse",
	domain.FamilyEmployeeChildren: "Employee + Children",
	domain.FamilyFull:             "Family",
}

// TierLabel returns the display label for a family status
func TierLabel(fs domain.FamilyStatus) string {
	if l, ok := tierLabels[fs]; ok {
		return l
	}
	return string(fs)
}

// PatternDetector infers whether current contributions are a percentage of
// premium or a flat dollar amount, independently per family tier.
type PatternDetector struct {
	Rules  domain.PatternRules
	logger Logger
}

// NewPatternDetector creates a detector with the default rules
func NewPatternDetector() *PatternDetector {
	return NewPatternDetectorWithRules(domain.DefaultPatternRules())
}

// NewPatternDetectorWithRules creates a detector with explicit rules
func NewPatternDetectorWithRules(rules domain.PatternRules) *PatternDetector {
	return &PatternDetector{Rules: rules, logger: NopLogger{}}
}

// SetLogger sets the logger; nil restores the no-op logger
func (pd *PatternDetector) SetLogger(l Logger) {
	pd.logger = orNop(l)
}

// Detect classifies every family tier. Rows take part only when both current
// contributions are present and the employer share is positive.
func (pd *PatternDetector) Detect(census *domain.Census) *domain.PatternResult {
	result := &domain.PatternResult{OverallType: domain.PatternUnknown}
	if census == nil {
		result.Warnings = append(result.Warnings, "No census provided")
		return result
	}
	var missing []string
	if !census.Columns.CurrentEE {
		missing = append(missing, "current_ee_monthly")
	}
	if !census.Columns.CurrentER {
		missing = append(missing, "current_er_monthly")
	}
	if !census.Columns.FamilyStatus {
		missing = append(missing, "family_status")
	}
	if len(missing) > 0 {
		result.Warnings = append(result.Warnings, "Missing required columns: "+strings.Join(missing, ", "))
		return result
	}

	byTier := make(map[domain.FamilyStatus][]domain.Employee)
	for _, e := range census.Employees {
		if e.CurrentERMonthly == nil || e.CurrentEEMonthly == nil || !e.CurrentERMonthly.GreaterThan(decimal.Zero) {
			continue
		}
		byTier[e.Status()] = append(byTier[e.Status()], e)
	}

	for _, fs := range domain.FamilyStatuses {
		tp := pd.classify(fs, byTier[fs])
		result.Tiers = append(result.Tiers, tp)
		if tp.NeedsReview {
			result.TiersNeedingReview = append(result.TiersNeedingReview, fs)
			if tp.EmployeeCount < pd.Rules.MinSampleSize {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Insufficient sample size (%d)", TierLabel(fs), tp.EmployeeCount))
			} else {
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Pattern unclear, recommend manual review", TierLabel(fs)))
			}
		}
		if tp.EmployeeCount >= pd.Rules.MinSampleSize {
			result.HasSufficientData = true
		}
	}

	result.OverallType = overallPattern(result.Tiers)
	pd.logger.Debugf("contribution pattern: %s across %d tiers", result.OverallType, len(result.Tiers))
	return result
}

func (pd *PatternDetector) classify(fs domain.FamilyStatus, rows []domain.Employee) domain.TierPattern {
	tp := domain.TierPattern{
		FamilyStatus:  fs,
		EmployeeCount: len(rows),
		Confidence:    domain.ConfidenceLow,
	}
	if len(rows) == 0 {
		tp.PatternType = domain.PatternUnknown
		tp.ReviewReason = "No employees in this tier"
		return tp
	}

	shares := make([]decimal.Decimal, 0, len(rows))
	amounts := make([]decimal.Decimal, 0, len(rows))
	for _, e := range rows {
		er, ee := *e.CurrentERMonthly, *e.CurrentEEMonthly
		total := er.Add(ee)
		if total.GreaterThan(decimal.Zero) {
			shares = append(shares, er.Div(total))
		}
		amounts = append(amounts, er)
	}
	tp.ERPercentage = Mean(shares).Round(4)
	tp.FlatAmount = Mean(amounts).Round(2)

	if len(rows) < pd.Rules.MinSampleSize {
		tp.PatternType = domain.PatternUncertain
		tp.NeedsReview = true
		tp.ReviewReason = fmt.Sprintf("Only %d employee(s) in tier (minimum: %d)", len(rows), pd.Rules.MinSampleSize)
		return tp
	}

	threshold := pd.Rules.VarianceThreshold
	half := threshold.Div(decimal.NewFromInt(2))
	shareCV, shareOK := CoefficientOfVariation(shares, 1)
	amountCV, amountOK := CoefficientOfVariation(amounts, 1)
	amountStd := StdDev(amounts, 1)

	tp.ERPercentCV = shareCV.Round(4)
	tp.FlatAmountStd = amountStd.Round(2)
	tp.FlatAmountCV = amountCV.Round(4)

	switch {
	case shareOK && shareCV.LessThan(threshold):
		tp.PatternType = domain.PatternPercentage
		tp.Confidence = graded(shareCV, half)
	case amountOK && amountCV.LessThan(threshold):
		tp.PatternType = domain.PatternFlatRate
		tp.Confidence = graded(amountCV, half)
	default:
		tp.PatternType = domain.PatternUncertain
		tp.NeedsReview = true
		tp.ReviewReason = fmt.Sprintf("High variance: ER%% CV=%s%%, ER$ std=$%s",
			shareCV.Mul(hundred).StringFixed(1), amountStd.StringFixed(0))
	}
	return tp
}

func graded(cv, half decimal.Decimal) domain.Confidence {
	if cv.LessThan(half) {
		return domain.ConfidenceHigh
	}
	return domain.ConfidenceMedium
}

// overallPattern ignores unknown and uncertain tiers; agreement gives that type,
// disagreement gives mixed, nothing classified gives unknown.
func overallPattern(tiers []domain.TierPattern) domain.PatternType {
	overall := domain.PatternUnknown
	for _, t := range tiers {
		if t.PatternType == domain.PatternUnknown || t.PatternType == domain.PatternUncertain {
			continue
		}
		if overall == domain.PatternUnknown {
			overall = t.PatternType
		} else if overall != t.PatternType {
			return domain.PatternMixed
		}
	}
	return overall
}

// ProjectRenewal applies each tier's pattern to the employees' renewal premiums.
// Employees without a positive renewal premium are skipped.
func (pd *PatternDetector) ProjectRenewal(census *domain.Census, patterns *domain.PatternResult) []domain.RenewalProjection {
	if census == nil {
		return nil
	}
	fallback := pd.Rules.FallbackERPercent
	var projections []domain.RenewalProjection
	for _, e := range census.Employees {
		if e.RenewalPremium == nil || !e.RenewalPremium.GreaterThan(decimal.Zero) {
			continue
		}
		renewal := *e.RenewalPremium
		p := domain.RenewalProjection{
			EmployeeID:     e.ID,
			FamilyStatus:   e.Status(),
			RenewalPremium: renewal.Round(2),
			Method:         domain.PatternUnknown,
		}

		tier, ok := domain.TierPattern{}, false
		if patterns != nil {
			tier, ok = patterns.Tier(e.Status())
		}

		var er decimal.Decimal
		switch {
		case !ok || tier.PatternType == domain.PatternUnknown:
			er = renewal.Mul(fallback)
			p.UsedFallback = true
		case tier.PatternType == domain.PatternFlatRate:
			er = decimal.Min(tier.FlatAmount, renewal)
			p.Method = domain.PatternFlatRate
		default:
			p.Method = tier.PatternType
			share := tier.ERPercentage
			if !share.GreaterThan(decimal.Zero) {
				share = fallback
				p.UsedFallback = true
			}
			er = renewal.Mul(share)
		}
		p.ProjectedER = er.Round(2)
		p.ProjectedEE = renewal.Sub(er).Round(2)
		projections = append(projections, p)
	}
	return projections
}
