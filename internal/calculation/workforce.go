package calculation

import (
	"sort"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/premium"
	"github.com/shopspring/decimal"
)

// BenchmarkSource resolves an employee's benchmark premium. A false return means
// the premium is unknown and the employee is excluded from premium-based math.
type BenchmarkSource interface {
	PremiumFor(e domain.Employee) (decimal.Decimal, bool)
}

// Workforce is an immutable census plus the benchmark sources for one session.
// Either source may be nil; a nil source resolves no premiums.
type Workforce struct {
	Census *domain.Census
	LCSP   BenchmarkSource
	SLCSP  BenchmarkSource
}

// Employees returns the census rows
func (w Workforce) Employees() []domain.Employee {
	if w.Census == nil {
		return nil
	}
	return w.Census.Employees
}

// LCSPFor returns the employee's affordability benchmark, if known
func (w Workforce) LCSPFor(e domain.Employee) (decimal.Decimal, bool) {
	if w.LCSP == nil {
		return decimal.Zero, false
	}
	return w.LCSP.PremiumFor(e)
}

// SLCSPFor returns the employee's subsidy benchmark, if known
func (w Workforce) SLCSPFor(e domain.Employee) (decimal.Decimal, bool) {
	if w.SLCSP == nil {
		return decimal.Zero, false
	}
	return w.SLCSP.PremiumFor(e)
}

// ageBracket is a right-inclusive (Lower, Upper] age range
type ageBracket struct {
	Label string
	Lower int
	Upper int
}

var ageBrackets = []ageBracket{
	{Label: "Under 30", Lower: 0, Upper: 30},
	{Label: "30-39", Lower: 30, Upper: 40},
	{Label: "40-49", Lower: 40, Upper: 50},
	{Label: "50-59", Lower: 50, Upper: 60},
	{Label: "60+", Lower: 60, Upper: 100},
}

func bracketFor(age int) (string, bool) {
	for _, b := range ageBrackets {
		if age > b.Lower && age <= b.Upper {
			return b.Label, true
		}
	}
	return "", false
}

// WorkforceAnalyzer runs the affordability calculator over a whole census
type WorkforceAnalyzer struct {
	Affordability *AffordabilityCalculator
	PremiumRules  domain.PremiumRules
	logger        Logger
}

// NewWorkforceAnalyzer creates an analyzer for a plan year
func NewWorkforceAnalyzer(cfg *domain.PlanYearConfig) *WorkforceAnalyzer {
	return &WorkforceAnalyzer{
		Affordability: NewAffordabilityCalculatorWithConfig(cfg.Affordability),
		PremiumRules:  cfg.Premiums,
		logger:        NopLogger{},
	}
}

// SetLogger sets the logger; nil restores the no-op logger
func (wa *WorkforceAnalyzer) SetLogger(l Logger) {
	wa.logger = orNop(l)
}

// Analyze produces summary counts, per-employee detail, distributions and outliers.
// Missing required columns are reported in the result's Error field.
func (wa *WorkforceAnalyzer) Analyze(w Workforce) *domain.WorkforceAnalysis {
	analysis := &domain.WorkforceAnalysis{}
	if err := validateColumns(w.Census); err != nil {
		analysis.Error = err
		return analysis
	}

	employees := w.Employees()
	analysis.Summary.TotalEmployees = len(employees)

	var analyzed []domain.EmployeeAffordability
	for _, e := range employees {
		lcsp, ok := w.LCSPFor(e)
		if !ok {
			analysis.Summary.EmployeesWithoutPremium++
			wa.logger.Debugf("no benchmark premium for employee %s (%s area %d), excluded", e.ID, e.State, e.RatingArea)
			continue
		}

		row := domain.EmployeeAffordability{
			EmployeeID:    e.ID,
			Name:          e.Name,
			Age:           e.AgeOr(premium.DefaultAge),
			State:         e.State,
			RatingArea:    e.RatingArea,
			AgeBand:       premium.AgeBand(e.AgeOr(premium.DefaultAge), e.State, wa.PremiumRules),
			FamilyStatus:  e.Status(),
			Affordability: wa.Affordability.Calculate(e.MonthlyIncome, lcsp, e.CurrentERMonthly),
		}
		analysis.Employees = append(analysis.Employees, row)

		if !row.HasIncomeData {
			analysis.Summary.EmployeesWithoutIncome++
			continue
		}
		analyzed = append(analyzed, row)
	}

	wa.summarize(analysis, analyzed)
	analysis.ByAgeBracket = groupStats(analyzed, func(r domain.EmployeeAffordability) (string, bool) {
		return bracketFor(r.Age)
	}, bracketOrder)
	analysis.ByState = groupStats(analyzed, func(r domain.EmployeeAffordability) (string, bool) {
		return r.State, true
	}, nil)
	analysis.Flagged = flagOutliers(analyzed, analysis.Summary.MedianMinContribution)

	wa.logger.Infof("workforce analysis: %d employees, %d analyzed, %d without premium, %d without income",
		analysis.Summary.TotalEmployees, analysis.Summary.EmployeesAnalyzed,
		analysis.Summary.EmployeesWithoutPremium, analysis.Summary.EmployeesWithoutIncome)
	return analysis
}

func validateColumns(c *domain.Census) *domain.AnalysisError {
	if c == nil {
		return &domain.AnalysisError{Code: domain.AnalysisNoEmployees, Message: "no census provided"}
	}
	required := []struct {
		name    string
		present bool
	}{
		{"employee_id", c.Columns.EmployeeID},
		{"state", c.Columns.State},
		{"age", c.Columns.Age},
	}
	for _, col := range required {
		if !col.present {
			return &domain.AnalysisError{
				Code:    domain.AnalysisMissingColumn,
				Column:  col.name,
				Message: "census is missing required column: " + col.name,
			}
		}
	}
	return nil
}

func (wa *WorkforceAnalyzer) summarize(analysis *domain.WorkforceAnalysis, rows []domain.EmployeeAffordability) {
	s := &analysis.Summary
	s.EmployeesAnalyzed = len(rows)

	gap, current, required := decimal.Zero, decimal.Zero, decimal.Zero
	mins := make([]decimal.Decimal, 0, len(rows))
	for _, r := range rows {
		if *r.IsAffordableAtCurrent {
			s.AffordableAtCurrent++
		}
		gap = gap.Add(*r.Gap)
		current = current.Add(r.CurrentERContribution)
		required = required.Add(*r.MinEmployerContribution)
		mins = append(mins, *r.MinEmployerContribution)
	}
	s.NeedsIncrease = s.EmployeesAnalyzed - s.AffordableAtCurrent
	s.TotalGapAnnual = gap.Mul(twelve).Round(2)
	s.CurrentERSpendAnnual = current.Mul(twelve).Round(2)
	s.MinRequiredSpendAnnual = required.Mul(twelve).Round(2)
	s.MedianMinContribution = Median(mins).Round(2)
}

var bracketOrder = func() map[string]int {
	order := make(map[string]int, len(ageBrackets))
	for i, b := range ageBrackets {
		order[b.Label] = i
	}
	return order
}()

// groupStats builds one GroupStat per non-empty group. order fixes the output
// sequence; nil sorts labels alphabetically.
func groupStats(rows []domain.EmployeeAffordability, groupOf func(domain.EmployeeAffordability) (string, bool), order map[string]int) []domain.GroupStat {
	groups := make(map[string][]domain.EmployeeAffordability)
	var labels []string
	for _, r := range rows {
		label, ok := groupOf(r)
		if !ok {
			continue
		}
		if _, seen := groups[label]; !seen {
			labels = append(labels, label)
		}
		groups[label] = append(groups[label], r)
	}
	sort.Slice(labels, func(i, j int) bool {
		if order != nil {
			return order[labels[i]] < order[labels[j]]
		}
		return labels[i] < labels[j]
	})

	stats := make([]domain.GroupStat, 0, len(labels))
	for _, label := range labels {
		members := groups[label]
		lcsps := make([]decimal.Decimal, 0, len(members))
		mins := make([]decimal.Decimal, 0, len(members))
		affordable := 0
		for _, m := range members {
			lcsps = append(lcsps, m.LCSP)
			mins = append(mins, *m.MinEmployerContribution)
			if *m.IsAffordableAtCurrent {
				affordable++
			}
		}
		stats = append(stats, domain.GroupStat{
			Label:                label,
			Count:                len(members),
			AvgLCSP:              Mean(lcsps).Round(2),
			AvgMinERContribution: Mean(mins).Round(2),
			AffordablePct:        PercentOf(affordable, len(members)),
		})
	}
	return stats
}

func flagOutliers(rows []domain.EmployeeAffordability, median decimal.Decimal) []domain.EmployeeAffordability {
	limit := median.Mul(decimal.NewFromInt(2))
	var flagged []domain.EmployeeAffordability
	for _, r := range rows {
		if r.MinEmployerContribution.GreaterThan(limit) {
			flagged = append(flagged, r)
		}
	}
	return flagged
}
