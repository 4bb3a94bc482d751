package recommend

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/rgehrsitz/ichra/internal/calculation"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultMissingAge is assumed for employees whose census row had no age
const DefaultMissingAge = 30

// Applicator expands a recommendation into a class model with one class per
// tier and family status and one assignment per employee
type Applicator struct {
	Multipliers      domain.FamilyMultipliers
	ApplyMultipliers bool
	logger           calculation.Logger
}

// NewApplicator creates an applicator that scales each tier by the family multipliers
func NewApplicator(multipliers domain.FamilyMultipliers) *Applicator {
	return &Applicator{
		Multipliers:      multipliers,
		ApplyMultipliers: true,
		logger:           calculation.NopLogger{},
	}
}

// SetLogger sets the logger; nil restores the no-op logger
func (a *Applicator) SetLogger(l calculation.Logger) {
	if l == nil {
		l = calculation.NopLogger{}
	}
	a.logger = l
}

// tierClass is a tier resolved to the bounds or state employees are matched on
type tierClass struct {
	label  string
	idPart string
	ageMin int
	ageMax int
	state  string
	base   decimal.Decimal
}

// Apply assigns every census employee to exactly one class. Age-banded tiers
// fall back to the last tier for out-of-range ages; location tiers fall back
// to the average tier contribution under a loc_OTHER class with a warning.
func (a *Applicator) Apply(rec domain.Recommendation, census *domain.Census) (*domain.ClassModel, error) {
	if err := a.Multipliers.Validate(); a.ApplyMultipliers && err != nil {
		return nil, err
	}

	var employees []domain.Employee
	if census != nil {
		employees = census.Employees
	}

	switch rec.Type {
	case domain.RecommendFlat:
		amount := decimal.Zero
		if len(rec.Tiers) > 0 {
			amount = rec.Tiers[0].Contribution
		}
		tiers := []tierClass{{label: "Flat Contribution", idPart: "flat", base: amount}}
		return a.build(rec.Type, tiers, employees, func(domain.Employee) (tierClass, bool) {
			return tiers[0], false
		}), nil

	case domain.RecommendAgeBanded:
		tiers, err := ageTiers(rec.Tiers)
		if err != nil {
			return nil, err
		}
		return a.build(rec.Type, tiers, employees, func(e domain.Employee) (tierClass, bool) {
			age := e.AgeOr(DefaultMissingAge)
			for _, t := range tiers {
				if age >= t.ageMin && age <= t.ageMax {
					return t, false
				}
			}
			return tiers[len(tiers)-1], true
		}), nil

	case domain.RecommendByLocation:
		tiers, err := locationTiers(rec.Tiers)
		if err != nil {
			return nil, err
		}
		byState := make(map[string]tierClass, len(tiers))
		sum := decimal.Zero
		for _, t := range tiers {
			byState[t.state] = t
			sum = sum.Add(t.base)
		}
		other := tierClass{
			label:  "Other locations",
			idPart: "loc_OTHER",
			state:  "OTHER",
			base:   sum.Div(decimal.NewFromInt(int64(len(tiers)))),
		}
		model := a.build(rec.Type, tiers, employees, func(e domain.Employee) (tierClass, bool) {
			if t, ok := byState[strings.ToUpper(e.State)]; ok {
				return t, false
			}
			return other, true
		})
		var unmatched []string
		for _, asg := range model.Assignments {
			if asg.Fallback {
				unmatched = append(unmatched, asg.EmployeeID)
			}
		}
		if len(unmatched) > 0 {
			model.Warnings = append(model.Warnings, fmt.Sprintf(
				"%d employee(s) in states without defined tiers (using average): %s",
				len(unmatched), strings.Join(unmatched, ", ")))
		}
		return model, nil
	}

	return nil, &domain.ConfigError{
		Operation: "apply_strategy",
		Message:   fmt.Sprintf("recommendation type %q", rec.Type),
		Cause:     domain.ErrUnknownStrategy,
	}
}

func ageTiers(tiers []domain.RecommendationTier) ([]tierClass, error) {
	if len(tiers) == 0 {
		return nil, emptyTiers(domain.RecommendAgeBanded)
	}
	out := make([]tierClass, 0, len(tiers))
	for _, t := range tiers {
		lo, hi := t.AgeMin, t.AgeMax
		if lo == 0 && hi == 0 {
			lo, hi = ParseAgeRange(t.Label)
		}
		out = append(out, tierClass{
			label:  t.Label,
			idPart: fmt.Sprintf("age_%d_%d", lo, hi),
			ageMin: lo,
			ageMax: hi,
			base:   t.Contribution,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ageMin < out[j].ageMin })
	return out, nil
}

func locationTiers(tiers []domain.RecommendationTier) ([]tierClass, error) {
	if len(tiers) == 0 {
		return nil, emptyTiers(domain.RecommendByLocation)
	}
	out := make([]tierClass, 0, len(tiers))
	for _, t := range tiers {
		state := strings.ToUpper(t.State)
		if state == "" {
			state = strings.ToUpper(t.Label)
		}
		out = append(out, tierClass{
			label:  state,
			idPart: "loc_" + state,
			state:  state,
			base:   t.Contribution,
		})
	}
	return out, nil
}

func emptyTiers(t domain.RecommendationType) error {
	return &domain.ConfigError{
		Operation: "apply_strategy",
		Message:   fmt.Sprintf("%s recommendation", t),
		Cause:     domain.ErrEmptyTiers,
	}
}

// build emits the classes for every tier, then matches each employee. The
// fallback class, when used, is appended after the defined tiers.
func (a *Applicator) build(kind domain.RecommendationType, tiers []tierClass, employees []domain.Employee, match func(domain.Employee) (tierClass, bool)) *domain.ClassModel {
	model := &domain.ClassModel{StrategyType: kind}
	index := make(map[string]int)
	addClasses := func(t tierClass) {
		for _, fs := range domain.FamilyStatuses {
			id := t.idPart + "_" + string(fs)
			if _, exists := index[id]; exists {
				continue
			}
			index[id] = len(model.Classes)
			model.Classes = append(model.Classes, domain.ContributionClass{
				ID:               id,
				TierLabel:        t.label,
				FamilyStatus:     fs,
				AgeMin:           t.ageMin,
				AgeMax:           t.ageMax,
				State:            t.state,
				BaseContribution: t.base.Round(2),
				Contribution:     a.contribution(t.base, fs).Round(2),
			})
		}
	}
	for _, t := range tiers {
		addClasses(t)
	}

	total := decimal.Zero
	for _, e := range employees {
		t, fallback := match(e)
		fs := e.Status()
		id := t.idPart + "_" + string(fs)
		if _, ok := index[id]; !ok {
			addClasses(t)
		}
		if fallback {
			a.logger.Debugf("employee %s matched no tier, assigned to %s", e.ID, id)
		}

		amount := a.contribution(t.base, fs)
		model.Classes[index[id]].EmployeeCount++
		model.Assignments = append(model.Assignments, domain.ClassAssignment{
			EmployeeID:   e.ID,
			ClassID:      id,
			Contribution: amount.Round(2),
			Fallback:     fallback,
		})
		total = total.Add(amount)
	}

	model.TotalMonthly = total.Round(2)
	model.TotalAnnual = total.Mul(twelve).Round(2)
	model.EmployeesAssigned = len(model.Assignments)
	return model
}

func (a *Applicator) contribution(base decimal.Decimal, fs domain.FamilyStatus) decimal.Decimal {
	if !a.ApplyMultipliers {
		return base
	}
	return base.Mul(a.Multipliers.For(fs))
}

// ParseAgeRange reads a tier label such as "Under 30", "30-49" or "50+".
// Unparseable labels cover every age.
func ParseAgeRange(label string) (int, int) {
	label = strings.TrimSpace(label)
	digits := func(s string) (int, bool) {
		n, err := strconv.Atoi(strings.Map(func(r rune) rune {
			if unicode.IsDigit(r) {
				return r
			}
			return -1
		}, s))
		return n, err == nil
	}

	switch {
	case strings.HasPrefix(strings.ToLower(label), "under"):
		if n, ok := digits(label); ok {
			return 0, n - 1
		}
	case strings.Contains(label, "+"):
		if n, ok := digits(label); ok {
			return n, 99
		}
	case strings.Contains(label, "-"):
		parts := strings.SplitN(label, "-", 2)
		lo, okLo := digits(parts[0])
		hi, okHi := digits(parts[1])
		if okLo && okHi {
			return lo, hi
		}
	default:
		if n, ok := digits(label); ok {
			return n, n
		}
	}
	return 0, 99
}
