package recommend

import (
	"fmt"
	"sort"

	"github.com/rgehrsitz/ichra/internal/calculation"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// Thresholds controls when banded recommendations are worth offering
type Thresholds struct {
	MinBandedWorkforce int             // smallest workforce that gets age bands
	MinBandSize        int             // bands smaller than this are merged into a neighbor
	AgeCV              decimal.Decimal // per-age minimum CV that must be exceeded
	LocationCV         decimal.Decimal // state average LCSP CV that must be exceeded
	FlatOverpayRatio   decimal.Decimal // flat amount above mean x ratio earns the over-contribution cons
}

// DefaultThresholds returns 10 employees, bands of 3, CV 0.15 by age and 0.10 by location
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinBandedWorkforce: 10,
		MinBandSize:        3,
		AgeCV:              decimal.NewFromFloat(0.15),
		LocationCV:         decimal.NewFromFloat(0.10),
		FlatOverpayRatio:   decimal.NewFromFloat(1.3),
	}
}

// Recommender turns a workforce analysis into two or three compliant strategy summaries
type Recommender struct {
	Thresholds Thresholds
	logger     calculation.Logger
}

// NewRecommender creates a recommender with default thresholds
func NewRecommender() *Recommender {
	return &Recommender{Thresholds: DefaultThresholds(), logger: calculation.NopLogger{}}
}

// SetLogger sets the logger; nil restores the no-op logger
func (r *Recommender) SetLogger(l calculation.Logger) {
	if l == nil {
		l = calculation.NopLogger{}
	}
	r.logger = l
}

// candidate is one employee with a computable minimum contribution
type candidate struct {
	age     int
	state   string
	lcsp    decimal.Decimal
	minimum decimal.Decimal
}

// Recommend builds the flat recommendation and, when the workforce varies enough,
// the age-banded and location recommendations. Only employees with income data
// participate; a workforce without any yields an empty set.
func (r *Recommender) Recommend(analysis *domain.WorkforceAnalysis) *domain.RecommendationSet {
	set := &domain.RecommendationSet{}
	if analysis == nil || analysis.Error != nil {
		return set
	}

	var employees []candidate
	for _, row := range analysis.Employees {
		if !row.HasIncomeData || row.MinEmployerContribution == nil {
			continue
		}
		employees = append(employees, candidate{
			age:     row.Age,
			state:   row.State,
			lcsp:    row.LCSP,
			minimum: *row.MinEmployerContribution,
		})
	}
	set.EmployeesAnalyzed = len(employees)
	set.CurrentERSpendAnnual = analysis.Summary.CurrentERSpendAnnual
	if len(employees) == 0 {
		r.logger.Infof("no employees with income data, nothing to recommend")
		return set
	}

	add := func(rec *domain.Recommendation) {
		rec.SavingsVsCurrent = set.CurrentERSpendAnnual.Sub(rec.AnnualCost).Round(2)
		set.Recommendations = append(set.Recommendations, *rec)
	}

	add(r.flat(employees))
	if rec := r.ageBanded(employees); rec != nil {
		add(rec)
	}
	if rec := r.location(employees); rec != nil {
		add(rec)
	}
	r.logger.Debugf("generated %d recommendation(s) for %d employees", len(set.Recommendations), len(employees))
	return set
}

func (r *Recommender) flat(employees []candidate) *domain.Recommendation {
	mins := minimums(employees)
	amount := calculation.Max(mins).Round(2)
	tier := newTier("All employees", amount, len(employees))

	rec := &domain.Recommendation{
		Type:        domain.RecommendFlat,
		Name:        "Single Flat Contribution",
		Description: fmt.Sprintf("$%s per month for every employee", amount.StringFixed(2)),
		Tiers:       []domain.RecommendationTier{tier},
		AnnualCost:  tier.TotalMonthly.Mul(twelve).Round(2),
		Pros: []string{
			"Simplest to administer",
			"Easy to communicate to employees",
			"Ensures affordability for all",
		},
	}
	if amount.GreaterThan(calculation.Mean(mins).Mul(r.Thresholds.FlatOverpayRatio)) {
		rec.Cons = []string{
			"Over-contributes to younger or lower-cost employees",
			"Highest total employer cost",
		}
	}
	return rec
}

// ageBanded returns nil when the workforce is too small, the per-age minimums
// do not vary enough, or fewer than two bands survive merging.
func (r *Recommender) ageBanded(employees []candidate) *domain.Recommendation {
	th := r.Thresholds
	if len(employees) < th.MinBandedWorkforce {
		return nil
	}

	byAge := make(map[int][]decimal.Decimal)
	for _, e := range employees {
		byAge[e.age] = append(byAge[e.age], e.minimum)
	}
	perAge := make([]decimal.Decimal, 0, len(byAge))
	for _, mins := range byAge {
		perAge = append(perAge, calculation.Mean(mins))
	}
	cv, ok := calculation.CoefficientOfVariation(perAge, 0)
	if !ok || !cv.GreaterThan(th.AgeCV) {
		r.logger.Debugf("age CV %s does not exceed %s, no age bands", cv.StringFixed(3), th.AgeCV)
		return nil
	}

	bands := mergeSmallBands(assignBands(employees, bandBoundaries(employees, bandCount(cv))), th.MinBandSize)
	if len(bands) < 2 {
		return nil
	}

	rec := &domain.Recommendation{
		Type:        domain.RecommendAgeBanded,
		Name:        "Age-Based Contribution Tiers",
		Description: fmt.Sprintf("%d age bands, each funded at its highest individual minimum", len(bands)),
		CV:          cv.Round(3),
		Pros: []string{
			"Mirrors premium age-rating",
			"More cost-efficient than flat",
			"Fair allocation based on cost",
		},
		Cons: []string{
			"Slightly more complex to administer",
			"Requires age-based tracking",
		},
	}
	total := decimal.Zero
	used := make(map[string]bool, len(bands))
	for i, b := range bands {
		label := bandLabel(b.min, b.max, i == len(bands)-1, used)
		used[label] = true
		tier := newTier(label, calculation.Max(minimums(b.members)).Round(2), len(b.members))
		tier.AgeMin, tier.AgeMax = b.min, b.max
		rec.Tiers = append(rec.Tiers, tier)
		total = total.Add(tier.TotalMonthly)
	}
	rec.AnnualCost = total.Mul(twelve).Round(2)
	return rec
}

func bandCount(cv decimal.Decimal) int {
	switch {
	case cv.LessThan(decimal.NewFromFloat(0.30)):
		return 2
	case cv.LessThan(decimal.NewFromFloat(0.50)):
		return 3
	default:
		return 4
	}
}

// bandBoundaries returns ascending half-open boundaries [b0, b1), [b1, b2), ...
// from equal-sized age percentiles. The first boundary is the youngest age and
// the last is one past the oldest. Duplicates collapse; if fewer than two bands
// remain the workforce is split at the median age.
func bandBoundaries(employees []candidate, n int) []int {
	ages := make([]int, len(employees))
	youngest, oldest := employees[0].age, employees[0].age
	for i, e := range employees {
		ages[i] = e.age
		youngest = min(youngest, e.age)
		oldest = max(oldest, e.age)
	}

	raw := make([]int, n+1)
	for i := range raw {
		raw[i] = calculation.PercentileInt(ages, float64(i)*100/float64(n))
	}
	raw[0] = youngest
	raw[n] = oldest + 1

	var bounds []int
	for _, b := range raw {
		if len(bounds) == 0 || b > bounds[len(bounds)-1] {
			bounds = append(bounds, b)
		}
	}
	if len(bounds) < 3 {
		bounds = []int{youngest, calculation.PercentileInt(ages, 50), oldest + 1}
	}
	return bounds
}

type band struct {
	min, max int
	members  []candidate
}

func assignBands(employees []candidate, bounds []int) []band {
	bands := make([]band, 0, len(bounds)-1)
	for i := 0; i+1 < len(bounds); i++ {
		bands = append(bands, band{min: bounds[i], max: bounds[i+1] - 1})
	}
	for _, e := range employees {
		for i := range bands {
			if e.age >= bands[i].min && e.age <= bands[i].max {
				bands[i].members = append(bands[i].members, e)
				break
			}
		}
	}
	return bands
}

// mergeSmallBands folds every band with fewer than minSize members into its
// younger neighbor, or the older one for the first band. Empty bands vanish.
func mergeSmallBands(bands []band, minSize int) []band {
	for {
		small := -1
		for i, b := range bands {
			if len(b.members) < minSize {
				small = i
				break
			}
		}
		if small < 0 || len(bands) < 2 {
			break
		}
		into := small - 1
		if small == 0 {
			into = 1
		}
		lo, hi := min(small, into), max(small, into)
		merged := band{
			min:     bands[lo].min,
			max:     bands[hi].max,
			members: append(append([]candidate(nil), bands[lo].members...), bands[hi].members...),
		}
		bands = append(bands[:lo], append([]band{merged}, bands[hi+1:]...)...)
	}
	if len(bands) == 1 && len(bands[0].members) < minSize {
		return nil
	}
	return bands
}

// bandLabel names a band; "Under 30" is given to at most one band
func bandLabel(lo, hi int, last bool, used map[string]bool) string {
	switch {
	case lo < 26 && hi < 30 && !used["Under 30"]:
		return "Under 30"
	case last:
		return fmt.Sprintf("%d+", lo)
	default:
		return fmt.Sprintf("%d-%d", lo, hi)
	}
}

// location returns nil for a single-state workforce or when average LCSP
// varies too little across states.
func (r *Recommender) location(employees []candidate) *domain.Recommendation {
	byState := make(map[string][]candidate)
	for _, e := range employees {
		state := e.state
		if state == "" {
			state = "Unknown"
		}
		byState[state] = append(byState[state], e)
	}
	if len(byState) < 2 {
		return nil
	}

	states := make([]string, 0, len(byState))
	averages := make([]decimal.Decimal, 0, len(byState))
	for state, members := range byState {
		states = append(states, state)
		lcsps := make([]decimal.Decimal, len(members))
		for i, m := range members {
			lcsps[i] = m.lcsp
		}
		averages = append(averages, calculation.Mean(lcsps))
	}
	cv, ok := calculation.CoefficientOfVariation(averages, 0)
	if !ok || !cv.GreaterThan(r.Thresholds.LocationCV) {
		r.logger.Debugf("state LCSP CV %s does not exceed %s, no location tiers", cv.StringFixed(3), r.Thresholds.LocationCV)
		return nil
	}
	sort.Strings(states)

	rec := &domain.Recommendation{
		Type:        domain.RecommendByLocation,
		Name:        "Location-Based Contributions",
		Description: fmt.Sprintf("One contribution per state across %d states", len(states)),
		CV:          cv.Round(3),
		Pros: []string{
			"Addresses geographic premium differences",
			"Cost-efficient for multi-state workforces",
		},
		Cons: []string{
			"May feel inequitable to employees",
			"Requires state-level tracking",
		},
	}
	total := decimal.Zero
	for _, state := range states {
		members := byState[state]
		tier := newTier(state, calculation.Max(minimums(members)).Round(2), len(members))
		tier.State = state
		if tier.Contribution.IsZero() {
			rec.Warnings = append(rec.Warnings, fmt.Sprintf("$0 contribution for %s (%d employees)", state, len(members)))
		}
		rec.Tiers = append(rec.Tiers, tier)
		total = total.Add(tier.TotalMonthly)
	}
	rec.AnnualCost = total.Mul(twelve).Round(2)
	return rec
}

func newTier(label string, amount decimal.Decimal, count int) domain.RecommendationTier {
	return domain.RecommendationTier{
		Label:         label,
		Contribution:  amount,
		EmployeeCount: count,
		TotalMonthly:  amount.Mul(decimal.NewFromInt(int64(count))).Round(2),
	}
}

func minimums(employees []candidate) []decimal.Decimal {
	out := make([]decimal.Decimal, len(employees))
	for i, e := range employees {
		out[i] = e.minimum
	}
	return out
}
