// Package premium resolves benchmark premiums for employees and caches them per plan year.
package premium

import (
	"fmt"
	"strconv"

	"github.com/rgehrsitz/ichra/internal/domain"
)

const (
	// BandChild covers every age up to and including 14
	BandChild = "0-14"
	// BandSenior covers every age from 64 up
	BandSenior = "64 and over"
	// BandFamilyTier is used by states that rate by family tier rather than age
	BandFamilyTier = "Family-Tier Rates"
)

// AgeBand maps an age and state to the rate table's age-band label.
// Family-tier states win over any age rule.
func AgeBand(age int, state string, rules domain.PremiumRules) string {
	if rules.UsesFamilyTierRates(state) {
		return BandFamilyTier
	}
	if age <= 14 {
		return BandChild
	}
	if age >= 64 {
		return BandSenior
	}
	return strconv.Itoa(age)
}

// Key identifies one benchmark premium
type Key struct {
	State      string `json:"state_code"`
	RatingArea int    `json:"rating_area_id"`
	AgeBand    string `json:"age_band"`
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d/%s", k.State, k.RatingArea, k.AgeBand)
}

// DefaultAge is used for the lookup key when a census row has no age
const DefaultAge = 30

// KeyFor builds the lookup key for an employee
func KeyFor(e domain.Employee, rules domain.PremiumRules) Key {
	return Key{
		State:      e.State,
		RatingArea: e.RatingArea,
		AgeBand:    AgeBand(e.AgeOr(DefaultAge), e.State, rules),
	}
}

// DistinctKeys returns the deduplicated keys for a set of employees in first-seen order
func DistinctKeys(employees []domain.Employee, rules domain.PremiumRules) []Key {
	seen := make(map[Key]bool, len(employees))
	keys := make([]Key, 0, len(employees))
	for _, e := range employees {
		k := KeyFor(e, rules)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys
}
