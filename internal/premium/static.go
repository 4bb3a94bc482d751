package premium

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// RateEntry is one row of a premium table file
type RateEntry struct {
	State      string           `yaml:"state" json:"state"`
	RatingArea int              `yaml:"rating_area_id" json:"rating_area_id"`
	AgeBand    string           `yaml:"age_band" json:"age_band"`
	LCSP       decimal.Decimal  `yaml:"lcsp" json:"lcsp"`
	SLCSP      *decimal.Decimal `yaml:"slcsp,omitempty" json:"slcsp,omitempty"`
}

// RateTable is a premium table for one plan year, typically loaded from YAML
type RateTable struct {
	PlanYear int         `yaml:"plan_year" json:"plan_year"`
	Rates    []RateEntry `yaml:"rates" json:"rates"`
}

// LCSP returns a lookup over the lowest-cost benchmark column
func (rt RateTable) LCSP() *StaticLookup {
	s := NewStaticLookup(rt.PlanYear)
	for _, r := range rt.Rates {
		s.Set(r.key(), r.LCSP)
	}
	return s
}

// SLCSP returns a lookup over the subsidy benchmark column. Rows without one are skipped.
func (rt RateTable) SLCSP() *StaticLookup {
	s := NewStaticLookup(rt.PlanYear)
	for _, r := range rt.Rates {
		if r.SLCSP != nil {
			s.Set(r.key(), *r.SLCSP)
		}
	}
	return s
}

func (r RateEntry) key() Key {
	return Key{State: strings.ToUpper(r.State), RatingArea: r.RatingArea, AgeBand: r.AgeBand}
}

// StaticLookup is an in-memory Lookup
type StaticLookup struct {
	planYear int
	rates    map[Key]decimal.Decimal
}

// NewStaticLookup creates an empty table for a plan year
func NewStaticLookup(planYear int) *StaticLookup {
	return &StaticLookup{planYear: planYear, rates: make(map[Key]decimal.Decimal)}
}

// Set stores a premium
func (s *StaticLookup) Set(k Key, premium decimal.Decimal) {
	s.rates[k] = premium
}

// Len returns the number of stored premiums
func (s *StaticLookup) Len() int {
	return len(s.rates)
}

// PlanYear implements PlanYearSource
func (s *StaticLookup) PlanYear() int {
	return s.planYear
}

// Lookup implements Lookup
func (s *StaticLookup) Lookup(_ context.Context, keys []Key) (map[Key]decimal.Decimal, error) {
	out := make(map[Key]decimal.Decimal, len(keys))
	for _, k := range keys {
		if p, ok := s.rates[k]; ok {
			out[k] = p
		}
	}
	return out, nil
}
