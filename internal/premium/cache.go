package premium

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
)

// Lookup resolves benchmark premiums in batch. Keys it cannot resolve are
// simply absent from the returned map; duplicates in keys must be tolerated.
type Lookup interface {
	Lookup(ctx context.Context, keys []Key) (map[Key]decimal.Decimal, error)
}

// PlanYearSource is implemented by lookups bound to a single plan year
type PlanYearSource interface {
	PlanYear() int
}

// Cache memoizes a Lookup for one plan year. It is owned by a single calculation
// session and never shared across plan years. Reads do not touch the source.
type Cache struct {
	source   Lookup
	planYear int
	rules    domain.PremiumRules

	entries     map[Key]decimal.Decimal
	misses      map[Key]bool
	sourceCalls int
}

// NewCache creates an empty cache. A source bound to another plan year is rejected.
func NewCache(source Lookup, planYear int, rules domain.PremiumRules) (*Cache, error) {
	if source == nil {
		return nil, fmt.Errorf("premium cache requires a lookup source")
	}
	if py, ok := source.(PlanYearSource); ok && py.PlanYear() != 0 && planYear != 0 && py.PlanYear() != planYear {
		return nil, fmt.Errorf("premium source is for plan year %d, cache is for %d", py.PlanYear(), planYear)
	}
	return &Cache{
		source:   source,
		planYear: planYear,
		rules:    rules,
		entries:  make(map[Key]decimal.Decimal),
		misses:   make(map[Key]bool),
	}, nil
}

// PlanYear returns the plan year this cache is valid for
func (c *Cache) PlanYear() int {
	return c.planYear
}

// Prefetch resolves every distinct key for the employees that is not already
// known, in one call to the source. Known misses are not re-queried.
func (c *Cache) Prefetch(ctx context.Context, employees []domain.Employee) error {
	var pending []Key
	for _, k := range DistinctKeys(employees, c.rules) {
		if _, ok := c.entries[k]; ok {
			continue
		}
		if c.misses[k] {
			continue
		}
		pending = append(pending, k)
	}
	if len(pending) == 0 {
		return nil
	}

	c.sourceCalls++
	found, err := c.source.Lookup(ctx, pending)
	if err != nil {
		return fmt.Errorf("benchmark premium lookup failed for %d keys: %w", len(pending), err)
	}
	for _, k := range pending {
		if p, ok := found[k]; ok {
			c.entries[k] = p
		} else {
			c.misses[k] = true
		}
	}
	return nil
}

// Get returns a resolved premium
func (c *Cache) Get(k Key) (decimal.Decimal, bool) {
	p, ok := c.entries[k]
	return p, ok
}

// PremiumFor returns the benchmark premium for an employee if it was resolved
func (c *Cache) PremiumFor(e domain.Employee) (decimal.Decimal, bool) {
	return c.Get(KeyFor(e, c.rules))
}

// Stats reports cache occupancy and how many times the source was called
func (c *Cache) Stats() (entries, misses, sourceCalls int) {
	return len(c.entries), len(c.misses), c.sourceCalls
}
