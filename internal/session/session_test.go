package session

import (
	"context"
	"testing"

	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/premium"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLookup struct {
	*premium.StaticLookup
	calls int
	keys  int
}

func (c *countingLookup) Lookup(ctx context.Context, keys []premium.Key) (map[premium.Key]decimal.Decimal, error) {
	c.calls++
	c.keys += len(keys)
	return c.StaticLookup.Lookup(ctx, keys)
}

func testCensus() *domain.Census {
	return domain.NewCensus([]domain.Employee{
		{ID: "A", Age: 30, State: "OH", RatingArea: 1, FamilyStatus: domain.FamilyEmployeeOnly},
		{ID: "B", Age: 30, State: "OH", RatingArea: 1, FamilyStatus: domain.FamilyFull},
		{ID: "C", Age: 45, State: "OH", RatingArea: 1, FamilyStatus: domain.FamilyEmployeeOnly},
		{ID: "D", Age: 45, State: "TX", RatingArea: 9, FamilyStatus: domain.FamilyEmployeeOnly},
	})
}

func testTable() premium.RateTable {
	slcsp := decimal.NewFromInt(460)
	return premium.RateTable{
		PlanYear: 2026,
		Rates: []premium.RateEntry{
			{State: "OH", RatingArea: 1, AgeBand: "30", LCSP: decimal.NewFromInt(400), SLCSP: &slcsp},
			{State: "OH", RatingArea: 1, AgeBand: "45", LCSP: decimal.NewFromInt(550)},
		},
	}
}

func TestOpen_PrefetchesOncePerDistinctKey(t *testing.T) {
	lcsp := &countingLookup{StaticLookup: testTable().LCSP()}

	s, err := Open(context.Background(), nil, testCensus(), Sources{LCSP: lcsp})
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 2026, s.PlanYear())
	assert.Equal(t, 1, lcsp.calls)
	assert.Equal(t, 3, lcsp.keys, "A and B share a key")

	entries, misses, calls := s.CacheStats()
	assert.Equal(t, 2, entries)
	assert.Equal(t, 1, misses, "TX area 9 is not in the table")
	assert.Equal(t, 1, calls)

	require.NoError(t, s.Prefetch(context.Background()))
	assert.Equal(t, 1, lcsp.calls, "Known hits and misses are not re-queried")
}

func TestSession_Workforce(t *testing.T) {
	table := testTable()
	s, err := Open(context.Background(), nil, testCensus(), Sources{LCSP: table.LCSP(), SLCSP: table.SLCSP()})
	require.NoError(t, err)

	w := s.Workforce()
	require.Len(t, w.Employees(), 4)

	p, ok := w.LCSP.PremiumFor(w.Employees()[1])
	require.True(t, ok)
	assert.True(t, decimal.NewFromInt(400).Equal(p))

	_, ok = w.LCSP.PremiumFor(w.Employees()[3])
	assert.False(t, ok)

	require.NotNil(t, w.SLCSP)
	assert.True(t, s.HasSubsidyBenchmark())
	_, ok = w.SLCSP.PremiumFor(w.Employees()[2])
	assert.False(t, ok, "Rows without an SLCSP are not loaded")
}

func TestSession_WorkforceWithoutSubsidyBenchmark(t *testing.T) {
	s, err := New(nil, testCensus(), Sources{LCSP: testTable().LCSP()})
	require.NoError(t, err)

	assert.False(t, s.HasSubsidyBenchmark())
	assert.Nil(t, s.Workforce().SLCSP, "An absent SLCSP source must be a nil interface")
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		census *domain.Census
		src    Sources
	}{
		{"no census", nil, Sources{LCSP: testTable().LCSP()}},
		{"no LCSP source", testCensus(), Sources{}},
		{"LCSP from another plan year", testCensus(), Sources{LCSP: premium.NewStaticLookup(2025)}},
		{"SLCSP from another plan year", testCensus(), Sources{LCSP: testTable().LCSP(), SLCSP: premium.NewStaticLookup(2024)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(nil, tt.census, tt.src)
			assert.Error(t, err)
		})
	}
}

func TestSession_UniqueIDs(t *testing.T) {
	a, err := New(nil, testCensus(), Sources{LCSP: testTable().LCSP()})
	require.NoError(t, err)
	b, err := New(nil, testCensus(), Sources{LCSP: testTable().LCSP()})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSession_Calculators(t *testing.T) {
	s, err := Open(context.Background(), nil, testCensus(), Sources{LCSP: testTable().LCSP()})
	require.NoError(t, err)

	result, err := s.StrategyCalculator().Calculate(domain.StrategyConfig{
		Strategy: domain.PercentageOfLCSP{Percent: decimal.NewFromInt(50)},
	}, s.Workforce())
	require.NoError(t, err)
	assert.Equal(t, 3, result.EmployeesCovered)
	assert.Equal(t, []string{"D"}, result.ExcludedEmployees)
	assert.True(t, decimal.NewFromInt(675).Equal(result.TotalMonthly), "got %s", result.TotalMonthly)

	analysis := s.Analyzer().Analyze(s.Workforce())
	require.NotNil(t, analysis)
	assert.Equal(t, 4, analysis.Summary.TotalEmployees)

	assert.NotNil(t, s.PatternDetector())
	assert.NotNil(t, s.SubsidyCalculator())
}

func TestTableSources(t *testing.T) {
	table := testTable()
	src := TableSources(&table)
	require.NotNil(t, src.LCSP)
	assert.NotNil(t, src.SLCSP, "Rows with a benchmark give an SLCSP source")

	for i := range table.Rates {
		table.Rates[i].SLCSP = nil
	}
	src = TableSources(&table)
	assert.Nil(t, src.SLCSP)

	s, err := New(nil, testCensus(), src)
	require.NoError(t, err)
	assert.False(t, s.HasSubsidyBenchmark())
}
