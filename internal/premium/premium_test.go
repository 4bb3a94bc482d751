package premium

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgeBand(t *testing.T) {
	rules := domain.DefaultPlanYearConfig().Premiums

	tests := []struct {
		name  string
		age   int
		state string
		want  string
	}{
		{"child band", 10, "GA", BandChild},
		{"child band boundary", 14, "GA", BandChild},
		{"literal age", 15, "GA", "15"},
		{"adult", 35, "TX", "35"},
		{"senior boundary", 64, "TX", BandSenior},
		{"over senior", 70, "TX", BandSenior},
		{"family tier state NY", 35, "NY", BandFamilyTier},
		{"family tier beats child band", 5, "VT", BandFamilyTier},
		{"family tier lower case", 70, "ny", BandFamilyTier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeBand(tt.age, tt.state, rules))
		})
	}
}

func TestDistinctKeys(t *testing.T) {
	rules := domain.DefaultPlanYearConfig().Premiums
	employees := []domain.Employee{
		{ID: "1", Age: 35, State: "GA", RatingArea: 1},
		{ID: "2", Age: 35, State: "GA", RatingArea: 1},
		{ID: "3", Age: 66, State: "GA", RatingArea: 1},
		{ID: "4", Age: 70, State: "GA", RatingArea: 1},
		{ID: "5", AgeMissing: true, State: "GA", RatingArea: 1},
	}

	keys := DistinctKeys(employees, rules)
	require.Len(t, keys, 3, "Duplicate keys should collapse")
	assert.Equal(t, Key{State: "GA", RatingArea: 1, AgeBand: "35"}, keys[0])
	assert.Equal(t, Key{State: "GA", RatingArea: 1, AgeBand: BandSenior}, keys[1])
	assert.Equal(t, Key{State: "GA", RatingArea: 1, AgeBand: "30"}, keys[2], "Missing age should use the default age")
}

type countingLookup struct {
	inner *StaticLookup
	calls [][]Key
}

func (c *countingLookup) Lookup(ctx context.Context, keys []Key) (map[Key]decimal.Decimal, error) {
	c.calls = append(c.calls, keys)
	return c.inner.Lookup(ctx, keys)
}

func TestCache_PrefetchDedupsAndRemembersMisses(t *testing.T) {
	rules := domain.DefaultPlanYearConfig().Premiums
	static := NewStaticLookup(0)
	static.Set(Key{State: "GA", RatingArea: 1, AgeBand: "35"}, decimal.NewFromInt(450))
	source := &countingLookup{inner: static}

	cache, err := NewCache(source, 2026, rules)
	require.NoError(t, err)

	employees := []domain.Employee{
		{ID: "1", Age: 35, State: "GA", RatingArea: 1},
		{ID: "2", Age: 35, State: "GA", RatingArea: 1},
		{ID: "3", Age: 40, State: "GA", RatingArea: 9},
	}

	require.NoError(t, cache.Prefetch(context.Background(), employees))
	require.Len(t, source.calls, 1)
	assert.Len(t, source.calls[0], 2, "Only distinct keys should be requested")

	p, ok := cache.PremiumFor(employees[1])
	assert.True(t, ok)
	assert.True(t, p.Equal(decimal.NewFromInt(450)))

	_, ok = cache.PremiumFor(employees[2])
	assert.False(t, ok, "Unresolvable key should be a miss")

	// A second pass over the same workforce must not hit the source again
	require.NoError(t, cache.Prefetch(context.Background(), employees))
	assert.Len(t, source.calls, 1)

	entries, misses, calls := cache.Stats()
	assert.Equal(t, 1, entries)
	assert.Equal(t, 1, misses)
	assert.Equal(t, 1, calls)
}

func TestNewCache_RejectsOtherPlanYear(t *testing.T) {
	_, err := NewCache(NewStaticLookup(2025), 2026, domain.PremiumRules{})
	assert.Error(t, err)

	_, err = NewCache(nil, 2026, domain.PremiumRules{})
	assert.Error(t, err)
}

func TestRateTable_Columns(t *testing.T) {
	slcsp := decimal.NewFromInt(480)
	table := RateTable{
		PlanYear: 2026,
		Rates: []RateEntry{
			{State: "ga", RatingArea: 1, AgeBand: "35", LCSP: decimal.NewFromInt(450), SLCSP: &slcsp},
			{State: "GA", RatingArea: 1, AgeBand: "36", LCSP: decimal.NewFromInt(455)},
		},
	}

	assert.Equal(t, 2, table.LCSP().Len())
	assert.Equal(t, 1, table.SLCSP().Len())
	assert.Equal(t, 2026, table.LCSP().PlanYear())
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.value
	return nil
}

type fakeBatchResults struct {
	rows []fakeRow
	next int
}

func (f *fakeBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }
func (f *fakeBatchResults) Query() (pgx.Rows, error)         { return nil, errors.New("not supported") }
func (f *fakeBatchResults) Close() error                     { return nil }
func (f *fakeBatchResults) QueryRow() pgx.Row {
	r := f.rows[f.next]
	f.next++
	return r
}

type fakeSender struct {
	premiums map[string]string // keyed by age band
	queued   int
	offsets  []any
}

func (s *fakeSender) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	s.queued = b.Len()
	results := &fakeBatchResults{}
	for _, q := range b.QueuedQueries {
		s.offsets = append(s.offsets, q.Arguments[5])
		band := q.Arguments[2].(string)
		if v, ok := s.premiums[band]; ok {
			results.rows = append(results.rows, fakeRow{value: v})
		} else {
			results.rows = append(results.rows, fakeRow{err: pgx.ErrNoRows})
		}
	}
	return results
}

func TestPostgresLookup_BatchesDistinctKeys(t *testing.T) {
	sender := &fakeSender{premiums: map[string]string{"35": "450.25"}}
	lookup := newPostgresLookup(sender, 2026, RankSLCSP)

	keys := []Key{
		{State: "GA", RatingArea: 1, AgeBand: "35"},
		{State: "GA", RatingArea: 1, AgeBand: "35"},
		{State: "GA", RatingArea: 1, AgeBand: "40"},
	}

	got, err := lookup.Lookup(context.Background(), keys)
	require.NoError(t, err)
	assert.Equal(t, 2, sender.queued, "Duplicate keys should be queued once")
	assert.Equal(t, []any{1, 1}, sender.offsets, "SLCSP rank should skip the cheapest plan")
	require.Len(t, got, 1)
	assert.True(t, got[keys[0]].Equal(decimal.RequireFromString("450.25")))
	assert.Equal(t, 2026, lookup.PlanYear())
}

func TestPostgresLookup_PropagatesQueryErrors(t *testing.T) {
	sender := &erroringSender{}
	lookup := newPostgresLookup(sender, 2026, RankLCSP)

	_, err := lookup.Lookup(context.Background(), []Key{{State: "GA", RatingArea: 1, AgeBand: "35"}})
	assert.Error(t, err)
}

type erroringSender struct{}

func (erroringSender) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	results := &fakeBatchResults{}
	for range b.QueuedQueries {
		results.rows = append(results.rows, fakeRow{err: errors.New("connection reset")})
	}
	return results
}
