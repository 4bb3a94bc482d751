package premium

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	// RankLCSP selects the lowest-cost silver plan
	RankLCSP = 1
	// RankSLCSP selects the second-lowest-cost silver plan used for subsidies
	RankSLCSP = 2
)

const benchmarkQuery = `
	SELECT premium::text
	FROM benchmark_rates
	WHERE state_code = $1
		AND rating_area_id = $2
		AND age_band = $3
		AND plan_year = $4
		AND metal_level = $5
	ORDER BY premium ASC
	OFFSET $6
	LIMIT 1`

// batchSender is the subset of *pgxpool.Pool used by PostgresLookup
type batchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostgresLookup resolves benchmark premiums from a rate table in one round trip
// per batch. Each distinct key becomes one queued query.
type PostgresLookup struct {
	db         batchSender
	planYear   int
	rank       int
	metalLevel string
}

// NewPostgresLookup creates a lookup for a plan year. rank 1 is the LCSP, rank 2 the SLCSP.
func NewPostgresLookup(pool *pgxpool.Pool, planYear, rank int) *PostgresLookup {
	return newPostgresLookup(pool, planYear, rank)
}

func newPostgresLookup(db batchSender, planYear, rank int) *PostgresLookup {
	if rank < 1 {
		rank = RankLCSP
	}
	return &PostgresLookup{db: db, planYear: planYear, rank: rank, metalLevel: "Silver"}
}

// PlanYear implements PlanYearSource
func (pl *PostgresLookup) PlanYear() int {
	return pl.planYear
}

// Lookup implements Lookup
func (pl *PostgresLookup) Lookup(ctx context.Context, keys []Key) (map[Key]decimal.Decimal, error) {
	unique := make([]Key, 0, len(keys))
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			unique = append(unique, k)
		}
	}
	out := make(map[Key]decimal.Decimal, len(unique))
	if len(unique) == 0 {
		return out, nil
	}

	batch := &pgx.Batch{}
	for _, k := range unique {
		batch.Queue(benchmarkQuery, k.State, k.RatingArea, k.AgeBand, pl.planYear, pl.metalLevel, pl.rank-1)
	}

	br := pl.db.SendBatch(ctx, batch)
	defer br.Close()

	for _, k := range unique {
		var raw string
		err := br.QueryRow().Scan(&raw)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("benchmark query for %s: %w", k, err)
		}
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("benchmark premium %q for %s: %w", raw, k, err)
		}
		out[k] = p
	}
	return out, nil
}

// Connect opens a pool from a database URL, falling back to DATABASE_URL
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}
