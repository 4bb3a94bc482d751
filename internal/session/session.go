// Package session binds one census to the benchmark premiums of one plan year.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/ichra/internal/calculation"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/premium"
)

// Sources are the premium lookups a session draws from. SLCSP is optional
// and only needed for subsidy calculations.
type Sources struct {
	LCSP  premium.Lookup
	SLCSP premium.Lookup
}

// TableSources returns lookups over a rate table. SLCSP is left nil when no
// row carries a benchmark.
func TableSources(t *premium.RateTable) Sources {
	src := Sources{LCSP: t.LCSP()}
	if slcsp := t.SLCSP(); slcsp.Len() > 0 {
		src.SLCSP = slcsp
	}
	return src
}

// Session is one calculation session over an immutable census. It owns the
// premium caches, so every strategy and solver iteration run against it
// reuses the same resolved premiums. A new plan year needs a new session.
type Session struct {
	ID        string
	CreatedAt time.Time
	Config    *domain.PlanYearConfig
	Census    *domain.Census

	lcsp   *premium.Cache
	slcsp  *premium.Cache
	logger calculation.Logger
}

// New creates a session. The plan year is taken from the config metadata;
// sources bound to a different plan year are rejected.
func New(cfg *domain.PlanYearConfig, census *domain.Census, src Sources) (*Session, error) {
	if cfg == nil {
		cfg = domain.DefaultPlanYearConfig()
	}
	if census == nil {
		return nil, fmt.Errorf("session requires a census")
	}
	planYear := cfg.Metadata.PlanYear

	lcsp, err := premium.NewCache(src.LCSP, planYear, cfg.Premiums)
	if err != nil {
		return nil, fmt.Errorf("failed to create LCSP cache: %w", err)
	}
	s := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Config:    cfg,
		Census:    census,
		lcsp:      lcsp,
		logger:    calculation.NopLogger{},
	}
	if src.SLCSP != nil {
		if s.slcsp, err = premium.NewCache(src.SLCSP, planYear, cfg.Premiums); err != nil {
			return nil, fmt.Errorf("failed to create SLCSP cache: %w", err)
		}
	}
	return s, nil
}

// Open creates a session and prefetches every premium its census needs
func Open(ctx context.Context, cfg *domain.PlanYearConfig, census *domain.Census, src Sources) (*Session, error) {
	s, err := New(cfg, census, src)
	if err != nil {
		return nil, err
	}
	if err := s.Prefetch(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// SetLogger sets the logger; nil restores the no-op logger
func (s *Session) SetLogger(l calculation.Logger) {
	if l == nil {
		l = calculation.NopLogger{}
	}
	s.logger = l
}

// Logger returns the session logger so calculators built for it can share it
func (s *Session) Logger() calculation.Logger {
	return s.logger
}

// PlanYear returns the plan year the session's caches are valid for
func (s *Session) PlanYear() int {
	return s.Config.Metadata.PlanYear
}

// Prefetch resolves the distinct premium keys of the census in one batch per
// benchmark. Keys resolved or missed earlier are not requested again.
func (s *Session) Prefetch(ctx context.Context) error {
	if err := s.lcsp.Prefetch(ctx, s.Census.Employees); err != nil {
		return err
	}
	if s.slcsp != nil {
		if err := s.slcsp.Prefetch(ctx, s.Census.Employees); err != nil {
			return err
		}
	}
	entries, misses, calls := s.lcsp.Stats()
	s.logger.Debugf("session %s: %d LCSP premiums resolved, %d missing, %d source calls", s.ID, entries, misses, calls)
	return nil
}

// Workforce returns the census with the session's benchmark sources
func (s *Session) Workforce() calculation.Workforce {
	w := calculation.Workforce{Census: s.Census, LCSP: s.lcsp}
	if s.slcsp != nil {
		w.SLCSP = s.slcsp
	}
	return w
}

// HasSubsidyBenchmark reports whether subsidy calculations have an SLCSP source
func (s *Session) HasSubsidyBenchmark() bool {
	return s.slcsp != nil
}

// CacheStats reports LCSP cache occupancy and source calls
func (s *Session) CacheStats() (entries, misses, sourceCalls int) {
	return s.lcsp.Stats()
}

// StrategyCalculator returns a strategy calculator for the session's plan year
func (s *Session) StrategyCalculator() *calculation.StrategyCalculator {
	sc := calculation.NewStrategyCalculatorWithConfig(s.Config)
	sc.SetLogger(s.logger)
	return sc
}

// Analyzer returns a workforce analyzer for the session's plan year
func (s *Session) Analyzer() *calculation.WorkforceAnalyzer {
	wa := calculation.NewWorkforceAnalyzer(s.Config)
	wa.SetLogger(s.logger)
	return wa
}

// SubsidyCalculator returns a subsidy calculator for the session's plan year
func (s *Session) SubsidyCalculator() *calculation.SubsidyCalculator {
	sc := calculation.NewSubsidyCalculatorWithConfig(s.Config)
	sc.SetLogger(s.logger)
	return sc
}

// PatternDetector returns a contribution pattern detector with the plan year's rules
func (s *Session) PatternDetector() *calculation.PatternDetector {
	pd := calculation.NewPatternDetectorWithRules(s.Config.Patterns)
	pd.SetLogger(s.logger)
	return pd
}
