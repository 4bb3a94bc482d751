package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/ichra/internal/config"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/output"
	"github.com/rgehrsitz/ichra/internal/premium"
	"github.com/rgehrsitz/ichra/internal/session"
)

// premiumSources resolves the benchmark premium lookups from --premiums or,
// failing that, from Postgres. The returned func releases the connection pool.
func (o *globalOptions) premiumSources(ctx context.Context, planYear int) (session.Sources, func(), error) {
	if o.premiums != "" {
		table, err := config.NewInputParser().LoadPremiumTable(o.premiums)
		if err != nil {
			return session.Sources{}, nil, err
		}
		return session.TableSources(table), func() {}, nil
	}

	pool, err := premium.Connect(ctx, o.databaseURL)
	if err != nil {
		return session.Sources{}, nil, fmt.Errorf("no premium source (pass --premiums or --database-url): %w", err)
	}
	src := session.Sources{
		LCSP:  premium.NewPostgresLookup(pool, planYear, premium.RankLCSP),
		SLCSP: premium.NewPostgresLookup(pool, planYear, premium.RankSLCSP),
	}
	return src, pool.Close, nil
}

// openSession loads the plan year and census, resolves premiums and prefetches
// every benchmark the census needs
func (o *globalOptions) openSession(ctx context.Context, censusPath string) (*session.Session, func(), error) {
	parser := config.NewInputParser()
	cfg, err := parser.LoadPlanYear(o.planYearConfig)
	if err != nil {
		return nil, nil, err
	}
	census, err := parser.LoadCensus(censusPath)
	if err != nil {
		return nil, nil, err
	}

	src, release, err := o.premiumSources(ctx, cfg.Metadata.PlanYear)
	if err != nil {
		return nil, nil, err
	}
	sess, err := session.Open(ctx, cfg, census, src)
	if err != nil {
		release()
		return nil, nil, err
	}
	sess.SetLogger(o.logger())

	entries, misses, calls := sess.CacheStats()
	o.logger().Debugf("session %s: %d employees, %d premiums cached, %d missing, %d source call(s)",
		sess.ID, census.Len(), entries, misses, calls)
	return sess, release, nil
}

// newReport starts a report carrying the session's provenance
func newReport(sess *session.Session, censusPath, title string) *output.Report {
	report := output.NewReport(title)
	report.SessionID = sess.ID
	report.CensusPath = censusPath
	report.Assumptions = output.Assumptions(sess.Config)
	return report
}

// render writes the report in the selected format to the command's output
func (o *globalOptions) render(cmd *cobra.Command, report *output.Report) error {
	f, ok := output.GetFormatterByName(o.format)
	if !ok {
		return fmt.Errorf("unknown format %q (available: %s)", o.format, strings.Join(output.AvailableFormatterNames(), ", "))
	}
	data, err := f.Format(report)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// defaultHarbor picks rate of pay when the census carries income, else FPL
func defaultHarbor(census *domain.Census) domain.SafeHarbor {
	if census.HasIncomeData() {
		return domain.SafeHarborRateOfPay
	}
	return domain.SafeHarborFPL
}

func parseHarbor(s string) (domain.SafeHarbor, error) {
	switch h := domain.SafeHarbor(strings.ToLower(strings.TrimSpace(s))); h {
	case domain.SafeHarborFPL, domain.SafeHarborRateOfPay, domain.SafeHarborW2:
		return h, nil
	case "":
		return "", nil
	}
	return "", fmt.Errorf("unknown safe harbor %q (use fpl, rate_of_pay or w2_wages)", s)
}
