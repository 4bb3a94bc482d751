package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/rgehrsitz/ichra/internal/compare"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/recommend"
	"github.com/rgehrsitz/ichra/internal/session"
	"github.com/rgehrsitz/ichra/internal/solver"
	"github.com/shopspring/decimal"
)

func (s *Server) analyze(_ context.Context, sess *session.Session, _ *Request) (any, error) {
	return sess.Analyzer().Analyze(sess.Workforce()), nil
}

func (s *Server) strategy(_ context.Context, sess *session.Session, req *Request) (any, error) {
	return s.calculate(sess, req)
}

// calculate runs the requested strategy. A safe harbor in the request adds an
// affordability test to strategies that do not carry one.
func (s *Server) calculate(sess *session.Session, req *Request) (*domain.StrategyResult, error) {
	if req.Strategy == nil {
		return nil, &domain.ConfigError{Operation: "strategy", Message: "strategy is required", Cause: domain.ErrUnknownStrategy}
	}
	cfg, err := req.Strategy.ToConfig(sess.Config.FamilyMultipliers)
	if err != nil {
		return nil, err
	}

	calc := sess.StrategyCalculator()
	w := sess.Workforce()
	result, err := calc.Calculate(cfg, w)
	if err != nil {
		return nil, err
	}
	if req.SafeHarbor != "" && result.Affordability == nil {
		summary, _, err := calc.EvaluateAffordability(result, w, req.SafeHarbor)
		if err != nil {
			return nil, err
		}
		result.Affordability = summary
	}
	return result, nil
}

func (s *Server) solve(ctx context.Context, sess *session.Session, req *Request) (any, error) {
	harbor := req.SafeHarbor
	if harbor == "" {
		harbor = defaultHarbor(sess.Census)
	}
	return solver.NewDefaultSolver(sess.StrategyCalculator()).SolveAgeCurve(ctx, sess.Workforce(), harbor)
}

func defaultHarbor(c *domain.Census) domain.SafeHarbor {
	if c.HasIncomeData() {
		return domain.SafeHarborRateOfPay
	}
	return domain.SafeHarborFPL
}

func (s *Server) compare(ctx context.Context, sess *session.Session, req *Request) (any, error) {
	mode := compare.DetermineMode(sess.Census.Len(), sess.Config.Affordability.ALEThreshold, false)
	if req.Mode != "" {
		parsed, ok := compare.ParseMode(strings.ToLower(req.Mode))
		if !ok {
			return nil, &domain.ConfigError{Operation: "compare", Message: fmt.Sprintf("unknown operating mode %q", req.Mode)}
		}
		mode = parsed
	}
	engine := compare.NewEngine(sess.StrategyCalculator())
	engine.SetLogger(sess.Logger())
	return engine.CompareStrategies(ctx, sess.Workforce(), mode)
}

func (s *Server) recommend(_ context.Context, sess *session.Session, req *Request) (any, error) {
	analysis := sess.Analyzer().Analyze(sess.Workforce())
	if analysis.Error != nil {
		return nil, &domain.ConfigError{Operation: "recommend", Message: analysis.Error.Message}
	}

	r := recommend.NewRecommender()
	r.SetLogger(sess.Logger())
	out := RecommendResult{Recommendations: r.Recommend(analysis)}
	if req.Apply == "" {
		return out, nil
	}

	rec, ok := out.Recommendations.Find(req.Apply)
	if !ok {
		return nil, &domain.ConfigError{
			Operation: "apply_strategy",
			Message:   fmt.Sprintf("no %s recommendation for this workforce", req.Apply),
		}
	}
	applicator := recommend.NewApplicator(sess.Config.FamilyMultipliers)
	applicator.SetLogger(sess.Logger())
	model, err := applicator.Apply(*rec, sess.Census)
	if err != nil {
		return nil, err
	}
	out.ClassModel = model
	return out, nil
}

func (s *Server) patterns(_ context.Context, sess *session.Session, _ *Request) (any, error) {
	detector := sess.PatternDetector()
	out := PatternsResult{Patterns: detector.Detect(sess.Census)}
	if sess.Census.Columns.Renewal {
		out.Renewal = detector.ProjectRenewal(sess.Census, out.Patterns)
	}
	return out, nil
}

// subsidy evaluates premium tax credits against explicit contributions, a
// strategy's contributions, or the census's current employer contributions,
// in that order of preference
func (s *Server) subsidy(_ context.Context, sess *session.Session, req *Request) (any, error) {
	if !sess.HasSubsidyBenchmark() {
		return nil, &domain.ConfigError{Operation: "subsidy", Message: "premium table has no SLCSP benchmark"}
	}

	contributions := req.Contributions
	if contributions == nil {
		contributions = make(map[string]decimal.Decimal, sess.Census.Len())
		if req.Strategy != nil {
			result, err := s.calculate(sess, req)
			if err != nil {
				return nil, err
			}
			for _, line := range result.Employees {
				contributions[line.EmployeeID] = line.Contribution
			}
		} else {
			for _, e := range sess.Census.Employees {
				contributions[e.ID] = e.CurrentER()
			}
		}
	}
	return sess.SubsidyCalculator().AnalyzeWorkforce(sess.Workforce(), contributions), nil
}
