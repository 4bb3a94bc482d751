package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rgehrsitz/ichra/internal/config"
	"github.com/rgehrsitz/ichra/internal/domain"
	"github.com/rgehrsitz/ichra/internal/recommend"
	"github.com/rgehrsitz/ichra/internal/session"
	"github.com/rgehrsitz/ichra/internal/solver"
)

// sessionCmd builds a subcommand that takes one census argument and runs
// against an open session
func sessionCmd(opts *globalOptions, use, short string, run func(cmd *cobra.Command, sess *session.Session, censusPath string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [census-file]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, release, err := opts.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer release()
			return run(cmd, sess, args[0])
		},
	}
}

func analyzeCmd(opts *globalOptions) *cobra.Command {
	return sessionCmd(opts, "analyze", "Analyze workforce affordability at current contributions",
		func(cmd *cobra.Command, sess *session.Session, censusPath string) error {
			report := newReport(sess, censusPath, "Workforce Affordability Analysis")
			report.Analysis = sess.Analyzer().Analyze(sess.Workforce())
			return opts.render(cmd, report)
		})
}

// strategyFlags is the command-line form of domain.StrategyParams
type strategyFlags struct {
	file              string
	kind              string
	amount            string
	baseAge           int
	baseAmount        string
	percent           string
	tiers             map[string]string
	locations         map[string]string
	familyMultipliers bool
	safeHarbor        string
}

func (sf *strategyFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&sf.file, "strategy-file", "", "YAML file with strategy parameters (overrides the other strategy flags)")
	f.StringVarP(&sf.kind, "type", "t", "", "Strategy: flat_amount, base_age_curve, percentage_lcsp, fixed_age_tiers, fpl_safe_harbor, rate_of_pay_safe_harbor, subsidy_optimized")
	f.StringVar(&sf.amount, "amount", "", "Monthly amount for flat_amount")
	f.IntVar(&sf.baseAge, "base-age", 0, "Base age for base_age_curve (default 21)")
	f.StringVar(&sf.baseAmount, "base-amount", "", "Monthly amount at the base age for base_age_curve")
	f.StringVar(&sf.percent, "percent", "", "Percent of LCSP for percentage_lcsp (default 100)")
	f.StringToStringVar(&sf.tiers, "tier", nil, "Age tier amount for fixed_age_tiers, e.g. --tier 26-35=300")
	f.StringToStringVar(&sf.locations, "location-adjust", nil, "Per-state addition, e.g. --location-adjust CA=50")
	f.BoolVar(&sf.familyMultipliers, "family-multipliers", false, "Scale contributions by the plan-year family multipliers")
	f.StringVar(&sf.safeHarbor, "safe-harbor", "", "Test affordability under fpl, rate_of_pay or w2_wages")
}

func (sf *strategyFlags) set() bool {
	return sf.file != "" || sf.kind != ""
}

// params assembles strategy parameters from a file or from the flags
func (sf *strategyFlags) params() (domain.StrategyParams, error) {
	var p domain.StrategyParams
	if sf.file != "" {
		data, err := os.ReadFile(sf.file)
		if err != nil {
			return p, fmt.Errorf("failed to read file %s: %w", sf.file, err)
		}
		if err := yaml.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("failed to parse strategy file: %w", err)
		}
		return p, nil
	}
	if sf.kind == "" {
		return p, fmt.Errorf("a strategy is required: pass --type or --strategy-file")
	}

	var err error
	p.Type = sf.kind
	p.BaseAge = sf.baseAge
	p.ApplyFamilyMultipliers = sf.familyMultipliers
	if p.Amount, err = optionalDecimal("amount", sf.amount); err != nil {
		return p, err
	}
	if p.BaseAmount, err = optionalDecimal("base-amount", sf.baseAmount); err != nil {
		return p, err
	}
	if p.Percent, err = optionalDecimal("percent", sf.percent); err != nil {
		return p, err
	}
	if p.TierAmounts, err = decimalMap("tier", sf.tiers, false); err != nil {
		return p, err
	}
	if p.LocationAdjustments, err = decimalMap("location-adjust", sf.locations, true); err != nil {
		return p, err
	}
	return p, nil
}

func optionalDecimal(flag, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
	if err != nil {
		return nil, fmt.Errorf("invalid --%s %q: %w", flag, s, err)
	}
	return &d, nil
}

func decimalMap(flag string, in map[string]string, upperKeys bool) (map[string]decimal.Decimal, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		d, err := optionalDecimal(flag, v)
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, fmt.Errorf("--%s %s has no amount", flag, k)
		}
		if upperKeys {
			k = strings.ToUpper(k)
		}
		out[k] = *d
	}
	return out, nil
}

// calculate runs the flagged strategy and, when a safe harbor is given and
// the strategy does not carry its own test, evaluates affordability
func (sf *strategyFlags) calculate(sess *session.Session) (*domain.StrategyResult, error) {
	p, err := sf.params()
	if err != nil {
		return nil, err
	}
	harbor, err := parseHarbor(sf.safeHarbor)
	if err != nil {
		return nil, err
	}
	cfg, err := p.ToConfig(sess.Config.FamilyMultipliers)
	if err != nil {
		return nil, err
	}

	calc := sess.StrategyCalculator()
	w := sess.Workforce()
	result, err := calc.Calculate(cfg, w)
	if err != nil {
		return nil, err
	}
	if harbor != "" && result.Affordability == nil {
		summary, _, err := calc.EvaluateAffordability(result, w, harbor)
		if err != nil {
			return nil, err
		}
		result.Affordability = summary
	}
	return result, nil
}

func strategyCmd(opts *globalOptions) *cobra.Command {
	sf := &strategyFlags{}
	cmd := sessionCmd(opts, "strategy", "Calculate contributions for one strategy",
		func(cmd *cobra.Command, sess *session.Session, censusPath string) error {
			result, err := sf.calculate(sess)
			if err != nil {
				return err
			}
			report := newReport(sess, censusPath, "Contribution Strategy")
			report.Strategy = result
			return opts.render(cmd, report)
		})
	sf.register(cmd)
	return cmd
}

func solveCmd(opts *globalOptions) *cobra.Command {
	var (
		harborFlag  string
		baseAge     int
		granularity string
		maxIter     int
	)
	cmd := sessionCmd(opts, "solve", "Find the cheapest age-curve base amount that makes everyone affordable",
		func(cmd *cobra.Command, sess *session.Session, censusPath string) error {
			harbor, err := parseHarbor(harborFlag)
			if err != nil {
				return err
			}
			if harbor == "" {
				harbor = defaultHarbor(sess.Census)
			}

			options := solver.DefaultSolverOptions()
			options.BaseAge = baseAge
			options.MaxIterations = maxIter
			if g, err := optionalDecimal("granularity", granularity); err != nil {
				return err
			} else if g != nil {
				options.Granularity = *g
			}
			if err := options.Validate(); err != nil {
				return err
			}

			s := solver.NewSolver(sess.StrategyCalculator(), options)
			s.SetLogger(sess.Logger())
			result, err := s.SolveAgeCurve(cmd.Context(), sess.Workforce(), harbor)
			if err != nil {
				return err
			}
			report := newReport(sess, censusPath, "Age Curve Solver")
			report.Solver = result
			report.Strategy = result.Strategy
			return opts.render(cmd, report)
		})

	defaults := solver.DefaultSolverOptions()
	cmd.Flags().StringVar(&harborFlag, "safe-harbor", "", "fpl or rate_of_pay (default rate_of_pay when the census has income)")
	cmd.Flags().IntVar(&baseAge, "base-age", defaults.BaseAge, "Age the base amount is quoted at")
	cmd.Flags().StringVar(&granularity, "granularity", defaults.Granularity.String(), "Rounding unit for the base amount")
	cmd.Flags().IntVar(&maxIter, "max-iterations", defaults.MaxIterations, "Gap-closing passes after the first solve")
	return cmd
}

// recommendations analyzes the workforce and builds its recommendation set
func recommendations(sess *session.Session) (*domain.RecommendationSet, error) {
	analysis := sess.Analyzer().Analyze(sess.Workforce())
	if analysis.Error != nil {
		return nil, fmt.Errorf("analysis failed: %s", analysis.Error.Message)
	}
	r := recommend.NewRecommender()
	r.SetLogger(sess.Logger())
	return r.Recommend(analysis), nil
}

func recommendCmd(opts *globalOptions) *cobra.Command {
	return sessionCmd(opts, "recommend", "Recommend compliant contribution structures",
		func(cmd *cobra.Command, sess *session.Session, censusPath string) error {
			set, err := recommendations(sess)
			if err != nil {
				return err
			}
			report := newReport(sess, censusPath, "Strategy Recommendations")
			report.Recommendations = set
			return opts.render(cmd, report)
		})
}

func applyCmd(opts *globalOptions) *cobra.Command {
	var (
		kind          string
		noMultipliers bool
	)
	cmd := sessionCmd(opts, "apply", "Expand a recommendation into contribution classes and assignments",
		func(cmd *cobra.Command, sess *session.Session, censusPath string) error {
			set, err := recommendations(sess)
			if err != nil {
				return err
			}
			rec, ok := set.Find(domain.RecommendationType(strings.ToLower(kind)))
			if !ok {
				return fmt.Errorf("no %s recommendation for this workforce", kind)
			}

			applicator := recommend.NewApplicator(sess.Config.FamilyMultipliers)
			applicator.ApplyMultipliers = !noMultipliers
			applicator.SetLogger(sess.Logger())
			model, err := applicator.Apply(*rec, sess.Census)
			if err != nil {
				return err
			}
			report := newReport(sess, censusPath, "Contribution Class Model")
			report.Recommendations = set
			report.ClassModel = model
			return opts.render(cmd, report)
		})
	cmd.Flags().StringVar(&kind, "type", string(domain.RecommendFlat), "Recommendation to apply: flat, age_banded or location")
	cmd.Flags().BoolVar(&noMultipliers, "no-multipliers", false, "Give every family tier the self-only amount")
	return cmd
}

func patternsCmd(opts *globalOptions) *cobra.Command {
	return sessionCmd(opts, "patterns", "Detect the current employer contribution pattern per family tier",
		func(cmd *cobra.Command, sess *session.Session, censusPath string) error {
			report := newReport(sess, censusPath, "Contribution Patterns")
			report.Patterns = sess.PatternDetector().Detect(sess.Census)
			return opts.render(cmd, report)
		})
}

func renewalCmd(opts *globalOptions) *cobra.Command {
	return sessionCmd(opts, "renewal", "Project renewal premiums onto the detected contribution pattern",
		func(cmd *cobra.Command, sess *session.Session, censusPath string) error {
			if !sess.Census.Columns.Renewal {
				return fmt.Errorf("census %s has no renewal_premium column", censusPath)
			}
			detector := sess.PatternDetector()
			report := newReport(sess, censusPath, "Renewal Projection")
			report.Patterns = detector.Detect(sess.Census)
			report.Renewal = detector.ProjectRenewal(sess.Census, report.Patterns)
			return opts.render(cmd, report)
		})
}

func subsidyCmd(opts *globalOptions) *cobra.Command {
	sf := &strategyFlags{}
	cmd := sessionCmd(opts, "subsidy", "Estimate premium tax credits under current or proposed contributions",
		func(cmd *cobra.Command, sess *session.Session, censusPath string) error {
			if !sess.HasSubsidyBenchmark() {
				return fmt.Errorf("subsidy analysis needs SLCSP benchmarks in the premium source")
			}

			contributions := make(map[string]decimal.Decimal, sess.Census.Len())
			if sf.set() {
				result, err := sf.calculate(sess)
				if err != nil {
					return err
				}
				for _, line := range result.Employees {
					contributions[line.EmployeeID] = line.Contribution
				}
			} else {
				for _, e := range sess.Census.Employees {
					contributions[e.ID] = e.CurrentER()
				}
			}

			report := newReport(sess, censusPath, "Premium Tax Credit Analysis")
			report.Subsidy = sess.SubsidyCalculator().AnalyzeWorkforce(sess.Workforce(), contributions)
			return opts.render(cmd, report)
		})
	sf.register(cmd)
	return cmd
}

func validateCmd(opts *globalOptions) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a census, premium table or plan-year file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := config.NewInputParser()
			out := cmd.OutOrStdout()
			switch strings.ToLower(kind) {
			case "census":
				census, err := parser.LoadCensus(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Census file %s is valid: %d employees\n", args[0], census.Len())
				if missing := census.Columns.Missing(); len(missing) > 0 {
					fmt.Fprintf(out, "Optional columns not present: %s\n", strings.Join(missing, ", "))
				}
			case "premiums":
				table, err := parser.LoadPremiumTable(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Premium table %s is valid: %d rates for plan year %d\n", args[0], len(table.Rates), table.PlanYear)
			case "plan-year":
				cfg, err := parser.LoadPlanYear(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Plan-year file %s is valid: plan year %d\n", args[0], cfg.Metadata.PlanYear)
			default:
				return fmt.Errorf("unknown file kind %q (use census, premiums or plan-year)", kind)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "census", "File kind: census, premiums or plan-year")
	return cmd
}
