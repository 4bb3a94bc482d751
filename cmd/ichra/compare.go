package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/ichra/internal/compare"
	"github.com/rgehrsitz/ichra/internal/output"
	"github.com/rgehrsitz/ichra/internal/session"
)

// comparisonReport is the JSON form of a comparison with its optional extras
type comparisonReport struct {
	Comparison     *compare.ComparisonSet        `json:"comparison"`
	SafeHarbors    *compare.SafeHarborComparison `json:"safe_harbors,omitempty"`
	Impact         *compare.AffordabilityImpact  `json:"impact,omitempty"`
	HighCostStates []string                      `json:"high_cost_states,omitempty"`
}

type compareOptions struct {
	mode        string
	subsidyGoal bool
	safeHarbors bool
	impact      bool
}

// resolveMode returns the requested mode, or the one the workforce size implies
func (co compareOptions) resolveMode(sess *session.Session) (compare.OperatingMode, error) {
	if co.mode == "" {
		return compare.DetermineMode(sess.Census.Len(), sess.Config.Affordability.ALEThreshold, co.subsidyGoal), nil
	}
	mode, ok := compare.ParseMode(strings.ToLower(co.mode))
	if !ok {
		return "", fmt.Errorf("unknown mode %q (use ale, standard or subsidy)", co.mode)
	}
	return mode, nil
}

func compareCmd(opts *globalOptions) *cobra.Command {
	co := compareOptions{}
	cmd := sessionCmd(opts, "compare", "Compare every strategy the operating mode allows",
		func(cmd *cobra.Command, sess *session.Session, censusPath string) error {
			mode, err := co.resolveMode(sess)
			if err != nil {
				return err
			}

			engine := compare.NewEngine(sess.StrategyCalculator())
			engine.SetLogger(sess.Logger())
			w := sess.Workforce()
			set, err := engine.CompareStrategies(cmd.Context(), w, mode)
			if err != nil {
				return err
			}
			set.CensusPath = censusPath

			report := comparisonReport{Comparison: set}
			analysis := sess.Analyzer().Analyze(w)
			if analysis.Error == nil {
				report.HighCostStates = engine.HighCostStates(analysis)
			}
			if co.safeHarbors {
				if report.SafeHarbors, err = engine.CompareSafeHarbors(w); err != nil {
					return err
				}
			}
			if best := set.Best(); co.impact && best != nil && analysis.Error == nil {
				if report.Impact, err = engine.AffordabilityImpact(analysis, best.Result, w); err != nil {
					return err
				}
			}
			return writeComparison(cmd.OutOrStdout(), opts.format, &report)
		})

	f := cmd.Flags()
	f.StringVar(&co.mode, "mode", "", "Operating mode: ale, standard or subsidy (default from workforce size)")
	f.BoolVar(&co.subsidyGoal, "subsidy-goal", false, "Below the ALE threshold, prefer preserving premium tax credits")
	f.BoolVar(&co.safeHarbors, "safe-harbors", false, "Also compare FPL and rate-of-pay safe harbor costs")
	f.BoolVar(&co.impact, "impact", false, "Also show the affordability impact of the top strategy")
	return cmd
}

func writeComparison(w io.Writer, format string, report *comparisonReport) error {
	f, ok := output.GetFormatterByName(format)
	if !ok {
		return fmt.Errorf("unknown format %q", format)
	}

	switch f.Name() {
	case "console":
		table := &compare.TableFormatter{}
		var sb strings.Builder
		sb.WriteString(table.Format(report.Comparison))
		if len(report.HighCostStates) > 0 {
			sb.WriteString(fmt.Sprintf("High-cost states: %s\n\n", strings.Join(report.HighCostStates, ", ")))
		}
		if report.SafeHarbors != nil {
			sb.WriteString(table.FormatSafeHarbors(report.SafeHarbors))
			sb.WriteString("\n")
		}
		if report.Impact != nil {
			sb.WriteString(table.FormatImpact(report.Impact))
		}
		_, err := io.WriteString(w, sb.String())
		return err

	case "csv":
		data, err := (&compare.CSVFormatter{}).Format(report.Comparison)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, data)
		return err

	case "json":
		pretty := strings.ToLower(format) != "json-min"
		if report.SafeHarbors == nil && report.Impact == nil && len(report.HighCostStates) == 0 {
			data, err := (&compare.JSONFormatter{Pretty: pretty}).Format(report.Comparison)
			if err != nil {
				return err
			}
			_, err = io.WriteString(w, data+"\n")
			return err
		}
		enc := json.NewEncoder(w)
		if pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(report)
	}
	return fmt.Errorf("compare output supports console, json and csv, not %s", f.Name())
}
