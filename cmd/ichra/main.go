package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/ichra/internal/calculation"
)

// cliLogger implements calculation.Logger using the standard log package.
// Debug lines are only written when debug is set.
type cliLogger struct {
	debug bool
}

func (l cliLogger) Debugf(format string, args ...any) {
	if l.debug {
		log.Printf("DEBUG: "+format, args...)
	}
}
func (cliLogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (cliLogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (cliLogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalOptions holds the persistent flags shared by every subcommand
type globalOptions struct {
	planYearConfig string
	premiums       string
	databaseURL    string
	format         string
	debug          bool
}

// logger returns the CLI logger in debug mode and the no-op logger otherwise
func (o *globalOptions) logger() calculation.Logger {
	if o.debug {
		return cliLogger{debug: true}
	}
	return calculation.NopLogger{}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "ichra",
		Short:         "ICHRA contribution strategy calculator",
		Long:          "Affordability analysis, contribution strategies and plan-year optimization for Individual Coverage HRAs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.planYearConfig, "plan-year-config", "", "Plan-year regulatory YAML (defaults to the built-in 2026 values)")
	pf.StringVar(&opts.premiums, "premiums", "", "Benchmark premium table (YAML)")
	pf.StringVar(&opts.databaseURL, "database-url", "", "Postgres URL for benchmark premiums (default $DATABASE_URL)")
	pf.StringVarP(&opts.format, "format", "f", "console", "Output format: console, json, csv or yaml")
	pf.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		analyzeCmd(opts),
		strategyCmd(opts),
		solveCmd(opts),
		recommendCmd(opts),
		applyCmd(opts),
		compareCmd(opts),
		patternsCmd(opts),
		renewalCmd(opts),
		subsidyCmd(opts),
		browseCmd(opts),
		serveCmd(opts),
		validateCmd(opts),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ichra %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.Main.Path + " " + bi.GoVersion
	}
	return ""
}

func main() {
	// A missing .env is not an error
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
