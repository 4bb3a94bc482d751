package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/ichra/internal/api"
	"github.com/rgehrsitz/ichra/internal/config"
	"github.com/rgehrsitz/ichra/internal/session"
	"github.com/rgehrsitz/ichra/internal/tui"
)

func browseCmd(opts *globalOptions) *cobra.Command {
	co := compareOptions{}
	cmd := sessionCmd(opts, "browse", "Browse strategy comparisons interactively",
		func(cmd *cobra.Command, sess *session.Session, censusPath string) error {
			mode, err := co.resolveMode(sess)
			if err != nil {
				return err
			}
			// Log lines would corrupt the alternate screen
			sess.SetLogger(nil)

			p := tea.NewProgram(tui.NewModel(sess, censusPath, mode), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running TUI: %w", err)
			}
			return nil
		})
	cmd.Flags().StringVar(&co.mode, "mode", "", "Initial operating mode: ale, standard or subsidy")
	cmd.Flags().BoolVar(&co.subsidyGoal, "subsidy-goal", false, "Below the ALE threshold, start in subsidy mode")
	return cmd
}

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the contribution engine over HTTP",
		Long: "Serve the engine over HTTP. Requests carry their own census and may carry a premium table; " +
			"--premiums or --database-url supplies premiums for requests that do not.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := cliLogger{debug: opts.debug}
			cfg, err := config.NewInputParser().LoadPlanYear(opts.planYearConfig)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			src := session.Sources{}
			if opts.premiums != "" || opts.databaseURL != "" || os.Getenv("DATABASE_URL") != "" {
				var release func()
				if src, release, err = opts.premiumSources(ctx, cfg.Metadata.PlanYear); err != nil {
					return err
				}
				defer release()
			} else {
				logger.Infof("no premium source configured, requests must carry a premium table")
			}

			srv := api.NewServer(cfg, src)
			srv.SetLogger(logger)
			srv.SetTimeout(timeout)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().DurationVar(&timeout, "timeout", api.DefaultRequestTimeout, "Per-request timeout")
	return cmd
}

