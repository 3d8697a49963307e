package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	torhsdlog "github.com/torhsd/torhsd/internal/log"
	"github.com/torhsd/torhsd/internal/tor/hiddenservice"
	"github.com/torhsd/torhsd/internal/tor/manager"
)

// NewStatusCmd creates the "status" subcommand: it starts the daemon
// just long enough to learn whether the hidden service is published,
// prints a status table, and stops.
func NewStatusCmd() *cobra.Command {
	var waitFor time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Start Tor briefly and report the hidden service's publication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
			logger := slog.New(torhsdlog.NewSecureHandler(textHandler))

			mgr, cleanup, err := buildManager(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, cancel := context.WithTimeout(cmd.Context(), waitFor)
			defer cancel()

			if err := mgr.Start(ctx); err != nil {
				return fmt.Errorf("start tor: %w", err)
			}

			waitForOutcome(ctx, mgr)

			renderStatus(cmd.OutOrStdout(), mgr)
			return mgr.Stop()
		},
	}
	cmd.Flags().DurationVar(&waitFor, "wait", 60*time.Second, "How long to wait for the hidden service to reach a terminal status")

	return cmd
}

// waitForOutcome blocks until mgr's hidden service reaches StatusOnline,
// mgr reports an unrecoverable error, or ctx is done, whichever comes
// first.
func waitForOutcome(ctx context.Context, mgr *manager.Manager) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-mgr.Events():
			if !ok {
				return
			}
			switch e := ev.(type) {
			case manager.HiddenServiceStatusChangedEvent:
				if e.New == hiddenservice.StatusOnline {
					return
				}
			case manager.TorManagerErrorEvent:
				return
			}
		}
	}
}
