package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	torhsd "github.com/torhsd/torhsd"
	"github.com/torhsd/torhsd/internal/config"
	"github.com/torhsd/torhsd/internal/friendserver"
	"github.com/torhsd/torhsd/internal/friendserver/store"
	torhsdlog "github.com/torhsd/torhsd/internal/log"
	"github.com/torhsd/torhsd/internal/tor/hiddenservice"
	"github.com/torhsd/torhsd/internal/tor/manager"
)

// errInvitationProtocolUnavailable is returned by the friend requester's
// wire step. Speaking the invitation server's protocol is out of scope
// here; the requester still schedules and persists results, it just has
// nothing to send.
var errInvitationProtocolUnavailable = errors.New("invitation protocol not implemented")

// peerCounter adapts store.PeerStore to friendserver.FriendCounter.
type peerCounter struct {
	store *store.PeerStore
}

func (p peerCounter) FriendCount() int {
	n, err := p.store.Count(context.Background())
	if err != nil {
		return 0
	}
	return n
}

// NewStartCmd creates the "start" subcommand, which runs the daemon in
// the foreground until it is interrupted.
func NewStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the Tor daemon and publish the configured hidden service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := torhsdlog.NewSecureLogger(os.Stderr, cfg.Verbose)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			mgr, cleanup, err := buildManager(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			torhsd.SetDefault(mgr)

			go logEvents(ctx, mgr, logger)

			if err := mgr.Start(ctx); err != nil {
				return fmt.Errorf("start tor: %w", err)
			}

			logger.Info("torhsd started")
			<-ctx.Done()
			logger.Info("shutting down")
			return mgr.Stop()
		},
	}
	return cmd
}

// buildManager translates cfg into a manager.Config and, if a friend
// server is configured, wires a friendserver.Requester backed by a
// SQLite-backed known-peer store. cleanup releases the store, if any, and
// is safe to call even when err != nil.
func buildManager(cfg *config.Config, logger *slog.Logger) (*manager.Manager, func(), error) {
	targets := make([]hiddenservice.Target, 0, len(cfg.Targets))
	for _, t := range cfg.Targets {
		targets = append(targets, hiddenservice.Target{
			ServicePort:   t.ServicePort,
			TargetAddress: t.TargetHost,
			TargetPort:    t.TargetPort,
		})
	}

	mgrCfg := manager.Config{
		Executable:       cfg.TorExecutable,
		DataDir:          cfg.DataDir,
		HiddenServiceDir: cfg.HiddenServiceDir,
		Targets:          targets,
		SocksPort:        cfg.SocksPort,
		TakeOwnership:    cfg.TakeOwnership,
	}

	opts := []manager.Option{
		manager.WithReadyTimeout(cfg.ReadyTimeout),
		manager.WithAuthTimeout(cfg.AuthTimeout),
	}

	cleanup := func() {}

	if cfg.FriendServer.ServerHost != "" {
		peers, err := store.Open(filepath.Join(cfg.DataDir, "friendserver"))
		if err != nil {
			return nil, cleanup, fmt.Errorf("open peer store: %w", err)
		}
		cleanup = func() { peers.Close() }

		reqCfg := friendserver.Config{
			ServerHost:    cfg.FriendServer.ServerHost,
			ServerPort:    cfg.FriendServer.ServerPort,
			ProxyHost:     cfg.FriendServer.ProxyHost,
			ProxyPort:     cfg.FriendServer.ProxyPort,
			WantedFriends: cfg.FriendServer.WantedFriends,
			Passphrase:    cfg.FriendServer.Passphrase,
			TickInterval:  cfg.FriendServer.TickInterval,
		}
		requester := friendserver.New(reqCfg, peerCounter{store: peers}, peers, unimplementedRequest, friendserver.WithLogger(logger))
		opts = append(opts, manager.WithFriendRequester(requester))
	}

	return manager.New(mgrCfg, opts...), cleanup, nil
}

// unimplementedRequest satisfies friendserver.RequestFunc without
// speaking the invitation server's wire protocol.
func unimplementedRequest(ctx context.Context, conn net.Conn, count int, passphrase string) (map[string]bool, error) {
	return nil, errInvitationProtocolUnavailable
}

// logEvents drains mgr's event channel to logger until ctx is done.
func logEvents(ctx context.Context, mgr *manager.Manager, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-mgr.Events():
			if !ok {
				return
			}
			logEvent(logger, ev)
		}
	}
}

func logEvent(logger *slog.Logger, ev manager.Event) {
	switch e := ev.(type) {
	case manager.ConfigurationNeededEvent:
		logger.Warn("torrc needs configuration before Tor can bootstrap")
	case manager.TorManagerErrorEvent:
		logger.Error("tor manager error", "error", e.Err)
	case manager.HiddenServiceStatusChangedEvent:
		logger.Info("hidden service status changed", "old", e.Old, "new", e.New)
	case manager.BootstrapProgressEvent:
		logger.Info("bootstrap progress", "percent", e.Progress, "tag", e.Tag, "summary", e.Summary)
	default:
		logger.Info("event", "type", fmt.Sprintf("%T", ev))
	}
}
