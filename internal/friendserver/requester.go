package friendserver

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestFunc performs one invitation campaign's wire exchange over an
// already-established conn (dialed through Tor's SOCKS5 proxy to the
// invitation server), asking for up to count new friends and
// authenticating with passphrase. It returns the set of certificates the
// server responded about, keyed by certificate fingerprint, with accepted
// reporting whether that peer was actually granted.
//
// The wire protocol itself belongs to an external FsClient collaborator;
// this package only schedules calls to it and persists their results.
type RequestFunc func(ctx context.Context, conn net.Conn, count int, passphrase string) (map[string]bool, error)

// FriendCounter reports how many friends are already known, the f in the
// backoff formula.
type FriendCounter interface {
	FriendCount() int
}

// Store records which peer certificates are already known, so accepted
// peers are never re-added across restarts.
type Store interface {
	Has(ctx context.Context, certificate string) (bool, error)
	Remember(ctx context.Context, certificate string) error
}

// Config describes a Requester's target server and campaign parameters.
type Config struct {
	// ServerHost and ServerPort address the invitation server itself.
	ServerHost string
	ServerPort int

	// ProxyHost and ProxyPort address the SOCKS5 proxy (Tor's SocksPort)
	// campaigns are dialed through.
	ProxyHost string
	ProxyPort int

	// WantedFriends is w in the backoff formula: the target friend count.
	WantedFriends int

	// Passphrase authenticates this requester to the invitation server.
	Passphrase string

	// TickInterval controls how often Run checks whether a campaign is
	// due; it does not itself control campaign spacing (see campaignDelay).
	// Defaults to 2s.
	TickInterval time.Duration
}

// Option configures a Requester at construction time.
type Option func(*Requester)

// WithOnFriendAdded registers a callback invoked once per newly-remembered
// accepted peer.
func WithOnFriendAdded(fn func(certificate string)) Option {
	return func(r *Requester) { r.onFriendAdded = fn }
}

// WithClock overrides Requester's notion of "now", for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Requester) { r.now = now }
}

// WithLogger tags every campaign attempt with a fresh correlation id and
// logs its outcome, the same way internal/tor/ctrlcmd tags every control
// command. Without a logger, campaigns still run; they are just silent.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Requester) { r.logger = logger }
}

// Requester periodically campaigns a remote invitation server for new
// friends, backing off as the known-friend count approaches the wanted
// count, and persists accepted peers so they are never requested again.
type Requester struct {
	cfg     Config
	counter FriendCounter
	store   Store
	request RequestFunc
	now     func() time.Time
	logger  *slog.Logger

	onFriendAdded func(certificate string)

	mu           sync.Mutex
	lastCampaign time.Time
}

// New creates a Requester. request performs the invitation server's own
// wire exchange; counter reports the current friend count so the backoff
// formula can be evaluated; store deduplicates accepted peers.
func New(cfg Config, counter FriendCounter, store Store, request RequestFunc, opts ...Option) *Requester {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 2 * time.Second
	}
	r := &Requester{
		cfg:     cfg,
		counter: counter,
		store:   store,
		request: request,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CheckProxy probes the configured SOCKS5 proxy without attempting an
// actual campaign, bounded by an explicit millisecond timeout. Hosts can
// call this before starting Run to surface a misconfigured or unreachable
// Tor SocksPort immediately rather than waiting for the first campaign.
func (r *Requester) CheckProxy(ctx context.Context, timeoutMillis int) error {
	return checkServerAddress(ctx, proxyHostPort(r.cfg.ProxyHost, strconv.Itoa(r.cfg.ProxyPort)), time.Duration(timeoutMillis)*time.Millisecond)
}

// Run drives the campaign loop until ctx is cancelled, satisfying
// manager.FriendRequester.
func (r *Requester) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()

	// Fire an immediate first check so a freshly-started requester does
	// not wait a full tick before its first campaign.
	r.maybeCampaign(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.maybeCampaign(ctx)
		}
	}
}

// maybeCampaign runs one invitation campaign if enough time has elapsed
// since the last one per campaignDelay, and folds any accepted peers into
// the store. Network and protocol errors are swallowed so the loop keeps
// running. A failure to reach the server through the proxy leaves the
// last-campaign time untouched, so the campaign is retried next tick; a
// RequestFunc error still counts as a campaign, so the next attempt waits
// out the full backoff delay.
func (r *Requester) maybeCampaign(ctx context.Context) {
	now := r.now()

	r.mu.Lock()
	last := r.lastCampaign
	r.mu.Unlock()

	f := r.counter.FriendCount()
	delay := campaignDelay(f, r.cfg.WantedFriends)
	if !last.IsZero() && now.Before(last.Add(delay)) {
		return
	}

	campaignID := uuid.New()
	r.logf(slog.LevelDebug, "friend campaign starting", "campaign_id", campaignID, "known_friends", f, "wanted_friends", r.cfg.WantedFriends)

	d, err := dialer(proxyHostPort(r.cfg.ProxyHost, strconv.Itoa(r.cfg.ProxyPort)))
	if err != nil {
		r.logf(slog.LevelWarn, "friend campaign dialer setup failed", "campaign_id", campaignID, "error", err)
		return
	}
	serverAddr := proxyHostPort(r.cfg.ServerHost, strconv.Itoa(r.cfg.ServerPort))
	conn, err := dialContext(ctx, d, "tcp", serverAddr)
	if err != nil {
		r.logf(slog.LevelWarn, "friend campaign dial failed", "campaign_id", campaignID, "error", err)
		return
	}
	defer conn.Close()

	results, err := r.request(ctx, conn, r.cfg.WantedFriends, r.cfg.Passphrase)

	r.mu.Lock()
	r.lastCampaign = now
	r.mu.Unlock()

	if err != nil {
		r.logf(slog.LevelWarn, "friend campaign request failed", "campaign_id", campaignID, "error", err)
		return
	}
	r.logf(slog.LevelDebug, "friend campaign completed", "campaign_id", campaignID, "results", len(results))

	for certificate, accepted := range results {
		if !accepted {
			continue
		}
		known, err := r.store.Has(ctx, certificate)
		if err != nil || known {
			continue
		}
		if err := r.store.Remember(ctx, certificate); err != nil {
			continue
		}
		if r.onFriendAdded != nil {
			r.onFriendAdded(certificate)
		}
	}
}

// logf is a no-op when no logger was installed via WithLogger.
func (r *Requester) logf(level slog.Level, msg string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Log(context.Background(), level, msg, args...)
}
