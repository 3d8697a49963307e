package manager

import (
	"context"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/torhsd/torhsd/internal/tor/ctrlcmd"
	"github.com/torhsd/torhsd/internal/tor/ctrlsocket"
	"github.com/torhsd/torhsd/internal/tor/hiddenservice"
	"github.com/torhsd/torhsd/internal/tor/torcontrol"
	"github.com/torhsd/torhsd/internal/tor/torerr"
	"github.com/torhsd/torhsd/internal/tor/torproc"
)

// defaultReadyTimeout bounds how long Start waits for the Tor child to
// write its control_port file.
const defaultReadyTimeout = 30 * time.Second

// defaultAuthTimeout bounds how long Start waits for the control
// connection to authenticate once the TCP connection succeeds.
const defaultAuthTimeout = 10 * time.Second

// FriendRequester is the interface Manager supervises alongside the Tor
// process if one is configured via WithFriendRequester. It is satisfied
// structurally by *internal/friendserver.Requester without this package
// importing that one.
type FriendRequester interface {
	Run(ctx context.Context) error
}

// Config describes the identity and environment Manager should manage:
// where the Tor binary and its data directory live, where the hidden
// service's key and targets are, and how it should be reached.
type Config struct {
	// Executable is the path to the tor binary, or "" to search the
	// default locations (see torproc.FindExecutable).
	Executable string

	// DataDir is the directory Tor itself uses for its state.
	DataDir string

	// HiddenServiceDir is the directory private_key and hostname are
	// persisted to.
	HiddenServiceDir string

	// Targets is the hidden service's Port= mapping list.
	Targets []hiddenservice.Target

	// SocksPort overrides the SocksPort value passed to Tor (default
	// "auto").
	SocksPort string

	// TakeOwnership, if true, has the control connection ask Tor to exit
	// if this process dies without a clean Stop.
	TakeOwnership bool
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithFriendRequester supervises fr alongside the Tor process: Start
// launches it in the same errgroup, and Stop cancels it along with
// everything else.
func WithFriendRequester(fr FriendRequester) Option {
	return func(m *Manager) { m.friendRequester = fr }
}

// WithReadyTimeout overrides how long Start waits for the Tor child's
// control port to become ready (default 30s).
func WithReadyTimeout(d time.Duration) Option {
	return func(m *Manager) { m.readyTimeout = d }
}

// WithAuthTimeout overrides how long Start waits for control-connection
// authentication to complete (default 10s).
func WithAuthTimeout(d time.Duration) Option {
	return func(m *Manager) { m.authTimeout = d }
}

// Manager is the top-level facade owning one Tor process, its control
// connection, and the single hidden service it publishes.
type Manager struct {
	cfg Config

	friendRequester FriendRequester
	readyTimeout    time.Duration
	authTimeout     time.Duration

	events chan Event

	mu        sync.Mutex
	proc      *torproc.Process
	ctrl      *torcontrol.Control
	svc       *hiddenservice.Service
	conn      net.Conn
	lastError error

	cancel context.CancelFunc
	group  *errgroup.Group
	done   chan struct{}
}

// New creates a Manager for cfg, not yet started.
func New(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:          cfg,
		readyTimeout: defaultReadyTimeout,
		authTimeout:  defaultAuthTimeout,
		events:       make(chan Event, 32),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Events returns the channel Manager emits host-visible notifications on.
// It is never closed by Manager; callers should stop reading from it once
// they have called Stop.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// emit delivers e to Events() without blocking the caller; if the
// channel's buffer is full the event is dropped, since LastError and the
// other accessor methods remain queryable regardless.
func (m *Manager) emit(e Event) {
	select {
	case m.events <- e:
	default:
	}
}

// LastError returns the most recent unrecoverable error Manager observed,
// or nil.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastError = err
	m.mu.Unlock()
}

// LogLines returns the most recent lines of the Tor child's combined
// stdout/stderr, or nil if Start has not been called yet.
func (m *Manager) LogLines() []string {
	m.mu.Lock()
	proc := m.proc
	m.mu.Unlock()
	if proc == nil {
		return nil
	}
	return proc.LogLines()
}

// ProxyInfo returns the SocksPort address Tor reported, and whether a
// control connection has queried it yet.
func (m *Manager) ProxyInfo() (addr string, ok bool) {
	m.mu.Lock()
	ctrl := m.ctrl
	m.mu.Unlock()
	if ctrl == nil {
		return "", false
	}
	addr = ctrl.SocksAddr()
	return addr, addr != ""
}

// HiddenServiceInfo returns the managed service's hostname and status, and
// whether a service has been configured at all.
func (m *Manager) HiddenServiceInfo() (hostname string, status hiddenservice.Status, ok bool) {
	m.mu.Lock()
	svc := m.svc
	m.mu.Unlock()
	if svc == nil {
		return "", hiddenservice.StatusNotCreated, false
	}
	return svc.Hostname(), svc.Status(), true
}

// Start locates and launches the Tor child, waits for its control port,
// authenticates, subscribes to events, and publishes the configured
// hidden service, loading an existing key from HiddenServiceDir first if
// one is present. It blocks until that sequence completes or fails.
func (m *Manager) Start(ctx context.Context) error {
	executable, err := torproc.FindExecutable(m.cfg.Executable)
	if err != nil {
		m.setLastError(err)
		m.emit(TorManagerErrorEvent{Err: err})
		return err
	}

	if err := os.MkdirAll(m.cfg.HiddenServiceDir, 0o700); err != nil {
		err = torerr.Wrap(torerr.KindDataDirUnwritable, err)
		m.setLastError(err)
		m.emit(TorManagerErrorEvent{Err: err})
		return err
	}

	if torrcNeedsConfiguration(m.cfg.DataDir) {
		m.emit(ConfigurationNeededEvent{})
	}

	key, err := loadPrivateKey(m.cfg.HiddenServiceDir)
	if err != nil {
		m.setLastError(err)
		m.emit(TorManagerErrorEvent{Err: err})
		return err
	}

	svc := hiddenservice.New(m.cfg.Targets, hiddenservice.WithStatusChangeFunc(func(old, new hiddenservice.Status) {
		m.emit(HiddenServiceStatusChangedEvent{Old: old, New: new})
	}))
	if key != nil {
		svc.SetKey(key)
	}

	procOpts := []torproc.Option{}
	if m.cfg.SocksPort != "" {
		procOpts = append(procOpts, torproc.WithSocksPort(m.cfg.SocksPort))
	}
	proc := torproc.New(executable, m.cfg.DataDir, procOpts...)

	readyCtx, cancelReady := context.WithTimeout(ctx, m.readyTimeout)
	defer cancelReady()
	if err := proc.Start(readyCtx); err != nil {
		m.setLastError(err)
		m.emit(TorManagerErrorEvent{Err: err})
		return err
	}

	controlAddr, _ := proc.ControlAddr()
	conn, err := net.DialTimeout("tcp", controlAddr, m.authTimeout)
	if err != nil {
		err = torerr.Wrap(torerr.KindControlConnectFailed, err)
		m.setLastError(err)
		m.emit(TorManagerErrorEvent{Err: err})
		_ = proc.Stop()
		return err
	}

	sock := ctrlsocket.New(conn)
	ctrl := torcontrol.New(sock, torcontrol.Handlers{
		OnConfigurationNeeded: func() { m.emit(ConfigurationNeededEvent{}) },
		OnBootstrapProgress: func(p ctrlcmd.BootstrapPhase) {
			m.emit(BootstrapProgressEvent{Progress: p.Progress, Tag: p.Tag, Summary: p.Summary})
		},
		OnError: func(err error) {
			m.setLastError(err)
			m.emit(TorManagerErrorEvent{Err: err})
		},
	})

	runCtx, cancel := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(runCtx)
	group.Go(func() error { return sock.Run(gctx) })
	if m.friendRequester != nil {
		group.Go(func() error { return m.friendRequester.Run(gctx) })
	}

	m.mu.Lock()
	m.proc = proc
	m.ctrl = ctrl
	m.svc = svc
	m.conn = conn
	m.cancel = cancel
	m.group = group
	m.mu.Unlock()

	authCtx, cancelAuth := context.WithTimeout(ctx, m.authTimeout)
	defer cancelAuth()
	if err := ctrl.Connect(authCtx, torcontrol.AuthConfig{
		Password:      proc.ControlPassword(),
		TakeOwnership: m.cfg.TakeOwnership,
	}); err != nil {
		m.setLastError(err)
		m.emit(TorManagerErrorEvent{Err: err})
		cancel()
		_ = proc.Stop()
		return err
	}

	if err := svc.Publish(ctx, ctrl); err != nil {
		m.setLastError(err)
		m.emit(TorManagerErrorEvent{Err: err})
		cancel()
		_ = proc.Stop()
		return err
	}

	if key == nil {
		if err := writePrivateKey(m.cfg.HiddenServiceDir, svc.Key()); err != nil {
			m.setLastError(err)
			m.emit(TorManagerErrorEvent{Err: err})
		}
	}
	if err := writeHostname(m.cfg.HiddenServiceDir, svc.Hostname()); err != nil {
		m.setLastError(err)
		m.emit(TorManagerErrorEvent{Err: err})
	}

	m.done = make(chan struct{})
	go func() {
		err := group.Wait()
		if err != nil && err != context.Canceled {
			m.setLastError(err)
			m.emit(TorManagerErrorEvent{Err: err})
		}
		close(m.done)
	}()

	return nil
}

// Stop closes the control connection, cancels the FriendRequester (if
// any), and signals the child Tor process to exit, waiting for all three
// to finish. It is safe to call even if Start failed partway through.
func (m *Manager) Stop() error {
	m.mu.Lock()
	cancel := m.cancel
	proc := m.proc
	conn := m.conn
	done := m.done
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if done != nil {
		<-done
	}
	if proc != nil {
		return proc.Stop()
	}
	return nil
}
