package torcontrol

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/torhsd/torhsd/internal/tor/ctrlcmd"
	"github.com/torhsd/torhsd/internal/tor/ctrlsocket"
	"github.com/torhsd/torhsd/internal/tor/cryptokey"
	"github.com/torhsd/torhsd/internal/tor/hiddenservice"
	"github.com/torhsd/torhsd/internal/tor/torerr"
)

// ConnectionStatus is the control connection's own lifecycle stage,
// distinct from Tor's network-level Status.
type ConnectionStatus int

const (
	// NotConnected: Connect has not been called.
	NotConnected ConnectionStatus = iota
	// Connecting: PROTOCOLINFO is in flight.
	Connecting
	// Authenticating: AUTHCHALLENGE/AUTHENTICATE is in flight.
	Authenticating
	// Connected: authenticated and ready to accept commands.
	Connected
	// StatusError: the connection failed and will not recover on its own.
	StatusError
)

// String renders the status the way it would appear in a log line.
func (s ConnectionStatus) String() string {
	switch s {
	case NotConnected:
		return "NotConnected"
	case Connecting:
		return "Connecting"
	case Authenticating:
		return "Authenticating"
	case Connected:
		return "Connected"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// TorStatus is Tor's own self-reported network readiness, driven by
// STATUS_CLIENT events and the bootstrap-phase query.
type TorStatus int

const (
	// TorUnknown: no STATUS_CLIENT event or bootstrap query has resolved yet.
	TorUnknown TorStatus = iota
	// TorOffline: CIRCUIT_NOT_ESTABLISHED was last reported.
	TorOffline
	// TorReady: CIRCUIT_ESTABLISHED was last reported, or bootstrap reached 100%.
	TorReady
)

// String renders the status the way it would appear in a log line.
func (s TorStatus) String() string {
	switch s {
	case TorUnknown:
		return "Unknown"
	case TorOffline:
		return "Offline"
	case TorReady:
		return "Ready"
	default:
		return "Unknown"
	}
}

// Handlers are the callbacks Control invokes as the connection
// progresses: configuration gaps, transport/protocol errors, and
// bootstrap progress. All are optional; a nil handler is simply skipped.
type Handlers struct {
	// OnConfigurationNeeded fires once, the first time GETCONF
	// DisableNetwork reports "1".
	OnConfigurationNeeded func()

	// OnBootstrapProgress fires on every GETINFO status/bootstrap-phase
	// refresh, keyed PROGRESS/TAG/SUMMARY.
	OnBootstrapProgress func(ctrlcmd.BootstrapPhase)

	// OnTorStatusChange fires whenever TorStatus transitions.
	OnTorStatusChange func(old, new TorStatus)

	// OnError fires when a step of Connect fails and the connection moves
	// to StatusError. It does not fire for a failed AddOnion, nor for a
	// connection lost after Connect has returned.
	OnError func(error)
}

// AuthConfig supplies the credentials Connect may need, depending on
// which method Tor advertises in its PROTOCOLINFO reply.
type AuthConfig struct {
	// Password is sent for HASHEDPASSWORD auth. Unused for the other
	// methods.
	Password string

	// TakeOwnership, if true, sends TAKEOWNERSHIP and
	// SETCONF __OwningControllerProcess=<our pid> once connected, so Tor
	// exits if this process dies without a clean Stop.
	TakeOwnership bool
}

// Control drives one Tor control connection end to end: authentication,
// event subscription, bootstrap tracking, and hidden-service ownership.
// All protocol state is mutated only from the goroutine that calls
// Connect and the goroutine running sock.Run; mu guards the handful of
// fields read from other goroutines by the status accessors.
type Control struct {
	sock     *ctrlsocket.Socket
	handlers Handlers

	mu            sync.Mutex
	connStatus    ConnectionStatus
	torStatus     TorStatus
	configNeeded  bool
	bootstrap     ctrlcmd.BootstrapPhase
	socksAddr     string
	owned         map[string]hiddenservice.Registrant
	configChecked bool
}

// New wraps sock in a Control. sock's Run loop must be started by the
// caller (the Manager runs it in its errgroup) before or immediately after
// Connect is called; Connect's own commands do not block the read loop.
func New(sock *ctrlsocket.Socket, handlers Handlers) *Control {
	c := &Control{
		sock:     sock,
		handlers: handlers,
		owned:    make(map[string]hiddenservice.Registrant),
	}
	sock.RegisterEvent("STATUS_CLIENT", c.handleStatusClient)
	sock.RegisterEvent("HS_DESC", c.handleHSDesc)
	return c
}

// ConnStatus returns the connection's current lifecycle stage.
func (c *Control) ConnStatus() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connStatus
}

// TorStatus returns Tor's last self-reported network readiness.
func (c *Control) TorStatus() TorStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torStatus
}

// ConfigurationNeeded reports whether the last GETCONF DisableNetwork
// check found networking disabled.
func (c *Control) ConfigurationNeeded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.configNeeded
}

// BootstrapStatus returns the most recently observed bootstrap phase.
func (c *Control) BootstrapStatus() ctrlcmd.BootstrapPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bootstrap
}

// SocksAddr returns the SocksPort value Tor reported, or "" if it has not
// been queried yet.
func (c *Control) SocksAddr() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socksAddr
}

func (c *Control) setConnStatus(s ConnectionStatus) {
	c.mu.Lock()
	c.connStatus = s
	c.mu.Unlock()
}

// Connect negotiates authentication (PROTOCOLINFO, then whichever of
// AUTHCHALLENGE/AUTHENTICATE the advertised methods require) and, on
// success, runs the post-connect setup sequence: subscribing to events,
// reading bootstrap and network-disabled state, and taking ownership if
// requested.
func (c *Control) Connect(ctx context.Context, auth AuthConfig) error {
	c.setConnStatus(Connecting)

	pi := ctrlcmd.NewProtocolInfo(nil)
	if err := c.send(pi); err != nil {
		return c.fail(torerr.Wrap(torerr.KindControlConnectFailed, err))
	}
	if err := ctrlcmd.Wait(ctx, pi); err != nil {
		return c.fail(torerr.Wrap(torerr.KindControlConnectFailed, err))
	}

	method, ok := ctrlcmd.SelectAuthMethod(pi.AuthMethods)
	if !ok {
		return c.fail(torerr.Newf(torerr.KindAuthFailed, "torcontrol: no supported auth method among %v", pi.AuthMethods))
	}

	c.setConnStatus(Authenticating)
	authCmd, err := c.buildAuthCommand(ctx, method, pi.CookieFile, auth.Password)
	if err != nil {
		return c.fail(torerr.Wrap(torerr.KindAuthFailed, err))
	}
	if err := c.send(authCmd); err != nil {
		return c.fail(torerr.Wrap(torerr.KindAuthFailed, err))
	}
	if err := ctrlcmd.Wait(ctx, authCmd); err != nil {
		return c.fail(torerr.Wrap(torerr.KindAuthFailed, err))
	}

	c.setConnStatus(Connected)
	return c.onConnected(ctx, auth)
}

// buildAuthCommand prepares the AUTHENTICATE request (and, for
// SAFECOOKIE, the preceding AUTHCHALLENGE round trip) appropriate to the
// chosen method.
func (c *Control) buildAuthCommand(ctx context.Context, method, cookieFile, password string) (ctrlcmd.Command, error) {
	switch method {
	case "SAFECOOKIE":
		cookie, err := os.ReadFile(cookieFile) //nolint:gosec // path comes from Tor's own PROTOCOLINFO reply
		if err != nil {
			return nil, fmt.Errorf("torcontrol: read cookie file: %w", err)
		}
		challenge, err := ctrlcmd.NewAuthChallenge(cookie, nil)
		if err != nil {
			return nil, err
		}
		if err := c.send(challenge); err != nil {
			return nil, err
		}
		if err := ctrlcmd.Wait(ctx, challenge); err != nil {
			return nil, err
		}
		return ctrlcmd.NewAuthenticateToken(challenge.ClientAuthToken(), nil), nil
	case "COOKIE":
		cookie, err := os.ReadFile(cookieFile) //nolint:gosec // path comes from Tor's own PROTOCOLINFO reply
		if err != nil {
			return nil, fmt.Errorf("torcontrol: read cookie file: %w", err)
		}
		return ctrlcmd.NewAuthenticateToken(cookie, nil), nil
	case "HASHEDPASSWORD":
		return ctrlcmd.NewAuthenticatePassword(password, nil), nil
	default:
		return ctrlcmd.NewAuthenticateNull(nil), nil
	}
}

// onConnected runs the setup sequence required once authenticated:
// subscribe to events, read bootstrap and network status, and optionally
// take ownership of the child process.
func (c *Control) onConnected(ctx context.Context, auth AuthConfig) error {
	events := ctrlcmd.NewSetEvents([]string{"STATUS_CLIENT", "STATUS_GENERAL", "HS_DESC"}, nil)
	if err := c.send(events); err != nil {
		return c.fail(torerr.Wrap(torerr.KindProtocolViolation, err))
	}
	if err := ctrlcmd.Wait(ctx, events); err != nil {
		return c.fail(torerr.Wrap(torerr.KindProtocolViolation, err))
	}

	if err := c.refreshBootstrap(ctx); err != nil {
		return err
	}
	if err := c.refreshConfiguration(ctx); err != nil {
		return err
	}

	if auth.TakeOwnership {
		if err := c.takeOwnership(ctx); err != nil {
			return err
		}
	}

	return nil
}

// refreshBootstrap issues GETINFO status/bootstrap-phase and updates the
// cached phase, firing OnBootstrapProgress and, if it reports full
// readiness, an immediate TorReady transition (bootstrap reaching 100%
// is treated the same as a later CIRCUIT_ESTABLISHED event).
func (c *Control) refreshBootstrap(ctx context.Context) error {
	cmd := ctrlcmd.NewGetInfo([]string{"status/bootstrap-phase"}, nil)
	if err := c.send(cmd); err != nil {
		return c.fail(torerr.Wrap(torerr.KindProtocolViolation, err))
	}
	if err := ctrlcmd.Wait(ctx, cmd); err != nil {
		return c.fail(torerr.Wrap(torerr.KindProtocolViolation, err))
	}

	phase := ctrlcmd.ParseBootstrapPhase(cmd.Get("status/bootstrap-phase"))
	c.mu.Lock()
	c.bootstrap = phase
	c.mu.Unlock()
	if c.handlers.OnBootstrapProgress != nil {
		c.handlers.OnBootstrapProgress(phase)
	}
	if phase.Done() {
		c.setTorStatus(TorReady)
	}
	return nil
}

// refreshConfiguration issues GETCONF DisableNetwork and GETCONF
// SocksPort, reporting ConfigurationNeeded the first time networking is
// found disabled.
func (c *Control) refreshConfiguration(ctx context.Context) error {
	cmd := ctrlcmd.NewGetConf([]string{"DisableNetwork", "SocksPort"}, nil)
	if err := c.send(cmd); err != nil {
		return c.fail(torerr.Wrap(torerr.KindProtocolViolation, err))
	}
	if err := ctrlcmd.Wait(ctx, cmd); err != nil {
		return c.fail(torerr.Wrap(torerr.KindProtocolViolation, err))
	}

	c.mu.Lock()
	disabled := cmd.Get("DisableNetwork") == "1"
	needsCallback := disabled && !c.configNeeded
	c.configNeeded = disabled
	c.socksAddr = cmd.Get("SocksPort")
	c.mu.Unlock()

	if needsCallback && c.handlers.OnConfigurationNeeded != nil {
		c.handlers.OnConfigurationNeeded()
	}
	return nil
}

// takeOwnership sends TAKEOWNERSHIP followed by
// SETCONF __OwningControllerProcess=<our pid>, instructing Tor to exit if
// this process dies uncleanly.
func (c *Control) takeOwnership(ctx context.Context) error {
	own := ctrlcmd.NewTakeOwnership(nil)
	if err := c.send(own); err != nil {
		return c.fail(torerr.Wrap(torerr.KindProtocolViolation, err))
	}
	if err := ctrlcmd.Wait(ctx, own); err != nil {
		return c.fail(torerr.Wrap(torerr.KindProtocolViolation, err))
	}

	set := ctrlcmd.NewSetConf(map[string]string{
		"__OwningControllerProcess": fmt.Sprintf("%d", os.Getpid()),
	}, nil)
	if err := c.send(set); err != nil {
		return c.fail(torerr.Wrap(torerr.KindProtocolViolation, err))
	}
	return ctrlcmd.Wait(ctx, set)
}

// AddOnion implements hiddenservice.Controller.
func (c *Control) AddOnion(ctx context.Context, key *cryptokey.Key, targets []hiddenservice.Target, flags []string) (string, *cryptokey.Key, error) {
	onionTargets := make([]ctrlcmd.OnionTarget, len(targets))
	for i, t := range targets {
		onionTargets[i] = ctrlcmd.OnionTarget{
			VirtPort: t.ServicePort,
			Target:   fmt.Sprintf("%s:%d", t.TargetAddress, t.TargetPort),
		}
	}

	var cmd *ctrlcmd.AddOnionCommand
	if key == nil {
		cmd = ctrlcmd.NewAddOnionNewKey(onionTargets, flags, nil)
	} else {
		cmd = ctrlcmd.NewAddOnionExistingKey(key, onionTargets, flags, nil)
	}

	if err := c.send(cmd); err != nil {
		return "", nil, err
	}
	if err := ctrlcmd.Wait(ctx, cmd); err != nil {
		return "", nil, err
	}
	return cmd.ServiceID, cmd.PrivateKey, nil
}

// Own implements hiddenservice.Controller.
func (c *Control) Own(hs hiddenservice.Registrant) {
	c.mu.Lock()
	c.owned[hs.ID()] = hs
	c.mu.Unlock()
}

// handleStatusClient reacts to the circuit-establishment notices that
// trigger TorStatus transitions.
func (c *Control) handleStatusClient(lines []ctrlcmd.ReplyLine) {
	if len(lines) == 0 {
		return
	}
	text := lines[0].Text
	switch {
	case strings.Contains(text, "CIRCUIT_ESTABLISHED"):
		c.setTorStatus(TorReady)
	case strings.Contains(text, "CIRCUIT_NOT_ESTABLISHED"):
		c.setTorStatus(TorOffline)
	}
}

// handleHSDesc parses an HS_DESC event's action keyword and address field
// and forwards it to whichever owned hidden service, if any, matches.
// lines[0].Text is the full event body starting with its own "HS_DESC"
// keyword, e.g. "HS_DESC UPLOADED <address> <auth-type> <hsdir> ...".
func (c *Control) handleHSDesc(lines []ctrlcmd.ReplyLine) {
	if len(lines) == 0 {
		return
	}
	fields := strings.Fields(lines[0].Text)
	if len(fields) < 3 {
		return
	}
	action, address := fields[1], fields[2]

	c.mu.Lock()
	hs := c.owned[address]
	c.mu.Unlock()
	if hs != nil {
		hs.HandleEvent(action, address)
	}
}

func (c *Control) setTorStatus(s TorStatus) {
	c.mu.Lock()
	old := c.torStatus
	c.torStatus = s
	c.mu.Unlock()
	if old != s && c.handlers.OnTorStatusChange != nil {
		c.handlers.OnTorStatusChange(old, s)
	}
}

// send writes cmd to the socket, tagging a transport failure with
// KindConnectionLost via the socket's own error wrapping.
func (c *Control) send(cmd ctrlcmd.Command) error {
	return c.sock.Send(cmd)
}

// fail transitions the connection to StatusError and invokes OnError,
// once per terminal failure.
func (c *Control) fail(err error) error {
	c.setConnStatus(StatusError)
	if c.handlers.OnError != nil {
		c.handlers.OnError(err)
	}
	return err
}
