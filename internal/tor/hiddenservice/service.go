package hiddenservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/torhsd/torhsd/internal/tor/cryptokey"
	"github.com/torhsd/torhsd/internal/tor/torerr"
)

// Status is the hidden service's publication state.
type Status int

const (
	// StatusNotCreated: Publish has not been called yet.
	StatusNotCreated Status = iota
	// StatusOffline: ADD_ONION succeeded but no descriptor upload has been
	// confirmed yet.
	StatusOffline
	// StatusOnline: an HS_DESC UPLOADED event named this service's id.
	StatusOnline
)

// String renders the status the way it would appear in a log line.
func (s Status) String() string {
	switch s {
	case StatusNotCreated:
		return "NotCreated"
	case StatusOffline:
		return "Offline"
	case StatusOnline:
		return "Online"
	default:
		return "Unknown"
	}
}

// Target is one "virtual port maps to this local address" mapping passed
// to ADD_ONION as a Port= argument.
type Target struct {
	ServicePort   int
	TargetAddress string
	TargetPort    int
}

func (t Target) String() string {
	return fmt.Sprintf("%d -> %s:%d", t.ServicePort, t.TargetAddress, t.TargetPort)
}

// Registrant is the half of Service a Controller needs to route HS_DESC
// events back to the right instance: its service id, and a callback for
// the event's action keyword and address field.
type Registrant interface {
	ID() string
	HandleEvent(action, address string)
}

// Controller is the control-connection contract Publish depends on. It is
// satisfied by *torcontrol.Control without that package importing this
// one, so there is no import cycle between the two halves of the
// publish/notify relationship.
type Controller interface {
	// AddOnion registers targets with Tor, generating a fresh key if key is
	// nil. It returns the service id Tor reports and, for a freshly
	// generated key, the private key material to persist.
	AddOnion(ctx context.Context, key *cryptokey.Key, targets []Target, flags []string) (serviceID string, generated *cryptokey.Key, err error)

	// Own registers hs to receive HS_DESC events matching its service id
	// for the lifetime of the control connection.
	Own(hs Registrant)
}

// StatusChangeFunc is notified whenever Publish or an HS_DESC event moves
// the service from one Status to another.
type StatusChangeFunc func(old, new Status)

// Service holds one onion identity, its target list, and the status
// machine driven by ADD_ONION and subsequent HS_DESC events.
type Service struct {
	mu sync.Mutex

	key       *cryptokey.Key
	serviceID string
	hostname  string
	targets   []Target
	flags     []string
	status    Status

	onStatusChange StatusChangeFunc
}

// New creates a Service with the given targets, not yet published.
func New(targets []Target, opts ...Option) *Service {
	s := &Service{targets: targets, status: StatusNotCreated}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithFlags sets the ADD_ONION Flags= value (e.g. "DiscardPK", "Detach").
func WithFlags(flags ...string) Option {
	return func(s *Service) { s.flags = flags }
}

// WithStatusChangeFunc registers a callback invoked on every status
// transition, mirroring the host-visible HiddenServiceStatusChanged event.
func WithStatusChangeFunc(fn StatusChangeFunc) Option {
	return func(s *Service) { s.onStatusChange = fn }
}

// SetKey installs a previously persisted key, to be reused by the next
// Publish rather than asking Tor to generate a new one. The Manager calls
// this before the first Publish when <hiddenServiceDir>/private_key
// already exists.
func (s *Service) SetKey(key *cryptokey.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
}

// Key returns the currently held key, or nil if none has been set or
// generated yet.
func (s *Service) Key() *cryptokey.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// ID returns the service's derived onion address without the ".onion"
// suffix, or "" before the first successful Publish.
func (s *Service) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serviceID
}

// Hostname returns "<id>.onion", or "" before the first successful
// Publish.
func (s *Service) Hostname() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hostname
}

// Status returns the current publication status.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Targets returns the configured target list.
func (s *Service) Targets() []Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Target, len(s.targets))
	copy(out, s.targets)
	return out
}

// Publish registers the service with ctrl: with the held key if one is
// set (from SetKey or a prior Publish on this process), or by asking Tor
// to generate one fresh. On success it derives hostname, transitions to
// StatusOffline, and registers itself with ctrl to receive HS_DESC
// events for its newly-known service id.
func (s *Service) Publish(ctx context.Context, ctrl Controller) error {
	s.mu.Lock()
	key := s.key
	targets := append([]Target(nil), s.targets...)
	flags := s.flags
	s.mu.Unlock()

	serviceID, generated, err := ctrl.AddOnion(ctx, key, targets, flags)
	if err != nil {
		return torerr.Wrap(torerr.KindServicePublishFailed, err)
	}

	s.mu.Lock()
	if key == nil {
		s.key = generated
	}
	s.serviceID = serviceID
	s.hostname = serviceID + ".onion"
	old := s.status
	s.status = StatusOffline
	changed := old != s.status
	fn := s.onStatusChange
	s.mu.Unlock()

	ctrl.Own(s)

	if changed && fn != nil {
		fn(old, StatusOffline)
	}
	return nil
}

// HandleEvent implements Registrant. It reacts to the HS_DESC action
// keyword and address field already parsed out of the event line by the
// Controller, advancing StatusOffline to StatusOnline on a matching
// UPLOADED and leaving status unchanged on FAILED (automatic retry is not
// attempted unless the controller reconnects and republishes).
func (s *Service) HandleEvent(action, address string) {
	s.mu.Lock()
	if address != s.serviceID {
		s.mu.Unlock()
		return
	}

	var old, newStatus Status
	var fn StatusChangeFunc
	var changed bool

	switch action {
	case "UPLOADED":
		if s.status == StatusOffline {
			old, newStatus = s.status, StatusOnline
			s.status = newStatus
			changed = true
		}
	case "FAILED":
		// Status remains as-is; no automatic retry.
	}
	fn = s.onStatusChange
	s.mu.Unlock()

	if changed && fn != nil {
		fn(old, newStatus)
	}
}
