// Package torhsd is the root of the Tor control and hidden-service
// subsystem: a library a host peer-to-peer application embeds to launch
// a bundled Tor daemon and publish a v3 onion hidden service. See
// internal/tor/manager for the facade that does the actual work; this
// package only provides a process-wide accessor for host applications
// that want one Manager reachable from anywhere, instead of threading a
// pointer to it through every layer that might need it.
package torhsd

import (
	"sync"

	"github.com/torhsd/torhsd/internal/tor/manager"
)

var (
	defaultMu  sync.Mutex
	defaultMgr *manager.Manager
)

// Default returns the process-wide Manager set by SetDefault, or nil if
// none has been set yet. This is a thin accessor for host applications
// that want one Tor manager reachable from anywhere, not a requirement:
// nothing in this module or internal/tor/... reads it.
func Default() *manager.Manager {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultMgr
}

// SetDefault installs m as the process-wide Manager returned by Default.
// Host applications call this once during startup, after constructing
// their Manager with manager.New.
func SetDefault(m *manager.Manager) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultMgr = m
}
