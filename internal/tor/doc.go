// Package tor is the namespace root for the Tor control and hidden-service
// subsystem: internal/tor/torproc supervises the bundled Tor child process,
// internal/tor/ctrlsocket and internal/tor/ctrlcmd implement the control
// protocol's framing and command set, internal/tor/torcontrol drives the
// resulting connection's state machine, and internal/tor/hiddenservice and
// internal/tor/cryptokey model the onion identity that machine publishes.
//
// The package itself holds no code; each concern lives in its own
// subpackage so that, for example, a test can exercise ctrlcmd's wire
// encoding without spawning a process.
package tor
