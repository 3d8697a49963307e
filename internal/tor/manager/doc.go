// Package manager is the top-level facade gluing internal/tor/torproc,
// internal/tor/torcontrol, and internal/tor/hiddenservice into one
// supervised lifecycle: it starts the bundled Tor process, authenticates
// the control connection, publishes the configured hidden service, and
// persists its key and hostname to disk.
//
// Start runs the startup sequence on the caller's goroutine and returns
// once the service is published or a step fails; an errgroup then runs
// the control socket's read loop and the optional FriendRequester in the
// background. The accessor methods read shared state under a mutex; there
// is no event loop that calls from other goroutines are handed to.
package manager
