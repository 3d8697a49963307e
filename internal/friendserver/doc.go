// Package friendserver implements the backoff-driven poll of a remote
// peer-invitation server: it holds no network protocol knowledge of its
// own beyond dialing the server through a
// SOCKS5 proxy (Tor's) and handing the resulting connection to a
// caller-supplied RequestFunc, since the invitation server's own wire
// format is delegated to an external collaborator out of this
// subsystem's scope.
//
// Requester tracks only the scheduling (the log-scaled backoff between
// campaigns) and deduplication (which peers are already known) that this
// subsystem does own.
package friendserver
