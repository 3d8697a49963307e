// Package torproc manages the lifecycle of a child Tor process: locating
// the tor executable, writing its data directory and torrc, generating a
// fresh control-port credential pair, spawning and supervising the
// process, and discovering the control port it bound once it is ready.
package torproc
