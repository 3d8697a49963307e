// Package store persists the set of peer certificates the friend-server
// requester has already added, in a small SQLite database, so that a
// known peer is never re-added after a process restart rather than the
// requester's memory resetting to empty every time it starts up.
package store
