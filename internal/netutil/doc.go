// Package netutil provides a buffered, non-blocking byte-stream adapter
// over a net.Conn.
//
// It is a thin Go rendering of the raw read/write buffering collaborator
// used by the control-socket transport: instead of a
// malloc'd linked list of byte buffers, owned byte slices are queued in a
// ring buffer and handed back to callers as plain []byte.
package netutil
