// Package ctrlsocket implements the framing and dispatch layer of the Tor
// Control Protocol on top of a connected net.Conn: it serializes queued
// commands, reassembles inbound reply lines (including "+...\r\n.\r\n"
// data blocks), pairs each final reply with the command that issued it in
// strict FIFO order, and routes unsolicited "650" event lines to
// registered event handlers by keyword.
package ctrlsocket
