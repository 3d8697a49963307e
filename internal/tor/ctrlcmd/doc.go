// Package ctrlcmd defines the Tor Control Protocol's request/response
// contract and the specialized commands built on it: PROTOCOLINFO,
// AUTHCHALLENGE, AUTHENTICATE, GETCONF, SETCONF, SETEVENTS, GETINFO,
// ADD_ONION, and TAKEOWNERSHIP.
//
// Every command is a typed completion closure rather than a polymorphic
// reply object recovered by dynamic cast: the caller gets back a concrete
// *GetConfCommand, *AddOnionCommand, and so on, and reads its typed result
// fields once Wait returns.
package ctrlcmd
