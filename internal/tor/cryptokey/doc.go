// Package cryptokey loads, generates, and serializes the long-lived
// private key behind a Tor v3 onion service, and derives the service id
// from it.
//
// Design decision: service ids are always derived from the key material,
// never stored as a separate field, so that a key and its id can never
// silently drift apart. The v3 checksum math runs the standard onion
// address validation in the opposite direction: public key -> address
// instead of address -> checksum check.
package cryptokey
