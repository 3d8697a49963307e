package cryptokey

import "errors"

// Key loading and derivation errors.
var (
	// ErrKeyLoadFailed is returned when key material is empty or
	// malformed. RSA1024 keys get ErrLegacyKeyUnsupported and unknown key
	// types ErrUnknownKeyType instead.
	ErrKeyLoadFailed = errors.New("cryptokey: failed to load private key")

	// ErrLegacyKeyUnsupported is returned for RSA1024 (legacy v2) keys.
	// This implementation always configures the hidden service with v3
	// (ed25519) addressing, and detects then rejects v2 rather than
	// silently downgrading.
	ErrLegacyKeyUnsupported = errors.New("cryptokey: RSA1024 (v2) keys are not supported, v3 addressing only")

	// ErrUnknownKeyType is returned when the on-disk encoding does not
	// match any recognized key type tag.
	ErrUnknownKeyType = errors.New("cryptokey: unrecognized key type")

	// ErrServiceIDMismatch is returned when a service id derived locally
	// from a key disagrees with one reported by Tor for the same key.
	// Treated as a fatal protocol error by callers.
	ErrServiceIDMismatch = errors.New("cryptokey: derived service id does not match Tor's reported id")
)
