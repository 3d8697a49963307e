package config

import "errors"

// Configuration validation errors returned by Config.Validate().
//
// Design decision: package-level sentinel errors rather than constructing
// new instances in Validate, so callers can branch with errors.Is while
// still getting a human-readable message.
var (
	// ErrNoHiddenServiceDir is returned when HiddenServiceDir is empty.
	ErrNoHiddenServiceDir = errors.New("config: hidden service directory not specified")

	// ErrNoDataDir is returned when DataDir is empty.
	ErrNoDataDir = errors.New("config: tor data directory not specified")

	// ErrNoTargets is returned when the hidden service has no Port=
	// mappings configured.
	ErrNoTargets = errors.New("config: no hidden service targets specified")

	// ErrInvalidTarget is returned when a target's ports are out of range
	// or its host is empty.
	ErrInvalidTarget = errors.New("config: invalid hidden service target")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("config: invalid timeout: must be positive")

	// ErrInvalidFriendServerConfig is returned when a friend server host
	// is configured but WantedFriends is not positive.
	ErrInvalidFriendServerConfig = errors.New("config: invalid friend server config: wantedFriends must be positive")
)
