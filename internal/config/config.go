package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultDataDirName is the directory Tor's own state lives under,
	// relative to the XDG data directory.
	DefaultDataDirName = "tor"

	// DefaultHiddenServiceDirName is the directory the hidden service's
	// private_key and hostname are persisted under, relative to the XDG
	// data directory.
	DefaultHiddenServiceDirName = "hidden_service"

	// DefaultSocksPort is passed to Tor's SocksPort directive when the
	// user hasn't overridden it.
	DefaultSocksPort = "auto"

	// DefaultReadyTimeout bounds how long Start waits for the Tor child's
	// control_port file to appear.
	DefaultReadyTimeout = 30 * time.Second

	// DefaultAuthTimeout bounds how long Start waits for the control
	// connection to authenticate once the TCP connection succeeds.
	DefaultAuthTimeout = 10 * time.Second

	// DefaultFriendServerTickInterval is how often the friend requester
	// checks whether a new campaign is due.
	DefaultFriendServerTickInterval = 2 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "torhsd"
)

// Target describes one Port= mapping the hidden service forwards:
// ServicePort is what the .onion address exposes, TargetHost:TargetPort
// is where Tor connects locally to serve it.
type Target struct {
	ServicePort int    `yaml:"servicePort"`
	TargetHost  string `yaml:"targetHost"`
	TargetPort  int    `yaml:"targetPort"`
}

// Config holds all configuration options for torhsd.
//
// Design decision: a single flat struct rather than nested sub-structs;
// the option count here is small enough that nesting would add ceremony
// without clarifying anything.
type Config struct {
	// TorExecutable is the path to the tor binary, or "" to search the
	// default locations (see torproc.FindExecutable).
	TorExecutable string

	// DataDir is the directory Tor itself uses for its state. Defaults to
	// the XDG data directory's "tor" subdirectory.
	DataDir string

	// HiddenServiceDir is the directory private_key and hostname are
	// persisted to. Defaults to the XDG data directory's
	// "hidden_service" subdirectory.
	HiddenServiceDir string

	// Targets is the hidden service's Port= mapping list, loaded from the
	// config file's "targets" section.
	Targets []Target

	// SocksPort overrides the SocksPort value passed to Tor.
	SocksPort string

	// TakeOwnership, if true, has the control connection ask Tor to exit
	// if this process dies without a clean Stop.
	TakeOwnership bool

	// ReadyTimeout overrides how long Start waits for the Tor child's
	// control port to become ready.
	ReadyTimeout time.Duration

	// AuthTimeout overrides how long Start waits for control-connection
	// authentication to complete.
	AuthTimeout time.Duration

	// Verbose enables debug-level logging via internal/log.
	Verbose bool

	// ConfigFilePath is the path to the YAML configuration file. If
	// empty, the tool searches for it via FindConfigFile.
	ConfigFilePath string

	// FriendServer holds the optional friend-server requester's settings.
	// A zero-valued ServerHost disables the requester entirely.
	FriendServer FriendServerConfig
}

// FriendServerConfig configures the optional friend-invitation requester
// (internal/friendserver.Requester).
type FriendServerConfig struct {
	ServerHost    string        `yaml:"serverHost,omitempty"`
	ServerPort    int           `yaml:"serverPort,omitempty"`
	ProxyHost     string        `yaml:"proxyHost,omitempty"`
	ProxyPort     int           `yaml:"proxyPort,omitempty"`
	WantedFriends int           `yaml:"wantedFriends,omitempty"`
	Passphrase    string        `yaml:"passphrase,omitempty"`
	TickInterval  time.Duration `yaml:"tickInterval,omitempty"`
}

// NewConfig creates a new Config with default values.
//
// Design decision: a constructor function rather than relying on zero
// values, since several defaults (directories, timeouts) are non-zero
// and this doubles as documentation of what they are.
func NewConfig() *Config {
	return &Config{
		DataDir:          XDGDataDir(DefaultDataDirName),
		HiddenServiceDir: XDGDataDir(DefaultHiddenServiceDirName),
		SocksPort:        DefaultSocksPort,
		ReadyTimeout:     DefaultReadyTimeout,
		AuthTimeout:      DefaultAuthTimeout,
	}
}

// XDGDataDir returns the XDG data directory for torhsd, optionally joined
// with additional path segments.
// On Linux: ~/.local/share/torhsd
// On macOS: ~/Library/Application Support/torhsd
// On Windows: %LOCALAPPDATA%\torhsd
func XDGDataDir(segments ...string) string {
	parts := append([]string{xdg.DataHome, AppName}, segments...)
	return filepath.Join(parts...)
}

// XDGConfigDir returns the XDG config directory for torhsd, optionally
// joined with additional path segments.
func XDGConfigDir(segments ...string) string {
	parts := append([]string{xdg.ConfigHome, AppName}, segments...)
	return filepath.Join(parts...)
}

// Validate checks if the configuration is well-formed, returning the
// first problem found.
//
// Design decision: return the first error rather than collecting all of
// them, since fixing one (e.g. an empty HiddenServiceDir) often makes
// others moot.
func (c *Config) Validate() error {
	if c.HiddenServiceDir == "" {
		return ErrNoHiddenServiceDir
	}
	if c.DataDir == "" {
		return ErrNoDataDir
	}
	if len(c.Targets) == 0 {
		return ErrNoTargets
	}
	for _, t := range c.Targets {
		if t.ServicePort <= 0 || t.ServicePort > 65535 {
			return ErrInvalidTarget
		}
		if t.TargetPort <= 0 || t.TargetPort > 65535 {
			return ErrInvalidTarget
		}
		if t.TargetHost == "" {
			return ErrInvalidTarget
		}
	}
	if c.ReadyTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.AuthTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.FriendServer.ServerHost != "" && c.FriendServer.WantedFriends <= 0 {
		return ErrInvalidFriendServerConfig
	}
	return nil
}
