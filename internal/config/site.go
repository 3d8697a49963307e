package config

// File represents the structure of torhsd's YAML configuration file: the
// on-disk counterpart to the CLI flags in Config, for settings a user
// wants to persist rather than repeat on every invocation.
type File struct {
	// TorExecutable, DataDir, HiddenServiceDir, SocksPort mirror the
	// corresponding Config fields.
	TorExecutable    string `yaml:"torExecutable,omitempty"`
	DataDir          string `yaml:"dataDir,omitempty"`
	HiddenServiceDir string `yaml:"hiddenServiceDir,omitempty"`
	SocksPort        string `yaml:"socksPort,omitempty"`

	// TakeOwnership mirrors Config.TakeOwnership.
	TakeOwnership bool `yaml:"takeOwnership,omitempty"`

	// Targets lists the hidden service's Port= mappings.
	Targets []Target `yaml:"targets,omitempty"`

	// FriendServer configures the optional friend-invitation requester.
	FriendServer FriendServerConfig `yaml:"friendServer,omitempty"`
}

// ApplyTo overlays f's non-zero fields onto cfg, the way a config file's
// settings fill in whatever CLI flags left at their zero value. Explicit
// CLI flags always win: this never overwrites a field cfg already has
// set to something other than the type's zero value.
func (f *File) ApplyTo(cfg *Config) {
	if f == nil {
		return
	}
	if cfg.TorExecutable == "" {
		cfg.TorExecutable = f.TorExecutable
	}
	if cfg.DataDir == "" {
		cfg.DataDir = f.DataDir
	}
	if cfg.HiddenServiceDir == "" {
		cfg.HiddenServiceDir = f.HiddenServiceDir
	}
	if cfg.SocksPort == "" {
		cfg.SocksPort = f.SocksPort
	}
	if !cfg.TakeOwnership {
		cfg.TakeOwnership = f.TakeOwnership
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = f.Targets
	}
	if cfg.FriendServer.ServerHost == "" {
		cfg.FriendServer = f.FriendServer
	}
}
