package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/torhsd/torhsd/internal/config"
)

// buildConfig assembles a config.Config from cmd's flags, overlaid on top
// of whatever a config file supplies for anything the flags left unset.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}

	configPath, _ := cmd.Flags().GetString("config")
	if path := config.FindConfigFile(configPath); path != "" {
		file, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
		file.ApplyTo(cfg)
	}

	defaults := config.NewConfig()
	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}
	if cfg.HiddenServiceDir == "" {
		cfg.HiddenServiceDir = defaults.HiddenServiceDir
	}
	if cfg.SocksPort == "" {
		cfg.SocksPort = defaults.SocksPort
	}
	cfg.ReadyTimeout = defaults.ReadyTimeout
	cfg.AuthTimeout = defaults.AuthTimeout

	if v, _ := cmd.Flags().GetString("tor-executable"); v != "" {
		cfg.TorExecutable = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("hidden-service-dir"); v != "" {
		cfg.HiddenServiceDir = v
	}
	if v, _ := cmd.Flags().GetString("socks-port"); v != "" {
		cfg.SocksPort = v
	}
	if v, _ := cmd.Flags().GetBool("take-ownership"); v {
		cfg.TakeOwnership = v
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		cfg.Verbose = v
	}

	targets, _ := cmd.Flags().GetStringArray("target")
	for _, spec := range targets {
		target, err := parseTarget(spec)
		if err != nil {
			return nil, err
		}
		cfg.Targets = append(cfg.Targets, target)
	}

	return cfg, nil
}

// parseTarget parses "servicePort:targetHost:targetPort" into a
// config.Target.
func parseTarget(spec string) (config.Target, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return config.Target{}, fmt.Errorf("invalid --target %q: want servicePort:targetHost:targetPort", spec)
	}
	servicePort, err := strconv.Atoi(parts[0])
	if err != nil {
		return config.Target{}, fmt.Errorf("invalid --target %q: servicePort: %w", spec, err)
	}
	targetPort, err := strconv.Atoi(parts[2])
	if err != nil {
		return config.Target{}, fmt.Errorf("invalid --target %q: targetPort: %w", spec, err)
	}
	return config.Target{
		ServicePort: servicePort,
		TargetHost:  parts[1],
		TargetPort:  targetPort,
	}, nil
}
