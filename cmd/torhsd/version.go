package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/torhsd/torhsd/internal/tor/ctrlcmd"
	"github.com/torhsd/torhsd/internal/tor/torproc"
)

// version, commit, and date are set at build time via ldflags; empty
// values fall back to whatever runtime/debug can recover from the build
// itself.
var (
	version = ""
	commit  = ""
	date    = ""
)

// buildInfo groups the three build-time values a release process fills
// in via ldflags, each falling back to Go's own recorded build metadata
// when ldflags weren't set (a plain `go install`).
type buildInfo struct {
	Version string
	Commit  string
	Date    string
}

// resolveBuildInfo reads the ldflags-set package vars first, then falls
// back to runtime/debug.ReadBuildInfo for a binary built without them.
func resolveBuildInfo() buildInfo {
	info := buildInfo{Version: version, Commit: commit, Date: date}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		if info.Version == "" {
			info.Version = "(devel)"
		}
		if info.Commit == "" {
			info.Commit = "unknown"
		}
		if info.Date == "" {
			info.Date = "unknown"
		}
		return info
	}

	if info.Version == "" && bi.Main.Version != "" {
		info.Version = bi.Main.Version
	}
	if info.Version == "" {
		info.Version = "(devel)"
	}

	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = shortenCommit(setting.Value)
			}
		case "vcs.time":
			if info.Date == "" {
				info.Date = setting.Value
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}

// shortenCommit truncates a full VCS revision to the 7-character form
// most tools display.
func shortenCommit(revision string) string {
	if len(revision) > 7 {
		return revision[:7]
	}
	return revision
}

// NewVersionCmd creates the "version" subcommand. Beyond torhsd's own
// build metadata it reports the control protocol version this client
// speaks and, best-effort, which tor binary --tor-executable (or the
// default search order) would currently resolve to, since both are
// useful to know when diagnosing a daemon that won't start.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print torhsd's version, commit, and build date, along with the Tor control protocol version and binary it targets.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := resolveBuildInfo()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "torhsd version %s\n", info.Version)
			fmt.Fprintf(out, "  commit:            %s\n", info.Commit)
			fmt.Fprintf(out, "  built:             %s\n", info.Date)
			fmt.Fprintf(out, "  control protocol:  %s\n", ctrlcmd.ControlProtocolVersion)

			configured, _ := cmd.Flags().GetString("tor-executable")
			if exe, err := torproc.FindExecutable(configured); err == nil {
				fmt.Fprintf(out, "  tor executable:    %s\n", exe)
			} else {
				fmt.Fprintf(out, "  tor executable:    not found (%s)\n", err)
			}
			return nil
		},
	}
}
