package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/torhsd/torhsd/internal/tor/hiddenservice"
	"github.com/torhsd/torhsd/internal/tor/manager"
)

// colorForStatus picks the color a status row is rendered in, matching
// the severity a host application's own logs would use.
func colorForStatus(status hiddenservice.Status) *color.Color {
	switch status {
	case hiddenservice.StatusOnline:
		return color.New(color.FgGreen)
	case hiddenservice.StatusOffline:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

// renderStatus prints a one-shot status table for mgr to w: hidden
// service hostname and publication status, and the SocksPort value the
// control connection read from Tor ("not ready" until it has one).
func renderStatus(w io.Writer, mgr *manager.Manager) {
	table := tablewriter.NewTable(w)
	table.Header("Field", "Value")

	hostname, status, ok := mgr.HiddenServiceInfo()
	if !ok {
		hostname = "-"
	}
	statusText := colorForStatus(status).Sprint(status.String())

	table.Append("Hostname", hostname)
	table.Append("Status", statusText)

	if addr, ok := mgr.ProxyInfo(); ok {
		table.Append("SOCKS proxy", addr)
	} else {
		table.Append("SOCKS proxy", "not ready")
	}

	if err := mgr.LastError(); err != nil {
		table.Append("Last error", color.New(color.FgRed).Sprint(err.Error()))
	}

	table.Render()
}

// formatBootstrapLine renders a BootstrapProgressEvent for a plain
// terminal line, outside of the table.
func formatBootstrapLine(e manager.BootstrapProgressEvent) string {
	return fmt.Sprintf("bootstrap %3d%% %-16s %s", e.Progress, e.Tag, e.Summary)
}
