package main

import (
	"strings"
	"testing"

	"github.com/torhsd/torhsd/internal/tor/hiddenservice"
	"github.com/torhsd/torhsd/internal/tor/manager"
)

func TestColorForStatusCoversAllStatuses(t *testing.T) {
	t.Parallel()

	for _, s := range []hiddenservice.Status{hiddenservice.StatusNotCreated, hiddenservice.StatusOffline, hiddenservice.StatusOnline} {
		if c := colorForStatus(s); c == nil {
			t.Errorf("colorForStatus(%v) = nil", s)
		}
	}
}

func TestFormatBootstrapLineIncludesFields(t *testing.T) {
	t.Parallel()

	line := formatBootstrapLine(manager.BootstrapProgressEvent{
		Progress: 42,
		Tag:      "handshake_dir",
		Summary:  "Finishing handshake with directory server",
	})

	for _, want := range []string{"42", "handshake_dir", "Finishing handshake with directory server"} {
		if !strings.Contains(line, want) {
			t.Errorf("formatBootstrapLine() = %q, missing %q", line, want)
		}
	}
}
