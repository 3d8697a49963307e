package manager

import "github.com/torhsd/torhsd/internal/tor/hiddenservice"

// Event is the sum type of notifications Manager emits to the host
// application over its Events() channel.
type Event interface {
	eventKind()
}

// ConfigurationNeededEvent fires when Start finds the user-editable torrc
// missing or empty, and when the control connection first sees Tor report
// networking disabled; one Start can emit it for both reasons.
type ConfigurationNeededEvent struct{}

func (ConfigurationNeededEvent) eventKind() {}

// TorManagerErrorEvent carries a transport- or process-level failure the
// Manager cannot recover from on its own; the host application decides
// whether to call Start again.
type TorManagerErrorEvent struct {
	Err error
}

func (TorManagerErrorEvent) eventKind() {}

// HiddenServiceStatusChangedEvent fires whenever the managed service's
// publication status transitions.
type HiddenServiceStatusChangedEvent struct {
	Old, New hiddenservice.Status
}

func (HiddenServiceStatusChangedEvent) eventKind() {}

// BootstrapProgressEvent fires on every refreshed bootstrap-phase reading.
type BootstrapProgressEvent struct {
	Progress int
	Tag      string
	Summary  string
}

func (BootstrapProgressEvent) eventKind() {}
