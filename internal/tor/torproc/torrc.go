package torproc

import "os"

// defaultTorrcContent is the minimal torrc written alongside the user's
// own: socks auto-assigned, writes to disk minimized, and no
// reload-on-SIGHUP since nothing sends this process a HUP.
const defaultTorrcContent = "SocksPort auto\n" +
	"AvoidDiskWrites 1\n" +
	"__ReloadTorrcOnSIGHUP 0\n"

// writeDefaultTorrc writes the bundled default torrc at path if it does
// not already exist, leaving any existing file (including one a user has
// hand-edited) untouched.
func writeDefaultTorrc(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(defaultTorrcContent), 0o600)
}

// ensureUserTorrc creates the user-editable torrc at path as an empty file
// if it does not already exist yet, so `-f path` always has something to
// open. An empty file is what manager.torrcNeedsConfiguration treats as
// "needs configuration"; a host that wants to run with only default_torrc's
// three directives can simply leave it empty.
func ensureUserTorrc(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, nil, 0o600)
}
