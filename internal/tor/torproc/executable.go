package torproc

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/torhsd/torhsd/internal/tor/torerr"
)

// binaryName is the tor executable's filename on this platform.
var binaryName = func() string {
	if runtime.GOOS == "windows" {
		return "tor.exe"
	}
	return "tor"
}()

// bundledTorPathEnv names the environment variable a packaged build can
// set to point at a Tor binary it ships alongside itself, in place of a
// build-tag-selected bundled path.
const bundledTorPathEnv = "TORHSD_BUNDLED_TOR_PATH"

// FindExecutable resolves the path to the tor binary: an explicitly
// configured path wins if it exists; otherwise a "tor" binary sitting
// next to our own executable is tried, then TORHSD_BUNDLED_TOR_PATH (for
// a packaged build that ships its own binary), then the platform's
// conventional install location (Homebrew on macOS), and finally $PATH.
func FindExecutable(configured string) (string, error) {
	if configured != "" {
		if fileExists(configured) {
			return configured, nil
		}
	}

	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), binaryName)
		if fileExists(candidate) {
			return candidate, nil
		}
	}

	if bundled := os.Getenv(bundledTorPathEnv); bundled != "" {
		if fileExists(bundled) {
			return bundled, nil
		}
	}

	if runtime.GOOS == "darwin" {
		candidate := filepath.Join("/usr/local/opt/tor/bin", binaryName)
		if fileExists(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(binaryName); err == nil {
		return path, nil
	}

	return "", torerr.New(torerr.KindExecutableMissing, "torproc: could not find tor executable on any search path")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
