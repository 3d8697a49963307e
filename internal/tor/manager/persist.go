package manager

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/torhsd/torhsd/internal/tor/cryptokey"
	"github.com/torhsd/torhsd/internal/tor/torerr"
)

// loadPrivateKey reads <hiddenServiceDir>/private_key, returning (nil,
// nil) if the file does not exist yet, so a fresh identity can be
// generated on first publish.
func loadPrivateKey(hiddenServiceDir string) (*cryptokey.Key, error) {
	data, err := os.ReadFile(filepath.Join(hiddenServiceDir, "private_key"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, torerr.Wrap(torerr.KindKeyLoadFailed, err)
	}
	key, err := cryptokey.LoadFromFile(data)
	if err != nil {
		return nil, torerr.Wrap(torerr.KindKeyLoadFailed, err)
	}
	return key, nil
}

// writePrivateKey atomically persists key's canonical bytes to
// <hiddenServiceDir>/private_key: write to a sibling tmp file, fsync it,
// then rename over the target so a crash between the two steps leaves the
// prior file (if any) intact.
func writePrivateKey(hiddenServiceDir string, key *cryptokey.Key) error {
	return atomicWriteFile(filepath.Join(hiddenServiceDir, "private_key"), append(key.Bytes(), '\n'))
}

// writeHostname atomically persists "<serviceID>.onion\n" to
// <hiddenServiceDir>/hostname.
func writeHostname(hiddenServiceDir, hostname string) error {
	return atomicWriteFile(filepath.Join(hiddenServiceDir, "hostname"), []byte(hostname+"\n"))
}

// atomicWriteFile writes data to a ".tmp-"-prefixed sibling of path,
// fsyncs it, then renames it over path. The rename is atomic on every
// platform this module targets, so readers never observe a partial file.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return torerr.Wrap(torerr.KindDataDirUnwritable, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return torerr.Wrap(torerr.KindDataDirUnwritable, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return torerr.Wrap(torerr.KindDataDirUnwritable, err)
	}
	if err := tmp.Close(); err != nil {
		return torerr.Wrap(torerr.KindDataDirUnwritable, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return torerr.Wrap(torerr.KindDataDirUnwritable, fmt.Errorf("rename %s to %s: %w", tmpPath, path, err))
	}
	return nil
}

// torrcNeedsConfiguration reports whether <dataDir>/torrc is missing or
// empty, which triggers an immediate ConfigurationNeeded event on
// startup.
func torrcNeedsConfiguration(dataDir string) bool {
	info, err := os.Stat(filepath.Join(dataDir, "torrc"))
	if err != nil {
		return true
	}
	return info.Size() == 0
}
