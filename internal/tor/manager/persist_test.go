package manager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/torhsd/torhsd/internal/tor/cryptokey"
)

func TestWritePrivateKeyAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	key, err := cryptokey.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	if err := writePrivateKey(dir, key); err != nil {
		t.Fatalf("writePrivateKey: %v", err)
	}

	got, err := loadPrivateKey(dir)
	if err != nil {
		t.Fatalf("loadPrivateKey: %v", err)
	}
	if got == nil {
		t.Fatal("loadPrivateKey returned nil")
	}
	if string(got.Bytes()) != string(key.Bytes()) {
		t.Errorf("round-tripped key bytes = %q, want %q", got.Bytes(), key.Bytes())
	}
}

func TestLoadPrivateKeyMissingFileReturnsNilNil(t *testing.T) {
	t.Parallel()

	key, err := loadPrivateKey(t.TempDir())
	if err != nil {
		t.Fatalf("loadPrivateKey: %v", err)
	}
	if key != nil {
		t.Errorf("key = %v, want nil", key)
	}
}

func TestWriteHostnameFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := writeHostname(dir, "abcdefg.onion"); err != nil {
		t.Fatalf("writeHostname: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "hostname"))
	if err != nil {
		t.Fatalf("read hostname: %v", err)
	}
	if string(data) != "abcdefg.onion\n" {
		t.Errorf("hostname contents = %q", data)
	}
}

func TestAtomicWriteFileInterruptedBeforeRenameLeavesPriorFileIntact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "private_key")

	if err := atomicWriteFile(path, []byte("original")); err != nil {
		t.Fatalf("initial write: %v", err)
	}

	// Simulate a crash between the tmp write and the rename: create the
	// tmp file with new content but never call os.Rename.
	tmp, err := os.CreateTemp(dir, ".tmp-private_key-*")
	if err != nil {
		t.Fatalf("create tmp: %v", err)
	}
	if _, err := tmp.Write([]byte("partial-new-content")); err != nil {
		t.Fatalf("write tmp: %v", err)
	}
	tmp.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read path: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("private_key = %q after simulated crash, want unchanged %q", data, "original")
	}
}

func TestTorrcNeedsConfiguration(t *testing.T) {
	t.Parallel()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		if !torrcNeedsConfiguration(t.TempDir()) {
			t.Error("want true for missing torrc")
		}
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "torrc"), nil, 0o600); err != nil {
			t.Fatalf("write empty torrc: %v", err)
		}
		if !torrcNeedsConfiguration(dir) {
			t.Error("want true for empty torrc")
		}
	})

	t.Run("populated", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "torrc"), []byte("Log notice stdout\n"), 0o600); err != nil {
			t.Fatalf("write torrc: %v", err)
		}
		if torrcNeedsConfiguration(dir) {
			t.Error("want false for populated torrc")
		}
	})
}
