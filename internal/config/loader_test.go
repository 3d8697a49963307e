package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFileNotFound(t *testing.T) {
	t.Parallel()

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadConfigFile() = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadConfigFileParsesYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "torhsd.yaml")
	yamlContent := `
torExecutable: /usr/bin/tor
socksPort: "9150"
targets:
  - servicePort: 80
    targetHost: 127.0.0.1
    targetPort: 8080
friendServer:
  serverHost: friends.example.onion
  serverPort: 1234
  wantedFriends: 10
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	f, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if f.TorExecutable != "/usr/bin/tor" {
		t.Errorf("TorExecutable = %q, want /usr/bin/tor", f.TorExecutable)
	}
	if len(f.Targets) != 1 || f.Targets[0].ServicePort != 80 {
		t.Errorf("Targets = %+v, want one target with ServicePort 80", f.Targets)
	}
	if f.FriendServer.WantedFriends != 10 {
		t.Errorf("FriendServer.WantedFriends = %d, want 10", f.FriendServer.WantedFriends)
	}
}

func TestFindConfigFileExplicitPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if got := FindConfigFile(path); got != path {
		t.Errorf("FindConfigFile(%q) = %q, want %q", path, got, path)
	}
}

func TestFindConfigFileExplicitPathMissing(t *testing.T) {
	t.Parallel()

	if got := FindConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); got != "" {
		t.Errorf("FindConfigFile() = %q, want empty", got)
	}
}

func TestFindConfigFileSearchesCwd(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	defer os.Chdir(cwd)

	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	path := filepath.Join(dir, DefaultConfigFileName)
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if got := FindConfigFile(""); got != path {
		t.Errorf("FindConfigFile(\"\") = %q, want %q", got, path)
	}
}
