package main

import (
	"context"
	"errors"
	"testing"

	"github.com/torhsd/torhsd/internal/friendserver/store"
)

func TestPeerCounterFriendCount(t *testing.T) {
	t.Parallel()

	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	counter := peerCounter{store: s}
	if got := counter.FriendCount(); got != 0 {
		t.Errorf("FriendCount() = %d, want 0", got)
	}

	if err := s.Remember(context.Background(), "cert-a"); err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if got := counter.FriendCount(); got != 1 {
		t.Errorf("FriendCount() = %d, want 1", got)
	}
}

func TestUnimplementedRequestReturnsError(t *testing.T) {
	t.Parallel()

	_, err := unimplementedRequest(context.Background(), nil, 1, "passphrase")
	if !errors.Is(err, errInvitationProtocolUnavailable) {
		t.Errorf("unimplementedRequest() error = %v, want %v", err, errInvitationProtocolUnavailable)
	}
}

func TestBuildManagerWithoutFriendServerNeedsNoStore(t *testing.T) {
	t.Parallel()

	cmd := startCmdUnderRoot(t)
	dir := t.TempDir()
	if err := cmd.ParseFlags([]string{
		"--data-dir", dir + "/data",
		"--hidden-service-dir", dir + "/hs",
		"--target", "80:127.0.0.1:8080",
	}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}

	mgr, cleanup, err := buildManager(cfg, nil)
	if err != nil {
		t.Fatalf("buildManager: %v", err)
	}
	defer cleanup()
	if mgr == nil {
		t.Fatal("expected non-nil manager")
	}
}
