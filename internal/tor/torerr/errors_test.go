package torerr

import (
	"errors"
	"testing"
)

func TestWrapAndIs(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := Wrap(KindConnectionLost, cause)

	if !Is(err, KindConnectionLost) {
		t.Error("expected Is(err, KindConnectionLost) to be true")
	}
	if Is(err, KindAuthFailed) {
		t.Error("expected Is(err, KindAuthFailed) to be false")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to see through to the wrapped cause")
	}
}

func TestWrapNil(t *testing.T) {
	t.Parallel()

	if Wrap(KindAuthFailed, nil) != nil {
		t.Error("Wrap(kind, nil) should return nil")
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	cases := map[Kind]string{
		KindExecutableMissing:    "ExecutableMissing",
		KindDataDirUnwritable:    "DataDirUnwritable",
		KindProcessFailed:        "ProcessFailed",
		KindControlConnectFailed: "ControlConnectFailed",
		KindAuthFailed:           "AuthFailed",
		KindProtocolViolation:    "ProtocolViolation",
		KindConnectionLost:       "ConnectionLost",
		KindServicePublishFailed: "ServicePublishFailed",
		KindKeyLoadFailed:        "KeyLoadFailed",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := New(KindKeyLoadFailed, "private_key is empty")
	if got, want := err.Error(), "KeyLoadFailed: private_key is empty"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
