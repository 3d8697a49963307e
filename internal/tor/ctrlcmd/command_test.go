package ctrlcmd

import (
	"context"
	"testing"
	"time"

	"github.com/torhsd/torhsd/internal/tor/torerr"
)

func TestBaseFinishIsIdempotent(t *testing.T) {
	t.Parallel()

	calls := 0
	b := newBase([]byte("X\r\n"), func(err error) { calls++ })
	b.finish(nil)
	b.finish(torerr.New(torerr.KindProtocolViolation, "should be ignored"))

	if calls != 1 {
		t.Errorf("onDone called %d times, want 1", calls)
	}
	if b.Err() != nil {
		t.Errorf("Err() = %v, want nil (first finish wins)", b.Err())
	}
}

func TestBaseIDIsStableAndUnique(t *testing.T) {
	t.Parallel()

	a := newBase([]byte("A\r\n"), nil)
	b := newBase([]byte("B\r\n"), nil)
	if a.ID() == b.ID() {
		t.Error("two commands got the same correlation id")
	}
	if a.ID() != a.ID() {
		t.Error("ID() is not stable across calls")
	}
}

func TestWaitReturnsCommandErrorOnCompletion(t *testing.T) {
	t.Parallel()

	cmd := NewTakeOwnership(nil)
	go cmd.Complete([]ReplyLine{{Status: 250, Sep: ' ', Text: "OK"}})

	if err := Wait(context.Background(), cmd); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}

func TestWaitReturnsContextErrorOnCancellation(t *testing.T) {
	t.Parallel()

	cmd := NewTakeOwnership(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := Wait(ctx, cmd); err != context.DeadlineExceeded {
		t.Errorf("Wait() = %v, want DeadlineExceeded", err)
	}
}

func TestStatusErrorClassification(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		want   torerr.Kind
		ok     bool
	}{
		{250, torerr.KindAuthFailed, true},
		{514, torerr.KindAuthFailed, false},
		{515, torerr.KindAuthFailed, false},
		{550, torerr.KindServicePublishFailed, false},
		{555, torerr.KindServicePublishFailed, false},
		{510, torerr.KindProtocolViolation, false},
	}
	for _, c := range cases {
		err := statusError(c.status, "text")
		if c.ok {
			if err != nil {
				t.Errorf("statusError(%d) = %v, want nil", c.status, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("statusError(%d) = nil, want error", c.status)
		}
		if !torerr.Is(err, c.want) {
			t.Errorf("statusError(%d) = %v, want kind %v", c.status, err, c.want)
		}
	}
}

func TestLastLineEmptySlice(t *testing.T) {
	t.Parallel()

	if got := lastLine(nil); got != (ReplyLine{}) {
		t.Errorf("lastLine(nil) = %v, want zero value", got)
	}
}

func TestLastLineReturnsFinalElement(t *testing.T) {
	t.Parallel()

	lines := []ReplyLine{
		{Status: 250, Sep: '-', Text: "a"},
		{Status: 250, Sep: ' ', Text: "b"},
	}
	if got := lastLine(lines); got != lines[1] {
		t.Errorf("lastLine() = %v, want %v", got, lines[1])
	}
}
