package ctrlcmd

import "testing"

func TestTakeOwnershipSerialize(t *testing.T) {
	t.Parallel()

	cmd := NewTakeOwnership(nil)
	if got, want := string(cmd.Serialize()), "TAKEOWNERSHIP\r\n"; got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestTakeOwnershipSuccess(t *testing.T) {
	t.Parallel()

	var callbackErr error
	called := false
	cmd := NewTakeOwnership(func(err error) {
		called = true
		callbackErr = err
	})
	cmd.Complete([]ReplyLine{{Status: 250, Sep: ' ', Text: "OK"}})

	if !called {
		t.Fatal("onDone callback not invoked")
	}
	if callbackErr != nil {
		t.Errorf("unexpected error: %v", callbackErr)
	}
	select {
	case <-cmd.Done():
	default:
		t.Error("Done() channel not closed")
	}
}

func TestTakeOwnershipFailure(t *testing.T) {
	t.Parallel()

	cmd := NewTakeOwnership(nil)
	cmd.Complete([]ReplyLine{{Status: 512, Sep: ' ', Text: "Unrecognized command"}})
	if cmd.Err() == nil {
		t.Fatal("expected error for non-250 status")
	}
}
