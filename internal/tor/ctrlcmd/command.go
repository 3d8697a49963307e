package ctrlcmd

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/torhsd/torhsd/internal/tor/torerr"
)

// ReplyLine is one line of a Tor control reply, already split into its
// three-digit status code, separator character, and trailing text.
//
// Sep is one of '-' (intermediate line), '+' (start of a data block,
// Text holds the block's raw bytes once the dot-terminator has been
// consumed) or ' ' (final line of the reply).
type ReplyLine struct {
	Status int
	Sep    byte
	Text   string
}

// Command is the base contract every control-protocol request satisfies:
// a serialized request, a place to accumulate reply lines, and a terminal
// completion signal. ControlSocket only ever talks to this interface; it
// never needs to know which concrete command it is driving.
type Command interface {
	// ID returns a correlation id, attached at construction, used to tie
	// together log lines for a single command's request and reply.
	ID() uuid.UUID

	// Serialize returns the exact bytes to write to the control socket,
	// CRLF-terminated.
	Serialize() []byte

	// Complete is invoked exactly once by the socket when the final reply
	// line (separator ' ') has arrived, with every line received for this
	// command in order. Concrete commands parse their own reply shape out
	// of lines and then release Wait.
	Complete(lines []ReplyLine)

	// Fail is invoked exactly once instead of Complete if the command can
	// never receive a reply: the connection was lost, or a protocol
	// violation made replies impossible to pair correctly.
	Fail(err error)

	// Done returns a channel that is closed once Complete or Fail has
	// run. Completion callbacks registered at construction time must
	// tolerate being invoked with a failure state.
	Done() <-chan struct{}
}

// base implements the bookkeeping shared by every concrete command:
// an id, the serialized request, and a completion signal. Concrete
// commands embed base and implement Complete themselves to parse their
// specific reply shape, then call base.finish.
type base struct {
	id  uuid.UUID
	raw []byte

	mu   sync.Mutex
	done chan struct{}
	err  error

	onDone func(err error)
}

func newBase(raw []byte, onDone func(err error)) base {
	return base{
		id:     uuid.New(),
		raw:    raw,
		done:   make(chan struct{}),
		onDone: onDone,
	}
}

// ID returns the command's correlation id.
func (b *base) ID() uuid.UUID { return b.id }

// Serialize returns the raw request bytes.
func (b *base) Serialize() []byte { return b.raw }

// Done returns the completion channel.
func (b *base) Done() <-chan struct{} { return b.done }

// Err returns the terminal error, if any, once Done is closed.
func (b *base) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// finish marks the command complete exactly once, recording err (nil on
// success), closing Done, and invoking the completion callback if set.
func (b *base) finish(err error) {
	b.mu.Lock()
	select {
	case <-b.done:
		b.mu.Unlock()
		return
	default:
	}
	b.err = err
	close(b.done)
	b.mu.Unlock()

	if b.onDone != nil {
		b.onDone(err)
	}
}

// Fail satisfies Command.Fail for commands that have no special failure
// handling beyond recording the error.
func (b *base) Fail(err error) {
	b.finish(err)
}

// Wait blocks until cmd is complete or ctx is done, returning the
// command's terminal error (nil on success) or ctx.Err().
func Wait(ctx context.Context, cmd Command) error {
	select {
	case <-cmd.Done():
		if w, ok := cmd.(interface{ Err() error }); ok {
			return w.Err()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// statusError classifies a non-250 final status into the shared torerr
// taxonomy. Tor's control-protocol status codes map fairly directly:
// 514/515 are authentication-specific (AuthFailed), 550-555 become
// ServicePublishFailed whichever command received them, and everything
// else that isn't 250 is treated as a protocol violation since this
// client never sends a command whose success code differs from 250.
func statusError(status int, text string) error {
	switch status {
	case 250:
		return nil
	case 514, 515:
		return torerr.Newf(torerr.KindAuthFailed, "tor control: %d %s", status, text)
	case 550, 551, 552, 553, 554, 555:
		return torerr.Newf(torerr.KindServicePublishFailed, "tor control: %d %s", status, text)
	default:
		return torerr.Newf(torerr.KindProtocolViolation, "tor control: %d %s", status, text)
	}
}

// lastLine returns the final reply line, or a zero-valued line if lines
// is empty (which Complete is never called with in practice, but callers
// should not panic on a malformed-but-non-empty server).
func lastLine(lines []ReplyLine) ReplyLine {
	if len(lines) == 0 {
		return ReplyLine{}
	}
	return lines[len(lines)-1]
}
