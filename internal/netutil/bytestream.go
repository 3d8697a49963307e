package netutil

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// ErrClosed is returned by ByteStream operations once the stream has been
// closed, mirroring a socket that has reached EOF or been shut down.
var ErrClosed = errors.New("netutil: stream closed")

// pollInterval bounds how long a single non-blocking read or write attempt
// may take before it is treated as "nothing ready right now". It plays the
// role MSG_DONTWAIT plays for a raw socket.
const pollInterval = 20 * time.Millisecond

// ByteStream is a non-blocking, buffered adapter over a net.Conn.
//
// Inbound bytes accumulate in a queue of owned []byte chunks (in place of a
// malloc'd linked list); ReadChunk drains them in FIFO order. Outbound bytes
// are queued with Enqueue and drained by FlushPending, which performs a
// best-effort, time-bounded write and re-queues whatever did not fit.
//
// A background goroutine started by Pump feeds inbound chunks as they
// arrive; callers that only need outbound buffering (no peer replies
// expected) can skip Pump entirely.
type ByteStream struct {
	mu     sync.Mutex
	conn   net.Conn
	active bool

	in      [][]byte
	inTotal int

	out      [][]byte
	outTotal int

	totalRead    uint64
	totalWritten uint64
}

// New wraps conn in a ByteStream. The stream is active immediately unless
// conn is nil.
func New(conn net.Conn) *ByteStream {
	return &ByteStream{conn: conn, active: conn != nil}
}

// SetConn rebinds the stream to a new connection, discarding any buffered
// data the way a freshly accepted socket would.
func (b *ByteStream) SetConn(conn net.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.in = nil
	b.out = nil
	b.inTotal = 0
	b.outTotal = 0
	b.conn = conn
	b.active = conn != nil
}

// IsActive reports whether the stream has a live underlying connection.
func (b *ByteStream) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Close releases the underlying connection and drops all buffered data.
func (b *ByteStream) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.active = false
	b.conn = nil
	b.in = nil
	b.out = nil
	b.inTotal = 0
	b.outTotal = 0
	b.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Pump runs a blocking read loop against the underlying connection,
// pushing each chunk it receives into the inbound queue, until the
// connection is closed or stop is closed. It is meant to run in its own
// goroutine; callers observe arrivals via ReadChunk/Pending, or, if onChunk
// is non-nil, by reacting to each chunk as it arrives (onChunk is called
// after the chunk has already been queued, so Pending/ReadChunk still see
// it if the callback chooses not to drain it).
func (b *ByteStream) Pump(stop <-chan struct{}, onChunk func([]byte)) error {
	buf := make([]byte, 4096)
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		b.mu.Lock()
		conn := b.conn
		b.mu.Unlock()
		if conn == nil {
			return ErrClosed
		}

		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			b.feed(chunk)
			if onChunk != nil {
				onChunk(chunk)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.mu.Lock()
				b.active = false
				b.mu.Unlock()
				return nil
			}
			return err
		}
	}
}

// feed appends a chunk the caller already owns to the inbound queue.
func (b *ByteStream) feed(chunk []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.in = append(b.in, chunk)
	b.inTotal += len(chunk)
	b.totalRead += uint64(len(chunk))
}

// Pending reports how many inbound bytes are currently buffered.
func (b *ByteStream) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inTotal
}

// HasPending reports whether any inbound bytes are waiting to be read.
func (b *ByteStream) HasPending() bool {
	return b.Pending() > 0
}

// ReadChunk pops the oldest buffered inbound chunk, or returns nil if the
// queue is empty. Unlike a stream Read, this never blocks and never splits
// a chunk — callers that need exact-length reads should use ReadN.
func (b *ByteStream) ReadChunk() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.in) == 0 {
		return nil
	}
	chunk := b.in[0]
	b.in = b.in[1:]
	b.inTotal -= len(chunk)
	return chunk
}

// ReadN drains up to n bytes from the inbound queue into a freshly owned
// slice, splitting the head chunk if it is larger than what is requested.
// It returns fewer than n bytes if the queue is exhausted first.
func (b *ByteStream) ReadN(n int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, 0, n)
	for len(out) < n && len(b.in) > 0 {
		head := b.in[0]
		need := n - len(out)
		if len(head) <= need {
			out = append(out, head...)
			b.inTotal -= len(head)
			b.in = b.in[1:]
		} else {
			out = append(out, head[:need]...)
			b.in[0] = head[need:]
			b.inTotal -= need
		}
	}
	return out
}

// Enqueue copies data and appends it to the outbound queue.
func (b *ByteStream) Enqueue(data []byte) {
	if len(data) == 0 {
		return
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)

	b.mu.Lock()
	b.out = append(b.out, chunk)
	b.outTotal += len(chunk)
	b.mu.Unlock()
}

// FlushPending attempts to write the head of the outbound queue without
// blocking indefinitely. It returns the number of bytes still queued after
// the attempt. A partial write re-queues the unwritten remainder.
func (b *ByteStream) FlushPending() (int, error) {
	b.mu.Lock()
	conn := b.conn
	if conn == nil {
		b.mu.Unlock()
		return 0, ErrClosed
	}
	if len(b.out) == 0 {
		remaining := b.outTotal
		b.mu.Unlock()
		return remaining, nil
	}
	head := b.out[0]
	b.mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(pollInterval))
	n, err := conn.Write(head)
	_ = conn.SetWriteDeadline(time.Time{})

	b.mu.Lock()
	defer b.mu.Unlock()

	if n > 0 {
		b.totalWritten += uint64(n)
		b.outTotal -= n
		if n >= len(head) {
			b.out = b.out[1:]
		} else {
			b.out[0] = head[n:]
		}
	}

	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return b.outTotal, nil
		}
		return b.outTotal, err
	}

	return b.outTotal, nil
}

// Stats returns the cumulative bytes read from and written to the
// underlying connection since construction.
func (b *ByteStream) Stats() (read, written uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalRead, b.totalWritten
}
