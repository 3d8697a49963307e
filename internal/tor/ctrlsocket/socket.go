package ctrlsocket

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/torhsd/torhsd/internal/netutil"
	"github.com/torhsd/torhsd/internal/tor/ctrlcmd"
	"github.com/torhsd/torhsd/internal/tor/torerr"
)

// EventHandler receives the fully reassembled reply lines of one
// unsolicited event, keyed by its keyword (e.g. "STATUS_CLIENT", "HS_DESC").
type EventHandler func(lines []ctrlcmd.ReplyLine)

// Socket drives the line-oriented framing of the Tor Control Protocol
// over a single connection: it writes queued commands through a
// netutil.ByteStream, reads and reassembles reply lines (including
// "+...\r\n.\r\n" data blocks) with a bufio.Reader, pairs each completed
// reply with the command at the front of the FIFO queue, and dispatches
// "650"-prefixed event lines to registered handlers.
//
// A Socket is used from a single reader goroutine (Run) plus any number
// of callers of Send; all queue mutation is guarded by mu.
type Socket struct {
	conn   net.Conn
	stream *netutil.ByteStream
	reader *bufio.Reader

	mu    sync.Mutex
	queue []ctrlcmd.Command

	events map[string]EventHandler

	cmdLines   []ctrlcmd.ReplyLine
	eventLines []ctrlcmd.ReplyLine

	block       bool
	blockStatus int
	blockEvent  bool
	blockHeader string
	blockLines  []string
}

// New wraps conn in a Socket. The socket does not start reading until Run
// is called.
func New(conn net.Conn) *Socket {
	return &Socket{
		conn:   conn,
		stream: netutil.New(conn),
		reader: bufio.NewReader(conn),
		events: make(map[string]EventHandler),
	}
}

// RegisterEvent installs (or replaces) the handler invoked for the named
// event keyword. It is safe to call before or after Run starts.
func (s *Socket) RegisterEvent(keyword string, handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[keyword] = handler
}

// Send serializes cmd and queues it as the next FIFO command; its reply
// will be matched against the front of the queue in arrival order.
func (s *Socket) Send(cmd ctrlcmd.Command) error {
	s.mu.Lock()
	s.queue = append(s.queue, cmd)
	s.stream.Enqueue(cmd.Serialize())
	s.mu.Unlock()

	for {
		n, err := s.stream.FlushPending()
		if err != nil {
			return torerr.Wrap(torerr.KindConnectionLost, err)
		}
		if n == 0 {
			return nil
		}
	}
}

// Run reads from the connection until ctx is canceled or the connection
// closes, reassembling and dispatching every reply and event line it
// sees. It returns a torerr-tagged ConnectionLost error wrapping whatever
// ended the read loop, including the peer closing the connection and the
// close triggered by ctx.
func (s *Socket) Run(ctx context.Context) error {
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = s.conn.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if line != "" {
				s.handleLine(line)
			}
			return s.failAll(err)
		}
		s.handleLine(line)
	}
}

// Close shuts down the underlying connection, which causes Run to return.
func (s *Socket) Close() error {
	return s.stream.Close()
}

// failAll fails every queued command with a ConnectionLost error once the
// read loop cannot continue, and returns the same error for Run to return.
func (s *Socket) failAll(cause error) error {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()

	err := torerr.Wrap(torerr.KindConnectionLost, cause)
	for _, cmd := range queue {
		cmd.Fail(err)
	}
	return err
}

// handleLine processes a single CRLF-terminated line read from the
// connection, feeding it into whatever reply or event is currently being
// assembled.
func (s *Socket) handleLine(raw string) {
	text := strings.TrimRight(raw, "\r\n")

	if s.block {
		if text == "." {
			s.finishBlock()
			return
		}
		// Tor dot-stuffs lines that begin with '.' inside a data block by
		// doubling the leading dot; undo that here.
		if strings.HasPrefix(text, "..") {
			text = text[1:]
		}
		s.blockLines = append(s.blockLines, text)
		return
	}

	status, sep, body, ok := parseLine(text)
	if !ok {
		return
	}
	isEvent := status == 650

	switch sep {
	case '+':
		s.block = true
		s.blockStatus = status
		s.blockEvent = isEvent
		s.blockHeader = body
		s.blockLines = nil
	case '-':
		s.appendLine(isEvent, ctrlcmd.ReplyLine{Status: status, Sep: '-', Text: body})
	default:
		s.appendLine(isEvent, ctrlcmd.ReplyLine{Status: status, Sep: ' ', Text: body})
		s.finishReply(isEvent)
	}
}

// finishBlock packages the data block's header line (e.g. "circuit-status=")
// together with its body lines into a single ReplyLine, joined by "\n" with
// the header first, and feeds it back into the reply or event it belongs to.
func (s *Socket) finishBlock() {
	text := s.blockHeader + "\n" + strings.Join(s.blockLines, "\n")
	line := ctrlcmd.ReplyLine{Status: s.blockStatus, Sep: '+', Text: text}
	isEvent := s.blockEvent
	s.block = false
	s.blockHeader = ""
	s.blockLines = nil
	s.appendLine(isEvent, line)
}

func (s *Socket) appendLine(isEvent bool, line ctrlcmd.ReplyLine) {
	if isEvent {
		s.eventLines = append(s.eventLines, line)
	} else {
		s.cmdLines = append(s.cmdLines, line)
	}
}

// finishReply dispatches a just-completed reply: to the front of the
// command queue, or to the event handler matching the event's keyword.
func (s *Socket) finishReply(isEvent bool) {
	if isEvent {
		lines := s.eventLines
		s.eventLines = nil
		s.dispatchEvent(lines)
		return
	}

	lines := s.cmdLines
	s.cmdLines = nil

	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	cmd := s.queue[0]
	s.queue = s.queue[1:]
	s.mu.Unlock()

	cmd.Complete(lines)
}

// dispatchEvent finds the keyword in the first line of an event reply and
// invokes its registered handler, if any.
func (s *Socket) dispatchEvent(lines []ctrlcmd.ReplyLine) {
	if len(lines) == 0 {
		return
	}
	keyword, _, _ := strings.Cut(lines[0].Text, " ")

	s.mu.Lock()
	handler := s.events[keyword]
	s.mu.Unlock()

	if handler != nil {
		handler(lines)
	}
}

// parseLine splits "NNNSc..." into its status code, separator character,
// and trailing text.
func parseLine(text string) (status int, sep byte, body string, ok bool) {
	if len(text) < 4 {
		return 0, 0, "", false
	}
	n, err := strconv.Atoi(text[:3])
	if err != nil {
		return 0, 0, "", false
	}
	return n, text[3], text[4:], true
}
