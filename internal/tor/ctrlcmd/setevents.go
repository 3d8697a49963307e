package ctrlcmd

import "strings"

// SetEventsCommand subscribes to, or replaces the subscription for, a set
// of asynchronous event keywords (e.g. STATUS_CLIENT, HS_DESC). Each call
// replaces the prior subscription set; it does not add to it.
type SetEventsCommand struct {
	base
}

// NewSetEvents builds a SETEVENTS request for the given event keywords.
// An empty slice clears all subscriptions.
func NewSetEvents(events []string, onDone func(err error)) *SetEventsCommand {
	raw := []byte("SETEVENTS " + strings.Join(events, " ") + "\r\n")
	return &SetEventsCommand{base: newBase(raw, onDone)}
}

// Complete implements Command.
func (c *SetEventsCommand) Complete(lines []ReplyLine) {
	final := lastLine(lines)
	c.finish(statusError(final.Status, final.Text))
}
