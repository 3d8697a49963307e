package ctrlcmd

import "strings"

// SetConfCommand sends SETCONF with one or more key=value pairs.
type SetConfCommand struct {
	base
}

// NewSetConf builds a SETCONF request. Values containing characters that
// require quoting are quoted automatically.
func NewSetConf(values map[string]string, onDone func(err error)) *SetConfCommand {
	parts := make([]string, 0, len(values))
	for k, v := range values {
		if v == "" {
			parts = append(parts, k)
			continue
		}
		parts = append(parts, k+"="+writeQString(v))
	}
	raw := []byte("SETCONF " + strings.Join(parts, " ") + "\r\n")
	return &SetConfCommand{base: newBase(raw, onDone)}
}

// Complete implements Command.
func (c *SetConfCommand) Complete(lines []ReplyLine) {
	final := lastLine(lines)
	c.finish(statusError(final.Status, final.Text))
}
