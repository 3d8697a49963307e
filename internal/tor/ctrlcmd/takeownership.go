package ctrlcmd

// TakeOwnershipCommand sends TAKEOWNERSHIP, asking Tor to exit when this
// control connection closes rather than lingering as an orphaned process.
type TakeOwnershipCommand struct {
	base
}

// NewTakeOwnership builds a TAKEOWNERSHIP request.
func NewTakeOwnership(onDone func(err error)) *TakeOwnershipCommand {
	return &TakeOwnershipCommand{base: newBase([]byte("TAKEOWNERSHIP\r\n"), onDone)}
}

// Complete implements Command.
func (c *TakeOwnershipCommand) Complete(lines []ReplyLine) {
	final := lastLine(lines)
	c.finish(statusError(final.Status, final.Text))
}
