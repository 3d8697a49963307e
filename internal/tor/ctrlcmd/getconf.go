package ctrlcmd

import "strings"

// GetConfCommand sends GETCONF for one or more configuration keys and
// collects every value returned for each, preserving the order Tor sent
// them in (a single key may have multiple values, e.g. multiple SocksPort
// lines).
type GetConfCommand struct {
	base

	keys   []string
	Values map[string][]string
}

// NewGetConf builds a GETCONF request for the given configuration keys.
func NewGetConf(keys []string, onDone func(err error)) *GetConfCommand {
	raw := []byte("GETCONF " + strings.Join(keys, " ") + "\r\n")
	return &GetConfCommand{
		base:   newBase(raw, onDone),
		keys:   keys,
		Values: make(map[string][]string),
	}
}

// Complete implements Command.
func (c *GetConfCommand) Complete(lines []ReplyLine) {
	final := lastLine(lines)
	if err := statusError(final.Status, final.Text); err != nil {
		c.finish(err)
		return
	}

	for _, l := range lines {
		key, val, ok := splitKeyValue(l.Text)
		if !ok {
			continue
		}
		c.Values[key] = append(c.Values[key], val)
	}
	c.finish(nil)
}

// Get returns the first value reported for key, or "" if Tor reported no
// value for it (the key is unset, or Tor did not answer it at all).
func (c *GetConfCommand) Get(key string) string {
	vals := c.Values[key]
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

// splitKeyValue splits a GETCONF/GETINFO reply line of the form
// "Key=Value" or bare "Key" (an unset config option) into its parts,
// unquoting Value if it is a QuotedString.
func splitKeyValue(text string) (key, val string, ok bool) {
	i := strings.IndexByte(text, '=')
	if i < 0 {
		return strings.TrimSpace(text), "", strings.TrimSpace(text) != ""
	}
	key = text[:i]
	rest := text[i+1:]
	if !strings.HasPrefix(rest, `"`) {
		return key, rest, true
	}
	val, _ = readQString(rest)
	return key, val, true
}
