package ctrlcmd

import (
	"strconv"
	"strings"
)

// GetInfoCommand sends GETINFO for one or more info keys (e.g.
// "status/bootstrap-phase", "net/listeners/socks") and collects the value
// returned for each.
type GetInfoCommand struct {
	base

	keys   []string
	Values map[string]string
}

// NewGetInfo builds a GETINFO request for the given info keys.
func NewGetInfo(keys []string, onDone func(err error)) *GetInfoCommand {
	raw := []byte("GETINFO " + strings.Join(keys, " ") + "\r\n")
	return &GetInfoCommand{
		base:   newBase(raw, onDone),
		keys:   keys,
		Values: make(map[string]string),
	}
}

// Complete implements Command.
func (c *GetInfoCommand) Complete(lines []ReplyLine) {
	final := lastLine(lines)
	if err := statusError(final.Status, final.Text); err != nil {
		c.finish(err)
		return
	}

	for _, l := range lines {
		if l.Sep == '+' {
			header, data, _ := strings.Cut(l.Text, "\n")
			key := strings.TrimSuffix(header, "=")
			c.Values[key] = data
			continue
		}
		key, val, ok := splitKeyValue(l.Text)
		if ok && key != "OK" {
			c.Values[key] = val
		}
	}
	c.finish(nil)
}

// Get returns the value reported for key, or "" if absent.
func (c *GetInfoCommand) Get(key string) string {
	return c.Values[key]
}

// BootstrapPhase describes Tor's self-reported bootstrap progress, parsed
// from the value of "status/bootstrap-phase".
type BootstrapPhase struct {
	Progress int
	Tag      string
	Summary  string
}

// ParseBootstrapPhase parses a status/bootstrap-phase value of the form
// `TAG=... PROGRESS=NN SUMMARY="..."`.
func ParseBootstrapPhase(value string) BootstrapPhase {
	dict := parseQStringDict(value)
	phase := BootstrapPhase{
		Tag:     dict["TAG"],
		Summary: dict["SUMMARY"],
	}
	if p, err := strconv.Atoi(dict["PROGRESS"]); err == nil {
		phase.Progress = p
	}
	return phase
}

// Done reports whether the bootstrap phase represents full readiness.
func (p BootstrapPhase) Done() bool {
	return p.Progress >= 100 || p.Tag == "done"
}
