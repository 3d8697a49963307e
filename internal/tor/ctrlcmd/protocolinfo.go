package ctrlcmd

import (
	"fmt"
	"strings"
)

// ControlProtocolVersion is the control protocol version this client
// requests in its PROTOCOLINFO command. Tor has never defined a version
// other than 1; a client is expected to send the versions it understands
// and fail if none of them come back in the reply.
const ControlProtocolVersion = "1"

// ProtocolInfoCommand sends PROTOCOLINFO and parses the control protocol
// version, Tor's version string, the offered authentication methods, and
// any cookie file paths it advertises.
type ProtocolInfoCommand struct {
	base

	PIVersion   string
	TorVersion  string
	AuthMethods []string
	CookieFile  string
}

// NewProtocolInfo builds a PROTOCOLINFO request. onDone, if non-nil, is
// invoked once the command completes or fails.
func NewProtocolInfo(onDone func(err error)) *ProtocolInfoCommand {
	c := &ProtocolInfoCommand{base: newBase([]byte(fmt.Sprintf("PROTOCOLINFO %s\r\n", ControlProtocolVersion)), onDone)}
	return c
}

// Complete implements Command.
func (c *ProtocolInfoCommand) Complete(lines []ReplyLine) {
	final := lastLine(lines)
	if err := statusError(final.Status, final.Text); err != nil {
		c.finish(err)
		return
	}

	for _, l := range lines {
		fields := strings.SplitN(l.Text, " ", 2)
		switch fields[0] {
		case "PROTOCOLINFO":
			if len(fields) == 2 {
				c.PIVersion = fields[1]
			}
		case "AUTH":
			if len(fields) != 2 {
				continue
			}
			dict := parseQStringDict(fields[1])
			if methods, ok := dict["METHODS"]; ok {
				c.AuthMethods = strings.Split(methods, ",")
			}
			if cookie, ok := dict["COOKIEFILE"]; ok {
				c.CookieFile = cookie
			}
		case "VERSION":
			if len(fields) != 2 {
				continue
			}
			dict := parseQStringDict(fields[1])
			c.TorVersion = dict["Tor"]
		}
	}

	c.finish(nil)
}

// SupportsMethod reports whether Tor advertised the named auth method
// (e.g. "SAFECOOKIE", "HASHEDPASSWORD", "NULL") in its PROTOCOLINFO reply.
func (c *ProtocolInfoCommand) SupportsMethod(method string) bool {
	for _, m := range c.AuthMethods {
		if m == method {
			return true
		}
	}
	return false
}
