package ctrlcmd

import "strings"

// writeQString renders s as a Tor control-protocol QuotedString if it
// contains characters that would otherwise be ambiguous in a
// space-delimited line, and returns it unquoted otherwise.
func writeQString(s string) string {
	if !strings.ContainsAny(s, " \t\r\n\"") {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// readQString parses a QuotedString (or a bare token, if s does not start
// with '"') starting at the beginning of s, returning the unescaped value
// and the number of bytes of s it consumed.
func readQString(s string) (string, int) {
	if s == "" || s[0] != '"' {
		end := strings.IndexByte(s, ' ')
		if end < 0 {
			end = len(s)
		}
		return s[:end], end
	}

	var b strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		if c == '"' {
			i++
			break
		}
		if c == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'r':
				b.WriteByte('\r')
			case 'n':
				b.WriteByte('\n')
			default:
				b.WriteByte(s[i])
			}
			i++
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String(), i
}

// parseQStringDict parses a sequence of space-separated KEY=VALUE pairs,
// where VALUE may be a QuotedString, as found in AUTHCHALLENGE and
// PROTOCOLINFO AUTH lines.
func parseQStringDict(s string) map[string]string {
	out := make(map[string]string)
	i := 0
	for i < len(s) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			break
		}
		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			break
		}
		key := s[i : i+eq]
		i += eq + 1
		val, n := readQString(s[i:])
		out[key] = val
		i += n
	}
	return out
}
