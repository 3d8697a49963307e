package ctrlcmd

import "encoding/hex"

// AuthenticateCommand sends AUTHENTICATE with whichever credential its
// caller has already selected and prepared (a SAFECOOKIE token, a cookie
// file's raw bytes, a HASHEDPASSWORD cleartext, or nothing for NULL).
type AuthenticateCommand struct {
	base
}

// NewAuthenticateToken builds AUTHENTICATE for SAFECOOKIE or raw-cookie
// auth, where token is sent hex-encoded.
func NewAuthenticateToken(token []byte, onDone func(err error)) *AuthenticateCommand {
	raw := []byte("AUTHENTICATE " + hex.EncodeToString(token) + "\r\n")
	return &AuthenticateCommand{base: newBase(raw, onDone)}
}

// NewAuthenticatePassword builds AUTHENTICATE for HASHEDPASSWORD auth,
// where password is the operator-configured cleartext control password.
func NewAuthenticatePassword(password string, onDone func(err error)) *AuthenticateCommand {
	raw := []byte("AUTHENTICATE " + writeQString(password) + "\r\n")
	return &AuthenticateCommand{base: newBase(raw, onDone)}
}

// NewAuthenticateNull builds AUTHENTICATE with no credential, for a
// control port configured with no authentication at all.
func NewAuthenticateNull(onDone func(err error)) *AuthenticateCommand {
	return &AuthenticateCommand{base: newBase([]byte("AUTHENTICATE\r\n"), onDone)}
}

// Complete implements Command.
func (c *AuthenticateCommand) Complete(lines []ReplyLine) {
	final := lastLine(lines)
	c.finish(statusError(final.Status, final.Text))
}

// SelectAuthMethod picks the strongest method Tor offered, in the
// precedence SAFECOOKIE > HASHEDPASSWORD > COOKIE > NULL, and reports
// false if none of the offered methods are ones this client can perform.
func SelectAuthMethod(offered []string) (method string, ok bool) {
	precedence := []string{"SAFECOOKIE", "HASHEDPASSWORD", "COOKIE", "NULL"}
	offeredSet := make(map[string]bool, len(offered))
	for _, m := range offered {
		offeredSet[m] = true
	}
	for _, m := range precedence {
		if offeredSet[m] {
			return m, true
		}
	}
	return "", false
}
