package ctrlcmd

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/torhsd/torhsd/internal/tor/torerr"
)

// safecookieClientToServerKey and safecookieServerToClientKey are the fixed
// HMAC keys Tor's control-spec defines for the SAFECOOKIE handshake.
var (
	safecookieClientToServerKey = []byte("Tor safe cookie authentication controller-to-server hash")
	safecookieServerToClientKey = []byte("Tor safe cookie authentication server-to-controller hash")
)

// ClientNonceSize is the length, in bytes, of the client nonce sent with
// AUTHCHALLENGE.
const ClientNonceSize = 32

// AuthChallengeCommand sends AUTHCHALLENGE SAFECOOKIE and verifies the
// server's response hash before handing back the material needed to build
// the AUTHENTICATE request.
type AuthChallengeCommand struct {
	base

	clientNonce []byte
	cookie      []byte

	ServerHash  []byte
	ServerNonce []byte
}

// NewAuthChallenge builds an AUTHCHALLENGE SAFECOOKIE request. cookie is
// the contents of the cookie file named by PROTOCOLINFO's COOKIEFILE.
// A fresh random client nonce is generated internally.
func NewAuthChallenge(cookie []byte, onDone func(err error)) (*AuthChallengeCommand, error) {
	nonce := make([]byte, ClientNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("ctrlcmd: generate client nonce: %w", err)
	}
	raw := []byte("AUTHCHALLENGE SAFECOOKIE " + hex.EncodeToString(nonce) + "\r\n")
	c := &AuthChallengeCommand{
		base:        newBase(raw, onDone),
		clientNonce: nonce,
		cookie:      cookie,
	}
	return c, nil
}

// Complete implements Command.
func (c *AuthChallengeCommand) Complete(lines []ReplyLine) {
	final := lastLine(lines)
	if err := statusError(final.Status, final.Text); err != nil {
		c.finish(err)
		return
	}

	fields := splitFirst(final.Text)
	if fields[0] != "AUTHCHALLENGE" {
		c.finish(torerr.New(torerr.KindProtocolViolation, "ctrlcmd: AUTHCHALLENGE: not an AUTHCHALLENGE reply"))
		return
	}
	dict := parseQStringDict(fields[1])

	serverHashHex, ok := dict["SERVERHASH"]
	if !ok {
		c.finish(torerr.New(torerr.KindAuthFailed, "ctrlcmd: AUTHCHALLENGE: missing SERVERHASH"))
		return
	}
	serverNonceHex, ok := dict["SERVERNONCE"]
	if !ok {
		c.finish(torerr.New(torerr.KindAuthFailed, "ctrlcmd: AUTHCHALLENGE: missing SERVERNONCE"))
		return
	}

	serverHash, err := hex.DecodeString(serverHashHex)
	if err != nil {
		c.finish(torerr.Wrap(torerr.KindAuthFailed, err))
		return
	}
	serverNonce, err := hex.DecodeString(serverNonceHex)
	if err != nil {
		c.finish(torerr.Wrap(torerr.KindAuthFailed, err))
		return
	}

	wantServerHash := computeHash(safecookieServerToClientKey, c.cookie, c.clientNonce, serverNonce)
	if !hmac.Equal(serverHash, wantServerHash) {
		c.finish(torerr.New(torerr.KindAuthFailed, "ctrlcmd: AUTHCHALLENGE: server hash does not match expected cookie"))
		return
	}

	c.ServerHash = serverHash
	c.ServerNonce = serverNonce
	c.finish(nil)
}

// ClientAuthToken computes the token this client must send in the
// AUTHENTICATE request: HMAC-SHA256 over cookie||clientNonce||serverNonce
// under the controller-to-server key.
func (c *AuthChallengeCommand) ClientAuthToken() []byte {
	return computeHash(safecookieClientToServerKey, c.cookie, c.clientNonce, c.ServerNonce)
}

// computeHash implements the HMAC-SHA256(key, cookie||clientNonce||serverNonce)
// construction shared by both directions of the SAFECOOKIE handshake.
func computeHash(key, cookie, clientNonce, serverNonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(cookie)
	mac.Write(clientNonce)
	mac.Write(serverNonce)
	return mac.Sum(nil)
}

// splitFirst splits "KEYWORD rest-of-line" into its two parts, tolerating
// a line with no space by returning an empty second element.
func splitFirst(s string) [2]string {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return [2]string{s[:i], s[i+1:]}
		}
	}
	return [2]string{s, ""}
}
