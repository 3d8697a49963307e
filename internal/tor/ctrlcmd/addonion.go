package ctrlcmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/torhsd/torhsd/internal/tor/cryptokey"
	"github.com/torhsd/torhsd/internal/tor/torerr"
)

// OnionTarget is one "Port=virtport,target" mapping passed to ADD_ONION.
type OnionTarget struct {
	VirtPort int
	Target   string // host:port, or empty to map virtport to itself on localhost
}

func (t OnionTarget) String() string {
	if t.Target == "" {
		return strconv.Itoa(t.VirtPort)
	}
	return fmt.Sprintf("%d,%s", t.VirtPort, t.Target)
}

// AddOnionCommand publishes a hidden service with ADD_ONION, either
// having Tor generate a fresh key (NEW:ED25519-V3) or reusing an existing
// one.
type AddOnionCommand struct {
	base

	existingKey *cryptokey.Key

	ServiceID  string
	PrivateKey *cryptokey.Key
}

// NewAddOnionNewKey builds an ADD_ONION request that asks Tor to generate
// a fresh v3 key (NEW:ED25519-V3) and return it, so it can be persisted
// for reuse across restarts. ED25519-V3 is requested explicitly rather
// than NEW:BEST so a future Tor release that changes BEST's default
// cannot silently hand back a key type this client cannot parse.
func NewAddOnionNewKey(targets []OnionTarget, flags []string, onDone func(err error)) *AddOnionCommand {
	raw := buildAddOnion("NEW:ED25519-V3", targets, flags)
	return &AddOnionCommand{base: newBase(raw, onDone)}
}

// NewAddOnionExistingKey builds an ADD_ONION request that reuses a
// previously persisted key, so the service address remains stable across
// restarts.
func NewAddOnionExistingKey(key *cryptokey.Key, targets []OnionTarget, flags []string, onDone func(err error)) *AddOnionCommand {
	raw := buildAddOnion(string(key.Type())+":"+keyDataBase64(key), targets, flags)
	return &AddOnionCommand{base: newBase(raw, onDone), existingKey: key}
}

func buildAddOnion(keyArg string, targets []OnionTarget, flags []string) []byte {
	parts := []string{"ADD_ONION", keyArg}
	if len(flags) > 0 {
		parts = append(parts, "Flags="+strings.Join(flags, ","))
	}
	for _, t := range targets {
		parts = append(parts, "Port="+t.String())
	}
	return []byte(strings.Join(parts, " ") + "\r\n")
}

// keyDataBase64 strips the "ED25519-V3:" type prefix from a key's
// canonical serialization, since ADD_ONION wants just the base64 half
// after the colon that already appears in the command's KeyType prefix.
func keyDataBase64(key *cryptokey.Key) string {
	full := string(key.Bytes())
	_, data, _ := strings.Cut(full, ":")
	return data
}

// Complete implements Command.
func (c *AddOnionCommand) Complete(lines []ReplyLine) {
	final := lastLine(lines)
	if err := statusError(final.Status, final.Text); err != nil {
		c.finish(err)
		return
	}

	var keyType, keyBlob string
	for _, l := range lines {
		key, val, ok := splitKeyValue(l.Text)
		if !ok {
			continue
		}
		switch key {
		case "ServiceID":
			c.ServiceID = val
		case "PrivateKey":
			keyType, keyBlob, _ = strings.Cut(val, ":")
		}
	}

	if c.existingKey != nil {
		c.PrivateKey = c.existingKey
	} else if keyBlob != "" {
		key, err := loadGeneratedKey(keyType, keyBlob)
		if err != nil {
			c.finish(err)
			return
		}
		c.PrivateKey = key
	}

	if c.PrivateKey != nil && c.ServiceID != "" {
		if err := cryptokey.VerifyServiceID(c.PrivateKey.PublicKey(), c.ServiceID); err != nil {
			c.finish(torerr.Wrap(torerr.KindServicePublishFailed, err))
			return
		}
	}

	c.finish(nil)
}

func loadGeneratedKey(keyType, base64Blob string) (*cryptokey.Key, error) {
	if keyType != string(cryptokey.KeyTypeED25519V3) {
		return nil, torerr.New(torerr.KindKeyLoadFailed, "ctrlcmd: ADD_ONION returned unexpected key type "+keyType)
	}
	key, err := cryptokey.LoadFromFile([]byte(keyType + ":" + base64Blob))
	if err != nil {
		return nil, torerr.Wrap(torerr.KindKeyLoadFailed, err)
	}
	return key, nil
}
