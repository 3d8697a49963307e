package cryptokey

import (
	"crypto/ed25519"
	cryptorand "crypto/rand"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// KeyType identifies the on-disk encoding of a private key, matching the
// tags Tor itself uses in ADD_ONION requests and replies.
type KeyType string

const (
	// KeyTypeED25519V3 is the modern v3 onion service key type. This is
	// the only type this package will create or authenticate with.
	KeyTypeED25519V3 KeyType = "ED25519-V3"

	// KeyTypeRSA1024 is the legacy v2 onion service key type. It is
	// recognized on load only so it can be rejected with a clear error.
	KeyTypeRSA1024 KeyType = "RSA1024"
)

const (
	// onionV3Version is the version byte embedded in a v3 service address.
	onionV3Version = 0x03

	// onionV3AddressLen is the decoded length of a v3 address: a 32-byte
	// ed25519 public key, a 2-byte checksum, and a 1-byte version.
	onionV3AddressLen = ed25519.PublicKeySize + 2 + 1
)

// checksumPrefix is specified by the Tor rendezvous spec for v3 address
// checksums: SHA3-256(".onion checksum" || pubkey || version)[:2].
var checksumPrefix = []byte(".onion checksum")

// Key holds a long-lived onion-service private key together with its type
// tag. The zero value is not valid; use LoadFromFile, LoadFromData, or
// GenerateKey.
type Key struct {
	keyType KeyType
	seed    []byte // ed25519 seed (32 bytes) for KeyTypeED25519V3
	pub     ed25519.PublicKey
}

// Type returns the key's on-disk type tag.
func (k *Key) Type() KeyType {
	return k.keyType
}

// GenerateKey creates a fresh v3 onion-service identity.
func GenerateKey() (*Key, error) {
	pub, priv, err := ed25519.GenerateKey(cryptorand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptokey: generate ed25519 key: %w", err)
	}
	return &Key{
		keyType: KeyTypeED25519V3,
		seed:    priv.Seed(),
		pub:     pub,
	}, nil
}

// LoadFromData parses key material of the given type.
//
// For KeyTypeED25519V3, data is the raw 32-byte ed25519 seed (as decoded
// from the base64 half of an "ED25519-V3:<base64>" line). For
// KeyTypeRSA1024, data is accepted only long enough to be rejected with
// ErrLegacyKeyUnsupported.
func LoadFromData(data []byte, keyType KeyType) (*Key, error) {
	switch keyType {
	case KeyTypeED25519V3:
		if len(data) != ed25519.SeedSize {
			return nil, fmt.Errorf("%w: ed25519 seed must be %d bytes, got %d", ErrKeyLoadFailed, ed25519.SeedSize, len(data))
		}
		priv := ed25519.NewKeyFromSeed(data)
		pub, ok := priv.Public().(ed25519.PublicKey)
		if !ok {
			return nil, fmt.Errorf("%w: could not derive public key", ErrKeyLoadFailed)
		}
		seed := make([]byte, ed25519.SeedSize)
		copy(seed, data)
		return &Key{keyType: KeyTypeED25519V3, seed: seed, pub: pub}, nil
	case KeyTypeRSA1024:
		return nil, ErrLegacyKeyUnsupported
	default:
		return nil, ErrUnknownKeyType
	}
}

// LoadFromFile parses the contents of a private_key file.
//
// It accepts Tor's raw "ED25519-V3:<base64>" line format and detects
// (then rejects) PEM-encoded RSA1024 legacy keys.
func LoadFromFile(contents []byte) (*Key, error) {
	text := strings.TrimSpace(string(contents))
	if text == "" {
		return nil, fmt.Errorf("%w: empty key file", ErrKeyLoadFailed)
	}

	if strings.Contains(text, "BEGIN RSA PRIVATE KEY") {
		return nil, ErrLegacyKeyUnsupported
	}

	prefix := string(KeyTypeED25519V3) + ":"
	if !strings.HasPrefix(text, prefix) {
		return nil, fmt.Errorf("%w: unrecognized key encoding", ErrKeyLoadFailed)
	}

	encoded := strings.TrimPrefix(text, prefix)
	seed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrKeyLoadFailed, err)
	}
	return LoadFromData(seed, KeyTypeED25519V3)
}

// Bytes returns the canonical on-disk serialization: "ED25519-V3:<base64>",
// with no trailing newline. The persistence layer appends its own
// trailing newline when it writes the file.
func (k *Key) Bytes() []byte {
	encoded := base64.StdEncoding.EncodeToString(k.seed)
	return []byte(string(k.keyType) + ":" + encoded)
}

// PublicKey returns the ed25519 public key backing this identity.
func (k *Key) PublicKey() ed25519.PublicKey {
	return k.pub
}

// PrivateKey reconstructs the full ed25519 private key from the stored
// seed, for signing operations that need it.
func (k *Key) PrivateKey() ed25519.PrivateKey {
	return ed25519.NewKeyFromSeed(k.seed)
}

// ServiceID derives the 56-character lowercase base32 v3 service id for
// this key. It never reads a stored id: the id is always computed fresh
// from the public key.
func (k *Key) ServiceID() (string, error) {
	if k.keyType != KeyTypeED25519V3 {
		return "", ErrLegacyKeyUnsupported
	}
	return ServiceIDFromPublicKey(k.pub)
}

// ServiceIDFromPublicKey computes the 56-character service id for a raw
// ed25519 public key, independent of any Key instance. This is what lets
// a service id reported by Tor's ADD_ONION reply be cross-checked against
// a locally held key.
func ServiceIDFromPublicKey(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", fmt.Errorf("%w: public key must be %d bytes", ErrKeyLoadFailed, ed25519.PublicKeySize)
	}

	checksum := v3Checksum(pub)

	addr := make([]byte, 0, onionV3AddressLen)
	addr = append(addr, pub...)
	addr = append(addr, checksum...)
	addr = append(addr, onionV3Version)

	return strings.ToLower(base32.StdEncoding.EncodeToString(addr)), nil
}

// v3Checksum computes the first two bytes of
// SHA3-256(".onion checksum" || pubkey || version).
func v3Checksum(pub ed25519.PublicKey) []byte {
	data := make([]byte, 0, len(checksumPrefix)+len(pub)+1)
	data = append(data, checksumPrefix...)
	data = append(data, pub...)
	data = append(data, onionV3Version)

	sum := sha3.Sum256(data)
	return sum[:2]
}

// VerifyServiceID reports whether id is the service id derived from pub,
// the cross-check performed after ADD_ONION returns a ServiceID.
func VerifyServiceID(pub ed25519.PublicKey, id string) error {
	want, err := ServiceIDFromPublicKey(pub)
	if err != nil {
		return err
	}
	if !strings.EqualFold(want, id) {
		return ErrServiceIDMismatch
	}
	return nil
}
