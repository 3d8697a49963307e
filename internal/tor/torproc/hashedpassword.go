package torproc

import (
	cryptorand "crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// s2kIndicator is the "c" byte Tor's own `tor --hash-password` uses by
// default (EXPBIAS-encoded count of 65536): 0x60.
const s2kIndicator byte = 0x60

// hashControlPassword computes a HashedControlPassword value in Tor's own
// salted-SHA1 S2K format, the same RFC2440-style construction
// tor --hash-password uses. This is not a standard KDF implemented by any
// general-purpose crypto library; it is reproduced here bit-for-bit from
// Tor's own algorithm.
func hashControlPassword(password string) (string, error) {
	salt := make([]byte, 8)
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}
	return hashControlPasswordWithSalt(salt, s2kIndicator, password), nil
}

// hashControlPasswordWithSalt implements Tor's secret_to_key_rfc2440: the
// salt and indicator byte together form a 9-byte S2K specifier; the
// salt+password buffer is repeated and fed to SHA-1 until exactly `count`
// bytes (derived from the indicator) have been hashed.
func hashControlPasswordWithSalt(salt []byte, indicator byte, password string) string {
	count := (uint32(16) + uint32(indicator&0x0f)) << (uint32(indicator>>4) + 6)

	buf := make([]byte, 0, len(salt)+len(password))
	buf = append(buf, salt...)
	buf = append(buf, []byte(password)...)

	h := sha1.New()
	remaining := int(count)
	for remaining > 0 {
		n := len(buf)
		if n > remaining {
			n = remaining
		}
		h.Write(buf[:n])
		remaining -= n
	}
	digest := h.Sum(nil)

	var b strings.Builder
	b.WriteString("16:")
	b.WriteString(strings.ToUpper(hex.EncodeToString(salt)))
	b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{indicator})))
	b.WriteString(strings.ToUpper(hex.EncodeToString(digest)))
	return b.String()
}
