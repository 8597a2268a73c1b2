// Package identity derives the stable identity hash used as the lookup key
// of the validation cache and as the only entropy source of the icon generators.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Len is the number of hexadecimal digits of an identity hash.
const Len = md5.Size * 2

// ErrInvalidHash is returned when a string is not a well formed identity hash.
var ErrInvalidHash = errors.New("invalid identity hash")

// Hash is the hex encoded MD5 digest of a normalized email address.
type Hash string

// FromEmail trims and lower-cases the email address and hashes it.
// Callers must reject empty addresses before calling it.
func FromEmail(email string) Hash {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return Hash(hex.EncodeToString(sum[:]))
}

// Parse validates an externally supplied hash. Upper-case digits are accepted
// and normalized to lower-case.
func Parse(s string) (Hash, error) {
	if len(s) != Len {
		return "", fmt.Errorf("%w: expected %d hex digits, got %d", ErrInvalidHash, Len, len(s))
	}
	s = strings.ToLower(s)
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return Hash(s), nil
}

// Valid reports whether h has the shape of an identity hash.
func (h Hash) Valid() bool {
	_, err := Parse(string(h))
	return err == nil && strings.ToLower(string(h)) == string(h)
}

// Byte returns the value of the two hex digits starting at offset.
// It panics if the hash is shorter than offset+2, so callers should
// check Valid first.
func (h Hash) Byte(offset int) int {
	return h.Hex(offset, 2)
}

// Hex returns the integer value of n hex digits starting at offset.
func (h Hash) Hex(offset, n int) int {
	v, err := strconv.ParseUint(string(h[offset:offset+n]), 16, 64)
	if err != nil {
		panic(fmt.Sprintf("identity: malformed hash %q", string(h)))
	}
	return int(v)
}

// SubDir returns the two level fan-out directory used by the file cache,
// e.g. "0/c" for "0cc175b9...".
func (h Hash) SubDir() string {
	return string(h[0:1]) + "/" + string(h[1:2])
}

func (h Hash) String() string {
	return string(h)
}
