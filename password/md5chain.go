package password

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const (
	// PublicSalt is the fixed salt of the client-side stage.
	PublicSalt = "1a2b3c4d"

	// MinSaltLength is the shortest salt the chain can index into.
	MinSaltLength = 6

	// HashLength is the length of every hex-encoded stage output.
	HashLength = md5.Size * 2

	defaultSaltBytes = 4
)

// ErrSaltTooShort is returned when a salt cannot supply the positions the
// chain reads from.
var ErrSaltTooShort = errors.New("salt shorter than 6 characters")

// MD5Chain computes and verifies two-stage salted hashes.
//
// The zero value is ready to use. MD5Chain holds no state and is safe for
// concurrent use.
type MD5Chain struct {
	// Rand overrides the salt entropy source. nil means crypto/rand.
	Rand io.Reader
}

// ValidateSalt reports whether salt is usable by the chain. Length counts
// characters, not bytes.
func ValidateSalt(salt string) error {
	if n := utf8.RuneCountInString(salt); n < MinSaltLength {
		return fmt.Errorf("%w: got %d", ErrSaltTooShort, n)
	}
	return nil
}

// FormHash is the first stage: plaintext over the public salt.
func (MD5Chain) FormHash(plain string) string {
	out, _ := stage(plain, PublicSalt)
	return out
}

// DBHash is the second stage: a form hash over the per-user salt.
func (MD5Chain) DBHash(formHash, salt string) (string, error) {
	return stage(formHash, salt)
}

// Hash runs both stages.
func (c MD5Chain) Hash(plain, salt string) (string, error) {
	return c.DBHash(c.FormHash(plain), salt)
}

// Verify compares the second stage of formHash against stored byte for byte.
//
// A short salt is reported as an error, never as a mismatch, so that a broken
// user record is distinguishable from a wrong password.
func (c MD5Chain) Verify(formHash, salt, stored string) (bool, error) {
	computed, err := c.DBHash(formHash, salt)
	if err != nil {
		return false, err
	}
	if len(computed) != len(stored) {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1, nil
}

// NewSalt returns an 8 character lowercase hex salt.
func (c MD5Chain) NewSalt() (string, error) {
	src := c.Rand
	if src == nil {
		src = rand.Reader
	}

	var raw [defaultSaltBytes]byte
	if _, err := io.ReadFull(src, raw[:]); err != nil {
		return "", fmt.Errorf("read salt entropy: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

func stage(middle, salt string) (string, error) {
	if err := ValidateSalt(salt); err != nil {
		return "", err
	}
	chars := []rune(salt)

	var b strings.Builder
	b.Grow(len(middle) + 4*utf8.UTFMax)
	b.WriteRune(chars[0])
	b.WriteRune(chars[2])
	b.WriteString(middle)
	b.WriteRune(chars[5])
	b.WriteRune(chars[4])

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:]), nil
}
