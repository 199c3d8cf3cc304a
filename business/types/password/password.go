// Package password represents a clear text password in the system.
package password

import (
	"errors"
	"unicode/utf8"
)

// Password represents a password in the system.
type Password struct {
	value string
}

// String returns the value of the password.
func (p Password) String() string {
	return p.value
}

// Equal provides support for the go-cmp package and testing.
func (p Password) Equal(p2 Password) bool {
	return p.value == p2.value
}

// MarshalText never exposes the password.
func (p Password) MarshalText() ([]byte, error) {
	return []byte("********"), nil
}

// =============================================================================

// ErrEmpty is returned when no password was supplied.
var ErrEmpty = errors.New("password is required")

// bcrypt ignores everything past 72 bytes.
const maxBytes = 72

// Parse parses the string value and returns a password if the value complies
// with the rules for a password.
func Parse(value string) (Password, error) {
	if value == "" {
		return Password{}, ErrEmpty
	}

	if len(value) > maxBytes || !utf8.ValidString(value) {
		return Password{}, errors.New("invalid password")
	}

	return Password{value}, nil
}

// MustParse parses the string value and returns a password if the value
// complies with the rules for a password. If an error occurs the function panics.
func MustParse(value string) Password {
	pass, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return pass
}
