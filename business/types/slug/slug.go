// Package slug represents the URL-safe handle of a tenant.
package slug

import (
	"fmt"
	"regexp"
	"strings"
)

// Slug represents a slug in the system.
type Slug struct {
	value string
}

// String returns the value of the slug.
func (s Slug) String() string {
	return s.value
}

// Equal provides support for the go-cmp package and testing.
func (s Slug) Equal(s2 Slug) bool {
	return s.value == s2.value
}

// MarshalText provides support for logging and any marshal needs.
func (s Slug) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}

// =============================================================================

var slugRegEx = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Parse parses the string value and returns a slug if the value complies
// with the rules for a slug.
func Parse(value string) (Slug, error) {
	if len(value) > 64 || !slugRegEx.MatchString(value) {
		return Slug{}, fmt.Errorf("invalid slug %q", value)
	}

	return Slug{value}, nil
}

// MustParse parses the string value and returns a slug if the value
// complies with the rules for a slug. If an error occurs the function panics.
func MustParse(value string) Slug {
	s, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return s
}

var nonSlugRegEx = regexp.MustCompile(`[^a-z0-9]+`)

// From derives a slug from free text, e.g. a tenant name.
func From(text string) (Slug, error) {
	v := nonSlugRegEx.ReplaceAllString(strings.ToLower(text), "-")
	return Parse(strings.Trim(v, "-"))
}
