// Package bloodgroup represents a volunteer's blood group.
package bloodgroup

import (
	"database/sql"
	"fmt"
)

// The set of blood groups that can be used.
var (
	APos  = newGroup("A+")
	ANeg  = newGroup("A-")
	BPos  = newGroup("B+")
	BNeg  = newGroup("B-")
	ABPos = newGroup("AB+")
	ABNeg = newGroup("AB-")
	OPos  = newGroup("O+")
	ONeg  = newGroup("O-")
)

// =============================================================================

// Set of known groups.
var groups = make(map[string]BloodGroup)

// BloodGroup represents a blood group in the system.
type BloodGroup struct {
	value string
}

func newGroup(group string) BloodGroup {
	g := BloodGroup{group}
	groups[group] = g
	return g
}

// String returns the value of the blood group.
func (g BloodGroup) String() string {
	return g.value
}

// Equal provides support for the go-cmp package and testing.
func (g BloodGroup) Equal(g2 BloodGroup) bool {
	return g.value == g2.value
}

// MarshalText provides support for logging and any marshal needs.
func (g BloodGroup) MarshalText() ([]byte, error) {
	return []byte(g.value), nil
}

// Parse parses the string value and returns a blood group if one exists.
func Parse(value string) (BloodGroup, error) {
	g, exists := groups[value]
	if !exists {
		return BloodGroup{}, fmt.Errorf("invalid blood group %q", value)
	}

	return g, nil
}

// MustParse parses the string value and returns a blood group if one exists.
// If an error occurs the function panics.
func MustParse(value string) BloodGroup {
	g, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return g
}

// =============================================================================

// Null represents a blood group that can be empty.
type Null struct {
	value string
	valid bool
}

// ToSQLNullString converts a Null value to a sql NullString.
func ToSQLNullString(n Null) sql.NullString {
	return sql.NullString{
		String: n.value,
		Valid:  n.valid,
	}
}

// Valid reports whether a blood group is set.
func (n Null) Valid() bool {
	return n.valid
}

// String returns the value of the blood group.
func (n Null) String() string {
	if !n.valid {
		return "NULL"
	}

	return n.value
}

// Equal provides support for the go-cmp package and testing.
func (n Null) Equal(n2 Null) bool {
	return n.value == n2.value && n.valid == n2.valid
}

// MarshalText provides support for logging and any marshal needs.
func (n Null) MarshalText() ([]byte, error) {
	return []byte(n.value), nil
}

// ParseNull parses the string value and returns a blood group if the value
// is one of the known groups. The empty string yields the null value.
func ParseNull(value string) (Null, error) {
	if value == "" {
		return Null{}, nil
	}

	g, err := Parse(value)
	if err != nil {
		return Null{}, err
	}

	return Null{g.value, true}, nil
}

// MustParseNull parses the string value and returns a blood group if the
// value is valid. If an error occurs the function panics.
func MustParseNull(value string) Null {
	n, err := ParseNull(value)
	if err != nil {
		panic(err)
	}

	return n
}
