// Package tenantrole represents the role a user holds inside a single tenant.
package tenantrole

import "fmt"

// The set of tenant roles that can be used.
var (
	TenantAdmin      = newRole("tenant-admin")
	TenantViewer     = newRole("tenant-viewer")
	ProgrammeOfficer = newRole("programme-officer")
	UnitHead         = newRole("unit-head")
	UnitSecretary    = newRole("unit-secretary")
	UnitVolunteer    = newRole("unit-volunteer")
)

// AdminEquivalent holds the roles that administer a tenant.
var AdminEquivalent = []Role{TenantAdmin, ProgrammeOfficer, UnitHead}

// Approvers holds the roles that approve or reject onboarded users.
var Approvers = []Role{ProgrammeOfficer, UnitHead}

// =============================================================================

// Set of known roles.
var roles = make(map[string]Role)

// Role represents a tenant role in the system.
type Role struct {
	value string
}

func newRole(role string) Role {
	r := Role{role}
	roles[role] = r
	return r
}

// String returns the name of the role.
func (r Role) String() string {
	return r.value
}

// Equal provides support for the go-cmp package and testing.
func (r Role) Equal(r2 Role) bool {
	return r.value == r2.value
}

// MarshalText provides support for logging and any marshal needs.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.value), nil
}

// In reports whether the role is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, r2 := range roles {
		if r.Equal(r2) {
			return true
		}
	}
	return false
}

// =============================================================================

// Parse parses the string value and returns a role if one exists.
func Parse(value string) (Role, error) {
	role, exists := roles[value]
	if !exists {
		return Role{}, fmt.Errorf("invalid tenant role %q", value)
	}

	return role, nil
}

// MustParse parses the string value and returns a role if one exists. If
// an error occurs the function panics.
func MustParse(value string) Role {
	role, err := Parse(value)
	if err != nil {
		panic(err)
	}

	return role
}

// All returns every known tenant role.
func All() []Role {
	return []Role{TenantAdmin, TenantViewer, ProgrammeOfficer, UnitHead, UnitSecretary, UnitVolunteer}
}
