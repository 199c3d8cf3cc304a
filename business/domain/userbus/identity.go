package userbus

import (
	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/tenantrole"
)

// IsSuperAdmin reports whether the principal holds the global super-admin
// role. A nil principal is never a super-admin.
func IsSuperAdmin(p *User) bool {
	if p == nil {
		return false
	}

	for _, r := range p.Roles {
		if r.Equal(role.SuperAdmin) {
			return true
		}
	}

	return false
}

// TenantIDs returns the tenants where the principal holds any of roles, or
// every tenant it belongs to when no role is given. The order follows the
// principal's memberships.
func TenantIDs(p *User, roles ...tenantrole.Role) []uuid.UUID {
	if p == nil {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(p.Tenants))
	for _, m := range p.Tenants {
		if len(roles) == 0 || m.Role.In(roles...) {
			ids = append(ids, m.TenantID)
		}
	}

	return ids
}

// IsSelf reports whether targetID is the principal's own id.
func IsSelf(p *User, targetID uuid.UUID) bool {
	if p == nil || targetID == uuid.Nil {
		return false
	}

	return p.ID == targetID
}

// SharesTenant reports whether the principal holds one of roles on a tenant
// the target belongs to.
func SharesTenant(p *User, target User, roles ...tenantrole.Role) bool {
	for _, id := range TenantIDs(p, roles...) {
		for _, m := range target.Tenants {
			if m.TenantID == id {
				return true
			}
		}
	}

	return false
}
