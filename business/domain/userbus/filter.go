package userbus

import (
	"net/mail"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/status"
)

// Set of fields a user can be filtered on beyond where.ID and where.Tenant.
const (
	FieldEmail       = "email"
	FieldStatus      = "status"
	FieldToken       = "token"
	FieldTokenExpiry = "token_expiry"
)

// QueryFilter holds the available fields a query can be filtered on.
type QueryFilter struct {
	ID       *uuid.UUID
	Email    *mail.Address
	Status   *status.Status
	TenantID *uuid.UUID
}

// Clause converts the filter into a where clause.
func (qf QueryFilter) Clause() where.Clause {
	var cs []where.Clause

	if qf.ID != nil {
		cs = append(cs, where.Equals(where.ID, *qf.ID))
	}

	if qf.Email != nil {
		cs = append(cs, where.Equals(FieldEmail, NormalizeEmail(*qf.Email).Address))
	}

	if qf.Status != nil {
		cs = append(cs, where.Equals(FieldStatus, *qf.Status))
	}

	if qf.TenantID != nil {
		cs = append(cs, where.Equals(where.Tenant, *qf.TenantID))
	}

	if len(cs) == 0 {
		return where.All()
	}

	return where.And(cs...)
}
