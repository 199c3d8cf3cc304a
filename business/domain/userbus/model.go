package userbus

import (
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/bloodgroup"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/password"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/business/types/tenantrole"
)

// Membership is a role grant inside a single tenant.
type Membership struct {
	TenantID uuid.UUID
	Role     tenantrole.Role
}

// User represents an individual account and is the principal every access
// decision is made for.
type User struct {
	ID                 uuid.UUID
	Name               name.Name
	Email              mail.Address
	InstitutionalEmail mail.Address
	About              string
	Position           string
	BloodGroup         bloodgroup.Null
	ProfilePicture     *uuid.UUID
	Roles              []role.Role
	Tenants            []Membership
	PasswordHash       []byte
	OnboardingToken    *string
	TokenExpiry        *time.Time
	Status             status.Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// FieldValues implements where.Record.
func (u User) FieldValues(field string) []any {
	switch field {
	case where.ID:
		return []any{u.ID}

	case where.Tenant:
		ids := make([]any, len(u.Tenants))
		for i, m := range u.Tenants {
			ids[i] = m.TenantID
		}
		return ids

	case FieldEmail:
		return []any{u.Email.Address}

	case FieldStatus:
		return []any{u.Status}

	case FieldToken:
		if u.OnboardingToken == nil {
			return nil
		}
		return []any{*u.OnboardingToken}

	case FieldTokenExpiry:
		if u.TokenExpiry == nil {
			return nil
		}
		return []any{*u.TokenExpiry}
	}

	return nil
}

// NewUser contains information needed to create a new user.
type NewUser struct {
	Name               name.Name
	Email              mail.Address
	InstitutionalEmail mail.Address
	Roles              []role.Role
	Tenants            []Membership
	Password           *password.Password
	Status             status.Status
	OnboardingToken    *string
	TokenExpiry        *time.Time
}

// UpdateUser contains information needed to update a user.
type UpdateUser struct {
	Name               *name.Name
	Email              *mail.Address
	InstitutionalEmail *mail.Address
	About              *string
	Position           *string
	BloodGroup         *bloodgroup.Null
	ProfilePicture     *uuid.UUID
	Roles              []role.Role
	Tenants            []Membership
	Password           *password.Password
	Status             *status.Status
}
