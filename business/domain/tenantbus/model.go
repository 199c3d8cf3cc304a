package tenantbus

import (
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/slug"
)

// FieldPublic filters tenants on their public-read flag.
const FieldPublic = "public"

// Tenant represents a campus or unit that owns its own members and content.
type Tenant struct {
	ID              uuid.UUID
	Name            string
	Slug            slug.Slug
	Domain          *string
	AllowPublicRead bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FieldValues implements where.Record.
func (t Tenant) FieldValues(field string) []any {
	switch field {
	case where.ID:
		return []any{t.ID}
	case FieldPublic:
		return []any{t.AllowPublicRead}
	}

	return nil
}

// NewTenant contains information needed to create a new tenant.
type NewTenant struct {
	Name            string
	Slug            slug.Slug
	Domain          *string
	AllowPublicRead bool
}

// UpdateTenant contains information needed to update a tenant.
type UpdateTenant struct {
	Name            *string
	Slug            *slug.Slug
	Domain          *string
	AllowPublicRead *bool
}
