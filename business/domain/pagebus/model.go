package pagebus

import (
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/slug"
)

// Page represents a piece of tenant-owned content.
type Page struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Title        string
	Slug         slug.Slug
	Content      string
	TenantPublic bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FieldValues implements where.Record.
func (p Page) FieldValues(field string) []any {
	switch field {
	case where.ID:
		return []any{p.ID}
	case where.Tenant:
		return []any{p.TenantID}
	case where.TenantPublic:
		return []any{p.TenantPublic}
	case FieldSlug:
		return []any{p.Slug}
	}

	return nil
}

// NewPage contains information needed to create a new page.
type NewPage struct {
	TenantID uuid.UUID
	Title    string
	Slug     slug.Slug
	Content  string
}

// UpdatePage contains information needed to update a page.
type UpdatePage struct {
	Title   *string
	Slug    *slug.Slug
	Content *string
}
