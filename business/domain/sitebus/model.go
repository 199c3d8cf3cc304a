package sitebus

import (
	"time"

	"github.com/google/uuid"
)

// SiteConfig holds the presentation defaults of a tenant's site.
type SiteConfig struct {
	TenantID  uuid.UUID
	Title     string
	Header    string
	Footer    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UpdateSiteConfig contains information needed to update a site config.
type UpdateSiteConfig struct {
	Title  *string
	Header *string
	Footer *string
}
