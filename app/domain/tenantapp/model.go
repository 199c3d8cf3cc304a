package tenantapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/domain/sitebus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/types/slug"
)

// Tenant represents a campus or unit.
type Tenant struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	Domain          string `json:"domain,omitempty"`
	AllowPublicRead bool   `json:"allowPublicRead"`
	DateCreated     string `json:"dateCreated"`
	DateUpdated     string `json:"dateUpdated"`
}

// Encode implements the web.Encoder interface.
func (app Tenant) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppTenant(bus tenantbus.Tenant) Tenant {
	var domain string
	if bus.Domain != nil {
		domain = *bus.Domain
	}

	return Tenant{
		ID:              bus.ID.String(),
		Name:            bus.Name,
		Slug:            bus.Slug.String(),
		Domain:          domain,
		AllowPublicRead: bus.AllowPublicRead,
		DateCreated:     bus.CreatedAt.Format(time.RFC3339),
		DateUpdated:     bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppTenants(tenants []tenantbus.Tenant) []Tenant {
	app := make([]Tenant, len(tenants))
	for i, t := range tenants {
		app[i] = toAppTenant(t)
	}
	return app
}

// =============================================================================

// NewTenant defines the data needed to add a tenant. The slug is derived
// from the name when omitted.
type NewTenant struct {
	Name            string  `json:"name" validate:"required"`
	Slug            string  `json:"slug"`
	Domain          *string `json:"domain" validate:"omitempty,fqdn"`
	AllowPublicRead bool    `json:"allowPublicRead"`
}

// Decode implements the web.Decoder interface.
func (app *NewTenant) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewTenant) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusNewTenant(app NewTenant) (tenantbus.NewTenant, error) {
	var (
		s   slug.Slug
		err error
	)

	switch app.Slug {
	case "":
		s, err = slug.From(app.Name)
	default:
		s, err = slug.Parse(app.Slug)
	}
	if err != nil {
		return tenantbus.NewTenant{}, fmt.Errorf("parse slug: %w", err)
	}

	bus := tenantbus.NewTenant{
		Name:            app.Name,
		Slug:            s,
		Domain:          app.Domain,
		AllowPublicRead: app.AllowPublicRead,
	}

	return bus, nil
}

// UpdateTenant defines the data needed to update a tenant.
type UpdateTenant struct {
	Name            *string `json:"name"`
	Slug            *string `json:"slug"`
	Domain          *string `json:"domain" validate:"omitempty,fqdn"`
	AllowPublicRead *bool   `json:"allowPublicRead"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateTenant) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdateTenant) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusUpdateTenant(app UpdateTenant) (tenantbus.UpdateTenant, error) {
	ut := tenantbus.UpdateTenant{
		Name:            app.Name,
		Domain:          app.Domain,
		AllowPublicRead: app.AllowPublicRead,
	}

	if app.Slug != nil {
		s, err := slug.Parse(*app.Slug)
		if err != nil {
			return tenantbus.UpdateTenant{}, fmt.Errorf("parse slug: %w", err)
		}
		ut.Slug = &s
	}

	return ut, nil
}

// =============================================================================

// Site is the presentation config of a tenant's site.
type Site struct {
	TenantID string `json:"tenantId"`
	Title    string `json:"title"`
	Header   string `json:"header"`
	Footer   string `json:"footer"`
}

// Encode implements the web.Encoder interface.
func (app Site) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppSite(bus sitebus.SiteConfig) Site {
	return Site{
		TenantID: bus.TenantID.String(),
		Title:    bus.Title,
		Header:   bus.Header,
		Footer:   bus.Footer,
	}
}

// UpdateSite defines the data needed to update a site config.
type UpdateSite struct {
	Title  *string `json:"title"`
	Header *string `json:"header"`
	Footer *string `json:"footer"`
}

// Decode implements the web.Decoder interface.
func (app *UpdateSite) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

func toBusUpdateSite(app UpdateSite) sitebus.UpdateSiteConfig {
	return sitebus.UpdateSiteConfig{
		Title:  app.Title,
		Header: app.Header,
		Footer: app.Footer,
	}
}
