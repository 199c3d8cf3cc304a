// Package sitebus provides business access to the per-tenant site
// configuration, including the defaults written when a tenant is created.
package sitebus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/nssmahe/portal/foundation/otel"
)

// ErrNotFound is returned when a tenant has no site config.
var ErrNotFound = errors.New("site config not found")

// Storer defines the behavior required by the sitebus to interact with the database.
type Storer interface {
	Create(ctx context.Context, sc SiteConfig) error
	Update(ctx context.Context, sc SiteConfig) error
	QueryByTenant(ctx context.Context, tenantID uuid.UUID) (SiteConfig, error)
}

// Core manages the set of APIs for site config access.
type Core struct {
	log    *logger.Logger
	storer Storer
}

// NewCore constructs a core for site config api access.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		log:    log,
		storer: storer,
	}
}

// Provision writes the default site config for a newly created tenant.
// Running it twice for the same tenant leaves the first config in place.
func (c *Core) Provision(ctx context.Context, t tenantbus.Tenant) error {
	ctx, span := otel.AddSpan(ctx, "business.sitebus.provision")
	defer span.End()

	now := time.Now()

	sc := SiteConfig{
		TenantID:  t.ID,
		Title:     t.Name,
		Header:    fmt.Sprintf("NSS %s", t.Name),
		Footer:    fmt.Sprintf("National Service Scheme, %s", t.Name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storer.Create(ctx, sc); err != nil {
		return fmt.Errorf("create: tenantID[%s]: %w", t.ID, err)
	}

	c.log.Info(ctx, "sitebus: provisioned", "tenant_id", t.ID, "slug", t.Slug)

	return nil
}

// Update modifies the site config of a tenant.
func (c *Core) Update(ctx context.Context, sc SiteConfig, usc UpdateSiteConfig) (SiteConfig, error) {
	ctx, span := otel.AddSpan(ctx, "business.sitebus.update")
	defer span.End()

	if usc.Title != nil {
		sc.Title = *usc.Title
	}

	if usc.Header != nil {
		sc.Header = *usc.Header
	}

	if usc.Footer != nil {
		sc.Footer = *usc.Footer
	}

	sc.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, sc); err != nil {
		return SiteConfig{}, fmt.Errorf("update: %w", err)
	}

	return sc, nil
}

// QueryByTenant returns the site config of the specified tenant.
func (c *Core) QueryByTenant(ctx context.Context, tenantID uuid.UUID) (SiteConfig, error) {
	ctx, span := otel.AddSpan(ctx, "business.sitebus.querybytenant")
	defer span.End()

	sc, err := c.storer.QueryByTenant(ctx, tenantID)
	if err != nil {
		return SiteConfig{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}

	return sc, nil
}
