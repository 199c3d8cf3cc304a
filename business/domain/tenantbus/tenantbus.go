// Package tenantbus provides business access to tenant domain.
package tenantbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/slug"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/nssmahe/portal/foundation/otel"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound       = errors.New("tenant not found")
	ErrDomainNotFound = errors.New("domain not found")
	ErrUniqueSlug     = errors.New("slug is not unique")
	ErrUniqueDomain   = errors.New("domain is not unique")
)

// Storer defines the behavior required by the tenantbus to interact with the database.
type Storer interface {
	Create(ctx context.Context, t Tenant) error
	Update(ctx context.Context, t Tenant) error
	Delete(ctx context.Context, t Tenant) error
	Query(ctx context.Context, filter where.Clause, orderBy order.By, page page.Page) ([]Tenant, error)
	Count(ctx context.Context, filter where.Clause) (int, error)
	QueryByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error)
	QueryIDBySlug(ctx context.Context, slug slug.Slug) (uuid.UUID, error)
	QueryByDomain(ctx context.Context, domain string) (Tenant, error)
}

// Core manages the set of APIs for tenant access.
type Core struct {
	storer Storer
	log    *logger.Logger
}

// NewCore constructs a core for tenant api access.
func NewCore(log *logger.Logger, storer Storer) *Core {
	return &Core{
		storer: storer,
		log:    log,
	}
}

// Create adds a new tenant to the system. Provisioning of the tenant's
// default records is the caller's job.
func (c *Core) Create(ctx context.Context, nt NewTenant) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.create")
	defer span.End()

	now := time.Now()

	t := Tenant{
		ID:              uuid.New(),
		Name:            nt.Name,
		Slug:            nt.Slug,
		Domain:          normalizeDomain(nt.Domain),
		AllowPublicRead: nt.AllowPublicRead,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := c.storer.Create(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("create: %w", err)
	}

	return t, nil
}

// Update modifies data about a tenant.
func (c *Core) Update(ctx context.Context, t Tenant, ut UpdateTenant) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.update")
	defer span.End()

	if ut.Name != nil {
		t.Name = *ut.Name
	}

	if ut.Slug != nil {
		t.Slug = *ut.Slug
	}

	if ut.Domain != nil {
		t.Domain = normalizeDomain(ut.Domain)
	}

	if ut.AllowPublicRead != nil {
		t.AllowPublicRead = *ut.AllowPublicRead
	}

	t.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, t); err != nil {
		return Tenant{}, fmt.Errorf("update: %w", err)
	}

	return t, nil
}

// Delete removes the specified tenant from the system.
func (c *Core) Delete(ctx context.Context, t Tenant) error {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.delete")
	defer span.End()

	if err := c.storer.Delete(ctx, t); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves a list of existing tenants.
func (c *Core) Query(ctx context.Context, filter where.Clause, orderBy order.By, page page.Page) ([]Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.query")
	defer span.End()

	if filter.IsNone() {
		return []Tenant{}, nil
	}

	tenants, err := c.storer.Query(ctx, filter, orderBy, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return tenants, nil
}

// Count returns the total number of tenants.
func (c *Core) Count(ctx context.Context, filter where.Clause) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.count")
	defer span.End()

	if filter.IsNone() {
		return 0, nil
	}

	return c.storer.Count(ctx, filter)
}

// QueryByID finds the tenant by the specified ID.
func (c *Core) QueryByID(ctx context.Context, tenantID uuid.UUID) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.querybyid")
	defer span.End()

	tenant, err := c.storer.QueryByID(ctx, tenantID)
	if err != nil {
		return Tenant{}, fmt.Errorf("query: tenantID[%s]: %w", tenantID, err)
	}

	return tenant, nil
}

// QueryIDBySlug returns the tenant ID for the specified slug string.
func (c *Core) QueryIDBySlug(ctx context.Context, s slug.Slug) (uuid.UUID, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.queryidbyslug")
	defer span.End()

	id, err := c.storer.QueryIDBySlug(ctx, s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("query by slug[%s]: %w", s, err)
	}

	return id, nil
}

// ResolveDomain translates a host name (e.g. "mit.nssmahe.edu") into the
// tenant served on it.
func (c *Core) ResolveDomain(ctx context.Context, domain string) (Tenant, error) {
	ctx, span := otel.AddSpan(ctx, "business.tenantbus.resolvedomain")
	defer span.End()

	t, err := c.storer.QueryByDomain(ctx, strings.ToLower(domain))
	if err != nil {
		return Tenant{}, fmt.Errorf("querybydomain[%s]: %w", domain, err)
	}

	return t, nil
}

func normalizeDomain(domain *string) *string {
	if domain == nil {
		return nil
	}

	d := strings.ToLower(strings.TrimSpace(*domain))
	if d == "" {
		return nil
	}

	return &d
}
