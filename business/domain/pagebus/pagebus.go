// Package pagebus provides business access to page domain.
package pagebus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/foundation/otel"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound   = errors.New("page not found")
	ErrUniqueSlug = errors.New("slug is not unique within the tenant")
)

// Storer defines the behavior required by the pagebus to interact with the database.
type Storer interface {
	Create(ctx context.Context, p Page) error
	Update(ctx context.Context, p Page) error
	Delete(ctx context.Context, p Page) error
	Query(ctx context.Context, filter where.Clause, orderBy order.By, page page.Page) ([]Page, error)
	Count(ctx context.Context, filter where.Clause) (int, error)
	QueryByID(ctx context.Context, pageID uuid.UUID) (Page, error)
}

// Core manages the set of APIs for page access.
type Core struct {
	storer Storer
}

// NewCore constructs a core for page api access.
func NewCore(storer Storer) *Core {
	return &Core{
		storer: storer,
	}
}

// Create adds a new page to a tenant.
func (c *Core) Create(ctx context.Context, np NewPage) (Page, error) {
	ctx, span := otel.AddSpan(ctx, "business.pagebus.create")
	defer span.End()

	now := time.Now()

	p := Page{
		ID:        uuid.New(),
		TenantID:  np.TenantID,
		Title:     np.Title,
		Slug:      np.Slug,
		Content:   np.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storer.Create(ctx, p); err != nil {
		return Page{}, fmt.Errorf("create: %w", err)
	}

	return p, nil
}

// Update modifies the content of a page.
func (c *Core) Update(ctx context.Context, p Page, up UpdatePage) (Page, error) {
	ctx, span := otel.AddSpan(ctx, "business.pagebus.update")
	defer span.End()

	if up.Title != nil {
		p.Title = *up.Title
	}

	if up.Slug != nil {
		p.Slug = *up.Slug
	}

	if up.Content != nil {
		p.Content = *up.Content
	}

	p.UpdatedAt = time.Now()

	if err := c.storer.Update(ctx, p); err != nil {
		return Page{}, fmt.Errorf("update: %w", err)
	}

	return p, nil
}

// Delete removes the specified page.
func (c *Core) Delete(ctx context.Context, p Page) error {
	ctx, span := otel.AddSpan(ctx, "business.pagebus.delete")
	defer span.End()

	if err := c.storer.Delete(ctx, p); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves a list of existing pages.
func (c *Core) Query(ctx context.Context, filter where.Clause, orderBy order.By, page page.Page) ([]Page, error) {
	ctx, span := otel.AddSpan(ctx, "business.pagebus.query")
	defer span.End()

	if filter.IsNone() {
		return []Page{}, nil
	}

	pages, err := c.storer.Query(ctx, filter, orderBy, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return pages, nil
}

// Count returns the total number of pages.
func (c *Core) Count(ctx context.Context, filter where.Clause) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.pagebus.count")
	defer span.End()

	if filter.IsNone() {
		return 0, nil
	}

	return c.storer.Count(ctx, filter)
}

// QueryByID finds the page by the specified ID.
func (c *Core) QueryByID(ctx context.Context, pageID uuid.UUID) (Page, error) {
	ctx, span := otel.AddSpan(ctx, "business.pagebus.querybyid")
	defer span.End()

	p, err := c.storer.QueryByID(ctx, pageID)
	if err != nil {
		return Page{}, fmt.Errorf("query: pageID[%s]: %w", pageID, err)
	}

	return p, nil
}
