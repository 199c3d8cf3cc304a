package unitest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/domain/sitebus"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/where"
)

var pageLess = map[string]func(a, b pagebus.Page) bool{
	pagebus.OrderByID:        func(a, b pagebus.Page) bool { return a.ID.String() < b.ID.String() },
	pagebus.OrderByTitle:     func(a, b pagebus.Page) bool { return a.Title < b.Title },
	pagebus.OrderBySlug:      func(a, b pagebus.Page) bool { return a.Slug.String() < b.Slug.String() },
	pagebus.OrderByCreatedAt: func(a, b pagebus.Page) bool { return a.CreatedAt.Before(b.CreatedAt) },
}

// PageStore is an in-memory pagebus.Storer. The tenant public flag is read
// from the tenant store like the database join does.
type PageStore struct {
	mu      sync.Mutex
	tenants *TenantStore
	pages   map[uuid.UUID]pagebus.Page
}

// NewPageStore constructs an empty page store.
func NewPageStore(tenants *TenantStore) *PageStore {
	return &PageStore{
		tenants: tenants,
		pages:   make(map[uuid.UUID]pagebus.Page),
	}
}

// Create implements pagebus.Storer.
func (s *PageStore) Create(ctx context.Context, p pagebus.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, other := range s.pages {
		if other.TenantID == p.TenantID && other.Slug.Equal(p.Slug) {
			return pagebus.ErrUniqueSlug
		}
	}

	s.pages[p.ID] = p

	return nil
}

// Update implements pagebus.Storer.
func (s *PageStore) Update(ctx context.Context, p pagebus.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages[p.ID] = p

	return nil
}

// Delete implements pagebus.Storer.
func (s *PageStore) Delete(ctx context.Context, p pagebus.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.pages, p.ID)

	return nil
}

// Query implements pagebus.Storer.
func (s *PageStore) Query(ctx context.Context, filter where.Clause, orderBy order.By, pg page.Page) ([]pagebus.Page, error) {
	return paginate(s.match(ctx, filter), pageLess, orderBy, pg), nil
}

// Count implements pagebus.Storer.
func (s *PageStore) Count(ctx context.Context, filter where.Clause) (int, error) {
	return len(s.match(ctx, filter)), nil
}

// QueryByID implements pagebus.Storer.
func (s *PageStore) QueryByID(ctx context.Context, pageID uuid.UUID) (pagebus.Page, error) {
	s.mu.Lock()
	p, exists := s.pages[pageID]
	s.mu.Unlock()

	if !exists {
		return pagebus.Page{}, pagebus.ErrNotFound
	}

	return s.join(ctx, p), nil
}

func (s *PageStore) match(ctx context.Context, filter where.Clause) []pagebus.Page {
	s.mu.Lock()
	all := make([]pagebus.Page, 0, len(s.pages))
	for _, p := range s.pages {
		all = append(all, p)
	}
	s.mu.Unlock()

	var pages []pagebus.Page
	for _, p := range all {
		p = s.join(ctx, p)
		if where.Match(filter, p) {
			pages = append(pages, p)
		}
	}

	return pages
}

func (s *PageStore) join(ctx context.Context, p pagebus.Page) pagebus.Page {
	t, err := s.tenants.QueryByID(ctx, p.TenantID)
	p.TenantPublic = err == nil && t.AllowPublicRead
	return p
}

// =============================================================================

// SiteStore is an in-memory sitebus.Storer.
type SiteStore struct {
	mu    sync.Mutex
	sites map[uuid.UUID]sitebus.SiteConfig
}

// NewSiteStore constructs an empty site store.
func NewSiteStore() *SiteStore {
	return &SiteStore{
		sites: make(map[uuid.UUID]sitebus.SiteConfig),
	}
}

// Create implements sitebus.Storer.
func (s *SiteStore) Create(ctx context.Context, sc sitebus.SiteConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sites[sc.TenantID]; !exists {
		s.sites[sc.TenantID] = sc
	}

	return nil
}

// Update implements sitebus.Storer.
func (s *SiteStore) Update(ctx context.Context, sc sitebus.SiteConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sites[sc.TenantID]; !exists {
		return sitebus.ErrNotFound
	}

	s.sites[sc.TenantID] = sc

	return nil
}

// QueryByTenant implements sitebus.Storer.
func (s *SiteStore) QueryByTenant(ctx context.Context, tenantID uuid.UUID) (sitebus.SiteConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sc, exists := s.sites[tenantID]
	if !exists {
		return sitebus.SiteConfig{}, sitebus.ErrNotFound
	}

	return sc, nil
}
