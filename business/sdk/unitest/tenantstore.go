package unitest

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/slug"
)

var tenantLess = map[string]func(a, b tenantbus.Tenant) bool{
	tenantbus.OrderByID:        func(a, b tenantbus.Tenant) bool { return a.ID.String() < b.ID.String() },
	tenantbus.OrderByName:      func(a, b tenantbus.Tenant) bool { return a.Name < b.Name },
	tenantbus.OrderBySlug:      func(a, b tenantbus.Tenant) bool { return a.Slug.String() < b.Slug.String() },
	tenantbus.OrderByCreatedAt: func(a, b tenantbus.Tenant) bool { return a.CreatedAt.Before(b.CreatedAt) },
}

// TenantStore is an in-memory tenantbus.Storer.
type TenantStore struct {
	mu      sync.Mutex
	tenants map[uuid.UUID]tenantbus.Tenant
}

// NewTenantStore constructs a tenant store holding tenants.
func NewTenantStore(tenants ...tenantbus.Tenant) *TenantStore {
	s := TenantStore{
		tenants: make(map[uuid.UUID]tenantbus.Tenant),
	}

	for _, t := range tenants {
		s.tenants[t.ID] = t
	}

	return &s
}

// Create implements tenantbus.Storer.
func (s *TenantStore) Create(ctx context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.unique(t); err != nil {
		return err
	}

	s.tenants[t.ID] = t

	return nil
}

// Update implements tenantbus.Storer.
func (s *TenantStore) Update(ctx context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.unique(t); err != nil {
		return err
	}

	s.tenants[t.ID] = t

	return nil
}

// Delete implements tenantbus.Storer.
func (s *TenantStore) Delete(ctx context.Context, t tenantbus.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.tenants, t.ID)

	return nil
}

// Query implements tenantbus.Storer.
func (s *TenantStore) Query(ctx context.Context, filter where.Clause, orderBy order.By, pg page.Page) ([]tenantbus.Tenant, error) {
	return paginate(s.match(filter), tenantLess, orderBy, pg), nil
}

// Count implements tenantbus.Storer.
func (s *TenantStore) Count(ctx context.Context, filter where.Clause) (int, error) {
	return len(s.match(filter)), nil
}

// QueryByID implements tenantbus.Storer.
func (s *TenantStore) QueryByID(ctx context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.tenants[tenantID]
	if !exists {
		return tenantbus.Tenant{}, tenantbus.ErrNotFound
	}

	return t, nil
}

// QueryIDBySlug implements tenantbus.Storer.
func (s *TenantStore) QueryIDBySlug(ctx context.Context, sl slug.Slug) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if t.Slug.Equal(sl) {
			return t.ID, nil
		}
	}

	return uuid.Nil, tenantbus.ErrNotFound
}

// QueryByDomain implements tenantbus.Storer.
func (s *TenantStore) QueryByDomain(ctx context.Context, domain string) (tenantbus.Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if t.Domain != nil && *t.Domain == domain {
			return t, nil
		}
	}

	return tenantbus.Tenant{}, tenantbus.ErrDomainNotFound
}

func (s *TenantStore) match(filter where.Clause) []tenantbus.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tenants []tenantbus.Tenant
	for _, t := range s.tenants {
		if where.Match(filter, t) {
			tenants = append(tenants, t)
		}
	}

	return tenants
}

func (s *TenantStore) unique(t tenantbus.Tenant) error {
	for _, other := range s.tenants {
		if other.ID == t.ID {
			continue
		}

		if other.Slug.Equal(t.Slug) {
			return tenantbus.ErrUniqueSlug
		}

		if other.Domain != nil && t.Domain != nil && *other.Domain == *t.Domain {
			return tenantbus.ErrUniqueDomain
		}
	}

	return nil
}
