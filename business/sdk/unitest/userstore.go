package unitest

import (
	"context"
	"net/mail"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/where"
)

var userLess = map[string]func(a, b userbus.User) bool{
	userbus.OrderByID:        func(a, b userbus.User) bool { return a.ID.String() < b.ID.String() },
	userbus.OrderByName:      func(a, b userbus.User) bool { return a.Name.String() < b.Name.String() },
	userbus.OrderByEmail:     func(a, b userbus.User) bool { return a.Email.Address < b.Email.Address },
	userbus.OrderByStatus:    func(a, b userbus.User) bool { return a.Status.String() < b.Status.String() },
	userbus.OrderByCreatedAt: func(a, b userbus.User) bool { return a.CreatedAt.Before(b.CreatedAt) },
}

// UserStore is an in-memory userbus.Storer. Conditional updates are atomic.
type UserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]userbus.User
}

// NewUserStore constructs an empty user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[uuid.UUID]userbus.User),
	}
}

// Create implements userbus.Storer.
func (s *UserStore) Create(ctx context.Context, usr userbus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.unique(usr); err != nil {
		return err
	}

	s.users[usr.ID] = cloneUser(usr)

	return nil
}

// Update implements userbus.Storer.
func (s *UserStore) Update(ctx context.Context, usr userbus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[usr.ID]; !exists {
		return nil
	}

	if err := s.unique(usr); err != nil {
		return err
	}

	s.users[usr.ID] = cloneUser(usr)

	return nil
}

// UpdateWhere implements userbus.Storer.
func (s *UserStore) UpdateWhere(ctx context.Context, usr userbus.User, cond where.Clause) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.users[usr.ID]
	if !exists || !where.Match(cond, stored) {
		return userbus.ErrStale
	}

	if err := s.unique(usr); err != nil {
		return err
	}

	usr.Tenants = stored.Tenants
	s.users[usr.ID] = cloneUser(usr)

	return nil
}

// Delete implements userbus.Storer.
func (s *UserStore) Delete(ctx context.Context, usr userbus.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, usr.ID)

	return nil
}

// Query implements userbus.Storer.
func (s *UserStore) Query(ctx context.Context, filter where.Clause, orderBy order.By, pg page.Page) ([]userbus.User, error) {
	return paginate(s.match(filter), userLess, orderBy, pg), nil
}

// Count implements userbus.Storer.
func (s *UserStore) Count(ctx context.Context, filter where.Clause) (int, error) {
	return len(s.match(filter)), nil
}

// QueryByID implements userbus.Storer.
func (s *UserStore) QueryByID(ctx context.Context, userID uuid.UUID) (userbus.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	usr, exists := s.users[userID]
	if !exists {
		return userbus.User{}, userbus.ErrNotFound
	}

	return cloneUser(usr), nil
}

// QueryByEmail implements userbus.Storer.
func (s *UserStore) QueryByEmail(ctx context.Context, email mail.Address) (userbus.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, usr := range s.users {
		if usr.Email.Address == email.Address {
			return cloneUser(usr), nil
		}
	}

	return userbus.User{}, userbus.ErrNotFound
}

// Len returns the number of stored users.
func (s *UserStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.users)
}

func (s *UserStore) match(filter where.Clause) []userbus.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []userbus.User
	for _, usr := range s.users {
		if where.Match(filter, usr) {
			users = append(users, cloneUser(usr))
		}
	}

	return users
}

func (s *UserStore) unique(usr userbus.User) error {
	for _, other := range s.users {
		if other.ID == usr.ID {
			continue
		}

		if other.Email.Address == usr.Email.Address {
			return userbus.ErrUniqueEmail
		}

		if other.OnboardingToken != nil && usr.OnboardingToken != nil && *other.OnboardingToken == *usr.OnboardingToken {
			return userbus.ErrUniqueToken
		}
	}

	return nil
}

func cloneUser(usr userbus.User) userbus.User {
	usr.Roles = slices.Clone(usr.Roles)
	usr.Tenants = slices.Clone(usr.Tenants)
	usr.PasswordHash = slices.Clone(usr.PasswordHash)

	if usr.OnboardingToken != nil {
		t := *usr.OnboardingToken
		usr.OnboardingToken = &t
	}

	if usr.TokenExpiry != nil {
		e := *usr.TokenExpiry
		usr.TokenExpiry = &e
	}

	return usr
}
