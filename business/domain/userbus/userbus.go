// Package userbus provides business access to user domain.
package userbus

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/foundation/otel"
	"golang.org/x/crypto/bcrypt"
)

// Set of error variables for CRUD operations.
var (
	ErrNotFound              = errors.New("user not found")
	ErrUniqueEmail           = errors.New("email is not unique")
	ErrUniqueToken           = errors.New("onboarding token is not unique")
	ErrAuthenticationFailure = errors.New("authentication failed")
	ErrNotActive             = errors.New("account is not active")
	ErrDuplicateMembership   = errors.New("more than one role granted for the same tenant")
	ErrTokenState            = errors.New("onboarding token must be present exactly while status is pending_setup")
	ErrStale                 = errors.New("user no longer matches the update condition")
)

// Storer interface declares the behavior this package needs to persist and
// retrieve data.
type Storer interface {
	Create(ctx context.Context, usr User) error
	Update(ctx context.Context, usr User) error
	UpdateWhere(ctx context.Context, usr User, cond where.Clause) error
	Delete(ctx context.Context, usr User) error
	Query(ctx context.Context, filter where.Clause, orderBy order.By, page page.Page) ([]User, error)
	Count(ctx context.Context, filter where.Clause) (int, error)
	QueryByID(ctx context.Context, userID uuid.UUID) (User, error)
	QueryByEmail(ctx context.Context, email mail.Address) (User, error)
}

// Core manages the set of APIs for user access.
type Core struct {
	storer Storer
}

// NewCore constructs a user core API for use.
func NewCore(storer Storer) *Core {
	return &Core{
		storer: storer,
	}
}

// Create adds a new user to the system.
func (c *Core) Create(ctx context.Context, nu NewUser) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.create")
	defer span.End()

	roles := nu.Roles
	if len(roles) == 0 {
		roles = []role.Role{role.User}
	}

	now := time.Now()

	usr := User{
		ID:                 uuid.New(),
		Name:               nu.Name,
		Email:              NormalizeEmail(nu.Email),
		InstitutionalEmail: nu.InstitutionalEmail,
		Roles:              roles,
		Tenants:            nu.Tenants,
		OnboardingToken:    nu.OnboardingToken,
		TokenExpiry:        nu.TokenExpiry,
		Status:             nu.Status,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if nu.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(nu.Password.String()), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("generatefrompassword: %w", err)
		}
		usr.PasswordHash = hash
	}

	if err := checkInvariants(usr); err != nil {
		return User{}, fmt.Errorf("create: %w", err)
	}

	if err := c.storer.Create(ctx, usr); err != nil {
		return User{}, fmt.Errorf("create: %w", err)
	}

	return usr, nil
}

// Update modifies information about a user.
func (c *Core) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.update")
	defer span.End()

	usr, err := apply(usr, uu)
	if err != nil {
		return User{}, fmt.Errorf("update: %w", err)
	}

	if err := c.storer.Update(ctx, usr); err != nil {
		return User{}, fmt.Errorf("update: %w", err)
	}

	return usr, nil
}

// UpdateWhere modifies a user only if the stored record still satisfies cond
// at the moment of the write. ErrStale is returned when it no longer does, so
// callers can detect that a concurrent writer got there first. Tenant
// memberships are not written by this call.
func (c *Core) UpdateWhere(ctx context.Context, usr User, uu UpdateUser, cond where.Clause) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.updatewhere")
	defer span.End()

	if uu.Tenants != nil {
		return User{}, errors.New("updatewhere: memberships cannot change conditionally")
	}

	usr, err := apply(usr, uu)
	if err != nil {
		return User{}, fmt.Errorf("updatewhere: %w", err)
	}

	if err := c.storer.UpdateWhere(ctx, usr, cond); err != nil {
		return User{}, fmt.Errorf("updatewhere: %w", err)
	}

	return usr, nil
}

// Delete removes the specified user.
func (c *Core) Delete(ctx context.Context, usr User) error {
	ctx, span := otel.AddSpan(ctx, "business.userbus.delete")
	defer span.End()

	if err := c.storer.Delete(ctx, usr); err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	return nil
}

// Query retrieves a list of existing users.
func (c *Core) Query(ctx context.Context, filter where.Clause, orderBy order.By, page page.Page) ([]User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.query")
	defer span.End()

	if filter.IsNone() {
		return []User{}, nil
	}

	users, err := c.storer.Query(ctx, filter, orderBy, page)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return users, nil
}

// Count returns the total number of users.
func (c *Core) Count(ctx context.Context, filter where.Clause) (int, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.count")
	defer span.End()

	if filter.IsNone() {
		return 0, nil
	}

	return c.storer.Count(ctx, filter)
}

// QueryByID finds the user by the specified ID.
func (c *Core) QueryByID(ctx context.Context, userID uuid.UUID) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.querybyid")
	defer span.End()

	user, err := c.storer.QueryByID(ctx, userID)
	if err != nil {
		return User{}, fmt.Errorf("query: userID[%s]: %w", userID, err)
	}

	return user, nil
}

// QueryByEmail finds the user by a specified user email.
func (c *Core) QueryByEmail(ctx context.Context, email mail.Address) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.querybyemail")
	defer span.End()

	user, err := c.storer.QueryByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return User{}, fmt.Errorf("query: email[%s]: %w", email.Address, err)
	}

	return user, nil
}

// Authenticate finds a user by their email and verifies their password. Only
// active accounts may authenticate.
func (c *Core) Authenticate(ctx context.Context, email mail.Address, password string) (User, error) {
	ctx, span := otel.AddSpan(ctx, "business.userbus.authenticate")
	defer span.End()

	usr, err := c.QueryByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("query: email[%s]: %w", email.Address, err)
	}

	if len(usr.PasswordHash) == 0 {
		return User{}, fmt.Errorf("no password set: %w", ErrAuthenticationFailure)
	}

	if err := bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte(password)); err != nil {
		return User{}, fmt.Errorf("comparehashandpassword: %w", ErrAuthenticationFailure)
	}

	if !usr.Status.Equal(status.Active) {
		return User{}, fmt.Errorf("status[%s]: %w", usr.Status, ErrNotActive)
	}

	return usr, nil
}

// NormalizeEmail folds a login address to the form it is stored and compared
// in. Login addresses are unique regardless of case.
func NormalizeEmail(addr mail.Address) mail.Address {
	addr.Address = strings.ToLower(strings.TrimSpace(addr.Address))
	return addr
}

// =============================================================================

func apply(usr User, uu UpdateUser) (User, error) {
	if uu.Name != nil {
		usr.Name = *uu.Name
	}

	if uu.Email != nil {
		usr.Email = NormalizeEmail(*uu.Email)
	}

	if uu.InstitutionalEmail != nil {
		usr.InstitutionalEmail = *uu.InstitutionalEmail
	}

	if uu.About != nil {
		usr.About = *uu.About
	}

	if uu.Position != nil {
		usr.Position = *uu.Position
	}

	if uu.BloodGroup != nil {
		usr.BloodGroup = *uu.BloodGroup
	}

	if uu.ProfilePicture != nil {
		usr.ProfilePicture = uu.ProfilePicture
	}

	if uu.Roles != nil {
		usr.Roles = uu.Roles
	}

	if uu.Tenants != nil {
		usr.Tenants = uu.Tenants
	}

	if uu.Password != nil {
		pw, err := bcrypt.GenerateFromPassword([]byte(uu.Password.String()), bcrypt.DefaultCost)
		if err != nil {
			return User{}, fmt.Errorf("generatefrompassword: %w", err)
		}
		usr.PasswordHash = pw
	}

	if uu.Status != nil {
		usr.Status = *uu.Status

		// Leaving pending_setup always burns the onboarding token.
		if !usr.Status.Equal(status.PendingSetup) {
			usr.OnboardingToken = nil
			usr.TokenExpiry = nil
		}
	}

	usr.UpdatedAt = time.Now()

	if err := checkInvariants(usr); err != nil {
		return User{}, err
	}

	return usr, nil
}

func checkInvariants(usr User) error {
	seen := make(map[uuid.UUID]struct{}, len(usr.Tenants))
	for _, m := range usr.Tenants {
		if _, exists := seen[m.TenantID]; exists {
			return fmt.Errorf("tenant[%s]: %w", m.TenantID, ErrDuplicateMembership)
		}
		seen[m.TenantID] = struct{}{}
	}

	hasToken := usr.OnboardingToken != nil && usr.TokenExpiry != nil
	pending := usr.Status.Equal(status.PendingSetup)

	if hasToken != pending {
		return ErrTokenState
	}

	if (usr.OnboardingToken == nil) != (usr.TokenExpiry == nil) {
		return ErrTokenState
	}

	if _, err := status.Parse(usr.Status.String()); err != nil {
		return fmt.Errorf("status: %w", err)
	}

	return nil
}
