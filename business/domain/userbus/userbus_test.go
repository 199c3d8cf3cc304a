package userbus_test

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/unitest"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/password"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/business/types/tenantrole"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email string, st status.Status) userbus.NewUser {
	return userbus.NewUser{
		Name:    name.MustParse("Alice"),
		Email:   mail.Address{Address: email},
		Tenants: []userbus.Membership{{TenantID: uuid.New(), Role: tenantrole.UnitVolunteer}},
		Status:  st,
	}
}

func Test_CreateDefaults(t *testing.T) {
	core := userbus.NewCore(unitest.NewUserStore())

	pw := password.MustParse("gophers")
	nu := newUser("alice@login.com", status.Active)
	nu.Password = &pw

	usr, err := core.Create(context.Background(), nu)
	require.NoError(t, err)

	assert.Equal(t, []role.Role{role.User}, usr.Roles)
	assert.NotEqual(t, uuid.Nil, usr.ID)
	assert.NotEmpty(t, usr.PasswordHash)
	assert.NotEqual(t, "gophers", string(usr.PasswordHash))
}

func Test_CreateInvariants(t *testing.T) {
	core := userbus.NewCore(unitest.NewUserStore())
	ctx := context.Background()

	tenantID := uuid.New()

	dup := newUser("dup@login.com", status.Active)
	dup.Tenants = []userbus.Membership{
		{TenantID: tenantID, Role: tenantrole.UnitHead},
		{TenantID: tenantID, Role: tenantrole.UnitVolunteer},
	}

	_, err := core.Create(ctx, dup)
	assert.ErrorIs(t, err, userbus.ErrDuplicateMembership)

	_, err = core.Create(ctx, newUser("setup@login.com", status.PendingSetup))
	assert.ErrorIs(t, err, userbus.ErrTokenState)

	token := "abc"
	expiry := time.Now().Add(time.Hour)
	active := newUser("active@login.com", status.Active)
	active.OnboardingToken = &token
	active.TokenExpiry = &expiry

	_, err = core.Create(ctx, active)
	assert.ErrorIs(t, err, userbus.ErrTokenState)
}

func Test_UniqueEmail(t *testing.T) {
	core := userbus.NewCore(unitest.NewUserStore())
	ctx := context.Background()

	_, err := core.Create(ctx, newUser("alice@login.com", status.Active))
	require.NoError(t, err)

	_, err = core.Create(ctx, newUser("alice@login.com", status.Active))
	assert.ErrorIs(t, err, userbus.ErrUniqueEmail)

	_, err = core.Create(ctx, newUser(" Alice@Login.COM", status.Active))
	assert.ErrorIs(t, err, userbus.ErrUniqueEmail, "login addresses are unique regardless of case")
}

func Test_EmailFolded(t *testing.T) {
	core := userbus.NewCore(unitest.NewUserStore())
	ctx := context.Background()

	pw := password.MustParse("gophers")
	nu := newUser("Bob@Login.com", status.Active)
	nu.Password = &pw

	usr, err := core.Create(ctx, nu)
	require.NoError(t, err)
	assert.Equal(t, "bob@login.com", usr.Email.Address)

	got, err := core.QueryByEmail(ctx, mail.Address{Address: "BOB@login.com"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = core.Authenticate(ctx, mail.Address{Address: "bob@LOGIN.com"}, "gophers")
	assert.NoError(t, err)

	upd := mail.Address{Address: "Robert@Login.com"}
	usr, err = core.Update(ctx, usr, userbus.UpdateUser{Email: &upd})
	require.NoError(t, err)
	assert.Equal(t, "robert@login.com", usr.Email.Address)
}

func Test_StatusChangeBurnsToken(t *testing.T) {
	core := userbus.NewCore(unitest.NewUserStore())
	ctx := context.Background()

	token := "abc"
	expiry := time.Now().Add(time.Hour)
	nu := newUser("alice@login.com", status.PendingSetup)
	nu.OnboardingToken = &token
	nu.TokenExpiry = &expiry

	usr, err := core.Create(ctx, nu)
	require.NoError(t, err)

	next := status.PendingApproval
	usr, err = core.Update(ctx, usr, userbus.UpdateUser{Status: &next})
	require.NoError(t, err)

	assert.Nil(t, usr.OnboardingToken)
	assert.Nil(t, usr.TokenExpiry)
}

func Test_UpdateWhere(t *testing.T) {
	core := userbus.NewCore(unitest.NewUserStore())
	ctx := context.Background()

	usr, err := core.Create(ctx, newUser("alice@login.com", status.PendingApproval))
	require.NoError(t, err)

	active := status.Active
	cond := where.Equals(userbus.FieldStatus, status.PendingApproval)

	_, err = core.UpdateWhere(ctx, usr, userbus.UpdateUser{Status: &active}, cond)
	require.NoError(t, err)

	rejected := status.Rejected
	_, err = core.UpdateWhere(ctx, usr, userbus.UpdateUser{Status: &rejected}, cond)
	assert.ErrorIs(t, err, userbus.ErrStale)

	stored, err := core.QueryByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, status.Active, stored.Status)

	_, err = core.UpdateWhere(ctx, usr, userbus.UpdateUser{Tenants: []userbus.Membership{}}, cond)
	assert.Error(t, err)
}

func Test_Authenticate(t *testing.T) {
	core := userbus.NewCore(unitest.NewUserStore())
	ctx := context.Background()

	pw := password.MustParse("gophers")

	active := newUser("active@login.com", status.Active)
	active.Password = &pw
	_, err := core.Create(ctx, active)
	require.NoError(t, err)

	pending := newUser("pending@login.com", status.PendingApproval)
	pending.Password = &pw
	_, err = core.Create(ctx, pending)
	require.NoError(t, err)

	_, err = core.Authenticate(ctx, mail.Address{Address: "active@login.com"}, "gophers")
	assert.NoError(t, err)

	_, err = core.Authenticate(ctx, mail.Address{Address: "active@login.com"}, "wrong")
	assert.ErrorIs(t, err, userbus.ErrAuthenticationFailure)

	_, err = core.Authenticate(ctx, mail.Address{Address: "pending@login.com"}, "gophers")
	assert.ErrorIs(t, err, userbus.ErrNotActive)

	_, err = core.Authenticate(ctx, mail.Address{Address: "nobody@login.com"}, "gophers")
	assert.ErrorIs(t, err, userbus.ErrNotFound)
}

func Test_QueryScopedByTenant(t *testing.T) {
	core := userbus.NewCore(unitest.NewUserStore())
	ctx := context.Background()

	a, err := core.Create(ctx, newUser("a@login.com", status.Active))
	require.NoError(t, err)

	_, err = core.Create(ctx, newUser("b@login.com", status.Active))
	require.NoError(t, err)

	filter := userbus.QueryFilter{TenantID: &a.Tenants[0].TenantID}.Clause()

	n, err := core.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	users, err := core.Query(ctx, where.In(where.Tenant, []uuid.UUID{}), userbus.DefaultOrderBy, pageOne())
	require.NoError(t, err)
	assert.Empty(t, users)
}
