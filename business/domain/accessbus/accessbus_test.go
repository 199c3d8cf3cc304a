package accessbus_test

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/actions"
	"github.com/nssmahe/portal/business/types/resource"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/tenantrole"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	id      uuid.UUID
	tenants []uuid.UUID
	public  bool
}

func (r record) FieldValues(field string) []any {
	switch field {
	case where.ID:
		return []any{r.id}
	case where.Tenant:
		vs := make([]any, len(r.tenants))
		for i, t := range r.tenants {
			vs[i] = t
		}
		return vs
	case where.TenantPublic:
		return []any{r.public}
	}
	return nil
}

func newCore(t *testing.T) *accessbus.Core {
	t.Helper()

	policy, err := accessbus.NewPolicy(accessbus.DefaultRules())
	require.NoError(t, err)

	log := logger.New(io.Discard, logger.LevelInfo, "TEST", nil)

	return accessbus.NewCore(log, policy)
}

func member(tenantID uuid.UUID, r tenantrole.Role) *userbus.User {
	return &userbus.User{
		ID:      uuid.New(),
		Roles:   []role.Role{role.User},
		Tenants: []userbus.Membership{{TenantID: tenantID, Role: r}},
	}
}

func Test_Decide(t *testing.T) {
	core := newCore(t)
	ctx := context.Background()

	tenantA := uuid.New()
	tenantB := uuid.New()

	inA := record{id: uuid.New(), tenants: []uuid.UUID{tenantA}}
	inB := record{id: uuid.New(), tenants: []uuid.UUID{tenantB}}
	publicB := record{id: uuid.New(), tenants: []uuid.UUID{tenantB}, public: true}

	officer := member(tenantA, tenantrole.ProgrammeOfficer)
	volunteer := member(tenantA, tenantrole.UnitVolunteer)
	viewer := member(tenantA, tenantrole.TenantViewer)
	admin := member(tenantA, tenantrole.TenantAdmin)

	tests := []struct {
		name  string
		req   accessbus.Request
		rec   where.Record
		allow bool
	}{
		{"anonymous-page-public", accessbus.Request{Action: actions.Read, Resource: resource.Page}, publicB, true},
		{"anonymous-page-private", accessbus.Request{Action: actions.Read, Resource: resource.Page}, inB, false},
		{"anonymous-media-public", accessbus.Request{Action: actions.Read, Resource: resource.Media}, publicB, true},
		{"anonymous-user-read", accessbus.Request{Action: actions.Read, Resource: resource.User}, inA, false},
		{"anonymous-tenant-read", accessbus.Request{Action: actions.Read, Resource: resource.Tenant}, record{id: tenantA}, false},
		{"anonymous-page-update", accessbus.Request{Action: actions.Update, Resource: resource.Page}, publicB, false},

		{"tenant-create-admin", accessbus.Request{Principal: admin, Action: actions.Create, Resource: resource.Tenant}, record{}, false},
		{"tenant-read-volunteer", accessbus.Request{Principal: volunteer, Action: actions.Read, Resource: resource.Tenant}, record{id: tenantB}, true},
		{"tenant-update-own", accessbus.Request{Principal: admin, Action: actions.Update, Resource: resource.Tenant}, record{id: tenantA}, true},
		{"tenant-update-other", accessbus.Request{Principal: admin, Action: actions.Update, Resource: resource.Tenant}, record{id: tenantB}, false},
		{"tenant-delete-viewer", accessbus.Request{Principal: viewer, Action: actions.Delete, Resource: resource.Tenant}, record{id: tenantA}, false},

		{"user-create-officer", accessbus.Request{Principal: officer, Action: actions.Create, Resource: resource.User}, inA, true},
		{"user-create-officer-other", accessbus.Request{Principal: officer, Action: actions.Create, Resource: resource.User}, inB, false},
		{"user-create-volunteer", accessbus.Request{Principal: volunteer, Action: actions.Create, Resource: resource.User}, inA, false},
		{"user-read-shared", accessbus.Request{Principal: admin, Action: actions.Read, Resource: resource.User}, inA, true},
		{"user-read-unshared", accessbus.Request{Principal: admin, Action: actions.Read, Resource: resource.User}, inB, false},
		{"user-read-volunteer", accessbus.Request{Principal: volunteer, Action: actions.Read, Resource: resource.User}, inA, false},
		{"user-update-admin", accessbus.Request{Principal: admin, Action: actions.Update, Resource: resource.User}, inA, true},
		{"user-approve-admin", accessbus.Request{Principal: admin, Action: actions.Approve, Resource: resource.User}, inA, false},
		{"user-approve-officer", accessbus.Request{Principal: officer, Action: actions.Approve, Resource: resource.User}, inA, true},

		{"media-create-volunteer", accessbus.Request{Principal: volunteer, Action: actions.Create, Resource: resource.Media}, inA, true},
		{"media-update-viewer-other", accessbus.Request{Principal: viewer, Action: actions.Update, Resource: resource.Media}, inB, false},
		{"media-delete-volunteer", accessbus.Request{Principal: volunteer, Action: actions.Delete, Resource: resource.Media}, inA, false},
		{"media-delete-officer", accessbus.Request{Principal: officer, Action: actions.Delete, Resource: resource.Media}, inA, true},

		{"page-create-admin", accessbus.Request{Principal: admin, Action: actions.Create, Resource: resource.Page}, inA, false},
		{"page-read-volunteer", accessbus.Request{Principal: volunteer, Action: actions.Read, Resource: resource.Page}, inB, true},
		{"page-update-admin", accessbus.Request{Principal: admin, Action: actions.Update, Resource: resource.Page}, inA, true},
		{"page-update-volunteer", accessbus.Request{Principal: volunteer, Action: actions.Update, Resource: resource.Page}, inA, false},
		{"page-delete-admin", accessbus.Request{Principal: admin, Action: actions.Delete, Resource: resource.Page}, inA, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := core.Decide(ctx, tt.req)
			assert.Equal(t, tt.allow, g.Allows(tt.rec), "grant %s", g)
		})
	}
}

func Test_UserReadIncludesSelf(t *testing.T) {
	core := newCore(t)

	tenantA := uuid.New()
	admin := member(tenantA, tenantrole.TenantAdmin)

	g := core.Decide(context.Background(), accessbus.Request{
		Principal: admin,
		Action:    actions.Read,
		Resource:  resource.User,
	})

	self := record{id: admin.ID, tenants: []uuid.UUID{uuid.New()}}
	assert.True(t, g.Allows(self))

	filter, ok := g.Filter()
	require.True(t, ok)
	assert.Equal(t, "(id = "+admin.ID.String()+" OR tenant IN ["+tenantA.String()+"])", filter.String())
}

func Test_SelectedTenantNarrows(t *testing.T) {
	core := newCore(t)
	ctx := context.Background()

	tenantA := uuid.New()
	tenantB := uuid.New()

	usr := &userbus.User{
		ID: uuid.New(),
		Tenants: []userbus.Membership{
			{TenantID: tenantA, Role: tenantrole.UnitHead},
			{TenantID: tenantB, Role: tenantrole.UnitHead},
		},
	}

	inA := record{id: uuid.New(), tenants: []uuid.UUID{tenantA}}
	inB := record{id: uuid.New(), tenants: []uuid.UUID{tenantB}}

	g := core.Decide(ctx, accessbus.Request{Principal: usr, Action: actions.Update, Resource: resource.User})
	assert.True(t, g.Allows(inA))
	assert.True(t, g.Allows(inB))

	g = core.Decide(ctx, accessbus.Request{Principal: usr, Action: actions.Update, Resource: resource.User, SelectedTenant: tenantB})
	assert.False(t, g.Allows(inA))
	assert.True(t, g.Allows(inB))

	// A tenant the principal holds no grant on never widens the decision.
	g = core.Decide(ctx, accessbus.Request{Principal: usr, Action: actions.Update, Resource: resource.User, SelectedTenant: uuid.New()})
	assert.True(t, g.Allows(inA))
	assert.True(t, g.Allows(inB))
}

func Test_EmptyAllowedIfMatchesNothing(t *testing.T) {
	g := accessbus.AllowedIf(where.In(where.Tenant, []uuid.UUID{}))

	assert.True(t, g.IsDenied())
	assert.False(t, g.Allows(record{tenants: []uuid.UUID{uuid.New()}}))

	filter, ok := g.Filter()
	require.True(t, ok)
	assert.True(t, filter.IsNone())
}

func Test_NoGrantIsDenied(t *testing.T) {
	core := newCore(t)

	volunteer := member(uuid.New(), tenantrole.UnitVolunteer)

	g := core.Decide(context.Background(), accessbus.Request{Principal: volunteer, Action: actions.Approve, Resource: resource.User})
	assert.True(t, g.IsDenied())

	filter, ok := g.Filter()
	require.True(t, ok)
	assert.True(t, filter.IsNone())
}

func Test_LoadPolicyFile(t *testing.T) {
	path := t.TempDir() + "/policy.csv"
	require.NoError(t, os.WriteFile(path, []byte("p, unit-secretary, USER, APPROVE\n"), 0o600))

	policy, err := accessbus.LoadPolicyFile(path)
	require.NoError(t, err)

	roles, err := policy.Roles(resource.User, actions.Approve)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, tenantrole.UnitSecretary, roles[0])

	core := accessbus.NewCore(logger.New(io.Discard, logger.LevelInfo, "TEST", nil), policy)

	tenantID := uuid.New()
	secretary := member(tenantID, tenantrole.UnitSecretary)

	g := core.Decide(context.Background(), accessbus.Request{Principal: secretary, Action: actions.Approve, Resource: resource.User})
	assert.True(t, g.Allows(record{tenants: []uuid.UUID{tenantID}}))
}

func Test_LoadPolicyFileRejectsUnknownRole(t *testing.T) {
	path := t.TempDir() + "/policy.csv"
	require.NoError(t, os.WriteFile(path, []byte("p, dean, USER, APPROVE\n"), 0o600))

	_, err := accessbus.LoadPolicyFile(path)
	assert.Error(t, err)
}

// =============================================================================

func Test_Properties(t *testing.T) {
	core := newCore(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	allActions := actions.All()
	allResources := resource.All()
	allRoles := tenantrole.All()

	genIndex := func(n int) gopter.Gen {
		return gen.IntRange(0, n-1)
	}

	properties.Property("super-admin is allowed everything", prop.ForAll(
		func(a, r, tr int, selected bool) bool {
			tenantID := uuid.New()
			usr := member(tenantID, allRoles[tr])
			usr.Roles = []role.Role{role.SuperAdmin}

			req := accessbus.Request{
				Principal: usr,
				Action:    allActions[a],
				Resource:  allResources[r],
				TargetID:  uuid.New(),
			}
			if selected {
				req.SelectedTenant = tenantID
			}

			return core.Decide(ctx, req).IsAllowedAll()
		},
		genIndex(len(allActions)),
		genIndex(len(allResources)),
		genIndex(len(allRoles)),
		gen.Bool(),
	))

	properties.Property("a user can always read itself", prop.ForAll(
		func(tr int, memberships int, selected bool) bool {
			usr := &userbus.User{ID: uuid.New(), Roles: []role.Role{role.User}}
			for range memberships {
				usr.Tenants = append(usr.Tenants, userbus.Membership{TenantID: uuid.New(), Role: allRoles[tr]})
			}

			req := accessbus.Request{
				Principal: usr,
				Action:    actions.Read,
				Resource:  resource.User,
				TargetID:  usr.ID,
			}
			if selected {
				req.SelectedTenant = uuid.New()
			}

			self := record{id: usr.ID, tenants: userbus.TenantIDs(usr)}

			return core.Decide(ctx, req).Allows(self)
		},
		genIndex(len(allRoles)),
		gen.IntRange(0, 3),
		gen.Bool(),
	))

	properties.Property("narrowing never widens", prop.ForAll(
		func(a, r, tr int) bool {
			tenantA := uuid.New()
			tenantB := uuid.New()

			usr := &userbus.User{
				ID: uuid.New(),
				Tenants: []userbus.Membership{
					{TenantID: tenantA, Role: allRoles[tr]},
					{TenantID: tenantB, Role: allRoles[(tr+1)%len(allRoles)]},
				},
			}

			req := accessbus.Request{Principal: usr, Action: allActions[a], Resource: allResources[r]}
			wide := core.Decide(ctx, req)

			req.SelectedTenant = tenantA
			narrow := core.Decide(ctx, req)

			for _, rec := range []record{
				{id: tenantA, tenants: []uuid.UUID{tenantA}},
				{id: tenantB, tenants: []uuid.UUID{tenantB}},
				{id: uuid.New(), tenants: []uuid.UUID{uuid.New()}},
			} {
				if narrow.Allows(rec) && !wide.Allows(rec) {
					return false
				}
			}

			return true
		},
		genIndex(len(allActions)),
		genIndex(len(allResources)),
		genIndex(len(allRoles)),
	))

	properties.TestingRun(t)
}
