package tenantbus_test

import (
	"context"
	"testing"

	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/unitest"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/slug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Tenants(t *testing.T) {
	core := tenantbus.NewCore(unitest.Logger(), unitest.NewTenantStore())
	ctx := context.Background()

	domain := "  MIT.NSSMahe.edu "

	mit, err := core.Create(ctx, tenantbus.NewTenant{
		Name:            "MIT Manipal",
		Slug:            slug.MustParse("mit"),
		Domain:          &domain,
		AllowPublicRead: true,
	})
	require.NoError(t, err)
	require.NotNil(t, mit.Domain)
	assert.Equal(t, "mit.nssmahe.edu", *mit.Domain)

	_, err = core.Create(ctx, tenantbus.NewTenant{Name: "Other", Slug: slug.MustParse("mit")})
	assert.ErrorIs(t, err, tenantbus.ErrUniqueSlug)

	_, err = core.Create(ctx, tenantbus.NewTenant{Name: "KMC", Slug: slug.MustParse("kmc")})
	require.NoError(t, err)

	got, err := core.ResolveDomain(ctx, "MIT.nssmahe.edu")
	require.NoError(t, err)
	assert.Equal(t, mit.ID, got.ID)

	_, err = core.ResolveDomain(ctx, "unknown.edu")
	assert.ErrorIs(t, err, tenantbus.ErrDomainNotFound)

	id, err := core.QueryIDBySlug(ctx, slug.MustParse("mit"))
	require.NoError(t, err)
	assert.Equal(t, mit.ID, id)

	public, err := core.Query(ctx, where.Equals(tenantbus.FieldPublic, true), tenantbus.DefaultOrderBy, page.MustParse("1", "10"))
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, mit.ID, public[0].ID)

	all, err := core.Query(ctx, where.All(), tenantbus.DefaultOrderBy, page.MustParse("1", "10"))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "KMC", all[0].Name)

	empty := ""
	mit, err = core.Update(ctx, mit, tenantbus.UpdateTenant{Domain: &empty})
	require.NoError(t, err)
	assert.Nil(t, mit.Domain)
}
