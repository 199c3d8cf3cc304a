package sitebus_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/sitebus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/sdk/unitest"
	"github.com/nssmahe/portal/business/types/slug"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Provision(t *testing.T) {
	core := sitebus.NewCore(unitest.Logger(), unitest.NewSiteStore())
	ctx := context.Background()

	tenant := tenantbus.Tenant{ID: uuid.New(), Name: "MIT Manipal", Slug: slug.MustParse("mit")}

	require.NoError(t, core.Provision(ctx, tenant))

	sc, err := core.QueryByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "MIT Manipal", sc.Title)
	assert.Contains(t, sc.Footer, "MIT Manipal")

	title := "NSS MIT"
	_, err = core.Update(ctx, sc, sitebus.UpdateSiteConfig{Title: &title})
	require.NoError(t, err)

	// Provisioning again keeps the edited config.
	require.NoError(t, core.Provision(ctx, tenant))

	sc, err = core.QueryByTenant(ctx, tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "NSS MIT", sc.Title)

	_, err = core.QueryByTenant(ctx, uuid.New())
	assert.ErrorIs(t, err, sitebus.ErrNotFound)
}
