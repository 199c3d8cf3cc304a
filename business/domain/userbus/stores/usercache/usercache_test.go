package usercache_test

import (
	"context"
	"io"
	"net/mail"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/domain/userbus/stores/usercache"
	"github.com/nssmahe/portal/business/sdk/unitest"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/business/types/tenantrole"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup returns a cache over an in-memory store and a pending_approval user
// that is already cached under both its id and its email.
func setup(t *testing.T) (*usercache.Store, *unitest.UserStore, userbus.User) {
	t.Helper()

	ctx := context.Background()
	db := unitest.NewUserStore()
	cache := usercache.NewStore(logger.New(io.Discard, logger.LevelInfo, "TEST", nil), db, time.Minute)

	usr := userbus.User{
		ID:      uuid.New(),
		Name:    name.MustParse("Alice"),
		Email:   mail.Address{Address: "alice@login.com"},
		Tenants: []userbus.Membership{{TenantID: uuid.New(), Role: tenantrole.UnitVolunteer}},
		Status:  status.PendingApproval,
	}
	require.NoError(t, cache.Create(ctx, usr))

	// A write behind the cache's back shows whether reads are served from it.
	behind := usr
	behind.About = "changed behind the cache"
	require.NoError(t, db.Update(ctx, behind))

	got, err := cache.QueryByID(ctx, usr.ID)
	require.NoError(t, err)
	require.Empty(t, got.About, "id key is cached")

	got, err = cache.QueryByEmail(ctx, usr.Email)
	require.NoError(t, err)
	require.Empty(t, got.About, "email key is cached")

	return cache, db, usr
}

func Test_UpdateWhereEvicts(t *testing.T) {
	ctx := context.Background()
	cond := where.Equals(userbus.FieldStatus, status.PendingApproval)

	t.Run("id", func(t *testing.T) {
		cache, _, usr := setup(t)

		usr.Status = status.Active
		require.NoError(t, cache.UpdateWhere(ctx, usr, cond))

		got, err := cache.QueryByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.True(t, got.Status.Equal(status.Active))
	})

	t.Run("email", func(t *testing.T) {
		cache, _, usr := setup(t)

		usr.Status = status.Active
		require.NoError(t, cache.UpdateWhere(ctx, usr, cond))

		got, err := cache.QueryByEmail(ctx, usr.Email)
		require.NoError(t, err)
		assert.True(t, got.Status.Equal(status.Active))
	})

	t.Run("stale-write", func(t *testing.T) {
		cache, db, usr := setup(t)

		winner := usr
		winner.Status = status.Rejected
		require.NoError(t, db.Update(ctx, winner))

		usr.Status = status.Active
		assert.ErrorIs(t, cache.UpdateWhere(ctx, usr, cond), userbus.ErrStale)

		got, err := cache.QueryByEmail(ctx, usr.Email)
		require.NoError(t, err)
		assert.True(t, got.Status.Equal(status.Rejected), "the losing write is not cached")

		got, err = cache.QueryByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.True(t, got.Status.Equal(status.Rejected))
	})
}

func Test_DeleteEvicts(t *testing.T) {
	ctx := context.Background()
	cache, _, usr := setup(t)

	require.NoError(t, cache.Delete(ctx, usr))

	_, err := cache.QueryByID(ctx, usr.ID)
	assert.ErrorIs(t, err, userbus.ErrNotFound)

	_, err = cache.QueryByEmail(ctx, usr.Email)
	assert.ErrorIs(t, err, userbus.ErrNotFound)
}

func Test_UpdateEmailEvictsOldKey(t *testing.T) {
	ctx := context.Background()
	cache, _, usr := setup(t)

	old := usr.Email
	usr.Email = mail.Address{Address: "alice.new@login.com"}
	require.NoError(t, cache.Update(ctx, usr))

	_, err := cache.QueryByEmail(ctx, old)
	assert.ErrorIs(t, err, userbus.ErrNotFound)

	got, err := cache.QueryByEmail(ctx, usr.Email)
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
}
