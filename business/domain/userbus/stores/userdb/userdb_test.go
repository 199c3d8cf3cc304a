package userdb_test

import (
	"context"
	"net/mail"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/domain/userbus/stores/userdb"
	"github.com/nssmahe/portal/business/sdk/unitest"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/business/types/tenantrole"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*userdb.Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return userdb.NewStore(unitest.Logger(), sqlx.NewDb(db, "pgx")), mock
}

func testUser() userbus.User {
	now := time.Now()

	return userbus.User{
		ID:        uuid.New(),
		Name:      name.MustParse("Alice"),
		Email:     mail.Address{Address: "alice@login.com"},
		Roles:     []role.Role{role.User},
		Tenants:   []userbus.Membership{{TenantID: uuid.New(), Role: tenantrole.UnitVolunteer}},
		Status:    status.PendingApproval,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func Test_UpdateWhere(t *testing.T) {
	store, mock := newStore(t)

	cond := where.Equals(userbus.FieldStatus, status.PendingApproval)

	mock.ExpectExec(`UPDATE\s+"public"."users" AS u .* WHERE\s+u\.user_id = \$\d+ AND u\.status = \$\d+$`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateWhere(context.Background(), testUser(), cond)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_UpdateWhereStale(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectExec(`UPDATE\s+"public"."users" AS u`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateWhere(context.Background(), testUser(), where.Equals(userbus.FieldStatus, status.PendingApproval))
	assert.ErrorIs(t, err, userbus.ErrStale)
	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_CreateUniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		err        error
	}{
		{"users_email_key", userbus.ErrUniqueEmail},
		{"users_onboarding_token_key", userbus.ErrUniqueToken},
		{"user_tenants_pkey", userbus.ErrDuplicateMembership},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			store, mock := newStore(t)

			mock.ExpectExec(`WITH new_user AS`).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := store.Create(context.Background(), testUser())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func Test_QueryByID(t *testing.T) {
	store, mock := newStore(t)

	usr := testUser()
	tenantID := usr.Tenants[0].TenantID

	cols := []string{
		"user_id", "name", "email", "institutional_email", "about", "position", "blood_group",
		"profile_picture", "roles", "password_hash", "onboarding_token", "token_expiry",
		"status", "created_at", "updated_at",
	}

	mock.ExpectQuery(`FROM\s+"public"."users" AS u\s+WHERE\s+u\.user_id = \$1`).
		WithArgs(usr.ID.String()).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			usr.ID.String(), "Alice", "alice@login.com", "alice@inst.edu", "", "", nil,
			nil, "{user}", nil, nil, nil,
			"pending_approval", usr.CreatedAt, usr.UpdatedAt,
		))

	mock.ExpectQuery(`FROM\s+"public"."user_tenants"`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "tenant_id", "role"}).
			AddRow(usr.ID.String(), tenantID.String(), "unit-head"))

	got, err := store.QueryByID(context.Background(), usr.ID)
	require.NoError(t, err)

	assert.Equal(t, usr.ID, got.ID)
	assert.Equal(t, "alice@inst.edu", got.InstitutionalEmail.Address)
	assert.Equal(t, status.PendingApproval, got.Status)
	assert.Equal(t, []role.Role{role.User}, got.Roles)
	assert.Equal(t, []userbus.Membership{{TenantID: tenantID, Role: tenantrole.UnitHead}}, got.Tenants)
	assert.Nil(t, got.OnboardingToken)
	assert.False(t, got.BloodGroup.Valid())
	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_QueryByIDNotFound(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(`FROM\s+"public"."users" AS u`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := store.QueryByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, userbus.ErrNotFound)
}

func Test_CountNone(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(`SELECT\s+count\(1\)\s+FROM\s+"public"."users" AS u WHERE FALSE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	n, err := store.Count(context.Background(), where.In(where.Tenant, []uuid.UUID{}))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func Test_QueryByEmailIgnoresCase(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectQuery(`WHERE\s+lower\(u\.email\) = lower\(\$1\)`).
		WithArgs("Alice@Login.com").
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err := store.QueryByEmail(context.Background(), mail.Address{Address: "Alice@Login.com"})
	assert.ErrorIs(t, err, userbus.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
