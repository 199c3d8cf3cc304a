package where_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record map[string][]any

func (r record) FieldValues(field string) []any {
	return r[field]
}

func Test_Match(t *testing.T) {
	t1 := uuid.New()
	t2 := uuid.New()
	t3 := uuid.New()
	self := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := record{
		where.ID:     {self},
		where.Tenant: {t1, t2},
		"status":     {"pending_setup"},
		"expiry":     {now.Add(time.Second)},
	}

	tests := []struct {
		name   string
		clause where.Clause
		want   bool
	}{
		{"all", where.All(), true},
		{"none", where.None(), false},
		{"equals id", where.Equals(where.ID, self), true},
		{"equals id as string", where.Equals(where.ID, self.String()), true},
		{"equals other id", where.Equals(where.ID, uuid.New()), false},
		{"multi-valued in hit", where.In(where.Tenant, []uuid.UUID{t3, t2}), true},
		{"multi-valued in miss", where.In(where.Tenant, []uuid.UUID{t3}), false},
		{"empty in", where.In(where.Tenant, []uuid.UUID{}), false},
		{"greater than", where.GreaterThan("expiry", now), true},
		{"greater than at boundary", where.GreaterThan("expiry", now.Add(time.Second)), false},
		{"missing field", where.Equals("token", "abc"), false},
		{"and", where.And(where.Equals("status", "pending_setup"), where.GreaterThan("expiry", now)), true},
		{"and fails", where.And(where.Equals("status", "active"), where.GreaterThan("expiry", now)), false},
		{"or", where.Or(where.Equals(where.ID, uuid.New()), where.In(where.Tenant, []uuid.UUID{t1})), true},
		{"empty and", where.And(), true},
		{"empty or", where.Or(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, where.Match(tt.clause, rec))
		})
	}
}

func Test_IsNone(t *testing.T) {
	assert.True(t, where.None().IsNone())
	assert.True(t, where.In(where.Tenant, []uuid.UUID{}).IsNone())
	assert.True(t, where.And(where.Equals(where.ID, 1), where.None()).IsNone())
	assert.True(t, where.Or(where.None(), where.In(where.Tenant, []string{})).IsNone())
	assert.False(t, where.Or(where.None(), where.Equals(where.ID, 1)).IsNone())
	assert.False(t, where.All().IsNone())
}

func Test_SQL(t *testing.T) {
	cols := where.Columns{
		where.ID: {Expr: "u.user_id", Type: "uuid"},
		where.Tenant: {
			Expr:     "ut.tenant_id",
			Subquery: "u.user_id IN (SELECT ut.user_id FROM user_tenants AS ut WHERE %s)",
			Type:     "uuid",
		},
		"status": {Expr: "u.status"},
	}

	self := uuid.New()
	t1 := uuid.New()

	c := where.And(
		where.Equals("status", "pending_approval"),
		where.Or(where.Equals(where.ID, self), where.In(where.Tenant, []uuid.UUID{t1})),
	)

	data := map[string]any{"offset": 0}
	got, err := where.SQL(c, cols, data)
	require.NoError(t, err)

	want := "(u.status = :where_1 AND (u.user_id = :where_2 OR u.user_id IN (SELECT ut.user_id FROM user_tenants AS ut WHERE ut.tenant_id = ANY(CAST(:where_3 AS uuid[])))))"
	assert.Equal(t, want, got)
	assert.Equal(t, "pending_approval", data["where_1"])
	assert.Equal(t, self.String(), data["where_2"])
	assert.Contains(t, data, "where_3")
	assert.Equal(t, 0, data["offset"])

	got, err = where.SQL(where.In(where.Tenant, []uuid.UUID{}), cols, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "FALSE", got)

	_, err = where.SQL(where.Equals("nope", 1), cols, map[string]any{})
	assert.Error(t, err)
}
