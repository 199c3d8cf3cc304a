package userdb

import (
	"bytes"
	"fmt"

	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/where"
)

var columns = where.Columns{
	where.ID: {Expr: "u.user_id", Type: "uuid"},
	where.Tenant: {
		Expr:     "ut.tenant_id",
		Subquery: `u.user_id IN (SELECT ut.user_id FROM "public"."user_tenants" AS ut WHERE %s)`,
		Type:     "uuid",
	},
	userbus.FieldEmail:       {Expr: "u.email"},
	userbus.FieldStatus:      {Expr: "u.status"},
	userbus.FieldToken:       {Expr: "u.onboarding_token"},
	userbus.FieldTokenExpiry: {Expr: "u.token_expiry"},
}

func applyFilter(filter where.Clause, data map[string]any, buf *bytes.Buffer) error {
	if filter.IsAll() {
		return nil
	}

	clause, err := where.SQL(filter, columns, data)
	if err != nil {
		return fmt.Errorf("filter: %w", err)
	}

	buf.WriteString(" WHERE ")
	buf.WriteString(clause)

	return nil
}
