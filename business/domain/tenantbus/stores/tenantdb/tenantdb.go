// Package tenantdb contains tenant related CRUD functionality.
package tenantdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/sqldb"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/slug"
	"github.com/nssmahe/portal/foundation/logger"
)

var columns = where.Columns{
	where.ID:              {Expr: "t.tenant_id", Type: "uuid"},
	tenantbus.FieldPublic: {Expr: "t.allow_public_read"},
}

var orderByFields = map[string]string{
	tenantbus.OrderByID:        "t.tenant_id",
	tenantbus.OrderByName:      "t.name",
	tenantbus.OrderBySlug:      "t.slug",
	tenantbus.OrderByCreatedAt: "t.created_at",
}

// Store manages the set of APIs for tenant database access.
type Store struct {
	log *logger.Logger
	db  sqlx.ExtContext
}

// NewStore constructs the api for data access.
func NewStore(log *logger.Logger, db sqlx.ExtContext) *Store {
	return &Store{
		log: log,
		db:  db,
	}
}

// Create inserts a new tenant into the database.
func (s *Store) Create(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	INSERT INTO "public"."tenants"
		(tenant_id, name, slug, domain, allow_public_read, created_at, updated_at)
	VALUES
		(:tenant_id, :name, :slug, :domain, :allow_public_read, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		return mapWriteError(err)
	}

	return nil
}

// Update replaces a tenant document in the database.
func (s *Store) Update(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	UPDATE
		"public"."tenants"
	SET
		name = :name,
		slug = :slug,
		domain = :domain,
		allow_public_read = :allow_public_read,
		updated_at = :updated_at
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		return mapWriteError(err)
	}

	return nil
}

// Delete removes a tenant from the database.
func (s *Store) Delete(ctx context.Context, t tenantbus.Tenant) error {
	const q = `
	DELETE FROM
		"public"."tenants"
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBTenant(t)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves a list of existing tenants from the database.
func (s *Store) Query(ctx context.Context, filter where.Clause, orderBy order.By, page page.Page) ([]tenantbus.Tenant, error) {
	data := map[string]any{
		"offset":        page.Offset(),
		"rows_per_page": page.RowsPerPage(),
	}

	const q = `
	SELECT
		t.tenant_id, t.name, t.slug, t.domain, t.allow_public_read, t.created_at, t.updated_at
	FROM
		"public"."tenants" AS t`

	buf := bytes.NewBufferString(q)
	if err := applyFilter(filter, data, buf); err != nil {
		return nil, err
	}

	by, exists := orderByFields[orderBy.Field]
	if !exists {
		return nil, fmt.Errorf("field %q does not exist", orderBy.Field)
	}

	buf.WriteString(" ORDER BY " + by + " " + orderBy.Direction)
	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbTenants []tenantDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbTenants); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusTenants(dbTenants)
}

// Count returns the total number of tenants in the DB.
func (s *Store) Count(ctx context.Context, filter where.Clause) (int, error) {
	data := map[string]any{}

	const q = `
	SELECT
		count(1)
	FROM
		"public"."tenants" AS t`

	buf := bytes.NewBufferString(q)
	if err := applyFilter(filter, data, buf); err != nil {
		return 0, err
	}

	var count struct {
		Count int `db:"count"`
	}
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, buf.String(), data, &count); err != nil {
		return 0, fmt.Errorf("db: %w", err)
	}

	return count.Count, nil
}

// QueryByID gets the specified tenant from the database.
func (s *Store) QueryByID(ctx context.Context, tenantID uuid.UUID) (tenantbus.Tenant, error) {
	data := struct {
		ID string `db:"tenant_id"`
	}{
		ID: tenantID.String(),
	}

	const q = `
	SELECT
		tenant_id, name, slug, domain, allow_public_read, created_at, updated_at
	FROM
		"public"."tenants"
	WHERE
		tenant_id = :tenant_id`

	var dbT tenantDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbT); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return tenantbus.Tenant{}, fmt.Errorf("db: %w", tenantbus.ErrNotFound)
		}
		return tenantbus.Tenant{}, fmt.Errorf("db: %w", err)
	}

	return toBusTenant(dbT)
}

// QueryIDBySlug retrieves the tenant ID for the specified slug.
func (s *Store) QueryIDBySlug(ctx context.Context, sl slug.Slug) (uuid.UUID, error) {
	data := struct {
		Slug string `db:"slug"`
	}{
		Slug: sl.String(),
	}

	const q = `
	SELECT
		tenant_id
	FROM
		"public"."tenants"
	WHERE
		slug = :slug`

	var result struct {
		ID uuid.UUID `db:"tenant_id"`
	}

	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &result); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return uuid.Nil, tenantbus.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("db: %w", err)
	}

	return result.ID, nil
}

// QueryByDomain retrieves the tenant served on the specified domain.
func (s *Store) QueryByDomain(ctx context.Context, domain string) (tenantbus.Tenant, error) {
	data := struct {
		Domain string `db:"domain"`
	}{
		Domain: domain,
	}

	const q = `
	SELECT
		tenant_id, name, slug, domain, allow_public_read, created_at, updated_at
	FROM
		"public"."tenants"
	WHERE
		domain = :domain`

	var dbT tenantDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbT); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return tenantbus.Tenant{}, tenantbus.ErrDomainNotFound
		}
		return tenantbus.Tenant{}, fmt.Errorf("db: %w", err)
	}

	return toBusTenant(dbT)
}

// =============================================================================

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

func mapWriteError(err error) error {
	var dupErr sqldb.ErrDBDuplicatedEntry
	if errors.As(err, &dupErr) {
		switch dupErr.Column {
		case "tenants_slug_key":
			return fmt.Errorf("namedexeccontext: %w", tenantbus.ErrUniqueSlug)
		case "tenants_domain_key":
			return fmt.Errorf("namedexeccontext: %w", tenantbus.ErrUniqueDomain)
		}
	}

	return fmt.Errorf("namedexeccontext: %w", err)
}
