// Package pagedb contains page related CRUD functionality.
package pagedb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/sqldb"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/foundation/logger"
)

const selectPage = `
	SELECT
		p.page_id, p.tenant_id, p.title, p.slug, p.content,
		t.allow_public_read AS tenant_public, p.created_at, p.updated_at
	FROM
		"public"."pages" AS p
	JOIN
		"public"."tenants" AS t ON t.tenant_id = p.tenant_id`

var columns = where.Columns{
	where.ID:           {Expr: "p.page_id", Type: "uuid"},
	where.Tenant:       {Expr: "p.tenant_id", Type: "uuid"},
	where.TenantPublic: {Expr: "t.allow_public_read"},
	pagebus.FieldSlug:  {Expr: "p.slug"},
}

var orderByFields = map[string]string{
	pagebus.OrderByID:        "p.page_id",
	pagebus.OrderByTitle:     "p.title",
	pagebus.OrderBySlug:      "p.slug",
	pagebus.OrderByCreatedAt: "p.created_at",
}

// Store manages the set of APIs for page database access.
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

// Create inserts a new page into the database.
func (s *Store) Create(ctx context.Context, p pagebus.Page) error {
	const q = `
	INSERT INTO "public"."pages"
		(page_id, tenant_id, title, slug, content, created_at, updated_at)
	VALUES
		(:page_id, :tenant_id, :title, :slug, :content, :created_at, :updated_at)`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBPage(p)); err != nil {
		return mapWriteError(err)
	}

	return nil
}

// Update replaces a page record in the database.
func (s *Store) Update(ctx context.Context, p pagebus.Page) error {
	const q = `
	UPDATE
		"public"."pages"
	SET
		title = :title,
		slug = :slug,
		content = :content,
		updated_at = :updated_at
	WHERE
		page_id = :page_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBPage(p)); err != nil {
		return mapWriteError(err)
	}

	return nil
}

// Delete removes a page from the database.
func (s *Store) Delete(ctx context.Context, p pagebus.Page) error {
	const q = `
	DELETE FROM
		"public"."pages"
	WHERE
		page_id = :page_id`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBPage(p)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Query retrieves a list of existing pages from the database.
func (s *Store) Query(ctx context.Context, filter where.Clause, orderBy order.By, page page.Page) ([]pagebus.Page, error) {
	data := map[string]any{
		"offset":        page.Offset(),
		"rows_per_page": page.RowsPerPage(),
	}

	buf := bytes.NewBufferString(selectPage)
	if err := applyFilter(filter, data, buf); err != nil {
		return nil, err
	}

	by, exists := orderByFields[orderBy.Field]
	if !exists {
		return nil, fmt.Errorf("field %q does not exist", orderBy.Field)
	}

	buf.WriteString(" ORDER BY " + by + " " + orderBy.Direction)
	buf.WriteString(" OFFSET :offset ROWS FETCH NEXT :rows_per_page ROWS ONLY")

	var dbPages []pageDB
	if err := sqldb.NamedQuerySlice(ctx, s.log, s.db, buf.String(), data, &dbPages); err != nil {
		return nil, fmt.Errorf("namedqueryslice: %w", err)
	}

	return toBusPages(dbPages)
}

// Count returns the total number of pages in the DB.
func (s *Store) Count(ctx context.Context, filter where.Clause) (int, error) {
	data := map[string]any{}

	const q = `
	SELECT
		count(1)
	FROM
		"public"."pages" AS p
	JOIN
		"public"."tenants" AS t ON t.tenant_id = p.tenant_id`

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

// QueryByID gets the specified page from the database.
func (s *Store) QueryByID(ctx context.Context, pageID uuid.UUID) (pagebus.Page, error) {
	data := struct {
		ID string `db:"page_id"`
	}{
		ID: pageID.String(),
	}

	q := selectPage + `
	WHERE
		p.page_id = :page_id`

	var dbPage pageDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbPage); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return pagebus.Page{}, fmt.Errorf("db: %w", pagebus.ErrNotFound)
		}
		return pagebus.Page{}, fmt.Errorf("db: %w", err)
	}

	return toBusPage(dbPage)
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
	if errors.As(err, &dupErr) && dupErr.Column == "pages_tenant_id_slug_key" {
		return fmt.Errorf("namedexeccontext: %w", pagebus.ErrUniqueSlug)
	}

	return fmt.Errorf("namedexeccontext: %w", err)
}
