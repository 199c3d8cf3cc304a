// Package sitedb contains site config related CRUD functionality.
package sitedb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/nssmahe/portal/business/domain/sitebus"
	"github.com/nssmahe/portal/business/sdk/sqldb"
	"github.com/nssmahe/portal/foundation/logger"
)

type siteDB struct {
	TenantID  uuid.UUID `db:"tenant_id"`
	Title     string    `db:"title"`
	Header    string    `db:"header"`
	Footer    string    `db:"footer"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toDBSite(bus sitebus.SiteConfig) siteDB {
	return siteDB{
		TenantID:  bus.TenantID,
		Title:     bus.Title,
		Header:    bus.Header,
		Footer:    bus.Footer,
		CreatedAt: bus.CreatedAt.UTC(),
		UpdatedAt: bus.UpdatedAt.UTC(),
	}
}

func toBusSite(db siteDB) sitebus.SiteConfig {
	return sitebus.SiteConfig{
		TenantID:  db.TenantID,
		Title:     db.Title,
		Header:    db.Header,
		Footer:    db.Footer,
		CreatedAt: db.CreatedAt.In(time.Local),
		UpdatedAt: db.UpdatedAt.In(time.Local),
	}
}

// Store manages the set of APIs for site config database access.
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

// Create inserts the site config of a tenant. An existing row is kept.
func (s *Store) Create(ctx context.Context, sc sitebus.SiteConfig) error {
	const q = `
	INSERT INTO "public"."site_config"
		(tenant_id, title, header, footer, created_at, updated_at)
	VALUES
		(:tenant_id, :title, :header, :footer, :created_at, :updated_at)
	ON CONFLICT (tenant_id) DO NOTHING`

	if err := sqldb.NamedExecContext(ctx, s.log, s.db, q, toDBSite(sc)); err != nil {
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// Update replaces the site config of a tenant.
func (s *Store) Update(ctx context.Context, sc sitebus.SiteConfig) error {
	const q = `
	UPDATE
		"public"."site_config"
	SET
		title = :title,
		header = :header,
		footer = :footer,
		updated_at = :updated_at
	WHERE
		tenant_id = :tenant_id`

	if err := sqldb.NamedExecContextAffected(ctx, s.log, s.db, q, toDBSite(sc)); err != nil {
		if errors.Is(err, sqldb.ErrNoRowsAffected) {
			return sitebus.ErrNotFound
		}
		return fmt.Errorf("namedexeccontext: %w", err)
	}

	return nil
}

// QueryByTenant gets the site config of the specified tenant.
func (s *Store) QueryByTenant(ctx context.Context, tenantID uuid.UUID) (sitebus.SiteConfig, error) {
	data := struct {
		TenantID string `db:"tenant_id"`
	}{
		TenantID: tenantID.String(),
	}

	const q = `
	SELECT
		tenant_id, title, header, footer, created_at, updated_at
	FROM
		"public"."site_config"
	WHERE
		tenant_id = :tenant_id`

	var dbSite siteDB
	if err := sqldb.NamedQueryStruct(ctx, s.log, s.db, q, data, &dbSite); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return sitebus.SiteConfig{}, sitebus.ErrNotFound
		}
		return sitebus.SiteConfig{}, fmt.Errorf("db: %w", err)
	}

	return toBusSite(dbSite), nil
}
