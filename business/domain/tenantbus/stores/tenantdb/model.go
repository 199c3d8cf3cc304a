package tenantdb

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/types/slug"
)

// tenantDB represents the structure of the tenant table in the database.
type tenantDB struct {
	ID              uuid.UUID      `db:"tenant_id"`
	Name            string         `db:"name"`
	Slug            string         `db:"slug"`
	Domain          sql.NullString `db:"domain"`
	AllowPublicRead bool           `db:"allow_public_read"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func toDBTenant(bus tenantbus.Tenant) tenantDB {
	db := tenantDB{
		ID:              bus.ID,
		Name:            bus.Name,
		Slug:            bus.Slug.String(),
		AllowPublicRead: bus.AllowPublicRead,
		CreatedAt:       bus.CreatedAt.UTC(),
		UpdatedAt:       bus.UpdatedAt.UTC(),
	}

	if bus.Domain != nil {
		db.Domain = sql.NullString{String: *bus.Domain, Valid: true}
	}

	return db
}

func toBusTenant(db tenantDB) (tenantbus.Tenant, error) {
	s, err := slug.Parse(db.Slug)
	if err != nil {
		return tenantbus.Tenant{}, fmt.Errorf("parse slug: %w", err)
	}

	bus := tenantbus.Tenant{
		ID:              db.ID,
		Name:            db.Name,
		Slug:            s,
		AllowPublicRead: db.AllowPublicRead,
		CreatedAt:       db.CreatedAt.In(time.Local),
		UpdatedAt:       db.UpdatedAt.In(time.Local),
	}

	if db.Domain.Valid {
		d := db.Domain.String
		bus.Domain = &d
	}

	return bus, nil
}

func toBusTenants(dbs []tenantDB) ([]tenantbus.Tenant, error) {
	bus := make([]tenantbus.Tenant, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusTenant(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
