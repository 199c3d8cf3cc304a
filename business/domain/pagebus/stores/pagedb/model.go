package pagedb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/types/slug"
)

type pageDB struct {
	ID           uuid.UUID `db:"page_id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	Title        string    `db:"title"`
	Slug         string    `db:"slug"`
	Content      string    `db:"content"`
	TenantPublic bool      `db:"tenant_public"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func toDBPage(bus pagebus.Page) pageDB {
	return pageDB{
		ID:        bus.ID,
		TenantID:  bus.TenantID,
		Title:     bus.Title,
		Slug:      bus.Slug.String(),
		Content:   bus.Content,
		CreatedAt: bus.CreatedAt.UTC(),
		UpdatedAt: bus.UpdatedAt.UTC(),
	}
}

func toBusPage(db pageDB) (pagebus.Page, error) {
	s, err := slug.Parse(db.Slug)
	if err != nil {
		return pagebus.Page{}, fmt.Errorf("parse slug: %w", err)
	}

	return pagebus.Page{
		ID:           db.ID,
		TenantID:     db.TenantID,
		Title:        db.Title,
		Slug:         s,
		Content:      db.Content,
		TenantPublic: db.TenantPublic,
		CreatedAt:    db.CreatedAt.In(time.Local),
		UpdatedAt:    db.UpdatedAt.In(time.Local),
	}, nil
}

func toBusPages(dbs []pageDB) ([]pagebus.Page, error) {
	bus := make([]pagebus.Page, len(dbs))

	for i, db := range dbs {
		var err error
		bus[i], err = toBusPage(db)
		if err != nil {
			return nil, err
		}
	}

	return bus, nil
}
