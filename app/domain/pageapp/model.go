package pageapp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/types/slug"
)

// Page represents tenant content.
type Page struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenantId"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Content     string `json:"content"`
	DateCreated string `json:"dateCreated"`
	DateUpdated string `json:"dateUpdated"`
}

// Encode implements the web.Encoder interface.
func (app Page) Encode() ([]byte, string, error) {
	data, err := json.Marshal(app)
	return data, "application/json", err
}

func toAppPage(bus pagebus.Page) Page {
	return Page{
		ID:          bus.ID.String(),
		TenantID:    bus.TenantID.String(),
		Title:       bus.Title,
		Slug:        bus.Slug.String(),
		Content:     bus.Content,
		DateCreated: bus.CreatedAt.Format(time.RFC3339),
		DateUpdated: bus.UpdatedAt.Format(time.RFC3339),
	}
}

func toAppPages(pages []pagebus.Page) []Page {
	app := make([]Page, len(pages))
	for i, p := range pages {
		app[i] = toAppPage(p)
	}
	return app
}

// =============================================================================

// NewPage defines the data needed to add a page.
type NewPage struct {
	TenantID string `json:"tenantId" validate:"required,uuid"`
	Title    string `json:"title" validate:"required"`
	Slug     string `json:"slug"`
	Content  string `json:"content"`
}

// Decode implements the web.Decoder interface.
func (app *NewPage) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app NewPage) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusNewPage(app NewPage) (pagebus.NewPage, error) {
	tenantID, err := uuid.Parse(app.TenantID)
	if err != nil {
		return pagebus.NewPage{}, fmt.Errorf("parse tenantID: %w", err)
	}

	var s slug.Slug
	switch app.Slug {
	case "":
		s, err = slug.From(app.Title)
	default:
		s, err = slug.Parse(app.Slug)
	}
	if err != nil {
		return pagebus.NewPage{}, fmt.Errorf("parse slug: %w", err)
	}

	bus := pagebus.NewPage{
		TenantID: tenantID,
		Title:    app.Title,
		Slug:     s,
		Content:  app.Content,
	}

	return bus, nil
}

// UpdatePage defines the data needed to update a page.
type UpdatePage struct {
	Title   *string `json:"title" validate:"omitempty,min=1"`
	Slug    *string `json:"slug"`
	Content *string `json:"content"`
}

// Decode implements the web.Decoder interface.
func (app *UpdatePage) Decode(data []byte) error {
	return json.Unmarshal(data, app)
}

// Validate checks the data in the model is considered clean.
func (app UpdatePage) Validate() error {
	if err := errs.Check(app); err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("validate: %w", err))
	}
	return nil
}

func toBusUpdatePage(app UpdatePage) (pagebus.UpdatePage, error) {
	up := pagebus.UpdatePage{
		Title:   app.Title,
		Content: app.Content,
	}

	if app.Slug != nil {
		s, err := slug.Parse(*app.Slug)
		if err != nil {
			return pagebus.UpdatePage{}, fmt.Errorf("parse slug: %w", err)
		}
		up.Slug = &s
	}

	return up, nil
}
