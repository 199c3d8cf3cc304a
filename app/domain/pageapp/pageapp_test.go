package pageapp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/domain/pageapp"
	"github.com/nssmahe/portal/app/sdk/apitest"
	"github.com/nssmahe/portal/app/sdk/mux"
	"github.com/nssmahe/portal/app/sdk/query"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/password"
	"github.com/nssmahe/portal/business/types/role"
	"github.com/nssmahe/portal/business/types/slug"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/business/types/tenantrole"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routes(app *web.App, cfg mux.Config) {
	pageapp.Routes(app, pageapp.Config{
		Log:       cfg.Log,
		Auth:      cfg.AuthConfig.Auth,
		PageBus:   cfg.BusConfig.PageBus,
		TenantBus: cfg.BusConfig.TenantBus,
		AccessBus: cfg.BusConfig.AccessBus,
	})
}

func seedUser(t *testing.T, at *apitest.Test, login string, roles []role.Role, ms ...userbus.Membership) userbus.User {
	pw := password.MustParse("gophers")
	local, _, _ := strings.Cut(login, "@")

	return at.SeedUser(t, userbus.NewUser{
		Name:     name.MustParse("User " + local),
		Email:    mail.Address{Address: login},
		Roles:    roles,
		Password: &pw,
		Tenants:  ms,
		Status:   status.Active,
	})
}

func seedPage(t *testing.T, at *apitest.Test, tenantID uuid.UUID, title string) pagebus.Page {
	s, err := slug.From(title)
	require.NoError(t, err)

	p, err := at.Bus.PageBus.Create(context.Background(), pagebus.NewPage{
		TenantID: tenantID,
		Title:    title,
		Slug:     s,
		Content:  "content of " + title,
	})
	require.NoError(t, err)

	return p
}

func strptr(s string) *string {
	return &s
}

func Test_Pages(t *testing.T) {
	mit := tenantbus.Tenant{ID: uuid.New(), Name: "MIT", Slug: slug.MustParse("mit"), AllowPublicRead: true}
	kmc := tenantbus.Tenant{ID: uuid.New(), Name: "KMC", Slug: slug.MustParse("kmc")}

	at := apitest.New(t, routes, mit, kmc)

	admin := seedUser(t, at, "root@example.com", []role.Role{role.SuperAdmin})
	mitAdmin := seedUser(t, at, "mitadmin@example.com", nil, userbus.Membership{TenantID: mit.ID, Role: tenantrole.TenantAdmin})
	mitVol := seedUser(t, at, "mitvol@example.com", nil, userbus.Membership{TenantID: mit.ID, Role: tenantrole.UnitVolunteer})

	adminToken := at.Token(t, admin)
	mitAdminToken := at.Token(t, mitAdmin)
	mitVolToken := at.Token(t, mitVol)

	mitAbout := seedPage(t, at, mit.ID, "About")
	seedPage(t, at, mit.ID, "Camps")
	kmcAbout := seedPage(t, at, kmc.ID, "About")

	total := func(want int) func(t *testing.T, w *httptest.ResponseRecorder) {
		return func(t *testing.T, w *httptest.ResponseRecorder) {
			var got query.Result[pageapp.Page]
			apitest.Decode(t, w, &got)
			assert.Equal(t, want, got.Total)
		}
	}

	publicOnly := func(t *testing.T, w *httptest.ResponseRecorder) {
		var got query.Result[pageapp.Page]
		apitest.Decode(t, w, &got)
		require.Len(t, got.Items, 2)
		for _, p := range got.Items {
			assert.Equal(t, mit.ID.String(), p.TenantID)
		}
	}

	at.Run(t, []apitest.Table{
		{Name: "anonymous-public", URL: "/v1/pages", Method: http.MethodGet, StatusCode: http.StatusOK, Check: publicOnly},
		{Name: "anonymous-private-tenant", URL: "/v1/pages?tenant_id=" + kmc.ID.String(), Method: http.MethodGet, StatusCode: http.StatusOK, Check: total(0)},
		{Name: "volunteer-all", URL: "/v1/pages", Method: http.MethodGet, Token: mitVolToken, StatusCode: http.StatusOK, Check: total(3)},
		{Name: "by-slug", URL: "/v1/pages?slug=about", Method: http.MethodGet, Token: mitVolToken, StatusCode: http.StatusOK, Check: total(2)},
		{Name: "bad-slug", URL: "/v1/pages?slug=About%20Us", Method: http.MethodGet, StatusCode: http.StatusBadRequest},
		{Name: "bad-token", URL: "/v1/pages", Method: http.MethodGet, Token: "garbage", StatusCode: http.StatusUnauthorized},
	}, "query")

	at.Run(t, []apitest.Table{
		{Name: "anonymous-public", URL: "/v1/pages/" + mitAbout.ID.String(), Method: http.MethodGet, StatusCode: http.StatusOK},
		{Name: "anonymous-private", URL: "/v1/pages/" + kmcAbout.ID.String(), Method: http.MethodGet, StatusCode: http.StatusNotFound},
		{Name: "volunteer-private", URL: "/v1/pages/" + kmcAbout.ID.String(), Method: http.MethodGet, Token: mitVolToken, StatusCode: http.StatusOK},
		{Name: "missing", URL: "/v1/pages/" + uuid.NewString(), Method: http.MethodGet, StatusCode: http.StatusNotFound},
	}, "querybyid")

	at.Run(t, []apitest.Table{
		{
			Name:       "anonymous",
			URL:        "/v1/pages",
			Method:     http.MethodPost,
			StatusCode: http.StatusUnauthorized,
			Input:      pageapp.NewPage{TenantID: mit.ID.String(), Title: "Events"},
		},
		{
			Name:       "tenant-admin",
			URL:        "/v1/pages",
			Method:     http.MethodPost,
			Token:      mitAdminToken,
			StatusCode: http.StatusForbidden,
			Input:      pageapp.NewPage{TenantID: mit.ID.String(), Title: "Events"},
		},
		{
			Name:       "super-admin",
			URL:        "/v1/pages",
			Method:     http.MethodPost,
			Token:      adminToken,
			StatusCode: http.StatusOK,
			Input:      pageapp.NewPage{TenantID: mit.ID.String(), Title: "Blood Donation Camp"},
			Check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var got pageapp.Page
				apitest.Decode(t, w, &got)
				assert.Equal(t, "blood-donation-camp", got.Slug)
			},
		},
		{
			Name:       "slug-taken",
			URL:        "/v1/pages",
			Method:     http.MethodPost,
			Token:      adminToken,
			StatusCode: http.StatusConflict,
			Input:      pageapp.NewPage{TenantID: mit.ID.String(), Title: "About"},
		},
		{
			Name:       "unknown-tenant",
			URL:        "/v1/pages",
			Method:     http.MethodPost,
			Token:      adminToken,
			StatusCode: http.StatusNotFound,
			Input:      pageapp.NewPage{TenantID: uuid.NewString(), Title: "Events"},
		},
	}, "create")

	at.Run(t, []apitest.Table{
		{
			Name:       "tenant-admin",
			URL:        "/v1/pages/" + mitAbout.ID.String(),
			Method:     http.MethodPut,
			Token:      mitAdminToken,
			StatusCode: http.StatusOK,
			Input:      pageapp.UpdatePage{Content: strptr("We serve.")},
			Check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var got pageapp.Page
				apitest.Decode(t, w, &got)
				assert.Equal(t, "We serve.", got.Content)
				assert.Equal(t, "About", got.Title)
			},
		},
		{
			Name:       "other-tenant",
			URL:        "/v1/pages/" + kmcAbout.ID.String(),
			Method:     http.MethodPut,
			Token:      mitAdminToken,
			StatusCode: http.StatusForbidden,
			Input:      pageapp.UpdatePage{Content: strptr("mine")},
		},
		{
			Name:       "volunteer",
			URL:        "/v1/pages/" + mitAbout.ID.String(),
			Method:     http.MethodPut,
			Token:      mitVolToken,
			StatusCode: http.StatusForbidden,
			Input:      pageapp.UpdatePage{Content: strptr("mine")},
		},
	}, "update")

	at.Run(t, []apitest.Table{
		{Name: "tenant-admin", URL: "/v1/pages/" + mitAbout.ID.String(), Method: http.MethodDelete, Token: mitAdminToken, StatusCode: http.StatusForbidden},
		{Name: "super-admin", URL: "/v1/pages/" + mitAbout.ID.String(), Method: http.MethodDelete, Token: adminToken, StatusCode: http.StatusNoContent},
		{Name: "gone", URL: "/v1/pages/" + mitAbout.ID.String(), Method: http.MethodGet, Token: adminToken, StatusCode: http.StatusNotFound},
	}, "delete")
}
