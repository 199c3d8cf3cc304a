package authapp_test

import (
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/domain/authapp"
	"github.com/nssmahe/portal/app/sdk/apitest"
	"github.com/nssmahe/portal/app/sdk/mux"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/business/types/name"
	"github.com/nssmahe/portal/business/types/password"
	"github.com/nssmahe/portal/business/types/slug"
	"github.com/nssmahe/portal/business/types/status"
	"github.com/nssmahe/portal/business/types/tenantrole"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func routes(app *web.App, cfg mux.Config) {
	authapp.Routes(app, authapp.Config{
		Auth:          cfg.AuthConfig.Auth,
		KID:           cfg.AuthConfig.KID,
		TenantBus:     cfg.BusConfig.TenantBus,
		RatePerSecond: cfg.RateConfig.PerSecond,
		RateBurst:     cfg.RateConfig.Burst,
	})
}

func Test_Login(t *testing.T) {
	domain := "nss.mit.edu"
	mit := tenantbus.Tenant{ID: uuid.New(), Name: "MIT", Slug: slug.MustParse("mit"), Domain: &domain}

	at := apitest.New(t, routes, mit)

	pw := password.MustParse("gophers")

	active := at.SeedUser(t, userbus.NewUser{
		Name:     name.MustParse("Active Volunteer"),
		Email:    mail.Address{Address: "active@example.com"},
		Password: &pw,
		Tenants:  []userbus.Membership{{TenantID: mit.ID, Role: tenantrole.UnitVolunteer}},
		Status:   status.Active,
	})

	at.SeedUser(t, userbus.NewUser{
		Name:     name.MustParse("Pending Volunteer"),
		Email:    mail.Address{Address: "pending@example.com"},
		Password: &pw,
		Status:   status.PendingApproval,
	})

	at.Run(t, []apitest.Table{
		{
			Name:       "active",
			URL:        "/v1/auth/login",
			Method:     http.MethodPost,
			StatusCode: http.StatusOK,
			Input:      authapp.Login{Email: "active@example.com", Password: "gophers"},
			Check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var got authapp.Token
				apitest.Decode(t, w, &got)
				require.NotEmpty(t, got.Token)
				assert.Empty(t, got.TenantID)

				claims, err := at.Auth.Authenticate(t.Context(), "Bearer "+got.Token)
				require.NoError(t, err)
				assert.Equal(t, active.ID.String(), claims.Subject)
			},
		},
		{
			Name:       "tenant-host",
			URL:        "http://" + domain + "/v1/auth/login",
			Method:     http.MethodPost,
			StatusCode: http.StatusOK,
			Input:      authapp.Login{Email: "active@example.com", Password: "gophers"},
			Check: func(t *testing.T, w *httptest.ResponseRecorder) {
				var got authapp.Token
				apitest.Decode(t, w, &got)
				assert.Equal(t, mit.ID.String(), got.TenantID)
			},
		},
		{
			Name:       "wrong-password",
			URL:        "/v1/auth/login",
			Method:     http.MethodPost,
			StatusCode: http.StatusUnauthorized,
			Input:      authapp.Login{Email: "active@example.com", Password: "rustaceans"},
		},
		{
			Name:       "not-active",
			URL:        "/v1/auth/login",
			Method:     http.MethodPost,
			StatusCode: http.StatusUnauthorized,
			Input:      authapp.Login{Email: "pending@example.com", Password: "gophers"},
		},
		{
			Name:       "missing-password",
			URL:        "/v1/auth/login",
			Method:     http.MethodPost,
			StatusCode: http.StatusBadRequest,
			Input:      authapp.Login{Email: "active@example.com"},
		},
	}, "login")
}
