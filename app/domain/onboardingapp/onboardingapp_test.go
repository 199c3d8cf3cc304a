package onboardingapp_test

import (
	"net/http"
	"net/http/httptest"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/domain/onboardingapp"
	"github.com/nssmahe/portal/app/sdk/apitest"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/app/sdk/mux"
	"github.com/nssmahe/portal/app/sdk/query"
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

type seed struct {
	tenant    tenantbus.Tenant
	other     tenantbus.Tenant
	admin     userbus.User
	head      userbus.User
	volunteer userbus.User
	outsider  userbus.User
}

func routes(app *web.App, cfg mux.Config) {
	onboardingapp.Routes(app, onboardingapp.Config{
		Auth:          cfg.AuthConfig.Auth,
		OnboardingBus: cfg.BusConfig.OnboardingBus,
		RatePerSecond: cfg.RateConfig.PerSecond,
		RateBurst:     cfg.RateConfig.Burst,
	})
}

func member(t *testing.T, at *apitest.Test, login string, ms ...userbus.Membership) userbus.User {
	pw := password.MustParse("gophers")

	return at.SeedUser(t, userbus.NewUser{
		Name:     name.MustParse("Member"),
		Email:    mail.Address{Address: login},
		Password: &pw,
		Tenants:  ms,
		Status:   status.Active,
	})
}

func setup(t *testing.T) (*apitest.Test, seed) {
	s := seed{
		tenant: tenantbus.Tenant{ID: uuid.New(), Name: "MIT Manipal", Slug: slug.MustParse("mit")},
		other:  tenantbus.Tenant{ID: uuid.New(), Name: "KMC Manipal", Slug: slug.MustParse("kmc")},
	}

	at := apitest.New(t, routes, s.tenant, s.other)

	pw := password.MustParse("gophers")
	s.admin = at.SeedUser(t, userbus.NewUser{
		Name:     name.MustParse("Root"),
		Email:    mail.Address{Address: "root@nssmahe.edu"},
		Roles:    []role.Role{role.SuperAdmin},
		Password: &pw,
		Status:   status.Active,
	})

	s.head = member(t, at, "head@nssmahe.edu", userbus.Membership{TenantID: s.tenant.ID, Role: tenantrole.UnitHead})
	s.volunteer = member(t, at, "vol@nssmahe.edu", userbus.Membership{TenantID: s.tenant.ID, Role: tenantrole.UnitVolunteer})
	s.outsider = member(t, at, "po@nssmahe.edu", userbus.Membership{TenantID: s.other.ID, Role: tenantrole.ProgrammeOfficer})

	return at, s
}

func invite(tenantID uuid.UUID, login string) onboardingapp.NewPending {
	return onboardingapp.NewPending{
		Name:               "Alice",
		Email:              login,
		InstitutionalEmail: "alice@learner.manipal.edu",
		TenantID:           tenantID.String(),
	}
}

// tokenFromMail pulls the onboarding token out of the last invitation link.
func tokenFromMail(t *testing.T, at *apitest.Test) string {
	t.Helper()

	sent := at.Mailer.Sent()
	require.NotEmpty(t, sent)

	text := sent[len(sent)-1].Text
	i := strings.Index(text, "/onboarding/")
	require.GreaterOrEqual(t, i, 0, "no onboarding link in %q", text)

	token := text[i+len("/onboarding/"):]
	return token[:64]
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) errs.Error {
	var e errs.Error
	apitest.Decode(t, w, &e)
	return e
}

// =============================================================================

func Test_Onboarding(t *testing.T) {
	at, s := setup(t)

	headToken := at.Token(t, s.head)
	volToken := at.Token(t, s.volunteer)
	outsiderToken := at.Token(t, s.outsider)
	adminToken := at.Token(t, s.admin)

	at.Run(t, []apitest.Table{
		{
			Name:       "anonymous",
			URL:        "/v1/users/create-pending",
			Method:     http.MethodPost,
			StatusCode: http.StatusUnauthorized,
			Input:      invite(s.tenant.ID, "a1@example.com"),
		},
		{
			Name:       "volunteer",
			URL:        "/v1/users/create-pending",
			Method:     http.MethodPost,
			Token:      volToken,
			StatusCode: http.StatusForbidden,
			Input:      invite(s.tenant.ID, "a2@example.com"),
		},
		{
			Name:       "other-tenant",
			URL:        "/v1/users/create-pending",
			Method:     http.MethodPost,
			Token:      outsiderToken,
			StatusCode: http.StatusForbidden,
			Input:      invite(s.tenant.ID, "a3@example.com"),
		},
		{
			Name:       "unknown-tenant",
			URL:        "/v1/users/create-pending",
			Method:     http.MethodPost,
			Token:      adminToken,
			StatusCode: http.StatusNotFound,
			Input:      invite(uuid.New(), "a4@example.com"),
		},
		{
			Name:       "bad-domain",
			URL:        "/v1/users/create-pending",
			Method:     http.MethodPost,
			Token:      headToken,
			StatusCode: http.StatusBadRequest,
			Input: onboardingapp.NewPending{
				Name:               "Alice",
				Email:              "a5@example.com",
				InstitutionalEmail: "alice@gmail.com",
				TenantID:           s.tenant.ID.String(),
			},
		},
		{
			Name:       "missing-fields",
			URL:        "/v1/users/create-pending",
			Method:     http.MethodPost,
			Token:      headToken,
			StatusCode: http.StatusBadRequest,
			Input:      onboardingapp.NewPending{Name: "Alice"},
		},
		{
			Name:       "duplicate-email",
			URL:        "/v1/users/create-pending",
			Method:     http.MethodPost,
			Token:      headToken,
			StatusCode: http.StatusConflict,
			Input:      invite(s.tenant.ID, "vol@nssmahe.edu"),
		},
	}, "invite")

	t.Run("full-flow", func(t *testing.T) {
		w := at.Do(t, http.MethodPost, "/v1/users/create-pending", headToken, invite(s.tenant.ID, "alice@example.com"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var created onboardingapp.Outcome
		apitest.Decode(t, w, &created)
		assert.True(t, created.Success)

		token := tokenFromMail(t, at)

		w = at.Do(t, http.MethodGet, "/v1/users/validate-token/"+token, "", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var owner onboardingapp.TokenOwner
		apitest.Decode(t, w, &owner)
		assert.Equal(t, created.UserID, owner.User.ID)
		assert.Equal(t, "pending_setup", owner.User.Status)
		assert.Equal(t, "alice@learner.manipal.edu", owner.User.InstitutionalEmail)

		w = at.Do(t, http.MethodPost, "/v1/users/complete-onboarding", "", onboardingapp.CompleteOnboarding{Token: token})
		require.Equal(t, http.StatusBadRequest, w.Code, "password is required")

		w = at.Do(t, http.MethodPost, "/v1/users/complete-onboarding", "", onboardingapp.CompleteOnboarding{
			Token:      token,
			Password:   "s3cret",
			About:      "I like trees",
			BloodGroup: "O+",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = at.Do(t, http.MethodPost, "/v1/users/complete-onboarding", "", onboardingapp.CompleteOnboarding{Token: token, Password: "again"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		e := errCode(t, w)
		assert.Equal(t, errs.InvalidToken, e.Code)
		assert.Equal(t, "invalid or expired token", e.Message)

		w = at.Do(t, http.MethodGet, "/v1/users/pending-users", headToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var pending query.Result[onboardingapp.User]
		apitest.Decode(t, w, &pending)
		require.Equal(t, 1, pending.Total)
		assert.Equal(t, created.UserID, pending.Items[0].ID)

		w = at.Do(t, http.MethodGet, "/v1/users/pending-users", outsiderToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		apitest.Decode(t, w, &pending)
		assert.Equal(t, 0, pending.Total, "approver of another tenant sees nothing")

		w = at.Do(t, http.MethodGet, "/v1/users/pending-users", volToken, nil)
		require.Equal(t, http.StatusForbidden, w.Code)

		w = at.Do(t, http.MethodPost, "/v1/users/approve/"+created.UserID, outsiderToken, nil)
		require.Equal(t, http.StatusForbidden, w.Code)

		w = at.Do(t, http.MethodPost, "/v1/users/approve/"+created.UserID, headToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = at.Do(t, http.MethodPost, "/v1/users/reject/"+created.UserID, headToken, onboardingapp.Rejection{Reason: "late"})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, errs.FailedPrecondition, errCode(t, w).Code)
	})

	t.Run("expired-token", func(t *testing.T) {
		w := at.Do(t, http.MethodPost, "/v1/users/create-pending", adminToken, invite(s.tenant.ID, "bob@example.com"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		token := tokenFromMail(t, at)

		at.Now = at.Now.Add(121 * time.Hour)
		defer func() { at.Now = at.Now.Add(-121 * time.Hour) }()

		w = at.Do(t, http.MethodGet, "/v1/users/validate-token/"+token, "", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid or expired token", errCode(t, w).Message)
	})

	t.Run("reject", func(t *testing.T) {
		w := at.Do(t, http.MethodPost, "/v1/users/create-pending", adminToken, invite(s.tenant.ID, "carol@example.com"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var created onboardingapp.Outcome
		apitest.Decode(t, w, &created)

		token := tokenFromMail(t, at)

		w = at.Do(t, http.MethodPost, "/v1/users/complete-onboarding", "", onboardingapp.CompleteOnboarding{Token: token, Password: "s3cret"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		sent := len(at.Mailer.Sent())

		w = at.Do(t, http.MethodPost, "/v1/users/reject/"+created.UserID, headToken, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Len(t, at.Mailer.Sent(), sent+1)

		w = at.Do(t, http.MethodPost, "/v1/users/approve/"+uuid.NewString(), headToken, nil)
		require.Equal(t, http.StatusNotFound, w.Code)

		w = at.Do(t, http.MethodPost, "/v1/users/approve/not-a-uuid", headToken, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("mail-failure", func(t *testing.T) {
		at.Mailer.Fail = true
		defer func() { at.Mailer.Fail = false }()

		w := at.Do(t, http.MethodPost, "/v1/users/create-pending", adminToken, invite(s.tenant.ID, "dave@example.com"))
		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "failed to send onboarding email", errCode(t, w).Message)

		_, err := at.Bus.UserBus.QueryByEmail(t.Context(), mail.Address{Address: "dave@example.com"})
		assert.ErrorIs(t, err, userbus.ErrNotFound)
	})
}
