// Package apitest wires the full middleware stack over in-memory stores so
// the app packages can exercise their routes with httptest.
package apitest

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/app/sdk/mux"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/onboardingbus"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/domain/sitebus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/unitest"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/foundation/keystore"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// KID is the key id tokens are signed with.
const KID = "apitest"

type adder func(app *web.App, cfg mux.Config)

func (f adder) Add(app *web.App, cfg mux.Config) {
	f(app, cfg)
}

// Test holds the state of a service under test.
type Test struct {
	Handler http.Handler
	Bus     mux.BusConfig
	Auth    *auth.Auth
	Users   *unitest.UserStore
	Tenants *unitest.TenantStore
	Sites   *unitest.SiteStore
	Mailer  *unitest.Mailer
	Now     time.Time
}

// New builds the service with the routes add binds. The clock used by
// onboarding starts at Now and can be moved by the test.
func New(t *testing.T, add func(app *web.App, cfg mux.Config), tenants ...tenantbus.Tenant) *Test {
	t.Helper()

	log := unitest.Logger()

	policy, err := accessbus.NewPolicy(accessbus.DefaultRules())
	require.NoError(t, err)

	at := Test{
		Users:   unitest.NewUserStore(),
		Tenants: unitest.NewTenantStore(tenants...),
		Sites:   unitest.NewSiteStore(),
		Mailer:  &unitest.Mailer{},
		Now:     time.Now(),
	}

	userBus := userbus.NewCore(at.Users)
	tenantBus := tenantbus.NewCore(log, at.Tenants)
	accessBus := accessbus.NewCore(log, policy)

	at.Bus = mux.BusConfig{
		UserBus:   userBus,
		TenantBus: tenantBus,
		PageBus:   pagebus.NewCore(unitest.NewPageStore(at.Tenants)),
		SiteBus:   sitebus.NewCore(log, at.Sites),
		AccessBus: accessBus,
		OnboardingBus: onboardingbus.NewCore(onboardingbus.Config{
			Log:                  log,
			UserBus:              userBus,
			TenantBus:            tenantBus,
			Access:               accessBus,
			Sender:               at.Mailer,
			PublicURL:            "https://portal.test",
			InstitutionalDomains: onboardingbus.DefaultInstitutionalDomains,
			Now:                  func() time.Time { return at.Now },
		}),
	}

	at.Auth = auth.New(auth.Config{
		Log:       log,
		UserBus:   userBus,
		KeyLookup: newKeyStore(t),
		Issuer:    "portal-test",
	})

	cfg := mux.Config{
		Build:      "test",
		Log:        log,
		Tracer:     noop.NewTracerProvider().Tracer("apitest"),
		BusConfig:  at.Bus,
		AuthConfig: mux.AuthConfig{Auth: at.Auth, KID: KID},
		RateConfig: mux.RateConfig{PerSecond: 1000, Burst: 1000},
	}

	at.Handler = mux.WebAPI(cfg, adder(add))

	return &at
}

// SeedUser stores a user directly through the business layer.
func (at *Test) SeedUser(t *testing.T, nu userbus.NewUser) userbus.User {
	t.Helper()

	usr, err := at.Bus.UserBus.Create(context.Background(), nu)
	require.NoError(t, err)

	return usr
}

// Token issues a bearer token for usr.
func (at *Test) Token(t *testing.T, usr userbus.User) string {
	t.Helper()

	token, err := at.Auth.GenerateToken(KID, usr)
	require.NoError(t, err)

	return token
}

// Do sends a request through the handler. body is JSON encoded when not nil.
func (at *Test) Do(t *testing.T, method string, url string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	r := httptest.NewRequest(method, url, &buf)
	r.RemoteAddr = "192.0.2.1:4000"
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	at.Handler.ServeHTTP(w, r)

	return w
}

// Table represent fields needed for running an api test.
type Table struct {
	Name       string
	URL        string
	Token      string
	Method     string
	StatusCode int
	Input      any
	Check      func(t *testing.T, w *httptest.ResponseRecorder)
}

// Run performs the actual test logic based on the table data.
func (at *Test) Run(t *testing.T, table []Table, testName string) {
	for _, tt := range table {
		t.Run(testName+"-"+tt.Name, func(t *testing.T) {
			w := at.Do(t, tt.Method, tt.URL, tt.Token, tt.Input)

			require.Equal(t, tt.StatusCode, w.Code, "body: %s", w.Body.String())

			if tt.Check != nil {
				tt.Check(t, w)
			}
		})
	}
}

// Decode unmarshals the recorded response body into v.
func Decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func newKeyStore(t *testing.T) *keystore.KeyStore {
	t.Helper()

	pk, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	block := pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(pk),
	}

	ks := keystore.New()
	require.NoError(t, ks.Add(KID, string(pem.EncodeToMemory(&block))))

	return ks
}
