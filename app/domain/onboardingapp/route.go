package onboardingapp

import (
	"net/http"
	"net/netip"

	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/app/sdk/mid"
	"github.com/nssmahe/portal/business/domain/onboardingbus"
	"github.com/nssmahe/portal/business/sdk/web"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth          *auth.Auth
	OnboardingBus *onboardingbus.Core
	RatePerSecond float64
	RateBurst     int
	RateTrusted   []netip.Prefix
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	limit := mid.RateLimit(cfg.RatePerSecond, cfg.RateBurst, cfg.RateTrusted...)

	api := newApp(cfg.OnboardingBus)

	app.HandlerFunc(http.MethodPost, version, "/users/create-pending", api.createPending, authen)
	app.HandlerFunc(http.MethodGet, version, "/users/validate-token/{token}", api.validateToken, limit)
	app.HandlerFunc(http.MethodPost, version, "/users/complete-onboarding", api.completeOnboarding, limit)
	app.HandlerFunc(http.MethodPost, version, "/users/approve/{user_id}", api.approve, authen)
	app.HandlerFunc(http.MethodPost, version, "/users/reject/{user_id}", api.reject, authen)
	app.HandlerFunc(http.MethodGet, version, "/users/pending-users", api.pendingUsers, authen)
}
