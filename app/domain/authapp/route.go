package authapp

import (
	"net/http"
	"net/netip"

	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/app/sdk/mid"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/sdk/web"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Auth          *auth.Auth
	KID           string
	TenantBus     *tenantbus.Core
	RatePerSecond float64
	RateBurst     int
	RateTrusted   []netip.Prefix
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	limit := mid.RateLimit(cfg.RatePerSecond, cfg.RateBurst, cfg.RateTrusted...)

	api := newApp(cfg.Auth, cfg.KID, cfg.TenantBus)

	app.HandlerFunc(http.MethodPost, version, "/auth/login", api.login, limit)
}
