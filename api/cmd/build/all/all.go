// Package all binds all the routes into the specified app.
package all

import (
	"github.com/nssmahe/portal/app/domain/authapp"
	"github.com/nssmahe/portal/app/domain/checkapp"
	"github.com/nssmahe/portal/app/domain/onboardingapp"
	"github.com/nssmahe/portal/app/domain/pageapp"
	"github.com/nssmahe/portal/app/domain/tenantapp"
	"github.com/nssmahe/portal/app/domain/userapp"
	"github.com/nssmahe/portal/app/sdk/mux"
	"github.com/nssmahe/portal/business/sdk/web"
)

// Routes constructs the add value which provides the implementation of
// of RouteAdder for specifying what routes to bind to this instance.
func Routes() add {
	return add{}
}

type add struct{}

// Add implements the RouterAdder interface.
func (add) Add(app *web.App, cfg mux.Config) {
	bus := cfg.BusConfig

	checkapp.Routes(app, checkapp.Config{
		Build: cfg.Build,
		Log:   cfg.Log,
		DB:    cfg.DB,
	})

	authapp.Routes(app, authapp.Config{
		Auth:          cfg.AuthConfig.Auth,
		KID:           cfg.AuthConfig.KID,
		TenantBus:     bus.TenantBus,
		RatePerSecond: cfg.RateConfig.PerSecond,
		RateBurst:     cfg.RateConfig.Burst,
		RateTrusted:   cfg.RateConfig.TrustedProxies,
	})

	onboardingapp.Routes(app, onboardingapp.Config{
		Auth:          cfg.AuthConfig.Auth,
		OnboardingBus: bus.OnboardingBus,
		RatePerSecond: cfg.RateConfig.PerSecond,
		RateBurst:     cfg.RateConfig.Burst,
		RateTrusted:   cfg.RateConfig.TrustedProxies,
	})

	userapp.Routes(app, userapp.Config{
		Log:       cfg.Log,
		Auth:      cfg.AuthConfig.Auth,
		UserBus:   bus.UserBus,
		TenantBus: bus.TenantBus,
		AccessBus: bus.AccessBus,
	})

	tenantapp.Routes(app, tenantapp.Config{
		Log:       cfg.Log,
		Auth:      cfg.AuthConfig.Auth,
		TenantBus: bus.TenantBus,
		SiteBus:   bus.SiteBus,
		AccessBus: bus.AccessBus,
	})

	pageapp.Routes(app, pageapp.Config{
		Log:       cfg.Log,
		Auth:      cfg.AuthConfig.Auth,
		PageBus:   bus.PageBus,
		TenantBus: bus.TenantBus,
		AccessBus: bus.AccessBus,
	})
}
