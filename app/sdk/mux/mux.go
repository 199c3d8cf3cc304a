// Package mux provides support to bind domain level routes
// to the application mux.
package mux

import (
	"net/http"
	"net/netip"

	"github.com/jmoiron/sqlx"
	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/app/sdk/mid"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/onboardingbus"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/domain/sitebus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/foundation/logger"
	"go.opentelemetry.io/otel/trace"
)

// Options represent optional parameters.
type Options struct {
	corsOrigin []string
}

// WithCORS provides configuration options for CORS.
func WithCORS(origins []string) func(opts *Options) {
	return func(opts *Options) {
		opts.corsOrigin = origins
	}
}

// BusConfig holds the business cores the handlers work with.
type BusConfig struct {
	UserBus       *userbus.Core
	TenantBus     *tenantbus.Core
	PageBus       *pagebus.Core
	SiteBus       *sitebus.Core
	AccessBus     *accessbus.Core
	OnboardingBus *onboardingbus.Core
}

// AuthConfig contains auth service specific config.
type AuthConfig struct {
	Auth *auth.Auth
	KID  string
}

// RateConfig limits the unauthenticated onboarding routes per client IP.
type RateConfig struct {
	PerSecond      float64
	Burst          int
	TrustedProxies []netip.Prefix
}

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build      string
	Log        *logger.Logger
	DB         *sqlx.DB
	Tracer     trace.Tracer
	BusConfig  BusConfig
	AuthConfig AuthConfig
	RateConfig RateConfig
}

// RouteAdder defines behavior that sets the routes to bind for an instance
// of the service.
type RouteAdder interface {
	Add(app *web.App, cfg Config)
}

// WebAPI constructs a http.Handler with all application routes bound.
func WebAPI(cfg Config, routeAdder RouteAdder, options ...func(opts *Options)) http.Handler {
	app := web.NewApp(
		cfg.Log.Info,
		cfg.Tracer,
		mid.Otel(cfg.Tracer),
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(),
	)

	var opts Options
	for _, option := range options {
		option(&opts)
	}

	if len(opts.corsOrigin) > 0 {
		app.EnableCORS(opts.corsOrigin)
	}

	routeAdder.Add(app, cfg)

	return app
}
