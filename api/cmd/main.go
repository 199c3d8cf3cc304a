package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/nssmahe/portal/api/cmd/build/all"
	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/app/sdk/debug"
	"github.com/nssmahe/portal/app/sdk/mux"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/onboardingbus"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/domain/pagebus/stores/pagedb"
	"github.com/nssmahe/portal/business/domain/sitebus"
	"github.com/nssmahe/portal/business/domain/sitebus/stores/sitedb"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/tenantbus/stores/tenantdb"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/domain/userbus/stores/usercache"
	"github.com/nssmahe/portal/business/domain/userbus/stores/userdb"
	"github.com/nssmahe/portal/business/sdk/mailer"
	"github.com/nssmahe/portal/business/sdk/sqldb"
	"github.com/nssmahe/portal/foundation/keystore"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/nssmahe/portal/foundation/otel"
	"golang.org/x/sync/errgroup"
)

var build = "develop"

// Config holds the settings of the service, read from the environment.
type Config struct {
	Version struct {
		Build string `json:"build"`
		Desc  string `json:"desc"`
	} `json:"version"`

	Web struct {
		ReadTimeout        time.Duration `envconfig:"WEB_READ_TIMEOUT" default:"5s"`
		WriteTimeout       time.Duration `envconfig:"WEB_WRITE_TIMEOUT" default:"10s"`
		IdleTimeout        time.Duration `envconfig:"WEB_IDLE_TIMEOUT" default:"120s"`
		ShutdownTimeout    time.Duration `envconfig:"WEB_SHUTDOWN_TIMEOUT" default:"20s"`
		APIHost            string        `envconfig:"WEB_API_HOST" default:"0.0.0.0:3000"`
		DebugHost          string        `envconfig:"WEB_DEBUG_HOST" default:"0.0.0.0:3010"`
		CORSAllowedOrigins []string      `envconfig:"WEB_CORS_ALLOWED_ORIGINS" default:"*"`
	}
	DB struct {
		User         string `envconfig:"DB_USER" default:"postgres"`
		Password     string `envconfig:"DB_PASSWORD" default:"postgres"`
		Host         string `envconfig:"DB_HOST" default:"localhost"`
		Name         string `envconfig:"DB_NAME" default:"portal"`
		MaxIdleConns int    `envconfig:"DB_MAX_IDLE_CONNS" default:"0"`
		MaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"0"`
		DisableTLS   bool   `envconfig:"DB_DISABLE_TLS" default:"true"`
	}
	Tempo struct {
		Host        string  `envconfig:"TEMPO_HOST" default:"tempo:4317"`
		ServiceName string  `envconfig:"TEMPO_SERVICE_NAME" default:"nss-portal"`
		Probability float64 `envconfig:"TEMPO_PROBABILITY" default:"0.05"`
	}
	Auth struct {
		KeysFolder string        `envconfig:"AUTH_KEYS_FOLDER" default:"zarf/keys"`
		ActiveKID  string        `envconfig:"AUTH_ACTIVE_KID" default:"54bb2165-71e1-41a6-af3e-7da4a0e1e2c1"`
		Issuer     string        `envconfig:"AUTH_ISSUER" default:"nss portal"`
		TokenTTL   time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
	}
	Access struct {
		PolicyFile string `envconfig:"ACCESS_POLICY_FILE"`
	}
	SMTP struct {
		Host     string `envconfig:"SMTP_HOST"`
		Port     int    `envconfig:"SMTP_PORT" default:"587"`
		Secure   bool   `envconfig:"SMTP_SECURE" default:"false"`
		Username string `envconfig:"SMTP_USERNAME"`
		Password string `envconfig:"SMTP_PASSWORD"`
		From     string `envconfig:"SMTP_FROM" default:"NSS Portal <no-reply@nss.manipal.edu>"`
	}
	Onboarding struct {
		PublicURL string        `envconfig:"ONBOARDING_PUBLIC_URL" default:"http://localhost:5173"`
		TokenTTL  time.Duration `envconfig:"ONBOARDING_TOKEN_TTL" default:"120h"`
		Domains   []string      `envconfig:"ONBOARDING_DOMAINS" default:"learner.manipal.edu,manipal.edu"`
	}
	Rate struct {
		PerSecond float64 `envconfig:"RATE_PER_SECOND" default:"1"`
		Burst     int     `envconfig:"RATE_BURST" default:"5"`

		// TrustedProxies lists the CIDRs whose X-Forwarded-For is honoured.
		TrustedProxies []string `envconfig:"RATE_TRUSTED_PROXIES"`
	}
	UserCache struct {
		TTL time.Duration `envconfig:"USER_CACHE_TTL" default:"5m"`
	}
}

func main() {
	var log *logger.Logger

	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			log.Info(ctx, "******* SEND ALERT *******")
		},
	}

	log = logger.NewWithEvents(os.Stdout, logger.LevelInfo, "PORTAL", otel.GetTraceID, events)

	// -------------------------------------------------------------------------

	ctx := context.Background()

	if err := run(ctx, log); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger) error {

	// -------------------------------------------------------------------------
	// GOMAXPROCS

	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Configuration

	var cfg Config

	cfg.Version.Build = build
	cfg.Version.Desc = "NSS volunteer portal"

	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("processing config: %w", err)
	}

	// -------------------------------------------------------------------------
	// App Starting

	log.Info(ctx, "starting service", "version", cfg.Version.Build)
	defer log.Info(ctx, "shutdown complete")

	log.Info(ctx, "startup", "config", sanitizeConfig(cfg))

	log.BuildInfo(ctx)

	expvar.NewString("build").Set(cfg.Version.Build)

	// -------------------------------------------------------------------------
	// Database Support

	log.Info(ctx, "startup", "status", "initializing database support", "hostport", cfg.DB.Host)

	db, err := sqldb.Open(sqldb.Config{
		User:         cfg.DB.User,
		Password:     cfg.DB.Password,
		Host:         cfg.DB.Host,
		Name:         cfg.DB.Name,
		MaxIdleConns: cfg.DB.MaxIdleConns,
		MaxOpenConns: cfg.DB.MaxOpenConns,
		DisableTLS:   cfg.DB.DisableTLS,
	})
	if err != nil {
		return fmt.Errorf("connecting to db: %w", err)
	}

	defer db.Close()

	// -------------------------------------------------------------------------
	// Start Tracing Support

	log.Info(ctx, "startup", "status", "initializing tracing support")

	traceProvider, teardown, err := otel.InitTracing(log, otel.Config{
		ServiceName: cfg.Tempo.ServiceName,
		Host:        cfg.Tempo.Host,
		ExcludedRoutes: map[string]struct{}{
			"/v1/liveness":  {},
			"/v1/readiness": {},
		},
		Probability: cfg.Tempo.Probability,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}

	defer teardown(context.Background())

	tracer := traceProvider.Tracer(cfg.Tempo.ServiceName)

	// -------------------------------------------------------------------------
	// Business Support

	log.Info(ctx, "startup", "status", "initializing business support")

	policy, err := loadPolicy(cfg.Access.PolicyFile)
	if err != nil {
		return fmt.Errorf("loading access policy: %w", err)
	}

	var sender mailer.Sender = mailer.NewLog(log)
	if cfg.SMTP.Host != "" {
		sender = mailer.NewSMTP(log, mailer.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Secure:   cfg.SMTP.Secure,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
	}

	userBus := userbus.NewCore(usercache.NewStore(log, userdb.NewStore(log, db), cfg.UserCache.TTL))
	tenantBus := tenantbus.NewCore(log, tenantdb.NewStore(log, db))
	accessBus := accessbus.NewCore(log, policy)

	busCfg := mux.BusConfig{
		UserBus:   userBus,
		TenantBus: tenantBus,
		PageBus:   pagebus.NewCore(pagedb.NewStore(log, db)),
		SiteBus:   sitebus.NewCore(log, sitedb.NewStore(log, db)),
		AccessBus: accessBus,
		OnboardingBus: onboardingbus.NewCore(onboardingbus.Config{
			Log:                  log,
			UserBus:              userBus,
			TenantBus:            tenantBus,
			Access:               accessBus,
			Sender:               sender,
			PublicURL:            cfg.Onboarding.PublicURL,
			TokenTTL:             cfg.Onboarding.TokenTTL,
			InstitutionalDomains: cfg.Onboarding.Domains,
		}),
	}

	// -------------------------------------------------------------------------
	// Auth Support

	log.Info(ctx, "startup", "status", "initializing authentication support")

	ks := keystore.New()

	n, err := ks.LoadByFileSystem(os.DirFS(cfg.Auth.KeysFolder))
	if err != nil {
		return fmt.Errorf("loading keys: %w", err)
	}

	log.Info(ctx, "startup", "status", "keys loaded", "count", n, "active", cfg.Auth.ActiveKID)

	authClient := auth.New(auth.Config{
		Log:       log,
		UserBus:   userBus,
		KeyLookup: ks,
		Issuer:    cfg.Auth.Issuer,
		TTL:       cfg.Auth.TokenTTL,
	})

	// -------------------------------------------------------------------------
	// Start API and Debug Service

	log.Info(ctx, "startup", "status", "initializing V1 API support")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trusted, err := parsePrefixes(cfg.Rate.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parsing trusted proxies: %w", err)
	}

	cfgMux := mux.Config{
		Build:      cfg.Version.Build,
		Log:        log,
		DB:         db,
		Tracer:     tracer,
		BusConfig:  busCfg,
		AuthConfig: mux.AuthConfig{Auth: authClient, KID: cfg.Auth.ActiveKID},
		RateConfig: mux.RateConfig{PerSecond: cfg.Rate.PerSecond, Burst: cfg.Rate.Burst, TrustedProxies: trusted},
	}

	webAPI := mux.WebAPI(cfgMux, all.Routes(), mux.WithCORS(cfg.Web.CORSAllowedOrigins))

	api := http.Server{
		Addr:         cfg.Web.APIHost,
		Handler:      webAPI,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     logger.NewStdLogger(log, logger.LevelError),
	}

	dbg := http.Server{
		Addr:     cfg.Web.DebugHost,
		Handler:  debug.Mux(),
		ErrorLog: logger.NewStdLogger(log, logger.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(ctx, "startup", "status", "api router started", "host", api.Addr)
		return serve(&api)
	})

	g.Go(func() error {
		log.Info(ctx, "startup", "status", "debug v1 router started", "host", dbg.Addr)
		return serve(&dbg)
	})

	// -------------------------------------------------------------------------
	// Shutdown

	g.Go(func() error {
		<-gctx.Done()

		log.Info(ctx, "shutdown", "status", "shutdown started")
		defer log.Info(ctx, "shutdown", "status", "shutdown complete")

		sctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		dbg.Shutdown(sctx)

		if err := api.Shutdown(sctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		return nil
	})

	return g.Wait()
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: addr[%s]: %w", srv.Addr, err)
	}
	return nil
}

func parsePrefixes(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, v := range values {
		p, err := netip.ParsePrefix(v)
		if err != nil {
			return nil, err
		}
		prefixes = append(prefixes, p)
	}

	return prefixes, nil
}

func loadPolicy(path string) (*accessbus.Policy, error) {
	if path == "" {
		return accessbus.NewPolicy(accessbus.DefaultRules())
	}
	return accessbus.LoadPolicyFile(path)
}

func sanitizeConfig(cfg Config) string {
	cfg.DB.Password = "[MASKED]"
	cfg.SMTP.Password = "[MASKED]"

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Sprintf("%+v", cfg)
	}
	return string(data)
}
