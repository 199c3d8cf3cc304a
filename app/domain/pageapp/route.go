package pageapp

import (
	"net/http"

	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/app/sdk/mid"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/business/types/actions"
	"github.com/nssmahe/portal/business/types/resource"
	"github.com/nssmahe/portal/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log       *logger.Logger
	Auth      *auth.Auth
	PageBus   *pagebus.Core
	TenantBus *tenantbus.Core
	AccessBus *accessbus.Core
}

// Routes adds specific routes for this group. Reads are open to anonymous
// callers and limited to public tenants.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	identify := mid.Identify(cfg.Auth)
	authen := mid.Authenticate(cfg.Auth)
	tenant := mid.SelectedTenant(cfg.Log, cfg.TenantBus)

	authorize := func(act actions.Action, idKey string) web.MidFunc {
		return mid.Authorize(cfg.AccessBus, resource.Page, act, idKey)
	}

	api := newApp(cfg.PageBus, cfg.TenantBus)

	app.HandlerFunc(http.MethodGet, version, "/pages", api.query, identify, tenant, authorize(actions.Read, ""))
	app.HandlerFunc(http.MethodGet, version, "/pages/{page_id}", api.queryByID, identify, authorize(actions.Read, "page_id"))
	app.HandlerFunc(http.MethodPost, version, "/pages", api.create, authen, authorize(actions.Create, ""))
	app.HandlerFunc(http.MethodPut, version, "/pages/{page_id}", api.update, authen, authorize(actions.Update, "page_id"))
	app.HandlerFunc(http.MethodDelete, version, "/pages/{page_id}", api.delete, authen, authorize(actions.Delete, "page_id"))
}
