package tenantapp

import (
	"net/http"

	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/app/sdk/mid"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/sitebus"
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
	TenantBus *tenantbus.Core
	SiteBus   *sitebus.Core
	AccessBus *accessbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	tenant := mid.SelectedTenant(cfg.Log, cfg.TenantBus)

	authorize := func(act actions.Action, idKey string) web.MidFunc {
		return mid.Authorize(cfg.AccessBus, resource.Tenant, act, idKey)
	}

	api := newApp(cfg.Log, cfg.TenantBus, cfg.SiteBus)

	app.HandlerFunc(http.MethodGet, version, "/tenants", api.query, authen, tenant, authorize(actions.Read, ""))
	app.HandlerFunc(http.MethodPost, version, "/tenants", api.create, authen, authorize(actions.Create, ""))
	app.HandlerFunc(http.MethodGet, version, "/tenants/{tenant_id}", api.queryByID, authen, authorize(actions.Read, "tenant_id"))
	app.HandlerFunc(http.MethodPut, version, "/tenants/{tenant_id}", api.update, authen, authorize(actions.Update, "tenant_id"))
	app.HandlerFunc(http.MethodDelete, version, "/tenants/{tenant_id}", api.delete, authen, authorize(actions.Delete, "tenant_id"))
	app.HandlerFunc(http.MethodGet, version, "/tenants/{tenant_id}/site", api.querySite, authen, authorize(actions.Read, "tenant_id"))
	app.HandlerFunc(http.MethodPut, version, "/tenants/{tenant_id}/site", api.updateSite, authen, authorize(actions.Update, "tenant_id"))
}
