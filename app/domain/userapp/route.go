package userapp

import (
	"net/http"

	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/app/sdk/mid"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/business/types/actions"
	"github.com/nssmahe/portal/business/types/resource"
	"github.com/nssmahe/portal/foundation/logger"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log       *logger.Logger
	Auth      *auth.Auth
	UserBus   *userbus.Core
	TenantBus *tenantbus.Core
	AccessBus *accessbus.Core
}

// Routes adds specific routes for this group.
func Routes(app *web.App, cfg Config) {
	const version = "v1"

	authen := mid.Authenticate(cfg.Auth)
	tenant := mid.SelectedTenant(cfg.Log, cfg.TenantBus)

	authorize := func(act actions.Action, idKey string) web.MidFunc {
		return mid.Authorize(cfg.AccessBus, resource.User, act, idKey)
	}

	api := newApp(cfg.UserBus)

	app.HandlerFunc(http.MethodGet, version, "/users", api.query, authen, tenant, authorize(actions.Read, ""))
	app.HandlerFunc(http.MethodGet, version, "/users/{user_id}", api.queryByID, authen, tenant, authorize(actions.Read, "user_id"))
	app.HandlerFunc(http.MethodPut, version, "/users/{user_id}", api.update, authen, tenant, authorize(actions.Update, "user_id"))
	app.HandlerFunc(http.MethodDelete, version, "/users/{user_id}", api.delete, authen, tenant, authorize(actions.Delete, "user_id"))
}
