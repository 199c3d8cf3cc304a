package mid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/foundation/logger"
)

// TenantCookie names the cookie holding the tenant a user is working in.
const TenantCookie = "portal-tenant"

// SelectedTenant resolves the tenant the request works in. The cookie wins;
// without it the request host is matched against the tenants' custom
// domains. An unusable cookie or unknown host leaves no tenant selected.
func SelectedTenant(log *logger.Logger, tenantBus *tenantbus.Core) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			if c, err := r.Cookie(TenantCookie); err == nil {
				id, err := uuid.Parse(c.Value)
				if err == nil {
					return next(setSelectedTenant(ctx, id), r)
				}

				log.Debug(ctx, "selected tenant: bad cookie", "value", c.Value, "err", err)
			}

			t, err := tenantBus.ResolveDomain(ctx, auth.ExtractDomain(r.Host))
			if err == nil {
				ctx = setSelectedTenant(ctx, t.ID)
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}
