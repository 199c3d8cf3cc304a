// Package tenantapp maintains the app layer api for the tenant domain.
package tenantapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/app/sdk/mid"
	"github.com/nssmahe/portal/app/sdk/query"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/sitebus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/foundation/logger"
)

type app struct {
	log       *logger.Logger
	tenantBus *tenantbus.Core
	siteBus   *sitebus.Core
}

func newApp(log *logger.Logger, tenantBus *tenantbus.Core, siteBus *sitebus.Core) *app {
	return &app{
		log:       log,
		tenantBus: tenantBus,
		siteBus:   siteBus,
	}
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewTenant
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	nt, err := toBusNewTenant(app)
	if err != nil {
		return errs.NewFieldErrors("slug", err)
	}

	tnt, err := a.tenantBus.Create(ctx, nt)
	if err != nil {
		if appErr := uniqueErr(err); appErr != nil {
			return appErr
		}
		return errs.Errorf(errs.InternalOnlyLog, "create: tnt[%+v]: %s", nt, err)
	}

	// The tenant stands without a site config; it can be provisioned again
	// from the admin tool.
	if err := a.siteBus.Provision(ctx, tnt); err != nil {
		a.log.Error(ctx, "tenantapp: provision site", "tenant_id", tnt.ID, "err", err)
	}

	return toAppTenant(tnt)
}

func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	qp := parseQueryParams(r)

	pg, err := page.Parse(qp.Page, qp.Rows)
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	filter, err := parseFilter(qp)
	if err != nil {
		return err.(*errs.Error)
	}

	orderBy, err := order.Parse(orderByFields, qp.OrderBy, tenantbus.DefaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("order", err)
	}

	g, err := mid.GetGrant(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "grant: %s", err)
	}

	clause := g.Scope(filter)

	tnts, err := a.tenantBus.Query(ctx, clause, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.tenantBus.Count(ctx, clause)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppTenants(tnts), total, pg)
}

func (a *app) queryByID(ctx context.Context, _ *http.Request) web.Encoder {
	tnt, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	return toAppTenant(tnt)
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateTenant
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	ut, err := toBusUpdateTenant(app)
	if err != nil {
		return errs.NewFieldErrors("slug", err)
	}

	tnt, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	updTnt, err := a.tenantBus.Update(ctx, tnt, ut)
	if err != nil {
		if appErr := uniqueErr(err); appErr != nil {
			return appErr
		}
		return errs.Errorf(errs.InternalOnlyLog, "update: tenantID[%s] ut[%+v]: %s", tnt.ID, ut, err)
	}

	return toAppTenant(updTnt)
}

func (a *app) delete(ctx context.Context, _ *http.Request) web.Encoder {
	tnt, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	if err := a.tenantBus.Delete(ctx, tnt); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "delete: tenantID[%s]: %s", tnt.ID, err)
	}

	return nil
}

func (a *app) querySite(ctx context.Context, _ *http.Request) web.Encoder {
	tnt, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	sc, err := a.siteBus.QueryByTenant(ctx, tnt.ID)
	if err != nil {
		if errors.Is(err, sitebus.ErrNotFound) {
			return errs.New(errs.NotFound, sitebus.ErrNotFound)
		}
		return errs.Errorf(errs.Internal, "querybytenant: %s", err)
	}

	return toAppSite(sc)
}

func (a *app) updateSite(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateSite
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	tnt, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	sc, err := a.siteBus.QueryByTenant(ctx, tnt.ID)
	if err != nil {
		if errors.Is(err, sitebus.ErrNotFound) {
			return errs.New(errs.NotFound, sitebus.ErrNotFound)
		}
		return errs.Errorf(errs.Internal, "querybytenant: %s", err)
	}

	sc, err = a.siteBus.Update(ctx, sc, toBusUpdateSite(app))
	if err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "update site: tenantID[%s]: %s", tnt.ID, err)
	}

	return toAppSite(sc)
}

// target loads the tenant named in the route and checks the grant covers it.
func (a *app) target(ctx context.Context) (tenantbus.Tenant, *errs.Error) {
	g, err := mid.GetGrant(ctx)
	if err != nil {
		return tenantbus.Tenant{}, errs.Errorf(errs.Internal, "grant: %s", err)
	}

	tnt, err := a.tenantBus.QueryByID(ctx, mid.GetTarget(ctx))
	if err != nil {
		if errors.Is(err, tenantbus.ErrNotFound) {
			return tenantbus.Tenant{}, errs.New(errs.NotFound, tenantbus.ErrNotFound)
		}
		return tenantbus.Tenant{}, errs.Errorf(errs.Internal, "querybyid: %s", err)
	}

	if !g.Allows(tnt) {
		return tenantbus.Tenant{}, errs.New(errs.PermissionDenied, accessbus.ErrForbidden)
	}

	return tnt, nil
}

func uniqueErr(err error) *errs.Error {
	switch {
	case errors.Is(err, tenantbus.ErrUniqueSlug):
		return errs.New(errs.AlreadyExists, tenantbus.ErrUniqueSlug)
	case errors.Is(err, tenantbus.ErrUniqueDomain):
		return errs.New(errs.AlreadyExists, tenantbus.ErrUniqueDomain)
	}
	return nil
}
