// Package pageapp maintains the app layer api for the page domain.
package pageapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/app/sdk/mid"
	"github.com/nssmahe/portal/app/sdk/query"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/pagebus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/web"
)

type app struct {
	pageBus   *pagebus.Core
	tenantBus *tenantbus.Core
}

func newApp(pageBus *pagebus.Core, tenantBus *tenantbus.Core) *app {
	return &app{
		pageBus:   pageBus,
		tenantBus: tenantBus,
	}
}

func (a *app) create(ctx context.Context, r *http.Request) web.Encoder {
	var app NewPage
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	np, err := toBusNewPage(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	g, err := mid.GetGrant(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "grant: %s", err)
	}

	tnt, err := a.tenantBus.QueryByID(ctx, np.TenantID)
	if err != nil {
		if errors.Is(err, tenantbus.ErrNotFound) {
			return errs.New(errs.NotFound, tenantbus.ErrNotFound)
		}
		return errs.Errorf(errs.Internal, "tenant: %s", err)
	}

	if !g.Allows(pagebus.Page{TenantID: tnt.ID, TenantPublic: tnt.AllowPublicRead}) {
		return errs.New(errs.PermissionDenied, accessbus.ErrForbidden)
	}

	pg, err := a.pageBus.Create(ctx, np)
	if err != nil {
		if errors.Is(err, pagebus.ErrUniqueSlug) {
			return errs.New(errs.AlreadyExists, pagebus.ErrUniqueSlug)
		}
		return errs.Errorf(errs.InternalOnlyLog, "create: page[%+v]: %s", np, err)
	}

	return toAppPage(pg)
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

	orderBy, err := order.Parse(orderByFields, qp.OrderBy, pagebus.DefaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("order", err)
	}

	g, err := mid.GetGrant(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "grant: %s", err)
	}

	clause := g.Scope(filter.Clause())

	pages, err := a.pageBus.Query(ctx, clause, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.pageBus.Count(ctx, clause)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppPages(pages), total, pg)
}

func (a *app) queryByID(ctx context.Context, _ *http.Request) web.Encoder {
	p, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	return toAppPage(p)
}

func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdatePage
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	up, err := toBusUpdatePage(app)
	if err != nil {
		return errs.NewFieldErrors("slug", err)
	}

	p, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	updPage, err := a.pageBus.Update(ctx, p, up)
	if err != nil {
		if errors.Is(err, pagebus.ErrUniqueSlug) {
			return errs.New(errs.AlreadyExists, pagebus.ErrUniqueSlug)
		}
		return errs.Errorf(errs.InternalOnlyLog, "update: pageID[%s] up[%+v]: %s", p.ID, up, err)
	}

	return toAppPage(updPage)
}

func (a *app) delete(ctx context.Context, _ *http.Request) web.Encoder {
	p, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	if err := a.pageBus.Delete(ctx, p); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "delete: pageID[%s]: %s", p.ID, err)
	}

	return nil
}

// target loads the page named in the route and checks the grant covers it.
// A page the caller may not read is reported as missing.
func (a *app) target(ctx context.Context) (pagebus.Page, *errs.Error) {
	g, err := mid.GetGrant(ctx)
	if err != nil {
		return pagebus.Page{}, errs.Errorf(errs.Internal, "grant: %s", err)
	}

	p, err := a.pageBus.QueryByID(ctx, mid.GetTarget(ctx))
	if err != nil {
		if errors.Is(err, pagebus.ErrNotFound) {
			return pagebus.Page{}, errs.New(errs.NotFound, pagebus.ErrNotFound)
		}
		return pagebus.Page{}, errs.Errorf(errs.Internal, "querybyid: %s", err)
	}

	if !g.Allows(p) {
		if mid.GetPrincipal(ctx) == nil {
			return pagebus.Page{}, errs.New(errs.NotFound, pagebus.ErrNotFound)
		}
		return pagebus.Page{}, errs.New(errs.PermissionDenied, accessbus.ErrForbidden)
	}

	return p, nil
}
