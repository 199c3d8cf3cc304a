// Package userapp maintains the app layer api for the user domain.
package userapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/app/sdk/mid"
	"github.com/nssmahe/portal/app/sdk/query"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/order"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/business/types/tenantrole"
)

// ErrAdminField is returned when a caller edits a field reserved to
// administrators.
var ErrAdminField = errors.New("field can only be changed by an administrator")

type app struct {
	userBus *userbus.Core
}

func newApp(userBus *userbus.Core) *app {
	return &app{
		userBus: userBus,
	}
}

// query returns the users the grant lets the caller see.
func (a *app) query(ctx context.Context, r *http.Request) web.Encoder {
	qp := parseQueryParams(r)

	pg, err := page.Parse(qp.Page, qp.Rows)
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	filter, err := parseFilter(qp)
	if err != nil {
		if v, ok := err.(*errs.Error); ok {
			return v
		}
		return errs.NewFieldErrors("filter", err)
	}

	orderBy, err := order.Parse(orderByFields, qp.OrderBy, userbus.DefaultOrderBy)
	if err != nil {
		return errs.NewFieldErrors("order", err)
	}

	g, err := mid.GetGrant(ctx)
	if err != nil {
		return errs.Errorf(errs.Internal, "grant: %s", err)
	}

	clause := g.Scope(filter.Clause())

	usrs, err := a.userBus.Query(ctx, clause, orderBy, pg)
	if err != nil {
		return errs.Errorf(errs.Internal, "query: %s", err)
	}

	total, err := a.userBus.Count(ctx, clause)
	if err != nil {
		return errs.Errorf(errs.Internal, "count: %s", err)
	}

	return query.NewResult(toAppUsers(usrs), total, pg)
}

// queryByID returns a user by its ID.
func (a *app) queryByID(ctx context.Context, _ *http.Request) web.Encoder {
	usr, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	return toAppUser(usr)
}

// update updates an existing user.
func (a *app) update(ctx context.Context, r *http.Request) web.Encoder {
	var app UpdateUser
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	uu, err := toBusUpdateUser(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	usr, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	if err := checkAdminFields(mid.GetPrincipal(ctx), usr, uu); err != nil {
		return errs.New(errs.PermissionDenied, err)
	}

	updUsr, err := a.userBus.Update(ctx, usr, uu)
	if err != nil {
		switch {
		case errors.Is(err, userbus.ErrUniqueEmail):
			return errs.New(errs.AlreadyExists, userbus.ErrUniqueEmail)
		case errors.Is(err, userbus.ErrDuplicateMembership), errors.Is(err, userbus.ErrTokenState):
			return errs.New(errs.InvalidArgument, err)
		}
		return errs.Errorf(errs.InternalOnlyLog, "update: userID[%s] uu[%+v]: %s", usr.ID, uu, err)
	}

	return toAppUser(updUsr)
}

// delete removes a user from the system.
func (a *app) delete(ctx context.Context, _ *http.Request) web.Encoder {
	usr, appErr := a.target(ctx)
	if appErr != nil {
		return appErr
	}

	if err := a.userBus.Delete(ctx, usr); err != nil {
		return errs.Errorf(errs.InternalOnlyLog, "delete: userID[%s]: %s", usr.ID, err)
	}

	return nil
}

// target loads the user named in the route and checks the grant covers it.
func (a *app) target(ctx context.Context) (userbus.User, *errs.Error) {
	g, err := mid.GetGrant(ctx)
	if err != nil {
		return userbus.User{}, errs.Errorf(errs.Internal, "grant: %s", err)
	}

	usr, err := a.userBus.QueryByID(ctx, mid.GetTarget(ctx))
	if err != nil {
		if errors.Is(err, userbus.ErrNotFound) {
			return userbus.User{}, errs.New(errs.NotFound, userbus.ErrNotFound)
		}
		return userbus.User{}, errs.Errorf(errs.Internal, "querybyid: %s", err)
	}

	if !g.Allows(usr) {
		return userbus.User{}, errs.New(errs.PermissionDenied, accessbus.ErrForbidden)
	}

	return usr, nil
}

// checkAdminFields guards the administrative fields of an update. Status
// and global roles belong to super-admins. Memberships can also be managed
// by an admin-equivalent of one of the user's tenants, for tenants they
// administer themselves.
func checkAdminFields(p *userbus.User, target userbus.User, uu userbus.UpdateUser) error {
	if userbus.IsSuperAdmin(p) {
		return nil
	}

	if uu.Status != nil {
		return fmt.Errorf("status: %w", ErrAdminField)
	}

	if uu.Roles != nil {
		return fmt.Errorf("roles: %w", ErrAdminField)
	}

	if uu.Tenants == nil {
		return nil
	}

	if !userbus.SharesTenant(p, target, tenantrole.AdminEquivalent...) {
		return fmt.Errorf("tenants: %w", ErrAdminField)
	}

	admin := make(map[uuid.UUID]bool)
	for _, id := range userbus.TenantIDs(p, tenantrole.AdminEquivalent...) {
		admin[id] = true
	}

	changed := make(map[userbus.Membership]bool)
	for _, m := range target.Tenants {
		changed[m] = true
	}
	for _, m := range uu.Tenants {
		if changed[m] {
			delete(changed, m)
			continue
		}
		changed[m] = true
	}

	for m := range changed {
		if !admin[m.TenantID] {
			return fmt.Errorf("tenants[%s]: %w", m.TenantID, ErrAdminField)
		}
	}

	return nil
}
