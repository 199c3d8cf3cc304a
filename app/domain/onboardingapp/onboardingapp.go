// Package onboardingapp maintains the app layer api for volunteer onboarding.
package onboardingapp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/app/sdk/mid"
	"github.com/nssmahe/portal/app/sdk/query"
	"github.com/nssmahe/portal/business/domain/onboardingbus"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/page"
	"github.com/nssmahe/portal/business/sdk/web"
)

type app struct {
	onboardingBus *onboardingbus.Core
}

func newApp(onboardingBus *onboardingbus.Core) *app {
	return &app{
		onboardingBus: onboardingBus,
	}
}

func (a *app) createPending(ctx context.Context, r *http.Request) web.Encoder {
	var app NewPending
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	np, err := toBusNewPending(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	usr, err := a.onboardingBus.Invite(ctx, mid.GetPrincipal(ctx), np)
	if err != nil {
		return toAppError(err)
	}

	return Outcome{Success: true, Message: "User created and onboarding email sent", UserID: usr.ID.String()}
}

func (a *app) validateToken(ctx context.Context, r *http.Request) web.Encoder {
	usr, err := a.onboardingBus.Validate(ctx, web.Param(r, "token"))
	if err != nil {
		return toAppError(err)
	}

	return TokenOwner{Success: true, User: toAppUser(usr)}
}

func (a *app) completeOnboarding(ctx context.Context, r *http.Request) web.Encoder {
	var app CompleteOnboarding
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	cp, err := toBusCompleteProfile(app)
	if err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	usr, err := a.onboardingBus.Complete(ctx, app.Token, cp)
	if err != nil {
		return toAppError(err)
	}

	return Outcome{Success: true, Message: "Profile completed successfully. Awaiting approval.", UserID: usr.ID.String()}
}

func (a *app) approve(ctx context.Context, r *http.Request) web.Encoder {
	userID, err := uuid.Parse(web.Param(r, "user_id"))
	if err != nil {
		return errs.NewFieldErrors("user_id", err)
	}

	if _, err := a.onboardingBus.Approve(ctx, mid.GetPrincipal(ctx), userID); err != nil {
		return toAppError(err)
	}

	return Outcome{Success: true, Message: "User approved successfully"}
}

func (a *app) reject(ctx context.Context, r *http.Request) web.Encoder {
	userID, err := uuid.Parse(web.Param(r, "user_id"))
	if err != nil {
		return errs.NewFieldErrors("user_id", err)
	}

	var app Rejection
	if err := web.Decode(r, &app); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	if _, err := a.onboardingBus.Reject(ctx, mid.GetPrincipal(ctx), userID, app.Reason); err != nil {
		return toAppError(err)
	}

	return Outcome{Success: true, Message: "User rejected successfully"}
}

func (a *app) pendingUsers(ctx context.Context, r *http.Request) web.Encoder {
	qp := r.URL.Query()

	pg, err := page.Parse(qp.Get("page"), qp.Get("rows"))
	if err != nil {
		return errs.NewFieldErrors("page", err)
	}

	pending, err := a.onboardingBus.ListPending(ctx, mid.GetPrincipal(ctx), pg)
	if err != nil {
		return toAppError(err)
	}

	return query.NewResult(toAppUsers(pending.Users), pending.Total, pg)
}

// =============================================================================

func toAppError(err error) *errs.Error {
	switch {
	case errors.Is(err, onboardingbus.ErrInvalidToken):
		return errs.New(errs.InvalidToken, onboardingbus.ErrInvalidToken)

	case errors.Is(err, onboardingbus.ErrMissingCredential),
		errors.Is(err, onboardingbus.ErrInstitutionalDomain):
		return errs.New(errs.InvalidArgument, err)

	case errors.Is(err, onboardingbus.ErrNotPendingApproval):
		return errs.New(errs.FailedPrecondition, onboardingbus.ErrNotPendingApproval)

	case errors.Is(err, onboardingbus.ErrForbidden):
		return errs.New(errs.PermissionDenied, onboardingbus.ErrForbidden)

	case errors.Is(err, userbus.ErrNotFound):
		return errs.New(errs.NotFound, userbus.ErrNotFound)

	case errors.Is(err, tenantbus.ErrNotFound):
		return errs.New(errs.NotFound, tenantbus.ErrNotFound)

	case errors.Is(err, userbus.ErrUniqueEmail):
		return errs.New(errs.AlreadyExists, userbus.ErrUniqueEmail)

	case errors.Is(err, onboardingbus.ErrNotifyFailed):
		return errs.Errorf(errs.Internal, "%s", onboardingbus.ErrNotifyFailed)
	}

	return errs.Errorf(errs.InternalOnlyLog, "onboarding: %s", err)
}
