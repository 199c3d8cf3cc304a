package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/app/sdk/metrics"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/business/types/actions"
	"github.com/nssmahe/portal/business/types/resource"
)

// ErrInvalidID is returned when the route id is not a uuid.
var ErrInvalidID = errors.New("ID is not in its proper form")

// Authorize decides what the principal may do with res and stores the grant
// for the handler. idKey names the route parameter holding the record id;
// leave it empty for collection routes. A grant that can never allow a
// record ends the request here: 401 for anonymous callers, 403 otherwise.
func Authorize(access *accessbus.Core, res resource.Resource, act actions.Action, idKey string) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			var target uuid.UUID

			if idKey != "" {
				var err error
				target, err = uuid.Parse(web.Param(r, idKey))
				if err != nil {
					return errs.NewFieldErrors(idKey, ErrInvalidID)
				}
				ctx = setTarget(ctx, target)
			}

			principal := GetPrincipal(ctx)

			g := access.Decide(ctx, accessbus.Request{
				Principal:      principal,
				Action:         act,
				Resource:       res,
				TargetID:       target,
				SelectedTenant: GetSelectedTenant(ctx),
			})

			if g.IsDenied() {
				metrics.AddDecision(ctx, res.String(), act.String(), "denied")

				if principal == nil {
					return errs.New(errs.Unauthenticated, accessbus.ErrForbidden)
				}
				return errs.New(errs.PermissionDenied, accessbus.ErrForbidden)
			}

			outcome := "allowed_if"
			if g.IsAllowedAll() {
				outcome = "allowed_all"
			}
			metrics.AddDecision(ctx, res.String(), act.String(), outcome)

			return next(setGrant(ctx, g), r)
		}

		return h
	}

	return m
}
