// Package accessbus decides what a principal may do with the portal's
// resources. A decision is a Grant that either denies, allows everything, or
// allows the records matching a where clause so finds can be filtered with
// the same rule that guards single records.
package accessbus

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/where"
	"github.com/nssmahe/portal/business/types/actions"
	"github.com/nssmahe/portal/business/types/resource"
	"github.com/nssmahe/portal/foundation/logger"
	"github.com/nssmahe/portal/foundation/otel"
)

// ErrForbidden is returned when a grant does not cover the requested record.
var ErrForbidden = errors.New("attempted action is not allowed")

// Request describes an access question. TargetID is the record being acted
// on, uuid.Nil for finds and creates. SelectedTenant is the tenant the
// principal is currently working in, uuid.Nil when none is selected.
type Request struct {
	Principal      *userbus.User
	Action         actions.Action
	Resource       resource.Resource
	TargetID       uuid.UUID
	SelectedTenant uuid.UUID
}

// Core manages the set of APIs for access decisions.
type Core struct {
	log    *logger.Logger
	policy *Policy
}

// NewCore constructs a core for access decisions.
func NewCore(log *logger.Logger, policy *Policy) *Core {
	return &Core{
		log:    log,
		policy: policy,
	}
}

// Decide returns the grant for the request. It never fails; a policy error
// is logged and yields Denied.
func (c *Core) Decide(ctx context.Context, req Request) Grant {
	ctx, span := otel.AddSpan(ctx, "business.accessbus.decide")
	defer span.End()

	g, err := c.decide(req)
	if err != nil {
		c.log.Error(ctx, "accessbus: decide", "resource", req.Resource, "action", req.Action, "err", err)
		return Denied
	}

	c.log.Debug(ctx, "accessbus: decision", "resource", req.Resource, "action", req.Action, "grant", g)

	return g
}

// Check decides the request and verifies the grant covers rec.
func (c *Core) Check(ctx context.Context, req Request, rec where.Record) error {
	if !c.Decide(ctx, req).Allows(rec) {
		return ErrForbidden
	}

	return nil
}

func (c *Core) decide(req Request) (Grant, error) {
	p := req.Principal

	if p == nil {
		return anonymous(req), nil
	}

	if userbus.IsSuperAdmin(p) {
		return AllowedAll, nil
	}

	if req.Resource.Equal(resource.User) && selfAction(req.Action) && userbus.IsSelf(p, req.TargetID) {
		return AllowedAll, nil
	}

	field := where.Tenant
	if req.Resource.Equal(resource.Tenant) {
		field = where.ID
	}

	var (
		g     Grant
		scope []uuid.UUID
	)

	switch {
	case req.Action.Equal(actions.Read) && (req.Resource.Equal(resource.Tenant) || req.Resource.Equal(resource.Page)):
		g = AllowedAll
		scope = userbus.TenantIDs(p)

	default:
		roles, err := c.policy.Roles(req.Resource, req.Action)
		if err != nil {
			return Denied, err
		}

		if len(roles) == 0 {
			return Denied, nil
		}

		scope = userbus.TenantIDs(p, roles...)
		clause := where.In(field, scope)

		if req.Resource.Equal(resource.User) && req.Action.Equal(actions.Read) {
			clause = where.Or(where.Equals(where.ID, p.ID), clause)
		}

		g = AllowedIf(clause)
	}

	if req.SelectedTenant != uuid.Nil && contains(scope, req.SelectedTenant) {
		g = g.Narrow(where.Equals(field, req.SelectedTenant))
	}

	return g, nil
}

// anonymous decides for requests without a principal. Only public content
// can be read.
func anonymous(req Request) Grant {
	if !req.Action.Equal(actions.Read) {
		return Denied
	}

	if req.Resource.Equal(resource.Media) || req.Resource.Equal(resource.Page) {
		return AllowedIf(where.Equals(where.TenantPublic, true))
	}

	return Denied
}

func selfAction(act actions.Action) bool {
	return act.Equal(actions.Read) || act.Equal(actions.Update) || act.Equal(actions.Delete)
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
