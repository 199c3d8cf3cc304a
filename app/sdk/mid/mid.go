// Package mid contains the set of middleware functions.
package mid

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/business/domain/accessbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/web"
)

func checkIsError(e web.Encoder) error {
	err, hasError := e.(error)
	if hasError {
		return err
	}

	return nil
}

type httpStatus interface {
	HTTPStatus() int
}

// statusOf mirrors the status web.Respond will write for the encoder.
func statusOf(e web.Encoder) int {
	switch v := e.(type) {
	case nil:
		return http.StatusNoContent
	case httpStatus:
		return v.HTTPStatus()
	case error:
		return http.StatusInternalServerError
	}

	return http.StatusOK
}

// =============================================================================

type ctxKey int

const (
	claimKey ctxKey = iota + 1
	userKey
	tenantKey
	grantKey
	targetKey
)

func setClaims(ctx context.Context, claims auth.Claims) context.Context {
	return context.WithValue(ctx, claimKey, claims)
}

// GetClaims returns the claims from the context.
func GetClaims(ctx context.Context) auth.Claims {
	v, ok := ctx.Value(claimKey).(auth.Claims)
	if !ok {
		return auth.Claims{}
	}
	return v
}

func setUser(ctx context.Context, usr userbus.User) context.Context {
	return context.WithValue(ctx, userKey, usr)
}

// GetUser returns the authenticated user from the context.
func GetUser(ctx context.Context) (userbus.User, error) {
	v, ok := ctx.Value(userKey).(userbus.User)
	if !ok {
		return userbus.User{}, errors.New("user not found in context")
	}

	return v, nil
}

// GetPrincipal returns the authenticated user, or nil for anonymous requests.
func GetPrincipal(ctx context.Context) *userbus.User {
	v, ok := ctx.Value(userKey).(userbus.User)
	if !ok {
		return nil
	}

	return &v
}

func setSelectedTenant(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// GetSelectedTenant returns the tenant the request works in, uuid.Nil when
// none was selected.
func GetSelectedTenant(ctx context.Context) uuid.UUID {
	v, ok := ctx.Value(tenantKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return v
}

func setGrant(ctx context.Context, g accessbus.Grant) context.Context {
	return context.WithValue(ctx, grantKey, g)
}

// GetGrant returns the grant Authorize decided for the request.
func GetGrant(ctx context.Context) (accessbus.Grant, error) {
	v, ok := ctx.Value(grantKey).(accessbus.Grant)
	if !ok {
		return accessbus.Denied, errors.New("grant not found in context")
	}

	return v, nil
}

func setTarget(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, targetKey, id)
}

// GetTarget returns the id of the record named in the route.
func GetTarget(ctx context.Context) uuid.UUID {
	v, ok := ctx.Value(targetKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return v
}
