package mid

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/sdk/web"
)

// Authenticate validates the bearer token and loads the principal it was
// issued to. Requests without a valid token are rejected.
func Authenticate(a *auth.Auth) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			authStr := r.Header.Get("authorization")
			if authStr == "" {
				return errs.New(errs.Unauthenticated, errors.New("missing authorization header"))
			}

			ctx, err := authenticate(ctx, a, authStr)
			if err != nil {
				return err
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}

// Identify is Authenticate for routes open to anonymous callers. A request
// without an authorization header passes through with no principal; one
// carrying a bad token is still rejected.
func Identify(a *auth.Auth) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			authStr := r.Header.Get("authorization")
			if authStr == "" {
				return next(ctx, r)
			}

			ctx, err := authenticate(ctx, a, authStr)
			if err != nil {
				return err
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}

func authenticate(ctx context.Context, a *auth.Auth, authStr string) (context.Context, *errs.Error) {
	parts := strings.Split(authStr, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ctx, errs.New(errs.Unauthenticated, errors.New("expected authorization header format: Bearer <token>"))
	}

	claims, err := a.Authenticate(ctx, "Bearer "+parts[1])
	if err != nil {
		return ctx, errs.New(errs.Unauthenticated, err)
	}

	usr, err := a.Principal(ctx, claims)
	if err != nil {
		return ctx, errs.New(errs.Unauthenticated, err)
	}

	ctx = setClaims(ctx, claims)
	ctx = setUser(ctx, usr)

	return ctx, nil
}
