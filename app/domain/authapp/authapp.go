// Package authapp maintains the app layer api for logging in.
package authapp

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/nssmahe/portal/app/sdk/auth"
	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/domain/tenantbus"
	"github.com/nssmahe/portal/business/domain/userbus"
	"github.com/nssmahe/portal/business/sdk/web"
)

type app struct {
	auth      *auth.Auth
	kid       string
	tenantBus *tenantbus.Core
}

func newApp(a *auth.Auth, kid string, tenantBus *tenantbus.Core) *app {
	return &app{
		auth:      a,
		kid:       kid,
		tenantBus: tenantBus,
	}
}

func (a *app) login(ctx context.Context, r *http.Request) web.Encoder {
	var req Login
	if err := web.Decode(r, &req); err != nil {
		return errs.New(errs.InvalidArgument, err)
	}

	addr, err := mail.ParseAddress(req.Email)
	if err != nil {
		return errs.New(errs.InvalidArgument, fmt.Errorf("parsing email: %w", err))
	}

	usr, err := a.auth.Login(ctx, *addr, req.Password)
	if err != nil {
		return errs.New(errs.Unauthenticated, err)
	}

	tokenStr, err := a.auth.GenerateToken(a.kid, usr)
	if err != nil {
		return errs.Errorf(errs.Internal, "generatetoken: %s", err)
	}

	token := Token{
		Token: tokenStr,
	}

	tnt, err := a.tenantBus.ResolveDomain(ctx, auth.ExtractDomain(r.Host))
	if err != nil {
		return token
	}

	for _, id := range userbus.TenantIDs(&usr) {
		if id == tnt.ID {
			token.TenantID = id.String()
			break
		}
	}

	return token
}
