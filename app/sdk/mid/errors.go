package mid

import (
	"context"
	"errors"
	"net/http"
	"path"

	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/foundation/logger"
)

// Errors handles errors coming out of the call chain. Errors that are not
// *errs.Error become opaque internal errors, and InternalOnlyLog detail is
// logged but never sent to the client.
func Errors(log *logger.Logger) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			resp := next(ctx, r)
			err := checkIsError(resp)
			if err == nil {
				return resp
			}

			var appErr *errs.Error
			if !errors.As(err, &appErr) {
				appErr = errs.Errorf(errs.Internal, "Internal Server Error")
			}

			log.Error(ctx, "handled error during request",
				"err", err,
				"source_err_file", path.Base(appErr.FileName),
				"source_err_func", path.Base(appErr.FuncName))

			if appErr.Code.Equal(errs.InternalOnlyLog) {
				appErr = errs.Errorf(errs.Internal, "Internal Server Error")
			}

			return appErr
		}

		return h
	}

	return m
}
