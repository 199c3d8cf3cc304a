package mid

import (
	"context"
	"net/http"
	"runtime/debug"

	"github.com/nssmahe/portal/app/sdk/errs"
	"github.com/nssmahe/portal/app/sdk/metrics"
	"github.com/nssmahe/portal/business/sdk/web"
)

// Panics recovers from panics and converts the panic to an error so it is
// reported in Metrics and handled in Errors. The caller only ever sees a
// generic internal error.
func Panics() web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) (resp web.Encoder) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				metrics.AddPanics(ctx)

				resp = errs.Errorf(errs.InternalOnlyLog, "PANIC %s %s [%v] TRACE[%s]", r.Method, r.URL.Path, rec, debug.Stack())
			}()

			return next(ctx, r)
		}

		return h
	}

	return m
}
