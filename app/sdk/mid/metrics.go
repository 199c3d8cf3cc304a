package mid

import (
	"context"
	"net/http"
	"time"

	"github.com/nssmahe/portal/app/sdk/metrics"
	"github.com/nssmahe/portal/business/sdk/web"
)

// Metrics updates program counters.
func Metrics() web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			now := time.Now()

			resp := next(ctx, r)

			if checkIsError(resp) != nil {
				metrics.AddErrors(ctx)
			}

			metrics.AddRequests(ctx, r.Method, statusOf(resp), time.Since(now))

			return resp
		}

		return h
	}

	return m
}
