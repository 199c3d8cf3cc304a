package mid

import (
	"context"
	"net/http"

	"github.com/nssmahe/portal/business/sdk/web"
	"github.com/nssmahe/portal/foundation/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Otel stores the tracer and trace id in the context and names the matched
// route on the request span.
func Otel(tracer trace.Tracer) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			ctx = otel.InjectTracing(ctx, tracer)

			if r.Pattern != "" {
				trace.SpanFromContext(ctx).SetAttributes(attribute.String("http.route", r.Pattern))
			}

			return next(ctx, r)
		}

		return h
	}

	return m
}
