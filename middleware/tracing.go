package middleware

import (
	"context"
	"fmt"

	"github.com/broady/disco"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/broady/disco/middleware"

// TracingInterceptor starts a client span around every call and injects the
// trace context into the request headers. A nil tp uses the global provider.
func TracingInterceptor(tp trace.TracerProvider) disco.Interceptor {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(instrumentationName)
	propagator := propagation.TraceContext{}

	return func(ctx context.Context, req *disco.Request, next disco.SendFunc) (*disco.Response, error) {
		ctx, span := tracer.Start(ctx, endpoint(ctx, req),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				attribute.String("disco.method_id", req.MethodID),
				attribute.String("http.request.method", req.Method),
				attribute.String("url.full", req.FullURL()),
			))
		defer span.End()

		if req.Header != nil {
			propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))
		}

		resp, err := next(ctx, req)
		if resp != nil {
			span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		}
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case resp != nil && resp.StatusCode >= 400:
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", resp.StatusCode))
		default:
			span.SetStatus(codes.Ok, "")
		}
		return resp, err
	}
}
