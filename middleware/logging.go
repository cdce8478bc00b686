// Package middleware provides interceptors for disco clients: logging,
// metrics, tracing and request ids.
//
//	client, err := disco.New(desc,
//	    disco.WithInterceptor(middleware.RequestID("")),
//	    disco.WithInterceptor(middleware.LoggingInterceptor(logger)),
//	)
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/broady/disco"
)

// endpoint returns the "Service.method" name of the call in ctx, falling back
// to the method id carried by the request.
func endpoint(ctx context.Context, req *disco.Request) string {
	if info, ok := disco.CallInfoFromContext(ctx); ok {
		return info.Endpoint()
	}
	return req.MethodID
}

// LoggingInterceptor creates an interceptor that logs outgoing calls using slog.
// It logs the start and end of each call, including status and duration.
func LoggingInterceptor(logger *slog.Logger) disco.Interceptor {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, req *disco.Request, next disco.SendFunc) (*disco.Response, error) {
		start := time.Now()
		ep := endpoint(ctx, req)

		logger.InfoContext(ctx, "request started",
			slog.String("endpoint", ep),
			slog.String("http_method", req.Method),
			slog.String("url", req.URL),
		)

		resp, err := next(ctx, req)
		duration := time.Since(start)

		switch {
		case err != nil:
			logger.ErrorContext(ctx, "request failed",
				slog.String("endpoint", ep),
				slog.Duration("duration", duration),
				slog.Any("error", err),
			)
		case resp != nil && resp.StatusCode >= 400:
			logger.WarnContext(ctx, "request failed",
				slog.String("endpoint", ep),
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", duration),
			)
		default:
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			logger.InfoContext(ctx, "request completed",
				slog.String("endpoint", ep),
				slog.Int("status", status),
				slog.Duration("duration", duration),
			)
		}

		return resp, err
	}
}
