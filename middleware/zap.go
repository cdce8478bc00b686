package middleware

import (
	"context"
	"time"

	"github.com/broady/disco"
	"go.uber.org/zap"
)

// ZapReporter returns a disco.Reporter that logs unhandled failures with zap.
//
//	client, err := disco.New(desc, disco.WithReporter(middleware.ZapReporter(logger)))
func ZapReporter(logger *zap.Logger) disco.Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(f *disco.Failure) {
		fields := []zap.Field{
			zap.String("method", f.Method),
			zap.Int("status", f.StatusCode),
			zap.String("code", string(f.Code)),
			zap.String("message", f.Message),
		}
		if f.Cause != nil {
			fields = append(fields, zap.Error(f.Cause))
		}
		logger.Error("request failed", fields...)
	}
}

// ZapLoggingInterceptor is LoggingInterceptor for zap loggers.
func ZapLoggingInterceptor(logger *zap.Logger) disco.Interceptor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(ctx context.Context, req *disco.Request, next disco.SendFunc) (*disco.Response, error) {
		start := time.Now()
		ep := endpoint(ctx, req)

		logger.Debug("request started",
			zap.String("endpoint", ep),
			zap.String("http_method", req.Method),
			zap.String("url", req.URL))

		resp, err := next(ctx, req)
		duration := time.Since(start)

		if err != nil {
			logger.Error("request failed",
				zap.String("endpoint", ep),
				zap.Duration("duration", duration),
				zap.Error(err))
			return resp, err
		}

		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		logger.Info("request completed",
			zap.String("endpoint", ep),
			zap.Int("status", status),
			zap.Duration("duration", duration))
		return resp, err
	}
}
