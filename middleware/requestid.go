package middleware

import (
	"context"

	"github.com/broady/disco"
	"github.com/google/uuid"
)

// DefaultRequestIDHeader is the header RequestID sets when none is given.
const DefaultRequestIDHeader = "X-Request-Id"

// RequestID returns an interceptor that tags every request with a random
// UUID in header. A request that already carries the header keeps it.
func RequestID(header string) disco.Interceptor {
	if header == "" {
		header = DefaultRequestIDHeader
	}
	return func(ctx context.Context, req *disco.Request, next disco.SendFunc) (*disco.Response, error) {
		if req.Header != nil && req.Header.Get(header) == "" {
			req.Header.Set(header, uuid.NewString())
		}
		return next(ctx, req)
	}
}
