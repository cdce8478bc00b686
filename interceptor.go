package disco

import (
	"context"
)

// SendFunc represents the next step of an interceptor chain: another
// interceptor or, last, the transport.
type SendFunc func(ctx context.Context, req *Request) (*Response, error)

// Interceptor is a hook that wraps the transport for every call.
//
//	func timing(ctx context.Context, req *disco.Request, next disco.SendFunc) (*disco.Response, error) {
//	    start := time.Now()
//	    resp, err := next(ctx, req)
//	    log.Printf("%s took %v", req.MethodID, time.Since(start))
//	    return resp, err
//	}
//
// Interceptors can:
//   - Inspect/modify the request before calling next
//   - Inspect/modify the response after calling next
//   - Short-circuit by returning without calling next
//
// The call's CallInfo is available through CallInfoFromContext.
type Interceptor func(ctx context.Context, req *Request, next SendFunc) (*Response, error)

// chainInterceptors combines multiple interceptors into a single one.
// The first interceptor in the slice is the outer-most one (runs first).
func chainInterceptors(interceptors []Interceptor) Interceptor {
	if len(interceptors) == 0 {
		return nil
	}
	if len(interceptors) == 1 {
		return interceptors[0]
	}
	return func(ctx context.Context, req *Request, next SendFunc) (*Response, error) {
		chain := next
		for i := len(interceptors) - 1; i >= 0; i-- {
			current := interceptors[i]
			inner := chain
			chain = func(ctx context.Context, req *Request) (*Response, error) {
				return current(ctx, req, inner)
			}
		}
		return chain(ctx, req)
	}
}

// send runs the interceptor chain around the transport.
func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	if c.chain == nil {
		return c.transport.Send(ctx, req)
	}
	return c.chain(ctx, req, c.transport.Send)
}
