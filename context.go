package disco

import (
	"context"

	"github.com/broady/disco/internal/callctx"
)

// CallInfo describes the method a request belongs to.
// Interceptors read it with CallInfoFromContext.
type CallInfo = callctx.Info

// CallInfoFromContext returns the call info of the request being sent.
func CallInfoFromContext(ctx context.Context) (*CallInfo, bool) {
	return callctx.FromContext(ctx)
}

// NewCallContext returns ctx carrying call info for the given service and method.
// It is useful for testing interceptors outside of a client.
func NewCallContext(ctx context.Context, service, method string) context.Context {
	info := &CallInfo{Service: service, Method: method}
	info.ID = info.Endpoint()
	return callctx.NewContext(ctx, info)
}
