// Package callctx holds the context key for per-call metadata shared by the
// disco package and its middleware.
package callctx

import "context"

type contextKey struct {
	name string
}

var infoKey = &contextKey{"call_info"}

// Info describes the method a call was made on.
// The public type disco.CallInfo is an alias for this type.
type Info struct {
	// Service is the service name from the description.
	Service string
	// Method is the dotted method path, e.g. "files.list".
	Method string
	// ID is the method id, e.g. "drive.files.list".
	ID string
}

// Endpoint returns "Service.Method", or Method when the service is unnamed.
func (i *Info) Endpoint() string {
	if i.Service == "" {
		return i.Method
	}
	return i.Service + "." + i.Method
}

// NewContext returns ctx carrying info.
func NewContext(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, infoKey, info)
}

// FromContext returns the call info stored in ctx.
func FromContext(ctx context.Context) (*Info, bool) {
	info, ok := ctx.Value(infoKey).(*Info)
	return info, ok
}
