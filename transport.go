package disco

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

const defaultMaxResponseSize = 32 << 20 // 32MB

// Response is the raw outcome of a request.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends a request and returns the response. A non-2xx status is not
// an error at this level; the dispatcher turns it into a *ServiceError.
//
// Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Response, error)

// Send calls f(ctx, req).
func (f TransportFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Decorator modifies an outgoing *http.Request, typically to add credentials.
// See package auth for implementations.
type Decorator interface {
	Apply(req *http.Request) error
}

// DecoratorFunc adapts a function to the Decorator interface.
type DecoratorFunc func(req *http.Request) error

// Apply calls f(req).
func (f DecoratorFunc) Apply(req *http.Request) error { return f(req) }

// HTTPTransport sends requests with an *http.Client.
type HTTPTransport struct {
	// Client defaults to http.DefaultClient.
	Client *http.Client
	// Decorators are applied in order to every request.
	Decorators []Decorator
	// MaxResponseSize bounds the response body. Zero means 32MB.
	MaxResponseSize int64
}

// NewHTTPTransport returns an HTTPTransport using client and decorators.
func NewHTTPTransport(client *http.Client, decorators ...Decorator) *HTTPTransport {
	return &HTTPTransport{Client: client, Decorators: decorators}
}

// Send executes req. Request.Timeout, when set, bounds the whole exchange.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	hreq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, &TransportError{Message: "creating request", Cause: err}
	}
	for _, d := range t.Decorators {
		if err := d.Apply(hreq); err != nil {
			return nil, &TransportError{Message: "decorating request", Cause: err}
		}
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(hreq)
	if err != nil {
		return nil, &TransportError{Message: "executing request", Cause: err}
	}
	defer resp.Body.Close()

	limit := t.MaxResponseSize
	if limit <= 0 {
		limit = defaultMaxResponseSize
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	if err != nil {
		return out, &TransportError{StatusCode: resp.StatusCode, Message: "reading response", Cause: err}
	}
	if int64(len(body)) > limit {
		out.Body = body[:limit]
		return out, &TransportError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("response exceeds %d bytes", limit)}
	}
	return out, nil
}
