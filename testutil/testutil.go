// Package testutil provides testing helpers for code built on disco clients:
// a recording fake transport, canned responses, assertions and fixtures.
// This package is designed to be import-cycle safe and can be used from any package.
package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/broady/disco"
	"github.com/gorilla/schema"
)

// HandlerFunc produces the outcome of one request sent to a FakeTransport.
type HandlerFunc func(ctx context.Context, req *disco.Request) (*disco.Response, error)

// FakeTransport is a disco.Transport that records every request and answers
// with a handler instead of the network. It is safe for concurrent use.
type FakeTransport struct {
	handler HandlerFunc

	mu       sync.Mutex
	requests []*disco.Request
	notify   chan struct{}
}

// NewFakeTransport returns a FakeTransport answering with h.
// A nil h answers every request with an empty 200 response.
func NewFakeTransport(h HandlerFunc) *FakeTransport {
	if h == nil {
		h = Status(http.StatusOK)
	}
	return &FakeTransport{handler: h, notify: make(chan struct{}, 1024)}
}

// Send records req and returns the handler's outcome.
func (f *FakeTransport) Send(ctx context.Context, req *disco.Request) (*disco.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	select {
	case f.notify <- struct{}{}:
	default:
	}
	return f.handler(ctx, req)
}

// Calls returns the number of requests sent so far.
func (f *FakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// Requests returns a copy of the recorded requests, in send order.
func (f *FakeTransport) Requests() []*disco.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*disco.Request(nil), f.requests...)
}

// Last returns the most recent request, or nil.
func (f *FakeTransport) Last() *disco.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

// Sent returns a channel receiving a value for each request sent.
func (f *FakeTransport) Sent() <-chan struct{} { return f.notify }

// Status answers every request with an empty response of the given status.
func Status(code int) HandlerFunc {
	return Respond(code, "")
}

// Respond answers every request with status code and a plain text body.
func Respond(code int, body string) HandlerFunc {
	return func(ctx context.Context, req *disco.Request) (*disco.Response, error) {
		resp := &disco.Response{StatusCode: code, Header: make(http.Header)}
		if body != "" {
			resp.Header.Set("Content-Type", "text/plain; charset=utf-8")
			resp.Body = []byte(body)
		}
		return resp, nil
	}
}

// JSONResponse answers every request with status code and v encoded as JSON.
func JSONResponse(code int, v any) HandlerFunc {
	data, err := json.Marshal(v)
	return func(ctx context.Context, req *disco.Request) (*disco.Response, error) {
		if err != nil {
			return nil, err
		}
		header := make(http.Header)
		header.Set("Content-Type", "application/json")
		return &disco.Response{StatusCode: code, Header: header, Body: data}, nil
	}
}

// Fail answers every request with a transport error wrapping err.
func Fail(err error) HandlerFunc {
	return func(ctx context.Context, req *disco.Request) (*disco.Response, error) {
		return nil, &disco.TransportError{Message: "fake transport", Cause: err}
	}
}

// Block waits until the request context is done, then returns its error.
// It is useful for exercising timeouts and cancellation.
func Block() HandlerFunc {
	return func(ctx context.Context, req *disco.Request) (*disco.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

var queryDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("json")
	d.IgnoreUnknownKeys(true)
	return d
}()

// DecodeQuery decodes the query string of req into dst, a pointer to a struct
// whose fields are matched by their json tag.
func DecodeQuery(req *disco.Request, dst any) error {
	if req == nil {
		return errors.New("testutil: nil request")
	}
	return queryDecoder.Decode(dst, req.Query)
}

// DecodeBody decodes the JSON body of req into v.
func DecodeBody(t *testing.T, req *disco.Request, v any) {
	t.Helper()
	if err := json.Unmarshal(req.Body, v); err != nil {
		t.Fatalf("failed to decode request body: %v\nBody: %s", err, req.Body)
	}
}

// AssertFailure checks that err is a *disco.Failure with the expected code.
func AssertFailure(t *testing.T, err error, expectedCode disco.ErrorCode) *disco.Failure {
	t.Helper()
	f, ok := disco.AsFailure(err)
	if !ok {
		t.Fatalf("expected *disco.Failure, got %T (%v)", err, err)
	}
	if f.Code != expectedCode {
		t.Errorf("expected failure code %s, got %s (message: %s)", expectedCode, f.Code, f.Message)
	}
	return f
}

// AssertHeader checks that a request header has the expected value.
func AssertHeader(t *testing.T, req *disco.Request, key, expectedValue string) {
	t.Helper()
	actual := req.Header.Get(key)
	if actual != expectedValue {
		t.Errorf("expected header %s=%s, got %s", key, expectedValue, actual)
	}
}

// AssertQuery checks that a query parameter has the expected value.
func AssertQuery(t *testing.T, req *disco.Request, key, expectedValue string) {
	t.Helper()
	actual := req.Query.Get(key)
	if actual != expectedValue {
		t.Errorf("expected query %s=%s, got %s", key, expectedValue, actual)
	}
}

// NewServer starts an httptest server for h and closes it when the test ends.
// Point a client at it with disco.WithRootURL(srv.URL).
func NewServer(t *testing.T, h http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}
