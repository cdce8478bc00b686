package disco

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// Request is a fully resolved HTTP request, produced for one call and handed
// to the interceptors and the transport.
type Request struct {
	// MethodID identifies the method, e.g. "drive.files.list".
	MethodID string
	Method   string
	// URL is the request URL without the query string.
	URL    string
	Query  url.Values
	Header http.Header
	Body   []byte
	// Timeout is a hint for the transport; zero means none.
	Timeout time.Duration
}

// FullURL returns URL with the encoded query string.
func (r *Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	return r.URL + "?" + r.Query.Encode()
}

// HTTPRequest converts r into an *http.Request bound to ctx.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body *bytes.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}
	var hreq *http.Request
	var err error
	if body != nil {
		hreq, err = http.NewRequestWithContext(ctx, r.Method, r.FullURL(), body)
	} else {
		hreq, err = http.NewRequestWithContext(ctx, r.Method, r.FullURL(), nil)
	}
	if err != nil {
		return nil, err
	}
	hreq.Header = r.Header.Clone()
	if hreq.Header == nil {
		hreq.Header = make(http.Header)
	}
	return hreq, nil
}

// CallOption configures a single call.
type CallOption func(*callOptions)

type callOptions struct {
	timeout time.Duration
	header  http.Header
	query   url.Values
}

func newCallOptions(opts []CallOption) *callOptions {
	co := &callOptions{header: make(http.Header), query: make(url.Values)}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// CallTimeout sets the timeout hint passed to the transport for this call.
func CallTimeout(d time.Duration) CallOption {
	return func(co *callOptions) { co.timeout = d }
}

// CallHeader sets a header for this call, overriding client and resource defaults.
func CallHeader(key, value string) CallOption {
	return func(co *callOptions) { co.header.Set(key, value) }
}

// CallQuery sets a query parameter for this call, overriding resolved parameters.
func CallQuery(key, value string) CallOption {
	return func(co *callOptions) { co.query.Set(key, value) }
}

// buildRequest composes the request for resolved parameters. Headers and query
// are merged as client defaults < resource defaults < call options.
//
// Only POST, PUT and PATCH carry a body. For other verbs body parameters,
// the resource and media are dropped without error.
func (m *Method) buildRequest(res *ResolvedParams, co *callOptions) (*Request, error) {
	c := m.client
	req := &Request{
		MethodID: m.ID(),
		Method:   m.verb,
		URL:      joinURL(c.baseURL, res.Path),
		Query:    res.Query,
		Header:   make(http.Header),
		Timeout:  c.opts.Timeout,
	}

	req.Header.Set("Accept", "application/json")
	if c.opts.UserAgent != "" {
		req.Header.Set("User-Agent", c.opts.UserAgent)
	}
	for k, vs := range c.opts.Headers {
		req.Header[k] = slices.Clone(vs)
	}
	for k, v := range m.defaults.Headers {
		req.Header.Set(k, v)
	}
	for k, vs := range co.header {
		req.Header[k] = slices.Clone(vs)
	}
	for k, vs := range co.query {
		req.Query[k] = slices.Clone(vs)
	}
	if co.timeout > 0 {
		req.Timeout = co.timeout
	}

	if !verbHasBody(m.verb) {
		if len(res.Body) > 0 || res.Resource != nil || res.Media != nil {
			c.logger.Debug("dropping body for bodiless verb",
				slog.String("method", m.path),
				slog.String("verb", m.verb),
				slog.Any("params", slices.Sorted(maps.Keys(res.Body))))
		}
		return req, nil
	}

	hasPayload := res.Resource != nil || len(res.Body) > 0
	var payload []byte
	if hasPayload {
		var err error
		if payload, err = encodeBody(res.Resource, res.Body); err != nil {
			return nil, err
		}
	}

	if res.Media != nil {
		if !m.schema.SupportsMediaUpload {
			c.logger.Debug("dropping media for method without media upload", slog.String("method", m.path))
		} else {
			return req, m.attachMedia(req, res, payload)
		}
	}

	if hasPayload {
		req.Body = payload
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// attachMedia points req at the upload endpoint and sets the upload body.
func (m *Method) attachMedia(req *Request, res *ResolvedParams, payload []byte) error {
	data, err := res.Media.read()
	if err != nil {
		return err
	}
	if res.MediaPath != "" {
		req.URL = joinURL(m.client.opts.RootURL, res.MediaPath)
	} else {
		req.URL = joinURL(m.client.uploadBase, res.Path)
	}

	if payload == nil {
		req.Query.Set("uploadType", "media")
		req.Body = data
		req.Header.Set("Content-Type", res.Media.contentType())
		return nil
	}
	body, contentType, err := multipartRelated(payload, res.Media, data)
	if err != nil {
		return &ParameterError{Name: ParamMedia, Reason: ReasonInvalid, Message: "encoding multipart body", Cause: err}
	}
	req.Query.Set("uploadType", "multipart")
	req.Body = body
	req.Header.Set("Content-Type", contentType)
	return nil
}

// encodeBody builds the JSON body from the resource and body parameters.
// Body parameters win over resource fields of the same name.
func encodeBody(resource any, fields map[string]any) ([]byte, error) {
	invalid := func(msg string, err error) error {
		return &ParameterError{Name: ParamResource, Reason: ReasonInvalid, Message: msg, Cause: err}
	}
	if len(fields) == 0 {
		b, err := json.Marshal(resource)
		if err != nil {
			return nil, invalid("encoding request body", err)
		}
		return b, nil
	}

	merged := make(map[string]any)
	switch r := resource.(type) {
	case nil:
	case map[string]any:
		maps.Copy(merged, r)
	case Params:
		maps.Copy(merged, r)
	default:
		b, err := json.Marshal(r)
		if err != nil {
			return nil, invalid("encoding request body", err)
		}
		if err := json.Unmarshal(b, &merged); err != nil {
			return nil, invalid("body parameters need an object resource", err)
		}
	}
	maps.Copy(merged, fields)
	b, err := json.Marshal(merged)
	if err != nil {
		return nil, invalid("encoding request body", err)
	}
	return b, nil
}

func verbHasBody(verb string) bool {
	switch verb {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// joinURL joins parts with exactly one slash between non-empty parts,
// whatever slashes they already carry.
func joinURL(parts ...string) string {
	var out string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out == "" {
			out = p
			continue
		}
		out = strings.TrimRight(out, "/") + "/" + strings.TrimLeft(p, "/")
	}
	return out
}
