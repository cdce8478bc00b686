package disco

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

const defaultUserAgent = "disco/1"

// Client is a built, immutable client for one service description.
// It is safe for concurrent use by any number of goroutines.
//
//	client, err := disco.New(desc, disco.WithTransport(transport))
//	if err != nil {
//	    return err
//	}
//	client.Resource("files").Method("list").Call(ctx, disco.Params{"q": "hello"}, nil)
type Client struct {
	name    string
	version string

	opts       Options
	baseURL    string
	uploadBase string
	globals    map[string]*Parameter

	transport Transport
	reporter  Reporter
	logger    *slog.Logger
	chain     Interceptor
	phaseHook func(method string, p Phase)

	root *Namespace
}

// Options are the effective client-level settings. Client.Options returns a copy.
type Options struct {
	// RootURL overrides the description's rootUrl (or baseUrl).
	RootURL string `validate:"omitempty,url"`
	// ServicePath overrides the description's servicePath.
	ServicePath string
	// Headers are sent with every request.
	Headers http.Header
	// Params are default parameters for every call; they satisfy required parameters.
	Params Params
	// Timeout is passed to the transport as a hint when a call sets none.
	Timeout   time.Duration `validate:"gte=0"`
	UserAgent string
}

type options struct {
	Options
	transport        Transport
	reporter         Reporter
	logger           *slog.Logger
	interceptors     []Interceptor
	resourceDefaults map[string]*Defaults
	phaseHook        func(method string, p Phase)
}

// Option configures a Client.
type Option func(*options)

// WithRootURL sets the root URL, overriding the description.
func WithRootURL(u string) Option {
	return func(o *options) { o.RootURL = u }
}

// WithServicePath sets the service path, overriding the description.
func WithServicePath(p string) Option {
	return func(o *options) { o.ServicePath = p }
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(o *options) { o.Headers.Add(key, value) }
}

// WithParam sets a default parameter for every call.
func WithParam(name string, value any) Option {
	return func(o *options) { o.Params[name] = value }
}

// WithTimeout sets the default per-call timeout hint.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.Timeout = d }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) { o.UserAgent = ua }
}

// WithTransport sets the transport. The default is an HTTPTransport over
// http.DefaultClient.
func WithTransport(t Transport) Option {
	return func(o *options) { o.transport = t }
}

// WithReporter sets the reporter that receives failures of calls made without
// a completion function. The default logs them with the client logger.
func WithReporter(r Reporter) Option {
	return func(o *options) { o.reporter = r }
}

// WithLogger sets a custom logger for the client.
// If not set, slog.Default() will be used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithInterceptor adds an interceptor around the transport.
// Interceptors run in the order they were added (first added is outermost).
func WithInterceptor(i Interceptor) Option {
	return func(o *options) { o.interceptors = append(o.interceptors, i) }
}

// WithResourceDefaults sets defaults for every method below the resource at the
// dotted path (e.g. "files" or "files.permissions"). They take precedence over
// defaults declared in the description and over client-level defaults.
func WithResourceDefaults(path string, d Defaults) Option {
	return func(o *options) { o.resourceDefaults[path] = d.clone() }
}

// WithPhaseHook registers a function observing every dispatch phase transition.
// It is meant for debugging and tests and must not block.
func WithPhaseHook(fn func(method string, p Phase)) Option {
	return func(o *options) { o.phaseHook = fn }
}

// New builds a client from a service description. Malformed descriptions
// fail with a *DescriptionError and no client is returned.
func New(desc *Description, opts ...Option) (*Client, error) {
	o := &options{
		Options: Options{
			Headers:   make(http.Header),
			Params:    make(Params),
			UserAgent: defaultUserAgent,
		},
		resourceDefaults: make(map[string]*Defaults),
	}
	for _, opt := range opts {
		opt(o)
	}
	if err := validate.Struct(o.Options); err != nil {
		return nil, optionsError(err)
	}
	if err := validateDescription(desc); err != nil {
		return nil, err
	}

	c := &Client{
		name:      desc.Name,
		version:   desc.Version,
		opts:      o.Options,
		globals:   cloneParameters(desc.Parameters),
		transport: o.transport,
		reporter:  o.reporter,
		logger:    o.logger,
		chain:     chainInterceptors(o.interceptors),
		phaseHook: o.phaseHook,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With(slog.String("service", desc.Name))
	if c.transport == nil {
		c.transport = &HTTPTransport{}
	}
	if c.reporter == nil {
		c.reporter = LogReporter(c.logger)
	}

	root, servicePath := desc.RootURL, desc.ServicePath
	if o.ServicePath != "" {
		servicePath = o.ServicePath
	}
	switch {
	case o.RootURL != "":
		root = o.RootURL
	case root == "" && desc.BaseURL != "":
		root, servicePath = desc.BaseURL, ""
		if o.ServicePath != "" {
			servicePath = o.ServicePath
		}
	}
	if root == "" {
		return nil, &DescriptionError{Message: "no rootUrl or baseUrl, and no WithRootURL option"}
	}
	c.baseURL = joinURL(root, servicePath)
	c.uploadBase = joinURL(root, "upload", servicePath)
	c.opts.RootURL = root
	c.opts.ServicePath = servicePath

	c.root = c.buildNamespace(desc.Name, "", desc.Resources, desc.Methods, nil, o.resourceDefaults)
	freeze(c.root)

	c.logger.Debug("client built",
		slog.String("base_url", c.baseURL),
		slog.Int("methods", countMethods(c.root)))
	return c, nil
}

// Build is an alias for New.
func Build(desc *Description, opts ...Option) (*Client, error) {
	return New(desc, opts...)
}

// Name returns the service name from the description.
func (c *Client) Name() string { return c.name }

// Version returns the service version from the description.
func (c *Client) Version() string { return c.version }

// BaseURL returns the URL method paths are joined to.
func (c *Client) BaseURL() string { return c.baseURL }

// Root returns the root namespace of the client tree.
func (c *Client) Root() *Namespace { return c.root }

// Resource returns the top-level resource with the given name, or nil.
func (c *Client) Resource(name string) *Namespace { return c.root.Resource(name) }

// Method returns the top-level method with the given name, or nil.
func (c *Client) Method(name string) *Method { return c.root.Method(name) }

// Lookup resolves a dotted path such as "files.list" from the root.
func (c *Client) Lookup(path string) (Node, bool) { return c.root.Lookup(path) }

// Frozen reports whether the client tree is immutable. It is always true for
// a client returned by New.
func (c *Client) Frozen() bool { return c.root.Frozen() }

// Options returns a copy of the effective client options.
// Modifying the copy has no effect on the client.
func (c *Client) Options() Options {
	o := c.opts
	o.Headers = c.opts.Headers.Clone()
	o.Params = maps.Clone(c.opts.Params)
	return o
}

// optionsError reports the first invalid option as a *DescriptionError.
func optionsError(err error) error {
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) && len(valErrs) > 0 {
		ve := valErrs[0]
		return &DescriptionError{Message: fmt.Sprintf("option %s %s", ve.Field(), formatValidationError(ve)), Cause: err}
	}
	return &DescriptionError{Message: "invalid options", Cause: err}
}
