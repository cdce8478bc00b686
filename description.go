package disco

import "maps"

// Location says where a parameter travels on the wire.
type Location string

const (
	LocationPath  Location = "path"
	LocationQuery Location = "query"
	LocationBody  Location = "body"
)

// Reserved parameter names. They are consumed by the request builder and never
// sent as query parameters.
const (
	// ParamResource carries the JSON request body of a method.
	ParamResource = "resource"
	// ParamMedia carries a *Media upload for methods that support media upload.
	ParamMedia = "media"
)

// Description is a parsed discovery document: the declarative description of
// a remote service's resources, methods and parameters.
//
// The builder never mutates a Description and keeps private copies of the parts
// it needs, so a Description may be reused for any number of clients.
type Description struct {
	Kind        string `json:"kind,omitempty" yaml:"kind,omitempty"`
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// RootURL and ServicePath form the base URL for every method path.
	// BaseURL is used when RootURL is empty.
	RootURL     string `json:"rootUrl,omitempty" yaml:"rootUrl,omitempty"`
	ServicePath string `json:"servicePath,omitempty" yaml:"servicePath,omitempty"`
	BaseURL     string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty"`

	// Parameters are accepted by every method of the service (key, fields, alt...).
	Parameters map[string]*Parameter    `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Resources  map[string]*Resource     `json:"resources,omitempty" yaml:"resources,omitempty"`
	Methods    map[string]*MethodSchema `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// Resource is a named group of methods and nested resources.
type Resource struct {
	Resources map[string]*Resource     `json:"resources,omitempty" yaml:"resources,omitempty"`
	Methods   map[string]*MethodSchema `json:"methods,omitempty" yaml:"methods,omitempty"`

	// Defaults apply to every method below this resource, nested resources included.
	Defaults *Defaults `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// Defaults are headers and parameters merged into every request of a scope.
type Defaults struct {
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Params  Params            `json:"params,omitempty" yaml:"params,omitempty"`
}

func (d *Defaults) clone() *Defaults {
	if d == nil {
		return nil
	}
	return &Defaults{
		Headers: maps.Clone(d.Headers),
		Params:  d.Params.Clone(),
	}
}

// MethodSchema describes a single remote operation.
type MethodSchema struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	HTTPMethod  string `json:"httpMethod" yaml:"httpMethod"`
	Path        string `json:"path" yaml:"path"`
	FlatPath    string `json:"flatPath,omitempty" yaml:"flatPath,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Parameters map[string]*Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	// ParameterOrder lists path parameters in substitution order.
	ParameterOrder []string `json:"parameterOrder,omitempty" yaml:"parameterOrder,omitempty"`

	Request  *SchemaRef `json:"request,omitempty" yaml:"request,omitempty"`
	Response *SchemaRef `json:"response,omitempty" yaml:"response,omitempty"`

	SupportsMediaUpload bool         `json:"supportsMediaUpload,omitempty" yaml:"supportsMediaUpload,omitempty"`
	MediaUpload         *MediaUpload `json:"mediaUpload,omitempty" yaml:"mediaUpload,omitempty"`
}

// SchemaRef points at a named schema of the discovery document.
type SchemaRef struct {
	Ref string `json:"$ref" yaml:"$ref"`
}

// MediaUpload describes the upload endpoint of a method.
type MediaUpload struct {
	Accept    []string        `json:"accept,omitempty" yaml:"accept,omitempty"`
	MaxSize   string          `json:"maxSize,omitempty" yaml:"maxSize,omitempty"`
	Protocols *MediaProtocols `json:"protocols,omitempty" yaml:"protocols,omitempty"`
}

// MediaProtocols lists the supported upload protocols.
type MediaProtocols struct {
	Simple *MediaProtocol `json:"simple,omitempty" yaml:"simple,omitempty"`
}

// MediaProtocol is one upload protocol. Path is relative to the root URL.
type MediaProtocol struct {
	Multipart bool   `json:"multipart,omitempty" yaml:"multipart,omitempty"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Parameter declares one method (or service-wide) parameter.
//
// Minimum, Maximum and Default are strings, as in discovery documents.
type Parameter struct {
	Type        string   `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string   `json:"format,omitempty" yaml:"format,omitempty"`
	Location    Location `json:"location,omitempty" yaml:"location,omitempty"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Repeated    bool     `json:"repeated,omitempty" yaml:"repeated,omitempty"`
	Enum        []string `json:"enum,omitempty" yaml:"enum,omitempty"`
	Minimum     string   `json:"minimum,omitempty" yaml:"minimum,omitempty"`
	Maximum     string   `json:"maximum,omitempty" yaml:"maximum,omitempty"`
	Pattern     string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Default     string   `json:"default,omitempty" yaml:"default,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Clone returns a deep copy of d.
func (d *Description) Clone() *Description {
	if d == nil {
		return nil
	}
	c := *d
	c.Parameters = cloneParameters(d.Parameters)
	c.Resources = cloneResources(d.Resources)
	c.Methods = cloneMethods(d.Methods)
	return &c
}

func cloneResources(in map[string]*Resource) map[string]*Resource {
	if in == nil {
		return nil
	}
	out := make(map[string]*Resource, len(in))
	for name, r := range in {
		if r == nil {
			out[name] = nil
			continue
		}
		out[name] = &Resource{
			Resources: cloneResources(r.Resources),
			Methods:   cloneMethods(r.Methods),
			Defaults:  r.Defaults.clone(),
		}
	}
	return out
}

func cloneMethods(in map[string]*MethodSchema) map[string]*MethodSchema {
	if in == nil {
		return nil
	}
	out := make(map[string]*MethodSchema, len(in))
	for name, m := range in {
		if m == nil {
			out[name] = nil
			continue
		}
		out[name] = m.clone()
	}
	return out
}

func (p *Parameter) clone() *Parameter {
	c := *p
	c.Enum = append([]string(nil), p.Enum...)
	return &c
}

// location returns the effective location; undeclared locations mean query.
func (p *Parameter) location() Location {
	if p.Location == "" {
		return LocationQuery
	}
	return p.Location
}

func (m *MethodSchema) clone() *MethodSchema {
	c := *m
	c.Parameters = cloneParameters(m.Parameters)
	c.ParameterOrder = append([]string(nil), m.ParameterOrder...)
	if m.Request != nil {
		r := *m.Request
		c.Request = &r
	}
	if m.Response != nil {
		r := *m.Response
		c.Response = &r
	}
	if m.MediaUpload != nil {
		mu := *m.MediaUpload
		mu.Accept = append([]string(nil), m.MediaUpload.Accept...)
		if m.MediaUpload.Protocols != nil {
			p := *m.MediaUpload.Protocols
			if p.Simple != nil {
				s := *p.Simple
				p.Simple = &s
			}
			mu.Protocols = &p
		}
		c.MediaUpload = &mu
	}
	return &c
}

// mediaPath returns the upload path template declared by the method, if any.
func (m *MethodSchema) mediaPath() string {
	if m.MediaUpload == nil || m.MediaUpload.Protocols == nil || m.MediaUpload.Protocols.Simple == nil {
		return ""
	}
	return m.MediaUpload.Protocols.Simple.Path
}

func cloneParameters(in map[string]*Parameter) map[string]*Parameter {
	if in == nil {
		return nil
	}
	out := make(map[string]*Parameter, len(in))
	for name, p := range in {
		if p != nil {
			out[name] = p.clone()
		}
	}
	return out
}
