package disco

import (
	"errors"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// NodeKind tags the two variants of a client tree node.
type NodeKind int

const (
	KindNamespace NodeKind = iota + 1
	KindMethod
)

func (k NodeKind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// Node is a node of the client tree: a *Namespace or a *Method.
// The set of implementations is closed.
type Node interface {
	Kind() NodeKind
	// Name is the node's own name; the root namespace carries the service name.
	Name() string
	// Path is the dotted path from the root, e.g. "files.list". Empty for the root.
	Path() string
	// Frozen reports whether the node can no longer change. Every node
	// reachable from a built Client is frozen.
	Frozen() bool

	node()
}

// Namespace is a resource: a fixed set of named child resources and methods.
// A Namespace has no mutators; its shape is fixed when New returns.
type Namespace struct {
	name      string
	path      string
	resources map[string]*Namespace
	methods   map[string]*Method
	frozen    bool
}

func (*Namespace) node() {}

// Kind returns KindNamespace.
func (n *Namespace) Kind() NodeKind { return KindNamespace }

func (n *Namespace) Name() string { return n.name }
func (n *Namespace) Path() string { return n.path }
func (n *Namespace) Frozen() bool { return n.frozen }

// Resource returns the child resource with the given name, or nil.
func (n *Namespace) Resource(name string) *Namespace { return n.resources[name] }

// Method returns the child method with the given name, or nil.
func (n *Namespace) Method(name string) *Method { return n.methods[name] }

// Child returns the child resource or method with the given name.
func (n *Namespace) Child(name string) (Node, bool) {
	if r, ok := n.resources[name]; ok {
		return r, true
	}
	if m, ok := n.methods[name]; ok {
		return m, true
	}
	return nil, false
}

// Names returns the names of all children, sorted.
func (n *Namespace) Names() []string {
	names := append(n.Resources(), n.Methods()...)
	slices.Sort(names)
	return names
}

// Resources returns the names of the child resources, sorted.
func (n *Namespace) Resources() []string { return slices.Sorted(maps.Keys(n.resources)) }

// Methods returns the names of the child methods, sorted.
func (n *Namespace) Methods() []string { return slices.Sorted(maps.Keys(n.methods)) }

// Lookup resolves a dotted path relative to n.
func (n *Namespace) Lookup(path string) (Node, bool) {
	if path == "" {
		return n, true
	}
	var cur Node = n
	for part := range strings.SplitSeq(path, ".") {
		ns, ok := cur.(*Namespace)
		if !ok {
			return nil, false
		}
		if cur, ok = ns.Child(part); !ok {
			return nil, false
		}
	}
	return cur, true
}

// SkipNamespace can be returned by a WalkFunc to skip the children of a namespace.
var SkipNamespace = errors.New("skip this namespace")

// WalkFunc is called for every node visited by Walk.
type WalkFunc func(n Node) error

// Walk visits root and its descendants depth-first, children in sorted order.
// Returning SkipNamespace from fn skips a namespace's children; any other
// error stops the walk and is returned.
func Walk(root Node, fn WalkFunc) error {
	err := walk(root, fn)
	if errors.Is(err, SkipNamespace) {
		return nil
	}
	return err
}

func walk(n Node, fn WalkFunc) error {
	if err := fn(n); err != nil {
		return err
	}
	ns, ok := n.(*Namespace)
	if !ok {
		return nil
	}
	for _, name := range ns.Names() {
		child, _ := ns.Child(name)
		if err := walk(child, fn); err != nil && !errors.Is(err, SkipNamespace) {
			return err
		}
	}
	return nil
}

// Method is a callable leaf of the client tree bound to one method schema.
type Method struct {
	name     string
	path     string
	schema   *MethodSchema
	verb     string
	params   map[string]*Parameter // global parameters overlaid with method parameters
	defaults *Defaults             // client < description resource < option resource defaults
	client   *Client
	frozen   bool
}

func (*Method) node() {}

// Kind returns KindMethod.
func (m *Method) Kind() NodeKind { return KindMethod }

func (m *Method) Name() string { return m.name }
func (m *Method) Path() string { return m.path }
func (m *Method) Frozen() bool { return m.frozen }

// ID returns the method id from the description, or the service-qualified path.
func (m *Method) ID() string {
	if m.schema.ID != "" {
		return m.schema.ID
	}
	return joinPath(m.client.name, m.path)
}

// HTTPMethod returns the upper-cased HTTP verb.
func (m *Method) HTTPMethod() string { return m.verb }

// Schema returns a copy of the method schema.
func (m *Method) Schema() *MethodSchema { return m.schema.clone() }

// buildNamespace materializes resources and methods bottom-up.
// inherited holds the defaults accumulated from enclosing resources.
func (c *Client) buildNamespace(name, path string, resources map[string]*Resource, methods map[string]*MethodSchema, inherited *Defaults, overrides map[string]*Defaults) *Namespace {
	ns := &Namespace{
		name:      name,
		path:      path,
		resources: make(map[string]*Namespace, len(resources)),
		methods:   make(map[string]*Method, len(methods)),
	}
	for resName, res := range resources {
		resPath := joinPath(path, resName)
		scope := mergeDefaults(inherited, res.Defaults, overrides[resPath])
		ns.resources[resName] = c.buildNamespace(resName, resPath, res.Resources, res.Methods, scope, overrides)
	}
	for methodName, schema := range methods {
		ns.methods[methodName] = c.buildMethod(methodName, joinPath(path, methodName), schema, inherited)
	}
	return ns
}

func (c *Client) buildMethod(name, path string, schema *MethodSchema, scope *Defaults) *Method {
	s := schema.clone()
	params := cloneParameters(c.globals)
	if params == nil {
		params = make(map[string]*Parameter, len(s.Parameters))
	}
	maps.Copy(params, s.Parameters)

	defaults := mergeDefaults(&Defaults{Params: c.opts.Params}, scope)
	return &Method{
		name:     name,
		path:     path,
		schema:   s,
		verb:     strings.ToUpper(s.HTTPMethod),
		params:   params,
		defaults: defaults,
		client:   c,
	}
}

// mergeDefaults merges scopes in increasing precedence into a fresh value.
func mergeDefaults(scopes ...*Defaults) *Defaults {
	out := &Defaults{Headers: map[string]string{}, Params: Params{}}
	for _, d := range scopes {
		if d == nil {
			continue
		}
		for k, v := range d.Headers {
			out.Headers[http.CanonicalHeaderKey(k)] = v
		}
		maps.Copy(out.Params, d.Params)
	}
	return out
}

// freeze marks the tree immutable. Nothing writes to a node after this point.
func freeze(n Node) {
	switch n := n.(type) {
	case *Namespace:
		for _, r := range n.resources {
			freeze(r)
		}
		for _, m := range n.methods {
			freeze(m)
		}
		n.frozen = true
	case *Method:
		n.frozen = true
	}
}

func countMethods(ns *Namespace) int {
	count := 0
	_ = Walk(ns, func(n Node) error {
		if n.Kind() == KindMethod {
			count++
		}
		return nil
	})
	return count
}
