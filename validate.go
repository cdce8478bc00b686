package disco

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// placeholderRe matches {name} and {+name} path template placeholders.
var placeholderRe = regexp.MustCompile(`\{(\+?)([^{}]+)\}`)

var knownVerbs = []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}

var knownTypes = []string{"", "any", "string", "integer", "number", "boolean", "object", "array"}

// validateDescription checks that d can be turned into a client tree.
// It reports the first problem found, visiting names in sorted order.
func validateDescription(d *Description) error {
	if d == nil {
		return &DescriptionError{Message: "nil description"}
	}
	for _, name := range sortedKeys(d.Parameters) {
		if err := validateParameter(name, name, d.Parameters[name]); err != nil {
			return err
		}
	}
	return validateLevel("", d.Resources, d.Methods)
}

func validateLevel(prefix string, resources map[string]*Resource, methods map[string]*MethodSchema) error {
	for _, name := range sortedKeys(methods) {
		path := joinPath(prefix, name)
		if _, dup := resources[name]; dup {
			return &DescriptionError{Path: path, Message: "name used by both a resource and a method"}
		}
		if err := validateMethod(path, methods[name]); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(resources) {
		path := joinPath(prefix, name)
		if name == "" {
			return &DescriptionError{Path: prefix, Message: "empty resource name"}
		}
		res := resources[name]
		if res == nil {
			return &DescriptionError{Path: path, Message: "nil resource"}
		}
		if err := validateLevel(path, res.Resources, res.Methods); err != nil {
			return err
		}
	}
	return nil
}

func validateMethod(path string, m *MethodSchema) error {
	if m == nil {
		return &DescriptionError{Path: path, Message: "nil method"}
	}
	if strings.HasSuffix(path, ".") || path == "" {
		return &DescriptionError{Path: path, Message: "empty method name"}
	}
	if m.HTTPMethod == "" {
		return &DescriptionError{Path: path, Message: "missing httpMethod"}
	}
	if !slices.Contains(knownVerbs, strings.ToUpper(m.HTTPMethod)) {
		return &DescriptionError{Path: path, Message: fmt.Sprintf("unknown httpMethod %q", m.HTTPMethod)}
	}
	if m.Path == "" {
		return &DescriptionError{Path: path, Message: "missing path"}
	}

	for _, name := range sortedKeys(m.Parameters) {
		p := m.Parameters[name]
		if err := validateParameter(path, name, p); err != nil {
			return err
		}
		if name == ParamResource || name == ParamMedia {
			return &DescriptionError{Path: path, Message: fmt.Sprintf("parameter name %q is reserved", name)}
		}
		if p.location() == LocationPath && !p.Required {
			return &DescriptionError{Path: path, Message: fmt.Sprintf("path parameter %q must be required", name)}
		}
	}
	for _, name := range m.ParameterOrder {
		if _, ok := m.Parameters[name]; !ok {
			return &DescriptionError{Path: path, Message: fmt.Sprintf("parameterOrder names undeclared parameter %q", name)}
		}
	}

	for _, tmpl := range []string{m.Path, m.mediaPath()} {
		if err := validateTemplate(path, tmpl, m.Parameters); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(m.Parameters) {
		if m.Parameters[name].location() == LocationPath && !templateHas(m.Path, name) {
			return &DescriptionError{Path: path, Message: fmt.Sprintf("path parameter %q does not appear in %q", name, m.Path)}
		}
	}
	return nil
}

func validateParameter(path, name string, p *Parameter) error {
	if p == nil {
		return &DescriptionError{Path: path, Message: fmt.Sprintf("nil parameter %q", name)}
	}
	switch p.location() {
	case LocationPath, LocationQuery, LocationBody:
	default:
		return &DescriptionError{Path: path, Message: fmt.Sprintf("parameter %q has unknown location %q", name, p.Location)}
	}
	if !slices.Contains(knownTypes, p.Type) {
		return &DescriptionError{Path: path, Message: fmt.Sprintf("parameter %q has unknown type %q", name, p.Type)}
	}
	if p.Pattern != "" {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return &DescriptionError{Path: path, Message: fmt.Sprintf("parameter %q has invalid pattern", name), Cause: err}
		}
	}
	return nil
}

// validateTemplate checks that every placeholder of tmpl is a declared path parameter.
func validateTemplate(path, tmpl string, params map[string]*Parameter) error {
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		p, ok := params[m[2]]
		if !ok || p.location() != LocationPath {
			return &DescriptionError{Path: path, Message: fmt.Sprintf("placeholder {%s%s} is not a declared path parameter", m[1], m[2])}
		}
	}
	return nil
}

func templateHas(tmpl, name string) bool {
	return strings.Contains(tmpl, "{"+name+"}") || strings.Contains(tmpl, "{+"+name+"}")
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
