package disco

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ResolvedParams is the output of parameter resolution for one call.
type ResolvedParams struct {
	// Path is the method path with every placeholder substituted.
	Path string
	// MediaPath is the substituted upload path, when the method declares one.
	MediaPath string
	// Query holds query-location parameters and unrecognized parameters.
	Query url.Values
	// Body holds body-location parameters.
	Body map[string]any
	// Resource is the ParamResource value, if supplied.
	Resource any
	// Media is the ParamMedia value, if supplied.
	Media *Media
}

// resolve validates params against the method's declared parameters and
// partitions them into path, query and body slots.
//
// Values are merged in increasing precedence: client defaults, resource
// defaults, then params. A parameter's declared Default describes what the
// service assumes and is never sent.
//
// Parameters the method does not declare are passed through to the query
// string, so a misspelled name is sent to the service as-is.
func (m *Method) resolve(params Params) (*ResolvedParams, error) {
	values := make(Params, len(params)+len(m.defaults.Params))
	for k, v := range m.defaults.Params {
		values[k] = v
	}
	for k, v := range params {
		values[k] = v
	}

	res := &ResolvedParams{
		Query: make(url.Values),
		Body:  make(map[string]any),
	}
	if r, ok := values[ParamResource]; ok {
		res.Resource = r
		delete(values, ParamResource)
	}
	if v, ok := values[ParamMedia]; ok {
		media, err := asMedia(v)
		if err != nil {
			return nil, err
		}
		res.Media = media
		delete(values, ParamMedia)
	}

	for _, name := range sortedKeys(m.params) {
		p := m.params[name]
		v, ok := values[name]
		if !ok || isNil(v) {
			if p.Required {
				return nil, &ParameterError{Name: name, Reason: ReasonMissing}
			}
			delete(values, name)
			continue
		}
		if err := checkParam(name, p, v); err != nil {
			return nil, err
		}
	}

	var err error
	if res.Path, err = m.expand(m.schema.Path, values); err != nil {
		return nil, err
	}
	if res.Media != nil {
		if mp := m.schema.mediaPath(); mp != "" {
			if res.MediaPath, err = m.expand(mp, values); err != nil {
				return nil, err
			}
		}
	}

	for _, name := range sortedKeys(values) {
		v := values[name]
		p, declared := m.params[name]
		switch {
		case !declared:
			flattenQuery(res.Query, name, v)
		case p.location() == LocationPath:
		case p.location() == LocationBody:
			res.Body[name] = v
		default:
			flattenQuery(res.Query, name, v)
		}
	}
	return res, nil
}

// expand substitutes path parameters into tmpl, in parameterOrder first and
// then in sorted order for the rest.
func (m *Method) expand(tmpl string, values Params) (string, error) {
	order := slices.Clone(m.schema.ParameterOrder)
	for _, name := range sortedKeys(m.params) {
		if m.params[name].location() == LocationPath && !slices.Contains(order, name) {
			order = append(order, name)
		}
	}

	out := tmpl
	for _, name := range order {
		if !templateHas(out, name) {
			continue
		}
		v, ok := values[name]
		if !ok {
			return "", &ParameterError{Name: name, Reason: ReasonMissing}
		}
		s, err := pathValue(v)
		if err != nil {
			return "", &ParameterError{Name: name, Reason: ReasonInvalid, Message: err.Error()}
		}
		out = strings.ReplaceAll(out, "{"+name+"}", url.PathEscape(s))
		out = strings.ReplaceAll(out, "{+"+name+"}", escapeReserved(s))
	}
	if placeholderRe.MatchString(out) {
		// validateDescription rules this out; reaching it means the tree was
		// built from an unchecked description.
		return "", fmt.Errorf("unresolved placeholders in %q", out)
	}
	return out, nil
}

// pathValue formats a path parameter. Slices are joined with commas.
func pathValue(v any) (string, error) {
	if isNilPointer(v) {
		return "", fmt.Errorf("nil %T in a path", v)
	}
	if s, ok := scalarString(v); ok {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s, ok := scalarString(rv.Index(i).Interface())
			if !ok {
				return "", fmt.Errorf("cannot use %T in a path", rv.Index(i).Interface())
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), nil
	case reflect.String:
		return rv.String(), nil
	}
	return "", fmt.Errorf("cannot use %T in a path", v)
}

// escapeReserved escapes each segment but keeps the slashes, for {+name}.
func escapeReserved(s string) string {
	segs := strings.Split(s, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

// checkParam validates v against the declared type, enum, range and pattern.
func checkParam(name string, p *Parameter, v any) error {
	rv := reflect.ValueOf(v)
	isList := (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8
	if isList && p.Type != "array" && p.Type != "any" && p.Type != "" {
		if !p.Repeated {
			return &ParameterError{Name: name, Reason: ReasonInvalid, Message: "parameter is not repeated"}
		}
		for i := 0; i < rv.Len(); i++ {
			if err := checkScalar(name, p, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return checkScalar(name, p, v)
}

func checkScalar(name string, p *Parameter, v any) error {
	invalid := func(format string, args ...any) error {
		return &ParameterError{Name: name, Reason: ReasonInvalid, Message: fmt.Sprintf(format, args...)}
	}

	var num float64
	var isNum bool
	switch p.Type {
	case "string":
		if _, ok := v.(time.Time); ok {
			break
		}
		if p.Format == "int64" || p.Format == "uint64" {
			if _, ok := toNumber(v); ok {
				break
			}
		}
		if reflect.ValueOf(v).Kind() != reflect.String {
			if _, ok := v.(fmt.Stringer); !ok {
				return invalid("expected string, got %T", v)
			}
		}
	case "integer":
		f, ok := toNumber(v)
		if !ok || f != math.Trunc(f) {
			return invalid("expected integer, got %v", v)
		}
		num, isNum = f, true
	case "number":
		f, ok := toNumber(v)
		if !ok {
			return invalid("expected number, got %v", v)
		}
		num, isNum = f, true
	case "boolean":
		switch x := v.(type) {
		case bool:
		case string:
			if _, err := strconv.ParseBool(x); err != nil {
				return invalid("expected boolean, got %q", x)
			}
		default:
			return invalid("expected boolean, got %T", v)
		}
	case "object":
		k := reflect.Indirect(reflect.ValueOf(v)).Kind()
		if k != reflect.Map && k != reflect.Struct {
			return invalid("expected object, got %T", v)
		}
	case "array":
		k := reflect.ValueOf(v).Kind()
		if k != reflect.Slice && k != reflect.Array {
			return invalid("expected array, got %T", v)
		}
	}

	if len(p.Enum) > 0 {
		s, _ := scalarString(v)
		if s == "" {
			s = fmt.Sprint(v)
		}
		if err := checkEnum(s, p.Enum); err != nil {
			return &ParameterError{Name: name, Reason: ReasonInvalid, Message: validationMessage(err), Cause: err}
		}
	}
	if isNum {
		for _, bound := range []struct{ tag, limit string }{{"gte", p.Minimum}, {"lte", p.Maximum}} {
			if bound.limit == "" {
				continue
			}
			if _, err := strconv.ParseFloat(bound.limit, 64); err != nil {
				continue
			}
			if err := validate.Var(num, bound.tag+"="+bound.limit); err != nil {
				return &ParameterError{Name: name, Reason: ReasonInvalid, Message: validationMessage(err), Cause: err}
			}
		}
	}
	if p.Pattern != "" {
		if s, ok := scalarString(v); ok {
			if matched, err := regexp.MatchString(p.Pattern, s); err == nil && !matched {
				return invalid("does not match pattern %q", p.Pattern)
			}
		}
	}
	return nil
}

// checkEnum uses the validator's oneof tag when every value can be expressed
// in it, and a plain membership test otherwise.
func checkEnum(s string, enum []string) error {
	expressible := true
	for _, e := range enum {
		if e == "" || strings.ContainsAny(e, " ,|'=") {
			expressible = false
			break
		}
	}
	if expressible {
		return validate.Var(s, "oneof="+strings.Join(enum, " "))
	}
	if slices.Contains(enum, s) {
		return nil
	}
	return fmt.Errorf("must be one of: %s", strings.Join(enum, ", "))
}

func validationMessage(err error) string {
	var valErrs validator.ValidationErrors
	if errors.As(err, &valErrs) && len(valErrs) > 0 {
		return formatValidationError(valErrs[0])
	}
	return err.Error()
}

// toNumber accepts Go numbers and numeric strings; discovery documents encode
// int64 and uint64 parameters as strings.
func toNumber(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		f, err := strconv.ParseFloat(rv.String(), 64)
		return f, err == nil
	}
	return 0, false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
