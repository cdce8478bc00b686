package disco

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// flattenQuery adds v to q under key.
//
// Flattening rule:
//   - scalars become key=value
//   - slices and arrays repeat the key once per element
//   - maps and structs use bracket keys, key[field]=value, recursively, with
//     map keys visited in sorted order and struct fields named by their json tag
//   - nil values and nil pointers are skipped
//
// The output for a given input is always the same.
func flattenQuery(q url.Values, key string, v any) {
	if v == nil || isNilPointer(v) {
		return
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		flattenQuery(q, key, rv.Elem().Interface())
		return
	}
	if s, ok := scalarString(v); ok {
		q.Add(key, s)
		return
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			flattenQuery(q, key, rv.Index(i).Interface())
		}
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		byName := make(map[string]reflect.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			name := fmt.Sprint(iter.Key().Interface())
			keys = append(keys, name)
			byName[name] = iter.Value()
		}
		slices.Sort(keys)
		for _, name := range keys {
			flattenQuery(q, key+"["+name+"]", byName[name].Interface())
		}
	case reflect.Struct:
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			field := rt.Field(i)
			if !field.IsExported() {
				continue
			}
			name, omitEmpty, skip := jsonFieldName(field)
			if skip {
				continue
			}
			fv := rv.Field(i)
			if omitEmpty && fv.IsZero() {
				continue
			}
			flattenQuery(q, key+"["+name+"]", fv.Interface())
		}
	default:
		q.Add(key, fmt.Sprint(v))
	}
}

// scalarString formats v if it is a scalar. A nil pointer is not a scalar.
func scalarString(v any) (string, bool) {
	if isNilPointer(v) {
		return "", false
	}
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case time.Time:
		return x.Format(time.RFC3339Nano), true
	case []byte:
		return string(x), true
	case fmt.Stringer:
		return x.String(), true
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return "", false
		}
		return string(b), true
	}
	return "", false
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func jsonFieldName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	for opt := range strings.SplitSeq(opts, ",") {
		if opt == "omitempty" || opt == "omitzero" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}
