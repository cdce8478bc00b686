package disco

import (
	"fmt"
	"maps"

	"github.com/gorilla/schema"
)

// Params holds the parameters of one call, keyed by parameter name.
//
// Values may be strings, numbers, booleans, slices (repeated parameters),
// maps or structs (flattened to bracket keys in the query string), time.Time,
// or the reserved ParamResource and ParamMedia entries.
type Params map[string]any

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

var paramsEncoder = schema.NewEncoder()

func init() {
	paramsEncoder.SetAliasTag("json")
}

// ParamsFrom converts a flat struct into Params using its json tags.
// Fields tagged omitempty are dropped when zero. Single values become strings,
// slices become []string.
//
//	type ListFiles struct {
//	    Q          string `json:"q,omitempty"`
//	    MaxResults int    `json:"maxResults,omitempty"`
//	}
//	params, err := disco.ParamsFrom(ListFiles{Q: "hello"})
func ParamsFrom(v any) (Params, error) {
	values := make(map[string][]string)
	if err := paramsEncoder.Encode(v, values); err != nil {
		return nil, fmt.Errorf("encoding params: %w", err)
	}
	p := make(Params, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			p[k] = vs[0]
		} else {
			p[k] = vs
		}
	}
	return p, nil
}
