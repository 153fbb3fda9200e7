package mapper

import (
	"encoding/json"
	"maps"
	"slices"
	"strconv"
)

type jsonLeaf struct {
	path string
	text string
}

// flattenJSON lists the scalar leaves of a decoded JSON value in key order. Nested object
// keys are joined with '.', array elements share the path of the array, nulls are dropped.
func flattenJSON(v any) []jsonLeaf {
	var out []jsonLeaf
	var walk func(path string, v any)
	walk = func(path string, v any) {
		switch x := v.(type) {
		case map[string]any:
			for _, k := range slices.Sorted(maps.Keys(x)) {
				p := k
				if path != "" {
					p = path + "." + k
				}
				walk(p, x[k])
			}
		case []any:
			for _, child := range x {
				walk(path, child)
			}
		case string:
			out = append(out, jsonLeaf{path: path, text: x})
		case json.Number:
			out = append(out, jsonLeaf{path: path, text: x.String()})
		case bool:
			out = append(out, jsonLeaf{path: path, text: strconv.FormatBool(x)})
		case float64:
			out = append(out, jsonLeaf{path: path, text: strconv.FormatFloat(x, 'f', -1, 64)})
		}
	}
	walk("", v)
	return out
}
