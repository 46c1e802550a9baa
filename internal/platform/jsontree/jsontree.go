// Package jsontree holds structural transforms over decoded JSON values
// (map[string]any, []any and scalars).
package jsontree

// Strip returns a copy of node with every object key listed in keys removed
// at any depth. The input is never modified. Scalars are returned as-is.
func Strip(node any, keys ...string) any {
	if len(keys) == 0 {
		return node
	}

	drop := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		drop[key] = struct{}{}
	}
	return strip(node, drop)
}

func strip(node any, drop map[string]struct{}) any {
	switch typed := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			if _, ok := drop[key]; ok {
				continue
			}
			out[key] = strip(value, drop)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = strip(item, drop)
		}
		return out
	default:
		return node
	}
}

// IsEmpty reports whether a decoded payload is falsy: null, false, zero,
// the empty string, or an empty object or array.
func IsEmpty(node any) bool {
	switch typed := node.(type) {
	case nil:
		return true
	case bool:
		return !typed
	case float64:
		return typed == 0
	case int64:
		return typed == 0
	case int:
		return typed == 0
	case string:
		return typed == ""
	case map[string]any:
		return len(typed) == 0
	case []any:
		return len(typed) == 0
	default:
		return false
	}
}
