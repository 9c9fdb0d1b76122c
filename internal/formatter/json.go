package formatter

import (
	"encoding/json"
	"strconv"
)

// dig walks decoded JSON along path. String steps index objects and int steps index arrays.
func dig(v any, path ...any) (any, bool) {
	for _, step := range path {
		switch key := step.(type) {
		case string:
			m, ok := v.(map[string]any)
			if !ok {
				return nil, false
			}
			if v, ok = m[key]; !ok {
				return nil, false
			}
		case int:
			s, ok := v.([]any)
			if !ok || key < 0 || key >= len(s) {
				return nil, false
			}
			v = s[key]
		default:
			return nil, false
		}
	}
	return v, true
}

// field returns obj[key] when obj is a JSON object, or nil.
func field(obj any, key string) any {
	v, _ := dig(obj, key)
	return v
}

// ItemsOf returns the "items" array of a list payload, or an empty list.
func ItemsOf(page any) []any {
	if items, ok := field(page, "items").([]any); ok {
		return items
	}
	return []any{}
}

// FirstItem returns the first entry of a list payload.
func FirstItem(page any) (any, bool) {
	items := ItemsOf(page)
	if len(items) == 0 {
		return nil, false
	}
	return items[0], true
}

// IDOf returns the "id" of a catalog object as a string.
func IDOf(obj any) (string, bool) {
	switch id := field(obj, "id").(type) {
	case json.Number:
		return id.String(), true
	case string:
		return id, id != ""
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	default:
		return "", false
	}
}
