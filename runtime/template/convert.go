package template

import (
	"sort"

	"github.com/tmplforge/doctpl/core/value"
)

// FromGo converts a plain Go value — the shape produced by encoding/json
// unmarshaling into interface{}, or assembled by hand as
// map[string]interface{}/[]interface{}/string/float64/bool/nil — into the
// engine's tagged-union Value (§3). Unrecognized concrete types become
// Null rather than panicking, since caller data is untrusted input.
func FromGo(v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(x)
	case string:
		return value.String(x)
	case float64:
		return value.Number(x)
	case float32:
		return value.Number(float64(x))
	case int:
		return value.Number(float64(x))
	case int64:
		return value.Number(float64(x))
	case []interface{}:
		out := make([]value.Value, len(x))
		for i, e := range x {
			out[i] = FromGo(e)
		}
		return value.List(out)
	case map[string]interface{}:
		r := value.NewRecord()
		for _, k := range mapKeysInInsertionOrder(x) {
			r.Set(k, FromGo(x[k]))
		}
		return value.RecordOf(r)
	default:
		return value.Null()
	}
}

// mapKeysInInsertionOrder returns m's keys. Go map iteration order is
// randomized, but encoding/json always decodes object keys into a fresh
// map whose only meaningful order is lexical, so sorting here is the
// closest deterministic approximation to source order a plain map can
// offer; callers needing exact order should build a Record directly.
func mapKeysInInsertionOrder(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
