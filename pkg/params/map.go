package params

import "sort"

// FromMap builds a Bag from a generic, YAML-decoded map, recursing into
// nested maps as child bags and converting scalar lists into KindList
// values. This is the bridge between pkg/config's run-card decoding
// (plain map[string]interface{} trees) and the typed Bag/Schema world
// every module factory validates against.
func FromMap(m map[string]interface{}) *Bag {
	b := New()
	for _, k := range sortedMapKeys(m) {
		Set(b, k, FromAny(m[k]))
	}
	return b
}

// FromAny converts a single YAML-decoded value into a Value, recursing
// into maps and slices.
func FromAny(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Value{}
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(x)
	case int64:
		return IntValue(int(x))
	case float64:
		return FloatValue(x)
	case string:
		return StringValue(x)
	case map[string]interface{}:
		return BagValue(FromMap(x))
	case []interface{}:
		list := make([]Value, len(x))
		for i, item := range x {
			list[i] = FromAny(item)
		}
		return ListValue(list)
	default:
		return Value{}
	}
}

func sortedMapKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
