package params

import (
	"fmt"
	"sort"

	"github.com/cepgen/cepgen-go/pkg/errs"
)

// reservedName is the key under which a bag carries its own module name,
// used by Factory.Build(bag) to self-dispatch (SPEC_FULL.md §4.A/§4.B).
const reservedName = "mod_name"

// Bag is an ordered string-keyed map of tagged Values. Insertion order is
// preserved so that serialising a bag back out is reproducible, mirroring
// the teacher's struct-tag field ordering carried through YAML encode/decode.
type Bag struct {
	keys   []string
	values map[string]Value
}

// New returns an empty bag.
func New() *Bag {
	return &Bag{values: make(map[string]Value)}
}

func (b *Bag) get(key string) (Value, bool) {
	if b == nil {
		return Value{}, false
	}
	v, ok := b.values[key]
	return v, ok
}

// Has reports whether key is present and holds a value of kind T.
func Has[T any](b *Bag, key string) bool {
	_, err := Get[T](b, key)
	return err == nil
}

// Get retrieves key narrowed to T, following the promotion table
// (int -> float64 only; every other mismatch is an error naming the key).
func Get[T any](b *Bag, key string) (T, error) {
	var zero T
	v, ok := b.get(key)
	if !ok {
		return zero, fmt.Errorf("%w: missing key %q", errs.ErrConfiguration, key)
	}
	return narrow[T](key, v)
}

// GetOr retrieves key narrowed to T, or returns def if the key is absent or
// of a conflicting kind.
func GetOr[T any](b *Bag, key string, def T) T {
	v, err := Get[T](b, key)
	if err != nil {
		return def
	}
	return v
}

func narrow[T any](key string, v Value) (T, error) {
	var zero T
	switch any(zero).(type) {
	case bool:
		if v.Kind != KindBool {
			return zero, typeMismatch(key, "bool", v.Kind)
		}
		return any(v.B).(T), nil
	case int:
		if v.Kind != KindInt {
			return zero, typeMismatch(key, "int", v.Kind)
		}
		return any(v.I).(T), nil
	case float64:
		f, ok := v.asFloat()
		if !ok {
			return zero, typeMismatch(key, "float64", v.Kind)
		}
		return any(f).(T), nil
	case string:
		if v.Kind != KindString {
			return zero, typeMismatch(key, "string", v.Kind)
		}
		return any(v.S).(T), nil
	case *Bag:
		if v.Kind != KindBag {
			return zero, typeMismatch(key, "bag", v.Kind)
		}
		return any(v.Bag).(T), nil
	case []Value:
		if v.Kind != KindList {
			return zero, typeMismatch(key, "list", v.Kind)
		}
		return any(v.List).(T), nil
	default:
		return zero, fmt.Errorf("%w: key %q requested as an unsupported type", errs.ErrConfiguration, key)
	}
}

func typeMismatch(key, wanted string, got Kind) error {
	return fmt.Errorf("%w: key %q is %s, not %s", errs.ErrConfiguration, key, got, wanted)
}

// Set stores value under key, appending key to the insertion order if new,
// and returns the bag so calls can be chained.
func Set[T any](b *Bag, key string, value T) *Bag {
	v := toValue(value)
	if _, exists := b.values[key]; !exists {
		b.keys = append(b.keys, key)
	}
	b.values[key] = v
	return b
}

func toValue(value any) Value {
	switch x := value.(type) {
	case bool:
		return BoolValue(x)
	case int:
		return IntValue(x)
	case float64:
		return FloatValue(x)
	case string:
		return StringValue(x)
	case *Bag:
		return BagValue(x)
	case []Value:
		return ListValue(x)
	case Value:
		return x
	default:
		panic(fmt.Sprintf("params: unsupported value type %T", value))
	}
}

// Name returns the reserved "mod_name" key, or "" if unset.
func (b *Bag) Name() string {
	return GetOr[string](b, reservedName, "")
}

// SetName sets the reserved "mod_name" key and returns the bag.
func (b *Bag) SetName(name string) *Bag {
	return Set(b, reservedName, name)
}

// Keys returns the keys populated on this bag, in insertion order (a
// schema-validated bag already has its defaults merged in, so they are
// included there).
func (b *Bag) Keys() []string {
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Merge performs a key-wise override: every key present in other replaces
// (or adds to) the corresponding key in b, preserving b's original
// insertion order for keys it already had and appending new keys in
// other's order. This is the bag analogue of spec.md's operator+=.
func (b *Bag) Merge(other *Bag) *Bag {
	if other == nil {
		return b
	}
	for _, k := range other.keys {
		v := other.values[k]
		if _, exists := b.values[k]; !exists {
			b.keys = append(b.keys, k)
		}
		b.values[k] = v
	}
	return b
}

// Clone returns a shallow copy of the bag (nested bags are shared, matching
// the teacher's shallow-copy idiom for config overrides).
func (b *Bag) Clone() *Bag {
	out := New()
	for _, k := range b.keys {
		out.keys = append(out.keys, k)
		out.values[k] = b.values[k]
	}
	return out
}

// sortedKeys is used by Schema.Validate's unknown-key report so error
// messages are deterministic across runs.
func (b *Bag) sortedKeys() []string {
	out := append([]string(nil), b.keys...)
	sort.Strings(out)
	return out
}
