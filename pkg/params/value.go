// Package params implements the typed, heterogeneous key/value store used
// to configure every pluggable module in cepgen-go (processes, integrators,
// modifiers, exporters): the parameter bag of SPEC_FULL.md §4.A.
package params

import "fmt"

// Kind tags the variant carried by a Value.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindBag
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBag:
		return "bag"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a single tagged entry in a Bag. Only one of the typed fields is
// meaningful, selected by Kind. List elements are themselves Values, so a
// list-of-bag or list-of-list is representable.
type Value struct {
	Kind Kind
	B    bool
	I    int
	F    float64
	S    string
	Bag  *Bag
	List []Value
}

func BoolValue(v bool) Value    { return Value{Kind: KindBool, B: v} }
func IntValue(v int) Value      { return Value{Kind: KindInt, I: v} }
func FloatValue(v float64) Value { return Value{Kind: KindFloat, F: v} }
func StringValue(v string) Value { return Value{Kind: KindString, S: v} }
func BagValue(v *Bag) Value     { return Value{Kind: KindBag, Bag: v} }
func ListValue(v []Value) Value { return Value{Kind: KindList, List: v} }

// asFloat narrows an int to a float. No other implicit promotion is
// performed — in particular int→bool is never silent, matching
// SPEC_FULL.md's promotion table.
func (v Value) asFloat() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.F, true
	case KindInt:
		return float64(v.I), true
	default:
		return 0, false
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return fmt.Sprintf("%t", v.B)
	case KindInt:
		return fmt.Sprintf("%d", v.I)
	case KindFloat:
		return fmt.Sprintf("%g", v.F)
	case KindString:
		return v.S
	case KindBag:
		return "<bag>"
	case KindList:
		return fmt.Sprintf("<list of %d>", len(v.List))
	default:
		return "<invalid>"
	}
}
