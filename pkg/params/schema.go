package params

import (
	"fmt"
	"sort"

	"github.com/cepgen/cepgen-go/pkg/errs"
)

// FieldDescription documents one key of a Schema: its kind, a human
// description, an optional default, and an optional set of allowed values.
type FieldDescription struct {
	Kind        Kind
	Description string
	Default     Value
	HasDefault  bool
	Allowed     []Value // optional; empty means unconstrained
	Child       *Schema // populated when Kind == KindBag
}

// Schema is a parameter-description registry: a bag augmented, per key,
// with documentation, a default, and (optionally) an allowed-value set.
// Validate(bag) fills defaults and enforces the schema's constraints
// (SPEC_FULL.md §4.A).
type Schema struct {
	Name   string
	keys   []string
	fields map[string]FieldDescription

	// Closed schemas reject unknown keys at Validate time; open schemas
	// keep them in Validate's output with a nil error, and UnknownKeys
	// lists them for a caller that wants to warn.
	Closed bool
}

// NewSchema returns an empty, open schema.
func NewSchema(name string) *Schema {
	return &Schema{Name: name, fields: make(map[string]FieldDescription)}
}

// Field declares or overwrites a key's description.
func (s *Schema) Field(key string, fd FieldDescription) *Schema {
	if _, exists := s.fields[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.fields[key] = fd
	return s
}

// Merge combines two schemas: other's fields and description override s's
// on key collision, unknown fields are appended in other's order, and the
// merged schema is closed iff either operand is closed.
func (s *Schema) Merge(other *Schema) *Schema {
	if other == nil {
		return s
	}
	out := NewSchema(s.Name)
	out.Closed = s.Closed || other.Closed
	for _, k := range s.keys {
		out.Field(k, s.fields[k])
	}
	for _, k := range other.keys {
		out.Field(k, other.fields[k])
	}
	return out
}

// Validate fills defaults for keys missing from input, rejects unknown
// keys when the schema is closed, and enforces allowed-value constraints.
// It returns a new bag; input is not mutated.
func (s *Schema) Validate(input *Bag) (*Bag, error) {
	out := New()
	if input != nil {
		out = input.Clone()
	}

	for _, k := range s.keys {
		fd := s.fields[k]
		v, present := out.get(k)
		if !present {
			if !fd.HasDefault {
				return nil, fmt.Errorf("%w: %s: missing required key %q", errs.ErrConfiguration, s.Name, k)
			}
			Set(out, k, fd.Default)
			v = fd.Default
		}
		if len(fd.Allowed) > 0 && !allowedContains(fd.Allowed, v) {
			return nil, fmt.Errorf("%w: %s: key %q has a value outside its allowed set", errs.ErrConfiguration, s.Name, k)
		}
		if fd.Kind == KindBag && fd.Child != nil {
			childBag, _ := Get[*Bag](out, k)
			validatedChild, err := fd.Child.Validate(childBag)
			if err != nil {
				return nil, fmt.Errorf("%s.%w", k, err)
			}
			Set(out, k, validatedChild)
		}
	}

	if s.Closed {
		known := make(map[string]bool, len(s.keys))
		for _, k := range s.keys {
			known[k] = true
		}
		for _, k := range out.sortedKeys() {
			if k == reservedName {
				continue
			}
			if !known[k] {
				return nil, fmt.Errorf("%w: %s: unknown key %q (schema is closed)", errs.ErrConfiguration, s.Name, k)
			}
		}
	}

	return out, nil
}

// UnknownKeys returns the keys present in input that the schema does not
// describe, for callers of an open schema that want to log a warning
// instead of failing (SPEC_FULL.md §6 "unknown sub-trees ... warned-about
// per schema policy").
func (s *Schema) UnknownKeys(input *Bag) []string {
	if input == nil {
		return nil
	}
	known := make(map[string]bool, len(s.keys))
	for _, k := range s.keys {
		known[k] = true
	}
	var out []string
	for _, k := range input.sortedKeys() {
		if k == reservedName || known[k] {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func allowedContains(allowed []Value, v Value) bool {
	for _, a := range allowed {
		if a.Kind == v.Kind && a.String() == v.String() {
			return true
		}
	}
	return false
}
