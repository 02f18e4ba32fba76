package params

import (
	"errors"
	"testing"

	"github.com/cepgen/cepgen-go/pkg/errs"
)

func TestBagSetGetRoundTrip(t *testing.T) {
	b := New()
	Set(b, "pt_min", 1.5)
	Set(b, "mode", "elastic")
	Set(b, "n_events", 1000)
	Set(b, "fast", true)

	if got, err := Get[float64](b, "pt_min"); err != nil || got != 1.5 {
		t.Fatalf("pt_min = %v, %v; want 1.5, nil", got, err)
	}
	if got, err := Get[string](b, "mode"); err != nil || got != "elastic" {
		t.Fatalf("mode = %v, %v; want elastic, nil", got, err)
	}
	if got, err := Get[int](b, "n_events"); err != nil || got != 1000 {
		t.Fatalf("n_events = %v, %v; want 1000, nil", got, err)
	}
	if got, err := Get[bool](b, "fast"); err != nil || got != true {
		t.Fatalf("fast = %v, %v; want true, nil", got, err)
	}
}

func TestBagIntPromotesToFloat(t *testing.T) {
	b := New()
	Set(b, "count", 7)
	got, err := Get[float64](b, "count")
	if err != nil {
		t.Fatalf("Get[float64] on an int value failed: %v", err)
	}
	if got != 7.0 {
		t.Fatalf("count promoted to float64 = %v, want 7.0", got)
	}
}

func TestBagIntDoesNotPromoteToBool(t *testing.T) {
	b := New()
	Set(b, "flag", 1)
	if _, err := Get[bool](b, "flag"); err == nil {
		t.Fatal("Get[bool] on an int value should fail; int must never promote to bool")
	}
}

func TestBagMissingKey(t *testing.T) {
	b := New()
	if _, err := Get[float64](b, "missing"); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("missing key error = %v, want wrapping ErrConfiguration", err)
	}
}

func TestBagGetOrDefault(t *testing.T) {
	b := New()
	if got := GetOr(b, "missing", 42.0); got != 42.0 {
		t.Fatalf("GetOr fallback = %v, want 42.0", got)
	}
	Set(b, "present", 3.0)
	if got := GetOr(b, "present", 42.0); got != 3.0 {
		t.Fatalf("GetOr on a present key = %v, want 3.0", got)
	}
}

func TestBagNameReserved(t *testing.T) {
	b := New().SetName("vegas")
	if b.Name() != "vegas" {
		t.Fatalf("Name() = %q, want vegas", b.Name())
	}
	keys := b.Keys()
	if len(keys) != 1 || keys[0] != reservedName {
		t.Fatalf("Keys() = %v, want [%s]", keys, reservedName)
	}
}

func TestBagKeysPreserveInsertionOrder(t *testing.T) {
	b := New()
	Set(b, "z", 1)
	Set(b, "a", 2)
	Set(b, "m", 3)
	want := []string{"z", "a", "m"}
	got := b.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBagMergeOverridesAndAppends(t *testing.T) {
	a := New()
	Set(a, "x", 1.0)
	Set(a, "y", 2.0)

	b := New()
	Set(b, "y", 20.0)
	Set(b, "z", 30.0)

	a.Merge(b)

	if got, _ := Get[float64](a, "x"); got != 1.0 {
		t.Fatalf("x = %v, want unchanged 1.0", got)
	}
	if got, _ := Get[float64](a, "y"); got != 20.0 {
		t.Fatalf("y = %v, want overridden 20.0", got)
	}
	if got, _ := Get[float64](a, "z"); got != 30.0 {
		t.Fatalf("z = %v, want appended 30.0", got)
	}
	want := []string{"x", "y", "z"}
	got := a.Keys()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v (merge must preserve original order, append new keys)", got, want)
		}
	}
}

func TestBagCloneIsIndependent(t *testing.T) {
	a := New()
	Set(a, "x", 1.0)
	b := a.Clone()
	Set(b, "x", 2.0)
	Set(b, "y", 3.0)

	if got, _ := Get[float64](a, "x"); got != 1.0 {
		t.Fatalf("clone mutated original: x = %v, want 1.0", got)
	}
	if Has[float64](a, "y") {
		t.Fatal("clone mutated original: y should not exist on a")
	}
}

func TestSchemaValidateFillsDefaults(t *testing.T) {
	s := NewSchema("integrator").
		Field("num_points", FieldDescription{Kind: KindInt, HasDefault: true, Default: IntValue(1000)}).
		Field("tolerance", FieldDescription{Kind: KindFloat, HasDefault: true, Default: FloatValue(0.05)})

	out, err := s.Validate(New())
	if err != nil {
		t.Fatalf("Validate on empty input failed: %v", err)
	}
	if got, _ := Get[int](out, "num_points"); got != 1000 {
		t.Fatalf("num_points default = %v, want 1000", got)
	}
	if got, _ := Get[float64](out, "tolerance"); got != 0.05 {
		t.Fatalf("tolerance default = %v, want 0.05", got)
	}
}

func TestSchemaValidateMissingRequired(t *testing.T) {
	s := NewSchema("process").
		Field("sqrt_s", FieldDescription{Kind: KindFloat})

	if _, err := s.Validate(New()); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("Validate with a missing required key = %v, want wrapping ErrConfiguration", err)
	}
}

func TestSchemaValidateRejectsUnknownWhenClosed(t *testing.T) {
	s := NewSchema("process")
	s.Closed = true
	s.Field("sqrt_s", FieldDescription{Kind: KindFloat, HasDefault: true, Default: FloatValue(13000)})

	in := New()
	Set(in, "sqrt_s", 7000.0)
	Set(in, "typo_sqrt_s", 7000.0)

	if _, err := s.Validate(in); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("Validate with an unknown key on a closed schema = %v, want wrapping ErrConfiguration", err)
	}
}

func TestSchemaValidateAllowsUnknownWhenOpen(t *testing.T) {
	s := NewSchema("process")
	s.Field("sqrt_s", FieldDescription{Kind: KindFloat, HasDefault: true, Default: FloatValue(13000)})

	in := New()
	Set(in, "extra", "passthrough")

	out, err := s.Validate(in)
	if err != nil {
		t.Fatalf("Validate on an open schema with an unknown key failed: %v", err)
	}
	if got, _ := Get[string](out, "extra"); got != "passthrough" {
		t.Fatalf("open schema should retain unrecognised keys; extra = %v", got)
	}
	if unk := s.UnknownKeys(in); len(unk) != 1 || unk[0] != "extra" {
		t.Fatalf("UnknownKeys = %v, want [extra]", unk)
	}
}

func TestSchemaValidateEnforcesAllowedValues(t *testing.T) {
	s := NewSchema("integrator").
		Field("algorithm", FieldDescription{
			Kind:       KindString,
			HasDefault: true,
			Default:    StringValue("vegas"),
			Allowed:    []Value{StringValue("vegas"), StringValue("miser"), StringValue("plain")},
		})

	in := New()
	Set(in, "algorithm", "nonexistent")
	if _, err := s.Validate(in); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("Validate with a disallowed value = %v, want wrapping ErrConfiguration", err)
	}

	in2 := New()
	Set(in2, "algorithm", "miser")
	if _, err := s.Validate(in2); err != nil {
		t.Fatalf("Validate with an allowed value failed: %v", err)
	}
}

func TestSchemaValidateIsIdempotent(t *testing.T) {
	s := NewSchema("integrator").
		Field("num_points", FieldDescription{Kind: KindInt, HasDefault: true, Default: IntValue(1000)})

	once, err := s.Validate(New())
	if err != nil {
		t.Fatalf("first Validate failed: %v", err)
	}
	twice, err := s.Validate(once)
	if err != nil {
		t.Fatalf("second Validate failed: %v", err)
	}
	if got, _ := Get[int](twice, "num_points"); got != 1000 {
		t.Fatalf("re-validating an already-validated bag changed num_points to %v", got)
	}
	if len(twice.Keys()) != len(once.Keys()) {
		t.Fatalf("re-validating changed key count: %v vs %v", twice.Keys(), once.Keys())
	}
}

func TestSchemaValidateNestedChildSchema(t *testing.T) {
	child := NewSchema("limits").
		Field("min", FieldDescription{Kind: KindFloat, HasDefault: true, Default: FloatValue(0.0)}).
		Field("max", FieldDescription{Kind: KindFloat, HasDefault: true, Default: FloatValue(1.0)})

	parent := NewSchema("kinematics").
		Field("pt", FieldDescription{Kind: KindBag, HasDefault: true, Default: BagValue(New()), Child: child})

	out, err := parent.Validate(New())
	if err != nil {
		t.Fatalf("Validate with a nested schema failed: %v", err)
	}
	inner, err := Get[*Bag](out, "pt")
	if err != nil {
		t.Fatalf("pt child bag missing: %v", err)
	}
	if got, _ := Get[float64](inner, "max"); got != 1.0 {
		t.Fatalf("nested default max = %v, want 1.0", got)
	}
}

func TestFromMapConvertsScalarsAndNesting(t *testing.T) {
	m := map[string]interface{}{
		"name":   "two-body",
		"sqrt_s": 13000.0,
		"n":      4,
		"beam1": map[string]interface{}{
			"pdg_id": 2212,
			"pz":     6500.0,
		},
		"tags": []interface{}{"a", "b"},
	}
	b := FromMap(m)

	if got, err := Get[string](b, "name"); err != nil || got != "two-body" {
		t.Fatalf("name = %v, %v; want two-body, nil", got, err)
	}
	if got, err := Get[float64](b, "sqrt_s"); err != nil || got != 13000.0 {
		t.Fatalf("sqrt_s = %v, %v; want 13000, nil", got, err)
	}
	if got, err := Get[float64](b, "n"); err != nil || got != 4 {
		t.Fatalf("n (int promoted to float64) = %v, %v; want 4, nil", got, err)
	}
	beam1, err := Get[*Bag](b, "beam1")
	if err != nil {
		t.Fatalf("beam1 child bag missing: %v", err)
	}
	if got, _ := Get[float64](beam1, "pz"); got != 6500.0 {
		t.Fatalf("beam1.pz = %v, want 6500", got)
	}
	tags, err := Get[[]Value](b, "tags")
	if err != nil || len(tags) != 2 {
		t.Fatalf("tags = %v, %v; want a 2-element list", tags, err)
	}
}
