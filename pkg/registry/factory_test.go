package registry

import (
	"errors"
	"testing"

	"github.com/cepgen/cepgen-go/pkg/errs"
	"github.com/cepgen/cepgen-go/pkg/params"
)

type fakeModule struct {
	name  string
	scale float64
}

func TestFactoryBuildByName(t *testing.T) {
	f := New[*fakeModule]()
	schema := params.NewSchema("fake").
		Field("scale", params.FieldDescription{Kind: params.KindFloat, HasDefault: true, Default: params.FloatValue(2.0)})

	f.Register("fake", func(bag *params.Bag) (*fakeModule, error) {
		scale, _ := params.Get[float64](bag, "scale")
		return &fakeModule{name: "fake", scale: scale}, nil
	}, schema)

	mod, err := f.Build("fake", params.New())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if mod.scale != 2.0 {
		t.Fatalf("scale = %v, want default 2.0 applied by schema", mod.scale)
	}
}

func TestFactoryBuildUnknownName(t *testing.T) {
	f := New[*fakeModule]()
	if _, err := f.Build("missing", params.New()); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("Build on an unknown name = %v, want wrapping ErrConfiguration", err)
	}
}

func TestFactoryRegisterTwicePanics(t *testing.T) {
	f := New[*fakeModule]()
	build := func(bag *params.Bag) (*fakeModule, error) { return &fakeModule{}, nil }
	f.Register("dup", build, nil)

	defer func() {
		if recover() == nil {
			t.Fatal("registering the same name twice should panic")
		}
	}()
	f.Register("dup", build, nil)
}

func TestFactoryBuildFromBagSelfDispatch(t *testing.T) {
	f := New[*fakeModule]()
	f.Register("vegas", func(bag *params.Bag) (*fakeModule, error) {
		return &fakeModule{name: "vegas"}, nil
	}, nil)

	bag := params.New().SetName("vegas")
	mod, err := f.BuildFromBag(bag)
	if err != nil {
		t.Fatalf("BuildFromBag failed: %v", err)
	}
	if mod.name != "vegas" {
		t.Fatalf("mod.name = %q, want vegas", mod.name)
	}
}

func TestFactoryBuildFromBagWithoutNameFails(t *testing.T) {
	f := New[*fakeModule]()
	if _, err := f.BuildFromBag(params.New()); !errors.Is(err, errs.ErrConfiguration) {
		t.Fatalf("BuildFromBag with no mod_name = %v, want wrapping ErrConfiguration", err)
	}
}

func TestFactoryModulesSorted(t *testing.T) {
	f := New[*fakeModule]()
	build := func(bag *params.Bag) (*fakeModule, error) { return &fakeModule{}, nil }
	f.Register("zeta", build, nil)
	f.Register("alpha", build, nil)
	f.Register("mid", build, nil)

	got := f.Modules()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("Modules() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Modules()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
