// Package registry implements the generic named-module factory used for
// cepgen-go's pluggable modules: processes, modifiers and exporters each
// get their own Factory[T] instance (integrators are selected by name in
// integrator.Build instead), mirroring CepGen's templated ModuleFactory<T>.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cepgen/cepgen-go/pkg/errs"
	"github.com/cepgen/cepgen-go/pkg/params"
)

// Constructor builds one instance of a module from its parameter bag.
type Constructor[T any] func(bag *params.Bag) (T, error)

// entry pairs a module's constructor with its parameter schema, when one
// was supplied at registration time.
type entry[T any] struct {
	build  Constructor[T]
	schema *params.Schema
}

// Factory is a named-module registry for base type T. The zero value is
// not usable; construct one with New.
type Factory[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
}

// New returns an empty factory.
func New[T any]() *Factory[T] {
	return &Factory[T]{entries: make(map[string]entry[T])}
}

// Register adds a named constructor to the factory. Registering a name
// twice is a programming error and panics, matching the teacher's
// init-time registration tables which are never expected to collide.
func (f *Factory[T]) Register(name string, build Constructor[T], schema *params.Schema) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.entries[name]; exists {
		panic(fmt.Sprintf("registry: module %q registered twice", name))
	}
	f.entries[name] = entry[T]{build: build, schema: schema}
}

// Build constructs a named module, validating bag against the module's
// schema first when one was registered.
func (f *Factory[T]) Build(name string, bag *params.Bag) (T, error) {
	var zero T
	f.mu.RLock()
	e, ok := f.entries[name]
	f.mu.RUnlock()
	if !ok || name == "" {
		return zero, fmt.Errorf("%w: no module named %q is registered", errs.ErrConfiguration, name)
	}
	if bag == nil {
		bag = params.New()
	}
	validated := bag
	if e.schema != nil {
		var err error
		validated, err = e.schema.Validate(bag)
		if err != nil {
			return zero, fmt.Errorf("building %q: %w", name, err)
		}
	}
	return e.build(validated)
}

// BuildFromBag self-dispatches using the bag's reserved mod_name key, the
// Go analogue of build(const ParametersList&) overload in CepGen that
// reads the module name out of the parameters themselves.
func (f *Factory[T]) BuildFromBag(bag *params.Bag) (T, error) {
	var zero T
	if bag == nil {
		return zero, fmt.Errorf("%w: cannot self-dispatch on a nil bag", errs.ErrConfiguration)
	}
	name := bag.Name()
	if name == "" {
		return zero, fmt.Errorf("%w: bag carries no mod_name to self-dispatch on", errs.ErrConfiguration)
	}
	return f.Build(name, bag)
}

// Describe returns the parameter schema registered alongside name, if any.
func (f *Factory[T]) Describe(name string) (*params.Schema, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	e, ok := f.entries[name]
	if !ok {
		return nil, false
	}
	return e.schema, true
}

// Modules returns every registered name, sorted, for discovery commands
// like "cepgen modules".
func (f *Factory[T]) Modules() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.entries))
	for name := range f.entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Has reports whether name is registered.
func (f *Factory[T]) Has(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.entries[name]
	return ok
}
