package process

import (
	"github.com/cepgen/cepgen-go/pkg/event"
	"github.com/cepgen/cepgen-go/pkg/kinematics"
)

// Process is the pluggable physics matrix element: it declares its
// integration variables over the unit hypercube, evaluates a weight at a
// mapped point, and fills an event with the resulting kinematics
// (SPEC_FULL.md §4.C). Implementations satisfying this interface are
// the weight contract's concrete side; the contract itself (coords, ndim)
// → double is exposed uniformly through integrand.Adapter.
type Process interface {
	// AddEventContent populates event with the canonical particle roster
	// (incoming beams, partons, intermediate, outgoing beams, central
	// system placeholders) before any kinematics are filled.
	AddEventContent(e *event.Event)

	// PrepareKinematics declares every integration variable by calling
	// DefineVariable internally; declaration order fixes each variable's
	// dimension index. Called once before integration begins.
	PrepareKinematics(kin *kinematics.Tree) error

	// NDim returns the number of declared integration variables.
	NDim() int

	// SetPoint maps hypercube coordinates x (len(x) == NDim()) into this
	// process's declared variables, returning the accumulated Jacobian
	// (product of every variable's base Jacobian and point Jacobian at x).
	SetPoint(x []float64) float64

	// ComputeWeight returns the non-negative matrix-element weight at the
	// point most recently set by SetPoint. A return value <= 0 means the
	// point is cut; callers must not propagate a non-positive weight.
	ComputeWeight() float64

	// FillKinematics writes the final-state four-momenta resulting from
	// the most recent SetPoint/ComputeWeight into e.
	FillKinematics(e *event.Event)

	// Clone returns an independent copy suitable for use by a separate
	// generator worker goroutine; clones share no mutable state.
	Clone() Process
}

// Base provides the Variable bookkeeping (declaration, dimension
// indexing, Jacobian accumulation) that every concrete process embeds,
// mirroring CepGen's shared Process base rather than a deep process
// inheritance hierarchy (SPEC_FULL.md §9's "prefer thin base plus
// composition").
type Base struct {
	Variables []*Variable
	Kin       *kinematics.Tree
}

// Declare registers a new integration variable and returns it, assigning
// it the next free dimension index.
func (b *Base) Declare(description string, mapping MappingType, userLimits, fallbackLimits kinematics.Limits) *Variable {
	v := DefineVariable(description, mapping, userLimits, fallbackLimits, len(b.Variables))
	b.Variables = append(b.Variables, v)
	return v
}

// NDim implements Process.NDim.
func (b *Base) NDim() int { return len(b.Variables) }

// SetPoint implements Process.SetPoint: maps every declared variable from
// x and returns the product of every base and point Jacobian.
func (b *Base) SetPoint(x []float64) float64 {
	jacobian := 1.0
	for i, v := range b.Variables {
		_, pointJ := v.Map(x[i])
		jacobian *= v.BaseJacobian() * pointJ
	}
	return jacobian
}

// CloneBase returns a Base whose Variables are independent copies of b's,
// so that a clone used by a separate generator worker goroutine never
// shares a Variable's mutable per-point value with its origin.
func (b *Base) CloneBase() Base {
	out := Base{Kin: b.Kin, Variables: make([]*Variable, len(b.Variables))}
	for i, v := range b.Variables {
		cp := *v
		out.Variables[i] = &cp
	}
	return out
}
