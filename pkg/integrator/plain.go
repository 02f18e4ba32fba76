package integrator

import (
	"math/rand"

	"github.com/cepgen/cepgen-go/pkg/grid"
	"github.com/cepgen/cepgen-go/pkg/params"
)

const defaultPlainCalls = 50000

// plain is an unadapted Monte Carlo estimator: a single batch of uniform
// samples over the hypercube, no grid refinement (SPEC_FULL.md §4.E,
// "Plain variant: single Monte Carlo estimate").
type plain struct {
	calls int
}

func newPlain(bag *params.Bag) *plain {
	return &plain{calls: params.GetOr(bag, "calls", defaultPlainCalls)}
}

// Grid returns nil: the plain algorithm builds no importance map, so a
// process integrated with it cannot drive pkg/generator afterward.
func (p *plain) Grid() *grid.Grid { return nil }

func (p *plain) Integrate(fn Integrand, ndim int, rng *rand.Rand) (Result, error) {
	mean, stderr := meanAndError(fn, ndim, p.calls, rng)
	return Result{Value: mean, Uncertainty: stderr, ChiSqPerDof: 1}, nil
}
