// Package integrator implements the Vegas-family Monte Carlo integration
// primitives used to estimate a process's cross section and, for Vegas,
// to fill the grid cache used for event generation (SPEC_FULL.md §4.E).
// GSL bindings are out of scope (see the project's design notes); every
// algorithm here is implemented natively in Go. The Vegas refinement
// passes are uniform Monte Carlo estimates without adaptive importance
// sampling.
package integrator

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/cepgen/cepgen-go/pkg/errs"
	"github.com/cepgen/cepgen-go/pkg/grid"
	"github.com/cepgen/cepgen-go/pkg/params"
)

// Result is the (value, uncertainty) pair returned by Integrate.
type Result struct {
	Value       float64
	Uncertainty float64
	ChiSqPerDof float64
}

// Integrand is the uniform integration target: an N-dimensional function
// over [0,1]^N returning a non-negative weight.
type Integrand func(x []float64) float64

// Integrator performs adaptive Monte Carlo integration and, afterward,
// exposes the grid cache it trained (nil for algorithms that don't build
// one, i.e. MISER and Plain) for event generation.
type Integrator interface {
	// Integrate runs the algorithm to completion and returns the final
	// estimate.
	Integrate(fn Integrand, ndim int, rng *rand.Rand) (Result, error)

	// Grid returns the trained grid cache, or nil when the algorithm does
	// not maintain one.
	Grid() *grid.Grid
}

// Algorithm names accepted by Build.
const (
	AlgorithmVegas = "vegas"
	AlgorithmMiser = "miser"
	AlgorithmPlain = "plain"
)

// Build constructs the named integrator algorithm from a parameter bag.
func Build(name string, bag *params.Bag) (Integrator, error) {
	if bag == nil {
		bag = params.New()
	}
	switch name {
	case AlgorithmVegas:
		return newVegas(bag), nil
	case AlgorithmMiser:
		return newMiser(bag), nil
	case AlgorithmPlain:
		return newPlain(bag), nil
	default:
		return nil, fmt.Errorf("%w: unknown integrator algorithm %q", errs.ErrConfiguration, name)
	}
}

// meanAndError runs n evaluations of fn over [0,1]^ndim, returning the
// plain Monte Carlo estimate of its integral and the associated standard
// error, the building block shared by every algorithm here.
func meanAndError(fn Integrand, ndim int, n int, rng *rand.Rand) (mean, stderr float64) {
	var sum, sumSq float64
	point := make([]float64, ndim)
	for i := 0; i < n; i++ {
		for d := range point {
			point[d] = rng.Float64()
		}
		v := fn(point)
		sum += v
		sumSq += v * v
	}
	nf := float64(n)
	mean = sum / nf
	variance := sumSq/nf - mean*mean
	if variance < 0 {
		variance = 0
	}
	stderr = math.Sqrt(variance / nf)
	return mean, stderr
}

func logIntegrationError(algorithm string, err error) {
	log.Error().Str("algorithm", algorithm).Err(err).Msg("integration primitive returned a non-success code")
}
