package integrator

import (
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/cepgen/cepgen-go/pkg/errs"
	"github.com/cepgen/cepgen-go/pkg/grid"
	"github.com/cepgen/cepgen-go/pkg/params"
)

const (
	defaultWarmupCalls   = 25000
	defaultNcvg          = 50000
	defaultChisqCut      = 1.5
	defaultMaxIterations = 20
)

// vegas is the grid-cache integrator: one fixed-call warmup fills the
// grid's per-cell weight maxima, then repeated refinement passes
// accumulate a weighted estimate until chi-squared per degree of freedom
// settles near 1 (SPEC_FULL.md §4.E, "the hardest subsystem"). The
// refinement passes sample [0,1]^N uniformly; the grid is not used to
// importance-sample them and is not adapted between passes.
type vegas struct {
	warmupCalls   int
	ncvg          int
	chisqCut      float64
	maxIterations int
	g             *grid.Grid
}

func newVegas(bag *params.Bag) *vegas {
	return &vegas{
		warmupCalls:   params.GetOr(bag, "warmup_calls", defaultWarmupCalls),
		ncvg:          params.GetOr(bag, "ncvg", defaultNcvg),
		chisqCut:      params.GetOr(bag, "chisq_cut", defaultChisqCut),
		maxIterations: params.GetOr(bag, "max_iterations", defaultMaxIterations),
	}
}

func (v *vegas) Grid() *grid.Grid { return v.g }

func (v *vegas) Integrate(fn Integrand, ndim int, rng *rand.Rand) (Result, error) {
	g, err := grid.New(ndim, grid.DefaultCellsPerDim)
	if err != nil {
		return Result{}, err
	}
	v.g = g

	pointsPerCell := v.warmupCalls / g.Size()
	if pointsPerCell < grid.MinWarmupVisitsPerCell {
		pointsPerCell = grid.MinWarmupVisitsPerCell
	}
	g.Prepare(fn, pointsPerCell, rng)

	callsPerIteration := int(0.2 * float64(v.ncvg))
	if callsPerIteration < 1 {
		callsPerIteration = 1
	}

	var (
		weightedSum, weightedSumInvVar float64
		estimates, errors              []float64
		result                         Result
	)

	for iter := 0; iter < v.maxIterations; iter++ {
		mean, stderr := meanAndError(fn, ndim, callsPerIteration, rng)
		estimates = append(estimates, mean)
		errors = append(errors, stderr)

		if stderr <= 0 {
			stderr = 1e-12
		}
		invVar := 1.0 / (stderr * stderr)
		weightedSum += mean * invVar
		weightedSumInvVar += invVar

		combined := weightedSum / weightedSumInvVar
		combinedErr := math.Sqrt(1.0 / weightedSumInvVar)

		chisq, ndf := chiSquared(estimates, errors, combined)
		chisqPerDof := 1.0
		if ndf > 0 {
			chisqPerDof = chisq / float64(ndf)
		}

		result = Result{Value: combined, Uncertainty: combinedErr, ChiSqPerDof: chisqPerDof}

		log.Info().
			Int("iteration", iter+1).
			Float64("estimate", mean).
			Float64("sigma", stderr).
			Float64("chisq_per_dof", chisqPerDof).
			Msg("vegas iteration")

		if ndf > 0 && math.Abs(chisqPerDof-1) <= v.chisqCut-1 {
			return result, nil
		}
	}

	if math.IsNaN(result.Value) {
		logIntegrationError(AlgorithmVegas, errs.ErrIntegration)
		return Result{}, errs.ErrIntegration
	}
	return result, nil
}

// chiSquared computes the weighted chi-squared of a sequence of
// independent estimates against a combined mean, with ndf = len-1
// (clamped to >= 0), the standard Lepage Vegas diagnostic.
func chiSquared(estimates, errors []float64, combined float64) (chisq float64, ndf int) {
	for i, e := range estimates {
		sigma := errors[i]
		if sigma <= 0 {
			sigma = 1e-12
		}
		d := (e - combined) / sigma
		chisq += d * d
	}
	ndf = len(estimates) - 1
	if ndf < 0 {
		ndf = 0
	}
	return chisq, ndf
}
