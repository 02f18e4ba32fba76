package integrator

import (
	"math"
	"math/rand"

	"github.com/cepgen/cepgen-go/pkg/grid"
	"github.com/cepgen/cepgen-go/pkg/params"
)

const (
	defaultMiserNcvg                 = 50000
	defaultMiserEstimateFrac         = 0.1
	defaultMiserMinCalls             = 16
	defaultMiserMinCallsPerBisection = 32
	defaultMiserAlpha                = 2.0
	defaultMiserDither               = 0.1
)

// miser recursively bisects the integration volume along the dimension
// that most reduces the combined estimate's variance, concentrating
// evaluations in sub-volumes of high variability (the GSL MISER
// algorithm; SPEC_FULL.md §4.E).
type miser struct {
	ncvg                 int
	estimateFrac         float64
	minCalls             int
	minCallsPerBisection int
	alpha                float64
	dither               float64
}

func newMiser(bag *params.Bag) *miser {
	return &miser{
		ncvg:                 params.GetOr(bag, "ncvg", defaultMiserNcvg),
		estimateFrac:         params.GetOr(bag, "estimate_frac", defaultMiserEstimateFrac),
		minCalls:             params.GetOr(bag, "min_calls", defaultMiserMinCalls),
		minCallsPerBisection: params.GetOr(bag, "min_calls_per_bisection", defaultMiserMinCallsPerBisection),
		alpha:                params.GetOr(bag, "alpha", defaultMiserAlpha),
		dither:               params.GetOr(bag, "dither", defaultMiserDither),
	}
}

// Grid returns nil: MISER does not maintain a grid cache, so a process
// integrated with MISER cannot subsequently generate unweighted events
// through pkg/generator without first re-integrating with Vegas.
func (m *miser) Grid() *grid.Grid { return nil }

func (m *miser) Integrate(fn Integrand, ndim int, rng *rand.Rand) (Result, error) {
	lo := make([]float64, ndim)
	hi := make([]float64, ndim)
	for i := range hi {
		hi[i] = 1
	}
	mean, variance := m.bisect(fn, lo, hi, m.ncvg, rng)
	return Result{Value: mean, Uncertainty: math.Sqrt(variance), ChiSqPerDof: 1}, nil
}

// bisect estimates the integral of fn over [lo,hi] using calls function
// evaluations, recursively splitting along the dimension whose halves
// give the smallest combined variance once calls exceeds
// minCallsPerBisection.
func (m *miser) bisect(fn Integrand, lo, hi []float64, calls int, rng *rand.Rand) (mean, variance float64) {
	ndim := len(lo)
	volume := 1.0
	for i := range lo {
		volume *= hi[i] - lo[i]
	}

	if calls < m.minCallsPerBisection || calls < 2*m.minCalls {
		return m.plainEstimate(fn, lo, hi, calls, rng)
	}

	exploreCalls := int(float64(calls) * m.estimateFrac)
	if exploreCalls < m.minCalls {
		exploreCalls = m.minCalls
	}

	bestDim := 0
	bestVarReduction := -1.0
	bestMid := 0.0
	point := make([]float64, ndim)

	for d := 0; d < ndim; d++ {
		mid := (lo[d] + hi[d]) / 2
		mid += (rng.Float64()*2 - 1) * m.dither * (hi[d] - lo[d]) / 2

		var sumLeft, sumSqLeft, sumRight, sumSqRight float64
		var nLeft, nRight int
		for i := 0; i < exploreCalls; i++ {
			for k := range point {
				point[k] = lo[k] + rng.Float64()*(hi[k]-lo[k])
			}
			v := fn(point)
			if point[d] < mid {
				sumLeft += v
				sumSqLeft += v * v
				nLeft++
			} else {
				sumRight += v
				sumSqRight += v * v
				nRight++
			}
		}
		varLeft := sampleVariance(sumLeft, sumSqLeft, nLeft)
		varRight := sampleVariance(sumRight, sumSqRight, nRight)
		reduction := math.Sqrt(varLeft) + math.Sqrt(varRight)
		if bestVarReduction < 0 || reduction < bestVarReduction {
			bestVarReduction = reduction
			bestDim = d
			bestMid = mid
		}
	}

	remaining := calls - exploreCalls*ndim
	if remaining < 2*m.minCalls {
		return m.plainEstimate(fn, lo, hi, calls, rng)
	}
	leftCalls := remaining / 2
	rightCalls := remaining - leftCalls

	loLeft, hiLeft := append([]float64(nil), lo...), append([]float64(nil), hi...)
	hiLeft[bestDim] = bestMid
	loRight, hiRight := append([]float64(nil), lo...), append([]float64(nil), hi...)
	loRight[bestDim] = bestMid

	meanLeft, varLeft := m.bisect(fn, loLeft, hiLeft, leftCalls, rng)
	meanRight, varRight := m.bisect(fn, loRight, hiRight, rightCalls, rng)

	leftVolume, rightVolume := 1.0, 1.0
	for i := range lo {
		if i == bestDim {
			leftVolume *= hiLeft[i] - loLeft[i]
			rightVolume *= hiRight[i] - loRight[i]
		} else {
			leftVolume *= hi[i] - lo[i]
			rightVolume *= hi[i] - lo[i]
		}
	}
	_ = volume

	mean = meanLeft + meanRight
	variance = varLeft + varRight
	return mean, variance
}

func (m *miser) plainEstimate(fn Integrand, lo, hi []float64, calls int, rng *rand.Rand) (mean, variance float64) {
	ndim := len(lo)
	volume := 1.0
	for i := range lo {
		volume *= hi[i] - lo[i]
	}
	if calls < 2 {
		calls = 2
	}
	point := make([]float64, ndim)
	var sum, sumSq float64
	for i := 0; i < calls; i++ {
		for k := range point {
			point[k] = lo[k] + rng.Float64()*(hi[k]-lo[k])
		}
		v := fn(point)
		sum += v
		sumSq += v * v
	}
	nf := float64(calls)
	avg := sum / nf
	varOfMean := sampleVariance(sum, sumSq, calls) / nf
	return avg * volume, varOfMean * volume * volume
}

func sampleVariance(sum, sumSq float64, n int) float64 {
	if n < 2 {
		return 0
	}
	nf := float64(n)
	mean := sum / nf
	v := sumSq/nf - mean*mean
	if v < 0 {
		v = 0
	}
	return v
}
