// Package grid implements the M^N cell cache filled during the Vegas
// warmup and used to drive unweighted event generation by rejection
// sampling (SPEC_FULL.md §4.F), grounded on CepGen's
// GridParameters.
package grid

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/cepgen/cepgen-go/pkg/errs"
)

// MaxDim bounds the number of integration dimensions a grid may cover.
const MaxDim = 15

// DefaultCellsPerDim is the M in M^N: the default number of subdivisions
// per dimension.
const DefaultCellsPerDim = 3

// MinWarmupVisitsPerCell is the K in "prepared implies every cell sampled
// >= K times during warmup" (SPEC_FULL.md §3).
const MinWarmupVisitsPerCell = 100

// Grid discretises [0,1]^N into M^N equal cells and caches, per cell, the
// largest weight ever observed and the number of candidate points that
// have sampled it. Correction-cycle bookkeeping scalars (used by the
// generator worker's state machine) live here because they are properties
// of the grid, not of any one worker.
type Grid struct {
	ndim  int
	m     int
	size  int
	fMax  []float64
	visit []int

	fMaxGlobal float64
	prepared   bool

	// Correction-cycle scalars, shared across all generator workers that
	// draw from this grid (SPEC_FULL.md §3, §4.G).
	FMax2     float64
	FMaxOld   float64
	FMaxDiff  float64
	Correc    float64
	Correc2   float64
}

// New allocates a grid of M^ndim cells. M defaults to DefaultCellsPerDim
// when m <= 0. ndim must not exceed MaxDim.
func New(ndim, m int) (*Grid, error) {
	if ndim <= 0 || ndim > MaxDim {
		return nil, fmt.Errorf("%w: grid dimension %d is out of range (1..%d)", errs.ErrConfiguration, ndim, MaxDim)
	}
	if m <= 0 {
		m = DefaultCellsPerDim
	}
	size := 1
	for i := 0; i < ndim; i++ {
		size *= m
	}
	return &Grid{
		ndim:  ndim,
		m:     m,
		size:  size,
		fMax:  make([]float64, size),
		visit: make([]int, size),
	}, nil
}

// Size returns M^N, the total number of cells.
func (g *Grid) Size() int { return g.size }

// NDim returns the grid's dimensionality.
func (g *Grid) NDim() int { return g.ndim }

// Prepared reports whether Prepare has completed.
func (g *Grid) Prepared() bool { return g.prepared }

// FMaxGlobal returns the largest weight observed across every cell.
func (g *Grid) FMaxGlobal() float64 { return g.fMaxGlobal }

// FMax returns the cached maximum weight for cell.
func (g *Grid) FMax(cell int) float64 { return g.fMax[cell] }

// SetFMax overwrites the cached maximum weight for cell and refreshes
// FMaxGlobal if necessary.
func (g *Grid) SetFMax(cell int, v float64) {
	g.fMax[cell] = v
	if v > g.fMaxGlobal {
		g.fMaxGlobal = v
	}
}

// NumVisits returns the number of candidate points that have sampled
// cell.
func (g *Grid) NumVisits(cell int) int { return g.visit[cell] }

// IncrementVisits increments and returns cell's visit counter.
func (g *Grid) IncrementVisits(cell int) int {
	g.visit[cell]++
	return g.visit[cell]
}

// UnpackIndex converts a flat cell id into its per-dimension coordinates,
// each in [0, M).
func (g *Grid) UnpackIndex(cell int) []int {
	out := make([]int, g.ndim)
	rem := cell
	for i := g.ndim - 1; i >= 0; i-- {
		out[i] = rem % g.m
		rem /= g.m
	}
	return out
}

// PackIndex converts per-dimension coordinates back into a flat cell id.
func (g *Grid) PackIndex(coords []int) int {
	cell := 0
	for _, c := range coords {
		cell = cell*g.m + c
	}
	return cell
}

// SampleInCell draws a uniform point inside cell: for each dimension i,
// coords[i] = (c_i + U)/M with U ~ Uniform(0,1).
func (g *Grid) SampleInCell(cell int, rng *rand.Rand) []float64 {
	coords := g.UnpackIndex(cell)
	out := make([]float64, g.ndim)
	invM := 1.0 / float64(g.m)
	for i, c := range coords {
		out[i] = (float64(c) + rng.Float64()) * invM
	}
	return out
}

// Shoot delegates to SampleInCell, matching CepGen's GridParameters::shoot.
func (g *Grid) Shoot(cell int, rng *rand.Rand) []float64 {
	return g.SampleInCell(cell, rng)
}

// Prepare runs the warmup procedure: for each cell, draws pointsPerCell
// samples of fn and records the maximum into f_max[cell], refreshing
// f_max_global as it goes. It then marks the grid prepared and logs a
// diagnostic summary.
func (g *Grid) Prepare(fn func(coords []float64) float64, pointsPerCell int, rng *rand.Rand) {
	if pointsPerCell < MinWarmupVisitsPerCell {
		pointsPerCell = MinWarmupVisitsPerCell
	}

	var sum, sumSq float64
	var nonZero int

	for cell := 0; cell < g.size; cell++ {
		coords := g.UnpackIndex(cell)
		invM := 1.0 / float64(g.m)
		localMax := 0.0
		for i := 0; i < pointsPerCell; i++ {
			point := make([]float64, g.ndim)
			for d, c := range coords {
				point[d] = (float64(c) + rng.Float64()) * invM
			}
			v := fn(point)
			if v > localMax {
				localMax = v
			}
			sum += v
			sumSq += v * v
			if v > 0 {
				nonZero++
			}
		}
		g.SetFMax(cell, localMax)
	}

	g.prepared = true

	total := float64(g.size * pointsPerCell)
	mean := sum / total
	variance := sumSq/total - mean*mean
	if variance < 0 {
		variance = 0
	}
	efficiency := float64(nonZero) / total

	log.Info().
		Int("cells", g.size).
		Int("points_per_cell", pointsPerCell).
		Float64("mean", mean).
		Float64("dispersion", math.Sqrt(variance)).
		Float64("efficiency", efficiency).
		Float64("f_max_global", g.fMaxGlobal).
		Msg("grid warmup complete")
}
