// Package generator implements unweighted event generation by rejection
// sampling against a prepared grid cache, including the two-state
// correction-cycle machine that keeps the cache's per-cell maxima honest
// as new, larger weights are discovered during generation (SPEC_FULL.md
// §4.G).
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/cepgen/cepgen-go/pkg/errs"
	"github.com/cepgen/cepgen-go/pkg/grid"
	"github.com/cepgen/cepgen-go/pkg/integrand"
)

// AdapterFactory builds one integrand adapter per worker goroutine, each
// wrapping an independent instance of the process under generation so that
// concurrent workers never share per-point mapping state.
type AdapterFactory func() *integrand.Adapter

// Generator draws unweighted events from a grid cache already trained by
// a Vegas integration pass. The grid's correction-cycle scalars
// (Correc, Correc2, FMax2, FMaxOld, FMaxDiff) and the currently selected
// phase-space cell are shared, mutable, cross-worker state, guarded by a
// single mutex: the acceptance test in one worker's candidate draw can
// promote the global f_max, and every other worker must see that
// promotion on its next draw.
type Generator struct {
	mu         sync.Mutex
	g          *grid.Grid
	psBin      int
	printEvery int
}

// New builds a Generator drawing from an already-prepared grid. printEvery
// controls how often a diagnostic log line is emitted (0 disables it).
func New(g *grid.Grid, printEvery int) (*Generator, error) {
	if g == nil || !g.Prepared() {
		return nil, fmt.Errorf("%w: generator requires an already-prepared grid", errs.ErrConfiguration)
	}
	return &Generator{g: g, printEvery: printEvery}, nil
}

// AbortSignal is satisfied by *pkg/emergency.Controller; kept as a small
// interface here so this package does not import emergency directly.
type AbortSignal interface {
	StopChannel() <-chan struct{}
}

// Run launches numWorkers goroutines, each built from newAdapter and its
// own RNG (newRNG(workerID)), and blocks until target unweighted events
// have been accepted in aggregate, ctx is cancelled, or abort fires.
// It returns the number of events actually accepted.
func (gen *Generator) Run(ctx context.Context, target, numWorkers int, newAdapter AdapterFactory, newRNG func(workerID int) *rand.Rand, abort AbortSignal) (int64, error) {
	if numWorkers < 1 {
		numWorkers = 1
	}

	var accepted int64
	var countMu sync.Mutex
	var abortCh <-chan struct{}
	if abort != nil {
		abortCh = abort.StopChannel()
	}

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			adapter := newAdapter()
			rng := newRNG(workerID)
			for {
				select {
				case <-ctx.Done():
					return
				default:
				}
				if abortCh != nil {
					select {
					case <-abortCh:
						return
					default:
					}
				}

				// The count check, the draw and the increment share one lock so
				// that concurrent workers never accept more than target events.
				countMu.Lock()
				if atomic.LoadInt64(&accepted) >= int64(target) {
					countMu.Unlock()
					return
				}
				ok, err := gen.generateOneEvent(adapter, rng)
				var n int64
				if err == nil && ok {
					n = atomic.AddInt64(&accepted, 1)
				}
				countMu.Unlock()
				if err != nil {
					log.Error().Err(err).Msg("event generation worker failed")
					return
				}
				if !ok {
					continue
				}
				if gen.printEvery > 0 && n%int64(gen.printEvery) == 0 {
					log.Info().Int64("generated", n).Int("target", target).Msg("event generation progress")
				}
			}
		}(w)
	}
	wg.Wait()

	n := atomic.LoadInt64(&accepted)
	log.Info().Int64("generated", n).Msg("event generation complete")
	return n, nil
}

// generateOneEvent runs, under the shared mutex, one pass of the
// generation state machine: if a correction cycle is pending from a
// previous call it is resolved first; otherwise a fresh candidate cell is
// drawn and tested against the grid's cached per-cell maximum. Reproduces
// CepGen's Integrator::generateOneEvent/correctionCycle arithmetic,
// including the nm[bin]-1 asymmetry between the first-overflow and
// already-overflowing branches.
func (gen *Generator) generateOneEvent(adapter *integrand.Adapter, rng *rand.Rand) (bool, error) {
	gen.mu.Lock()
	defer gen.mu.Unlock()

	ndim := gen.g.NDim()

	if gen.psBin != 0 {
		for {
			x, ok, done := gen.correctionCycle(adapter, rng)
			if done {
				if ok {
					return gen.accept(adapter, x), nil
				}
				break
			}
		}
	}

	var (
		x      = make([]float64, ndim)
		weight float64
		bin    int
	)

	for {
		var y float64
		for {
			bin = int(rng.Float64() * float64(gen.g.Size()))
			y = rng.Float64() * gen.g.FMaxGlobal()
			gen.g.IncrementVisits(bin)
			if y <= gen.g.FMax(bin) {
				break
			}
		}

		x = gen.sampleCell(bin, rng)

		weight = adapter.Eval(x)
		if y <= weight {
			break
		}
	}

	gen.psBin = bin
	nm := float64(gen.g.NumVisits(bin))

	switch {
	case weight <= gen.g.FMax(bin):
		gen.psBin = 0
	case weight <= gen.g.FMaxGlobal():
		fMaxOld := gen.g.FMax(bin)
		gen.g.FMaxOld = fMaxOld
		gen.g.SetFMax(bin, weight)
		gen.g.FMaxDiff = weight - fMaxOld
		gen.g.Correc = (nm-1)*gen.g.FMaxDiff/gen.g.FMaxGlobal() - 1
	default:
		// weight exceeds both the cell and the global maximum: promote
		// both, matching the original's (redundant but verbatim) extra
		// weight/f_max_global factor of the correction term.
		fMaxOld := gen.g.FMax(bin)
		gen.g.FMaxOld = fMaxOld
		gen.g.SetFMax(bin, weight) // weight > old global, so this also promotes FMaxGlobal to weight
		gen.g.FMaxDiff = weight - fMaxOld
		fMaxGlobal := gen.g.FMaxGlobal()
		gen.g.Correc = (nm-1)*gen.g.FMaxDiff/fMaxGlobal*weight/fMaxGlobal - 1
	}

	if weight <= 0 {
		return false, nil
	}
	return gen.accept(adapter, x), nil
}

// correctionCycle resolves one round of the pending-correction state,
// mirroring CepGen's Integrator::correctionCycle. done reports whether
// the caller's retry loop should stop; ok (meaningful only when done)
// reports whether x is an accepted event. A rejected correction-candidate
// draw, and a too-big-weight correction still pending, both loop back
// around rather than terminating — only an accepted candidate or a
// settled too-big-weight state stop the retry loop.
func (gen *Generator) correctionCycle(adapter *integrand.Adapter, rng *rand.Rand) (x []float64, ok, done bool) {
	if gen.g.Correc >= 1 {
		gen.g.Correc -= 1
	}
	if rng.Float64() < gen.g.Correc {
		gen.g.Correc = -1

		candidate := gen.sampleCell(gen.psBin, rng)
		weight := adapter.Eval(candidate)

		if weight > gen.g.FMax(gen.psBin) {
			if weight > gen.g.FMax2 {
				gen.g.FMax2 = weight
			}
			gen.g.Correc2 -= 1
			gen.g.Correc += 1
		}

		if weight >= gen.g.FMaxDiff*rng.Float64()+gen.g.FMaxOld {
			return candidate, true, true
		}
		return nil, false, false
	}

	if gen.g.FMax2 > gen.g.FMax(gen.psBin) {
		fMaxOld := gen.g.FMax(gen.psBin)
		gen.g.FMaxOld = fMaxOld
		gen.g.SetFMax(gen.psBin, gen.g.FMax2)
		gen.g.FMaxDiff = gen.g.FMax2 - fMaxOld
		if gen.g.FMax2 < gen.g.FMaxGlobal() {
			gen.g.Correc = (float64(gen.g.NumVisits(gen.psBin))-1)*gen.g.FMaxDiff/gen.g.FMaxGlobal() - gen.g.Correc2
		} else {
			// FMax2 >= the prior global maximum, so SetFMax above already
			// promoted it; the extra FMax2/FMaxGlobal factor below is always 1
			// once that promotion lands, kept to mirror the original's formula
			// shape rather than collapsing it.
			fMaxGlobal := gen.g.FMaxGlobal()
			gen.g.Correc = (float64(gen.g.NumVisits(gen.psBin))-1)*gen.g.FMaxDiff/fMaxGlobal*gen.g.FMax2/fMaxGlobal - gen.g.Correc2
		}
		gen.g.Correc2 = 0
		gen.g.FMax2 = 0
		return nil, false, false
	}
	return nil, false, true
}

// accept runs the adapter once more in storage mode so that the modifier
// and exporter pipeline fires exactly once per accepted event, then
// restores non-storage mode.
func (gen *Generator) accept(adapter *integrand.Adapter, x []float64) bool {
	adapter.SetStorageMode(true)
	weight := adapter.Eval(x)
	adapter.SetStorageMode(false)
	return weight > 0
}

func (gen *Generator) sampleCell(cell int, rng *rand.Rand) []float64 {
	return gen.g.SampleInCell(cell, rng)
}

