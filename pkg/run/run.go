// Package run wires a loaded config.RunCard into a built process,
// kinematics tree, integrator, grid cache, event generator and
// modifier/exporter pipeline, the parameter-driven composition CepGen's
// command line tools perform by hand in main().
package run

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/cepgen/cepgen-go/pkg/config"
	"github.com/cepgen/cepgen-go/pkg/emergency"
	"github.com/cepgen/cepgen-go/pkg/errs"
	"github.com/cepgen/cepgen-go/pkg/generator"
	"github.com/cepgen/cepgen-go/pkg/integrand"
	"github.com/cepgen/cepgen-go/pkg/integrator"
	"github.com/cepgen/cepgen-go/pkg/kinematics"
	"github.com/cepgen/cepgen-go/pkg/pipeline"
	"github.com/cepgen/cepgen-go/pkg/process"
)

// Run holds every component a run card resolves into, ready for
// Integrate and/or Generate.
type Run struct {
	Card       *config.RunCard
	Kinematics *kinematics.Tree
	Integrator integrator.Integrator
	Pipeline   *pipeline.Pipeline
	Abort      *emergency.Controller

	newProcess func() (process.Process, error)
	lastResult integrator.Result
}

// Build resolves a run card into a Run: it validates the card, builds
// the kinematics tree, constructs the integrator, and assembles the
// event-modifier/exporter pipeline from eventSequence/output, without
// yet running anything.
func Build(card *config.RunCard) (*Run, error) {
	if err := card.Validate(); err != nil {
		return nil, err
	}

	kin, err := kinematics.FromBag(card.KinematicsBag())
	if err != nil {
		return nil, err
	}

	newProcess := func() (process.Process, error) {
		p, err := process.Registry.Build(card.Process.Name, card.Process.Bag())
		if err != nil {
			return nil, err
		}
		if err := p.PrepareKinematics(kin); err != nil {
			return nil, err
		}
		return p, nil
	}
	if _, err := newProcess(); err != nil {
		return nil, fmt.Errorf("building process %q: %w", card.Process.Name, err)
	}

	integ, err := integrator.Build(card.Integrator.Name, card.Integrator.Bag())
	if err != nil {
		return nil, err
	}

	pl := pipeline.New()
	for _, mc := range card.EventSequence {
		mod, err := pipeline.ModifierRegistry.Build(mc.Name, mc.Bag())
		if err != nil {
			return nil, fmt.Errorf("building event modifier %q: %w", mc.Name, err)
		}
		pl.AddModifier(mod)
	}
	for _, mc := range card.Output {
		ex, err := pipeline.ExporterRegistry.Build(mc.Name, mc.Bag())
		if err != nil {
			return nil, fmt.Errorf("building output exporter %q: %w", mc.Name, err)
		}
		pl.AddExporter(ex)
	}

	abort := emergency.New(emergency.Config{
		StopFile:             card.Abort.StopFile,
		EnableSignalHandlers: card.Abort.EnableSignalHandlers,
	})

	return &Run{
		Card:       card,
		Kinematics: kin,
		Integrator: integ,
		Pipeline:   pl,
		Abort:      abort,
		newProcess: newProcess,
	}, nil
}

// newAdapter builds a fresh process + adapter pair sharing this run's
// kinematics tree and pipeline, one per generator worker or integration
// call.
func (r *Run) newAdapter() (*integrand.Adapter, error) {
	p, err := r.newProcess()
	if err != nil {
		return nil, err
	}
	return integrand.New(p, r.Kinematics, r.Pipeline), nil
}

// Integrate runs the configured integration algorithm over the process's
// declared phase space using seed to drive the RNG. The result is kept
// so a later Generate call can broadcast it to the pipeline once every
// exporter has been initialised.
func (r *Run) Integrate(seed int64) (integrator.Result, error) {
	adapter, err := r.newAdapter()
	if err != nil {
		return integrator.Result{}, err
	}
	ndim := adapter.Process.NDim()
	rng := rand.New(rand.NewSource(seed))
	result, err := r.Integrator.Integrate(adapter.Eval, ndim, rng)
	if err != nil {
		return result, err
	}
	r.lastResult = result
	return result, nil
}

// Generate runs the unweighted event generation worker pool against this
// run's trained grid cache, which must already exist (i.e. Integrate must
// have been called with a grid-backed algorithm such as vegas). The run's
// abort controller is started alongside the pool so a SIGINT/SIGTERM or
// the configured stop file stops every worker at its next poll.
func (r *Run) Generate(ctx context.Context) (int64, error) {
	g := r.Integrator.Grid()
	if g == nil || !g.Prepared() {
		return 0, fmt.Errorf("%w: generation requires a prepared grid; run Integrate with the vegas algorithm first", errs.ErrConfiguration)
	}

	gen, err := generator.New(g, r.Card.Generator.PrintEvery)
	if err != nil {
		return 0, err
	}

	if err := r.Pipeline.Initialise(); err != nil {
		return 0, fmt.Errorf("initialising output pipeline: %w", err)
	}
	defer r.Pipeline.Close()
	r.Pipeline.SetCrossSection(pipeline.CrossSection{Value: r.lastResult.Value, Uncertainty: r.lastResult.Uncertainty})

	abortCtx, cancelAbort := context.WithCancel(ctx)
	defer cancelAbort()
	r.Abort.Start(abortCtx)

	seed := int64(r.Card.Generator.Seed)
	newRNG := func(workerID int) *rand.Rand {
		return rand.New(rand.NewSource(seed + int64(workerID) + 1))
	}

	var buildErr error
	newAdapter := func() *integrand.Adapter {
		a, err := r.newAdapter()
		if err != nil {
			buildErr = err
			return nil
		}
		return a
	}

	n, err := gen.Run(ctx, r.Card.Generator.MaxGen, r.Card.Generator.NumWorkers, newAdapter, newRNG, r.Abort)
	if err != nil {
		return n, err
	}
	if buildErr != nil {
		return n, buildErr
	}
	return n, nil
}
