// Package integrand implements the uniform (coords -> double) facade
// around a process, applying taming functions, kinematic cuts, and (when
// in storage mode) the modifier/exporter pipeline (SPEC_FULL.md §4.D).
package integrand

import (
	"github.com/cepgen/cepgen-go/pkg/event"
	"github.com/cepgen/cepgen-go/pkg/kinematics"
	"github.com/cepgen/cepgen-go/pkg/pipeline"
	"github.com/cepgen/cepgen-go/pkg/process"
)

// Observable evaluates a named kinematic quantity from an event, for use
// by taming functions. The built-in set covers what §4.D's cut windows
// need; callers may register additional observables.
type Observable func(e *event.Event) float64

// Observables is the process-wide registry of named observable
// extractors, analogous to process.Registry but keyed by plain function
// rather than a parameter-bag constructor since observables carry no
// configuration of their own.
var Observables = map[string]Observable{
	"central_pt": func(e *event.Event) float64 {
		var sum float64
		for _, p := range e.ByRole(event.RoleCentralSystem) {
			sum += p.Momentum.Pt()
		}
		return sum
	},
	"central_mass": func(e *event.Event) float64 {
		ps := e.ByRole(event.RoleCentralSystem)
		if len(ps) == 0 {
			return 0
		}
		sum := ps[0].Momentum
		for _, p := range ps[1:] {
			sum = sum.Add(p.Momentum)
		}
		return sum.Mass()
	},
}

// TamingFunction multiplicatively reweights an observable's value. It
// must return a non-negative factor.
type TamingFunction func(observableValue float64) float64

// Taming pairs a named observable with the functional applied to it.
type Taming struct {
	Observable string
	Func       TamingFunction
}

// Adapter is the integrand facade wrapping one process: Eval is the
// function handed to the integrator and the grid cache.
type Adapter struct {
	Process  process.Process
	Event    *event.Event
	Kin      *kinematics.Tree
	Tamings  []Taming
	Pipeline *pipeline.Pipeline

	// storageMode is set by the generator worker immediately before
	// accepting a point (SPEC_FULL.md §4.D point 4); integration leaves
	// it false throughout.
	storageMode bool
	lastWeight  float64
}

// New wraps process p, with event content populated once up front.
func New(p process.Process, kin *kinematics.Tree, pl *pipeline.Pipeline) *Adapter {
	e := event.New()
	p.AddEventContent(e)
	return &Adapter{Process: p, Event: e, Kin: kin, Pipeline: pl}
}

// SetStorageMode toggles whether Eval should run the modifier/exporter
// pipeline after computing the weight. Callers (the generator worker)
// must set this immediately before the evaluation they intend to accept,
// and clear it afterward.
func (a *Adapter) SetStorageMode(on bool) { a.storageMode = on }

// LastWeight returns the weight computed by the most recent Eval call.
func (a *Adapter) LastWeight() float64 { return a.lastWeight }

// Eval is the integrand's (coords -> double) facade.
func (a *Adapter) Eval(x []float64) float64 {
	jacobian := a.Process.SetPoint(x)
	weight := a.Process.ComputeWeight()
	if weight <= 0 {
		a.lastWeight = 0
		return 0
	}
	weight *= jacobian

	a.Process.FillKinematics(a.Event)

	for _, t := range a.Tamings {
		obs, ok := Observables[t.Observable]
		if !ok {
			continue
		}
		factor := t.Func(obs(a.Event))
		if factor <= 0 {
			a.lastWeight = 0
			return 0
		}
		weight *= factor
	}

	if !a.passesCuts() {
		a.lastWeight = 0
		return 0
	}

	if a.storageMode {
		if a.Pipeline != nil {
			if !a.Pipeline.RunModifiers(a.Event, &weight, true) {
				a.lastWeight = 0
				return 0
			}
			if weight > 0 {
				_ = a.Pipeline.Export(a.Event, weight)
			}
		}
	}

	a.lastWeight = weight
	return weight
}

// passesCuts applies the central-system and remnant kinematic cuts from
// the kinematics tree. A nil tree imposes no cuts.
func (a *Adapter) passesCuts() bool {
	if a.Kin == nil {
		return true
	}
	for _, p := range a.Event.ByRole(event.RoleCentralSystem) {
		if !a.Kin.Central.Pt.Contains(p.Momentum.Pt()) {
			return false
		}
		if !a.Kin.Central.Eta.Contains(p.Momentum.Eta()) {
			return false
		}
		if !a.Kin.Central.Rapidity.Contains(p.Momentum.Rapidity()) {
			return false
		}
		if !a.Kin.Central.Energy.Contains(p.Momentum.E) {
			return false
		}
		if !a.Kin.Central.Mass.Contains(p.Momentum.Mass()) {
			return false
		}
	}
	for _, p := range a.Event.ByRole(event.RoleOutgoingBeam1) {
		if !a.remnantPasses(p) {
			return false
		}
	}
	for _, p := range a.Event.ByRole(event.RoleOutgoingBeam2) {
		if !a.remnantPasses(p) {
			return false
		}
	}
	return true
}

func (a *Adapter) remnantPasses(p *event.Particle) bool {
	if !a.Kin.Remnants.Mass.Contains(p.Momentum.Mass()) {
		return false
	}
	if !a.Kin.Remnants.Rapidity.Contains(p.Momentum.Rapidity()) {
		return false
	}
	if !a.Kin.Remnants.Energy.Contains(p.Momentum.E) {
		return false
	}
	return true
}
