// Package event implements the in-memory event record: an ordered,
// role-tagged particle list with parentage bookkeeping, a freeze/restore
// lifecycle, and a compressed view for export (SPEC_FULL.md §4.H).
package event

import (
	"fmt"
	"sort"

	"github.com/cepgen/cepgen-go/internal/mathx"
)

// Role tags a particle's place in the collision topology.
type Role int

const (
	RoleIncomingBeam1 Role = iota
	RoleIncomingBeam2
	RoleParton1
	RoleParton2
	RoleIntermediate
	RoleOutgoingBeam1
	RoleOutgoingBeam2
	RoleCentralSystem
)

func (r Role) String() string {
	switch r {
	case RoleIncomingBeam1:
		return "incoming-beam-1"
	case RoleIncomingBeam2:
		return "incoming-beam-2"
	case RoleParton1:
		return "parton-1"
	case RoleParton2:
		return "parton-2"
	case RoleIntermediate:
		return "intermediate"
	case RoleOutgoingBeam1:
		return "outgoing-beam-1"
	case RoleOutgoingBeam2:
		return "outgoing-beam-2"
	case RoleCentralSystem:
		return "central-system"
	default:
		return "unknown"
	}
}

// Status is a particle's lifecycle stage.
type Status int

const (
	StatusPrimordialIncoming Status = iota
	StatusIncoming
	StatusPropagator
	StatusFinalState
	StatusUnfragmented
	StatusFragmented
	StatusResonance
	StatusDecayed
)

func (s Status) String() string {
	switch s {
	case StatusPrimordialIncoming:
		return "primordial-incoming"
	case StatusIncoming:
		return "incoming"
	case StatusPropagator:
		return "propagator"
	case StatusFinalState:
		return "final-state"
	case StatusUnfragmented:
		return "unfragmented"
	case StatusFragmented:
		return "fragmented"
	case StatusResonance:
		return "resonance"
	case StatusDecayed:
		return "decayed"
	default:
		return "unknown"
	}
}

// Particle is one entry in an Event's ordered particle list.
type Particle struct {
	ID       int
	Role     Role
	PdgID    int
	Charge   int
	Mass     float64
	Momentum mathx.Momentum
	Status   Status

	mothers  map[int]struct{}
	children map[int]struct{}
}

// SetPdgID sets the PDG id and, optionally, the particle's charge sign
// (stored as given in Charge), mirroring Particle::setPdgId(pdgid, charge_sign?).
func (p *Particle) SetPdgID(pdgID int, chargeSign ...int) {
	p.PdgID = pdgID
	if len(chargeSign) > 0 {
		p.Charge = chargeSign[0]
	}
}

// SetMomentum overwrites the particle's four-momentum.
func (p *Particle) SetMomentum(m mathx.Momentum) { p.Momentum = m }

// SetMass overwrites the particle's nominal mass.
func (p *Particle) SetMass(m float64) { p.Mass = m }

// SetStatus overwrites the particle's lifecycle status.
func (p *Particle) SetStatus(s Status) { p.Status = s }

// Mothers returns the particle's mother ids, sorted.
func (p *Particle) Mothers() []int { return sortedKeys(p.mothers) }

// Children returns the particle's child ids, sorted.
func (p *Particle) Children() []int { return sortedKeys(p.children) }

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Event is an ordered, role-tagged particle list with mutual parentage
// bookkeeping and a derived role index.
type Event struct {
	particles []*Particle
	byRole    map[Role][]*Particle
	frozen    bool

	// primordial holds a deep-enough snapshot of each particle's momentum,
	// mass and status at the moment the event was first filled, used by
	// Restore to reset generation state between candidate draws without
	// reallocating the particle list.
	primordial []primordialState
}

type primordialState struct {
	momentum mathx.Momentum
	mass     float64
	status   Status
}

// New returns an empty event.
func New() *Event {
	return &Event{byRole: make(map[Role][]*Particle)}
}

// AddParticle appends a new particle with the given role and returns a
// pointer to it. Its id equals the event's prior size. Panics if the
// event is frozen, matching the teacher's fail-fast posture on structural
// mutation after freeze.
func (e *Event) AddParticle(role Role) *Particle {
	if e.frozen {
		panic("event: AddParticle called on a frozen event")
	}
	p := &Particle{
		ID:       len(e.particles),
		Role:     role,
		mothers:  make(map[int]struct{}),
		children: make(map[int]struct{}),
	}
	e.particles = append(e.particles, p)
	e.byRole[role] = append(e.byRole[role], p)
	return p
}

// AddMother records a symmetric parent/child relationship between child
// and mother: mother gains child as a daughter, child gains mother as a
// parent.
func (e *Event) AddMother(child, mother *Particle) {
	child.mothers[mother.ID] = struct{}{}
	mother.children[child.ID] = struct{}{}
}

// Freeze switches the event to read-only for structural fields (particle
// count, roles, parentage); momentum and status updates remain permitted
// via Restore and the particle setters.
func (e *Event) Freeze() {
	if e.frozen {
		return
	}
	e.primordial = make([]primordialState, len(e.particles))
	for i, p := range e.particles {
		e.primordial[i] = primordialState{momentum: p.Momentum, mass: p.Mass, status: p.Status}
	}
	e.frozen = true
}

// Frozen reports whether the event has been frozen.
func (e *Event) Frozen() bool { return e.frozen }

// Restore resets every particle's momentum, mass and status to the
// snapshot captured at Freeze time, without reallocating the particle
// list. Panics if the event was never frozen.
func (e *Event) Restore() {
	if !e.frozen {
		panic("event: Restore called before Freeze")
	}
	for i, p := range e.particles {
		snap := e.primordial[i]
		p.Momentum = snap.momentum
		p.Mass = snap.mass
		p.Status = snap.status
	}
}

// ByRole returns the particles carrying the given role, in insertion
// order. The returned slice is a live view and must not be mutated.
func (e *Event) ByRole(role Role) []*Particle {
	return e.byRole[role]
}

// OneWithRole returns the single particle carrying role, erroring if zero
// or more than one particle carries it.
func (e *Event) OneWithRole(role Role) (*Particle, error) {
	ps := e.byRole[role]
	if len(ps) != 1 {
		return nil, fmt.Errorf("event: role %s has %d particles, want exactly 1", role, len(ps))
	}
	return ps[0], nil
}

// Particles returns every particle in insertion order. The returned slice
// is a live view and must not be mutated.
func (e *Event) Particles() []*Particle {
	return e.particles
}

// Compressed returns a copy of the event containing only primordial
// incoming and final-state particles, with parentage rewritten so that
// every surviving final-state particle is linked directly to the
// primordial incoming particles it actually descends from (traced through
// the removed intermediates).
func (e *Event) Compressed() *Event {
	out := New()
	oldToNew := make(map[int]int, len(e.particles))

	for _, p := range e.particles {
		if p.Status != StatusPrimordialIncoming && p.Status != StatusFinalState {
			continue
		}
		np := out.AddParticle(p.Role)
		np.PdgID, np.Charge, np.Mass, np.Momentum, np.Status = p.PdgID, p.Charge, p.Mass, p.Momentum, p.Status
		oldToNew[p.ID] = np.ID
	}

	byID := make(map[int]*Particle, len(e.particles))
	for _, p := range e.particles {
		byID[p.ID] = p
	}

	for _, p := range e.particles {
		if p.Status != StatusFinalState {
			continue
		}
		newChild, ok := oldToNew[p.ID]
		if !ok {
			continue
		}
		for _, rootID := range primordialAncestors(p, byID) {
			newParent, ok := oldToNew[rootID]
			if !ok {
				continue
			}
			out.AddMother(out.particles[newChild], out.particles[newParent])
		}
	}

	return out
}

// primordialAncestors walks the mother graph upward from p, returning the
// ids of every reachable particle with StatusPrimordialIncoming.
func primordialAncestors(p *Particle, byID map[int]*Particle) []int {
	seen := make(map[int]struct{})
	var roots []int
	var walk func(cur *Particle)
	walk = func(cur *Particle) {
		for _, motherID := range cur.Mothers() {
			if _, visited := seen[motherID]; visited {
				continue
			}
			seen[motherID] = struct{}{}
			mother, ok := byID[motherID]
			if !ok {
				continue
			}
			if mother.Status == StatusPrimordialIncoming {
				roots = append(roots, motherID)
			}
			walk(mother)
		}
	}
	walk(p)
	return roots
}
