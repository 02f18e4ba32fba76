package process

import (
	"math"

	"github.com/cepgen/cepgen-go/internal/mathx"
	"github.com/cepgen/cepgen-go/pkg/event"
	"github.com/cepgen/cepgen-go/pkg/kinematics"
	"github.com/cepgen/cepgen-go/pkg/params"
	"github.com/cepgen/cepgen-go/pkg/registry"
)

// Registry is the process factory, parameterised by the Process
// interface, mirroring CepGen's ModuleFactory<cepgen::Process>.
var Registry = registry.New[Process]()

func init() {
	Registry.Register("unit", func(bag *params.Bag) (Process, error) {
		return &unitProcess{}, nil
	}, params.NewSchema("unit"))

	Registry.Register("polynomial", func(bag *params.Bag) (Process, error) {
		return &polynomialProcess{}, nil
	}, params.NewSchema("polynomial"))

	Registry.Register("trig-peak", func(bag *params.Bag) (Process, error) {
		return &trigPeakProcess{}, nil
	}, params.NewSchema("trig-peak"))

	twoBodySchema := params.NewSchema("two-body").
		Field("sqrt_s", params.FieldDescription{Kind: params.KindFloat, HasDefault: true, Default: params.FloatValue(13000)}).
		Field("mass", params.FieldDescription{Kind: params.KindFloat, HasDefault: true, Default: params.FloatValue(91.1876)})
	Registry.Register("two-body", func(bag *params.Bag) (Process, error) {
		sqrtS, _ := params.Get[float64](bag, "sqrt_s")
		mass, _ := params.Get[float64](bag, "mass")
		return &twoBodyProcess{sqrtS: sqrtS, mass: mass}, nil
	}, twoBodySchema)
}

// unitProcess is the trivial weight-1 process over [0,1]^3: its integral
// is exactly the volume of its declared domain, useful for exercising the
// integrator/grid machinery against a known closed-form answer.
type unitProcess struct {
	Base
}

func (p *unitProcess) AddEventContent(e *event.Event) {
	e.AddParticle(event.RoleCentralSystem)
}

func (p *unitProcess) PrepareKinematics(kin *kinematics.Tree) error {
	p.Kin = kin
	lim, _ := kinematics.NewLimits(0, 1)
	p.Declare("x", MappingLinear, kinematics.NoLimits(), lim)
	p.Declare("y", MappingLinear, kinematics.NoLimits(), lim)
	p.Declare("z", MappingLinear, kinematics.NoLimits(), lim)
	return nil
}

func (p *unitProcess) ComputeWeight() float64 { return 1 }

func (p *unitProcess) FillKinematics(e *event.Event) {
	central, err := e.OneWithRole(event.RoleCentralSystem)
	if err != nil {
		return
	}
	x, y, z := p.Variables[0].Value(), p.Variables[1].Value(), p.Variables[2].Value()
	central.SetMomentum(mathx.NewMomentum(x, y, z, math.Sqrt(x*x+y*y+z*z)))
}

func (p *unitProcess) Clone() Process { return &unitProcess{Base: p.CloneBase()} }

// polynomialProcess evaluates x^2 + y^2 + z^3 over [0,1]^3, a smooth
// non-uniform integrand exercising the integrator and grid machinery.
type polynomialProcess struct {
	Base
}

func (p *polynomialProcess) AddEventContent(e *event.Event) {
	e.AddParticle(event.RoleCentralSystem)
}

func (p *polynomialProcess) PrepareKinematics(kin *kinematics.Tree) error {
	p.Kin = kin
	lim, _ := kinematics.NewLimits(0, 1)
	p.Declare("x", MappingLinear, kinematics.NoLimits(), lim)
	p.Declare("y", MappingLinear, kinematics.NoLimits(), lim)
	p.Declare("z", MappingLinear, kinematics.NoLimits(), lim)
	return nil
}

func (p *polynomialProcess) ComputeWeight() float64 {
	x, y, z := p.Variables[0].Value(), p.Variables[1].Value(), p.Variables[2].Value()
	return x*x + y*y + z*z*z
}

func (p *polynomialProcess) FillKinematics(e *event.Event) {
	central, err := e.OneWithRole(event.RoleCentralSystem)
	if err != nil {
		return
	}
	x, y, z := p.Variables[0].Value(), p.Variables[1].Value(), p.Variables[2].Value()
	central.SetMomentum(mathx.NewMomentum(x, y, z, math.Sqrt(x*x+y*y+z*z)))
}

func (p *polynomialProcess) Clone() Process { return &polynomialProcess{Base: p.CloneBase()} }

// trigPeakProcess evaluates 1 / (1 - cos(pi*x)*cos(pi*y)*cos(pi*z)) over
// (0,1)^3, a sharply peaked integrand used to stress-test the
// correction-cycle state machine's handling of a new global maximum.
type trigPeakProcess struct {
	Base
}

func (p *trigPeakProcess) AddEventContent(e *event.Event) {
	e.AddParticle(event.RoleCentralSystem)
}

func (p *trigPeakProcess) PrepareKinematics(kin *kinematics.Tree) error {
	p.Kin = kin
	lim, _ := kinematics.NewLimits(0, 1)
	p.Declare("x", MappingLinear, kinematics.NoLimits(), lim)
	p.Declare("y", MappingLinear, kinematics.NoLimits(), lim)
	p.Declare("z", MappingLinear, kinematics.NoLimits(), lim)
	return nil
}

func (p *trigPeakProcess) ComputeWeight() float64 {
	x, y, z := p.Variables[0].Value(), p.Variables[1].Value(), p.Variables[2].Value()
	denom := 1 - math.Cos(math.Pi*x)*math.Cos(math.Pi*y)*math.Cos(math.Pi*z)
	if denom <= 0 {
		return 0
	}
	return 1 / denom
}

func (p *trigPeakProcess) FillKinematics(e *event.Event) {
	central, err := e.OneWithRole(event.RoleCentralSystem)
	if err != nil {
		return
	}
	x, y, z := p.Variables[0].Value(), p.Variables[1].Value(), p.Variables[2].Value()
	central.SetMomentum(mathx.NewMomentum(x, y, z, math.Sqrt(x*x+y*y+z*z)))
}

func (p *trigPeakProcess) Clone() Process { return &trigPeakProcess{Base: p.CloneBase()} }

// twoBodyProcess generates a flat two-body decay of a resonance of fixed
// mass produced at rest in a sqrtS collision, with a configurable
// transverse-momentum cut applied as part of ComputeWeight. The decay
// products are built directly in the resonance rest frame; no boost is
// applied.
type twoBodyProcess struct {
	Base
	sqrtS, mass float64
	ptCut       float64

	costheta, phi float64
}

func (p *twoBodyProcess) AddEventContent(e *event.Event) {
	beam1 := e.AddParticle(event.RoleIncomingBeam1)
	beam1.SetStatus(event.StatusPrimordialIncoming)
	beam2 := e.AddParticle(event.RoleIncomingBeam2)
	beam2.SetStatus(event.StatusPrimordialIncoming)

	out1 := e.AddParticle(event.RoleOutgoingBeam1)
	out1.SetStatus(event.StatusFinalState)
	e.AddMother(out1, beam1)
	e.AddMother(out1, beam2)

	out2 := e.AddParticle(event.RoleOutgoingBeam2)
	out2.SetStatus(event.StatusFinalState)
	e.AddMother(out2, beam1)
	e.AddMother(out2, beam2)
}

func (p *twoBodyProcess) PrepareKinematics(kin *kinematics.Tree) error {
	p.Kin = kin
	if kin != nil && kin.Central.Pt.HasLower() {
		p.ptCut = kin.Central.Pt.Lower()
	}
	cosLim, _ := kinematics.NewLimits(-1, 1)
	phiLim, _ := kinematics.NewLimits(0, 2*math.Pi)
	p.Declare("costheta", MappingLinear, kinematics.NoLimits(), cosLim)
	p.Declare("phi", MappingLinear, kinematics.NoLimits(), phiLim)
	return nil
}

func (p *twoBodyProcess) ComputeWeight() float64 {
	p.costheta = p.Variables[0].Value()
	p.phi = p.Variables[1].Value()

	halfMass := p.mass / 2
	sintheta := math.Sqrt(1 - p.costheta*p.costheta)
	pt := halfMass * sintheta
	if p.ptCut > 0 && pt < p.ptCut {
		return 0
	}
	return 1
}

func (p *twoBodyProcess) FillKinematics(e *event.Event) {
	out1, err := e.OneWithRole(event.RoleOutgoingBeam1)
	if err != nil {
		return
	}
	out2, err := e.OneWithRole(event.RoleOutgoingBeam2)
	if err != nil {
		return
	}

	halfMass := p.mass / 2
	mom1 := mathx.FromPThetaPhiE(halfMass, math.Acos(p.costheta), p.phi, halfMass)
	mom2 := mathx.FromPThetaPhiE(halfMass, math.Pi-math.Acos(p.costheta), p.phi+math.Pi, halfMass)

	out1.SetMomentum(mom1)
	out2.SetMomentum(mom2)
}

func (p *twoBodyProcess) Clone() Process {
	return &twoBodyProcess{Base: p.CloneBase(), sqrtS: p.sqrtS, mass: p.mass, ptCut: p.ptCut}
}
