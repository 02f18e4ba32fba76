package process

import (
	"math"
	"testing"

	"github.com/cepgen/cepgen-go/pkg/event"
	"github.com/cepgen/cepgen-go/pkg/kinematics"
)

func TestLinearMappingBaseJacobian(t *testing.T) {
	lim, _ := kinematics.NewLimits(2, 10)
	v := DefineVariable("x", MappingLinear, lim, kinematics.NoLimits(), 0)
	if v.BaseJacobian() != 8 {
		t.Fatalf("BaseJacobian() = %v, want 8", v.BaseJacobian())
	}
	value, pointJ := v.Map(0.5)
	if value != 6 || pointJ != 1 {
		t.Fatalf("Map(0.5) = %v, %v, want 6, 1", value, pointJ)
	}
}

func TestSquareMappingPointJacobian(t *testing.T) {
	lim, _ := kinematics.NewLimits(0, 4)
	v := DefineVariable("x", MappingSquare, lim, kinematics.NoLimits(), 0)
	if v.BaseJacobian() != 8 {
		t.Fatalf("BaseJacobian() = %v, want 8", v.BaseJacobian())
	}
	value, pointJ := v.Map(1.0)
	wantValue := 16.0
	if value != wantValue {
		t.Fatalf("Map(1.0) value = %v, want %v", value, wantValue)
	}
	if pointJ != math.Sqrt(wantValue) {
		t.Fatalf("Map(1.0) pointJacobian = %v, want sqrt(value)", pointJ)
	}
}

func TestExponentialMappingClampsZeroBound(t *testing.T) {
	lim, _ := kinematics.NewLimits(0, math.E)
	v := DefineVariable("x", MappingExponential, lim, kinematics.NoLimits(), 0)
	if v.loLog != -expLimitClamp {
		t.Fatalf("loLog = %v, want clamped to %v", v.loLog, -expLimitClamp)
	}
}

func TestPowerLawMapping(t *testing.T) {
	lim, _ := kinematics.NewLimits(1, math.E*math.E)
	v := DefineVariable("x", MappingPowerLaw, lim, kinematics.NoLimits(), 0)
	value, pointJ := v.Map(0.5)
	if math.Abs(value-math.E) > 1e-9 {
		t.Fatalf("Map(0.5) value = %v, want e", value)
	}
	if pointJ != value {
		t.Fatalf("power-law point Jacobian = %v, want equal to value %v", pointJ, value)
	}
}

func TestInvalidLimitsFallBack(t *testing.T) {
	fallback, _ := kinematics.NewLimits(0, 1)
	v := DefineVariable("x", MappingLinear, kinematics.NoLimits(), fallback, 0)
	if v.Limits.Upper() != 1 {
		t.Fatalf("invalid user limits should fall back to the supplied fallback, got %v", v.Limits)
	}
}

func TestUnitProcessIntegratesToOne(t *testing.T) {
	p := &unitProcess{}
	if err := p.PrepareKinematics(nil); err != nil {
		t.Fatalf("PrepareKinematics failed: %v", err)
	}
	if p.NDim() != 3 {
		t.Fatalf("NDim() = %d, want 3", p.NDim())
	}
	jacobian := p.SetPoint([]float64{0.5, 0.5, 0.5})
	if jacobian != 1 {
		t.Fatalf("SetPoint jacobian for a [0,1]^3 unit process = %v, want 1", jacobian)
	}
	if p.ComputeWeight() != 1 {
		t.Fatalf("ComputeWeight() = %v, want 1", p.ComputeWeight())
	}
}

func TestProcessCloneIsIndependent(t *testing.T) {
	p := &polynomialProcess{}
	if err := p.PrepareKinematics(nil); err != nil {
		t.Fatalf("PrepareKinematics failed: %v", err)
	}
	p.SetPoint([]float64{0.1, 0.2, 0.3})

	clone := p.Clone().(*polynomialProcess)
	clone.SetPoint([]float64{0.9, 0.9, 0.9})

	if p.Variables[0].Value() == clone.Variables[0].Value() {
		t.Fatal("clone and original should not share Variable state after independent SetPoint calls")
	}
}

func TestTwoBodyProcessAppliesPtCut(t *testing.T) {
	kin, err := kinematics.FromBag(nil)
	if err != nil {
		t.Fatalf("FromBag failed: %v", err)
	}
	kin.Central.Pt = kinematics.LowerOnly(1000) // impossibly high cut

	p := &twoBodyProcess{mass: 91.1876}
	if err := p.PrepareKinematics(kin); err != nil {
		t.Fatalf("PrepareKinematics failed: %v", err)
	}
	p.SetPoint([]float64{0.5, 0.25})
	if w := p.ComputeWeight(); w != 0 {
		t.Fatalf("ComputeWeight() with an impossible pt cut = %v, want 0", w)
	}
}

func TestTwoBodyProcessFillsBackToBackMomenta(t *testing.T) {
	p := &twoBodyProcess{mass: 91.1876}
	if err := p.PrepareKinematics(nil); err != nil {
		t.Fatalf("PrepareKinematics failed: %v", err)
	}
	e := event.New()
	p.AddEventContent(e)
	p.SetPoint([]float64{0.5, 0.25})
	p.ComputeWeight()
	p.FillKinematics(e)

	out1, _ := e.OneWithRole(event.RoleOutgoingBeam1)
	out2, _ := e.OneWithRole(event.RoleOutgoingBeam2)

	sum := out1.Momentum.Add(out2.Momentum)
	if math.Abs(sum.Px) > 1e-9 || math.Abs(sum.Py) > 1e-9 || math.Abs(sum.Pz) > 1e-9 {
		t.Fatalf("back-to-back decay products should sum to zero 3-momentum, got %+v", sum)
	}
}
