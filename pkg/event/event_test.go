package event

import (
	"testing"

	"github.com/cepgen/cepgen-go/internal/mathx"
)

func buildSimpleEvent() *Event {
	e := New()
	beam1 := e.AddParticle(RoleIncomingBeam1)
	beam1.SetStatus(StatusPrimordialIncoming)
	beam1.SetPdgID(2212, 1)
	beam1.SetMomentum(mathx.NewMomentum(0, 0, 6500, 6500))

	beam2 := e.AddParticle(RoleIncomingBeam2)
	beam2.SetStatus(StatusPrimordialIncoming)
	beam2.SetPdgID(2212, 1)
	beam2.SetMomentum(mathx.NewMomentum(0, 0, -6500, 6500))

	inter := e.AddParticle(RoleIntermediate)
	inter.SetStatus(StatusPropagator)
	e.AddMother(inter, beam1)
	e.AddMother(inter, beam2)

	out1 := e.AddParticle(RoleOutgoingBeam1)
	out1.SetStatus(StatusFinalState)
	e.AddMother(out1, inter)

	out2 := e.AddParticle(RoleOutgoingBeam2)
	out2.SetStatus(StatusFinalState)
	e.AddMother(out2, inter)

	return e
}

func TestAddParticleAssignsSequentialIDs(t *testing.T) {
	e := New()
	p0 := e.AddParticle(RoleIncomingBeam1)
	p1 := e.AddParticle(RoleIncomingBeam2)
	if p0.ID != 0 || p1.ID != 1 {
		t.Fatalf("ids = %d, %d, want 0, 1", p0.ID, p1.ID)
	}
}

func TestAddMotherIsSymmetric(t *testing.T) {
	e := New()
	mother := e.AddParticle(RoleIncomingBeam1)
	child := e.AddParticle(RoleOutgoingBeam1)
	e.AddMother(child, mother)

	if got := child.Mothers(); len(got) != 1 || got[0] != mother.ID {
		t.Fatalf("child.Mothers() = %v, want [%d]", got, mother.ID)
	}
	if got := mother.Children(); len(got) != 1 || got[0] != child.ID {
		t.Fatalf("mother.Children() = %v, want [%d]", got, child.ID)
	}
}

func TestFreezePanicsOnAddParticle(t *testing.T) {
	e := New()
	e.AddParticle(RoleIncomingBeam1)
	e.Freeze()

	defer func() {
		if recover() == nil {
			t.Fatal("AddParticle after Freeze should panic")
		}
	}()
	e.AddParticle(RoleIncomingBeam2)
}

func TestRestoreResetsMomentumAndStatus(t *testing.T) {
	e := New()
	p := e.AddParticle(RoleCentralSystem)
	p.SetMomentum(mathx.NewMomentum(1, 2, 3, 10))
	p.SetStatus(StatusIncoming)
	e.Freeze()

	p.SetMomentum(mathx.NewMomentum(99, 99, 99, 99))
	p.SetStatus(StatusDecayed)
	e.Restore()

	if p.Momentum.Px != 1 || p.Status != StatusIncoming {
		t.Fatalf("after Restore: momentum=%+v status=%v", p.Momentum, p.Status)
	}
}

func TestOneWithRoleUniqueness(t *testing.T) {
	e := New()
	e.AddParticle(RoleIncomingBeam1)
	if _, err := e.OneWithRole(RoleIncomingBeam1); err != nil {
		t.Fatalf("OneWithRole with a single particle failed: %v", err)
	}
	e.AddParticle(RoleIncomingBeam1)
	if _, err := e.OneWithRole(RoleIncomingBeam1); err == nil {
		t.Fatal("OneWithRole with two particles sharing a role should error")
	}
}

func TestCompressedKeepsOnlyPrimordialAndFinalState(t *testing.T) {
	e := buildSimpleEvent()
	c := e.Compressed()

	if len(c.Particles()) != 4 {
		t.Fatalf("Compressed() kept %d particles, want 4 (2 primordial + 2 final-state)", len(c.Particles()))
	}
	for _, p := range c.Particles() {
		if p.Status != StatusPrimordialIncoming && p.Status != StatusFinalState {
			t.Fatalf("Compressed() kept a particle with status %v", p.Status)
		}
	}
}

func TestCompressedRewritesParentage(t *testing.T) {
	e := buildSimpleEvent()
	c := e.Compressed()

	for _, p := range c.Particles() {
		if p.Status != StatusFinalState {
			continue
		}
		mothers := p.Mothers()
		if len(mothers) != 2 {
			t.Fatalf("final-state particle %d has %d mothers after compression, want 2 primordial beams", p.ID, len(mothers))
		}
		for _, mid := range mothers {
			if c.particles[mid].Status != StatusPrimordialIncoming {
				t.Fatalf("compressed mother %d is not primordial incoming", mid)
			}
		}
	}
}
