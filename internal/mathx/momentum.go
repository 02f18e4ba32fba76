// Package mathx implements the four-vector arithmetic shared by the
// kinematics and event packages: construction from various coordinate
// systems, Lorentz boosts and rotations, all ported from CepGen's
// Particle::Momentum (SPEC_FULL.md §3).
package mathx

import "math"

// Momentum is a four-momentum (px, py, pz, E) with a cached 3-momentum
// magnitude, recomputed whenever the spatial components change.
type Momentum struct {
	Px, Py, Pz, E float64
	p             float64 // cached |p|, kept in sync by recomputeP
}

// NewMomentum builds a momentum directly from its four Cartesian
// components.
func NewMomentum(px, py, pz, e float64) Momentum {
	m := Momentum{Px: px, Py: py, Pz: pz, E: e}
	m.recomputeP()
	return m
}

// FromPtEtaPhiE builds a momentum from transverse momentum, pseudorapidity
// and azimuth.
func FromPtEtaPhiE(pt, eta, phi, e float64) Momentum {
	px := pt * math.Cos(phi)
	py := pt * math.Sin(phi)
	pz := pt * math.Sinh(eta)
	return NewMomentum(px, py, pz, e)
}

// FromPThetaPhiE builds a momentum from the magnitude of the 3-momentum,
// the polar angle and the azimuth.
func FromPThetaPhiE(p, theta, phi, e float64) Momentum {
	px := p * math.Sin(theta) * math.Cos(phi)
	py := p * math.Sin(theta) * math.Sin(phi)
	pz := p * math.Cos(theta)
	return NewMomentum(px, py, pz, e)
}

// FromPxPyPzE is an alias for NewMomentum kept for symmetry with the other
// named constructors.
func FromPxPyPzE(px, py, pz, e float64) Momentum {
	return NewMomentum(px, py, pz, e)
}

func (m *Momentum) recomputeP() {
	m.p = math.Sqrt(m.Px*m.Px + m.Py*m.Py + m.Pz*m.Pz)
}

// P returns the cached 3-momentum magnitude.
func (m Momentum) P() float64 { return m.p }

// P2 returns |p|^2.
func (m Momentum) P2() float64 { return m.Px*m.Px + m.Py*m.Py + m.Pz*m.Pz }

// Pt returns the transverse momentum.
func (m Momentum) Pt() float64 { return math.Hypot(m.Px, m.Py) }

// Pt2 returns the squared transverse momentum.
func (m Momentum) Pt2() float64 { return m.Px*m.Px + m.Py*m.Py }

// Mass2 returns the invariant mass squared, E^2 - |p|^2, which may be
// negative for off-shell or numerically noisy momenta.
func (m Momentum) Mass2() float64 { return m.E*m.E - m.P2() }

// Mass returns sqrt(mass2) for on-shell momenta, or -sqrt(-mass2) when
// mass2 is negative, matching the sign convention used to flag
// space-like momenta without panicking on a negative sqrt argument.
func (m Momentum) Mass() float64 {
	if m2 := m.Mass2(); m2 >= 0 {
		return math.Sqrt(m2)
	}
	return -math.Sqrt(-m.Mass2())
}

// Theta returns the polar angle.
func (m Momentum) Theta() float64 { return math.Atan2(m.Pt(), m.Pz) }

// Phi returns the azimuthal angle.
func (m Momentum) Phi() float64 { return math.Atan2(m.Py, m.Px) }

// Eta returns the pseudorapidity, saturating at ±9999 along the beam axis.
func (m Momentum) Eta() float64 {
	sign := 1.0
	if m.Pz < 0 {
		sign = -1.0
	}
	if pt := m.Pt(); pt != 0 {
		return math.Log((m.P()+math.Abs(m.Pz))/pt) * sign
	}
	return 9999. * sign
}

// Rapidity returns the longitudinal rapidity.
func (m Momentum) Rapidity() float64 {
	if m.E < 0 {
		sign := 1.0
		if m.Pz < 0 {
			sign = -1.0
		}
		return 999. * sign
	}
	return 0.5 * math.Log((m.E+m.Pz)/(m.E-m.Pz))
}

// Add returns m+other without mutating either operand.
func (m Momentum) Add(other Momentum) Momentum {
	return NewMomentum(m.Px+other.Px, m.Py+other.Py, m.Pz+other.Pz, m.E+other.E)
}

// Sub returns m-other without mutating either operand.
func (m Momentum) Sub(other Momentum) Momentum {
	return NewMomentum(m.Px-other.Px, m.Py-other.Py, m.Pz-other.Pz, m.E-other.E)
}

// Scale returns m scaled by c (energy is left untouched, matching the
// 3-momentum-only scaling used when normalising direction vectors).
func (m Momentum) Scale(c float64) Momentum {
	out := NewMomentum(m.Px*c, m.Py*c, m.Pz*c, m.E)
	return out
}

// ThreeProduct returns the spatial dot product p.p'.
func (m Momentum) ThreeProduct(other Momentum) float64 {
	return m.Px*other.Px + m.Py*other.Py + m.Pz*other.Pz
}

// FourProduct returns the Minkowski product E*E' - p.p'.
func (m Momentum) FourProduct(other Momentum) float64 {
	return m.E*other.E - m.ThreeProduct(other)
}

// BetaGammaBoost applies a boost along z parameterised by gamma and
// beta*gamma, as used to move an event from the centre-of-mass frame to
// the lab frame.
func (m Momentum) BetaGammaBoost(gamma, betaGamma float64) Momentum {
	if gamma == 1 && betaGamma == 0 {
		return m
	}
	pz := gamma*m.Pz + betaGamma*m.E
	e := gamma*m.E + betaGamma*m.Pz
	return NewMomentum(m.Px, m.Py, pz, e)
}

// LorentzBoost boosts m into the rest frame of ref.
func (m Momentum) LorentzBoost(ref Momentum) Momentum {
	mass := ref.Mass()
	if mass == ref.E {
		return m
	}
	pf4 := m.FourProduct(ref) / mass
	fn := (pf4 + m.E) / (ref.E + mass)
	boosted := m.Sub(ref.Scale(fn))
	boosted.E = pf4
	boosted.recomputeP()
	return boosted
}

// RotatePhi rotates the transverse components by phi, with sign flipping
// the rotation direction (used to restore azimuthal symmetry broken
// during generation).
func (m Momentum) RotatePhi(phi, sign float64) Momentum {
	px := m.Px*math.Cos(phi) + m.Py*math.Sin(phi)*sign
	py := -m.Px*math.Sin(phi) + m.Py*math.Cos(phi)*sign
	return NewMomentum(px, py, m.Pz, m.E)
}

// RotateThetaPhi rotates the spatial components by the Euler angles
// (theta, phi), as used to align a two-body decay along the parent's
// direction of flight.
func (m Momentum) RotateThetaPhi(theta, phi float64) Momentum {
	var rot [3][3]float64
	rot[0][0] = -math.Sin(phi)
	rot[0][1] = -math.Cos(theta) * math.Cos(phi)
	rot[0][2] = math.Sin(theta) * math.Cos(phi)
	rot[1][0] = math.Cos(phi)
	rot[1][1] = -math.Cos(theta) * math.Sin(phi)
	rot[1][2] = math.Sin(theta) * math.Sin(phi)
	rot[2][0] = 0
	rot[2][1] = math.Sin(theta)
	rot[2][2] = math.Cos(theta)

	in := [3]float64{m.Px, m.Py, m.Pz}
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i] += rot[i][j] * in[j]
		}
	}
	return NewMomentum(out[0], out[1], out[2], m.E)
}

// SetMass2 adjusts E so that the momentum is on-shell with the given
// squared mass, holding the spatial components fixed.
func (m Momentum) SetMass2(m2 float64) Momentum {
	out := m
	out.E = math.Sqrt(m.P2() + m2)
	return out
}
