// Package kinematics implements the phase-space building blocks shared by
// every process: bounded intervals (Limits), beam/central-system/remnant
// cut configuration, and the run-wide kinematics tree validated out of a
// parameter bag (SPEC_FULL.md §3, §6 "Kinematics tree").
package kinematics

import (
	"fmt"
	"math"

	"github.com/cepgen/cepgen-go/pkg/errs"
)

// Limits is a pair (lo, hi) with either bound optionally absent.
type Limits struct {
	hasLo, hasHi bool
	lo, hi       float64
}

// NoLimits returns an unconstrained interval.
func NoLimits() Limits { return Limits{} }

// NewLimits constructs a fully-bounded interval. lo must not exceed hi.
func NewLimits(lo, hi float64) (Limits, error) {
	if lo > hi {
		return Limits{}, fmt.Errorf("%w: invalid limits ordering: lo=%g > hi=%g", errs.ErrKinematics, lo, hi)
	}
	return Limits{hasLo: true, hasHi: true, lo: lo, hi: hi}, nil
}

// LowerOnly constructs a half-open interval [lo, +inf).
func LowerOnly(lo float64) Limits { return Limits{hasLo: true, lo: lo} }

// UpperOnly constructs a half-open interval (-inf, hi].
func UpperOnly(hi float64) Limits { return Limits{hasHi: true, hi: hi} }

// HasLower reports whether the lower bound is set.
func (l Limits) HasLower() bool { return l.hasLo }

// HasUpper reports whether the upper bound is set.
func (l Limits) HasUpper() bool { return l.hasHi }

// Lower returns the lower bound, or -Inf if absent.
func (l Limits) Lower() float64 {
	if !l.hasLo {
		return math.Inf(-1)
	}
	return l.lo
}

// Upper returns the upper bound, or +Inf if absent.
func (l Limits) Upper() float64 {
	if !l.hasHi {
		return math.Inf(1)
	}
	return l.hi
}

// Valid reports whether the interval is non-empty: either bound may be
// absent, but when both are present lo must not exceed hi.
func (l Limits) Valid() bool {
	if l.hasLo && l.hasHi {
		return l.lo <= l.hi
	}
	return true
}

// Contains reports whether x falls within the interval, inclusive of both
// bounds.
func (l Limits) Contains(x float64) bool {
	if l.hasLo && x < l.lo {
		return false
	}
	if l.hasHi && x > l.hi {
		return false
	}
	return true
}

// Range returns hi - lo. Both bounds must be present; callers that declare
// integration variables always supply fully-bounded limits (HasLower and
// HasUpper both true) before calling Range or X.
func (l Limits) Range() float64 {
	return l.hi - l.lo
}

// X maps u in [0,1] linearly onto the interval: lo + u*range().
func (l Limits) X(u float64) float64 {
	return l.lo + u*l.Range()
}

// String renders the interval for diagnostics, e.g. "[1, 5]" or "[-inf, 5]".
func (l Limits) String() string {
	lo := "-inf"
	if l.hasLo {
		lo = fmt.Sprintf("%g", l.lo)
	}
	hi := "+inf"
	if l.hasHi {
		hi = fmt.Sprintf("%g", l.hi)
	}
	return fmt.Sprintf("[%s, %s]", lo, hi)
}
