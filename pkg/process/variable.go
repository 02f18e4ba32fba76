package process

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/cepgen/cepgen-go/pkg/kinematics"
)

// MappingType selects how a unit hypercube coordinate is transformed into
// a physical integration variable (SPEC_FULL.md §4.C).
type MappingType int

const (
	MappingLinear MappingType = iota
	MappingSquare
	MappingExponential
	MappingPowerLaw
)

func (m MappingType) String() string {
	switch m {
	case MappingLinear:
		return "linear"
	case MappingSquare:
		return "square"
	case MappingExponential:
		return "exponential"
	case MappingPowerLaw:
		return "power-law"
	default:
		return "unknown"
	}
}

// expLimitClamp bounds an exponential mapping's log-limits when a bound is
// exactly zero, since log(0) is undefined.
const expLimitClamp = 10.0

// Variable is one declared integration dimension: its mapping curve, the
// limits it was declared with, the base Jacobian accumulated once at
// declaration, and the output slot it writes into on every evaluation.
type Variable struct {
	Description string
	Mapping     MappingType
	Limits      kinematics.Limits
	Dimension   int

	baseJacobian float64
	// loLog/hiLog cache the (possibly clamped) log-limits for the
	// exponential mapping, computed once at declaration time.
	loLog, hiLog float64
	value        float64
}

// Value returns the variable's most recently mapped physical value.
func (v *Variable) Value() float64 { return v.value }

// DefineVariable declares integration dimension index dim with the given
// mapping, using userLimits when valid or fallbackLimits (with an audit
// log entry) otherwise. It returns the constructed Variable; the caller
// is responsible for assigning it the next free dimension index.
func DefineVariable(description string, mapping MappingType, userLimits, fallbackLimits kinematics.Limits, dim int) *Variable {
	limits := userLimits
	if !limits.Valid() || !limits.HasLower() || !limits.HasUpper() {
		log.Warn().
			Str("variable", description).
			Str("mapping", mapping.String()).
			Msg("invalid or incomplete limits; falling back to the process default range")
		limits = fallbackLimits
	}

	v := &Variable{Description: description, Mapping: mapping, Limits: limits, Dimension: dim}

	lo, hi := limits.Lower(), limits.Upper()
	switch mapping {
	case MappingLinear:
		v.baseJacobian = hi - lo
	case MappingSquare:
		v.baseJacobian = 2 * (hi - lo)
	case MappingExponential:
		v.loLog, v.hiLog = clampLog(lo), clampLog(hi)
		v.baseJacobian = v.hiLog - v.loLog
	case MappingPowerLaw:
		v.baseJacobian = math.Log(hi / lo)
	}

	return v
}

// clampLog returns log(|x|) clamped to ±expLimitClamp, and
// -expLimitClamp when x is zero, matching the edge case in
// SPEC_FULL.md §4.C.
func clampLog(x float64) float64 {
	if x == 0 {
		return -expLimitClamp
	}
	l := math.Log(math.Abs(x))
	if math.IsInf(l, -1) || l < -expLimitClamp {
		return -expLimitClamp
	}
	if l > expLimitClamp {
		return expLimitClamp
	}
	return l
}

// Map evaluates the variable at hypercube coordinate u in [0,1], storing
// the physical value and returning the point-dependent Jacobian factor.
// The caller multiplies this by the variable's BaseJacobian.
func (v *Variable) Map(u float64) (value, pointJacobian float64) {
	lo, hi := v.Limits.Lower(), v.Limits.Upper()
	switch v.Mapping {
	case MappingLinear:
		value = lo + u*(hi-lo)
		pointJacobian = 1
	case MappingSquare:
		value = math.Pow(lo+u*(hi-lo), 2)
		pointJacobian = math.Sqrt(value)
	case MappingExponential:
		value = math.Exp(v.loLog + u*(v.hiLog-v.loLog))
		pointJacobian = value
	case MappingPowerLaw:
		value = lo * math.Pow(hi/lo, u)
		pointJacobian = value
	}
	v.value = value
	return value, pointJacobian
}

// BaseJacobian returns the constant Jacobian factor accumulated at
// declaration time.
func (v *Variable) BaseJacobian() float64 { return v.baseJacobian }
