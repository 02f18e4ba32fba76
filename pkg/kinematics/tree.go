package kinematics

import (
	"fmt"
	"math"

	"github.com/cepgen/cepgen-go/pkg/errs"
	"github.com/cepgen/cepgen-go/pkg/params"
)

// Mode describes which side(s) of the collision fragment into a hadronic
// remnant versus stay intact (elastic).
type Mode int

const (
	ElasticElastic Mode = iota
	ElasticInelastic
	InelasticElastic
	InelasticInelastic
)

func (m Mode) String() string {
	switch m {
	case ElasticElastic:
		return "elastic-elastic"
	case ElasticInelastic:
		return "elastic-inelastic"
	case InelasticElastic:
		return "inelastic-elastic"
	case InelasticInelastic:
		return "inelastic-inelastic"
	default:
		return "unknown"
	}
}

func modeFromString(s string) (Mode, error) {
	switch s {
	case "elastic-elastic":
		return ElasticElastic, nil
	case "elastic-inelastic":
		return ElasticInelastic, nil
	case "inelastic-elastic":
		return InelasticElastic, nil
	case "inelastic-inelastic":
		return InelasticInelastic, nil
	default:
		return 0, fmt.Errorf("%w: unrecognised kinematics mode %q", errs.ErrConfiguration, s)
	}
}

// Beam describes one incoming beam particle.
type Beam struct {
	PdgID int
	Pz    float64
}

// CentralCuts bounds the kinematics of the central (hard-process) system.
type CentralCuts struct {
	Pt, Eta, Rapidity, Energy, Mass Limits
}

// RemnantCuts bounds the kinematics of a dissociated beam remnant.
type RemnantCuts struct {
	Mass, Rapidity, Energy Limits
}

// Tree is the validated kinematics configuration for a run: beams, the
// elastic/inelastic mode, and cuts on the central system and remnants.
type Tree struct {
	Beam1, Beam2 Beam
	Mode         Mode
	Central      CentralCuts
	Remnants     RemnantCuts
}

// Schema returns the parameter-bag schema describing the kinematics tree,
// for composition into the top-level run-card schema (SPEC_FULL.md §6).
func Schema() *params.Schema {
	beam1 := params.NewSchema("beam1").
		Field("pdg_id", params.FieldDescription{Kind: params.KindInt, HasDefault: true, Default: params.IntValue(2212)}).
		Field("pz", params.FieldDescription{Kind: params.KindFloat, HasDefault: true, Default: params.FloatValue(6500)})
	beam2 := beam1

	// An infinite default bound stands for an absent one (see FromBag).
	limitsSchema := func(name string) *params.Schema {
		return params.NewSchema(name).
			Field("lo", params.FieldDescription{Kind: params.KindFloat, HasDefault: true, Default: params.FloatValue(math.Inf(-1))}).
			Field("hi", params.FieldDescription{Kind: params.KindFloat, HasDefault: true, Default: params.FloatValue(math.Inf(1))})
	}
	limitsField := func(name string) params.FieldDescription {
		return params.FieldDescription{Kind: params.KindBag, HasDefault: true, Default: params.BagValue(params.New()), Child: limitsSchema(name)}
	}

	central := params.NewSchema("central").
		Field("pt", limitsField("pt")).
		Field("eta", limitsField("eta")).
		Field("rapidity", limitsField("rapidity")).
		Field("energy", limitsField("energy")).
		Field("mass", limitsField("mass"))

	remnants := params.NewSchema("remnants").
		Field("mass", limitsField("mass")).
		Field("rapidity", limitsField("rapidity")).
		Field("energy", limitsField("energy"))

	return params.NewSchema("kinematics").
		Field("beam1", params.FieldDescription{Kind: params.KindBag, HasDefault: true, Default: params.BagValue(params.New()), Child: beam1}).
		Field("beam2", params.FieldDescription{Kind: params.KindBag, HasDefault: true, Default: params.BagValue(params.New()), Child: beam2}).
		Field("mode", params.FieldDescription{
			Kind: params.KindString, HasDefault: true, Default: params.StringValue("elastic-elastic"),
			Allowed: []params.Value{
				params.StringValue("elastic-elastic"),
				params.StringValue("elastic-inelastic"),
				params.StringValue("inelastic-elastic"),
				params.StringValue("inelastic-inelastic"),
			},
		}).
		Field("central", params.FieldDescription{Kind: params.KindBag, HasDefault: true, Default: params.BagValue(params.New()), Child: central}).
		Field("remnants", params.FieldDescription{Kind: params.KindBag, HasDefault: true, Default: params.BagValue(params.New()), Child: remnants})
}

// FromBag validates bag against Schema() and builds a Tree from it.
func FromBag(bag *params.Bag) (*Tree, error) {
	validated, err := Schema().Validate(bag)
	if err != nil {
		return nil, err
	}

	b1, _ := params.Get[*params.Bag](validated, "beam1")
	b2, _ := params.Get[*params.Bag](validated, "beam2")
	modeStr, _ := params.Get[string](validated, "mode")
	mode, err := modeFromString(modeStr)
	if err != nil {
		return nil, err
	}
	centralBag, _ := params.Get[*params.Bag](validated, "central")
	remnantsBag, _ := params.Get[*params.Bag](validated, "remnants")

	readLimits := func(bag *params.Bag, key string) (Limits, error) {
		child, err := params.Get[*params.Bag](bag, key)
		if err != nil {
			return NoLimits(), nil
		}
		lo := params.GetOr(child, "lo", math.Inf(-1))
		hi := params.GetOr(child, "hi", math.Inf(1))
		hasLo, hasHi := !math.IsInf(lo, 0), !math.IsInf(hi, 0)
		switch {
		case hasLo && hasHi:
			return NewLimits(lo, hi)
		case hasLo:
			return LowerOnly(lo), nil
		case hasHi:
			return UpperOnly(hi), nil
		default:
			return NoLimits(), nil
		}
	}

	central := CentralCuts{}
	for field, dst := range map[string]*Limits{
		"pt": &central.Pt, "eta": &central.Eta, "rapidity": &central.Rapidity,
		"energy": &central.Energy, "mass": &central.Mass,
	} {
		lim, err := readLimits(centralBag, field)
		if err != nil {
			return nil, err
		}
		*dst = lim
	}

	remnants := RemnantCuts{}
	for field, dst := range map[string]*Limits{
		"mass": &remnants.Mass, "rapidity": &remnants.Rapidity, "energy": &remnants.Energy,
	} {
		lim, err := readLimits(remnantsBag, field)
		if err != nil {
			return nil, err
		}
		*dst = lim
	}

	return &Tree{
		Beam1:    Beam{PdgID: params.GetOr(b1, "pdg_id", 2212), Pz: params.GetOr(b1, "pz", 6500.0)},
		Beam2:    Beam{PdgID: params.GetOr(b2, "pdg_id", 2212), Pz: params.GetOr(b2, "pz", 6500.0)},
		Mode:     mode,
		Central:  central,
		Remnants: remnants,
	}, nil
}
