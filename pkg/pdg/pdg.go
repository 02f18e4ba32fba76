// Package pdg parses fixed-column MCD particle-data files and exposes a
// mass/width/charge lookup by PDG id, grounded on CepGen's
// pdg::MCDFileParser and cepgen::PDG singleton
// (original_source/CepGen/Physics/MCDFileParser.cpp,
// original_source/CepGen/Physics/PDG.h).
package pdg

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cepgen/cepgen-go/pkg/errs"
)

// Column boundaries of an MCD file line, matching MCDFileParser.h's
// PDG_BEG/PDG_END/MASS_BEG/MASS_END/WIDTH_BEG/WIDTH_END/AUX_BEG exactly
// (0-indexed here; the original's byte offsets are 1-indexed into a
// Fortran-style fixed-width record).
const (
	colPDGBegin   = 0
	colPDGEnd     = 32
	colMassBegin  = 32
	colMassEnd    = 69
	colWidthBegin = 69
	colWidthEnd   = 106
	colAuxBegin   = 106
)

// chargeCodes maps an MCD charge token to a charge value in units of
// e/3 (e.g. "+2/3" -> +2, "-" -> -3 meaning -1e), verbatim from
// MCDFileParser::MAP_CHARGE_STR.
var chargeCodes = map[string]int{
	"-": -3, "--": -6, "+": 3, "++": 6, "0": 0,
	"-1/3": -1, "-2/3": -2, "+1/3": 1, "+2/3": 2,
}

// Properties describes one particle species: its mass and width in GeV,
// the electric charges (in units of e/3) its particle/antiparticle pair
// carry, and whether it is a colour-triplet fermion (quark/lepton) for
// downstream QCD-aware processes.
type Properties struct {
	PdgID   int
	Name    string
	Mass    float64
	Width   float64
	Charges []int
	Colours int
	Fermion bool
}

// Database is a PDG-id-keyed particle property table, the Go analogue
// of CepGen's PDG singleton.
type Database struct {
	entries map[int]Properties
}

// NewDatabase returns an empty database.
func NewDatabase() *Database {
	return &Database{entries: make(map[int]Properties)}
}

// Define registers or overwrites a particle's properties.
func (d *Database) Define(p Properties) {
	d.entries[p.PdgID] = p
}

// Get retrieves a particle's properties by PDG id.
func (d *Database) Get(pdgID int) (Properties, bool) {
	p, ok := d.entries[pdgID]
	return p, ok
}

// Mass returns a particle's mass in GeV, or 0 if unknown.
func (d *Database) Mass(pdgID int) float64 {
	return d.entries[pdgID].Mass
}

// Width returns a particle's width in GeV, or 0 if unknown.
func (d *Database) Width(pdgID int) float64 {
	return d.entries[pdgID].Width
}

// Charges returns a particle's electric charges in units of e/3, or nil
// if unknown.
func (d *Database) Charges(pdgID int) []int {
	return d.entries[pdgID].Charges
}

// Size returns the number of distinct PDG ids defined.
func (d *Database) Size() int {
	return len(d.entries)
}

// colourAndFermion assigns the colour multiplicity and fermion flag
// CepGen hardcodes per PDG-id range: quarks (1-6) are colour triplets,
// charged leptons/neutrinos (11-16) are colourless fermions, the gluon
// (21) is a colour octet-plus-one boson, everything else defaults to a
// colourless boson.
func colourAndFermion(pdgID int) (colours int, fermion bool) {
	switch {
	case pdgID >= 1 && pdgID <= 6:
		return 3, true
	case pdgID >= 11 && pdgID <= 16:
		return 1, true
	case pdgID == 21:
		return 9, false
	default:
		return 1, false
	}
}

// ParseFile parses an MCD-format particle data file at path and defines
// every particle it describes on db.
func (d *Database) ParseFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening MCD file %q: %v", errs.ErrConfiguration, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" || line[0] == '*' {
			continue
		}
		if err := d.parseLine(line); err != nil {
			return fmt.Errorf("%w: MCD file %q, line %d: %v", errs.ErrConfiguration, path, lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: reading MCD file %q: %v", errs.ErrConfiguration, path, err)
	}
	return nil
}

func (d *Database) parseLine(line string) error {
	pdgIDs, err := splitInts(sliceColumn(line, colPDGBegin, colPDGEnd))
	if err != nil {
		return fmt.Errorf("parsing PDG ids: %w", err)
	}

	mass := parseLeadingFloat(sliceColumn(line, colMassBegin, colMassEnd))
	width := parseLeadingFloat(sliceColumn(line, colWidthBegin, colWidthEnd))

	aux := ""
	if len(line) > colAuxBegin {
		aux = line[colAuxBegin:]
	}
	name, charges, err := parseNameAndCharges(aux)
	if err != nil {
		return err
	}
	if len(pdgIDs) != len(charges) {
		return fmt.Errorf("mismatched PDG id / charge counts: %d != %d", len(pdgIDs), len(charges))
	}

	for i, id := range pdgIDs {
		colours, fermion := colourAndFermion(id)
		p := Properties{
			PdgID:   id,
			Name:    name,
			Mass:    mass,
			Width:   width,
			Colours: colours,
			Fermion: fermion,
		}
		if ch := charges[i]; ch != 0 {
			p.Charges = []int{ch, -ch}
		}
		d.Define(p)
	}
	return nil
}

func sliceColumn(line string, begin, end int) string {
	if begin >= len(line) {
		return ""
	}
	if end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(line[begin:end])
}

func splitInts(field string) ([]int, error) {
	var out []int
	for _, tok := range strings.Fields(field) {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("invalid PDG id %q: %w", tok, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseLeadingFloat reads the first whitespace-separated token of field
// as a float, ignoring the low/high uncertainty columns that may follow
// it (unused downstream, as in the original parser).
func parseLeadingFloat(field string) float64 {
	tok := strings.Fields(field)
	if len(tok) == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(tok[0], 64)
	if err != nil {
		return 0
	}
	return v
}

func parseNameAndCharges(aux string) (name string, charges []int, err error) {
	fields := strings.Fields(aux)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("missing particle name/charge field")
	}
	name = fields[0]
	chargeField := ""
	if len(fields) > 1 {
		chargeField = fields[1]
	}
	for _, tok := range strings.Split(chargeField, ",") {
		code, ok := chargeCodes[tok]
		if !ok {
			return "", nil, fmt.Errorf("unrecognised charge token %q", tok)
		}
		charges = append(charges, code)
	}
	return name, charges, nil
}

// SearchPath resolves a particle data file name against a colon-separated
// list of directories (the CEPGEN_PATH environment variable), returning
// the first existing match.
func SearchPath(envValue, fileName string) (string, error) {
	for _, dir := range strings.Split(envValue, string(os.PathListSeparator)) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, fileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q not found on CEPGEN_PATH %q", errs.ErrConfiguration, fileName, envValue)
}

// LoadFromEnv parses the particle data file named fileName found via the
// CEPGEN_PATH environment variable, returning a populated database.
func LoadFromEnv(fileName string) (*Database, error) {
	path, err := SearchPath(os.Getenv("CEPGEN_PATH"), fileName)
	if err != nil {
		return nil, err
	}
	db := NewDatabase()
	if err := db.ParseFile(path); err != nil {
		return nil, err
	}
	return db, nil
}
