// Package pipeline implements the ordered event-modifier and
// event-exporter sequences invoked per accepted event (SPEC_FULL.md
// §4.I): modifiers may veto an event or fold a branching fraction into
// its weight, exporters are sinks notified of every surviving event and
// of the final cross section.
package pipeline

import "github.com/cepgen/cepgen-go/pkg/event"

// CrossSection is the (value, uncertainty) pair computed by Integrate,
// broadcast once to every modifier and exporter after integration, once
// the exporters have been initialised and before the first event.
type CrossSection struct {
	Value       float64
	Uncertainty float64
}

// Modifier may alter particle kinematics and event content, multiply a
// branching fraction into weight, and veto the event by returning false.
// Modifiers run in declared order; the first false short-circuits the
// remaining pipeline and zeros the weight.
type Modifier interface {
	// Run applies the modifier to e, updating *weight in place. full
	// indicates whether the event should receive a complete rerun of
	// kinematic filling (true) or a lighter-weight update (false). A
	// false return value vetoes the event.
	Run(e *event.Event, weight *float64, full bool) bool

	// SetCrossSection is called once at the end of integration with the
	// run's final estimate.
	SetCrossSection(xs CrossSection)
}

// Exporter receives every event that survives the modifier pipeline with
// a positive weight.
type Exporter interface {
	// Initialise prepares the exporter's output sink (opening a file,
	// connecting to a socket, registering metrics) before the first event.
	Initialise() error

	// Export is the operator<<(event) equivalent: it is called once per
	// surviving event, in worker-accept order.
	Export(e *event.Event, weight float64) error

	// SetCrossSection is called once at the end of integration with the
	// run's final estimate.
	SetCrossSection(xs CrossSection)

	// Close flushes and releases the exporter's resources.
	Close() error
}

// Pipeline holds the ordered modifier and exporter sequences used by a
// single run's integrand adapter.
type Pipeline struct {
	Modifiers []Modifier
	Exporters []Exporter
}

// New returns an empty pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// AddModifier appends a modifier to the end of the pipeline.
func (p *Pipeline) AddModifier(m Modifier) *Pipeline {
	p.Modifiers = append(p.Modifiers, m)
	return p
}

// AddExporter appends an exporter to the end of the pipeline.
func (p *Pipeline) AddExporter(ex Exporter) *Pipeline {
	p.Exporters = append(p.Exporters, ex)
	return p
}

// RunModifiers runs every modifier in declared order, short-circuiting
// and zeroing weight on the first veto. It returns false if the event was
// vetoed.
func (p *Pipeline) RunModifiers(e *event.Event, weight *float64, full bool) bool {
	for _, m := range p.Modifiers {
		if !m.Run(e, weight, full) {
			*weight = 0
			return false
		}
	}
	return true
}

// Export forwards e to every exporter, in declared order. It returns the
// first error encountered but still attempts every exporter, matching
// the teacher's "one bad sink must not silently drop good ones" posture.
func (p *Pipeline) Export(e *event.Event, weight float64) error {
	var firstErr error
	for _, ex := range p.Exporters {
		if err := ex.Export(e, weight); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Initialise initialises every exporter, in declared order, stopping at
// the first failure.
func (p *Pipeline) Initialise() error {
	for _, ex := range p.Exporters {
		if err := ex.Initialise(); err != nil {
			return err
		}
	}
	return nil
}

// SetCrossSection broadcasts xs to every modifier and exporter.
func (p *Pipeline) SetCrossSection(xs CrossSection) {
	for _, m := range p.Modifiers {
		m.SetCrossSection(xs)
	}
	for _, ex := range p.Exporters {
		ex.SetCrossSection(xs)
	}
}

// Close closes every exporter, in declared order, collecting the first
// error while still attempting to close every one.
func (p *Pipeline) Close() error {
	var firstErr error
	for _, ex := range p.Exporters {
		if err := ex.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
