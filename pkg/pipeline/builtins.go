package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/cepgen/cepgen-go/pkg/event"
	"github.com/cepgen/cepgen-go/pkg/params"
	"github.com/cepgen/cepgen-go/pkg/registry"
)

// ModifierRegistry and ExporterRegistry are the named-module factories a
// run card's eventSequence and output sub-trees build against, mirroring
// CepGen's EventModifierFactory and OutputModuleFactory.
var (
	ModifierRegistry = registry.New[Modifier]()
	ExporterRegistry = registry.New[Exporter]()
)

func init() {
	cutSchema := params.NewSchema("kinematic-cut").
		Field("min_pt", params.FieldDescription{Kind: params.KindFloat, HasDefault: true, Default: params.FloatValue(0)}).
		Field("max_pt", params.FieldDescription{Kind: params.KindFloat, HasDefault: true, Default: params.FloatValue(0)})
	ModifierRegistry.Register("kinematic-cut", func(bag *params.Bag) (Modifier, error) {
		minPt, _ := params.Get[float64](bag, "min_pt")
		maxPt, _ := params.Get[float64](bag, "max_pt")
		return &KinematicCutModifier{MinPt: minPt, MaxPt: maxPt}, nil
	}, cutSchema)

	branchingSchema := params.NewSchema("branching-fraction").
		Field("branching_ratio", params.FieldDescription{Kind: params.KindFloat, HasDefault: true, Default: params.FloatValue(1)})
	ModifierRegistry.Register("branching-fraction", func(bag *params.Bag) (Modifier, error) {
		ratio, _ := params.Get[float64](bag, "branching_ratio")
		return &BranchingFractionModifier{BranchingRatio: ratio}, nil
	}, branchingSchema)

	pathSchema := func(name string) *params.Schema {
		return params.NewSchema(name).
			Field("path", params.FieldDescription{Kind: params.KindString, HasDefault: true, Default: params.StringValue(name + ".out")})
	}
	ExporterRegistry.Register("json-lines", func(bag *params.Bag) (Exporter, error) {
		path, _ := params.Get[string](bag, "path")
		return &JSONLinesExporter{Path: path}, nil
	}, pathSchema("json-lines"))

	ExporterRegistry.Register("text", func(bag *params.Bag) (Exporter, error) {
		path, _ := params.Get[string](bag, "path")
		return &TextExporter{Path: path}, nil
	}, pathSchema("text"))

	prometheusSchema := params.NewSchema("prometheus").
		Field("listen_addr", params.FieldDescription{Kind: params.KindString, HasDefault: true, Default: params.StringValue(":9091")})
	ExporterRegistry.Register("prometheus", func(bag *params.Bag) (Exporter, error) {
		addr, _ := params.Get[string](bag, "listen_addr")
		return &PrometheusExporter{ListenAddr: addr}, nil
	}, prometheusSchema)
}

// KinematicCutModifier vetoes events whose central-system transverse
// momentum falls outside [MinPt, MaxPt]. A zero MaxPt means unbounded.
type KinematicCutModifier struct {
	MinPt, MaxPt float64
}

func (m *KinematicCutModifier) Run(e *event.Event, weight *float64, full bool) bool {
	for _, p := range e.ByRole(event.RoleCentralSystem) {
		pt := p.Momentum.Pt()
		if pt < m.MinPt {
			return false
		}
		if m.MaxPt > 0 && pt > m.MaxPt {
			return false
		}
	}
	return true
}

func (m *KinematicCutModifier) SetCrossSection(CrossSection) {}

// BranchingFractionModifier multiplies weight by a fixed branching ratio,
// modelling a forced decay of an unstable central-system particle.
type BranchingFractionModifier struct {
	BranchingRatio float64
}

func (m *BranchingFractionModifier) Run(e *event.Event, weight *float64, full bool) bool {
	*weight *= m.BranchingRatio
	return *weight > 0
}

func (m *BranchingFractionModifier) SetCrossSection(CrossSection) {}

// JSONLinesExporter writes one JSON object per accepted event to an
// io.Writer, one event per line.
type JSONLinesExporter struct {
	Path string

	file *os.File
	w    *bufio.Writer
}

type jsonEvent struct {
	Weight    float64          `json:"weight"`
	Particles []jsonParticle   `json:"particles"`
	XS        *jsonCrossSection `json:"cross_section,omitempty"`
}

type jsonParticle struct {
	ID     int     `json:"id"`
	Role   string  `json:"role"`
	PdgID  int     `json:"pdg_id"`
	Status string  `json:"status"`
	Px     float64 `json:"px"`
	Py     float64 `json:"py"`
	Pz     float64 `json:"pz"`
	E      float64 `json:"e"`
}

type jsonCrossSection struct {
	Value       float64 `json:"value"`
	Uncertainty float64 `json:"uncertainty"`
}

func (ex *JSONLinesExporter) Initialise() error {
	f, err := os.Create(ex.Path)
	if err != nil {
		return fmt.Errorf("json-lines exporter: %w", err)
	}
	ex.file = f
	ex.w = bufio.NewWriter(f)
	return nil
}

func (ex *JSONLinesExporter) Export(e *event.Event, weight float64) error {
	payload := jsonEvent{Weight: weight}
	for _, p := range e.Particles() {
		payload.Particles = append(payload.Particles, jsonParticle{
			ID:     p.ID,
			Role:   p.Role.String(),
			PdgID:  p.PdgID,
			Status: p.Status.String(),
			Px:     p.Momentum.Px,
			Py:     p.Momentum.Py,
			Pz:     p.Momentum.Pz,
			E:      p.Momentum.E,
		})
	}
	enc := json.NewEncoder(ex.w)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("json-lines exporter: %w", err)
	}
	return nil
}

func (ex *JSONLinesExporter) SetCrossSection(xs CrossSection) {
	enc := json.NewEncoder(ex.w)
	_ = enc.Encode(jsonEvent{XS: &jsonCrossSection{Value: xs.Value, Uncertainty: xs.Uncertainty}})
}

func (ex *JSONLinesExporter) Close() error {
	if ex.w != nil {
		if err := ex.w.Flush(); err != nil {
			return err
		}
	}
	if ex.file != nil {
		return ex.file.Close()
	}
	return nil
}

// TextExporter writes a terse human-readable summary line per event,
// LHE-like in spirit but not format-compatible.
type TextExporter struct {
	Path string

	file *os.File
	w    *bufio.Writer
}

func (ex *TextExporter) Initialise() error {
	f, err := os.Create(ex.Path)
	if err != nil {
		return fmt.Errorf("text exporter: %w", err)
	}
	ex.file = f
	ex.w = bufio.NewWriter(f)
	return nil
}

func (ex *TextExporter) Export(e *event.Event, weight float64) error {
	fmt.Fprintf(ex.w, "event weight=%g\n", weight)
	for _, p := range e.Particles() {
		fmt.Fprintf(ex.w, "  %-18s pdg=%-8d status=%-18s p=(%.4f, %.4f, %.4f, %.4f)\n",
			p.Role, p.PdgID, p.Status, p.Momentum.Px, p.Momentum.Py, p.Momentum.Pz, p.Momentum.E)
	}
	return ex.w.Flush()
}

func (ex *TextExporter) SetCrossSection(xs CrossSection) {
	fmt.Fprintf(ex.w, "# cross section: %g +- %g\n", xs.Value, xs.Uncertainty)
	ex.w.Flush()
}

func (ex *TextExporter) Close() error {
	if ex.w != nil {
		if err := ex.w.Flush(); err != nil {
			return err
		}
	}
	if ex.file != nil {
		return ex.file.Close()
	}
	return nil
}

// PrometheusExporter exposes generated-event counters and the final
// cross section as Prometheus metrics over HTTP, for a run launched as a
// long-lived service rather than a one-shot batch job.
type PrometheusExporter struct {
	ListenAddr string

	registry      *prometheus.Registry
	eventsTotal   prometheus.Counter
	weightSum     prometheus.Counter
	crossSection  prometheus.Gauge
	crossSectionU prometheus.Gauge

	server *http.Server
}

func (ex *PrometheusExporter) Initialise() error {
	ex.registry = prometheus.NewRegistry()
	ex.eventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cepgen_events_exported_total",
		Help: "Total number of unweighted events forwarded to the exporter.",
	})
	ex.weightSum = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cepgen_event_weight_sum",
		Help: "Running sum of exported event weights.",
	})
	ex.crossSection = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cepgen_cross_section",
		Help: "Final integrated cross section estimate.",
	})
	ex.crossSectionU = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cepgen_cross_section_uncertainty",
		Help: "Uncertainty on the final integrated cross section estimate.",
	})
	ex.registry.MustRegister(ex.eventsTotal, ex.weightSum, ex.crossSection, ex.crossSectionU)

	if ex.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(ex.registry, promhttp.HandlerOpts{}))
		ex.server = &http.Server{Addr: ex.ListenAddr, Handler: mux}
		go func() {
			if err := ex.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("prometheus exporter: metrics server stopped unexpectedly")
			}
		}()
	}
	return nil
}

func (ex *PrometheusExporter) Export(e *event.Event, weight float64) error {
	ex.eventsTotal.Inc()
	ex.weightSum.Add(weight)
	return nil
}

func (ex *PrometheusExporter) SetCrossSection(xs CrossSection) {
	ex.crossSection.Set(xs.Value)
	ex.crossSectionU.Set(xs.Uncertainty)
}

func (ex *PrometheusExporter) Close() error {
	if ex.server != nil {
		return ex.server.Close()
	}
	return nil
}
