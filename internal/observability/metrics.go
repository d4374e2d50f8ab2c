package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest result labels.
const (
	ResultAccepted           = "accepted"
	ResultRejectedIdentifier = "rejected_identifier"
	ResultRejectedRecord     = "rejected_record"
	ResultRejectedPropagator = "rejected_propagator"
	ResultDuplicate          = "duplicate"
)

// IngestCounts is one batch outcome, by result label.
type IngestCounts struct {
	Accepted           int
	RejectedIdentifier int
	RejectedRecord     int
	RejectedPropagator int
	Duplicates         int
}

// TrackerCollector bundles Prometheus metrics for the tracking engine.
// Label children used on the per-frame path are resolved once at
// construction so recording a tick does not allocate.
type TrackerCollector struct {
	gatherer prometheus.Gatherer

	IngestElements     *prometheus.CounterVec
	IngestDuration     prometheus.Histogram
	Tracks             prometheus.Gauge
	Paths              *prometheus.GaugeVec
	Ticks              *prometheus.CounterVec
	TickDuration       prometheus.Histogram
	PropagationFailure *prometheus.CounterVec

	ingest   map[string]prometheus.Counter
	outcomes map[string]prometheus.Counter
	kinds    map[string]prometheus.Counter
}

// NewTrackerCollector registers tracker metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
// outcomes and kinds list the label values to pre-resolve.
func NewTrackerCollector(reg prometheus.Registerer, outcomes, kinds []string) (*TrackerCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	ingest, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_ingest_elements_total",
		Help: "Element sets processed by ingestion, labeled by result.",
	}, []string{"result"}), "tracker_ingest_elements_total")
	if err != nil {
		return nil, err
	}
	ingestDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracker_ingest_duration_seconds",
		Help:    "Wall time to derive and register one ingestion batch.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}), "tracker_ingest_duration_seconds")
	if err != nil {
		return nil, err
	}
	tracks, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracker_tracks",
		Help: "Current number of live tracks.",
	}), "tracker_tracks")
	if err != nil {
		return nil, err
	}
	paths, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tracker_paths",
		Help: "Current number of path entities, labeled by origin.",
	}, []string{"origin"}), "tracker_paths")
	if err != nil {
		return nil, err
	}
	ticks, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_ticks_total",
		Help: "Render ticks handled, labeled by outcome.",
	}, []string{"outcome"}), "tracker_ticks_total")
	if err != nil {
		return nil, err
	}
	tickDuration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tracker_tick_duration_seconds",
		Help:    "Time spent updating all tracks for one render tick.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066},
	}), "tracker_tick_duration_seconds")
	if err != nil {
		return nil, err
	}
	failures, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_propagation_failures_total",
		Help: "Per-track propagation failures during render ticks, labeled by kind.",
	}, []string{"kind"}), "tracker_propagation_failures_total")
	if err != nil {
		return nil, err
	}

	c := &TrackerCollector{
		gatherer:           gatherer,
		IngestElements:     ingest,
		IngestDuration:     ingestDuration,
		Tracks:             tracks,
		Paths:              paths,
		Ticks:              ticks,
		TickDuration:       tickDuration,
		PropagationFailure: failures,
		ingest:             make(map[string]prometheus.Counter),
		outcomes:           make(map[string]prometheus.Counter),
		kinds:              make(map[string]prometheus.Counter),
	}
	for _, r := range []string{ResultAccepted, ResultRejectedIdentifier, ResultRejectedRecord, ResultRejectedPropagator, ResultDuplicate} {
		c.ingest[r] = ingest.WithLabelValues(r)
	}
	for _, o := range outcomes {
		c.outcomes[o] = ticks.WithLabelValues(o)
	}
	for _, k := range kinds {
		c.kinds[k] = failures.WithLabelValues(k)
	}
	return c, nil
}

// RecordIngest adds one batch outcome.
func (c *TrackerCollector) RecordIngest(counts IngestCounts, d time.Duration) {
	if c == nil {
		return
	}
	c.ingest[ResultAccepted].Add(float64(counts.Accepted))
	c.ingest[ResultRejectedIdentifier].Add(float64(counts.RejectedIdentifier))
	c.ingest[ResultRejectedRecord].Add(float64(counts.RejectedRecord))
	c.ingest[ResultRejectedPropagator].Add(float64(counts.RejectedPropagator))
	c.ingest[ResultDuplicate].Add(float64(counts.Duplicates))
	c.IngestDuration.Observe(d.Seconds())
}

// SetTracks sets the live track gauge.
func (c *TrackerCollector) SetTracks(n int) {
	if c == nil {
		return
	}
	c.Tracks.Set(float64(n))
}

// SetPaths sets the path gauge for one origin.
func (c *TrackerCollector) SetPaths(origin string, n int) {
	if c == nil {
		return
	}
	c.Paths.WithLabelValues(origin).Set(float64(n))
}

// RecordTick counts a tick outcome and, when d is positive, its duration.
func (c *TrackerCollector) RecordTick(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	counter, ok := c.outcomes[outcome]
	if !ok {
		counter = c.Ticks.WithLabelValues(outcome)
	}
	counter.Inc()
	if d > 0 {
		c.TickDuration.Observe(d.Seconds())
	}
}

// RecordFailures adds n propagation failures of kind.
func (c *TrackerCollector) RecordFailures(kind string, n int) {
	if c == nil || n <= 0 {
		return
	}
	counter, ok := c.kinds[kind]
	if !ok {
		counter = c.PropagationFailure.WithLabelValues(kind)
	}
	counter.Add(float64(n))
}

// Handler exposes a ready-to-use /metrics handler.
func (c *TrackerCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
