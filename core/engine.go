// Package core is the tracking engine: it ingests element sets into
// Tracks, refreshes every Track's host point once per render tick and
// manages the orbit path entities shown for selected Tracks.
package core

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/signalsfoundry/orbit-tracker/frame"
	"github.com/signalsfoundry/orbit-tracker/internal/arena"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/internal/observability"
	"github.com/signalsfoundry/orbit-tracker/propagation"
	"github.com/signalsfoundry/orbit-tracker/scene"
	"github.com/signalsfoundry/orbit-tracker/trajectory"
)

// Config holds the engine parameters fixed at construction.
type Config struct {
	Display   frame.Display
	Window    time.Duration // loop length and path span
	Step      time.Duration // path sampling step
	LeadTime  time.Duration
	TrailTime time.Duration
	Workers   int // ingestion derivation pool size
}

// DefaultConfig returns a one-day, minute-step configuration.
func DefaultConfig() Config {
	return Config{
		Display:  frame.Fixed,
		Window:   24 * time.Hour,
		Step:     time.Minute,
		LeadTime: 90 * time.Minute,
		Workers:  runtime.NumCPU(),
	}
}

// Host bundles the rendering collaborators. Any field may be nil; an
// engine without Points treats ingestion as a no-op.
type Host struct {
	Points   scene.PointCollection
	Entities scene.EntityRegistry
	Clock    scene.Clock
	Frames   scene.FrameHook
}

// MetricsRecorder receives engine measurements.
// observability.TrackerCollector implements it.
type MetricsRecorder interface {
	RecordIngest(counts observability.IngestCounts, d time.Duration)
	SetTracks(n int)
	SetPaths(origin string, n int)
	RecordTick(outcome string, d time.Duration)
	RecordFailures(kind string, n int)
}

// Option customises Engine construction.
type Option func(*Engine)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer sets the tracer used for ingestion spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithPropagator replaces the default WGS-72 SGP4 adapter.
func WithPropagator(p propagation.Propagator) Option {
	return func(e *Engine) {
		if p != nil {
			e.prop = p
		}
	}
}

// WithRotationSource supplies the host's inertial-to-fixed rotation, used
// when the display frame is frame.Inertial.
func WithRotationSource(src frame.Source) Option {
	return func(e *Engine) {
		e.inertial = src
	}
}

// WithStyle overrides the per-class point style.
func WithStyle(fn StyleFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.style = fn
		}
	}
}

// Engine owns the Track set. Tick, ShowPath, HidePath and HideAll are
// meant to be driven from the host's render thread; Ingest may run on any
// goroutine and only locks to publish its batch.
type Engine struct {
	mu sync.Mutex

	cfg  Config
	host Host

	prop     propagation.Propagator
	inertial frame.Source
	cache    *frame.Cache
	sampler  trajectory.Sampler
	style    StyleFunc

	constants *arena.Arena[*propagation.Constants]
	tracks    []*Track
	byID      map[string]*Track

	// started numbers batches as they begin; published is the number of
	// the batch currently shown. A batch publishes only if it is newer.
	started     uint64
	published   uint64
	active      bool
	closed      bool
	windowStart time.Time
	removeHook  func()

	paths *PathManager

	// failures is per-tick scratch indexed by propagation.Kind.
	failures [propagation.KindCount]int

	log     logging.Logger
	metrics MetricsRecorder
	tracer  trace.Tracer
}

// NewEngine constructs an idle engine. Zero Config fields take the
// DefaultConfig values.
func NewEngine(cfg Config, host Host, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.Step <= 0 {
		cfg.Step = def.Step
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	e := &Engine{
		cfg:       cfg,
		host:      host,
		prop:      propagation.NewSGP4(propagation.GravityWGS72),
		style:     DefaultStyle,
		constants: arena.New[*propagation.Constants](64),
		byID:      make(map[string]*Track),
		log:       logging.Noop(),
		tracer:    noop.NewTracerProvider().Tracer(observability.TracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.log = e.log.With(logging.String("component", "engine"))
	e.cache = frame.NewCache(frame.SourceFor(cfg.Display, e.inertial))
	e.sampler = trajectory.Sampler{Propagator: e.prop, Converter: e.cache, Step: cfg.Step}
	e.paths = newPathManager(e)
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Paths returns the path lifecycle manager.
func (e *Engine) Paths() *PathManager { return e.paths }

// Start registers Tick on the host frame hook. Calling Start again is a
// no-op.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.removeHook != nil {
		return nil
	}
	if e.host.Frames == nil {
		return ErrNoFrameHook
	}
	e.removeHook = e.host.Frames.AddListener(func(now time.Time) { e.Tick(now) })
	return nil
}

// Close unregisters the frame hook, removes every path and point,
// releases all constants and supersedes in-flight batches. Close is
// idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.removeHook != nil {
		e.removeHook()
		e.removeHook = nil
	}
	e.clearLocked()
	e.log.Info(context.Background(), "engine closed")
	return nil
}

// Len returns the number of live Tracks.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tracks)
}

// Tracks returns the live Track identifiers in ingestion order.
func (e *Engine) Tracks() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, len(e.tracks))
	for i, tr := range e.tracks {
		ids[i] = tr.ID
	}
	return ids
}

// WindowStart returns the instant the loop window started.
func (e *Engine) WindowStart() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windowStart
}

// Describe reports the state of one Track.
func (e *Engine) Describe(id string) (TrackInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	tr, ok := e.byID[id]
	if !ok {
		return TrackInfo{}, false
	}
	c, _ := e.constants.Get(tr.handle)
	return tr.info(c), true
}

func (e *Engine) now() time.Time {
	if e.host.Clock != nil {
		return e.host.Clock.Now()
	}
	return time.Now().UTC()
}

// clearLocked drops every Track and path. Caller holds e.mu.
func (e *Engine) clearLocked() {
	e.paths.clearLocked()
	for _, tr := range e.tracks {
		if e.host.Points != nil && tr.point != nil {
			e.host.Points.Remove(tr.point)
		}
		e.constants.Release(tr.handle)
	}
	e.constants.Reset()
	e.tracks = nil
	e.byID = make(map[string]*Track)
	e.active = false
	e.cache.Reset()
	if e.metrics != nil {
		e.metrics.SetTracks(0)
	}
}
