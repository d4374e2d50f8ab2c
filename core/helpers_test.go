package core

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalsfoundry/orbit-tracker/internal/fixtures"
	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/propagation"
	"github.com/signalsfoundry/orbit-tracker/scene"
	"github.com/signalsfoundry/orbit-tracker/timectrl"
)

var testStart = time.Date(2025, 5, 18, 9, 0, 0, 0, time.UTC)

type testHost struct {
	mem   *scene.Memory
	clock *timectrl.TimeController
}

func newTestEngine(t *testing.T, cfg Config, opts ...Option) (*Engine, testHost) {
	t.Helper()
	mem := scene.NewMemory()
	clock := timectrl.NewTimeController(testStart, time.Second/60, timectrl.RealTime)
	if cfg.Window == 0 {
		cfg.Window = 2 * time.Hour
	}
	if cfg.Step == 0 {
		cfg.Step = time.Minute
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	e := NewEngine(cfg, Host{Points: mem, Entities: mem.Registry(), Clock: clock, Frames: clock}, opts...)
	t.Cleanup(func() { _ = e.Close() })
	return e, testHost{mem: mem, clock: clock}
}

func issAndNOAA() []model.ElementSet {
	return []model.ElementSet{fixtures.ISS(), fixtures.NOAA19()}
}

// switchPropagator fails every Propagate call while fail is set.
type switchPropagator struct {
	propagation.Propagator
	fail atomic.Bool
}

func (s *switchPropagator) Propagate(c *propagation.Constants, minutes float64) (model.StateVector, error) {
	if s.fail.Load() {
		return model.StateVector{}, propagation.KindDecayed
	}
	return s.Propagator.Propagate(c, minutes)
}

// gatedPropagator blocks DeriveConstants for the identifier gated until
// release is closed.
type gatedPropagator struct {
	propagation.Propagator
	gated   string
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedPropagator(id string) *gatedPropagator {
	return &gatedPropagator{
		Propagator: propagation.NewSGP4(propagation.GravityWGS72),
		gated:      id,
		started:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (g *gatedPropagator) DeriveConstants(es model.ElementSet) (*propagation.Constants, error) {
	if es.ID == g.gated {
		g.once.Do(func() { close(g.started) })
		<-g.release
	}
	return g.Propagator.DeriveConstants(es)
}
