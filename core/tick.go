package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/propagation"
)

// Outcome classifies what a tick did.
type Outcome int

const (
	// Idle: no active batch, nothing to update.
	Idle Outcome = iota
	// Updated: every Track was propagated.
	Updated
	// LoopReset: the window elapsed and the clock was moved back to its start.
	LoopReset
	// FrameUnavailable: the display rotation could not be computed.
	FrameUnavailable
)

var outcomeNames = [...]string{
	Idle:             "idle",
	Updated:          "updated",
	LoopReset:        "loop_reset",
	FrameUnavailable: "frame_unavailable",
}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Outcomes lists every outcome label.
func Outcomes() []string { return outcomeNames[:] }

// TickReport is the result of one tick.
type TickReport struct {
	Time    time.Time
	Outcome Outcome
	Updated int
	Failed  int
}

// Tick refreshes every Track's point for the instant now. A failing Track
// keeps its last position; the others are still updated. Tick does not
// allocate once the batch is published.
func (e *Engine) Tick(now time.Time) TickReport {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := TickReport{Time: now}
	if e.closed || !e.active {
		e.recordTick(report.Outcome, 0)
		return report
	}

	if now.Sub(e.windowStart) > e.cfg.Window {
		if e.host.Clock != nil {
			e.host.Clock.Set(e.windowStart)
		}
		report.Outcome = LoopReset
		e.recordTick(report.Outcome, 0)
		return report
	}

	if !e.cache.Update(now) {
		report.Outcome = FrameUnavailable
		e.recordTick(report.Outcome, 0)
		return report
	}

	start := time.Now()
	for _, tr := range e.tracks {
		c, ok := e.constants.Get(tr.handle)
		if !ok {
			e.failures[propagation.KindDiverged]++
			report.Failed++
			e.markFailed(tr, propagation.KindDiverged, now)
			continue
		}
		sv, err := e.prop.Propagate(c, c.MinutesAt(now))
		if err != nil {
			kind := propagation.KindOf(err)
			e.failures[kind]++
			report.Failed++
			e.markFailed(tr, kind, now)
			continue
		}
		shown := e.cache.ConvertCurrent(sv)
		tr.point.SetPosition(shown.Position)
		if tr.lastErr != propagation.KindNone {
			e.log.Info(context.Background(), "track recovered",
				logging.String("id", tr.ID),
				logging.Int("failed_ticks", tr.failures),
			)
			tr.lastErr = propagation.KindNone
			tr.failures = 0
		}
		tr.hasGood = true
		tr.lastAt = now
		tr.lastTEME = sv
		tr.lastShown = shown
		report.Updated++
	}
	report.Outcome = Updated
	e.recordTick(report.Outcome, time.Since(start))
	if report.Failed > 0 {
		for k, n := range e.failures {
			if n == 0 {
				continue
			}
			if e.metrics != nil {
				e.metrics.RecordFailures(propagation.Kind(k).String(), n)
			}
			e.failures[k] = 0
		}
	}
	return report
}

// markFailed counts a failure and logs only the good-to-bad transition.
func (e *Engine) markFailed(tr *Track, kind propagation.Kind, now time.Time) {
	tr.failures++
	if tr.lastErr == kind {
		return
	}
	prev := tr.lastErr
	tr.lastErr = kind
	if prev == propagation.KindNone {
		e.log.Warn(context.Background(), "track propagation failing",
			logging.String("id", tr.ID),
			logging.String("kind", kind.String()),
			logging.Time("at", now),
		)
	}
}

func (e *Engine) recordTick(o Outcome, d time.Duration) {
	if e.metrics != nil {
		e.metrics.RecordTick(o.String(), d)
	}
}
