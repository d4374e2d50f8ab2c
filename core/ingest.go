package core

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/internal/observability"
	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/propagation"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// IngestReport summarises one batch.
type IngestReport struct {
	BatchID            string
	Accepted           int
	RejectedIdentifier int
	RejectedRecord     int
	RejectedPropagator int
	Duplicates         int
	Duration           time.Duration
}

// Total returns the number of element sets the batch considered.
func (r IngestReport) Total() int {
	return r.Accepted + r.RejectedIdentifier + r.RejectedRecord + r.RejectedPropagator + r.Duplicates
}

func (r IngestReport) counts() observability.IngestCounts {
	return observability.IngestCounts{
		Accepted:           r.Accepted,
		RejectedIdentifier: r.RejectedIdentifier,
		RejectedRecord:     r.RejectedRecord,
		RejectedPropagator: r.RejectedPropagator,
		Duplicates:         r.Duplicates,
	}
}

type deriveResult struct {
	constants *propagation.Constants
	err       error
}

// Ingest replaces the Track set with the element sets that survive
// validation and derivation. A bad record never aborts the batch.
// Derivations run on a bounded worker pool and nothing is published until
// all of them finish; if the engine is closed or a batch that started
// later has already published, the results are dropped and
// ErrBatchSuperseded returned. A cancelled batch supersedes nothing.
func (e *Engine) Ingest(ctx context.Context, sets []model.ElementSet) (IngestReport, error) {
	ctx, log := logging.WithBatchLogger(ctx, e.log)
	report := IngestReport{BatchID: logging.BatchIDFromContext(ctx)}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return report, ErrClosed
	}
	if e.host.Points == nil || len(sets) == 0 {
		e.mu.Unlock()
		return report, nil
	}
	e.started++
	seq := e.started
	e.mu.Unlock()

	ctx, span := e.tracer.Start(ctx, "ingest",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(e.spanAttributes()...),
	)
	defer span.End()
	span.SetAttributes(
		attribute.String("batch.id", report.BatchID),
		attribute.Int("batch.size", len(sets)),
	)
	start := time.Now()

	candidates := e.screen(sets, &report)
	results := e.derive(ctx, candidates)
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingest cancelled")
		return report, err
	}

	survivors := make([]int, 0, len(candidates))
	for i, res := range results {
		if res.err == nil {
			survivors = append(survivors, i)
			continue
		}
		kind := propagation.KindOf(res.err)
		if kind == propagation.KindMalformedRecord || errors.Is(res.err, tle.ErrMalformedRecord) {
			report.RejectedRecord++
		} else {
			report.RejectedPropagator++
		}
		log.Debug(ctx, "element set rejected",
			logging.String("id", candidates[i].ID),
			logging.String("kind", kind.String()),
			logging.Err(res.err),
		)
	}

	e.mu.Lock()
	if e.closed || seq < e.published {
		e.mu.Unlock()
		span.SetStatus(codes.Error, "superseded")
		log.Warn(ctx, "ingest batch superseded", logging.Int("derived", len(survivors)))
		return report, ErrBatchSuperseded
	}
	e.published = seq
	e.clearLocked()
	e.tracks = make([]*Track, 0, len(survivors))
	for _, i := range survivors {
		es := candidates[i]
		c := results[i].constants
		tr := &Track{
			ID:     es.ID,
			Name:   es.Name,
			Class:  es.Class,
			Epoch:  c.Epoch(),
			Hint:   es.Hint,
			handle: e.constants.Acquire(c),
			point:  e.host.Points.Add(pointStyle(es, e.style)),
		}
		e.tracks = append(e.tracks, tr)
		e.byID[tr.ID] = tr
	}
	report.Accepted = len(e.tracks)
	e.windowStart = e.now()
	e.active = true
	e.mu.Unlock()

	report.Duration = time.Since(start)
	if e.metrics != nil {
		e.metrics.RecordIngest(report.counts(), report.Duration)
		e.metrics.SetTracks(report.Accepted)
	}
	span.SetAttributes(attribute.Int("batch.accepted", report.Accepted))
	log.Info(ctx, "ingest complete",
		logging.Int("accepted", report.Accepted),
		logging.Int("rejected_identifier", report.RejectedIdentifier),
		logging.Int("rejected_record", report.RejectedRecord),
		logging.Int("rejected_propagator", report.RejectedPropagator),
		logging.Int("duplicates", report.Duplicates),
		logging.Duration("duration", report.Duration),
	)
	return report, nil
}

// screen normalises classifications, drops non-numeric identifiers and
// keeps the first occurrence of each identifier.
func (e *Engine) screen(sets []model.ElementSet, report *IngestReport) []model.ElementSet {
	seen := make(map[string]struct{}, len(sets))
	out := make([]model.ElementSet, 0, len(sets))
	for _, es := range sets {
		es.Class = model.NormalizeClassification(string(es.Class))
		if !tle.ValidIdentifier(es.ID) {
			report.RejectedIdentifier++
			continue
		}
		if _, dup := seen[es.ID]; dup {
			report.Duplicates++
			continue
		}
		seen[es.ID] = struct{}{}
		out = append(out, es)
	}
	return out
}

// derive runs DeriveConstants for every candidate on the worker pool and
// waits for all of them.
func (e *Engine) derive(ctx context.Context, sets []model.ElementSet) []deriveResult {
	results := make([]deriveResult, len(sets))
	if len(sets) == 0 {
		return results
	}
	workers := e.cfg.Workers
	if workers > len(sets) {
		workers = len(sets)
	}

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = e.deriveOne(sets[i])
			}
		}()
	}

feed:
	for i := range sets {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (e *Engine) deriveOne(es model.ElementSet) deriveResult {
	c, err := e.prop.DeriveConstants(es)
	if err != nil {
		return deriveResult{err: err}
	}
	return deriveResult{constants: c}
}

// spanAttributes describes the engine setup on each ingest span. The
// gravity model is reported only by propagators that expose one.
func (e *Engine) spanAttributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{observability.AttrDisplay.String(e.cfg.Display.String())}
	if g, ok := e.prop.(interface{ Gravity() propagation.Gravity }); ok {
		attrs = append(attrs, observability.AttrGravity.String(string(g.Gravity())))
	}
	return append(attrs, observability.AttrWindow.Int64(int64(e.cfg.Window/time.Second)))
}
