// Command tracker loads a TLE catalog, propagates every element set on a
// simulation clock and exposes the resulting scene over a websocket feed
// and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/orbit-tracker/core"
	"github.com/signalsfoundry/orbit-tracker/frame"
	"github.com/signalsfoundry/orbit-tracker/internal/config"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/internal/observability"
	"github.com/signalsfoundry/orbit-tracker/internal/stream"
	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/propagation"
	"github.com/signalsfoundry/orbit-tracker/scene"
	"github.com/signalsfoundry/orbit-tracker/timectrl"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// options are the command-line inputs not covered by the config file.
type options struct {
	Catalog     string
	Class       model.Classification
	Start       time.Time
	Duration    time.Duration
	Pin         []string
	ReportEvery time.Duration
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (defaults apply when empty)")
	catalog := flag.String("catalog", "configs/catalog.tle", "path to a NORAD 2- or 3-line element catalog")
	class := flag.String("class", string(model.ClassPayload), "classification applied to every catalog entry")
	start := flag.String("start", "", "simulation start time in RFC 3339 (defaults to now)")
	duration := flag.Duration("duration", 0, "wall-clock run time; zero runs until interrupted")
	pin := flag.String("pin", "", "comma-separated catalog numbers whose orbit paths are pinned at startup")
	report := flag.Duration("report", 10*time.Second, "interval between track status log lines; zero disables")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log := logging.New(cfg.Logging)

	opts := options{
		Catalog:     *catalog,
		Class:       model.Classification(strings.ToUpper(*class)),
		Start:       time.Now().UTC(),
		Duration:    *duration,
		Pin:         splitList(*pin),
		ReportEvery: *report,
	}
	if *start != "" {
		t, err := time.Parse(time.RFC3339, *start)
		if err != nil {
			log.Error(context.Background(), "invalid start time", logging.String("start", *start), logging.Err(err))
			os.Exit(2)
		}
		opts.Start = t.UTC()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts, log, prometheus.NewRegistry()); err != nil {
		log.Error(ctx, "tracker exited", logging.Err(err))
		os.Exit(1)
	}
}

// run wires the engine to an in-memory scene and a simulation clock and
// blocks until ctx ends or opts.Duration elapses.
func run(ctx context.Context, cfg config.Config, opts options, log logging.Logger, reg *prometheus.Registry) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log,
		observability.TrackerAttributes(cfg.Engine.Display, cfg.Engine.Gravity, cfg.Engine.Window)...)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	sets, err := readCatalog(opts.Catalog, opts.Class, log)
	if err != nil {
		return err
	}

	display, err := frame.ParseDisplay(cfg.Engine.Display)
	if err != nil {
		return err
	}

	kinds := make([]string, 0, propagation.KindCount)
	for _, k := range propagation.Kinds() {
		kinds = append(kinds, k.String())
	}
	collector, err := observability.NewTrackerCollector(reg, core.Outcomes(), kinds)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	mem := scene.NewMemory()
	clock := timectrl.NewTimeController(opts.Start, cfg.Clock.Tick, timectrl.RealTime)
	if cfg.Clock.Multiplier != 1 {
		clock.Mode = timectrl.Accelerated
		clock.Multiplier = cfg.Clock.Multiplier
	}

	engine := core.NewEngine(core.Config{
		Display:   display,
		Window:    cfg.Engine.Window,
		Step:      cfg.Engine.Step,
		LeadTime:  cfg.Engine.LeadTime,
		TrailTime: cfg.Engine.TrailTime,
		Workers:   cfg.Engine.Workers,
	}, core.Host{
		Points:   mem,
		Entities: mem.Registry(),
		Clock:    clock,
		Frames:   clock,
	},
		core.WithLogger(log),
		core.WithMetrics(collector),
		core.WithTracer(observability.Tracer()),
		core.WithPropagator(propagation.NewSGP4(propagation.Gravity(cfg.Engine.Gravity))),
	)
	defer engine.Close()

	report, err := engine.Ingest(ctx, sets)
	if err != nil {
		return fmt.Errorf("ingest catalog: %w", err)
	}
	if report.Accepted == 0 {
		return errors.New("no usable element sets in catalog")
	}
	if len(opts.Pin) > 0 {
		engine.Paths().ShowPath(core.Many(opts.Pin...), scene.Pinned, nil)
	}
	if err := engine.Start(); err != nil {
		return err
	}

	var servers []*http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv, err := serve(ctx, cfg.Metrics.Addr, mux, "metrics", log)
		if err != nil {
			return err
		}
		servers = append(servers, srv)
	}
	if cfg.Stream.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/stream", stream.NewHandler(mem, stream.Config{
			RateHz:             cfg.Stream.RateHz,
			MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
		}, stream.WithLogger(log), stream.WithClock(clock)))
		srv, err := serve(ctx, cfg.Stream.Addr, mux, "stream", log)
		if err != nil {
			return err
		}
		servers = append(servers, srv)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			_ = srv.Shutdown(shutdownCtx)
		}
	}()

	stopClock := make(chan struct{})
	done := clock.Start(opts.Duration, stopClock)
	log.Info(ctx, "tracker running",
		logging.Int("tracks", engine.Len()),
		logging.String("display", display.String()),
		logging.Time("start", opts.Start),
		logging.Duration("window", cfg.Engine.Window),
	)

	var reportC <-chan time.Time
	if opts.ReportEvery > 0 {
		ticker := time.NewTicker(opts.ReportEvery)
		defer ticker.Stop()
		reportC = ticker.C
	}
	for {
		select {
		case <-ctx.Done():
			close(stopClock)
			<-done
			log.Info(context.Background(), "shutting down tracker")
			return nil
		case <-done:
			log.Info(ctx, "run duration elapsed", logging.Duration("duration", opts.Duration))
			return nil
		case <-reportC:
			logTracks(ctx, engine, log)
		}
	}
}

func readCatalog(path string, class model.Classification, log logging.Logger) ([]model.ElementSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	sets, rejected, err := tle.Parse(f, class)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	for _, r := range rejected {
		log.Warn(context.Background(), "skipping catalog entry",
			logging.String("path", path),
			logging.Int("line", r.Line),
			logging.String("name", r.Name),
			logging.String("reason", r.Reason),
		)
	}
	log.Info(context.Background(), "loaded catalog",
		logging.String("path", path),
		logging.Int("entries", len(sets)),
		logging.Int("skipped", len(rejected)),
	)
	return sets, nil
}

func serve(ctx context.Context, addr string, h http.Handler, name string, log logging.Logger) (*http.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s on %s: %w", name, addr, err)
	}
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), name+" server exited", logging.Err(err))
		}
	}()
	log.Info(ctx, "serving "+name, logging.String("addr", lis.Addr().String()))
	return srv, nil
}

func logTracks(ctx context.Context, engine *core.Engine, log logging.Logger) {
	for _, id := range engine.Tracks() {
		info, ok := engine.Describe(id)
		if !ok {
			continue
		}
		if !info.HasPosition {
			log.Info(ctx, "track pending", logging.String("id", id), logging.String("last_error", info.LastError.String()))
			continue
		}
		log.Info(ctx, "track",
			logging.String("id", id),
			logging.String("name", info.Name),
			logging.Float("lat_deg", info.SubPoint.LatitudeDeg),
			logging.Float("lon_deg", info.SubPoint.LongitudeDeg),
			logging.Float("alt_km", info.SubPoint.AltitudeKm),
			logging.Float("speed_km_s", info.SpeedKmS),
			logging.Int("failures", info.Failures),
		)
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
