package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/orbit-tracker/internal/config"
	"github.com/signalsfoundry/orbit-tracker/internal/fixtures"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/model"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.tle")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func smokeConfig() config.Config {
	cfg := config.Default()
	cfg.Tracing.Enabled = false
	cfg.Clock.Tick = 5 * time.Millisecond
	cfg.Engine.Window = time.Hour
	cfg.Engine.Workers = 2
	cfg.Metrics = config.MetricsConfig{Enabled: true, Addr: "127.0.0.1:0"}
	cfg.Stream.Enabled = true
	cfg.Stream.Addr = "127.0.0.1:0"
	return cfg
}

func TestTrackerRunSmoke(t *testing.T) {
	catalog := writeCatalog(t, strings.Join([]string{
		fixtures.ISSName, fixtures.ISSLine1, fixtures.ISSLine2,
		fixtures.NOAA19Name, fixtures.NOAA19Line1, fixtures.NOAA19Line2,
	}, "\n"))

	reg := prometheus.NewRegistry()
	opts := options{
		Catalog:  catalog,
		Class:    model.ClassPayload,
		Start:    time.Date(2025, 5, 18, 9, 0, 0, 0, time.UTC),
		Duration: 100 * time.Millisecond,
		Pin:      []string{fixtures.ISSID},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := run(ctx, smokeConfig(), opts, logging.Noop(), reg); err != nil {
		t.Fatalf("run: %v", err)
	}

	if n, err := testutil.GatherAndCount(reg, "tracker_ticks_total"); err != nil || n == 0 {
		t.Fatalf("tracker_ticks_total series = %d, err %v", n, err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != "tracker_ingest_elements_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "result" && lp.GetValue() == "accepted" {
					total += m.GetCounter().GetValue()
				}
			}
		}
	}
	if total != 2 {
		t.Fatalf("accepted elements = %v, want 2", total)
	}
}

func TestTrackerRunStopsOnCancel(t *testing.T) {
	catalog := writeCatalog(t, fixtures.ISSLine1+"\n"+fixtures.ISSLine2+"\n")
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx, smokeConfig(), options{Catalog: catalog, Class: model.ClassPayload, Start: time.Now(), ReportEvery: 10 * time.Millisecond}, logging.Noop(), prometheus.NewRegistry())
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestTrackerRunRejectsEmptyCatalog(t *testing.T) {
	catalog := writeCatalog(t, "NOT A CATALOG\n")
	cfg := smokeConfig()
	cfg.Metrics.Enabled = false
	cfg.Stream.Enabled = false
	err := run(context.Background(), cfg, options{Catalog: catalog, Class: model.ClassPayload, Start: time.Now()}, logging.Noop(), prometheus.NewRegistry())
	if err == nil {
		t.Fatalf("expected an error for a catalog with no element sets")
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList("  "); got != nil {
		t.Fatalf("splitList(blank) = %v", got)
	}
	if got := splitList("25544, 33591"); len(got) != 2 || got[1] != " 33591" {
		t.Fatalf("splitList = %q", got)
	}
}
