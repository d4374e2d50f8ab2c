package observability

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/orbit-tracker/internal/logging"
)

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("TRACKER_TRACING_ENABLED", "TRUE")
	t.Setenv("TRACKER_TRACING_EXPORTER", "OTLP")
	t.Setenv("TRACKER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("TRACKER_TRACING_SAMPLE_RATIO", "0.25")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.Endpoint != "collector:4317" || cfg.SampleRatio != 0.25 {
		t.Fatalf("TracingConfigFromEnv = %+v", cfg)
	}
	if cfg.ServiceName != "orbit-tracker" {
		t.Fatalf("ServiceName = %q, want default", cfg.ServiceName)
	}
}

func TestTracingConfigIgnoresBadRatio(t *testing.T) {
	t.Setenv("TRACKER_TRACING_SAMPLE_RATIO", "1.5")
	if cfg := TracingConfigFromEnv(); cfg.SampleRatio != 1 {
		t.Fatalf("SampleRatio = %v, want default 1", cfg.SampleRatio)
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	_, span := Tracer().Start(context.Background(), "ingest")
	if span.SpanContext().IsSampled() {
		t.Fatalf("noop provider should not sample")
	}
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, nil)
}

func TestInitTracingUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin", SampleRatio: 1}, nil)
	if err == nil {
		t.Fatalf("expected error for unsupported exporter")
	}
}

func TestResourceAttributesIncludeTrackerSetup(t *testing.T) {
	cfg := TracingConfig{ServiceName: "tracker-a"}
	attrs := resourceAttributes(cfg, TrackerAttributes("inertial", "wgs84", 90*time.Minute))

	want := map[attribute.Key]attribute.Value{
		"service.name":      attribute.StringValue("tracker-a"),
		"service.namespace": attribute.StringValue("orbit-tracker"),
		AttrDisplay:         attribute.StringValue("inertial"),
		AttrGravity:         attribute.StringValue("wgs84"),
		AttrWindow:          attribute.Int64Value(5400),
	}
	if len(attrs) != len(want) {
		t.Fatalf("got %d attributes, want %d: %v", len(attrs), len(want), attrs)
	}
	for _, kv := range attrs {
		if w, ok := want[kv.Key]; !ok || w != kv.Value {
			t.Fatalf("attribute %s = %v, want %v", kv.Key, kv.Value.Emit(), w.Emit())
		}
	}
}
