// Package config loads the tracker's YAML configuration, applies
// TRACKER_* environment overrides and validates the result.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/internal/observability"
)

// Config is the full tracker configuration.
type Config struct {
	Engine  EngineConfig                `yaml:"engine"`
	Clock   ClockConfig                 `yaml:"clock"`
	Logging logging.Config              `yaml:"logging"`
	Tracing observability.TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig               `yaml:"metrics"`
	Stream  StreamConfig                `yaml:"stream"`
}

// EngineConfig holds propagation and display parameters.
type EngineConfig struct {
	Display   string        `yaml:"display" validate:"oneof=fixed inertial"`
	Gravity   string        `yaml:"gravity" validate:"oneof=wgs72 wgs84"`
	Window    time.Duration `yaml:"window" validate:"gt=0"`
	Step      time.Duration `yaml:"step" validate:"gt=0"`
	LeadTime  time.Duration `yaml:"lead_time" validate:"gte=0"`
	TrailTime time.Duration `yaml:"trail_time" validate:"gte=0"`
	Workers   int           `yaml:"workers" validate:"gte=1,lte=256"`
}

// ClockConfig drives the simulation clock used by the CLI.
type ClockConfig struct {
	Tick       time.Duration `yaml:"tick" validate:"gt=0"`
	Multiplier float64       `yaml:"multiplier" validate:"gt=0"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
}

// StreamConfig controls the websocket position feed.
type StreamConfig struct {
	Enabled            bool    `yaml:"enabled"`
	Addr               string  `yaml:"addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
	RateHz             float64 `yaml:"rate_hz" validate:"gt=0,lte=120"`
	MaxConcurrentPerIP int     `yaml:"max_concurrent_per_ip" validate:"gte=1"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			Display:  "fixed",
			Gravity:  "wgs72",
			Window:   24 * time.Hour,
			Step:     time.Minute,
			LeadTime: 90 * time.Minute,
			Workers:  defaultWorkers(),
		},
		Clock: ClockConfig{
			Tick:       time.Second / 60,
			Multiplier: 1,
		},
		Logging: logging.Config{Level: "info", Format: "text"},
		Tracing: observability.DefaultTracingConfig(),
		Metrics: MetricsConfig{Addr: ":9090"},
		Stream:  StreamConfig{Addr: ":8080", RateHz: 10, MaxConcurrentPerIP: 4},
	}
}

func defaultWorkers() int {
	n := runtime.NumCPU()
	if n > 64 {
		n = 64
	}
	return n
}

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes data over the defaults and validates, without consulting
// the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func Validate(cfg Config) error {
	v := validator.New()
	for name, section := range map[string]any{
		"engine":  cfg.Engine,
		"clock":   cfg.Clock,
		"logging": cfg.Logging,
		"tracing": cfg.Tracing,
		"metrics": cfg.Metrics,
		"stream":  cfg.Stream,
	} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("invalid %s config: %w", name, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TRACKER_DISPLAY"); v != "" {
		cfg.Engine.Display = v
	}
	if v := os.Getenv("TRACKER_GRAVITY"); v != "" {
		cfg.Engine.Gravity = v
	}
	for name, dst := range map[string]*time.Duration{
		"TRACKER_WINDOW": &cfg.Engine.Window,
		"TRACKER_STEP":   &cfg.Engine.Step,
		"TRACKER_TICK":   &cfg.Clock.Tick,
	} {
		if v := os.Getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			*dst = d
		}
	}
	if v := os.Getenv("TRACKER_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRACKER_WORKERS: %w", err)
		}
		cfg.Engine.Workers = n
	}
	if v := os.Getenv("TRACKER_METRICS_ADDR"); v != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("TRACKER_STREAM_ADDR"); v != "" {
		cfg.Stream.Enabled = true
		cfg.Stream.Addr = v
	}
	cfg.Logging = logging.ConfigFromEnv(cfg.Logging)
	cfg.Tracing = observability.TracingConfigOverlayEnv(cfg.Tracing)
	return nil
}
