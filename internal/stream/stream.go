// Package stream serves a websocket feed of point marker snapshots so a
// remote viewer can mirror the tracker's scene.
//
// Each message is one JSON object:
//
//	{"type":"positions","seq":12,"t":"2025-05-18T09:00:00Z","points":[{"id":"25544","p":[x,y,z],"visible":true}]}
//
// Positions are in metres in the engine's display frame. Messages are
// paced by a per-connection token bucket, so a slow scene never floods a
// client and a fast one is sampled.
package stream

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/scene"
)

const (
	writeWait       = 5 * time.Second
	defaultMaxTotal = 1000
)

// Source supplies point snapshots. *scene.Memory satisfies it.
type Source interface {
	Points() []scene.PointState
}

// Config holds feed limits.
type Config struct {
	RateHz             float64
	MaxConcurrentPerIP int
	MaxTotal           int
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler's logger.
func WithLogger(l logging.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithClock stamps messages with the simulation time of c rather than
// the wall clock.
func WithClock(c scene.Clock) Option {
	return func(h *Handler) {
		if c != nil {
			h.now = c.Now
		}
	}
}

// Handler upgrades requests to websocket connections and streams
// snapshots until the client goes away.
type Handler struct {
	src      Source
	cfg      Config
	limiter  *connLimiter
	upgrader websocket.Upgrader
	log      logging.Logger
	now      func() time.Time
}

// NewHandler builds a feed over src.
func NewHandler(src Source, cfg Config, opts ...Option) *Handler {
	if cfg.RateHz <= 0 {
		cfg.RateHz = 10
	}
	if cfg.MaxConcurrentPerIP <= 0 {
		cfg.MaxConcurrentPerIP = 4
	}
	if cfg.MaxTotal <= 0 {
		cfg.MaxTotal = defaultMaxTotal
	}
	h := &Handler{
		src:     src,
		cfg:     cfg,
		limiter: newConnLimiter(cfg.MaxConcurrentPerIP, cfg.MaxTotal),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: logging.Noop(),
		now: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

type pointPayload struct {
	ID      string     `json:"id"`
	P       [3]float64 `json:"p"`
	Visible bool       `json:"visible"`
}

type positionsMessage struct {
	Type   string         `json:"type"`
	Seq    uint64         `json:"seq"`
	T      string         `json:"t"`
	Points []pointPayload `json:"points"`
}

func (h *Handler) snapshot(seq uint64, buf []pointPayload) positionsMessage {
	pts := h.src.Points()
	buf = buf[:0]
	for _, p := range pts {
		buf = append(buf, pointPayload{
			ID:      p.ID,
			P:       [3]float64{p.Position.X, p.Position.Y, p.Position.Z},
			Visible: p.Visible,
		})
	}
	return positionsMessage{
		Type:   "positions",
		Seq:    seq,
		T:      h.now().UTC().Format(time.RFC3339Nano),
		Points: buf,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if !h.limiter.acquire(ip) {
		h.log.Warn(r.Context(), "stream connection limit exceeded",
			logging.String("remote_ip", ip),
			logging.Int("current_count", h.limiter.count(ip)),
		)
		w.Header().Set("Retry-After", "30")
		http.Error(w, "too many concurrent streams", http.StatusTooManyRequests)
		return
	}
	defer h.limiter.release(ip)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.log.Debug(r.Context(), "stream upgrade failed", logging.String("remote_ip", ip), logging.Err(err))
		return
	}
	defer conn.Close()

	started := time.Now()
	h.log.Info(r.Context(), "stream connected",
		logging.String("remote_ip", ip),
		logging.Float("rate_hz", h.cfg.RateHz),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sent := h.pump(ctx, conn)
	h.log.Info(r.Context(), "stream disconnected",
		logging.String("remote_ip", ip),
		logging.Int("messages", int(sent)),
		logging.Duration("duration", time.Since(started)),
	)
}

// pump writes snapshots until ctx ends or a write fails and returns the
// number of messages sent.
func (h *Handler) pump(ctx context.Context, conn *websocket.Conn) uint64 {
	lim := rate.NewLimiter(rate.Limit(h.cfg.RateHz), 1)
	var (
		seq uint64
		buf []pointPayload
	)
	for {
		if err := lim.Wait(ctx); err != nil {
			return seq
		}
		msg := h.snapshot(seq, buf)
		buf = msg.Points
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.log.Debug(ctx, "stream write failed", logging.Err(err))
			return seq
		}
		seq++
	}
}
