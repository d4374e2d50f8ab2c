package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/scene"
	"github.com/signalsfoundry/orbit-tracker/timectrl"
)

func testScene() *scene.Memory {
	mem := scene.NewMemory()
	p := mem.Add(scene.PointStyle{ID: "25544", Label: "ISS (ZARYA)", PixelSize: 5})
	p.SetPosition(model.Vec3{X: 6778137, Y: 1, Z: 2})
	hidden := mem.Add(scene.PointStyle{ID: "33591", Label: "NOAA 19", PixelSize: 5})
	hidden.SetVisible(false)
	return mem
}

func dial(t *testing.T, srv *httptest.Server) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestStreamSendsSnapshots(t *testing.T) {
	start := time.Date(2025, 5, 18, 9, 0, 0, 0, time.UTC)
	clock := timectrl.NewTimeController(start, time.Second, timectrl.RealTime)
	srv := httptest.NewServer(NewHandler(testScene(), Config{RateHz: 50}, WithClock(clock)))
	defer srv.Close()

	conn, _, err := dial(t, srv)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	for want := uint64(0); want < 3; want++ {
		var msg positionsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read %d: %v", want, err)
		}
		if msg.Type != "positions" || msg.Seq != want {
			t.Fatalf("message %d = type %q seq %d", want, msg.Type, msg.Seq)
		}
		if msg.T != "2025-05-18T09:00:00Z" {
			t.Fatalf("timestamp = %q", msg.T)
		}
		if len(msg.Points) != 2 {
			t.Fatalf("points = %+v", msg.Points)
		}
		if msg.Points[0].ID != "25544" || msg.Points[0].P != [3]float64{6778137, 1, 2} || !msg.Points[0].Visible {
			t.Fatalf("first point = %+v", msg.Points[0])
		}
		if msg.Points[1].Visible {
			t.Fatalf("hidden point reported visible")
		}
	}
}

func TestStreamLimitsPerIP(t *testing.T) {
	h := NewHandler(testScene(), Config{RateHz: 5, MaxConcurrentPerIP: 1})
	srv := httptest.NewServer(h)
	defer srv.Close()

	first, _, err := dial(t, srv)
	if err != nil {
		t.Fatalf("first dial: %v", err)
	}

	_, resp, err := dial(t, srv)
	if err == nil {
		t.Fatalf("second dial should be refused")
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second dial response = %v", resp)
	}

	first.Close()
	deadline := time.Now().Add(5 * time.Second)
	for h.limiter.count("127.0.0.1") != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("slot not released after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
	again, _, err := dial(t, srv)
	if err != nil {
		t.Fatalf("dial after release: %v", err)
	}
	again.Close()
}

func TestStreamRejectsPlainHTTP(t *testing.T) {
	srv := httptest.NewServer(NewHandler(testScene(), Config{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestConnLimiterGlobalCap(t *testing.T) {
	l := newConnLimiter(5, 2)
	if !l.acquire("a") || !l.acquire("b") {
		t.Fatalf("acquire under cap failed")
	}
	if l.acquire("c") {
		t.Fatalf("acquire over global cap succeeded")
	}
	l.release("a")
	if !l.acquire("c") {
		t.Fatalf("acquire after release failed")
	}
	if l.count("a") != 0 || l.count("c") != 1 {
		t.Fatalf("counts a=%d c=%d", l.count("a"), l.count("c"))
	}
}
