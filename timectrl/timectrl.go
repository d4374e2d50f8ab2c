package timectrl

import (
	"sync"
	"time"
)

// SimClock is the read side of simulation time, for components that only
// need the current instant.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances simulation time by one Tick per wall-clock Tick.
	RealTime Mode = iota
	// Accelerated advances by Tick * Multiplier per wall-clock Tick.
	Accelerated
)

type listener struct {
	id int
	fn func(time.Time)
}

// TimeController drives simulation time and notifies registered listeners
// once per tick. It implements scene.Clock and scene.FrameHook.
type TimeController struct {
	mu         sync.RWMutex
	StartTime  time.Time
	Tick       time.Duration
	Mode       Mode
	Multiplier float64

	// currentTime is the instant delivered to listeners on the last tick,
	// or the last value passed to Set.
	currentTime time.Time

	// listeners is replaced, never mutated, so a tick can range over a
	// snapshot without copying.
	listeners []listener
	nextID    int
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		Multiplier:  1,
		currentTime: start,
	}
}

// Now returns the current simulation time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// Set moves simulation time to t. The next tick advances from t.
func (tc *TimeController) Set(t time.Time) {
	tc.mu.Lock()
	tc.currentTime = t
	tc.mu.Unlock()
}

// AddListener registers a callback invoked on every tick. It returns a
// function that removes the callback.
func (tc *TimeController) AddListener(fn func(time.Time)) (remove func()) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	id := tc.nextID
	tc.nextID++
	next := make([]listener, len(tc.listeners), len(tc.listeners)+1)
	copy(next, tc.listeners)
	tc.listeners = append(next, listener{id: id, fn: fn})

	return func() {
		tc.mu.Lock()
		defer tc.mu.Unlock()
		next := make([]listener, 0, len(tc.listeners))
		for _, l := range tc.listeners {
			if l.id != id {
				next = append(next, l)
			}
		}
		tc.listeners = next
	}
}

// Listeners returns the number of registered callbacks.
func (tc *TimeController) Listeners() int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return len(tc.listeners)
}

func (tc *TimeController) step() time.Duration {
	if tc.Mode == Accelerated && tc.Multiplier > 0 {
		return time.Duration(float64(tc.Tick) * tc.Multiplier)
	}
	return tc.Tick
}

// Advance moves simulation time forward by one step and runs every
// listener synchronously. It returns the new time.
func (tc *TimeController) Advance() time.Time {
	tc.mu.Lock()
	tc.currentTime = tc.currentTime.Add(tc.step())
	now := tc.currentTime
	ls := tc.listeners
	tc.mu.Unlock()

	for _, l := range ls {
		l.fn(now)
	}
	return now
}

// Start runs the controller for the specified wall-clock duration in a
// separate goroutine; a zero duration runs until stop is closed. It returns
// a channel that is closed when the controller finishes.
func (tc *TimeController) Start(duration time.Duration, stop <-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		tc.Set(tc.StartTime)
		elapsed := time.Duration(0)

		ticker := time.NewTicker(tc.Tick)
		defer ticker.Stop()

		for {
			if duration > 0 && elapsed >= duration {
				return
			}
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
			elapsed += tc.Tick
			tc.Advance()
		}
	}()
	return done
}
