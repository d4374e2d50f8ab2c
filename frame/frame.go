// Package frame converts propagator-native TEME states into the display
// frame. Display coordinates are metres in the host's Earth-fixed frame.
//
// Two rotation sources exist: BodyFixed (TEME -> pseudo-Earth-fixed through
// GMST, always available) and a host-supplied precise inertial transform
// which may report that it is not yet available.
package frame

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// OmegaEarth is Earth's rotation rate in rad/s.
const OmegaEarth = 7.292115146706979e-5

const kmToM = 1000.0

// Display selects where display rotations come from.
type Display int

const (
	// Fixed uses the GMST body-fixed rotation.
	Fixed Display = iota
	// Inertial uses the host's inertial-to-fixed rotation.
	Inertial
)

func (d Display) String() string {
	switch d {
	case Inertial:
		return "inertial"
	default:
		return "fixed"
	}
}

// ParseDisplay parses "fixed" or "inertial".
func ParseDisplay(s string) (Display, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return Fixed, nil
	case "inertial":
		return Inertial, nil
	default:
		return Fixed, fmt.Errorf("unknown display frame %q", s)
	}
}

// Matrix3 is a row-major 3x3 rotation.
type Matrix3 [3][3]float64

// Identity is the identity rotation.
var Identity = Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Apply returns m * v.
func (m *Matrix3) Apply(v model.Vec3) model.Vec3 {
	return model.Vec3{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// RotationZ returns the frame rotation R3(theta).
func RotationZ(theta float64) Matrix3 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Matrix3{{c, s, 0}, {-s, c, 0}, {0, 0, 1}}
}

// Source produces the native-to-display rotation for an instant.
// ok is false while the rotation cannot be computed yet.
type Source interface {
	Rotation(t time.Time) (m Matrix3, ok bool)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(t time.Time) (Matrix3, bool)

// Rotation calls f.
func (f SourceFunc) Rotation(t time.Time) (Matrix3, bool) { return f(t) }

// BodyFixed rotates TEME into the pseudo-Earth-fixed frame by GMST.
// Polar motion and the equation of the equinoxes are ignored.
type BodyFixed struct{}

// Rotation implements Source. It is always available.
func (BodyFixed) Rotation(t time.Time) (Matrix3, bool) {
	return RotationZ(GMST(t)), true
}

// JulianDate returns the UTC Julian date including the sub-second fraction.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	jd := satellite.JDay(year, int(month), day, hour, minute, sec)
	return jd + float64(t.Nanosecond())/86400e9
}

// GMST returns Greenwich mean sidereal time in radians (IAU-82).
func GMST(t time.Time) float64 {
	return satellite.ThetaG_JD(JulianDate(t))
}

// ToDisplay converts a TEME state in km, km/s into display metres through m.
// The velocity includes the transport term -omega x r.
func ToDisplay(m *Matrix3, sv model.StateVector) model.StateVector {
	r := m.Apply(sv.Position)
	v := m.Apply(sv.Velocity)
	v.X += OmegaEarth * r.Y
	v.Y -= OmegaEarth * r.X
	return model.StateVector{Position: r.Scale(kmToM), Velocity: v.Scale(kmToM)}
}

// Windowed exposes an inner source only inside a preloaded interval, the
// way precise inertial transforms depend on loaded orientation data.
type Windowed struct {
	Inner Source

	mu          sync.RWMutex
	start, stop time.Time
}

// Load marks [start, stop] as available.
func (w *Windowed) Load(start, stop time.Time) {
	w.mu.Lock()
	w.start, w.stop = start, stop
	w.mu.Unlock()
}

// Rotation implements Source.
func (w *Windowed) Rotation(t time.Time) (Matrix3, bool) {
	w.mu.RLock()
	start, stop := w.start, w.stop
	w.mu.RUnlock()
	if start.IsZero() || t.Before(start) || t.After(stop) || w.Inner == nil {
		return Matrix3{}, false
	}
	return w.Inner.Rotation(t)
}
