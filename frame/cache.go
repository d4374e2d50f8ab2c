package frame

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// Cache memoises the display rotation for the current render tick only.
// It has one writer (the per-tick updater) and is read by every per-object
// conversion in the same tick, so it carries no lock.
type Cache struct {
	src Source

	valid      bool
	at         time.Time
	m          Matrix3
	recomputes uint64
}

// NewCache wraps src.
func NewCache(src Source) *Cache {
	if src == nil {
		src = BodyFixed{}
	}
	return &Cache{src: src}
}

// SourceFor returns the rotation source for a display choice. host is
// required for Inertial and ignored for Fixed.
func SourceFor(d Display, host Source) Source {
	if d == Inertial && host != nil {
		return host
	}
	return BodyFixed{}
}

// Update makes t the current tick. The rotation is computed at most once
// per distinct t; when the source is unavailable the cache is left empty
// and Update reports false.
func (c *Cache) Update(t time.Time) bool {
	if c.valid && c.at.Equal(t) {
		return true
	}
	m, ok := c.src.Rotation(t)
	if !ok {
		c.valid = false
		return false
	}
	c.at, c.m, c.valid = t, m, true
	c.recomputes++
	return true
}

// Rotation returns the memoised rotation when t is the current tick and
// computes a fresh one, without storing it, for any other instant.
func (c *Cache) Rotation(t time.Time) (Matrix3, bool) {
	if c.valid && c.at.Equal(t) {
		return c.m, true
	}
	return c.src.Rotation(t)
}

// Convert rotates sv (TEME km) into display metres at instant t.
func (c *Cache) Convert(t time.Time, sv model.StateVector) (model.StateVector, bool) {
	m, ok := c.Rotation(t)
	if !ok {
		return model.StateVector{}, false
	}
	return ToDisplay(&m, sv), true
}

// ConvertCurrent converts with the current tick's rotation. Callers must
// have seen Update return true for this tick.
func (c *Cache) ConvertCurrent(sv model.StateVector) model.StateVector {
	return ToDisplay(&c.m, sv)
}

// Valid reports whether a rotation is cached and for which instant.
func (c *Cache) Valid() (time.Time, bool) { return c.at, c.valid }

// Reset drops the memoised rotation.
func (c *Cache) Reset() { c.valid = false }

// Recomputes returns how many times the source was evaluated by Update.
func (c *Cache) Recomputes() uint64 { return c.recomputes }

// Geodetic is a sub-satellite point.
type Geodetic struct {
	LatitudeDeg  float64
	LongitudeDeg float64
	AltitudeKm   float64
}

// GeodeticOf converts a TEME position (km) at t into latitude, longitude
// and altitude above the reference ellipsoid.
func GeodeticOf(pos model.Vec3, t time.Time) Geodetic {
	altitude, _, ll := satellite.ECIToLLA(satellite.Vector3{X: pos.X, Y: pos.Y, Z: pos.Z}, GMST(t))
	lon := math.Remainder(ll.Longitude*180/math.Pi, 360)
	return Geodetic{LatitudeDeg: ll.Latitude * 180 / math.Pi, LongitudeDeg: lon, AltitudeKm: altitude}
}
