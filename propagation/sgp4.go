package propagation

import (
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// Gravity selects the geopotential constants used by SGP4.
type Gravity string

const (
	GravityWGS72 Gravity = "wgs72"
	GravityWGS84 Gravity = "wgs84"
)

// SGP4 implements Propagator on github.com/joshuaferrara/go-satellite.
//
// The library takes whole seconds and discards its runtime error codes.
// The adapter evaluates the two bracketing seconds and joins them with a
// cubic Hermite step, and repeats the kernel's mean-element and output
// checks itself (see kernelTerms). Times are measured from the library's
// own epoch, which is the element epoch truncated to the second.
type SGP4 struct {
	gravity Gravity
}

// NewSGP4 returns an adapter using the given gravity model, WGS-72 when empty.
func NewSGP4(g Gravity) *SGP4 {
	if g == "" {
		g = GravityWGS72
	}
	return &SGP4{gravity: g}
}

// Gravity returns the configured gravity model.
func (s *SGP4) Gravity() Gravity { return s.gravity }

// DeriveConstants validates the record and initialises the SGP4 model.
// Validation runs first because the library aborts the process on
// unparsable columns.
func (s *SGP4) DeriveConstants(es model.ElementSet) (*Constants, error) {
	line1, line2 := tle.NormalizeLines(es.Line1, es.Line2)
	el, err := tle.ParseElements(line1, line2)
	if err != nil {
		return nil, &Error{Kind: KindMalformedRecord, ID: es.ID, Err: err}
	}
	if el.MeanMotion <= 0 {
		return nil, &Error{Kind: KindMeanMotion, ID: es.ID, Detail: fmt.Sprintf("mean motion %.8f rev/day", el.MeanMotion)}
	}
	if el.Eccentricity >= 1 {
		return nil, &Error{Kind: KindEccentricity, ID: es.ID, Detail: fmt.Sprintf("eccentricity %.7f", el.Eccentricity)}
	}

	var sat satellite.Satellite
	if s.gravity == GravityWGS84 {
		sat = satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	} else {
		sat = satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	}
	if sat.Error != 0 {
		return nil, &Error{
			Kind:   kindFromCode(int64(sat.Error)),
			ID:     es.ID,
			Detail: fmt.Sprintf("sgp4 init code=%d %s", sat.Error, sat.ErrorStr),
		}
	}

	terms, err := readKernelTerms(&sat)
	if err != nil {
		return nil, &Error{Kind: KindDiverged, ID: es.ID, Detail: "sgp4 terms", Err: err}
	}

	c := &Constants{id: es.ID, epoch: el.Epoch, elements: el, sat: sat, terms: terms}
	if _, err := s.Propagate(c, 0); err != nil {
		return nil, &Error{Kind: KindOf(err), ID: es.ID, Detail: "state at epoch"}
	}
	return c, nil
}

// Propagate evaluates the state vector minutesFromEpoch after the epoch.
// Failures return a bare Kind.
func (s *SGP4) Propagate(c *Constants, minutesFromEpoch float64) (model.StateVector, error) {
	if c == nil {
		return model.StateVector{}, KindMalformedRecord
	}
	if math.IsNaN(minutesFromEpoch) || math.IsInf(minutesFromEpoch, 0) {
		return model.StateVector{}, KindNonFinite
	}

	at := c.terms.epoch.Add(time.Duration(minutesFromEpoch * float64(time.Minute)))
	whole := at.Truncate(time.Second)
	frac := at.Sub(whole).Seconds()

	sv0, kind := evaluate(c, whole)
	if kind != KindNone {
		return model.StateVector{}, kind
	}
	if frac < 1e-9 {
		return sv0, nil
	}
	sv1, kind := evaluate(c, whole.Add(time.Second))
	if kind != KindNone {
		return model.StateVector{}, kind
	}
	return hermiteStep(sv0, sv1, frac), nil
}

// evaluate runs the kernel at a whole second t.
func evaluate(c *Constants, t time.Time) (model.StateVector, Kind) {
	if kind := c.terms.meanCheck(t.Sub(c.terms.epoch).Minutes()); kind != KindNone {
		return model.StateVector{}, kind
	}
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()
	pos, vel := satellite.Propagate(c.sat, year, int(month), day, hour, minute, sec)

	sv := model.StateVector{
		Position: model.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z},
		Velocity: model.Vec3{X: vel.X, Y: vel.Y, Z: vel.Z},
	}
	if !sv.Position.IsFinite() || !sv.Velocity.IsFinite() {
		return model.StateVector{}, KindNonFinite
	}
	if kind := c.terms.stateCheck(pos, vel); kind != KindNone {
		return model.StateVector{}, kind
	}
	return sv, KindNone
}

// hermiteStep blends two states one second apart at fraction f in [0, 1).
func hermiteStep(a, b model.StateVector, f float64) model.StateVector {
	f2 := f * f
	f3 := f2 * f
	h00 := 2*f3 - 3*f2 + 1
	h10 := f3 - 2*f2 + f
	h01 := -2*f3 + 3*f2
	h11 := f3 - f2

	d00 := 6*f2 - 6*f
	d10 := 3*f2 - 4*f + 1
	d01 := -6*f2 + 6*f
	d11 := 3*f2 - 2*f

	// Interval length is one second, so velocities (km/s) enter unscaled.
	pos := a.Position.Scale(h00).
		Add(a.Velocity.Scale(h10)).
		Add(b.Position.Scale(h01)).
		Add(b.Velocity.Scale(h11))
	vel := a.Position.Scale(d00).
		Add(a.Velocity.Scale(d10)).
		Add(b.Position.Scale(d01)).
		Add(b.Velocity.Scale(d11))
	return model.StateVector{Position: pos, Velocity: vel}
}
