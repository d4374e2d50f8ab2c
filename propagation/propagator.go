package propagation

import (
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// Propagator derives per-object constants and evaluates state vectors.
// Every error is non-fatal to callers: skip the sample and continue.
type Propagator interface {
	DeriveConstants(es model.ElementSet) (*Constants, error)
	Propagate(c *Constants, minutesFromEpoch float64) (model.StateVector, error)
}

// Constants is the opaque per-object result of a successful derivation.
type Constants struct {
	id       string
	epoch    time.Time
	elements tle.Elements
	sat      satellite.Satellite
	terms    kernelTerms
}

// ID returns the identifier the constants were derived for.
func (c *Constants) ID() string { return c.id }

// Epoch returns the instant the element set is valid for.
func (c *Constants) Epoch() time.Time { return c.epoch }

// Elements returns the parsed element set.
func (c *Constants) Elements() tle.Elements { return c.elements }

// MinutesAt converts an absolute instant to minutes since epoch.
func (c *Constants) MinutesAt(t time.Time) float64 {
	return t.Sub(c.epoch).Minutes()
}
