package core

import (
	"time"

	"github.com/signalsfoundry/orbit-tracker/frame"
	"github.com/signalsfoundry/orbit-tracker/internal/arena"
	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/propagation"
	"github.com/signalsfoundry/orbit-tracker/scene"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// Track is one tracked object: its derived constants, its host point and
// the outcome of the most recent propagation.
type Track struct {
	ID    string
	Name  string
	Class model.Classification
	Epoch time.Time
	Hint  *model.VisualHint

	handle arena.Handle // constants, shared with any path built from them
	point  scene.Point

	hasGood   bool
	lastAt    time.Time
	lastTEME  model.StateVector // km, km/s
	lastShown model.StateVector // display metres

	lastErr  propagation.Kind
	failures int
}

// TrackInfo is a read-only description of a Track.
type TrackInfo struct {
	ID       string
	Name     string
	Class    model.Classification
	Epoch    time.Time
	Elements tle.Elements

	// HasPosition is false until the first successful tick.
	HasPosition bool
	At          time.Time
	Position    model.Vec3 // display metres
	SpeedKmS    float64
	SubPoint    frame.Geodetic
	PeriodMin   float64

	LastError propagation.Kind
	Failures  int
}

func (tr *Track) info(c *propagation.Constants) TrackInfo {
	info := TrackInfo{
		ID:        tr.ID,
		Name:      tr.Name,
		Class:     tr.Class,
		Epoch:     tr.Epoch,
		LastError: tr.lastErr,
		Failures:  tr.failures,
	}
	if c != nil {
		el := c.Elements()
		info.Elements = el
		info.PeriodMin = el.Period().Minutes()
	}
	if tr.hasGood {
		info.HasPosition = true
		info.At = tr.lastAt
		info.Position = tr.lastShown.Position
		info.SpeedKmS = tr.lastTEME.Velocity.Norm()
		info.SubPoint = frame.GeodeticOf(tr.lastTEME.Position, tr.lastAt)
	}
	return info
}
