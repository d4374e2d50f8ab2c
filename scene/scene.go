// Package scene defines the host rendering collaborators the tracking
// engine drives: point markers, path entities, the host clock and the
// per-frame hook. Memory is an in-process implementation.
package scene

import (
	"time"

	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/trajectory"
)

// Color is an RGBA display colour.
type Color = model.Color

// PointStyle describes a point marker at creation time.
type PointStyle struct {
	ID        string
	Label     string
	Color     Color
	PixelSize float64
}

// Point is a host-owned marker. SetPosition is called every frame and
// must not allocate.
type Point interface {
	SetPosition(p model.Vec3)
	SetVisible(visible bool)
	Visible() bool
}

// PointCollection creates and releases point markers.
type PointCollection interface {
	Add(style PointStyle) Point
	Remove(p Point)
}

// Origin tells pinned paths from the transient hover path.
type Origin int

const (
	// Pinned paths persist until toggled off or hidden.
	Pinned Origin = iota
	// Hover is the single transient path.
	Hover
)

func (o Origin) String() string {
	if o == Hover {
		return "hover"
	}
	return "pinned"
}

// EntityKey identifies a path entity in the registry.
type EntityKey struct {
	Origin Origin
	ID     string
}

// EntitySpec describes a path entity to register.
type EntitySpec struct {
	Key       EntityKey
	Label     string
	Color     Color
	Path      *trajectory.Trajectory
	LeadTime  time.Duration
	TrailTime time.Duration
}

// Entity is a registered path entity.
type Entity interface {
	Key() EntityKey
	SetVisible(visible bool)
	Visible() bool
}

// EntityRegistry owns path entities.
type EntityRegistry interface {
	Add(spec EntitySpec) (Entity, error)
	Remove(key EntityKey) bool
	Get(key EntityKey) (Entity, bool)
}

// Clock is the host's current display time.
type Clock interface {
	Now() time.Time
	Set(t time.Time)
}

// FrameHook invokes listeners once per rendered frame.
type FrameHook interface {
	AddListener(fn func(time.Time)) (remove func())
}
