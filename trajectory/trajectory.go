// Package trajectory samples a propagator over a time window and exposes
// the result as an interpolable curve for path display.
package trajectory

import (
	"sort"
	"time"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// Sample is one display-frame state: position in metres, velocity in m/s.
type Sample struct {
	Time     time.Time
	Position model.Vec3
	Velocity model.Vec3
}

// Policy names the interpolation degree used for each quantity.
type Policy struct {
	PositionDegree int
	VelocityDegree int
}

// DefaultPolicy fits position with a quadratic and velocity linearly.
var DefaultPolicy = Policy{PositionDegree: 2, VelocityDegree: 1}

// Trajectory is an ordered, immutable set of samples.
type Trajectory struct {
	samples []Sample
	policy  Policy
	gaps    int
}

// New builds a trajectory from samples sorted by time.
func New(samples []Sample, policy Policy) *Trajectory {
	if policy.PositionDegree < 1 {
		policy.PositionDegree = 1
	}
	if policy.VelocityDegree < 1 {
		policy.VelocityDegree = 1
	}
	return &Trajectory{samples: samples, policy: policy}
}

// Len returns the number of samples.
func (tr *Trajectory) Len() int { return len(tr.samples) }

// Samples returns a copy of the samples.
func (tr *Trajectory) Samples() []Sample {
	out := make([]Sample, len(tr.samples))
	copy(out, tr.samples)
	return out
}

// Policy returns the interpolation policy.
func (tr *Trajectory) Policy() Policy { return tr.policy }

// Gaps returns how many sample instants were skipped while building.
func (tr *Trajectory) Gaps() int { return tr.gaps }

// Start returns the first sample time.
func (tr *Trajectory) Start() time.Time {
	if len(tr.samples) == 0 {
		return time.Time{}
	}
	return tr.samples[0].Time
}

// Stop returns the last sample time.
func (tr *Trajectory) Stop() time.Time {
	if len(tr.samples) == 0 {
		return time.Time{}
	}
	return tr.samples[len(tr.samples)-1].Time
}

// Position interpolates the position at t. ok is false outside the
// sampled span.
func (tr *Trajectory) Position(t time.Time) (model.Vec3, bool) {
	lo, ok := tr.window(t, tr.policy.PositionDegree+1)
	if !ok {
		return model.Vec3{}, false
	}
	n := tr.policy.PositionDegree + 1
	if lo+n > len(tr.samples) {
		n = len(tr.samples) - lo
	}
	return lagrange(tr.samples[lo:lo+n], t, func(s *Sample) model.Vec3 { return s.Position }), true
}

// Velocity interpolates the velocity at t.
func (tr *Trajectory) Velocity(t time.Time) (model.Vec3, bool) {
	lo, ok := tr.window(t, tr.policy.VelocityDegree+1)
	if !ok {
		return model.Vec3{}, false
	}
	n := tr.policy.VelocityDegree + 1
	if lo+n > len(tr.samples) {
		n = len(tr.samples) - lo
	}
	return lagrange(tr.samples[lo:lo+n], t, func(s *Sample) model.Vec3 { return s.Velocity }), true
}

// window returns the index of the first of the n samples nearest to t.
func (tr *Trajectory) window(t time.Time, n int) (int, bool) {
	count := len(tr.samples)
	if count == 0 || t.Before(tr.samples[0].Time) || t.After(tr.samples[count-1].Time) {
		return 0, false
	}
	// i is the first sample strictly after t.
	i := sort.Search(count, func(k int) bool { return tr.samples[k].Time.After(t) })
	lo := i - (n+1)/2
	if lo+n > count {
		lo = count - n
	}
	if lo < 0 {
		lo = 0
	}
	return lo, true
}

func lagrange(pts []Sample, t time.Time, value func(*Sample) model.Vec3) model.Vec3 {
	if len(pts) == 1 {
		return value(&pts[0])
	}
	base := pts[0].Time
	x := t.Sub(base).Seconds()
	var out model.Vec3
	for j := range pts {
		xj := pts[j].Time.Sub(base).Seconds()
		w := 1.0
		for m := range pts {
			if m == j {
				continue
			}
			xm := pts[m].Time.Sub(base).Seconds()
			w *= (x - xm) / (xj - xm)
		}
		out = out.Add(value(&pts[j]).Scale(w))
	}
	return out
}
