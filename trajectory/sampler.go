package trajectory

import (
	"math"
	"time"

	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/propagation"
)

// DefaultStep is the sampling interval used when Sampler.Step is zero.
const DefaultStep = 60 * time.Second

// Converter maps a TEME state (km, km/s) at t into display metres.
// frame.Cache satisfies it.
type Converter interface {
	Convert(t time.Time, sv model.StateVector) (model.StateVector, bool)
}

// Sampler builds trajectories by evaluating a propagator at a fixed step.
type Sampler struct {
	Propagator propagation.Propagator
	Converter  Converter
	Step       time.Duration
	Policy     Policy
}

// StepCount returns the number of intervals a window is divided into.
func StepCount(window, step time.Duration) int {
	if step <= 0 {
		step = DefaultStep
	}
	n := int(math.Ceil(window.Seconds() / step.Seconds()))
	if n < 2 {
		n = 2
	}
	return n
}

// Sample evaluates c over [start, stop]. Instants where propagation fails
// or the display rotation is unavailable are skipped and counted as gaps.
func (s Sampler) Sample(c *propagation.Constants, start, stop time.Time) *Trajectory {
	policy := s.Policy
	if policy == (Policy{}) {
		policy = DefaultPolicy
	}
	window := stop.Sub(start)
	if window < 0 {
		window = 0
	}
	steps := StepCount(window, s.Step)
	samples := make([]Sample, 0, steps+1)
	gaps := 0
	for i := 0; i <= steps; i++ {
		at := start.Add(time.Duration(float64(window) * float64(i) / float64(steps)))
		sv, err := s.Propagator.Propagate(c, c.MinutesAt(at))
		if err != nil {
			gaps++
			continue
		}
		out, ok := s.convert(at, sv)
		if !ok {
			gaps++
			continue
		}
		if n := len(samples); n > 0 && !samples[n-1].Time.Before(at) {
			continue
		}
		samples = append(samples, Sample{Time: at, Position: out.Position, Velocity: out.Velocity})
	}
	tr := New(samples, policy)
	tr.gaps = gaps
	return tr
}

func (s Sampler) convert(at time.Time, sv model.StateVector) (model.StateVector, bool) {
	if s.Converter == nil {
		return model.StateVector{Position: sv.Position.Scale(1000), Velocity: sv.Velocity.Scale(1000)}, true
	}
	return s.Converter.Convert(at, sv)
}
