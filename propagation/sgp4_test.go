package propagation

import (
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/orbit-tracker/internal/fixtures"
	"github.com/signalsfoundry/orbit-tracker/model"
)

func TestDeriveAndPropagateISS(t *testing.T) {
	p := NewSGP4("")
	c, err := p.DeriveConstants(fixtures.ISS())
	if err != nil {
		t.Fatalf("DeriveConstants: %v", err)
	}
	if c.ID() != fixtures.ISSID {
		t.Fatalf("ID = %q", c.ID())
	}

	sv0, err := p.Propagate(c, 0)
	if err != nil {
		t.Fatalf("Propagate(0): %v", err)
	}
	r0 := sv0.Position.Norm()
	if r0 < 6600 || r0 > 7000 {
		t.Fatalf("|r| at epoch = %.1f km, want LEO (6600-7000 km)", r0)
	}
	if v := sv0.Velocity.Norm(); v < 7.4 || v > 7.9 {
		t.Fatalf("|v| at epoch = %.3f km/s, want ~7.66", v)
	}

	sv90, err := p.Propagate(c, 90)
	if err != nil {
		t.Fatalf("Propagate(90): %v", err)
	}
	if d := math.Abs(sv90.Position.Norm() - r0); d > 30 {
		t.Fatalf("radius drifted %.1f km over ~one orbit", d)
	}

	period := c.Elements().Period().Minutes()
	svP, err := p.Propagate(c, period)
	if err != nil {
		t.Fatalf("Propagate(period): %v", err)
	}
	if d := svP.Position.DistanceTo(sv0.Position); d > 150 {
		t.Fatalf("position after one period is %.1f km from epoch position", d)
	}
}

func TestPropagateFractionalSecondsAreSmooth(t *testing.T) {
	p := NewSGP4(GravityWGS84)
	c, err := p.DeriveConstants(fixtures.ISS())
	if err != nil {
		t.Fatalf("DeriveConstants: %v", err)
	}
	const base = 10.0 // minutes
	a, _ := p.Propagate(c, base)
	b, _ := p.Propagate(c, base+1.0/60)
	mid, err := p.Propagate(c, base+0.5/60)
	if err != nil {
		t.Fatalf("Propagate(mid): %v", err)
	}

	lerp := a.Position.Add(b.Position).Scale(0.5)
	if d := mid.Position.DistanceTo(lerp); d > 0.01 {
		t.Fatalf("half-second sample is %.4f km off the chord", d)
	}
	if d := mid.Position.DistanceTo(a.Position); math.Abs(d-0.5*a.Velocity.Norm()) > 0.05 {
		t.Fatalf("half-second displacement %.4f km, want ~%.4f", d, 0.5*a.Velocity.Norm())
	}

	// 60 Hz ticks never jump further than the orbital speed allows.
	prev := a
	for i := 1; i <= 120; i++ {
		cur, err := p.Propagate(c, base+float64(i)/(60*60))
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		step := cur.Position.DistanceTo(prev.Position)
		if limit := 1.1 * cur.Velocity.Norm() / 60; step > limit {
			t.Fatalf("tick %d moved %.4f km, limit %.4f", i, step, limit)
		}
		prev = cur
	}
}

func TestDeriveConstantsRejections(t *testing.T) {
	p := NewSGP4("")
	zeroMotion := fixtures.ISS()
	zeroMotion.Line2 = fixtures.Splice(zeroMotion.Line2, 52, " 0.00000000")

	garbled := fixtures.ISS()
	garbled.Line1 = garbled.Line1[:40]

	cases := []struct {
		name string
		es   model.ElementSet
		want Kind
	}{
		{"zero mean motion", zeroMotion, KindMeanMotion},
		{"truncated line", garbled, KindMalformedRecord},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.DeriveConstants(tc.es)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := KindOf(err); got != tc.want {
				t.Fatalf("KindOf = %s, want %s (%v)", got, tc.want, err)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("errors.Is(err, %s) = false", tc.want)
			}
			var detailed *Error
			if !errors.As(err, &detailed) || detailed.ID != tc.es.ID {
				t.Fatalf("expected *Error carrying the identifier, got %v", err)
			}
		})
	}
}

func TestPropagateRejectsBadInput(t *testing.T) {
	p := NewSGP4("")
	if _, err := p.Propagate(nil, 0); KindOf(err) != KindMalformedRecord {
		t.Fatalf("nil constants: got %v", err)
	}
	c, err := p.DeriveConstants(fixtures.ISS())
	if err != nil {
		t.Fatalf("DeriveConstants: %v", err)
	}
	if _, err := p.Propagate(c, math.NaN()); KindOf(err) != KindNonFinite {
		t.Fatalf("NaN minutes: got %v", err)
	}
}

func TestKindStrings(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds() {
		s := k.String()
		if s == "" || seen[s] {
			t.Fatalf("kind %d has empty or duplicate name %q", k, s)
		}
		seen[s] = true
	}
	if KindOf(nil) != KindNone || KindOf(errors.New("other")) != KindNone {
		t.Fatalf("KindOf should return KindNone for foreign errors")
	}
	if kindFromCode(6) != KindDecayed || kindFromCode(1) != KindEccentricity || kindFromCode(42) != KindDiverged {
		t.Fatalf("unexpected code mapping")
	}
}
