package propagation

import (
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/orbit-tracker/internal/fixtures"
)

func TestHeavyDragFailsInsteadOfDrifting(t *testing.T) {
	p := NewSGP4("")
	es := fixtures.Renumber(fixtures.ISS(), "90001")
	es.Line1 = fixtures.Splice(es.Line1, 53, " 99999+0")

	c, err := p.DeriveConstants(es)
	if err != nil {
		t.Fatalf("DeriveConstants: %v", err)
	}

	first := -1.0
	var firstKind Kind
	for m := 0.0; m <= 3*24*60; m += 10 {
		if _, err := p.Propagate(c, m); err != nil {
			first, firstKind = m, KindOf(err)
			break
		}
	}
	if first < 0 {
		t.Fatalf("B* of 1.0 propagated for three days without a failure")
	}
	if firstKind != KindEccentricity && firstKind != KindDecayed {
		t.Fatalf("first failure at minute %.0f is %s, want eccentricity or decayed", first, firstKind)
	}

	sawEccentricity := firstKind == KindEccentricity
	for m := first; m <= first+3*24*60; m += 10 {
		sv, err := p.Propagate(c, m)
		if err == nil {
			t.Fatalf("minute %.0f accepted after the elements left range: |r| = %.1f km", m, sv.Position.Norm())
		}
		if KindOf(err) == KindEccentricity {
			sawEccentricity = true
		}
	}
	if !sawEccentricity {
		t.Fatalf("no eccentricity failure reported")
	}
}

func TestPropagateUsesKernelEpoch(t *testing.T) {
	p := NewSGP4("")
	c, err := p.DeriveConstants(fixtures.ISS())
	if err != nil {
		t.Fatalf("DeriveConstants: %v", err)
	}
	lag := c.Epoch().Sub(c.terms.epoch)
	if lag <= 0 || lag >= time.Second {
		t.Fatalf("kernel epoch %v is not the element epoch %v truncated to the second", c.terms.epoch, c.Epoch())
	}

	at := c.terms.epoch.Add(time.Minute)
	year, month, day := at.Date()
	hour, minute, sec := at.Clock()
	pos, _ := satellite.Propagate(c.sat, year, int(month), day, hour, minute, sec)

	sv, err := p.Propagate(c, 1)
	if err != nil {
		t.Fatalf("Propagate: %v", err)
	}
	if sv.Position.X != pos.X || sv.Position.Y != pos.Y || sv.Position.Z != pos.Z {
		t.Fatalf("Propagate(1) = %+v, kernel at tsince 1 min = %+v", sv.Position, pos)
	}
}

func TestReadKernelTerms(t *testing.T) {
	sat := satellite.TLEToSat(fixtures.ISSLine1, fixtures.ISSLine2, satellite.GravityWGS72)
	k, err := readKernelTerms(&sat)
	if err != nil {
		t.Fatalf("readKernelTerms: %v", err)
	}
	if k.deep || k.simple {
		t.Fatalf("ISS should use the full near-Earth model, got deep=%v simple=%v", k.deep, k.simple)
	}
	if k.radius != 6378.135 || k.mu != 398600.8 {
		t.Fatalf("gravity constants = %v, %v", k.radius, k.mu)
	}
	if k.ecco != 0.0002558 || k.bstar <= 0 {
		t.Fatalf("ecco = %v, bstar = %v", k.ecco, k.bstar)
	}
}

func TestMeanCheck(t *testing.T) {
	k := kernelTerms{simple: true, no: 0.0676, ecco: 0.001, bstar: 1, cc4: 1e-6, mu: 398600.8, radius: 6378.135}
	if got := k.meanCheck(0); got != KindNone {
		t.Fatalf("meanCheck(0) = %s", got)
	}
	if got := k.meanCheck(5000); got != KindEccentricity {
		t.Fatalf("meanCheck after drag = %s, want eccentricity", got)
	}
	k.cc1 = 1e-3
	if got := k.meanCheck(1000); got != KindDecayed {
		t.Fatalf("meanCheck with tempa <= 0 = %s, want decayed", got)
	}
	k.cc1 = 1e-4
	if got := k.meanCheck(800); got != KindEccentricity {
		t.Fatalf("meanCheck with am below 0.95 = %s, want eccentricity", got)
	}
}

func TestStateCheck(t *testing.T) {
	k := kernelTerms{mu: 398600.8, radius: 6378.135}
	cases := []struct {
		name     string
		pos, vel satellite.Vector3
		want     Kind
	}{
		{"bound LEO", satellite.Vector3{X: 6778}, satellite.Vector3{Y: 7.67}, KindNone},
		{"zero vector", satellite.Vector3{}, satellite.Vector3{}, KindSemiLatusRectum},
		{"inside earth", satellite.Vector3{X: 6000}, satellite.Vector3{Y: 7.9}, KindDecayed},
		{"escape speed", satellite.Vector3{X: 6778}, satellite.Vector3{Y: 11}, KindEccentricity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := k.stateCheck(tc.pos, tc.vel); got != tc.want {
				t.Fatalf("stateCheck = %s, want %s", got, tc.want)
			}
		})
	}
}
