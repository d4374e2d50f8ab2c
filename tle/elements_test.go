package tle

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

// ISS (ZARYA), real element set with valid checksums.
const (
	issLine1 = "1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994"
	issLine2 = "2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533"
)

func TestParseElementsISS(t *testing.T) {
	el, err := ParseElements(issLine1, issLine2)
	if err != nil {
		t.Fatalf("ParseElements: %v", err)
	}
	if el.CatalogNumber != 25544 {
		t.Fatalf("CatalogNumber = %d, want 25544", el.CatalogNumber)
	}
	if el.Designator != "98067A" || el.Classification != 'U' {
		t.Fatalf("designator/classification = %q/%c", el.Designator, el.Classification)
	}
	day := float64(24 * time.Hour)
	wantEpoch := time.Date(2025, 5, 18, 0, 0, 0, 0, time.UTC).Add(time.Duration(0.37048074 * day))
	if d := el.Epoch.Sub(wantEpoch); d < -time.Millisecond || d > time.Millisecond {
		t.Fatalf("Epoch = %v, want %v", el.Epoch, wantEpoch)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"inclination", el.Inclination, 51.6369},
		{"raan", el.RAAN, 94.7823},
		{"eccentricity", el.Eccentricity, 0.0002558},
		{"arg perigee", el.ArgPerigee, 120.7586},
		{"mean anomaly", el.MeanAnomaly, 15.7840},
		{"mean motion", el.MeanMotion, 15.49587957},
		{"bstar", el.BStar, 0.14567e-3},
		{"ndot", el.MeanMotionDot, 0.00007749},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Fatalf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if el.RevNumber != 51053 {
		t.Fatalf("RevNumber = %d, want 51053", el.RevNumber)
	}
	if p := el.Period(); p < 92*time.Minute || p > 94*time.Minute {
		t.Fatalf("Period = %v, want ~93m", p)
	}
}

func TestParseElementsRejectsMalformed(t *testing.T) {
	badChecksum := issLine1[:68] + "0"
	otherID := "2 25545" + issLine2[7:]

	cases := []struct {
		name         string
		line1, line2 string
	}{
		{"short line", issLine1[:60], issLine2},
		{"wrong line number", "3" + issLine1[1:], issLine2},
		{"bad checksum", badChecksum, issLine2},
		{"catalog mismatch", issLine1, otherID[:68] + string(rune('0'+Checksum(otherID)))},
		{"garbage", strings.Repeat("x", 69), issLine2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseElements(tc.line1, tc.line2)
			if !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("expected ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestParseElementsToleratesTrailingWhitespace(t *testing.T) {
	if _, err := ParseElements(issLine1+"  \r\n", issLine2+"\n"); err != nil {
		t.Fatalf("ParseElements with trailing whitespace: %v", err)
	}
}

func TestEpochFromFieldsCentury(t *testing.T) {
	got, err := EpochFromFields(57, 1)
	if err != nil {
		t.Fatalf("EpochFromFields: %v", err)
	}
	if got.Year() != 1957 {
		t.Fatalf("year 57 mapped to %d, want 1957", got.Year())
	}
	got, err = EpochFromFields(56, 1.5)
	if err != nil {
		t.Fatalf("EpochFromFields: %v", err)
	}
	if want := time.Date(2056, 1, 1, 12, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("EpochFromFields(56, 1.5) = %v, want %v", got, want)
	}
	if _, err := EpochFromFields(20, 0); !errors.Is(err, ErrMalformedRecord) {
		t.Fatalf("expected error for day 0, got %v", err)
	}
}

func TestChecksum(t *testing.T) {
	if got := Checksum(issLine1); got != 4 {
		t.Fatalf("Checksum(line1) = %d, want 4", got)
	}
	if got := Checksum(issLine2); got != 3 {
		t.Fatalf("Checksum(line2) = %d, want 3", got)
	}
}
