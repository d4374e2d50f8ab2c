package tle

import (
	"strings"
	"testing"

	"github.com/signalsfoundry/orbit-tracker/model"
)

const noaaCatalog = `ISS (ZARYA)
1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994
2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533
stray header line
NOAA 19
1 33591U 09005A   25074.18988975  .00000419  00000+0  24768-3 0  9991
2 33591  99.0072 138.3781 0012918 245.4492 114.5334 14.13308947829901
1 33591U 09005A   25074.18988975  .00000419  00000+0  24768-3 0  9991
2 33591  99.0072 138.3781 0012918 245.4492 114.5334 14.13308947829901
`

func TestParseCatalog(t *testing.T) {
	sets, rejected, err := Parse(strings.NewReader(noaaCatalog), model.ClassPayload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(sets) != 3 {
		t.Fatalf("got %d element sets, want 3", len(sets))
	}
	if sets[0].Name != "ISS (ZARYA)" || sets[0].ID != "25544" {
		t.Fatalf("first set = %q/%q", sets[0].Name, sets[0].ID)
	}
	if sets[1].Name != "NOAA 19" || sets[1].ID != "33591" {
		t.Fatalf("second set = %q/%q", sets[1].Name, sets[1].ID)
	}
	if sets[2].Name != "33591" {
		t.Fatalf("bare 2-line set should be named by id, got %q", sets[2].Name)
	}
	for _, s := range sets {
		if s.Class != model.ClassPayload {
			t.Fatalf("class = %q, want PAYLOAD", s.Class)
		}
	}
	if len(rejected) != 1 || rejected[0].Name != "stray header line" || rejected[0].Line != 4 {
		t.Fatalf("rejections = %+v, want the stray header on line 4", rejected)
	}
}

func TestValidIdentifier(t *testing.T) {
	for id, want := range map[string]bool{
		"25544":  true,
		"00005":  true,
		"":       false,
		"abc123": false,
		"255 44": false,
		"-1":     false,
	} {
		if got := ValidIdentifier(id); got != want {
			t.Fatalf("ValidIdentifier(%q) = %v, want %v", id, got, want)
		}
	}
}
