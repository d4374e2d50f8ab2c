// Package fixtures holds real element sets and helpers shared by tests.
package fixtures

import (
	"fmt"

	"github.com/signalsfoundry/orbit-tracker/model"
	"github.com/signalsfoundry/orbit-tracker/tle"
)

// ISS (ZARYA), epoch 2025-05-18.
const (
	ISSName  = "ISS (ZARYA)"
	ISSID    = "25544"
	ISSLine1 = "1 25544U 98067A   25138.37048074  .00007749  00000+0  14567-3 0  9994"
	ISSLine2 = "2 25544  51.6369  94.7823 0002558 120.7586  15.7840 15.49587957510533"
)

// NOAA 19, epoch 2025-03-15.
const (
	NOAA19Name  = "NOAA 19"
	NOAA19ID    = "33591"
	NOAA19Line1 = "1 33591U 09005A   25074.18988975  .00000419  00000+0  24768-3 0  9991"
	NOAA19Line2 = "2 33591  99.0072 138.3781 0012918 245.4492 114.5334 14.13308947829901"
)

// ISS returns the ISS element set.
func ISS() model.ElementSet {
	return model.ElementSet{Name: ISSName, ID: ISSID, Line1: ISSLine1, Line2: ISSLine2, Class: model.ClassPayload}
}

// NOAA19 returns the NOAA 19 element set.
func NOAA19() model.ElementSet {
	return model.ElementSet{Name: NOAA19Name, ID: NOAA19ID, Line1: NOAA19Line1, Line2: NOAA19Line2, Class: model.ClassPayload}
}

// Renumber returns a copy of es under a new five-digit catalog number with
// both checksums recomputed.
func Renumber(es model.ElementSet, id string) model.ElementSet {
	if len(id) != 5 {
		panic(fmt.Sprintf("fixtures: catalog number %q must be five characters", id))
	}
	out := es
	out.ID = id
	out.Name = es.Name + " " + id
	out.Line1 = Splice(es.Line1, 2, id)
	out.Line2 = Splice(es.Line2, 2, id)
	return out
}

// Splice overwrites line at column col with value and refreshes the checksum.
func Splice(line string, col int, value string) string {
	b := []byte(line)
	copy(b[col:], value)
	b[tle.LineLength-1] = byte('0' + tle.Checksum(string(b)))
	return string(b)
}
