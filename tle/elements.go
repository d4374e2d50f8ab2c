package tle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LineLength is the fixed width of a TLE data line, checksum included.
const LineLength = 69

// ErrMalformedRecord is returned (wrapped) for any record that cannot be parsed.
var ErrMalformedRecord = errors.New("malformed element record")

// Elements holds the numeric content of a two-line element set.
// Angles are degrees, mean motion is revolutions per day.
type Elements struct {
	CatalogNumber  int
	Classification byte // U, C or S
	Designator     string
	Epoch          time.Time
	MeanMotionDot  float64
	MeanMotionDdot float64
	BStar          float64
	ElementNumber  int
	Inclination    float64
	RAAN           float64
	Eccentricity   float64
	ArgPerigee     float64
	MeanAnomaly    float64
	MeanMotion     float64
	RevNumber      int
}

// Period returns the nominal orbital period derived from the mean motion.
func (e Elements) Period() time.Duration {
	if e.MeanMotion <= 0 {
		return 0
	}
	return time.Duration(float64(24*time.Hour) / e.MeanMotion)
}

// NormalizeLines trims trailing whitespace and carriage returns from both lines.
func NormalizeLines(line1, line2 string) (string, string) {
	return strings.TrimRight(line1, "\r\n\t "), strings.TrimRight(line2, "\r\n\t ")
}

// ParseElements validates and parses a pair of element lines.
func ParseElements(line1, line2 string) (Elements, error) {
	line1, line2 = NormalizeLines(line1, line2)
	if err := checkLine(line1, '1'); err != nil {
		return Elements{}, err
	}
	if err := checkLine(line2, '2'); err != nil {
		return Elements{}, err
	}

	var (
		el  Elements
		err error
	)
	p := fieldParser{}

	el.CatalogNumber = p.intField("catalog number", strings.TrimSpace(line1[2:7]))
	if n2 := p.intField("line 2 catalog number", strings.TrimSpace(line2[2:7])); p.err == nil && n2 != el.CatalogNumber {
		return Elements{}, fmt.Errorf("%w: catalog number mismatch %d != %d", ErrMalformedRecord, el.CatalogNumber, n2)
	}
	el.Classification = line1[7]
	el.Designator = strings.TrimSpace(line1[9:17])

	year := p.intField("epoch year", line1[18:20])
	day := p.floatField("epoch day", line1[20:32])
	el.MeanMotionDot = p.floatField("mean motion derivative", squeeze(line1[33:43]))
	el.MeanMotionDdot = p.floatField("mean motion second derivative", squeeze(impliedExponent(line1[44:52])))
	el.BStar = p.floatField("bstar", squeeze(impliedExponent(line1[53:61])))
	el.ElementNumber = p.optionalIntField(line1[64:68])

	el.Inclination = p.floatField("inclination", squeeze(line2[8:16]))
	el.RAAN = p.floatField("raan", squeeze(line2[17:25]))
	el.Eccentricity = p.floatField("eccentricity", "."+line2[26:33])
	el.ArgPerigee = p.floatField("argument of perigee", squeeze(line2[34:42]))
	el.MeanAnomaly = p.floatField("mean anomaly", squeeze(line2[43:51]))
	el.MeanMotion = p.floatField("mean motion", squeeze(line2[52:63]))
	el.RevNumber = p.optionalIntField(line2[63:68])
	if p.err != nil {
		return Elements{}, p.err
	}

	if el.Epoch, err = EpochFromFields(year, day); err != nil {
		return Elements{}, err
	}
	return el, nil
}

// EpochFromFields converts the two-digit year and fractional day-of-year
// columns into an absolute UTC instant. Years 57-99 map to the 1900s.
func EpochFromFields(year int, dayOfYear float64) (time.Time, error) {
	if year < 0 || year > 99 {
		return time.Time{}, fmt.Errorf("%w: epoch year %d", ErrMalformedRecord, year)
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("%w: epoch day %.8f", ErrMalformedRecord, dayOfYear)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}
	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}

// Checksum computes the modulo-10 checksum over the first 68 columns:
// digits count their value, minus signs count one.
func Checksum(line string) int {
	sum := 0
	for i := 0; i < len(line) && i < LineLength-1; i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

func checkLine(line string, number byte) error {
	if len(line) != LineLength {
		return fmt.Errorf("%w: line %c length %d, expected %d", ErrMalformedRecord, number, len(line), LineLength)
	}
	if line[0] != number || line[1] != ' ' {
		return fmt.Errorf("%w: line %c must start with %q", ErrMalformedRecord, number, string(number)+" ")
	}
	last := line[LineLength-1]
	if last < '0' || last > '9' {
		return fmt.Errorf("%w: line %c checksum column %q is not a digit", ErrMalformedRecord, number, last)
	}
	if want := Checksum(line); int(last-'0') != want {
		return fmt.Errorf("%w: line %c checksum %c, computed %d", ErrMalformedRecord, number, last, want)
	}
	return nil
}

// impliedExponent rewrites the " 12345-4" notation into " .12345e-4".
func impliedExponent(field string) string {
	if len(field) < 8 {
		return field
	}
	return field[0:1] + "." + field[1:6] + "e" + field[6:8]
}

// squeeze drops up to two blanks, matching the propagation library.
func squeeze(s string) string {
	return strings.Replace(s, " ", "", 2)
}

type fieldParser struct {
	err error
}

func (p *fieldParser) intField(name, s string) int {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 0)
	if err != nil {
		p.err = fmt.Errorf("%w: %s %q", ErrMalformedRecord, name, s)
		return 0
	}
	return int(v)
}

func (p *fieldParser) optionalIntField(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func (p *fieldParser) floatField(name, s string) float64 {
	if p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("%w: %s %q", ErrMalformedRecord, name, s)
		return 0
	}
	return v
}
