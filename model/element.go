package model

import "strings"

// Classification is the object-type tag carried by an ElementSet.
type Classification string

const (
	ClassPayload    Classification = "PAYLOAD"
	ClassRocketBody Classification = "ROCKET BODY"
	ClassDebris     Classification = "DEBRIS"
	ClassUnknown    Classification = "UNKNOWN"
	ClassOther      Classification = "OTHER"
)

// NormalizeClassification trims and upper-cases a raw tag and folds the
// common catalog spellings onto the known set. Anything unrecognised,
// including the empty string, becomes ClassOther.
func NormalizeClassification(raw string) Classification {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", " ")
	switch s {
	case "PAYLOAD", "PAY":
		return ClassPayload
	case "ROCKET BODY", "R/B", "RB", "ROCKET":
		return ClassRocketBody
	case "DEBRIS", "DEB":
		return ClassDebris
	case "UNKNOWN", "TBA":
		return ClassUnknown
	default:
		return ClassOther
	}
}

// Color is an RGBA colour with components in [0, 1].
type Color struct {
	R, G, B, A float64
}

// VisualHint overrides the per-class point style for a single object.
type VisualHint struct {
	Color     Color
	PixelSize float64
}

// ElementSet is one raw two-line element record as handed to the tracker.
// It is treated as immutable once constructed.
type ElementSet struct {
	Name  string
	ID    string // catalog number as received; must be digits only
	Line1 string
	Line2 string
	Class Classification
	Hint  *VisualHint // optional
}
