package propagation

import (
	"errors"
	"fmt"
)

// Kind is the closed set of propagation failure classes. A bare Kind is
// itself an error so hot paths can return it without allocating.
type Kind uint8

const (
	KindNone Kind = iota
	// KindMalformedRecord: the element lines failed column or checksum validation.
	KindMalformedRecord
	// KindEccentricity: mean elements out of range, eccentricity outside
	// [0, 1) or an unbound orbit (SGP4 code 1).
	KindEccentricity
	// KindMeanMotion: non-physical mean motion (SGP4 code 2).
	KindMeanMotion
	// KindPerturbedEccentricity: perturbed eccentricity outside [0, 1] (SGP4 code 3).
	KindPerturbedEccentricity
	// KindSemiLatusRectum: negative semi-latus rectum (SGP4 code 4).
	KindSemiLatusRectum
	// KindSuborbital: epoch elements are sub-orbital (SGP4 code 5).
	KindSuborbital
	// KindDecayed: the position lies inside the Earth (SGP4 code 6).
	KindDecayed
	// KindDiverged: the kernel rejected the elements at the requested time.
	KindDiverged
	// KindNonFinite: the kernel produced NaN or Inf.
	KindNonFinite

	// KindCount sizes arrays indexed by Kind.
	KindCount
)

var kindNames = [...]string{
	KindNone:                  "none",
	KindMalformedRecord:       "malformed_record",
	KindEccentricity:          "eccentricity",
	KindMeanMotion:            "mean_motion",
	KindPerturbedEccentricity: "perturbed_eccentricity",
	KindSemiLatusRectum:       "semi_latus_rectum",
	KindSuborbital:            "suborbital",
	KindDecayed:               "decayed",
	KindDiverged:              "diverged",
	KindNonFinite:             "non_finite",
}

// Kinds lists every failure kind, in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindMalformedRecord, KindEccentricity, KindMeanMotion, KindPerturbedEccentricity,
		KindSemiLatusRectum, KindSuborbital, KindDecayed, KindDiverged, KindNonFinite,
	}
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) Error() string { return "propagation failed: " + k.String() }

// kindFromCode maps the SGP4 initialisation error codes onto Kind.
func kindFromCode(code int64) Kind {
	switch code {
	case 1:
		return KindEccentricity
	case 2:
		return KindMeanMotion
	case 3:
		return KindPerturbedEccentricity
	case 4:
		return KindSemiLatusRectum
	case 5:
		return KindSuborbital
	case 6:
		return KindDecayed
	default:
		return KindDiverged
	}
}

// Error is the detailed error returned when constants cannot be derived.
type Error struct {
	Kind   Kind
	ID     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("derive constants for %q: %s", e.ID, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, KindDecayed) match a detailed Error.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// KindOf extracts the failure kind from err, KindNone when err carries none.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var detailed *Error
	if errors.As(err, &detailed) {
		return detailed.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return KindNone
}
