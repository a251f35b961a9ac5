// Package report implements the report assembler (spec §4.7): it rolls
// per-unit verdicts into a "latest" validation struct for the group that
// just closed, and an "accumulated" struct tracking monotonically rising
// totals and the worst-case outcome over the session.
package report

import (
	jsoniter "github.com/json-iterator/go"
)

// json is configured the way the teacher's h264parser reaches for
// jsoniter instead of encoding/json (ParseSEI's payload-type-242 branch).
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Outcome is the session-level authenticity outcome (spec §4.7).
type Outcome int

const (
	NotSigned Outcome = iota
	SignaturePresent
	Ok
	OkWithMissingInfo
	NotOk
)

func (o Outcome) String() string {
	switch o {
	case NotSigned:
		return "NotSigned"
	case SignaturePresent:
		return "SignaturePresent"
	case Ok:
		return "Ok"
	case OkWithMissingInfo:
		return "OkWithMissingInfo"
	case NotOk:
		return "NotOk"
	default:
		return "Unknown"
	}
}

// rank orders outcomes from best to worst for accumulation purposes; on a
// tie Roll keeps the outcome it already recorded.
func (o Outcome) rank() int {
	switch o {
	case Ok:
		return 0
	case SignaturePresent:
		return 1
	case OkWithMissingInfo:
		return 2
	case NotSigned:
		return 3
	case NotOk:
		return 4
	default:
		return 4
	}
}

// Latest is the validation result for the group that just closed
// (spec §4.7).
type Latest struct {
	Outcome                Outcome `json:"outcome"`
	PublicKeyHasChanged    bool    `json:"public_key_has_changed"`
	ExpectedPictureUnits   int     `json:"expected_picture_units"`
	ReceivedPictureUnits   int     `json:"received_picture_units"`
	PendingPictureUnits    int     `json:"pending_picture_units"`
	// ReceivedMinusExpected is a signed over/under-receive indicator
	// (spec §9 Design Note: the source's missed_nalus == -3 camera-reset
	// sentinel is surfaced here as an ordinary signed value rather than
	// folded into a missing count).
	ReceivedMinusExpected int    `json:"received_minus_expected"`
	MissingPositions      []int  `json:"missing_positions"`
	InvalidPositions      []int  `json:"invalid_positions"`
	VerdictString         string `json:"verdict_string"`
}

// MarshalReport serializes l as JSON using the module's configured
// json-iterator codec.
func (l *Latest) MarshalReport() ([]byte, error) {
	return json.Marshal(l)
}

// UnmarshalReport parses JSON produced by MarshalReport.
func UnmarshalReport(data []byte) (*Latest, error) {
	l := &Latest{}
	if err := json.Unmarshal(data, l); err != nil {
		return nil, err
	}
	return l, nil
}

// Accumulated tracks monotonically rising totals and the worst-case
// authenticity outcome observed over the life of a session (spec §4.7).
type Accumulated struct {
	TotalExpectedPictureUnits int     `json:"total_expected_picture_units"`
	TotalReceivedPictureUnits int     `json:"total_received_picture_units"`
	TotalMissingPictureUnits  int     `json:"total_missing_picture_units"`
	TotalInvalidPictureUnits  int     `json:"total_invalid_picture_units"`
	PublicKeyHasChanged       bool    `json:"public_key_has_changed"`
	WorstOutcome              Outcome `json:"worst_outcome"`
	groupsSeen                int
}

// NewAccumulated returns an Accumulated with the best possible starting
// outcome, so the first Roll call establishes the real worst-case.
func NewAccumulated() *Accumulated {
	return &Accumulated{WorstOutcome: Ok}
}

// Roll folds one closed group's Latest report into the accumulated totals.
func (a *Accumulated) Roll(l *Latest) {
	a.TotalExpectedPictureUnits += l.ExpectedPictureUnits
	a.TotalReceivedPictureUnits += l.ReceivedPictureUnits
	a.TotalMissingPictureUnits += len(l.MissingPositions)
	a.TotalInvalidPictureUnits += len(l.InvalidPositions)
	if l.PublicKeyHasChanged {
		a.PublicKeyHasChanged = true
	}
	if a.groupsSeen == 0 || l.Outcome.rank() > a.WorstOutcome.rank() {
		a.WorstOutcome = l.Outcome
	}
	a.groupsSeen++
}

// MarshalReport serializes a as JSON.
func (a *Accumulated) MarshalReport() ([]byte, error) {
	return json.Marshal(a)
}
