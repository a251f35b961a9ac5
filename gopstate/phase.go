// Package gopstate implements the GOP state machine (spec §4.5),
// generalizing the teacher's statistics.Gop (which tracked only
// "time since last key packet") into the full
// OPEN → CLOSED → VERIFIED → REPORTED cycle.
package gopstate

import "github.com/bugVanisher/signedvideo/common/errs"

// Phase is one of the four states a group of pictures cycles through.
// Its Close/Verify/Report transitions are defined on *Phase (rather than
// on *State) so a groupSpan can carry its own Phase independently of
// whichever group session.Session is currently accumulating — several
// groups can legitimately sit in different phases at once, queued behind
// a late SEI or a still-missing public key (spec §3 "bounded ring of
// pending group descriptors").
type Phase int

const (
	// Open is the phase while a group is still accumulating units.
	Open Phase = iota
	// Closed is entered when a new I frame or an incoming SEI is observed.
	Closed
	// Verified is entered once the signature for the group has been checked.
	Verified
	// Reported is entered once verdicts have been written back to the unit list.
	Reported
)

func (p Phase) String() string {
	switch p {
	case Open:
		return "Open"
	case Closed:
		return "Closed"
	case Verified:
		return "Verified"
	case Reported:
		return "Reported"
	default:
		return "Unknown"
	}
}

// Close transitions Open→Closed: a new I frame's primary slice, or an
// incoming Signed Video SEI, has just been observed.
func (p *Phase) Close() error {
	if *p != Open {
		return errs.Wrapf(errs.ErrDecodingError, "gopstate: Close called in phase %s", *p)
	}
	*p = Closed
	return nil
}

// Verify transitions Closed→Verified: the group's signature has been
// checked (successfully or not — the phase transition is independent of
// the verdict).
func (p *Phase) Verify() error {
	if *p != Closed {
		return errs.Wrapf(errs.ErrDecodingError, "gopstate: Verify called in phase %s", *p)
	}
	*p = Verified
	return nil
}

// Report transitions Verified→Reported: verdicts have been written back
// to the unit list and a report may be emitted.
func (p *Phase) Report() error {
	if *p != Verified {
		return errs.Wrapf(errs.ErrDecodingError, "gopstate: Report called in phase %s", *p)
	}
	*p = Reported
	return nil
}
