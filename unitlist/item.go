package unitlist

import (
	"github.com/bugVanisher/signedvideo/digest"
	"github.com/bugVanisher/signedvideo/nalu"
	"github.com/bugVanisher/signedvideo/report"
)

// Handle is an integer index into a List's arena (spec Design Note 1):
// using handles instead of raw pointers keeps the doubly-linked window
// free of a cyclic ownership graph.
type Handle int

// NoHandle is the zero-value sentinel meaning "no item".
const NoHandle Handle = -1

// Item is one window entry (spec §3, Unit List Item).
type Item struct {
	Unit *nalu.Unit

	Digest    [digest.Size]byte
	HasDigest bool

	// SecondDigest is allocated only when the unit is reused across two
	// groups (the first unit of a new GOP is covered by both the
	// previous and the next SEI) or needs re-verification.
	SecondDigest *[digest.Size]byte

	Verdict report.Verdict

	TakenOwnership          bool
	NeedSecondVerification  bool
	FirstVerificationFailed bool
	HasBeenDecoded          bool // SEI only
	UsedInGroupHash         bool

	handle     Handle
	prev, next Handle
}

// Handle returns the item's own handle.
func (it *Item) Handle() Handle { return it.handle }

// ApplyVerdict sets the item's verdict, taking the lattice join with
// whatever verdict it already holds so a later pass can only worsen it
// (spec §4.4). Ignored ('_') is a terminal, out-of-lattice state set once
// at append time for non-hashable units and is never revisited.
func (it *Item) ApplyVerdict(v report.Verdict) {
	if it.Verdict == report.Ignored {
		return
	}
	before := it.Verdict
	it.Verdict = it.Verdict.Join(v)
	if it.Verdict == report.NotAuthentic && before != report.NotAuthentic {
		it.FirstVerificationFailed = true
	}
}
