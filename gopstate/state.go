package gopstate

// State is the Group State record (spec §3): phase flags and running
// counters for the group currently being accumulated or awaiting
// verification.
//
// State itself models only the group session.Session is actively
// accumulating — its own Phase stays Open for the lifetime of a Session
// (BeginGroup resets it back to Open every time a group closes) since
// session.Session tracks the Closed/Verified/Reported lifecycle of each
// already-closed group independently, one Phase per queued groupSpan
// (see gopstate.Phase's doc comment). State embeds Phase so its
// Close/Verify/Report transitions stay available on a bare State too
// (gopstate/state_test.go exercises them standalone).
type State struct {
	Phase

	HasSEI                        bool
	ValidateAfterSEI              bool
	SigningPresent                bool
	NoGOPEndBeforeSEI             bool
	FirstVerificationNotAuthentic bool
	HasLostSEI                    bool
	GopTransitionIsLost           bool

	// HashableUnits counts hashable units seen in the current group.
	HashableUnits int
	// ExpectedUnits is the count carried by the last accepted SEI.
	ExpectedUnits int
	// GroupCounter is the session-global group sequence number, bumped
	// each time a new group opens; used to detect lost SEIs via gaps in
	// the counter value a SEI's TLV body reports.
	GroupCounter uint32
}

// NewState returns a fresh state machine with its first group open.
func NewState() *State {
	return &State{Phase: Open}
}

// BeginGroup resets per-group flags and counters and advances the global
// group counter, moving the machine back to Open. session.Session calls it
// the moment a group closes; NewState does not call it.
func (s *State) BeginGroup() {
	s.Phase = Open
	s.HasSEI = false
	s.ValidateAfterSEI = false
	s.NoGOPEndBeforeSEI = false
	s.FirstVerificationNotAuthentic = false
	s.HasLostSEI = false
	s.GopTransitionIsLost = false
	s.HashableUnits = 0
	s.GroupCounter++
}

// CountHashableUnit records one more hashable unit observed in the
// currently open group.
func (s *State) CountHashableUnit() {
	s.HashableUnits++
}

// ObserveSEIGroupCounter compares the group counter carried by an
// incoming SEI against the locally tracked one, resyncs GroupCounter to
// it when the SEI is at least as new, and flags a lost SEI when the gap
// is greater than one (spec §4.5, "missing SEI detected"). A SEI
// reporting on an older group (seiCounter < GroupCounter — the group it
// covers already auto-closed on the next group's first I frame while
// this SEI was still in flight) leaves GroupCounter untouched: resyncing
// backwards would misnumber the group presently accumulating.
func (s *State) ObserveSEIGroupCounter(seiCounter uint32) (gap uint32) {
	if seiCounter < s.GroupCounter {
		return 0
	}
	gap = seiCounter - s.GroupCounter
	if gap > 1 {
		s.HasLostSEI = true
	}
	s.GroupCounter = seiCounter
	return gap
}
