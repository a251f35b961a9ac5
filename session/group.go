package session

import (
	"bytes"

	"github.com/bugVanisher/signedvideo/common/errs"
	"github.com/bugVanisher/signedvideo/digest"
	"github.com/bugVanisher/signedvideo/report"
	"github.com/bugVanisher/signedvideo/tlv"
	"github.com/bugVanisher/signedvideo/unitlist"
)

// closeGroup finalizes the currently-open group (spec §4.5 Closed phase):
// it snapshots the digest state into a groupSpan, queues it behind any
// other not-yet-resolved groups, and rewinds the running digest/counters
// for the group that starts next.
func (s *Session) closeGroup(lastInclusive unitlist.Handle) {
	end := unitlist.NoHandle
	if lastInclusive != unitlist.NoHandle {
		end = s.list.Next(lastInclusive)
	}

	g := groupSpan{
		start:         s.groupStart,
		end:           end,
		groupCounter:  s.state.GroupCounter,
		observedUnits: s.state.HashableUnits,
		digest:        s.info.Finalize(),
		fallback:      s.info.Fallback,
	}
	// A freshly assembled span is always Open; Close cannot fail here
	// (spec §4.5 Open→Closed: a new I frame's primary slice, or an
	// incoming Signed Video SEI, has just been observed).
	_ = g.phase.Close()
	if !g.fallback {
		g.perUnit = append([][digest.Size]byte(nil), s.info.PerUnit...)
	}
	s.closedGroups = append(s.closedGroups, g)

	s.info.ResetForNewGroup(g.digest)
	s.state.BeginGroup()
}

// pendingResolve is what gets stashed in the unit list's pending-group
// ring while a group awaits a public key (spec §4.4, §4.5 "buffer
// snapshot").
type pendingResolve struct {
	group groupSpan
	body  *tlv.Body
}

// resolveAgainst matches body against the oldest outstanding closed
// group(s), skipping over (and marking missing) any group whose SEI was
// apparently never received, per the group-counter gap (spec §4.5
// "Missing SEI detected").
func (s *Session) resolveAgainst(body *tlv.Body, seiHandle unitlist.Handle) (*report.Latest, error) {
	for len(s.closedGroups) > 0 && s.closedGroups[0].groupCounter < body.GOPCounter {
		lost := s.closedGroups[0]
		s.closedGroups = s.closedGroups[1:]
		s.markGroupUniform(lost, report.Missing)
		latest, err := s.missingSEIReport(lost)
		if err != nil {
			return nil, err
		}
		s.accum.Roll(latest)
	}
	if len(s.closedGroups) == 0 {
		// Nothing to resolve against (e.g. a leading SEI with no prior
		// content, or a duplicate/out-of-order SEI); not an error.
		return nil, nil
	}

	g := s.closedGroups[0]
	s.closedGroups = s.closedGroups[1:]

	if len(s.publicKey) == 0 {
		err := s.list.Pending.Push(unitlist.PendingSnapshot{
			Start: g.start,
			End:   g.end,
			Data:  pendingResolve{group: g, body: body},
		})
		if err != nil {
			return nil, err
		}
		return nil, nil
	}

	return s.resolveGroup(g, body)
}

// resolveGroup verifies body's signature against g's digest state,
// propagates verdicts — pinpointing the exact mismatched unit at Frame
// level — and returns the assembled Latest report.
func (s *Session) resolveGroup(g groupSpan, body *tlv.Body) (*report.Latest, error) {
	sigValid, err := s.verifyGroup(g, body)
	if err != nil {
		return nil, errs.Wrapf(err, "signature verify")
	}
	if err := g.phase.Verify(); err != nil {
		return nil, errs.Wrapf(err, "gopstate")
	}

	s.markGroupAgainstManifest(g, body, sigValid)
	latest := s.buildLatestReport(g, body, sigValid)

	if err := g.phase.Report(); err != nil {
		return nil, errs.Wrapf(err, "gopstate")
	}

	s.accum.Roll(latest)
	return latest, nil
}

// verifyGroup compares g's digest state to body's signed manifest and
// checks the signature with the cached public key.
func (s *Session) verifyGroup(g groupSpan, body *tlv.Body) (bool, error) {
	digestMatches := false
	if g.fallback || s.level == LevelGOP {
		digestMatches = len(body.SignatureHash) == digest.Size && bytes.Equal(g.digest[:], body.SignatureHash)
	} else {
		digestMatches = hashListsEqual(g.perUnit, body.HashList)
	}
	if !digestMatches {
		return false, nil
	}
	if s.verifier == nil {
		return false, errNoVerifier
	}
	return s.verifier.Verify(s.publicKey, body.SignatureHash, body.Signature)
}

func hashListsEqual(perUnit [][digest.Size]byte, wire [][]byte) bool {
	if len(perUnit) != len(wire) {
		return false
	}
	for i := range perUnit {
		if !bytes.Equal(perUnit[i][:], wire[i]) {
			return false
		}
	}
	return true
}

// markGroupAgainstManifest assigns each hashable item in g its verdict.
// An invalid signature taints the whole group `N` uniformly — an
// unsigned manifest can't be trusted to pinpoint anything. A valid
// signature at Frame level (not demoted to fallback) compares every unit
// against the signed hash list individually, distinguishing `M` from `N`
// (spec §4.6 "Frame: ... distinguishing M from N"); GOP level or a
// demoted group has only the one group-wide verdict to give.
func (s *Session) markGroupAgainstManifest(g groupSpan, body *tlv.Body, sigValid bool) {
	frameLevel := sigValid && !g.fallback && s.level == LevelFrame && body != nil
	idx := 0
	s.list.Range(g.start, g.end, func(h unitlist.Handle, it *unitlist.Item) {
		if !it.Unit.IsHashable {
			return
		}
		v := report.Authentic
		switch {
		case !sigValid:
			v = report.NotAuthentic
		case frameLevel:
			switch {
			case idx >= len(body.HashList):
				v = report.Missing
			case idx >= len(g.perUnit) || !bytes.Equal(g.perUnit[idx][:], body.HashList[idx]):
				v = report.NotAuthentic
			default:
				v = report.Authentic
			}
		}
		it.ApplyVerdict(v)
		idx++
	})
}

// markGroupUniform assigns v to every hashable item in g without
// consulting any manifest (used for lost-SEI and end-of-stream flush).
func (s *Session) markGroupUniform(g groupSpan, v report.Verdict) {
	s.list.Range(g.start, g.end, func(h unitlist.Handle, it *unitlist.Item) {
		if it.Unit.IsHashable {
			it.ApplyVerdict(v)
		}
	})
}

// buildLatestReport assembles the Latest report for a group resolved
// against an actual manifest (spec §4.7).
func (s *Session) buildLatestReport(g groupSpan, body *tlv.Body, sigValid bool) *report.Latest {
	expected := g.observedUnits
	received := g.observedUnits
	var missing, invalid []int

	outcome := report.Ok
	switch {
	case !sigValid:
		outcome = report.NotOk
	case s.level == LevelFrame && !g.fallback && len(body.HashList) > 0:
		expected = len(body.HashList)
		for i := 0; i < expected; i++ {
			switch {
			case i >= len(g.perUnit):
				missing = append(missing, i)
			case !bytes.Equal(g.perUnit[i][:], body.HashList[i]):
				invalid = append(invalid, i)
			}
		}
		received = expected - len(missing)
		if len(invalid) > 0 || len(missing) > 0 {
			outcome = report.NotOk
		}
	}

	return &report.Latest{
		Outcome:               outcome,
		PublicKeyHasChanged:   s.publicKeyEverChanged,
		ExpectedPictureUnits:  expected,
		ReceivedPictureUnits:  received,
		PendingPictureUnits:   s.state.HashableUnits,
		ReceivedMinusExpected: received - expected,
		MissingPositions:      missing,
		InvalidPositions:      invalid,
		VerdictString:         s.verdictString(g),
	}
}

// missingSEIReport assembles the Latest report for a group whose own SEI
// never arrived at all (spec §4.5 "Missing SEI detected").
func (s *Session) missingSEIReport(g groupSpan) (*report.Latest, error) {
	if err := g.phase.Verify(); err != nil {
		return nil, errs.Wrapf(err, "gopstate")
	}

	missing := make([]int, g.observedUnits)
	for i := range missing {
		missing[i] = i
	}
	latest := &report.Latest{
		Outcome:               report.NotOk,
		PublicKeyHasChanged:   s.publicKeyEverChanged,
		ExpectedPictureUnits:  g.observedUnits,
		PendingPictureUnits:   s.state.HashableUnits,
		ReceivedMinusExpected: -g.observedUnits,
		MissingPositions:      missing,
		VerdictString:         s.verdictString(g),
	}

	if err := g.phase.Report(); err != nil {
		return nil, errs.Wrapf(err, "gopstate")
	}
	return latest, nil
}

// verdictString renders the per-unit verdict characters for g in list
// order (spec §4.7 "human-readable verdict string").
func (s *Session) verdictString(g groupSpan) string {
	var b []byte
	s.list.Range(g.start, g.end, func(h unitlist.Handle, it *unitlist.Item) {
		if !it.Unit.IsHashable {
			return
		}
		b = append(b, byte(it.Verdict))
	})
	return string(b)
}

// Flush resolves every group that closed but never received a matching
// SEI — there is no more input coming, so "late" can no longer be
// distinguished from "never arriving" (spec §8 concrete scenario 5,
// "IPPIPPI (no SEIs at all)"). Every hashable unit in those groups is
// marked Unknown and the outcome is NotSigned. The still-open trailing
// group is left untouched: its first unit legitimately stays Pending
// until a caller feeds more data or calls Reset.
func (s *Session) Flush() []*report.Latest {
	var out []*report.Latest
	for _, g := range s.closedGroups {
		s.markGroupUniform(g, report.Unknown)
		// Verify/Report cannot fail here: every span reaching Flush was
		// set Closed exactly once by closeGroup and never resolved
		// before now.
		_ = g.phase.Verify()
		_ = g.phase.Report()
		latest := &report.Latest{
			Outcome:              report.NotSigned,
			PublicKeyHasChanged:  s.publicKeyEverChanged,
			ExpectedPictureUnits: g.observedUnits,
			ReceivedPictureUnits: g.observedUnits,
			PendingPictureUnits:  s.state.HashableUnits,
			VerdictString:        s.verdictString(g),
		}
		s.accum.Roll(latest)
		out = append(out, latest)
	}
	s.closedGroups = nil
	return out
}

// drainPendingOnNewKey replays every snapshot queued while the public key
// was missing, now that one has arrived (spec §4.4 "When the key
// arrives, snapshots are replayed in order").
func (s *Session) drainPendingOnNewKey() ([]*report.Latest, error) {
	snapshots := s.list.Pending.PopAll()
	var reports []*report.Latest
	for _, snap := range snapshots {
		pr, ok := snap.Data.(pendingResolve)
		if !ok {
			continue
		}
		latest, err := s.resolveGroup(pr.group, pr.body)
		if err != nil {
			return reports, err
		}
		if latest != nil {
			reports = append(reports, latest)
		}
	}
	return reports, nil
}
