// Package session implements the Authentication Core (spec §4.6): the
// pipeline that ingests each coded unit, drives the GOP state machine,
// consults the TLV codec on Signed Video SEIs, verifies signatures,
// matches hash lists, and emits per-unit verdicts and reports.
package session

import (
	"bytes"

	"github.com/rs/zerolog"

	"github.com/bugVanisher/signedvideo/common/errs"
	"github.com/bugVanisher/signedvideo/digest"
	"github.com/bugVanisher/signedvideo/gopstate"
	"github.com/bugVanisher/signedvideo/nalu"
	"github.com/bugVanisher/signedvideo/report"
	"github.com/bugVanisher/signedvideo/tlv"
	"github.com/bugVanisher/signedvideo/unitlist"
)

// Level is the authenticity level (spec §4.6).
type Level int

const (
	// LevelGOP: a single signed digest covers the entire group.
	LevelGOP Level = iota
	// LevelFrame: a signed list of per-unit digests allows pinpointing
	// exactly which units are tampered.
	LevelFrame
)

// perUnitCap bounds the per-frame hash list before a group falls back to
// GOP-level comparison (spec Design Note 6). Chosen generously; sessions
// needing a different bound can't reach it via the public API today
// (matches spec: the cap is an implementation constant, not a setter).
const perUnitCap = 4096

// groupSpan is a closed-but-not-yet-verified group: the window of unit
// list handles it covers and the digest state captured at closure time
// (spec §3 "bounded ring of up to 120 pending group descriptors").
type groupSpan struct {
	start, end   unitlist.Handle // [start, end), end is the boundary unit (next group's I, or NoHandle at stream end)
	groupCounter uint32
	// observedUnits is the number of hashable units this session actually
	// counted while the group was open.
	observedUnits int
	digest        [digest.Size]byte
	perUnit       [][digest.Size]byte
	fallback      bool

	// phase is this span's own Closed→Verified→Reported lifecycle,
	// independent of state.Phase (which always describes whichever group
	// is presently Open and accumulating). Several groupSpans can be
	// mid-lifecycle at once — queued behind a late SEI or a still-missing
	// public key — so each needs its own Phase (spec §3, §4.5).
	phase gopstate.Phase
}

// Session is the Authenticator Session (spec §3).
type Session struct {
	codec              nalu.Codec
	level              Level
	recurrenceInterval int
	recurrenceOffset   int

	publicKey []byte
	// publicKeyEverChanged is true while the most recently decoded SEI
	// carried a public key different from the one cached before it.
	publicKeyEverChanged bool

	productInfo *tlv.ProductInfo
	vendor      VendorHandle
	verifier    Verifier
	log         zerolog.Logger

	// lastVendorFields holds the most recently decoded SEI's vendor-range
	// TLV payloads, raw (spec §3 "opaque to the core"); a caller that
	// knows the vendor extension in use decodes them itself (e.g. via
	// the vendor package's DecodeAxisHandle).
	lastVendorFields map[tlv.Tag][]byte

	list  *unitlist.List
	state *gopstate.State
	info  *gopstate.Info
	accum *report.Accumulated

	// groupStart is the handle of the first unit in the group currently
	// accumulating (Open phase).
	groupStart unitlist.Handle
	// closedGroups holds groups that closed but have not yet been
	// resolved by a matching SEI, oldest first (spec §4.5 late SEI).
	closedGroups []groupSpan

	fatalErr error
}

// New returns a Session for the given codec with GOP-level authenticity
// and no recurrence (metadata repeated in every SEI) by default.
func New(codec nalu.Codec, verifier Verifier, log zerolog.Logger) *Session {
	s := &Session{
		codec:              codec,
		level:              LevelGOP,
		recurrenceInterval: 1,
		verifier:           verifier,
		log:                log,
		list:               unitlist.New(),
		state:              gopstate.NewState(),
		accum:              report.NewAccumulated(),
		groupStart:         unitlist.NoHandle,
	}
	s.info = gopstate.NewInfo(0)
	return s
}

// SetAuthenticityLevel configures GOP- or Frame-level authenticity.
func (s *Session) SetAuthenticityLevel(level Level) {
	s.level = level
	if level == LevelFrame {
		s.info.Cap = perUnitCap
	} else {
		s.info.Cap = 0
	}
}

// SetRecurrenceInterval configures how often the recurrent TLV fields
// (product info, public key) are expected to repeat.
func (s *Session) SetRecurrenceInterval(n int) {
	if n < 1 {
		n = 1
	}
	s.recurrenceInterval = n
}

// SetProductInfo seeds the locally-known product info (overridden once a
// SEI carries a recurrent product-info field).
func (s *Session) SetProductInfo(p tlv.ProductInfo) {
	s.productInfo = &p
}

// SetPublicKey seeds the session with a known public key ahead of any
// SEI carrying one. Returns errs.ErrInvalidParameter for an empty key.
func (s *Session) SetPublicKey(pk []byte) error {
	if len(pk) == 0 {
		return errs.ErrInvalidParameter
	}
	s.publicKey = append([]byte(nil), pk...)
	return nil
}

// SetAttestationReport installs the vendor-specific handle (spec §6,
// grounded on the Axis attestation-report/certificate-chain extension).
func (s *Session) SetAttestationReport(v VendorHandle) {
	s.vendor = v
}

// VendorFields returns the vendor-range TLV payloads carried by the most
// recently decoded Signed Video SEI, keyed by tag, or nil if none has
// carried one yet (spec §9 Design Note, grounded on the Axis
// attestation-report extension).
func (s *Session) VendorFields() map[tlv.Tag][]byte {
	return s.lastVendorFields
}

// Fatal reports whether the session has hit an unrecoverable error and
// must be Reset before further use (spec §7).
func (s *Session) Fatal() bool { return s.fatalErr != nil }

// Reset clears per-stream state and preserves the cached public key
// (spec §5 "Reset rewinds the Unit List, clears pending snapshots, and
// preserves the key").
func (s *Session) Reset() {
	s.list = unitlist.New()
	s.state = gopstate.NewState()
	cap := s.info.Cap
	s.info = gopstate.NewInfo(cap)
	s.accum = report.NewAccumulated()
	s.groupStart = unitlist.NoHandle
	s.closedGroups = nil
	s.fatalErr = nil
}

// AddUnitAndAuthenticate parses one coded unit, feeds it through the
// pipeline, and returns a report when the unit's arrival causes a closed
// group to resolve (spec §4.6). A nil report with a nil error means the
// unit was accepted but did not complete a group.
func (s *Session) AddUnitAndAuthenticate(data []byte) (*report.Latest, error) {
	if s.fatalErr != nil {
		return nil, errs.Wrapf(s.fatalErr, "session is fatally broken, Reset required")
	}

	u := nalu.Parse(data, s.codec, true)
	h := s.list.Append(&u)
	item := s.list.Get(h)

	if u.IsValid <= 0 {
		// Append marked the item Ignored, which ApplyVerdict never
		// revisits, so the Unknown verdict is set directly.
		item.Verdict = report.Unknown
		return nil, nil
	}

	if s.groupStart == unitlist.NoHandle {
		s.groupStart = h
	}

	if u.IsFirstInGOP && s.groupStart != h {
		prev := s.list.Prev(h)
		s.closeGroup(prev)
		s.groupStart = h
	}

	if u.IsHashable {
		d := digest.Of(u.HashableData)
		item.Digest = d
		item.HasDigest = true
		item.UsedInGroupHash = true
		s.info.AddUnitDigest(d)
		s.state.CountHashableUnit()
	}

	if u.Kind == nalu.SEIKind && u.UUID == nalu.UUIDSignedVideo {
		out, err := s.onSignedVideoSEI(h)
		if err != nil {
			s.fatalErr = err
			return nil, err
		}
		return out, nil
	}

	return nil, nil
}

// onSignedVideoSEI decodes the TLV body of a Signed Video SEI and
// attempts to resolve the oldest outstanding closed group(s) against it.
func (s *Session) onSignedVideoSEI(seiHandle unitlist.Handle) (*report.Latest, error) {
	seiItem := s.list.Get(seiHandle)
	body, err := tlv.Decode(seiItem.Unit.TLVData)
	if err != nil {
		return nil, errs.Wrapf(errs.ErrDecodingError, "tlv decode: %v", err)
	}
	seiItem.HasBeenDecoded = true

	hadKey := len(s.publicKey) > 0
	s.ingestRecurrentFields(body)

	// A SEI whose counter is at least as new as the group presently
	// accumulating closes that group now — the ordinary case, where the
	// SEI arrives right after the content it covers (spec §4.5
	// "Signed-Video SEI arrives while CLOSED"). A SEI whose counter lags
	// behind reports on a group that already auto-closed on its own (the
	// next group's first I frame forced it shut while this SEI was still
	// in flight): the group still accumulating is left untouched and
	// resolveAgainst below resolves the older, already-queued group
	// instead (spec §4.5 "late SEI").
	onTime := body.GOPCounter >= s.state.GroupCounter
	s.state.ObserveSEIGroupCounter(body.GOPCounter)

	if onTime {
		// If the SEI immediately follows another SEI with nothing
		// hashable in between, groupStart still points at the SEI itself
		// and there is nothing new to close.
		if s.groupStart != unitlist.NoHandle && s.groupStart != seiHandle {
			s.closeGroup(s.list.Prev(seiHandle))
		}
		s.groupStart = unitlist.NoHandle
	}

	// A public key that just arrived unblocks any groups that closed
	// while none was cached yet (spec §4.4 "When the key arrives,
	// snapshots are replayed in order"); those resolve strictly before
	// the group this very SEI reports on.
	if !hadKey && len(s.publicKey) > 0 {
		if _, err := s.drainPendingOnNewKey(); err != nil {
			return nil, err
		}
	}

	return s.resolveAgainst(body, seiHandle)
}

// ingestRecurrentFields applies a SEI's recurrent product-info/public-key
// fields when present (spec Glossary "Recurrence interval / offset").
func (s *Session) ingestRecurrentFields(body *tlv.Body) {
	if body.ProductInfo != nil {
		s.productInfo = body.ProductInfo
	}
	if len(body.Vendor) > 0 {
		s.lastVendorFields = body.Vendor
	}
	s.publicKeyEverChanged = false
	if len(body.PublicKey) > 0 {
		if s.publicKey != nil && !bytes.Equal(s.publicKey, body.PublicKey) {
			s.publicKeyEverChanged = true
		}
		s.publicKey = body.PublicKey
	}
}
