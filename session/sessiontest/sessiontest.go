// Package sessiontest builds coded-unit fixtures over the literal
// {I,P,i,p,V,S,X,G} alphabet from spec §8 and signs them with a
// package-local Ed25519 key, the way the teacher hand-builds FLV/TS
// fixtures in media/container/flv/flv_test.go and
// media/protocol/hls/cache_test.go for its own tests. It only ties into
// the signing side deeply enough to produce valid fixtures — the signing
// scheduler itself remains out of scope (spec §1).
package sessiontest

import (
	"crypto/ed25519"

	"github.com/bugVanisher/signedvideo/digest"
	"github.com/bugVanisher/signedvideo/nalu"
	"github.com/bugVanisher/signedvideo/session"
	"github.com/bugVanisher/signedvideo/tlv"
)

const (
	h264IDRHeader    = 0x65
	h264NonIDRHeader = 0x41
	h264SPSHeader    = 0x67
	h264SEIHeader    = 0x06
	h264UnknownType  = 0x0c // reserved type, classified Other
)

// finishedGroup is a group whose content is fully accumulated (an I
// frame closed it) but not yet signed by a 'G' — the Builder-side mirror
// of session.groupSpan sitting in Session.closedGroups.
type finishedGroup struct {
	counter uint32
	digest  [digest.Size]byte
	perUnit [][]byte
}

// Builder emits Annex B coded units for a literal script and signs the
// Signed Video SEIs ('G') it inserts with a fresh Ed25519 key pair.
//
// Group boundaries are tracked the same way session.Session tracks them:
// every primary 'I' after the first closes whatever was accumulating and
// queues it, FIFO, in finished. A 'G' signs the oldest queued group if
// one is waiting, or closes and signs whatever is still accumulating
// otherwise. This lets a script put more than one 'I' boundary between
// two 'G's — the ordinary case is still "one I per G span," but a script
// can also model a SEI arriving late, after the group it reports on has
// already auto-closed on the next group's first I frame (spec §4.5
// "late SEI"), by leaving extra queued groups for a later 'G' to claim.
type Builder struct {
	Level session.Level

	key ed25519.PrivateKey
	pub ed25519.PublicKey

	recurrenceInterval int
	recurrenceOffset   int
	productInfo        *tlv.ProductInfo

	seq byte

	started     bool // true once a primary slice has accumulated since the last close
	groupDigest [digest.Size]byte
	perUnit     [][]byte
	nextCounter uint32

	finished []finishedGroup // closed by an I boundary, awaiting a 'G' to sign them

	vendorTag  tlv.Tag
	vendorData []byte
}

// NewBuilder returns a Builder with a freshly generated signing key.
func NewBuilder(level session.Level) *Builder {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err) // only a test helper; a broken CSPRNG isn't recoverable here
	}
	return &Builder{Level: level, key: priv, pub: pub, recurrenceInterval: 1}
}

// PublicKey returns the builder's signing public key.
func (b *Builder) PublicKey() []byte { return []byte(b.pub) }

// Rekey replaces the signing key with a fresh one, for the "public key
// change" scenario (spec §8 property 6).
func (b *Builder) Rekey() {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	b.key, b.pub = priv, pub
}

// SetProductInfo seeds the product info a future 'G' will carry.
func (b *Builder) SetProductInfo(p tlv.ProductInfo) { b.productInfo = &p }

// SetVendorField attaches an opaque vendor-range TLV payload that every
// subsequent 'G' will carry, for exercising a vendor extension
// (spec §9 Design Note) end to end through a session.
func (b *Builder) SetVendorField(tag tlv.Tag, data []byte) {
	b.vendorTag, b.vendorData = tag, data
}

// Build turns script into a slice of Annex B coded units ready to feed,
// in order, into session.Session.AddUnitAndAuthenticate.
func (b *Builder) Build(script string) [][]byte {
	out := make([][]byte, 0, len(script))
	for _, ch := range script {
		switch ch {
		case 'I':
			if b.started {
				b.closeCurrent()
			}
			out = append(out, b.hashableSlice(h264IDRHeader))
		case 'i':
			out = append(out, b.slice(h264IDRHeader, false))
		case 'P':
			out = append(out, b.hashableSlice(h264NonIDRHeader))
		case 'p':
			out = append(out, b.slice(h264NonIDRHeader, false))
		case 'V':
			out = append(out, annexB(h264SPSHeader, 0x01, 0x02))
		case 'S':
			out = append(out, b.plainSEI())
		case 'X':
			out = append(out, annexB(h264UnknownType, 0x00))
		case 'G':
			out = append(out, b.signedSEI())
		}
	}
	return out
}

// closeCurrent snapshots the accumulator into the finished queue (mirrors
// session.closeGroup/gopstate.State.BeginGroup) and starts a fresh one.
func (b *Builder) closeCurrent() {
	b.finished = append(b.finished, finishedGroup{
		counter: b.nextCounter,
		digest:  b.groupDigest,
		perUnit: append([][]byte(nil), b.perUnit...),
	})
	b.nextCounter++
	b.groupDigest = [digest.Size]byte{}
	b.perUnit = nil
	b.started = false
}

func annexB(header byte, rbsp ...byte) []byte {
	data := append([]byte{0, 0, 0, 1, header}, rbsp...)
	return data
}

// slice builds one I/P coded unit. primary picks the first_mb_in_slice
// Exp-Golomb bit pattern (ue(0) vs ue(1)); a trailing sequence byte keeps
// every unit's hashable content distinct so tamper tests can target one
// unit unambiguously.
func (b *Builder) slice(header byte, primary bool) []byte {
	firstMB := byte(0x80) // ue(0)
	if !primary {
		firstMB = 0x40 // ue(1)
	}
	b.seq++
	rbsp := []byte{firstMB, b.seq, 0x80} // stop bit
	return annexB(header, rbsp...)
}

// hashableSlice builds a primary I/P coded unit ('I' or 'P') and chains
// its digest into the group currently accumulating.
func (b *Builder) hashableSlice(header byte) []byte {
	unit := b.slice(header, true)
	hashable := unit[4 : len(unit)-1] // header..seq, excluding start code and stop bit
	d := digest.Of(hashable)
	if b.started {
		b.groupDigest = digest.Chain(b.groupDigest, d)
	} else {
		b.groupDigest = d
		b.started = true
	}
	b.perUnit = append(b.perUnit, append([]byte(nil), d[:]...))
	return unit
}

// plainSEI builds a non-library SEI (the 'S' alphabet symbol): present
// in the stream but never hashable.
func (b *Builder) plainSEI() []byte {
	payload := []byte{0xAA, 0xBB, 0xCC}
	rbsp := append([]byte{0x05, byte(len(payload))}, payload...)
	rbsp = append(rbsp, 0x80)
	return annexB(h264SEIHeader, rbsp...)
}

// signedSEI builds a Signed Video SEI ('G'). If a group has already
// closed on an I boundary and is still waiting in the finished queue, it
// signs the oldest of those (the "late SEI" path) and leaves whatever is
// presently accumulating untouched; otherwise it closes and signs the
// group accumulated since the previous 'G', same as always.
func (b *Builder) signedSEI() []byte {
	var sign finishedGroup
	if len(b.finished) > 0 {
		sign = b.finished[0]
		b.finished = b.finished[1:]
	} else {
		sign = finishedGroup{
			counter: b.nextCounter,
			digest:  b.groupDigest,
			perUnit: append([][]byte(nil), b.perUnit...),
		}
		b.nextCounter++
		b.groupDigest = [digest.Size]byte{}
		b.perUnit = nil
		b.started = false
	}

	body := &tlv.Body{
		Version:       1,
		GOPCounter:    sign.counter,
		SignatureHash: append([]byte(nil), sign.digest[:]...),
	}
	if b.Level == session.LevelFrame {
		body.HashList = sign.perUnit
	}
	if sign.counter%uint32(b.recurrenceInterval) == uint32(b.recurrenceOffset) {
		if b.productInfo != nil {
			body.ProductInfo = b.productInfo
		}
		body.PublicKey = b.PublicKey()
	}
	if len(b.vendorData) > 0 {
		_ = body.SetVendor(b.vendorTag, b.vendorData)
	}
	body.Signature = ed25519.Sign(b.key, body.SignatureHash)

	tlvBytes := tlv.Encode(body)
	protectedTLV, _ := nalu.AddEmulationPrevention(tlvBytes)

	payload := make([]byte, 0, 17+len(protectedTLV))
	payload = append(payload, nalu.LibraryUUID[:]...)
	payload = append(payload, 0x00) // reserved byte
	payload = append(payload, protectedTLV...)

	rbsp := append([]byte{0x05}, encodeVarint(len(payload))...)
	rbsp = append(rbsp, payload...)
	rbsp = append(rbsp, 0x80) // stop bit

	return annexB(h264SEIHeader, rbsp...)
}

// encodeVarint mirrors the 0xFF-continuation scheme used for SEI
// payload type/size (spec §4.1 step 3) and TLV field lengths (§4.2).
func encodeVarint(n int) []byte {
	var out []byte
	for n >= 0xff {
		out = append(out, 0xff)
		n -= 0xff
	}
	out = append(out, byte(n))
	return out
}
