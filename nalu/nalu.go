// Package nalu implements the bitstream parser (spec §4.1): it classifies
// one coded H.264/H.265 unit, locates its payload, strips emulation
// prevention bytes and extracts the attributes the authentication core
// needs. It is the generalization of the teacher's h264parser.go
// (NALU classification, SplitNALUs framing detection, DeEmulationPrevention,
// ParseSEI's variable-length payload loop, ParseSliceHeaderFromNALU) to
// cover both H.264 and H.265 and the signed-video SEI envelope.
package nalu

import (
	"github.com/bugVanisher/signedvideo/internal/bitreader"
)

// Codec selects which NAL unit header layout to parse.
type Codec int

const (
	H264 Codec = iota
	H265
)

// FrameKind classifies the coded unit (spec §3).
type FrameKind int

const (
	Undefined FrameKind = iota
	I
	P
	ParamSet
	SEIKind
	Other
)

func (k FrameKind) String() string {
	switch k {
	case I:
		return "I"
	case P:
		return "P"
	case ParamSet:
		return "ParamSet"
	case SEIKind:
		return "SEI"
	case Other:
		return "Other"
	default:
		return "Undefined"
	}
}

// UUIDKind distinguishes a Signed Video SEI from any other SEI.
type UUIDKind int

const (
	UUIDNone UUIDKind = iota
	UUIDSignedVideo
)

// LibraryUUID is the 16-byte identifier a Signed Video SEI payload begins
// with (spec §6, wire format item 1).
var LibraryUUID = [16]byte{
	0x53, 0x69, 0x67, 0x6e, 0x65, 0x64, 0x56, 0x69,
	0x64, 0x65, 0x6f, 0x00, 0x00, 0x00, 0x00, 0x01,
}

const stopBit = 0x80

// Unit is a fully parsed coded unit (spec §3, Coded Unit).
type Unit struct {
	Data           []byte // full unit bytes, header + payload, start code/length stripped
	HashableData   []byte // subset of Data: header + payload minus the trailing stop-bit byte
	Kind           FrameKind
	UUID           UUIDKind
	IsValid        int8 // -1 error, 0 invalid, 1 valid
	IsHashable     bool
	IsPrimarySlice bool
	IsFirstInGOP   bool // primary slice of an I frame
	IsGOPSEI       bool // valid Signed Video SEI

	// SEI-only fields.
	Payload                   []byte // points at payload (after the NAL header), EPB still present
	PayloadSize               int
	ReservedByte              byte
	TLVWithEPB                []byte // TLV span as it appears in the bitstream
	TLVData                   []byte // TLV span with emulation prevention bytes stripped
	stripBuffer               []byte // backing store for TLVData when EPBs were found
	EmulationPreventionBytes  int
	StartCode                 uint32 // start code value, or the encoded length for length-prefixed framing
}

// Parse classifies one coded unit. data must contain exactly one coded
// unit, prefixed by either an Annex B start code or a 4-byte big-endian
// length. Parse never errors: a malformed unit still yields a Unit with
// IsValid <= 0 so the caller can record verdict U and continue (spec §4.1
// failure mode).
func Parse(data []byte, codec Codec, requireStopBit bool) Unit {
	u := Unit{}

	body, startCode, ok := stripFraming(data)
	if !ok {
		u.IsValid = -1
		return u
	}
	u.StartCode = startCode

	headerLen := 1
	if codec == H265 {
		headerLen = 2
	}
	if len(body) < headerLen {
		u.IsValid = -1
		return u
	}
	u.Data = body

	kind := classify(body, codec)
	u.Kind = kind
	if kind == Undefined {
		u.IsValid = 0
		return u
	}
	u.IsValid = 1

	end := len(body)
	if requireStopBit && end > 0 && body[end-1] == stopBit {
		end--
	}
	u.HashableData = body[:end]

	// Only a primary I/P slice is a picture unit that contributes to the
	// group hash; SEIs (signed-video or not), parameter sets, and unknown
	// units are metadata/structure and never hashable. A signed-video SEI
	// in particular cannot hash its own bytes into the digest it reports
	// on without being self-referential.
	switch kind {
	case SEIKind:
		u.parseSEI(body[headerLen:])
	case I, P:
		u.IsPrimarySlice = isPrimarySlice(body, headerLen, codec)
		u.IsHashable = u.IsPrimarySlice
		u.IsFirstInGOP = kind == I && u.IsPrimarySlice
	}

	return u
}

// stripFraming recognizes the Annex B start code or AVCC length prefix and
// returns the remaining coded-unit bytes plus the recorded start code (or
// length) value.
func stripFraming(data []byte) (body []byte, startCode uint32, ok bool) {
	if len(data) >= 4 && data[0] == 0 && data[1] == 0 && data[2] == 0 && data[3] == 1 {
		return data[4:], 0x00000001, true
	}
	if len(data) >= 3 && data[0] == 0 && data[1] == 0 && data[2] == 1 {
		return data[3:], 0x000001, true
	}
	if len(data) > 4 {
		length := uint32(data[0])<<24 | uint32(data[1])<<16 | uint32(data[2])<<8 | uint32(data[3])
		if int(length) == len(data)-4 {
			return data[4:], length, true
		}
	}
	return nil, 0, false
}

func classify(body []byte, codec Codec) FrameKind {
	if codec == H264 {
		typ := body[0] & 0x1f
		switch typ {
		case 5:
			return I
		case 1:
			return P
		case 7, 8:
			return ParamSet
		case 6:
			return SEIKind
		case 0:
			return Undefined
		default:
			return Other
		}
	}

	typ := (body[0] >> 1) & 0x3f
	switch {
	case typ == 19 || typ == 20 || typ == 21:
		return I
	case typ <= 9:
		return P
	case typ == 32, typ == 33, typ == 34:
		return ParamSet
	case typ == 39, typ == 40:
		return SEIKind
	default:
		return Other
	}
}

// isPrimarySlice reads first_mb_in_slice (H.264) or
// first_slice_segment_in_pic_flag (H.265) to tell a primary slice from a
// redundant/secondary one within the same access unit (spec §4.1 step 4).
func isPrimarySlice(body []byte, headerLen int, codec Codec) bool {
	if len(body) <= headerLen {
		return true
	}
	if codec == H265 {
		return body[headerLen]&0x80 != 0
	}
	r := bitreader.New(DeEmulationPrevention(body[headerLen:]))
	firstMB, err := r.ReadExponentialGolombCode()
	if err != nil {
		return true
	}
	return firstMB == 0
}
