// Package tlv implements the versioned, self-describing tag-length-value
// container carried inside a Signed Video SEI (spec §4.2). It generalizes
// the teacher's h264parser.ParseSEI variable-length payload-type/size loop
// (0xFF continuation bytes summed into the value) into a reusable varint
// used for both tag lengths here, per spec Design Note 4: a data-driven
// table of (tag, pack, unpack, recurrent) entries rather than hand-written
// branches per tag.
package tlv

import (
	"github.com/pkg/errors"
)

// DigestSize is the fixed hash width carried in a hash-list field
// (spec §4.3, HASH_DIGEST_SIZE).
const DigestSize = 32

// ProductInfo mirrors the Authenticator Session's product info (spec §3).
type ProductInfo struct {
	HardwareID      string
	FirmwareVersion string
	SerialNumber    string
	Manufacturer    string
	Address         string
}

// Body is the decoded content of a Signed Video SEI's TLV payload.
type Body struct {
	Version       uint8
	GOPCounter    uint32
	HashList      [][]byte // per-unit digests; empty under GOP-level authenticity
	SignatureHash []byte   // the digest (or concatenation) the signature covers
	Signature     []byte
	ProductInfo   *ProductInfo // nil when this SEI did not carry the recurrent field
	PublicKey     []byte       // nil when this SEI did not carry the recurrent field
	ArbitraryData []byte
	Vendor        map[Tag][]byte // raw vendor-tag payloads, tags in the vendor range

	vendorOrder []Tag // preserves encounter order for byte-identical re-encoding
}

type tagDescriptor struct {
	tag       Tag
	present   func(*Body) bool
	pack      func(*Body) []byte
	unpack    func(*Body, []byte) error
	recurrent bool
}

// table drives encoding/decoding: one entry per known tag, each owning its
// own pack/unpack closures. Unknown tags (including vendor ones not
// present here) are handled generically in Decode/Encode.
var table = []tagDescriptor{
	{
		tag:     TagGeneralInfo,
		present: func(b *Body) bool { return true },
		pack: func(b *Body) []byte {
			out := make([]byte, 5)
			out[0] = b.Version
			putU32(out[1:], b.GOPCounter)
			return out
		},
		unpack: func(b *Body, v []byte) error {
			if len(v) < 5 {
				return errors.New("tlv: general info field too short")
			}
			b.Version = v[0]
			b.GOPCounter = getU32(v[1:])
			return nil
		},
	},
	{
		tag:     TagHashList,
		present: func(b *Body) bool { return len(b.HashList) > 0 },
		pack: func(b *Body) []byte {
			out := make([]byte, 0, len(b.HashList)*32)
			for _, h := range b.HashList {
				out = append(out, h...)
			}
			return out
		},
		unpack: func(b *Body, v []byte) error {
			if len(v)%DigestSize != 0 {
				return errors.New("tlv: hash list not a multiple of digest size")
			}
			for i := 0; i < len(v); i += DigestSize {
				h := make([]byte, DigestSize)
				copy(h, v[i:i+DigestSize])
				b.HashList = append(b.HashList, h)
			}
			return nil
		},
	},
	{
		tag:     TagSignatureHash,
		present: func(b *Body) bool { return len(b.SignatureHash) > 0 },
		pack:    func(b *Body) []byte { return append([]byte(nil), b.SignatureHash...) },
		unpack: func(b *Body, v []byte) error {
			b.SignatureHash = append([]byte(nil), v...)
			return nil
		},
	},
	{
		tag:     TagSignature,
		present: func(b *Body) bool { return len(b.Signature) > 0 },
		pack:    func(b *Body) []byte { return append([]byte(nil), b.Signature...) },
		unpack: func(b *Body, v []byte) error {
			b.Signature = append([]byte(nil), v...)
			return nil
		},
	},
	{
		tag:     TagArbitraryData,
		present: func(b *Body) bool { return len(b.ArbitraryData) > 0 },
		pack:    func(b *Body) []byte { return append([]byte(nil), b.ArbitraryData...) },
		unpack: func(b *Body, v []byte) error {
			b.ArbitraryData = append([]byte(nil), v...)
			return nil
		},
	},
	{
		tag:       TagProductInfo,
		recurrent: true,
		present:   func(b *Body) bool { return b.ProductInfo != nil },
		pack:      func(b *Body) []byte { return packProductInfo(b.ProductInfo) },
		unpack: func(b *Body, v []byte) error {
			pi, err := unpackProductInfo(v)
			if err != nil {
				return err
			}
			b.ProductInfo = pi
			return nil
		},
	},
	{
		tag:       TagPublicKey,
		recurrent: true,
		present:   func(b *Body) bool { return len(b.PublicKey) > 0 },
		pack:      func(b *Body) []byte { return append([]byte(nil), b.PublicKey...) },
		unpack: func(b *Body, v []byte) error {
			b.PublicKey = append([]byte(nil), v...)
			return nil
		},
	},
}

// SetVendor attaches a vendor-specific field to body, to be assigned the
// given tag (spec §9 Design Note: vendor payloads are generic TLV, opaque
// to the core). tag must fall within [TagVendorRangeStart,
// TagVendorRangeEnd].
func (b *Body) SetVendor(tag Tag, value []byte) error {
	if !tag.isVendor() {
		return errors.Errorf("tlv: tag %d is not in the vendor range", tag)
	}
	if b.Vendor == nil {
		b.Vendor = make(map[Tag][]byte)
	}
	if _, exists := b.Vendor[tag]; !exists {
		b.vendorOrder = append(b.vendorOrder, tag)
	}
	b.Vendor[tag] = value
	return nil
}

func descriptorFor(tag Tag) *tagDescriptor {
	for i := range table {
		if table[i].tag == tag {
			return &table[i]
		}
	}
	return nil
}

// Encode serializes body into its wire TLV form. Re-encoding a decoded
// Body with the same fields populated is byte-identical to the original
// (spec §4.2 invariant), since field order follows the fixed table order
// and vendor tags are replayed in the order Decode collected them.
func Encode(body *Body) []byte {
	var out []byte
	for _, d := range table {
		if !d.present(body) {
			continue
		}
		out = appendField(out, d.tag, d.pack(body))
	}
	for _, tag := range body.vendorOrder {
		out = appendField(out, tag, body.Vendor[tag])
	}
	return out
}

func appendField(out []byte, tag Tag, value []byte) []byte {
	out = append(out, byte(tag))
	out = append(out, encodeLength(len(value))...)
	out = append(out, value...)
	return out
}

// Decode walks tags until the payload is exhausted (spec §4.2). Unknown
// tags are skipped by length; a length that would overrun the payload is
// a fatal decode error.
func Decode(data []byte) (*Body, error) {
	body := &Body{}
	pos := 0
	for pos < len(data) {
		tag := Tag(data[pos])
		pos++
		length, n, err := decodeLength(data[pos:])
		if err != nil {
			return nil, errors.Wrapf(err, "tlv: decode length for tag %d", tag)
		}
		pos += n
		if pos+length > len(data) {
			return nil, errors.Errorf("tlv: tag %d length %d overruns payload", tag, length)
		}
		value := data[pos : pos+length]
		pos += length

		if tag.isVendor() {
			if body.Vendor == nil {
				body.Vendor = make(map[Tag][]byte)
			}
			body.Vendor[tag] = append([]byte(nil), value...)
			body.vendorOrder = append(body.vendorOrder, tag)
			continue
		}

		d := descriptorFor(tag)
		if d == nil {
			// unknown tag: skip by length, per spec §4.2.
			continue
		}
		if err := d.unpack(body, value); err != nil {
			return nil, err
		}
	}
	return body, nil
}

func encodeLength(n int) []byte {
	var out []byte
	for n >= 0xff {
		out = append(out, 0xff)
		n -= 0xff
	}
	out = append(out, byte(n))
	return out
}

func decodeLength(data []byte) (length int, consumed int, err error) {
	for {
		if consumed >= len(data) {
			return 0, 0, errors.New("tlv: truncated length")
		}
		b := int(data[consumed])
		consumed++
		length += b
		if b != 0xff {
			return length, consumed, nil
		}
	}
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

func getU32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
