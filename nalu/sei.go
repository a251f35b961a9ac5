package nalu

import "bytes"

// parseSEI reads the SEI payload type/size header (variable-length, 0xFF
// continuation bytes, spec §4.1 step 3), compares the first 16 payload
// bytes against LibraryUUID, strips emulation prevention bytes from the
// TLV span, and populates the SEI-only fields of u. rbsp is the NAL body
// after the NAL header (still containing emulation prevention bytes).
// Adapted from the teacher's h264parser.ParseSEI payload-type/size loop.
func (u *Unit) parseSEI(rbsp []byte) {
	pos := 0
	payloadType := 0
	for pos < len(rbsp) {
		b := int(rbsp[pos])
		pos++
		payloadType += b
		if b != 0xff {
			break
		}
	}
	payloadSize := 0
	for pos < len(rbsp) {
		b := int(rbsp[pos])
		pos++
		payloadSize += b
		if b != 0xff {
			break
		}
	}
	if pos > len(rbsp) {
		return
	}

	end := pos + payloadSize
	if end > len(rbsp) {
		end = len(rbsp)
	}
	payload := rbsp[pos:end]
	u.Payload = payload
	u.PayloadSize = len(payload)

	if len(payload) < 17 || payloadType != 5 || !bytes.Equal(payload[:16], LibraryUUID[:]) {
		u.UUID = UUIDNone
		return
	}
	u.UUID = UUIDSignedVideo
	u.ReservedByte = payload[16]

	tlv := payload[17:]
	u.TLVWithEPB = tlv
	stripped := DeEmulationPrevention(tlv)
	if len(stripped) != len(tlv) {
		u.stripBuffer = stripped
		u.TLVData = u.stripBuffer
	} else {
		u.TLVData = tlv
	}
	u.EmulationPreventionBytes = len(tlv) - len(stripped)
}
