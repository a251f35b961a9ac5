package tlv

import "github.com/pkg/errors"

// packProductInfo serializes the five product info strings (spec §3,
// Authenticator Session) as a sequence of length-prefixed fields, reusing
// the same variable-length scheme as the outer TLV framing.
func packProductInfo(p *ProductInfo) []byte {
	var out []byte
	for _, s := range []string{p.HardwareID, p.FirmwareVersion, p.SerialNumber, p.Manufacturer, p.Address} {
		out = append(out, encodeLength(len(s))...)
		out = append(out, s...)
	}
	return out
}

func unpackProductInfo(v []byte) (*ProductInfo, error) {
	fields := make([]string, 0, 5)
	pos := 0
	for i := 0; i < 5; i++ {
		length, n, err := decodeLength(v[pos:])
		if err != nil {
			return nil, errors.Wrap(err, "tlv: product info field length")
		}
		pos += n
		if pos+length > len(v) {
			return nil, errors.New("tlv: product info field overruns payload")
		}
		fields = append(fields, string(v[pos:pos+length]))
		pos += length
	}
	return &ProductInfo{
		HardwareID:      fields[0],
		FirmwareVersion: fields[1],
		SerialNumber:    fields[2],
		Manufacturer:    fields[3],
		Address:         fields[4],
	}, nil
}
