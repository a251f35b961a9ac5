package tlv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	body := &Body{
		Version:       1,
		GOPCounter:    42,
		SignatureHash: make([]byte, DigestSize),
		Signature:     []byte{0xde, 0xad, 0xbe, 0xef},
		ProductInfo: &ProductInfo{
			HardwareID:      "hw-1",
			FirmwareVersion: "1.2.3",
			SerialNumber:    "SN-001",
			Manufacturer:    "Acme",
			Address:         "Somewhere",
		},
		PublicKey: []byte{0x01, 0x02, 0x03},
	}

	encoded := Encode(body)
	decoded, err := Decode(encoded)
	require.NoError(t, err)

	require.Equal(t, body.Version, decoded.Version)
	require.Equal(t, body.GOPCounter, decoded.GOPCounter)
	require.Equal(t, body.SignatureHash, decoded.SignatureHash)
	require.Equal(t, body.Signature, decoded.Signature)
	require.Equal(t, body.ProductInfo, decoded.ProductInfo)
	require.Equal(t, body.PublicKey, decoded.PublicKey)
}

func TestEncode_ReEncodeIsByteIdentical(t *testing.T) {
	body := &Body{
		Version:       1,
		GOPCounter:    7,
		HashList:      [][]byte{make([]byte, DigestSize), make([]byte, DigestSize)},
		SignatureHash: make([]byte, DigestSize),
		Signature:     []byte{1, 2, 3},
	}
	require.NoError(t, body.SetVendor(TagVendorRangeStart, []byte{0xaa, 0xbb}))

	encoded := Encode(body)
	decoded, err := Decode(encoded)
	require.NoError(t, err)

	require.Equal(t, encoded, Encode(decoded))
}

func TestDecode_UnknownTagSkippedByLength(t *testing.T) {
	// An unknown tag (not in the table, not vendor range) with a 3-byte
	// value should be skipped without affecting the rest of the body.
	var data []byte
	data = append(data, byte(0x50))
	data = append(data, encodeLength(3)...)
	data = append(data, []byte{1, 2, 3}...)
	data = append(data, byte(TagSignature))
	data = append(data, encodeLength(2)...)
	data = append(data, []byte{9, 9}...)

	body, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, []byte{9, 9}, body.Signature)
}

func TestDecode_LengthOverrunIsFatal(t *testing.T) {
	data := []byte{byte(TagSignature), 0x0a, 1, 2} // length 10, only 2 bytes follow
	_, err := Decode(data)
	require.Error(t, err)
}

func TestLength_VarintRoundTrips(t *testing.T) {
	for _, n := range []int{0, 1, 254, 255, 256, 510, 511, 1000} {
		enc := encodeLength(n)
		got, consumed, err := decodeLength(enc)
		require.NoError(t, err)
		require.Equal(t, n, got)
		require.Equal(t, len(enc), consumed)
	}
}
