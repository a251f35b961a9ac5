package nalu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func annexB(nalHeader byte, rbsp ...byte) []byte {
	data := append([]byte{0, 0, 0, 1, nalHeader}, rbsp...)
	return data
}

func TestParse_ClassifiesFrameKinds(t *testing.T) {
	// type 7 = SPS -> ParamSet
	u := Parse(annexB(0x67, 0x01, 0x02), H264, false)
	require.Equal(t, ParamSet, u.Kind)
	require.EqualValues(t, 1, u.IsValid)

	// type 8 = PPS -> ParamSet
	u = Parse(annexB(0x68, 0x01), H264, false)
	require.Equal(t, ParamSet, u.Kind)

	// type 6 = SEI, non-signed-video payload
	u = Parse(annexB(0x06, 0x05, 0x02, 0xAA, 0xBB), H264, false)
	require.Equal(t, SEIKind, u.Kind)
	require.Equal(t, UUIDNone, u.UUID)
	require.False(t, u.IsHashable)
}

func TestParse_IDRIsPrimarySliceAndFirstInGOP(t *testing.T) {
	// type 5 = IDR slice; first_mb_in_slice = ue(0) = single bit "1"
	u := Parse(annexB(0x65, 0x80), H264, false)
	require.Equal(t, I, u.Kind)
	require.True(t, u.IsPrimarySlice)
	require.True(t, u.IsFirstInGOP)
	require.True(t, u.IsHashable)
}

func TestParse_NonPrimarySliceIsNotHashable(t *testing.T) {
	// first_mb_in_slice = ue(1): bits "010" -> not primary (value != 0)
	u := Parse(annexB(0x41, 0x40), H264, false)
	require.Equal(t, P, u.Kind)
	require.False(t, u.IsPrimarySlice)
	require.False(t, u.IsHashable)
}

func TestParse_MalformedFramingIsRecoverable(t *testing.T) {
	u := Parse([]byte{1, 2, 3}, H264, false)
	require.EqualValues(t, -1, u.IsValid)
}

func TestParse_StopBitStrippedFromHashableSpan(t *testing.T) {
	u := Parse(annexB(0x65, 0x80, stopBit), H264, true)
	require.Len(t, u.HashableData, len(u.Data)-1)
}

func TestDeEmulationPrevention_RoundTrips(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x01, 0x02, 0x00, 0x00, 0x02}
	protected, added := AddEmulationPrevention(raw)
	require.Greater(t, added, 0)
	require.Equal(t, raw, DeEmulationPrevention(protected))
}

func TestEmulationWriter_MatchesAddEmulationPrevention(t *testing.T) {
	raw := []byte{0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x03}
	want, wantAdded := AddEmulationPrevention(raw)

	w := NewEmulationWriter()
	w.Write(raw)
	require.Equal(t, want, w.Bytes())
	require.Equal(t, wantAdded, w.Inserted())
}
