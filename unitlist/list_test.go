package unitlist

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/signedvideo/nalu"
	"github.com/bugVanisher/signedvideo/report"
)

func annexB(nalHeader byte, rbsp ...byte) []byte {
	data := append([]byte{0, 0, 0, 1, nalHeader}, rbsp...)
	return data
}

func TestAppend_NonHashableUnitIsIgnoredImmediately(t *testing.T) {
	l := New()
	u := nalu.Parse(annexB(0x68, 0x01), nalu.H264, false) // PPS, not hashable
	require.False(t, u.IsHashable)

	h := l.Append(&u)
	it := l.Get(h)
	require.Equal(t, report.Ignored, it.Verdict)
}

func TestAppend_HashableUnitStartsPending(t *testing.T) {
	l := New()
	u := nalu.Parse(annexB(0x65, 0x80), nalu.H264, false) // IDR slice
	require.True(t, u.IsHashable)

	h := l.Append(&u)
	it := l.Get(h)
	require.Equal(t, report.Pending, it.Verdict)
}

func TestList_OrderAndTraversal(t *testing.T) {
	l := New()
	u1 := nalu.Parse(annexB(0x65, 0x80), nalu.H264, false)
	u2 := nalu.Parse(annexB(0x41, 0x40), nalu.H264, false)
	h1 := l.Append(&u1)
	h2 := l.Append(&u2)

	require.Equal(t, h1, l.First())
	require.Equal(t, h2, l.Last())
	require.Equal(t, h2, l.Next(h1))
	require.Equal(t, h1, l.Prev(h2))
	require.Equal(t, NoHandle, l.Next(h2))
	require.Equal(t, 2, l.Count())
}

func TestList_PruneBeforeDropsOlderItems(t *testing.T) {
	l := New()
	u1 := nalu.Parse(annexB(0x65, 0x80), nalu.H264, false)
	u2 := nalu.Parse(annexB(0x41, 0x40), nalu.H264, false)
	u3 := nalu.Parse(annexB(0x41, 0x40), nalu.H264, false)
	h1 := l.Append(&u1)
	h2 := l.Append(&u2)
	h3 := l.Append(&u3)

	l.PruneBefore(h3)

	require.Nil(t, l.Get(h1))
	require.Nil(t, l.Get(h2))
	require.NotNil(t, l.Get(h3))
	require.Equal(t, h3, l.First())
	require.Equal(t, h3, l.Last())
	require.Equal(t, 1, l.Count())
}

func TestList_RangeVisitsUpToButExcludingUntil(t *testing.T) {
	l := New()
	u1 := nalu.Parse(annexB(0x65, 0x80), nalu.H264, false)
	u2 := nalu.Parse(annexB(0x41, 0x40), nalu.H264, false)
	u3 := nalu.Parse(annexB(0x41, 0x40), nalu.H264, false)
	h1 := l.Append(&u1)
	h2 := l.Append(&u2)
	h3 := l.Append(&u3)

	var visited []Handle
	l.Range(h1, h3, func(h Handle, it *Item) { visited = append(visited, h) })
	require.Equal(t, []Handle{h1, h2}, visited)
}

func TestPendingRing_PushAndPopAll(t *testing.T) {
	r := NewPendingRing()
	require.NoError(t, r.Push(PendingSnapshot{Start: 0, End: 1}))
	require.NoError(t, r.Push(PendingSnapshot{Start: 2, End: 3}))
	require.Equal(t, 2, r.Len())

	got := r.PopAll()
	require.Len(t, got, 2)
	require.Equal(t, 0, r.Len())
}

func TestPendingRing_OverflowIsFatal(t *testing.T) {
	r := NewPendingRing()
	for i := 0; i < MaxPendingGOPs; i++ {
		require.NoError(t, r.Push(PendingSnapshot{}))
	}
	err := r.Push(PendingSnapshot{})
	require.Error(t, err)
}
