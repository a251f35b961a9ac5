package digest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOf_IsDeterministicAndSizeFixed(t *testing.T) {
	h1 := Of([]byte("hello"))
	h2 := Of([]byte("hello"))
	require.Equal(t, h1, h2)
	require.Len(t, h1[:], Size)
}

func TestChain_OrderMatters(t *testing.T) {
	a := Of([]byte("a"))
	b := Of([]byte("b"))
	require.NotEqual(t, Chain(a, b), Chain(b, a))
}

func TestEngine_ChainsAcrossUnits(t *testing.T) {
	e := NewEngine(0)
	h1 := e.HashAndAdd([]byte("unit-1"))
	want := Chain([Size]byte{}, h1)
	require.Equal(t, want, e.Running())

	h2 := e.HashAndAdd([]byte("unit-2"))
	want = Chain(want, h2)
	require.Equal(t, want, e.Running())
}

func TestEngine_HashListCapTriggersFallback(t *testing.T) {
	e := NewEngine(2)
	e.HashAndAdd([]byte("u1"))
	e.HashAndAdd([]byte("u2"))
	require.False(t, e.Overflowed())
	require.Len(t, e.HashList(), 2)

	e.HashAndAdd([]byte("u3"))
	require.True(t, e.Overflowed())
	require.Nil(t, e.HashList())
}

func TestEngine_Reset(t *testing.T) {
	e := NewEngine(4)
	e.HashAndAdd([]byte("u1"))
	e.Reset()
	require.Equal(t, [Size]byte{}, e.Running())
	require.Empty(t, e.HashList())
	require.False(t, e.Overflowed())
}
