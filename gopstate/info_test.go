package gopstate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bugVanisher/signedvideo/digest"
)

func TestInfo_AddUnitDigestChainsRunning(t *testing.T) {
	g := NewInfo(10)
	d1 := digest.Of([]byte("a"))
	d2 := digest.Of([]byte("b"))

	g.AddUnitDigest(d1)
	require.Equal(t, d1, g.Running)

	g.AddUnitDigest(d2)
	require.Equal(t, digest.Chain(d1, d2), g.Running)
	require.Len(t, g.PerUnit, 2)
	require.False(t, g.Fallback)
}

func TestInfo_AddUnitDigestFallsBackOnOverflow(t *testing.T) {
	g := NewInfo(1)
	d1 := digest.Of([]byte("a"))
	d2 := digest.Of([]byte("b"))

	demoted := g.AddUnitDigest(d1)
	require.False(t, demoted)
	demoted = g.AddUnitDigest(d2)
	require.True(t, demoted)
	require.True(t, g.Fallback)
	require.Nil(t, g.PerUnit)
}

func TestInfo_CapZeroDisablesPerUnitList(t *testing.T) {
	g := NewInfo(0)
	g.AddUnitDigest(digest.Of([]byte("a")))
	require.False(t, g.Fallback)
	require.Nil(t, g.PerUnit)
}

func TestInfo_ResetForNewGroupCarriesLinkingHash(t *testing.T) {
	g := NewInfo(10)
	g.AddUnitDigest(digest.Of([]byte("a")))
	finished := g.Finalize()

	g.ResetForNewGroup(finished)
	require.Equal(t, finished, g.Linking)
	require.Equal(t, [digest.Size]byte{}, g.Running)
	require.Nil(t, g.PerUnit)
}
