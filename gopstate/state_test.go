package gopstate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestState_HappyPathCycle(t *testing.T) {
	s := NewState()
	require.Equal(t, Open, s.Phase)

	s.CountHashableUnit()
	s.CountHashableUnit()
	require.Equal(t, 2, s.HashableUnits)

	require.NoError(t, s.Close())
	require.Equal(t, Closed, s.Phase)
	require.NoError(t, s.Verify())
	require.Equal(t, Verified, s.Phase)
	require.NoError(t, s.Report())
	require.Equal(t, Reported, s.Phase)
}

func TestState_OutOfOrderTransitionIsRejected(t *testing.T) {
	s := NewState()
	require.Error(t, s.Verify())
	require.Error(t, s.Report())
}

func TestState_BeginGroupResetsFlagsAndBumpsCounter(t *testing.T) {
	s := NewState()
	s.CountHashableUnit()
	require.NoError(t, s.Close())
	s.HasLostSEI = true
	before := s.GroupCounter

	s.BeginGroup()

	require.Equal(t, Open, s.Phase)
	require.Equal(t, 0, s.HashableUnits)
	require.False(t, s.HasLostSEI)
	require.Equal(t, before+1, s.GroupCounter)
}

func TestState_ObserveSEIGroupCounterFlagsGap(t *testing.T) {
	s := NewState()
	s.GroupCounter = 5
	gap := s.ObserveSEIGroupCounter(5)
	require.Equal(t, uint32(0), gap)
	require.False(t, s.HasLostSEI)

	gap = s.ObserveSEIGroupCounter(8)
	require.Equal(t, uint32(3), gap)
	require.True(t, s.HasLostSEI)
}
