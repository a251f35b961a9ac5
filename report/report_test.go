package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVerdict_JoinNeverDecreasesSeverity(t *testing.T) {
	require.Equal(t, NotAuthentic, Authentic.Join(NotAuthentic))
	require.Equal(t, NotAuthentic, NotAuthentic.Join(Authentic))
	require.Equal(t, Missing, Pending.Join(Missing))
	require.Equal(t, Error, NotAuthentic.Join(Error))
}

func TestVerdict_WorseThan(t *testing.T) {
	require.True(t, NotAuthentic.WorseThan(Authentic))
	require.False(t, Authentic.WorseThan(NotAuthentic))
	require.False(t, Authentic.WorseThan(Authentic))
}

func TestAccumulated_RollTracksWorstOutcome(t *testing.T) {
	a := NewAccumulated()
	a.Roll(&Latest{Outcome: Ok, ExpectedPictureUnits: 3, ReceivedPictureUnits: 3})
	require.Equal(t, Ok, a.WorstOutcome)

	a.Roll(&Latest{Outcome: NotOk, ExpectedPictureUnits: 3, ReceivedPictureUnits: 2, MissingPositions: []int{1}})
	require.Equal(t, NotOk, a.WorstOutcome)
	require.Equal(t, 6, a.TotalExpectedPictureUnits)
	require.Equal(t, 5, a.TotalReceivedPictureUnits)
	require.Equal(t, 1, a.TotalMissingPictureUnits)

	a.Roll(&Latest{Outcome: Ok})
	require.Equal(t, NotOk, a.WorstOutcome, "worst outcome must not improve once regressed")
}

func TestLatest_MarshalRoundTrip(t *testing.T) {
	l := &Latest{
		Outcome:               OkWithMissingInfo,
		PublicKeyHasChanged:   true,
		ExpectedPictureUnits:  5,
		ReceivedPictureUnits:  4,
		PendingPictureUnits:   1,
		ReceivedMinusExpected: -1,
		MissingPositions:      []int{2},
		VerdictString:         "..M.P",
	}
	data, err := l.MarshalReport()
	require.NoError(t, err)

	got, err := UnmarshalReport(data)
	require.NoError(t, err)
	require.Equal(t, l, got)
}
