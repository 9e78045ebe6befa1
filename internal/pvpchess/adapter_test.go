package pvpchess

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-gamecore/internal/clock"
	"github.com/park285/cheese-gamecore/internal/rating"
	"github.com/park285/cheese-gamecore/internal/rules/rulestest"
)

func TestToDTOSnapshotsRunningClock(t *testing.T) {
	g := sampleGame("g")
	g.MovesUCI, g.MovesSAN, g.Turn = []string{"e2e4"}, []string{"e4"}, Black
	g.Clock = &clock.State{WhiteMs: 300_000, BlackMs: 300_000, LastMoveAt: 10_000, Policy: clock.PolicyFixed, BaseMs: 300_000}
	g.DrawOffer = &DrawOffer{OfferedBy: "w", OfferedTo: "b", OfferedAt: 9_000}

	v := ToDTO(g, 25_000)
	require.Equal(t, "active", v.Status)
	require.Equal(t, 1, v.MoveCount)
	require.NotNil(t, v.Clock)
	require.True(t, v.Clock.Running)
	require.Equal(t, int64(300_000), v.Clock.WhiteMs)
	require.Equal(t, int64(285_000), v.Clock.BlackMs)
	require.Equal(t, int64(25_000), v.Clock.ServerTime)
	require.Equal(t, "b", v.DrawOffer.OfferedTo)
	require.Nil(t, v.Termination)

	// stored state is untouched
	require.Equal(t, int64(300_000), g.Clock.BlackMs)
}

func TestToDTOFinishedGameShowsStoredClock(t *testing.T) {
	g := sampleGame("g")
	g.Clock = &clock.State{WhiteMs: 0, BlackMs: 1_000, LastMoveAt: 10_000, Policy: clock.PolicyFixed}
	finish(g, Timeout{Winner: Black, Flagged: White}, 20_000)

	v := ToDTO(g, 99_000)
	require.False(t, v.Clock.Running)
	require.Equal(t, int64(0), v.Clock.WhiteMs)
	require.Equal(t, int64(1_000), v.Clock.BlackMs)
	require.Equal(t, "timeout_white", v.Termination.Cause)
	require.Equal(t, "black", v.Termination.Winner)
}

func TestRatingsDTO(t *testing.T) {
	require.Nil(t, RatingsDTO(nil))
	unrated := RatingsDTO(&RatingOutcome{GameID: "g"})
	require.Nil(t, unrated.White)
	rated := RatingsDTO(&RatingOutcome{Rated: true, White: RatingChange{PlayerID: "w", Before: 1500, After: 1520, Delta: 20}})
	require.Equal(t, 20, rated.White.Delta)
	require.Equal(t, "w", rated.White.PlayerID)

	r := RatingDTO(&rating.Record{PlayerID: "p", Rating: 1600, GamesPlayed: 31})
	require.False(t, r.Provisional)
	require.Equal(t, 1600, r.Rating)
}

func TestValidatorApplyMove(t *testing.T) {
	eng := rulestest.New().Illegal("a1a8")
	v := NewMoveValidator(eng)
	g := sampleGame("g")

	applied, err := v.ApplyMove(g, "e2e4", "w")
	require.NoError(t, err)
	require.Equal(t, Black, applied.SideToMove)

	_, err = v.ApplyMove(g, "a1a8", "w")
	require.ErrorIs(t, err, ErrIllegalMove)
	_, err = v.ApplyMove(g, "e7e5", "b")
	require.ErrorIs(t, err, ErrOutOfTurn)

	place(g, applied)
	require.Equal(t, []string{"e2e4"}, g.MovesUCI)
	require.Equal(t, Black, g.Turn)
	require.NoError(t, g.CheckInvariants())
}
