package rating

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDrawBetweenEqualsIsFixedPoint(t *testing.T) {
	for _, r := range []int{100, 800, 1200, 1500, 2100, 2850} {
		for _, k := range []int{10, KEstablished, 32, KProvisional} {
			require.Equal(t, r, CalculateNewElo(r, r, ScoreDraw, k), "r=%d k=%d", r, k)
		}
	}
}

func TestCalculateNewEloAgainstWeakerOpponent(t *testing.T) {
	// expected(1500 vs 1400) = 0.6401
	require.InDelta(t, 0.6401, ExpectedScore(1500, 1400), 0.0001)
	require.Equal(t, 1507, CalculateNewElo(1500, 1400, ScoreWin, 20))
	require.Equal(t, 1487, CalculateNewElo(1500, 1400, ScoreLoss, 20))
	require.Equal(t, 1497, CalculateNewElo(1500, 1400, ScoreDraw, 20))
}

func TestExpectedScoresSumToOne(t *testing.T) {
	require.InDelta(t, 1.0, ExpectedScore(1830, 1544)+ExpectedScore(1544, 1830), 1e-9)
}

func TestKFactor(t *testing.T) {
	require.Equal(t, 40, KFactor(0))
	require.Equal(t, 40, KFactor(29))
	require.Equal(t, 20, KFactor(30))
	require.Equal(t, 20, KFactor(500))
}

func TestProvisional(t *testing.T) {
	require.True(t, Record{GamesPlayed: 29}.Provisional())
	require.False(t, Record{GamesPlayed: 30}.Provisional())
}

func TestApplyUsesPreGameRatingsForBothSides(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	white := Record{PlayerID: "w", Rating: 1500, GamesPlayed: 40}
	black := Record{PlayerID: "b", Rating: 1400, GamesPlayed: 40}

	nw, nb := Apply(white, black, ScoreWin, at)
	require.Equal(t, 1507, nw.Rating)
	// black computed against 1500, not white's post-game 1507
	require.Equal(t, CalculateNewElo(1400, 1500, ScoreLoss, 20), nb.Rating)
	require.Equal(t, 1393, nb.Rating)

	require.Equal(t, 41, nw.GamesPlayed)
	require.Equal(t, 1, nw.Wins)
	require.Equal(t, 0, nw.Losses+nw.Draws)
	require.Equal(t, 1, nb.Losses)
	require.Equal(t, 0, nb.Wins+nb.Draws)
	require.Equal(t, at, nw.UpdatedAt)
}

func TestApplyDrawIncrementsDrawsOnly(t *testing.T) {
	nw, nb := Apply(NewRecord("w", 0), NewRecord("b", 0), ScoreDraw, time.Time{})
	require.Equal(t, DefaultRating, nw.Rating)
	require.Equal(t, DefaultRating, nb.Rating)
	require.Equal(t, 1, nw.Draws)
	require.Equal(t, 1, nb.Draws)
	require.Equal(t, 1, nw.GamesPlayed)
}

func TestApplyProvisionalMovesFurther(t *testing.T) {
	nw, nb := Apply(Record{Rating: 1500, GamesPlayed: 3}, Record{Rating: 1500, GamesPlayed: 100}, ScoreWin, time.Time{})
	require.Equal(t, 1520, nw.Rating)
	require.Equal(t, 1490, nb.Rating)
}
