package pvpchess

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-gamecore/internal/clock"
	"github.com/park285/cheese-gamecore/internal/rules"
)

func TestBuildPGNFinishedGame(t *testing.T) {
	g := &Game{
		StartFEN:    rules.StandardFEN,
		FirstMover:  White,
		MovesSAN:    []string{"e4", "e5", "Qh5", "Nc6", "Bc4", "Nf6", "Qxf7#"},
		White:       Player{ID: "w", Name: "Ali \"ce\""},
		Black:       Player{ID: "b"},
		Status:      StatusFinished,
		Clock:       &clock.State{Policy: clock.PolicyIncrement, BaseMs: 180_000, IncrementMs: 2_000},
		TimeControl: "3+2",
		Termination: &Termination{Cause: CauseCheckmate, Winner: WinnerWhite},
		CreatedAt:   time.Date(2026, 5, 6, 0, 0, 0, 0, time.UTC),
	}
	pgn := BuildPGN(g)
	require.Contains(t, pgn, `[Event "Rated PvP"]`)
	require.Contains(t, pgn, `[Date "2026.05.06"]`)
	require.Contains(t, pgn, `[White "Ali 'ce'"]`)
	require.Contains(t, pgn, `[Black "b"]`)
	require.Contains(t, pgn, `[Result "1-0"]`)
	require.Contains(t, pgn, `[TimeControl "180+2"]`)
	require.Contains(t, pgn, `[Termination "normal"]`)
	require.NotContains(t, pgn, "[SetUp")
	require.True(t, strings.HasSuffix(pgn, "1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0"), pgn)
}

func TestBuildPGNBlackFirstMoverAndCustomStart(t *testing.T) {
	fen := "4k3/8/8/8/8/8/4P3/4K3 b - - 0 1"
	g := &Game{
		StartFEN:   fen,
		FirstMover: Black,
		MovesSAN:   []string{"Kd7", "e4", "Kd6"},
		White:      Player{ID: "w"},
		Black:      Player{ID: "b"},
		Status:     StatusActive,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	pgn := BuildPGN(g)
	require.Contains(t, pgn, `[SetUp "1"]`)
	require.Contains(t, pgn, `[FEN "`+fen+`"]`)
	require.Contains(t, pgn, `[Result "*"]`)
	require.NotContains(t, pgn, "[Termination")
	require.True(t, strings.HasSuffix(pgn, "1... Kd7 2. e4 Kd6 *"), pgn)
}

func TestBuildPGNNumbersFromStartFEN(t *testing.T) {
	cases := []struct {
		fen   string
		first Color
		moves []string
		want  string
	}{
		{"4k3/8/8/8/8/8/4P3/4K3 b - - 4 23", Black, []string{"Kd7", "e4", "Kd6"}, "23... Kd7 24. e4 Kd6 *"},
		{"4k3/8/8/8/8/8/4P3/4K3 w - - 0 40", White, []string{"e4", "Kd7", "e5"}, "40. e4 Kd7 41. e5 *"},
		{"4k3/8/8/8/8/8/4P3/4K3 w - -", White, []string{"e4"}, "1. e4 *"},
	}
	for _, tc := range cases {
		g := &Game{StartFEN: tc.fen, FirstMover: tc.first, MovesSAN: tc.moves, Status: StatusActive}
		pgn := BuildPGN(g)
		require.True(t, strings.HasSuffix(pgn, tc.want), pgn)
	}
}

func TestBuildPGNEvent(t *testing.T) {
	g := sampleGame("g")
	require.Contains(t, BuildPGN(g), `[Event "Rated PvP"]`)

	g.Status = StatusFinished
	g.Termination = &Termination{Cause: CauseAbandoned, Winner: WinnerNone}
	pgn := BuildPGN(g)
	require.Contains(t, pgn, `[Event "Casual PvP"]`)
	require.Contains(t, pgn, `[Result "*"]`)

	g.Termination = &Termination{Cause: CauseAbandoned, Winner: WinnerBlack}
	require.Contains(t, BuildPGN(g), `[Event "Rated PvP"]`)
}

func TestPGNResultAndTermination(t *testing.T) {
	require.Equal(t, "0-1", mapResultToPGN(WinnerBlack))
	require.Equal(t, "1/2-1/2", mapResultToPGN(WinnerDraw))
	require.Equal(t, "*", mapResultToPGN(WinnerNone))
	require.Equal(t, "time forfeit", pgnTermination(TimeoutCause(White)))
	require.Equal(t, "abandoned", pgnTermination(CauseAbandoned))
	require.Equal(t, "normal", pgnTermination(CauseDrawAgreement))
}
