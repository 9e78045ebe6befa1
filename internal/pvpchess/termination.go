package pvpchess

import (
	"strings"

	"github.com/park285/cheese-gamecore/internal/rating"
	"github.com/park285/cheese-gamecore/internal/rules"
)

// Cause names how a game ended.
type Cause string

const (
	CauseCheckmate     Cause = "checkmate"
	CauseStalemate     Cause = "stalemate"
	CauseResignation   Cause = "resignation"
	CauseDrawAgreement Cause = "draw_agreement"
	CauseAbandoned     Cause = "abandoned"
	causeTimeoutPrefix       = "timeout_"
)

// TimeoutCause is the cause recorded when flagged runs out of time.
func TimeoutCause(flagged Color) Cause { return Cause(causeTimeoutPrefix + string(flagged)) }

// Winner is the recorded result of a finished game.
type Winner string

const (
	WinnerWhite Winner = "white"
	WinnerBlack Winner = "black"
	WinnerDraw  Winner = "draw"
	// WinnerNone marks a game that ended without a result and is not rated.
	WinnerNone Winner = "none"
)

func winnerOf(c Color) Winner {
	switch c {
	case White:
		return WinnerWhite
	case Black:
		return WinnerBlack
	default:
		return WinnerNone
	}
}

// Outcome is the closed set of ways a game ends.
type Outcome interface {
	Cause() Cause
	Result() Winner
	outcome()
}

type Checkmate struct{ Winner Color }

type Stalemate struct{}

// Timeout is produced by the clock; Flagged is the side that ran out.
type Timeout struct {
	Winner  Color
	Flagged Color
}

type Resignation struct{ Winner Color }

type DrawAgreement struct{}

// Abandoned ends an idle game. An empty Winner leaves the game unrated.
type Abandoned struct{ Winner Color }

func (Checkmate) Cause() Cause       { return CauseCheckmate }
func (o Checkmate) Result() Winner   { return winnerOf(o.Winner) }
func (Checkmate) outcome()           {}
func (Stalemate) Cause() Cause       { return CauseStalemate }
func (Stalemate) Result() Winner     { return WinnerDraw }
func (Stalemate) outcome()           {}
func (o Timeout) Cause() Cause       { return TimeoutCause(o.Flagged) }
func (o Timeout) Result() Winner     { return winnerOf(o.Winner) }
func (Timeout) outcome()             {}
func (Resignation) Cause() Cause     { return CauseResignation }
func (o Resignation) Result() Winner { return winnerOf(o.Winner) }
func (Resignation) outcome()         {}
func (DrawAgreement) Cause() Cause   { return CauseDrawAgreement }
func (DrawAgreement) Result() Winner { return WinnerDraw }
func (DrawAgreement) outcome()       {}
func (Abandoned) Cause() Cause       { return CauseAbandoned }
func (o Abandoned) Result() Winner   { return winnerOf(o.Winner) }
func (Abandoned) outcome()           {}

// Termination is the persisted end-of-game record. At is unix milliseconds.
type Termination struct {
	Cause  Cause  `json:"cause"`
	Winner Winner `json:"winner"`
	At     int64  `json:"at"`
}

func record(o Outcome, at int64) *Termination {
	return &Termination{Cause: o.Cause(), Winner: o.Result(), At: at}
}

// Outcome decodes the stored record back into its variant.
func (t *Termination) Outcome() Outcome {
	if t == nil {
		return nil
	}
	var w Color
	switch t.Winner {
	case WinnerWhite:
		w = White
	case WinnerBlack:
		w = Black
	}
	switch c := string(t.Cause); {
	case t.Cause == CauseCheckmate:
		return Checkmate{Winner: w}
	case t.Cause == CauseStalemate:
		return Stalemate{}
	case t.Cause == CauseResignation:
		return Resignation{Winner: w}
	case t.Cause == CauseDrawAgreement:
		return DrawAgreement{}
	case t.Cause == CauseAbandoned:
		return Abandoned{Winner: w}
	case strings.HasPrefix(c, causeTimeoutPrefix):
		return Timeout{Winner: w, Flagged: Color(strings.TrimPrefix(c, causeTimeoutPrefix))}
	default:
		return nil
	}
}

// WhiteScore maps the result to white's score. Rated is false when the game
// carries no result.
func (t *Termination) WhiteScore() (score float64, rated bool) {
	if t == nil {
		return 0, false
	}
	switch t.Winner {
	case WinnerWhite:
		return rating.ScoreWin, true
	case WinnerBlack:
		return rating.ScoreLoss, true
	case WinnerDraw:
		return rating.ScoreDraw, true
	default:
		return 0, false
	}
}

// AfterMove classifies the position reached by mover's move. A nil result
// means play continues.
func AfterMove(applied rules.Applied, mover Color) Outcome {
	if applied.LegalReplies > 0 {
		return nil
	}
	if applied.InCheck {
		return Checkmate{Winner: mover}
	}
	return Stalemate{}
}

func finish(g *Game, o Outcome, now int64) {
	g.Status = StatusFinished
	g.Termination = record(o, now)
	g.DrawOffer = nil
	g.UpdatedAt = msTime(now)
}

func resign(g *Game, requester string) (Outcome, error) {
	c, ok := g.PlayerColor(requester)
	if !ok {
		return nil, ErrUnauthorized
	}
	if err := requireActive(g); err != nil {
		return nil, err
	}
	return Resignation{Winner: c.Opponent()}, nil
}

func requireActive(g *Game) error {
	switch g.Status {
	case StatusFinished:
		return ErrAlreadyFinished
	case StatusActive:
		return nil
	default:
		return ErrNotActive
	}
}
