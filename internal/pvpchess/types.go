package pvpchess

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/cheese-gamecore/internal/clock"
	"github.com/park285/cheese-gamecore/internal/rules"
	"github.com/park285/cheese-gamecore/internal/side"
)

// Color identifies chess side.
type Color = side.Color

const (
	White = side.White
	Black = side.Black
)

// Status represents a PvP game lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusActive   Status = "active"
	StatusFinished Status = "finished"
)

// Player is one seat of a game. Colors are fixed at creation.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DisplayName is the name, falling back to the id.
func (p Player) DisplayName() string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return p.ID
}

// DrawOffer is a pending draw proposal. OfferedAt is unix milliseconds.
type DrawOffer struct {
	OfferedBy string `json:"offered_by"`
	OfferedTo string `json:"offered_to"`
	OfferedAt int64  `json:"offered_at"`
}

// Game is the persisted state of a PvP match.
type Game struct {
	ID             string         `json:"id"`
	StartFEN       string         `json:"start_fen"`
	FEN            string         `json:"fen"`
	Turn           Color          `json:"turn"`
	FirstMover     Color          `json:"first_mover"`
	MovesUCI       []string       `json:"moves_uci"`
	MovesSAN       []string       `json:"moves_san"`
	White          Player         `json:"white"`
	Black          Player         `json:"black"`
	Status         Status         `json:"status"`
	TimeControl    string         `json:"time_control,omitempty"`
	Clock          *clock.State   `json:"clock,omitempty"`
	DrawOffer      *DrawOffer     `json:"draw_offer,omitempty"`
	Termination    *Termination   `json:"termination,omitempty"`
	Opening        *rules.Opening `json:"opening,omitempty"`
	RatingsApplied bool           `json:"ratings_applied"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// PlayerColor returns the color seated by userID.
func (g *Game) PlayerColor(userID string) (Color, bool) {
	switch userID {
	case "":
		return "", false
	case g.White.ID:
		return White, true
	case g.Black.ID:
		return Black, true
	default:
		return "", false
	}
}

// Seat returns the player holding c.
func (g *Game) Seat(c Color) Player {
	if c == Black {
		return g.Black
	}
	return g.White
}

func (g *Game) Finished() bool { return g.Status == StatusFinished }

// ClockState returns the stored clock, treating a missing clock as untimed.
func (g *Game) ClockState() clock.State {
	if g.Clock == nil {
		return clock.State{WhiteMs: clock.Unbounded, BlackMs: clock.Unbounded, Policy: clock.PolicyNone}
	}
	return *g.Clock
}

// CheckInvariants verifies the structural invariants of a stored game. Both
// stores run it before every write; a failing game is never persisted.
func (g *Game) CheckInvariants() error {
	if !g.Turn.Valid() || !g.FirstMover.Valid() {
		return violation("invalid side to move")
	}
	if len(g.MovesUCI) != len(g.MovesSAN) {
		return violation("move history length mismatch")
	}
	want := g.FirstMover
	if len(g.MovesUCI)%2 == 1 {
		want = g.FirstMover.Opponent()
	}
	if g.Turn != want {
		return violation("side to move does not match move history parity")
	}
	if g.Finished() != (g.Termination != nil) {
		return violation("termination record must be present iff finished")
	}
	if g.RatingsApplied && !g.Finished() {
		return violation("ratings applied on unfinished game")
	}
	return nil
}

func violation(detail string) error { return fmt.Errorf("%w: %s", ErrInvariant, detail) }
