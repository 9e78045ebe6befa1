package pvpchess

import (
	"errors"
	"fmt"

	"github.com/park285/cheese-gamecore/internal/rules"
)

// MoveValidator checks a move request against a game and asks the rules
// engine for the resulting position. It never writes.
type MoveValidator struct {
	engine rules.Engine
}

func NewMoveValidator(engine rules.Engine) MoveValidator { return MoveValidator{engine: engine} }

// Precheck runs the state preconditions in order: participant, status, turn.
func (v MoveValidator) Precheck(g *Game, requester string) (Color, error) {
	c, ok := g.PlayerColor(requester)
	if !ok {
		return "", ErrUnauthorized
	}
	if err := requireActive(g); err != nil {
		return "", err
	}
	if g.Turn != c {
		return "", ErrOutOfTurn
	}
	return c, nil
}

// Evaluate asks the engine whether move is legal in g's current position.
func (v MoveValidator) Evaluate(g *Game, move string) (rules.Applied, error) {
	applied, err := v.engine.Apply(rules.Position{StartFEN: g.StartFEN, Moves: g.MovesUCI}, move)
	if err != nil {
		if errors.Is(err, rules.ErrIllegalMove) {
			return rules.Applied{}, fmt.Errorf("%w: %s", ErrIllegalMove, move)
		}
		return rules.Applied{}, fmt.Errorf("rules engine: %w", err)
	}
	return applied, nil
}

// ApplyMove is Precheck followed by Evaluate, without any clock handling.
func (v MoveValidator) ApplyMove(g *Game, move, requester string) (rules.Applied, error) {
	if _, err := v.Precheck(g, requester); err != nil {
		return rules.Applied{}, err
	}
	return v.Evaluate(g, move)
}

// place records an accepted move on g.
func place(g *Game, applied rules.Applied) {
	g.FEN = applied.FEN
	g.Turn = applied.SideToMove
	g.MovesUCI = append(g.MovesUCI, applied.UCI)
	g.MovesSAN = append(g.MovesSAN, applied.SAN)
	if applied.Opening.Known() {
		o := applied.Opening
		g.Opening = &o
	}
}
