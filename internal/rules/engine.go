// Package rules is the boundary to the chess rules engine. The session core
// never inspects a board itself; it asks an Engine whether a move is legal and
// what the resulting position looks like.
package rules

import (
	"errors"
	"regexp"
	"strings"

	"github.com/park285/cheese-gamecore/internal/side"
)

// StandardFEN is the initial chess position.
const StandardFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrSyntax      = errors.New("malformed move text")
	ErrIllegalMove = errors.New("illegal move")
	ErrBadPosition = errors.New("invalid position")
)

// Position identifies a game state by its start position and the UCI moves
// played from it.
type Position struct {
	StartFEN string
	Moves    []string
}

// Applied describes the position after one accepted move together with the
// facts needed to detect the end of the game.
type Applied struct {
	FEN          string
	UCI          string
	SAN          string
	SideToMove   side.Color
	LegalReplies int
	InCheck      bool
	// Opening is the deepest named opening the move sequence has reached,
	// when the engine keeps an opening book.
	Opening Opening
}

// Opening is an ECO classification.
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

func (o Opening) Known() bool { return o.ECO != "" }

// Engine is implemented by the rules collaborator.
type Engine interface {
	// SideToMove validates a start position and returns who moves first.
	SideToMove(startFEN string) (side.Color, error)
	// Apply plays move on pos. It returns ErrIllegalMove when the rules reject it.
	Apply(pos Position, move string) (Applied, error)
}

var (
	uciPattern = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)
	sanPattern = regexp.MustCompile(`^(?:O-O(?:-O)?|0-0(?:-0)?|[KQRBN]?[a-h]?[1-8]?x?[a-h][1-8](?:=?[QRBN])?)[+#]?[!?]{0,2}$`)
)

// NormalizeMove trims the move text and rejects anything that is neither
// UCI nor SAN shaped. It never looks at a position.
func NormalizeMove(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" || len(v) > 10 {
		return "", ErrSyntax
	}
	if uciPattern.MatchString(strings.ToLower(v)) {
		return strings.ToLower(v), nil
	}
	if sanPattern.MatchString(v) {
		return v, nil
	}
	return "", ErrSyntax
}
