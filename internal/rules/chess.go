package rules

import (
	"fmt"
	"strings"
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/park285/cheese-gamecore/internal/side"
)

// ecoBook is parsed once on first use.
var ecoBook = sync.OnceValue(opening.NewBookECO)

// ChessEngine adapts github.com/corentings/chess to the Engine contract.
type ChessEngine struct{}

func NewChessEngine() *ChessEngine { return &ChessEngine{} }

func (ChessEngine) SideToMove(startFEN string) (side.Color, error) {
	game, err := newGame(startFEN)
	if err != nil {
		return "", err
	}
	return colorFrom(game.Position().Turn()), nil
}

// Apply replays the stored moves and plays move, UCI first with SAN as fallback.
func (ChessEngine) Apply(pos Position, move string) (Applied, error) {
	game, err := reconstruct(pos)
	if err != nil {
		return Applied{}, err
	}
	before := game.Position()
	raw := strings.TrimSpace(move)

	mv, derr := nchess.UCINotation{}.Decode(before, strings.ToLower(raw))
	if derr != nil {
		mv, derr = nchess.AlgebraicNotation{}.Decode(before, raw)
		if derr != nil {
			return Applied{}, ErrIllegalMove
		}
	}
	if err := game.Move(mv, nil); err != nil {
		return Applied{}, ErrIllegalMove
	}

	after := game.Position()
	last := lastMove(game)
	if last == nil {
		return Applied{}, ErrIllegalMove
	}
	return Applied{
		FEN:          game.FEN(),
		UCI:          strings.ToLower(nchess.UCINotation{}.Encode(before, last)),
		SAN:          nchess.AlgebraicNotation{}.Encode(before, last),
		SideToMove:   colorFrom(after.Turn()),
		LegalReplies: len(after.ValidMoves()),
		InCheck:      last.HasTag(nchess.Check) || game.Method() == nchess.Checkmate,
		Opening:      classify(pos.StartFEN, game),
	}, nil
}

// classify names the opening for games played from the standard position.
func classify(startFEN string, game *nchess.Game) Opening {
	fen := strings.TrimSpace(startFEN)
	if fen != "" && fen != "startpos" && fen != StandardFEN {
		return Opening{}
	}
	book := ecoBook()
	if book == nil {
		return Opening{}
	}
	if eco := book.Find(game.Moves()); eco != nil {
		return Opening{ECO: eco.Code(), Name: eco.Title()}
	}
	return Opening{}
}

func newGame(startFEN string) (*nchess.Game, error) {
	fen := strings.TrimSpace(startFEN)
	if fen == "" || fen == "startpos" || fen == StandardFEN {
		return nchess.NewGame(), nil
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPosition, err)
	}
	return nchess.NewGame(opt), nil
}

// reconstruct always rebuilds from the start position; the stored FEN is kept
// for presentation only.
func reconstruct(pos Position) (*nchess.Game, error) {
	game, err := newGame(pos.StartFEN)
	if err != nil {
		return nil, err
	}
	for _, mv := range pos.Moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("%w: replay %s: %v", ErrBadPosition, mv, err)
		}
	}
	return game, nil
}

func lastMove(game *nchess.Game) *nchess.Move {
	moves := game.Moves()
	if len(moves) == 0 {
		return nil
	}
	return moves[len(moves)-1]
}

func colorFrom(c nchess.Color) side.Color {
	if c == nchess.White {
		return side.White
	}
	return side.Black
}
