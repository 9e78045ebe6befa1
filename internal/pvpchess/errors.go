package pvpchess

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrValidation      = errf("malformed move")
	ErrNotFound        = errf("not found")
	ErrUnauthorized    = errf("not a participant")
	ErrOutOfTurn       = errf("not your turn")
	ErrIllegalMove     = errf("illegal move")
	ErrAlreadyFinished = errf("game already finished")
	ErrNotActive       = errf("game not active")
	ErrNotFinished     = errf("game not finished")
	ErrNoDrawOffer     = errf("no pending draw offer")
	ErrConflict        = errf("concurrent update, retry later")
	ErrInvalidArgs     = errf("invalid arguments")
	ErrInvariant       = errf("session invariant violated")
)

// errNoop aborts a store update without writing.
var errNoop = errf("noop")

type staticErr string

func (e staticErr) Error() string { return string(e) }
func errf(s string) error         { return staticErr(s) }

var kinds = []error{
	ErrValidation, ErrNotFound, ErrUnauthorized, ErrOutOfTurn, ErrIllegalMove,
	ErrAlreadyFinished, ErrNotActive, ErrNotFinished, ErrNoDrawOffer, ErrConflict, ErrInvalidArgs,
	ErrInvariant,
}

// GameError carries the game and requester behind a rejected operation.
type GameError struct {
	Kind     error
	GameID   string
	PlayerID string
	Detail   string
}

func (e *GameError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.GameID != "" {
		msg = fmt.Sprintf("%s (game=%s", msg, e.GameID)
		if e.PlayerID != "" {
			msg += " player=" + e.PlayerID
		}
		msg += ")"
	}
	return msg
}

func (e *GameError) Unwrap() error { return e.Kind }

// KindOf returns the sentinel behind err, or nil for infrastructure failures.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// wrap attaches game context to domain failures and passes infrastructure
// errors through with the operation name.
func wrap(op string, err error, gameID, playerID string) error {
	if err == nil {
		return nil
	}
	var ge *GameError
	if errors.As(err, &ge) {
		return err
	}
	kind := KindOf(err)
	if kind == nil {
		return fmt.Errorf("pvp %s %s: %w", op, gameID, err)
	}
	detail := ""
	if err != kind {
		detail = err.Error()
	}
	return &GameError{Kind: kind, GameID: gameID, PlayerID: playerID, Detail: detail}
}

// Code returns the stable snake_case code of err for transports and logs.
func Code(err error) string {
	switch KindOf(err) {
	case ErrValidation:
		return "validation"
	case ErrNotFound:
		return "not_found"
	case ErrUnauthorized:
		return "unauthorized"
	case ErrOutOfTurn:
		return "out_of_turn"
	case ErrIllegalMove:
		return "illegal_move"
	case ErrAlreadyFinished:
		return "already_finished"
	case ErrNotActive:
		return "not_active"
	case ErrNotFinished:
		return "not_finished"
	case ErrNoDrawOffer:
		return "no_draw_offer"
	case ErrConflict:
		return "conflict"
	case ErrInvalidArgs:
		return "invalid_args"
	case ErrInvariant:
		return "invariant_violation"
	default:
		return "internal"
	}
}
