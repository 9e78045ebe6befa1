// Package rulestest provides a scripted rules engine for session tests.
package rulestest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/park285/cheese-gamecore/internal/rules"
	"github.com/park285/cheese-gamecore/internal/side"
)

// Outcome scripts the facts reported after a specific move.
type Outcome struct {
	LegalReplies int
	InCheck      bool
	Opening      rules.Opening
}

// Engine accepts every well-formed move except those marked illegal and
// reports scripted facts for chosen moves. Unscripted moves leave the
// opponent with plenty of replies.
type Engine struct {
	mu       sync.Mutex
	First    side.Color
	illegal  map[string]bool
	scripted map[string]Outcome
	keepTurn bool
	calls    int
}

func New() *Engine {
	return &Engine{First: side.White, illegal: map[string]bool{}, scripted: map[string]Outcome{}}
}

// Illegal marks move text the engine must reject.
func (e *Engine) Illegal(moves ...string) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, m := range moves {
		e.illegal[strings.ToLower(m)] = true
	}
	return e
}

// Script sets the facts reported after move.
func (e *Engine) Script(move string, o Outcome) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripted[strings.ToLower(move)] = o
	return e
}

// KeepTurn makes the engine report the mover as still on move, as a faulty
// rules collaborator would.
func (e *Engine) KeepTurn() *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keepTurn = true
	return e
}

// Calls returns how many times Apply was invoked.
func (e *Engine) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *Engine) SideToMove(startFEN string) (side.Color, error) {
	if strings.TrimSpace(startFEN) == "bad" {
		return "", rules.ErrBadPosition
	}
	if strings.Contains(startFEN, " b ") {
		return side.Black, nil
	}
	return e.First, nil
}

func (e *Engine) Apply(pos rules.Position, move string) (rules.Applied, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	key := strings.ToLower(strings.TrimSpace(move))
	if e.illegal[key] {
		return rules.Applied{}, rules.ErrIllegalMove
	}
	first := e.First
	if strings.Contains(pos.StartFEN, " b ") {
		first = side.Black
	}
	ply := len(pos.Moves) + 1
	next := first
	if ply%2 == 1 {
		next = first.Opponent()
	}
	if e.keepTurn {
		next = next.Opponent()
	}
	out, ok := e.scripted[key]
	if !ok {
		out = Outcome{LegalReplies: 20}
	}
	return rules.Applied{
		FEN:          fmt.Sprintf("scripted-%d", ply),
		UCI:          key,
		SAN:          strings.TrimSpace(move),
		SideToMove:   next,
		LegalReplies: out.LegalReplies,
		InCheck:      out.InCheck,
		Opening:      out.Opening,
	}, nil
}
