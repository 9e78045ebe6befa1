// Package clock holds the server-authoritative dual countdown clock.
//
// Every function here is pure: callers pass the current time in unix
// milliseconds and persist the returned State themselves. No goroutine
// ever runs a countdown; clocks are evaluated lazily when a move arrives
// or when the heartbeat polls a session.
package clock

import (
	"github.com/park285/cheese-gamecore/internal/side"
)

// Policy is the time-control mode of a session.
type Policy string

const (
	PolicyNone      Policy = "none"
	PolicyFixed     Policy = "fixed"
	PolicyIncrement Policy = "increment"
)

// Unbounded is the remaining time stored for untimed games. It is the
// largest integer a JSON consumer can represent exactly.
const Unbounded int64 = 1<<53 - 1

// NotStarted is the LastMoveAt sentinel for a clock waiting on the first mover.
const NotStarted int64 = 0

// Control is a parsed time control.
type Control struct {
	Policy      Policy `json:"policy"`
	BaseMs      int64  `json:"base_ms"`
	IncrementMs int64  `json:"increment_ms"`
}

// Timed reports whether the control enforces a clock at all.
func (c Control) Timed() bool { return c.Policy == PolicyFixed || c.Policy == PolicyIncrement }

// State is the persisted clock of one session.
type State struct {
	WhiteMs     int64  `json:"white_ms"`
	BlackMs     int64  `json:"black_ms"`
	LastMoveAt  int64  `json:"last_move_at"`
	Policy      Policy `json:"policy"`
	BaseMs      int64  `json:"base_ms"`
	IncrementMs int64  `json:"increment_ms"`
}

// Running reports whether time is currently being charged to the side to move.
func (s State) Running() bool {
	return s.Policy != PolicyNone && s.Policy != "" && s.LastMoveAt != NotStarted
}

// Remaining returns the stored remaining time for c.
func (s State) Remaining(c side.Color) int64 {
	if c == side.Black {
		return s.BlackMs
	}
	return s.WhiteMs
}

func (s *State) setRemaining(c side.Color, ms int64) {
	if c == side.Black {
		s.BlackMs = ms
		return
	}
	s.WhiteMs = ms
}

// Tick is the result of charging a submitted move to the mover's clock.
type Tick struct {
	State         State
	TimedOut      bool
	TimeoutWinner side.Color
}

// Initialize builds the starting clock. Timed clocks stay at NotStarted until
// the first mover moves; untimed clocks are stamped immediately.
func Initialize(ctl Control, now int64) State {
	if !ctl.Timed() {
		return State{
			WhiteMs:    Unbounded,
			BlackMs:    Unbounded,
			LastMoveAt: now,
			Policy:     PolicyNone,
		}
	}
	return State{
		WhiteMs:     ctl.BaseMs,
		BlackMs:     ctl.BaseMs,
		LastMoveAt:  NotStarted,
		Policy:      ctl.Policy,
		BaseMs:      ctl.BaseMs,
		IncrementMs: ctl.IncrementMs,
	}
}

// Elapsed is the non-negative time since the last clock stamp.
func Elapsed(s State, now int64) int64 {
	d := now - s.LastMoveAt
	if d < 0 {
		return 0
	}
	return d
}

// OnMoveSubmitted charges the mover for the time spent since the last stamp.
// firstMover is the side that moves first from the session's start position;
// its opening move starts the clock without any deduction.
func OnMoveSubmitted(s State, mover, firstMover side.Color, now int64) Tick {
	if s.Policy == PolicyNone || s.Policy == "" {
		s.LastMoveAt = now
		return Tick{State: s}
	}
	if s.LastMoveAt == NotStarted && mover == firstMover {
		s.LastMoveAt = now
		return Tick{State: s}
	}

	candidate := s.Remaining(mover) - Elapsed(s, now)
	if candidate <= 0 {
		s.setRemaining(mover, 0)
		return Tick{State: s, TimedOut: true, TimeoutWinner: mover.Opponent()}
	}
	if s.Policy == PolicyIncrement {
		candidate += s.IncrementMs
	}
	s.setRemaining(mover, candidate)
	s.LastMoveAt = now
	return Tick{State: s}
}

// CheckTimeout is the read-only variant used by the heartbeat. It returns the
// winning color when sideToMove has run out of time.
func CheckTimeout(s State, sideToMove side.Color, now int64) (side.Color, bool) {
	if !s.Running() {
		return "", false
	}
	if s.Remaining(sideToMove)-Elapsed(s, now) <= 0 {
		return sideToMove.Opponent(), true
	}
	return "", false
}

// Flag clamps the flagged side to zero, as stored after a heartbeat timeout.
func Flag(s State, flagged side.Color) State {
	s.setRemaining(flagged, 0)
	return s
}

// Snapshot returns the remaining times as a display would show them at now,
// charging the running side without mutating the stored state.
func Snapshot(s State, sideToMove side.Color, now int64) (white, black int64) {
	white, black = s.WhiteMs, s.BlackMs
	if !s.Running() {
		return white, black
	}
	left := s.Remaining(sideToMove) - Elapsed(s, now)
	if left < 0 {
		left = 0
	}
	if sideToMove == side.Black {
		return white, left
	}
	return left, black
}
