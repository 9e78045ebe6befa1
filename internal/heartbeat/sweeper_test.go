package heartbeat

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/park285/cheese-gamecore/internal/pvpchess"
	"github.com/park285/cheese-gamecore/internal/rules/rulestest"
)

func newManager(t *testing.T, now *atomic.Int64, cfg pvpchess.Config) *pvpchess.Manager {
	t.Helper()
	m, err := pvpchess.NewManager(pvpchess.NewMemoryStore(), rulestest.New(), pvpchess.TimeFunc(now.Load), cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestSweepFlagsExpiredClockAndRates(t *testing.T) {
	var now atomic.Int64
	now.Store(1_000)
	m := newManager(t, &now, pvpchess.Config{})
	ctx := context.Background()

	g, err := m.CreateGame(ctx, pvpchess.CreateRequest{
		Challenger: pvpchess.Player{ID: "w"}, Opponent: pvpchess.Player{ID: "b"},
		Color: "white", TimeControl: "1+0",
	})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if _, err := m.SubmitMove(ctx, g.ID, "w", "e2e4"); err != nil {
		t.Fatalf("white move: %v", err)
	}
	now.Store(2_000)
	if _, err := m.SubmitMove(ctx, g.ID, "b", "e7e5"); err != nil {
		t.Fatalf("black move: %v", err)
	}

	s := New(m, nil, nil, time.Second)
	if rep := s.Sweep(ctx); rep.Finished != 0 || rep.Checked != 1 {
		t.Fatalf("premature finish: %+v", rep)
	}

	now.Store(2_000 + 60_000)
	rep := s.Sweep(ctx)
	if rep.Finished != 1 || rep.Errors != 0 {
		t.Fatalf("expected one timeout, got %+v", rep)
	}
	got, err := m.GetGame(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGame: %v", err)
	}
	if got.Termination == nil || got.Termination.Cause != pvpchess.TimeoutCause(pvpchess.White) || got.Termination.Winner != pvpchess.WinnerBlack {
		t.Fatalf("unexpected termination: %+v", got.Termination)
	}
	if got.Clock.WhiteMs != 0 || !got.RatingsApplied {
		t.Fatalf("expected flagged clock and applied ratings: %+v applied=%v", got.Clock, got.RatingsApplied)
	}

	if rep := s.Sweep(ctx); rep.Checked != 0 || rep.Finalized != 0 {
		t.Fatalf("finished game must leave the sweep indexes: %+v", rep)
	}
}

func TestSweepAbandonsIdleUnstartedGame(t *testing.T) {
	var now atomic.Int64
	now.Store(10_000)
	m := newManager(t, &now, pvpchess.Config{AbandonAfter: time.Minute})
	ctx := context.Background()

	g, err := m.CreateGame(ctx, pvpchess.CreateRequest{
		Challenger: pvpchess.Player{ID: "w"}, Opponent: pvpchess.Player{ID: "b"},
		Color: "white", TimeControl: "5+0",
	})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	s := New(m, nil, nil, time.Second)
	now.Store(10_000 + 59_999)
	if rep := s.Sweep(ctx); rep.Finished != 0 {
		t.Fatalf("abandoned too early: %+v", rep)
	}
	now.Store(10_000 + 60_000)
	if rep := s.Sweep(ctx); rep.Finished != 1 {
		t.Fatalf("expected abandonment: %+v", rep)
	}
	got, _ := m.GetGame(ctx, g.ID)
	if got.Termination.Cause != pvpchess.CauseAbandoned || got.Termination.Winner != pvpchess.WinnerNone {
		t.Fatalf("unexpected termination: %+v", got.Termination)
	}
	if !got.RatingsApplied {
		t.Fatalf("unrated abandonment must still flip ratings_applied")
	}
	if _, err := m.Rating(ctx, "w"); !errors.Is(err, pvpchess.ErrNotFound) {
		t.Fatalf("unrated game must not create rating records, got %v", err)
	}
}

type fakeSessions struct {
	mu        sync.Mutex
	active    []string
	pending   []string
	checkErr  map[string]error
	finalErr  map[string]error
	forgotten []string
}

func (f *fakeSessions) ActiveIDs(context.Context) ([]string, error)        { return f.active, nil }
func (f *fakeSessions) PendingRatingIDs(context.Context) ([]string, error) { return f.pending, nil }

func (f *fakeSessions) CheckTimeout(_ context.Context, id string) (*pvpchess.TimeoutResult, error) {
	if err := f.checkErr[id]; err != nil {
		return nil, err
	}
	return &pvpchess.TimeoutResult{}, nil
}

func (f *fakeSessions) FinalizeRatings(_ context.Context, id string) (*pvpchess.RatingOutcome, error) {
	if err := f.finalErr[id]; err != nil {
		return nil, err
	}
	return &pvpchess.RatingOutcome{GameID: id, Rated: true}, nil
}

func (f *fakeSessions) Forget(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, id)
	return nil
}

type sweepCounter struct {
	calls atomic.Int32
	errs  atomic.Int32
}

func (c *sweepCounter) RecordSweep(_ time.Duration, err error) {
	c.calls.Add(1)
	if err != nil {
		c.errs.Add(1)
	}
}

func TestSweepClassifiesErrors(t *testing.T) {
	f := &fakeSessions{
		active:  []string{"gone", "raced", "broken", "ok"},
		pending: []string{"gone2", "p1"},
		checkErr: map[string]error{
			"gone":   &pvpchess.GameError{Kind: pvpchess.ErrNotFound, GameID: "gone"},
			"raced":  &pvpchess.GameError{Kind: pvpchess.ErrAlreadyFinished, GameID: "raced"},
			"broken": errors.New("redis down"),
		},
		finalErr: map[string]error{
			"gone2": &pvpchess.GameError{Kind: pvpchess.ErrNotFound, GameID: "gone2"},
		},
	}
	rec := &sweepCounter{}
	rep := New(f, nil, rec, time.Second).Sweep(context.Background())

	if rep.Checked != 4 || rep.Errors != 1 || rep.Forgotten != 2 || rep.Finalized != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(f.forgotten) != 2 || f.forgotten[0] != "gone" || f.forgotten[1] != "gone2" {
		t.Fatalf("unexpected forgotten ids: %v", f.forgotten)
	}
	if rec.calls.Load() != 1 || rec.errs.Load() != 1 {
		t.Fatalf("sweep not recorded: calls=%d errs=%d", rec.calls.Load(), rec.errs.Load())
	}
}

func TestStartStop(t *testing.T) {
	f := &fakeSessions{}
	rec := &sweepCounter{}
	s := New(f, nil, rec, 5*time.Millisecond)
	s.Start(context.Background())
	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for rec.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()
	s.Stop()
	if rec.calls.Load() == 0 {
		t.Fatalf("expected at least one sweep")
	}
}
