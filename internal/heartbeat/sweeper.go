// Package heartbeat polls live sessions so idle clocks still flag and
// finished games still get rated when no player action arrives.
package heartbeat

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-gamecore/internal/pvpchess"
)

const defaultInterval = time.Second

// Sessions is the part of the session manager the sweeper drives.
type Sessions interface {
	ActiveIDs(ctx context.Context) ([]string, error)
	PendingRatingIDs(ctx context.Context) ([]string, error)
	CheckTimeout(ctx context.Context, gameID string) (*pvpchess.TimeoutResult, error)
	FinalizeRatings(ctx context.Context, gameID string) (*pvpchess.RatingOutcome, error)
	Forget(ctx context.Context, gameID string) error
}

// Recorder receives sweep timings. *metrics.Recorder satisfies it.
type Recorder interface {
	RecordSweep(duration time.Duration, err error)
}

// Report summarizes one sweep.
type Report struct {
	Checked   int
	Finished  int
	Finalized int
	Forgotten int
	Errors    int
}

// Sweeper runs Sweep on a ticker until stopped.
type Sweeper struct {
	sessions Sessions
	logger   *zap.Logger
	metrics  Recorder
	interval time.Duration

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool
	wg       sync.WaitGroup
}

func New(sessions Sessions, logger *zap.Logger, rec Recorder, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		sessions: sessions,
		logger:   logger,
		metrics:  rec,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins sweeping until the context is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	s.startMu.Lock()
	if s.started {
		s.startMu.Unlock()
		return
	}
	s.started = true
	s.startMu.Unlock()

	s.ticker = time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.ticker.Stop()
		s.logger.Info("heartbeat_started", zap.Duration("interval", s.interval))
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("heartbeat_stopped")
				return
			case <-s.done:
				s.logger.Info("heartbeat_stopped")
				return
			case <-s.ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

// Sweep checks every active session for a timeout or abandonment, then
// retries rating finalization for finished games still pending.
func (s *Sweeper) Sweep(ctx context.Context) Report {
	start := time.Now()
	var rep Report
	var firstErr error
	fail := func(err error) {
		rep.Errors++
		if firstErr == nil {
			firstErr = err
		}
	}

	active, err := s.sessions.ActiveIDs(ctx)
	if err != nil {
		s.logger.Error("heartbeat_list_active_error", zap.Error(err))
		fail(err)
	}
	for _, id := range active {
		if ctx.Err() != nil {
			break
		}
		rep.Checked++
		res, err := s.sessions.CheckTimeout(ctx, id)
		switch {
		case err == nil:
			if res.Outcome != nil {
				rep.Finished++
				s.logger.Info("pvp_timeout",
					zap.String("game_id", id),
					zap.String("cause", string(res.Outcome.Cause())),
					zap.String("winner", string(res.Outcome.Result())),
				)
			}
		case errors.Is(err, pvpchess.ErrNotFound):
			s.forget(ctx, id, &rep)
		case errors.Is(err, pvpchess.ErrAlreadyFinished), errors.Is(err, pvpchess.ErrNotActive):
			// a concurrent action got there first
		default:
			s.logger.Warn("heartbeat_check_error", zap.String("game_id", id), zap.Error(err))
			fail(err)
		}
	}

	pending, err := s.sessions.PendingRatingIDs(ctx)
	if err != nil {
		s.logger.Error("heartbeat_list_pending_error", zap.Error(err))
		fail(err)
	}
	for _, id := range pending {
		if ctx.Err() != nil {
			break
		}
		ro, err := s.sessions.FinalizeRatings(ctx, id)
		switch {
		case err == nil:
			if !ro.AlreadyUpdated {
				rep.Finalized++
			}
		case errors.Is(err, pvpchess.ErrNotFound):
			s.forget(ctx, id, &rep)
		default:
			s.logger.Warn("heartbeat_finalize_error", zap.String("game_id", id), zap.Error(err))
			fail(err)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordSweep(time.Since(start), firstErr)
	}
	if rep.Finished > 0 || rep.Finalized > 0 || rep.Errors > 0 {
		s.logger.Info("heartbeat_sweep",
			zap.Int("checked", rep.Checked),
			zap.Int("finished", rep.Finished),
			zap.Int("finalized", rep.Finalized),
			zap.Int("errors", rep.Errors),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
	return rep
}

func (s *Sweeper) forget(ctx context.Context, id string, rep *Report) {
	if err := s.sessions.Forget(ctx, id); err != nil {
		s.logger.Warn("heartbeat_forget_error", zap.String("game_id", id), zap.Error(err))
		return
	}
	rep.Forgotten++
}
