package pvpchess

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/cheese-gamecore/internal/clock"
	"github.com/park285/cheese-gamecore/internal/obslog"
	"github.com/park285/cheese-gamecore/internal/rating"
	"github.com/park285/cheese-gamecore/internal/rules"
)

// Config tunes optional session behavior. Zero durations disable the feature.
type Config struct {
	DrawOfferTTL  time.Duration
	AbandonAfter  time.Duration
	DefaultRating int
}

// Archiver stores finished games once their ratings are settled.
type Archiver interface {
	SaveResult(ctx context.Context, g *Game, ratings *RatingOutcome) error
}

// Observer receives session events for metrics.
type Observer interface {
	MoveAccepted()
	OperationRejected(op, code string)
	GameFinished(cause Cause)
	RatingsFinalized(applied bool)
}

type nopObserver struct{}

func (nopObserver) MoveAccepted()                 {}
func (nopObserver) OperationRejected(_, _ string) {}
func (nopObserver) GameFinished(Cause)            {}
func (nopObserver) RatingsFinalized(bool)         {}

// Manager runs every session operation through the store's linearized update.
type Manager struct {
	store     Store
	engine    rules.Engine
	validator MoveValidator
	clock     TimeSource
	cfg       Config
	repo      Archiver
	obs       Observer
}

func NewManager(store Store, engine rules.Engine, ts TimeSource, cfg Config) (*Manager, error) {
	if store == nil || engine == nil {
		return nil, fmt.Errorf("pvp manager requires a store and a rules engine")
	}
	if ts == nil {
		ts = LocalTime{}
	}
	if cfg.DefaultRating <= 0 {
		cfg.DefaultRating = rating.DefaultRating
	}
	return &Manager{
		store:     store,
		engine:    engine,
		validator: NewMoveValidator(engine),
		clock:     ts,
		cfg:       cfg,
		obs:       nopObserver{},
	}, nil
}

func (m *Manager) Close() error {
	if m == nil || m.store == nil {
		return nil
	}
	return m.store.Close()
}

// AttachRepository wires a database repository for persisting PvP results.
func (m *Manager) AttachRepository(r Archiver) {
	if m != nil {
		m.repo = r
	}
}

func (m *Manager) AttachObserver(o Observer) {
	if m != nil && o != nil {
		m.obs = o
	}
}

// CreateRequest describes a pairing. Color is the challenger's choice:
// white, black or random.
type CreateRequest struct {
	Challenger  Player
	Opponent    Player
	Color       string
	TimeControl string
	StartFEN    string
	Waiting     bool
}

// CreateGame seats both players and starts the session. The clock stays
// unstarted until the first mover moves.
func (m *Manager) CreateGame(ctx context.Context, req CreateRequest) (*Game, error) {
	ch := Player{ID: strings.TrimSpace(req.Challenger.ID), Name: strings.TrimSpace(req.Challenger.Name)}
	op := Player{ID: strings.TrimSpace(req.Opponent.ID), Name: strings.TrimSpace(req.Opponent.Name)}
	if ch.ID == "" || op.ID == "" || ch.ID == op.ID {
		return nil, m.reject("create", fmt.Errorf("%w: participants", ErrInvalidArgs), "", ch.ID)
	}
	ctl, err := clock.ParseTimeControl(req.TimeControl)
	if err != nil {
		return nil, m.reject("create", fmt.Errorf("%w: %v", ErrInvalidArgs, err), "", ch.ID)
	}
	startFEN := strings.TrimSpace(req.StartFEN)
	if startFEN == "" || startFEN == "startpos" {
		startFEN = rules.StandardFEN
	}
	first, err := m.engine.SideToMove(startFEN)
	if err != nil {
		return nil, m.reject("create", fmt.Errorf("%w: %v", ErrInvalidArgs, err), "", ch.ID)
	}
	now, err := m.now(ctx)
	if err != nil {
		return nil, err
	}

	white, black := assignColors(ch, op, req.Color)
	st := clock.Initialize(ctl, now)
	g := &Game{
		ID:         uuid.NewString(),
		StartFEN:   startFEN,
		FEN:        startFEN,
		Turn:       first,
		FirstMover: first,
		MovesUCI:   []string{},
		MovesSAN:   []string{},
		White:      white,
		Black:      black,
		Status:     StatusActive,
		Clock:      &st,
		CreatedAt:  msTime(now),
		UpdatedAt:  msTime(now),
	}
	if ctl.Timed() {
		g.TimeControl = ctl.String()
	}
	if req.Waiting {
		g.Status = StatusWaiting
	}
	if err := m.store.Create(ctx, g); err != nil {
		return nil, m.reject("create", err, g.ID, ch.ID)
	}
	obslog.L().Info("pvp_game_create",
		zap.String("game_id", g.ID),
		zap.String("white_id", g.White.ID),
		zap.String("black_id", g.Black.ID),
		zap.String("time_control", ctl.String()),
		zap.String("status", string(g.Status)),
	)
	return g, nil
}

func assignColors(challenger, opponent Player, choice string) (white, black Player) {
	switch strings.ToLower(strings.TrimSpace(choice)) {
	case "white", "w":
		return challenger, opponent
	case "black", "b":
		return opponent, challenger
	default:
		if n, _ := rand.Int(rand.Reader, big.NewInt(2)); n != nil && n.Int64() == 0 {
			return opponent, challenger
		}
		return challenger, opponent
	}
}

// Activate moves a waiting session to active. Active sessions are returned unchanged.
func (m *Manager) Activate(ctx context.Context, gameID string) (*Game, error) {
	now, err := m.now(ctx)
	if err != nil {
		return nil, err
	}
	g, err := m.store.Update(ctx, gameID, func(g *Game) error {
		switch g.Status {
		case StatusFinished:
			return ErrAlreadyFinished
		case StatusActive:
			return errNoop
		}
		g.Status = StatusActive
		if g.Clock != nil && !g.Clock.Running() && g.Clock.Policy == clock.PolicyNone {
			g.Clock.LastMoveAt = now
		}
		g.UpdatedAt = msTime(now)
		return nil
	})
	if err != nil {
		return nil, m.reject("activate", err, gameID, "")
	}
	obslog.L().Info("pvp_game_activate", zap.String("game_id", g.ID))
	return g, nil
}

// MoveResult reports an accepted move or a timeout. Outcome is set when the
// submission ended the game; a timeout carries no move.
type MoveResult struct {
	Game       *Game
	UCI        string
	SAN        string
	FEN        string
	SideToMove Color
	Outcome    Outcome
	Ratings    *RatingOutcome
}

// SubmitMove validates and applies a move for playerID. The mover's clock is
// charged before legality is evaluated, so a move arriving after the flag
// falls ends the game on time even when it is legal.
func (m *Manager) SubmitMove(ctx context.Context, gameID, playerID, moveText string) (*MoveResult, error) {
	move, err := rules.NormalizeMove(moveText)
	if err != nil {
		return nil, m.reject("move", fmt.Errorf("%w: %q", ErrValidation, moveText), gameID, playerID)
	}
	now, err := m.now(ctx)
	if err != nil {
		return nil, err
	}
	ttl := m.cfg.DrawOfferTTL.Milliseconds()

	var res MoveResult
	g, err := m.store.Update(ctx, gameID, func(g *Game) error {
		res = MoveResult{}
		mover, err := m.validator.Precheck(g, playerID)
		if err != nil {
			return err
		}
		tick := clock.OnMoveSubmitted(g.ClockState(), mover, g.FirstMover, now)
		if tick.TimedOut {
			g.Clock = &tick.State
			out := Timeout{Winner: tick.TimeoutWinner, Flagged: mover}
			finish(g, out, now)
			res.Outcome = out
			return nil
		}
		applied, err := m.validator.Evaluate(g, move)
		if err != nil {
			return err
		}
		place(g, applied)
		g.Clock = &tick.State
		pruneOffer(g, now, ttl)
		g.UpdatedAt = msTime(now)
		res.UCI, res.SAN = applied.UCI, applied.SAN
		if out := AfterMove(applied, mover); out != nil {
			finish(g, out, now)
			res.Outcome = out
		}
		return nil
	})
	if err != nil {
		return nil, m.reject("move", err, gameID, playerID)
	}
	res.Game, res.FEN, res.SideToMove = g, g.FEN, g.Turn

	if res.UCI != "" {
		m.obs.MoveAccepted()
		obslog.L().Info("pvp_move",
			zap.String("game_id", g.ID),
			zap.String("player_id", playerID),
			zap.String("last_uci", res.UCI),
			zap.String("turn", string(g.Turn)),
			zap.String("status", string(g.Status)),
		)
	}
	if res.Outcome != nil {
		res.Ratings = m.onFinished(ctx, g, res.Outcome)
	}
	return &res, nil
}

// TimeoutResult is the heartbeat view of one session. Outcome is also set
// when an idle session was ended as abandoned.
type TimeoutResult struct {
	TimedOut bool
	Winner   Color
	Outcome  Outcome
	Game     *Game
	Ratings  *RatingOutcome
}

// CheckTimeout flags the side to move when its time has run out and ends
// idle sessions when abandonment is enabled. It never charges a clock that
// has not started.
func (m *Manager) CheckTimeout(ctx context.Context, gameID string) (*TimeoutResult, error) {
	now, err := m.now(ctx)
	if err != nil {
		return nil, err
	}
	var res TimeoutResult
	g, err := m.store.Update(ctx, gameID, func(g *Game) error {
		res = TimeoutResult{}
		if err := requireActive(g); err != nil {
			return err
		}
		if winner, out := clock.CheckTimeout(g.ClockState(), g.Turn, now); out {
			st := clock.Flag(g.ClockState(), g.Turn)
			g.Clock = &st
			o := Timeout{Winner: winner, Flagged: g.Turn}
			finish(g, o, now)
			res.TimedOut, res.Winner, res.Outcome = true, winner, o
			return nil
		}
		if o, ok := m.abandoned(g, now); ok {
			finish(g, o, now)
			res.Winner, res.Outcome = o.Winner, o
			return nil
		}
		return errNoop
	})
	if err != nil {
		return nil, m.reject("timeout", err, gameID, "")
	}
	res.Game = g
	if res.Outcome != nil {
		res.Ratings = m.onFinished(ctx, g, res.Outcome)
	}
	return &res, nil
}

// abandoned reports whether an idle session without a running clock should
// end. With no moves played nobody wins and the game stays unrated.
func (m *Manager) abandoned(g *Game, now int64) (Abandoned, bool) {
	if m.cfg.AbandonAfter <= 0 || g.ClockState().Running() {
		return Abandoned{}, false
	}
	if now-g.UpdatedAt.UnixMilli() < m.cfg.AbandonAfter.Milliseconds() {
		return Abandoned{}, false
	}
	if len(g.MovesUCI) == 0 {
		return Abandoned{}, true
	}
	return Abandoned{Winner: g.Turn.Opponent()}, true
}

// ActionResult reports a resign or draw-protocol action.
type ActionResult struct {
	Game    *Game
	Outcome Outcome
	Ratings *RatingOutcome
}

func (m *Manager) Resign(ctx context.Context, gameID, playerID string) (*ActionResult, error) {
	return m.act(ctx, "resign", gameID, playerID, func(g *Game, now int64) (Outcome, error) {
		return resign(g, playerID)
	})
}

// OfferDraw records an offer to the opponent, replacing any earlier one.
func (m *Manager) OfferDraw(ctx context.Context, gameID, playerID string) (*ActionResult, error) {
	return m.act(ctx, "draw_offer", gameID, playerID, func(g *Game, now int64) (Outcome, error) {
		return nil, offerDraw(g, playerID, now)
	})
}

// RespondDraw answers the pending offer. Only the addressee may respond.
func (m *Manager) RespondDraw(ctx context.Context, gameID, playerID string, accept bool) (*ActionResult, error) {
	ttl := m.cfg.DrawOfferTTL.Milliseconds()
	return m.act(ctx, "draw_respond", gameID, playerID, func(g *Game, now int64) (Outcome, error) {
		return respondDraw(g, playerID, accept, now, ttl)
	})
}

// CancelDraw withdraws the caller's own pending offer.
func (m *Manager) CancelDraw(ctx context.Context, gameID, playerID string) (*ActionResult, error) {
	ttl := m.cfg.DrawOfferTTL.Milliseconds()
	return m.act(ctx, "draw_cancel", gameID, playerID, func(g *Game, now int64) (Outcome, error) {
		return nil, cancelDraw(g, playerID, now, ttl)
	})
}

func (m *Manager) act(ctx context.Context, op, gameID, playerID string, fn func(g *Game, now int64) (Outcome, error)) (*ActionResult, error) {
	now, err := m.now(ctx)
	if err != nil {
		return nil, err
	}
	var out Outcome
	g, err := m.store.Update(ctx, gameID, func(g *Game) error {
		o, err := fn(g, now)
		if err != nil {
			return err
		}
		out = o
		if o != nil {
			finish(g, o, now)
		}
		return nil
	})
	if err != nil {
		return nil, m.reject(op, err, gameID, playerID)
	}
	obslog.L().Info("pvp_"+op,
		zap.String("game_id", g.ID),
		zap.String("player_id", playerID),
		zap.String("status", string(g.Status)),
	)
	res := &ActionResult{Game: g, Outcome: out}
	if out != nil {
		res.Ratings = m.onFinished(ctx, g, out)
	}
	return res, nil
}

// RatingChange is one participant's rating movement.
type RatingChange struct {
	PlayerID string `json:"player_id"`
	Before   int    `json:"before"`
	After    int    `json:"after"`
	Delta    int    `json:"delta"`
}

// RatingOutcome reports a finalization. Rated is false for games that ended
// without a result; their flag flips without touching any record.
type RatingOutcome struct {
	GameID         string
	AlreadyUpdated bool
	Rated          bool
	White          RatingChange
	Black          RatingChange
}

// FinalizeRatings applies the Elo update for a finished game exactly once.
// Calling it again returns AlreadyUpdated and leaves every record untouched.
func (m *Manager) FinalizeRatings(ctx context.Context, gameID string) (*RatingOutcome, error) {
	now, err := m.now(ctx)
	if err != nil {
		return nil, err
	}
	var out RatingOutcome
	g, err := m.store.FinalizeRatings(ctx, gameID, func(g *Game, w, b *rating.Record) (*rating.Record, *rating.Record, error) {
		out = RatingOutcome{GameID: gameID}
		if !g.Finished() {
			return nil, nil, ErrNotFinished
		}
		if g.RatingsApplied {
			out.AlreadyUpdated = true
			return nil, nil, errNoop
		}
		g.RatingsApplied = true
		score, rated := g.Termination.WhiteScore()
		if !rated {
			return nil, nil, nil
		}
		if w == nil {
			r := rating.NewRecord(g.White.ID, m.cfg.DefaultRating)
			w = &r
		}
		if b == nil {
			r := rating.NewRecord(g.Black.ID, m.cfg.DefaultRating)
			b = &r
		}
		nw, nb := rating.Apply(*w, *b, score, msTime(now))
		out.Rated = true
		out.White = RatingChange{PlayerID: g.White.ID, Before: w.Rating, After: nw.Rating, Delta: nw.Rating - w.Rating}
		out.Black = RatingChange{PlayerID: g.Black.ID, Before: b.Rating, After: nb.Rating, Delta: nb.Rating - b.Rating}
		return &nw, &nb, nil
	})
	if err != nil {
		return nil, m.reject("finalize", err, gameID, "")
	}
	m.obs.RatingsFinalized(!out.AlreadyUpdated)
	if out.AlreadyUpdated {
		return &out, nil
	}
	obslog.L().Info("pvp_ratings_finalized",
		zap.String("game_id", g.ID),
		zap.Bool("rated", out.Rated),
		zap.Int("white_delta", out.White.Delta),
		zap.Int("black_delta", out.Black.Delta),
	)
	_ = m.persistIfFinal(ctx, g, &out)
	return &out, nil
}

func (m *Manager) onFinished(ctx context.Context, g *Game, o Outcome) *RatingOutcome {
	m.obs.GameFinished(o.Cause())
	obslog.L().Info("pvp_game_finished",
		zap.String("game_id", g.ID),
		zap.String("cause", string(o.Cause())),
		zap.String("winner", string(o.Result())),
	)
	ro, err := m.FinalizeRatings(ctx, g.ID)
	if err != nil {
		// the pending-ratings index keeps the game for the sweeper
		obslog.L().Warn("pvp_ratings_deferred", zap.String("game_id", g.ID), zap.Error(err))
		return nil
	}
	return ro
}

// persistIfFinal saves the final game result to repository if available.
func (m *Manager) persistIfFinal(ctx context.Context, g *Game, ro *RatingOutcome) error {
	if m == nil || m.repo == nil || g == nil || !g.Finished() {
		return nil
	}
	if err := m.repo.SaveResult(ctx, g, ro); err != nil {
		obslog.L().Error("pvp_result_persist_error", zap.String("game_id", g.ID), zap.Error(err))
		return err
	}
	obslog.L().Info("pvp_result_persist", zap.String("game_id", g.ID), zap.String("cause", string(g.Termination.Cause)))
	return nil
}

// GetGame returns the stored game or ErrNotFound.
func (m *Manager) GetGame(ctx context.Context, gameID string) (*Game, error) {
	g, err := m.store.Load(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("pvp load %s: %w", gameID, err)
	}
	if g == nil {
		return nil, wrap("load", ErrNotFound, gameID, "")
	}
	return g, nil
}

// GamesByUser lists the user's stored games, most recently updated first.
func (m *Manager) GamesByUser(ctx context.Context, userID string) ([]*Game, error) {
	ids, err := m.store.GameIDsByUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, err
	}
	var list []*Game
	for _, id := range ids {
		g, gerr := m.store.Load(ctx, id)
		if gerr == nil && g != nil {
			list = append(list, g)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt.After(list[j].UpdatedAt) })
	return list, nil
}

// ActiveGameByUser returns the latest active game for a user, or nil.
func (m *Manager) ActiveGameByUser(ctx context.Context, userID string) (*Game, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	list, err := m.GamesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, g := range list {
		if g.Status == StatusActive {
			return g, nil
		}
	}
	return nil, nil
}

// Rating returns the player's record or ErrNotFound.
func (m *Manager) Rating(ctx context.Context, playerID string) (*rating.Record, error) {
	r, err := m.store.Rating(ctx, strings.TrimSpace(playerID))
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &GameError{Kind: ErrNotFound, PlayerID: playerID, Detail: "rating record"}
	}
	return r, nil
}

// PGN exports the game in PGN; unfinished games carry the "*" result.
func (m *Manager) PGN(ctx context.Context, gameID string) (string, error) {
	g, err := m.GetGame(ctx, gameID)
	if err != nil {
		return "", err
	}
	return BuildPGN(g), nil
}

// Now exposes the authoritative time base, in unix milliseconds.
func (m *Manager) Now(ctx context.Context) (int64, error) { return m.now(ctx) }

func (m *Manager) ActiveIDs(ctx context.Context) ([]string, error) { return m.store.ActiveIDs(ctx) }

func (m *Manager) PendingRatingIDs(ctx context.Context) ([]string, error) {
	return m.store.PendingRatingIDs(ctx)
}

// Forget drops a vanished game from the sweep indexes.
func (m *Manager) Forget(ctx context.Context, gameID string) error {
	return m.store.Unindex(ctx, gameID)
}

func (m *Manager) now(ctx context.Context) (int64, error) {
	now, err := m.clock.Now(ctx)
	if err != nil {
		obslog.L().Error("pvp_time_source_error", zap.Error(err))
		return 0, fmt.Errorf("time source: %w", err)
	}
	return now, nil
}

func (m *Manager) reject(op string, err error, gameID, playerID string) error {
	wrapped := wrap(op, err, gameID, playerID)
	if kind := KindOf(err); kind == nil || kind == ErrInvariant {
		if kind != nil {
			m.obs.OperationRejected(op, Code(err))
		}
		obslog.L().Error("pvp_store_error",
			zap.String("op", op),
			zap.String("game_id", gameID),
			zap.Error(err),
		)
		return wrapped
	}
	code := Code(err)
	m.obs.OperationRejected(op, code)
	obslog.L().Warn("pvp_rejected",
		zap.String("op", op),
		zap.String("code", code),
		zap.String("game_id", gameID),
		zap.String("player_id", playerID),
		zap.Error(err),
	)
	return wrapped
}
