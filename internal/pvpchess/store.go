package pvpchess

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/park285/cheese-gamecore/internal/rating"
)

// RatingFunc settles a finished game. It receives the current game and both
// rating records (nil when the player has none) and returns the records to
// store; nil records are left untouched. Returning errNoop skips the write.
type RatingFunc func(g *Game, white, black *rating.Record) (*rating.Record, *rating.Record, error)

// Store persists games and rating records. Update and FinalizeRatings are
// linearized per game id: concurrent callers never interleave their
// read-modify-write cycles, and every write lands atomically together with
// the index changes it implies.
type Store interface {
	Create(ctx context.Context, g *Game) error
	// Load returns nil, nil when the game does not exist.
	Load(ctx context.Context, id string) (*Game, error)
	// Update applies fn to the current game and commits the result. It
	// returns ErrNotFound for an unknown id, ErrConflict when the retry
	// budget is spent and ErrInvariant, with nothing written, when the
	// result would be an inconsistent game.
	Update(ctx context.Context, id string, fn func(g *Game) error) (*Game, error)
	FinalizeRatings(ctx context.Context, id string, fn RatingFunc) (*Game, error)
	// Rating returns nil, nil when the player has no record.
	Rating(ctx context.Context, playerID string) (*rating.Record, error)
	// SeedRating stores r unless the player already has a record and
	// reports whether it was stored.
	SeedRating(ctx context.Context, r rating.Record) (bool, error)
	ActiveIDs(ctx context.Context) ([]string, error)
	PendingRatingIDs(ctx context.Context) ([]string, error)
	GameIDsByUser(ctx context.Context, userID string) ([]string, error)
	// Unindex drops id from the sweep indexes once its game is gone.
	Unindex(ctx context.Context, id string) error
	Close() error
}

// MemoryStore keeps everything in process memory. It serves single-node
// deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	games   map[string][]byte
	ratings map[string]rating.Record
	active  map[string]struct{}
	pending map[string]struct{}
	byUser  map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:   make(map[string][]byte),
		ratings: make(map[string]rating.Record),
		active:  make(map[string]struct{}),
		pending: make(map[string]struct{}),
		byUser:  make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) Create(_ context.Context, g *Game) error {
	if g == nil || strings.TrimSpace(g.ID) == "" {
		return ErrInvalidArgs
	}
	if err := g.CheckInvariants(); err != nil {
		return err
	}
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[g.ID]; ok {
		return errors.New("game id already exists")
	}
	s.games[g.ID] = raw
	for _, u := range []string{g.White.ID, g.Black.ID} {
		if s.byUser[u] == nil {
			s.byUser[u] = make(map[string]struct{})
		}
		s.byUser[u][g.ID] = struct{}{}
	}
	s.index(g)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

func (s *MemoryStore) load(id string) (*Game, error) {
	raw, ok := s.games[id]
	if !ok {
		return nil, nil
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(g *Game) error) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	if err := fn(cur); err != nil {
		if errors.Is(err, errNoop) {
			return cur, nil
		}
		return nil, err
	}
	if err := cur.CheckInvariants(); err != nil {
		return nil, err
	}
	if err := s.put(cur); err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *MemoryStore) FinalizeRatings(_ context.Context, id string, fn RatingFunc) (*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, ErrNotFound
	}
	w, b := s.record(cur.White.ID), s.record(cur.Black.ID)
	nw, nb, err := fn(cur, w, b)
	if err != nil {
		if errors.Is(err, errNoop) {
			return cur, nil
		}
		return nil, err
	}
	if err := cur.CheckInvariants(); err != nil {
		return nil, err
	}
	if err := s.put(cur); err != nil {
		return nil, err
	}
	if nw != nil {
		s.ratings[nw.PlayerID] = *nw
	}
	if nb != nil {
		s.ratings[nb.PlayerID] = *nb
	}
	return cur, nil
}

func (s *MemoryStore) record(playerID string) *rating.Record {
	r, ok := s.ratings[playerID]
	if !ok {
		return nil
	}
	return &r
}

func (s *MemoryStore) put(g *Game) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return err
	}
	s.games[g.ID] = raw
	s.index(g)
	return nil
}

func (s *MemoryStore) index(g *Game) {
	switch g.Status {
	case StatusActive:
		s.active[g.ID] = struct{}{}
	case StatusFinished:
		delete(s.active, g.ID)
		if g.RatingsApplied {
			delete(s.pending, g.ID)
		} else {
			s.pending[g.ID] = struct{}{}
		}
	}
}

func (s *MemoryStore) Rating(_ context.Context, playerID string) (*rating.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record(playerID), nil
}

func (s *MemoryStore) SeedRating(_ context.Context, r rating.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ratings[r.PlayerID]; ok {
		return false, nil
	}
	s.ratings[r.PlayerID] = r
	return true, nil
}

func (s *MemoryStore) ActiveIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return keys(s.active), nil
}

func (s *MemoryStore) PendingRatingIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return keys(s.pending), nil
}

func (s *MemoryStore) GameIDsByUser(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return keys(s.byUser[userID]), nil
}

func (s *MemoryStore) Unindex(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
	delete(s.pending, id)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func keys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
