package pvpchess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-gamecore/internal/rating"
)

const (
	defaultGameTTL = 24 * time.Hour
	maxTxRetries   = 5
)

// RedisStore keeps games as JSON under pvp:game:<id> and linearizes every
// read-modify-write with WATCH/MULTI.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL string, gameTTL time.Duration) (*RedisStore, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStoreFromClient(rdb, gameTTL), nil
}

func NewRedisStoreFromClient(rdb *redis.Client, gameTTL time.Duration) *RedisStore {
	if gameTTL <= 0 {
		gameTTL = defaultGameTTL
	}
	return &RedisStore{rdb: rdb, ttl: gameTTL}
}

// Client exposes the connection for collaborators sharing it, such as the Redis time source.
func (s *RedisStore) Client() *redis.Client { return s.rdb }

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Create writes the game and its index entries in one transaction. The game
// key is watched so a concurrent create of the same id fails cleanly.
func (s *RedisStore) Create(ctx context.Context, g *Game) error {
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
	gameK := gameKey(g.ID)
	return s.retry(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, gameK).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("game id %s already exists", g.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameK, raw, s.ttl)
			s.indexUsers(ctx, pipe, g)
			indexStatus(ctx, pipe, g)
			return nil
		})
		return err
	}, gameK)
}

func (s *RedisStore) Load(ctx context.Context, id string) (*Game, error) {
	return loadGame(ctx, s.rdb, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadGame(ctx context.Context, c getter, id string) (*Game, error) {
	raw, err := c.Get(ctx, gameKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var g Game
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func loadRecord(ctx context.Context, c getter, playerID string) (*rating.Record, error) {
	raw, err := c.Get(ctx, ratingKey(playerID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var r rating.Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// retry runs a WATCH transaction until it commits without interference.
func (s *RedisStore) retry(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.rdb.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return ErrConflict
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(g *Game) error) (*Game, error) {
	gameK := gameKey(id)
	var out *Game
	err := s.retry(ctx, func(tx *redis.Tx) error {
		cur, err := loadGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound
		}
		if err := fn(cur); err != nil {
			if errors.Is(err, errNoop) {
				out = cur
			}
			return err
		}
		if err := cur.CheckInvariants(); err != nil {
			return err
		}
		raw, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameK, raw, s.ttl)
			s.indexUsers(ctx, pipe, cur)
			indexStatus(ctx, pipe, cur)
			return nil
		})
		if err == nil {
			out = cur
		}
		return err
	}, gameK)
	if errors.Is(err, errNoop) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FinalizeRatings watches the game and both rating keys so the rating writes
// and the ratings_applied flip commit together or not at all.
func (s *RedisStore) FinalizeRatings(ctx context.Context, id string, fn RatingFunc) (*Game, error) {
	seed, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if seed == nil {
		return nil, ErrNotFound
	}
	gameK := gameKey(id)
	var out *Game
	err = s.retry(ctx, func(tx *redis.Tx) error {
		cur, err := loadGame(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur == nil {
			return ErrNotFound
		}
		w, err := loadRecord(ctx, tx, cur.White.ID)
		if err != nil {
			return err
		}
		b, err := loadRecord(ctx, tx, cur.Black.ID)
		if err != nil {
			return err
		}
		nw, nb, err := fn(cur, w, b)
		if err != nil {
			if errors.Is(err, errNoop) {
				out = cur
			}
			return err
		}
		if err := cur.CheckInvariants(); err != nil {
			return err
		}
		raw, err := json.Marshal(cur)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, gameK, raw, s.ttl)
			s.indexUsers(ctx, pipe, cur)
			for _, r := range []*rating.Record{nw, nb} {
				if r == nil {
					continue
				}
				rr, _ := json.Marshal(r)
				pipe.Set(ctx, ratingKey(r.PlayerID), rr, 0)
			}
			indexStatus(ctx, pipe, cur)
			return nil
		})
		if err == nil {
			out = cur
		}
		return err
	}, gameK, ratingKey(seed.White.ID), ratingKey(seed.Black.ID))
	if errors.Is(err, errNoop) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *RedisStore) Rating(ctx context.Context, playerID string) (*rating.Record, error) {
	return loadRecord(ctx, s.rdb, playerID)
}

func (s *RedisStore) SeedRating(ctx context.Context, r rating.Record) (bool, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, ratingKey(r.PlayerID), raw, 0).Result()
}

func (s *RedisStore) ActiveIDs(ctx context.Context) ([]string, error) {
	return s.rdb.SMembers(ctx, activeKey).Result()
}

func (s *RedisStore) PendingRatingIDs(ctx context.Context) ([]string, error) {
	return s.rdb.SMembers(ctx, pendingRatingsKey).Result()
}

func (s *RedisStore) GameIDsByUser(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	return s.rdb.SMembers(ctx, idxUserKey(userID)).Result()
}

func (s *RedisStore) Unindex(ctx context.Context, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, activeKey, id)
		pipe.SRem(ctx, pendingRatingsKey, id)
		return nil
	})
	return err
}

// indexUsers adds g to both players' indexes and extends their TTL to match
// the game key.
func (s *RedisStore) indexUsers(ctx context.Context, pipe redis.Pipeliner, g *Game) {
	for _, u := range []string{g.White.ID, g.Black.ID} {
		pipe.SAdd(ctx, idxUserKey(u), g.ID)
		pipe.Expire(ctx, idxUserKey(u), s.ttl)
	}
}

func indexStatus(ctx context.Context, pipe redis.Pipeliner, g *Game) {
	switch g.Status {
	case StatusActive:
		pipe.SAdd(ctx, activeKey, g.ID)
	case StatusFinished:
		pipe.SRem(ctx, activeKey, g.ID)
		if g.RatingsApplied {
			pipe.SRem(ctx, pendingRatingsKey, g.ID)
		} else {
			pipe.SAdd(ctx, pendingRatingsKey, g.ID)
		}
	}
}

const (
	activeKey         = "pvp:index:active"
	pendingRatingsKey = "pvp:index:ratings_pending"
)

func gameKey(id string) string        { return "pvp:game:" + strings.TrimSpace(id) }
func idxUserKey(userID string) string { return "pvp:index:user:" + strings.TrimSpace(userID) }
func ratingKey(playerID string) string {
	return "pvp:rating:" + strings.TrimSpace(playerID)
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
