package pvpchess

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// TimeSource supplies the authoritative "now" in unix milliseconds.
type TimeSource interface {
	Now(ctx context.Context) (int64, error)
}

// LocalTime reads the process wall clock. It is only authoritative when a
// single writer serves all sessions.
type LocalTime struct{}

func (LocalTime) Now(context.Context) (int64, error) { return time.Now().UnixMilli(), nil }

// RedisTime reads the Redis server clock so every writer node charges clocks
// against the same time base.
type RedisTime struct {
	rdb redis.Cmdable
}

func NewRedisTime(rdb redis.Cmdable) *RedisTime { return &RedisTime{rdb: rdb} }

func (t *RedisTime) Now(ctx context.Context) (int64, error) {
	ts, err := t.rdb.Time(ctx).Result()
	if err != nil {
		return 0, err
	}
	return ts.UnixMilli(), nil
}

// TimeFunc adapts a plain function, typically a test clock.
type TimeFunc func() int64

func (f TimeFunc) Now(context.Context) (int64, error) { return f(), nil }

func msTime(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
