package idgen

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Clock is the time source for ID generation. Implementations return the
// current time in milliseconds.
type Clock interface {
	Now() int64
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

func (*SystemClock) Now() int64 {
	return time.Now().UnixMilli()
}

// RedisClock reads time from a shared Redis instance so that every node
// stamps IDs against the same clock. When Redis is unreachable it falls back
// to the local clock rather than stalling uploads.
type RedisClock struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisClock(client *redis.Client) *RedisClock {
	return &RedisClock{client: client, ctx: context.Background()}
}

func (r *RedisClock) Now() int64 {
	t, err := r.client.Time(r.ctx).Result()
	if err != nil {
		return time.Now().UnixMilli()
	}
	return t.UnixMilli()
}
