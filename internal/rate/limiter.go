// Package rate implementa rate limiting fixed-window para los endpoints
// de token. La clave típica es client_id o IP.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/clock"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

func newResult(hits, max int64, ttl, window time.Duration) Result {
	res := Result{
		Allowed:     hits <= max,
		Remaining:   max - hits,
		CurrentHits: hits,
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	if !res.Allowed {
		// Retry after: resto de la ventana
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = window
		}
	}
	return res
}

func windowKey(prefix, key string, now time.Time, window time.Duration) string {
	return fmt.Sprintf("%s%s:%d", prefix, strings.ReplaceAll(key, " ", "_"), now.Truncate(window).Unix())
}

// RedisLimiter: fixed window compartido entre nodos (INCR + EXPIRE NX).
type RedisLimiter struct {
	Client *rdb.Client
	Prefix string
	Max    int64
	Window time.Duration
	Clock  clock.Clock
}

func NewRedisLimiter(client *rdb.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{
		Client: client,
		Prefix: prefix,
		Max:    int64(max),
		Window: window,
		Clock:  clock.System{},
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := windowKey(l.Prefix, key, l.Clock.Now().UTC(), l.Window)

	pipe := l.Client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.Window)
	ttl := pipe.TTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, err
	}
	return newResult(incr.Val(), l.Max, ttl.Val(), l.Window), nil
}

// MemoryLimiter es la variante single-node sobre go-cache.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration
	Clock  clock.Clock

	hits *gocache.Cache
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:    int64(max),
		Window: window,
		Clock:  clock.System{},
		hits:   gocache.New(window, 2*window),
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := l.Clock.Now().UTC()
	k := windowKey("", key, now, l.Window)
	ttl := now.Truncate(l.Window).Add(l.Window).Sub(now)

	for i := 0; i < 3; i++ {
		hits, err := l.hits.IncrementInt64(k, 1)
		if err == nil {
			return newResult(hits, l.Max, ttl, l.Window), nil
		}
		// primer hit de la ventana; si otro goroutine ganó el Add, reintenta el incremento
		if l.hits.Add(k, int64(1), ttl+time.Second) == nil {
			return newResult(1, l.Max, ttl, l.Window), nil
		}
	}
	return Result{}, fmt.Errorf("rate: could not increment %q", k)
}
