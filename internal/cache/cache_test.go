package cache

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clients(t *testing.T) map[string]Client {
	t.Helper()
	out := map[string]Client{"memory": NewMemory("test")}
	if addr := os.Getenv("OAUTH_TEST_REDIS_ADDR"); addr != "" {
		rc, err := NewRedis(context.Background(), Config{Addr: addr, Prefix: "oauthtest:" + t.Name()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = rc.Close() })
		out["redis"] = rc
	}
	return out
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, c := range clients(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
			v, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", v)

			require.NoError(t, c.Delete(ctx, "k"))
			_, err = c.Get(ctx, "k")
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestSetNX(t *testing.T) {
	ctx := context.Background()
	for name, c := range clients(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := c.SetNX(ctx, "nx", "1", time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = c.SetNX(ctx, "nx", "2", time.Minute)
			require.NoError(t, err)
			assert.False(t, ok)

			v, _ := c.Get(ctx, "nx")
			assert.Equal(t, "1", v)
			_ = c.Delete(ctx, "nx")
		})
	}
}

func TestTakeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	for name, c := range clients(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, c.Set(ctx, "once", "payload", time.Minute))

			var wins int32
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if v, err := c.Take(ctx, "once"); err == nil && v == "payload" {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()
			assert.EqualValues(t, 1, wins)
		})
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory("")
	require.NoError(t, c.Set(ctx, "short", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, err := c.Get(ctx, "short")
	assert.True(t, IsNotFound(err))
}
