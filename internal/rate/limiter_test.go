package rate

import (
	"context"
	"os"
	"testing"
	"time"

	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/clock"
)

func TestMemoryLimiterWindow(t *testing.T) {
	clk := clock.NewMock(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	l := NewMemoryLimiter(2, time.Minute)
	l.Clock = clk
	ctx := context.Background()

	r, err := l.Allow(ctx, "web")
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.EqualValues(t, 1, r.Remaining)

	r, _ = l.Allow(ctx, "web")
	assert.True(t, r.Allowed)
	assert.EqualValues(t, 0, r.Remaining)

	r, _ = l.Allow(ctx, "web")
	assert.False(t, r.Allowed)
	assert.Equal(t, time.Minute, r.RetryAfter)

	// otra clave no comparte ventana
	r, _ = l.Allow(ctx, "other")
	assert.True(t, r.Allowed)

	clk.Advance(time.Minute)
	r, _ = l.Allow(ctx, "web")
	assert.True(t, r.Allowed)
	assert.EqualValues(t, 1, r.CurrentHits)
}

func TestRedisLimiter(t *testing.T) {
	addr := os.Getenv("OAUTH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("OAUTH_TEST_REDIS_ADDR not set")
	}
	client := rdb.NewClient(&rdb.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "rl:test:"+time.Now().Format("150405.000000")+":", 1, time.Minute)
	ctx := context.Background()

	r, err := l.Allow(ctx, "web")
	require.NoError(t, err)
	assert.True(t, r.Allowed)

	r, err = l.Allow(ctx, "web")
	require.NoError(t, err)
	assert.False(t, r.Allowed)
	assert.Greater(t, r.RetryAfter, time.Duration(0))
}
