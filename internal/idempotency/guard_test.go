package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyIsDeterministic(t *testing.T) {
	assert.Equal(t, Key("callback", int64(42)), Key("callback", int64(42)))
	assert.NotEqual(t, Key("callback", int64(42)), Key("callback", int64(43)))
	assert.NotEqual(t, Key("callback"), Key("message"))
}

func TestMemoryGuardAcquireOnce(t *testing.T) {
	ctx := context.Background()
	guard := NewMemoryGuard()

	ok, err := guard.Acquire(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Acquire(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Other keys are unaffected.
	ok, err = guard.Acquire(ctx, "k2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryGuardExpiry(t *testing.T) {
	ctx := context.Background()
	guard := NewMemoryGuard()

	ok, err := guard.Acquire(ctx, "k1", time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	ok, err = guard.Acquire(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisGuardAcquireOnce(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	guard := NewRedisGuard(client, nil)

	ok, err := guard.Acquire(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = guard.Acquire(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = guard.Acquire(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
