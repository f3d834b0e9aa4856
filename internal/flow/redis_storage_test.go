package flow

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStorage(client, time.Hour, nil), mr
}

func TestRedisStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage, _ := newTestRedisStorage(t)

	record := &Record{
		Flows: map[Kind]*Flow{
			KindDeposit: {
				Kind: KindDeposit,
				Fields: map[Field]string{
					FieldMethod: "bkash",
					FieldNumber: "01700000000",
				},
				StartedAt: time.Now().UTC().Truncate(time.Second),
			},
		},
	}

	require.NoError(t, storage.Set(ctx, 42, record))

	got, err := storage.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	require.Contains(t, got.Flows, KindDeposit)
	assert.Equal(t, "bkash", got.Flows[KindDeposit].Get(FieldMethod))
	assert.Equal(t, "01700000000", got.Flows[KindDeposit].Get(FieldNumber))
}

func TestRedisStorageGetMissing(t *testing.T) {
	storage, _ := newTestRedisStorage(t)

	_, err := storage.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorageClear(t *testing.T) {
	ctx := context.Background()
	storage, _ := newTestRedisStorage(t)

	require.NoError(t, storage.Set(ctx, 7, &Record{Flows: map[Kind]*Flow{
		KindBroadcast: {Kind: KindBroadcast, Fields: map[Field]string{}},
	}}))
	require.NoError(t, storage.Clear(ctx, 7))

	_, err := storage.Get(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStorageExpiresAbandonedFlows(t *testing.T) {
	ctx := context.Background()
	storage, mr := newTestRedisStorage(t)

	require.NoError(t, storage.Set(ctx, 5, &Record{Flows: map[Kind]*Flow{
		KindDeposit: {Kind: KindDeposit, Fields: map[Field]string{}},
	}}))

	mr.FastForward(2 * time.Hour)

	_, err := storage.Get(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}
