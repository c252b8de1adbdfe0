package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []model.CartEntry {
	return []model.CartEntry{
		{ProductID: 1, Title: "Lendas de Aurora", Price: 199.9, Quantity: 2},
		{ProductID: 3, Title: "Turbo Drift 2", Price: 89.9, Quantity: 1},
	}
}

func TestRedisGuestCartStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisGuestCartStore(client, time.Hour)
	ctx := context.Background()

	empty, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.Save(ctx, "s1", sampleEntries()))
	assert.True(t, mr.Exists(guestCartKeyPrefix+"s1"))
	assert.Equal(t, time.Hour, mr.TTL(guestCartKeyPrefix+"s1"))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, uint(3), loaded[1].ProductID)

	mr.FastForward(2 * time.Hour)
	expired, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, expired)

	require.NoError(t, store.Save(ctx, "s2", sampleEntries()))
	require.NoError(t, store.Save(ctx, "s2", nil))
	assert.False(t, mr.Exists(guestCartKeyPrefix+"s2"))
}

func TestRedisGuestCartStore_CorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, mr.Set(guestCartKeyPrefix+"bad", "{not json"))

	store := NewRedisGuestCartStore(client, time.Hour)
	loaded, err := store.Load(context.Background(), "bad")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestRedisGuestCartStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	store := NewRedisGuestCartStore(client, time.Hour)
	_, err := store.Load(context.Background(), "s1")
	assert.Error(t, err)
}

func TestMemoryGuestCartStore(t *testing.T) {
	store := NewMemoryGuestCartStore(time.Minute).(*memoryGuestCartStore)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", sampleEntries()))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Callers get a copy.
	loaded[0].Quantity = 99
	again, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, again[0].Quantity)

	now = now.Add(2 * time.Minute)
	expired, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, expired)

	require.NoError(t, store.Save(ctx, "s2", sampleEntries()))
	require.NoError(t, store.Delete(ctx, "s2"))
	gone, err := store.Load(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, gone)
}
