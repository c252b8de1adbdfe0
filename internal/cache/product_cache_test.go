package cache

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

func sampleProducts() []model.Product {
	return []model.Product{
		{ID: 1, Title: "Zelda", Price: 299.9, Categories: model.StringList{"Aventura"}},
		{ID: 2, Title: "Forza", Price: 199.9, Platforms: model.StringList{"Xbox"}},
	}
}

func fill(t *testing.T, c ProductCache, products []model.Product) {
	ctx := context.Background()
	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	stored, err := c.Fill(ctx, gen, products)
	require.NoError(t, err)
	require.True(t, stored)
}

func TestRedisProductCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisProductCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	fill(t, c, sampleProducts())

	products, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, products, 2)
	assert.Equal(t, "Zelda", products[0].Title)
	assert.Equal(t, model.StringList{"Xbox"}, products[1].Platforms)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisProductCache_CorruptEntryIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	require.NoError(t, mr.Set(productListKey, "not json"))

	_, ok, err := NewRedisProductCache(client, time.Minute).Get(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisProductCache_Invalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisProductCache(client, time.Minute)
	ctx := context.Background()

	fill(t, c, sampleProducts())
	require.NoError(t, c.Invalidate(ctx))
	assert.False(t, mr.Exists(productListKey))
}

func TestMemoryProductCache(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &memoryProductCache{ttl: time.Minute, now: func() time.Time { return clock }}
	ctx := context.Background()

	_, ok, _ := c.Get(ctx)
	assert.False(t, ok)

	fill(t, c, sampleProducts())
	products, ok, _ := c.Get(ctx)
	require.True(t, ok)
	assert.Len(t, products, 2)

	// Callers get a copy.
	products[0].Title = "changed"
	again, _, _ := c.Get(ctx)
	assert.Equal(t, "Zelda", again[0].Title)

	clock = clock.Add(time.Minute)
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok)

	fill(t, c, []model.Product{})
	empty, ok, _ := c.Get(ctx)
	assert.True(t, ok)
	assert.Empty(t, empty)

	require.NoError(t, c.Invalidate(ctx))
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok)
}

func TestProductCache_FillAfterInvalidateIsRefused(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	caches := map[string]ProductCache{
		"redis":  NewRedisProductCache(client, time.Minute),
		"memory": NewMemoryProductCache(time.Minute),
	}

	for name, c := range caches {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			stale, err := c.Generation(ctx)
			require.NoError(t, err)
			require.NoError(t, c.Invalidate(ctx))

			stored, err := c.Fill(ctx, stale, sampleProducts())
			require.NoError(t, err)
			assert.False(t, stored)
			_, ok, err := c.Get(ctx)
			require.NoError(t, err)
			assert.False(t, ok)

			current, err := c.Generation(ctx)
			require.NoError(t, err)
			assert.Greater(t, current, stale)

			stored, err = c.Fill(ctx, current, sampleProducts())
			require.NoError(t, err)
			assert.True(t, stored)
			_, ok, err = c.Get(ctx)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}
