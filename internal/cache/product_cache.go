// Package cache keeps the catalog snapshot used by search and typeahead.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	productListKey       = "catalog:products"
	productGenerationKey = "catalog:products:gen"
)

// ProductCache stores the full product list. Get reports ok=false on a miss.
//
// Loaders read Generation before querying the database and store the result
// with Fill, which refuses to write once Invalidate has run in between.
type ProductCache interface {
	Get(ctx context.Context) (products []model.Product, ok bool, err error)
	Generation(ctx context.Context) (int64, error)
	Fill(ctx context.Context, generation int64, products []model.Product) (stored bool, err error)
	Invalidate(ctx context.Context) error
}

type redisProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration) ProductCache {
	return &redisProductCache{client: client, ttl: ttl}
}

func (c *redisProductCache) Get(ctx context.Context) ([]model.Product, bool, error) {
	raw, err := c.client.Get(ctx, productListKey).Bytes()
	if err == redis.Nil {
		logger.Debug("Product cache miss", map[string]interface{}{
			"key": productListKey,
		})
		return nil, false, nil
	}
	if err != nil {
		logger.Error("Failed to read product cache", err, map[string]interface{}{
			"key": productListKey,
		})
		return nil, false, err
	}

	var products []model.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		logger.Warn("Discarding unreadable product cache entry", map[string]interface{}{
			"key":   productListKey,
			"error": err.Error(),
		})
		return nil, false, nil
	}
	return products, true, nil
}

func (c *redisProductCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, productGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *redisProductCache) Fill(ctx context.Context, generation int64, products []model.Product) (bool, error) {
	raw, err := json.Marshal(products)
	if err != nil {
		return false, err
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, productGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, productListKey, raw, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, productGenerationKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to fill product cache", err, map[string]interface{}{
			"key":   productListKey,
			"count": len(products),
		})
		return false, err
	}
	if !stored {
		logger.Debug("Product cache fill skipped after invalidation", map[string]interface{}{
			"generation": generation,
		})
	}
	return stored, nil
}

func (c *redisProductCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, productGenerationKey)
		pipe.Del(ctx, productListKey)
		return nil
	})
	return err
}

type memoryProductCache struct {
	mu         sync.RWMutex
	products   []model.Product
	expiresAt  time.Time
	generation int64
	ttl        time.Duration
	now        func() time.Time
}

// NewMemoryProductCache is the in-process cache used when Redis is disabled.
func NewMemoryProductCache(ttl time.Duration) ProductCache {
	return &memoryProductCache{ttl: ttl, now: time.Now}
}

func (c *memoryProductCache) Get(ctx context.Context) ([]model.Product, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.products == nil || !c.now().Before(c.expiresAt) {
		return nil, false, nil
	}
	out := make([]model.Product, len(c.products))
	copy(out, c.products)
	return out, true, nil
}

func (c *memoryProductCache) Generation(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation, nil
}

func (c *memoryProductCache) Fill(ctx context.Context, generation int64, products []model.Product) (bool, error) {
	stored := make([]model.Product, len(products))
	copy(stored, products)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false, nil
	}
	c.products = stored
	c.expiresAt = c.now().Add(c.ttl)
	return true, nil
}

func (c *memoryProductCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.products = nil
	c.generation++
	c.mu.Unlock()
	return nil
}
