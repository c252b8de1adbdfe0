package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/phantomcommerce/phantom-backend/config"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// local holds revoked tokens when no Redis server is configured.
var local = struct {
	sync.Mutex
	revoked map[string]time.Time
}{revoked: make(map[string]time.Time)}

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		_ = c.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client = c
	logger.Info("Redis connection established successfully")
	return nil
}

// SetClient replaces the shared client. Passing nil switches back to the
// in-process fallbacks.
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the Redis client instance, nil when Redis is disabled.
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// BlacklistToken revokes a token until expiry.
func BlacklistToken(ctx context.Context, token string, expiry time.Duration) error {
	logger.Debug("Adding token to blacklist", map[string]interface{}{
		"expiry": expiry.String(),
	})

	if expiry <= 0 {
		return nil
	}

	if client == nil {
		local.Lock()
		local.revoked[token] = time.Now().Add(expiry)
		local.Unlock()
		return nil
	}

	key := fmt.Sprintf("blacklist:%s", token)
	if err := client.Set(ctx, key, "revoked", expiry).Err(); err != nil {
		logger.Error("Failed to blacklist token", err)
		return err
	}

	logger.Debug("Token successfully blacklisted")
	return nil
}

// IsTokenBlacklisted checks if a token is in the blacklist
func IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	if client == nil {
		local.Lock()
		defer local.Unlock()
		until, ok := local.revoked[token]
		if !ok {
			return false, nil
		}
		if time.Now().After(until) {
			delete(local.revoked, token)
			return false, nil
		}
		return true, nil
	}

	key := fmt.Sprintf("blacklist:%s", token)
	val, err := client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check token blacklist", err)
		return false, err
	}

	return val == "revoked", nil
}
