package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/phantomcommerce/phantom-backend/internal/app/model"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const guestCartKeyPrefix = "cart:guest:"

// GuestCartStore keeps carts of anonymous sessions. Load returns an empty
// cart for an unknown session.
type GuestCartStore interface {
	Load(ctx context.Context, sessionID string) ([]model.CartEntry, error)
	Save(ctx context.Context, sessionID string, entries []model.CartEntry) error
	Delete(ctx context.Context, sessionID string) error
}

type redisGuestCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisGuestCartStore stores each guest cart as a JSON value that expires
// ttl after its last write.
func NewRedisGuestCartStore(client *redis.Client, ttl time.Duration) GuestCartStore {
	return &redisGuestCartStore{client: client, ttl: ttl}
}

func (s *redisGuestCartStore) Load(ctx context.Context, sessionID string) ([]model.CartEntry, error) {
	raw, err := s.client.Get(ctx, guestCartKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return []model.CartEntry{}, nil
	}
	if err != nil {
		logger.Error("Failed to load guest cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil, err
	}

	var entries []model.CartEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		logger.Warn("Discarding unreadable guest cart", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return []model.CartEntry{}, nil
	}
	return entries, nil
}

func (s *redisGuestCartStore) Save(ctx context.Context, sessionID string, entries []model.CartEntry) error {
	if len(entries) == 0 {
		return s.Delete(ctx, sessionID)
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, guestCartKeyPrefix+sessionID, raw, s.ttl).Err(); err != nil {
		logger.Error("Failed to save guest cart", err, map[string]interface{}{
			"session_id": sessionID,
			"count":      len(entries),
		})
		return err
	}
	return nil
}

func (s *redisGuestCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, guestCartKeyPrefix+sessionID).Err(); err != nil {
		logger.Error("Failed to delete guest cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}
	return nil
}

type memoryGuestCart struct {
	entries   []model.CartEntry
	expiresAt time.Time
}

type memoryGuestCartStore struct {
	mu    sync.Mutex
	carts map[string]memoryGuestCart
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryGuestCartStore keeps guest carts in process memory.
func NewMemoryGuestCartStore(ttl time.Duration) GuestCartStore {
	return &memoryGuestCartStore{
		carts: make(map[string]memoryGuestCart),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *memoryGuestCartStore) Load(ctx context.Context, sessionID string) ([]model.CartEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[sessionID]
	if !ok {
		return []model.CartEntry{}, nil
	}
	if s.ttl > 0 && s.now().After(c.expiresAt) {
		delete(s.carts, sessionID)
		return []model.CartEntry{}, nil
	}
	out := make([]model.CartEntry, len(c.entries))
	copy(out, c.entries)
	return out, nil
}

func (s *memoryGuestCartStore) Save(ctx context.Context, sessionID string, entries []model.CartEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(entries) == 0 {
		delete(s.carts, sessionID)
		return nil
	}
	stored := make([]model.CartEntry, len(entries))
	copy(stored, entries)
	s.carts[sessionID] = memoryGuestCart{entries: stored, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *memoryGuestCartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionID)
	return nil
}
