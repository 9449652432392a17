package session

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis so they survive restarts and are shared
// between instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed session store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, id string, ttl time.Duration) error {
	return s.client.Set(ctx, redisKeyPrefix+id, "1", ttl).Err()
}

func (s *RedisStore) Touch(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, redisKeyPrefix+id, ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKeyPrefix+id).Err()
}

// MemoryStore is the fallback when no Redis address is configured. Sessions
// live only as long as the process.
type MemoryStore struct {
	mu       sync.Mutex
	deadline map[string]time.Time
	now      func() time.Time
}

// NewMemoryStore creates an in-process session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deadline: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, id string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deadline[id] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, id string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dl, ok := s.deadline[id]
	if !ok {
		return false, nil
	}
	if s.now().After(dl) {
		delete(s.deadline, id)
		return false, nil
	}
	s.deadline[id] = s.now().Add(ttl)
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deadline, id)
	return nil
}
