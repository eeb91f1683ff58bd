package impersonation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MemoryStore holds grants in-process. Used by tests and single-node setups.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[uint]*Grant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[uint]*Grant)}
}

func (s *MemoryStore) Get(ctx context.Context, adminID uint) (*Grant, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	grant, ok := s.grants[adminID]
	if !ok {
		return nil, nil
	}
	cp := *grant
	return &cp, nil
}

func (s *MemoryStore) Put(ctx context.Context, grant *Grant) error {
	_ = ctx
	if grant == nil {
		return errors.New("impersonation: nil grant")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *grant
	s.grants[grant.AdminID] = &cp
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, adminID uint) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, adminID)
	return nil
}

// RedisStore keeps grants in Redis so multiple app instances agree on who is
// impersonating whom. The key TTL tracks the absolute ceiling; idle timeout
// stays computed-on-read from the stored grant.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(adminID uint) string {
	return fmt.Sprintf("impersonation:grant:%d", adminID)
}

func (s *RedisStore) Get(ctx context.Context, adminID uint) (*Grant, error) {
	raw, err := s.client.Get(ctx, redisKey(adminID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var grant Grant
	if err := json.Unmarshal([]byte(raw), &grant); err != nil {
		return nil, fmt.Errorf("impersonation: decode stored grant: %w", err)
	}
	return &grant, nil
}

func (s *RedisStore) Put(ctx context.Context, grant *Grant) error {
	if grant == nil {
		return errors.New("impersonation: nil grant")
	}
	raw, err := json.Marshal(grant)
	if err != nil {
		return err
	}

	ttl := time.Until(grant.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, redisKey(grant.AdminID), raw, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, adminID uint) error {
	return s.client.Del(ctx, redisKey(adminID)).Err()
}
