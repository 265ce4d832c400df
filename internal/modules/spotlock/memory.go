// README: In-process spot locks and idempotency claims for tests and single-node runs.
package spotlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"parking/internal/types"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore implements Locker and IdempotencyStore in process memory with
// the same key layout and TTL semantics as RedisStore.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{entries: make(map[string]memoryEntry), now: now}
}

func (s *MemoryStore) setNX(key, value string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false
	}
	s.entries[key] = memoryEntry{value: value, expiresAt: now.Add(ttl)}
	return true
}

func (s *MemoryStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.expiresAt) {
		return "", false
	}
	return e.value, true
}

func (s *MemoryStore) del(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	delete(s.entries, key)
	return ok && s.now().Before(e.expiresAt)
}

func (s *MemoryStore) AcquireLock(_ context.Context, pos types.Point, owner string, ttl time.Duration) (bool, error) {
	return s.setNX(lockKey(pos), owner, ttl), nil
}

func (s *MemoryStore) ReleaseLock(_ context.Context, pos types.Point, owner string) (bool, error) {
	key := lockKey(pos)
	current, ok := s.get(key)
	if !ok || current != owner {
		return false, nil
	}
	return s.del(key), nil
}

func (s *MemoryStore) CheckAndMarkIdempotency(_ context.Context, pos types.Point, eventID string, ttl time.Duration) (bool, error) {
	return s.setNX(idempotencyKey(pos, eventID), fmt.Sprint(s.now().UnixNano()), ttl), nil
}

func (s *MemoryStore) ReleaseIdempotencyKey(_ context.Context, pos types.Point, eventID string) (bool, error) {
	return s.del(idempotencyKey(pos, eventID)), nil
}
