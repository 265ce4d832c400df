// README: Redis-backed spot locks and idempotency claims.
package spotlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parking/internal/types"
)

type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redis *redis.Client) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) AcquireLock(ctx context.Context, pos types.Point, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, lockKey(pos), owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", pos.Key(), err)
	}
	return ok, nil
}

// ReleaseLock reads then deletes. Only the holder calls it and the TTL
// bounds a lost release, so the gap between GET and DEL is tolerated.
func (s *RedisStore) ReleaseLock(ctx context.Context, pos types.Point, owner string) (bool, error) {
	key := lockKey(pos)
	current, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read lock %s: %w", pos.Key(), err)
	}
	if current != owner {
		return false, nil
	}
	n, err := s.redis.Del(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("release lock %s: %w", pos.Key(), err)
	}
	return n == 1, nil
}

func (s *RedisStore) CheckAndMarkIdempotency(ctx context.Context, pos types.Point, eventID string, ttl time.Duration) (bool, error) {
	claimedAt := time.Now().UTC().Format(time.RFC3339Nano)
	ok, err := s.redis.SetNX(ctx, idempotencyKey(pos, eventID), claimedAt, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim event %s: %w", eventID, err)
	}
	return ok, nil
}

func (s *RedisStore) ReleaseIdempotencyKey(ctx context.Context, pos types.Point, eventID string) (bool, error) {
	n, err := s.redis.Del(ctx, idempotencyKey(pos, eventID)).Result()
	if err != nil {
		return false, fmt.Errorf("release event %s: %w", eventID, err)
	}
	return n == 1, nil
}

func lockKey(pos types.Point) string {
	return fmt.Sprintf(lockKeyPrefix, pos.Key())
}

func idempotencyKey(pos types.Point, eventID string) string {
	return fmt.Sprintf(idempotencyKeyPrefix, pos.Key(), eventID)
}
