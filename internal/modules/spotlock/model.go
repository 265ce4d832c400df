// README: Spot lock and idempotency capabilities backed by a TTL key-value store.
package spotlock

import (
	"context"
	"time"

	"parking/internal/types"
)

const (
	DefaultLockTTL        = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
)

// Locker is a TTL-bound mutual exclusion scoped to one spot.
type Locker interface {
	// AcquireLock is an atomic set-if-absent; false means another owner holds it.
	AcquireLock(ctx context.Context, pos types.Point, owner string, ttl time.Duration) (bool, error)
	// ReleaseLock deletes the lock only when owner still holds it.
	ReleaseLock(ctx context.Context, pos types.Point, owner string) (bool, error)
}

// IdempotencyStore records at most one claim per (spot, event id) within the TTL.
type IdempotencyStore interface {
	CheckAndMarkIdempotency(ctx context.Context, pos types.Point, eventID string, ttl time.Duration) (bool, error)
	ReleaseIdempotencyKey(ctx context.Context, pos types.Point, eventID string) (bool, error)
}

const (
	lockKeyPrefix        = "parking:lock:%s"
	idempotencyKeyPrefix = "parking:idempotency:%s:%s"
)
