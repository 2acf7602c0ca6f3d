package contract

import (
	"context"
	"time"
)

// TurnLock enforces at most one in-flight turn per session.
type TurnLock interface {
	// Acquire returns a release token, or ok=false when a turn already holds the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Extend resets the ttl while token still holds the key. held=false means
	// the lock expired and may belong to another turn.
	Extend(ctx context.Context, key, token string, ttl time.Duration) (held bool, err error)
	Release(ctx context.Context, key, token string) error
}

// QuotaStore counts usage per key per calendar day.
type QuotaStore interface {
	// Consume increments the counter for (key, day) only while it is below
	// limit. It returns the count after the call and whether the unit was granted.
	Consume(ctx context.Context, key string, day string, limit int) (used int, granted bool, err error)
	// Refund gives back one unit consumed earlier the same day.
	Refund(ctx context.Context, key string, day string) error
	Used(ctx context.Context, key string, day string) (int, error)
}
