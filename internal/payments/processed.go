package payments

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProcessedTracker deduplicates webhook deliveries by checkout-session id.
// MarkProcessed atomically records the id and reports whether it was fresh;
// entries expire after the retention window so the set stays bounded.
type ProcessedTracker interface {
	MarkProcessed(ctx context.Context, sessionID string) (bool, error)
}

// MemoryTracker is an in-process ProcessedTracker with a bounded retention
// window. Sufficient for single-instance deployments; use RedisTracker when
// webhook delivery fans out across processes.
type MemoryTracker struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	retention time.Duration
	now       func() time.Time
}

// NewMemoryTracker creates an in-memory tracker.
func NewMemoryTracker(retention time.Duration) *MemoryTracker {
	return &MemoryTracker{
		seen:      make(map[string]time.Time),
		retention: retention,
		now:       time.Now,
	}
}

// MarkProcessed records the session id, purging expired entries as it goes.
func (t *MemoryTracker) MarkProcessed(ctx context.Context, sessionID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, expiry := range t.seen {
		if now.After(expiry) {
			delete(t.seen, id)
		}
	}

	if _, dup := t.seen[sessionID]; dup {
		return false, nil
	}
	t.seen[sessionID] = now.Add(t.retention)
	return true, nil
}

// RedisTracker deduplicates across processes using SET NX with a TTL.
type RedisTracker struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisTracker creates a Redis-backed tracker.
func NewRedisTracker(client *redis.Client, retention time.Duration) *RedisTracker {
	return &RedisTracker{client: client, retention: retention}
}

// MarkProcessed records the session id; returns false when another delivery
// already claimed it within the retention window.
func (t *RedisTracker) MarkProcessed(ctx context.Context, sessionID string) (bool, error) {
	return t.client.SetNX(ctx, "webhook:processed:"+sessionID, "1", t.retention).Result()
}
