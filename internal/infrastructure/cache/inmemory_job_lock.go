// Package cache provides the per-configuration job locks that keep sync job
// runs mutually exclusive, in an in-process flavor for single-instance
// deployments and a Redis flavor for distributed ones.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	syncdomain "github.com/membercard/backend/internal/domain/sync"
)

// lockEntry represents a held lock with expiration. The token identifies
// the acquisition so a stale holder's release cannot evict a takeover,
// mirroring the Redis lock's compare-and-delete.
type lockEntry struct {
	token     uuid.UUID
	expiresAt time.Time
}

// InMemoryJobLock serializes job runs per configuration using an in-memory
// map. Suitable for single-instance deployments and testing. Locks expire
// after a TTL so a crashed run cannot block its configuration forever.
type InMemoryJobLock struct {
	mu      sync.Mutex
	entries map[uuid.UUID]lockEntry
	ttl     time.Duration
}

// NewInMemoryJobLock creates a new in-memory job lock with the given expiry
func NewInMemoryJobLock(ttl time.Duration) *InMemoryJobLock {
	return &InMemoryJobLock{
		entries: make(map[uuid.UUID]lockEntry),
		ttl:     ttl,
	}
}

// TryLock acquires the lock for the configuration, failing fast with
// sync.ErrJobAlreadyRunning when it is held. The returned release function
// is idempotent.
func (l *InMemoryJobLock) TryLock(ctx context.Context, configID uuid.UUID) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, exists := l.entries[configID]; exists {
		if time.Now().Before(e.expiresAt) {
			return nil, syncdomain.ErrJobAlreadyRunning
		}
		// Held past its TTL: the owner is gone, take it over
	}

	token := uuid.New()
	l.entries[configID] = lockEntry{token: token, expiresAt: time.Now().Add(l.ttl)}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if e, exists := l.entries[configID]; exists && e.token == token {
				delete(l.entries, configID)
			}
		})
	}
	return release, nil
}

// Held reports whether the configuration's lock is currently held
// (for testing/monitoring)
func (l *InMemoryJobLock) Held(configID uuid.UUID) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, exists := l.entries[configID]
	return exists && time.Now().Before(e.expiresAt)
}
