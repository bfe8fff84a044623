// Package cache provides a process-local TTL snapshot store. The remote
// spreadsheet has a hard call-rate budget, so every read path goes
// through here and every write path invalidates its dataset. Snapshots
// are not shared across instances; read-your-writes only holds within
// the process that performed the write.
package cache

import (
	"sync"
	"time"
)

type snapshot[T any] struct {
	value     T
	fetchedAt time.Time
}

// Store caches one snapshot per dataset key.
type Store[T any] struct {
	mu        sync.RWMutex
	snapshots map[string]snapshot[T]
	now       func() time.Time
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		snapshots: make(map[string]snapshot[T]),
		now:       time.Now,
	}
}

// GetOrFetch returns the cached snapshot for key if it is younger than
// ttl, otherwise calls fetch and caches its result. A failed fetch is
// not cached; the next call retries. The store lock is held across
// fetch so concurrent callers trigger at most one remote read per key
// expiry.
func (s *Store[T]) GetOrFetch(key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	s.mu.RLock()
	snap, ok := s.snapshots[key]
	s.mu.RUnlock()
	if ok && s.now().Sub(snap.fetchedAt) < ttl {
		return snap.value, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if snap, ok := s.snapshots[key]; ok && s.now().Sub(snap.fetchedAt) < ttl {
		return snap.value, nil
	}

	value, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	s.snapshots[key] = snapshot[T]{value: value, fetchedAt: s.now()}
	return value, nil
}

// Invalidate discards the snapshot for key so the next GetOrFetch
// refetches regardless of age.
func (s *Store[T]) Invalidate(key string) {
	s.mu.Lock()
	delete(s.snapshots, key)
	s.mu.Unlock()
}
