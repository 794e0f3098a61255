// Package cache provides the shared key-value stores the engine injects
// instead of hiding state in package-level globals: the accounting OAuth
// token cache and the rate-limiter buckets. A Redis implementation backs
// multi-instance deployments; the in-memory one serves single instances
// and tests.
package cache

import (
	"context"
	"sync"
	"time"
)

// Store is a small TTL'd key-value abstraction
type Store interface {
	// Get returns the value for key, or ok=false when absent or expired
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key for ttl (0 = no expiry)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes key
	Delete(ctx context.Context, key string) error
	// Incr atomically increments the counter at key, starting a fresh
	// window of the given duration on first increment. Returns the new
	// count within the current window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

type memoryEntry struct {
	value     string
	count     int64
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryStore implements Store with an in-process map. Suitable for
// single-instance deployments and tests.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	stopChan  chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates a new in-memory store with background cleanup
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries:  make(map[string]memoryEntry),
		stopChan: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Get returns the value for key if present and unexpired
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[key]
	if !exists || e.expired(time.Now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

// Set stores value under key for ttl
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

// Delete removes key
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Incr increments the window counter at key
func (s *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	e, exists := s.entries[key]
	if !exists || e.expired(now) {
		e = memoryEntry{count: 0}
		if window > 0 {
			e.expiresAt = now.Add(window)
		}
	}
	e.count++
	s.entries[key] = e
	return e.count, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
	})
	return nil
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
		}
	}
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
