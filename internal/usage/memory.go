package usage

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count   int
	expires time.Time
}

// MemoryStore is an in-process Store for development and tests. It
// honors the same TTL contract as the Postgres store.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func key(licenseKey, monthKey string) string {
	return licenseKey + ":" + monthKey
}

func (s *MemoryStore) Count(ctx context.Context, licenseKey, monthKey string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key(licenseKey, monthKey)]
	if !ok || s.now().After(entry.expires) {
		return 0, nil
	}
	return entry.count, nil
}

func (s *MemoryStore) Increment(ctx context.Context, licenseKey, monthKey string) (int, error) {
	current, err := s.Count(ctx, licenseKey, monthKey)
	if err != nil {
		return 0, err
	}
	next := current + 1
	s.mu.Lock()
	s.entries[key(licenseKey, monthKey)] = memoryEntry{count: next, expires: s.now().Add(s.ttl)}
	s.mu.Unlock()
	return next, nil
}

var _ Store = (*MemoryStore)(nil)
