package bridge

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore implements Store in process memory using ttlcache.
type MemoryStore struct {
	cache *ttlcache.Cache[string, *Result]
}

// NewMemoryStore creates a new in-memory store whose entries expire after
// ttl. Expired entries are also reaped automatically in the background.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *Result](ttl),
		ttlcache.WithDisableTouchOnHit[string, *Result](),
	)

	// Start the background expiry process
	go cache.Start()

	return &MemoryStore{
		cache: cache,
	}
}

// Put implements Store.Put.
func (s *MemoryStore) Put(_ context.Context, state string, res *Result) error {
	s.cache.Set(state, res, ttlcache.DefaultTTL)
	return nil
}

// Take implements Store.Take. GetAndDelete is atomic within ttlcache, so
// concurrent callers for the same state see exactly one winner.
func (s *MemoryStore) Take(_ context.Context, state string) (*Result, error) {
	item, ok := s.cache.GetAndDelete(state)
	if !ok || item == nil {
		return nil, ErrResultNotFound
	}
	return item.Value(), nil
}

// DeleteExpired removes all expired entries from the cache.
func (s *MemoryStore) DeleteExpired(_ context.Context) error {
	s.cache.DeleteExpired()
	return nil
}

// Count returns the number of live entries.
func (s *MemoryStore) Count(_ context.Context) int {
	return s.cache.Len()
}

// Close stops the background expiry goroutine.
func (s *MemoryStore) Close() error {
	s.cache.Stop()
	return nil
}
