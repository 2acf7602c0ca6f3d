package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// QuotaStore keeps per-day counters in process memory. A day key lives for
// 48 hours, long enough to outlast any time zone offset.
type QuotaStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewQuotaStore() *QuotaStore {
	return &QuotaStore{
		cache: cache.New(48*time.Hour, time.Hour),
	}
}

func quotaKey(key, day string) string {
	return "quota:" + key + ":" + day
}

func (s *QuotaStore) Consume(ctx context.Context, key string, day string, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := quotaKey(key, day)
	used := 0
	if x, found := s.cache.Get(k); found {
		used = x.(int)
	}
	if used >= limit {
		return used, false, nil
	}

	used++
	s.cache.Set(k, used, cache.DefaultExpiration)
	return used, true, nil
}

func (s *QuotaStore) Refund(ctx context.Context, key string, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := quotaKey(key, day)
	if x, found := s.cache.Get(k); found && x.(int) > 0 {
		s.cache.Set(k, x.(int)-1, cache.DefaultExpiration)
	}
	return nil
}

func (s *QuotaStore) Used(ctx context.Context, key string, day string) (int, error) {
	if x, found := s.cache.Get(quotaKey(key, day)); found {
		return x.(int), nil
	}
	return 0, nil
}
