package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// TurnLock is the single-process turn lock. Entries expire after their ttl
// so a crashed turn cannot wedge a session forever. Every operation holds mu,
// so a release or extend never acts on a newer holder's entry.
type TurnLock struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewTurnLock() *TurnLock {
	return &TurnLock{
		cache: cache.New(5*time.Minute, time.Minute),
	}
}

func (l *TurnLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	token := uuid.NewString()
	// cache.Add fails when an unexpired item already exists.
	if err := l.cache.Add(key, token, ttl); err != nil {
		return "", false, nil
	}
	return token, true, nil
}

func (l *TurnLock) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.holds(key, token) {
		return false, nil
	}
	l.cache.Set(key, token, ttl)
	return true, nil
}

func (l *TurnLock) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holds(key, token) {
		l.cache.Delete(key)
	}
	return nil
}

func (l *TurnLock) holds(key, token string) bool {
	x, found := l.cache.Get(key)
	return found && x.(string) == token
}
