package scraperd

import (
	"context"
	"errors"
	"time"

	"fooni-backend/lib/kvstore"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// sessionCache resolves a backend session through two levels: an
// in-process expirable LRU in front of the shared kv store. A cached
// token is trusted as-is until it ages out, there is no re-validation
// and no re-login-on-401 inside a run, the backends reject stale tokens
// by failing the run.
type sessionCache struct {
	cache *expirable.LRU[string, string]
	store kvstore.Store
	key   string
	ttl   time.Duration
	login func(ctx context.Context) (string, error)
}

func newSessionCache(store kvstore.Store, key string, ttl time.Duration, login func(ctx context.Context) (string, error)) sessionCache {
	return sessionCache{
		cache: expirable.NewLRU[string, string](8, nil, ttl),
		store: store,
		key:   key,
		ttl:   ttl,
		login: login,
	}
}

func (s sessionCache) Get(ctx context.Context) (string, error) {
	cached, hit := s.cache.Get(s.key)
	if hit {
		return cached, nil
	}

	session, err := s.store.Get(ctx, s.key)
	if err == nil {
		s.cache.Add(s.key, session)
		return session, nil
	}
	if !errors.Is(err, kvstore.ErrNotFound) {
		return "", err
	}

	session, err = s.login(ctx)
	if err != nil {
		return "", err
	}
	err = s.store.Put(ctx, s.key, session, s.ttl)
	if err != nil {
		return "", err
	}

	s.cache.Add(s.key, session)
	return session, nil
}
