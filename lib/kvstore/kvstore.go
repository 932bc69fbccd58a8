package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when a key is absent or has expired.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is the cache contract the scraper pipeline runs against: session
// tokens live under short TTLs, derived artifacts live forever and get
// overwritten on every successful run.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	// Put writes value under key. A ttl of 0 means no expiry.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore dials redis from a URL of the form redis://host:port/db.
// The connection is verified eagerly so a misconfigured store fails at
// startup instead of on the first scheduled run.
func NewRedisStore(ctx context.Context, redisURL string) (RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return RedisStore{}, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return RedisStore{}, err
	}
	return RedisStore{rdb: rdb}, nil
}

// NewRedisStoreFromClient wraps an existing client, used by tests to point
// the store at miniredis.
func NewRedisStoreFromClient(rdb *redis.Client) RedisStore {
	return RedisStore{rdb: rdb}
}

func (s RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s RedisStore) Close() error {
	return s.rdb.Close()
}
