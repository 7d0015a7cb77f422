package places

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash holding the cache when the DSN names none.
const DefaultRedisKey = "gprofile:places"

// RedisStore keeps the cache in a single redis hash. An empty field value
// stands for "resolved to nothing".
type RedisStore struct {
	*MemoryStore
	client *redis.Client
	key    string
}

// NewRedisClient builds a client from a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// OpenRedisStore loads every field of hash key.
func OpenRedisStore(ctx context.Context, client *redis.Client, key string) (*RedisStore, error) {
	if key == "" {
		key = DefaultRedisKey
	}
	entries, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, &CacheIOError{Op: "load", Path: key, Err: err}
	}

	s := &RedisStore{MemoryStore: NewMemoryStore(), client: client, key: key}
	s.load(entries)
	return s, nil
}

// Flush writes changed fields with one HSET.
func (s *RedisStore) Flush(ctx context.Context) error {
	written := s.pending()
	if len(written) == 0 {
		return nil
	}

	values := make([]any, 0, 2*len(written))
	for key, name := range written {
		values = append(values, key, name)
	}
	if err := s.client.HSet(ctx, s.key, values...).Err(); err != nil {
		return &CacheIOError{Op: "flush", Path: s.key, Err: err}
	}

	s.markClean(written)
	return nil
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
