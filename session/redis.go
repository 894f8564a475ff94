package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fathom:session:"

// RedisStore keeps session blobs in Redis so multiple processes can share
// conversation state. Entries expire after TTL when one is set.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets an expiry on stored sessions. Zero means keep forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore connects to the given address (e.g. "localhost:6379").
func NewRedisStore(addr string, optFns ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
	}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, optFns ...RedisOption) *RedisStore {
	s := &RedisStore{client: client}
	for _, fn := range optFns {
		fn(s)
	}
	return s
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, data []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return data, nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
