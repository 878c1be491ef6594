package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// lockTTL bounds a lock left behind by a crashed holder.
const lockTTL = 30 * time.Second

// RedisStore keeps sessions in Redis so several instances can share them.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore from a redis:// URL.
func NewRedisStore(rawURL, prefix string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("listing: parse redis url: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(opts), prefix, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) key(id string) string {
	return s.prefix + "listing:" + id
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (State, error) {
	b, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrSessionNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("listing: redis get: %w", err)
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{}, fmt.Errorf("listing: decode session: %w", err)
	}
	s.client.Expire(ctx, s.key(id), s.ttl)
	return st, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, id string, st State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("listing: encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("listing: redis set: %w", err)
	}
	return nil
}

// Lock implements Store with SET NX. Only the holder's token releases it.
func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	lockKey := s.key(id) + ":lock"
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey, token, lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("listing: redis lock: %w", err)
	}
	if !ok {
		return nil, ErrLoadInFlight
	}
	return func() {
		releaseLock.Run(context.Background(), s.client, []string{lockKey}, token)
	}, nil
}

var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
