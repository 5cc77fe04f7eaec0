package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("key not found in cache")

// KeyPrefix namespaces every key this service writes
const KeyPrefix = "curriculum:"

// RedisCache wraps a redis client with the few operations the API needs:
// login lockouts and short-lived dashboard snapshots.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redisURL and pings it
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

func key(k string) string { return KeyPrefix + k }

// Get retrieves a value from cache
func (r *RedisCache) Get(ctx context.Context, k string) (string, error) {
	val, err := r.client.Get(ctx, key(k)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// Set stores a value with expiration
func (r *RedisCache) Set(ctx context.Context, k string, value interface{}, expiration time.Duration) error {
	return r.client.Set(ctx, key(k), value, expiration).Err()
}

// SetJSON stores a JSON-encoded value
func (r *RedisCache) SetJSON(ctx context.Context, k string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.Set(ctx, k, data, expiration)
}

// GetJSON decodes a JSON value into dest
func (r *RedisCache) GetJSON(ctx context.Context, k string, dest interface{}) error {
	val, err := r.Get(ctx, k)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(val), dest)
}

// Delete removes keys
func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = key(k)
	}
	return r.client.Del(ctx, full...).Err()
}

// Exists checks if a key exists
func (r *RedisCache) Exists(ctx context.Context, k string) (bool, error) {
	count, err := r.client.Exists(ctx, key(k)).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IncrementWithWindow bumps a counter and starts its expiry window on the first hit
func (r *RedisCache) IncrementWithWindow(ctx context.Context, k string, window time.Duration) (int64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key(k))
	pipe.ExpireNX(ctx, key(k), window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// TTL returns the remaining time to live of a key
func (r *RedisCache) TTL(ctx context.Context, k string) (time.Duration, error) {
	return r.client.TTL(ctx, key(k)).Result()
}

// Ping checks the connection
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
