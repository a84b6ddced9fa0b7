package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// incrementScript counts a hit and starts the window on the first hit, in
// one round trip.
var incrementScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisClient parses a redis:// URL and checks connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Record, error) {
	res, err := incrementScript.Run(ctx, s.client, []string{s.key(key)}, window.Milliseconds()).Result()
	if err != nil {
		return Record{}, fmt.Errorf("redis increment: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return Record{}, fmt.Errorf("redis increment: unexpected reply %v", res)
	}
	count, _ := vals[0].(int64)
	ttl, _ := vals[1].(int64)

	return Record{
		Count:   int(count),
		ResetAt: time.Now().Add(time.Duration(ttl) * time.Millisecond),
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Record, bool, error) {
	pipe := s.client.Pipeline()
	get := pipe.Get(ctx, s.key(key))
	ttl := pipe.PTTL(ctx, s.key(key))
	_, err := pipe.Exec(ctx)
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("redis get: %w", err)
	}

	count, err := get.Int()
	if err != nil {
		return Record{}, false, fmt.Errorf("redis get: %w", err)
	}
	return Record{Count: count, ResetAt: time.Now().Add(ttl.Val())}, true, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}
