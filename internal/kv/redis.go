package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWithTTL increments KEYS[1] and sets a PEXPIRE of ARGV[1] ms when the
// increment opened the window. A counter left without a TTL (e.g. written by
// an older deployment) is also given one so it cannot block forever.
var incrWithTTL = redis.NewScript(`
local v = redis.call('INCR', KEYS[1])
local t = redis.call('PTTL', KEYS[1])
if v == 1 or t == -1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  t = tonumber(ARGV[1])
end
return {v, t}
`)

// RedisStore implements Store on top of go-redis.
type RedisStore struct {
	c redis.UniversalClient
}

// Open parses a redis:// or rediss:// URL, connects, and verifies the
// connection with PING. TLS is enabled by go-redis for rediss:// URLs.
func Open(ctx context.Context, url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.MaxRetries = 3
	opt.MinRetryBackoff = 50 * time.Millisecond
	opt.MaxRetryBackoff = 2 * time.Second

	s := NewRedisStore(redis.NewClient(opt))
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// NewRedisStore wraps an existing client (tests pass one pointed at miniredis).
func NewRedisStore(c redis.UniversalClient) *RedisStore {
	return &RedisStore{c: c}
}

// wrap maps go-redis errors to the package taxonomy.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

func toArgs(members []string) []interface{} {
	out := make([]interface{}, len(members))
	for i, m := range members {
		out[i] = m
	}
	return out
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.c.Get(ctx, key).Result()
	if err != nil {
		return "", wrap("get", err)
	}
	return v, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return wrap("set", s.c.Set(ctx, key, value, ttl).Err())
}

func (s *RedisStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.c.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, wrap("setnx", err)
	}
	return ok, nil
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := s.c.Del(ctx, keys...).Result()
	if err != nil {
		return 0, wrap("del", err)
	}
	return n, nil
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.c.Exists(ctx, key).Result()
	if err != nil {
		return false, wrap("exists", err)
	}
	return n == 1, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return wrap("expire", s.c.Expire(ctx, key, ttl).Err())
}

// TTL returns the remaining lifetime; negative values follow Redis
// conventions (-1 no expiry, -2 missing) expressed as durations.
func (s *RedisStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := s.c.PTTL(ctx, key).Result()
	if err != nil {
		return 0, wrap("pttl", err)
	}
	return d, nil
}

func (s *RedisStore) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error) {
	res, err := incrWithTTL.Run(ctx, s.c, []string{key}, ttl.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, wrap("incr", err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("%w: incr: unexpected script reply %v", ErrUnavailable, res)
	}
	count, _ := res[0].(int64)
	ms, _ := res[1].(int64)
	return count, time.Duration(ms) * time.Millisecond, nil
}

func (s *RedisStore) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return wrap("sadd", s.c.SAdd(ctx, key, toArgs(members)...).Err())
}

func (s *RedisStore) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return wrap("srem", s.c.SRem(ctx, key, toArgs(members)...).Err())
}

func (s *RedisStore) SMembers(ctx context.Context, key string) ([]string, error) {
	out, err := s.c.SMembers(ctx, key).Result()
	if err != nil {
		return nil, wrap("smembers", err)
	}
	return out, nil
}

func (s *RedisStore) LPushTrim(ctx context.Context, key, value string, max int64) error {
	_, err := s.c.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.LPush(ctx, key, value)
		if max > 0 {
			p.LTrim(ctx, key, 0, max-1)
		}
		return nil
	})
	return wrap("lpush", err)
}

func (s *RedisStore) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	out, err := s.c.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, wrap("lrange", err)
	}
	return out, nil
}

func (s *RedisStore) HIncrBy(ctx context.Context, key, field string, n int64) error {
	return wrap("hincrby", s.c.HIncrBy(ctx, key, field, n).Err())
}

func (s *RedisStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	out, err := s.c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, wrap("hgetall", err)
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return wrap("ping", s.c.Ping(ctx).Err())
}

func (s *RedisStore) Close() error {
	return s.c.Close()
}

var _ Store = (*RedisStore)(nil)
