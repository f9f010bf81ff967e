// Package kv is the key-value storage layer shared by the automation store,
// the dedup and rate gate, and analytics. It exposes the narrow set of
// primitives those components need (strings with TTL, conditional set,
// counters, sets, lists, hashes) behind a Store interface so that callers
// never depend on a concrete Redis client.
//
// Error semantics:
//   - A missing key is reported as ErrNotFound (only by Get).
//   - Any transport or server failure is wrapped with ErrUnavailable so the
//     webhook path can fail closed with errors.Is(err, kv.ErrUnavailable).
package kv

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Get when the key does not exist or expired.
	ErrNotFound = errors.New("kv: key not found")

	// ErrUnavailable wraps every failure to reach or use the backing store.
	ErrUnavailable = errors.New("kv: store unavailable")
)

// Store is the storage contract used across the application.
//
// A ttl of zero means "no expiry" for Set. Implementations must make SetNX
// and IncrWithTTL atomic at the store level; the dedup and rate gate relies
// on that for correctness under concurrent deliveries.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)

	// IncrWithTTL increments key and, when the increment opened a new
	// window (post-increment value 1), sets its TTL. It returns the new
	// value and the remaining TTL.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, time.Duration, error)

	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)

	// LPushTrim prepends value and trims the list to at most max entries.
	LPushTrim(ctx context.Context, key, value string, max int64) error
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	HIncrBy(ctx context.Context, key, field string, n int64) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	Ping(ctx context.Context) error
	Close() error
}
