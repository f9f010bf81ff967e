// Package kvtest provides a miniredis-backed kv.Store for tests in other
// packages.
package kvtest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-ig-automation/internal/kv"
)

// New starts an in-process Redis server bound to t's lifetime and returns a
// store connected to it together with the server handle (used to
// fast-forward time or inspect keys).
func New(t testing.TB) (*kv.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := kv.NewRedisStore(client)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}
