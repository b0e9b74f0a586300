//go:build integration

// Package testutil provides helpers for integration tests that need a live
// Redis, a reachable IRR server or an installed prefix-list tool.
package testutil

import (
	"context"
	"net"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisAddr returns the address of the test Redis (host:port) from
// FILTERUPDATE_TEST_REDIS_ADDR, or "" when unset.
func RedisAddr() string {
	return os.Getenv("FILTERUPDATE_TEST_REDIS_ADDR")
}

// SkipIfNoRedis skips the test if the test Redis is not reachable and
// returns its address otherwise.
func SkipIfNoRedis(t *testing.T) string {
	t.Helper()

	addr := RedisAddr()
	if addr == "" {
		t.Skip("test Redis not configured: set FILTERUPDATE_TEST_REDIS_ADDR")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", addr, err)
	}
	return addr
}

// FlushKeys deletes every key matching pattern.
func FlushKeys(t *testing.T, addr, pattern string) {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	keys, err := client.Keys(ctx, pattern).Result()
	if err != nil {
		t.Fatalf("listing %s: %v", pattern, err)
	}
	if len(keys) == 0 {
		return
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		t.Fatalf("deleting %s: %v", pattern, err)
	}
}

// TTL returns the remaining lifetime of key.
func TTL(t *testing.T, addr, key string) time.Duration {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	d, err := client.TTL(context.Background(), key).Result()
	if err != nil {
		t.Fatalf("TTL %s: %v", key, err)
	}
	return d
}

// SkipIfNoIRR skips the test unless FILTERUPDATE_TEST_IRR names a registry
// that accepts connections on port 43; it returns that server.
func SkipIfNoIRR(t *testing.T) string {
	t.Helper()

	server := os.Getenv("FILTERUPDATE_TEST_IRR")
	if server == "" {
		t.Skip("live registry tests disabled: set FILTERUPDATE_TEST_IRR=rr.ntt.net")
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(server, "43"), 5*time.Second)
	if err != nil {
		t.Skipf("registry %s not reachable: %v", server, err)
	}
	conn.Close()
	return server
}

// SkipIfNoTool skips the test if name is not on PATH.
func SkipIfNoTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not installed", name)
	}
}

// Context returns a context cancelled when the test ends or after a minute.
func Context(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	t.Cleanup(cancel)
	return ctx
}

// Must is a generic helper that calls t.Fatal if err is not nil and returns the value.
func Must[T any](t *testing.T, val T, err error) T {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return val
}
