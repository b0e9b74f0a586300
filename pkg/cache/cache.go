// Package cache keeps resolved prefix-lists in Redis so repeated runs
// against the same AS-SET skip the registry round trips.
//
// Key format: FILTERUPDATE_PREFIXES|<method>|<family>|<server>|<as-set>|<list>
// where method is "direct" or "tool:<binary>".
// Values are zstd-compressed JSON entries.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/klauspost/compress/zstd"

	"github.com/newtron-network/filterupdate/pkg/util"
)

// KeyPrefix is the table name of every cache key.
const KeyPrefix = "FILTERUPDATE_PREFIXES"

// DefaultTTL is how long an entry stays valid.
const DefaultTTL = time.Hour

// ErrMiss is returned by a Store when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Store is the key/value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Entry is one cached resolution.
type Entry struct {
	Config   string    `json:"config"`
	Prefixes []string  `json:"prefixes"`
	Method   string    `json:"method"`
	Source   string    `json:"source"`
	StoredAt time.Time `json:"stored_at"`
}

// Key builds the cache key for one resolution. Results from different
// methods never share a key.
func Key(method, family, server, asSet, listName string) string {
	return strings.Join([]string{KeyPrefix, method, family, server, asSet, listName}, "|")
}

// Cache reads and writes entries. A nil *Cache is valid and always misses.
// Backend failures are logged and never returned: the cache only ever
// saves work.
type Cache struct {
	store Store
	ttl   time.Duration
}

// New wraps store. A zero ttl uses DefaultTTL.
func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: store, ttl: ttl}
}

// Load returns the entry for key, if present and decodable.
func (c *Cache) Load(ctx context.Context, key string) (*Entry, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			util.WithField("key", key).Warnf("Prefix cache read failed: %v", err)
		}
		return nil, false
	}
	entry, err := Decode(raw)
	if err != nil {
		util.WithField("key", key).Warnf("Discarding unreadable cache entry: %v", err)
		return nil, false
	}
	return entry, true
}

// Save stores entry under key.
func (c *Cache) Save(ctx context.Context, key string, entry *Entry) {
	if c == nil || entry == nil {
		return
	}
	if entry.StoredAt.IsZero() {
		entry.StoredAt = time.Now().UTC()
	}
	raw, err := Encode(entry)
	if err != nil {
		util.WithField("key", key).Warnf("Prefix cache encode failed: %v", err)
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		util.WithField("key", key).Warnf("Prefix cache write failed: %v", err)
		return
	}
	util.WithField("key", key).Debugf("Cached %d prefixes for %s", len(entry.Prefixes), c.ttl)
}

// Close releases the backend.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.store.Close()
}

var (
	encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	decoder, _ = zstd.NewReader(nil)
)

// Encode serializes and compresses an entry.
func Encode(e *Entry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return encoder.EncodeAll(data, nil), nil
}

// Decode decompresses and parses an entry.
func Decode(raw []byte) (*Entry, error) {
	data, err := decoder.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	return &e, nil
}

// RedisStore is a Store backed by a Redis server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a store for the Redis server at addr.
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:        addr,
			DialTimeout: 2 * time.Second,
			ReadTimeout: 2 * time.Second,
		}),
	}
}

// Connect tests the connection.
func (s *RedisStore) Connect(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return raw, err
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Close closes the connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Dial connects to addr and returns a ready cache, or nil when Redis is
// unreachable.
func Dial(ctx context.Context, addr string, ttl time.Duration) *Cache {
	store := NewRedisStore(addr)
	if err := store.Connect(ctx); err != nil {
		util.WithField("redis", addr).Warnf("Prefix cache disabled: %v", err)
		store.Close()
		return nil
	}
	return New(store, ttl)
}
