package cache

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spaza-link/combo-catalog/internal/logger"
	"go.uber.org/zap"
)

const (
	// DefaultTTL is the freshness window for cached API responses
	DefaultTTL = 5 * time.Minute

	// KeyPrefix namespaces entries in shared backends
	KeyPrefix = "combocatalog:"
)

// Store is a TTL cache for raw API response payloads. An entry is valid
// until its TTL elapses; any successful write to the catalog drops every
// entry via InvalidateAll, so stale reads after writes cannot happen.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, payload []byte) error
	InvalidateAll(ctx context.Context) error
}

// Key builds a deterministic cache key from an endpoint path and its
// query parameters. Parameter names are sorted so identical calls always
// map to the same entry and distinct parameter sets never alias.
func Key(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, url.QueryEscape(name)+"="+url.QueryEscape(params[name]))
	}

	return endpoint + "?" + strings.Join(pairs, "&")
}

type memoryEntry struct {
	payload   []byte
	timestamp time.Time
}

// MemoryStore is the default in-process cache: a mutex-guarded map with
// a fixed TTL. There is no size bound and no eviction beyond the TTL
// check; the catalog is small and entries are short-lived.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store. A non-positive ttl falls
// back to DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached payload if the entry is still fresh
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.timestamp) >= s.ttl {
		return nil, false
	}
	return entry.payload, true
}

// Set stores a payload with the current timestamp, overwriting any
// prior entry for the key
func (s *MemoryStore) Set(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = memoryEntry{payload: payload, timestamp: s.now()}
	return nil
}

// InvalidateAll removes every entry
func (s *MemoryStore) InvalidateAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]memoryEntry)
	return nil
}

// RedisStore backs the cache with Redis so multiple processes can share
// a single view of the catalog. Semantics match MemoryStore: fixed TTL,
// full invalidation on writes.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing Redis client
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Connect returns a Redis-backed store when addr is reachable, and falls
// back to an in-memory store otherwise. The caller gets a working cache
// either way.
func Connect(addr, password string, ttl time.Duration) Store {
	if addr == "" {
		logger.Log.Info("Redis cache not configured, using in-memory cache")
		return NewMemoryStore(ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Log.Warn("Failed to connect to Redis, using in-memory cache",
			zap.String("address", addr),
			zap.Error(err),
		)
		return NewMemoryStore(ttl)
	}

	logger.Log.Info("Redis cache enabled", zap.String("address", addr))
	return NewRedisStore(client, ttl)
}

// Get returns the cached payload for key, if present and fresh
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.client.Get(ctx, KeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Log.Warn("Cache get error", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return data, true
}

// Set stores a payload under key with the store's TTL
func (s *RedisStore) Set(ctx context.Context, key string, payload []byte) error {
	if err := s.client.Set(ctx, KeyPrefix+key, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// InvalidateAll removes every entry under the key prefix
func (s *RedisStore) InvalidateAll(ctx context.Context) error {
	keys, err := s.client.Keys(ctx, KeyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("failed to list cache keys: %w", err)
	}

	if len(keys) > 0 {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("failed to delete cache keys: %w", err)
		}
	}
	return nil
}

// Close releases the underlying Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
