package timetracking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "break_"

func storeKey(email string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(email))
}

// RedisStore keeps open break starts in Redis with a TTL per key.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) PutIfAbsent(ctx context.Context, email string, start time.Time, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, storeKey(email), start.UTC().Format(time.RFC3339Nano), ttl).Result()
}

func (s *RedisStore) Take(ctx context.Context, email string) (time.Time, bool, error) {
	raw, err := s.client.GetDel(ctx, storeKey(email)).Result()
	return parseStored(raw, err)
}

func (s *RedisStore) Peek(ctx context.Context, email string) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, storeKey(email)).Result()
	return parseStored(raw, err)
}

func parseStored(raw string, err error) (time.Time, bool, error) {
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		// An unreadable start cannot be accounted; treat it as absent.
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// MemoryStore is the single-process fallback used when Redis is not
// configured. Entries expire lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	start     time.Time
	expiresAt time.Time
}

// NewMemoryStore creates an empty store reading the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock lets tests control expiry.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: now}
}

func (s *MemoryStore) live(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) PutIfAbsent(_ context.Context, email string, start time.Time, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey(email)
	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = memoryEntry{start: start, expiresAt: s.now().Add(ttl)}
	return true, nil
}

func (s *MemoryStore) Take(_ context.Context, email string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey(email)
	e, ok := s.live(key)
	if !ok {
		return time.Time{}, false, nil
	}
	delete(s.entries, key)
	return e.start, true, nil
}

func (s *MemoryStore) Peek(_ context.Context, email string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(storeKey(email))
	return e.start, ok, nil
}
