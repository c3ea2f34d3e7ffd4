package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CallAttempt is the ephemeral state of one ringing or active call, keyed
// by the receiver's user id (which doubles as the media room id in the 1:1
// case). Distinct from the persisted call-history message.
type CallAttempt struct {
	CallerID       uint   `json:"callerId"`
	CallerUsername string `json:"callerUsername"`
	CallerAvatar   string `json:"callerAvatar"`
	Type           string `json:"type"`
	RoomID         string `json:"roomId"`
}

// CallCache holds call attempts between initiation and end. Ringing entries
// expire on a short TTL so an abandoned ring can never serve stale caller
// data to a later, unrelated call; Activate extends an entry once the call
// is accepted, since an active call may far outlive any reasonable ring
// window and end-of-call routing still needs the cached counterpart.
type CallCache interface {
	Put(ctx context.Context, key string, attempt CallAttempt) error
	Get(ctx context.Context, key string) (CallAttempt, bool, error)
	Activate(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
}

const callCachePrefix = "call:"

// RedisCallCache backs the call-attempt cache with redis so attempts
// survive a process restart and are shared across server instances behind
// the socket.io redis adapter.
type RedisCallCache struct {
	client    *redis.Client
	ringTTL   time.Duration
	activeTTL time.Duration
}

func NewRedisCallCache(client *redis.Client, ringTTL, activeTTL time.Duration) *RedisCallCache {
	return &RedisCallCache{client: client, ringTTL: ringTTL, activeTTL: activeTTL}
}

func (c *RedisCallCache) Put(ctx context.Context, key string, attempt CallAttempt) error {
	raw, err := json.Marshal(attempt)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, callCachePrefix+key, raw, c.ringTTL).Err()
}

func (c *RedisCallCache) Activate(ctx context.Context, key string) error {
	return c.client.Expire(ctx, callCachePrefix+key, c.activeTTL).Err()
}

func (c *RedisCallCache) Get(ctx context.Context, key string) (CallAttempt, bool, error) {
	raw, err := c.client.Get(ctx, callCachePrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return CallAttempt{}, false, nil
	}
	if err != nil {
		return CallAttempt{}, false, err
	}
	var attempt CallAttempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return CallAttempt{}, false, err
	}
	return attempt, true, nil
}

func (c *RedisCallCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, callCachePrefix+key).Err()
}

// MemoryCallCache is the in-process variant used by tests.
type MemoryCallCache struct {
	mu        sync.Mutex
	ringTTL   time.Duration
	activeTTL time.Duration
	entries   map[string]memoryCallEntry
}

type memoryCallEntry struct {
	attempt CallAttempt
	expires time.Time
}

func NewMemoryCallCache(ringTTL, activeTTL time.Duration) *MemoryCallCache {
	return &MemoryCallCache{ringTTL: ringTTL, activeTTL: activeTTL, entries: make(map[string]memoryCallEntry)}
}

func (c *MemoryCallCache) Put(_ context.Context, key string, attempt CallAttempt) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryCallEntry{attempt: attempt, expires: time.Now().Add(c.ringTTL)}
	return nil
}

func (c *MemoryCallCache) Activate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil
	}
	entry.expires = time.Now().Add(c.activeTTL)
	c.entries[key] = entry
	return nil
}

func (c *MemoryCallCache) Get(_ context.Context, key string) (CallAttempt, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return CallAttempt{}, false, nil
	}
	if time.Now().After(entry.expires) {
		delete(c.entries, key)
		return CallAttempt{}, false, nil
	}
	return entry.attempt, true, nil
}

func (c *MemoryCallCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}
