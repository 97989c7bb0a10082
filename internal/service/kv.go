package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// KV is the small persistence surface the services need: JSON blobs by key.
// Get returns (nil, nil) when the key does not exist.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// RedisKV stores blobs in redis without expiration.
type RedisKV struct {
	redis *redis.Client
}

// NewRedisKV wraps a redis client as a KV.
func NewRedisKV(redisClient *redis.Client) *RedisKV {
	return &RedisKV{redis: redisClient}
}

func (kv *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := kv.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (kv *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.redis.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// MemoryKV is an in-process KV for tests and redis-less development.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV returns an empty in-memory KV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (kv *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	data, ok := kv.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (kv *MemoryKV) Set(_ context.Context, key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	kv.data[key] = stored
	return nil
}
