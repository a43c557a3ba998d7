// Package cache holds short-lived read-through copies of hot lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Cache stores JSON-encodable values under string keys
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// Memory is an in-process TTL cache
type Memory struct {
	entries sync.Map // key -> memoryEntry
	ttl     time.Duration
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl}
}

func (m *Memory) Get(_ context.Context, key string, dst interface{}) error {
	v, ok := m.entries.Load(key)
	if !ok {
		return ErrMiss
	}
	entry := v.(memoryEntry)
	if time.Now().After(entry.expiresAt) {
		m.entries.Delete(key)
		return ErrMiss
	}
	return json.Unmarshal(entry.data, dst)
}

func (m *Memory) Set(_ context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries.Store(key, memoryEntry{data: data, expiresAt: time.Now().Add(m.ttl)})
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}

// Redis shares the cache between replicas
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string, dst interface{}) error {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func (r *Redis) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Connect returns a Redis-backed cache when addr is reachable and an
// in-memory one otherwise.
func Connect(ctx context.Context, addr string, ttl time.Duration) Cache {
	if addr == "" {
		log.Println("REDIS_ADDR not set, using in-memory cache")
		return NewMemory(ttl)
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unreachable at %s (%v), using in-memory cache", addr, err)
		_ = client.Close()
		return NewMemory(ttl)
	}
	log.Printf("Connected to Redis at %s", addr)
	return NewRedis(client, ttl)
}
