package cart

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	ErrKeyNotFound   = errors.New("cart: key not found")
	ErrQuotaExceeded = errors.New("cart: storage quota exceeded")
)

// Storage is a small string key/value store for serialized carts.
type Storage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// RedisStorage keeps carts in Redis with a sliding expiry.
type RedisStorage struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStorage(client *redis.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (s *RedisStorage) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	return v, err
}

func (s *RedisStorage) Set(ctx context.Context, key, value string) error {
	err := s.client.Set(ctx, key, value, s.ttl).Err()
	if err != nil && isOOM(err) {
		return ErrQuotaExceeded
	}
	return err
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Redis answers "OOM command not allowed..." once maxmemory is reached.
func isOOM(err error) bool {
	return strings.HasPrefix(err.Error(), "OOM")
}

// MemoryStorage keeps carts in process. With a positive quota, writes that would grow the
// stored bytes past it fail with ErrQuotaExceeded.
type MemoryStorage struct {
	mu    sync.Mutex
	data  map[string]string
	quota int
	used  int
}

func NewMemoryStorage(quota int) *MemoryStorage {
	return &MemoryStorage{data: map[string]string{}, quota: quota}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	used := s.used - len(s.data[key]) + len(value)
	if s.quota > 0 && used > s.quota {
		return ErrQuotaExceeded
	}
	s.data[key] = value
	s.used = used
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.used -= len(s.data[key])
	delete(s.data, key)
	return nil
}
