package redisadapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"adrelay/internal/core/port"
)

// Connect opens a redis client from either a redis:// URL or a bare
// host:port address.
func Connect(addr string) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr}), nil
}

// Cache implements port.Cache on redis: opaque string values with
// prefix-scanned key listing. Entries carry no TTL; the synchronizer owns
// their lifecycle.
type Cache struct {
	client *redis.Client
}

// NewCache returns a cache over the given client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", port.ErrCacheMiss
	}
	return v, err
}

func (c *Cache) Put(ctx context.Context, key, value string) error {
	return c.client.Set(ctx, key, value, 0).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

var _ port.Cache = (*Cache)(nil)
