package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingAttempts = 5

// Cache stores JSON values in redis. A Cache without a client is valid and
// behaves as an always-empty cache.
type Cache struct {
	client *redis.Client
}

func New(ctx context.Context, url string) (*Cache, error) {
	if url == "" {
		return &Cache{}, nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return &Cache{}, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	var lastErr error
	for i := 0; i < pingAttempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			return &Cache{client: client}, nil
		}

		select {
		case <-ctx.Done():
			_ = client.Close()
			return &Cache{}, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	_ = client.Close()
	return &Cache{}, fmt.Errorf("redis ping failed after %d attempts: %w", pingAttempts, lastErr)
}

func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

func (c *Cache) Available() bool {
	return c != nil && c.client != nil
}

// Get decodes the value at key into dest and reports whether it was present.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.Available() {
		return false, nil
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Available() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Available() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// DeleteMatching removes every key matching the glob pattern.
func (c *Cache) DeleteMatching(ctx context.Context, pattern string) error {
	if !c.Available() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.Delete(ctx, keys...)
}

func (c *Cache) Publish(ctx context.Context, channel string, message any) error {
	if !c.Available() {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, channel, data).Err()
}

func (c *Cache) Close() error {
	if !c.Available() {
		return nil
	}
	return c.client.Close()
}
