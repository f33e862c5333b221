// Package cache stores rendered QR bill documents so repeated downloads do not
// render and merge the PDFs again.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "switzbillz:pdf:"

// PDFCache stores rendered documents by key.
type PDFCache interface {
	// Get returns the cached document. ok is false on a miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Key returns the cache key of an order document rendered with the given
// settings fingerprint.
func Key(orderID int64, fingerprint string) string {
	return fmt.Sprintf("%d:%s", orderID, fingerprint)
}

// Config holds Redis connection configuration
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis is a PDFCache backed by Redis.
type Redis struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg Config) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisWithClient(rdb, cfg.TTL), nil
}

// NewRedisWithClient wraps an existing Redis client.
func NewRedisWithClient(rdb redis.UniversalClient, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached PDF: %w", err)
	}
	return data, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, data []byte) error {
	if err := r.rdb.Set(ctx, keyPrefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache PDF: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cached PDF: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.rdb.Close()
}

// Nop is a PDFCache that never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error           { return nil }
func (Nop) Delete(context.Context, string) error                { return nil }
