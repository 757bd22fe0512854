// Package store provides the atomic key-value state store backing every
// counter and marker in the bot. Redis is the production implementation;
// its SETNX and INCRBY primitives are the only synchronization mechanism
// between concurrent update handlers, so nothing here may cache values
// in process.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"communitybot/entity"
	"communitybot/internal/config"
	"communitybot/lib/sl"
)

type RedisStore struct {
	client *redis.Client
	log    *slog.Logger
}

func NewRedis(conf config.RedisConfig, log *slog.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Host + ":" + conf.Port,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{
		client: client,
		log:    log.With(sl.Module("store.redis")),
	}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// storeError maps a client error to the transient ErrStoreUnavailable
// class so callers can abort the event without inventing partial state.
func (s *RedisStore) storeError(op string, err error) error {
	s.log.Warn("redis operation failed", slog.String("op", op), sl.Err(err))
	return fmt.Errorf("%w: %s: %v", entity.ErrStoreUnavailable, op, err)
}

// Get returns the value and whether the key exists.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.storeError("get", err)
	}
	return val, true, nil
}

// GetInt64 reads a counter; an absent key reads as zero.
func (s *RedisStore) GetInt64(ctx context.Context, key string) (int64, error) {
	val, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, s.storeError("get", err)
	}
	return val, nil
}

// SetIfAbsent atomically writes the key only when it does not exist yet and
// reports whether this call won. A ttl of zero means no expiration.
func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, s.storeError("setnx", err)
	}
	return ok, nil
}

// IncrBy atomically adds delta to a counter, creating it at zero.
func (s *RedisStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	val, err := s.client.IncrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, s.storeError("incrby", err)
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return s.storeError("set", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return s.storeError("del", err)
	}
	return nil
}

// Expire sets a TTL on an existing key. Used for housekeeping on daily
// counters; losing the TTL is harmless, so callers may ignore the error.
func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return s.storeError("expire", err)
	}
	return nil
}
