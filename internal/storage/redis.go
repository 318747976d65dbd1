package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefix = "reelbox:slot:"

// RedisSlots implements Slots on top of a Redis server. Slots never expire.
type RedisSlots struct {
	client *redis.Client
	log    logrus.FieldLogger
}

// NewRedisSlots connects to addr and verifies the server answers a PING.
func NewRedisSlots(ctx context.Context, addr string, logger logrus.FieldLogger) (*RedisSlots, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", addr, err)
	}
	logger.WithField("addr", addr).Info("Redis slots connected")
	return &RedisSlots{
		client: client,
		log:    logger.WithField("component", "storage"),
	}, nil
}

// Get reads the raw content of a slot.
func (s *RedisSlots) Get(ctx context.Context, slot string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", slot, err)
	}
	return data, nil
}

// Put overwrites the content of a slot.
func (s *RedisSlots) Put(ctx context.Context, slot string, data []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+slot, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", slot, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisSlots) Close() error {
	return s.client.Close()
}
