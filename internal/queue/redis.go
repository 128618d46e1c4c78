// SPDX-License-Identifier: MIT

package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	readyKey   = "mediamend:queue:ready"
	pendingKey = "mediamend:queue:pending"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string // Redis server address (host:port)
	Password string // Redis password (optional)
	DB       int    // Redis database number
}

// RedisQueue is a Redis-list-backed Queue. Ready messages live in a list;
// received messages move to a pending hash until acknowledged, so a crashed
// consumer leaves them recoverable.
type RedisQueue struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisQueue connects to Redis and verifies the connection.
func NewRedisQueue(config RedisConfig, logger zerolog.Logger) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info().
		Str("addr", config.Addr).
		Int("db", config.DB).
		Msg("connected to Redis queue")

	return &RedisQueue{client: client, logger: logger}, nil
}

func (q *RedisQueue) Send(ctx context.Context, data []byte) error {
	if err := q.client.LPush(ctx, readyKey, data).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}

func (q *RedisQueue) Receive(ctx context.Context, max int) ([]Message, error) {
	if max <= 0 {
		return nil, nil
	}
	var out []Message
	for len(out) < max {
		data, err := q.client.RPop(ctx, readyKey).Bytes()
		if err == redis.Nil {
			break
		}
		if err != nil {
			return out, fmt.Errorf("redis rpop: %w", err)
		}
		msg := Message{ID: uuid.NewString(), Data: data}
		if err := q.client.HSet(ctx, pendingKey, msg.ID, data).Err(); err != nil {
			q.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("failed to track pending message")
		}
		out = append(out, msg)
	}
	return out, nil
}

func (q *RedisQueue) Ack(ctx context.Context, id string) error {
	if err := q.client.HDel(ctx, pendingKey, id).Err(); err != nil {
		return fmt.Errorf("redis hdel: %w", err)
	}
	return nil
}

// RecoverPending moves messages left in the pending hash back onto the ready
// list. Called once at startup to reclaim work from a crashed consumer.
func (q *RedisQueue) RecoverPending(ctx context.Context) (int, error) {
	entries, err := q.client.HGetAll(ctx, pendingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis hgetall: %w", err)
	}
	recovered := 0
	for id, data := range entries {
		if err := q.client.LPush(ctx, readyKey, data).Err(); err != nil {
			return recovered, fmt.Errorf("redis lpush: %w", err)
		}
		if err := q.client.HDel(ctx, pendingKey, id).Err(); err != nil {
			return recovered, fmt.Errorf("redis hdel: %w", err)
		}
		recovered++
	}
	if recovered > 0 {
		q.logger.Info().Int("messages", recovered).Msg("recovered pending queue messages")
	}
	return recovered, nil
}

// HealthCheck verifies the Redis connection.
func (q *RedisQueue) HealthCheck(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
