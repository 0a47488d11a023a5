package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements Queue on a Redis list. Producers LPUSH and consumers
// BRPOP, which yields FIFO delivery with atomic removal under concurrent
// consumers.
type RedisQueue struct {
	client *redis.Client
	name   string
	logger *slog.Logger
}

// NewRedisQueue connects to Redis using a redis:// URL and returns a queue
// bound to the named list.
func NewRedisQueue(ctx context.Context, redisURL, name string, logger *slog.Logger) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisQueue{
		client: client,
		name:   name,
		logger: logger.With("component", "redis_queue"),
	}, nil
}

// Close closes the Redis connection.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Ping checks the Redis connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Push appends an envelope to the left end of the list.
func (q *RedisQueue) Push(ctx context.Context, env *Envelope) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	if err := q.client.LPush(ctx, q.name, data).Err(); err != nil {
		q.logger.ErrorContext(ctx, "Failed to push envelope", "queue", q.name, "phone_number", env.PhoneNumber, "error", err)
		return fmt.Errorf("failed to push envelope to %s: %w", q.name, err)
	}

	q.logger.DebugContext(ctx, "Envelope pushed", "queue", q.name, "envelope_id", env.ID, "outbound", env.IsOutbound)
	return nil
}

// Pop blocks up to timeout for the oldest envelope on the right end of the
// list. BRPOP removes atomically, so each envelope reaches one consumer.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	res, err := q.client.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("failed to pop from %s: %w", q.name, err)
	}

	// BRPOP returns [key, value].
	if len(res) != 2 {
		q.logger.ErrorContext(ctx, "Unexpected BRPOP result shape", "queue", q.name, "len", len(res))
		return nil, fmt.Errorf("%w: unexpected BRPOP result", ErrMalformedEnvelope)
	}

	env, err := DecodeEnvelope([]byte(res[1]))
	if err != nil {
		q.logger.ErrorContext(ctx, "Dropping malformed envelope", "queue", q.name, "error", err)
		return nil, err
	}
	return env, nil
}
