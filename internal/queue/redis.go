package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/veriloan/backend/internal/config"
)

const wakeListKey = "queue:wake"

// RedisClient wakes idle workers when jobs are enqueued. The database remains
// the source of truth; redis only shortens the pickup latency.
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client, ctx: ctx}, nil
}

// Push signals that a job is ready
func (r *RedisClient) Push(jobID string) error {
	return r.client.LPush(r.ctx, wakeListKey, jobID).Err()
}

// Pop blocks up to timeout for a wake-up signal. Returns redis.Nil on timeout.
func (r *RedisClient) Pop(timeout time.Duration) (string, error) {
	res, err := r.client.BRPop(r.ctx, timeout, wakeListKey).Result()
	if err != nil {
		return "", err
	}
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

// Close closes the redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}
