package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aptedu/scholarx/pkg/utils"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RefreshChannel is the pub/sub channel out-of-process consumers watch.
const RefreshChannel = "scholarx:refresh"

// Publisher republishes refresh events over Redis Pub/Sub for consumers
// outside this process. It is strictly best-effort: a publish failure is
// logged and never fails the refresh that produced it.
type Publisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewPublisher creates a Publisher using environment variables for
// configuration:
//   - REDIS_HOST: Redis host (default: "localhost")
//   - REDIS_PORT: Redis port (default: "6379")
//   - REDIS_PASSWORD: Redis password (default: "")
//   - REDIS_DB: Redis database number (default: 0)
func NewPublisher(ctx context.Context, logger *zap.Logger) (*Publisher, error) {
	host := utils.Env("REDIS_HOST", "localhost")
	port := utils.Env("REDIS_PORT", "6379")
	password := utils.Env("REDIS_PASSWORD", "")
	db := utils.EnvInt("REDIS_DB", 0)

	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		PoolSize:     10,
		MinIdleConns: 2,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", db))

	return &Publisher{client: rdb, logger: logger}, nil
}

// PublishRefresh publishes a refresh event. Errors are logged, not returned.
func (p *Publisher) PublishRefresh(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn("Failed to encode refresh event", zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, RefreshChannel, payload).Err(); err != nil {
		p.logger.Warn("Failed to publish refresh event",
			zap.String("channel", RefreshChannel),
			zap.Error(err))
	}
}

// Health checks if Redis is reachable.
func (p *Publisher) Health(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
