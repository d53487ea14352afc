package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bike-rental-go/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis shares bike snapshots between server processes that use the same database.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 3

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			zap.L().Warn("Failed to close redis client after ping failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	zap.L().Info("Using redis bike status cache", zap.String("addr", opt.Addr), zap.Duration("ttl", ttl))
	return &Redis{client: client, ttl: ttl}, nil
}

func statusKey(bikeId int64) string {
	return fmt.Sprintf("bike:%d:status", bikeId)
}

func (r *Redis) Get(ctx context.Context, bikeId int64) (*models.BikeStatus, bool) {
	val, err := r.client.Get(ctx, statusKey(bikeId)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zap.L().Warn("Bike status cache read failed", zap.Int64("bike_id", bikeId), zap.Error(err))
		}
		return nil, false
	}

	var status models.BikeStatus
	if err := json.Unmarshal(val, &status); err != nil {
		zap.L().Warn("Discarding undecodable cached bike status", zap.Int64("bike_id", bikeId), zap.Error(err))
		return nil, false
	}
	return &status, true
}

func (r *Redis) Set(ctx context.Context, status *models.BikeStatus) error {
	if status == nil {
		return fmt.Errorf("cannot cache nil bike status")
	}
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("encode bike status: %w", err)
	}
	if err := r.client.Set(ctx, statusKey(status.Id), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache bike status: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context, bikeId int64) error {
	if err := r.client.Del(ctx, statusKey(bikeId)).Err(); err != nil {
		return fmt.Errorf("invalidate bike status: %w", err)
	}
	return nil
}

func (r *Redis) Close() {
	if err := r.client.Close(); err != nil {
		zap.L().Warn("Failed to close redis client", zap.Error(err))
	}
}
