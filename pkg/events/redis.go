package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zjoart/go-paystack-logistics/pkg/config"
	"github.com/zjoart/go-paystack-logistics/pkg/logger"
)

// NotificationQueue is drained by the delivery service (email/SMS/push),
// which lives outside this process.
const NotificationQueue = "notification_events"

type RedisClient struct {
	Client *redis.Client
}

type NotificationEvent struct {
	NotificationID string    `json:"notification_id"`
	Audience       string    `json:"audience"` // "customer" or "staff"
	Recipient      string    `json:"recipient"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	ShipmentID     string    `json:"shipment_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewRedisClient returns nil when no Redis URL is configured; publishers treat
// a nil client as "hand-off disabled".
func NewRedisClient(cfg config.Config) *RedisClient {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, notification hand-off disabled")
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Error("Failed to parse Redis url", logger.Fields{"error": err.Error(), "url": cfg.RedisURL})
		opt = &redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       0,
		}
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Error("Failed to connect to Redis", logger.Fields{"error": err.Error(), "url": cfg.RedisURL})
	} else {
		logger.Info("Connected to Redis", logger.Fields{"url": cfg.RedisURL})
	}

	return &RedisClient{Client: rdb}
}

func (r *RedisClient) PublishNotification(ctx context.Context, event NotificationEvent) error {
	if r == nil || r.Client == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := r.Client.RPush(ctx, NotificationQueue, data).Err(); err != nil {
		return fmt.Errorf("failed to push event to redis: %w", err)
	}

	return nil
}

func (r *RedisClient) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
