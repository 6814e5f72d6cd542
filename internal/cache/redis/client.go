package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gikai-viz/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SetCardList caches one card-list response keyed by the hash of its filter.
func (c *Client) SetCardList(ctx context.Context, filterHash string, response interface{}, ttl time.Duration) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("failed to marshal card list: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("cards:%s", filterHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set card list cache: %w", err)
	}

	logger.Debug("Card list cached", zap.String("filter_hash", filterHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetCardList(ctx context.Context, filterHash string, response interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("cards:%s", filterHash)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get card list cache: %w", err)
	}

	err = json.Unmarshal(data, response)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal card list: %w", err)
	}

	logger.Debug("Card list cache hit", zap.String("filter_hash", filterHash))
	return true, nil
}

// SetAnalysis caches a processed file's analysis blob for the public viewer.
func (c *Client) SetAnalysis(ctx context.Context, fileID string, blob string, ttl time.Duration) error {
	err := c.client.Set(ctx, fmt.Sprintf("analysis:%s", fileID), blob, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set analysis cache: %w", err)
	}
	return nil
}

func (c *Client) GetAnalysis(ctx context.Context, fileID string) (string, bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("analysis:%s", fileID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get analysis cache: %w", err)
	}
	return data, true, nil
}

// InvalidateCards drops every cached card list and analysis blob. Called
// after any reparse or import, since card generations replace wholesale.
func (c *Client) InvalidateCards(ctx context.Context) error {
	for _, pattern := range []string{"cards:*", "analysis:*"} {
		iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			err := c.client.Del(ctx, iter.Val()).Err()
			if err != nil {
				logger.Warn("Failed to delete cache key", zap.Error(err))
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to iterate cache keys: %w", err)
		}
	}

	logger.Info("Card cache invalidated")
	return nil
}

func (c *Client) IncrementMetric(ctx context.Context, metricName string) error {
	return c.client.Incr(ctx, fmt.Sprintf("metric:%s", metricName)).Err()
}

func (c *Client) GetMetric(ctx context.Context, metricName string) (int64, error) {
	val, err := c.client.Get(ctx, fmt.Sprintf("metric:%s", metricName)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}
