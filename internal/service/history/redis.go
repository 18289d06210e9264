package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zhouzirui/z-guardian/backend/internal/metrics"
	"github.com/zhouzirui/z-guardian/backend/internal/model/call"
)

// RedisStore keeps history in a capped Redis list, newest at the head.
type RedisStore struct {
	client     *redis.Client
	key        string
	maxEntries int
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL, key string, maxEntries int) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreWithClient(client, key, maxEntries), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, key string, maxEntries int) *RedisStore {
	if key == "" {
		key = "guardian:history"
	}
	return &RedisStore{client: client, key: key, maxEntries: maxEntries}
}

// Record implements Recorder.
func (s *RedisStore) Record(ctx context.Context, entry call.HistoryEntry) error {
	if entry.ID == "" {
		return ErrInvalidEntry
	}
	start := time.Now()
	defer func() {
		metrics.HistoryWriteLatency.WithLabelValues("redis").Observe(time.Since(start).Seconds())
	}()

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.key, data)
	if s.maxEntries > 0 {
		pipe.LTrim(ctx, s.key, 0, int64(s.maxEntries-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context, limit int) ([]call.HistoryEntry, error) {
	limit = normalizeLimit(limit)

	raw, err := s.client.LRange(ctx, s.key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	entries := make([]call.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry call.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			// Skip malformed entries
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
