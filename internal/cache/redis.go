// Package cache publishes released room results to a Redis queue for
// downstream stats consumers. Publishing is best effort; the coordinator
// never fails a request over it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/harmonic-games/stagepass/internal/models"
)

// DefaultQueueName is the Redis list results are pushed onto.
var DefaultQueueName = "stagepass_results"

// ResultRecord is one released aggregate, serialized to the queue.
type ResultRecord struct {
	RoomID    uuid.UUID           `json:"room_id"`
	LiveID    int64               `json:"live_id"`
	Results   []models.ResultUser `json:"results"`
	Timestamp int64               `json:"timestamp"`
}

// Archiver wraps the Redis client and queue name.
type Archiver struct {
	rdb   *redis.Client
	queue string
}

// Connect initializes an Archiver from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - RESULTS_QUEUE_NAME (optional)
func Connect() (*Archiver, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to Redis at %s: %w", addr, err)
	}
	return &Archiver{rdb: rdb, queue: getEnv("RESULTS_QUEUE_NAME", DefaultQueueName)}, nil
}

// PublishResults serializes the record and pushes it onto the queue.
func (a *Archiver) PublishResults(ctx context.Context, record ResultRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal result record: %w", err)
	}
	if err := a.rdb.RPush(ctx, a.queue, data).Err(); err != nil {
		return fmt.Errorf("rpush to Redis list %q: %w", a.queue, err)
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
