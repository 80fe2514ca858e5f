// Package publisher announces finished batches on Redis streams.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MJE43/roulette-strategy-sim/internal/simulator"
)

// DefaultPrefix is the stream key prefix; the strategy key is appended.
const DefaultPrefix = "roulette.batches"

// BatchSummary is the payload published for one finished batch.
type BatchSummary struct {
	RunID    string                       `json:"run_id"`
	Strategy string                       `json:"strategy"`
	Variant  string                       `json:"variant"`
	Result   simulator.BatchSessionResult `json:"result"`
}

// StreamPublisher publishes batch summaries to Redis streams
type StreamPublisher struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// Connect parses a redis:// URL, connects and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

// NewStreamPublisher creates a new stream publisher. An empty prefix means
// DefaultPrefix.
func NewStreamPublisher(client *redis.Client, prefix string, log *zap.Logger) *StreamPublisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StreamPublisher{client: client, prefix: prefix, log: log}
}

// StreamKey returns the stream a strategy's batches go to.
func (p *StreamPublisher) StreamKey(strategyKey string) string {
	return fmt.Sprintf("%s.%s", p.prefix, strategyKey)
}

// PublishBatch publishes a batch summary to the strategy-specific stream and
// returns the entry id.
func (p *StreamPublisher) PublishBatch(ctx context.Context, summary BatchSummary) (string, error) {
	values, err := summaryValues(summary)
	if err != nil {
		return "", err
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.StreamKey(summary.Strategy),
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("publishing batch %s: %w", summary.RunID, err)
	}
	p.log.Debug("batch published",
		zap.String("stream", p.StreamKey(summary.Strategy)),
		zap.String("run_id", summary.RunID),
		zap.String("entry", id))
	return id, nil
}

// Close closes the underlying client.
// Ping checks the Redis connection.
func (p *StreamPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *StreamPublisher) Close() error {
	return p.client.Close()
}

func summaryValues(summary BatchSummary) (map[string]interface{}, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("marshaling batch summary: %w", err)
	}
	return map[string]interface{}{
		"data":     string(data),
		"run_id":   summary.RunID,
		"strategy": summary.Strategy,
		"sessions": summary.Result.TotalSimulations,
	}, nil
}
