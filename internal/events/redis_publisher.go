package events

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"clickstream/internal/domain/clickstream"
	"clickstream/internal/metrics"
	"clickstream/pkg/errors"
	"clickstream/pkg/logger"
)

const (
	sinkRedis = "redis"

	// StreamField is the stream entry field holding the JSON event
	StreamField = "event"
)

// StreamAppender appends payloads to a Redis stream
type StreamAppender interface {
	AppendStream(ctx context.Context, stream, field string, maxLen int64, payloads [][]byte) error
	Health(ctx context.Context) error
	Close() error
}

// RedisStreamPublisher writes one stream entry per event
type RedisStreamPublisher struct {
	client StreamAppender
	stream string
	maxLen int64
	closed atomic.Bool
	log    *logger.Logger
}

// NewRedisStreamPublisher trims stream to roughly maxLen entries
func NewRedisStreamPublisher(client StreamAppender, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
		log:    logger.Get().With("component", "redis_publisher", "stream", stream),
	}
}

// Publish appends the whole batch in one pipeline; it is all or nothing from the caller's view
func (p *RedisStreamPublisher) Publish(ctx context.Context, events []clickstream.Event) (int, error) {
	if p.closed.Load() {
		return 0, errors.ErrPublisherClosed
	}
	if len(events) == 0 {
		return 0, nil
	}

	payloads := make([][]byte, 0, len(events))
	size := 0
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return 0, errors.Wrap(err, "marshal event")
		}
		payloads = append(payloads, data)
		size += len(data)
	}

	start := time.Now()
	if err := p.client.AppendStream(ctx, p.stream, StreamField, p.maxLen, payloads); err != nil {
		metrics.RecordPublish(sinkRedis, 0, 0, time.Since(start), err)
		return 0, errors.Wrapf(err, "xadd %d entries to %s", len(payloads), p.stream)
	}
	metrics.RecordPublish(sinkRedis, len(payloads), size, time.Since(start), nil)

	p.log.Debugf("Appended %d events to %s", len(payloads), p.stream)
	return len(payloads), nil
}

// Health pings Redis
func (p *RedisStreamPublisher) Health(ctx context.Context) error {
	return p.client.Health(ctx)
}

// Close closes the Redis connection
func (p *RedisStreamPublisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.client.Close()
}
