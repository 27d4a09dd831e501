package events

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/segmentio/kafka-go"

	"clickstream/internal/domain/clickstream"
	"clickstream/internal/metrics"
	"clickstream/pkg/errors"
	"clickstream/pkg/logger"
)

const sinkKafka = "kafka"

// recordOverhead over-approximates the per-record framing kafka adds to key and value
const recordOverhead = 64

// MessageWriter is the part of the kafka producer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends events as JSON messages keyed by user id
type KafkaPublisher struct {
	writer        MessageWriter
	maxBatchBytes int
	closed        atomic.Bool
	log           *logger.Logger
}

// NewKafkaPublisher splits every batch into transport batches of at most maxBatchBytes
func NewKafkaPublisher(writer MessageWriter, maxBatchBytes int) *KafkaPublisher {
	return &KafkaPublisher{
		writer:        writer,
		maxBatchBytes: maxBatchBytes,
		log:           logger.Get().With("component", "kafka_publisher"),
	}
}

// Publish writes the batch in order. Events too large for a single transport batch
// are dropped; the rest are still written and ErrEventTooLarge is returned.
func (p *KafkaPublisher) Publish(ctx context.Context, events []clickstream.Event) (int, error) {
	if p.closed.Load() {
		return 0, errors.ErrPublisherClosed
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return 0, errors.Wrap(err, "marshal event")
		}
		msgs = append(msgs, kafka.Message{Key: []byte(ev.UserID), Value: data})
	}

	chunks, oversized := splitMessages(msgs, p.maxBatchBytes)

	var dropErr error
	if len(oversized) > 0 {
		for _, m := range oversized {
			p.log.Warnf("Dropping event of %s for %s: limit is %s",
				humanize.Bytes(uint64(messageSize(m))), m.Key, humanize.Bytes(uint64(p.maxBatchBytes)))
		}
		metrics.EventsDropped.WithLabelValues(sinkKafka, "too_large").Add(float64(len(oversized)))
		dropErr = errors.Wrapf(errors.ErrEventTooLarge, "%d events dropped", len(oversized))
	}

	written := 0
	for _, chunk := range chunks {
		size := 0
		for _, m := range chunk {
			size += len(m.Value)
		}

		start := time.Now()
		err := p.writer.WriteMessages(ctx, chunk...)
		if err != nil {
			metrics.RecordPublish(sinkKafka, 0, 0, time.Since(start), err)
			return written, errors.Wrapf(err, "write batch of %d events", len(chunk))
		}
		metrics.RecordPublish(sinkKafka, len(chunk), size, time.Since(start), nil)
		written += len(chunk)

		p.log.Debugf("Sent batch of %d events (%s)", len(chunk), humanize.Bytes(uint64(size)))
	}

	return written, dropErr
}

// Close closes the underlying writer; later Publish calls fail with ErrPublisherClosed
func (p *KafkaPublisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}

// Health forwards to the writer when it can probe brokers
func (p *KafkaPublisher) Health(ctx context.Context) error {
	if hc, ok := p.writer.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}

func messageSize(m kafka.Message) int {
	return len(m.Key) + len(m.Value) + recordOverhead
}

// splitMessages groups msgs, in order, into chunks whose total size stays within limit.
// A message that alone exceeds limit cannot be sent and is returned separately.
func splitMessages(msgs []kafka.Message, limit int) (chunks [][]kafka.Message, oversized []kafka.Message) {
	var current []kafka.Message
	currentSize := 0

	for _, m := range msgs {
		size := messageSize(m)
		if size > limit {
			oversized = append(oversized, m)
			continue
		}
		if currentSize+size > limit && len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			currentSize = 0
		}
		current = append(current, m)
		currentSize += size
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}

	return chunks, oversized
}
