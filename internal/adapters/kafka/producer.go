package kafka

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"

	"clickstream/internal/adapters/config"
	"clickstream/pkg/errors"
	"clickstream/pkg/logger"
)

// EventHubsUsername is the fixed SASL user of the Azure Event Hubs Kafka endpoint
const EventHubsUsername = "$ConnectionString"

// Producer writes to a single topic
type Producer struct {
	writer  *kafka.Writer
	dialer  *kafka.Dialer
	brokers []string
	topic   string
	log     *logger.Logger
}

// NewProducer creates a synchronous producer for cfg.Topic
func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.NewValidationError("KAFKA_BROKERS", "at least one broker is required", "")
	}

	var mechanism sasl.Mechanism
	if cfg.SASLUsername != "" {
		mechanism = plain.Mechanism{Username: cfg.SASLUsername, Password: cfg.SASLPassword}
	}
	var tlsConfig *tls.Config
	if cfg.TLS {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{}, // same user, same partition
		// Batches are already sized by the caller; don't wait to fill them
		BatchSize:    10000,
		BatchBytes:   int64(cfg.MaxBatchBytes),
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		Transport: &kafka.Transport{
			SASL: mechanism,
			TLS:  tlsConfig,
		},
	}

	return &Producer{
		writer: w,
		dialer: &kafka.Dialer{
			Timeout:       5 * time.Second,
			DualStack:     true,
			SASLMechanism: mechanism,
			TLS:           tlsConfig,
		},
		brokers: cfg.Brokers,
		topic:   cfg.Topic,
		log:     logger.Get().With("component", "kafka_producer", "topic", cfg.Topic),
	}, nil
}

// Topic returns the topic every message goes to
func (p *Producer) Topic() string {
	return p.topic
}

// WriteMessages sends one batch and blocks until it is acknowledged
func (p *Producer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return errors.Wrapf(err, "publish %d messages to %s", len(msgs), p.topic)
	}
	return nil
}

// Health dials the first reachable broker
func (p *Producer) Health(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := p.dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return errors.Wrap(lastErr, "no kafka broker reachable")
}

// Close flushes pending writes and releases connections
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		p.log.Errorf("Failed to close writer for %s: %v", p.topic, err)
		return err
	}
	return nil
}
