package main

import (
	"context"

	"clickstream/internal/adapters/clickhouse"
	"clickstream/internal/adapters/config"
	"clickstream/internal/adapters/kafka"
	"clickstream/internal/adapters/postgres"
	"clickstream/internal/adapters/redis"
	"clickstream/internal/events"
	"clickstream/pkg/errors"
	"clickstream/pkg/logger"
	"clickstream/pkg/reconnect"
)

// sinkFactory opens one sink. On error it must release whatever it opened itself.
type sinkFactory struct {
	name  string
	build func(ctx context.Context) (events.Publisher, error)
}

// initPublisher connects every enabled sink
func initPublisher(ctx context.Context, cfg *config.Config, log *logger.Logger) (*events.MultiPublisher, error) {
	var factories []sinkFactory

	if cfg.Sinks.Has(config.SinkKafka) {
		factories = append(factories, sinkFactory{config.SinkKafka, func(ctx context.Context) (events.Publisher, error) {
			producer, err := kafka.NewProducer(cfg.Kafka)
			if err != nil {
				return nil, err
			}
			if err := connect(ctx, cfg, log, config.SinkKafka, producer.Health); err != nil {
				_ = producer.Close()
				return nil, err
			}
			log.Infof("Kafka sink ready (topic %s)", producer.Topic())
			return events.NewKafkaPublisher(producer, cfg.Kafka.MaxBatchBytes), nil
		}})
	}

	if cfg.Sinks.Has(config.SinkRedis) {
		factories = append(factories, sinkFactory{config.SinkRedis, func(ctx context.Context) (events.Publisher, error) {
			var client *redis.Client
			err := connect(ctx, cfg, log, config.SinkRedis, func(context.Context) (err error) {
				client, err = redis.NewClient(cfg.Redis)
				return err
			})
			if err != nil {
				return nil, err
			}
			log.Infof("Redis sink ready (stream %s)", cfg.Redis.Stream)
			return events.NewRedisStreamPublisher(client, cfg.Redis.Stream, cfg.Redis.StreamMaxLen), nil
		}})
	}

	if cfg.Sinks.Has(config.SinkClickHouse) {
		factories = append(factories, sinkFactory{config.SinkClickHouse, func(ctx context.Context) (events.Publisher, error) {
			var client *clickhouse.Client
			err := connect(ctx, cfg, log, config.SinkClickHouse, func(context.Context) (err error) {
				client, err = clickhouse.NewClient(cfg.ClickHouse)
				return err
			})
			if err != nil {
				return nil, err
			}
			pub := events.NewClickHousePublisher(client, events.ClickHousePublisherConfig{
				FlushSize:     cfg.ClickHouse.FlushSize,
				FlushInterval: cfg.ClickHouse.FlushInterval,
			})
			if err := pub.EnsureSchema(ctx); err != nil {
				_ = pub.Close()
				return nil, err
			}
			log.Info("ClickHouse sink ready")
			return pub, nil
		}})
	}

	if cfg.Sinks.Has(config.SinkPostgres) {
		factories = append(factories, sinkFactory{config.SinkPostgres, func(ctx context.Context) (events.Publisher, error) {
			var client *postgres.Client
			err := connect(ctx, cfg, log, config.SinkPostgres, func(ctx context.Context) (err error) {
				client, err = postgres.NewClient(ctx, cfg.Postgres)
				return err
			})
			if err != nil {
				return nil, err
			}
			pub := events.NewPostgresPublisher(client)
			if err := pub.EnsureSchema(ctx); err != nil {
				_ = pub.Close()
				return nil, err
			}
			log.Info("PostgreSQL sink ready")
			return pub, nil
		}})
	}

	return openSinks(ctx, factories, log)
}

// openSinks builds the sinks in order. If one fails, the ones already open are closed.
func openSinks(ctx context.Context, factories []sinkFactory, log *logger.Logger) (*events.MultiPublisher, error) {
	sinks := make([]events.Sink, 0, len(factories))

	closeOpened := func() {
		for _, s := range sinks {
			if err := s.Publisher.Close(); err != nil {
				log.Warnf("Failed to close sink %s: %v", s.Name, err)
			}
		}
	}

	for _, f := range factories {
		pub, err := f.build(ctx)
		if err != nil {
			closeOpened()
			return nil, errors.Wrapf(err, "open sink %s", f.name)
		}
		sinks = append(sinks, events.Sink{Name: f.name, Publisher: pub})
	}

	publisher, err := events.NewMultiPublisher(sinks...)
	if err != nil {
		closeOpened()
		return nil, err
	}
	return publisher, nil
}

// connect retries fn with backoff until the configured budget is spent
func connect(ctx context.Context, cfg *config.Config, log *logger.Logger, sink string, fn func(context.Context) error) error {
	m := reconnect.NewManager(reconnect.Config{
		MinBackoff: cfg.Sinks.ConnectBackoff,
		MaxRetries: cfg.Sinks.ConnectRetries,
	}, log.With("sink", sink))

	return m.Connect(ctx, fn)
}
