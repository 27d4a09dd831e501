package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickstream/internal/domain/clickstream"
	"clickstream/internal/events"
	"clickstream/pkg/errors"
	"clickstream/pkg/logger"
)

type stubSink struct {
	closed int
}

func (s *stubSink) Publish(ctx context.Context, batch []clickstream.Event) (int, error) {
	return len(batch), nil
}

func (s *stubSink) Close() error {
	s.closed++
	return nil
}

func opened(name string, s *stubSink) sinkFactory {
	return sinkFactory{name, func(context.Context) (events.Publisher, error) { return s, nil }}
}

func TestOpenSinks(t *testing.T) {
	kafka, redis := &stubSink{}, &stubSink{}

	pub, err := openSinks(context.Background(), []sinkFactory{opened("kafka", kafka), opened("redis", redis)}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka", "redis"}, pub.Names())
	assert.Zero(t, kafka.closed)

	require.NoError(t, pub.Close())
	assert.Equal(t, 1, kafka.closed)
	assert.Equal(t, 1, redis.closed)
}

func TestOpenSinks_FailureClosesOpenedSinks(t *testing.T) {
	kafka, redis := &stubSink{}, &stubSink{}
	after := &stubSink{}
	failing := sinkFactory{"postgres", func(context.Context) (events.Publisher, error) {
		return nil, errors.ErrUnavailable
	}}

	pub, err := openSinks(context.Background(),
		[]sinkFactory{opened("kafka", kafka), opened("redis", redis), failing, opened("clickhouse", after)},
		logger.Nop())

	require.Error(t, err)
	assert.Nil(t, pub)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.Contains(t, err.Error(), "postgres")
	assert.Equal(t, 1, kafka.closed)
	assert.Equal(t, 1, redis.closed)
	assert.Zero(t, after.closed, "sinks after the failure are never opened")
}

func TestOpenSinks_NoneConfigured(t *testing.T) {
	_, err := openSinks(context.Background(), nil, logger.Nop())
	assert.ErrorIs(t, err, errors.ErrNoSinks)
}
