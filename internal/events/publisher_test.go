package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickstream/internal/domain/clickstream"
	"clickstream/pkg/errors"
)

func TestNewMultiPublisher_RequiresSinks(t *testing.T) {
	_, err := NewMultiPublisher()
	assert.ErrorIs(t, err, errors.ErrNoSinks)
}

func TestMultiPublisher_FansOut(t *testing.T) {
	a, b := &fakePublisher{}, &fakePublisher{}
	m, err := NewMultiPublisher(Sink{Name: "a", Publisher: a}, Sink{Name: "b", Publisher: b})
	require.NoError(t, err)

	events := testEvents(4)
	n, err := m.Publish(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, [][]clickstream.Event{events}, a.batches)
	assert.Equal(t, [][]clickstream.Event{events}, b.batches)
	assert.Equal(t, []string{"a", "b"}, m.Names())
}

func TestMultiPublisher_ReturnsMinimumAndJoinedErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &fakePublisher{}
	partial := &fakePublisher{count: 2, err: boom}
	m, err := NewMultiPublisher(Sink{Name: "ok", Publisher: ok}, Sink{Name: "partial", Publisher: partial})
	require.NoError(t, err)

	n, err := m.Publish(context.Background(), testEvents(5))
	assert.Equal(t, 2, n)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "sink partial")
}

func TestMultiPublisher_SingleSinkWrapsError(t *testing.T) {
	m, err := NewMultiPublisher(Sink{Name: "only", Publisher: &fakePublisher{err: errors.ErrPublisherClosed}})
	require.NoError(t, err)

	n, err := m.Publish(context.Background(), testEvents(1))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, errors.ErrPublisherClosed)
}

func TestMultiPublisher_CloseClosesEverySink(t *testing.T) {
	boom := errors.New("close failed")
	a := &fakePublisher{closeErr: boom}
	b := &fakePublisher{}
	m, err := NewMultiPublisher(Sink{Name: "a", Publisher: a}, Sink{Name: "b", Publisher: b})
	require.NoError(t, err)

	err = m.Close()
	assert.ErrorIs(t, err, boom)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestMultiPublisher_Health(t *testing.T) {
	down := errors.New("down")
	m, err := NewMultiPublisher(
		Sink{Name: "up", Publisher: &fakePublisher{}},
		Sink{Name: "down", Publisher: &fakePublisher{health: down}},
	)
	require.NoError(t, err)

	results := m.Health(context.Background())
	assert.NoError(t, results["up"])
	assert.ErrorIs(t, results["down"], down)
}
