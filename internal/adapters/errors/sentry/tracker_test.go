package sentry

import (
	"context"
	"sync"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickstream/pkg/errors"
)

type capture struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (c *capture) beforeSend(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func newTestTracker(t *testing.T) (*Tracker, *capture) {
	t.Helper()
	c := &capture{}
	client, err := sentry.NewClient(sentry.ClientOptions{BeforeSend: c.beforeSend})
	require.NoError(t, err)
	return NewWithHub(sentry.NewHub(client, sentry.NewScope())), c
}

func TestTracker_CaptureError(t *testing.T) {
	tracker, c := newTestTracker(t)

	err := errors.Wrap(errors.ErrEventTooLarge, "publish batch")
	require.NoError(t, tracker.CaptureError(context.Background(), err, map[string]string{"sink": "kafka"}))

	require.Len(t, c.events, 1)
	assert.Equal(t, "kafka", c.events[0].Tags["sink"])
	var values []string
	for _, ex := range c.events[0].Exception {
		values = append(values, ex.Value)
	}
	assert.Contains(t, values, err.Error())
}

func TestTracker_CaptureMessageWithBreadcrumb(t *testing.T) {
	tracker, c := newTestTracker(t)
	ctx := context.Background()

	tracker.AddBreadcrumb(ctx, "sinks ready", "startup", errors.LevelInfo, map[string]interface{}{"sinks": []string{"kafka"}})
	require.NoError(t, tracker.CaptureMessage(ctx, "scheduler shutdown incomplete", errors.LevelWarning, nil))

	require.Len(t, c.events, 1)
	assert.Equal(t, "scheduler shutdown incomplete", c.events[0].Message)
	assert.Equal(t, sentry.LevelWarning, c.events[0].Level)
	require.Len(t, c.events[0].Breadcrumbs, 1)
	assert.Equal(t, "startup", c.events[0].Breadcrumbs[0].Category)
}

func TestTracker_TagsDoNotLeakBetweenCaptures(t *testing.T) {
	tracker, c := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tracker.CaptureError(ctx, errors.New("first"), map[string]string{"sink": "redis"}))
	require.NoError(t, tracker.CaptureError(ctx, errors.New("second"), nil))

	require.Len(t, c.events, 2)
	assert.NotContains(t, c.events[1].Tags, "sink")
}

func TestConvertLevel(t *testing.T) {
	tests := map[errors.Level]sentry.Level{
		errors.LevelDebug:   sentry.LevelDebug,
		errors.LevelInfo:    sentry.LevelInfo,
		errors.LevelWarning: sentry.LevelWarning,
		errors.LevelError:   sentry.LevelError,
		errors.LevelFatal:   sentry.LevelFatal,
		errors.Level("x"):   sentry.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, convertLevel(in), in)
	}
}
