package noop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	pkgerrors "clickstream/pkg/errors"
)

func TestTracker(t *testing.T) {
	ctx := context.Background()
	tracker := New()

	assert.NoError(t, tracker.CaptureError(ctx, errors.New("boom"), nil))
	assert.NoError(t, tracker.CaptureMessage(ctx, "hello", pkgerrors.LevelInfo, nil))
	tracker.AddBreadcrumb(ctx, "step", "test", pkgerrors.LevelDebug, nil)
	assert.NoError(t, tracker.Flush(ctx))
}
