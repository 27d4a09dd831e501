package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clickstream/internal/domain/clickstream"
)

func testEvent(userID string) clickstream.Event {
	return clickstream.Event{
		UserID:         userID,
		SessionID:      "session_0123456789ab",
		Timestamp:      clickstream.Timestamp(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
		EventType:      clickstream.EventPageView,
		PageURL:        "/",
		Browser:        "Chrome",
		OS:             "Linux",
		IPAddress:      "192.168.1.1",
		ReferralSource: "direct",
		DeviceType:     "Desktop",
		GeoCountry:     "USA",
		GeoCity:        "Chicago",
		IsNewUser:      true,
	}
}

func testEvents(n int) []clickstream.Event {
	events := make([]clickstream.Event, 0, n)
	for i := 0; i < n; i++ {
		events = append(events, testEvent(fmt.Sprintf("user_%08d", i)))
	}
	return events
}

// fakePublisher records batches; with err set it returns count and err
type fakePublisher struct {
	mu       sync.Mutex
	batches  [][]clickstream.Event
	count    int
	err      error
	closed   bool
	closeErr error
	health   error
}

func (f *fakePublisher) Publish(_ context.Context, events []clickstream.Event) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, events)
	if f.err != nil {
		return f.count, f.err
	}
	return len(events), nil
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

func (f *fakePublisher) Health(context.Context) error {
	return f.health
}
