package events

import (
	"context"
	"sync"

	"clickstream/internal/domain/clickstream"
	"clickstream/pkg/errors"
	"clickstream/pkg/logger"
)

// Publisher delivers a batch of events to one sink.
// The count is the number of events the sink accepted; it can be non-zero alongside an error.
type Publisher interface {
	Publish(ctx context.Context, events []clickstream.Event) (int, error)
	Close() error
}

// HealthChecker is implemented by publishers that can probe their backend
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Sink pairs a publisher with the name it is reported under
type Sink struct {
	Name      string
	Publisher Publisher
}

// MultiPublisher fans a batch out to every sink
type MultiPublisher struct {
	sinks []Sink
	log   *logger.Logger
}

// NewMultiPublisher requires at least one sink
func NewMultiPublisher(sinks ...Sink) (*MultiPublisher, error) {
	if len(sinks) == 0 {
		return nil, errors.ErrNoSinks
	}
	return &MultiPublisher{
		sinks: sinks,
		log:   logger.Get().With("component", "multi_publisher"),
	}, nil
}

// Publish sends the batch to all sinks concurrently.
// It returns the smallest accepted count and every sink error joined.
func (m *MultiPublisher) Publish(ctx context.Context, events []clickstream.Event) (int, error) {
	if len(m.sinks) == 1 {
		n, err := m.sinks[0].Publisher.Publish(ctx, events)
		return n, errors.Wrapf(err, "sink %s", m.sinks[0].Name)
	}

	counts := make([]int, len(m.sinks))
	errs := make([]error, len(m.sinks))

	var wg sync.WaitGroup
	for i, s := range m.sinks {
		wg.Add(1)
		go func(i int, s Sink) {
			defer wg.Done()
			counts[i], errs[i] = s.Publisher.Publish(ctx, events)
		}(i, s)
	}
	wg.Wait()

	var merr errors.MultiError
	accepted := len(events)
	for i, s := range m.sinks {
		if errs[i] != nil {
			merr.Add(errors.Wrapf(errs[i], "sink %s", s.Name))
		}
		if counts[i] < accepted {
			accepted = counts[i]
		}
	}
	return accepted, merr.ToError()
}

// Close closes every sink, even after a failure
func (m *MultiPublisher) Close() error {
	var merr errors.MultiError
	for _, s := range m.sinks {
		if err := s.Publisher.Close(); err != nil {
			m.log.Errorf("Failed to close sink %s: %v", s.Name, err)
			merr.Add(errors.Wrapf(err, "close sink %s", s.Name))
		}
	}
	return merr.ToError()
}

// Health probes every sink that supports it, keyed by sink name
func (m *MultiPublisher) Health(ctx context.Context) map[string]error {
	results := make(map[string]error, len(m.sinks))
	for _, s := range m.sinks {
		if hc, ok := s.Publisher.(HealthChecker); ok {
			results[s.Name] = hc.Health(ctx)
		}
	}
	return results
}

// Names lists the sink names in configuration order
func (m *MultiPublisher) Names() []string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name)
	}
	return names
}
