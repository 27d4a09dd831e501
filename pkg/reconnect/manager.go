package reconnect

import (
	"context"
	"sync"
	"time"

	"clickstream/pkg/errors"
	"clickstream/pkg/logger"
)

// Manager retries a connection attempt with exponential backoff.
// Brokers and databases often come up after the generator in a compose
// or Kubernetes rollout, so sinks are dialed through it.
type Manager struct {
	minBackoff        time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	maxRetries        int

	mu                  sync.RWMutex
	currentBackoff      time.Duration
	consecutiveFailures int
	totalAttempts       int

	logger *logger.Logger
}

// Config configures the reconnect manager
type Config struct {
	MinBackoff        time.Duration // Initial backoff (e.g. 1s)
	MaxBackoff        time.Duration // Max backoff (e.g. 30s)
	BackoffMultiplier float64       // Multiplier for exponential backoff (e.g. 2.0)
	MaxRetries        int           // Consecutive failures before giving up; negative retries forever
}

// NewManager creates a new reconnect manager with sensible defaults
func NewManager(config Config, log *logger.Logger) *Manager {
	if config.MinBackoff == 0 {
		config.MinBackoff = 1 * time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.MaxBackoff < config.MinBackoff {
		config.MaxBackoff = config.MinBackoff
	}
	if config.BackoffMultiplier < 1 {
		config.BackoffMultiplier = 2.0
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 5
	}

	return &Manager{
		minBackoff:        config.MinBackoff,
		maxBackoff:        config.MaxBackoff,
		backoffMultiplier: config.BackoffMultiplier,
		maxRetries:        config.MaxRetries,
		currentBackoff:    config.MinBackoff,
		logger:            log,
	}
}

// ShouldRetry returns whether another attempt is allowed
func (m *Manager) ShouldRetry() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxRetries < 0 || m.consecutiveFailures < m.maxRetries
}

// GetBackoff returns current backoff duration
func (m *Manager) GetBackoff() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentBackoff
}

// RecordFailure records a failed attempt and grows the backoff
func (m *Manager) RecordFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.consecutiveFailures++
	m.totalAttempts++

	if m.consecutiveFailures > 1 {
		next := time.Duration(float64(m.currentBackoff) * m.backoffMultiplier)
		if next > m.maxBackoff {
			next = m.maxBackoff
		}
		m.currentBackoff = next
	}

	m.logger.Warnw("Connection attempt failed",
		"error", err,
		"consecutive_failures", m.consecutiveFailures,
		"next_backoff", m.currentBackoff,
	)
}

// RecordSuccess resets the backoff
func (m *Manager) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.consecutiveFailures > 0 {
		m.logger.Infow("Connected after retries",
			"previous_consecutive_failures", m.consecutiveFailures,
		)
	}

	m.currentBackoff = m.minBackoff
	m.consecutiveFailures = 0
	m.totalAttempts++
}

// GetStats returns current reconnect manager stats
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Stats{
		ConsecutiveFailures: m.consecutiveFailures,
		TotalAttempts:       m.totalAttempts,
		CurrentBackoff:      m.currentBackoff,
	}
}

// Stats contains reconnection statistics
type Stats struct {
	ConsecutiveFailures int
	TotalAttempts       int
	CurrentBackoff      time.Duration
}

// Connect calls connectFn until it succeeds, the retry budget is spent or ctx is done.
// The first attempt is immediate; each failure waits the current backoff.
func (m *Manager) Connect(ctx context.Context, connectFn func(context.Context) error) error {
	for {
		err := connectFn(ctx)
		if err == nil {
			m.RecordSuccess()
			return nil
		}
		m.RecordFailure(err)

		if !m.ShouldRetry() {
			m.mu.RLock()
			failures := m.consecutiveFailures
			m.mu.RUnlock()
			return errors.Wrapf(err, "giving up after %d attempts", failures)
		}

		timer := time.NewTimer(m.GetBackoff())
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return errors.Wrap(ctx.Err(), "connect canceled")
		}
	}
}
