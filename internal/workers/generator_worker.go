package workers

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"clickstream/internal/domain/clickstream"
	"clickstream/internal/events"
	"clickstream/internal/simulation"
	"clickstream/pkg/errors"
)

// BatchGenerator produces events in generation order
type BatchGenerator interface {
	GenerateBatch(n int) []clickstream.Event
}

// GeneratorConfig configures the generator worker
type GeneratorConfig struct {
	Interval          time.Duration
	MaxEventsPerBatch int

	// MaxEventsPerSecond caps throughput; 0 means unlimited
	MaxEventsPerSecond float64

	// Rand sizes batches; defaults to a clock-seeded source
	Rand simulation.Rand
}

// GeneratorWorker synthesizes a batch of 1..MaxEventsPerBatch events per run and publishes it
type GeneratorWorker struct {
	*BaseWorker
	generator BatchGenerator
	publisher events.Publisher
	maxBatch  int
	limiter   *rate.Limiter
	rng       simulation.Rand

	generated atomic.Int64
	published atomic.Int64
}

// NewGeneratorWorker creates the generator worker
func NewGeneratorWorker(generator BatchGenerator, publisher events.Publisher, cfg GeneratorConfig) *GeneratorWorker {
	if cfg.MaxEventsPerBatch < 1 {
		cfg.MaxEventsPerBatch = 1
	}
	if cfg.Rand == nil {
		cfg.Rand = simulation.NewRand(0)
	}

	var limiter *rate.Limiter
	if cfg.MaxEventsPerSecond > 0 {
		burst := int(math.Max(float64(cfg.MaxEventsPerBatch), math.Ceil(cfg.MaxEventsPerSecond)))
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxEventsPerSecond), burst)
	}

	return &GeneratorWorker{
		BaseWorker: NewBaseWorker("clickstream_generator", cfg.Interval, true),
		generator:  generator,
		publisher:  publisher,
		maxBatch:   cfg.MaxEventsPerBatch,
		limiter:    limiter,
		rng:        cfg.Rand,
	}
}

// Run generates and publishes one batch. Cancellation ends the run without error.
func (w *GeneratorWorker) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	n := 1 + w.rng.IntN(w.maxBatch)
	if w.limiter != nil {
		if err := w.limiter.WaitN(ctx, n); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "rate limiter")
		}
	}

	batch := w.generator.GenerateBatch(n)
	w.generated.Add(int64(len(batch)))

	sent, err := w.publisher.Publish(ctx, batch)
	w.published.Add(int64(sent))
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return nil
		}
		return errors.Wrapf(err, "publish batch: %d of %d events sent", sent, len(batch))
	}

	w.Log().Infof("Sent batch of %d events", sent)
	return nil
}

// Totals returns how many events were generated and how many a sink accepted
func (w *GeneratorWorker) Totals() (generated, published int64) {
	return w.generated.Load(), w.published.Load()
}
