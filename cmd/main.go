package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"clickstream/internal/adapters/config"
	"clickstream/internal/adapters/errors/noop"
	"clickstream/internal/adapters/errors/sentry"
	"clickstream/internal/api"
	"clickstream/internal/api/health"
	"clickstream/internal/domain/catalog"
	"clickstream/internal/metrics"
	"clickstream/internal/simulation"
	"clickstream/internal/workers"
	"clickstream/pkg/errors"
	"clickstream/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(); err != nil {
		logger.Get().Errorf("Generator exited: %v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

// run owns every resource it opens, so each error return still closes
// the sinks, stops the server and flushes the tracker through its defers
func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if err := initLogger(cfg); err != nil {
		return errors.Wrap(err, "init logger")
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s %s in %s mode", cfg.App.Name, version, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := errorTracker.Flush(flushCtx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}()

	metrics.Init()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	synth, err := initSynthesizer(cfg, log)
	if err != nil {
		return err
	}
	prometheus.MustRegister(metrics.NewSessionCollector(synth))

	publisher, err := initPublisher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Errorf("Failed to close sinks: %v", err)
		}
	}()
	errorTracker.AddBreadcrumb(ctx, "sinks ready", "startup", errors.LevelInfo,
		map[string]interface{}{"sinks": publisher.Names()})

	scheduler := workers.NewScheduler()
	generator := workers.NewGeneratorWorker(synth, publisher, workers.GeneratorConfig{
		Interval:           cfg.Simulation.SleepInterval,
		MaxEventsPerBatch:  cfg.Simulation.MaxEventsPerBatch,
		MaxEventsPerSecond: cfg.Simulation.MaxEventsPerSecond,
		Rand:               simulation.NewRand(batchSeed(cfg.Simulation.Seed)),
	})
	scheduler.RegisterWorker(generator)

	healthHandler := health.New(log, publisher, scheduler, health.Config{
		ServiceName: cfg.App.Name,
		Version:     version,
		MaxStale:    staleAfter(cfg.Simulation.SleepInterval),
	})
	server := api.NewServer(api.ServerConfig{
		Addr:        cfg.Metrics.Addr,
		ServiceName: cfg.App.Name,
		Version:     version,
	}, healthHandler, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warnf("Failed to stop HTTP server: %v", err)
		}
	}()

	if err := scheduler.Start(ctx); err != nil {
		return errors.Wrap(err, "start scheduler")
	}

	log.Info("System initialized successfully")

	err = waitForShutdown(ctx, serverErr, scheduler, errorTracker, log)

	generated, published := generator.Totals()
	log.Infow("Generator stopped", "generated", generated, "published", published)
	return err
}

// loadConfig loads application configuration from environment
func loadConfig() (*config.Config, error) {
	return config.Load()
}

// initLogger initializes structured logging
func initLogger(cfg *config.Config) error {
	return logger.Init(cfg.App.LogLevel, cfg.App.Env)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(sentry.Options{
		DSN:         cfg.ErrorTracking.SentryDSN,
		Environment: cfg.ErrorTracking.Environment,
		ServerName:  cfg.App.Name,
	})
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// initSynthesizer builds the simulator and pre-populates the session store
func initSynthesizer(cfg *config.Config, log *logger.Logger) (*simulation.Synthesizer, error) {
	profile := simulation.DefaultProfile()
	profile.NewSessionProbability = cfg.Simulation.NewSessionProbability
	profile.GeneralPageProbability = cfg.Simulation.GeneralPageProbability
	profile.NewUserCandidates = cfg.Simulation.NewUserCandidates

	synth, err := simulation.NewSynthesizer(simulation.Config{
		Catalog: catalog.Default(),
		Profile: profile,
		Seed:    cfg.Simulation.Seed,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create synthesizer")
	}

	synth.Warmup(cfg.Simulation.NumUsers)
	log.Infof("Session store warmed up with %d users", synth.Store().Len())
	return synth, nil
}

// waitForShutdown blocks until SIGINT or SIGTERM, or until the HTTP server fails,
// then stops the scheduler. The caller's defers release everything else.
func waitForShutdown(
	ctx context.Context,
	serverErr <-chan error,
	scheduler *workers.Scheduler,
	errorTracker errors.Tracker,
	log *logger.Logger,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		log.Infof("Received %s, shutting down...", sig)
	case err := <-serverErr:
		runErr = errors.Wrap(err, "http server")
		if err == nil {
			runErr = errors.Wrap(errors.ErrUnavailable, "http server stopped unexpectedly")
		}
		log.Errorf("Shutting down: %v", runErr)
	}

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Scheduler stop: %v", err)
		_ = errorTracker.CaptureMessage(ctx, "scheduler shutdown incomplete", errors.LevelWarning, nil)
	}

	log.Info("Shutdown complete")
	return runErr
}

// batchSeed keeps batch sizing reproducible alongside a fixed simulation seed
func batchSeed(seed uint64) uint64 {
	if seed == 0 {
		return 0
	}
	return seed + 1
}

// staleAfter reports the generator unhealthy after it misses several ticks
func staleAfter(interval time.Duration) time.Duration {
	d := 10 * interval
	if d < 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
