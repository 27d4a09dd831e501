package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"clickstream/pkg/errors"
)

// Sink names accepted in SINKS
const (
	SinkKafka      = "kafka"
	SinkRedis      = "redis"
	SinkClickHouse = "clickhouse"
	SinkPostgres   = "postgres"
)

type Config struct {
	App           AppConfig
	Simulation    SimulationConfig
	Sinks         SinksConfig
	Kafka         KafkaConfig
	Redis         RedisConfig
	ClickHouse    ClickHouseConfig
	Postgres      PostgresConfig
	ErrorTracking ErrorTrackingConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"clickstream-generator"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// SimulationConfig drives the session simulator and the generator loop
type SimulationConfig struct {
	NumUsers               int           `envconfig:"NUM_USERS" default:"200"`
	MaxEventsPerBatch      int           `envconfig:"MAX_EVENTS_PER_BATCH" default:"75"`
	SleepInterval          time.Duration `envconfig:"SLEEP_INTERVAL" default:"300ms"`
	NewSessionProbability  float64       `envconfig:"NEW_SESSION_PROBABILITY" default:"0.05"`
	GeneralPageProbability float64       `envconfig:"GENERAL_PAGE_PROBABILITY" default:"0.6"`
	NewUserCandidates      int           `envconfig:"NEW_USER_CANDIDATES" default:"5"`

	// Seed of 0 picks a random seed
	Seed uint64 `envconfig:"SIM_SEED" default:"0"`

	// MaxEventsPerSecond of 0 disables limiting
	MaxEventsPerSecond float64 `envconfig:"MAX_EVENTS_PER_SECOND" default:"0"`
}

type SinksConfig struct {
	Enabled []string `envconfig:"SINKS" default:"kafka"`

	// Startup dialing: attempts per sink, or negative to retry forever. Zero is rejected.
	ConnectRetries int           `envconfig:"SINK_CONNECT_RETRIES" default:"5"`
	ConnectBackoff time.Duration `envconfig:"SINK_CONNECT_BACKOFF" default:"1s"`
}

// Has reports whether the named sink is enabled
func (c SinksConfig) Has(name string) bool {
	for _, s := range c.Enabled {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return true
		}
	}
	return false
}

// KafkaConfig also covers Azure Event Hubs through its Kafka endpoint:
// SASL username "$ConnectionString", password = the connection string, TLS on.
type KafkaConfig struct {
	Brokers       []string      `envconfig:"KAFKA_BROKERS"`
	Topic         string        `envconfig:"KAFKA_TOPIC" default:"clickstream"`
	MaxBatchBytes int           `envconfig:"KAFKA_MAX_BATCH_BYTES" default:"1048576"`
	SASLUsername  string        `envconfig:"KAFKA_SASL_USERNAME"`
	SASLPassword  string        `envconfig:"KAFKA_SASL_PASSWORD"`
	TLS           bool          `envconfig:"KAFKA_TLS" default:"false"`
	WriteTimeout  time.Duration `envconfig:"KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type RedisConfig struct {
	Host         string `envconfig:"REDIS_HOST"`
	Port         int    `envconfig:"REDIS_PORT" default:"6379"`
	Password     string `envconfig:"REDIS_PASSWORD"`
	DB           int    `envconfig:"REDIS_DB" default:"0"`
	Stream       string `envconfig:"REDIS_STREAM" default:"clickstream"`
	StreamMaxLen int64  `envconfig:"REDIS_STREAM_MAXLEN" default:"100000"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ClickHouseConfig struct {
	Host          string        `envconfig:"CLICKHOUSE_HOST"`
	Port          int           `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User          string        `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password      string        `envconfig:"CLICKHOUSE_PASSWORD"`
	Database      string        `envconfig:"CLICKHOUSE_DB" default:"analytics"`
	FlushSize     int           `envconfig:"CLICKHOUSE_FLUSH_SIZE" default:"500"`
	FlushInterval time.Duration `envconfig:"CLICKHOUSE_FLUSH_INTERVAL" default:"5s"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"5"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

type MetricsConfig struct {
	Addr string `envconfig:"METRICS_ADDR" default:":9100"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field requirements envconfig cannot express,
// chiefly that every enabled sink has its connection settings.
func (c *Config) Validate() error {
	var errs errors.MultiError

	if len(c.Sinks.Enabled) == 0 {
		errs.Add(errors.Wrap(errors.ErrNoSinks, "SINKS"))
	}
	for _, s := range c.Sinks.Enabled {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case SinkKafka, SinkRedis, SinkClickHouse, SinkPostgres:
		default:
			errs.Add(errors.NewValidationError("SINKS", "unknown sink", s))
		}
	}

	if c.Sinks.ConnectRetries == 0 {
		errs.Add(errors.NewValidationError("SINK_CONNECT_RETRIES", "must be positive, or negative to retry forever", 0))
	}
	if c.Sinks.ConnectBackoff <= 0 {
		errs.Add(errors.NewValidationError("SINK_CONNECT_BACKOFF", "must be positive", c.Sinks.ConnectBackoff))
	}

	if c.Sinks.Has(SinkKafka) {
		if len(c.Kafka.Brokers) == 0 {
			errs.Add(errors.NewValidationError("KAFKA_BROKERS", "required when kafka sink is enabled", ""))
		}
		if c.Kafka.Topic == "" {
			errs.Add(errors.NewValidationError("KAFKA_TOPIC", "must not be empty", ""))
		}
		if c.Kafka.MaxBatchBytes <= 0 {
			errs.Add(errors.NewValidationError("KAFKA_MAX_BATCH_BYTES", "must be positive", c.Kafka.MaxBatchBytes))
		}
		if (c.Kafka.SASLUsername == "") != (c.Kafka.SASLPassword == "") {
			errs.Add(errors.NewValidationError("KAFKA_SASL_USERNAME", "username and password must be set together", c.Kafka.SASLUsername))
		}
	}
	if c.Sinks.Has(SinkRedis) && c.Redis.Host == "" {
		errs.Add(errors.NewValidationError("REDIS_HOST", "required when redis sink is enabled", ""))
	}
	if c.Sinks.Has(SinkClickHouse) && c.ClickHouse.Host == "" {
		errs.Add(errors.NewValidationError("CLICKHOUSE_HOST", "required when clickhouse sink is enabled", ""))
	}
	if c.Sinks.Has(SinkPostgres) {
		if c.Postgres.Host == "" || c.Postgres.User == "" || c.Postgres.Database == "" {
			errs.Add(errors.NewValidationError("POSTGRES_HOST", "host, user and database are required when postgres sink is enabled", c.Postgres.Host))
		}
	}

	sim := c.Simulation
	if sim.NumUsers < 0 {
		errs.Add(errors.NewValidationError("NUM_USERS", "must not be negative", sim.NumUsers))
	}
	if sim.MaxEventsPerBatch < 1 {
		errs.Add(errors.NewValidationError("MAX_EVENTS_PER_BATCH", "must be at least 1", sim.MaxEventsPerBatch))
	}
	if sim.SleepInterval <= 0 {
		errs.Add(errors.NewValidationError("SLEEP_INTERVAL", "must be positive", sim.SleepInterval))
	}
	if sim.NewSessionProbability < 0 || sim.NewSessionProbability > 1 {
		errs.Add(errors.NewValidationError("NEW_SESSION_PROBABILITY", "must be within [0,1]", sim.NewSessionProbability))
	}
	if sim.GeneralPageProbability < 0 || sim.GeneralPageProbability > 1 {
		errs.Add(errors.NewValidationError("GENERAL_PAGE_PROBABILITY", "must be within [0,1]", sim.GeneralPageProbability))
	}
	if sim.NewUserCandidates < 0 {
		errs.Add(errors.NewValidationError("NEW_USER_CANDIDATES", "must not be negative", sim.NewUserCandidates))
	}
	if sim.MaxEventsPerSecond < 0 {
		errs.Add(errors.NewValidationError("MAX_EVENTS_PER_SECOND", "must not be negative", sim.MaxEventsPerSecond))
	}

	if err := errs.ToError(); err != nil {
		return errors.Wrap(err, "config validation failed")
	}
	return nil
}
