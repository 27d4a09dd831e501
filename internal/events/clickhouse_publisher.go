package events

import (
	"context"
	"sync/atomic"
	"time"

	"clickstream/internal/domain/clickstream"
	"clickstream/internal/metrics"
	"clickstream/pkg/clickhouse"
	"clickstream/pkg/errors"
)

const (
	sinkClickHouse = "clickhouse"

	// ClickHouseTable receives one row per event
	ClickHouseTable = "clickstream_events"
)

// ClickHouseSchema creates the events table when it does not exist
const ClickHouseSchema = `CREATE TABLE IF NOT EXISTS clickstream_events (
	user_id         String,
	session_id      String,
	event_time      DateTime64(6, 'UTC'),
	event_type      LowCardinality(String),
	page_url        String,
	product_id      Array(String),
	product_name    Array(String),
	product_brand   Array(String),
	product_price   Nullable(Float64),
	category        Nullable(String),
	browser         LowCardinality(String),
	os              LowCardinality(String),
	ip_address      String,
	referral_source LowCardinality(String),
	device_type     LowCardinality(String),
	geo_country     LowCardinality(String),
	geo_city        String,
	is_new_user     Bool,
	cart_size       UInt32
) ENGINE = MergeTree
PARTITION BY toYYYYMMDD(event_time)
ORDER BY (event_type, user_id, event_time)`

const clickHouseInsert = "INSERT INTO " + ClickHouseTable

// RowInserter sends native ClickHouse batches
type RowInserter interface {
	Exec(ctx context.Context, query string, args ...interface{}) error
	InsertRows(ctx context.Context, query string, rows [][]interface{}) error
	Health(ctx context.Context) error
	Close() error
}

// ClickHousePublisherConfig tunes buffering
type ClickHousePublisherConfig struct {
	FlushSize     int
	FlushInterval time.Duration
}

// ClickHousePublisher buffers events and inserts them in large batches.
// Publish reports events as accepted once buffered.
type ClickHousePublisher struct {
	client RowInserter
	writer *clickhouse.BatchWriter[[]interface{}]
	cancel context.CancelFunc
	closed atomic.Bool
}

// NewClickHousePublisher starts the background flusher
func NewClickHousePublisher(client RowInserter, cfg ClickHousePublisherConfig) *ClickHousePublisher {
	p := &ClickHousePublisher{client: client}
	p.writer = clickhouse.NewBatchWriter(clickhouse.BatchWriterConfig[[]interface{}]{
		FlushFunc:    p.flush,
		TableName:    ClickHouseTable,
		MaxBatchSize: cfg.FlushSize,
		MaxAge:       cfg.FlushInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.writer.Start(ctx)
	return p
}

// EnsureSchema creates the events table
func (p *ClickHousePublisher) EnsureSchema(ctx context.Context) error {
	return errors.Wrap(p.client.Exec(ctx, ClickHouseSchema), "create clickhouse table")
}

// Publish buffers the batch; a full buffer is flushed synchronously
func (p *ClickHousePublisher) Publish(ctx context.Context, events []clickstream.Event) (int, error) {
	if p.closed.Load() {
		return 0, errors.ErrPublisherClosed
	}

	rows := make([][]interface{}, 0, len(events))
	for _, ev := range events {
		rows = append(rows, clickHouseRow(ev))
	}
	if err := p.writer.Add(ctx, rows...); err != nil {
		return 0, errors.Wrap(err, "flush clickhouse buffer")
	}
	return len(events), nil
}

func (p *ClickHousePublisher) flush(ctx context.Context, rows [][]interface{}) error {
	start := time.Now()
	err := p.client.InsertRows(ctx, clickHouseInsert, rows)
	if err != nil {
		metrics.RecordPublish(sinkClickHouse, 0, 0, time.Since(start), err)
		metrics.EventsDropped.WithLabelValues(sinkClickHouse, "flush_failed").Add(float64(len(rows)))
		return err
	}
	metrics.RecordPublish(sinkClickHouse, len(rows), 0, time.Since(start), nil)
	return nil
}

// Health pings ClickHouse
func (p *ClickHousePublisher) Health(ctx context.Context) error {
	return p.client.Health(ctx)
}

// Close flushes what is buffered, then closes the connection
func (p *ClickHousePublisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var merr errors.MultiError
	merr.Add(p.writer.Stop(ctx))
	p.cancel()
	merr.Add(p.client.Close())
	return merr.ToError()
}

// clickHouseRow lists column values in table order.
// The price column holds the unit price or the purchase total.
func clickHouseRow(ev clickstream.Event) []interface{} {
	var price *float64
	if ev.ProductPrice != nil {
		v := ev.ProductPrice.Amount()
		price = &v
	}
	return []interface{}{
		ev.UserID,
		ev.SessionID,
		ev.Timestamp.Time(),
		string(ev.EventType),
		ev.PageURL,
		nonNil(ev.ProductID),
		nonNil(ev.ProductName),
		nonNil(ev.ProductBrand),
		price,
		ev.Category,
		ev.Browser,
		ev.OS,
		ev.IPAddress,
		ev.ReferralSource,
		ev.DeviceType,
		ev.GeoCountry,
		ev.GeoCity,
		ev.IsNewUser,
		uint32(ev.CartSize),
	}
}

// ClickHouse arrays are not nullable
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
