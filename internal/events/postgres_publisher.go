package events

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"clickstream/internal/domain/clickstream"
	"clickstream/internal/metrics"
	"clickstream/pkg/errors"
)

const sinkPostgres = "postgres"

// PostgresSchema creates the events table and its time index when they do not exist
var PostgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS clickstream_events (
	id              BIGSERIAL PRIMARY KEY,
	user_id         TEXT        NOT NULL,
	session_id      TEXT        NOT NULL,
	event_time      TIMESTAMPTZ NOT NULL,
	event_type      TEXT        NOT NULL,
	page_url        TEXT        NOT NULL,
	product_id      TEXT[],
	product_name    TEXT[],
	product_brand   TEXT[],
	product_price   JSONB,
	category        TEXT,
	browser         TEXT        NOT NULL,
	os              TEXT        NOT NULL,
	ip_address      TEXT        NOT NULL,
	referral_source TEXT        NOT NULL,
	device_type     TEXT        NOT NULL,
	geo_country     TEXT        NOT NULL,
	geo_city        TEXT        NOT NULL,
	is_new_user     BOOLEAN     NOT NULL,
	cart_size       INTEGER     NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_clickstream_events_time ON clickstream_events (event_time)`,
}

const postgresInsert = `INSERT INTO clickstream_events (
	user_id, session_id, event_time, event_type, page_url,
	product_id, product_name, product_brand, product_price, category,
	browser, os, ip_address, referral_source, device_type,
	geo_country, geo_city, is_new_user, cart_size
) VALUES (
	:user_id, :session_id, :event_time, :event_type, :page_url,
	:product_id, :product_name, :product_brand, :product_price, :category,
	:browser, :os, :ip_address, :referral_source, :device_type,
	:geo_country, :geo_city, :is_new_user, :cart_size
)`

// postgresRow is one clickstream_events row
type postgresRow struct {
	UserID         string             `db:"user_id"`
	SessionID      string             `db:"session_id"`
	EventTime      time.Time          `db:"event_time"`
	EventType      string             `db:"event_type"`
	PageURL        string             `db:"page_url"`
	ProductID      pq.StringArray     `db:"product_id"`
	ProductName    pq.StringArray     `db:"product_name"`
	ProductBrand   pq.StringArray     `db:"product_brand"`
	ProductPrice   types.NullJSONText `db:"product_price"`
	Category       *string            `db:"category"`
	Browser        string             `db:"browser"`
	OS             string             `db:"os"`
	IPAddress      string             `db:"ip_address"`
	ReferralSource string             `db:"referral_source"`
	DeviceType     string             `db:"device_type"`
	GeoCountry     string             `db:"geo_country"`
	GeoCity        string             `db:"geo_city"`
	IsNewUser      bool               `db:"is_new_user"`
	CartSize       int                `db:"cart_size"`
}

// RowWriter is the Postgres client surface the publisher needs
type RowWriter interface {
	Migrate(ctx context.Context, statements ...string) error
	InsertNamed(ctx context.Context, query string, rows interface{}) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

// PostgresPublisher inserts each batch with a single multi-row INSERT
type PostgresPublisher struct {
	client RowWriter
	closed atomic.Bool
}

// NewPostgresPublisher takes ownership of client
func NewPostgresPublisher(client RowWriter) *PostgresPublisher {
	return &PostgresPublisher{client: client}
}

// EnsureSchema creates the events table
func (p *PostgresPublisher) EnsureSchema(ctx context.Context) error {
	return errors.Wrap(p.client.Migrate(ctx, PostgresSchema...), "create postgres table")
}

// Publish inserts the batch atomically
func (p *PostgresPublisher) Publish(ctx context.Context, events []clickstream.Event) (int, error) {
	if p.closed.Load() {
		return 0, errors.ErrPublisherClosed
	}
	if len(events) == 0 {
		return 0, nil
	}

	rows := make([]postgresRow, 0, len(events))
	for _, ev := range events {
		row, err := toPostgresRow(ev)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	start := time.Now()
	if _, err := p.client.InsertNamed(ctx, postgresInsert, rows); err != nil {
		metrics.RecordPublish(sinkPostgres, 0, 0, time.Since(start), err)
		return 0, errors.Wrapf(err, "insert %d events", len(rows))
	}
	metrics.RecordPublish(sinkPostgres, len(rows), 0, time.Since(start), nil)

	// the INSERT is atomic, so success means every row was written
	return len(rows), nil
}

// Health pings the database
func (p *PostgresPublisher) Health(ctx context.Context) error {
	return p.client.Health(ctx)
}

// Close closes the connection pool
func (p *PostgresPublisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.client.Close()
}

func toPostgresRow(ev clickstream.Event) (postgresRow, error) {
	var price types.NullJSONText
	if ev.ProductPrice != nil {
		data, err := json.Marshal(ev.ProductPrice)
		if err != nil {
			return postgresRow{}, errors.Wrap(err, "marshal product price")
		}
		price = types.NullJSONText{JSONText: data, Valid: true}
	}

	return postgresRow{
		UserID:         ev.UserID,
		SessionID:      ev.SessionID,
		EventTime:      ev.Timestamp.Time(),
		EventType:      string(ev.EventType),
		PageURL:        ev.PageURL,
		ProductID:      ev.ProductID,
		ProductName:    ev.ProductName,
		ProductBrand:   ev.ProductBrand,
		ProductPrice:   price,
		Category:       ev.Category,
		Browser:        ev.Browser,
		OS:             ev.OS,
		IPAddress:      ev.IPAddress,
		ReferralSource: ev.ReferralSource,
		DeviceType:     ev.DeviceType,
		GeoCountry:     ev.GeoCountry,
		GeoCity:        ev.GeoCity,
		IsNewUser:      ev.IsNewUser,
		CartSize:       ev.CartSize,
	}, nil
}
