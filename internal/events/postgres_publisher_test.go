package events

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickstream/internal/adapters/postgres"
	"clickstream/internal/domain/clickstream"
	"clickstream/pkg/errors"
)

func newPostgresPublisher(t *testing.T) (*PostgresPublisher, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPostgresPublisher(postgres.NewFromDB(sqlx.NewDb(db, "postgres"))), mock
}

// anyArgs matches rows*19 bind values, pinning the user_id of each row
func anyArgs(userIDs ...string) []driver.Value {
	const columns = 19
	args := make([]driver.Value, 0, len(userIDs)*columns)
	for _, id := range userIDs {
		args = append(args, id)
		for i := 1; i < columns; i++ {
			args = append(args, sqlmock.AnyArg())
		}
	}
	return args
}

func TestPostgresPublisher_SingleInsertPerBatch(t *testing.T) {
	p, mock := newPostgresPublisher(t)

	events := testEvents(3)
	mock.ExpectExec(`INSERT INTO clickstream_events`).
		WithArgs(anyArgs(events[0].UserID, events[1].UserID, events[2].UserID)...).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := p.Publish(context.Background(), events)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPublisher_InsertFailure(t *testing.T) {
	p, mock := newPostgresPublisher(t)

	mock.ExpectExec(`INSERT INTO clickstream_events`).WillReturnError(errors.ErrUnavailable)

	n, err := p.Publish(context.Background(), testEvents(2))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, errors.ErrUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPublisher_EmptyBatchSkipsDatabase(t *testing.T) {
	p, mock := newPostgresPublisher(t)

	n, err := p.Publish(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPublisher_EnsureSchema(t *testing.T) {
	p, mock := newPostgresPublisher(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS clickstream_events`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_clickstream_events_time`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, p.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPublisher_Close(t *testing.T) {
	p, mock := newPostgresPublisher(t)
	mock.ExpectClose()

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err := p.Publish(context.Background(), testEvents(1))
	assert.ErrorIs(t, err, errors.ErrPublisherClosed)
}

func TestToPostgresRow(t *testing.T) {
	plain, err := toPostgresRow(testEvent("u1"))
	require.NoError(t, err)
	assert.False(t, plain.ProductPrice.Valid)
	assert.Nil(t, plain.ProductID)
	assert.Nil(t, plain.Category)

	ev := testEvent("u2")
	mixed := clickstream.CategoryMixed
	ev.EventType = clickstream.EventPurchase
	ev.ProductID = []string{"A", "B"}
	ev.ProductPrice = clickstream.TotalPrice(decimal.RequireFromString("15.50"))
	ev.Category = &mixed

	row, err := toPostgresRow(ev)
	require.NoError(t, err)
	assert.True(t, row.ProductPrice.Valid)
	assert.JSONEq(t, `15.5`, string(row.ProductPrice.JSONText))
	assert.Equal(t, []string{"A", "B"}, []string(row.ProductID))
	assert.Equal(t, "Mixed", *row.Category)
	assert.Equal(t, "purchase", row.EventType)
}
