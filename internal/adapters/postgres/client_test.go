package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clickstream/pkg/errors"
)

func newMockClient(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewFromDB(sqlx.NewDb(db, "postgres")), mock
}

func TestClient_MigrateCommits(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE t`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX i`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, c.Migrate(context.Background(), "CREATE TABLE t (id int)", "CREATE INDEX i ON t (id)"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_MigrateRollsBackOnFailure(t *testing.T) {
	c, mock := newMockClient(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE t`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX i`).WillReturnError(errors.ErrInvalidInput)
	mock.ExpectRollback()

	err := c.Migrate(context.Background(), "CREATE TABLE t (id int)", "CREATE INDEX i ON t (id)")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "statement 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_InsertNamed(t *testing.T) {
	c, mock := newMockClient(t)

	type row struct {
		ID   int    `db:"id"`
		Name string `db:"name"`
	}
	mock.ExpectExec(`INSERT INTO t`).
		WithArgs(1, "a", 2, "b").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := c.InsertNamed(context.Background(), `INSERT INTO t (id, name) VALUES (:id, :name)`,
		[]row{{1, "a"}, {2, "b"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_HealthAndClose(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	c := NewFromDB(sqlx.NewDb(db, "postgres"))

	mock.ExpectPing().WillReturnError(errors.ErrUnavailable)
	mock.ExpectClose()

	assert.ErrorIs(t, c.Health(context.Background()), errors.ErrUnavailable)
	require.NoError(t, c.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
