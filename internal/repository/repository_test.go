package repository

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockRepository returns a Repository over sqlmock. Expectations are
// matched in order as regular expressions.
func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewWithDB(sqlx.NewDb(db, "pgx")), dbMock
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(sql.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("get: %w", sql.ErrNoRows)), ErrNotFound)

	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: "23505"}), ErrDuplicate)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505"}), ErrDuplicate)

	other := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, other, mapError(other))
}

func TestConfig_GetDatabaseURL(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "app", Password: "secret", Name: "miniapp"}
	assert.Equal(t, "postgres://app:secret@db:5432/miniapp?sslmode=disable", cfg.GetDatabaseURL())

	cfg.SSLMode = "require"
	assert.Equal(t, "postgres://app:secret@db:5432/miniapp?sslmode=require", cfg.GetDatabaseURL())
}
