package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsDSN(t *testing.T) {
	s := Settings{
		Host: "ch", Port: 9000, Database: "inout", User: "u", Password: "p@ss",
		Compression: "lz4", DialTimeout: 5 * time.Second, MaxExecutionTime: time.Minute,
	}
	assert.Equal(t, "clickhouse://u:p%40ss@ch:9000/inout?compress=lz4&dial_timeout=5s&max_execution_time=60", s.DSN())

	s = Settings{Host: "ch", UseHTTP: true, Compression: "none"}.withDefaults()
	assert.Equal(t, "http://ch:8123/default?dial_timeout=5s", s.DSN())
}

func TestSettingsDefaultsClampPool(t *testing.T) {
	s := Settings{Host: "ch", Pool: Pool{MaxOpen: 2, MaxIdle: 8}}.withDefaults()
	assert.Equal(t, 9000, s.Port)
	assert.Equal(t, "lz4", s.Compression)
	assert.Equal(t, 2, s.Pool.MaxIdle)
	assert.Equal(t, 5*time.Minute, s.Pool.MaxLifetime)
}

func TestOpenRejectsBadSettings(t *testing.T) {
	_, err := Open(context.Background(), Settings{})
	assert.ErrorContains(t, err, "host is required")

	_, err = Open(context.Background(), Settings{Host: "ch", Compression: "brotli"})
	assert.ErrorContains(t, err, "unsupported compression")
}

func TestInitSchemaRunsStatementsInOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE DATABASE IF NOT EXISTS inout").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS inout.daily_bars").WillReturnResult(sqlmock.NewResult(0, 0))

	c := NewClientFromDB(db, "inout")
	require.NoError(t, c.EnsureBarSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
