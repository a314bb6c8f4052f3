package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"InOut/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCHBarStoreStoreBarTruncatesToDay(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newCHBarStore(db, "inout")
	ts := time.Date(2024, 5, 6, 20, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO inout.daily_bars (day, symbol, close) VALUES (?, ?, ?)")).
		WithArgs(time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), "QQQ", 440.5).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.StoreBar(context.Background(), models.Bar{Symbol: "QQQ", Time: ts, Close: 440.5}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHBarStoreStoreBarsSkipsInvalid(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newCHBarStore(db, "inout")
	d := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("VALUES (?, ?, ?),(?, ?, ?)")).
		WithArgs(d, "QQQ", 1.0, d, "TLT", 2.0).
		WillReturnResult(sqlmock.NewResult(2, 2))

	err = s.StoreBars(context.Background(), []models.Bar{
		{Symbol: "QQQ", Time: d, Close: 1},
		{Symbol: "", Time: d, Close: 3},
		{Symbol: "TLT", Time: d, Close: 2},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHBarStoreLoadHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	s := newCHBarStore(db, "inout")
	d1 := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	rows := sqlmock.NewRows([]string{"day", "symbol", "close"}).
		AddRow(d1, "QQQ", 100.0).
		AddRow(d1, "TLT", 90.0).
		AddRow(d2, "QQQ", 101.0)
	mock.ExpectQuery("SELECT day, symbol, argMax").
		WithArgs("QQQ", "TLT", "QQQ", "TLT", 1260).
		WillReturnRows(rows)

	got, err := s.LoadHistory(context.Background(), []string{"QQQ", "TLT"}, 1260)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.Bar{Symbol: "QQQ", Time: d2, Close: 101}, got[2])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCHBarStoreLoadHistoryEmptyRequest(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	got, err := newCHBarStore(db, "inout").LoadHistory(context.Background(), nil, 10)
	assert.NoError(t, err)
	assert.Nil(t, got)
}
