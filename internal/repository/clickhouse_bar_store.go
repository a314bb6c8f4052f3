package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"InOut/internal/domain/models"
	domrepo "InOut/internal/domain/repository"
	pkgch "InOut/pkg/clickhouse"
	applogger "InOut/pkg/logger"
	"InOut/pkg/util"
)

// CHBarStore implements BarStore backed by ClickHouse.
type CHBarStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

// NewCHBarStore archives into the client's database.
func NewCHBarStore(ch *pkgch.Client) *CHBarStore {
	return &CHBarStore{ch: ch, db: ch.DB(), table: ch.Database() + "." + pkgch.BarsTable}
}

func newCHBarStore(db *sql.DB, database string) *CHBarStore {
	return NewCHBarStore(pkgch.NewClientFromDB(db, database))
}

// SetLogger injects a structured logger.
func (s *CHBarStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHBarStore) Init(ctx context.Context) error {
	if err := s.ch.EnsureBarSchema(ctx); err != nil {
		return fmt.Errorf("init bar schema: %w", err)
	}
	return nil
}

func (s *CHBarStore) StoreBar(ctx context.Context, b models.Bar) error {
	q := fmt.Sprintf("INSERT INTO %s (day, symbol, close) VALUES (?, ?, ?)", s.table)
	if _, err := s.db.ExecContext(ctx, q, util.Day(b.Time), b.Symbol, b.Close); err != nil {
		return fmt.Errorf("store bar: %w", err)
	}
	return nil
}

func (s *CHBarStore) StoreBars(ctx context.Context, bars []models.Bar) error {
	// chunked multi-row VALUES to bound statement size
	const chunkSize = 2000
	for start := 0; start < len(bars); start += chunkSize {
		end := start + chunkSize
		if end > len(bars) {
			end = len(bars)
		}
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*3)
		for _, b := range bars[start:end] {
			if b.Symbol == "" || b.Time.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?)")
			args = append(args, util.Day(b.Time), b.Symbol, b.Close)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (day, symbol, close) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("store bars: %w", err)
		}
	}
	return nil
}

// LoadHistory returns the latest close per (symbol, day) over the most recent
// days trading days, oldest first.
func (s *CHBarStore) LoadHistory(ctx context.Context, symbols []string, days int) ([]models.Bar, error) {
	if len(symbols) == 0 || days <= 0 {
		return nil, nil
	}
	start := time.Now()
	in := strings.TrimSuffix(strings.Repeat("?,", len(symbols)), ",")
	q := fmt.Sprintf(`
        SELECT day, symbol, argMax(close, ingested_at) AS close
        FROM %[1]s
        WHERE symbol IN (%[2]s)
          AND day IN (SELECT DISTINCT day FROM %[1]s WHERE symbol IN (%[2]s) ORDER BY day DESC LIMIT ?)
        GROUP BY day, symbol
        ORDER BY day ASC, symbol ASC
    `, s.table, in)

	args := make([]interface{}, 0, 2*len(symbols)+1)
	for i := 0; i < 2; i++ {
		for _, sym := range symbols {
			args = append(args, sym)
		}
	}
	args = append(args, days)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse load_history query error", applogger.Int("days", days), applogger.Error(err))
		}
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, days*len(symbols))
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Time, &b.Symbol, &b.Close); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		b.Time = util.Day(b.Time)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bars: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse load_history",
			applogger.Int("rows", len(out)),
			applogger.Duration("took", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHBarStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHBarStore) Close() error {
	return nil // pool owned by pkg/clickhouse
}

var _ domrepo.BarStore = (*CHBarStore)(nil)
