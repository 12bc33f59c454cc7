// Package barstore keeps bar history in SQLite and imports it from CSV
// exports and Dukascopy tick files.
package barstore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rustyeddy/trendbot/broker"
	"github.com/rustyeddy/trendbot/market"
)

// SQLite is a bar history backed by a SQLite file. It satisfies
// broker.MarketData.
type SQLite struct {
	db *sql.DB
}

var _ broker.MarketData = (*SQLite)(nil)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// InsertBars upserts bars; a bar already stored at the same open time is
// replaced.
func (s *SQLite) InsertBars(ctx context.Context, instrument string, tf market.Timeframe, bars []market.Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars
		(instrument, timeframe, time, open, high, low, close, tick_volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(instrument, timeframe, time) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			tick_volume = excluded.tick_volume`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx,
			instrument, string(tf), b.Time.Unix(),
			b.Open, b.High, b.Low, b.Close, b.TickVolume,
		); err != nil {
			return fmt.Errorf("insert %s %s %s: %w", instrument, tf, b.Time.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}

// Bars returns the last count bars, oldest first.
func (s *SQLite) Bars(ctx context.Context, instrument string, tf market.Timeframe, count int) ([]market.Bar, error) {
	return s.BarsBefore(ctx, instrument, tf, count, time.Time{})
}

// BarsBefore is Bars limited to bars opening before end. A zero end
// means no limit.
func (s *SQLite) BarsBefore(ctx context.Context, instrument string, tf market.Timeframe, count int, end time.Time) ([]market.Bar, error) {
	if count <= 0 {
		return nil, fmt.Errorf("bar count must be positive, got %d", count)
	}
	limit := int64(math.MaxInt64)
	if !end.IsZero() {
		limit = end.Unix()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT time, open, high, low, close, tick_volume
		FROM bars
		WHERE instrument = ? AND timeframe = ? AND time < ?
		ORDER BY time DESC
		LIMIT ?`,
		instrument, string(tf), limit, count,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Bar
	for rows.Next() {
		var (
			ts int64
			b  market.Bar
		)
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.TickVolume); err != nil {
			return nil, err
		}
		b.Time = time.Unix(ts, 0).UTC()
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s %s: %w", instrument, tf, broker.ErrDataUnavailable)
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Range describes the stored history of one series.
type Range struct {
	Instrument string
	Timeframe  market.Timeframe
	Count      int
	First      time.Time
	Last       time.Time
}

// Ranges lists every stored series.
func (s *SQLite) Ranges(ctx context.Context) ([]Range, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT instrument, timeframe, COUNT(*), MIN(time), MAX(time)
		FROM bars
		GROUP BY instrument, timeframe
		ORDER BY instrument, timeframe`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Range
	for rows.Next() {
		var (
			r           Range
			tf          string
			first, last int64
		)
		if err := rows.Scan(&r.Instrument, &tf, &r.Count, &first, &last); err != nil {
			return nil, err
		}
		r.Timeframe = market.Timeframe(tf)
		r.First = time.Unix(first, 0).UTC()
		r.Last = time.Unix(last, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
