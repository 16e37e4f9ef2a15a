// Package storage persists backtest runs and their trades to a local SQLite
// database (pure Go driver, no CGo).
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pilegduaempat-art/-binance-trading-bot/internal/backtest"
	"github.com/pilegduaempat-art/-binance-trading-bot/internal/signal"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    created_at    DATETIME NOT NULL,
    symbol        TEXT NOT NULL DEFAULT '',
    bars          INTEGER NOT NULL DEFAULT 0,
    total_trades  INTEGER NOT NULL DEFAULT 0,
    win_rate      REAL NOT NULL DEFAULT 0,
    profit_factor REAL,                      -- NULL encodes +Inf (no losing trades)
    total_return  REAL NOT NULL DEFAULT 0,
    sharpe_ratio  REAL NOT NULL DEFAULT 0,
    max_drawdown  REAL NOT NULL DEFAULT 0,
    final_balance REAL NOT NULL DEFAULT 0,
    expectancy    REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS trades (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id      TEXT NOT NULL,
    direction   TEXT NOT NULL,
    entry_time  DATETIME NOT NULL,
    entry_price REAL NOT NULL,
    exit_time   DATETIME NOT NULL,
    exit_price  REAL NOT NULL,
    size        REAL NOT NULL,
    pnl         REAL NOT NULL,
    pnl_pct     REAL NOT NULL,
    duration    INTEGER NOT NULL,
    exit_reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_run   ON trades(run_id);
`

// RunSummary is one persisted backtest run without its trade list.
type RunSummary struct {
	ID           string
	CreatedAt    time.Time
	Symbol       string
	Bars         int
	TotalTrades  int
	WinRate      float64
	ProfitFactor float64
	TotalReturn  float64
	SharpeRatio  float64
	MaxDrawdown  float64
	FinalBalance float64
	Expectancy   float64
}

// Store wraps the SQLite handle. Safe for concurrent use; SQLite itself is
// single-writer so the pool is capped at one connection.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveRun persists a result and its trades under a fresh run id.
func (s *Store) SaveRun(ctx context.Context, symbol string, bars int, res *backtest.Result) (string, error) {
	if res == nil {
		return "", fmt.Errorf("storage: nil result")
	}
	id := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback()

	pf := sql.NullFloat64{Float64: res.ProfitFactor, Valid: !math.IsInf(res.ProfitFactor, 1)}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, symbol, bars, total_trades, win_rate,
		                  profit_factor, total_return, sharpe_ratio, max_drawdown,
		                  final_balance, expectancy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC(), symbol, bars, res.TotalTrades, res.WinRate,
		pf, res.TotalReturn, res.SharpeRatio, res.MaxDrawdown,
		res.FinalBalance, res.Expectancy,
	)
	if err != nil {
		return "", fmt.Errorf("storage: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (run_id, direction, entry_time, entry_price,
		                    exit_time, exit_price, size, pnl, pnl_pct,
		                    duration, exit_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("storage: prepare trades: %w", err)
	}
	defer stmt.Close()

	for _, t := range res.Trades {
		_, err = stmt.ExecContext(ctx,
			id, string(t.Direction), t.EntryTime.UTC(), t.EntryPrice,
			t.ExitTime.UTC(), t.ExitPrice, t.Size, t.PnL, t.PnLPct,
			t.Duration, string(t.ExitReason),
		)
		if err != nil {
			return "", fmt.Errorf("storage: insert trade: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("storage: commit: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// defaults to 20.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, symbol, bars, total_trades, win_rate,
		       profit_factor, total_return, sharpe_ratio, max_drawdown,
		       final_balance, expectancy
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// LoadRun fetches one run and its trades by id.
func (s *Store) LoadRun(ctx context.Context, id string) (*RunSummary, []backtest.Trade, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, symbol, bars, total_trades, win_rate,
		       profit_factor, total_return, sharpe_ratio, max_drawdown,
		       final_balance, expectancy
		FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("storage: run %s not found", id)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT direction, entry_time, entry_price, exit_time, exit_price,
		       size, pnl, pnl_pct, duration, exit_reason
		FROM trades WHERE run_id = ? ORDER BY entry_time`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("storage: load trades: %w", err)
	}
	defer rows.Close()

	var trades []backtest.Trade
	for rows.Next() {
		var t backtest.Trade
		var dir, reason string
		if err := rows.Scan(&dir, &t.EntryTime, &t.EntryPrice, &t.ExitTime,
			&t.ExitPrice, &t.Size, &t.PnL, &t.PnLPct, &t.Duration, &reason); err != nil {
			return nil, nil, fmt.Errorf("storage: scan trade: %w", err)
		}
		t.Direction = signal.Direction(dir)
		t.ExitReason = backtest.ExitReason(reason)
		trades = append(trades, t)
	}
	return &run, trades, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunSummary, error) {
	var run RunSummary
	var pf sql.NullFloat64
	err := row.Scan(&run.ID, &run.CreatedAt, &run.Symbol, &run.Bars,
		&run.TotalTrades, &run.WinRate, &pf, &run.TotalReturn,
		&run.SharpeRatio, &run.MaxDrawdown, &run.FinalBalance, &run.Expectancy)
	if err != nil {
		return RunSummary{}, err
	}
	if pf.Valid {
		run.ProfitFactor = pf.Float64
	} else {
		run.ProfitFactor = math.Inf(1)
	}
	return run, nil
}
