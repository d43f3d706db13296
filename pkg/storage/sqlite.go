package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbPath and runs migrations
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets the collector write while report tools read
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates tables if they don't exist
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		market_slug TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		end_time DATETIME NOT NULL,
		remaining_minutes REAL NOT NULL,
		price REAL NOT NULL,
		price_to_beat REAL NOT NULL,
		vwap REAL NOT NULL DEFAULT 0,
		vwap_slope REAL NOT NULL DEFAULT 0,
		rsi REAL NOT NULL DEFAULT 0,
		rsi_slope REAL NOT NULL DEFAULT 0,
		macd_hist REAL NOT NULL DEFAULT 0,
		macd_delta REAL NOT NULL DEFAULT 0,
		heiken_color TEXT NOT NULL DEFAULT '',
		heiken_streak INTEGER NOT NULL DEFAULT 0,
		div_bullish INTEGER NOT NULL DEFAULT 0,
		div_bearish INTEGER NOT NULL DEFAULT 0,
		div_strength REAL NOT NULL DEFAULT 0,
		vol_spike INTEGER NOT NULL DEFAULT 0,
		vol_ratio REAL NOT NULL DEFAULT 0,
		vol_direction TEXT NOT NULL DEFAULT '',
		pressure_bias TEXT NOT NULL DEFAULT '',
		pressure_ratio REAL NOT NULL DEFAULT 0,
		book_extreme INTEGER NOT NULL DEFAULT 0,
		book_side TEXT NOT NULL DEFAULT '',
		book_confidence REAL NOT NULL DEFAULT 0,
		failed_reclaim INTEGER NOT NULL DEFAULT 0,
		regime TEXT NOT NULL DEFAULT '',
		model_up REAL NOT NULL DEFAULT 0,
		model_down REAL NOT NULL DEFAULT 0,
		market_up REAL NOT NULL DEFAULT 0,
		market_down REAL NOT NULL DEFAULT 0,
		edge_up REAL NOT NULL DEFAULT 0,
		edge_down REAL NOT NULL DEFAULT 0,
		signal TEXT NOT NULL DEFAULT '',
		phase TEXT NOT NULL DEFAULT '',
		strength TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		agreement INTEGER NOT NULL DEFAULT 0,
		entry_price REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_market ON snapshots(market_slug);
	CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON snapshots(timestamp);

	CREATE TABLE IF NOT EXISTS market_outcomes (
		market_slug TEXT PRIMARY KEY,
		end_time DATETIME NOT NULL,
		price_to_beat REAL NOT NULL,
		final_price REAL NOT NULL,
		outcome TEXT NOT NULL,
		resolved_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS simulated_trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		market_slug TEXT NOT NULL,
		entry_timestamp DATETIME NOT NULL,
		side TEXT NOT NULL,
		entry_price REAL NOT NULL,
		size REAL NOT NULL,
		model_prob REAL NOT NULL DEFAULT 0,
		edge REAL NOT NULL DEFAULT 0,
		phase TEXT NOT NULL DEFAULT '',
		strength TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'live',
		exit_price REAL NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL DEFAULT '',
		pnl REAL NOT NULL DEFAULT 0,
		pnl_pct REAL NOT NULL DEFAULT 0,
		resolved_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_trades_market ON simulated_trades(market_slug);
	CREATE INDEX IF NOT EXISTS idx_trades_outcome ON simulated_trades(outcome);
	`
	_, err := s.db.Exec(schema)
	return err
}

const snapshotColumns = `market_slug, timestamp, end_time, remaining_minutes,
		price, price_to_beat, vwap, vwap_slope, rsi, rsi_slope, macd_hist, macd_delta,
		heiken_color, heiken_streak, div_bullish, div_bearish, div_strength,
		vol_spike, vol_ratio, vol_direction, pressure_bias, pressure_ratio,
		book_extreme, book_side, book_confidence, failed_reclaim,
		regime, model_up, model_down, market_up, market_down, edge_up, edge_down,
		signal, phase, strength, reason, agreement, entry_price`

// InsertSnapshot persists one tick and sets snap.ID. Times are stored
// in UTC so that text comparisons in SQL order chronologically.
func (s *Store) InsertSnapshot(ctx context.Context, snap *Snapshot) error {
	query := `INSERT INTO snapshots (` + snapshotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		snap.MarketSlug, snap.Timestamp.UTC(), snap.EndTime.UTC(), snap.RemainingMinutes,
		snap.Price, snap.PriceToBeat, snap.VWAP, snap.VWAPSlope, snap.RSI, snap.RSISlope, snap.MACDHist, snap.MACDDelta,
		snap.HeikenColor, snap.HeikenStreak, snap.DivBullish, snap.DivBearish, snap.DivStrength,
		snap.VolSpike, snap.VolRatio, snap.VolDirection, snap.PressureBias, snap.PressureRatio,
		snap.BookExtreme, snap.BookSide, snap.BookConfidence, snap.FailedReclaim,
		snap.Regime, snap.ModelUp, snap.ModelDown, snap.MarketUp, snap.MarketDown, snap.EdgeUp, snap.EdgeDown,
		snap.Signal, snap.Phase, snap.Strength, snap.Reason, snap.Agreement, snap.EntryPrice,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	snap.ID = id
	return nil
}

func scanSnapshot(rows *sql.Rows) (Snapshot, error) {
	var snap Snapshot
	err := rows.Scan(
		&snap.ID, &snap.MarketSlug, &snap.Timestamp, &snap.EndTime, &snap.RemainingMinutes,
		&snap.Price, &snap.PriceToBeat, &snap.VWAP, &snap.VWAPSlope, &snap.RSI, &snap.RSISlope, &snap.MACDHist, &snap.MACDDelta,
		&snap.HeikenColor, &snap.HeikenStreak, &snap.DivBullish, &snap.DivBearish, &snap.DivStrength,
		&snap.VolSpike, &snap.VolRatio, &snap.VolDirection, &snap.PressureBias, &snap.PressureRatio,
		&snap.BookExtreme, &snap.BookSide, &snap.BookConfidence, &snap.FailedReclaim,
		&snap.Regime, &snap.ModelUp, &snap.ModelDown, &snap.MarketUp, &snap.MarketDown, &snap.EdgeUp, &snap.EdgeDown,
		&snap.Signal, &snap.Phase, &snap.Strength, &snap.Reason, &snap.Agreement, &snap.EntryPrice,
	)
	return snap, err
}

// SnapshotsByMarket returns all snapshots for a market in chronological order
func (s *Store) SnapshotsByMarket(ctx context.Context, slug string) ([]Snapshot, error) {
	query := `SELECT id, ` + snapshotColumns + `
		FROM snapshots WHERE market_slug = ? ORDER BY timestamp ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, slug)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// DistinctMarkets lists every market that has snapshots, oldest first.
// MIN/MAX expressions lose the column's declared type, so the driver
// hands the timestamps back as text and we parse them ourselves.
func (s *Store) DistinctMarkets(ctx context.Context) ([]MarketInfo, error) {
	query := `SELECT market_slug, MIN(timestamp), MAX(timestamp), COUNT(*)
		FROM snapshots GROUP BY market_slug ORDER BY MIN(timestamp) ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query markets: %w", err)
	}
	defer rows.Close()

	var markets []MarketInfo
	for rows.Next() {
		var (
			m           MarketInfo
			first, last string
		)
		if err := rows.Scan(&m.Slug, &first, &last, &m.SnapshotCount); err != nil {
			return nil, fmt.Errorf("scan market: %w", err)
		}
		if m.FirstSeen, err = parseStoredTime(first); err != nil {
			return nil, fmt.Errorf("market %s: %w", m.Slug, err)
		}
		if m.LastSeen, err = parseStoredTime(last); err != nil {
			return nil, fmt.Errorf("market %s: %w", m.Slug, err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

// parseStoredTime decodes a DATETIME value that came back as raw text,
// which happens whenever the column is wrapped in an aggregate.
func parseStoredTime(s string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

// GetOutcome returns the recorded outcome for a market, or nil if none exists
func (s *Store) GetOutcome(ctx context.Context, slug string) (*Outcome, error) {
	var o Outcome
	err := s.db.QueryRowContext(ctx,
		`SELECT market_slug, end_time, price_to_beat, final_price, outcome, resolved_at
		 FROM market_outcomes WHERE market_slug = ?`, slug).
		Scan(&o.MarketSlug, &o.EndTime, &o.PriceToBeat, &o.FinalPrice, &o.Outcome, &o.ResolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query outcome: %w", err)
	}
	return &o, nil
}

// InsertOutcome records how a market settled (idempotent per market)
func (s *Store) InsertOutcome(ctx context.Context, o *Outcome) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO market_outcomes
		 (market_slug, end_time, price_to_beat, final_price, outcome, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.MarketSlug, o.EndTime.UTC(), o.PriceToBeat, o.FinalPrice, o.Outcome, o.ResolvedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// PendingOutcomes lists markets whose window closed at least grace ago
// but that have no recorded outcome yet. The end time and price to beat
// come from each market's latest snapshot.
func (s *Store) PendingOutcomes(ctx context.Context, now time.Time, grace time.Duration) ([]PendingMarket, error) {
	// Stored times are UTC; the bound parameter must match for the
	// comparison to hold.
	cutoff := now.UTC().Add(-grace)
	query := `SELECT market_slug, end_time, price_to_beat
		FROM snapshots
		WHERE id IN (
			SELECT MAX(id) FROM snapshots
			WHERE market_slug NOT IN (SELECT market_slug FROM market_outcomes)
			GROUP BY market_slug
		)
		AND end_time <= ?
		ORDER BY end_time ASC, market_slug ASC`

	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query pending markets: %w", err)
	}
	defer rows.Close()

	var pending []PendingMarket
	for rows.Next() {
		var p PendingMarket
		if err := rows.Scan(&p.Slug, &p.EndTime, &p.PriceToBeat); err != nil {
			return nil, fmt.Errorf("scan pending market: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

const tradeColumns = `id, market_slug, entry_timestamp, side, entry_price, size,
		model_prob, edge, phase, strength, source, exit_price, outcome, pnl, pnl_pct, resolved_at`

func scanTrade(rows *sql.Rows) (SimulatedTrade, error) {
	var t SimulatedTrade
	var resolvedAt sql.NullTime
	err := rows.Scan(
		&t.ID, &t.MarketSlug, &t.EntryTimestamp, &t.Side, &t.EntryPrice, &t.Size,
		&t.ModelProb, &t.Edge, &t.Phase, &t.Strength, &t.Source,
		&t.ExitPrice, &t.Outcome, &t.PnL, &t.PnLPct, &resolvedAt,
	)
	if resolvedAt.Valid {
		t.ResolvedAt = resolvedAt.Time
	}
	return t, err
}

// InsertSimulatedTrade opens a paper trade and sets t.ID
func (s *Store) InsertSimulatedTrade(ctx context.Context, t *SimulatedTrade) error {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO simulated_trades
		 (market_slug, entry_timestamp, side, entry_price, size, model_prob, edge, phase, strength, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.MarketSlug, t.EntryTimestamp.UTC(), t.Side, t.EntryPrice, t.Size,
		t.ModelProb, t.Edge, t.Phase, t.Strength, t.Source)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// ResolveSimulatedTrade settles an open trade with the given result
func (s *Store) ResolveSimulatedTrade(ctx context.Context, id int64, r TradeResult) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE simulated_trades
		 SET exit_price = ?, outcome = ?, pnl = ?, pnl_pct = ?, resolved_at = ?
		 WHERE id = ? AND outcome = ''`,
		r.ExitPrice, r.Outcome, r.PnL, r.PnLPct, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("resolve trade: %w", err)
	}
	n, err := result.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("resolve trade %d: not found or already resolved", id)
	}
	return nil
}

// OpenTradesByMarket returns unresolved trades for one market
func (s *Store) OpenTradesByMarket(ctx context.Context, slug string) ([]SimulatedTrade, error) {
	query := `SELECT ` + tradeColumns + `
		FROM simulated_trades WHERE market_slug = ? AND outcome = '' ORDER BY entry_timestamp ASC`

	rows, err := s.db.QueryContext(ctx, query, slug)
	if err != nil {
		return nil, fmt.Errorf("query open trades: %w", err)
	}
	defer rows.Close()

	var trades []SimulatedTrade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// AllTrades returns trades matching the filter, oldest entry first
func (s *Store) AllTrades(ctx context.Context, f TradeFilter) ([]SimulatedTrade, error) {
	query := `SELECT ` + tradeColumns + ` FROM simulated_trades WHERE 1=1`
	var args []any

	if f.Source != "" {
		query += " AND source = ?"
		args = append(args, f.Source)
	}
	if f.Side != "" {
		query += " AND side = ?"
		args = append(args, f.Side)
	}
	if f.Phase != "" {
		query += " AND phase = ?"
		args = append(args, f.Phase)
	}
	if f.Strength != "" {
		query += " AND strength = ?"
		args = append(args, f.Strength)
	}
	if f.OnlyResolved {
		query += " AND outcome != ''"
	}
	query += " ORDER BY entry_timestamp ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []SimulatedTrade
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
