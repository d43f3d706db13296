// Package storage provides SQLite-based persistence for snapshots,
// market outcomes, and simulated trades
package storage

import "time"

// Snapshot is one persisted tick: the full feature set plus the decision
// made at that instant. Rows are append-only and never updated.
type Snapshot struct {
	ID               int64     `json:"id"`
	MarketSlug       string    `json:"market_slug"`
	Timestamp        time.Time `json:"timestamp"`
	EndTime          time.Time `json:"end_time"`
	RemainingMinutes float64   `json:"remaining_minutes"`

	// Price context
	Price       float64 `json:"price"`
	PriceToBeat float64 `json:"price_to_beat"`

	// Indicator readings
	VWAP           float64 `json:"vwap"`
	VWAPSlope      float64 `json:"vwap_slope"`
	RSI            float64 `json:"rsi"`
	RSISlope       float64 `json:"rsi_slope"`
	MACDHist       float64 `json:"macd_hist"`
	MACDDelta      float64 `json:"macd_delta"`
	HeikenColor    string  `json:"heiken_color"`
	HeikenStreak   int     `json:"heiken_streak"`
	DivBullish     bool    `json:"div_bullish"`
	DivBearish     bool    `json:"div_bearish"`
	DivStrength    float64 `json:"div_strength"`
	VolSpike       bool    `json:"vol_spike"`
	VolRatio       float64 `json:"vol_ratio"`
	VolDirection   string  `json:"vol_direction"`
	PressureBias   string  `json:"pressure_bias"`
	PressureRatio  float64 `json:"pressure_ratio"`
	BookExtreme    bool    `json:"book_extreme"`
	BookSide       string  `json:"book_side"` // contrarian side when extreme
	BookConfidence float64 `json:"book_confidence"`
	FailedReclaim  bool    `json:"failed_reclaim"`

	// Model vs market
	Regime     string  `json:"regime"`
	ModelUp    float64 `json:"model_up"`
	ModelDown  float64 `json:"model_down"`
	MarketUp   float64 `json:"market_up"`   // 0 when market data was missing
	MarketDown float64 `json:"market_down"` // 0 when market data was missing
	EdgeUp     float64 `json:"edge_up"`
	EdgeDown   float64 `json:"edge_down"`

	// Decision
	Signal     string  `json:"signal"` // "BUY UP", "BUY DOWN", "NO TRADE"
	Phase      string  `json:"phase"`
	Strength   string  `json:"strength"` // empty unless the signal entered
	Reason     string  `json:"reason"`
	Agreement  int     `json:"agreement"`
	EntryPrice float64 `json:"entry_price"` // best-side price in cents, 0 when unknown
}

// Outcome records how a market settled. One row per market, written once.
type Outcome struct {
	MarketSlug  string    `json:"market_slug"`
	EndTime     time.Time `json:"end_time"`
	PriceToBeat float64   `json:"price_to_beat"`
	FinalPrice  float64   `json:"final_price"`
	Outcome     string    `json:"outcome"` // "UP" or "DOWN"
	ResolvedAt  time.Time `json:"resolved_at"`
}

// Trade sources
const (
	SourceLive     = "live"
	SourceBacktest = "backtest"
)

// Trade outcomes
const (
	TradeWin  = "WIN"
	TradeLoss = "LOSS"
)

// SimulatedTrade is a paper trade opened from one qualifying snapshot and
// resolved against the market outcome
type SimulatedTrade struct {
	ID             int64     `json:"id"`
	MarketSlug     string    `json:"market_slug"`
	EntryTimestamp time.Time `json:"entry_timestamp"`
	Side           string    `json:"side"`
	EntryPrice     float64   `json:"entry_price"` // cents, slippage included
	Size           float64   `json:"size"`        // position size in dollars
	ModelProb      float64   `json:"model_prob"`
	Edge           float64   `json:"edge"`
	Phase          string    `json:"phase"`
	Strength       string    `json:"strength"`
	Source         string    `json:"source"` // "live" or "backtest"

	// Filled on resolution
	ExitPrice  float64   `json:"exit_price"` // 100 on a win, 0 on a loss
	Outcome    string    `json:"outcome"`    // "WIN", "LOSS", or "" while open
	PnL        float64   `json:"pnl"`
	PnLPct     float64   `json:"pnl_pct"`
	ResolvedAt time.Time `json:"resolved_at"` // zero while open
}

// Resolved reports whether the trade has settled
func (t *SimulatedTrade) Resolved() bool {
	return t.Outcome != ""
}

// TradeResult carries the settlement values applied to an open trade
type TradeResult struct {
	ExitPrice float64 `json:"exit_price"`
	Outcome   string  `json:"outcome"`
	PnL       float64 `json:"pnl"`
	PnLPct    float64 `json:"pnl_pct"`
}

// MarketInfo summarizes one market's snapshot coverage
type MarketInfo struct {
	Slug          string    `json:"slug"`
	FirstSeen     time.Time `json:"first_seen"`
	LastSeen      time.Time `json:"last_seen"`
	SnapshotCount int       `json:"snapshot_count"`
}

// PendingMarket is a market with snapshots but no recorded outcome
type PendingMarket struct {
	Slug        string    `json:"slug"`
	EndTime     time.Time `json:"end_time"`
	PriceToBeat float64   `json:"price_to_beat"`
}

// TradeFilter narrows AllTrades reads; zero values match everything
type TradeFilter struct {
	Source       string `json:"source"`
	Side         string `json:"side"`
	Phase        string `json:"phase"`
	Strength     string `json:"strength"`
	OnlyResolved bool   `json:"only_resolved"`
}
