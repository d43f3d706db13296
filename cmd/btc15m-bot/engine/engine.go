// Package engine runs the live collection loop for the rolling 15-minute
// BTC up/down market: candles and market prices in, one snapshot and at
// most one paper trade out per tick.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/brendanplayford/polymarket-go/pkg/market"
	"github.com/brendanplayford/polymarket-go/pkg/notify"
	"github.com/brendanplayford/polymarket-go/pkg/polymarket"
	"github.com/brendanplayford/polymarket-go/pkg/regime"
	"github.com/brendanplayford/polymarket-go/pkg/storage"
	"github.com/brendanplayford/polymarket-go/pkg/strategy"
)

// CandleSource provides the price series the indicators run on.
type CandleSource interface {
	Klines(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)
	LastPrice(ctx context.Context, symbol string) (float64, error)
}

// MarketSource provides prediction-market metadata and prices.
type MarketSource interface {
	GetMarketBySlug(ctx context.Context, slug string) (*polymarket.Market, error)
	MarketPrices(ctx context.Context, m *polymarket.Market) (up, down float64, err error)
	BuyPrice(ctx context.Context, tokenID string) (float64, error)
}

// BookSource is a live order book cache, usually the websocket stream.
type BookSource interface {
	SetAssets(ids []string)
	Book(tokenID string) *polymarket.BookTop
}

// Store is the persistence surface the engine writes through.
type Store interface {
	InsertSnapshot(ctx context.Context, snap *storage.Snapshot) error
	InsertSimulatedTrade(ctx context.Context, t *storage.SimulatedTrade) error
	OpenTradesByMarket(ctx context.Context, slug string) ([]storage.SimulatedTrade, error)
	PendingOutcomes(ctx context.Context, now time.Time, grace time.Duration) ([]storage.PendingMarket, error)
	InsertOutcome(ctx context.Context, o *storage.Outcome) error
	ResolveSimulatedTrade(ctx context.Context, id int64, result storage.TradeResult) error
}

// Config holds the engine's runtime parameters.
type Config struct {
	Symbol        string
	Interval      string
	CandleLimit   int
	TickInterval  time.Duration
	ResolveEvery  time.Duration
	ResolveGrace  time.Duration
	PositionSize  float64
	CommissionPct float64
}

// Engine drives the tick loop and the outcome resolver on one goroutine.
type Engine struct {
	cfg      Config
	store    Store
	candles  CandleSource
	markets  MarketSource
	books    BookSource
	notifier *notify.Notifier
	signals  *SignalLog
	metrics  *Metrics
	log      zerolog.Logger

	// Current market, refreshed when the window rolls over.
	slug      string
	upToken   string
	downToken string
	gamma     *polymarket.Market
}

// New creates an engine. Optional parts attach via the setters below.
func New(cfg Config, store Store, candles CandleSource, markets MarketSource, notifier *notify.Notifier, metrics *Metrics, log zerolog.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		store:    store,
		candles:  candles,
		markets:  markets,
		notifier: notifier,
		metrics:  metrics,
		log:      log,
	}
}

// SetBookSource attaches a live order book stream. Without one the engine
// uses REST midpoints on every tick.
func (e *Engine) SetBookSource(b BookSource) {
	e.books = b
}

// SetSignalLog attaches a CSV signal log.
func (e *Engine) SetSignalLog(sl *SignalLog) {
	e.signals = sl
}

// Run ticks until the context is cancelled. Resolution fires on its own
// timer and on window transitions; both paths are idempotent.
func (e *Engine) Run(ctx context.Context) {
	e.log.Info().
		Str("symbol", e.cfg.Symbol).
		Dur("tick", e.cfg.TickInterval).
		Float64("position_size", e.cfg.PositionSize).
		Msg("engine starting")

	tick := time.NewTicker(e.cfg.TickInterval)
	defer tick.Stop()
	resolve := time.NewTicker(e.cfg.ResolveEvery)
	defer resolve.Stop()

	// Clear any backlog from a previous run, then tick immediately.
	e.resolve(ctx, time.Now())
	e.tick(ctx, time.Now())

	for {
		select {
		case <-ctx.Done():
			e.log.Info().Msg("engine stopping")
			return
		case now := <-tick.C:
			e.tick(ctx, now)
		case now := <-resolve.C:
			e.resolve(ctx, now)
		}
	}
}

func (e *Engine) tick(ctx context.Context, now time.Time) {
	e.metrics.Ticks.Inc()

	window := market.WindowFor(now)
	slug := window.Slug()
	if slug != e.slug {
		e.enterWindow(ctx, slug, now)
	}
	remaining := window.RemainingMinutes(now)

	candles, err := e.candles.Klines(ctx, e.cfg.Symbol, e.cfg.Interval, e.cfg.CandleLimit)
	if err != nil {
		e.metrics.TickErrors.WithLabelValues("candles").Inc()
		e.log.Warn().Err(err).Msg("kline fetch failed")
		return
	}
	if len(candles) == 0 {
		e.metrics.TickErrors.WithLabelValues("candles").Inc()
		e.log.Warn().Msg("empty candle window")
		return
	}

	priceToBeat := windowOpen(candles, window)
	up, down := e.marketPrices(ctx)

	reg := regime.Classify(candles)
	bundle := strategy.BuildBundle(candles, up, down)
	score := strategy.ScoreDirection(bundle, reg)
	modelUp, modelDown := strategy.ApplyTimeAwareness(score.RawUp, remaining, market.WindowMinutes)
	edge := strategy.ComputeEdge(modelUp, modelDown, up, down)
	dec := strategy.Decide(remaining, edge, modelUp, modelDown, reg, score, bundle.Divergence)

	e.metrics.ModelUp.Set(modelUp)
	if edge != nil {
		e.metrics.EdgeUp.Set(edge.EdgeUp)
	}
	if dec.Action == strategy.ActionEnter {
		e.metrics.Signals.WithLabelValues(string(dec.Side), string(dec.Strength)).Inc()
	}

	snap := buildSnapshot(slug, now, window.End, remaining, priceToBeat, bundle, reg, modelUp, modelDown, edge, dec)
	if err := e.store.InsertSnapshot(ctx, snap); err != nil {
		e.metrics.TickErrors.WithLabelValues("store").Inc()
		e.log.Error().Err(err).Str("market", slug).Msg("snapshot insert failed")
	} else {
		e.metrics.SnapshotsWritten.Inc()
	}

	e.writeSignal(snap)

	e.log.Info().
		Str("market", slug).
		Str("regime", string(reg)).
		Str("signal", dec.Signal()).
		Str("phase", string(dec.Phase)).
		Float64("remaining", remaining).
		Float64("model_up", modelUp).
		Str("reason", dec.Reason).
		Msg("tick")

	if dec.Action == strategy.ActionEnter {
		e.openTrade(ctx, slug, now, snap, dec)
	}
}

// enterWindow refreshes market metadata when the 15-minute window rolls
// over, points the book stream at the new tokens, and kicks a resolution
// pass for whatever just closed.
func (e *Engine) enterWindow(ctx context.Context, slug string, now time.Time) {
	prev := e.slug
	e.slug = slug
	e.gamma = nil
	e.upToken, e.downToken = "", ""

	m, err := e.markets.GetMarketBySlug(ctx, slug)
	if err != nil {
		e.metrics.TickErrors.WithLabelValues("gamma").Inc()
		e.log.Warn().Err(err).Str("market", slug).Msg("market lookup failed")
	} else {
		e.gamma = m
		upTok, downTok, err := m.UpDownTokens()
		if err != nil {
			e.log.Warn().Err(err).Str("market", slug).Msg("token decode failed")
		} else {
			e.upToken, e.downToken = upTok, downTok
			if e.books != nil {
				e.books.SetAssets([]string{upTok, downTok})
			}
		}
	}

	e.log.Info().Str("market", slug).Msg("window transition")

	if prev != "" {
		e.resolve(ctx, now)
	}
}

// marketPrices returns the UP/DOWN pair in [0,1], preferring the live book
// stream and falling back to REST midpoints. Zeros mean no market data.
func (e *Engine) marketPrices(ctx context.Context) (up, down float64) {
	if e.books != nil && e.upToken != "" && e.downToken != "" {
		um := e.books.Book(e.upToken).Midpoint()
		dm := e.books.Book(e.downToken).Midpoint()
		if um > 0 && dm > 0 {
			return um, dm
		}
	}

	if e.gamma == nil {
		return 0, 0
	}
	up, down, err := e.markets.MarketPrices(ctx, e.gamma)
	if err != nil {
		e.metrics.TickErrors.WithLabelValues("clob").Inc()
		e.log.Warn().Err(err).Msg("market price fetch failed")
		return 0, 0
	}
	return up, down
}

// openTrade opens one paper trade for an ENTER decision, at most one per
// market window.
func (e *Engine) openTrade(ctx context.Context, slug string, now time.Time, snap *storage.Snapshot, dec strategy.Decision) {
	open, err := e.store.OpenTradesByMarket(ctx, slug)
	if err != nil {
		e.metrics.TickErrors.WithLabelValues("store").Inc()
		e.log.Error().Err(err).Str("market", slug).Msg("open trade check failed")
		return
	}
	if len(open) > 0 {
		return
	}

	entry := e.entryPrice(ctx, dec.Side, snap.EntryPrice)
	if entry <= 0 {
		e.log.Warn().Str("market", slug).Msg("no entry price, skipping trade")
		return
	}

	trade := &storage.SimulatedTrade{
		MarketSlug:     slug,
		EntryTimestamp: now.UTC(),
		Side:           string(dec.Side),
		EntryPrice:     entry,
		Size:           e.cfg.PositionSize,
		ModelProb:      dec.ModelProb,
		Edge:           dec.Edge,
		Phase:          string(dec.Phase),
		Strength:       string(dec.Strength),
		Source:         storage.SourceLive,
	}
	if err := e.store.InsertSimulatedTrade(ctx, trade); err != nil {
		e.metrics.TickErrors.WithLabelValues("store").Inc()
		e.log.Error().Err(err).Str("market", slug).Msg("trade insert failed")
		return
	}

	e.metrics.TradesOpened.Inc()
	e.log.Info().
		Str("market", slug).
		Str("side", string(dec.Side)).
		Str("strength", string(dec.Strength)).
		Float64("entry", entry).
		Float64("edge", dec.Edge).
		Msg("paper trade opened")

	if dec.Strength == strategy.StrengthStrong || dec.Strength == strategy.StrengthGood {
		e.notifier.Signal(notify.SignalAlert{
			Market:           slug,
			Side:             string(dec.Side),
			Strength:         string(dec.Strength),
			Phase:            string(dec.Phase),
			RemainingMinutes: snap.RemainingMinutes,
			Edge:             dec.Edge,
			ModelProb:        dec.ModelProb,
			EntryPrice:       entry,
		})
	}
}

// entryPrice asks the book for the executable ask, in cents. Falls back to
// the snapshot midpoint when no quote is available.
func (e *Engine) entryPrice(ctx context.Context, side strategy.Side, fallback float64) float64 {
	token := e.upToken
	if side == strategy.SideDown {
		token = e.downToken
	}
	if token == "" {
		return fallback
	}

	ask, err := e.markets.BuyPrice(ctx, token)
	if err != nil || ask <= 0 {
		return fallback
	}
	return ask * 100
}

func (e *Engine) writeSignal(snap *storage.Snapshot) {
	if e.signals == nil {
		return
	}
	if err := e.signals.Append(snap); err != nil {
		e.log.Warn().Err(err).Msg("signal log write failed")
	}
}

// windowOpen finds the opening price of the current window inside the
// candle series, the price the market settles against. Falls back to the
// latest close when the series does not reach the window start.
func windowOpen(candles []market.Candle, w market.Window) float64 {
	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].OpenTime.Before(w.Start) {
			break
		}
		if candles[i].OpenTime.Equal(w.Start) {
			return candles[i].Open
		}
	}
	return candles[len(candles)-1].Close
}

func buildSnapshot(slug string, now, end time.Time, remaining, priceToBeat float64, b strategy.Bundle, reg strategy.Regime, modelUp, modelDown float64, edge *strategy.Edge, dec strategy.Decision) *storage.Snapshot {
	snap := &storage.Snapshot{
		MarketSlug:       slug,
		Timestamp:        now.UTC(),
		EndTime:          end,
		RemainingMinutes: remaining,

		Price:       b.Price,
		PriceToBeat: priceToBeat,

		VWAP:           b.VWAP,
		VWAPSlope:      b.VWAPSlope,
		RSI:            b.RSI.Value,
		RSISlope:       b.RSI.Slope,
		MACDHist:       b.MACD.Histogram,
		MACDDelta:      b.MACD.Delta,
		HeikenColor:    b.HeikenAshi.Color,
		HeikenStreak:   b.HeikenAshi.Streak,
		DivBullish:     b.Divergence.Bullish,
		DivBearish:     b.Divergence.Bearish,
		DivStrength:    b.Divergence.Strength,
		VolSpike:       b.VolumeSpike.IsSpike,
		VolRatio:       b.VolumeSpike.Ratio,
		VolDirection:   b.VolumeSpike.Direction,
		PressureBias:   b.VolumePressure.Bias,
		PressureRatio:  b.VolumePressure.Ratio,
		BookExtreme:    b.Book.IsExtreme,
		BookConfidence: b.Book.Confidence,
		FailedReclaim:  b.FailedReclaim,

		Regime:    string(reg),
		ModelUp:   modelUp,
		ModelDown: modelDown,

		Signal:    dec.Signal(),
		Phase:     string(dec.Phase),
		Strength:  string(dec.Strength),
		Reason:    dec.Reason,
		Agreement: dec.Agreement,
	}

	if b.Book.IsExtreme {
		snap.BookSide = string(b.Book.ContrarianSide)
	}
	if edge != nil {
		snap.MarketUp = edge.MarketUp
		snap.MarketDown = edge.MarketDown
		snap.EdgeUp = edge.EdgeUp
		snap.EdgeDown = edge.EdgeDown
		// Entry candidate: the larger-edge side's price in cents, the
		// same side Decide would pick.
		if edge.EdgeDown > edge.EdgeUp {
			snap.EntryPrice = edge.MarketDown * 100
		} else {
			snap.EntryPrice = edge.MarketUp * 100
		}
	}
	return snap
}
