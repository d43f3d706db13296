package engine

import (
	"context"
	"time"

	"github.com/brendanplayford/polymarket-go/pkg/notify"
	"github.com/brendanplayford/polymarket-go/pkg/storage"
)

// resolve settles every market whose window closed at least the grace
// period ago: records the outcome from the current spot price, then
// settles that market's open paper trades. Idempotent, so it is safe to
// fire from both the timer and window transitions.
//
// The spot price at resolution time stands in for the official settlement
// price. With a short grace period the two rarely diverge, but a long
// outage resolves stale markets against a price from the wrong window.
func (e *Engine) resolve(ctx context.Context, now time.Time) {
	pending, err := e.store.PendingOutcomes(ctx, now, e.cfg.ResolveGrace)
	if err != nil {
		e.metrics.TickErrors.WithLabelValues("store").Inc()
		e.log.Error().Err(err).Msg("pending outcome query failed")
		return
	}
	if len(pending) == 0 {
		return
	}

	finalPrice, err := e.candles.LastPrice(ctx, e.cfg.Symbol)
	if err != nil {
		e.metrics.TickErrors.WithLabelValues("candles").Inc()
		e.log.Warn().Err(err).Msg("settlement price fetch failed")
		return
	}

	for _, p := range pending {
		outcome := "DOWN"
		if finalPrice > p.PriceToBeat {
			outcome = "UP"
		}

		o := &storage.Outcome{
			MarketSlug:  p.Slug,
			EndTime:     p.EndTime,
			PriceToBeat: p.PriceToBeat,
			FinalPrice:  finalPrice,
			Outcome:     outcome,
			ResolvedAt:  now.UTC(),
		}
		if err := e.store.InsertOutcome(ctx, o); err != nil {
			e.metrics.TickErrors.WithLabelValues("store").Inc()
			e.log.Error().Err(err).Str("market", p.Slug).Msg("outcome insert failed")
			continue
		}

		e.metrics.MarketsResolved.Inc()
		e.log.Info().
			Str("market", p.Slug).
			Str("outcome", outcome).
			Float64("final", finalPrice).
			Float64("to_beat", p.PriceToBeat).
			Msg("market resolved")

		e.settleTrades(ctx, p.Slug, o)
	}
}

// settleTrades applies binary settlement to the market's open paper
// trades: exit 100 on the winning side, 0 otherwise, commission deducted
// from the gross.
func (e *Engine) settleTrades(ctx context.Context, slug string, o *storage.Outcome) {
	open, err := e.store.OpenTradesByMarket(ctx, slug)
	if err != nil {
		e.metrics.TickErrors.WithLabelValues("store").Inc()
		e.log.Error().Err(err).Str("market", slug).Msg("open trade query failed")
		return
	}

	for i := range open {
		t := &open[i]

		exit, result := 0.0, storage.TradeLoss
		if t.Side == o.Outcome {
			exit, result = 100, storage.TradeWin
		}

		contracts := t.Size / t.EntryPrice
		gross := (exit - t.EntryPrice) * contracts / 100
		pnl := gross - t.Size*e.cfg.CommissionPct

		res := storage.TradeResult{
			ExitPrice: exit,
			Outcome:   result,
			PnL:       pnl,
			PnLPct:    pnl / t.Size,
		}
		if err := e.store.ResolveSimulatedTrade(ctx, t.ID, res); err != nil {
			e.metrics.TickErrors.WithLabelValues("store").Inc()
			e.log.Error().Err(err).Int64("trade", t.ID).Msg("trade resolve failed")
			continue
		}

		e.metrics.TradesResolved.WithLabelValues(result).Inc()
		e.log.Info().
			Str("market", slug).
			Str("side", t.Side).
			Str("result", result).
			Float64("pnl", pnl).
			Msg("paper trade settled")

		e.notifier.Resolution(notify.ResolutionAlert{
			Market:  slug,
			Side:    t.Side,
			Outcome: result,
			PnL:     pnl,
			PnLPct:  res.PnLPct,
		})
	}
}
