// Package stats computes performance metrics over simulated trades
package stats

import (
	"math"

	"github.com/brendanplayford/polymarket-go/pkg/storage"
)

// TradesPerYear annualizes Sharpe assuming one trade per 15-minute window
const TradesPerYear = 365 * 24 * 4

// Basic holds the headline win/loss metrics
type Basic struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Breakeven    int     `json:"breakeven"`
	WinRate      float64 `json:"win_rate"`
	TotalPnL     float64 `json:"total_pnl"`
	AvgPnL       float64 `json:"avg_pnl"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"` // positive magnitude
	ProfitFactor float64 `json:"profit_factor"`
	Expectancy   float64 `json:"expectancy"`
}

// Drawdown describes the worst peak-to-trough drop on the equity curve
type Drawdown struct {
	Max    float64 `json:"max"`
	MaxPct float64 `json:"max_pct"` // relative to the peak, 0 when peak <= 0
	Span   int     `json:"span"`    // trades from peak to trough
}

// Streaks tracks consecutive win/loss runs
type Streaks struct {
	LongestWin  int `json:"longest_win"`
	LongestLoss int `json:"longest_loss"`
	Current     int `json:"current"` // positive = wins, negative = losses
}

// Group bundles the metrics computed per categorical bucket
type Group struct {
	Basic
	Drawdown Drawdown `json:"drawdown"`
}

// Report is the full metrics output for a trade set
type Report struct {
	Summary     Group            `json:"summary"`
	Sharpe      float64          `json:"sharpe"`
	SharpeValid bool             `json:"sharpe_valid"`
	Streaks     Streaks          `json:"streaks"`
	ByPhase     map[string]Group `json:"by_phase"`
	BySide      map[string]Group `json:"by_side"`
	ByStrength  map[string]Group `json:"by_strength"`
}

// Resolved filters the input down to settled trades
func Resolved(trades []storage.SimulatedTrade) []storage.SimulatedTrade {
	var out []storage.SimulatedTrade
	for _, t := range trades {
		if t.Resolved() {
			out = append(out, t)
		}
	}
	return out
}

// ComputeBasic computes win/loss counts and profitability over resolved trades
func ComputeBasic(trades []storage.SimulatedTrade) Basic {
	trades = Resolved(trades)

	var b Basic
	b.TotalTrades = len(trades)
	if b.TotalTrades == 0 {
		return b
	}

	var grossWins, grossLosses float64
	for _, t := range trades {
		b.TotalPnL += t.PnL
		switch {
		case t.PnL > 0:
			b.Wins++
			grossWins += t.PnL
		case t.PnL < 0:
			b.Losses++
			grossLosses += -t.PnL
		default:
			b.Breakeven++
		}
	}

	b.WinRate = float64(b.Wins) / float64(b.TotalTrades)
	b.AvgPnL = b.TotalPnL / float64(b.TotalTrades)
	if b.Wins > 0 {
		b.AvgWin = grossWins / float64(b.Wins)
	}
	if b.Losses > 0 {
		b.AvgLoss = grossLosses / float64(b.Losses)
	}
	switch {
	case grossLosses > 0:
		b.ProfitFactor = grossWins / grossLosses
	case b.Wins > 0:
		b.ProfitFactor = math.Inf(1)
	}
	b.Expectancy = b.WinRate*b.AvgWin - (1-b.WinRate)*b.AvgLoss
	return b
}

// ComputeDrawdown walks the cumulative pnl curve and reports the worst drop
func ComputeDrawdown(trades []storage.SimulatedTrade) Drawdown {
	trades = Resolved(trades)

	var d Drawdown
	var cum, peak float64
	peakIdx := -1 // equity starts at 0, before the first trade
	for i, t := range trades {
		cum += t.PnL
		if cum > peak {
			peak = cum
			peakIdx = i
		}
		if dd := peak - cum; dd > d.Max {
			d.Max = dd
			d.Span = i - peakIdx
			if peak > 0 {
				d.MaxPct = dd / peak
			} else {
				d.MaxPct = 0
			}
		}
	}
	return d
}

// tradeReturn prefers the stored pnl percentage, falling back to pnl/size
func tradeReturn(t storage.SimulatedTrade) float64 {
	if t.PnLPct != 0 {
		return t.PnLPct
	}
	if t.Size > 0 {
		return t.PnL / t.Size
	}
	return 0
}

// ComputeSharpe annualizes mean/stdev of per-trade returns. The second
// return is false when fewer than two resolved trades exist.
func ComputeSharpe(trades []storage.SimulatedTrade) (float64, bool) {
	trades = Resolved(trades)
	n := len(trades)
	if n < 2 {
		return 0, false
	}

	var sum float64
	for _, t := range trades {
		sum += tradeReturn(t)
	}
	mean := sum / float64(n)

	var variance float64
	for _, t := range trades {
		d := tradeReturn(t) - mean
		variance += d * d
	}
	variance /= float64(n - 1)
	stdev := math.Sqrt(variance)

	if stdev == 0 {
		switch {
		case mean > 0:
			return math.Inf(1), true
		case mean < 0:
			return math.Inf(-1), true
		default:
			return 0, true
		}
	}
	return mean / stdev * math.Sqrt(TradesPerYear), true
}

// ComputeStreaks finds the longest win and loss runs plus the trailing streak
func ComputeStreaks(trades []storage.SimulatedTrade) Streaks {
	trades = Resolved(trades)

	var s Streaks
	var run int // positive while winning, negative while losing
	for _, t := range trades {
		switch t.Outcome {
		case storage.TradeWin:
			if run > 0 {
				run++
			} else {
				run = 1
			}
			if run > s.LongestWin {
				s.LongestWin = run
			}
		case storage.TradeLoss:
			if run < 0 {
				run--
			} else {
				run = -1
			}
			if -run > s.LongestLoss {
				s.LongestLoss = -run
			}
		default:
			run = 0
		}
	}
	s.Current = run
	return s
}

// GroupBy partitions trades by a categorical key and computes metrics per bucket.
// Trades with an empty key land in "UNKNOWN".
func GroupBy(trades []storage.SimulatedTrade, key func(storage.SimulatedTrade) string) map[string]Group {
	buckets := make(map[string][]storage.SimulatedTrade)
	for _, t := range Resolved(trades) {
		k := key(t)
		if k == "" {
			k = "UNKNOWN"
		}
		buckets[k] = append(buckets[k], t)
	}

	out := make(map[string]Group, len(buckets))
	for k, bucket := range buckets {
		out[k] = Group{
			Basic:    ComputeBasic(bucket),
			Drawdown: ComputeDrawdown(bucket),
		}
	}
	return out
}

// ComputeAll builds the full report: summary, Sharpe, streaks, and the
// phase/side/strength breakdowns
func ComputeAll(trades []storage.SimulatedTrade) Report {
	r := Report{
		Summary: Group{
			Basic:    ComputeBasic(trades),
			Drawdown: ComputeDrawdown(trades),
		},
		Streaks:    ComputeStreaks(trades),
		ByPhase:    GroupBy(trades, func(t storage.SimulatedTrade) string { return t.Phase }),
		BySide:     GroupBy(trades, func(t storage.SimulatedTrade) string { return t.Side }),
		ByStrength: GroupBy(trades, func(t storage.SimulatedTrade) string { return t.Strength }),
	}
	r.Sharpe, r.SharpeValid = ComputeSharpe(trades)
	return r
}
