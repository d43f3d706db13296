// Backtest runner for the BTC 15-minute up/down strategy. Replays stored
// snapshots against recorded outcomes and prints the full metrics report.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/brendanplayford/polymarket-go/pkg/backtest"
	"github.com/brendanplayford/polymarket-go/pkg/stats"
	"github.com/brendanplayford/polymarket-go/pkg/storage"
)

func main() {
	def := backtest.DefaultConfig()

	dbPath := flag.String("db", "data/btc15m.db", "SQLite database path")
	minEdge := flag.Float64("min-edge", def.MinEdge, "minimum model edge at entry")
	minProb := flag.Float64("min-prob", def.MinModelProb, "minimum model probability at entry")
	position := flag.Float64("position", def.PositionSize, "position size in dollars")
	phases := flag.String("phases", strings.Join(def.AllowedPhases, ","), "comma-separated phases to trade")
	strengths := flag.String("strengths", strings.Join(def.AllowedStrengths, ","), "comma-separated strengths to trade")
	minTime := flag.Float64("min-time", def.MinTimeLeft, "minimum minutes remaining at entry")
	maxTime := flag.Float64("max-time", def.MaxTimeLeft, "maximum minutes remaining at entry")
	slippage := flag.Float64("slippage", def.Slippage, "cents added to the entry price")
	commission := flag.Float64("commission", def.CommissionPct, "commission as a fraction of position size")
	multi := flag.Bool("multi", false, "allow multiple entries per market")
	showTrades := flag.Bool("trades", false, "print the individual trade list")
	flag.Parse()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📊 BTC 15-MINUTE UP/DOWN - BACKTEST")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Printf("❌ Database not found: %s\n", *dbPath)
		os.Exit(1)
	}

	cfg := def
	cfg.MinEdge = *minEdge
	cfg.MinModelProb = *minProb
	cfg.PositionSize = *position
	cfg.AllowedPhases = splitList(*phases)
	cfg.AllowedStrengths = splitList(*strengths)
	cfg.MinTimeLeft = *minTime
	cfg.MaxTimeLeft = *maxTime
	cfg.Slippage = *slippage
	cfg.CommissionPct = *commission
	cfg.OneEntryPerMarket = !*multi

	store, err := storage.NewStore(*dbPath)
	if err != nil {
		fmt.Printf("❌ Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	fmt.Printf("→ Replaying snapshots from %s...\n", *dbPath)
	res, err := backtest.Run(context.Background(), store, cfg)
	if err != nil {
		fmt.Printf("❌ Backtest failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ %d markets simulated (%d pending outcome, %d without snapshots)\n",
		res.Markets, res.SkippedNoOutcome, res.SkippedNoSnapshots)
	fmt.Println()

	printConfig(cfg)

	if *showTrades {
		printTrades(res.Trades)
	}

	printReport(res.Report)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printConfig(cfg backtest.Config) {
	entries := "one entry per market"
	if !cfg.OneEntryPerMarket {
		entries = "multiple entries per market"
	}

	fmt.Println("ENTRY FILTERS")
	fmt.Printf("  position $%.2f   edge ≥ %.3f   prob ≥ %.3f\n",
		cfg.PositionSize, cfg.MinEdge, cfg.MinModelProb)
	fmt.Printf("  phases %s   strengths %s\n",
		strings.Join(cfg.AllowedPhases, ","), strings.Join(cfg.AllowedStrengths, ","))
	fmt.Printf("  time left %.1f-%.1f min   slippage %.1f¢   commission %.2f%%   %s\n",
		cfg.MinTimeLeft, cfg.MaxTimeLeft, cfg.Slippage, cfg.CommissionPct*100, entries)
	fmt.Println()
}

func printTrades(trades []storage.SimulatedTrade) {
	fmt.Println("TRADES")
	if len(trades) == 0 {
		fmt.Println("  (none)")
		fmt.Println()
		return
	}

	fmt.Printf("  %-36s %-5s %-8s %7s %7s %7s %9s\n",
		"Market", "Side", "Phase", "Entry", "Edge", "Prob", "PnL")
	for _, t := range trades {
		mark := "✅"
		if t.Outcome == storage.TradeLoss {
			mark = "❌"
		}
		fmt.Printf("  %-36s %-5s %-8s %6.1f¢ %7.3f %6.1f%% $%8.2f %s\n",
			t.MarketSlug, t.Side, t.Phase, t.EntryPrice, t.Edge, t.ModelProb*100, t.PnL, mark)
	}
	fmt.Println()
}

func printReport(rep stats.Report) {
	s := rep.Summary

	fmt.Println("SUMMARY")
	if s.TotalTrades == 0 {
		fmt.Println("  No trades qualified under these filters.")
		return
	}

	fmt.Printf("  Trades: %d (%dW / %dL)   Win rate: %.1f%%\n",
		s.TotalTrades, s.Wins, s.Losses, s.WinRate*100)
	fmt.Printf("  Net PnL: $%.2f   Avg: $%.3f   Expectancy: $%.3f\n",
		s.TotalPnL, s.AvgPnL, s.Expectancy)
	fmt.Printf("  Avg win: $%.3f   Avg loss: $%.3f   Profit factor: %s\n",
		s.AvgWin, s.AvgLoss, formatRatio(s.ProfitFactor))
	fmt.Printf("  Max drawdown: $%.2f (%.1f%%) over %d trades\n",
		s.Drawdown.Max, s.Drawdown.MaxPct*100, s.Drawdown.Span)
	fmt.Printf("  Sharpe (annualized): %s\n", formatSharpe(rep.Sharpe, rep.SharpeValid))
	fmt.Printf("  Streaks: %dW longest, %dL longest\n",
		rep.Streaks.LongestWin, rep.Streaks.LongestLoss)
	fmt.Println()

	printGroups("BY PHASE", rep.ByPhase)
	printGroups("BY SIDE", rep.BySide)
	printGroups("BY STRENGTH", rep.ByStrength)
}

func printGroups(title string, groups map[string]stats.Group) {
	if len(groups) == 0 {
		return
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println(title)
	fmt.Printf("  %-10s %7s %7s %9s %9s\n", "", "Trades", "Win%", "PnL", "Avg")
	for _, k := range keys {
		g := groups[k]
		fmt.Printf("  %-10s %7d %6.1f%% $%8.2f $%8.3f\n",
			k, g.TotalTrades, g.WinRate*100, g.TotalPnL, g.AvgPnL)
	}
	fmt.Println()
}

func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "∞ (no losses)"
	}
	return fmt.Sprintf("%.2f", v)
}

func formatSharpe(v float64, valid bool) string {
	if !valid {
		return "n/a (needs 2+ trades)"
	}
	if math.IsInf(v, 1) {
		return "+∞"
	}
	if math.IsInf(v, -1) {
		return "-∞"
	}
	return fmt.Sprintf("%.2f", v)
}
