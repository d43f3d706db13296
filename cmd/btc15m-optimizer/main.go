// Parameter sweep for the BTC 15-minute up/down strategy. Replays the
// stored dataset across the full grid and ranks combinations by profit,
// Sharpe, win rate, and expectancy.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/brendanplayford/polymarket-go/pkg/backtest"
	"github.com/brendanplayford/polymarket-go/pkg/storage"
)

func main() {
	def := backtest.DefaultConfig()

	dbPath := flag.String("db", "data/btc15m.db", "SQLite database path")
	position := flag.Float64("position", def.PositionSize, "position size in dollars")
	slippage := flag.Float64("slippage", def.Slippage, "cents added to the entry price")
	commission := flag.Float64("commission", def.CommissionPct, "commission as a fraction of position size")
	flag.Parse()

	fmt.Println("╔══════════════════════════════════════════════════════════════════════════════╗")
	fmt.Println("║           BTC 15-MINUTE STRATEGY PARAMETER OPTIMIZER                         ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════════════════════╝")
	fmt.Println()

	if _, err := os.Stat(*dbPath); err != nil {
		fmt.Printf("❌ Database not found: %s\n", *dbPath)
		os.Exit(1)
	}

	store, err := storage.NewStore(*dbPath)
	if err != nil {
		fmt.Printf("❌ Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	base := def
	base.PositionSize = *position
	base.Slippage = *slippage
	base.CommissionPct = *commission

	ranges := backtest.DefaultRanges()
	fmt.Printf("🔬 Testing %d parameter combinations...\n\n", ranges.Combinations())

	lastPct := -10
	progress := func(done, total int) {
		pct := done * 100 / total
		if pct >= lastPct+10 {
			fmt.Printf("   Progress: %d/%d (%d%%)\n", done, total, pct)
			lastPct = pct
		}
	}

	rankings, err := backtest.Optimize(context.Background(), store, base, ranges, progress)
	if err != nil {
		fmt.Printf("❌ Sweep failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\n✓ %d combinations produced trades\n", rankings.Evaluated)

	printTable("TOP 10 BY TOTAL PNL", "PnL", rankings.ByTotalPnL, func(r backtest.SweepResult) string {
		return fmt.Sprintf("$%7.2f", r.TotalPnL)
	})
	printTable("TOP 10 BY SHARPE", "Sharpe", rankings.BySharpe, func(r backtest.SweepResult) string {
		return fmt.Sprintf("%8.2f", r.Sharpe)
	})
	printTable("TOP 10 BY WIN RATE (10+ trades)", "Win%", rankings.ByWinRate, func(r backtest.SweepResult) string {
		return fmt.Sprintf("%7.1f%%", r.WinRate*100)
	})
	printTable("TOP 10 BY EXPECTANCY (10+ trades)", "Expect", rankings.ByExpectancy, func(r backtest.SweepResult) string {
		return fmt.Sprintf("$%7.3f", r.Expectancy)
	})

	printRecommendation(rankings)
}

func printTable(title, metric string, rows []backtest.SweepResult, value func(backtest.SweepResult) string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════════════════════")
	fmt.Printf("  %s\n", title)
	fmt.Println("═══════════════════════════════════════════════════════════════════════════════")
	fmt.Println()

	if len(rows) == 0 {
		fmt.Println("  (no qualifying combinations)")
		return
	}

	fmt.Println("  ┌─────┬────────┬────────┬───────────┬────────────────┬─────────────┬────────┬──────────┐")
	fmt.Printf("  │ Rank│ Edge   │ Prob   │ Time      │ Phases         │ Strengths   │ Trades │ %-8s │\n", metric)
	fmt.Println("  ├─────┼────────┼────────┼───────────┼────────────────┼─────────────┼────────┼──────────┤")
	for i, r := range rows {
		fmt.Printf("  │ %3d │ %.3f  │ %.2f   │ %4.1f-%4.1f │ %-14s │ %-11s │ %4d   │ %s │\n",
			i+1, r.Config.MinEdge, r.Config.MinModelProb,
			r.Config.MinTimeLeft, r.Config.MaxTimeLeft,
			shortList(r.Config.AllowedPhases), shortList(r.Config.AllowedStrengths),
			r.Trades, value(r))
	}
	fmt.Println("  └─────┴────────┴────────┴───────────┴────────────────┴─────────────┴────────┴──────────┘")
}

// shortList compresses a phase or strength list to leading letters, e.g.
// EARLY,MID,LATE becomes E+M+L.
func shortList(items []string) string {
	parts := make([]string, len(items))
	for i, s := range items {
		parts[i] = s[:1]
	}
	return strings.Join(parts, "+")
}

// printRecommendation picks the most profitable combination that still has
// a meaningful sample and a positive expectancy.
func printRecommendation(rankings *backtest.Rankings) {
	var best *backtest.SweepResult
	for i := range rankings.ByTotalPnL {
		r := &rankings.ByTotalPnL[i]
		if r.Trades >= 10 && r.Expectancy > 0 {
			best = r
			break
		}
	}

	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════════════════════")
	fmt.Println("  RECOMMENDED PARAMETERS")
	fmt.Println("═══════════════════════════════════════════════════════════════════════════════")
	fmt.Println()

	if best == nil {
		fmt.Println("  Not enough data for a recommendation (need 10+ trades with positive expectancy).")
		fmt.Println()
		return
	}

	fmt.Printf("  Min edge:    %.3f\n", best.Config.MinEdge)
	fmt.Printf("  Min prob:    %.2f\n", best.Config.MinModelProb)
	fmt.Printf("  Time left:   %.1f-%.1f min\n", best.Config.MinTimeLeft, best.Config.MaxTimeLeft)
	fmt.Printf("  Phases:      %s\n", strings.Join(best.Config.AllowedPhases, ","))
	fmt.Printf("  Strengths:   %s\n", strings.Join(best.Config.AllowedStrengths, ","))
	fmt.Println()
	fmt.Printf("  📊 Backtest results:\n")
	fmt.Printf("     Trades:      %d\n", best.Trades)
	fmt.Printf("     Win rate:    %.1f%%\n", best.WinRate*100)
	fmt.Printf("     Total PnL:   $%.2f\n", best.TotalPnL)
	fmt.Printf("     Expectancy:  $%.3f\n", best.Expectancy)
	if best.SharpeValid {
		fmt.Printf("     Sharpe:      %.2f\n", best.Sharpe)
	}
	fmt.Printf("     Max DD:      $%.2f\n", best.MaxDrawdown)
	fmt.Println()
}
