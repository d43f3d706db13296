// Stats reader for recorded paper trades. Filters the trade log and
// prints win/loss metrics, drawdown, Sharpe, streaks, and per-bucket
// breakdowns.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/brendanplayford/polymarket-go/pkg/stats"
	"github.com/brendanplayford/polymarket-go/pkg/storage"
)

func main() {
	dbPath := flag.String("db", "data/btc15m.db", "SQLite database path")
	source := flag.String("source", "", "filter by trade source (live or backtest)")
	side := flag.String("side", "", "filter by side (UP or DOWN)")
	phase := flag.String("phase", "", "filter by phase (EARLY, MID, LATE)")
	strength := flag.String("strength", "", "filter by strength (STRONG, GOOD, OPTIONAL)")
	resolvedOnly := flag.Bool("resolved", true, "include only settled trades")
	showTrades := flag.Bool("trades", false, "print the individual trade list")
	flag.Parse()

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📊 BTC 15-MINUTE UP/DOWN - TRADE STATS")
	fmt.Println(strings.Repeat("=", 80))
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

	filter := storage.TradeFilter{
		Source:       strings.ToLower(strings.TrimSpace(*source)),
		Side:         strings.ToUpper(strings.TrimSpace(*side)),
		Phase:        strings.ToUpper(strings.TrimSpace(*phase)),
		Strength:     strings.ToUpper(strings.TrimSpace(*strength)),
		OnlyResolved: *resolvedOnly,
	}

	trades, err := store.AllTrades(context.Background(), filter)
	if err != nil {
		fmt.Printf("❌ Failed to load trades: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("→ %d trades match", len(trades))
	if f := describeFilter(filter); f != "" {
		fmt.Printf(" (%s)", f)
	}
	fmt.Println()
	fmt.Println()

	if len(trades) == 0 {
		fmt.Println("Nothing to report.")
		return
	}

	if *showTrades {
		printTrades(trades)
	}

	printReport(stats.ComputeAll(trades))
}

func describeFilter(f storage.TradeFilter) string {
	var parts []string
	if f.Source != "" {
		parts = append(parts, "source="+f.Source)
	}
	if f.Side != "" {
		parts = append(parts, "side="+f.Side)
	}
	if f.Phase != "" {
		parts = append(parts, "phase="+f.Phase)
	}
	if f.Strength != "" {
		parts = append(parts, "strength="+f.Strength)
	}
	if f.OnlyResolved {
		parts = append(parts, "resolved only")
	}
	return strings.Join(parts, ", ")
}

func printTrades(trades []storage.SimulatedTrade) {
	fmt.Println("TRADES")
	fmt.Printf("  %-20s %-36s %-5s %7s %9s\n", "Entered", "Market", "Side", "Entry", "PnL")
	for _, t := range trades {
		mark := "✅"
		switch t.Outcome {
		case storage.TradeLoss:
			mark = "❌"
		case "":
			mark = "⏳"
		}
		fmt.Printf("  %-20s %-36s %-5s %6.1f¢ $%8.2f %s\n",
			t.EntryTimestamp.Format("2006-01-02 15:04"), t.MarketSlug, t.Side, t.EntryPrice, t.PnL, mark)
	}
	fmt.Println()
}

func printReport(rep stats.Report) {
	s := rep.Summary

	fmt.Println("SUMMARY")
	fmt.Printf("  Trades: %d (%dW / %dL)   Win rate: %.1f%%\n",
		s.TotalTrades, s.Wins, s.Losses, s.WinRate*100)
	fmt.Printf("  Net PnL: $%.2f   Avg: $%.3f   Expectancy: $%.3f\n",
		s.TotalPnL, s.AvgPnL, s.Expectancy)
	fmt.Printf("  Avg win: $%.3f   Avg loss: $%.3f   Profit factor: %s\n",
		s.AvgWin, s.AvgLoss, formatRatio(s.ProfitFactor))
	fmt.Printf("  Max drawdown: $%.2f (%.1f%%) over %d trades\n",
		s.Drawdown.Max, s.Drawdown.MaxPct*100, s.Drawdown.Span)
	fmt.Printf("  Sharpe (annualized): %s\n", formatSharpe(rep.Sharpe, rep.SharpeValid))
	fmt.Printf("  Streaks: %dW longest, %dL longest, current %s\n",
		rep.Streaks.LongestWin, rep.Streaks.LongestLoss, formatStreak(rep.Streaks.Current))
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

func formatStreak(current int) string {
	switch {
	case current > 0:
		return fmt.Sprintf("%dW", current)
	case current < 0:
		return fmt.Sprintf("%dL", -current)
	}
	return "none"
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
