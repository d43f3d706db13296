package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/brendanplayford/polymarket-go/pkg/stats"
	"github.com/brendanplayford/polymarket-go/pkg/storage"
)

// Skip reasons for markets that cannot be simulated
var (
	ErrNoSnapshots = errors.New("no_snapshots")
	ErrNoOutcome   = errors.New("no_outcome")
)

// Store is the read surface the simulator needs
type Store interface {
	SnapshotsByMarket(ctx context.Context, slug string) ([]storage.Snapshot, error)
	DistinctMarkets(ctx context.Context) ([]storage.MarketInfo, error)
	GetOutcome(ctx context.Context, slug string) (*storage.Outcome, error)
}

// Result is the output of one full backtest run
type Result struct {
	Config             Config                   `json:"config"`
	Markets            int                      `json:"markets"` // markets simulated
	SkippedNoOutcome   int                      `json:"skipped_no_outcome"`
	SkippedNoSnapshots int                      `json:"skipped_no_snapshots"`
	Trades             []storage.SimulatedTrade `json:"trades"`
	Report             stats.Report             `json:"report"`
}

// marketData is one market's immutable snapshot set plus its outcome
type marketData struct {
	slug    string
	snaps   []storage.Snapshot
	outcome *storage.Outcome
}

func loadMarket(ctx context.Context, store Store, slug string) (*marketData, error) {
	snaps, err := store.SnapshotsByMarket(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load snapshots for %s: %w", slug, err)
	}
	if len(snaps) == 0 {
		return nil, fmt.Errorf("%s: %w", slug, ErrNoSnapshots)
	}
	outcome, err := store.GetOutcome(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("load outcome for %s: %w", slug, err)
	}
	if outcome == nil {
		return nil, fmt.Errorf("%s: %w", slug, ErrNoOutcome)
	}
	return &marketData{slug: slug, snaps: snaps, outcome: outcome}, nil
}

func sideFromSignal(signal string) string {
	switch signal {
	case "BUY UP":
		return "UP"
	case "BUY DOWN":
		return "DOWN"
	}
	return ""
}

// qualifies applies the entry filters in their fixed order
func qualifies(snap *storage.Snapshot, cfg Config) bool {
	side := sideFromSignal(snap.Signal)
	if side == "" {
		return false
	}
	if !cfg.phaseAllowed(snap.Phase) {
		return false
	}
	if snap.Strength != "" && !cfg.strengthAllowed(snap.Strength) {
		return false
	}
	if snap.RemainingMinutes < cfg.MinTimeLeft || snap.RemainingMinutes > cfg.MaxTimeLeft {
		return false
	}
	if snap.EntryPrice <= 0 {
		return false
	}
	modelProb, edge := snap.ModelUp, snap.EdgeUp
	if side == "DOWN" {
		modelProb, edge = snap.ModelDown, snap.EdgeDown
	}
	if modelProb < cfg.MinModelProb {
		return false
	}
	if edge < cfg.MinEdge {
		return false
	}
	return true
}

// openTrade prices the fill and settles it against the market outcome
func openTrade(snap *storage.Snapshot, outcome *storage.Outcome, cfg Config) storage.SimulatedTrade {
	side := sideFromSignal(snap.Signal)
	entryPrice := snap.EntryPrice + cfg.Slippage
	contracts := cfg.PositionSize / entryPrice

	exitPrice := 0.0
	result := storage.TradeLoss
	if side == outcome.Outcome {
		exitPrice = 100
		result = storage.TradeWin
	}

	gross := (exitPrice - entryPrice) * contracts / 100
	commission := cfg.PositionSize * cfg.CommissionPct
	pnl := gross - commission

	modelProb, edge := snap.ModelUp, snap.EdgeUp
	if side == "DOWN" {
		modelProb, edge = snap.ModelDown, snap.EdgeDown
	}

	return storage.SimulatedTrade{
		MarketSlug:     snap.MarketSlug,
		EntryTimestamp: snap.Timestamp,
		Side:           side,
		EntryPrice:     entryPrice,
		Size:           cfg.PositionSize,
		ModelProb:      modelProb,
		Edge:           edge,
		Phase:          snap.Phase,
		Strength:       snap.Strength,
		Source:         cfg.Source,
		ExitPrice:      exitPrice,
		Outcome:        result,
		PnL:            pnl,
		PnLPct:         pnl / cfg.PositionSize,
		ResolvedAt:     outcome.ResolvedAt,
	}
}

// simulateLoaded scans one market's snapshots in time order and produces
// its trades. Pure: identical input always yields identical output.
func simulateLoaded(md *marketData, cfg Config) []storage.SimulatedTrade {
	var trades []storage.SimulatedTrade
	for i := range md.snaps {
		snap := &md.snaps[i]
		if !qualifies(snap, cfg) {
			continue
		}
		trades = append(trades, openTrade(snap, md.outcome, cfg))
		if cfg.OneEntryPerMarket && !cfg.PreferStrongerSignals {
			break
		}
	}

	if cfg.OneEntryPerMarket && cfg.PreferStrongerSignals && len(trades) > 1 {
		// Keep the single highest-edge candidate; ties keep the earliest
		best := 0
		for i := 1; i < len(trades); i++ {
			if trades[i].Edge > trades[best].Edge {
				best = i
			}
		}
		trades = trades[best : best+1]
	}
	return trades
}

// SimulateMarket replays one market against its recorded outcome.
// Returns ErrNoSnapshots or ErrNoOutcome (wrapped) when data is missing.
func SimulateMarket(ctx context.Context, store Store, slug string, cfg Config) ([]storage.SimulatedTrade, error) {
	md, err := loadMarket(ctx, store, slug)
	if err != nil {
		return nil, err
	}
	return simulateLoaded(md, cfg), nil
}

// Run simulates every market with a recorded outcome and aggregates the results
func Run(ctx context.Context, store Store, cfg Config) (*Result, error) {
	markets, err := store.DistinctMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}

	res := &Result{Config: cfg}
	for _, m := range markets {
		md, err := loadMarket(ctx, store, m.Slug)
		switch {
		case errors.Is(err, ErrNoOutcome):
			res.SkippedNoOutcome++
			continue
		case errors.Is(err, ErrNoSnapshots):
			res.SkippedNoSnapshots++
			continue
		case err != nil:
			return nil, err
		}
		res.Markets++
		res.Trades = append(res.Trades, simulateLoaded(md, cfg)...)
	}

	sort.SliceStable(res.Trades, func(i, j int) bool {
		return res.Trades[i].EntryTimestamp.Before(res.Trades[j].EntryTimestamp)
	})
	res.Report = stats.ComputeAll(res.Trades)
	return res, nil
}
