package backtest

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/brendanplayford/polymarket-go/pkg/storage"
)

type fakeStore struct {
	order    []string
	snaps    map[string][]storage.Snapshot
	outcomes map[string]*storage.Outcome
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snaps:    make(map[string][]storage.Snapshot),
		outcomes: make(map[string]*storage.Outcome),
	}
}

func (f *fakeStore) add(slug string, snaps ...storage.Snapshot) {
	if _, ok := f.snaps[slug]; !ok {
		f.order = append(f.order, slug)
	}
	f.snaps[slug] = append(f.snaps[slug], snaps...)
}

func (f *fakeStore) resolve(slug, outcome string, at time.Time) {
	f.outcomes[slug] = &storage.Outcome{MarketSlug: slug, Outcome: outcome, ResolvedAt: at}
}

func (f *fakeStore) SnapshotsByMarket(_ context.Context, slug string) ([]storage.Snapshot, error) {
	return f.snaps[slug], nil
}

func (f *fakeStore) DistinctMarkets(_ context.Context) ([]storage.MarketInfo, error) {
	var out []storage.MarketInfo
	for _, slug := range f.order {
		out = append(out, storage.MarketInfo{Slug: slug, SnapshotCount: len(f.snaps[slug])})
	}
	return out, nil
}

func (f *fakeStore) GetOutcome(_ context.Context, slug string) (*storage.Outcome, error) {
	return f.outcomes[slug], nil
}

func buySnap(slug string, ts time.Time, remaining float64, phase string, edge, prob float64) storage.Snapshot {
	return storage.Snapshot{
		MarketSlug:       slug,
		Timestamp:        ts,
		EndTime:          ts.Add(time.Duration(remaining) * time.Minute),
		RemainingMinutes: remaining,
		Regime:           "TREND_UP",
		ModelUp:          prob,
		ModelDown:        1 - prob,
		EdgeUp:           edge,
		EdgeDown:         -edge,
		Signal:           "BUY UP",
		Phase:            phase,
		Strength:         "STRONG",
		Agreement:        4,
		EntryPrice:       50,
	}
}

func TestSimulateMarketEndToEnd(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	resolved := base.Add(16 * time.Minute)

	store.add("m1",
		buySnap("m1", base.Add(3*time.Minute), 12, "EARLY", 0.30, 0.80),
		buySnap("m1", base.Add(8*time.Minute), 7, "MID", 0.30, 0.80),
		buySnap("m1", base.Add(12*time.Minute), 3, "LATE", 0.30, 0.80),
	)
	store.resolve("m1", "UP", resolved)

	trades, err := SimulateMarket(context.Background(), store, "m1", DefaultConfig())
	if err != nil {
		t.Fatalf("SimulateMarket: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}

	tr := trades[0]
	if tr.Side != "UP" || tr.Outcome != storage.TradeWin {
		t.Errorf("side=%q outcome=%q, want UP WIN", tr.Side, tr.Outcome)
	}
	// Equal edges: the earliest qualifying snapshot is kept
	if !tr.EntryTimestamp.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("EntryTimestamp = %v, want the first snapshot's", tr.EntryTimestamp)
	}
	if tr.EntryPrice != 50.5 {
		t.Errorf("EntryPrice = %v, want 50.5 (50 + slippage)", tr.EntryPrice)
	}
	if tr.PnL <= 0 {
		t.Errorf("PnL = %v, want > 0 on a win", tr.PnL)
	}
	if tr.ExitPrice != 100 {
		t.Errorf("ExitPrice = %v, want 100", tr.ExitPrice)
	}
	if tr.Source != "backtest" {
		t.Errorf("Source = %q, want backtest", tr.Source)
	}
	if !tr.ResolvedAt.Equal(resolved) {
		t.Errorf("ResolvedAt = %v, want outcome resolution time %v", tr.ResolvedAt, resolved)
	}
}

func TestSimulateMarketLossSettlement(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	store.add("m1", buySnap("m1", base, 10, "MID", 0.30, 0.80))
	store.resolve("m1", "DOWN", base.Add(16*time.Minute))

	trades, err := SimulateMarket(context.Background(), store, "m1", DefaultConfig())
	if err != nil {
		t.Fatalf("SimulateMarket: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}

	tr := trades[0]
	if tr.Outcome != storage.TradeLoss || tr.ExitPrice != 0 {
		t.Errorf("outcome=%q exit=%v, want LOSS exit=0", tr.Outcome, tr.ExitPrice)
	}
	// (0 - 50.5) * (10/50.5) / 100 - 10*0.001 = -0.11
	if math.Abs(tr.PnL-(-0.11)) > 1e-9 {
		t.Errorf("PnL = %v, want -0.11", tr.PnL)
	}
	if math.Abs(tr.PnLPct-(-0.011)) > 1e-9 {
		t.Errorf("PnLPct = %v, want -0.011", tr.PnLPct)
	}
}

func TestSimulateMarketMissingData(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	store.add("unresolved", buySnap("unresolved", base, 10, "MID", 0.30, 0.80))

	if _, err := SimulateMarket(context.Background(), store, "empty", DefaultConfig()); !errors.Is(err, ErrNoSnapshots) {
		t.Errorf("err = %v, want ErrNoSnapshots", err)
	}
	if _, err := SimulateMarket(context.Background(), store, "unresolved", DefaultConfig()); !errors.Is(err, ErrNoOutcome) {
		t.Errorf("err = %v, want ErrNoOutcome", err)
	}
}

func TestEntryFilters(t *testing.T) {
	base := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	cfg := DefaultConfig()

	cases := []struct {
		name   string
		mutate func(*storage.Snapshot)
	}{
		{"no trade signal", func(s *storage.Snapshot) { s.Signal = "NO TRADE" }},
		{"empty signal", func(s *storage.Snapshot) { s.Signal = "" }},
		{"disallowed phase", func(s *storage.Snapshot) { s.Phase = "POST" }},
		{"disallowed strength", func(s *storage.Snapshot) { s.Strength = "WEAK" }},
		{"below min time left", func(s *storage.Snapshot) { s.RemainingMinutes = 1.5 }},
		{"above max time left", func(s *storage.Snapshot) { s.RemainingMinutes = 14.5 }},
		{"missing entry price", func(s *storage.Snapshot) { s.EntryPrice = 0 }},
		{"model prob below floor", func(s *storage.Snapshot) { s.ModelUp = 0.54 }},
		{"edge below floor", func(s *storage.Snapshot) { s.EdgeUp = 0.04 }},
	}
	for _, tc := range cases {
		store := newFakeStore()
		snap := buySnap("m1", base, 10, "MID", 0.30, 0.80)
		tc.mutate(&snap)
		store.add("m1", snap)
		store.resolve("m1", "UP", base.Add(16*time.Minute))

		trades, err := SimulateMarket(context.Background(), store, "m1", cfg)
		if err != nil {
			t.Fatalf("%s: SimulateMarket: %v", tc.name, err)
		}
		if len(trades) != 0 {
			t.Errorf("%s: got %d trades, want 0", tc.name, len(trades))
		}
	}

	// Boundary values pass: time left exactly at min and max, edge and prob at floors
	store := newFakeStore()
	atMin := buySnap("m1", base, 2, "LATE", cfg.MinEdge, cfg.MinModelProb)
	store.add("m1", atMin)
	store.resolve("m1", "UP", base.Add(16*time.Minute))
	trades, err := SimulateMarket(context.Background(), store, "m1", cfg)
	if err != nil {
		t.Fatalf("SimulateMarket: %v", err)
	}
	if len(trades) != 1 {
		t.Errorf("boundary snapshot: got %d trades, want 1", len(trades))
	}

	// A snapshot with no recorded strength passes the strength filter
	store = newFakeStore()
	unrated := buySnap("m1", base, 10, "MID", 0.30, 0.80)
	unrated.Strength = ""
	store.add("m1", unrated)
	store.resolve("m1", "UP", base.Add(16*time.Minute))
	trades, err = SimulateMarket(context.Background(), store, "m1", cfg)
	if err != nil {
		t.Fatalf("SimulateMarket: %v", err)
	}
	if len(trades) != 1 {
		t.Errorf("unrated snapshot: got %d trades, want 1", len(trades))
	}
}

func TestPreferStrongerSignals(t *testing.T) {
	base := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	seed := func() *fakeStore {
		store := newFakeStore()
		store.add("m1",
			buySnap("m1", base.Add(1*time.Minute), 12, "EARLY", 0.10, 0.80),
			buySnap("m1", base.Add(5*time.Minute), 10, "EARLY", 0.30, 0.80),
			buySnap("m1", base.Add(9*time.Minute), 6, "MID", 0.20, 0.80),
		)
		store.resolve("m1", "UP", base.Add(16*time.Minute))
		return store
	}

	cfg := DefaultConfig()
	trades, err := SimulateMarket(context.Background(), seed(), "m1", cfg)
	if err != nil {
		t.Fatalf("SimulateMarket: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("prefer stronger: got %d trades, want 1", len(trades))
	}
	if trades[0].Edge != 0.30 {
		t.Errorf("prefer stronger kept edge %v, want 0.30", trades[0].Edge)
	}

	cfg.PreferStrongerSignals = false
	trades, err = SimulateMarket(context.Background(), seed(), "m1", cfg)
	if err != nil {
		t.Fatalf("SimulateMarket: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("first entry: got %d trades, want 1", len(trades))
	}
	if trades[0].Edge != 0.10 {
		t.Errorf("first entry kept edge %v, want 0.10", trades[0].Edge)
	}

	cfg.OneEntryPerMarket = false
	trades, err = SimulateMarket(context.Background(), seed(), "m1", cfg)
	if err != nil {
		t.Fatalf("SimulateMarket: %v", err)
	}
	if len(trades) != 3 {
		t.Fatalf("multi entry: got %d trades, want 3", len(trades))
	}
}

func TestSimulateMarketDeterministic(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 8, 25, 14, 30, 0, 0, time.UTC)
	store.add("m1",
		buySnap("m1", base, 12, "EARLY", 0.12, 0.64),
		buySnap("m1", base.Add(4*time.Minute), 8, "MID", 0.28, 0.71),
	)
	store.resolve("m1", "UP", base.Add(16*time.Minute))

	first, err := SimulateMarket(context.Background(), store, "m1", DefaultConfig())
	if err != nil {
		t.Fatalf("SimulateMarket: %v", err)
	}
	second, err := SimulateMarket(context.Background(), store, "m1", DefaultConfig())
	if err != nil {
		t.Fatalf("SimulateMarket: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical runs differ:\n%+v\n%+v", first, second)
	}
}

func TestRun(t *testing.T) {
	store := newFakeStore()
	base := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)

	store.add("m1", buySnap("m1", base.Add(30*time.Minute), 10, "MID", 0.30, 0.80))
	store.resolve("m1", "UP", base.Add(46*time.Minute))

	store.add("m2", buySnap("m2", base.Add(3*time.Minute), 10, "MID", 0.30, 0.80))
	store.resolve("m2", "DOWN", base.Add(16*time.Minute))

	// Snapshots but no outcome: skipped entirely
	store.add("m3", buySnap("m3", base.Add(60*time.Minute), 10, "MID", 0.30, 0.80))

	res, err := Run(context.Background(), store, DefaultConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Markets != 2 {
		t.Errorf("Markets = %d, want 2", res.Markets)
	}
	if res.SkippedNoOutcome != 1 {
		t.Errorf("SkippedNoOutcome = %d, want 1", res.SkippedNoOutcome)
	}
	if len(res.Trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(res.Trades))
	}
	// Combined list is sorted by entry time: m2 entered before m1
	if res.Trades[0].MarketSlug != "m2" || res.Trades[1].MarketSlug != "m1" {
		t.Errorf("trade order = %s, %s; want m2, m1", res.Trades[0].MarketSlug, res.Trades[1].MarketSlug)
	}
	if res.Report.Summary.TotalTrades != 2 || res.Report.Summary.Wins != 1 {
		t.Errorf("summary = %d trades %d wins, want 2 and 1", res.Report.Summary.TotalTrades, res.Report.Summary.Wins)
	}
}
