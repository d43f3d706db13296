package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/brendanplayford/polymarket-go/pkg/stats"
	"github.com/brendanplayford/polymarket-go/pkg/storage"
)

const (
	topN             = 10
	minTradesForRank = 10 // floor for win-rate and expectancy rankings
)

// ParamRanges is the grid swept by Optimize. Empty slices fall back to
// the matching DefaultRanges value.
type ParamRanges struct {
	MinEdge          []float64  `json:"min_edge" yaml:"min_edge"`
	MinModelProb     []float64  `json:"min_model_prob" yaml:"min_model_prob"`
	MinTimeLeft      []float64  `json:"min_time_left" yaml:"min_time_left"`
	MaxTimeLeft      []float64  `json:"max_time_left" yaml:"max_time_left"`
	AllowedPhases    [][]string `json:"allowed_phases" yaml:"allowed_phases"`
	AllowedStrengths [][]string `json:"allowed_strengths" yaml:"allowed_strengths"`
}

// DefaultRanges returns the standard sweep grid
func DefaultRanges() ParamRanges {
	return ParamRanges{
		MinEdge:      []float64{0.03, 0.05, 0.08, 0.10, 0.12},
		MinModelProb: []float64{0.55, 0.60, 0.65, 0.70},
		MinTimeLeft:  []float64{1, 2, 3, 5},
		MaxTimeLeft:  []float64{8, 10, 12, 14},
		AllowedPhases: [][]string{
			{"EARLY", "MID", "LATE"},
			{"EARLY", "MID"},
			{"MID", "LATE"},
			{"LATE"},
		},
		AllowedStrengths: [][]string{
			{"STRONG", "GOOD", "OPTIONAL"},
			{"STRONG", "GOOD"},
			{"STRONG"},
		},
	}
}

func (r ParamRanges) withDefaults() ParamRanges {
	d := DefaultRanges()
	if len(r.MinEdge) == 0 {
		r.MinEdge = d.MinEdge
	}
	if len(r.MinModelProb) == 0 {
		r.MinModelProb = d.MinModelProb
	}
	if len(r.MinTimeLeft) == 0 {
		r.MinTimeLeft = d.MinTimeLeft
	}
	if len(r.MaxTimeLeft) == 0 {
		r.MaxTimeLeft = d.MaxTimeLeft
	}
	if len(r.AllowedPhases) == 0 {
		r.AllowedPhases = d.AllowedPhases
	}
	if len(r.AllowedStrengths) == 0 {
		r.AllowedStrengths = d.AllowedStrengths
	}
	return r
}

// Combinations counts the full grid size, including combinations the
// sweep will skip as invalid
func (r ParamRanges) Combinations() int {
	r = r.withDefaults()
	return len(r.MinEdge) * len(r.MinModelProb) * len(r.MinTimeLeft) *
		len(r.MaxTimeLeft) * len(r.AllowedPhases) * len(r.AllowedStrengths)
}

// SweepResult is one evaluated parameter combination
type SweepResult struct {
	Config      Config  `json:"config"`
	Trades      int     `json:"trades"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"win_rate"`
	TotalPnL    float64 `json:"total_pnl"`
	Expectancy  float64 `json:"expectancy"`
	Sharpe      float64 `json:"sharpe"`
	SharpeValid bool    `json:"sharpe_valid"`
	MaxDrawdown float64 `json:"max_drawdown"`
}

// Rankings holds the top combinations under each objective
type Rankings struct {
	Evaluated    int           `json:"evaluated"`     // combinations that produced trades
	ByTotalPnL   []SweepResult `json:"by_total_pnl"`
	BySharpe     []SweepResult `json:"by_sharpe"`
	ByWinRate    []SweepResult `json:"by_win_rate"`   // min 10 trades
	ByExpectancy []SweepResult `json:"by_expectancy"` // min 10 trades
}

// Optimize sweeps the full Cartesian grid, running one backtest per valid
// combination over a dataset loaded once up front. progress may be nil.
func Optimize(ctx context.Context, store Store, base Config, ranges ParamRanges, progress func(done, total int)) (*Rankings, error) {
	ranges = ranges.withDefaults()

	markets, err := store.DistinctMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list markets: %w", err)
	}
	var dataset []*marketData
	for _, m := range markets {
		md, err := loadMarket(ctx, store, m.Slug)
		if errors.Is(err, ErrNoOutcome) || errors.Is(err, ErrNoSnapshots) {
			continue
		}
		if err != nil {
			return nil, err
		}
		dataset = append(dataset, md)
	}

	total := ranges.Combinations()
	done := 0
	report := func() {
		if progress != nil {
			progress(done, total)
		}
	}

	var results []SweepResult
	for _, minEdge := range ranges.MinEdge {
		for _, minProb := range ranges.MinModelProb {
			for _, minTL := range ranges.MinTimeLeft {
				for _, maxTL := range ranges.MaxTimeLeft {
					if minTL >= maxTL {
						done += len(ranges.AllowedPhases) * len(ranges.AllowedStrengths)
						report()
						continue
					}
					for _, phases := range ranges.AllowedPhases {
						for _, strengths := range ranges.AllowedStrengths {
							cfg := base
							cfg.MinEdge = minEdge
							cfg.MinModelProb = minProb
							cfg.MinTimeLeft = minTL
							cfg.MaxTimeLeft = maxTL
							cfg.AllowedPhases = phases
							cfg.AllowedStrengths = strengths

							if r := evaluate(dataset, cfg); r.Trades > 0 {
								results = append(results, r)
							}
							done++
							report()
						}
					}
				}
			}
		}
	}

	return rank(results), nil
}

// evaluate runs one backtest over the pre-loaded dataset
func evaluate(dataset []*marketData, cfg Config) SweepResult {
	var trades []storage.SimulatedTrade
	for _, md := range dataset {
		trades = append(trades, simulateLoaded(md, cfg)...)
	}
	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].EntryTimestamp.Before(trades[j].EntryTimestamp)
	})

	basic := stats.ComputeBasic(trades)
	sharpe, valid := stats.ComputeSharpe(trades)
	dd := stats.ComputeDrawdown(trades)

	return SweepResult{
		Config:      cfg,
		Trades:      basic.TotalTrades,
		Wins:        basic.Wins,
		WinRate:     basic.WinRate,
		TotalPnL:    basic.TotalPnL,
		Expectancy:  basic.Expectancy,
		Sharpe:      sharpe,
		SharpeValid: valid,
		MaxDrawdown: dd.Max,
	}
}

func rank(results []SweepResult) *Rankings {
	r := &Rankings{Evaluated: len(results)}
	r.ByTotalPnL = topBy(results, 0, func(a, b SweepResult) bool {
		return a.TotalPnL > b.TotalPnL
	})
	r.BySharpe = topBy(filterValid(results), 0, func(a, b SweepResult) bool {
		return a.Sharpe > b.Sharpe
	})
	r.ByWinRate = topBy(results, minTradesForRank, func(a, b SweepResult) bool {
		return a.WinRate > b.WinRate
	})
	r.ByExpectancy = topBy(results, minTradesForRank, func(a, b SweepResult) bool {
		return a.Expectancy > b.Expectancy
	})
	return r
}

func filterValid(results []SweepResult) []SweepResult {
	out := make([]SweepResult, 0, len(results))
	for _, r := range results {
		if r.SharpeValid {
			out = append(out, r)
		}
	}
	return out
}

func topBy(results []SweepResult, minTrades int, better func(a, b SweepResult) bool) []SweepResult {
	filtered := make([]SweepResult, 0, len(results))
	for _, r := range results {
		if r.Trades >= minTrades {
			filtered = append(filtered, r)
		}
	}
	sort.SliceStable(filtered, better)
	if len(filtered) > topN {
		filtered = filtered[:topN]
	}
	return filtered
}
