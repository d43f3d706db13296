// Package regime classifies market character from recent price action
package regime

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/brendanplayford/polymarket-go/pkg/market"
	"github.com/brendanplayford/polymarket-go/pkg/strategy"
)

// Classification thresholds
const (
	EMAPeriod      = 20
	TrendSlopePct  = 0.05 // EMA slope per bar (percent) beyond which it's a trend
	ChopEfficiency = 0.25 // Kaufman efficiency ratio below which it's chop
)

// Classify labels a candle window TREND_UP, TREND_DOWN, RANGE, or CHOP.
// Too little data defaults to RANGE, the neutral regime downstream tables
// assume anyway.
func Classify(candles []market.Candle) strategy.Regime {
	if len(candles) < EMAPeriod+1 {
		return strategy.RegimeRange
	}

	closes := market.Closes(candles)
	if efficiencyRatio(closes[len(closes)-EMAPeriod-1:]) < ChopEfficiency {
		return strategy.RegimeChop
	}

	ema := talib.Ema(closes, EMAPeriod)
	last := ema[len(ema)-1]
	prev := ema[len(ema)-2]
	if last <= 0 {
		return strategy.RegimeRange
	}

	slopePct := (last - prev) / last * 100
	switch {
	case slopePct >= TrendSlopePct:
		return strategy.RegimeTrendUp
	case slopePct <= -TrendSlopePct:
		return strategy.RegimeTrendDown
	default:
		return strategy.RegimeRange
	}
}

// efficiencyRatio is Kaufman's net-movement over total-movement: 1.0 is a
// straight line, 0 is pure back-and-forth noise
func efficiencyRatio(closes []float64) float64 {
	if len(closes) < 2 {
		return 0
	}
	net := math.Abs(closes[len(closes)-1] - closes[0])
	var total float64
	for i := 1; i < len(closes); i++ {
		total += math.Abs(closes[i] - closes[i-1])
	}
	if total == 0 {
		return 0
	}
	return net / total
}
