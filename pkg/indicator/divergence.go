package indicator

import "github.com/markcheno/go-talib"

// DivergenceLookback is the number of bars scanned for swing comparison
const DivergenceLookback = 14

// Divergence captures a price/RSI disagreement at recent swing points
type Divergence struct {
	Bullish  bool    `json:"bullish"`
	Bearish  bool    `json:"bearish"`
	Strength float64 `json:"strength"` // 0..1, scaled from the RSI gap
}

// DetectDivergence compares price and RSI swings across the two halves of
// the lookback window. A lower price low with a higher RSI low is bullish;
// a higher price high with a lower RSI high is bearish. Strength scales
// with the RSI gap, capped at 1.
func DetectDivergence(closes []float64, lookback int) Divergence {
	if lookback <= 0 {
		lookback = DivergenceLookback
	}
	// need full RSI warmup plus the lookback window
	if len(closes) < RSIPeriod+lookback+1 {
		return Divergence{}
	}

	rsis := talib.Rsi(closes, RSIPeriod)
	prices := closes[len(closes)-lookback:]
	rsiTail := rsis[len(rsis)-lookback:]
	half := lookback / 2

	oldLowIdx := minIndex(prices[:half])
	newLowIdx := half + minIndex(prices[half:])
	oldHighIdx := maxIndex(prices[:half])
	newHighIdx := half + maxIndex(prices[half:])

	var d Divergence
	if prices[newLowIdx] < prices[oldLowIdx] && rsiTail[newLowIdx] > rsiTail[oldLowIdx] {
		d.Bullish = true
		d.Strength = clamp01((rsiTail[newLowIdx] - rsiTail[oldLowIdx]) / 10)
	} else if prices[newHighIdx] > prices[oldHighIdx] && rsiTail[newHighIdx] < rsiTail[oldHighIdx] {
		d.Bearish = true
		d.Strength = clamp01((rsiTail[oldHighIdx] - rsiTail[newHighIdx]) / 10)
	}
	return d
}

func minIndex(xs []float64) int {
	idx := 0
	for i, x := range xs {
		if x < xs[idx] {
			idx = i
		}
	}
	return idx
}

func maxIndex(xs []float64) int {
	idx := 0
	for i, x := range xs {
		if x > xs[idx] {
			idx = i
		}
	}
	return idx
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
