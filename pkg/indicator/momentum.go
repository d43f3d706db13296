package indicator

import "github.com/markcheno/go-talib"

// Default lookback periods, matching the standard settings the bot records
const (
	RSIPeriod  = 14
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// RSIReading holds the latest RSI value and its one-bar slope
type RSIReading struct {
	Value float64 `json:"value"`
	Slope float64 `json:"slope"`
	Valid bool    `json:"valid"`
}

// RSI computes the latest RSI and slope from a close series
// Returns Valid=false when the series is too short for the period
func RSI(closes []float64, period int) RSIReading {
	if period <= 0 {
		period = RSIPeriod
	}
	// talib needs period+1 bars to produce the first value; one more for slope
	if len(closes) < period+2 {
		return RSIReading{}
	}
	series := talib.Rsi(closes, period)
	last := series[len(series)-1]
	prev := series[len(series)-2]
	return RSIReading{Value: last, Slope: last - prev, Valid: true}
}

// MACDReading holds the latest MACD histogram value and its one-bar delta
type MACDReading struct {
	Histogram float64 `json:"histogram"`
	Delta     float64 `json:"delta"`
	Valid     bool    `json:"valid"`
}

// MACD computes the latest MACD histogram and delta from a close series
// Uses the standard 12/26/9 parameters
func MACD(closes []float64) MACDReading {
	if len(closes) < MACDSlow+MACDSignal {
		return MACDReading{}
	}
	_, _, hist := talib.Macd(closes, MACDFast, MACDSlow, MACDSignal)
	last := hist[len(hist)-1]
	prev := hist[len(hist)-2]
	return MACDReading{Histogram: last, Delta: last - prev, Valid: true}
}
