// Package indicator computes the technical primitives fed into signal scoring
package indicator

import "github.com/brendanplayford/polymarket-go/pkg/market"

// VWAPSeries returns the running volume-weighted average price per bar
// Bars with zero cumulative volume fall back to the close
func VWAPSeries(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	var sumPV, sumV float64
	for i, c := range candles {
		sumPV += c.Close * c.Volume
		sumV += c.Volume
		if sumV > 0 {
			out[i] = sumPV / sumV
		} else {
			out[i] = c.Close
		}
	}
	return out
}

// VWAP returns the volume-weighted average price over the full window
func VWAP(candles []market.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	series := VWAPSeries(candles)
	return series[len(series)-1]
}

// VWAPSlope returns the change in running VWAP over the last bar
func VWAPSlope(candles []market.Candle) float64 {
	if len(candles) < 2 {
		return 0
	}
	series := VWAPSeries(candles)
	return series[len(series)-1] - series[len(series)-2]
}

// FailedReclaim reports whether the last candle pushed above VWAP intrabar
// but closed back below it, a failed reclaim attempt that reads bearish
func FailedReclaim(candles []market.Candle, vwap float64) bool {
	if len(candles) == 0 || vwap <= 0 {
		return false
	}
	last := candles[len(candles)-1]
	return last.High > vwap && last.Open < vwap && last.Close < vwap
}
