package indicator

import "github.com/brendanplayford/polymarket-go/pkg/market"

// Heiken-Ashi candle colors
const (
	HeikenGreen = "GREEN"
	HeikenRed   = "RED"
)

// HeikenAshi holds the smoothed-candle color and how many consecutive
// bars have shared it
type HeikenAshi struct {
	Color  string `json:"color"`
	Streak int    `json:"streak"`
}

// ComputeHeikenAshi runs the Heiken-Ashi transform over the window and
// returns the latest color with its streak length
func ComputeHeikenAshi(candles []market.Candle) HeikenAshi {
	if len(candles) == 0 {
		return HeikenAshi{}
	}

	colors := make([]string, len(candles))
	haOpen := (candles[0].Open + candles[0].Close) / 2
	haClose := (candles[0].Open + candles[0].High + candles[0].Low + candles[0].Close) / 4
	for i, c := range candles {
		if i > 0 {
			haOpen = (haOpen + haClose) / 2
			haClose = (c.Open + c.High + c.Low + c.Close) / 4
		}
		if haClose >= haOpen {
			colors[i] = HeikenGreen
		} else {
			colors[i] = HeikenRed
		}
	}

	last := colors[len(colors)-1]
	streak := 0
	for i := len(colors) - 1; i >= 0 && colors[i] == last; i-- {
		streak++
	}
	return HeikenAshi{Color: last, Streak: streak}
}
