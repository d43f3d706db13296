package indicator

import "github.com/brendanplayford/polymarket-go/pkg/market"

// Volume thresholds
const (
	SpikeRatio        = 2.0 // last volume vs trailing average
	PressureBuyRatio  = 1.2 // buy/sell volume ratio above this = BUY bias
	PressureSellRatio = 0.8 // below this = SELL bias
	VolumeLookback    = 20
)

// Spike directions and pressure biases
const (
	DirectionUp   = "UP"
	DirectionDown = "DOWN"
	BiasBuy       = "BUY"
	BiasSell      = "SELL"
	BiasNeutral   = "NEUTRAL"
)

// VolumeSpike flags an abnormal volume bar and the direction it printed in
type VolumeSpike struct {
	IsSpike   bool    `json:"is_spike"`
	Ratio     float64 `json:"ratio"`
	Direction string  `json:"direction"`
}

// DetectVolumeSpike compares the last bar's volume against the trailing
// average of the preceding lookback bars
func DetectVolumeSpike(candles []market.Candle, lookback int) VolumeSpike {
	if lookback <= 0 {
		lookback = VolumeLookback
	}
	if len(candles) < lookback+1 {
		return VolumeSpike{}
	}

	last := candles[len(candles)-1]
	window := candles[len(candles)-1-lookback : len(candles)-1]
	var sum float64
	for _, c := range window {
		sum += c.Volume
	}
	avg := sum / float64(len(window))
	if avg <= 0 {
		return VolumeSpike{}
	}

	ratio := last.Volume / avg
	spike := VolumeSpike{Ratio: ratio}
	if ratio >= SpikeRatio {
		spike.IsSpike = true
		if last.Bullish() {
			spike.Direction = DirectionUp
		} else {
			spike.Direction = DirectionDown
		}
	}
	return spike
}

// VolumePressure summarizes which side the traded volume has been hitting
type VolumePressure struct {
	Bias  string  `json:"bias"`
	Ratio float64 `json:"ratio"` // buy volume / sell volume
}

// MeasureVolumePressure splits window volume by candle direction and
// classifies the buy/sell ratio into a bias
func MeasureVolumePressure(candles []market.Candle, lookback int) VolumePressure {
	if lookback <= 0 {
		lookback = VolumeLookback
	}
	if len(candles) > lookback {
		candles = candles[len(candles)-lookback:]
	}
	if len(candles) == 0 {
		return VolumePressure{Bias: BiasNeutral}
	}

	var buyVol, sellVol float64
	for _, c := range candles {
		if c.Bullish() {
			buyVol += c.Volume
		} else {
			sellVol += c.Volume
		}
	}

	p := VolumePressure{Bias: BiasNeutral}
	switch {
	case sellVol == 0 && buyVol == 0:
		p.Ratio = 1
	case sellVol == 0:
		p.Ratio = buyVol // no sell volume at all, treat ratio as raw buy volume
		p.Bias = BiasBuy
	default:
		p.Ratio = buyVol / sellVol
		if p.Ratio > PressureBuyRatio {
			p.Bias = BiasBuy
		} else if p.Ratio < PressureSellRatio {
			p.Bias = BiasSell
		}
	}
	return p
}
