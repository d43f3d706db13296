package strategy

import (
	"github.com/brendanplayford/polymarket-go/pkg/indicator"
	"github.com/brendanplayford/polymarket-go/pkg/market"
)

// BuildBundle assembles the per-tick signal inputs from a candle window and
// the current market price pair
func BuildBundle(candles []market.Candle, marketYes, marketNo float64) Bundle {
	closes := market.Closes(candles)
	vwap := indicator.VWAP(candles)

	b := Bundle{
		VWAP:           vwap,
		VWAPSlope:      indicator.VWAPSlope(candles),
		RSI:            indicator.RSI(closes, indicator.RSIPeriod),
		MACD:           indicator.MACD(closes),
		HeikenAshi:     indicator.ComputeHeikenAshi(candles),
		Divergence:     indicator.DetectDivergence(closes, indicator.DivergenceLookback),
		VolumeSpike:    indicator.DetectVolumeSpike(candles, indicator.VolumeLookback),
		VolumePressure: indicator.MeasureVolumePressure(candles, indicator.VolumeLookback),
		Book:           AnalyzeBook(marketYes, marketNo),
	}
	if len(candles) > 0 {
		b.Price = candles[len(candles)-1].Close
		b.FailedReclaim = indicator.FailedReclaim(candles, vwap)
	}
	return b
}

// ScoreDirection combines all indicator readings into weighted up/down
// scores under the given regime. Missing or neutral inputs abstain.
func ScoreDirection(b Bundle, regime Regime) Score {
	r := normalizeRegime(regime)
	w := regimeWeights[r]
	meanRevert := r == RegimeRange || r == RegimeChop

	var up, down float64
	votes := Votes{
		VWAP: VoteNeutral, RSI: VoteNeutral, MACD: VoteNeutral,
		Heiken: VoteNeutral, Volume: VoteNeutral,
	}

	// VWAP position: which side of fair value price is trading on
	if b.Price > 0 && b.VWAP > 0 {
		if b.Price > b.VWAP {
			up += w.VWAPPosition
			votes.VWAP = VoteLong
		} else if b.Price < b.VWAP {
			down += w.VWAPPosition
			votes.VWAP = VoteShort
		}
	}

	// VWAP slope: direction fair value itself is drifting
	if b.VWAPSlope > 0 {
		up += w.VWAPSlope
	} else if b.VWAPSlope < 0 {
		down += w.VWAPSlope
	}

	// RSI branches by regime: mean-reversion in RANGE/CHOP, momentum in trends
	if b.RSI.Valid {
		v, slope := b.RSI.Value, b.RSI.Slope
		if meanRevert {
			switch {
			case v > 70:
				down += w.RSIMomentum * 1.5
				votes.RSI = VoteShort
			case v < 30:
				up += w.RSIMomentum * 1.5
				votes.RSI = VoteLong
			case v >= 60 && slope < 0:
				down += w.RSIMomentum * 0.5
				votes.RSI = VoteShort
			case v <= 40 && slope > 0:
				up += w.RSIMomentum * 0.5
				votes.RSI = VoteLong
			}
		} else {
			if v > 55 && slope > 0 {
				up += w.RSIMomentum
				votes.RSI = VoteLong
			} else if v < 45 && slope < 0 {
				down += w.RSIMomentum
				votes.RSI = VoteShort
			}
		}
	}

	// MACD: expanding histogram confirms its direction; a contracting one
	// hints reversal in mean-revert regimes
	if b.MACD.Valid && b.MACD.Histogram != 0 {
		h, delta := b.MACD.Histogram, b.MACD.Delta
		expanding := (h > 0 && delta > 0) || (h < 0 && delta < 0)
		switch {
		case expanding && h > 0:
			up += w.MACDMomentum
			votes.MACD = VoteLong
		case expanding:
			down += w.MACDMomentum
			votes.MACD = VoteShort
		case meanRevert && delta != 0 && h > 0:
			down += w.MACDMomentum * 0.5
			votes.MACD = VoteShort
		case meanRevert && delta != 0:
			up += w.MACDMomentum * 0.5
			votes.MACD = VoteLong
		}
	}

	// Heiken-Ashi: needs a streak before it counts
	if b.HeikenAshi.Color != "" && b.HeikenAshi.Streak >= heikenMinStreaks[r] {
		if b.HeikenAshi.Color == indicator.HeikenGreen {
			up += w.HeikenAshi
			votes.Heiken = VoteLong
		} else {
			down += w.HeikenAshi
			votes.Heiken = VoteShort
		}
	}

	// Divergence: scaled by strength, with a bonus when it fights the trend
	if b.Divergence.Bullish {
		pts := w.Divergence * (1 + b.Divergence.Strength)
		if r == RegimeTrendDown {
			pts += w.Divergence * 0.5
		}
		up += pts
	} else if b.Divergence.Bearish {
		pts := w.Divergence * (1 + b.Divergence.Strength)
		if r == RegimeTrendUp {
			pts += w.Divergence * 0.5
		}
		down += pts
	}

	// Volume spike, then pressure; the volume vote follows the spike when
	// one fired, otherwise the pressure bias
	if b.VolumeSpike.IsSpike {
		if b.VolumeSpike.Direction == indicator.DirectionUp {
			up += w.VolumeSpike
			votes.Volume = VoteLong
		} else if b.VolumeSpike.Direction == indicator.DirectionDown {
			down += w.VolumeSpike
			votes.Volume = VoteShort
		}
	}
	switch b.VolumePressure.Bias {
	case indicator.BiasBuy:
		up += w.VolumePressure
		if votes.Volume == VoteNeutral {
			votes.Volume = VoteLong
		}
	case indicator.BiasSell:
		down += w.VolumePressure
		if votes.Volume == VoteNeutral {
			votes.Volume = VoteShort
		}
	}

	// Contrarian book read
	if b.Book.IsExtreme {
		pts := w.Contrarian * b.Book.Confidence
		if b.Book.ContrarianSide == SideUp {
			up += pts
		} else if b.Book.ContrarianSide == SideDown {
			down += pts
		}
	}

	// Failed VWAP reclaim is bearish in every regime
	if b.FailedReclaim {
		down += failedReclaimPenalty
	}

	if up < scoreFloor {
		up = scoreFloor
	}
	if down < scoreFloor {
		down = scoreFloor
	}

	return Score{
		UpScore:   up,
		DownScore: down,
		RawUp:     up / (up + down),
		Votes:     votes,
		Agreement: countAgreement(votes),
	}
}

// countAgreement returns the larger of the LONG and SHORT vote counts
// across the five primary votes
func countAgreement(v Votes) int {
	var long, short int
	for _, vote := range []Vote{v.VWAP, v.RSI, v.MACD, v.Heiken, v.Volume} {
		switch vote {
		case VoteLong:
			long++
		case VoteShort:
			short++
		}
	}
	if long > short {
		return long
	}
	return short
}

// ApplyTimeAwareness decays the raw probability toward 0.5 as the window
// runs out of time for the signal to play out
func ApplyTimeAwareness(rawUp, remainingMinutes, windowMinutes float64) (adjustedUp, adjustedDown float64) {
	decay := 0.0
	if windowMinutes > 0 {
		decay = clamp01(remainingMinutes / windowMinutes)
	}
	adjustedUp = clamp01(0.5 + (rawUp-0.5)*decay)
	return adjustedUp, 1 - adjustedUp
}
