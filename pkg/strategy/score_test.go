package strategy

import (
	"math"
	"testing"

	"github.com/brendanplayford/polymarket-go/pkg/indicator"
)

func TestScoreDirectionNeutralBundle(t *testing.T) {
	regimes := []Regime{RegimeTrendUp, RegimeTrendDown, RegimeRange, RegimeChop, "", "SOMETHING_ELSE"}
	for _, regime := range regimes {
		s := ScoreDirection(Bundle{}, regime)
		if s.UpScore != 0.1 || s.DownScore != 0.1 {
			t.Errorf("regime %q: scores = %v/%v, want 0.1/0.1", regime, s.UpScore, s.DownScore)
		}
		if s.RawUp != 0.5 {
			t.Errorf("regime %q: rawUp = %v, want 0.5", regime, s.RawUp)
		}
		if s.Agreement != 0 {
			t.Errorf("regime %q: agreement = %d, want 0", regime, s.Agreement)
		}
	}
}

func TestScoreRSIMeanReversion(t *testing.T) {
	// Overbought in RANGE leans DOWN at 1.5x weight
	b := Bundle{RSI: indicator.RSIReading{Value: 75, Slope: 1, Valid: true}}
	s := ScoreDirection(b, RegimeRange)
	if want := 2.0 * 1.5; s.DownScore != want {
		t.Errorf("overbought RANGE down = %v, want %v", s.DownScore, want)
	}
	if s.Votes.RSI != VoteShort {
		t.Errorf("overbought RANGE vote = %q, want SHORT", s.Votes.RSI)
	}

	// Oversold in RANGE leans UP at 1.5x weight
	b.RSI.Value = 25
	s = ScoreDirection(b, RegimeRange)
	if want := 2.0 * 1.5; s.UpScore != want {
		t.Errorf("oversold RANGE up = %v, want %v", s.UpScore, want)
	}

	// 60-70 falling gets the half-weight contrarian nudge
	b.RSI = indicator.RSIReading{Value: 65, Slope: -0.5, Valid: true}
	s = ScoreDirection(b, RegimeRange)
	if want := 2.0 * 0.5; s.DownScore != want {
		t.Errorf("fading 65 RANGE down = %v, want %v", s.DownScore, want)
	}

	// 30-40 rising nudges UP at half weight
	b.RSI = indicator.RSIReading{Value: 35, Slope: 0.5, Valid: true}
	s = ScoreDirection(b, RegimeRange)
	if want := 2.0 * 0.5; s.UpScore != want {
		t.Errorf("recovering 35 RANGE up = %v, want %v", s.UpScore, want)
	}
}

func TestScoreRSITrendMomentum(t *testing.T) {
	// Same overbought reading is momentum fuel in a trend
	b := Bundle{RSI: indicator.RSIReading{Value: 62, Slope: 1, Valid: true}}
	s := ScoreDirection(b, RegimeTrendUp)
	if want := 1.2; s.UpScore != want {
		t.Errorf("rising 62 TREND_UP up = %v, want %v", s.UpScore, want)
	}
	if s.Votes.RSI != VoteLong {
		t.Errorf("vote = %q, want LONG", s.Votes.RSI)
	}

	b.RSI = indicator.RSIReading{Value: 40, Slope: -1, Valid: true}
	s = ScoreDirection(b, RegimeTrendDown)
	if want := 1.2; s.DownScore != want {
		t.Errorf("falling 40 TREND_DOWN down = %v, want %v", s.DownScore, want)
	}
}

func TestScoreMACD(t *testing.T) {
	// Expanding positive histogram scores full weight UP
	b := Bundle{MACD: indicator.MACDReading{Histogram: 0.5, Delta: 0.1, Valid: true}}
	s := ScoreDirection(b, RegimeRange)
	if want := 1.2; s.UpScore != want {
		t.Errorf("expanding MACD up = %v, want %v", s.UpScore, want)
	}
	if s.Votes.MACD != VoteLong {
		t.Errorf("vote = %q, want LONG", s.Votes.MACD)
	}

	// Contracting positive histogram is a half-weight reversal hint in RANGE
	b.MACD = indicator.MACDReading{Histogram: 0.5, Delta: -0.1, Valid: true}
	s = ScoreDirection(b, RegimeRange)
	if want := 1.2 * 0.5; s.DownScore != want {
		t.Errorf("contracting MACD RANGE down = %v, want %v", s.DownScore, want)
	}

	// In a trend a contracting histogram abstains
	s = ScoreDirection(b, RegimeTrendUp)
	if s.Votes.MACD != VoteNeutral {
		t.Errorf("contracting MACD TREND vote = %q, want NEUTRAL", s.Votes.MACD)
	}
	if s.UpScore != 0.1 || s.DownScore != 0.1 {
		t.Errorf("contracting MACD TREND scores = %v/%v, want floor", s.UpScore, s.DownScore)
	}
}

func TestScoreHeikenAshiStreakMinimum(t *testing.T) {
	// RANGE requires a 3-bar streak
	b := Bundle{HeikenAshi: indicator.HeikenAshi{Color: indicator.HeikenGreen, Streak: 2}}
	s := ScoreDirection(b, RegimeRange)
	if s.Votes.Heiken != VoteNeutral {
		t.Errorf("2-streak RANGE vote = %q, want NEUTRAL", s.Votes.Heiken)
	}

	b.HeikenAshi.Streak = 3
	s = ScoreDirection(b, RegimeRange)
	if want := 1.0; s.UpScore != want {
		t.Errorf("3-streak RANGE up = %v, want %v", s.UpScore, want)
	}

	// Trends only need 2
	b.HeikenAshi.Streak = 2
	s = ScoreDirection(b, RegimeTrendUp)
	if want := 1.2; s.UpScore != want {
		t.Errorf("2-streak TREND up = %v, want %v", s.UpScore, want)
	}
}

func TestScoreDivergenceCounterTrendBonus(t *testing.T) {
	b := Bundle{Divergence: indicator.Divergence{Bearish: true, Strength: 0.5}}

	// In RANGE: weight * (1 + strength)
	s := ScoreDirection(b, RegimeRange)
	if want := 2.0 * 1.5; s.DownScore != want {
		t.Errorf("bearish div RANGE down = %v, want %v", s.DownScore, want)
	}

	// Against TREND_UP the same divergence earns the 0.5x bonus
	s = ScoreDirection(b, RegimeTrendUp)
	if want := 2.0*1.5 + 2.0*0.5; s.DownScore != want {
		t.Errorf("bearish div TREND_UP down = %v, want %v", s.DownScore, want)
	}

	// Bullish against TREND_DOWN mirrors it
	b.Divergence = indicator.Divergence{Bullish: true, Strength: 0.5}
	s = ScoreDirection(b, RegimeTrendDown)
	if want := 2.0*1.5 + 2.0*0.5; s.UpScore != want {
		t.Errorf("bullish div TREND_DOWN up = %v, want %v", s.UpScore, want)
	}
}

func TestScoreVolumeVotePrefersSpike(t *testing.T) {
	b := Bundle{
		VolumeSpike:    indicator.VolumeSpike{IsSpike: true, Ratio: 3, Direction: indicator.DirectionUp},
		VolumePressure: indicator.VolumePressure{Bias: indicator.BiasSell, Ratio: 0.5},
	}
	s := ScoreDirection(b, RegimeRange)
	if s.Votes.Volume != VoteLong {
		t.Errorf("volume vote = %q, want LONG (spike direction wins)", s.Votes.Volume)
	}
	if want := 1.0; s.UpScore != want {
		t.Errorf("up = %v, want %v", s.UpScore, want)
	}
	if want := 0.8; s.DownScore != want {
		t.Errorf("down = %v, want %v", s.DownScore, want)
	}
}

func TestScoreContrarianBook(t *testing.T) {
	b := Bundle{Book: BookSignal{IsExtreme: true, ContrarianSide: SideDown, Confidence: 0.5}}
	s := ScoreDirection(b, RegimeRange)
	if want := 1.2 * 0.5; s.DownScore != want {
		t.Errorf("contrarian down = %v, want %v", s.DownScore, want)
	}
}

func TestScoreFailedReclaim(t *testing.T) {
	for _, regime := range []Regime{RegimeTrendUp, RegimeRange, RegimeChop} {
		s := ScoreDirection(Bundle{FailedReclaim: true}, regime)
		if s.DownScore != failedReclaimPenalty {
			t.Errorf("regime %s: failed reclaim down = %v, want %v", regime, s.DownScore, failedReclaimPenalty)
		}
	}
}

func TestScoreAgreement(t *testing.T) {
	b := Bundle{
		Price:          101,
		VWAP:           100,
		VWAPSlope:      0.5,
		RSI:            indicator.RSIReading{Value: 60, Slope: 1, Valid: true},
		VolumePressure: indicator.VolumePressure{Bias: indicator.BiasBuy, Ratio: 2},
	}
	s := ScoreDirection(b, RegimeTrendUp)
	// vwap LONG, rsi LONG, volume LONG; macd and heiken neutral
	if s.Agreement != 3 {
		t.Errorf("agreement = %d, want 3", s.Agreement)
	}
}

func TestApplyTimeAwareness(t *testing.T) {
	// Full window left: raw probability passes through
	up, down := ApplyTimeAwareness(0.8, 15, 15)
	if up != 0.8 {
		t.Errorf("full window up = %v, want 0.8", up)
	}
	if down != 1-up {
		t.Errorf("down = %v, want complement %v", down, 1-up)
	}

	// No time left: fully decayed to coin flip
	up, _ = ApplyTimeAwareness(0.8, 0, 15)
	if up != 0.5 {
		t.Errorf("expired window up = %v, want 0.5", up)
	}

	// Halfway decays halfway
	up, _ = ApplyTimeAwareness(0.8, 7.5, 15)
	if math.Abs(up-0.65) > 1e-12 {
		t.Errorf("half window up = %v, want 0.65", up)
	}

	// Overshoot clamps at the full signal, never amplifies
	up, _ = ApplyTimeAwareness(0.8, 30, 15)
	if up != 0.8 {
		t.Errorf("overlong remaining up = %v, want 0.8", up)
	}
}
