// Package strategy scores indicator bundles into directional probabilities
// and turns model-vs-market edge into trade decisions
package strategy

import (
	"fmt"

	"github.com/brendanplayford/polymarket-go/pkg/indicator"
)

// Regime classifies the prevailing market character
type Regime string

// Recognized regimes; anything else falls back to RANGE
const (
	RegimeTrendUp   Regime = "TREND_UP"
	RegimeTrendDown Regime = "TREND_DOWN"
	RegimeRange     Regime = "RANGE"
	RegimeChop      Regime = "CHOP"
)

// Side is the direction of a binary position
type Side string

// Market sides
const (
	SideUp   Side = "UP"
	SideDown Side = "DOWN"
)

// Phase buckets the remaining minutes of a market window
type Phase string

// Window phases
const (
	PhaseEarly Phase = "EARLY"
	PhaseMid   Phase = "MID"
	PhaseLate  Phase = "LATE"
)

// Strength is the confidence tier of an ENTER decision
type Strength string

// Entry strength tiers
const (
	StrengthStrong   Strength = "STRONG"
	StrengthGood     Strength = "GOOD"
	StrengthOptional Strength = "OPTIONAL"
)

// Decision actions
const (
	ActionEnter   = "ENTER"
	ActionNoTrade = "NO_TRADE"
)

// Vote is one indicator's categorical lean
type Vote string

// Vote values
const (
	VoteLong    Vote = "LONG"
	VoteShort   Vote = "SHORT"
	VoteNeutral Vote = "NEUTRAL"
)

// BookSignal is the contrarian read of the prediction-market price pair
type BookSignal struct {
	IsExtreme      bool    `json:"is_extreme"`
	CrowdedSide    Side    `json:"crowded_side"`
	ContrarianSide Side    `json:"contrarian_side"`
	Confidence     float64 `json:"confidence"` // 0-1, how deep into the extreme zone
}

// Bundle aggregates every indicator reading for one tick
type Bundle struct {
	Price          float64                  `json:"price"`
	VWAP           float64                  `json:"vwap"`
	VWAPSlope      float64                  `json:"vwap_slope"`
	RSI            indicator.RSIReading     `json:"rsi"`
	MACD           indicator.MACDReading    `json:"macd"`
	HeikenAshi     indicator.HeikenAshi     `json:"heiken_ashi"`
	Divergence     indicator.Divergence     `json:"divergence"`
	VolumeSpike    indicator.VolumeSpike    `json:"volume_spike"`
	VolumePressure indicator.VolumePressure `json:"volume_pressure"`
	Book           BookSignal               `json:"book"`
	FailedReclaim  bool                     `json:"failed_reclaim"`
}

// Votes holds the five primary categorical votes used for agreement
type Votes struct {
	VWAP   Vote `json:"vwap"`
	RSI    Vote `json:"rsi"`
	MACD   Vote `json:"macd"`
	Heiken Vote `json:"heiken"`
	Volume Vote `json:"volume"`
}

// Score is the weighted directional result for one tick
type Score struct {
	UpScore   float64 `json:"up_score"`
	DownScore float64 `json:"down_score"`
	RawUp     float64 `json:"raw_up"` // up/(up+down), before time awareness
	Votes     Votes   `json:"votes"`
	Agreement int     `json:"agreement"` // max of LONG vs SHORT vote counts
}

// Edge compares model probability against market-implied probability
type Edge struct {
	MarketUp   float64 `json:"market_up"`
	MarketDown float64 `json:"market_down"`
	EdgeUp     float64 `json:"edge_up"`   // model - market, signed
	EdgeDown   float64 `json:"edge_down"` // model - market, signed
}

// Decision is the trade/no-trade verdict for one tick
type Decision struct {
	Action    string   `json:"action"` // ENTER or NO_TRADE
	Side      Side     `json:"side"`   // empty unless ENTER
	Phase     Phase    `json:"phase"`
	Strength  Strength `json:"strength"` // empty unless ENTER
	Reason    string   `json:"reason"`
	Edge      float64  `json:"edge"`       // best-side edge, set on ENTER
	ModelProb float64  `json:"model_prob"` // best-side model probability, set on ENTER
	Agreement int      `json:"agreement"`
}

// Signal returns the log label for this decision
func (d Decision) Signal() string {
	if d.Action != ActionEnter {
		return "NO TRADE"
	}
	if d.Side == SideDown {
		return "BUY DOWN"
	}
	return "BUY UP"
}

// Recommendation returns the display string used in the signal log,
// e.g. "STRONG ENTRY (EARLY)" or "NO TRADE (low_agreement)"
func (d Decision) Recommendation() string {
	if d.Action != ActionEnter {
		return fmt.Sprintf("NO TRADE (%s)", d.Reason)
	}
	return fmt.Sprintf("%s ENTRY (%s)", d.Strength, d.Phase)
}
