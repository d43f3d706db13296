package strategy

import (
	"reflect"
	"testing"

	"github.com/brendanplayford/polymarket-go/pkg/indicator"
)

// edgeOf builds a consistent Edge from a 50/50 market and a model lean
func edgeOf(modelUp float64) *Edge {
	return &Edge{
		MarketUp:   0.5,
		MarketDown: 0.5,
		EdgeUp:     modelUp - 0.5,
		EdgeDown:   (1 - modelUp) - 0.5,
	}
}

func TestDecideNoMarketData(t *testing.T) {
	d := Decide(12, nil, 0.9, 0.1, RegimeTrendUp, Score{Agreement: 5}, indicator.Divergence{})
	if d.Action != ActionNoTrade {
		t.Fatalf("action = %q, want NO_TRADE", d.Action)
	}
	if d.Reason != ReasonNoMarketData {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonNoMarketData)
	}
}

func TestDecidePurity(t *testing.T) {
	e := edgeOf(0.8)
	div := indicator.Divergence{Bullish: true, Strength: 0.4}
	score := Score{Agreement: 4, RawUp: 0.8}

	a := Decide(7, e, 0.8, 0.2, RegimeRange, score, div)
	b := Decide(7, e, 0.8, 0.2, RegimeRange, score, div)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical inputs gave %+v and %+v", a, b)
	}
}

func TestDecideAgreementFloor(t *testing.T) {
	e := edgeOf(0.9)

	// RANGE needs 3
	d := Decide(12, e, 0.9, 0.1, RegimeRange, Score{Agreement: 2}, indicator.Divergence{})
	if d.Reason != ReasonLowAgreement {
		t.Errorf("RANGE agreement 2: reason = %q, want %q", d.Reason, ReasonLowAgreement)
	}

	// TREND needs only 2
	d = Decide(12, e, 0.9, 0.1, RegimeTrendUp, Score{Agreement: 2}, indicator.Divergence{})
	if d.Action != ActionEnter {
		t.Errorf("TREND agreement 2: action = %q (%s), want ENTER", d.Action, d.Reason)
	}
}

func TestDecideDivergenceVeto(t *testing.T) {
	e := edgeOf(0.9) // best side UP with a huge edge
	div := indicator.Divergence{Bearish: true, Strength: 0.9}

	d := Decide(12, e, 0.9, 0.1, RegimeTrendUp, Score{Agreement: 5}, div)
	if d.Action != ActionNoTrade || d.Reason != ReasonDivergenceVeto {
		t.Errorf("bearish div vs UP: got %q/%q, want NO_TRADE/%q", d.Action, d.Reason, ReasonDivergenceVeto)
	}

	// Mirror: bullish divergence vetoes DOWN
	e = edgeOf(0.1) // best side DOWN
	div = indicator.Divergence{Bullish: true, Strength: 0.9}
	d = Decide(12, e, 0.1, 0.9, RegimeTrendDown, Score{Agreement: 5}, div)
	if d.Action != ActionNoTrade || d.Reason != ReasonDivergenceVeto {
		t.Errorf("bullish div vs DOWN: got %q/%q, want NO_TRADE/%q", d.Action, d.Reason, ReasonDivergenceVeto)
	}
}

func TestDecideEdgeThresholdBoundary(t *testing.T) {
	// TREND_UP EARLY threshold is 0.08; edge == threshold must pass
	at := &Edge{MarketUp: 0.5, MarketDown: 0.5, EdgeUp: 0.08, EdgeDown: -0.08}
	d := Decide(12, at, 0.70, 0.30, RegimeTrendUp, Score{Agreement: 3}, indicator.Divergence{})
	if d.Action != ActionEnter {
		t.Errorf("edge at threshold: action = %q (%s), want ENTER", d.Action, d.Reason)
	}

	below := &Edge{MarketUp: 0.5, MarketDown: 0.5, EdgeUp: 0.079, EdgeDown: -0.079}
	d = Decide(12, below, 0.70, 0.30, RegimeTrendUp, Score{Agreement: 3}, indicator.Divergence{})
	if d.Reason != ReasonEdgeBelowMin {
		t.Errorf("edge below threshold: reason = %q, want %q", d.Reason, ReasonEdgeBelowMin)
	}
}

func TestDecideProbabilityFloor(t *testing.T) {
	// Big edge but weak model probability: TREND_UP EARLY floor is 0.58
	e := &Edge{MarketUp: 0.3, MarketDown: 0.7, EdgeUp: 0.25, EdgeDown: -0.25}
	d := Decide(12, e, 0.55, 0.45, RegimeTrendUp, Score{Agreement: 3}, indicator.Divergence{})
	if d.Reason != ReasonProbBelowMin {
		t.Errorf("reason = %q, want %q", d.Reason, ReasonProbBelowMin)
	}
}

func TestDecideChopSuppression(t *testing.T) {
	e := edgeOf(0.99)
	score := Score{Agreement: 5}

	for _, tc := range []struct {
		remaining float64
		want      string
	}{
		{12, ActionNoTrade}, // EARLY
		{7, ActionNoTrade},  // MID
		{3, ActionEnter},    // LATE
	} {
		d := Decide(tc.remaining, e, 0.99, 0.01, RegimeChop, score, indicator.Divergence{})
		if d.Action != tc.want {
			t.Errorf("CHOP remaining=%v: action = %q (%s), want %q", tc.remaining, d.Action, d.Reason, tc.want)
		}
	}
}

func TestDecideCounterTrend(t *testing.T) {
	e := edgeOf(0.8) // UP against TREND_DOWN
	noDiv := indicator.Divergence{}

	// agreement 3 without divergence support is not enough
	d := Decide(12, e, 0.8, 0.2, RegimeTrendDown, Score{Agreement: 3}, noDiv)
	if d.Reason != ReasonCounterTrend {
		t.Errorf("counter-trend weak: reason = %q, want %q", d.Reason, ReasonCounterTrend)
	}

	// agreement 4 clears it
	d = Decide(12, e, 0.8, 0.2, RegimeTrendDown, Score{Agreement: 4}, noDiv)
	if d.Action != ActionEnter {
		t.Errorf("counter-trend agreement 4: action = %q (%s), want ENTER", d.Action, d.Reason)
	}

	// so does a supporting bullish divergence at agreement 3
	d = Decide(12, e, 0.8, 0.2, RegimeTrendDown, Score{Agreement: 3}, indicator.Divergence{Bullish: true})
	if d.Action != ActionEnter {
		t.Errorf("counter-trend with div: action = %q (%s), want ENTER", d.Action, d.Reason)
	}
}

func TestDecideStrengthTiers(t *testing.T) {
	noDiv := indicator.Divergence{}

	// With-trend, big edge, high prob, agreement 3: STRONG
	e := &Edge{MarketUp: 0.45, MarketDown: 0.55, EdgeUp: 0.30, EdgeDown: -0.30}
	d := Decide(12, e, 0.75, 0.25, RegimeTrendUp, Score{Agreement: 3}, noDiv)
	if d.Strength != StrengthStrong {
		t.Errorf("strength = %q, want STRONG", d.Strength)
	}

	// Moderate edge: GOOD
	e = &Edge{MarketUp: 0.5, MarketDown: 0.5, EdgeUp: 0.15, EdgeDown: -0.15}
	d = Decide(12, e, 0.65, 0.35, RegimeTrendUp, Score{Agreement: 2}, noDiv)
	if d.Strength != StrengthGood {
		t.Errorf("strength = %q, want GOOD", d.Strength)
	}

	// Thin edge that still clears the EARLY threshold: OPTIONAL
	e = &Edge{MarketUp: 0.5, MarketDown: 0.5, EdgeUp: 0.10, EdgeDown: -0.10}
	d = Decide(12, e, 0.60, 0.40, RegimeTrendUp, Score{Agreement: 2}, noDiv)
	if d.Strength != StrengthOptional {
		t.Errorf("strength = %q, want OPTIONAL", d.Strength)
	}

	// In RANGE the STRONG tier needs divergence support (no trend to ride)
	e = &Edge{MarketUp: 0.45, MarketDown: 0.55, EdgeUp: 0.30, EdgeDown: -0.30}
	d = Decide(12, e, 0.75, 0.25, RegimeRange, Score{Agreement: 3}, noDiv)
	if d.Strength != StrengthGood {
		t.Errorf("RANGE no-div strength = %q, want GOOD", d.Strength)
	}
	d = Decide(12, e, 0.75, 0.25, RegimeRange, Score{Agreement: 3}, indicator.Divergence{Bullish: true})
	if d.Strength != StrengthStrong {
		t.Errorf("RANGE with div strength = %q, want STRONG", d.Strength)
	}
}

func TestDecideUnknownRegimeActsAsRange(t *testing.T) {
	e := edgeOf(0.9)
	// RANGE agreement floor is 3, so agreement 2 under an unknown regime fails
	d := Decide(12, e, 0.9, 0.1, "MYSTERY", Score{Agreement: 2}, indicator.Divergence{})
	if d.Reason != ReasonLowAgreement {
		t.Errorf("unknown regime reason = %q, want %q", d.Reason, ReasonLowAgreement)
	}
}

func TestPhaseFor(t *testing.T) {
	tests := []struct {
		remaining float64
		want      Phase
	}{
		{14, PhaseEarly},
		{10.01, PhaseEarly},
		{10, PhaseMid},
		{5.5, PhaseMid},
		{5, PhaseLate},
		{0, PhaseLate},
	}
	for _, tt := range tests {
		if got := PhaseFor(tt.remaining); got != tt.want {
			t.Errorf("PhaseFor(%v) = %q, want %q", tt.remaining, got, tt.want)
		}
	}
}

func TestDecisionLabels(t *testing.T) {
	d := Decision{Action: ActionEnter, Side: SideUp, Phase: PhaseEarly, Strength: StrengthStrong}
	if got := d.Signal(); got != "BUY UP" {
		t.Errorf("signal = %q, want BUY UP", got)
	}
	if got := d.Recommendation(); got != "STRONG ENTRY (EARLY)" {
		t.Errorf("recommendation = %q, want STRONG ENTRY (EARLY)", got)
	}

	d = Decision{Action: ActionNoTrade, Reason: ReasonLowAgreement}
	if got := d.Signal(); got != "NO TRADE" {
		t.Errorf("signal = %q, want NO TRADE", got)
	}
	if got := d.Recommendation(); got != "NO TRADE (low_agreement)" {
		t.Errorf("recommendation = %q, want NO TRADE (low_agreement)", got)
	}
}
