package strategy

import "github.com/brendanplayford/polymarket-go/pkg/indicator"

// Decision reason codes
const (
	ReasonNoMarketData   = "no_market_data"
	ReasonLowAgreement   = "low_agreement"
	ReasonDivergenceVeto = "divergence_veto"
	ReasonEdgeBelowMin   = "edge_below_threshold"
	ReasonProbBelowMin   = "prob_below_floor"
	ReasonChopWaitLate   = "chop_wait_late"
	ReasonCounterTrend   = "counter_trend_unconfirmed"
	ReasonEdgeConfirmed  = "edge_confirmed"
)

// PhaseFor buckets remaining minutes into the window phase
func PhaseFor(remainingMinutes float64) Phase {
	switch {
	case remainingMinutes > 10:
		return PhaseEarly
	case remainingMinutes > 5:
		return PhaseMid
	default:
		return PhaseLate
	}
}

// Decide runs the layered filter chain over one tick's edge and score.
// Guards are evaluated in a fixed order and the first failing guard wins,
// so the reason code always names the outermost rejection. Pure function:
// identical inputs always produce the identical Decision.
func Decide(remainingMinutes float64, e *Edge, modelUp, modelDown float64, regime Regime, score Score, div indicator.Divergence) Decision {
	phase := PhaseFor(remainingMinutes)
	r := normalizeRegime(regime)

	d := Decision{Action: ActionNoTrade, Phase: phase, Agreement: score.Agreement}

	// 1. no market data, nothing to compare against
	if e == nil {
		d.Reason = ReasonNoMarketData
		return d
	}

	// 2. pick the side with the larger edge (ties go UP)
	side, bestEdge, bestModel := SideUp, e.EdgeUp, modelUp
	if e.EdgeDown > e.EdgeUp {
		side, bestEdge, bestModel = SideDown, e.EdgeDown, modelDown
	}

	// 3. agreement floor
	if score.Agreement < agreementFloors[r] {
		d.Reason = ReasonLowAgreement
		return d
	}

	// 4. divergence veto, unconditional
	if (side == SideUp && div.Bearish) || (side == SideDown && div.Bullish) {
		d.Reason = ReasonDivergenceVeto
		return d
	}

	// 5. edge threshold (strict <, so edge == threshold passes)
	if bestEdge < edgeThresholds[r][phase] {
		d.Reason = ReasonEdgeBelowMin
		return d
	}

	// 6. model probability floor
	if bestModel < probFloors[r][phase] {
		d.Reason = ReasonProbBelowMin
		return d
	}

	// 7. CHOP only trades LATE
	if r == RegimeChop && phase != PhaseLate {
		d.Reason = ReasonChopWaitLate
		return d
	}

	// 8. counter-trend entries need divergence support or broad agreement
	counterTrend := (side == SideUp && r == RegimeTrendDown) ||
		(side == SideDown && r == RegimeTrendUp)
	if counterTrend {
		divSupport := (side == SideUp && div.Bullish) || (side == SideDown && div.Bearish)
		if !divSupport && score.Agreement < counterTrendMinAgreement {
			d.Reason = ReasonCounterTrend
			return d
		}
	}

	d.Action = ActionEnter
	d.Side = side
	d.Edge = bestEdge
	d.ModelProb = bestModel
	d.Reason = ReasonEdgeConfirmed
	d.Strength = classifyStrength(side, bestEdge, bestModel, score.Agreement, r, div)
	return d
}

// classifyStrength tiers an ENTER decision by conviction
func classifyStrength(side Side, edge, prob float64, agreement int, r Regime, div indicator.Divergence) Strength {
	withTrend := (side == SideUp && r == RegimeTrendUp) ||
		(side == SideDown && r == RegimeTrendDown)
	divSupport := (side == SideUp && div.Bullish) || (side == SideDown && div.Bearish)

	if edge >= strongMinEdge && prob >= strongMinProb &&
		agreement >= strongMinAgreement && (withTrend || divSupport) {
		return StrengthStrong
	}
	if edge >= goodMinEdge && agreement >= goodMinAgreement {
		return StrengthGood
	}
	return StrengthOptional
}
