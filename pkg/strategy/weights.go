package strategy

// Weights holds the per-indicator scoring weights for one regime
type Weights struct {
	VWAPPosition   float64
	VWAPSlope      float64
	RSIMomentum    float64
	MACDMomentum   float64
	HeikenAshi     float64
	Divergence     float64
	VolumeSpike    float64
	VolumePressure float64
	Contrarian     float64
}

// Scoring constants shared across regimes
const (
	scoreFloor           = 0.1 // both totals floored here to avoid zero division
	failedReclaimPenalty = 2.0 // flat DOWN points on a failed VWAP reclaim
)

// Strength tier thresholds
const (
	strongMinEdge      = 0.25
	strongMinProb      = 0.70
	strongMinAgreement = 3
	goodMinEdge        = 0.12
	goodMinAgreement   = 2
)

// Counter-trend entries need this much agreement when no divergence backs them
const counterTrendMinAgreement = 4

// regimeWeights tunes each indicator per regime. RANGE leans on RSI
// mean-reversion and divergence, trends lean on VWAP slope and divergence,
// CHOP flattens everything toward conservatism.
var regimeWeights = map[Regime]Weights{
	RegimeTrendUp: {
		VWAPPosition: 1.5, VWAPSlope: 2.0, RSIMomentum: 1.2,
		MACDMomentum: 1.5, HeikenAshi: 1.2, Divergence: 2.0,
		VolumeSpike: 1.2, VolumePressure: 1.0, Contrarian: 0.8,
	},
	RegimeTrendDown: {
		VWAPPosition: 1.5, VWAPSlope: 2.0, RSIMomentum: 1.2,
		MACDMomentum: 1.5, HeikenAshi: 1.2, Divergence: 2.0,
		VolumeSpike: 1.2, VolumePressure: 1.0, Contrarian: 0.8,
	},
	RegimeRange: {
		VWAPPosition: 1.0, VWAPSlope: 0.8, RSIMomentum: 2.0,
		MACDMomentum: 1.2, HeikenAshi: 1.0, Divergence: 2.0,
		VolumeSpike: 1.0, VolumePressure: 0.8, Contrarian: 1.2,
	},
	RegimeChop: {
		VWAPPosition: 0.5, VWAPSlope: 0.5, RSIMomentum: 0.8,
		MACDMomentum: 0.5, HeikenAshi: 0.5, Divergence: 1.0,
		VolumeSpike: 0.8, VolumePressure: 0.5, Contrarian: 1.0,
	},
}

// edgeThresholds is the minimum best-side edge per regime and phase.
// The comparison is strict-less-than, so edge == threshold passes.
var edgeThresholds = map[Regime]map[Phase]float64{
	RegimeTrendUp:   {PhaseEarly: 0.08, PhaseMid: 0.12, PhaseLate: 0.20},
	RegimeTrendDown: {PhaseEarly: 0.08, PhaseMid: 0.12, PhaseLate: 0.20},
	RegimeRange:     {PhaseEarly: 0.10, PhaseMid: 0.14, PhaseLate: 0.22},
	RegimeChop:      {PhaseEarly: 0.18, PhaseMid: 0.22, PhaseLate: 0.30},
}

// probFloors is the minimum best-side model probability per regime and phase
var probFloors = map[Regime]map[Phase]float64{
	RegimeTrendUp:   {PhaseEarly: 0.58, PhaseMid: 0.62, PhaseLate: 0.68},
	RegimeTrendDown: {PhaseEarly: 0.58, PhaseMid: 0.62, PhaseLate: 0.68},
	RegimeRange:     {PhaseEarly: 0.55, PhaseMid: 0.58, PhaseLate: 0.65},
	RegimeChop:      {PhaseEarly: 0.65, PhaseMid: 0.70, PhaseLate: 0.75},
}

// agreementFloors is the minimum indicator agreement per regime
var agreementFloors = map[Regime]int{
	RegimeTrendUp:   2,
	RegimeTrendDown: 2,
	RegimeRange:     3,
	RegimeChop:      3,
}

// heikenMinStreaks is the streak length Heiken-Ashi needs before it scores
var heikenMinStreaks = map[Regime]int{
	RegimeTrendUp:   2,
	RegimeTrendDown: 2,
	RegimeRange:     3,
	RegimeChop:      2,
}

// normalizeRegime maps unknown or missing regimes to RANGE so every table
// lookup is defined
func normalizeRegime(r Regime) Regime {
	switch r {
	case RegimeTrendUp, RegimeTrendDown, RegimeRange, RegimeChop:
		return r
	default:
		return RegimeRange
	}
}

// WeightsFor returns the scoring weights for a regime (unknown -> RANGE)
func WeightsFor(r Regime) Weights {
	return regimeWeights[normalizeRegime(r)]
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
