package strategy

import "math"

// ComputeEdge normalizes the raw market price pair into implied
// probabilities and returns the signed model-minus-market edge per side.
// Returns nil when either market price is missing, so callers can tell
// "no data" apart from "zero edge".
func ComputeEdge(modelUp, modelDown, marketYes, marketNo float64) *Edge {
	if marketYes <= 0 || marketNo <= 0 ||
		math.IsNaN(marketYes) || math.IsNaN(marketNo) {
		return nil
	}
	total := marketYes + marketNo
	if total <= 0 {
		return nil
	}

	marketUp := clamp01(marketYes / total)
	marketDown := clamp01(marketNo / total)
	return &Edge{
		MarketUp:   marketUp,
		MarketDown: marketDown,
		EdgeUp:     modelUp - marketUp,
		EdgeDown:   modelDown - marketDown,
	}
}
