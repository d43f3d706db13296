package strategy

// BookExtremeThreshold is the implied probability beyond which one side of
// the book is considered crowded
const BookExtremeThreshold = 0.80

// AnalyzeBook reads the prediction-market price pair for crowding. When one
// side's implied probability pushes past the extreme threshold, the signal
// leans the other way, with confidence scaling toward 1.0 at the bound.
func AnalyzeBook(marketYes, marketNo float64) BookSignal {
	if marketYes <= 0 || marketNo <= 0 {
		return BookSignal{}
	}
	total := marketYes + marketNo
	if total <= 0 {
		return BookSignal{}
	}

	pUp := marketYes / total
	zone := 1 - BookExtremeThreshold

	switch {
	case pUp >= BookExtremeThreshold:
		return BookSignal{
			IsExtreme:      true,
			CrowdedSide:    SideUp,
			ContrarianSide: SideDown,
			Confidence:     clamp01((pUp - BookExtremeThreshold) / zone),
		}
	case pUp <= zone:
		return BookSignal{
			IsExtreme:      true,
			CrowdedSide:    SideDown,
			ContrarianSide: SideUp,
			Confidence:     clamp01((zone - pUp) / zone),
		}
	default:
		return BookSignal{}
	}
}
