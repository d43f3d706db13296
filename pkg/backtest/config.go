// Package backtest replays stored snapshots against recorded market
// outcomes to simulate the entry strategy
package backtest

// Config controls which snapshots qualify for entry and how fills are priced
type Config struct {
	PositionSize          float64  `json:"position_size" yaml:"position_size"`                     // dollars per trade
	MinEdge               float64  `json:"min_edge" yaml:"min_edge"`                               // model edge floor
	MinModelProb          float64  `json:"min_model_prob" yaml:"min_model_prob"`                   // model probability floor
	AllowedPhases         []string `json:"allowed_phases" yaml:"allowed_phases"`                   // EARLY/MID/LATE
	AllowedStrengths      []string `json:"allowed_strengths" yaml:"allowed_strengths"`             // STRONG/GOOD/OPTIONAL
	OneEntryPerMarket     bool     `json:"one_entry_per_market" yaml:"one_entry_per_market"`       // at most one trade per market
	PreferStrongerSignals bool     `json:"prefer_stronger_signals" yaml:"prefer_stronger_signals"` // keep the highest-edge candidate
	MinTimeLeft           float64  `json:"min_time_left" yaml:"min_time_left"`                     // minutes
	MaxTimeLeft           float64  `json:"max_time_left" yaml:"max_time_left"`                     // minutes
	Slippage              float64  `json:"slippage" yaml:"slippage"`                               // cents added to entry price
	CommissionPct         float64  `json:"commission_pct" yaml:"commission_pct"`                   // fraction of position size
	Source                string   `json:"source" yaml:"source"`                                   // tag written on produced trades
}

// DefaultConfig returns the documented default parameter set
func DefaultConfig() Config {
	return Config{
		PositionSize:          10,
		MinEdge:               0.05,
		MinModelProb:          0.55,
		AllowedPhases:         []string{"EARLY", "MID", "LATE"},
		AllowedStrengths:      []string{"STRONG", "GOOD", "OPTIONAL"},
		OneEntryPerMarket:     true,
		PreferStrongerSignals: true,
		MinTimeLeft:           2,
		MaxTimeLeft:           14,
		Slippage:              0.5,
		CommissionPct:         0.001,
		Source:                "backtest",
	}
}

func (c Config) phaseAllowed(phase string) bool {
	for _, p := range c.AllowedPhases {
		if p == phase {
			return true
		}
	}
	return false
}

func (c Config) strengthAllowed(strength string) bool {
	for _, s := range c.AllowedStrengths {
		if s == strength {
			return true
		}
	}
	return false
}
