package analysis

import "fmt"

// Tuning holds the analyzer constants.
type Tuning struct {
	// |observed - rating| above this many points flags adaptation.
	GapThreshold float64 `yaml:"gap_threshold" json:"gapThreshold"`
	// Fraction of the gap a rating moves per session.
	SmoothingFactor float64 `yaml:"smoothing_factor" json:"smoothingFactor"`
	StabilityWindow int     `yaml:"stability_window" json:"stabilityWindow"`
	// Stability below this flags adaptation.
	StabilityFloor float64 `yaml:"stability_floor" json:"stabilityFloor"`
	// Stability is 1 - stddev*StabilityScale over normalized session scores.
	StabilityScale float64 `yaml:"stability_scale" json:"stabilityScale"`
	TrendEpsilon   float64 `yaml:"trend_epsilon" json:"trendEpsilon"`
	// Reaction times mapping to speed 100 and speed 0.
	FastReactionMs float64 `yaml:"fast_reaction_ms" json:"fastReactionMs"`
	SlowReactionMs float64 `yaml:"slow_reaction_ms" json:"slowReactionMs"`
}

func DefaultTuning() Tuning {
	return Tuning{
		GapThreshold:    15,
		SmoothingFactor: 0.2,
		StabilityWindow: 10,
		StabilityFloor:  0.5,
		StabilityScale:  4,
		TrendEpsilon:    0.05,
		FastReactionMs:  150,
		SlowReactionMs:  800,
	}
}

func (t Tuning) Validate() error {
	if t.GapThreshold <= 0 || t.GapThreshold > 100 {
		return fmt.Errorf("gap_threshold must be within (0,100], got %v", t.GapThreshold)
	}
	if t.SmoothingFactor <= 0 || t.SmoothingFactor > 1 {
		return fmt.Errorf("smoothing_factor must be within (0,1], got %v", t.SmoothingFactor)
	}
	if t.StabilityWindow < 2 {
		return fmt.Errorf("stability_window must be at least 2, got %d", t.StabilityWindow)
	}
	if t.StabilityFloor < 0 || t.StabilityFloor > 1 {
		return fmt.Errorf("stability_floor must be within [0,1], got %v", t.StabilityFloor)
	}
	if t.StabilityScale <= 0 {
		return fmt.Errorf("stability_scale must be positive, got %v", t.StabilityScale)
	}
	if t.TrendEpsilon < 0 {
		return fmt.Errorf("trend_epsilon must be non-negative, got %v", t.TrendEpsilon)
	}
	if t.FastReactionMs <= 0 || t.SlowReactionMs <= t.FastReactionMs {
		return fmt.Errorf("reaction range must satisfy 0 < fast < slow, got %v..%v", t.FastReactionMs, t.SlowReactionMs)
	}
	return nil
}
