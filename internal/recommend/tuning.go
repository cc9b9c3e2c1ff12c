package recommend

import "fmt"

// Band maps difficulty onto a multiplier: AtEasy at difficulty 0, AtHard at
// 100, linear between, then clamped to [Min, Max].
type Band struct {
	AtEasy float64 `yaml:"at_easy" json:"atEasy"`
	AtHard float64 `yaml:"at_hard" json:"atHard"`
	Min    float64 `yaml:"min" json:"min"`
	Max    float64 `yaml:"max" json:"max"`
}

type Tuning struct {
	// Fraction of the distance to the profile's optimal difficulty covered
	// by one recommendation.
	ShiftFraction float64 `yaml:"shift_fraction" json:"shiftFraction"`
	// Points of difficulty per point of dominant gap, capped at MaxGapShift.
	GapInfluence float64 `yaml:"gap_influence" json:"gapInfluence"`
	MaxGapShift  float64 `yaml:"max_gap_shift" json:"maxGapShift"`
	// Subtracted when recent performance is unstable.
	InstabilityEase float64 `yaml:"instability_ease" json:"instabilityEase"`
	// Gaps below this (negative) value become focus areas.
	FocusGapThreshold float64 `yaml:"focus_gap_threshold" json:"focusGapThreshold"`
	MaxFocusAreas     int     `yaml:"max_focus_areas" json:"maxFocusAreas"`

	TargetSize     Band `yaml:"target_size" json:"targetSize"`
	SpawnRate      Band `yaml:"spawn_rate" json:"spawnRate"`
	TargetLifetime Band `yaml:"target_lifetime" json:"targetLifetime"`
	MovementSpeed  Band `yaml:"movement_speed" json:"movementSpeed"`
}

func DefaultTuning() Tuning {
	return Tuning{
		ShiftFraction:     0.5,
		GapInfluence:      0.25,
		MaxGapShift:       10,
		InstabilityEase:   5,
		FocusGapThreshold: -5,
		MaxFocusAreas:     3,

		TargetSize:     Band{AtEasy: 1.3, AtHard: 0.7, Min: 0.5, Max: 1.5},
		SpawnRate:      Band{AtEasy: 0.7, AtHard: 1.5, Min: 0.5, Max: 2.0},
		TargetLifetime: Band{AtEasy: 1.4, AtHard: 0.6, Min: 0.5, Max: 1.5},
		MovementSpeed:  Band{AtEasy: 0.6, AtHard: 1.6, Min: 0.5, Max: 2.0},
	}
}

func (b Band) validate(name string, shrinking bool) error {
	if b.Min <= 0 || b.Max < b.Min {
		return fmt.Errorf("%s: band must satisfy 0 < min <= max, got [%v, %v]", name, b.Min, b.Max)
	}
	if shrinking && b.AtHard > b.AtEasy {
		return fmt.Errorf("%s: must not grow with difficulty (at_easy %v, at_hard %v)", name, b.AtEasy, b.AtHard)
	}
	if !shrinking && b.AtHard < b.AtEasy {
		return fmt.Errorf("%s: must not shrink with difficulty (at_easy %v, at_hard %v)", name, b.AtEasy, b.AtHard)
	}
	return nil
}

func (t Tuning) Validate() error {
	if t.ShiftFraction <= 0 || t.ShiftFraction > 1 {
		return fmt.Errorf("shift_fraction must be within (0,1], got %v", t.ShiftFraction)
	}
	if t.GapInfluence < 0 || t.MaxGapShift < 0 || t.InstabilityEase < 0 {
		return fmt.Errorf("gap_influence, max_gap_shift and instability_ease must be non-negative")
	}
	if t.MaxFocusAreas < 1 || t.MaxFocusAreas > 3 {
		return fmt.Errorf("max_focus_areas must be within [1,3], got %d", t.MaxFocusAreas)
	}
	if err := t.TargetSize.validate("target_size", true); err != nil {
		return err
	}
	if err := t.TargetLifetime.validate("target_lifetime", true); err != nil {
		return err
	}
	if err := t.SpawnRate.validate("spawn_rate", false); err != nil {
		return err
	}
	return t.MovementSpeed.validate("movement_speed", false)
}
