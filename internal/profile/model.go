package profile

import (
	"math"
	"time"

	"flicktrainer/internal/utility"
)

type Dimension string

const (
	DimensionAccuracy    = Dimension("accuracy")
	DimensionSpeed       = Dimension("speed")
	DimensionConsistency = Dimension("consistency")
	DimensionFlick       = Dimension("flick")
	DimensionTracking    = Dimension("tracking")
)

const (
	MinRating = 0.0
	MaxRating = 100.0

	BaselineRating     = 50.0
	BaselineDifficulty = 25.0
)

// Contribution of each dimension to OverallSkill.
var dimensionWeights = map[Dimension]float64{
	DimensionAccuracy:    0.25,
	DimensionSpeed:       0.25,
	DimensionConsistency: 0.20,
	DimensionFlick:       0.15,
	DimensionTracking:    0.15,
}

func Dimensions() []Dimension {
	return []Dimension{DimensionAccuracy, DimensionSpeed, DimensionConsistency, DimensionFlick, DimensionTracking}
}

// UserSkillProfile is the persisted per-player skill estimate. Every rating
// lives in [0,100]. SessionsAnalyzed == 0 marks a profile that has never seen
// a session.
type UserSkillProfile struct {
	OverallSkill      float64 `json:"overallSkill"`
	AccuracyRating    float64 `json:"accuracyRating"`
	SpeedRating       float64 `json:"speedRating"`
	ConsistencyRating float64 `json:"consistencyRating"`
	FlickSkill        float64 `json:"flickSkill"`
	TrackingSkill     float64 `json:"trackingSkill"`
	OptimalDifficulty float64 `json:"optimalDifficulty"`
	SessionsAnalyzed  int     `json:"sessionsAnalyzed"`

	// ResetAt is when the player last reset; history recorded before it
	// no longer counts.
	ResetAt time.Time `json:"resetAt,omitzero"`
}

func NewProfile() UserSkillProfile {
	return UserSkillProfile{
		OverallSkill:      BaselineRating,
		AccuracyRating:    BaselineRating,
		SpeedRating:       BaselineRating,
		ConsistencyRating: BaselineRating,
		FlickSkill:        BaselineRating,
		TrackingSkill:     BaselineRating,
		OptimalDifficulty: BaselineDifficulty,
		SessionsAnalyzed:  0,
	}
}

func (p UserSkillProfile) Initialized() bool {
	return p.SessionsAnalyzed > 0
}

func (p UserSkillProfile) Rating(d Dimension) float64 {
	switch d {
	case DimensionAccuracy:
		return p.AccuracyRating
	case DimensionSpeed:
		return p.SpeedRating
	case DimensionConsistency:
		return p.ConsistencyRating
	case DimensionFlick:
		return p.FlickSkill
	case DimensionTracking:
		return p.TrackingSkill
	}
	return 0
}

// SetRating clamps v into [0,100]. Unknown dimensions are ignored.
func (p *UserSkillProfile) SetRating(d Dimension, v float64) {
	v = utility.Clamp(v, MinRating, MaxRating)
	switch d {
	case DimensionAccuracy:
		p.AccuracyRating = v
	case DimensionSpeed:
		p.SpeedRating = v
	case DimensionConsistency:
		p.ConsistencyRating = v
	case DimensionFlick:
		p.FlickSkill = v
	case DimensionTracking:
		p.TrackingSkill = v
	}
}

func (p *UserSkillProfile) SetOptimalDifficulty(v float64) {
	p.OptimalDifficulty = utility.Clamp(v, MinRating, MaxRating)
}

// RecomputeOverall refreshes OverallSkill as the weighted mean of the dimensions.
func (p *UserSkillProfile) RecomputeOverall() {
	var sum float64
	for d, w := range dimensionWeights {
		sum += w * p.Rating(d)
	}
	p.OverallSkill = utility.Clamp(sum, MinRating, MaxRating)
}

// Sanitize repairs values from corrupted storage: NaN falls back to the
// factory value, everything else is clamped into range.
func (p UserSkillProfile) Sanitize() UserSkillProfile {
	def := NewProfile()
	fix := func(v, fallback float64) float64 {
		if math.IsNaN(v) {
			return fallback
		}
		return utility.Clamp(v, MinRating, MaxRating)
	}
	p.OverallSkill = fix(p.OverallSkill, def.OverallSkill)
	p.AccuracyRating = fix(p.AccuracyRating, def.AccuracyRating)
	p.SpeedRating = fix(p.SpeedRating, def.SpeedRating)
	p.ConsistencyRating = fix(p.ConsistencyRating, def.ConsistencyRating)
	p.FlickSkill = fix(p.FlickSkill, def.FlickSkill)
	p.TrackingSkill = fix(p.TrackingSkill, def.TrackingSkill)
	p.OptimalDifficulty = fix(p.OptimalDifficulty, def.OptimalDifficulty)
	if p.SessionsAnalyzed < 0 {
		p.SessionsAnalyzed = 0
	}
	return p
}
