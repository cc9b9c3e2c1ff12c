package recommend

import (
	"math"
	"time"

	"flicktrainer/internal/analysis"
	"flicktrainer/internal/profile"
	"flicktrainer/internal/utility"
)

// DifficultyRecommendation is the engine's suggested difficulty and the
// multipliers the game loop should apply at that difficulty. Smaller size and
// lifetime, larger spawn rate and movement speed make the game harder.
type DifficultyRecommendation struct {
	TargetDifficulty float64   `json:"targetDifficulty"`
	TargetSize       float64   `json:"targetSize"`
	SpawnRate        float64   `json:"spawnRate"`
	TargetLifetime   float64   `json:"targetLifetime"`
	MovementSpeed    float64   `json:"movementSpeed"`
	RecommendedModes []string  `json:"recommendedModes"`
	FocusAreas       []string  `json:"focusAreas"`
	Reason           string    `json:"reason"`
	CreatedAt        time.Time `json:"createdAt"`
}

var trainingModes = map[profile.Dimension]string{
	profile.DimensionAccuracy:    "precision",
	profile.DimensionSpeed:       "reflex",
	profile.DimensionConsistency: "gridshot",
	profile.DimensionFlick:       "flick",
	profile.DimensionTracking:    "tracking",
}

var focusLabels = map[profile.Dimension]string{
	profile.DimensionAccuracy:    "Accuracy",
	profile.DimensionSpeed:       "Reaction Speed",
	profile.DimensionConsistency: "Consistency",
	profile.DimensionFlick:       "Flick Shots",
	profile.DimensionTracking:    "Target Tracking",
}

type Engine struct {
	tuning Tuning
	clock  utility.Clock
}

func NewEngine(t Tuning, clock utility.Clock) *Engine {
	if clock == nil {
		clock = utility.SystemClock()
	}
	return &Engine{tuning: t, clock: clock}
}

func (e *Engine) Tuning() Tuning {
	return e.tuning
}

func (b Band) at(difficulty float64) float64 {
	return utility.Clamp(utility.Lerp(b.AtEasy, b.AtHard, difficulty/100), b.Min, b.Max)
}

// Recommend derives a recommendation from one analysis, the updated profile
// and the live difficulty.
func (e *Engine) Recommend(a analysis.PerformanceAnalysis, p profile.UserSkillProfile, current float64) DifficultyRecommendation {
	current = utility.Clamp(current, 0, 100)
	target := current + (p.OptimalDifficulty-current)*e.tuning.ShiftFraction

	reason := "tracking optimal difficulty"
	if dim, gap := a.DominantGap(); dim != "" {
		shift := utility.Clamp(gap*e.tuning.GapInfluence, -e.tuning.MaxGapShift, e.tuning.MaxGapShift)
		target += shift
		switch {
		case shift > 0:
			reason = "outperforming profile in " + string(dim)
		case shift < 0:
			reason = "underperforming profile in " + string(dim)
		}
	}
	if a.Unstable {
		target -= e.tuning.InstabilityEase
		reason = "performance unstable, easing off"
	}
	target = utility.Clamp(target, 0, 100)

	rec := e.Multipliers(target)
	rec.RecommendedModes, rec.FocusAreas = e.focus(a, p)
	rec.Reason = reason
	rec.CreatedAt = e.clock.Now()
	return rec
}

// Multipliers builds a recommendation carrying only the banded multipliers
// for the given difficulty.
func (e *Engine) Multipliers(difficulty float64) DifficultyRecommendation {
	d := utility.Clamp(difficulty, 0, 100)
	return DifficultyRecommendation{
		TargetDifficulty: round2(d),
		TargetSize:       round2(e.tuning.TargetSize.at(d)),
		SpawnRate:        round2(e.tuning.SpawnRate.at(d)),
		TargetLifetime:   round2(e.tuning.TargetLifetime.at(d)),
		MovementSpeed:    round2(e.tuning.MovementSpeed.at(d)),
	}
}

// focus picks up to MaxFocusAreas dimensions the player fell furthest behind
// on. With no meaningful deficit the lowest-rated dimension is used.
func (e *Engine) focus(a analysis.PerformanceAnalysis, p profile.UserSkillProfile) ([]string, []string) {
	dims := a.WeakestGaps(e.tuning.MaxFocusAreas, e.tuning.FocusGapThreshold)
	if len(dims) == 0 {
		weakest := profile.DimensionAccuracy
		for _, d := range profile.Dimensions() {
			if p.Rating(d) < p.Rating(weakest) {
				weakest = d
			}
		}
		dims = []profile.Dimension{weakest}
	}

	modes := make([]string, 0, len(dims))
	areas := make([]string, 0, len(dims))
	seen := make(map[string]bool)
	for _, d := range dims {
		if m := trainingModes[d]; !seen[m] {
			seen[m] = true
			modes = append(modes, m)
		}
		areas = append(areas, focusLabels[d])
	}
	return modes, areas
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
