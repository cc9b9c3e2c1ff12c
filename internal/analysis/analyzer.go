package analysis

import (
	"fmt"
	"math"
	"sort"

	"flicktrainer/internal/profile"
	"flicktrainer/internal/utility"
)

type Trend string

const (
	TrendImproving = Trend("improving")
	TrendStable    = Trend("stable")
	TrendDeclining = Trend("declining")
)

// DimensionScores carries one value per skill dimension. It is used both for
// observed session values and for signed gaps against the profile.
type DimensionScores struct {
	Accuracy    float64 `json:"accuracy"`
	Speed       float64 `json:"speed"`
	Consistency float64 `json:"consistency"`
	Flick       float64 `json:"flick"`
	Tracking    float64 `json:"tracking"`
}

func (s DimensionScores) Get(d profile.Dimension) float64 {
	switch d {
	case profile.DimensionAccuracy:
		return s.Accuracy
	case profile.DimensionSpeed:
		return s.Speed
	case profile.DimensionConsistency:
		return s.Consistency
	case profile.DimensionFlick:
		return s.Flick
	case profile.DimensionTracking:
		return s.Tracking
	}
	return 0
}

func (s *DimensionScores) set(d profile.Dimension, v float64) {
	switch d {
	case profile.DimensionAccuracy:
		s.Accuracy = v
	case profile.DimensionSpeed:
		s.Speed = v
	case profile.DimensionConsistency:
		s.Consistency = v
	case profile.DimensionFlick:
		s.Flick = v
	case profile.DimensionTracking:
		s.Tracking = v
	}
}

type RecentPerformance struct {
	Sessions             int     `json:"sessions"`
	AverageScore         float64 `json:"averageScore"`
	AverageAccuracy      float64 `json:"averageAccuracy"`
	AverageReactionTime  float64 `json:"averageReactionTime"`
	Trend                Trend   `json:"trend"`
	PerformanceStability float64 `json:"performanceStability"`
}

// PerformanceAnalysis compares one session with the profile as it was before
// the session. Gaps are zero for dimensions the session did not measure.
type PerformanceAnalysis struct {
	SkillGaps         DimensionScores     `json:"skillGaps"`
	Observed          DimensionScores     `json:"observed"`
	Measured          []profile.Dimension `json:"measured"`
	RecentPerformance RecentPerformance   `json:"recentPerformance"`
	Unstable          bool                `json:"unstable"`
	AdaptationNeeded  bool                `json:"adaptationNeeded"`
}

// DominantGap returns the measured dimension with the largest absolute gap.
func (a PerformanceAnalysis) DominantGap() (profile.Dimension, float64) {
	var (
		dim  profile.Dimension
		best float64
	)
	for _, d := range a.Measured {
		g := a.SkillGaps.Get(d)
		if dim == "" || math.Abs(g) > math.Abs(best) {
			dim, best = d, g
		}
	}
	return dim, best
}

// WeakestGaps returns up to n measured dimensions whose gap is below
// threshold, most negative first.
func (a PerformanceAnalysis) WeakestGaps(n int, threshold float64) []profile.Dimension {
	var dims []profile.Dimension
	for _, d := range a.Measured {
		if a.SkillGaps.Get(d) < threshold {
			dims = append(dims, d)
		}
	}
	sort.SliceStable(dims, func(i, j int) bool {
		return a.SkillGaps.Get(dims[i]) < a.SkillGaps.Get(dims[j])
	})
	if len(dims) > n {
		dims = dims[:n]
	}
	return dims
}

type sample struct {
	normalized float64
	accuracy   float64
	reaction   float64
	score      float64
}

// Analyzer keeps the rolling window used for stability and trend. It is owned
// by one session context and is not safe for concurrent use.
type Analyzer struct {
	tuning Tuning
	window []sample
}

func NewAnalyzer(t Tuning) *Analyzer {
	return &Analyzer{tuning: t}
}

func (a *Analyzer) Tuning() Tuning {
	return a.tuning
}

// Seed preloads the window from stored history, oldest first. Invalid records
// are skipped.
func (a *Analyzer) Seed(history []GamePerformance) {
	for _, perf := range history {
		if perf.Validate() != nil {
			continue
		}
		a.push(a.sampleOf(perf, a.Observe(perf)))
	}
}

func (a *Analyzer) Reset() {
	a.window = nil
}

func (a *Analyzer) WindowLen() int {
	return len(a.window)
}

// SpeedScore maps a reaction time onto [0,100], fast end high.
func (a *Analyzer) SpeedScore(reactionMs float64) float64 {
	fast, slow := a.tuning.FastReactionMs, a.tuning.SlowReactionMs
	return utility.Clamp((slow-reactionMs)/(slow-fast)*100, 0, 100)
}

// Observe converts a session into dimension values. The returned scores only
// hold meaningful values for the measured dimensions.
func (a *Analyzer) Observe(perf GamePerformance) DimensionScores {
	speed := 0.0
	if perf.Hits > 0 || perf.AverageReactionTime > 0 {
		speed = a.SpeedScore(perf.AverageReactionTime)
	}
	obs := DimensionScores{
		Accuracy:    perf.Accuracy,
		Speed:       speed,
		Consistency: perf.Consistency,
	}
	switch CategorizeMode(perf.GameMode) {
	case ModeFlick:
		obs.Flick = 0.5*obs.Accuracy + 0.5*obs.Speed
	case ModeTracking:
		obs.Tracking = 0.7*obs.Accuracy + 0.3*obs.Consistency
	}
	return obs
}

func measuredDimensions(mode string) []profile.Dimension {
	dims := []profile.Dimension{profile.DimensionAccuracy, profile.DimensionSpeed, profile.DimensionConsistency}
	switch CategorizeMode(mode) {
	case ModeFlick:
		dims = append(dims, profile.DimensionFlick)
	case ModeTracking:
		dims = append(dims, profile.DimensionTracking)
	}
	return dims
}

func (a *Analyzer) sampleOf(perf GamePerformance, obs DimensionScores) sample {
	return sample{
		normalized: (obs.Accuracy + obs.Speed + obs.Consistency) / 300,
		accuracy:   perf.Accuracy,
		reaction:   perf.AverageReactionTime,
		score:      perf.Score,
	}
}

func (a *Analyzer) push(s sample) {
	a.window = append(a.window, s)
	if over := len(a.window) - a.tuning.StabilityWindow; over > 0 {
		a.window = append([]sample(nil), a.window[over:]...)
	}
}

// Analyze folds one session into the profile. On a validation error the
// input profile is returned unchanged and the window is untouched.
func (a *Analyzer) Analyze(perf GamePerformance, p profile.UserSkillProfile) (profile.UserSkillProfile, PerformanceAnalysis, error) {
	if err := perf.Validate(); err != nil {
		return p, PerformanceAnalysis{}, fmt.Errorf("analyzing performance: %w", err)
	}

	obs := a.Observe(perf)
	measured := measuredDimensions(perf.GameMode)

	var gaps DimensionScores
	for _, d := range measured {
		gaps.set(d, obs.Get(d)-p.Rating(d))
	}

	a.push(a.sampleOf(perf, obs))
	recent := a.recent()

	analysis := PerformanceAnalysis{
		SkillGaps:         gaps,
		Observed:          obs,
		Measured:          measured,
		RecentPerformance: recent,
		Unstable:          recent.PerformanceStability < a.tuning.StabilityFloor,
	}
	analysis.AdaptationNeeded = analysis.Unstable
	for _, d := range measured {
		if math.Abs(gaps.Get(d)) > a.tuning.GapThreshold {
			analysis.AdaptationNeeded = true
		}
	}

	return a.update(p, obs, measured), analysis, nil
}

// update smooths each measured rating toward the observation. A profile that
// has never seen a session adopts the observation outright.
func (a *Analyzer) update(p profile.UserSkillProfile, obs DimensionScores, measured []profile.Dimension) profile.UserSkillProfile {
	alpha := a.tuning.SmoothingFactor
	first := !p.Initialized()

	for _, d := range measured {
		if first {
			p.SetRating(d, obs.Get(d))
		} else {
			r := p.Rating(d)
			p.SetRating(d, r+alpha*(obs.Get(d)-r))
		}
	}
	p.RecomputeOverall()

	if first {
		p.SetOptimalDifficulty(p.OverallSkill)
	} else {
		p.SetOptimalDifficulty(p.OptimalDifficulty + alpha*(p.OverallSkill-p.OptimalDifficulty))
	}
	p.SessionsAnalyzed++
	return p
}

func (a *Analyzer) recent() RecentPerformance {
	n := len(a.window)
	rp := RecentPerformance{Sessions: n, Trend: TrendStable, PerformanceStability: 1}
	if n == 0 {
		return rp
	}

	var mean float64
	for _, s := range a.window {
		rp.AverageScore += s.score
		rp.AverageAccuracy += s.accuracy
		rp.AverageReactionTime += s.reaction
		mean += s.normalized
	}
	rp.AverageScore /= float64(n)
	rp.AverageAccuracy /= float64(n)
	rp.AverageReactionTime /= float64(n)
	mean /= float64(n)

	if n < 2 {
		return rp
	}

	var variance float64
	for _, s := range a.window {
		variance += (s.normalized - mean) * (s.normalized - mean)
	}
	variance /= float64(n)
	rp.PerformanceStability = utility.Clamp(1-math.Sqrt(variance)*a.tuning.StabilityScale, 0, 1)

	half := n / 2
	var older, newer float64
	for _, s := range a.window[:half] {
		older += s.normalized
	}
	for _, s := range a.window[half:] {
		newer += s.normalized
	}
	diff := newer/float64(n-half) - older/float64(half)
	switch {
	case diff > a.tuning.TrendEpsilon:
		rp.Trend = TrendImproving
	case diff < -a.tuning.TrendEpsilon:
		rp.Trend = TrendDeclining
	}
	return rp
}
