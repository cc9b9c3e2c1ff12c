package analysis

import (
	"errors"
	"math"
	"testing"

	"flicktrainer/internal/profile"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTuning_DefaultsValid(t *testing.T) {
	if err := DefaultTuning().Validate(); err != nil {
		t.Errorf("DefaultTuning().Validate() error: %v", err)
	}
	bad := DefaultTuning()
	bad.SmoothingFactor = 0
	if err := bad.Validate(); err == nil {
		t.Error("zero smoothing factor should be rejected")
	}
	bad = DefaultTuning()
	bad.SlowReactionMs = 100
	if err := bad.Validate(); err == nil {
		t.Error("slow <= fast reaction should be rejected")
	}
}

func TestSpeedScore(t *testing.T) {
	a := NewAnalyzer(DefaultTuning())
	if got := a.SpeedScore(150); got != 100 {
		t.Errorf("SpeedScore(150) = %v, want 100", got)
	}
	if got := a.SpeedScore(800); got != 0 {
		t.Errorf("SpeedScore(800) = %v, want 0", got)
	}
	if got := a.SpeedScore(475); !near(got, 50) {
		t.Errorf("SpeedScore(475) = %v, want 50", got)
	}
	if got := a.SpeedScore(90); got != 100 {
		t.Errorf("SpeedScore(90) = %v, want clamped 100", got)
	}
}

func TestAnalyze_FirstSessionAdoptsObservation(t *testing.T) {
	a := NewAnalyzer(DefaultTuning())
	perf := validPerformance() // gridshot: flick mode
	p, analysis, err := a.Analyze(perf, profile.NewProfile())
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	speed := a.SpeedScore(perf.AverageReactionTime)
	if p.AccuracyRating != 80 || p.ConsistencyRating != 70 || !near(p.SpeedRating, speed) {
		t.Errorf("ratings = %v/%v/%v, want observed 80/%v/70", p.AccuracyRating, p.SpeedRating, p.ConsistencyRating, speed)
	}
	if !near(p.FlickSkill, 0.5*80+0.5*speed) {
		t.Errorf("FlickSkill = %v, want %v", p.FlickSkill, 0.5*80+0.5*speed)
	}
	if p.TrackingSkill != profile.BaselineRating {
		t.Errorf("TrackingSkill = %v, want untouched baseline", p.TrackingSkill)
	}
	if p.SessionsAnalyzed != 1 {
		t.Errorf("SessionsAnalyzed = %d, want 1", p.SessionsAnalyzed)
	}
	if !near(p.OptimalDifficulty, p.OverallSkill) {
		t.Errorf("OptimalDifficulty = %v, want overall %v", p.OptimalDifficulty, p.OverallSkill)
	}
	if !near(analysis.SkillGaps.Accuracy, 30) {
		t.Errorf("accuracy gap = %v, want 30", analysis.SkillGaps.Accuracy)
	}
	if !analysis.AdaptationNeeded {
		t.Error("a 30-point gap should flag adaptation")
	}
}

func TestAnalyze_SmoothsTowardObservation(t *testing.T) {
	a := NewAnalyzer(DefaultTuning())
	start := profile.NewProfile()
	start.SessionsAnalyzed = 4
	start.OptimalDifficulty = 40

	perf := validPerformance()
	perf.GameMode = "warmup"
	perf.Accuracy = 90
	p, analysis, err := a.Analyze(perf, start)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if !near(p.AccuracyRating, 50+0.2*40) {
		t.Errorf("AccuracyRating = %v, want 58", p.AccuracyRating)
	}
	if p.FlickSkill != 50 || p.TrackingSkill != 50 {
		t.Error("general mode should not touch flick or tracking")
	}
	if len(analysis.Measured) != 3 {
		t.Errorf("measured = %v, want 3 dimensions", analysis.Measured)
	}
	if !near(p.OptimalDifficulty, 40+0.2*(p.OverallSkill-40)) {
		t.Errorf("OptimalDifficulty = %v", p.OptimalDifficulty)
	}
	if p.SessionsAnalyzed != 5 {
		t.Errorf("SessionsAnalyzed = %d, want 5", p.SessionsAnalyzed)
	}
}

func TestAnalyze_SmallGapNoAdaptation(t *testing.T) {
	a := NewAnalyzer(DefaultTuning())
	perf := validPerformance()
	perf.GameMode = "warmup"
	start := profile.NewProfile()
	start.SessionsAnalyzed = 10
	start.AccuracyRating = perf.Accuracy - 5
	start.SpeedRating = a.SpeedScore(perf.AverageReactionTime) + 4
	start.ConsistencyRating = perf.Consistency

	_, analysis, err := a.Analyze(perf, start)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	if analysis.AdaptationNeeded {
		t.Errorf("gaps %+v under threshold should not flag adaptation", analysis.SkillGaps)
	}
}

func TestAnalyze_RejectsInvalid(t *testing.T) {
	a := NewAnalyzer(DefaultTuning())
	start := profile.NewProfile()
	start.SessionsAnalyzed = 3

	perf := validPerformance()
	perf.Accuracy = math.NaN()
	p, _, err := a.Analyze(perf, start)
	if !errors.Is(err, ErrInvalidPerformance) {
		t.Fatalf("Analyze() error = %v, want ErrInvalidPerformance", err)
	}
	if p != start {
		t.Errorf("profile changed on rejection: %+v", p)
	}
	if a.WindowLen() != 0 {
		t.Errorf("window grew on rejection: %d", a.WindowLen())
	}
}

func TestAnalyze_InstabilityFlagsAdaptation(t *testing.T) {
	a := NewAnalyzer(DefaultTuning())
	p := profile.NewProfile()

	good := validPerformance()
	good.GameMode = "warmup"
	good.Accuracy, good.Consistency, good.AverageReactionTime = 95, 95, 180
	poor := good
	poor.Accuracy, poor.Consistency, poor.AverageReactionTime = 20, 20, 750

	var analysis PerformanceAnalysis
	var err error
	for i := 0; i < 6; i++ {
		perf := good
		if i%2 == 1 {
			perf = poor
		}
		p, analysis, err = a.Analyze(perf, p)
		if err != nil {
			t.Fatalf("Analyze() error: %v", err)
		}
	}
	if !analysis.Unstable || analysis.RecentPerformance.PerformanceStability >= 0.5 {
		t.Errorf("stability = %v, want below floor", analysis.RecentPerformance.PerformanceStability)
	}
	if !analysis.AdaptationNeeded {
		t.Error("instability should flag adaptation")
	}
}

func TestAnalyze_RatingsStayInRange(t *testing.T) {
	a := NewAnalyzer(DefaultTuning())
	p := profile.NewProfile()
	extremes := []GamePerformance{
		{Accuracy: 100, Consistency: 100, AverageReactionTime: 1, Hits: 1, GameMode: "flick"},
		{Accuracy: 0, Consistency: 0, AverageReactionTime: 5000, Hits: 1, GameMode: "tracking"},
		{Accuracy: 0, Consistency: 0, GameMode: "gridshot"},
	}
	for i := 0; i < 30; i++ {
		var err error
		p, _, err = a.Analyze(extremes[i%len(extremes)], p)
		if err != nil {
			t.Fatalf("Analyze() error: %v", err)
		}
		for _, d := range profile.Dimensions() {
			if r := p.Rating(d); r < 0 || r > 100 {
				t.Fatalf("%s rating = %v out of range", d, r)
			}
		}
		if p.OverallSkill < 0 || p.OverallSkill > 100 || p.OptimalDifficulty < 0 || p.OptimalDifficulty > 100 {
			t.Fatalf("overall/optimal out of range: %v/%v", p.OverallSkill, p.OptimalDifficulty)
		}
	}
	if p.SessionsAnalyzed != 30 {
		t.Errorf("SessionsAnalyzed = %d, want 30", p.SessionsAnalyzed)
	}
}

func TestRecentPerformance_Trend(t *testing.T) {
	a := NewAnalyzer(DefaultTuning())
	p := profile.NewProfile()
	var analysis PerformanceAnalysis
	for i := 0; i < 8; i++ {
		perf := validPerformance()
		perf.Accuracy = 40 + float64(i)*7
		perf.Consistency = 40 + float64(i)*7
		p, analysis, _ = a.Analyze(perf, p)
	}
	if analysis.RecentPerformance.Trend != TrendImproving {
		t.Errorf("Trend = %s, want improving", analysis.RecentPerformance.Trend)
	}
	if analysis.RecentPerformance.Sessions != 8 {
		t.Errorf("Sessions = %d, want 8", analysis.RecentPerformance.Sessions)
	}
}

func TestSeed_WindowBounded(t *testing.T) {
	a := NewAnalyzer(DefaultTuning())
	history := make([]GamePerformance, 25)
	for i := range history {
		history[i] = validPerformance()
	}
	history[3].Accuracy = -1 // skipped
	a.Seed(history)
	if a.WindowLen() != DefaultTuning().StabilityWindow {
		t.Errorf("WindowLen() = %d, want %d", a.WindowLen(), DefaultTuning().StabilityWindow)
	}
	a.Reset()
	if a.WindowLen() != 0 {
		t.Errorf("WindowLen() after Reset = %d, want 0", a.WindowLen())
	}
}

func TestDominantAndWeakestGaps(t *testing.T) {
	analysis := PerformanceAnalysis{
		SkillGaps: DimensionScores{Accuracy: -12, Speed: 20, Consistency: -25, Flick: -3},
		Measured: []profile.Dimension{
			profile.DimensionAccuracy, profile.DimensionSpeed,
			profile.DimensionConsistency, profile.DimensionFlick,
		},
	}
	d, g := analysis.DominantGap()
	if d != profile.DimensionConsistency || g != -25 {
		t.Errorf("DominantGap() = %s %v, want consistency -25", d, g)
	}
	weak := analysis.WeakestGaps(3, -5)
	if len(weak) != 2 || weak[0] != profile.DimensionConsistency || weak[1] != profile.DimensionAccuracy {
		t.Errorf("WeakestGaps() = %v, want [consistency accuracy]", weak)
	}
}
