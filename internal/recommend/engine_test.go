package recommend

import (
	"reflect"
	"testing"
	"time"

	"flicktrainer/internal/analysis"
	"flicktrainer/internal/profile"
	"flicktrainer/internal/utility"
)

var testNow = time.Date(2024, 5, 4, 18, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(DefaultTuning(), utility.NewManualClock(testNow))
}

func profileWithOptimal(optimal float64) profile.UserSkillProfile {
	p := profile.NewProfile()
	p.OptimalDifficulty = optimal
	p.SessionsAnalyzed = 5
	return p
}

func gapAnalysis(gaps analysis.DimensionScores) analysis.PerformanceAnalysis {
	return analysis.PerformanceAnalysis{
		SkillGaps: gaps,
		Measured:  []profile.Dimension{profile.DimensionAccuracy, profile.DimensionSpeed, profile.DimensionConsistency},
	}
}

func TestDefaultTuning_Valid(t *testing.T) {
	if err := DefaultTuning().Validate(); err != nil {
		t.Errorf("DefaultTuning().Validate() error: %v", err)
	}
}

func TestTuning_RejectsWrongDirection(t *testing.T) {
	tn := DefaultTuning()
	tn.TargetSize = Band{AtEasy: 0.8, AtHard: 1.2, Min: 0.5, Max: 1.5}
	if err := tn.Validate(); err == nil {
		t.Error("growing target size should be rejected")
	}
	tn = DefaultTuning()
	tn.SpawnRate = Band{AtEasy: 1.5, AtHard: 0.7, Min: 0.5, Max: 2}
	if err := tn.Validate(); err == nil {
		t.Error("shrinking spawn rate should be rejected")
	}
	tn = DefaultTuning()
	tn.TargetLifetime.Min = 0
	if err := tn.Validate(); err == nil {
		t.Error("zero lifetime floor should be rejected")
	}
}

func TestRecommend_ShiftsTowardOptimal(t *testing.T) {
	e := newTestEngine()
	rec := e.Recommend(analysis.PerformanceAnalysis{}, profileWithOptimal(80), 40)
	if rec.TargetDifficulty != 60 {
		t.Errorf("TargetDifficulty = %v, want 60", rec.TargetDifficulty)
	}
	if !rec.CreatedAt.Equal(testNow) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, testNow)
	}
}

func TestRecommend_PositiveGapPushesUp(t *testing.T) {
	e := newTestEngine()
	rec := e.Recommend(gapAnalysis(analysis.DimensionScores{Accuracy: 20, Speed: 4}), profileWithOptimal(50), 50)
	if rec.TargetDifficulty != 55 {
		t.Errorf("TargetDifficulty = %v, want 55", rec.TargetDifficulty)
	}

	rec = e.Recommend(gapAnalysis(analysis.DimensionScores{Speed: 90}), profileWithOptimal(50), 50)
	if rec.TargetDifficulty != 60 {
		t.Errorf("TargetDifficulty = %v, want 60 (capped shift)", rec.TargetDifficulty)
	}
}

func TestRecommend_NegativeGapPullsDown(t *testing.T) {
	e := newTestEngine()
	rec := e.Recommend(gapAnalysis(analysis.DimensionScores{Accuracy: 5, Consistency: -24}), profileWithOptimal(50), 50)
	if rec.TargetDifficulty != 44 {
		t.Errorf("TargetDifficulty = %v, want 44", rec.TargetDifficulty)
	}
}

func TestRecommend_InstabilityEases(t *testing.T) {
	e := newTestEngine()
	a := analysis.PerformanceAnalysis{Unstable: true}
	rec := e.Recommend(a, profileWithOptimal(50), 50)
	if rec.TargetDifficulty != 45 {
		t.Errorf("TargetDifficulty = %v, want 45", rec.TargetDifficulty)
	}
}

func TestRecommend_ClampsTarget(t *testing.T) {
	e := newTestEngine()
	rec := e.Recommend(gapAnalysis(analysis.DimensionScores{Accuracy: 100}), profileWithOptimal(100), 100)
	if rec.TargetDifficulty != 100 {
		t.Errorf("TargetDifficulty = %v, want 100", rec.TargetDifficulty)
	}
	rec = e.Recommend(gapAnalysis(analysis.DimensionScores{Accuracy: -100}), profileWithOptimal(0), 0)
	if rec.TargetDifficulty != 0 {
		t.Errorf("TargetDifficulty = %v, want 0", rec.TargetDifficulty)
	}
}

func TestMultipliers_Monotonic(t *testing.T) {
	e := newTestEngine()
	prev := e.Multipliers(0)
	for d := 1.0; d <= 100; d++ {
		cur := e.Multipliers(d)
		if cur.TargetSize > prev.TargetSize || cur.TargetLifetime > prev.TargetLifetime {
			t.Fatalf("difficulty %v: size/lifetime grew: %+v -> %+v", d, prev, cur)
		}
		if cur.SpawnRate < prev.SpawnRate || cur.MovementSpeed < prev.MovementSpeed {
			t.Fatalf("difficulty %v: spawn/speed shrank: %+v -> %+v", d, prev, cur)
		}
		prev = cur
	}
	easy, hard := e.Multipliers(0), e.Multipliers(100)
	if easy.TargetSize != 1.3 || hard.TargetSize != 0.7 {
		t.Errorf("size at 0/100 = %v/%v, want 1.3/0.7", easy.TargetSize, hard.TargetSize)
	}
	if easy.SpawnRate != 0.7 || hard.SpawnRate != 1.5 {
		t.Errorf("spawn at 0/100 = %v/%v, want 0.7/1.5", easy.SpawnRate, hard.SpawnRate)
	}
}

func TestMultipliers_SafeBands(t *testing.T) {
	tn := DefaultTuning()
	tn.TargetSize = Band{AtEasy: 1.0, AtHard: 0.1, Min: 0.5, Max: 1.5}
	tn.MovementSpeed = Band{AtEasy: 1.0, AtHard: 5.0, Min: 0.5, Max: 2.0}
	e := NewEngine(tn, nil)

	rec := e.Multipliers(100)
	if rec.TargetSize != 0.5 {
		t.Errorf("TargetSize = %v, want floor 0.5", rec.TargetSize)
	}
	if rec.MovementSpeed != 2.0 {
		t.Errorf("MovementSpeed = %v, want ceiling 2.0", rec.MovementSpeed)
	}
	for d := 0.0; d <= 100; d += 5 {
		r := e.Multipliers(d)
		if r.TargetSize <= 0 || r.TargetLifetime <= 0 {
			t.Fatalf("difficulty %v produced unplayable multipliers %+v", d, r)
		}
	}
}

func TestRecommend_FocusAreas(t *testing.T) {
	e := newTestEngine()
	a := analysis.PerformanceAnalysis{
		SkillGaps: analysis.DimensionScores{Accuracy: -20, Speed: -8, Consistency: -30, Tracking: -12},
		Measured: []profile.Dimension{
			profile.DimensionAccuracy, profile.DimensionSpeed,
			profile.DimensionConsistency, profile.DimensionTracking,
		},
	}
	rec := e.Recommend(a, profileWithOptimal(50), 50)

	wantModes := []string{"gridshot", "precision", "tracking"}
	wantAreas := []string{"Consistency", "Accuracy", "Target Tracking"}
	if !reflect.DeepEqual(rec.RecommendedModes, wantModes) {
		t.Errorf("RecommendedModes = %v, want %v", rec.RecommendedModes, wantModes)
	}
	if !reflect.DeepEqual(rec.FocusAreas, wantAreas) {
		t.Errorf("FocusAreas = %v, want %v", rec.FocusAreas, wantAreas)
	}
}

func TestRecommend_FocusFallsBackToWeakestRating(t *testing.T) {
	e := newTestEngine()
	p := profileWithOptimal(50)
	p.SpeedRating = 31
	rec := e.Recommend(gapAnalysis(analysis.DimensionScores{Accuracy: 10}), p, 50)
	if !reflect.DeepEqual(rec.RecommendedModes, []string{"reflex"}) {
		t.Errorf("RecommendedModes = %v, want [reflex]", rec.RecommendedModes)
	}
	if !reflect.DeepEqual(rec.FocusAreas, []string{"Reaction Speed"}) {
		t.Errorf("FocusAreas = %v, want [Reaction Speed]", rec.FocusAreas)
	}
}
