package analysis

import (
	"errors"
	"fmt"
	"strings"

	"flicktrainer/internal/geometry"
	"flicktrainer/internal/utility"
)

var ErrInvalidPerformance = errors.New("invalid game performance")

// GamePerformance is the summary the game loop emits after one session or drill.
// Reaction times are in milliseconds, duration in seconds, accuracy and
// consistency in [0,100].
type GamePerformance struct {
	Score               float64                   `json:"score"`
	Accuracy            float64                   `json:"accuracy"`
	AverageReactionTime float64                   `json:"averageReactionTime"`
	BestReactionTime    float64                   `json:"bestReactionTime"`
	Hits                int                       `json:"hits"`
	Misses              int                       `json:"misses"`
	Streak              int                       `json:"streak"`
	GameMode            string                    `json:"gameMode"`
	Difficulty          string                    `json:"difficulty"`
	Duration            float64                   `json:"duration"`
	Consistency         float64                   `json:"consistency"`
	ZoneAccuracy        map[geometry.Zone]float64 `json:"zoneAccuracy,omitempty"`
}

// PerformanceReport is the wire form of GamePerformance. Required numeric
// fields are pointers so a missing key is not mistaken for a zero.
type PerformanceReport struct {
	Score               *float64                  `json:"score"`
	Accuracy            *float64                  `json:"accuracy"`
	AverageReactionTime *float64                  `json:"averageReactionTime"`
	BestReactionTime    float64                   `json:"bestReactionTime"`
	Hits                *int                      `json:"hits"`
	Misses              *int                      `json:"misses"`
	Streak              int                       `json:"streak"`
	GameMode            string                    `json:"gameMode"`
	Difficulty          string                    `json:"difficulty"`
	Duration            *float64                  `json:"duration"`
	Consistency         *float64                  `json:"consistency"`
	ZoneAccuracy        map[geometry.Zone]float64 `json:"zoneAccuracy,omitempty"`
}

// Performance converts the report, failing with ErrInvalidPerformance when a
// required field is absent. Values are not range-checked here.
func (r PerformanceReport) Performance() (GamePerformance, error) {
	var missing []string
	f := func(name string, v *float64) float64 {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}
	n := func(name string, v *int) int {
		if v == nil {
			missing = append(missing, name)
			return 0
		}
		return *v
	}

	g := GamePerformance{
		Score:               f("score", r.Score),
		Accuracy:            f("accuracy", r.Accuracy),
		AverageReactionTime: f("averageReactionTime", r.AverageReactionTime),
		BestReactionTime:    r.BestReactionTime,
		Hits:                n("hits", r.Hits),
		Misses:              n("misses", r.Misses),
		Streak:              r.Streak,
		GameMode:            r.GameMode,
		Difficulty:          r.Difficulty,
		Duration:            f("duration", r.Duration),
		Consistency:         f("consistency", r.Consistency),
		ZoneAccuracy:        r.ZoneAccuracy,
	}
	if len(missing) > 0 {
		return GamePerformance{}, fmt.Errorf("%w: missing %s", ErrInvalidPerformance, strings.Join(missing, ", "))
	}
	return g, nil
}

// Validate rejects NaN, infinite, negative and out-of-range values. All
// problems are reported, each wrapping ErrInvalidPerformance.
func (g GamePerformance) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidPerformance}, args...)...))
	}

	nonNegative := map[string]float64{
		"score":               g.Score,
		"averageReactionTime": g.AverageReactionTime,
		"bestReactionTime":    g.BestReactionTime,
		"duration":            g.Duration,
	}
	for _, name := range []string{"score", "averageReactionTime", "bestReactionTime", "duration"} {
		v := nonNegative[name]
		if !utility.IsFinite(v) || v < 0 {
			bad("%s must be a non-negative number, got %v", name, v)
		}
	}

	percent := func(name string, v float64) {
		if !utility.IsFinite(v) || v < 0 || v > 100 {
			bad("%s must be within [0,100], got %v", name, v)
		}
	}
	percent("accuracy", g.Accuracy)
	percent("consistency", g.Consistency)

	if g.Hits < 0 || g.Misses < 0 || g.Streak < 0 {
		bad("hits, misses and streak must be non-negative, got %d/%d/%d", g.Hits, g.Misses, g.Streak)
	}
	if g.Hits > 0 && g.AverageReactionTime == 0 {
		bad("averageReactionTime missing for a session with %d hits", g.Hits)
	}
	for z, v := range g.ZoneAccuracy {
		if _, err := geometry.Range(z); err != nil {
			bad("zoneAccuracy: %v", err)
			continue
		}
		percent("zoneAccuracy."+string(z), v)
	}
	return errors.Join(errs...)
}

type ModeCategory int

const (
	ModeGeneral ModeCategory = iota
	ModeFlick
	ModeTracking
)

var (
	trackingModeHints = []string{"track", "strafe", "smooth"}
	flickModeHints    = []string{"flick", "gridshot", "precision", "speed", "reflex", "cardinal", "diagonal", "clock", "spiral", "random", "adaptive"}
)

// CategorizeMode decides whether a session measures flick skill, tracking
// skill or neither.
func CategorizeMode(mode string) ModeCategory {
	m := strings.ToLower(mode)
	for _, h := range trackingModeHints {
		if strings.Contains(m, h) {
			return ModeTracking
		}
	}
	for _, h := range flickModeHints {
		if strings.Contains(m, h) {
			return ModeFlick
		}
	}
	return ModeGeneral
}

// BestAndWorstZones picks the zones with the highest and lowest accuracy.
// ok is false when fewer than two zones were reported.
func (g GamePerformance) BestAndWorstZones() (best, worst geometry.Zone, ok bool) {
	if len(g.ZoneAccuracy) < 2 {
		return "", "", false
	}
	bestAcc, worstAcc := -1.0, 101.0
	for _, z := range geometry.Zones() {
		acc, found := g.ZoneAccuracy[z]
		if !found {
			continue
		}
		if acc > bestAcc {
			best, bestAcc = z, acc
		}
		if acc < worstAcc {
			worst, worstAcc = z, acc
		}
	}
	return best, worst, true
}
