package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"flicktrainer/internal/adaptation"
	"flicktrainer/internal/analysis"
	"flicktrainer/internal/analytics"
	"flicktrainer/internal/broadcast"
	"flicktrainer/internal/events"
	"flicktrainer/internal/geometry"
	"flicktrainer/internal/metrics"
	"flicktrainer/internal/patterns"
	"flicktrainer/internal/profile"
	"flicktrainer/internal/recommend"
	"flicktrainer/internal/utility"
	"flicktrainer/internal/wshub"
)

// How many stored performances seed the stability window of a new context.
const seedLimit = 20

// History returns a player's stored performances, oldest first.
type History interface {
	RecentPerformances(ctx context.Context, playerID string, since time.Time, limit int) ([]analysis.GamePerformance, error)
}

// Recorder receives every accepted performance. It must not block.
type Recorder interface {
	Record(playerID string, perf analysis.GamePerformance)
}

// Config is shared by every context a Store creates.
type Config struct {
	Analysis  analysis.Tuning
	Recommend recommend.Tuning
	Cooldown  time.Duration
	TTL       time.Duration

	Persister profile.Persister
	History   History  // optional
	Recorder  Recorder // optional

	Clock utility.Clock
	// NewRand returns the generator for one context. Nil means the shared
	// system generator.
	NewRand func() utility.Rand
}

func DefaultConfig() Config {
	return Config{
		Analysis:  analysis.DefaultTuning(),
		Recommend: recommend.DefaultTuning(),
		Cooldown:  adaptation.DefaultCooldown,
		TTL:       time.Hour,
		Persister: profile.NewMemoryStore(),
	}
}

// Result is everything one completed session produced.
type Result struct {
	Profile        profile.UserSkillProfile           `json:"profile"`
	Analysis       analysis.PerformanceAnalysis       `json:"analysis"`
	Recommendation recommend.DifficultyRecommendation `json:"recommendation"`
	Outcome        adaptation.Outcome                 `json:"outcome"`
	State          adaptation.State                   `json:"state"`
	Badges         []analytics.Badge                  `json:"badges,omitempty"`
}

type Snapshot struct {
	ID        string                   `json:"id"`
	PlayerID  string                   `json:"playerId"`
	CreatedAt time.Time                `json:"createdAt"`
	Profile   profile.UserSkillProfile `json:"profile"`
	Tier      patterns.Tier            `json:"tier"`
	adaptation.State
}

// Context owns one player's profile and live adaptation state. Every method
// runs to completion under the context's lock, so analyses apply in call
// order.
type Context struct {
	ID          string
	PlayerID    string
	CreatedAt   time.Time
	Bus         *events.Bus
	Broadcaster *broadcast.Broadcaster
	Hub         *wshub.Hub

	mu         sync.Mutex
	lastActive time.Time
	profile    profile.UserSkillProfile
	stats      patterns.AdaptiveStats

	clock      utility.Clock
	analyzer   *analysis.Analyzer
	engine     *recommend.Engine
	controller *adaptation.Controller
	generator  *patterns.Generator
	persister  profile.Persister
	recorder   Recorder
}

func defaultStats() patterns.AdaptiveStats {
	return patterns.AdaptiveStats{
		AverageReactionTime: 500,
		Accuracy:            50,
		BestZone:            geometry.ZoneNear,
		WorstZone:           geometry.ZoneFar,
	}
}

// New loads the player's profile and seeds the analyzer from stored history.
// Neither step can fail: missing data falls back to defaults.
func New(ctx context.Context, id, playerID string, settings adaptation.Settings, cfg Config) *Context {
	clock := cfg.Clock
	if clock == nil {
		clock = utility.SystemClock()
	}
	var rng utility.Rand
	if cfg.NewRand != nil {
		rng = cfg.NewRand()
	}

	controller := adaptation.NewController(settings, clock)
	controller.SetCooldown(cfg.Cooldown)

	now := clock.Now()
	c := &Context{
		ID:         id,
		PlayerID:   playerID,
		CreatedAt:  now,
		lastActive: now,
		profile:    profile.LoadOrDefault(ctx, cfg.Persister, playerID),
		stats:      defaultStats(),
		clock:      clock,
		analyzer:   analysis.NewAnalyzer(cfg.Analysis),
		engine:     recommend.NewEngine(cfg.Recommend, clock),
		controller: controller,
		generator:  patterns.NewGenerator(clock, rng),
		persister:  cfg.Persister,
		recorder:   cfg.Recorder,
	}

	if cfg.History != nil {
		history, err := cfg.History.RecentPerformances(ctx, playerID, c.profile.ResetAt, seedLimit)
		if err != nil {
			log.Printf("[Session] Loading history for %s failed: %v\n", playerID, err)
		} else {
			c.analyzer.Seed(history)
			if n := len(history); n > 0 {
				c.updateStats(history[n-1])
			}
		}
	}
	return c
}

func (c *Context) touch() {
	c.lastActive = c.clock.Now()
}

func (c *Context) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

func (c *Context) publish(kind events.Kind, rec *recommend.DifficultyRecommendation) {
	if c.Bus == nil {
		return
	}
	ev := events.AdaptationEvent{
		Kind:           kind,
		Difficulty:     c.controller.CurrentDifficulty(),
		Adjustments:    c.controller.Adjustments(),
		Recommendation: rec,
	}
	if !c.Bus.Publish(ev) {
		log.Printf("[Session] %s: dropped %s event\n", c.ID, kind)
	}
}

func (c *Context) save(ctx context.Context) {
	if c.persister == nil {
		return
	}
	if err := c.persister.Save(ctx, c.PlayerID, c.profile); err != nil {
		log.Printf("[Session] SaveProfile %s error: %v\n", c.PlayerID, err)
	}
}

func (c *Context) updateStats(perf analysis.GamePerformance) {
	if perf.AverageReactionTime > 0 {
		c.stats.AverageReactionTime = perf.AverageReactionTime
	}
	c.stats.Accuracy = perf.Accuracy
	if best, worst, ok := perf.BestAndWorstZones(); ok {
		c.stats.BestZone, c.stats.WorstZone = best, worst
	}
}

// CompleteSession analyzes one finished session, updates and persists the
// profile, and hands the resulting recommendation to the controller. In
// manual mode a recommendation is only offered when the analysis asks for
// adaptation. On a validation error nothing changes.
func (c *Context) CompleteSession(ctx context.Context, perf analysis.GamePerformance) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	updated, a, err := c.analyzer.Analyze(perf, c.profile)
	if err != nil {
		metrics.ObserveAnalysis(false)
		return Result{}, err
	}
	metrics.ObserveAnalysis(true)
	c.profile = updated
	c.save(ctx)
	c.updateStats(perf)
	if c.recorder != nil {
		c.recorder.Record(c.PlayerID, perf)
	}

	rec := c.engine.Recommend(a, c.profile, c.controller.CurrentDifficulty())
	outcome := adaptation.OutcomeNone
	if c.controller.Settings().AutoApply() || a.AdaptationNeeded {
		outcome = c.controller.Offer(rec)
	}
	metrics.ObserveOutcome(string(outcome))

	switch outcome {
	case adaptation.OutcomeApplied:
		metrics.ObserveDifficulty(c.controller.CurrentDifficulty())
		c.publish(events.KindAdjustments, nil)
	case adaptation.OutcomeSurfaced:
		c.publish(events.KindRecommendation, &rec)
	}

	return Result{
		Profile:        c.profile,
		Analysis:       a,
		Recommendation: rec,
		Outcome:        outcome,
		State:          c.controller.State(),
		Badges:         analytics.EvaluateSessionBadges(perf),
	}, nil
}

// NextPattern generates a pattern at the tier matching the live difficulty.
// The adaptive family uses the latest reaction time and zone accuracy.
func (c *Context) NextPattern(family patterns.Family, count int, zone geometry.Zone) (patterns.FlickPattern, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	tier := patterns.TierForDifficulty(c.controller.CurrentDifficulty())
	p, err := c.generator.Generate(patterns.Request{
		Family: family,
		Tier:   tier,
		Count:  count,
		Zone:   zone,
		Stats:  c.stats,
	})
	if err != nil {
		return patterns.FlickPattern{}, fmt.Errorf("generating %s pattern: %w", family, err)
	}
	metrics.ObservePattern(family.String(), string(tier))
	return p, nil
}

// AcceptRecommendation applies the pending recommendation, if any.
func (c *Context) AcceptRecommendation() (adaptation.State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if _, ok := c.controller.AcceptPending(); !ok {
		return c.controller.State(), false
	}
	metrics.ObserveDifficulty(c.controller.CurrentDifficulty())
	c.publish(events.KindAdjustments, nil)
	return c.controller.State(), true
}

func (c *Context) DismissRecommendation() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if !c.controller.DismissPending() {
		return false
	}
	c.publish(events.KindDismissed, nil)
	return true
}

// Recommendation returns the pending recommendation, if one is shown.
func (c *Context) Recommendation() (recommend.DifficultyRecommendation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller.Pending()
}

// SetDifficulty is the player's manual override.
func (c *Context) SetDifficulty(d float64) adaptation.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.controller.SetCurrentDifficulty(d)
	c.publish(events.KindAdjustments, nil)
	return c.controller.State()
}

func (c *Context) UpdateSettings(s adaptation.Settings) adaptation.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.controller.UpdateSettings(s)
	return c.controller.Settings()
}

// PatchSettings changes only the fields set in p.
func (c *Context) PatchSettings(p adaptation.SettingsPatch) adaptation.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.controller.UpdateSettings(p.Apply(c.controller.Settings()))
	return c.controller.Settings()
}

// ResetProfile returns the profile, the stability window and the live
// adaptation state to factory defaults and persists the fresh profile. The
// profile remembers the reset time so later contexts skip older history.
func (c *Context) ResetProfile(ctx context.Context) profile.UserSkillProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.profile = profile.NewProfile()
	c.profile.ResetAt = c.clock.Now()
	c.stats = defaultStats()
	c.analyzer.Reset()
	c.controller.Reset()
	c.save(ctx)
	c.publish(events.KindProfileReset, nil)
	return c.profile
}

func (c *Context) OptimalDifficulty() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile.OptimalDifficulty
}

func (c *Context) Profile() profile.UserSkillProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

func (c *Context) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.controller.State()
	return Snapshot{
		ID:        c.ID,
		PlayerID:  c.PlayerID,
		CreatedAt: c.CreatedAt,
		Profile:   c.profile,
		Tier:      patterns.TierForDifficulty(st.CurrentDifficulty),
		State:     st,
	}
}

// close releases the event plumbing. The broadcaster exits once the bus is
// drained; websocket clients are disconnected.
func (c *Context) close() {
	if c.Bus != nil {
		c.Bus.Close()
	}
	if c.Hub != nil {
		c.Hub.CloseAll()
	}
}
