package adaptation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"flicktrainer/internal/recommend"
	"flicktrainer/internal/utility"
)

var ErrUnknownSensitivity = errors.New("unknown adaptation sensitivity")

const (
	DefaultDifficulty = 50.0
	DefaultCooldown   = 5 * time.Minute
)

type Sensitivity string

const (
	SensitivityLow    = Sensitivity("low")
	SensitivityMedium = Sensitivity("medium")
	SensitivityHigh   = Sensitivity("high")
)

// Rate is the fraction of the distance to a recommended difficulty covered by
// one applied recommendation.
func (s Sensitivity) Rate() float64 {
	switch s {
	case SensitivityLow:
		return 0.10
	case SensitivityHigh:
		return 0.25
	default:
		return 0.15
	}
}

func ParseSensitivity(s string) (Sensitivity, error) {
	switch v := Sensitivity(strings.ToLower(strings.TrimSpace(s))); v {
	case SensitivityLow, SensitivityMedium, SensitivityHigh:
		return v, nil
	case "":
		return SensitivityMedium, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSensitivity, s)
}

type Adjustments struct {
	TargetSizeMultiplier     float64 `json:"targetSizeMultiplier"`
	SpawnRateMultiplier      float64 `json:"spawnRateMultiplier"`
	TargetLifetimeMultiplier float64 `json:"targetLifetimeMultiplier"`
	MovementSpeedMultiplier  float64 `json:"movementSpeedMultiplier"`
}

func DefaultAdjustments() Adjustments {
	return Adjustments{
		TargetSizeMultiplier:     1,
		SpawnRateMultiplier:      1,
		TargetLifetimeMultiplier: 1,
		MovementSpeedMultiplier:  1,
	}
}

type Settings struct {
	DynamicMode bool        `json:"dynamicMode"`
	AutoAdjust  bool        `json:"autoAdjust"`
	Sensitivity Sensitivity `json:"sensitivity"`
}

// AutoApply reports whether recommendations bypass manual acceptance.
func (s Settings) AutoApply() bool {
	return s.DynamicMode && s.AutoAdjust
}

// SettingsPatch is a partial settings update; nil fields keep their value.
type SettingsPatch struct {
	DynamicMode *bool
	AutoAdjust  *bool
	Sensitivity *Sensitivity
}

func (p SettingsPatch) Apply(s Settings) Settings {
	if p.DynamicMode != nil {
		s.DynamicMode = *p.DynamicMode
	}
	if p.AutoAdjust != nil {
		s.AutoAdjust = *p.AutoAdjust
	}
	if p.Sensitivity != nil {
		s.Sensitivity = *p.Sensitivity
	}
	return s
}

type Outcome string

const (
	OutcomeApplied    = Outcome("applied")
	OutcomeSurfaced   = Outcome("surfaced")
	OutcomeSuppressed = Outcome("suppressed")
	OutcomeNone       = Outcome("none")
)

// State is a copy of the controller's live state.
type State struct {
	CurrentDifficulty   float64                             `json:"currentDifficulty"`
	ActiveAdjustments   Adjustments                         `json:"activeAdjustments"`
	Settings            Settings                            `json:"settings"`
	ShowRecommendations bool                                `json:"showRecommendations"`
	Pending             *recommend.DifficultyRecommendation `json:"pendingRecommendation,omitempty"`
}

// Controller owns the live difficulty of one session. It is either idle or
// holding one pending recommendation awaiting the player. Not safe for
// concurrent use.
type Controller struct {
	clock    utility.Clock
	cooldown time.Duration

	current      float64
	adjustments  Adjustments
	settings     Settings
	pending      *recommend.DifficultyRecommendation
	lastSurfaced time.Time
}

func NewController(settings Settings, clock utility.Clock) *Controller {
	if clock == nil {
		clock = utility.SystemClock()
	}
	if settings.Sensitivity == "" {
		settings.Sensitivity = SensitivityMedium
	}
	return &Controller{
		clock:       clock,
		cooldown:    DefaultCooldown,
		current:     DefaultDifficulty,
		adjustments: DefaultAdjustments(),
		settings:    settings,
	}
}

// SetCooldown changes the minimum gap between two surfaced recommendations.
func (c *Controller) SetCooldown(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.cooldown = d
}

func (c *Controller) CurrentDifficulty() float64 {
	return c.current
}

func (c *Controller) Adjustments() Adjustments {
	return c.adjustments
}

func (c *Controller) Settings() Settings {
	return c.settings
}

func (c *Controller) UpdateSettings(s Settings) {
	if s.Sensitivity == "" {
		s.Sensitivity = c.settings.Sensitivity
	}
	c.settings = s
}

// ApplyRecommendation moves the scalar difficulty one sensitivity step toward
// the recommendation and replaces the multipliers outright.
func (c *Controller) ApplyRecommendation(rec recommend.DifficultyRecommendation) {
	step := (rec.TargetDifficulty - c.current) * c.settings.Sensitivity.Rate()
	c.current = utility.Clamp(c.current+step, 0, 100)
	c.adjustments = Adjustments{
		TargetSizeMultiplier:     rec.TargetSize,
		SpawnRateMultiplier:      rec.SpawnRate,
		TargetLifetimeMultiplier: rec.TargetLifetime,
		MovementSpeedMultiplier:  rec.MovementSpeed,
	}
}

// SetCurrentDifficulty is the manual override; no smoothing is applied.
func (c *Controller) SetCurrentDifficulty(d float64) {
	c.current = utility.Clamp(d, 0, 100)
}

// Offer hands a fresh recommendation to the controller. With dynamic mode
// and auto-adjust on it is applied immediately; otherwise it becomes the
// pending recommendation unless one was surfaced within the cool-down.
func (c *Controller) Offer(rec recommend.DifficultyRecommendation) Outcome {
	if c.settings.AutoApply() {
		c.ApplyRecommendation(rec)
		return OutcomeApplied
	}
	now := c.clock.Now()
	if !c.lastSurfaced.IsZero() && now.Sub(c.lastSurfaced) < c.cooldown {
		return OutcomeSuppressed
	}
	c.pending = &rec
	c.lastSurfaced = now
	return OutcomeSurfaced
}

func (c *Controller) ShowRecommendations() bool {
	return c.pending != nil
}

func (c *Controller) Pending() (recommend.DifficultyRecommendation, bool) {
	if c.pending == nil {
		return recommend.DifficultyRecommendation{}, false
	}
	return *c.pending, true
}

// AcceptPending applies and clears the pending recommendation.
func (c *Controller) AcceptPending() (recommend.DifficultyRecommendation, bool) {
	rec, ok := c.Pending()
	if !ok {
		return rec, false
	}
	c.pending = nil
	c.ApplyRecommendation(rec)
	return rec, true
}

func (c *Controller) DismissPending() bool {
	if c.pending == nil {
		return false
	}
	c.pending = nil
	return true
}

func (c *Controller) State() State {
	st := State{
		CurrentDifficulty:   c.current,
		ActiveAdjustments:   c.adjustments,
		Settings:            c.settings,
		ShowRecommendations: c.pending != nil,
	}
	if c.pending != nil {
		p := *c.pending
		st.Pending = &p
	}
	return st
}

// Reset returns difficulty and multipliers to defaults and forgets any
// pending recommendation. Settings and the surfacing cool-down are kept.
func (c *Controller) Reset() {
	c.current = DefaultDifficulty
	c.adjustments = DefaultAdjustments()
	c.pending = nil
}
