package patterns

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"flicktrainer/internal/geometry"
)

var (
	ErrUnknownFamily  = errors.New("unknown pattern family")
	ErrUnknownTier    = errors.New("unknown difficulty tier")
	ErrInvalidCount   = errors.New("target count must be positive")
	ErrInvalidRequest = errors.New("invalid pattern request")
)

type Tier string

const (
	TierBronze   = Tier("bronze")
	TierSilver   = Tier("silver")
	TierGold     = Tier("gold")
	TierPlatinum = Tier("platinum")
	TierDiamond  = Tier("diamond")
)

// Tiers lists tiers from easiest to hardest.
func Tiers() []Tier {
	return []Tier{TierBronze, TierSilver, TierGold, TierPlatinum, TierDiamond}
}

func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierBaseReactionMs[t]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
	return t, nil
}

// Family is the closed set of generative layouts.
type Family int

const (
	FamilyCardinal Family = iota
	FamilyDiagonal
	FamilyClock
	FamilySpiral
	FamilyRandom
	FamilyAdaptive
)

func Families() []Family {
	return []Family{FamilyCardinal, FamilyDiagonal, FamilyClock, FamilySpiral, FamilyRandom, FamilyAdaptive}
}

func (f Family) String() string {
	switch f {
	case FamilyCardinal:
		return "cardinal"
	case FamilyDiagonal:
		return "diagonal"
	case FamilyClock:
		return "clock"
	case FamilySpiral:
		return "spiral"
	case FamilyRandom:
		return "random"
	case FamilyAdaptive:
		return "adaptive"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

func ParseFamily(s string) (Family, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, f := range Families() {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFamily, s)
}

func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Family) UnmarshalText(b []byte) error {
	parsed, err := ParseFamily(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// FlickTarget is a single timed spawn.
type FlickTarget struct {
	ID                   string        `json:"id"`
	Position             geometry.Vec3 `json:"position"`
	Angle                float64       `json:"angle"`
	Distance             float64       `json:"distance"`
	Zone                 geometry.Zone `json:"zone"`
	Difficulty           int           `json:"difficulty"`
	SpawnTime            time.Time     `json:"spawnTime"`
	ExpectedReactionTime int           `json:"expectedReactionTime"` // ms
}

// FlickPattern is built once per generation call and never mutated.
type FlickPattern struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Family          Family        `json:"family"`
	Tier            Tier          `json:"difficulty"`
	TotalDurationMs int64         `json:"totalDuration"`
	Targets         []FlickTarget `json:"targets"`
}

// AdaptiveStats is the caller's summary of recent play used by the adaptive family.
type AdaptiveStats struct {
	AverageReactionTime float64       `json:"averageReactionTime"` // ms
	Accuracy            float64       `json:"accuracy"`
	BestZone            geometry.Zone `json:"bestZone"`
	WorstZone           geometry.Zone `json:"worstZone"`
}

// Request selects a family and its parameters. Count and Zone apply to the
// random family only, Stats to the adaptive family only. An empty Zone means
// zones are sampled uniformly.
type Request struct {
	Family Family
	Tier   Tier
	Count  int
	Zone   geometry.Zone
	Stats  AdaptiveStats
}
