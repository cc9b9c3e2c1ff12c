package patterns

import (
	"math"

	"flicktrainer/internal/geometry"
	"flicktrainer/internal/utility"
)

const MaxTargetDifficulty = 10

var zoneBaseDifficulty = map[geometry.Zone]int{
	geometry.ZoneNear:   3,
	geometry.ZoneMedium: 5,
	geometry.ZoneFar:    7,
}

var tierBaseReactionMs = map[Tier]float64{
	TierBronze:   800,
	TierSilver:   600,
	TierGold:     450,
	TierPlatinum: 350,
	TierDiamond:  250,
}

// BaseDifficulty returns 0 for an unknown zone.
func BaseDifficulty(z geometry.Zone) int {
	return zoneBaseDifficulty[z]
}

// TargetDifficulty scores a spawn in [base(zone), 10]. Farther within the
// zone adds up to two points.
func TargetDifficulty(z geometry.Zone, distance float64) int {
	base := BaseDifficulty(z)
	r, err := geometry.Range(z)
	if err != nil {
		return max(base, 1)
	}
	ratio := (distance - r.Min) / (r.Max - r.Min)
	score := base + int(math.Floor(ratio*2))
	return min(max(score, base), MaxTargetDifficulty)
}

// ExpectedReactionTime estimates ms to acquire a target at the given distance.
// Unknown tiers fall back to bronze.
func ExpectedReactionTime(t Tier, distance float64) int {
	base, ok := tierBaseReactionMs[t]
	if !ok {
		base = tierBaseReactionMs[TierBronze]
	}
	multiplier := utility.Clamp(distance/20, 0.8, 2.0)
	return int(math.Round(base * multiplier))
}

// TierForDifficulty buckets a 0-100 difficulty into tiers of width 20.
func TierForDifficulty(d float64) Tier {
	switch {
	case d < 20:
		return TierBronze
	case d < 40:
		return TierSilver
	case d < 60:
		return TierGold
	case d < 80:
		return TierPlatinum
	default:
		return TierDiamond
	}
}
