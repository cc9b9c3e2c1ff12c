package patterns

import (
	"fmt"
	"math"
	"time"

	"flicktrainer/internal/geometry"
	"flicktrainer/internal/utility"
)

const (
	cardinalSpacing = 2000 * time.Millisecond
	diagonalSpacing = 1800 * time.Millisecond
	clockSpacing    = 1200 * time.Millisecond
	spiralSpacing   = 800 * time.Millisecond
	randomSpacing   = 1500 * time.Millisecond

	minAdaptiveSpacing   = 800 * time.Millisecond
	adaptiveSpacingScale = 1.2
	adaptiveTargetCount  = 12

	spiralTurns          = 3
	spiralTargetsPerTurn = 8
)

// Generator builds FlickPatterns. Ids and spawn times come from the clock;
// angles, zones and jitter come from the rng.
type Generator struct {
	clock utility.Clock
	rng   utility.Rand
}

// NewGenerator falls back to the system clock and rng when given nil.
func NewGenerator(clock utility.Clock, rng utility.Rand) *Generator {
	if clock == nil {
		clock = utility.SystemClock()
	}
	if rng == nil {
		rng = utility.SystemRand()
	}
	return &Generator{clock: clock, rng: rng}
}

func (g *Generator) Generate(req Request) (FlickPattern, error) {
	switch req.Family {
	case FamilyCardinal:
		return g.Cardinal(req.Tier)
	case FamilyDiagonal:
		return g.Diagonal(req.Tier)
	case FamilyClock:
		return g.Clock(req.Tier)
	case FamilySpiral:
		return g.Spiral(req.Tier)
	case FamilyRandom:
		return g.Random(req.Count, req.Tier, req.Zone)
	case FamilyAdaptive:
		return g.Adaptive(req.Stats, req.Tier)
	default:
		return FlickPattern{}, fmt.Errorf("%w: %s", ErrUnknownFamily, req.Family)
	}
}

type placement struct {
	angle    float64
	zone     geometry.Zone
	distance float64
	bonus    int
}

func (g *Generator) place(angle float64, zone geometry.Zone, bonus int) (placement, error) {
	d, err := geometry.DistanceForZone(zone, g.rng)
	if err != nil {
		return placement{}, err
	}
	return placement{angle: angle, zone: zone, distance: d, bonus: bonus}, nil
}

func (g *Generator) build(family Family, name, description string, tier Tier, spacing time.Duration, ps []placement) FlickPattern {
	start := g.clock.Now()
	stamp := start.UnixMilli()

	targets := make([]FlickTarget, len(ps))
	for i, p := range ps {
		targets[i] = FlickTarget{
			ID:                   fmt.Sprintf("%s-%d-%d", family, stamp, i),
			Position:             geometry.AngleToPosition(p.angle, p.distance, g.rng),
			Angle:                p.angle,
			Distance:             p.distance,
			Zone:                 p.zone,
			Difficulty:           min(TargetDifficulty(p.zone, p.distance)+p.bonus, MaxTargetDifficulty),
			SpawnTime:            start.Add(time.Duration(i) * spacing),
			ExpectedReactionTime: ExpectedReactionTime(tier, p.distance),
		}
	}

	return FlickPattern{
		ID:              fmt.Sprintf("%s-%d", family, stamp),
		Name:            name,
		Description:     description,
		Family:          family,
		Tier:            tier,
		TotalDurationMs: (time.Duration(len(ps)) * spacing).Milliseconds(),
		Targets:         targets,
	}
}

func checkTier(t Tier) error {
	if _, ok := tierBaseReactionMs[t]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return nil
}

// Cardinal places four targets on the compass points, medium then far.
func (g *Generator) Cardinal(tier Tier) (FlickPattern, error) {
	if err := checkTier(tier); err != nil {
		return FlickPattern{}, err
	}
	angles := []float64{0, 90, 180, 270}
	zones := []geometry.Zone{geometry.ZoneMedium, geometry.ZoneMedium, geometry.ZoneFar, geometry.ZoneFar}

	ps := make([]placement, len(angles))
	for i := range angles {
		p, err := g.place(angles[i], zones[i], 0)
		if err != nil {
			return FlickPattern{}, err
		}
		ps[i] = p
	}
	return g.build(FamilyCardinal, "Cardinal Directions", "Flick between the four compass points", tier, cardinalSpacing, ps), nil
}

// Diagonal targets score one point above a cardinal target at the same distance.
func (g *Generator) Diagonal(tier Tier) (FlickPattern, error) {
	if err := checkTier(tier); err != nil {
		return FlickPattern{}, err
	}
	angles := []float64{45, 135, 225, 315}

	ps := make([]placement, len(angles))
	for i, a := range angles {
		zone := geometry.ZoneMedium
		if i%2 == 1 {
			zone = geometry.ZoneFar
		}
		p, err := g.place(a, zone, 1)
		if err != nil {
			return FlickPattern{}, err
		}
		ps[i] = p
	}
	return g.build(FamilyDiagonal, "Diagonal Flicks", "Flick across the diagonals, alternating medium and far", tier, diagonalSpacing, ps), nil
}

// clockZone: every third hour is far, remaining even hours medium, odd hours near.
func clockZone(hour int) geometry.Zone {
	switch {
	case hour%3 == 0:
		return geometry.ZoneFar
	case hour%2 == 0:
		return geometry.ZoneMedium
	default:
		return geometry.ZoneNear
	}
}

// Clock places one target per hour at hour*30-90 degrees.
func (g *Generator) Clock(tier Tier) (FlickPattern, error) {
	if err := checkTier(tier); err != nil {
		return FlickPattern{}, err
	}
	ps := make([]placement, 0, 12)
	for hour := 1; hour <= 12; hour++ {
		p, err := g.place(float64(hour*30-90), clockZone(hour), 0)
		if err != nil {
			return FlickPattern{}, err
		}
		ps = append(ps, p)
	}
	return g.build(FamilyClock, "Clock Face", "Work around the clock face hour by hour", tier, clockSpacing, ps), nil
}

// Spiral sweeps outward from the near minimum to the far maximum, both
// inclusive. Later targets gain up to two extra difficulty points.
func (g *Generator) Spiral(tier Tier) (FlickPattern, error) {
	if err := checkTier(tier); err != nil {
		return FlickPattern{}, err
	}
	near, _ := geometry.Range(geometry.ZoneNear)
	far, _ := geometry.Range(geometry.ZoneFar)

	total := spiralTurns * spiralTargetsPerTurn
	ps := make([]placement, total)
	for i := 0; i < total; i++ {
		progress := float64(i) / float64(total)
		distance := utility.Lerp(near.Min, far.Max, float64(i)/float64(total-1))
		ps[i] = placement{
			angle:    math.Mod(float64(i)*360/spiralTargetsPerTurn, 360),
			zone:     geometry.ZoneForDistance(distance),
			distance: distance,
			bonus:    int(math.Floor(progress * 3)),
		}
	}
	return g.build(FamilySpiral, "Spiral", "Follow the spiral outward from near to far", tier, spiralSpacing, ps), nil
}

// Random scatters count targets at uniform angles. An empty zone samples
// each target's zone uniformly.
func (g *Generator) Random(count int, tier Tier, zone geometry.Zone) (FlickPattern, error) {
	if count <= 0 {
		return FlickPattern{}, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}
	if err := checkTier(tier); err != nil {
		return FlickPattern{}, err
	}
	if zone != "" {
		if _, err := geometry.Range(zone); err != nil {
			return FlickPattern{}, err
		}
	}

	zones := geometry.Zones()
	ps := make([]placement, count)
	for i := range ps {
		angle := g.rng.Float64() * 360
		z := zone
		if z == "" {
			z = zones[min(int(g.rng.Float64()*float64(len(zones))), len(zones)-1)]
		}
		p, err := g.place(angle, z, 0)
		if err != nil {
			return FlickPattern{}, err
		}
		ps[i] = p
	}
	return g.build(FamilyRandom, "Random Flicks", fmt.Sprintf("%d targets at random angles", count), tier, randomSpacing, ps), nil
}

type zoneWeight struct {
	zone   geometry.Zone
	weight float64
}

// adaptiveWeights favours the worst zone. Colliding zones have their weights
// summed, so the total is always 1.
func adaptiveWeights(best, worst geometry.Zone) []zoneWeight {
	var ws []zoneWeight
	add := func(z geometry.Zone, w float64) {
		for i := range ws {
			if ws[i].zone == z {
				ws[i].weight += w
				return
			}
		}
		ws = append(ws, zoneWeight{zone: z, weight: w})
	}
	add(worst, 0.5)
	add(best, 0.2)
	add(geometry.ZoneMedium, 0.3)
	return ws
}

// pickZone walks the cumulative weights and returns the first zone whose
// running total reaches r.
func pickZone(ws []zoneWeight, r float64) geometry.Zone {
	var cumulative float64
	for _, w := range ws {
		cumulative += w.weight
		if cumulative >= r {
			return w.zone
		}
	}
	return ws[len(ws)-1].zone
}

// Adaptive biases spawns toward the player's weakest zone. Spacing follows the
// player's own reaction time and stays constant across the pattern.
func (g *Generator) Adaptive(stats AdaptiveStats, tier Tier) (FlickPattern, error) {
	if err := checkTier(tier); err != nil {
		return FlickPattern{}, err
	}
	if !utility.IsFinite(stats.AverageReactionTime) || stats.AverageReactionTime < 0 {
		return FlickPattern{}, fmt.Errorf("%w: averageReactionTime %v", ErrInvalidRequest, stats.AverageReactionTime)
	}
	if _, err := geometry.Range(stats.BestZone); err != nil {
		return FlickPattern{}, fmt.Errorf("best zone: %w", err)
	}
	if _, err := geometry.Range(stats.WorstZone); err != nil {
		return FlickPattern{}, fmt.Errorf("worst zone: %w", err)
	}

	spacing := time.Duration(math.Round(stats.AverageReactionTime*adaptiveSpacingScale)) * time.Millisecond
	spacing = max(spacing, minAdaptiveSpacing)

	weights := adaptiveWeights(stats.BestZone, stats.WorstZone)
	ps := make([]placement, adaptiveTargetCount)
	for i := range ps {
		z := pickZone(weights, g.rng.Float64())
		p, err := g.place(g.rng.Float64()*360, z, 0)
		if err != nil {
			return FlickPattern{}, err
		}
		ps[i] = p
	}
	return g.build(FamilyAdaptive, "Adaptive Training", fmt.Sprintf("Weighted toward your %s zone", stats.WorstZone), tier, spacing, ps), nil
}
