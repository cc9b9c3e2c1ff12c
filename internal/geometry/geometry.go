package geometry

import (
	"errors"
	"fmt"
	"math"

	"flicktrainer/internal/utility"
)

type Zone string

const (
	ZoneNear   = Zone("near")
	ZoneMedium = Zone("medium")
	ZoneFar    = Zone("far")
)

var ErrUnknownZone = errors.New("unknown distance zone")

// Eye height of spawned targets in world units; y is jittered by up to
// JitterAmplitude either way.
const (
	EyeLevel        = 2.0
	JitterAmplitude = 1.0
)

type ZoneRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var zoneRanges = map[Zone]ZoneRange{
	ZoneNear:   {Min: 8, Max: 12},
	ZoneMedium: {Min: 15, Max: 20},
	ZoneFar:    {Min: 25, Max: 35},
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Zones lists every zone from closest to farthest.
func Zones() []Zone {
	return []Zone{ZoneNear, ZoneMedium, ZoneFar}
}

func ParseZone(s string) (Zone, error) {
	z := Zone(s)
	if _, ok := zoneRanges[z]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownZone, s)
	}
	return z, nil
}

func Range(z Zone) (ZoneRange, error) {
	r, ok := zoneRanges[z]
	if !ok {
		return ZoneRange{}, fmt.Errorf("%w: %q", ErrUnknownZone, z)
	}
	return r, nil
}

// DistanceForZone samples uniformly inside the zone's bounds.
func DistanceForZone(z Zone, rng utility.Rand) (float64, error) {
	r, err := Range(z)
	if err != nil {
		return 0, err
	}
	return r.Min + rng.Float64()*(r.Max-r.Min), nil
}

// ZoneForDistance labels an arbitrary distance. Distances in the gaps between
// zone bands fall to the nearer label.
func ZoneForDistance(d float64) Zone {
	switch {
	case d < zoneRanges[ZoneMedium].Min:
		return ZoneNear
	case d < zoneRanges[ZoneFar].Min:
		return ZoneMedium
	default:
		return ZoneFar
	}
}

// AngleToPosition places a target on the horizontal ring of the given radius.
// 0 degrees points down +x, 90 degrees down +z.
func AngleToPosition(angleDegrees, distance float64, rng utility.Rand) Vec3 {
	theta := angleDegrees * math.Pi / 180
	jitter := (rng.Float64()*2 - 1) * JitterAmplitude
	return Vec3{
		X: math.Cos(theta) * distance,
		Y: EyeLevel + jitter,
		Z: math.Sin(theta) * distance,
	}
}
