package analytics

import (
	"flicktrainer/internal/analysis"
	"flicktrainer/internal/geometry"
)

type BadgeID string

const (
	BadgeSharpshooter  BadgeID = "sharpshooter"
	BadgeSpeedDemon    BadgeID = "speed_demon"
	BadgeUnstoppable   BadgeID = "unstoppable"
	BadgeCenturion     BadgeID = "centurion"
	BadgeZoneMaster    BadgeID = "zone_master"
	BadgeVeteran       BadgeID = "veteran"
	BadgePerfectionist BadgeID = "perfectionist"
)

type Badge struct {
	ID          BadgeID `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

var AllBadges = map[BadgeID]Badge{
	BadgeSharpshooter:  {ID: BadgeSharpshooter, Name: "Sharpshooter", Description: "95%+ accuracy in a single session", Icon: "🎯"},
	BadgeSpeedDemon:    {ID: BadgeSpeedDemon, Name: "Speed Demon", Description: "Average reaction time under 250ms", Icon: "⚡"},
	BadgeUnstoppable:   {ID: BadgeUnstoppable, Name: "Unstoppable", Description: "50-hit streak", Icon: "🔥"},
	BadgeCenturion:     {ID: BadgeCenturion, Name: "Centurion", Description: "100+ hits in a single session", Icon: "💯"},
	BadgeZoneMaster:    {ID: BadgeZoneMaster, Name: "Zone Master", Description: "80%+ accuracy in every distance zone", Icon: "🧭"},
	BadgeVeteran:       {ID: BadgeVeteran, Name: "Veteran", Description: "Completed 10+ sessions", Icon: "🏅"},
	BadgePerfectionist: {ID: BadgePerfectionist, Name: "Perfectionist", Description: "90%+ consistency and accuracy in a session", Icon: "✨"},
}

// EvaluateSessionBadges checks which badges a single session earned.
func EvaluateSessionBadges(perf analysis.GamePerformance) []Badge {
	var earned []Badge

	if perf.Accuracy >= 95 {
		earned = append(earned, AllBadges[BadgeSharpshooter])
	}

	if perf.Hits > 0 && perf.AverageReactionTime > 0 && perf.AverageReactionTime < 250 {
		earned = append(earned, AllBadges[BadgeSpeedDemon])
	}

	if perf.Streak >= 50 {
		earned = append(earned, AllBadges[BadgeUnstoppable])
	}

	if perf.Hits >= 100 {
		earned = append(earned, AllBadges[BadgeCenturion])
	}

	if zoneMaster(perf.ZoneAccuracy) {
		earned = append(earned, AllBadges[BadgeZoneMaster])
	}

	if perf.Consistency >= 90 && perf.Accuracy >= 90 {
		earned = append(earned, AllBadges[BadgePerfectionist])
	}

	return earned
}

func zoneMaster(acc map[geometry.Zone]float64) bool {
	for _, z := range geometry.Zones() {
		if v, ok := acc[z]; !ok || v < 80 {
			return false
		}
	}
	return true
}

// EvaluateLifetimeBadges checks which badges a player earned across their career.
func EvaluateLifetimeBadges(s PlayerSummary) []Badge {
	var earned []Badge

	if s.Sessions >= 10 {
		earned = append(earned, AllBadges[BadgeVeteran])
	}

	return earned
}
