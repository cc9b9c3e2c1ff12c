package analytics

// PlayerSummary aggregates a player's stored sessions.
type PlayerSummary struct {
	PlayerID            string  `json:"playerId"`
	Sessions            int     `json:"sessions"`
	AverageAccuracy     float64 `json:"averageAccuracy"`
	AverageReactionTime float64 `json:"averageReactionTime"`
	BestReactionTime    float64 `json:"bestReactionTime"`
	BestScore           float64 `json:"bestScore"`
	LongestStreak       int     `json:"longestStreak"`
	Badges              []Badge `json:"badges"`
}
