package db

import (
	"context"
	"fmt"

	"flicktrainer/internal/analytics"
)

func (d *DB) AwardBadge(ctx context.Context, playerID string, badgeID analytics.BadgeID) error {
	_, err := d.conn.ExecContext(ctx, `
		INSERT INTO player_badges (player_id, badge_id)
		VALUES ($1, $2)
		ON CONFLICT (player_id, badge_id) DO NOTHING
	`, playerID, string(badgeID))
	if err != nil {
		return fmt.Errorf("awarding badge: %w", err)
	}
	return nil
}

func (d *DB) GetPlayerBadges(ctx context.Context, playerID string) ([]analytics.BadgeID, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT badge_id FROM player_badges WHERE player_id = $1 ORDER BY awarded_at
	`, playerID)
	if err != nil {
		return nil, fmt.Errorf("getting badges: %w", err)
	}
	defer rows.Close()

	var badges []analytics.BadgeID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		badges = append(badges, analytics.BadgeID(id))
	}
	return badges, rows.Err()
}

// PlayerSummary aggregates the player's stored performances and attaches
// every badge awarded so far, including lifetime badges.
func (d *DB) PlayerSummary(ctx context.Context, playerID string) (*analytics.PlayerSummary, error) {
	s := &analytics.PlayerSummary{PlayerID: playerID}
	err := d.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(accuracy), 0),
			COALESCE(AVG(avg_reaction_ms) FILTER (WHERE avg_reaction_ms > 0), 0),
			COALESCE(MIN(best_reaction_ms) FILTER (WHERE best_reaction_ms > 0), 0),
			COALESCE(MAX(score), 0),
			COALESCE(MAX(streak), 0)
		FROM performances
		WHERE player_id = $1
	`, playerID).Scan(&s.Sessions, &s.AverageAccuracy, &s.AverageReactionTime, &s.BestReactionTime, &s.BestScore, &s.LongestStreak)
	if err != nil {
		return nil, fmt.Errorf("summarizing performances: %w", err)
	}

	ids, err := d.GetPlayerBadges(ctx, playerID)
	if err != nil {
		return nil, err
	}
	seen := make(map[analytics.BadgeID]bool)
	for _, id := range ids {
		if b, ok := analytics.AllBadges[id]; ok && !seen[id] {
			seen[id] = true
			s.Badges = append(s.Badges, b)
		}
	}
	for _, b := range analytics.EvaluateLifetimeBadges(*s) {
		if !seen[b.ID] {
			seen[b.ID] = true
			s.Badges = append(s.Badges, b)
		}
	}
	return s, nil
}
