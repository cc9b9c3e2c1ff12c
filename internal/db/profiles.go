package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"flicktrainer/internal/profile"
)

// Load implements profile.Persister.
func (d *DB) Load(ctx context.Context, playerID string) (profile.UserSkillProfile, error) {
	var raw []byte
	err := d.conn.QueryRowContext(ctx, `
		SELECT profile FROM skill_profiles WHERE player_id = $1
	`, playerID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.UserSkillProfile{}, fmt.Errorf("loading profile %s: %w", playerID, profile.ErrNotFound)
	}
	if err != nil {
		return profile.UserSkillProfile{}, fmt.Errorf("loading profile %s: %w", playerID, err)
	}

	var p profile.UserSkillProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return profile.UserSkillProfile{}, fmt.Errorf("decoding profile %s: %w", playerID, err)
	}
	return p, nil
}

// Save implements profile.Persister.
func (d *DB) Save(ctx context.Context, playerID string, p profile.UserSkillProfile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile %s: %w", playerID, err)
	}
	_, err = d.conn.ExecContext(ctx, `
		INSERT INTO skill_profiles (player_id, profile, optimal_difficulty, sessions_analyzed, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (player_id) DO UPDATE
		SET profile = $2, optimal_difficulty = $3, sessions_analyzed = $4, updated_at = now()
	`, playerID, string(raw), p.OptimalDifficulty, p.SessionsAnalyzed)
	if err != nil {
		return fmt.Errorf("saving profile %s: %w", playerID, err)
	}
	return nil
}
