package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flicktrainer/internal/analysis"
	"flicktrainer/internal/geometry"
)

type PerformanceRecord struct {
	PlayerID    string
	Performance analysis.GamePerformance
	RecordedAt  time.Time
}

const insertPerformance = `
	INSERT INTO performances (player_id, score, accuracy, avg_reaction_ms, best_reaction_ms, hits, misses, streak, game_mode, difficulty, duration_s, consistency, zone_accuracy, recorded_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

func performanceArgs(rec PerformanceRecord) ([]any, error) {
	p := rec.Performance
	var zones any
	if len(p.ZoneAccuracy) > 0 {
		raw, err := json.Marshal(p.ZoneAccuracy)
		if err != nil {
			return nil, fmt.Errorf("encoding zone accuracy: %w", err)
		}
		zones = string(raw)
	}
	recordedAt := rec.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	return []any{
		rec.PlayerID, p.Score, p.Accuracy, p.AverageReactionTime, p.BestReactionTime,
		p.Hits, p.Misses, p.Streak, p.GameMode, p.Difficulty, p.Duration, p.Consistency,
		zones, recordedAt,
	}, nil
}

func (d *DB) RecordPerformance(ctx context.Context, rec PerformanceRecord) error {
	args, err := performanceArgs(rec)
	if err != nil {
		return err
	}
	if _, err := d.conn.ExecContext(ctx, insertPerformance, args...); err != nil {
		return fmt.Errorf("recording performance: %w", err)
	}
	return nil
}

func (d *DB) BatchRecordPerformances(ctx context.Context, records []PerformanceRecord) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertPerformance)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		args, err := performanceArgs(rec)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("recording performance in batch: %w", err)
		}
	}

	return tx.Commit()
}

// RecentPerformances returns up to limit of the player's latest
// performances recorded after since, oldest first. A zero since means all.
func (d *DB) RecentPerformances(ctx context.Context, playerID string, since time.Time, limit int) ([]analysis.GamePerformance, error) {
	var after any
	if !since.IsZero() {
		after = since
	}
	rows, err := d.conn.QueryContext(ctx, `
		SELECT score, accuracy, avg_reaction_ms, best_reaction_ms, hits, misses, streak,
		       game_mode, difficulty, duration_s, consistency, zone_accuracy
		FROM performances
		WHERE player_id = $1 AND ($2::timestamptz IS NULL OR recorded_at > $2)
		ORDER BY recorded_at DESC, id DESC
		LIMIT $3
	`, playerID, after, limit)
	if err != nil {
		return nil, fmt.Errorf("querying performances: %w", err)
	}
	defer rows.Close()

	var perfs []analysis.GamePerformance
	for rows.Next() {
		var (
			p     analysis.GamePerformance
			zones []byte
		)
		if err := rows.Scan(&p.Score, &p.Accuracy, &p.AverageReactionTime, &p.BestReactionTime,
			&p.Hits, &p.Misses, &p.Streak, &p.GameMode, &p.Difficulty, &p.Duration, &p.Consistency, &zones); err != nil {
			return nil, fmt.Errorf("scanning performance: %w", err)
		}
		if len(zones) > 0 {
			p.ZoneAccuracy = make(map[geometry.Zone]float64)
			if err := json.Unmarshal(zones, &p.ZoneAccuracy); err != nil {
				return nil, fmt.Errorf("decoding zone accuracy: %w", err)
			}
		}
		perfs = append(perfs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating performances: %w", err)
	}

	for i, j := 0, len(perfs)-1; i < j; i, j = i+1, j-1 {
		perfs[i], perfs[j] = perfs[j], perfs[i]
	}
	return perfs, nil
}
