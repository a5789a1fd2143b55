package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about stored training history.
type DataStats struct {
	TotalSessions int64      `json:"total_sessions"`
	LeftSessions  int64      `json:"left_sessions"`
	RightSessions int64      `json:"right_sessions"`
	EarliestData  *time.Time `json:"earliest_data"`
	LatestData    *time.Time `json:"latest_data"`
	Grips         []GripStat `json:"grips"`
}

// GripStat holds summary stats for a single grip type.
type GripStat struct {
	Name         string  `json:"name"`
	Count        int64   `json:"count"`
	MaxLoadKg    float64 `json:"max_load_kg"`
	TotalHoldSec float64 `json:"total_hold_sec"`
}

// GetDataStats returns aggregate statistics for a user's stored history.
func (db *DB) GetDataStats(ctx context.Context, userID int) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE side = 'left'),
		        COUNT(*) FILTER (WHERE side = 'right'),
		        MIN(session_date), MAX(session_date)
		 FROM hold_sessions WHERE user_id = $1`, userID,
	).Scan(&stats.TotalSessions, &stats.LeftSessions, &stats.RightSessions,
		&stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("counting hold sessions: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT grip, COUNT(*), COALESCE(MAX(load_kg), 0), COALESCE(SUM(duration_sec), 0)
		 FROM hold_sessions
		 WHERE user_id = $1
		 GROUP BY grip
		 ORDER BY COUNT(*) DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying grips: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g GripStat
		if err := rows.Scan(&g.Name, &g.Count, &g.MaxLoadKg, &g.TotalHoldSec); err != nil {
			return nil, fmt.Errorf("scanning grip stat: %w", err)
		}
		stats.Grips = append(stats.Grips, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
