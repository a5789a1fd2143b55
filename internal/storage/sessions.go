package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/meltforce/gripdose/internal/models"
)

// InsertSessions batch-inserts hold session records. Duplicate IDs are
// skipped so re-imports are idempotent. Returns the count inserted.
func (db *DB) InsertSessions(ctx context.Context, records []models.SessionRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := `INSERT INTO hold_sessions (id, user_id, session_date, side, grip,
		load_kg, duration_sec, rest_sec, notes) VALUES `
	args := make([]any, 0, len(records)*9)
	valueStrings := make([]string, 0, len(records))

	for i, r := range records {
		base := i * 9
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9,
		))
		args = append(args, r.ID, r.UserID, r.Date, string(r.Side), r.Grip,
			r.LoadKg, r.DurationSec, r.RestSec, r.Notes)
	}

	query += strings.Join(valueStrings, ",") + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting hold sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// QuerySessions retrieves hold sessions in a date range, oldest first so the
// dosing estimators see history in chronological order. An empty side
// returns both hands.
func (db *DB) QuerySessions(ctx context.Context, start, end time.Time, userID int, side models.Side) ([]models.SessionRecord, error) {
	query := `SELECT id, user_id, session_date, side, grip, load_kg, duration_sec, rest_sec, notes
		 FROM hold_sessions
		 WHERE session_date >= $1 AND session_date < $2 AND user_id = $3`
	args := []any{start, end, userID}
	if side != "" {
		query += ` AND side = $4`
		args = append(args, string(side))
	}
	query += ` ORDER BY session_date ASC`

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying hold sessions: %w", err)
	}
	defer rows.Close()

	var result []models.SessionRecord
	for rows.Next() {
		var r models.SessionRecord
		var sideStr string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Date, &sideStr, &r.Grip,
			&r.LoadKg, &r.DurationSec, &r.RestSec, &r.Notes); err != nil {
			return nil, fmt.Errorf("scanning hold session: %w", err)
		}
		r.Side = models.Side(sideStr)
		result = append(result, r)
	}
	return result, rows.Err()
}

// QueryRecentSessions returns the latest n sessions for one side, oldest
// first. This is the standard history window the recommenders run on.
func (db *DB) QueryRecentSessions(ctx context.Context, userID int, side models.Side, n int) ([]models.SessionRecord, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, session_date, side, grip, load_kg, duration_sec, rest_sec, notes
		 FROM (
			SELECT * FROM hold_sessions
			WHERE user_id = $1 AND side = $2
			ORDER BY session_date DESC
			LIMIT $3
		 ) recent
		 ORDER BY session_date ASC`,
		userID, string(side), n)
	if err != nil {
		return nil, fmt.Errorf("querying recent sessions: %w", err)
	}
	defer rows.Close()

	var result []models.SessionRecord
	for rows.Next() {
		var r models.SessionRecord
		var sideStr string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Date, &sideStr, &r.Grip,
			&r.LoadKg, &r.DurationSec, &r.RestSec, &r.Notes); err != nil {
			return nil, fmt.Errorf("scanning hold session: %w", err)
		}
		r.Side = models.Side(sideStr)
		result = append(result, r)
	}
	return result, rows.Err()
}
