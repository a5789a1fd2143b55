package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/meltforce/gripdose/internal/models"
)

// GetDosingSettings returns the stored dosing settings for one side, or nil
// when none exist (callers fall back to config defaults).
func (db *DB) GetDosingSettings(ctx context.Context, userID int, side models.Side) (*models.DosingSettings, error) {
	var s models.DosingSettings
	var sideStr string
	err := db.Pool.QueryRow(ctx,
		`SELECT user_id, side, manual_scale, policy, w1, w2, w3
		 FROM dosing_settings
		 WHERE user_id = $1 AND side = $2`,
		userID, string(side),
	).Scan(&s.UserID, &sideStr, &s.ManualScale, &s.Policy, &s.W1, &s.W2, &s.W3)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying dosing settings: %w", err)
	}
	s.Side = models.Side(sideStr)
	return &s, nil
}

// UpsertDosingSettings stores (or replaces) the dosing settings for one side.
func (db *DB) UpsertDosingSettings(ctx context.Context, s models.DosingSettings) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO dosing_settings (user_id, side, manual_scale, policy, w1, w2, w3)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (user_id, side) DO UPDATE SET
			manual_scale = EXCLUDED.manual_scale,
			policy = EXCLUDED.policy,
			w1 = EXCLUDED.w1,
			w2 = EXCLUDED.w2,
			w3 = EXCLUDED.w3,
			updated_at = NOW()`,
		s.UserID, string(s.Side), s.ManualScale, s.Policy, s.W1, s.W2, s.W3)
	if err != nil {
		return fmt.Errorf("upserting dosing settings: %w", err)
	}
	return nil
}
