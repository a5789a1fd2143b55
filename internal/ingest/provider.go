// Package ingest validates raw session submissions and writes them to
// storage. It is the only path by which history enters the database, so all
// coercion (side normalization, ID assignment) happens here.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/gripdose/internal/ingest/gripcsv"
	"github.com/meltforce/gripdose/internal/models"
	"github.com/meltforce/gripdose/internal/storage"
)

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int      `json:"sessions_received"`
	SessionsInserted int64    `json:"sessions_inserted"`
	SessionsSkipped  int64    `json:"sessions_skipped"`
	SessionsRejected int      `json:"sessions_rejected"`
	RejectedReasons  []string `json:"rejected_reasons,omitempty"`
	Message          string   `json:"message,omitempty"`
}

// sessionNamespace seeds deterministic record IDs so re-submitting the same
// export never duplicates rows.
var sessionNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Provider validates and stores session records.
type Provider struct {
	db  *storage.DB
	log *slog.Logger
}

// NewProvider creates an ingest provider.
func NewProvider(db *storage.DB, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// IngestRecords validates and inserts a batch of session records for a user.
// Records with an unknown side or a zero date are rejected individually; the
// rest are inserted. Non-positive loads and durations are stored as-is — the
// dosing projector is the filter for those, not the ingest path.
func (p *Provider) IngestRecords(ctx context.Context, userID int, records []models.SessionRecord) (*Result, error) {
	result := &Result{SessionsReceived: len(records)}

	accepted := make([]models.SessionRecord, 0, len(records))
	for i, r := range records {
		side, ok := models.ParseSide(string(r.Side))
		if !ok {
			result.SessionsRejected++
			result.RejectedReasons = append(result.RejectedReasons,
				fmt.Sprintf("record %d: unknown side %q", i, r.Side))
			continue
		}
		if r.Date.IsZero() {
			result.SessionsRejected++
			result.RejectedReasons = append(result.RejectedReasons,
				fmt.Sprintf("record %d: missing date", i))
			continue
		}
		r.Side = side
		r.UserID = userID
		if r.ID == uuid.Nil {
			r.ID = recordID(userID, r)
		}
		accepted = append(accepted, r)
	}

	inserted, err := p.db.InsertSessions(ctx, accepted)
	if err != nil {
		return result, err
	}
	result.SessionsInserted = inserted
	result.SessionsSkipped = int64(len(accepted)) - inserted

	p.log.Info("sessions ingested",
		"received", result.SessionsReceived,
		"inserted", result.SessionsInserted,
		"skipped", result.SessionsSkipped,
		"rejected", result.SessionsRejected,
	)
	return result, nil
}

// IngestCSV parses a grip-trainer CSV export and inserts its sessions.
func (p *Provider) IngestCSV(ctx context.Context, userID int, r io.Reader) (*Result, error) {
	records, err := gripcsv.Parse(r)
	if err != nil {
		return &Result{}, fmt.Errorf("parsing csv export: %w", err)
	}
	return p.IngestRecords(ctx, userID, records)
}

// recordID derives a stable UUID from the record's natural key, so the same
// exported row always maps to the same primary key.
func recordID(userID int, r models.SessionRecord) uuid.UUID {
	key := fmt.Sprintf("%d|%s|%s|%s|%.4f|%.4f|%.4f",
		userID, r.Date.UTC().Format(time.RFC3339), r.Side, r.Grip,
		r.LoadKg, r.DurationSec, r.RestSec)
	return uuid.NewSHA1(sessionNamespace, []byte(key))
}
