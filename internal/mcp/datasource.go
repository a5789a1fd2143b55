package mcp

import (
	"context"
	"time"

	"github.com/meltforce/gripdose/internal/models"
	"github.com/meltforce/gripdose/internal/storage"
)

// DataSource abstracts the history layer for MCP tools. Both *storage.DB
// (local) and HTTPClient (remote via the REST API) satisfy this interface.
type DataSource interface {
	QueryRecentSessions(ctx context.Context, userID int, side models.Side, n int) ([]models.SessionRecord, error)
	QuerySessions(ctx context.Context, start, end time.Time, userID int, side models.Side) ([]models.SessionRecord, error)
	GetDosingSettings(ctx context.Context, userID int, side models.Side) (*models.DosingSettings, error)
	GetDataStats(ctx context.Context, userID int) (*storage.DataStats, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
