package importer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/meltforce/gripdose/internal/ingest"
	"github.com/meltforce/gripdose/internal/ingest/gripcsv"
)

// Stats tracks bulk import progress.
type Stats struct {
	FilesProcessed   int
	FilesErrored     int
	SessionsParsed   int
	SessionsInserted int64
	SessionsSkipped  int64
	SessionsRejected int

	RejectedReasons []string
}

// Importer bulk-imports CSV session exports from a directory straight into
// the database, bypassing the HTTP layer.
type Importer struct {
	provider *ingest.Provider
	log      *slog.Logger
	dryRun   bool
}

// New creates a new Importer.
func New(provider *ingest.Provider, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{provider: provider, log: log, dryRun: dryRun}
}

// Import walks dir for CSV files and ingests each one for the given user.
// In dry-run mode files are parsed and counted but nothing is written.
func (imp *Importer) Import(ctx context.Context, userID int, dir string) (*Stats, error) {
	stats := &Stats{}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("walking %s: %w", dir, err)
	}

	for _, path := range files {
		if err := imp.importFile(ctx, userID, path, stats); err != nil {
			imp.log.Warn("import failed", "file", path, "error", err)
			stats.FilesErrored++
		}
	}

	return stats, nil
}

func (imp *Importer) importFile(ctx context.Context, userID int, path string, stats *Stats) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	records, err := gripcsv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	stats.FilesProcessed++
	stats.SessionsParsed += len(records)

	if imp.dryRun {
		imp.log.Info("dry-run: parsed file", "file", path, "sessions", len(records))
		return nil
	}

	result, err := imp.provider.IngestRecords(ctx, userID, records)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	stats.SessionsInserted += result.SessionsInserted
	stats.SessionsSkipped += result.SessionsSkipped
	stats.SessionsRejected += result.SessionsRejected
	stats.RejectedReasons = append(stats.RejectedReasons, result.RejectedReasons...)

	imp.log.Info("imported file",
		"file", path,
		"sessions", len(records),
		"inserted", result.SessionsInserted,
		"skipped", result.SessionsSkipped,
		"rejected", result.SessionsRejected,
	)

	return nil
}
