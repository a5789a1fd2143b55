package sync

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Stats tracks sync progress.
type Stats struct {
	FilesTotal   int
	FilesSent    int
	FilesSkipped int
	FilesErrored int

	SessionsInserted int
	SessionsSkipped  int
	SessionsRejected int
}

// Syncer walks an export directory, finds CSV session exports, and POSTs
// the ones not yet sent to the GripDose server.
type Syncer struct {
	client    *Client
	state     *StateDB
	exportDir string
	dryRun    bool
	log       *slog.Logger
	stats     Stats
}

// New creates a new Syncer.
func New(client *Client, state *StateDB, exportDir string, dryRun bool, log *slog.Logger) *Syncer {
	return &Syncer{
		client:    client,
		state:     state,
		exportDir: exportDir,
		dryRun:    dryRun,
		log:       log,
	}
}

// Run executes the sync pipeline over all CSV files under the export dir.
func (s *Syncer) Run() (*Stats, error) {
	var files []string
	err := filepath.WalkDir(s.exportDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return &s.stats, fmt.Errorf("walking %s: %w", s.exportDir, err)
	}

	for _, f := range files {
		s.stats.FilesTotal++
		if err := s.processFile(f); err != nil {
			s.log.Warn("sync failed", "file", f, "error", err)
			s.stats.FilesErrored++
		}
	}

	if !s.dryRun && s.stats.FilesSent > 0 {
		if err := s.state.SetSyncState("last_sync", time.Now().Format(time.RFC3339)); err != nil {
			s.log.Warn("failed to save sync state", "error", err)
		}
	}

	return &s.stats, nil
}

// processFile sends one CSV export unless the state DB says it was already sent.
func (s *Syncer) processFile(path string) error {
	relPath, err := filepath.Rel(s.exportDir, path)
	if err != nil {
		relPath = path
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	hash, err := HashFile(path)
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}

	sent, err := s.state.IsSent(relPath, info.Size(), hash)
	if err != nil {
		return fmt.Errorf("state check: %w", err)
	}
	if sent {
		s.stats.FilesSkipped++
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	if s.dryRun {
		s.log.Info("dry-run: would send", "file", relPath, "bytes", len(data))
		s.stats.FilesSent++
		return nil
	}

	result, err := s.client.SendCSV(data)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	s.stats.FilesSent++
	s.stats.SessionsInserted += result.SessionsInserted
	s.stats.SessionsSkipped += result.SessionsSkipped
	s.stats.SessionsRejected += result.SessionsRejected

	if err := s.state.MarkSent(relPath, info.Size(), hash); err != nil {
		s.log.Warn("failed to mark sent", "file", relPath, "error", err)
	}

	s.log.Info("sent export",
		"file", relPath,
		"inserted", result.SessionsInserted,
		"skipped", result.SessionsSkipped,
		"rejected", result.SessionsRejected,
	)

	return nil
}
