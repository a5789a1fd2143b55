package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/meltforce/gripdose/internal/config"
	"github.com/meltforce/gripdose/internal/importer"
	"github.com/meltforce/gripdose/internal/ingest"
	"github.com/meltforce/gripdose/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	exportPath := flag.String("path", "", "path to CSV export directory (required)")
	user := flag.String("user", "local", "login of the user to import for")
	dryRun := flag.Bool("dry-run", false, "report counts without inserting into database")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: gripdose-import -config config.yaml -path /path/to/exports [-user login] [-dry-run]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportPath)
		os.Exit(1)
	}

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	dsn := cfg.Database.DSN()

	// Run migrations
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("migrations applied")

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode — no data will be written to the database")
	}

	// Connect database
	db, err := storage.New(ctx, dsn)
	if err != nil {
		log.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	log.Info("database connected")

	userID, err := db.GetOrCreateUser(ctx, *user, *user)
	if err != nil {
		log.Error("failed to resolve user", "login", *user, "error", err)
		os.Exit(1)
	}

	// Run import
	imp := importer.New(ingest.NewProvider(db, log), log, *dryRun)
	stats, err := imp.Import(ctx, userID, *exportPath)
	if err != nil {
		log.Error("import failed", "error", err)
		printStats(log, stats)
		os.Exit(1)
	}

	printStats(log, stats)
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	log.Info("import stats",
		"files_processed", stats.FilesProcessed,
		"files_errored", stats.FilesErrored,
		"sessions_parsed", stats.SessionsParsed,
		"sessions_inserted", stats.SessionsInserted,
		"sessions_skipped", stats.SessionsSkipped,
		"sessions_rejected", stats.SessionsRejected,
	)
	if len(stats.RejectedReasons) > 0 {
		log.Info("rejected sessions", "reasons", stats.RejectedReasons)
	}
}
