package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/meltforce/gripdose/internal/sync"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "GripDose server URL (e.g. https://gripdose.tail1234.ts.net)")
	exportPath := flag.String("path", "", "path to CSV export directory")
	apiKey := flag.String("api-key", os.Getenv("GRIPDOSE_API_KEY"), "API key for the ingest endpoint (defaults to $GRIPDOSE_API_KEY)")
	dryRun := flag.Bool("dry-run", false, "scan and hash files but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("gripdose-sync", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: gripdose-sync -server <URL> -path <export dir> [-api-key KEY] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -server is required (or use -dry-run)\n")
		os.Exit(1)
	}

	*serverURL = strings.TrimRight(*serverURL, "/")

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export directory not found", "path", *exportPath)
		os.Exit(1)
	}

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	stateDir := filepath.Join(homeDir, ".gripdose-sync")

	state, err := sync.OpenStateDB(stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *dryRun {
		log.Info("DRY RUN mode — files will be scanned but not sent")
	}

	client := sync.NewClient(*serverURL, *apiKey)
	syncer := sync.New(client, state, *exportPath, *dryRun, log)
	stats, err := syncer.Run()
	if err != nil {
		log.Error("sync failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("sync complete")
}

func printStats(stats *sync.Stats) {
	fmt.Println()
	fmt.Println("=== Sync Summary ===")
	fmt.Printf("  Files total:        %d\n", stats.FilesTotal)
	fmt.Printf("  Files sent:         %d\n", stats.FilesSent)
	fmt.Printf("  Files skipped:      %d (already sent)\n", stats.FilesSkipped)
	fmt.Printf("  Files errored:      %d\n", stats.FilesErrored)
	fmt.Println()
	fmt.Printf("  Sessions inserted:  %d\n", stats.SessionsInserted)
	fmt.Printf("  Sessions skipped:   %d (duplicates)\n", stats.SessionsSkipped)
	fmt.Printf("  Sessions rejected:  %d\n", stats.SessionsRejected)
	fmt.Println()
}
