// Package gripcsv parses the semicolon-separated CSV export produced by the
// grip trainer app. One line per hold:
//
//	date;side;grip;load_kg;duration_s;rest_s[;notes]
//	2026-02-19 18:04;left;half crimp;42,5;20;120
//
// Lines starting with '#', blank lines, and the column header are skipped.
// Decimal commas (German locale exports) are tolerated in numeric fields.
package gripcsv

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/gripdose/internal/models"
)

// Parse reads a grip-trainer CSV export and returns the session records it
// contains. A malformed line aborts the parse with a line-numbered error;
// per-record semantic validation happens later in the ingest provider.
func Parse(r io.Reader) ([]models.SessionRecord, error) {
	scanner := bufio.NewScanner(r)
	var records []models.SessionRecord
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if isHeader(line) {
			continue
		}

		rec, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	return records, nil
}

func isHeader(line string) bool {
	return strings.HasPrefix(strings.ToLower(line), "date;")
}

func parseLine(line string) (models.SessionRecord, error) {
	fields := strings.Split(line, ";")
	if len(fields) < 6 {
		return models.SessionRecord{}, fmt.Errorf("expected at least 6 fields, got %d", len(fields))
	}

	date, err := parseDate(strings.TrimSpace(fields[0]))
	if err != nil {
		return models.SessionRecord{}, err
	}

	load, err := parseDecimal(fields[3])
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("load: %w", err)
	}
	duration, err := parseDecimal(fields[4])
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("duration: %w", err)
	}
	rest, err := parseDecimal(fields[5])
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("rest: %w", err)
	}

	rec := models.SessionRecord{
		Date:        date,
		Side:        models.Side(strings.TrimSpace(fields[1])),
		Grip:        strings.TrimSpace(fields[2]),
		LoadKg:      load,
		DurationSec: duration,
		RestSec:     rest,
	}
	if len(fields) > 6 {
		rec.Notes = strings.TrimSpace(strings.Join(fields[6:], ";"))
	}
	return rec, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02T15:04:05Z07:00", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseDecimal accepts both dot and comma decimal separators.
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q", s)
	}
	return v, nil
}
