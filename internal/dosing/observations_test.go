package dosing

import (
	"math"
	"testing"
	"time"

	"github.com/meltforce/gripdose/internal/models"
)

// TestProjectObservations verifies that projection keeps only the requested
// side and drops entries with non-positive duration or load.
func TestProjectObservations(t *testing.T) {
	now := time.Now()
	records := []models.SessionRecord{
		{Date: now, Side: models.SideLeft, LoadKg: 40, DurationSec: 20},
		{Date: now, Side: models.SideRight, LoadKg: 45, DurationSec: 20},
		{Date: now, Side: models.SideLeft, LoadKg: 0, DurationSec: 30},   // no load
		{Date: now, Side: models.SideLeft, LoadKg: 35, DurationSec: 0},   // no duration
		{Date: now, Side: models.SideLeft, LoadKg: -5, DurationSec: 60},  // negative load
		{Date: now, Side: models.SideLeft, LoadKg: 30, DurationSec: -10}, // negative duration
		{Date: now, Side: models.SideLeft, LoadKg: 32, DurationSec: 60},
	}

	obs := ProjectObservations(records, models.SideLeft)
	if len(obs) != 2 {
		t.Fatalf("expected 2 usable left-side observations, got %d: %+v", len(obs), obs)
	}
	if obs[0].Load != 40 || obs[0].DurationSec != 20 {
		t.Errorf("first observation = %+v, want {20, 40}", obs[0])
	}
	if obs[1].Load != 32 || obs[1].DurationSec != 60 {
		t.Errorf("second observation = %+v, want {60, 32}", obs[1])
	}
}

// TestProjectObservationsEmpty verifies empty and all-invalid inputs yield an
// empty slice rather than an error.
func TestProjectObservationsEmpty(t *testing.T) {
	if obs := ProjectObservations(nil, models.SideLeft); len(obs) != 0 {
		t.Errorf("nil records: got %d observations", len(obs))
	}
	records := []models.SessionRecord{
		{Side: models.SideRight, LoadKg: 40, DurationSec: 20},
	}
	if obs := ProjectObservations(records, models.SideLeft); len(obs) != 0 {
		t.Errorf("other-side records: got %d observations", len(obs))
	}
}

// TestAggregateByDuration verifies that observations sharing a duration are
// pooled by mean load and the result is sorted by duration.
func TestAggregateByDuration(t *testing.T) {
	obs := []Observation{
		{DurationSec: 60, Load: 80},
		{DurationSec: 20, Load: 100},
		{DurationSec: 60, Load: 70},
		{DurationSec: 60, Load: 75},
	}
	points := aggregateByDuration(obs)
	if len(points) != 2 {
		t.Fatalf("expected 2 pooled points, got %d", len(points))
	}
	if points[0].t != 20 || points[0].load != 100 || points[0].n != 1 {
		t.Errorf("points[0] = %+v, want {20, 100, 1}", points[0])
	}
	if points[1].t != 60 || math.Abs(points[1].load-75) > 1e-9 || points[1].n != 3 {
		t.Errorf("points[1] = %+v, want {60, 75, 3}", points[1])
	}
}

// TestParseSide verifies side normalization at the input boundary.
func TestParseSide(t *testing.T) {
	cases := []struct {
		in   string
		want models.Side
		ok   bool
	}{
		{"left", models.SideLeft, true},
		{"Left", models.SideLeft, true},
		{"L", models.SideLeft, true},
		{"right", models.SideRight, true},
		{" r ", models.SideRight, true},
		{"both", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := models.ParseSide(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseSide(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
