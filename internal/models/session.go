package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Side identifies which hand a hold was performed with. All dosing math runs
// independently per side.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ParseSide normalizes a side string from query params, CSV columns, or JSON.
// Accepts common short forms ("l", "L", "Left"). Returns ok=false for
// anything unrecognized so callers can reject the input at the boundary.
func ParseSide(s string) (Side, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return SideLeft, true
	case "right", "r":
		return SideRight, true
	}
	return "", false
}

// SessionRecord is one recorded isometric hold, ready for insertion into the
// hold_sessions table. Duration and load may be zero or negative in raw
// imports; the dosing projector is the single place that filters those out.
type SessionRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      int       `json:"user_id"`
	Date        time.Time `json:"date"`
	Side        Side      `json:"side"`
	Grip        string    `json:"grip,omitempty"`
	LoadKg      float64   `json:"load_kg"`
	DurationSec float64   `json:"duration_sec"`
	RestSec     float64   `json:"rest_sec,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// DosingSettings is the per-user, per-side dosing configuration stored in the
// dosing_settings table. ManualScale <= 0 means "derive the scale from
// history". Curve weight overrides are optional; nil means "use the global
// weights from config".
type DosingSettings struct {
	UserID      int      `json:"user_id"`
	Side        Side     `json:"side"`
	ManualScale float64  `json:"manual_scale"`
	Policy      string   `json:"policy"`
	W1          *float64 `json:"w1,omitempty"`
	W2          *float64 `json:"w2,omitempty"`
	W3          *float64 `json:"w3,omitempty"`
}
