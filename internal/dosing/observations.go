package dosing

import (
	"sort"

	"github.com/meltforce/gripdose/internal/models"
)

// Observation is one clean (duration, load) pair projected from a session
// record. Duration and load are guaranteed positive by ProjectObservations.
// Observations are ephemeral: recomputed from history on every query, never
// stored.
type Observation struct {
	DurationSec float64 `json:"duration_sec"`
	Load        float64 `json:"load"`
}

// ProjectObservations extracts the usable observations for one side from raw
// session records, dropping entries with non-positive duration or load. This
// is the single place raw history is coerced into well-typed positive
// numerics; everything downstream can assume clean inputs.
func ProjectObservations(records []models.SessionRecord, side models.Side) []Observation {
	var obs []Observation
	for _, r := range records {
		if r.Side != side {
			continue
		}
		if r.DurationSec <= 0 || r.LoadKg <= 0 {
			continue
		}
		obs = append(obs, Observation{DurationSec: r.DurationSec, Load: r.LoadKg})
	}
	return obs
}

// epsSameDuration is the tolerance under which two observed durations are
// treated as the same anchor and aggregated by mean.
const epsSameDuration = 1e-6

// pooledPoint is an aggregated observation: mean load over n raw
// observations sharing (nearly) the same duration.
type pooledPoint struct {
	t    float64
	load float64
	n    float64
}

// aggregateByDuration sorts observations by duration and merges entries whose
// durations coincide within epsSameDuration, averaging their loads. The
// result is strictly increasing in t.
func aggregateByDuration(obs []Observation) []pooledPoint {
	if len(obs) == 0 {
		return nil
	}

	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DurationSec < sorted[j].DurationSec
	})

	var points []pooledPoint
	for _, o := range sorted {
		if len(points) > 0 {
			last := &points[len(points)-1]
			if o.DurationSec-last.t < epsSameDuration {
				last.load = (last.load*last.n + o.Load) / (last.n + 1)
				last.n++
				continue
			}
		}
		points = append(points, pooledPoint{t: o.DurationSec, load: o.Load, n: 1})
	}
	return points
}
