package dosing

import "math"

// RatioLoad is the model-free load estimate for a target duration, built
// directly from observations as a cross-check on the parametric model.
//
// Observations sharing a duration are pooled by mean, repaired to a
// non-increasing load-vs-duration sequence with pool-adjacent-violators, and
// interpolated linearly in t on log(load) — load-vs-duration curves are
// roughly power-law, which is what log-space linear interpolation preserves.
// Outside the observed duration range the nearest anchor's load is returned
// flat, never extrapolated upward.
//
// Returns 0 when there are no observations.
func RatioLoad(obs []Observation, targetSec float64) float64 {
	points := pavaPoints(obs)
	if len(points) == 0 {
		return 0
	}

	first, last := points[0], points[len(points)-1]
	if targetSec <= first.t {
		return first.load
	}
	if targetSec >= last.t {
		return last.load
	}

	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if targetSec > b.t {
			continue
		}
		span := b.t - a.t
		if span < epsSameDuration {
			return a.load
		}
		r := (targetSec - a.t) / span
		logL := (1-r)*math.Log(a.load) + r*math.Log(b.load)
		return math.Exp(logL)
	}
	return last.load // unreachable; edge cases handled above
}

// pavaBlock is one block of the pool-adjacent-violators scan: a weighted run
// of pooled points sharing a single (weighted mean) load.
type pavaBlock struct {
	tw   float64 // Σ t·w, for the duration-weighted-average duration
	w    float64
	load float64
}

// pavaPoints aggregates observations by duration and enforces a monotone
// non-increasing load sequence. Whenever a block's mean load exceeds its
// predecessor's (a longer hold apparently sustaining more load — noise, not
// physiology), the two merge into a weighted-mean block and the check
// repeats against the new predecessor.
func pavaPoints(obs []Observation) []pooledPoint {
	pooled := aggregateByDuration(obs)
	if len(pooled) == 0 {
		return nil
	}

	blocks := make([]pavaBlock, 0, len(pooled))
	for _, p := range pooled {
		b := pavaBlock{tw: p.t * p.n, w: p.n, load: p.load}
		for len(blocks) > 0 && b.load > blocks[len(blocks)-1].load {
			prev := blocks[len(blocks)-1]
			blocks = blocks[:len(blocks)-1]
			merged := pavaBlock{tw: prev.tw + b.tw, w: prev.w + b.w}
			merged.load = (prev.load*prev.w + b.load*b.w) / merged.w
			b = merged
		}
		blocks = append(blocks, b)
	}

	points := make([]pooledPoint, len(blocks))
	for i, b := range blocks {
		points[i] = pooledPoint{t: b.tw / b.w, load: b.load, n: b.w}
	}
	return points
}
