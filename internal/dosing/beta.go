package dosing

import "math"

// Power-law exponent bounds for load-vs-duration (L ∝ T^−β). Fitted values
// outside this range are noise artifacts, not adaptation.
const (
	BetaMin     = 0.15
	BetaMax     = 0.8
	BetaDefault = 0.3

	// betaWindow bounds the fit to recent history so β tracks adaptation
	// instead of averaging over stale sessions.
	betaWindow = 6
)

// EstimateBeta fits the power-law exponent β from the most recent
// observations (callers pass history in chronological order): ordinary
// least-squares slope of ln(load) on ln(duration), negated, clamped to
// [BetaMin, BetaMax]. Fewer than two distinct durations fall back to
// BetaDefault.
func EstimateBeta(obs []Observation) float64 {
	if len(obs) > betaWindow {
		obs = obs[len(obs)-betaWindow:]
	}
	if len(obs) < 2 {
		return BetaDefault
	}

	var sumX, sumY, sumXX, sumXY float64
	for _, o := range obs {
		x := math.Log(o.DurationSec)
		y := math.Log(o.Load)
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	n := float64(len(obs))
	denom := n*sumXX - sumX*sumX
	if denom < epsDenom {
		return BetaDefault // all durations identical, slope undefined
	}
	slope := (n*sumXY - sumX*sumY) / denom

	beta := -slope
	if beta < BetaMin {
		beta = BetaMin
	}
	if beta > BetaMax {
		beta = BetaMax
	}
	return beta
}

// ScaleLoadByBeta projects a load from a single nearby observation to the
// target duration using the power law: load × (t_neighbor/t_target)^β.
// A non-positive target yields 0.
func ScaleLoadByBeta(targetSec float64, neighbor Observation, beta float64) float64 {
	if targetSec <= 0 || neighbor.DurationSec <= 0 {
		return 0
	}
	return neighbor.Load * math.Pow(neighbor.DurationSec/targetSec, beta)
}
