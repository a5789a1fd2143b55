// Package dosing implements the load-dosing math for timed isometric grip
// training: a three-exponential fatigue/recovery curve family, two
// independent load estimators over session history, a blending policy, and a
// multi-set capacity-simulation planner.
//
// Everything in this package is a pure function over explicit inputs. There
// is no I/O, no package state, and no locking; concurrent callers (e.g. left
// and right hand computed in parallel) need no coordination.
package dosing

import "math"

const (
	// epsTau floors time constants so the exponentials never divide by zero.
	epsTau = 1e-9

	// epsWeight guards the weight-sum normalization.
	epsWeight = 1e-9

	// epsDenom excludes observations whose predicted fatigue fraction is too
	// close to zero to divide by safely.
	epsDenom = 1e-9
)

// CurveParams holds the weights and time constants of the three-component
// exponential fatigue process (fast / medium / slow). Only the weight ratios
// matter: weights are normalized by their sum before every evaluation.
type CurveParams struct {
	W1, W2, W3       float64
	Tau1, Tau2, Tau3 float64
}

// RecoveryParams holds the time constants governing how quickly capacity
// returns during rest. They may equal the fatigue taus or be configured
// independently.
type RecoveryParams struct {
	R1, R2, R3 float64
}

// normWeights returns the normalized weight triple. A degenerate zero (or
// near-zero) sum falls back to equal weights so that Fatigue(0) stays 1.
func (p CurveParams) normWeights() [3]float64 {
	sum := p.W1 + p.W2 + p.W3
	if sum < epsWeight {
		return [3]float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	}
	return [3]float64{p.W1 / sum, p.W2 / sum, p.W3 / sum}
}

func (p CurveParams) taus() [3]float64 {
	return [3]float64{
		math.Max(p.Tau1, epsTau),
		math.Max(p.Tau2, epsTau),
		math.Max(p.Tau3, epsTau),
	}
}

func (rp RecoveryParams) rhos() [3]float64 {
	return [3]float64{
		math.Max(rp.R1, epsTau),
		math.Max(rp.R2, epsTau),
		math.Max(rp.R3, epsTau),
	}
}

// Fatigue returns the remaining-capacity fraction after t seconds of
// continuous loading:
//
//	fatigue(t) = Σ ŵ_i · exp(−t/τ_i)
//
// The result is in (0, 1], equals 1 at t = 0, and is strictly decreasing in
// t. Negative t is clamped to zero.
func Fatigue(t float64, p CurveParams) float64 {
	if t < 0 {
		t = 0
	}
	w := p.normWeights()
	tau := p.taus()

	var f float64
	for i := 0; i < 3; i++ {
		f += w[i] * math.Exp(-t/tau[i])
	}
	return f
}

// Recovery returns the fraction of lost capacity restored after r seconds of
// rest, weighted by the fatigue weights:
//
//	recovery(r) = Σ ŵ_i · (1 − exp(−r/ρ_i))
//
// The result is in [0, 1), equals 0 at r = 0, is non-decreasing in r, and
// approaches 1 as r grows. Negative r is clamped to zero.
//
// An unweighted mean over the three components is an equally defensible
// formulation; this codebase uses the weighted one everywhere, so the same
// fast/slow balance drives both directions of the simulation.
func Recovery(r float64, p CurveParams, rp RecoveryParams) float64 {
	if r < 0 {
		r = 0
	}
	w := p.normWeights()
	rho := rp.rhos()

	var rec float64
	for i := 0; i < 3; i++ {
		rec += w[i] * (1 - math.Exp(-r/rho[i]))
	}
	return rec
}

// CurvePoint is one sampled point of a fatigue or recovery curve, for
// charting by a presentation layer.
type CurvePoint struct {
	T     float64 `json:"t"`
	Value float64 `json:"value"`
}

// SampleFatigue samples the fatigue curve on [from, to] at the given step.
// A non-positive step or an empty range yields nil.
func SampleFatigue(p CurveParams, from, to, step float64) []CurvePoint {
	return sampleCurve(from, to, step, func(t float64) float64 {
		return Fatigue(t, p)
	})
}

// SampleRecovery samples the recovery curve on [from, to] at the given step.
func SampleRecovery(p CurveParams, rp RecoveryParams, from, to, step float64) []CurvePoint {
	return sampleCurve(from, to, step, func(r float64) float64 {
		return Recovery(r, p, rp)
	})
}

func sampleCurve(from, to, step float64, eval func(float64) float64) []CurvePoint {
	if step <= 0 || to < from {
		return nil
	}
	if from < 0 {
		from = 0
	}

	var points []CurvePoint
	// Half-step tolerance so the endpoint survives float accumulation.
	for t := from; t <= to+step/2; t += step {
		points = append(points, CurvePoint{T: t, Value: eval(t)})
	}
	return points
}

// RoundLoad rounds a load to one decimal place. Display-only: all internal
// computation keeps full precision.
func RoundLoad(x float64) float64 {
	return math.Round(x*10) / 10
}
