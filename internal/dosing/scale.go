package dosing

// EstimateScale estimates the personal maximum-capability constant so that
// load ≈ scale × fatigue(duration) over the given history.
//
// A positive manual override always wins. Otherwise the scale is the
// unweighted mean of load/fatigue(duration) across observations — each
// observed load is assumed to be a fraction of an unobserved personal
// maximum, so dividing out the curve's predicted fraction recovers that
// maximum, and averaging integrates session-to-session noise. Observations
// whose predicted fraction is within epsilon of zero are excluded rather
// than divided by.
//
// Returns 0 when there is no usable data; callers treat 0 as "no estimate".
func EstimateScale(obs []Observation, p CurveParams, manual float64) float64 {
	if manual > 0 {
		return manual
	}

	var sum float64
	var n int
	for _, o := range obs {
		f := Fatigue(o.DurationSec, p)
		if f <= epsDenom {
			continue
		}
		sum += o.Load / f
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// ModelLoad is the model-based load estimate for a target duration:
// scale × fatigue(target). Strictly decreasing in the target. Returns 0
// ("no estimate") when scale is 0.
func ModelLoad(targetSec, scale float64, p CurveParams) float64 {
	if scale <= 0 {
		return 0
	}
	return scale * Fatigue(targetSec, p)
}
