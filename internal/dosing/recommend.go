package dosing

import "strings"

// AnchorPolicy selects how the model-based and ratio-based estimates combine
// into a single recommendation.
type AnchorPolicy string

const (
	PolicyAverage AnchorPolicy = "average"
	PolicyMin     AnchorPolicy = "min"
	PolicyModel   AnchorPolicy = "model"
	PolicyRatio   AnchorPolicy = "ratio"
)

// ParsePolicy normalizes a policy string. Returns ok=false for unknown
// values so the boundary can reject bad input instead of guessing.
func ParsePolicy(s string) (AnchorPolicy, bool) {
	switch AnchorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyAverage:
		return PolicyAverage, true
	case PolicyMin:
		return PolicyMin, true
	case PolicyModel:
		return PolicyModel, true
	case PolicyRatio:
		return PolicyRatio, true
	}
	return "", false
}

// Recommendation is a single-set suggestion with its component estimates,
// so callers can show how the blended number came about. Zero component
// values mean "no estimate from that estimator".
type Recommendation struct {
	Load      float64      `json:"load"`
	ModelLoad float64      `json:"model_load"`
	RatioLoad float64      `json:"ratio_load"`
	Scale     float64      `json:"scale"`
	Beta      float64      `json:"beta"`
	Policy    AnchorPolicy `json:"policy"`
}

// Recommend combines the model-based and ratio-based estimators into a
// single-set load suggestion for the target duration. ok=false means neither
// estimator had data; "not enough history yet" is an expected state, not an
// error. Rounding for display is the caller's concern.
func Recommend(obs []Observation, p CurveParams, manual, targetSec float64, policy AnchorPolicy) (Recommendation, bool) {
	scale := EstimateScale(obs, p, manual)
	rec := Recommendation{
		ModelLoad: ModelLoad(targetSec, scale, p),
		RatioLoad: RatioLoad(obs, targetSec),
		Scale:     scale,
		Beta:      EstimateBeta(obs),
		Policy:    policy,
	}

	load, ok := blend(rec.ModelLoad, rec.RatioLoad, policy)
	if !ok {
		return Recommendation{}, false
	}
	rec.Load = load
	return rec, true
}

// blend applies the anchor policy over the two estimates, treating 0 as
// absent. Policies that name a specific estimator fall back to the other one
// when their estimator has no data, except "model"/"ratio" which are strict.
func blend(model, ratio float64, policy AnchorPolicy) (float64, bool) {
	haveModel := model > 0
	haveRatio := ratio > 0

	switch policy {
	case PolicyModel:
		return model, haveModel
	case PolicyRatio:
		return ratio, haveRatio
	case PolicyMin:
		switch {
		case haveModel && haveRatio:
			return min(model, ratio), true
		case haveModel:
			return model, true
		case haveRatio:
			return ratio, true
		}
		return 0, false
	default: // average
		switch {
		case haveModel && haveRatio:
			return (model + ratio) / 2, true
		case haveModel:
			return model, true
		case haveRatio:
			return ratio, true
		}
		return 0, false
	}
}
