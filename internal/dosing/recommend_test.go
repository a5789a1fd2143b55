package dosing

import (
	"math"
	"testing"
)

// TestRecommendPolicies verifies each anchor policy over a history where the
// two estimators disagree.
func TestRecommendPolicies(t *testing.T) {
	obs := []Observation{
		{DurationSec: 20, Load: 100},
		{DurationSec: 60, Load: 80},
		{DurationSec: 180, Load: 50},
	}

	scale := EstimateScale(obs, testParams, 0)
	model := ModelLoad(60, scale, testParams)
	ratio := RatioLoad(obs, 60)

	cases := []struct {
		policy AnchorPolicy
		want   float64
	}{
		{PolicyAverage, (model + ratio) / 2},
		{PolicyMin, math.Min(model, ratio)},
		{PolicyModel, model},
		{PolicyRatio, ratio},
	}
	for _, tc := range cases {
		rec, ok := Recommend(obs, testParams, 0, 60, tc.policy)
		if !ok {
			t.Fatalf("policy %q: no estimate", tc.policy)
		}
		if math.Abs(rec.Load-tc.want) > 1e-9 {
			t.Errorf("policy %q: load = %.6f, want %.6f", tc.policy, rec.Load, tc.want)
		}
	}
}

// TestRecommendPartialAvailability verifies blending handles one absent
// estimator: both blendable policies fall back to the available estimate.
func TestRecommendPartialAvailability(t *testing.T) {
	// With a manual scale but no history, only the model estimator has data.
	for _, policy := range []AnchorPolicy{PolicyAverage, PolicyMin} {
		rec, ok := Recommend(nil, testParams, 400, 60, policy)
		if !ok {
			t.Fatalf("policy %q with manual scale: expected an estimate", policy)
		}
		want := 400 * Fatigue(60, testParams)
		if math.Abs(rec.Load-want) > 1e-9 {
			t.Errorf("policy %q: load = %.6f, want model-only %.6f", policy, rec.Load, want)
		}
	}

	// The strict ratio policy must report no estimate instead.
	if _, ok := Recommend(nil, testParams, 400, 60, PolicyRatio); ok {
		t.Error("ratio policy without history: expected no estimate")
	}
}

// TestRecommendNoData verifies the absent value propagates when neither
// estimator has anything to say.
func TestRecommendNoData(t *testing.T) {
	for _, policy := range []AnchorPolicy{PolicyAverage, PolicyMin, PolicyModel, PolicyRatio} {
		if _, ok := Recommend(nil, testParams, 0, 60, policy); ok {
			t.Errorf("policy %q: expected no estimate on empty history", policy)
		}
	}
}

// TestParsePolicy verifies policy parsing at the boundary.
func TestParsePolicy(t *testing.T) {
	cases := []struct {
		in   string
		want AnchorPolicy
		ok   bool
	}{
		{"average", PolicyAverage, true},
		{"MIN", PolicyMin, true},
		{" model ", PolicyModel, true},
		{"ratio", PolicyRatio, true},
		{"median", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParsePolicy(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParsePolicy(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

// TestRecommendEndToEnd runs the full pipeline on a realistic history and
// checks both estimators land near the observed load at an anchor duration.
func TestRecommendEndToEnd(t *testing.T) {
	p := CurveParams{W1: 0.5, W2: 0.3, W3: 0.2, Tau1: 7, Tau2: 45, Tau3: 180}
	obs := []Observation{
		{DurationSec: 20, Load: 100},
		{DurationSec: 60, Load: 80},
		{DurationSec: 180, Load: 50},
	}

	rec, ok := Recommend(obs, p, 0, 60, PolicyAverage)
	if !ok {
		t.Fatal("expected an estimate")
	}

	const tol = 0.20
	if math.Abs(rec.ModelLoad-80)/80 > tol {
		t.Errorf("model load %.4f deviates more than %.0f%% from observed 80", rec.ModelLoad, tol*100)
	}
	if math.Abs(rec.RatioLoad-80)/80 > tol {
		t.Errorf("ratio load %.4f deviates more than %.0f%% from observed 80", rec.RatioLoad, tol*100)
	}
	if rec.Load < math.Min(rec.ModelLoad, rec.RatioLoad) || rec.Load > math.Max(rec.ModelLoad, rec.RatioLoad) {
		t.Errorf("blended load %.4f outside [%.4f, %.4f]", rec.Load, rec.RatioLoad, rec.ModelLoad)
	}
	if rec.Beta < BetaMin || rec.Beta > BetaMax {
		t.Errorf("beta %.4f outside plausible range", rec.Beta)
	}
}
