package dosing

import (
	"math"
	"testing"
)

// powerLawObs generates observations on an exact power law L = c·T^−β.
func powerLawObs(c, beta float64, durations ...float64) []Observation {
	obs := make([]Observation, len(durations))
	for i, d := range durations {
		obs[i] = Observation{DurationSec: d, Load: c * math.Pow(d, -beta)}
	}
	return obs
}

// TestEstimateBetaExact verifies the OLS fit recovers a known exponent from
// noiseless power-law data.
func TestEstimateBetaExact(t *testing.T) {
	for _, beta := range []float64{0.2, 0.3, 0.5, 0.7} {
		obs := powerLawObs(300, beta, 20, 60, 120, 180)
		got := EstimateBeta(obs)
		if math.Abs(got-beta) > 1e-9 {
			t.Errorf("EstimateBeta(β=%.2f data) = %.6f", beta, got)
		}
	}
}

// TestEstimateBetaClamped verifies implausible fits are clamped to the
// configured range instead of passed through.
func TestEstimateBetaClamped(t *testing.T) {
	steep := powerLawObs(300, 1.5, 20, 60, 180)
	if got := EstimateBeta(steep); got != BetaMax {
		t.Errorf("steep fit: got %.4f, want clamp at %.2f", got, BetaMax)
	}

	shallow := powerLawObs(300, 0.05, 20, 60, 180)
	if got := EstimateBeta(shallow); got != BetaMin {
		t.Errorf("shallow fit: got %.4f, want clamp at %.2f", got, BetaMin)
	}
}

// TestEstimateBetaFallback verifies the fixed fallback with fewer than two
// points and with a degenerate single-duration cluster.
func TestEstimateBetaFallback(t *testing.T) {
	if got := EstimateBeta(nil); got != BetaDefault {
		t.Errorf("EstimateBeta(nil) = %.4f, want %.4f", got, BetaDefault)
	}
	if got := EstimateBeta([]Observation{{DurationSec: 60, Load: 80}}); got != BetaDefault {
		t.Errorf("single point: got %.4f, want %.4f", got, BetaDefault)
	}
	same := []Observation{
		{DurationSec: 60, Load: 80},
		{DurationSec: 60, Load: 85},
	}
	if got := EstimateBeta(same); got != BetaDefault {
		t.Errorf("identical durations: got %.4f, want %.4f", got, BetaDefault)
	}
}

// TestEstimateBetaRecentWindow verifies only the most recent observations
// drive the fit, so old history cannot mask adaptation.
func TestEstimateBetaRecentWindow(t *testing.T) {
	// Six recent points on β=0.5 preceded by stale points on β=0.2.
	stale := powerLawObs(300, 0.2, 15, 25)
	recent := powerLawObs(300, 0.5, 20, 40, 60, 90, 120, 180)
	obs := append(stale, recent...)

	got := EstimateBeta(obs)
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("windowed fit = %.6f, want 0.5 from the recent points only", got)
	}
}

// TestScaleLoadByBeta verifies the nearest-neighbor power-law projection.
func TestScaleLoadByBeta(t *testing.T) {
	neighbor := Observation{DurationSec: 60, Load: 80}

	// Same duration: unchanged.
	if got := ScaleLoadByBeta(60, neighbor, 0.3); math.Abs(got-80) > 1e-9 {
		t.Errorf("same-duration projection = %.4f, want 80", got)
	}

	// Longer target: lower load. Shorter target: higher load.
	longer := ScaleLoadByBeta(120, neighbor, 0.3)
	shorter := ScaleLoadByBeta(30, neighbor, 0.3)
	if longer >= 80 || shorter <= 80 {
		t.Errorf("projection direction wrong: longer=%.4f shorter=%.4f", longer, shorter)
	}

	want := 80 * math.Pow(60.0/120.0, 0.3)
	if math.Abs(longer-want) > 1e-9 {
		t.Errorf("ScaleLoadByBeta(120) = %.6f, want %.6f", longer, want)
	}

	if got := ScaleLoadByBeta(0, neighbor, 0.3); got != 0 {
		t.Errorf("zero target: got %.4f, want 0", got)
	}
}
