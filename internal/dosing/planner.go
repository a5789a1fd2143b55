package dosing

// capFloor is the lowest capacity the simulation depletes to. Below this the
// prescription would be meaningless noise rather than a trainable load.
const capFloor = 0.1

// PlanRequest describes a multi-set/rep plan to simulate.
type PlanRequest struct {
	TargetSec  float64      `json:"target_sec"`
	Sets       int          `json:"sets"`
	RepsPerSet int          `json:"reps_per_set"` // <= 0 means 1
	RestRepSec float64      `json:"rest_rep_sec"`
	RestSetSec float64      `json:"rest_set_sec"`
	CapDrop    float64      `json:"cap_drop"`
	Policy     AnchorPolicy `json:"policy"`

	// Precise recomputes each rep's load as scale·C·fatigue(T) instead of
	// base·C. Equivalent when base came from the model estimator; diverges
	// when base came from the ratio estimator or a blended policy.
	Precise bool `json:"precise"`
}

// PlanSets simulates capacity depletion across the requested sets and reps
// and returns one prescribed load per rep, in order.
//
// Capacity starts at 1.0. Each rep multiplies it by fatigue(T); each rest
// restores a recovery(rest) fraction of what was lost, clamped to
// [capFloor, 1]. Rests between reps and between sets may differ. After the
// simulation, later loads are capped at load_0·(1+CapDrop) so no set is
// prescribed meaningfully above the first.
//
// Degenerate inputs never fail: zero sets yields an empty slice, a zero base
// (with Precise off) yields all zeros.
func PlanSets(base float64, req PlanRequest, p CurveParams, rp RecoveryParams, scale float64) []float64 {
	if req.Sets <= 0 {
		return nil
	}
	reps := req.RepsPerSet
	if reps <= 0 {
		reps = 1
	}

	total := req.Sets * reps
	loads := make([]float64, 0, total)

	f := Fatigue(req.TargetSec, p)
	capacity := 1.0

	for i := 0; i < total; i++ {
		if req.Precise {
			loads = append(loads, scale*capacity*f)
		} else {
			loads = append(loads, base*capacity)
		}
		if i == total-1 {
			break // no transition after the final rep
		}

		rest := req.RestRepSec
		if (i+1)%reps == 0 {
			rest = req.RestSetSec
		}

		after := capacity * f
		rec := Recovery(rest, p, rp)
		capacity = clamp(after+(1-after)*rec, capFloor, 1.0)
	}

	// Safety ceiling, independent of the raw simulation.
	ceiling := loads[0] * (1 + req.CapDrop)
	for i := 1; i < len(loads); i++ {
		if loads[i] > ceiling {
			loads[i] = ceiling
		}
	}
	return loads
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
