// Package analysis computes derived quantities from a recorded
// evolution trajectory: when the network settled into equilibrium, how
// far the conserved totals drifted, and the residual charge imbalance.
package analysis

import (
	"math"

	"github.com/san-kum/chemevol/internal/chem"
)

// EquilibriumTime returns the earliest recorded time after which every
// species stays within rtol (relative) of its final density. The second
// return is false when the trajectory never settles, or is too short to
// tell; the reported time is then the final sample time.
func EquilibriumTime(times []float64, states []chem.State, rtol float64) (float64, bool) {
	if len(states) < 2 {
		if len(times) == 1 {
			return times[0], false
		}
		return 0, false
	}

	final := states[len(states)-1]
	floor := 0.0
	for _, v := range final {
		if a := math.Abs(v); a > floor {
			floor = a
		}
	}
	floor *= 1e-12

	idx := len(states) - 1
	for i := len(states) - 2; i >= 0; i-- {
		if relDiff(states[i], final, floor) > rtol {
			break
		}
		idx = i
	}
	return times[idx], idx < len(states)-1
}

func relDiff(y, ref chem.State, floor float64) float64 {
	max := 0.0
	for i := range y {
		scale := math.Max(math.Abs(ref[i]), floor)
		if scale == 0 {
			continue
		}
		if d := math.Abs(y[i]-ref[i]) / scale; d > max {
			max = d
		}
	}
	return max
}

// ConservationDrift returns the largest relative deviation of any
// element or grain total from its target, across the whole trajectory.
// With the makeup pass active this measures the repair quality.
func ConservationDrift(net *chem.Network, states []chem.State, abnDen float64) float64 {
	drift := 0.0
	for _, y := range states {
		for q, ele := range net.Elements {
			target := ele.Abundance / abnDen
			if target <= 0 {
				continue
			}
			total := 0.0
			for i, sp := range net.Species {
				total += y[i] * sp.Composition[q]
			}
			if d := math.Abs(total-target) / target; d > drift {
				drift = d
			}
		}
	}
	return drift
}

// ChargeImbalance returns the net charge density of y, electrons
// included. Zero after a successful charge repair.
func ChargeImbalance(net *chem.Network, y chem.State) float64 {
	charge := 0.0
	for i, sp := range net.Species {
		charge += y[i] * float64(sp.Charge)
	}
	return charge
}
