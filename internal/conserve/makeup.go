// Package conserve repairs a state vector after an accepted
// integration step: negative densities are clamped, elemental and
// grain totals are rebalanced to their fixed target abundances, and
// the electron density is reset to balance the total charge.
//
// Repairs run as strictly sequential passes in element table order.
// Fixing one element can perturb elements already fixed; that
// asymmetry is deliberate and keeps runs reproducible, so do not
// replace the passes with a simultaneous solve.
package conserve

import (
	"fmt"

	"github.com/san-kum/chemevol/internal/chem"
	"github.com/san-kum/chemevol/internal/logging"
)

// Enforce runs the full repair sequence on y: clamp, element tally,
// element repair, grain repair, charge repair. abnDen converts number
// density to normalized abundance (target density = abundance/abnDen);
// t is the current simulated time, used only for diagnostics. When
// announce is set the per-element discrepancy lines print at verbosity
// 0 rather than 1.
//
// The returned count is the number of negative densities clamped.
// A non-nil error means conservation is unsatisfiable and the whole
// evolution step must be aborted.
func Enforce(net *chem.Network, y chem.State, abnDen, t float64, log logging.Logger, announce bool) (int, error) {
	report := log.Verbose
	if announce {
		report = log.Info
	}

	clamped := 0
	for i := range y {
		if y[i] < 0 {
			report("negative density clamped",
				"species", net.Species[i].Name, "density", y[i], "t_yr", t/chem.OneYear)
			y[i] = 0
			clamped++
		}
	}

	tally := make([]float64, net.NumComp())
	for i, sp := range net.Species {
		for j, c := range sp.Composition {
			if c > 0 {
				tally[j] += y[i] * c
			}
		}
	}

	for q := 0; q < net.NumElements; q++ {
		ele := &net.Elements[q]
		target := ele.Abundance / abnDen
		disp := tally[q] - target
		report("element discrepancy", "element", ele.Name, "disp", disp, "target", target)

		if disp < 0 {
			// short of target: scale up the single-element species
			den := 0.0
			for _, l := range ele.Single {
				den += y[l] * net.Species[l].Composition[q]
			}
			if den <= 0 {
				return clamped, fmt.Errorf("%w: no donor density for element %s",
					chem.ErrMakeupInfeasible, ele.Name)
			}
			frac := disp / den
			for _, l := range ele.Single {
				y[l] *= 1 - frac
			}
		} else {
			if err := redistribute(net, y, q, disp); err != nil {
				return clamped, err
			}
		}
	}

	// Grain totals are repaired with one multiplicative factor per
	// grain type, no redistribution.
	for q := net.NumElements; q < net.NumComp(); q++ {
		ele := &net.Elements[q]
		target := ele.Abundance / abnDen
		disp := tally[q] - target
		report("grain discrepancy", "grain", ele.Name, "disp", disp, "target", target)

		if tally[q] <= 0 {
			if target > 0 {
				log.Warn("grain total vanished, cannot rescale", "grain", ele.Name)
			}
			continue
		}
		frac := disp / tally[q]
		for i := net.GrainIndex; i < net.Len(); i++ {
			if net.Species[i].Composition[q] > 0 {
				y[i] *= 1 - frac
			}
		}
	}

	charge := 0.0
	for i := chem.ElectronIndex + 1; i < len(y); i++ {
		if c := net.Species[i].Charge; c != 0 {
			charge += y[i] * float64(c)
		}
	}
	if charge >= 0 {
		y[chem.ElectronIndex] = charge
		return clamped, nil
	}
	y[chem.ElectronIndex] = 0
	if err := chargeMakeup(net, y, -charge); err != nil {
		return clamped, err
	}
	return clamped, nil
}

// redistribute removes an excess dn of element q by scaling down every
// neutral species containing q, pushing the element mass those species
// carried in their other elements back into each such element's first
// single-element species. Totals already repaired for earlier elements
// are preserved this way.
func redistribute(net *chem.Network, y chem.State, q int, dn float64) error {
	if dn == 0 {
		return nil
	}
	den := 0.0
	for i, sp := range net.Species {
		if sp.Composition[q] > 0 && sp.Charge == 0 {
			den += y[i] * sp.Composition[q]
		}
	}
	if den < dn {
		return fmt.Errorf("%w: neutral carriers of %s hold %g, need %g",
			chem.ErrMakeupInfeasible, net.Elements[q].Name, den, dn)
	}

	frac := dn / den
	for i := range net.Species {
		sp := &net.Species[i]
		if sp.Composition[q] <= 0 || sp.Charge != 0 {
			continue
		}
		dni := y[i] * frac
		y[i] *= 1 - frac

		for j, c := range sp.Composition {
			if j == q || c <= 0 {
				continue
			}
			if len(net.Elements[j].Single) == 0 {
				return fmt.Errorf("%w: element %s has no single-element species",
					chem.ErrMakeupInfeasible, net.Elements[j].Name)
			}
			k := net.Elements[j].Single[0]
			y[k] += dni * c / net.Species[k].Composition[j]
		}
	}
	return nil
}

// chargeMakeup absorbs a negative net charge of magnitude dne by
// scaling down every negatively charged grain species by a common
// ratio, crediting each grain type's neutral state with the charge
// removed so grain totals stay put.
func chargeMakeup(net *chem.Network, y chem.State, dne float64) error {
	if net.NumGrains == 0 {
		return fmt.Errorf("%w: no grain carriers available", chem.ErrChargeInfeasible)
	}

	neg := make([]float64, net.NumGrains)
	negTot := 0.0
	for i := net.GrainIndex; i < net.Len(); i++ {
		if c := net.Species[i].Charge; c < 0 {
			d := y[i] * float64(-c)
			neg[net.GrainType(i)] += d
			negTot += d
		}
	}

	if negTot <= 0 || dne/negTot > 1 {
		return fmt.Errorf("%w: deficit %g exceeds negative carrier charge %g",
			chem.ErrChargeInfeasible, dne, negTot)
	}

	ratio := dne / negTot
	for i := net.GrainIndex; i < net.Len(); i++ {
		switch c := net.Species[i].Charge; {
		case c < 0:
			y[i] *= 1 - ratio
		case c == 0:
			y[i] += ratio * neg[net.GrainType(i)]
		}
	}
	return nil
}
