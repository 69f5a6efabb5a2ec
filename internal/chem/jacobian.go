package chem

// Jacobian fills jac with the partial derivatives of every species'
// time derivative with respect to every density: jac[i][p] accumulates,
// over each term in species i's equation and each reactant slot equal
// to p, the term rate times the product of the remaining reactant
// densities. A reactant appearing twice contributes once per slot.
// The matrix is zeroed before accumulation.
func (n *Network) Jacobian(k []float64, y State, jac Matrix) {
	jac.Zero()

	for i := range n.Species {
		for _, term := range n.Equations[i].Terms {
			for slot, p := range term.Reactants {
				jt := k[term.RateIndex] * term.Dir
				for l, q := range term.Reactants {
					if l != slot {
						jt *= y[q]
					}
				}
				jac[i][p] += jt
			}
		}
	}
}
