package chem

// Derivs computes the time derivative of every species' number density
// into dydt. Each species sums its reaction terms: rate constant times
// direction times the product of the reactant densities. Pure function
// of (k, y); dydt must have length n.Len().
func (n *Network) Derivs(k []float64, y State, dydt State) {
	for i := range n.Species {
		sum := 0.0
		for _, term := range n.Equations[i].Terms {
			rate := k[term.RateIndex] * term.Dir
			for _, p := range term.Reactants {
				rate *= y[p]
			}
			sum += rate
		}
		dydt[i] = sum
	}
}
