package chem

// RateSystem binds a network to a rate-constant table so the stiff
// steppers can evaluate derivatives and Jacobians without knowing
// about the chemistry. It satisfies the integrators' System interface.
type RateSystem struct {
	net *Network
	k   []float64
}

func NewSystem(net *Network, k []float64) *RateSystem {
	return &RateSystem{net: net, k: k}
}

func (s *RateSystem) Derivs(y State, dydt State) { s.net.Derivs(s.k, y, dydt) }

func (s *RateSystem) Jacobian(y State, jac Matrix) { s.net.Jacobian(s.k, y, jac) }
