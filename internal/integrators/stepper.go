// Package integrators provides the stiff ODE steppers used to advance
// a chemical network in time: a semi-implicit Bulirsch-Stoer
// extrapolation method (primary) and a Kaps-Rentrop Rosenbrock method
// (fallback). Both share the calling contract of [Stepper] so the
// driver can try them in priority order.
package integrators

import "github.com/san-kum/chemevol/internal/chem"

// System is the right-hand side of an autonomous ODE system.
type System interface {
	Derivs(y chem.State, dydt chem.State)
	Jacobian(y chem.State, jac chem.Matrix)
}

// Stepper advances y by one adaptive step.
//
// On entry dydt holds the derivatives at y, htry the trial step and
// yscale the per-component error scale; eps is the relative error
// tolerance. On success y is advanced in place and the step actually
// taken (hdid) plus the suggested next step (hnext) are returned. On
// failure y is left in an unspecified state and the caller must
// restore it before retrying with another stepper.
type Stepper interface {
	Name() string
	Step(sys System, y, dydt chem.State, t, htry, eps float64, yscale chem.State) (hdid, hnext float64, err error)
}
