package chem

import "errors"

// Domain errors shared across the evolution pipeline.
var (
	// ErrInvalidNetwork indicates a malformed network table.
	ErrInvalidNetwork = errors.New("chem: invalid reaction network")

	// ErrInvalidState indicates a state vector with NaN or Inf entries.
	ErrInvalidState = errors.New("chem: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive step size underflowed.
	ErrStepTooSmall = errors.New("chem: step size underflow")

	// ErrTooManyRetries indicates a stepper exhausted its retry budget
	// without meeting the error tolerance.
	ErrTooManyRetries = errors.New("chem: stiff step retry budget exhausted")

	// ErrSingularMatrix indicates the implicit-solver matrix could not
	// be factorized.
	ErrSingularMatrix = errors.New("chem: singular matrix in implicit solve")

	// ErrMakeupInfeasible indicates element conservation could not be
	// restored: the donor species carry too little density.
	ErrMakeupInfeasible = errors.New("chem: element makeup infeasible")

	// ErrChargeInfeasible indicates charge conservation could not be
	// restored from the available negative carriers.
	ErrChargeInfeasible = errors.New("chem: charge makeup infeasible")
)
