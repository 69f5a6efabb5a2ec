// Package chem holds the reaction network model and the state types
// shared by the integrators, the conservation enforcer, and the
// evolution driver.
//
// A [Network] is built once (see [Builder]) and is read-only during
// integration. The number densities live in a [State] vector whose
// index 0 is always the electron. Rate constants are kept in a plain
// []float64 owned by the caller, so one network can be evolved under
// many different physical conditions without rebuilding it.
package chem
