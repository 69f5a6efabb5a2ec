package evolve

import "github.com/san-kum/chemevol/internal/chem"

// Recorder is an Observer that keeps a copy of the density vector at
// every accepted step, for plotting and export.
type Recorder struct {
	Times  []float64 // seconds
	States []chem.State
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnStep(y chem.State, t, dt float64) {
	r.Times = append(r.Times, t)
	r.States = append(r.States, y.Clone())
}
