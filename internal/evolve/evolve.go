// Package evolve drives the chemical evolution loop: it advances the
// number densities with a stiff stepper, falls back to an alternate
// stepper on failure, and enforces the conservation laws after every
// accepted step.
package evolve

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/san-kum/chemevol/internal/chem"
	"github.com/san-kum/chemevol/internal/conserve"
	"github.com/san-kum/chemevol/internal/integrators"
	"github.com/san-kum/chemevol/internal/logging"
)

// Status reports how an evolution run ended: zero on full success,
// negative on hard failure (both steppers failed, or conservation was
// unsatisfiable), positive when the run stopped early on the wall-clock
// budget or cancellation with partial results.
type Status int

const (
	StatusOK      Status = 0
	StatusFailed  Status = -1
	StatusTimeout Status = 1
)

// Observer is notified after every accepted and repaired step.
type Observer interface {
	OnStep(y chem.State, t, dt float64)
}

// Stats counts what happened during one Evolve call.
type Stats struct {
	Steps     int
	Fallbacks int
	Clamps    int
	Elapsed   time.Duration
}

// DefaultWallBudget bounds the real compute time of one Evolve call.
const DefaultWallBudget = time.Hour

// Option configures an Evolution.
type Option func(*Evolution)

func WithLogger(l logging.Logger) Option {
	return func(e *Evolution) { e.log = l }
}

// WithSteppers sets the stiff steppers tried in priority order.
func WithSteppers(s ...integrators.Stepper) Option {
	return func(e *Evolution) { e.steppers = s }
}

func WithWallBudget(d time.Duration) Option {
	return func(e *Evolution) { e.wallBudget = d }
}

func WithObserver(o Observer) Option {
	return func(e *Evolution) { e.observers = append(e.observers, o) }
}

// WithDenScale overrides the per-species error scale.
func WithDenScale(scale chem.State) Option {
	return func(e *Evolution) { e.denScale = scale }
}

// Evolution holds everything one evolution run needs: the network, its
// rate-constant table, and the density vector it mutates in place.
// Network, rates and densities stay owned by the caller; several
// Evolution values over different state vectors do not interfere.
type Evolution struct {
	net    *chem.Network
	rates  []float64
	numDen chem.State
	abnDen float64

	denScale   chem.State
	steppers   []integrators.Stepper
	observers  []Observer
	log        logging.Logger
	wallBudget time.Duration

	t     float64 // elapsed simulated time, seconds
	stats Stats
}

// New prepares an evolution run. abnDen converts number density to
// normalized abundance units (abundance = density * abnDen).
func New(net *chem.Network, rates []float64, numDen chem.State, abnDen float64, opts ...Option) *Evolution {
	e := &Evolution{
		net:        net,
		rates:      rates,
		numDen:     numDen,
		abnDen:     abnDen,
		log:        logging.Noop(),
		wallBudget: DefaultWallBudget,
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.steppers) == 0 {
		e.steppers = []integrators.Stepper{
			integrators.NewBulirschStoer(),
			integrators.NewKapsRentrop(),
		}
	}
	if e.denScale == nil {
		e.denScale = defaultScale(numDen)
	}
	return e
}

// Time returns the elapsed simulated time in seconds.
func (e *Evolution) Time() float64 { return e.t }

// Densities returns the live density vector (mutated in place).
func (e *Evolution) Densities() chem.State { return e.numDen }

// Stats returns the counters from the most recent Evolve call.
func (e *Evolution) Stats() Stats { return e.stats }

// ElectronAbundance reports the current electron abundance in
// normalized units.
func (e *Evolution) ElectronAbundance() float64 {
	return e.numDen[chem.ElectronIndex] * e.abnDen
}

// Evolve advances the densities over te seconds of simulated time.
// dtTry carries the trial step in and the recommended next step out.
// eps is the relative error tolerance handed to the steppers.
//
// Each loop iteration clamps the trial step to the remaining interval,
// runs the primary stepper on a working copy of the densities, retries
// with the fallback stepper on failure, and commits the copy plus the
// conservation repair only when a stepper succeeds. te == 0 returns
// immediately with the state untouched.
func (e *Evolution) Evolve(ctx context.Context, te float64, dtTry *float64, eps float64) (Status, error) {
	e.stats = Stats{}
	if te <= 0 {
		return StatusOK, nil
	}

	n := e.net.Len()
	sys := chem.NewSystem(e.net, e.rates)
	dydt := make(chem.State, n)
	work := make(chem.State, n)

	start := time.Now()
	status := StatusOK

	e.log.Info("chemical evolution started",
		"t_yr", e.t/chem.OneYear,
		"abn_e", e.ElectronAbundance(),
		"dt_yr", *dtTry/chem.OneYear)

	logAt := e.t * 1.5

	t := 0.0
	for t < te {
		if err := ctx.Err(); err != nil {
			e.log.Warn("evolution canceled", "t_yr", e.t/chem.OneYear, "err", err)
			status = StatusTimeout
			break
		}

		*dtTry = math.Min(*dtTry, te-t)

		e.net.Derivs(e.rates, e.numDen, dydt)

		var (
			hdid, hnext float64
			err         error
		)
		for si, st := range e.steppers {
			if si > 0 {
				e.stats.Fallbacks++
			}
			copy(work, e.numDen)
			hdid, hnext, err = st.Step(sys, work, dydt, t, *dtTry, eps, e.denScale)
			if err == nil {
				break
			}
			e.log.Verbose("stepper failed",
				"stepper", st.Name(), "t_yr", e.t/chem.OneYear, "err", err)
		}
		if err != nil {
			e.log.Error("all steppers failed", "t_yr", e.t/chem.OneYear, "err", err)
			return StatusFailed, fmt.Errorf("evolve: step at t=%g s: %w", e.t, err)
		}

		copy(e.numDen, work)
		t += hdid
		e.t += hdid

		announce := false
		if e.t > logAt {
			announce = true
			logAt = e.t * 1.5
		}

		clamped, err := conserve.Enforce(e.net, e.numDen, e.abnDen, e.t, e.log, announce)
		e.stats.Clamps += clamped
		if err != nil {
			e.log.Error("conservation makeup failed", "t_yr", e.t/chem.OneYear, "err", err)
			return StatusFailed, fmt.Errorf("evolve: conservation at t=%g s: %w", e.t, err)
		}

		*dtTry = hnext
		e.stats.Steps++

		for _, obs := range e.observers {
			obs.OnStep(e.numDen, e.t, hdid)
		}

		progress := e.log.Verbose
		if announce {
			progress = e.log.Info
		}
		progress("evolution step",
			"t_yr", e.t/chem.OneYear,
			"abn_e", e.ElectronAbundance(),
			"next_dt_yr", hnext/chem.OneYear)

		if time.Since(start) > e.wallBudget {
			status = StatusTimeout
			break
		}
	}

	e.stats.Elapsed = time.Since(start)

	if status == StatusOK || t > 0.1*te {
		e.log.Info("evolution completed",
			"t_yr", e.t/chem.OneYear, "abn_e", e.ElectronAbundance(), "steps", e.stats.Steps)
	} else {
		e.log.Info("evolution terminated",
			"t_yr", e.t/chem.OneYear, "abn_e", e.ElectronAbundance(), "steps", e.stats.Steps)
	}

	return status, nil
}

// defaultScale builds a per-species error scale from the initial
// densities. Species below a ppm of the bulk (including ones starting
// at zero) are measured against the ppm floor, so their absolute noise
// does not throttle the step while they grow in.
func defaultScale(y chem.State) chem.State {
	ymax := 0.0
	for _, v := range y {
		if v > ymax {
			ymax = v
		}
	}
	if ymax == 0 {
		ymax = 1
	}
	floor := 1e-6 * ymax
	scale := make(chem.State, len(y))
	for i, v := range y {
		scale[i] = math.Max(math.Abs(v), floor)
	}
	return scale
}
