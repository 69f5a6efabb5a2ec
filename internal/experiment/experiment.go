// Package experiment wraps one complete evolution run behind a small
// config so parameter studies can build and execute runs uniformly.
package experiment

import (
	"context"
	"math"

	"github.com/san-kum/chemevol/internal/analysis"
	"github.com/san-kum/chemevol/internal/chem"
	"github.com/san-kum/chemevol/internal/evolve"
	"github.com/san-kum/chemevol/internal/networks"
)

// Config describes one run. RateScale multiplies individual entries of
// the network's rate table by index, leaving the rest untouched.
// TargetAbnE, when positive, adds an "abn_e_err" metric measuring the
// distance of the final electron abundance from the target.
type Config struct {
	Network    string
	DurationYr float64
	InitStepYr float64
	Tolerance  float64
	RateScale  map[int]float64
	TargetAbnE float64
}

// Result is the outcome of one run: final state, recorded trajectory,
// and scalar metrics keyed by name.
type Result struct {
	Status  evolve.Status
	Final   chem.State
	Times   []float64
	States  []chem.State
	Metrics map[string]float64
}

type Experiment struct {
	cfg Config
}

func New(cfg Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Run builds the network, evolves it, and summarizes the outcome.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	model, err := networks.Get(e.cfg.Network)
	if err != nil {
		return nil, err
	}

	rates := append([]float64(nil), model.Rates...)
	for idx, s := range e.cfg.RateScale {
		if idx >= 0 && idx < len(rates) {
			rates[idx] *= s
		}
	}

	y := model.Initial.Clone()
	rec := evolve.NewRecorder()
	ev := evolve.New(model.Net, rates, y, model.AbnDen, evolve.WithObserver(rec))

	dtTry := e.cfg.InitStepYr * chem.OneYear
	status, err := ev.Evolve(ctx, e.cfg.DurationYr*chem.OneYear, &dtTry, e.cfg.Tolerance)
	if err != nil {
		return nil, err
	}

	stats := ev.Stats()
	abnE := ev.ElectronAbundance()
	metrics := map[string]float64{
		"abn_e":     abnE,
		"steps":     float64(stats.Steps),
		"fallbacks": float64(stats.Fallbacks),
		"clamps":    float64(stats.Clamps),
		"drift":     analysis.ConservationDrift(model.Net, rec.States, model.AbnDen),
	}
	if at, ok := analysis.EquilibriumTime(rec.Times, rec.States, e.cfg.Tolerance*10); ok {
		metrics["equil_yr"] = at / chem.OneYear
	}
	if e.cfg.TargetAbnE > 0 {
		metrics["abn_e_err"] = math.Abs(abnE - e.cfg.TargetAbnE)
	}

	return &Result{
		Status:  status,
		Final:   y,
		Times:   rec.Times,
		States:  rec.States,
		Metrics: metrics,
	}, nil
}
