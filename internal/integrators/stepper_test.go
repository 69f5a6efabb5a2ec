package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/chemevol/internal/chem"
)

// linearSystem is y' = -diag(lambda) y, with the analytic solution
// y_i(t) = y_i(0) exp(-lambda_i t).
type linearSystem struct {
	lambda []float64
}

func (s *linearSystem) Derivs(y chem.State, dydt chem.State) {
	for i := range y {
		dydt[i] = -s.lambda[i] * y[i]
	}
}

func (s *linearSystem) Jacobian(y chem.State, jac chem.Matrix) {
	jac.Zero()
	for i := range s.lambda {
		jac[i][i] = -s.lambda[i]
	}
}

// integrate drives a stepper from t=0 to t1 the way the evolution loop
// does: recompute derivatives, clamp the trial step to the remainder,
// step, adopt the suggested next step.
func integrate(t *testing.T, st Stepper, sys System, y chem.State, t1, dtTry, eps float64) {
	t.Helper()

	dydt := make(chem.State, len(y))
	yscale := make(chem.State, len(y))
	for i := range yscale {
		yscale[i] = 1
	}

	tm := 0.0
	for steps := 0; tm < t1; steps++ {
		if steps > 100000 {
			t.Fatalf("%s: no convergence after %d steps", st.Name(), steps)
		}
		h := math.Min(dtTry, t1-tm)
		sys.Derivs(y, dydt)
		hdid, hnext, err := st.Step(sys, y, dydt, tm, h, eps, yscale)
		if err != nil {
			t.Fatalf("%s: step at t=%g failed: %v", st.Name(), tm, err)
		}
		tm += hdid
		dtTry = hnext
	}
}

func steppers() []Stepper {
	return []Stepper{NewBulirschStoer(), NewKapsRentrop()}
}

func TestStepperExponentialDecay(t *testing.T) {
	for _, st := range steppers() {
		t.Run(st.Name(), func(t *testing.T) {
			sys := &linearSystem{lambda: []float64{1}}
			y := chem.State{1}

			integrate(t, st, sys, y, 2.0, 0.05, 1e-8)

			want := math.Exp(-2.0)
			if math.Abs(y[0]-want) > 1e-6 {
				t.Errorf("y(2): expected %g, got %g", want, y[0])
			}
		})
	}
}

func TestStepperStiffTwoScale(t *testing.T) {
	// Rates three decades apart; an explicit method at the suggested
	// step sizes would blow up on the fast component.
	for _, st := range steppers() {
		t.Run(st.Name(), func(t *testing.T) {
			sys := &linearSystem{lambda: []float64{1, 1000}}
			y := chem.State{1, 1}

			integrate(t, st, sys, y, 1.0, 0.01, 1e-7)

			if want := math.Exp(-1.0); math.Abs(y[0]-want) > 1e-5 {
				t.Errorf("slow component: expected %g, got %g", want, y[0])
			}
			// exp(-1000) underflows the tolerance; it must have decayed
			// to (numerically) zero without oscillating negative big.
			if math.Abs(y[1]) > 1e-4 {
				t.Errorf("fast component: expected ~0, got %g", y[1])
			}
		})
	}
}

func TestStepperNetworkRoundTrip(t *testing.T) {
	// One-reaction network A -> B: n_A(t) = n_A(0) exp(-k t).
	b := chem.NewBuilder(1, 0, 0)
	b.AddElement("X", 1e-4)
	b.AddSpecies("e-", -1, nil)
	a := b.AddSpecies("A", 0, []float64{1})
	bb := b.AddSpecies("B", 0, []float64{1})
	b.AddReaction(0, []int{a}, []int{bb})
	net, err := b.Build()
	if err != nil {
		t.Fatalf("build network: %v", err)
	}

	k := []float64{0.7}
	for _, st := range steppers() {
		t.Run(st.Name(), func(t *testing.T) {
			sys := chem.NewSystem(net, k)
			y := chem.State{0, 1, 0}

			integrate(t, st, sys, y, 3.0, 0.05, 1e-8)

			wantA := math.Exp(-k[0] * 3.0)
			if math.Abs(y[a]-wantA) > 1e-6 {
				t.Errorf("n_A(3): expected %g, got %g", wantA, y[a])
			}
			if math.Abs(y[a]+y[bb]-1) > 1e-6 {
				t.Errorf("n_A + n_B: expected 1, got %g", y[a]+y[bb])
			}
		})
	}
}

func TestStepperZeroStep(t *testing.T) {
	for _, st := range steppers() {
		t.Run(st.Name(), func(t *testing.T) {
			sys := &linearSystem{lambda: []float64{1}}
			y := chem.State{1}
			dydt := make(chem.State, 1)
			sys.Derivs(y, dydt)

			_, _, err := st.Step(sys, y, dydt, 1.0, 0, 1e-8, chem.State{1})
			if err == nil {
				t.Fatal("expected error for a zero trial step")
			}
		})
	}
}
